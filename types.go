// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

// Task is an opaque handle to a task of the hosting scheduler.
//
// The engine never inspects a Task. It only stores the handle returned by
// [Scheduler.Current] while the task is blocked and passes it back to
// [Scheduler.Ready] when the task's operation completes.
type Task any

// Scheduler is the cooperative scheduler the engine runs on.
//
// The engine assumes a fair, non-preemptive scheduler on which exactly one
// task runs at a time. Select calls Suspend at most once per call, and only
// on its blocking path; it is the only point at which the engine gives up
// control. Ready never yields.
//
// Implementations based on stackful tasks, goroutine hand-off or an event
// loop can be substituted without changes to the channel algorithm.
// See package coop for the reference implementation.
type Scheduler interface {
	// Current returns the handle of the running task.
	Current() Task

	// Suspend parks the running task. It returns only after another task
	// has passed the handle to Ready.
	Suspend()

	// Ready makes a suspended task runnable. It does not yield.
	Ready(t Task)
}

// Rand is the random source used for fairness decisions.
//
// IntN returns a uniformly distributed integer in [0, n). n is always > 0.
// *math/rand/v2.Rand satisfies Rand.
type Rand interface {
	IntN(n int) int
}

// Allocator provides the byte storage of channel rings and scratch slots.
//
// Alloc returns a zeroed slice of exactly n bytes, or an error wrapping
// ErrAlloc. n may be 0. Free releases a slice obtained from Alloc; it is
// called exactly once per successful Alloc, when the channel is destroyed.
type Allocator interface {
	Alloc(n int) ([]byte, error)
	Free(b []byte)
}

// Direction selects what an Op does.
//
// EndBlock and EndPoll are not operations. They terminate a group passed to
// [Engine.Proc]: EndBlock lets the caller suspend when nothing is ready,
// EndPoll asks for a non-blocking poll.
type Direction uint8

const (
	Send Direction = iota + 1
	Recv
	EndBlock
	EndPoll
)

func (d Direction) String() string {
	switch d {
	case Send:
		return "send"
	case Recv:
		return "recv"
	case EndBlock:
		return "end(block)"
	case EndPoll:
		return "end(poll)"
	}
	return "invalid"
}

// NotReady is returned by Select and Proc when a non-blocking group has no
// case that can proceed.
const NotReady = -1
