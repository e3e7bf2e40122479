// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package coop provides a cooperative task scheduler for package csp.
//
// Each task runs on its own goroutine, but only one task runs at any time:
// control is handed from the scheduler loop to a task and back through a
// pair of channels, so task code never executes concurrently with other
// task code. A task gives up control only when it blocks on a csp
// operation, calls Yield or Sleep, or returns.
//
// # Quick Start
//
//	s := coop.New(64)
//	e := csp.NewEngine(s)
//	ch, _ := e.NewChannel(8, 0)
//
//	s.Go(func() {
//	    var v [8]byte
//	    ch.Recv(v[:])
//	})
//	s.Go(func() {
//	    ch.Send([]byte("rendezvs"))
//	})
//	if err := s.Run(); err != nil {
//	    // ErrDeadlock or ErrTaskPanic
//	}
//
// # Run Queue
//
// Runnable tasks wait in a bounded FIFO from [code.hybscloud.com/lfq].
// A task is queued at most once, so the queue never overflows as long as
// no more than maxTasks tasks are alive.
//
// # Timers
//
// Sleep parks the running task until a deadline. After builds a timer
// channel on top of Sleep, which is how a select with a timeout is
// expressed:
//
//	timeout, _ := s.After(e, 100*time.Millisecond)
//	ops := []csp.Op{csp.RecvOp(data, buf), csp.RecvOp(timeout, nil)}
//	if e.Select(ops, true) == 1 {
//	    // timed out
//	}
//
// When no task is runnable the scheduler waits for the earliest sleeper,
// spinning with [code.hybscloud.com/spin] when the deadline is imminent
// and backing off with [code.hybscloud.com/iox] otherwise.
//
// # Deadlock
//
// Run returns [ErrDeadlock] when tasks are alive but none is runnable or
// sleeping. Blocked tasks are unwound with runtime.Goexit, so their
// deferred calls run.
package coop
