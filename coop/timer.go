// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"container/heap"
	"time"

	"code.hybscloud.com/csp"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

const (
	// Below spinThreshold the idle loop spins instead of sleeping.
	spinThreshold = 50 * time.Microsecond
	// Above sleepThreshold the idle loop sleeps on the OS timer.
	sleepThreshold = 2 * time.Millisecond
)

// Sleep parks the running task for at least d.
// A non-positive d yields.
func (s *Scheduler) Sleep(d time.Duration) {
	if d <= 0 {
		s.Yield()
		return
	}
	t := s.mustCurrent("Sleep")
	t.wakeAt = time.Now().Add(d)
	t.state.StoreRelease(stateSleeping)
	heap.Push(&s.sleepers, t)
	s.park(t)
}

// After returns a channel of e that receives one zero-size signal after d.
//
// The channel has capacity 1, so the timer task never blocks and a
// select that stopped caring about the timeout leaves no waiter behind.
// The timer task counts as a live task until it fires.
//
// The caller may Close or Destroy the channel at any time, for example
// once another case of its select has won. A timer that fires on a closed
// or destroyed channel does nothing.
//
// Panics if e does not run on s.
func (s *Scheduler) After(e *csp.Engine, d time.Duration) (*csp.Channel, error) {
	if e.Scheduler() != csp.Scheduler(s) {
		panic("coop: After with an engine of another scheduler")
	}
	ch, err := e.Chan(0).Buffer(1).Name("after").Build()
	if err != nil {
		return nil, err
	}
	_, err = s.Spawn("timer", func() {
		s.Sleep(d)
		s.fire(ch)
	})
	if err != nil {
		ch.Destroy()
		return nil, err
	}
	return ch, nil
}

// fire signals a timer channel unless its owner already released it.
func (s *Scheduler) fire(ch *csp.Channel) {
	if ch.Destroyed() || ch.Closed() {
		s.log.WithField("chan", ch.String()).Debug("coop: timer channel released before firing")
		return
	}
	if err := ch.TrySend(nil); err != nil {
		s.log.WithField("chan", ch.String()).WithError(err).Debug("coop: timer signal dropped")
	}
}

// idle waits for the earliest sleeper and makes every due sleeper
// runnable.
func (s *Scheduler) idle() {
	waitUntil(s.sleepers[0].wakeAt)
	now := time.Now()
	for s.sleepers.Len() > 0 && !s.sleepers[0].wakeAt.After(now) {
		t := heap.Pop(&s.sleepers).(*Task)
		t.state.StoreRelease(stateRunnable)
		s.enqueue(t)
	}
}

func waitUntil(deadline time.Time) {
	var (
		sw spin.Wait
		bo iox.Backoff
	)
	for {
		d := time.Until(deadline)
		switch {
		case d <= 0:
			return
		case d < spinThreshold:
			sw.Once()
		case d > sleepThreshold:
			time.Sleep(d - sleepThreshold/2)
		default:
			bo.Wait()
		}
	}
}

// sleepQueue is a min-heap of sleeping tasks ordered by deadline, then id.
type sleepQueue []*Task

func (q sleepQueue) Len() int { return len(q) }

func (q sleepQueue) Less(i, j int) bool {
	if q[i].wakeAt.Equal(q[j].wakeAt) {
		return q[i].id < q[j].id
	}
	return q[i].wakeAt.Before(q[j].wakeAt)
}

func (q sleepQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *sleepQueue) Push(x any) {
	t := x.(*Task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *sleepQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
