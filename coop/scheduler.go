// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"fmt"
	"runtime"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/csp"
	"code.hybscloud.com/lfq"
	"github.com/sirupsen/logrus"
)

// Scheduler runs tasks one at a time.
//
// Scheduler implements csp.Scheduler. Spawn may be called before Run from
// the goroutine that will call Run, or from inside a running task. All
// other methods except the statistics accessors must only be called from
// inside a running task.
type Scheduler struct {
	runq     *lfq.SPSC[*Task]
	maxTasks int
	live     map[uint64]*Task
	current  *Task
	sleepers sleepQueue
	events   chan event

	nextID   atomix.Uint64
	running  atomix.Uint64 // 1 while Run is active
	tasks    atomix.Int64 // live task count, readable from any goroutine
	switches atomix.Int64

	log logrus.FieldLogger
}

type eventKind uint8

const (
	evPark eventKind = iota
	evExit
	evPanic
)

// event is sent by a task goroutine when it hands control back.
type event struct {
	t    *Task
	kind eventKind
	val  any
}

// New creates a scheduler for at most maxTasks live tasks.
//
// Panics if maxTasks < 1.
func New(maxTasks int) *Scheduler {
	if maxTasks < 1 {
		panic("coop: maxTasks must be >= 1")
	}
	return &Scheduler{
		runq:     lfq.BuildSPSC[*Task](lfq.New(max(maxTasks, 2)).SingleProducer().SingleConsumer()),
		maxTasks: maxTasks,
		live:     make(map[uint64]*Task, maxTasks),
		events:   make(chan event),
		log:      logrus.StandardLogger(),
	}
}

// WithLogger sets the logger.
func (s *Scheduler) WithLogger(l logrus.FieldLogger) *Scheduler {
	if l == nil {
		l = logrus.StandardLogger()
	}
	s.log = l
	return s
}

// Run drives tasks until every task has returned.
//
// Returns ErrDeadlock if tasks remain that can never run again, or an
// error wrapping ErrTaskPanic if a task panics. In both cases every
// remaining task is unwound before Run returns.
func (s *Scheduler) Run() error {
	if !s.running.CompareAndSwapAcqRel(0, 1) {
		return ErrRunning
	}
	defer s.running.StoreRelease(0)

	for {
		t, err := s.runq.Dequeue()
		if err != nil {
			switch {
			case len(s.live) == 0:
				return nil
			case s.sleepers.Len() > 0:
				s.idle()
				continue
			}
			return s.deadlock()
		}
		if t.state.LoadAcquire() != stateRunnable {
			continue
		}
		if err := s.switchTo(t); err != nil {
			return err
		}
	}
}

// switchTo runs t until it parks, returns or panics.
func (s *Scheduler) switchTo(t *Task) error {
	t.state.StoreRelease(stateRunning)
	s.current = t
	t.resume <- true
	ev := <-s.events
	s.current = nil
	s.switches.Add(1)

	switch ev.kind {
	case evExit:
		s.retire(t)
		s.log.WithFields(t.fields()).Debug("coop: task exited")
	case evPanic:
		s.retire(t)
		s.log.WithFields(t.fields()).WithField("panic", ev.val).Error("coop: task panicked")
		err := fmt.Errorf("%w: %s: %v", ErrTaskPanic, t, ev.val)
		s.abortAll()
		return err
	}
	return nil
}

func (s *Scheduler) deadlock() error {
	n := len(s.live)
	s.log.WithField("blocked", n).Warn("coop: deadlock")
	s.abortAll()
	return fmt.Errorf("%w: %d tasks blocked", ErrDeadlock, n)
}

// abortAll unwinds every live task. Tasks that never started exit at
// once; parked tasks leave Suspend through runtime.Goexit.
func (s *Scheduler) abortAll() {
	for _, t := range s.live {
		t.resume <- false
		<-s.events
		s.retire(t)
	}
	for {
		if _, err := s.runq.Dequeue(); err != nil {
			break
		}
	}
	s.sleepers = s.sleepers[:0]
}

func (s *Scheduler) retire(t *Task) {
	t.state.StoreRelease(stateDone)
	delete(s.live, t.id)
	s.tasks.Add(-1)
}

// Current returns the running task, or nil outside of tasks.
func (s *Scheduler) Current() csp.Task {
	if s.current == nil {
		return nil
	}
	return s.current
}

// Suspend parks the running task until Ready is called with it.
func (s *Scheduler) Suspend() {
	t := s.mustCurrent("Suspend")
	t.state.StoreRelease(stateSuspended)
	s.park(t)
}

// Ready makes a suspended task runnable. It does not yield.
// Panics if t is not a suspended task of s.
func (s *Scheduler) Ready(x csp.Task) {
	t, ok := x.(*Task)
	if !ok || t == nil || t.s != s {
		panic(fmt.Sprintf("coop: Ready of foreign task %v", x))
	}
	if !t.state.CompareAndSwapAcqRel(stateSuspended, stateRunnable) {
		panic(fmt.Sprintf("coop: Ready of %s in state %s", t, stateName(t.state.LoadAcquire())))
	}
	s.enqueue(t)
}

// Yield moves the running task to the back of the run queue.
func (s *Scheduler) Yield() {
	t := s.mustCurrent("Yield")
	t.state.StoreRelease(stateRunnable)
	s.enqueue(t)
	s.park(t)
}

// Tasks returns the number of live tasks.
func (s *Scheduler) Tasks() int {
	return int(s.tasks.Load())
}

// Switches returns the number of times control returned to the scheduler.
func (s *Scheduler) Switches() int64 {
	return s.switches.Load()
}

func (s *Scheduler) enqueue(t *Task) {
	if err := s.runq.Enqueue(&t); err != nil {
		panic(fmt.Sprintf("coop: run queue full enqueueing %s: %v", t, err))
	}
}

// park hands control back to the scheduler loop and waits to be resumed.
func (s *Scheduler) park(t *Task) {
	s.events <- event{t: t, kind: evPark}
	if !<-t.resume {
		runtime.Goexit()
	}
}

func (s *Scheduler) mustCurrent(op string) *Task {
	if s.current == nil {
		panic("coop: " + op + " called outside of a task")
	}
	return s.current
}
