// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import (
	"fmt"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/sirupsen/logrus"
)

// Task states.
const (
	stateNew uint64 = iota
	stateRunnable
	stateRunning
	stateSuspended
	stateSleeping
	stateDone
)

func stateName(s uint64) string {
	switch s {
	case stateNew:
		return "new"
	case stateRunnable:
		return "runnable"
	case stateRunning:
		return "running"
	case stateSuspended:
		return "suspended"
	case stateSleeping:
		return "sleeping"
	case stateDone:
		return "done"
	}
	return "invalid"
}

// Task is a cooperatively scheduled function. Task values are the
// csp.Task handles the scheduler hands to the channel engine.
type Task struct {
	id     uint64
	name   string
	s      *Scheduler
	fn     func()
	resume chan bool // true: run, false: unwind
	state  atomix.Uint64

	wakeAt time.Time
	index  int // position in sleepQueue
}

// ID returns the task id. Ids start at 1 and are never reused.
func (t *Task) ID() uint64 { return t.id }

// Name returns the name given to Spawn.
func (t *Task) Name() string { return t.name }

func (t *Task) String() string {
	if t.name == "" {
		return fmt.Sprintf("task#%d", t.id)
	}
	return fmt.Sprintf("task#%d(%s)", t.id, t.name)
}

func (t *Task) fields() logrus.Fields {
	return logrus.Fields{"task": t.id, "name": t.name}
}

// Go spawns an unnamed task.
func (s *Scheduler) Go(fn func()) error {
	_, err := s.Spawn("", fn)
	return err
}

// Spawn creates a runnable task executing fn.
// Returns ErrTooManyTasks if maxTasks tasks are alive.
func (s *Scheduler) Spawn(name string, fn func()) (*Task, error) {
	if len(s.live) >= s.maxTasks {
		return nil, fmt.Errorf("%w: limit %d", ErrTooManyTasks, s.maxTasks)
	}
	t := &Task{
		id:     s.nextID.AddAcqRel(1),
		name:   name,
		s:      s,
		fn:     fn,
		resume: make(chan bool),
		index:  -1,
	}
	s.live[t.id] = t
	s.tasks.Add(1)
	go t.main()

	t.state.StoreRelease(stateRunnable)
	s.enqueue(t)
	s.log.WithFields(t.fields()).Debug("coop: task spawned")
	return t, nil
}

// main is the body of the task goroutine. It waits for the first
// hand-off, runs fn and reports how fn ended.
func (t *Task) main() {
	if !<-t.resume {
		t.s.events <- event{t: t, kind: evExit}
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.s.events <- event{t: t, kind: evPanic, val: r}
			return
		}
		t.s.events <- event{t: t, kind: evExit}
	}()
	t.fn()
}
