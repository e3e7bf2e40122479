// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import "github.com/sirupsen/logrus"

// Select completes one of ops and returns its index.
//
// If several cases can proceed, one is chosen uniformly at random; the
// position of a case in ops gives it no priority. If none can proceed and
// block is false, Select returns NotReady without side effects. Otherwise
// the running task registers every case on its channel's wait queue and
// suspends until another task's operation completes one of them.
//
// On return, ops[i].OK() reports whether case i transferred a value or
// completed because its channel is closed.
//
// An empty ops with block == true suspends the caller forever.
//
// A task unwound while suspended, by runtime.Goexit or a panic raised
// inside Suspend, leaves every wait queue before Select unwinds.
//
// Example:
//
//	var v [8]byte
//	ops := []csp.Op{
//	    csp.RecvOp(in, v[:]),
//	    csp.SendOp(out, payload),
//	}
//	switch e.Select(ops, true) {
//	case 0:
//	    // received into v
//	case 1:
//	    // payload sent
//	}
func (e *Engine) Select(ops []Op, block bool) int {
	task := e.sched.Current()
	for i := range ops {
		e.checkOp(&ops[i])
		ops[i].ok = false
	}

	var stack [8]int
	ready := stack[:0]
	for i := range ops {
		if e.canExecute(&ops[i]) {
			ready = append(ready, i)
		}
	}
	if len(ready) > 0 {
		i := ready[0]
		if len(ready) > 1 {
			i = ready[e.rand.IntN(len(ready))]
		}
		e.execute(&ops[i])
		e.metrics.selectOutcome(OutcomeReady)
		return i
	}
	if !block {
		e.metrics.selectOutcome(OutcomeMiss)
		return NotReady
	}

	g := &group{task: task, ops: ops, fired: NotReady}
	e.enqueue(g)
	defer e.abandon(g)
	e.metrics.selectOutcome(OutcomeBlocked)
	if e.debug() {
		e.log.WithFields(logrus.Fields{"cases": len(ops)}).Debug("csp: task blocked")
	}
	e.sched.Suspend()
	if g.fired == NotReady {
		e.fatalf("task resumed with no completed case in a group of %d", len(ops))
	}
	return g.fired
}

// abandon removes g from every wait queue if it never fired. This runs when
// the task is unwound inside Suspend, e.g. by a scheduler that gives up on
// a deadlock.
func (e *Engine) abandon(g *group) {
	if g.fired != NotReady {
		return
	}
	e.dequeue(g)
	if e.debug() {
		e.log.WithFields(logrus.Fields{"cases": len(g.ops)}).Debug("csp: blocked group abandoned")
	}
}

// Proc runs a group terminated by an End sentinel.
//
// The cases before the first End(true) or End(false) form the group;
// End(true) blocks like Select(ops, true), End(false) polls. Proc panics
// with ErrInvariant if ops has no sentinel.
//
// Example:
//
//	ops := [...]csp.Op{csp.SendOp(ch, buf), csp.End(false)}
//	if e.Proc(ops[:]) == csp.NotReady {
//	    // nobody was ready to receive
//	}
func (e *Engine) Proc(ops []Op) int {
	for n := range ops {
		switch ops[n].dir {
		case EndBlock:
			return e.Select(ops[:n], true)
		case EndPoll:
			return e.Select(ops[:n], false)
		}
	}
	e.fatalf("group of %d cases has no end sentinel", len(ops))
	return NotReady
}

func (e *Engine) checkOp(op *Op) {
	c := op.ch
	switch {
	case op.dir != Send && op.dir != Recv:
		e.fatalf("invalid case direction %s", op.dir)
	case c == nil:
		e.fatalf("%s case on nil channel", op.dir)
	case c.e != e:
		e.fatalf("%s belongs to another engine", c)
	}
	c.mustLive()
	if op.buf == nil && op.dir == Recv {
		return
	}
	if len(op.buf) < c.elemSize {
		e.fatalf("%s slot of %d bytes on %s", op.dir, len(op.buf), c)
	}
}
