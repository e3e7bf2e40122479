// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// canExecute reports whether op can complete without blocking.
func (e *Engine) canExecute(op *Op) bool {
	c := op.ch
	if c.closed {
		return true
	}
	if c.capacity == 0 {
		return c.peers(op.dir).len() > 0
	}
	if op.dir == Send {
		return c.count < c.capacity
	}
	return c.count > 0
}

// execute completes op. canExecute must hold for it.
//
// A blocked partner, if any, is chosen at random from the opposite wait
// queue. Its whole group leaves every wait queue and its task is made
// runnable before execute returns.
func (e *Engine) execute(op *Op) {
	c := op.ch
	if c.closed {
		e.executeClosed(op)
		return
	}

	w, found := c.peers(op.dir).tryTakeRandom(e.rand)
	if !found {
		if op.dir == Send {
			c.transfer(op, nil)
		} else {
			c.transfer(nil, op)
		}
		op.ok = true
		e.metrics.transfer(op.dir, PathBuffer)
		return
	}

	peer := &w.g.ops[w.i]
	path := PathBuffer
	if c.count == 0 {
		path = PathRendezvous
	}
	if op.dir == Send {
		c.transfer(op, peer)
	} else {
		c.transfer(peer, op)
	}
	op.ok, peer.ok = true, true
	e.metrics.transfer(op.dir, path)
	e.metrics.transfer(peer.dir, path)
	e.wake(w)
}

func (e *Engine) executeClosed(op *Op) {
	c := op.ch
	switch {
	case op.dir == Send:
		op.ok = false
	case c.count > 0:
		c.transfer(nil, op)
		op.ok = true
	default:
		clear(op.slot())
		op.ok = false
	}
	e.metrics.transfer(op.dir, PathClosed)
}

// wake completes the group of w with case w.i and resumes its task.
func (e *Engine) wake(w waiter) {
	e.dequeue(w.g)
	w.g.fired = w.i
	e.metrics.wakeup()
	if e.debug() {
		e.log.WithFields(logrus.Fields{
			"chan": w.g.ops[w.i].ch.String(),
			"case": w.i,
			"dir":  w.g.ops[w.i].dir.String(),
		}).Debug("csp: waiter matched")
	}
	e.sched.Ready(w.g.task)
}

// enqueue registers every case of g on its channel's wait queue.
func (e *Engine) enqueue(g *group) {
	for i := range g.ops {
		op := &g.ops[i]
		op.ch.queue(op.dir).push(waiter{g: g, i: i})
	}
	if len(g.ops) > 0 {
		g.ops[0].ch.selectReady = true
	}
	e.metrics.addWaiters(len(g.ops))
}

// dequeue removes every case of g from its wait queue. Only one case of a
// group may ever fire, so the group leaves all queues at once.
func (e *Engine) dequeue(g *group) {
	for i := range g.ops {
		c := g.ops[i].ch
		if !c.queue(g.ops[i].dir).remove(waiter{g: g, i: i}) {
			e.fatalf("case %d (%s) of a blocked group is missing from %s", i, g.ops[i].dir, c)
		}
		if c.sendq.len() == 0 && c.recvq.len() == 0 {
			c.selectReady = false
		}
	}
	e.metrics.addWaiters(-len(g.ops))
}

// wakeAll completes every operation blocked on the closed channel c.
func (e *Engine) wakeAll(c *Channel) {
	for _, q := range [2]*waitQueue{&c.recvq, &c.sendq} {
		for q.len() > 0 {
			w := q.items[q.len()-1]
			op := &w.g.ops[w.i]
			if op.dir == Recv {
				clear(op.slot())
			}
			op.ok = false
			e.metrics.transfer(op.dir, PathClosed)
			e.wake(w)
		}
	}
}

// fatalf logs an invariant violation and panics with an error wrapping
// ErrInvariant.
func (e *Engine) fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.log.WithField("component", "csp").Error(msg)
	panic(fmt.Errorf("%w: %s", ErrInvariant, msg))
}

func (e *Engine) debug() bool {
	l, ok := e.log.(interface{ IsLevelEnabled(logrus.Level) bool })
	return ok && l.IsLevelEnabled(logrus.DebugLevel)
}
