// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

// Op describes one send or receive attempt for Select and Proc.
//
// The value slot is owned by the caller. For Send it holds the payload, for
// Recv it receives one. It must be at least ElemSize bytes long; only the
// first ElemSize bytes are used. A nil Recv slot discards the value.
//
// An Op slice is only referenced by the engine for the duration of the
// Select or Proc call it was passed to. After the call returns, OK reports
// how the fired case completed.
type Op struct {
	ch  *Channel
	dir Direction
	buf []byte
	ok  bool
}

// SendOp returns a send case on ch with payload buf.
func SendOp(ch *Channel, buf []byte) Op {
	return Op{ch: ch, dir: Send, buf: buf}
}

// RecvOp returns a receive case on ch storing into buf.
func RecvOp(ch *Channel, buf []byte) Op {
	return Op{ch: ch, dir: Recv, buf: buf}
}

// End returns the sentinel that terminates a Proc group.
func End(block bool) Op {
	if block {
		return Op{dir: EndBlock}
	}
	return Op{dir: EndPoll}
}

// Channel returns the channel of the case.
func (op *Op) Channel() *Channel { return op.ch }

// Dir returns the direction of the case.
func (op *Op) Dir() Direction { return op.dir }

// OK reports whether the case transferred a value.
// It is false when the case fired because its channel was closed.
func (op *Op) OK() bool { return op.ok }

// slot returns the elemSize-byte view of the value slot.
func (op *Op) slot() []byte {
	if op.buf == nil && op.dir == Recv {
		return op.ch.scratch
	}
	return op.buf[:op.ch.elemSize]
}

// group is one Select call: the caller's cases, the task that issued them
// and, once matched by another task, the index of the case that fired.
//
// Select allocates a group only on its blocking path. Wait queues reference
// it only while the owner task is suspended.
type group struct {
	task  Task
	ops   []Op
	fired int
}
