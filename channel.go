// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// Channel is a CSP channel carrying fixed-size opaque values.
//
// An unbuffered channel (capacity 0) transfers a value only when a sender
// and a receiver meet. A buffered channel stores up to capacity values in
// a FIFO ring and blocks senders only when full, receivers only when empty.
//
// Blocked operations wait in one of two wait queues, one per direction.
// Which waiter is matched is chosen uniformly at random; callers must not
// rely on arrival order between tasks. Values buffered in the ring are
// always delivered in FIFO order.
//
// Channels are driven by the Engine that created them and must only be
// used from tasks of its scheduler.
type Channel struct {
	e        *Engine
	name     string
	elemSize int
	capacity int

	ring   []byte
	count  int // occupied slots
	offset int // index of the oldest occupied slot

	sendq waitQueue
	recvq waitQueue

	scratch     []byte
	selectReady bool
	closed      bool
	destroyed   bool
}

func (e *Engine) newChannel(elemSize, capacity int, name string) (*Channel, error) {
	hi, lo := bits.Mul64(uint64(elemSize), uint64(capacity))
	if hi != 0 || lo > math.MaxInt {
		return nil, allocError("ring", lo)
	}
	ring, err := e.alloc.Alloc(int(lo))
	if err != nil {
		return nil, wrapAlloc(err)
	}
	scratch, err := e.alloc.Alloc(elemSize)
	if err != nil {
		e.alloc.Free(ring)
		return nil, wrapAlloc(err)
	}
	return &Channel{
		e:        e,
		name:     name,
		elemSize: elemSize,
		capacity: capacity,
		ring:     ring,
		scratch:  scratch,
	}, nil
}

func wrapAlloc(err error) error {
	if errors.Is(err, ErrAlloc) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrAlloc, err)
}

// Destroy releases the channel's storage.
//
// The scratch slot, wait queue storage and ring are returned to the
// allocator in that order. Destroy on a nil or already destroyed channel
// does nothing. Destroying a channel that still has blocked operations is
// an invariant violation and panics; waiters are never dropped silently.
// Buffered values that were never received are discarded.
func (c *Channel) Destroy() {
	if c == nil || c.destroyed {
		return
	}
	if c.sendq.len() > 0 || c.recvq.len() > 0 {
		c.e.fatalf("destroy %s with %d blocked senders and %d blocked receivers",
			c, c.sendq.len(), c.recvq.len())
	}
	c.e.alloc.Free(c.scratch)
	c.scratch = nil
	c.sendq.release()
	c.recvq.release()
	c.e.alloc.Free(c.ring)
	c.ring = nil
	c.count, c.offset = 0, 0
	c.selectReady = false
	c.destroyed = true
}

// Close marks the channel closed and wakes every blocked operation.
//
// After Close, Send fails with ErrClosed and receives drain the buffered
// values, then complete immediately with a zeroed value and ok == false.
// Blocked senders and receivers complete the same way.
// Closing a closed channel returns ErrClosed.
func (c *Channel) Close() error {
	c.mustLive()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	c.e.wakeAll(c)
	return nil
}

// Send blocks until buf has been handed to a receiver or stored in the
// ring. Returns ErrClosed if the channel is or becomes closed.
func (c *Channel) Send(buf []byte) error {
	ops := [2]Op{SendOp(c, buf), End(true)}
	c.e.Proc(ops[:])
	if !ops[0].ok {
		return ErrClosed
	}
	return nil
}

// TrySend sends without blocking.
// Returns ErrWouldBlock if the send cannot complete now, ErrClosed if the
// channel is closed.
func (c *Channel) TrySend(buf []byte) error {
	ops := [2]Op{SendOp(c, buf), End(false)}
	if c.e.Proc(ops[:]) == NotReady {
		return ErrWouldBlock
	}
	if !ops[0].ok {
		return ErrClosed
	}
	return nil
}

// Recv blocks until a value is stored into buf. It reports false if the
// value is the zero value of a closed, drained channel. A nil buf
// discards the value.
func (c *Channel) Recv(buf []byte) bool {
	ops := [2]Op{RecvOp(c, buf), End(true)}
	c.e.Proc(ops[:])
	return ops[0].ok
}

// TryRecv receives without blocking.
// Returns ErrWouldBlock if no value is available now.
func (c *Channel) TryRecv(buf []byte) (bool, error) {
	ops := [2]Op{RecvOp(c, buf), End(false)}
	if c.e.Proc(ops[:]) == NotReady {
		return false, ErrWouldBlock
	}
	return ops[0].ok, nil
}

// Receive is Recv into a newly allocated slice.
func (c *Channel) Receive() ([]byte, bool) {
	v := make([]byte, c.elemSize)
	ok := c.Recv(v)
	return v, ok
}

// Len returns the number of buffered values.
func (c *Channel) Len() int { return c.count }

// Cap returns the channel capacity.
func (c *Channel) Cap() int { return c.capacity }

// ElemSize returns the size of one value in bytes.
func (c *Channel) ElemSize() int { return c.elemSize }

// Name returns the debug name.
func (c *Channel) Name() string { return c.name }

// Closed reports whether Close has been called.
func (c *Channel) Closed() bool { return c.closed }

// Destroyed reports whether Destroy has released the channel. It is the
// only method besides Destroy that is valid on a destroyed channel.
func (c *Channel) Destroyed() bool { return c.destroyed }

// SendWaiters returns the number of blocked send operations.
func (c *Channel) SendWaiters() int { return c.sendq.len() }

// RecvWaiters returns the number of blocked receive operations.
func (c *Channel) RecvWaiters() int { return c.recvq.len() }

// SelectReady reports whether a blocked select group registered on this
// channel as its first case. The engine sets the flag but never reads it;
// it is a hint for select statement sugar layered on top.
func (c *Channel) SelectReady() bool { return c.selectReady }

// ConsumeSelectReady returns the select hint and clears it.
func (c *Channel) ConsumeSelectReady() bool {
	r := c.selectReady
	c.selectReady = false
	return r
}

func (c *Channel) String() string {
	name := c.name
	if name == "" {
		name = fmt.Sprintf("%p", c)
	}
	return fmt.Sprintf("chan(%s elem=%d cap=%d len=%d)", name, c.elemSize, c.capacity, c.count)
}

// queue returns the wait queue for operations of direction d.
func (c *Channel) queue(d Direction) *waitQueue {
	if d == Send {
		return &c.sendq
	}
	return &c.recvq
}

// peers returns the wait queue holding partners for direction d.
func (c *Channel) peers(d Direction) *waitQueue {
	if d == Send {
		return &c.recvq
	}
	return &c.sendq
}

func (c *Channel) mustLive() {
	if c.destroyed {
		c.e.fatalf("use of destroyed %s", c)
	}
}

// transfer moves one value between sender, receiver and the ring.
// Either side may be nil.
//
// With both sides present and nothing buffered the value goes slot to slot.
// Otherwise the receiver takes the oldest buffered value and the sender
// appends to the ring.
func (c *Channel) transfer(sender, receiver *Op) {
	n := c.elemSize
	if sender != nil && receiver != nil && c.count == 0 {
		copy(receiver.slot(), sender.slot())
		return
	}
	if receiver != nil {
		at := c.offset * n
		copy(receiver.slot(), c.ring[at:at+n])
		clear(c.ring[at : at+n])
		c.count--
		c.offset++
		if c.offset == c.capacity {
			c.offset = 0
		}
	}
	if sender != nil {
		at := (c.offset + c.count) % c.capacity * n
		copy(c.ring[at:at+n], sender.slot())
		c.count++
	}
}
