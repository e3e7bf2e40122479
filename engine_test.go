// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"errors"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
)

// stubScheduler records scheduler calls. Suspend returns at once, so only
// non-blocking paths or hand-built wait queues can be exercised with it.
type stubScheduler struct {
	suspends int
	readied  []Task
}

func (s *stubScheduler) Current() Task { return s }
func (s *stubScheduler) Suspend() { s.suspends++ }
func (s *stubScheduler) Ready(t Task) { s.readied = append(s.readied, t) }

func newStubEngine(t *testing.T) (*stubScheduler, *Engine) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := &stubScheduler{}
	e := NewEngine(s).WithRand(rand.New(rand.NewPCG(3, 5))).WithLogger(log)
	return s, e
}

func mustPanicInvariant(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvariant) {
			t.Fatalf("%s: got panic %v, want ErrInvariant", name, r)
		}
	}()
	f()
}

// TestRingWraparound tests count/offset bookkeeping across many wraps.
func TestRingWraparound(t *testing.T) {
	_, e := newStubEngine(t)
	c, err := e.NewChannel(2, 3)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	next, want := 0, 0
	for round := range 50 {
		for range 1 + round%3 {
			if err := c.TrySend([]byte{byte(next), byte(next >> 8)}); err != nil {
				t.Fatalf("round %d: TrySend(%d): %v", round, next, err)
			}
			next++
		}
		for c.Len() > 0 {
			var v [2]byte
			ok, err := c.TryRecv(v[:])
			if err != nil || !ok {
				t.Fatalf("round %d: TryRecv: ok=%v err=%v", round, ok, err)
			}
			got := int(v[0]) | int(v[1])<<8
			if got != want {
				t.Fatalf("round %d: got %d, want %d", round, got, want)
			}
			want++
		}
		if c.count != 0 || c.offset < 0 || c.offset >= c.capacity {
			t.Fatalf("round %d: count=%d offset=%d", round, c.count, c.offset)
		}
	}
}

// TestTransferPaths tests the three copy cases directly.
func TestTransferPaths(t *testing.T) {
	_, e := newStubEngine(t)
	c, err := e.NewChannel(1, 2)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	// Both sides, empty ring: slot to slot, ring untouched.
	snd := SendOp(c, []byte{7})
	rcv := RecvOp(c, []byte{0})
	c.transfer(&snd, &rcv)
	if rcv.buf[0] != 7 || c.count != 0 {
		t.Fatalf("rendezvous: got %d count=%d, want 7 count=0", rcv.buf[0], c.count)
	}

	// Fill only.
	c.transfer(&Op{ch: c, dir: Send, buf: []byte{1}}, nil)
	c.transfer(&Op{ch: c, dir: Send, buf: []byte{2}}, nil)
	if c.count != 2 {
		t.Fatalf("count after fills: got %d, want 2", c.count)
	}

	// Both sides, ring full: receiver takes the head, sender appends.
	rcv = RecvOp(c, []byte{0})
	c.transfer(&Op{ch: c, dir: Send, buf: []byte{3}}, &rcv)
	if rcv.buf[0] != 1 || c.count != 2 || c.offset != 1 {
		t.Fatalf("drain+fill: got %d count=%d offset=%d, want 1 2 1", rcv.buf[0], c.count, c.offset)
	}

	// Drain only.
	for _, want := range []byte{2, 3} {
		rcv = RecvOp(c, []byte{0})
		c.transfer(nil, &rcv)
		if rcv.buf[0] != want {
			t.Fatalf("drain: got %d, want %d", rcv.buf[0], want)
		}
	}
	if c.count != 0 {
		t.Fatalf("count after drain: got %d, want 0", c.count)
	}
}

// TestDequeueMissingWaiter tests that removing a case that is not queued
// is fatal.
func TestDequeueMissingWaiter(t *testing.T) {
	_, e := newStubEngine(t)
	a, _ := e.NewChannel(1, 0)
	b, _ := e.NewChannel(1, 0)

	g := &group{ops: []Op{RecvOp(a, nil), RecvOp(b, nil)}, fired: NotReady}
	e.enqueue(g)
	b.recvq.remove(waiter{g: g, i: 1})

	mustPanicInvariant(t, "dequeue", func() { e.dequeue(g) })
}

// TestExecuteWakesWholeGroup tests execute against a hand-built blocked
// group: the matched group leaves every queue and its task is readied.
func TestExecuteWakesWholeGroup(t *testing.T) {
	s, e := newStubEngine(t)
	a, _ := e.NewChannel(1, 0)
	b, _ := e.NewChannel(1, 0)
	c, _ := e.NewChannel(1, 0)

	blocked := &group{
		task:  "blocked",
		ops:   []Op{RecvOp(a, []byte{0}), RecvOp(b, []byte{0}), SendOp(c, []byte{9})},
		fired: NotReady,
	}
	e.enqueue(blocked)
	if !a.SelectReady() {
		t.Fatal("SelectReady on first channel: got false")
	}

	if err := b.TrySend([]byte{42}); err != nil {
		t.Fatalf("TrySend: %v", err)
	}
	if blocked.fired != 1 || blocked.ops[1].buf[0] != 42 || !blocked.ops[1].ok {
		t.Fatalf("fired=%d value=%d ok=%v, want 1 42 true", blocked.fired, blocked.ops[1].buf[0], blocked.ops[1].ok)
	}
	for _, ch := range []*Channel{a, b, c} {
		if ch.SendWaiters() != 0 || ch.RecvWaiters() != 0 {
			t.Fatalf("%s: waiters %d/%d, want 0/0", ch, ch.SendWaiters(), ch.RecvWaiters())
		}
	}
	if a.SelectReady() {
		t.Fatal("SelectReady after group fired: got true")
	}
	if len(s.readied) != 1 || s.readied[0] != "blocked" {
		t.Fatalf("readied: got %v, want [blocked]", s.readied)
	}
	if s.suspends != 0 {
		t.Fatalf("suspends: got %d, want 0", s.suspends)
	}
}

// TestResumeWithoutMatch tests that a scheduler resuming a task whose group
// never fired is caught.
func TestResumeWithoutMatch(t *testing.T) {
	s, e := newStubEngine(t)
	c, _ := e.NewChannel(1, 0)

	mustPanicInvariant(t, "Recv", func() { c.Recv(nil) })
	if s.suspends != 1 {
		t.Fatalf("suspends: got %d, want 1", s.suspends)
	}
}

// TestInvalidCases tests the case checks of Select.
func TestInvalidCases(t *testing.T) {
	_, e := newStubEngine(t)
	_, other := newStubEngine(t)
	c, _ := e.NewChannel(4, 1)
	foreign, _ := other.NewChannel(4, 1)

	mustPanicInvariant(t, "nil channel", func() { e.Select([]Op{SendOp(nil, nil)}, false) })
	mustPanicInvariant(t, "sentinel", func() { e.Select([]Op{End(true)}, false) })
	mustPanicInvariant(t, "zero op", func() { e.Select([]Op{{}}, false) })
	mustPanicInvariant(t, "short slot", func() { e.Select([]Op{SendOp(c, []byte{1})}, false) })
	mustPanicInvariant(t, "foreign", func() { e.Select([]Op{RecvOp(foreign, nil)}, false) })
	mustPanicInvariant(t, "no sentinel", func() { e.Proc([]Op{SendOp(c, make([]byte, 4))}) })

	if c.Len() != 0 {
		t.Fatalf("Len after rejected cases: got %d, want 0", c.Len())
	}
}

// TestMetrics tests that the engine reports transfers and select outcomes.
func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	if _, err := NewMetrics(reg); err == nil {
		t.Fatal("second NewMetrics on same registry: got nil error")
	}

	s, e := newStubEngine(t)
	e.WithMetrics(m)
	c, _ := e.NewChannel(1, 1)

	c.TrySend([]byte{1})
	c.TryRecv(nil)
	c.TryRecv(nil)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"send/buffer", testutil.ToFloat64(m.transfers.WithLabelValues("send", PathBuffer)), 1},
		{"recv/buffer", testutil.ToFloat64(m.transfers.WithLabelValues("recv", PathBuffer)), 1},
		{"ready", testutil.ToFloat64(m.selects.WithLabelValues(OutcomeReady)), 2},
		{"not_ready", testutil.ToFloat64(m.selects.WithLabelValues(OutcomeMiss)), 1},
	}
	for _, ck := range checks {
		if ck.got != ck.want {
			t.Fatalf("%s: got %v, want %v", ck.name, ck.got, ck.want)
		}
	}

	// Hand-built blocked receiver, then a rendezvous.
	u, _ := e.NewChannel(1, 0)
	g := &group{task: "r", ops: []Op{RecvOp(u, []byte{0})}, fired: NotReady}
	e.enqueue(g)
	if got := testutil.ToFloat64(m.waiters); got != 1 {
		t.Fatalf("waiters: got %v, want 1", got)
	}
	u.TrySend([]byte{5})
	if got := testutil.ToFloat64(m.waiters); got != 0 {
		t.Fatalf("waiters after match: got %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.wakeups); got != 1 {
		t.Fatalf("wakeups: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.transfers.WithLabelValues("send", PathRendezvous)); got != 1 {
		t.Fatalf("send/rendezvous: got %v, want 1", got)
	}
	if len(s.readied) != 1 {
		t.Fatalf("readied: got %d, want 1", len(s.readied))
	}
}
