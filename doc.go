// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package csp provides CSP channels and select for cooperative task
// runtimes.
//
// A [Channel] moves fixed-size opaque values between tasks, either by
// rendezvous (capacity 0) or through a bounded FIFO ring. [Engine.Select]
// waits on several send and receive cases at once and completes exactly
// one of them, choosing uniformly at random among the cases that are ready.
//
// The package does not schedule tasks itself. It runs on any cooperative
// scheduler that implements [Scheduler]: the running task, suspending it,
// and making a suspended task runnable. Package coop provides one.
//
// # Quick Start
//
//	s := coop.New(64)
//	e := csp.NewEngine(s)
//
//	ch, err := e.NewChannel(8, 0) // unbuffered, 8-byte values
//	if err != nil {
//	    return err
//	}
//
//	s.Go(func() {
//	    ch.Send([]byte("8 bytes!"))
//	})
//	s.Go(func() {
//	    v, ok := ch.Receive()
//	    fmt.Println(string(v), ok)
//	})
//	s.Run()
//
// Builder API:
//
//	ch, err := e.Chan(16).Buffer(128).Name("events").Build()
//
// Typed channels for pointer-free values:
//
//	type Sample struct{ T int64; V float64 }
//	samples := csp.MustChan[Sample](e, 32)
//	samples.Send(Sample{T: 1, V: 0.5})
//
// # Select
//
// A select group is a slice of [Op] cases:
//
//	var v [8]byte
//	ops := []csp.Op{
//	    csp.RecvOp(requests, v[:]),
//	    csp.SendOp(replies, reply),
//	    csp.RecvOp(quit, nil), // nil slot: discard the value
//	}
//	switch e.Select(ops, true) {
//	case 0:
//	    // request in v
//	case 1:
//	    // reply sent
//	case 2:
//	    return
//	}
//
// With block == false, Select returns [NotReady] instead of suspending and
// leaves every wait queue untouched. [Engine.Proc] accepts the same cases
// terminated by an [End] sentinel; Send and Recv on a channel are
// implemented as a Proc over a single case.
//
// # Fairness
//
// No operation is preferred by arrival order or by position:
//
//   - Among several ready cases of one select, one is picked at random.
//   - Among several tasks blocked on the same channel direction, the one
//     matched is picked at random.
//
// Values inside one buffered channel keep FIFO order.
//
// The random source is injectable with [Engine.WithRand] for reproducible
// tests.
//
// # Blocking
//
// The blocking path of Select is the only place where the engine gives up
// control: it registers every case on its channel's wait queue and calls
// [Scheduler.Suspend] once. The task that later completes one of the cases
// removes the whole group from every wait queue, records which case fired,
// and calls [Scheduler.Ready]. Channel state is never left half-updated
// across a suspension.
//
// There is no timeout or cancellation of a blocked operation. Time-bounded
// waits add a timer channel as one more case of the select.
//
// # Error Handling
//
// Non-blocking operations return [ErrWouldBlock] (from
// [code.hybscloud.com/iox]) when they cannot proceed:
//
//	err := ch.TrySend(buf)
//	if csp.IsWouldBlock(err) {
//	    // nobody to receive, buffer full
//	}
//
// Send on a closed channel returns [ErrClosed]. Channel creation returns an
// error wrapping [ErrAlloc] when storage cannot be allocated.
//
// Broken invariants (removing an operation that was never queued, a Proc
// group without sentinel, destroying a channel with blocked waiters, use
// of a destroyed channel) are logged and panic with an error wrapping
// [ErrInvariant].
//
// # Thread Safety
//
// None. The engine relies on its scheduler running one task at a time and
// uses no locks. Channels of one Engine must not be touched from more than
// one goroutine at once.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [github.com/sirupsen/logrus] for logging and
// [github.com/prometheus/client_golang] for optional metrics.
package csp
