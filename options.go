// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

// Engine binds channels to one cooperative scheduler.
//
// An Engine carries everything the channel algorithm depends on besides
// the channels themselves: the scheduler, the random source used for
// fairness, the allocator for ring storage, the logger and optional
// metrics. Channels created by an Engine may only be used in Select groups
// of the same Engine.
//
// An Engine is not safe for use by more than one running task at a time,
// which is exactly what a cooperative scheduler guarantees.
//
// Example:
//
//	s := coop.New(64)
//	e := csp.NewEngine(s).WithLogger(log).WithMetrics(m)
//	ch, err := e.NewChannel(8, 0)
type Engine struct {
	sched   Scheduler
	rand    Rand
	alloc   Allocator
	log     logrus.FieldLogger
	metrics *Metrics
}

// NewEngine creates an Engine on top of s.
//
// Defaults: random source from math/rand/v2, heap allocator,
// logrus.StandardLogger(), no metrics.
//
// Panics if s is nil.
func NewEngine(s Scheduler) *Engine {
	if s == nil {
		panic("csp: nil scheduler")
	}
	return &Engine{
		sched: s,
		rand:  globalRand{},
		alloc: HeapAllocator{},
		log:   logrus.StandardLogger(),
	}
}

// WithRand sets the random source used for fairness.
// Tests inject a seeded source to make choices reproducible.
func (e *Engine) WithRand(r Rand) *Engine {
	if r == nil {
		r = globalRand{}
	}
	e.rand = r
	return e
}

// WithAllocator sets the allocator for channel storage.
// Only channels created afterwards use it.
func (e *Engine) WithAllocator(a Allocator) *Engine {
	if a == nil {
		a = HeapAllocator{}
	}
	e.alloc = a
	return e
}

// WithLogger sets the logger.
func (e *Engine) WithLogger(l logrus.FieldLogger) *Engine {
	if l == nil {
		l = logrus.StandardLogger()
	}
	e.log = l
	return e
}

// WithMetrics enables metrics. A nil m disables them.
func (e *Engine) WithMetrics(m *Metrics) *Engine {
	e.metrics = m
	return e
}

// Scheduler returns the scheduler the engine runs on.
func (e *Engine) Scheduler() Scheduler {
	return e.sched
}

// Builder creates channels with fluent configuration.
//
// Example:
//
//	// Unbuffered 8-byte channel
//	ch, err := e.Chan(8).Build()
//
//	// Buffered, named channel
//	ch, err := e.Chan(16).Buffer(32).Name("events").Build()
type Builder struct {
	e        *Engine
	elemSize int
	capacity int
	name     string
}

// Chan creates a channel builder for elements of elemSize bytes.
//
// Panics if elemSize < 0.
func (e *Engine) Chan(elemSize int) *Builder {
	if elemSize < 0 {
		panic("csp: element size must be >= 0")
	}
	return &Builder{e: e, elemSize: elemSize}
}

// Buffer sets the channel capacity. 0 (the default) makes the channel
// unbuffered: every transfer is a rendezvous between two tasks.
//
// Panics if n < 0.
func (b *Builder) Buffer(n int) *Builder {
	if n < 0 {
		panic("csp: capacity must be >= 0")
	}
	b.capacity = n
	return b
}

// Name sets a debug name shown in logs and String.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Build allocates the channel.
// Returns an error wrapping ErrAlloc if storage cannot be allocated.
func (b *Builder) Build() (*Channel, error) {
	return b.e.newChannel(b.elemSize, b.capacity, b.name)
}

// NewChannel creates a channel of capacity elements of elemSize bytes.
// Capacity 0 makes an unbuffered channel.
//
// Panics if elemSize < 0 or capacity < 0.
func (e *Engine) NewChannel(elemSize, capacity int) (*Channel, error) {
	return e.Chan(elemSize).Buffer(capacity).Build()
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }
