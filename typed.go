// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Chan is a typed view of a Channel for pointer-free values.
//
// Values are copied byte for byte through the channel, so T must not
// contain pointers, slices, strings, maps, channels, functions or
// interfaces: the garbage collector cannot see references stored in a
// channel ring. NewChan panics for such types.
//
// Example:
//
//	type Point struct{ X, Y int32 }
//	ch := csp.MustChan[Point](e, 4)
//	ch.Send(Point{1, 2})
//	p, ok := ch.Recv()
//
// A Chan must be created with NewChan or MustChan. Methods of the zero
// Chan panic with an error wrapping ErrInvariant.
type Chan[T any] struct {
	c *Channel
}

// NewChan creates a typed channel of the given capacity.
// Panics if T contains pointers or capacity < 0.
func NewChan[T any](e *Engine, capacity int) (Chan[T], error) {
	var zero T
	typ := reflect.TypeOf(&zero).Elem()
	if hasPointers(typ) {
		panic(fmt.Sprintf("csp: Chan[%s]: element type contains pointers", typ))
	}
	c, err := e.Chan(int(unsafe.Sizeof(zero))).Buffer(capacity).Name(typ.String()).Build()
	if err != nil {
		return Chan[T]{}, err
	}
	return Chan[T]{c: c}, nil
}

// MustChan is NewChan that panics on allocation failure.
func MustChan[T any](e *Engine, capacity int) Chan[T] {
	ch, err := NewChan[T](e, capacity)
	if err != nil {
		panic(err)
	}
	return ch
}

// Raw returns the underlying channel, nil for the zero Chan.
func (ch Chan[T]) Raw() *Channel { return ch.c }

func (ch Chan[T]) must() *Channel {
	if ch.c == nil {
		var zero T
		panic(fmt.Errorf("%w: zero Chan[%T] used; create it with NewChan", ErrInvariant, zero))
	}
	return ch.c
}

// Send blocks until v is delivered or buffered.
func (ch Chan[T]) Send(v T) error {
	return ch.must().Send(bytesOf(&v))
}

// TrySend sends without blocking. See Channel.TrySend.
func (ch Chan[T]) TrySend(v T) error {
	return ch.must().TrySend(bytesOf(&v))
}

// Recv blocks until a value is available.
// ok is false if the channel is closed and drained.
func (ch Chan[T]) Recv() (v T, ok bool) {
	ok = ch.must().Recv(bytesOf(&v))
	return v, ok
}

// TryRecv receives without blocking. See Channel.TryRecv.
func (ch Chan[T]) TryRecv() (v T, ok bool, err error) {
	ok, err = ch.must().TryRecv(bytesOf(&v))
	return v, ok, err
}

// Close closes the channel. See Channel.Close.
func (ch Chan[T]) Close() error { return ch.must().Close() }

// Destroy releases the channel. See Channel.Destroy.
// Destroy on the zero Chan does nothing, like Destroy on a nil Channel.
func (ch Chan[T]) Destroy() { ch.c.Destroy() }

// Len returns the number of buffered values.
func (ch Chan[T]) Len() int { return ch.must().Len() }

// Cap returns the channel capacity.
func (ch Chan[T]) Cap() int { return ch.must().Cap() }

// SendCase returns a select case sending *v. v must stay valid until the
// Select call returns.
func (ch Chan[T]) SendCase(v *T) Op {
	return SendOp(ch.must(), bytesOf(v))
}

// RecvCase returns a select case receiving into *v.
func (ch Chan[T]) RecvCase(v *T) Op {
	return RecvOp(ch.must(), bytesOf(v))
}

func bytesOf[T any](p *T) []byte {
	n := unsafe.Sizeof(*p)
	if n == 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	}
	return true
}
