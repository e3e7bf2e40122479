// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp_test

import (
	"testing"

	"code.hybscloud.com/csp"
)

type point struct {
	X, Y int32
	Tag  [3]byte
}

// TestChanTyped tests a typed channel end to end.
func TestChanTyped(t *testing.T) {
	s, e := newRuntime(t, 2)
	ch := csp.MustChan[point](e, 2)
	if ch.Raw().ElemSize() != 12 || ch.Cap() != 2 {
		t.Fatalf("elem=%d cap=%d, want 12 2", ch.Raw().ElemSize(), ch.Cap())
	}

	want := []point{{1, 2, [3]byte{'a'}}, {-3, 4, [3]byte{'b', 'c'}}, {5, -6, [3]byte{}}}
	var got []point
	s.Go(func() {
		for _, p := range want {
			if err := ch.Send(p); err != nil {
				t.Errorf("Send: %v", err)
			}
		}
		ch.Close()
	})
	s.Go(func() {
		for {
			p, ok := ch.Recv()
			if !ok {
				return
			}
			got = append(got, p)
		}
	})
	run(t, s)

	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
	ch.Destroy()
}

// TestChanTypedCases tests typed select cases and the non-blocking calls.
func TestChanTypedCases(t *testing.T) {
	s, e := newRuntime(t, 1)
	ints := csp.MustChan[int64](e, 1)
	done := csp.MustChan[struct{}](e, 1)

	s.Go(func() {
		if _, _, err := ints.TryRecv(); !csp.IsWouldBlock(err) {
			t.Errorf("TryRecv on empty: got %v, want ErrWouldBlock", err)
		}
		if err := ints.TrySend(-7); err != nil {
			t.Errorf("TrySend: %v", err)
		}
		if err := done.TrySend(struct{}{}); err != nil {
			t.Errorf("TrySend signal: %v", err)
		}

		var v int64
		var sig struct{}
		ops := []csp.Op{ints.RecvCase(&v), done.RecvCase(&sig)}
		seen := map[int]bool{}
		for range 2 {
			i := e.Select(ops, true)
			seen[i] = true
		}
		if !seen[0] || !seen[1] || v != -7 {
			t.Errorf("seen=%v v=%d, want both cases and -7", seen, v)
		}

		w := int64(99)
		if i := e.Select([]csp.Op{ints.SendCase(&w)}, false); i != 0 {
			t.Errorf("SendCase: got %d, want 0", i)
		}
		if got, ok, err := ints.TryRecv(); got != 99 || !ok || err != nil {
			t.Errorf("TryRecv: got %d ok=%v err=%v", got, ok, err)
		}
	})
	run(t, s)

	if ints.Len() != 0 || done.Len() != 0 {
		t.Fatalf("Len: ints=%d done=%d, want 0 0", ints.Len(), done.Len())
	}
	if done.Raw().ElemSize() != 0 {
		t.Fatalf("struct{} elem size: got %d, want 0", done.Raw().ElemSize())
	}
}

// TestChanRejectsPointers tests that types the collector would need to scan
// are refused.
func TestChanRejectsPointers(t *testing.T) {
	_, e := newRuntime(t, 1)
	for _, tc := range []struct {
		name string
		f    func()
	}{
		{"*int", func() { csp.MustChan[*int](e, 0) }},
		{"string", func() { csp.MustChan[string](e, 0) }},
		{"[]byte", func() { csp.MustChan[[]byte](e, 0) }},
		{"struct with map", func() { csp.MustChan[struct{ M map[int]int }](e, 0) }},
		{"any", func() { csp.MustChan[any](e, 0) }},
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s: expected panic", tc.name)
				}
			}()
			tc.f()
		}()
	}

	csp.MustChan[[4]uint16](e, 0)
	csp.MustChan[[0]*int](e, 0)
}

// TestChanZeroValue tests that a Chan not built by NewChan is refused.
func TestChanZeroValue(t *testing.T) {
	var ch csp.Chan[int64]
	if ch.Raw() != nil {
		t.Fatalf("Raw of zero Chan: got %v, want nil", ch.Raw())
	}
	ch.Destroy()

	var v int64
	for _, tc := range []struct {
		name string
		f    func()
	}{
		{"Send", func() { ch.Send(1) }},
		{"TrySend", func() { ch.TrySend(1) }},
		{"Recv", func() { ch.Recv() }},
		{"TryRecv", func() { ch.TryRecv() }},
		{"Close", func() { ch.Close() }},
		{"Len", func() { ch.Len() }},
		{"Cap", func() { ch.Cap() }},
		{"SendCase", func() { ch.SendCase(&v) }},
		{"RecvCase", func() { ch.RecvCase(&v) }},
	} {
		expectInvariant(t, tc.name, tc.f)
	}
}
