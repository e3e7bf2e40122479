// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

// MaxAlloc is the largest ring HeapAllocator hands out (1 GiB).
const MaxAlloc = 1 << 30

// HeapAllocator allocates channel storage from the Go heap.
// Requests above MaxAlloc fail with ErrAlloc instead of crashing the
// process.
type HeapAllocator struct{}

// Alloc returns n zeroed bytes.
func (HeapAllocator) Alloc(n int) ([]byte, error) {
	if n < 0 || n > MaxAlloc {
		return nil, allocError("heap block", uint64(n))
	}
	return make([]byte, n), nil
}

// Free is a no-op; the garbage collector reclaims the block.
func (HeapAllocator) Free([]byte) {}
