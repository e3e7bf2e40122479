// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates a non-blocking operation cannot proceed now.
//
// For TrySend: no receiver is waiting and the buffer (if any) is full.
// For TryRecv: no sender is waiting and the buffer (if any) is empty.
//
// ErrWouldBlock is a control flow signal, not a failure. This is an alias
// for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := ch.TrySend(buf)
//	    if err == nil {
//	        break
//	    }
//	    if !csp.IsWouldBlock(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
var ErrWouldBlock = iox.ErrWouldBlock

// ErrClosed is returned by Send on a closed channel and by Close on a
// channel that is already closed.
var ErrClosed = errors.New("csp: channel closed")

// ErrAlloc reports that the backing storage of a channel could not be
// allocated. It is returned wrapped with the requested size.
var ErrAlloc = errors.New("csp: allocation failed")

// ErrInvariant is wrapped by every panic raised for a broken engine
// invariant: removing an operation that was never queued, a Proc group
// without a terminating sentinel, destroying a channel with blocked
// waiters, or touching a destroyed channel.
//
// These panics are not meant to be recovered by application code.
var ErrInvariant = errors.New("csp: invariant violation")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrMore.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

func allocError(what string, n uint64) error {
	return fmt.Errorf("%w: %s of %d bytes", ErrAlloc, what, n)
}
