// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import (
	"code.hybscloud.com/iox"

	"code.hybscloud.com/hetq/internal/pagealloc"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For TryConsume/Pop: no committed element is ready (the queue is empty,
// or every ready element is claimed or still being produced).
// For TryStartPush/TryPush: another producer holds the page lock and the
// lock-free guarantee forbids waiting for it.
//
// ErrWouldBlock is a control flow signal, not a failure. The caller
// should retry the operation later (with backoff or yield) rather than
// propagating the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrOutOfMemory indicates the page pool's configured live-page limit is
// exhausted. The failed operation left the queue unchanged: no block was
// reserved and no busy residue remains.
var ErrOutOfMemory = pagealloc.ErrOutOfMemory

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
// Returns true for nil or ErrWouldBlock.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
