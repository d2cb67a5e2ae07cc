// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// Control-word flag bits. The low bits of a control word carry state; the
// remaining high bits are the address of the next control block (or the
// base of the next page on a cross-link).
const (
	// flagBusy marks a block that a producer is still constructing or a
	// consumer is still running on.
	flagBusy uintptr = 1 << 0

	// flagDead marks a block that is not consumable: a cancelled put, a
	// fully consumed element, a raw allocation, or a page cross-link.
	// Dead is final; it is never cleared.
	flagDead uintptr = 1 << 1

	// flagExternal marks a block whose payload lives in a heap block
	// outside the page; the in-page payload is an externalBlock
	// descriptor. A dead block still carrying flagExternal owns its
	// backing block, and whoever retires the block frees it.
	flagExternal uintptr = 1 << 2

	// flagInvalidNext tags the tail sentinel used before the first page
	// exists. It never appears in a published control word.
	flagInvalidNext uintptr = 1 << 3

	flagAll uintptr = flagBusy | flagDead | flagExternal | flagInvalidNext
)

// tailLock is the low bit of the tail word held by the producer that is
// installing a new page. It plays the role of the busy bit of a pseudo
// end-of-page control block.
const tailLock = flagBusy

// granularity is the allocation granularity of blocks inside a page.
// Control blocks, descriptors and payload starts are laid out on this
// boundary, which also keeps head/tail values flag-free and distinct
// cache lines for adjacent blocks.
const granularity = 64

// minAlign is the minimum payload alignment. Requests below it are
// raised, and sizes rounded up accordingly.
const minAlign = 8

// ctrlSize is the size of an in-page control block: a single atomic word.
const ctrlSize = unsafe.Sizeof(atomix.Uintptr{})

// externalBlock is the in-page descriptor of an externally allocated
// payload.
type externalBlock struct {
	ptr   uintptr
	size  uintptr
	align uintptr
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// ctrlWord reinterprets a control-block address as its atomic next word.
func ctrlWord(addr uintptr) *atomix.Uintptr {
	return (*atomix.Uintptr)(unsafe.Pointer(addr))
}

// ptrAt converts an in-page or external address to a pointer. The memory
// is pinned by the allocator registry, never by this pointer.
func ptrAt(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr)
}

func alignUp(v, a uintptr) uintptr   { return (v + a - 1) &^ (a - 1) }
func alignDown(v, a uintptr) uintptr { return v &^ (a - 1) }
