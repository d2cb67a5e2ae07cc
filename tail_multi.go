// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import (
	"unsafe"

	"code.hybscloud.com/spin"
)

// allocation is the result of a block reservation: the control block, the
// value its next word was published with, and the payload address. For
// external allocations user points at the backing block outside the page.
type allocation struct {
	ctrl    uintptr
	nextRaw uintptr
	user    uintptr
}

// reserve allocates a block, in a page or externally, and publishes its
// control word with the given flags (which include flagBusy for value
// blocks, or flagDead for raw blocks). Returns ErrWouldBlock when the
// lock-free guarantee cannot be met and ErrOutOfMemory when a pool limit
// is hit.
func (c *core) reserve(bits uintptr, includeType bool, size, align uintptr, g progress) (allocation, error) {
	if align < minAlign {
		size = alignUp(size, minAlign)
		align = minAlign
	}
	if c.singleProducer {
		return c.reserveSingle(bits, includeType, size, align, g)
	}
	return c.reserveMulti(bits, includeType, size, align, g)
}

// reserveMulti is the multi-producer engine: blocks are reserved by CAS
// on the tail, and page switches are serialized by the tail lock bit.
//
// Pages come zeroed from the pool and every producer writes only inside
// its own reserved span, so any word at or beyond the current tail reads
// zero. Consumers stop on a zero control word; the publication store of
// the reserver makes the block visible.
func (c *core) reserveMulti(bits uintptr, includeType bool, size, align uintptr, g progress) (allocation, error) {
	off := c.geom.rawMinOffset
	if includeType {
		off = c.geom.elemMinOffset
	}
	sw := spin.Wait{}
	for {
		t := c.load(&c.tail)
		if t&tailLock != 0 {
			// Another producer is installing a page.
			if g == progressLockFree {
				return allocation{}, ErrWouldBlock
			}
			sw.Once()
			continue
		}
		if t&flagInvalidNext != 0 {
			if err := c.pageOverflowMulti(t); err != nil {
				return allocation{}, err
			}
			continue
		}

		user := alignUp(t+off, align)
		newTail := alignUp(user+size, granularity)
		switch {
		case newTail-c.geom.pageOf(t) <= c.geom.endOffset:
			if c.cas(&c.tail, t, newTail) {
				nextRaw := newTail | bits
				c.store(ctrlWord(t), nextRaw)
				return allocation{ctrl: t, nextRaw: nextRaw, user: user}, nil
			}
			sw.Once()
		case size+(align-minAlign) <= c.geom.maxInPage:
			if err := c.pageOverflowMulti(t); err != nil {
				return allocation{}, err
			}
		default:
			return c.externalAllocate(bits, size, align, g)
		}
	}
}

// pageOverflowMulti installs a new page. The producer that wins the tail
// lock allocates the page, links it from the exhausted one with a dead
// cross-link, publishes the initial page if this is the first, and moves
// the tail into the new page. Losers retry the outer loop. A nil return
// with no allocation means "retry".
func (c *core) pageOverflowMulti(t uintptr) error {
	if !c.cas(&c.tail, t, t|tailLock) {
		// Someone else made progress; not a failure.
		return nil
	}
	page, err := c.pool.AllocatePage()
	if err != nil {
		c.store(&c.tail, t) // restore, queue unchanged
		return err
	}
	if t&flagInvalidNext != 0 {
		c.store(&c.initialPage, page)
	} else {
		c.store(ctrlWord(t), page|flagDead)
	}
	c.store(&c.tail, page)
	return nil
}

// externalAllocate serves a block that can never fit in a page: the
// payload goes to a raw heap block, and an in-page placeholder block
// carrying flagExternal holds its descriptor. The placeholder always
// reserves descriptor space so consumers handle one layout, and it is
// always reserved busy so that no consumer reads the descriptor before
// it is filled in; for dead (raw) blocks the busy bit is cleared here,
// for value blocks the caller's commit clears it.
func (c *core) externalAllocate(bits, size, align uintptr, g progress) (allocation, error) {
	ext, err := c.pool.Allocate(size, align)
	if err != nil {
		return allocation{}, err
	}
	a, err := c.reserve(bits|flagExternal|flagBusy, true,
		unsafe.Sizeof(externalBlock{}), unsafe.Alignof(externalBlock{}), g)
	if err != nil {
		c.pool.Deallocate(ext)
		return allocation{}, err
	}
	*c.geom.externalDesc(a.ctrl) = externalBlock{ptr: ext, size: size, align: align}
	nextRaw := a.nextRaw
	if bits&flagBusy == 0 {
		nextRaw &^= flagBusy
		c.store(ctrlWord(a.ctrl), nextRaw)
	}
	return allocation{ctrl: a.ctrl, nextRaw: nextRaw, user: ext}, nil
}
