// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import (
	"code.hybscloud.com/atomix"

	"code.hybscloud.com/hetq/internal/hazard"
	"code.hybscloud.com/hetq/internal/pagealloc"
)

// progress selects the progress guarantee of a producer operation.
type progress int

const (
	// progressBlocking spins until the operation completes or memory is
	// exhausted.
	progressBlocking progress = iota
	// progressLockFree gives up with ErrWouldBlock instead of waiting on
	// another thread.
	progressLockFree
)

// core is the state shared by every queue variant: an append-only linked
// list of pages driven by a tail word (producers) and a head pointer
// (consumers).
type core struct {
	tail atomix.Uintptr // next free block address, or sentinel/locked
	_    pad
	head atomix.Uintptr // current head control block, 0 before first consume
	_    pad
	initialPage atomix.Uintptr // first page, published once by the first producer
	_    pad

	pool *pagealloc.Pool
	dom  *hazard.Domain
	geom geometry

	seqCst         bool
	singleProducer bool
	singleConsumer bool
}

func (c *core) init(opts Options) {
	c.pool = opts.pool()
	c.dom = &hazard.Global
	c.geom = newGeometry(c.pool.PageSize())
	c.seqCst = opts.sequential
	c.singleProducer = opts.singleProducer
	c.singleConsumer = opts.singleConsumer
	c.tail.StoreRelaxed(c.geom.invalidTail)
}

// Ordering helpers. The default memory model is acquire on loads and
// release on stores with acq-rel CAS; the Sequential() option strengthens
// every core atomic to sequential consistency.

func (c *core) load(w *atomix.Uintptr) uintptr {
	if c.seqCst {
		return w.Load()
	}
	return w.LoadAcquire()
}

func (c *core) store(w *atomix.Uintptr, v uintptr) {
	if c.seqCst {
		w.Store(v)
	} else {
		w.StoreRelease(v)
	}
}

func (c *core) cas(w *atomix.Uintptr, old, new uintptr) bool {
	if c.seqCst {
		return w.CompareAndSwap(old, new)
	}
	return w.CompareAndSwapAcqRel(old, new)
}

// freeExternal releases the backing block of the external block at ctrl.
func (c *core) freeExternal(ctrl uintptr) {
	c.pool.Deallocate(c.geom.externalDesc(ctrl).ptr)
}

// Close destroys every element still in the queue and returns all pages
// to the allocator. Close is not thread-safe: every producer and consumer
// must have finished, and every transaction must be committed or
// cancelled. The queue must not be used afterwards.
func (c *core) Close() {
	start := c.head.Load()
	if start == 0 {
		start = c.initialPage.Load()
	}
	if start == 0 {
		// No page was ever allocated.
		c.tail.StoreRelaxed(c.geom.invalidTail)
		return
	}

	curr := start
	for {
		word := ctrlWord(curr).Load()
		if word == 0 {
			break // unreserved space: end of the queue
		}
		next := word &^ flagAll
		switch {
		case word&flagDead != 0:
			if word&flagExternal != 0 {
				c.freeExternal(curr)
			}
		case word&flagBusy != 0:
			panic("hetq: Close with a transaction in flight")
		default:
			rt := c.geom.blockType(curr)
			el := c.geom.blockElement(curr, word)
			rt.Destroy(ptrAt(el))
			if word&flagExternal != 0 {
				c.freeExternal(curr)
			}
		}
		if next == 0 {
			break
		}
		if !c.geom.samePage(curr, next) {
			c.pool.DeallocatePage(c.geom.pageOf(curr))
		}
		curr = next
	}
	c.pool.DeallocatePage(c.geom.pageOf(curr))

	c.head.StoreRelaxed(0)
	c.initialPage.StoreRelaxed(0)
	c.tail.StoreRelaxed(c.geom.invalidTail)
}

// Stats returns the allocator counters of the pool backing this queue.
func (c *core) Stats() AllocatorStats {
	s := c.pool.Stats()
	return AllocatorStats{
		PagesAllocated: s.PagesAllocated,
		PagesRecycled:  s.PagesRecycled,
		PagesReleased:  s.PagesReleased,
		HazardWaits:    s.HazardWaits,
	}
}
