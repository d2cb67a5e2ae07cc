// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import (
	"code.hybscloud.com/spin"

	"code.hybscloud.com/hetq/internal/hazard"
)

// consumeState is a claimed block: the control block, its pre-claim
// control word, and the hazard slot held for the duration of the
// operation (nil in the single-consumer engine).
type consumeState struct {
	ctrl uintptr
	word uintptr
	slot *hazard.Slot
}

// startConsumeMulti is the multi-consumer engine. It walks control blocks
// from the head under hazard protection, claims a consumable block by
// CAS-setting its busy bit, and retires dead prefixes as it goes.
func (c *core) startConsumeMulti() (consumeState, bool) {
	slot := c.dom.Acquire()
	sw := spin.Wait{}
	for {
		h := c.load(&c.head)
		if h == 0 {
			ip := c.load(&c.initialPage)
			if ip == 0 {
				c.dom.Release(slot)
				return consumeState{}, false
			}
			c.cas(&c.head, 0, ip)
			continue
		}

		// Hazard protocol: publish, then re-validate the source.
		slot.Protect(h)
		if c.load(&c.head) != h {
			continue
		}

		word := c.load(ctrlWord(h))
		if word == 0 || word&flagBusy != 0 {
			// Unreserved space, or a producer/consumer in flight.
			c.dom.Release(slot)
			return consumeState{}, false
		}
		if word&flagDead != 0 {
			c.advanceHeadMulti(h, word, slot)
			continue
		}
		if c.cas(ctrlWord(h), word, word|flagBusy) {
			return consumeState{ctrl: h, word: word, slot: slot}, true
		}
		sw.Once()
	}
}

// advanceHeadMulti tries to move the head past the dead block at h. The
// winner of the head CAS owns the retirement of whatever lies behind:
// the external backing of a dead external block, and, on a page
// crossing, the exhausted page itself — freed only once no hazard slot
// observes it.
func (c *core) advanceHeadMulti(h, word uintptr, slot *hazard.Slot) {
	hp := word &^ flagAll
	if !c.cas(&c.head, h, hp) {
		return
	}
	if word&flagExternal != 0 {
		c.freeExternal(h)
	}
	if c.geom.samePage(h, hp) {
		return
	}
	page := c.geom.pageOf(h)
	slot.Clear()
	sw := spin.Wait{}
	for c.dom.IsHazardPage(page, c.geom.pageMask) {
		sw.Once()
	}
	c.pool.DeallocatePage(page)
}

// collectDeadMulti opportunistically advances the head past dead blocks
// after a consume commits. slot must be an owned hazard slot; it is left
// published and the caller releases it.
func (c *core) collectDeadMulti(slot *hazard.Slot) {
	for {
		h := c.load(&c.head)
		if h == 0 {
			return
		}
		slot.Protect(h)
		if c.load(&c.head) != h {
			continue
		}
		word := c.load(ctrlWord(h))
		if word == 0 || word&flagDead == 0 {
			return
		}
		c.advanceHeadMulti(h, word, slot)
	}
}
