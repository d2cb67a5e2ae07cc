// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import "code.hybscloud.com/spin"

// startConsumeSingle is the single-consumer engine. The head is owned by
// the one consumer: no claim CAS, no hazard slot, every step wait-free.
// Producers never dereference consumed pages, so retirement only has to
// wait out concurrent Empty observers.
func (c *core) startConsumeSingle() (consumeState, bool) {
	for {
		h := c.head.LoadRelaxed()
		if c.seqCst {
			h = c.head.Load()
		}
		if h == 0 {
			ip := c.load(&c.initialPage)
			if ip == 0 {
				return consumeState{}, false
			}
			c.store(&c.head, ip)
			continue
		}

		word := c.load(ctrlWord(h))
		if word == 0 || word&flagBusy != 0 {
			return consumeState{}, false
		}
		if word&flagDead != 0 {
			c.advanceHeadSingle(h, word)
			continue
		}
		// The claim is implicit: no other consumer exists.
		return consumeState{ctrl: h, word: word}, true
	}
}

// advanceHeadSingle moves the head past the dead block at h and retires
// what lies behind it.
func (c *core) advanceHeadSingle(h, word uintptr) {
	hp := word &^ flagAll
	if word&flagExternal != 0 {
		c.freeExternal(h)
	}
	c.store(&c.head, hp)
	if c.geom.samePage(h, hp) {
		return
	}
	page := c.geom.pageOf(h)
	sw := spin.Wait{}
	for c.dom.IsHazardPage(page, c.geom.pageMask) {
		sw.Once()
	}
	c.pool.DeallocatePage(page)
}

// collectDeadSingle opportunistically advances the head after a commit.
func (c *core) collectDeadSingle() {
	for {
		h := c.head.LoadRelaxed()
		if c.seqCst {
			h = c.head.Load()
		}
		if h == 0 {
			return
		}
		word := c.load(ctrlWord(h))
		if word == 0 || word&flagDead == 0 {
			return
		}
		c.advanceHeadSingle(h, word)
	}
}
