// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

// reserveSingle is the single-producer engine. The tail word is owned by
// the one producer, so reservations are plain stores: wait-free, no CAS,
// no page lock. The control-word publication order still matters for
// consumers: the successor word is zeroed before the block is linked, so
// a consumer following a fresh link always finds initialized space.
func (c *core) reserveSingle(bits uintptr, includeType bool, size, align uintptr, g progress) (allocation, error) {
	off := c.geom.rawMinOffset
	if includeType {
		off = c.geom.elemMinOffset
	}
	for {
		t := c.tail.LoadRelaxed()
		if c.seqCst {
			t = c.tail.Load()
		}
		if t&flagInvalidNext != 0 {
			if err := c.pageOverflowSingle(t); err != nil {
				return allocation{}, err
			}
			continue
		}

		user := alignUp(t+off, align)
		newTail := alignUp(user+size, granularity)
		switch {
		case newTail-c.geom.pageOf(t) <= c.geom.endOffset:
			// Null-terminate the next control block before linking
			// this one, to keep consumers out of uninitialized space.
			c.store(ctrlWord(newTail), 0)
			nextRaw := newTail | bits
			c.store(ctrlWord(t), nextRaw)
			if c.seqCst {
				c.tail.Store(newTail)
			} else {
				c.tail.StoreRelaxed(newTail)
			}
			return allocation{ctrl: t, nextRaw: nextRaw, user: user}, nil
		case size+(align-minAlign) <= c.geom.maxInPage:
			if err := c.pageOverflowSingle(t); err != nil {
				return allocation{}, err
			}
		default:
			return c.externalAllocate(bits, size, align, g)
		}
	}
}

// pageOverflowSingle installs a new page: no lock, no losers.
func (c *core) pageOverflowSingle(t uintptr) error {
	page, err := c.pool.AllocatePage()
	if err != nil {
		return err
	}
	c.store(ctrlWord(page), 0)
	if t&flagInvalidNext != 0 {
		c.store(&c.initialPage, page)
	} else {
		c.store(ctrlWord(t), page|flagDead)
	}
	if c.seqCst {
		c.tail.Store(page)
	} else {
		c.tail.StoreRelaxed(page)
	}
	return nil
}
