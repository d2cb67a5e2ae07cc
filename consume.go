// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import (
	"unsafe"

	"code.hybscloud.com/hetq/internal/hazard"
)

// ConsumeFunc receives the claimed element: its descriptor and the
// address of its payload. The element is destroyed when the surrounding
// consume commits; the callback must not retain elem.
type ConsumeFunc func(rt RuntimeType, elem unsafe.Pointer)

// ConsumeOp is a claimed but not yet retired element. The consumer owns
// the block until Commit (destroy and retire) or Cancel (re-expose).
type ConsumeOp struct {
	c         *core
	st        consumeState
	reentrant bool
	done      bool
}

// TryStartConsume claims the element at the head, if any. Returns
// ErrWouldBlock when no committed element is ready. The returned
// operation follows the non-reentrant discipline: Commit flags the block
// dead before destroying the payload, and the queue must not be touched
// from within that window by the same goroutine.
func (c *core) TryStartConsume() (ConsumeOp, error) {
	return c.startConsume(false)
}

// TryStartReentrantConsume is TryStartConsume with the reentrant
// discipline: Commit destroys the payload first and flags the block dead
// last, so the consumer may push to (or consume from) the same queue
// while the operation is open.
func (c *core) TryStartReentrantConsume() (ConsumeOp, error) {
	return c.startConsume(true)
}

func (c *core) startConsume(reentrant bool) (ConsumeOp, error) {
	var (
		st consumeState
		ok bool
	)
	if c.singleConsumer {
		st, ok = c.startConsumeSingle()
	} else {
		st, ok = c.startConsumeMulti()
	}
	if !ok {
		return ConsumeOp{}, ErrWouldBlock
	}
	return ConsumeOp{c: c, st: st, reentrant: reentrant}, nil
}

// Type returns the descriptor of the claimed element.
func (op *ConsumeOp) Type() RuntimeType { return op.c.geom.blockType(op.st.ctrl) }

// Element returns the payload address of the claimed element.
func (op *ConsumeOp) Element() unsafe.Pointer {
	return ptrAt(op.c.geom.blockElement(op.st.ctrl, op.st.word))
}

// Value returns the claimed element, boxed.
func (op *ConsumeOp) Value() any { return op.Type().Value(op.Element()) }

// External reports whether the payload lives outside the page.
func (op *ConsumeOp) External() bool { return op.st.word&flagExternal != 0 }

// Commit destroys the element and retires its block, then advances the
// head past any dead prefix.
func (op *ConsumeOp) Commit() {
	if op.done {
		panic("hetq: use of a completed consume")
	}
	op.done = true

	c := op.c
	st := op.st
	rt := c.geom.blockType(st.ctrl)
	el := c.geom.blockElement(st.ctrl, st.word)
	external := st.word&flagExternal != 0
	// The external flag is stripped from the dead word: this commit owns
	// the backing block, and a dead word carrying the flag would hand it
	// to the head a second time.
	deadWord := (st.word &^ flagAll) | flagDead

	if op.reentrant {
		rt.Destroy(ptrAt(el))
		if external {
			c.freeExternal(st.ctrl)
		}
		c.store(ctrlWord(st.ctrl), deadWord)
	} else {
		c.store(ctrlWord(st.ctrl), deadWord)
		rt.Destroy(ptrAt(el))
		if external {
			c.freeExternal(st.ctrl)
		}
	}

	if st.slot != nil {
		c.collectDeadMulti(st.slot)
		c.dom.Release(st.slot)
	} else {
		c.collectDeadSingle()
	}
}

// Cancel gives the claim back: the element becomes consumable again, by
// this or any other consumer.
func (op *ConsumeOp) Cancel() {
	if op.done {
		panic("hetq: use of a completed consume")
	}
	op.done = true
	if op.st.slot != nil {
		op.c.store(ctrlWord(op.st.ctrl), op.st.word)
		op.c.dom.Release(op.st.slot)
	}
	// Single-consumer claims are implicit; nothing to undo.
}

// TryConsume claims the head element and runs fn on it, then destroys
// and retires it. Returns ErrWouldBlock when the queue has no ready
// element. If fn panics, the claim is cancelled — the element stays in
// the queue — and the panic propagates.
func (c *core) TryConsume(fn ConsumeFunc) error {
	return c.tryConsume(fn, false)
}

// TryReentrantConsume is TryConsume under the reentrant discipline: fn
// may push into the same queue.
func (c *core) TryReentrantConsume(fn ConsumeFunc) error {
	return c.tryConsume(fn, true)
}

func (c *core) tryConsume(fn ConsumeFunc, reentrant bool) error {
	op, err := c.startConsume(reentrant)
	if err != nil {
		return err
	}
	defer func() {
		if !op.done {
			op.Cancel()
		}
	}()
	fn(op.Type(), op.Element())
	op.Commit()
	return nil
}

// Pop consumes one element and returns it boxed. Returns ErrWouldBlock
// when the queue has no ready element.
func (c *core) Pop() (any, error) {
	op, err := c.startConsume(false)
	if err != nil {
		return nil, err
	}
	v := op.Value()
	op.Commit()
	return v, nil
}

// Consume pops one element of a statically known type. Panics if the
// head element is of a different type, leaving it in the queue.
func Consume[T any](q Consumer) (T, error) {
	op, err := q.TryStartConsume()
	if err != nil {
		var zero T
		return zero, err
	}
	defer func() {
		if !op.done {
			op.Cancel()
		}
	}()
	v := ValueAs[T](op.Type(), op.Element())
	op.Commit()
	return v, nil
}

// Empty reports whether the queue was observed with no consumable
// element at some moment between call and return. Under concurrency the
// answer is approximate: elements may appear or disappear immediately
// after.
func (c *core) Empty() bool {
	slot := c.dom.Acquire()
	defer c.dom.Release(slot)
	for {
		h0 := c.load(&c.head)
		start := h0
		if start == 0 {
			start = c.load(&c.initialPage)
			if start == 0 {
				return true
			}
		}
		slot.Protect(start)
		if c.load(&c.head) != h0 {
			continue
		}
		empty, valid := c.scanEmpty(start, h0, slot)
		if valid {
			return empty
		}
	}
}

// scanEmpty walks the chain from start while the head stays at h0. Every
// hop re-publishes the hazard and re-validates the head: as long as the
// head has not moved, no page at or after start can have been retired,
// so the newly protected address is still alive.
func (c *core) scanEmpty(start, h0 uintptr, slot *hazard.Slot) (empty, valid bool) {
	curr := start
	for {
		word := c.load(ctrlWord(curr))
		if word == 0 {
			return true, true
		}
		if word&flagDead == 0 {
			// Consumable, or a producer/consumer in flight.
			return false, true
		}
		next := word &^ flagAll
		slot.Protect(next)
		if c.load(&c.head) != h0 {
			return false, false
		}
		curr = next
	}
}
