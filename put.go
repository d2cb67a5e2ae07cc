// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import "unsafe"

// PutTransaction is a reserved but unpublished element. The producer owns
// the block until Commit or Cancel; the element is invisible to consumers
// while the transaction is open.
//
// A transaction must not outlive its goroutine's call sequence: it is a
// stack-scoped handle, not a persistent object.
type PutTransaction struct {
	c       *core
	rt      RuntimeType
	ctrl    uintptr
	nextRaw uintptr
	user    uintptr
	done    bool
}

// StartPush reserves a block for an element of the given type and returns
// the open transaction. The caller constructs the payload at Element and
// then calls Commit, or Cancel to back out. Blocking progress guarantee.
func (c *core) StartPush(rt RuntimeType) (PutTransaction, error) {
	return c.startPush(rt, progressBlocking)
}

// TryStartPush is StartPush with the lock-free progress guarantee: it
// returns ErrWouldBlock instead of waiting for a producer that is
// installing a new page.
func (c *core) TryStartPush(rt RuntimeType) (PutTransaction, error) {
	return c.startPush(rt, progressLockFree)
}

func (c *core) startPush(rt RuntimeType, g progress) (PutTransaction, error) {
	if !rt.Valid() {
		panic("hetq: invalid runtime type")
	}
	a, err := c.reserve(flagBusy, true, rt.Size(), rt.Align(), g)
	if err != nil {
		return PutTransaction{}, err
	}
	c.geom.setBlockType(a.ctrl, rt)
	return PutTransaction{c: c, rt: rt, ctrl: a.ctrl, nextRaw: a.nextRaw, user: a.user}, nil
}

// Type returns the descriptor the transaction was opened with.
func (tx *PutTransaction) Type() RuntimeType { return tx.rt }

// Element returns the address where the payload must be constructed.
func (tx *PutTransaction) Element() unsafe.Pointer { return ptrAt(tx.user) }

// External reports whether the payload lives outside the page.
func (tx *PutTransaction) External() bool { return tx.nextRaw&flagExternal != 0 }

// RawAllocate reserves size bytes of scratch storage associated with the
// queue. The block is flagged dead, so consumers skip it as a non-element;
// its storage lives at least as long as the element of this transaction
// remains unconsumed. Must be called between StartPush and Commit.
func (tx *PutTransaction) RawAllocate(size, align uintptr) (unsafe.Pointer, error) {
	if tx.done {
		panic("hetq: use of a completed transaction")
	}
	if align == 0 || align&(align-1) != 0 {
		panic("hetq: alignment must be a power of two")
	}
	a, err := tx.c.reserve(flagDead, false, size, align, progressBlocking)
	if err != nil {
		return nil, err
	}
	return ptrAt(a.user), nil
}

// RawAllocateCopy reserves scratch storage holding a copy of b.
func (tx *PutTransaction) RawAllocateCopy(b []byte) (unsafe.Pointer, error) {
	p, err := tx.RawAllocate(uintptr(len(b)), minAlign)
	if err != nil {
		return nil, err
	}
	copy(unsafe.Slice((*byte)(p), len(b)), b)
	return p, nil
}

// Commit publishes the element: it becomes consumable, in order.
func (tx *PutTransaction) Commit() {
	if tx.done {
		panic("hetq: use of a completed transaction")
	}
	tx.done = true
	tx.c.store(ctrlWord(tx.ctrl), tx.nextRaw&^flagBusy)
}

// Cancel abandons the transaction without destroying the payload (the
// payload is considered never constructed). The block is flagged dead and
// skipped by consumers; an external backing block is reclaimed when the
// head retires the block. The queue is left as if the put never happened.
func (tx *PutTransaction) Cancel() {
	if tx.done {
		panic("hetq: use of a completed transaction")
	}
	tx.done = true
	tx.c.store(ctrlWord(tx.ctrl), (tx.nextRaw&^flagBusy)|flagDead)
}

// PushWith reserves a block for rt, runs construct on the payload address
// and commits. If construct panics, the put is cancelled without
// destroying the payload and the panic propagates; the queue is
// unchanged.
func (c *core) PushWith(rt RuntimeType, construct func(unsafe.Pointer)) error {
	tx, err := c.StartPush(rt)
	if err != nil {
		return err
	}
	defer func() {
		if !tx.done {
			tx.Cancel()
		}
	}()
	construct(tx.Element())
	tx.Commit()
	return nil
}

// PushValue pushes a copy of v, whatever its dynamic type.
// Panics if v is nil.
func (c *core) PushValue(v any) error {
	return c.pushValue(v, progressBlocking)
}

// TryPushValue is PushValue with the lock-free progress guarantee.
func (c *core) TryPushValue(v any) error {
	return c.pushValue(v, progressLockFree)
}

func (c *core) pushValue(v any, g progress) error {
	rt := TypeOfValue(v)
	tx, err := c.startPush(rt, g)
	if err != nil {
		return err
	}
	rt.construct(tx.Element(), v)
	tx.Commit()
	return nil
}

// Push pushes a copy of v with a statically known type, avoiding the
// boxing of PushValue for pointer-free payloads.
func Push[T any](q Producer, v T) error {
	return pushTyped(q, v, false)
}

// TryPush is Push with the lock-free progress guarantee.
func TryPush[T any](q Producer, v T) error {
	return pushTyped(q, v, true)
}

func pushTyped[T any](q Producer, v T, try bool) error {
	rt := TypeOf[T]()
	var (
		tx  PutTransaction
		err error
	)
	if try {
		tx, err = q.TryStartPush(rt)
	} else {
		tx, err = q.StartPush(rt)
	}
	if err != nil {
		return err
	}
	if rt.meta.indirect {
		rt.construct(tx.Element(), v)
	} else {
		*(*T)(tx.Element()) = v
	}
	tx.Commit()
	return nil
}
