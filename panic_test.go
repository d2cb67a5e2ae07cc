// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq_test

import (
	"testing"
	"unsafe"

	"code.hybscloud.com/hetq"
)

// =============================================================================
// Panic Neutrality
//
// A panicking constructor or consumer callback must leave the queue
// exactly as it was: no busy residue, no lost or duplicated elements.
// =============================================================================

// TestConstructorPanic performs five puts; the third construction panics.
// The queue must end up holding exactly 1, 2, 4, 5 in order.
func TestConstructorPanic(t *testing.T) {
	q := hetq.NewMPMC()
	defer q.Close()

	rt := hetq.TypeOf[int]()
	for i := 1; i <= 5; i++ {
		err := func() (err error) {
			defer func() { recover() }()
			return q.PushWith(rt, func(p unsafe.Pointer) {
				if i == 3 {
					panic("constructor failure")
				}
				*(*int)(p) = i
			})
		}()
		if err != nil {
			t.Fatalf("PushWith(%d): %v", i, err)
		}
	}

	for _, want := range []int{1, 2, 4, 5} {
		v, err := hetq.Consume[int](q)
		if err != nil {
			t.Fatalf("Consume: %v", err)
		}
		if v != want {
			t.Fatalf("Consume: got %d, want %d", v, want)
		}
	}
	if !q.Empty() {
		t.Fatal("Empty after drain: got false, want true")
	}
}

// TestConstructorPanicPropagates checks that the panic value reaches the
// caller unchanged.
func TestConstructorPanicPropagates(t *testing.T) {
	q := hetq.NewMPMC()
	defer q.Close()

	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("recovered %v, want boom", r)
		}
		if !q.Empty() {
			t.Error("Empty after panicking put: got false, want true")
		}
	}()
	_ = q.PushWith(hetq.TypeOf[int](), func(unsafe.Pointer) { panic("boom") })
	t.Fatal("PushWith did not panic")
}

// TestConsumerPanicReexposes checks that a panicking consumer callback
// cancels the claim: the element is consumed by the next attempt.
func TestConsumerPanicReexposes(t *testing.T) {
	q := hetq.NewMPMC()
	defer q.Close()

	if err := hetq.Push(q, 99); err != nil {
		t.Fatalf("Push: %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("TryConsume did not propagate the panic")
			}
		}()
		_ = q.TryConsume(func(hetq.RuntimeType, unsafe.Pointer) { panic("callback failure") })
	}()

	v, err := hetq.Consume[int](q)
	if err != nil {
		t.Fatalf("Consume after panic: %v", err)
	}
	if v != 99 {
		t.Fatalf("Consume after panic: got %d, want 99", v)
	}
}

// TestCompletedTransactionPanics checks the misuse guards.
func TestCompletedTransactionPanics(t *testing.T) {
	q := hetq.NewMPMC()
	defer q.Close()

	tx, err := q.StartPush(hetq.TypeOf[int]())
	if err != nil {
		t.Fatalf("StartPush: %v", err)
	}
	*(*int)(tx.Element()) = 1
	tx.Commit()
	mustPanic(t, "Commit after Commit", tx.Commit)

	op, err := q.TryStartConsume()
	if err != nil {
		t.Fatalf("TryStartConsume: %v", err)
	}
	op.Commit()
	mustPanic(t, "Cancel after Commit", op.Cancel)
}
