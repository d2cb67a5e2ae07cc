// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/hetq"
)

// TestFuncQueueOrder executes pushed callables in FIFO order.
func TestFuncQueueOrder(t *testing.T) {
	fq := hetq.NewFuncQueue()
	defer fq.Close()

	var got []int
	for i := range 5 {
		if err := fq.Push(func() { got = append(got, i) }); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	for range 5 {
		if err := fq.TryConsume(); err != nil {
			t.Fatalf("TryConsume: %v", err)
		}
	}
	if err := fq.TryConsume(); !errors.Is(err, hetq.ErrWouldBlock) {
		t.Fatalf("TryConsume on empty: got %v, want ErrWouldBlock", err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("call order[%d]: got %d, want %d", i, v, i)
		}
	}
}

// TestFuncQueueReentrant pushes a follow-up callable from inside a
// running one.
func TestFuncQueueReentrant(t *testing.T) {
	fq := hetq.NewFuncQueue()
	defer fq.Close()

	ran := 0
	if err := fq.Push(func() {
		ran++
		if err := fq.Push(func() { ran++ }); err != nil {
			t.Errorf("reentrant Push: %v", err)
		}
	}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	for fq.TryConsume() == nil {
	}
	if ran != 2 {
		t.Fatalf("ran %d callables, want 2", ran)
	}
}

// TestFuncQueueCloseDiscards closes with pending callables; none run.
func TestFuncQueueCloseDiscards(t *testing.T) {
	fq := hetq.NewFuncQueue()
	ran := false
	if err := fq.Push(func() { ran = true }); err != nil {
		t.Fatalf("Push: %v", err)
	}
	fq.Close()
	if ran {
		t.Fatal("Close executed a pending callable")
	}
}
