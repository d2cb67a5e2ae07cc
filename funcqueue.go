// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import "unsafe"

// FuncQueue is a queue of deferred calls layered on a heterogeneous
// queue: producers push callables, consumers execute them in FIFO order.
//
// Example:
//
//	fq := hetq.NewFuncQueue()
//	defer fq.Close()
//
//	fq.Push(func() { fmt.Println("first") })
//	fq.Push(func() { fmt.Println("second") })
//
//	for fq.TryConsume() == nil {
//	}
type FuncQueue struct {
	q Queue
}

// NewFuncQueue creates a function queue on a default MPMC queue.
func NewFuncQueue() *FuncQueue {
	return &FuncQueue{q: NewMPMC()}
}

// NewFuncQueueOn creates a function queue layered on q. The caller keeps
// ownership of q and must not consume non-callable elements through it.
func NewFuncQueueOn(q Queue) *FuncQueue {
	return &FuncQueue{q: q}
}

// Push enqueues a callable.
func (f *FuncQueue) Push(fn func()) error {
	return Push(f.q, fn)
}

// TryConsume executes the callable at the head, if any. The consume is
// reentrant: the callable may push into the same queue. Returns
// ErrWouldBlock when no callable is ready. A panicking callable stays in
// the queue.
func (f *FuncQueue) TryConsume() error {
	return f.q.TryReentrantConsume(func(rt RuntimeType, elem unsafe.Pointer) {
		ValueAs[func()](rt, elem)()
	})
}

// Empty reports whether the queue was observed with no pending callable.
func (f *FuncQueue) Empty() bool { return f.q.Empty() }

// Close destroys pending callables without executing them.
func (f *FuncQueue) Close() { f.q.Close() }
