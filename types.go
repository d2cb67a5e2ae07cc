// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import "unsafe"

// Producer is the interface for putting elements into a heterogeneous
// queue.
//
// Elements of unrelated concrete types go through the same producer: the
// descriptor identifies the type, the transaction exposes the storage to
// construct into. Thread safety depends on the queue variant: multiple
// goroutines may produce concurrently on MPMC and MPSC; SPMC and SPSC
// accept a single producer goroutine. Violating the constraint causes
// undefined behavior including data corruption.
type Producer interface {
	// StartPush reserves a block for an element of the given type.
	// Blocking progress guarantee: may wait for a concurrent page
	// switch to finish.
	StartPush(rt RuntimeType) (PutTransaction, error)

	// TryStartPush is StartPush with the lock-free guarantee: it
	// returns ErrWouldBlock instead of waiting on another producer.
	TryStartPush(rt RuntimeType) (PutTransaction, error)

	// PushWith reserves, constructs via the callback, and commits.
	// A panicking callback cancels the put and leaves the queue
	// unchanged.
	PushWith(rt RuntimeType, construct func(unsafe.Pointer)) error

	// PushValue pushes a copy of v, whatever its dynamic type.
	PushValue(v any) error

	// TryPushValue is PushValue with the lock-free guarantee.
	TryPushValue(v any) error
}

// Consumer is the interface for taking elements out of a heterogeneous
// queue.
//
// Thread safety depends on the queue variant: multiple goroutines may
// consume concurrently on MPMC and SPMC; MPSC and SPSC accept a single
// consumer goroutine.
type Consumer interface {
	// TryStartConsume claims the head element, non-reentrant
	// discipline. Returns ErrWouldBlock when no element is ready.
	TryStartConsume() (ConsumeOp, error)

	// TryStartReentrantConsume claims the head element, reentrant
	// discipline: the queue may be used while the operation is open.
	TryStartReentrantConsume() (ConsumeOp, error)

	// TryConsume claims, runs fn, destroys and retires one element.
	TryConsume(fn ConsumeFunc) error

	// TryReentrantConsume is TryConsume under the reentrant
	// discipline: fn may push into the same queue.
	TryReentrantConsume(fn ConsumeFunc) error

	// Pop consumes one element and returns it boxed.
	Pop() (any, error)

	// Empty reports whether the queue was observed with no consumable
	// element. Approximate under concurrency.
	Empty() bool
}

// Queue is the combined producer-consumer interface of a heterogeneous
// FIFO queue.
//
// The interface intentionally excludes length: a paged lock-free queue is
// unbounded, and an accurate count would require cross-core
// synchronization the hot path cannot afford. Track counts in application
// logic when needed.
type Queue interface {
	Producer
	Consumer

	// Close destroys every remaining element and returns all pages to
	// the allocator. Not thread-safe; see the variant documentation.
	Close()

	// Stats returns the allocator counters of the pool backing the
	// queue.
	Stats() AllocatorStats
}

// AllocatorStats are cumulative counters of the page pool backing a
// queue. Pools may be shared, in which case the counters aggregate every
// queue on the pool.
type AllocatorStats struct {
	PagesAllocated int64 // pages obtained from the runtime
	PagesRecycled  int64 // allocations served from the free cache
	PagesReleased  int64 // pages returned to the runtime
	HazardWaits    int64 // spin iterations waiting for hazard clearance
}
