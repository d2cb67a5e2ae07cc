// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hetq provides lock-free heterogeneous FIFO queues.
//
// A heterogeneous queue accepts elements of unrelated concrete types and
// stores the values themselves, not pointers to them, contiguously inside
// internally managed pages. Each element travels with a one-word runtime
// descriptor that knows how to copy, destroy and box it.
//
// The package offers four variants for different producer/consumer
// patterns:
//
//   - SPSC: Single-Producer Single-Consumer (wait-free / wait-free)
//   - MPSC: Multi-Producer Single-Consumer (lock-free / wait-free)
//   - SPMC: Single-Producer Multi-Consumer (wait-free / lock-free)
//   - MPMC: Multi-Producer Multi-Consumer (lock-free / lock-free)
//
// # Quick Start
//
// Direct constructors (recommended for most cases):
//
//	q := hetq.NewMPMC()
//	defer q.Close()
//
//	hetq.Push(q, 42)
//	hetq.Push(q, "hello")
//	hetq.Push(q, 3.25)
//
//	for {
//	    v, err := q.Pop()
//	    if err != nil {
//	        break // empty
//	    }
//	    fmt.Println(v)
//	}
//
// Builder API selects the variant from constraints:
//
//	q := hetq.Build(hetq.New().SingleProducer().SingleConsumer()) // → SPSC
//	q := hetq.Build(hetq.New().SingleConsumer())                  // → MPSC
//	q := hetq.Build(hetq.New().SingleProducer())                  // → SPMC
//	q := hetq.Build(hetq.New())                                   // → MPMC
//
// # Storage Model
//
// Elements live in fixed-size, page-aligned pages (64 KiB by default)
// obtained from a pooled allocator. Inside a page, each element occupies
// a block
//
//	[control word][descriptor][payload]
//
// bump-allocated at the tail. The control word links blocks into the
// queue order and carries the element state in its low bits. A payload
// too large for a page is allocated externally and reached through an
// in-page descriptor. Pages drained by the head return to the pool; the
// pool releases surplus pages to the runtime once no thread can still
// observe them (hazard pointers).
//
// Pointer-free payloads are stored in page memory verbatim. Payloads that
// carry Go pointers (strings, slices, funcs, ...) are stored as a handle
// that keeps the boxed value reachable for the collector; this is
// transparent to the API.
//
// # Transactions
//
// Puts and consumes are two-phase. A put reserves a block, lets the
// caller construct the payload in place, and publishes it on commit:
//
//	tx, err := q.StartPush(hetq.TypeOf[Event]())
//	if err != nil {
//	    return err
//	}
//	*(*Event)(tx.Element()) = ev
//	tx.Commit()
//
// Cancelling leaves the queue unchanged. A transaction opened with
// StartPush is not cancelled automatically when the caller panics before
// commit; PushWith does cancel when its constructor panics.
// A consume claims the head element, hands it to the caller, and
// destroys it on commit:
//
//	err := q.TryConsume(func(rt hetq.RuntimeType, elem unsafe.Pointer) {
//	    if hetq.Is[Event](rt) {
//	        handle(*(*Event)(elem))
//	    }
//	})
//
// Use TryReentrantConsume when the callback must push into the same
// queue.
//
// # Error Handling
//
// Operations that cannot proceed return [ErrWouldBlock]: an empty queue
// on the consumer side, a contended page switch on the lock-free producer
// side. This error is sourced from [code.hybscloud.com/iox] for ecosystem
// consistency:
//
//	backoff := iox.Backoff{}
//	for {
//	    v, err := q.Pop()
//	    if err == nil {
//	        backoff.Reset()
//	        process(v)
//	        continue
//	    }
//	    if !hetq.IsWouldBlock(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
//
// # Memory Ordering
//
// The default memory model is acquire/release: a successful consume
// observes every side-effect of the matching producer's construction,
// and elements from different producers are ordered by their tail
// reservation order. The Sequential() builder option strengthens every
// core atomic to sequential consistency for workloads that need a global
// order across multiple queues.
//
// # Thread Safety
//
// All queue operations are thread-safe within their variant constraints.
// Close and the transaction handles are not: a transaction belongs to the
// goroutine that opened it, and Close requires every producer and
// consumer to have finished.
//
// # Race Detection
//
// Go's race detector cannot track happens-before established through
// atomic memory orderings on separate variables, and reports false
// positives on these algorithms. Tests incompatible with race detection
// are excluded via RaceEnabled.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause
// instructions.
package hetq
