// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import (
	"code.hybscloud.com/hetq/internal/hazard"
	"code.hybscloud.com/hetq/internal/pagealloc"
)

// DefaultPageSize is the page size used unless configured otherwise.
const DefaultPageSize = pagealloc.DefaultPageSize

// Options configures queue creation and variant selection.
type Options struct {
	// Producer/Consumer constraints (determines queue variant)
	singleProducer bool
	singleConsumer bool

	// Memory model: sequential consistency instead of acquire/release
	sequential bool

	// Paging
	pageSize int // power of two >= 4096; 0 selects the default
	maxPages int // live-page limit; 0 means unlimited
	cacheCap int // free-list capacity; 0 selects the default
}

// pool returns the page pool the options select: the process-wide default
// pool, or a private one when paging is customized.
func (o Options) pool() *pagealloc.Pool {
	if o.pageSize == 0 && o.maxPages == 0 && o.cacheCap == 0 {
		return pagealloc.Default
	}
	return pagealloc.New(pagealloc.Config{
		PageSize: uintptr(o.pageSize),
		CacheCap: o.cacheCap,
		MaxPages: o.maxPages,
	}, &hazard.Global)
}

// Builder creates queues with fluent configuration.
//
// The builder selects the variant from the producer/consumer constraints,
// exactly one engine pair per combination:
//
//	SingleProducer + SingleConsumer → SPSC (wait-free put, wait-free consume)
//	SingleProducer only             → SPMC (wait-free put, lock-free consume)
//	SingleConsumer only             → MPSC (lock-free put, wait-free consume)
//	Neither                         → MPMC (lock-free put, lock-free consume)
//
// Example:
//
//	q := hetq.BuildMPSC(hetq.New().SingleConsumer().PageSize(1 << 14))
type Builder struct {
	opts Options
}

// New creates a queue builder with the default configuration.
func New() *Builder {
	return &Builder{}
}

// SingleProducer declares that only one goroutine will push.
// Enables the wait-free producer engine.
func (b *Builder) SingleProducer() *Builder {
	b.opts.singleProducer = true
	return b
}

// SingleConsumer declares that only one goroutine will consume.
// Enables the wait-free consumer engine.
func (b *Builder) SingleConsumer() *Builder {
	b.opts.singleConsumer = true
	return b
}

// Sequential strengthens every core atomic operation to sequential
// consistency. Correctness within a single queue does not require it;
// use it when a global order across multiple queues is needed.
func (b *Builder) Sequential() *Builder {
	b.opts.sequential = true
	return b
}

// PageSize sets the page size. Must be a power of two >= 4096.
// Queues with a custom page size run on a private page pool.
func (b *Builder) PageSize(n int) *Builder {
	if n < pagealloc.MinPageSize || n&(n-1) != 0 {
		panic("hetq: page size must be a power of two >= 4096")
	}
	b.opts.pageSize = n
	return b
}

// MaxPages bounds the number of live pages; past the bound, puts fail
// with ErrOutOfMemory. Implies a private page pool.
func (b *Builder) MaxPages(n int) *Builder {
	if n < 1 {
		panic("hetq: max pages must be >= 1")
	}
	b.opts.maxPages = n
	return b
}

// FreePageCache sets the free-list capacity of the queue's pool; pass a
// negative value to disable caching. Implies a private page pool.
func (b *Builder) FreePageCache(n int) *Builder {
	if n == 0 {
		n = -1
	}
	b.opts.cacheCap = n
	return b
}

// Build creates a queue with automatic variant selection.
func Build(b *Builder) Queue {
	switch {
	case b.opts.singleProducer && b.opts.singleConsumer:
		return newSPSC(b.opts)
	case b.opts.singleProducer:
		return newSPMC(b.opts)
	case b.opts.singleConsumer:
		return newMPSC(b.opts)
	default:
		return newMPMC(b.opts)
	}
}

// BuildMPMC creates an MPMC queue with a concrete return type.
// Panics if the builder has any cardinality constraint set.
func BuildMPMC(b *Builder) *MPMC {
	if b.opts.singleProducer || b.opts.singleConsumer {
		panic("hetq: BuildMPMC requires no constraints")
	}
	return newMPMC(b.opts)
}

// BuildMPSC creates an MPSC queue with a concrete return type.
// Panics if the builder is not configured with SingleConsumer() only.
func BuildMPSC(b *Builder) *MPSC {
	if b.opts.singleProducer || !b.opts.singleConsumer {
		panic("hetq: BuildMPSC requires SingleConsumer() without SingleProducer()")
	}
	return newMPSC(b.opts)
}

// BuildSPMC creates an SPMC queue with a concrete return type.
// Panics if the builder is not configured with SingleProducer() only.
func BuildSPMC(b *Builder) *SPMC {
	if !b.opts.singleProducer || b.opts.singleConsumer {
		panic("hetq: BuildSPMC requires SingleProducer() without SingleConsumer()")
	}
	return newSPMC(b.opts)
}

// BuildSPSC creates an SPSC queue with a concrete return type.
// Panics if the builder is not configured with SingleProducer().SingleConsumer().
func BuildSPSC(b *Builder) *SPSC {
	if !b.opts.singleProducer || !b.opts.singleConsumer {
		panic("hetq: BuildSPSC requires SingleProducer().SingleConsumer()")
	}
	return newSPSC(b.opts)
}
