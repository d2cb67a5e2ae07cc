// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pagealloc

import (
	"errors"
	"runtime"
	"sync"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"code.hybscloud.com/hetq/internal/hazard"
)

const (
	// DefaultPageSize is the size and alignment of a page unless
	// configured otherwise.
	DefaultPageSize = 65536

	// MinPageSize is the smallest accepted page size.
	MinPageSize = 4096

	// FreePageCacheSize is the free-list capacity per processor. The
	// pool cache is process-wide, sized at FreePageCacheSize×GOMAXPROCS.
	FreePageCacheSize = 4
)

// ErrOutOfMemory is returned when a configured page limit is exhausted.
var ErrOutOfMemory = errors.New("pagealloc: out of memory")

// Stats are cumulative counters of pool activity.
type Stats struct {
	PagesAllocated int64 // pages obtained from the runtime
	PagesRecycled  int64 // allocations served from the free cache
	PagesReleased  int64 // pages returned to the runtime
	HazardWaits    int64 // spin iterations waiting for hazard clearance
}

// Config parameterizes a pool. Zero values select the defaults.
type Config struct {
	PageSize uintptr // power of two, >= MinPageSize
	CacheCap int     // free-list capacity; <0 disables caching
	MaxPages int     // live-page limit; 0 means unlimited
}

// Pool hands out fixed-size aligned pages backed by a free-list cache and
// raw aligned blocks for payloads that cannot fit in a page.
type Pool struct {
	pageSize uintptr
	cacheCap int
	maxPages int
	dom      *hazard.Domain

	mu     sync.Mutex
	pages  map[uintptr][]byte // live pages, keyed by base address
	blocks map[uintptr][]byte // live raw blocks, keyed by address
	free   []uintptr          // LIFO cache of zeroed free pages

	allocated atomix.Int64
	recycled  atomix.Int64
	released  atomix.Int64
	hazWaits  atomix.Int64
}

// Default is the process-wide pool with the default page size, shared by
// every queue that is not configured with a private one.
var Default = New(Config{}, &hazard.Global)

// New creates a pool. Panics if the page size is not a power of two or is
// below MinPageSize.
func New(cfg Config, dom *hazard.Domain) *Pool {
	size := cfg.PageSize
	if size == 0 {
		size = DefaultPageSize
	}
	if size < MinPageSize || size&(size-1) != 0 {
		panic("pagealloc: page size must be a power of two >= 4096")
	}
	cacheCap := cfg.CacheCap
	if cacheCap == 0 {
		cacheCap = FreePageCacheSize * runtime.GOMAXPROCS(0)
	} else if cacheCap < 0 {
		cacheCap = 0
	}
	return &Pool{
		pageSize: size,
		cacheCap: cacheCap,
		maxPages: cfg.MaxPages,
		dom:      dom,
		pages:    make(map[uintptr][]byte),
		blocks:   make(map[uintptr][]byte),
	}
}

// PageSize returns the size (and alignment) of pages from this pool.
func (p *Pool) PageSize() uintptr { return p.pageSize }

// PageMask returns pageSize-1.
func (p *Pool) PageMask() uintptr { return p.pageSize - 1 }

// PageOf returns the base address of the page containing addr.
func (p *Pool) PageOf(addr uintptr) uintptr { return addr &^ p.PageMask() }

// AllocatePage returns the base address of a zeroed, page-aligned page.
func (p *Pool) AllocatePage() (uintptr, error) {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		base := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		p.recycled.Add(1)
		return base, nil
	}
	if p.maxPages > 0 && len(p.pages) >= p.maxPages {
		p.mu.Unlock()
		return 0, ErrOutOfMemory
	}
	// Over-allocate to carve out a pageSize-aligned window; the runtime
	// gives no alignment guarantee beyond the size class.
	backing := make([]byte, p.pageSize*2)
	addr := uintptr(unsafe.Pointer(&backing[0]))
	base := (addr + p.pageSize - 1) &^ p.PageMask()
	p.pages[base] = backing[base-addr : base-addr+p.pageSize]
	p.mu.Unlock()
	p.allocated.Add(1)
	return base, nil
}

// DeallocatePage recycles a page into the free cache, or releases it to
// the runtime when the cache is full. The caller must guarantee that no
// consumer can still reach the page through the queue; the pool
// additionally waits for hazard clearance before the release path drops
// the last reference.
func (p *Pool) DeallocatePage(base uintptr) {
	p.mu.Lock()
	b, ok := p.pages[base]
	if !ok {
		p.mu.Unlock()
		panic("pagealloc: deallocating a foreign page")
	}
	clear(b)
	if len(p.free) < p.cacheCap {
		p.free = append(p.free, base)
		p.mu.Unlock()
		return
	}
	delete(p.pages, base)
	p.mu.Unlock()

	sw := spin.Wait{}
	for p.dom.IsHazardPage(base, p.PageMask()) {
		p.hazWaits.Add(1)
		sw.Once()
	}
	p.released.Add(1)
	// b goes out of scope here; the runtime reclaims the backing.
	_ = b
}

// Allocate returns a zeroed raw block of the given size and alignment,
// outside any page. Alignment must be a power of two.
func (p *Pool) Allocate(size, align uintptr) (uintptr, error) {
	if align == 0 || align&(align-1) != 0 {
		panic("pagealloc: alignment must be a power of two")
	}
	if size == 0 {
		size = 1
	}
	backing := make([]byte, size+align-1)
	addr := uintptr(unsafe.Pointer(&backing[0]))
	base := (addr + align - 1) &^ (align - 1)
	p.mu.Lock()
	p.blocks[base] = backing
	p.mu.Unlock()
	return base, nil
}

// Deallocate releases a raw block obtained from Allocate.
func (p *Pool) Deallocate(addr uintptr) {
	p.mu.Lock()
	if _, ok := p.blocks[addr]; !ok {
		p.mu.Unlock()
		panic("pagealloc: deallocating a foreign block")
	}
	delete(p.blocks, addr)
	p.mu.Unlock()
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		PagesAllocated: p.allocated.Load(),
		PagesRecycled:  p.recycled.Load(),
		PagesReleased:  p.released.Load(),
		HazardWaits:    p.hazWaits.Load(),
	}
}

// LivePages returns the number of pages currently owned by the pool,
// including cached free pages.
func (p *Pool) LivePages() int {
	p.mu.Lock()
	n := len(p.pages)
	p.mu.Unlock()
	return n
}
