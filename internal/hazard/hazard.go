// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hazard

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MaxSlots is the maximum number of hazard slots a domain can publish.
// Each in-flight consume operation holds one slot, so this bounds the
// number of concurrent operations, not the number of goroutines.
const MaxSlots = 1024

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// Slot is a single hazard pointer. A slot is exclusively owned by the
// operation that acquired it and read by every reclaimer.
type Slot struct {
	ptr    atomix.Uintptr // the protected address, 0 when idle
	active atomix.Int32   // 1 while owned by an operation
	_      [64 - 8 - 4]byte
}

// Protect publishes addr in the slot.
//
// The store is sequentially consistent: the hazard protocol requires the
// slot write to be globally ordered before the owner's re-validation load,
// so that a reclaimer scanning after unlinking either sees the slot or the
// owner sees the unlink.
func (s *Slot) Protect(addr uintptr) {
	s.ptr.Store(addr)
}

// Clear unpublishes the slot without releasing it.
func (s *Slot) Clear() {
	s.ptr.StoreRelease(0)
}

// Domain is a set of hazard slots shared by all queues of a process.
type Domain struct {
	mu    sync.Mutex
	count atomix.Int32 // published length of slots
	_     pad
	slots [MaxSlots]Slot
}

// Global is the process-wide domain used by the default allocator and by
// every queue.
var Global Domain

// Acquire claims a hazard slot. The fast path CAS-claims a previously
// published slot; the slow path publishes a new one under the mutex.
// If every slot is busy, Acquire spins until one frees up.
func (d *Domain) Acquire() *Slot {
	sw := spin.Wait{}
	for {
		n := int(d.count.LoadAcquire())
		for i := 0; i < n; i++ {
			s := &d.slots[i]
			if s.active.LoadRelaxed() == 0 && s.active.CompareAndSwapAcqRel(0, 1) {
				return s
			}
		}
		if n < MaxSlots {
			d.mu.Lock()
			n = int(d.count.LoadRelaxed())
			if n < MaxSlots {
				s := &d.slots[n]
				s.active.StoreRelaxed(1)
				d.count.StoreRelease(int32(n + 1))
				d.mu.Unlock()
				return s
			}
			d.mu.Unlock()
		}
		sw.Once()
	}
}

// Release returns the slot to the domain. The slot must be cleared or the
// caller must be done with the protected address.
func (d *Domain) Release(s *Slot) {
	s.ptr.StoreRelease(0)
	s.active.StoreRelease(0)
}

// IsHazard reports whether any slot currently holds exactly addr.
func (d *Domain) IsHazard(addr uintptr) bool {
	return d.scan(addr, ^uintptr(0))
}

// IsHazardPage reports whether any slot holds an address inside the same
// page as addr, where pageMask is pageSize-1.
func (d *Domain) IsHazardPage(addr, pageMask uintptr) bool {
	return d.scan(addr, ^pageMask)
}

func (d *Domain) scan(addr, mask uintptr) bool {
	n := int(d.count.LoadAcquire())
	for i := 0; i < n; i++ {
		p := d.slots[i].ptr.LoadAcquire()
		if p != 0 && (p^addr)&mask == 0 {
			return true
		}
	}
	return false
}
