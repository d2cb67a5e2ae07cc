// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hazard_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/hetq/internal/hazard"
)

// TestAcquireRelease claims a slot, protects an address, and checks the
// domain sees it until released.
func TestAcquireRelease(t *testing.T) {
	var d hazard.Domain
	const addr = uintptr(0x12340)

	s := d.Acquire()
	if d.IsHazard(addr) {
		t.Fatal("IsHazard before Protect: got true, want false")
	}
	s.Protect(addr)
	if !d.IsHazard(addr) {
		t.Fatal("IsHazard after Protect: got false, want true")
	}
	if d.IsHazard(addr + 8) {
		t.Fatal("IsHazard on different address: got true, want false")
	}

	s.Clear()
	if d.IsHazard(addr) {
		t.Fatal("IsHazard after Clear: got true, want false")
	}

	s.Protect(addr)
	d.Release(s)
	if d.IsHazard(addr) {
		t.Fatal("IsHazard after Release: got true, want false")
	}
}

// TestIsHazardPage matches any address within the protected page.
func TestIsHazardPage(t *testing.T) {
	var d hazard.Domain
	const pageMask = uintptr(4096 - 1)

	s := d.Acquire()
	defer d.Release(s)
	s.Protect(0x10008)

	if !d.IsHazardPage(0x10FF0, pageMask) {
		t.Fatal("IsHazardPage same page: got false, want true")
	}
	if d.IsHazardPage(0x11000, pageMask) {
		t.Fatal("IsHazardPage next page: got true, want false")
	}
}

// TestSlotReuse releases and re-acquires; the domain must hand back a
// previously published slot instead of growing.
func TestSlotReuse(t *testing.T) {
	var d hazard.Domain
	s1 := d.Acquire()
	d.Release(s1)
	s2 := d.Acquire()
	defer d.Release(s2)
	if s1 != s2 {
		t.Fatal("Acquire after Release did not reuse the slot")
	}
}

// TestConcurrentAcquire hammers slot acquisition from many goroutines;
// no two goroutines may hold the same slot at once.
func TestConcurrentAcquire(t *testing.T) {
	var d hazard.Domain
	const (
		goroutines = 32
		rounds     = 1000
	)

	var mu sync.Mutex
	held := make(map[*hazard.Slot]bool)

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				s := d.Acquire()
				mu.Lock()
				if held[s] {
					t.Error("slot double-acquired")
					mu.Unlock()
					d.Release(s)
					return
				}
				held[s] = true
				mu.Unlock()

				s.Protect(uintptr(0x1000))

				mu.Lock()
				held[s] = false
				mu.Unlock()
				d.Release(s)
			}
		}()
	}
	wg.Wait()
}
