// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq_test

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"

	"code.hybscloud.com/hetq"
)

// =============================================================================
// Sequential Consistency Mode
//
// Sequential() strengthens every core atomic to seq-cst. Correctness
// within one queue does not depend on it, so the same scenarios must
// pass in both modes.
// =============================================================================

// TestSequentialRoundTrip runs the basic round-trip on every variant in
// sequential mode.
func TestSequentialRoundTrip(t *testing.T) {
	variants := map[string]hetq.Queue{
		"MPMC": hetq.Build(hetq.New().Sequential()),
		"MPSC": hetq.Build(hetq.New().Sequential().SingleConsumer()),
		"SPMC": hetq.Build(hetq.New().Sequential().SingleProducer()),
		"SPSC": hetq.Build(hetq.New().Sequential().SingleProducer().SingleConsumer()),
	}
	for name, q := range variants {
		for i := range 64 {
			if err := hetq.Push(q, i); err != nil {
				t.Fatalf("%s: Push(%d): %v", name, i, err)
			}
		}
		for i := range 64 {
			v, err := hetq.Consume[int](q)
			if err != nil {
				t.Fatalf("%s: Consume(%d): %v", name, i, err)
			}
			if v != i {
				t.Fatalf("%s: Consume(%d): got %d, want %d", name, i, v, i)
			}
		}
		if !q.Empty() {
			t.Fatalf("%s: Empty after drain: got false, want true", name)
		}
		q.Close()
	}
}

// TestSequentialConcurrent drains a sequential MPMC queue under
// contention.
func TestSequentialConcurrent(t *testing.T) {
	if hetq.RaceEnabled {
		t.Skip("skip: cross-variable memory ordering")
	}

	const (
		numProducers = 4
		numConsumers = 4
		total        = 20000
		itemsPerProd = total / numProducers
		timeout      = 30 * time.Second
	)

	q := hetq.BuildMPMC(hetq.New().Sequential())
	defer q.Close()

	var wg, cwg sync.WaitGroup
	var consumed, sum atomix.Int64
	var timedOut atomix.Bool
	deadline := time.Now().Add(timeout)

	for p := range numProducers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			base := id * itemsPerProd
			for i := range itemsPerProd {
				if time.Now().After(deadline) {
					timedOut.Store(true)
					return
				}
				if err := hetq.Push(q, base+i); err != nil {
					t.Errorf("Push: %v", err)
					return
				}
			}
		}(p)
	}
	for range numConsumers {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			backoff := iox.Backoff{}
			for consumed.Load() < total {
				if time.Now().After(deadline) {
					timedOut.Store(true)
					return
				}
				v, err := hetq.Consume[int](q)
				if err != nil {
					backoff.Wait()
					continue
				}
				backoff.Reset()
				sum.Add(int64(v))
				consumed.Add(1)
			}
		}()
	}

	wg.Wait()
	cwg.Wait()
	if timedOut.Load() {
		t.Fatalf("timed out: consumed %d of %d", consumed.Load(), total)
	}
	if want := int64(total) * int64(total-1) / 2; sum.Load() != want {
		t.Fatalf("sum of consumed: got %d, want %d", sum.Load(), want)
	}
}
