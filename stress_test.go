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
// Concurrent Stress Tests
//
// The race detector cannot track happens-before established through
// atomic orderings on separate variables; concurrent scenarios are
// excluded under -race via RaceEnabled.
// =============================================================================

// tagged is a producer-stamped element for ordering checks.
type tagged struct {
	ID  int
	Seq int
}

// TestMPSCFIFOPerProducer runs four producers against one consumer and
// checks that each producer's sequence numbers drain strictly
// increasing.
func TestMPSCFIFOPerProducer(t *testing.T) {
	if hetq.RaceEnabled {
		t.Skip("skip: cross-variable memory ordering")
	}

	const (
		numProducers = 4
		itemsPerProd = 10000
		timeout      = 30 * time.Second
	)

	q := hetq.NewMPSC()
	defer q.Close()

	var wg sync.WaitGroup
	var timedOut atomix.Bool
	deadline := time.Now().Add(timeout)

	for p := range numProducers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range itemsPerProd {
				if time.Now().After(deadline) {
					timedOut.Store(true)
					return
				}
				if err := hetq.Push(q, tagged{ID: id, Seq: i}); err != nil {
					t.Errorf("producer %d: Push(%d): %v", id, i, err)
					return
				}
			}
		}(p)
	}

	lastSeq := [numProducers]int{}
	for i := range lastSeq {
		lastSeq[i] = -1
	}
	consumed := 0
	backoff := iox.Backoff{}
	for consumed < numProducers*itemsPerProd {
		if time.Now().After(deadline) {
			timedOut.Store(true)
			break
		}
		v, err := hetq.Consume[tagged](q)
		if err != nil {
			backoff.Wait()
			continue
		}
		backoff.Reset()
		if v.Seq <= lastSeq[v.ID] {
			t.Fatalf("producer %d: seq %d after %d", v.ID, v.Seq, lastSeq[v.ID])
		}
		lastSeq[v.ID] = v.Seq
		consumed++
	}

	wg.Wait()
	if timedOut.Load() {
		t.Fatalf("timed out: consumed %d of %d", consumed, numProducers*itemsPerProd)
	}
	for id, last := range lastSeq {
		if last != itemsPerProd-1 {
			t.Fatalf("producer %d: last seq %d, want %d", id, last, itemsPerProd-1)
		}
	}
}

// TestMPMCCompleteness runs eight producers and eight consumers over a
// partitioned integer range; the consumed multiset must be complete.
func TestMPMCCompleteness(t *testing.T) {
	if hetq.RaceEnabled {
		t.Skip("skip: cross-variable memory ordering")
	}

	const (
		numProducers = 8
		numConsumers = 8
		total        = 100000
		itemsPerProd = total / numProducers
		timeout      = 60 * time.Second
	)

	q := hetq.NewMPMC()
	defer q.Close()

	var wg sync.WaitGroup
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
					t.Errorf("producer %d: Push: %v", id, err)
					return
				}
			}
		}(p)
	}

	var cwg sync.WaitGroup
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
	const wantSum = int64(total) * int64(total-1) / 2
	if got := sum.Load(); got != wantSum {
		t.Fatalf("sum of consumed: got %d, want %d", got, wantSum)
	}
	if !q.Empty() {
		t.Fatal("Empty after drain: got false, want true")
	}
}

// TestSPMCWorkDistribution runs one producer against four consumers; no
// element may be lost or duplicated.
func TestSPMCWorkDistribution(t *testing.T) {
	if hetq.RaceEnabled {
		t.Skip("skip: cross-variable memory ordering")
	}

	const (
		numConsumers = 4
		total        = 20000
		timeout      = 30 * time.Second
	)

	q := hetq.NewSPMC()
	defer q.Close()

	seen := make([]atomix.Int32, total)
	var consumed atomix.Int64
	var timedOut atomix.Bool
	deadline := time.Now().Add(timeout)

	var cwg sync.WaitGroup
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
				if seen[v].Add(1) != 1 {
					t.Errorf("element %d consumed twice", v)
					return
				}
				consumed.Add(1)
			}
		}()
	}

	for i := range total {
		if time.Now().After(deadline) {
			timedOut.Store(true)
			break
		}
		if err := hetq.Push(q, i); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	cwg.Wait()

	if timedOut.Load() {
		t.Fatalf("timed out: consumed %d of %d", consumed.Load(), total)
	}
	for i := range total {
		if seen[i].Load() != 1 {
			t.Fatalf("element %d consumed %d times, want 1", i, seen[i].Load())
		}
	}
}

// TestConcurrentMixedSizes stresses page switching and the external path
// together: small and oversized payloads from competing producers.
func TestConcurrentMixedSizes(t *testing.T) {
	if hetq.RaceEnabled {
		t.Skip("skip: cross-variable memory ordering")
	}

	const (
		numProducers = 4
		itemsPerProd = 2000
		timeout      = 60 * time.Second
	)

	q := hetq.BuildMPMC(hetq.New().PageSize(4096))
	defer q.Close()

	type small struct{ V int64 }
	type large struct {
		V   int64
		Pad [8184]byte
	}

	var wg sync.WaitGroup
	var timedOut atomix.Bool
	deadline := time.Now().Add(timeout)

	for p := range numProducers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range itemsPerProd {
				if time.Now().After(deadline) {
					timedOut.Store(true)
					return
				}
				v := int64(id*itemsPerProd + i)
				var err error
				if i%16 == 0 {
					err = hetq.Push(q, large{V: v})
				} else {
					err = hetq.Push(q, small{V: v})
				}
				if err != nil {
					t.Errorf("producer %d: Push: %v", id, err)
					return
				}
			}
		}(p)
	}

	var sum int64
	count := 0
	backoff := iox.Backoff{}
	for count < numProducers*itemsPerProd {
		if time.Now().After(deadline) {
			timedOut.Store(true)
			break
		}
		op, err := q.TryStartConsume()
		if err != nil {
			backoff.Wait()
			continue
		}
		backoff.Reset()
		switch {
		case hetq.Is[small](op.Type()):
			sum += hetq.ValueAs[small](op.Type(), op.Element()).V
		case hetq.Is[large](op.Type()):
			if !op.External() {
				t.Error("large payload not external")
			}
			sum += hetq.ValueAs[large](op.Type(), op.Element()).V
		default:
			t.Errorf("unexpected type %v", op.Type())
		}
		op.Commit()
		count++
	}

	wg.Wait()
	if timedOut.Load() {
		t.Fatalf("timed out: consumed %d of %d", count, numProducers*itemsPerProd)
	}
	n := int64(numProducers * itemsPerProd)
	if want := n * (n - 1) / 2; sum != want {
		t.Fatalf("sum of consumed: got %d, want %d", sum, want)
	}
}
