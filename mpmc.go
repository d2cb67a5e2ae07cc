// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

// MPMC is the multi-producer multi-consumer heterogeneous queue.
//
// Producers reserve blocks by CAS on a shared tail; consumers claim
// blocks by CAS on their control words and retire exhausted pages behind
// a hazard-pointer barrier. Both sides are lock-free: a stalled thread
// cannot stop the others, though a page switch momentarily funnels
// producers through a single winner.
//
// Memory: an append-only chain of fixed-size pages; pages are recycled
// through the pool as the head drains them.
type MPMC struct {
	core
}

// NewMPMC creates an MPMC heterogeneous queue with the default
// configuration.
func NewMPMC() *MPMC {
	return newMPMC(Options{})
}

func newMPMC(opts Options) *MPMC {
	opts.singleProducer = false
	opts.singleConsumer = false
	q := &MPMC{}
	q.core.init(opts)
	return q
}

var _ Queue = (*MPMC)(nil)
