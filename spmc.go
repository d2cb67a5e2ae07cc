// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

// SPMC is the single-producer multi-consumer heterogeneous queue.
//
// The one producer reserves blocks with plain stores on an unshared tail
// (wait-free); consumers are lock-free, claiming blocks by CAS and
// retiring pages behind the hazard-pointer barrier.
//
// Only one goroutine may push. Violating the constraint causes undefined
// behavior including data corruption.
type SPMC struct {
	core
}

// NewSPMC creates an SPMC heterogeneous queue with the default
// configuration.
func NewSPMC() *SPMC {
	return newSPMC(Options{})
}

func newSPMC(opts Options) *SPMC {
	opts.singleProducer = true
	opts.singleConsumer = false
	q := &SPMC{}
	q.core.init(opts)
	return q
}

var _ Queue = (*SPMC)(nil)
