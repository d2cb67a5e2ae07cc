// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

// MPSC is the multi-producer single-consumer heterogeneous queue.
//
// Producers are lock-free (CAS on the shared tail); the one consumer is
// wait-free per step: it claims blocks implicitly, with no CAS and no
// store, advances the head with plain stores and never contends on it.
//
// Only one goroutine may consume. Violating the constraint causes
// undefined behavior including data corruption.
type MPSC struct {
	core
}

// NewMPSC creates an MPSC heterogeneous queue with the default
// configuration.
func NewMPSC() *MPSC {
	return newMPSC(Options{})
}

func newMPSC(opts Options) *MPSC {
	opts.singleProducer = false
	opts.singleConsumer = true
	q := &MPSC{}
	q.core.init(opts)
	return q
}

var _ Queue = (*MPSC)(nil)
