// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

// SPSC is the single-producer single-consumer heterogeneous queue.
//
// Both sides are wait-free: the tail and the head are exclusively owned,
// so no operation ever retries on contention. The control-word
// publication order is the only synchronization between the two
// goroutines.
//
// One producer goroutine, one consumer goroutine. Violating the
// constraint causes undefined behavior including data corruption.
type SPSC struct {
	core
}

// NewSPSC creates an SPSC heterogeneous queue with the default
// configuration.
func NewSPSC() *SPSC {
	return newSPSC(Options{})
}

func newSPSC(opts Options) *SPSC {
	opts.singleProducer = true
	opts.singleConsumer = true
	q := &SPSC{}
	q.core.init(opts)
	return q
}

var _ Queue = (*SPSC)(nil)
