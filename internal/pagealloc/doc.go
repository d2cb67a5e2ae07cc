// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pagealloc supplies fixed-size, page-aligned memory regions and
// raw aligned blocks for oversized payloads.
//
// Pages circulate as raw uintptr addresses, so the pool keeps every
// backing allocation reachable in a registry until the page is released
// back to the runtime. Released pages are gated on the hazard-pointer
// domain: the pool spins until no thread is observing an address inside
// the page before dropping the last reference.
//
// Pages are always handed out zeroed. The multi-producer queue publication
// protocol depends on it: a consumer that reads a zero control word knows
// it has reached unreserved space.
package pagealloc
