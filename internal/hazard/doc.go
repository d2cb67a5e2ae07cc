// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hazard implements a process-wide hazard-pointer domain.
//
// Consumers publish the address they are about to dereference in a hazard
// slot, re-validate the source of that address, and clear the slot when
// done. Reclaimers ask "is any slot observing this address?" and defer
// freeing until the answer is no. See Michael, "Hazard Pointers: Safe
// Memory Reclamation for Lock-Free Objects" (2004).
//
// Slot acquisition is lock-free on the fast path (CAS-claim of a
// previously published slot); publishing a brand-new slot takes a mutex,
// which happens at most MaxSlots times over the life of the process.
package hazard
