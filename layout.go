// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import "unsafe"

// geometry holds the per-queue block layout constants, derived from the
// page size at construction.
//
// A value block is laid out as
//
//	[ctrl][pad to align(descriptor)][descriptor][pad to align(payload)][payload]
//
// and rounded up to the allocation granularity. A raw block omits the
// descriptor. The top ctrlSize bytes of every page, lower-aligned to the
// granularity, are reserved for the end control block and never hold
// payload.
type geometry struct {
	pageSize uintptr
	pageMask uintptr // pageSize - 1

	typeOffset    uintptr // offset of the descriptor in a value block
	elemMinOffset uintptr // minimum payload offset in a value block
	rawMinOffset  uintptr // minimum payload offset in a raw block

	endOffset uintptr // in-page offset of the end control block
	maxInPage uintptr // largest payload an empty page can hold

	// invalidTail is the initial tail sentinel. Its offset part sits at
	// the end-control offset so that the very first reservation takes
	// the page-overflow slow path, which keeps construction trivial.
	invalidTail uintptr
}

func newGeometry(pageSize uintptr) geometry {
	descSize := unsafe.Sizeof(RuntimeType{})
	descAlign := unsafe.Alignof(RuntimeType{})
	extAlign := unsafe.Alignof(externalBlock{})

	g := geometry{
		pageSize: pageSize,
		pageMask: pageSize - 1,
	}
	g.typeOffset = alignUp(ctrlSize, descAlign)
	g.elemMinOffset = alignUp(g.typeOffset+descSize, minAlign)
	g.rawMinOffset = alignUp(ctrlSize, max(minAlign, extAlign))
	g.endOffset = alignDown(pageSize-ctrlSize, granularity)
	g.maxInPage = g.endOffset - g.elemMinOffset
	g.invalidTail = g.endOffset | flagInvalidNext
	return g
}

// samePage reports whether two addresses fall inside the same page.
func (g *geometry) samePage(a, b uintptr) bool {
	return (a^b)&^g.pageMask == 0
}

// pageOf returns the base of the page containing addr.
func (g *geometry) pageOf(addr uintptr) uintptr {
	return addr &^ g.pageMask
}

// blockType returns the descriptor stored in the value block at ctrl.
func (g *geometry) blockType(ctrl uintptr) RuntimeType {
	return *(*RuntimeType)(unsafe.Pointer(ctrl + g.typeOffset))
}

// setBlockType stores the descriptor of the value block at ctrl.
func (g *geometry) setBlockType(ctrl uintptr, rt RuntimeType) {
	*(*RuntimeType)(unsafe.Pointer(ctrl + g.typeOffset)) = rt
}

// externalDesc returns the external-block descriptor of the value block
// at ctrl. Valid only when the control word carries flagExternal.
func (g *geometry) externalDesc(ctrl uintptr) *externalBlock {
	return (*externalBlock)(unsafe.Pointer(alignUp(ctrl+g.elemMinOffset, unsafe.Alignof(externalBlock{}))))
}

// blockElement returns the payload address of the value block at ctrl,
// given its control word. For external blocks this is the backing block.
func (g *geometry) blockElement(ctrl, word uintptr) uintptr {
	if word&flagExternal != 0 {
		return g.externalDesc(ctrl).ptr
	}
	a := g.blockType(ctrl).Align()
	if a < minAlign {
		a = minAlign
	}
	return alignUp(ctrl+g.elemMinOffset, a)
}
