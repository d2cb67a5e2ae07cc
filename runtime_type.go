// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq

import (
	"reflect"
	"sync"
	"unsafe"

	"code.hybscloud.com/atomix"
)

// RuntimeType is the erased descriptor of an element type. It is a single
// word, cheap to copy and store inside a block, and comparable: two
// descriptors are equal iff they describe the same Go type.
//
// A descriptor knows how to copy, move, destroy and box the stored
// representation of its type. Queues make no further assumption about the
// element; everything else is passed through opaquely.
//
// Pointer-free types are stored in page memory verbatim. Types that carry
// pointers (strings, slices, maps, funcs, interfaces, or structs
// containing them) cannot live in raw pages, because the collector does
// not scan them; their stored representation is a handle into a pin table
// that keeps the boxed value reachable until the element is destroyed.
type RuntimeType struct {
	meta *typeMeta
}

type typeMeta struct {
	size     uintptr // stored size, in-page
	align    uintptr // stored alignment
	rtype    reflect.Type
	indirect bool // stored as a pin handle

	copyFn    func(dst, src unsafe.Pointer)
	destroyFn func(p unsafe.Pointer)
	boxFn     func(p unsafe.Pointer) any
	fromFn    func(p unsafe.Pointer, v any)
}

// Valid reports whether the descriptor is non-zero.
func (t RuntimeType) Valid() bool { return t.meta != nil }

// Size returns the size of the stored representation.
func (t RuntimeType) Size() uintptr { return t.meta.size }

// Align returns the alignment of the stored representation.
func (t RuntimeType) Align() uintptr { return t.meta.align }

// GoType returns the described Go type.
func (t RuntimeType) GoType() reflect.Type { return t.meta.rtype }

// String returns the name of the described type.
func (t RuntimeType) String() string {
	if t.meta == nil {
		return "<invalid>"
	}
	return t.meta.rtype.String()
}

// CopyConstruct constructs at dst a copy of the element stored at src.
func (t RuntimeType) CopyConstruct(dst, src unsafe.Pointer) { t.meta.copyFn(dst, src) }

// MoveConstruct moves the element stored at src into dst. src must not be
// destroyed afterwards: ownership transfers.
func (t RuntimeType) MoveConstruct(dst, src unsafe.Pointer) {
	// The stored representation is trivially relocatable in both
	// families: a direct value is plain bytes, a handle transfers pin
	// ownership.
	memmove(dst, src, t.meta.size)
}

// Destroy releases the element stored at p.
func (t RuntimeType) Destroy(p unsafe.Pointer) {
	if t.meta.destroyFn != nil {
		t.meta.destroyFn(p)
	}
}

// Value returns the element stored at p, boxed.
func (t RuntimeType) Value(p unsafe.Pointer) any { return t.meta.boxFn(p) }

// construct stores v, which must hold the described type, at p.
func (t RuntimeType) construct(p unsafe.Pointer, v any) { t.meta.fromFn(p, v) }

// Is reports whether t describes T.
func Is[T any](t RuntimeType) bool {
	return t.meta != nil && t.meta.rtype == reflect.TypeFor[T]()
}

// ValueAs returns the element stored at p as a T. Panics if t does not
// describe T.
func ValueAs[T any](t RuntimeType, p unsafe.Pointer) T {
	if !Is[T](t) {
		panic("hetq: element is a " + t.String())
	}
	if t.meta.indirect {
		return pinned(*(*pinHandle)(p)).(T)
	}
	return *(*T)(p)
}

var metaCache sync.Map // reflect.Type -> *typeMeta

// TypeOf returns the descriptor of T.
func TypeOf[T any]() RuntimeType {
	rt := reflect.TypeFor[T]()
	if m, ok := metaCache.Load(rt); ok {
		return RuntimeType{m.(*typeMeta)}
	}
	m, _ := metaCache.LoadOrStore(rt, buildMeta[T](rt))
	return RuntimeType{m.(*typeMeta)}
}

// TypeOfValue returns the descriptor of the dynamic type of v.
// Panics if v is nil.
func TypeOfValue(v any) RuntimeType {
	if v == nil {
		panic("hetq: nil element")
	}
	rt := reflect.TypeOf(v)
	if m, ok := metaCache.Load(rt); ok {
		return RuntimeType{m.(*typeMeta)}
	}
	// Build through reflection: the generic path is not reachable from
	// a dynamic type.
	m, _ := metaCache.LoadOrStore(rt, buildMetaReflect(rt))
	return RuntimeType{m.(*typeMeta)}
}

func buildMeta[T any](rt reflect.Type) *typeMeta {
	if hasPointers(rt) {
		return buildIndirectMeta(rt)
	}
	var z T
	m := &typeMeta{
		size:  unsafe.Sizeof(z),
		align: unsafe.Alignof(z),
		rtype: rt,
	}
	m.copyFn = func(dst, src unsafe.Pointer) { *(*T)(dst) = *(*T)(src) }
	m.boxFn = func(p unsafe.Pointer) any { return *(*T)(p) }
	m.fromFn = func(p unsafe.Pointer, v any) { *(*T)(p) = v.(T) }
	return m
}

func buildMetaReflect(rt reflect.Type) *typeMeta {
	if hasPointers(rt) {
		return buildIndirectMeta(rt)
	}
	m := &typeMeta{
		size:  rt.Size(),
		align: uintptr(rt.Align()),
		rtype: rt,
	}
	m.copyFn = func(dst, src unsafe.Pointer) { memmove(dst, src, m.size) }
	m.boxFn = func(p unsafe.Pointer) any {
		return reflect.NewAt(rt, p).Elem().Interface()
	}
	m.fromFn = func(p unsafe.Pointer, v any) {
		reflect.NewAt(rt, p).Elem().Set(reflect.ValueOf(v))
	}
	return m
}

func buildIndirectMeta(rt reflect.Type) *typeMeta {
	m := &typeMeta{
		size:     unsafe.Sizeof(pinHandle(0)),
		align:    unsafe.Alignof(pinHandle(0)),
		rtype:    rt,
		indirect: true,
	}
	m.copyFn = func(dst, src unsafe.Pointer) {
		*(*pinHandle)(dst) = pin(pinned(*(*pinHandle)(src)))
	}
	m.destroyFn = func(p unsafe.Pointer) { unpin(*(*pinHandle)(p)) }
	m.boxFn = func(p unsafe.Pointer) any { return pinned(*(*pinHandle)(p)) }
	m.fromFn = func(p unsafe.Pointer, v any) { *(*pinHandle)(p) = pin(v) }
	return m
}

// hasPointers reports whether values of t contain pointers the collector
// must see.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		// Ptr, UnsafePointer, String, Slice, Map, Chan, Func,
		// Interface, and anything new: assume pointers.
		return true
	}
}

// memmove copies n bytes from src to dst. The regions may not overlap.
func memmove(dst, src unsafe.Pointer, n uintptr) {
	copy(unsafe.Slice((*byte)(dst), n), unsafe.Slice((*byte)(src), n))
}

// The pin table keeps boxed values of pointer-carrying types reachable
// while their handle sits in page memory. Handles are never reused: a
// monotonically increasing counter makes a stale handle fail loudly.

type pinHandle uintptr

var (
	pinSeq   atomix.Uint64
	pinTable sync.Map // pinHandle -> any
)

func pin(v any) pinHandle {
	h := pinHandle(pinSeq.Add(1))
	pinTable.Store(h, v)
	return h
}

func pinned(h pinHandle) any {
	v, ok := pinTable.Load(h)
	if !ok {
		panic("hetq: dangling pin handle")
	}
	return v
}

func unpin(h pinHandle) {
	pinTable.Delete(h)
}
