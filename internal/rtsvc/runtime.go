// Package rtsvc is the minimal runtime-services boundary (spec §4.1, C1).
// Every other component depends only on this interface; the actual
// precise-moving GC, OS thread wrappers, and machine-code entry points are
// out of scope (spec §1) and are represented here only by the contract a
// real implementation would have to satisfy.
package rtsvc

import "sync/atomic"

// TypeHandle is the immutable vtable-like record the spec requires for
// every allocated type: copy-ctor, destructor, hash, equals, toS, plus a
// serialization hook. Handles are installed once per Type and never
// mutated; hot reload (C10) replaces the handle pointer, never its fields.
type TypeHandle struct {
	Name     string
	Size     uintptr
	Copy     func(dst, src any) any
	Destroy  func(obj any)
	Hash     func(obj any) uint32
	Equals   func(a, b any) bool
	ToS      func(obj any) string
	Serial   func(obj any) ([]byte, error)
}

// Obj is an opaque allocated object: a payload plus the handle that
// describes how to treat it. Real Storm backs this with a GC header;
// this stands in for "a pointer that scanners will rewrite".
type Obj struct {
	handle  *TypeHandle
	payload any
	id      uint64
}

var objCounter uint64

// AllocObject installs handle on a fresh object wrapping payload. A moving
// GC would be free to relocate obj.payload; callers must never retain a raw
// pointer to it across an allocation that could trigger a collection — out
// of scope here since no collector is modeled, but the shape is kept so
// higher components program against the real contract.
func AllocObject(handle *TypeHandle, payload any) *Obj {
	return &Obj{handle: handle, payload: payload, id: atomic.AddUint64(&objCounter, 1)}
}

func (o *Obj) Handle() *TypeHandle { return o.handle }
func (o *Obj) Payload() any        { return o.payload }
func (o *Obj) ID() uint64          { return o.id }

// SetVTable installs handle as obj's virtual-dispatch record. Installing a
// handle whose Size does not match an already-allocated object's storage
// is a programming error, reported as Internal by the caller (spec §4.1).
func (o *Obj) SetVTable(handle *TypeHandle) {
	o.handle = handle
}

// IsA reports whether obj's installed handle is exactly want. Component C2
// layers the real subtype test (TypeChain.isA) on top of this primitive
// identity check.
func (o *Obj) IsA(want *TypeHandle) bool {
	return o.handle == want
}

func TypeOf(o *Obj) *TypeHandle { return o.handle }

func TypeName(h *TypeHandle) string {
	if h == nil {
		return "<untyped>"
	}
	return h.Name
}
