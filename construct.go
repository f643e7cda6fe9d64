package bento

import "unsafe"

// New allocates room for a T from a and placement-constructs the zero
// value of T in it, returning a typed pointer. It returns nil if the
// allocator cannot serve the request — the Go analogue of the source's
// fallible make_new<T>.
func New[T any](a Allocator) *T {
	var zero T
	size := unsafe.Sizeof(zero)
	align := unsafe.Alignof(zero)
	addr := a.Allocate(size, align)
	if addr == nil {
		return nil
	}
	p := (*T)(addr)
	*p = zero
	return p
}

// NewValue is New, followed by copying v into the freshly allocated
// storage. It models make_new<T>(allocator, args...) for the common case
// where the "constructor arguments" are just the value to store.
func NewValue[T any](a Allocator, v T) *T {
	p := New[T](a)
	if p == nil {
		return nil
	}
	*p = v
	return p
}

// destroyer is implemented by types that own resources beyond their own
// storage (e.g. DynamicString and Vector own a separately-allocated
// buffer). Delete invokes it before reclaiming T's own storage, the Go
// stand-in for a C++ destructor running ahead of operator delete.
type destroyer interface {
	Destroy()
}

// Delete destroys *p — running its Destroy method if it has one, then
// clearing it to the zero value — and returns its storage to a. It is a
// no-op if p is nil, mirroring make_delete<T>.
func Delete[T any](a Allocator, p *T) {
	if p == nil {
		return
	}
	if d, ok := any(p).(destroyer); ok {
		d.Destroy()
	}
	var zero T
	*p = zero
	a.Deallocate(unsafe.Pointer(p))
}
