package bento

import "unsafe"

// DynamicString is a mutable byte buffer backed by an Allocator. It takes
// two allocator parameters per spec.md §4.6: one for the buffer's bytes
// and, when the string itself is heap-placed via New/NewValue, one for
// the string object. Both are typically the same allocator.
type DynamicString struct {
	selfAllocator   Allocator
	bufferAllocator Allocator
	buffer          unsafe.Pointer
	length          int
	capacity        int
}

// NewDynamicString constructs an empty string. It allocates nothing
// until the first Resize, SetString, or Append.
func NewDynamicString(selfAllocator, bufferAllocator Allocator) *DynamicString {
	return &DynamicString{selfAllocator: selfAllocator, bufferAllocator: bufferAllocator}
}

// Len reports the number of live bytes.
func (s *DynamicString) Len() int { return s.length }

// Resize sets the string to hold exactly n bytes, growing or shrinking
// the live length to match. A resize away from the current capacity
// performs exactly one allocate and one free of the old buffer, if any.
func (s *DynamicString) Resize(n int) {
	s.setCapacity(n)
	s.length = n
}

// setCapacity reallocates the buffer to hold exactly n bytes without
// touching length, beyond clamping it if it no longer fits. SetString and
// Append use this directly so their growth policy doesn't force Len() to
// jump to the new capacity.
func (s *DynamicString) setCapacity(n int) {
	if n == s.capacity {
		return
	}

	var newBuf unsafe.Pointer
	if n > 0 {
		newBuf = s.bufferAllocator.Allocate(uintptr(n), 1)
		if newBuf == nil {
			panic("dynamic_string: resize allocation failed")
		}
	}

	if newBuf != nil && s.buffer != nil {
		toCopy := s.length
		if n < toCopy {
			toCopy = n
		}
		src := unsafe.Slice((*byte)(s.buffer), toCopy)
		dst := unsafe.Slice((*byte)(newBuf), toCopy)
		copy(dst, src)
	}

	if s.buffer != nil {
		s.bufferAllocator.Deallocate(s.buffer)
	}

	s.buffer = newBuf
	s.capacity = n
	if s.length > n {
		s.length = n
	}
}

// Destroy releases the byte buffer. It lets Delete tear down a
// heap-placed DynamicString without leaking its buffer allocation.
func (s *DynamicString) Destroy() { s.Free() }

// Free releases the byte buffer and resets length and capacity to zero.
func (s *DynamicString) Free() {
	if s.buffer != nil {
		s.bufferAllocator.Deallocate(s.buffer)
	}
	s.buffer = nil
	s.capacity = 0
	s.length = 0
}

// Bytes returns the live bytes as a slice aliasing the string's own
// buffer; callers must not retain it past the next mutation.
func (s *DynamicString) Bytes() []byte {
	if s.length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(s.buffer), s.length)
}

// String returns a copy of the live bytes as a Go string.
func (s *DynamicString) String() string { return string(s.Bytes()) }

// SetString replaces the contents with str, growing the buffer through
// setCapacity if needed.
func (s *DynamicString) SetString(str string) {
	if len(str) > s.capacity {
		s.setCapacity(len(str))
	}
	s.length = len(str)
	copy(s.Bytes(), str)
}

// Append adds str to the end, growing the buffer through setCapacity by
// doubling (or starting at 16 bytes) only when capacity is exhausted.
func (s *DynamicString) Append(str string) {
	needed := s.length + len(str)
	if needed > s.capacity {
		newCap := s.capacity * 2
		if newCap < needed {
			newCap = needed
		}
		if newCap < 16 {
			newCap = 16
		}
		s.setCapacity(newCap)
	}
	dst := unsafe.Slice((*byte)(s.buffer), s.capacity)
	copy(dst[s.length:], str)
	s.length += len(str)
}
