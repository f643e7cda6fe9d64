package bento

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Mirrors allocator_tester.cpp's last scenario: a DynamicString built on
// top of a SafeSystemAllocator resizes cleanly and is torn down through
// Delete without leaking.
func TestDynamicStringResizeAndDelete(t *testing.T) {
	var s SafeSystemAllocator

	str := NewValue[DynamicString](&s, *NewDynamicString(&s, &s))
	require.NotNil(t, str)

	str.Resize(1000)
	require.Equal(t, 1000, str.Len())

	Delete[DynamicString](&s, str)
	require.EqualValues(t, 0, s.CurrentAllocatedMemory())
}

func TestDynamicStringSetStringAndAppend(t *testing.T) {
	var s SafeSystemAllocator
	str := NewDynamicString(&s, &s)

	str.SetString("hello")
	require.Equal(t, "hello", str.String())
	require.Equal(t, 5, str.Len())

	str.Append(", world")
	require.Equal(t, "hello, world", str.String())

	str.SetString("short")
	require.Equal(t, "short", str.String())
	require.Equal(t, 5, str.Len())

	str.Free()
	require.Equal(t, 0, str.Len())
	require.EqualValues(t, 0, s.CurrentAllocatedMemory())
}
