package ffi

// BufferID identifies a callee-allocated array. Zero means no allocation.
type BufferID uint64

// Array is a callee-allocated (pointer, count) output. Data aliases host
// memory until FreeArray is called; copy it first.
type Array[T any] struct {
	ID   BufferID
	Data []T
}

// Len returns the element count.
func (a Array[T]) Len() int { return len(a.Data) }

// Empty reports an empty result. Empty arrays carry no allocation and need
// no free.
func (a Array[T]) Empty() bool { return a.ID == 0 && len(a.Data) == 0 }

// CopyOut returns a caller-owned copy of the elements.
func (a Array[T]) CopyOut() []T {
	if len(a.Data) == 0 {
		return nil
	}
	out := make([]T, len(a.Data))
	copy(out, a.Data)
	return out
}

// TakeArray copies an array out of host memory and frees it exactly once.
func TakeArray[T any](abi ABI, op string, a Array[T]) ([]T, error) {
	out := a.CopyOut()
	if a.ID == 0 {
		return out, nil
	}
	if err := Check(op+": free", abi.FreeArray(a.ID)); err != nil {
		return nil, err
	}
	return out, nil
}
