package host

import "github.com/dropbear/bridge/internal/ffi"

// arena tracks callee-allocated arrays. Ids are handed out in increasing
// order and never reused, so any issued id that is no longer live has been
// freed.
type arena struct {
	next ffi.BufferID
	live map[ffi.BufferID]arenaEntry
}

type arenaEntry struct {
	data    any
	release func()
}

func newArena() *arena {
	return &arena{live: make(map[ffi.BufferID]arenaEntry)}
}

// freed reports whether id was issued and has since been released.
func (a *arena) freed(id ffi.BufferID) bool {
	_, live := a.live[id]
	return id != 0 && id <= a.next && !live
}

// allocArray registers data and returns it as a boundary array. Empty input
// yields an empty Array with no allocation.
func allocArray[T any](a *arena, data []T) ffi.Array[T] {
	if len(data) == 0 {
		return ffi.Array[T]{}
	}
	a.next++
	id := a.next
	a.live[id] = arenaEntry{
		data: data,
		// Poison on release so a caller that kept the view sees zeroes.
		release: func() { clear(data) },
	}
	return ffi.Array[T]{ID: id, Data: data}
}

func (a *arena) allocFloats(f []float64) ffi.BufferID {
	return allocArray(a, append([]float64(nil), f...)).ID
}

func (a *arena) free(id ffi.BufferID) ffi.Status {
	if id == 0 {
		return ffi.StatusNullPointer
	}
	if a.freed(id) {
		return ffi.StatusDoubleFree
	}
	e, ok := a.live[id]
	if !ok {
		return ffi.StatusNoSuchHandle
	}
	e.release()
	delete(a.live, id)
	return ffi.StatusOK
}

func (a *arena) floats(id ffi.BufferID) ([]float64, ffi.Status) {
	e, ok := a.live[id]
	if !ok {
		if a.freed(id) {
			return nil, ffi.StatusDoubleFree
		}
		return nil, ffi.StatusNoSuchHandle
	}
	f, ok := e.data.([]float64)
	if !ok {
		return nil, ffi.StatusInvalidArgument
	}
	return f, ffi.StatusOK
}

// FreeArray releases a callee-allocated array.
func (h *Host) FreeArray(id ffi.BufferID) ffi.Status {
	st := h.arena.free(id)
	if st != ffi.StatusOK {
		return h.fail("free_array", st, "buffer %d", uint64(id))
	}
	return st
}

// ViewFloat64Array exposes a live float array without transferring ownership.
func (h *Host) ViewFloat64Array(id ffi.BufferID, out *ffi.Array[float64]) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	f, st := h.arena.floats(id)
	if st != ffi.StatusOK {
		return h.fail("view_float_array", st, "buffer %d", uint64(id))
	}
	*out = ffi.Array[float64]{ID: id, Data: f}
	return ffi.StatusOK
}

// LiveArrays returns the number of arrays not yet freed.
func (h *Host) LiveArrays() int { return len(h.arena.live) }
