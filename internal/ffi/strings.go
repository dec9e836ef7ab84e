package ffi

import "unicode/utf8"

// Bytes is a length-terminated byte sequence crossing the boundary. Outputs
// alias host scratch memory and are only valid until the next call.
type Bytes []byte

// BytesOf copies s into a fresh boundary byte sequence.
func BytesOf(s string) Bytes {
	return Bytes(append([]byte(nil), s...))
}

// CopyString copies b into a Go string. Invalid UTF-8 is rejected.
func CopyString(b Bytes) (string, Status) {
	if !utf8.Valid(b) {
		return "", StatusInvalidUTF8
	}
	return string(b), StatusOK
}

// FixedBuffer is a caller-owned output buffer. The callee writes at most
// len(Buf) bytes and stores the full length in N.
type FixedBuffer struct {
	Buf []byte
	N   int
}

// NewFixedBuffer allocates a caller-owned buffer of the given capacity.
func NewFixedBuffer(size int) *FixedBuffer {
	return &FixedBuffer{Buf: make([]byte, size)}
}

// Fill copies src into the buffer. It returns StatusBufferTooSmall, with N set
// to the required size, when src does not fit.
func (f *FixedBuffer) Fill(src []byte) Status {
	f.N = len(src)
	if len(src) > len(f.Buf) {
		return StatusBufferTooSmall
	}
	copy(f.Buf, src)
	return StatusOK
}

// Grow resizes the buffer to hold the length reported by a failed Fill.
func (f *FixedBuffer) Grow() {
	if f.N > len(f.Buf) {
		f.Buf = make([]byte, f.N)
	}
}

// String copies the filled prefix into a Go string.
func (f *FixedBuffer) String() (string, Status) {
	return CopyString(Bytes(f.Buf[:f.N]))
}
