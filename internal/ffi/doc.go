// Package ffi defines the calling convention shared by the native host and
// the script side.
//
// Every boundary call takes its inputs by value or by opaque Handle, writes
// its outputs through caller-supplied pointers and returns a Status. Zero is
// success; any other value names the failure. A value that is legitimately
// missing (an entity without a parent, a label that matches nothing) is not a
// failure: the call returns StatusOK and writes the AbsentEntity sentinel or
// an empty Array.
//
// Buffer ownership is fixed per call:
//
//   - Bytes outputs are views into host scratch memory. They are valid only
//     until the next boundary call and must be copied with CopyString.
//   - FixedBuffer outputs are caller-owned. The host writes at most len(buf)
//     bytes and reports the required length; StatusBufferTooSmall means retry.
//   - Array outputs are callee-allocated. The caller copies Data and then calls
//     ABI.FreeArray exactly once; a second free returns StatusDoubleFree.
//
// Tagged unions travel as a fixed-size discriminant plus a payload sized to the
// largest case. Encoders and decoders share one case table per variant.
package ffi
