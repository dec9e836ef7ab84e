package ffi

import (
	"encoding/binary"
	"fmt"
	"math"
)

// variantCase is one row of a variant's encoding table. The row position is
// the discriminant, so encoder and decoder cannot disagree on it.
type variantCase[S any] struct {
	name   string
	size   int
	encode func(S, []byte) bool
	decode func([]byte) S
}

func checkCases[S any](variant string, cases []variantCase[S], payload int) {
	for _, c := range cases {
		if c.size > payload {
			panic(fmt.Sprintf("ffi: %s case %s needs %d payload bytes, union holds %d", variant, c.name, c.size, payload))
		}
	}
}

func encodeVariant[S any](cases []variantCase[S], v S, payload []byte) (uint32, bool) {
	for tag, c := range cases {
		if c.encode(v, payload) {
			return uint32(tag), true
		}
	}
	return 0, false
}

func decodeVariant[S any](cases []variantCase[S], tag uint32, payload []byte) (S, Status) {
	var zero S
	if int(tag) >= len(cases) {
		return zero, StatusInvalidEnumOrdinal
	}
	c := cases[tag]
	return c.decode(payload[:c.size]), StatusOK
}

func putF32(b []byte, v float64) { binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v))) }
func getF32(b []byte) float64   { return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))) }

// ── Collider shape ─────────────────────────────────────────────────

// ColliderShapePayloadSize is the size of the largest shape case (Box).
const ColliderShapePayloadSize = 12

// NativeColliderShape is the boundary form of ColliderShape.
type NativeColliderShape struct {
	Tag     uint32
	Payload [ColliderShapePayloadSize]byte
}

// ColliderShape is one of BoxShape, SphereShape, CapsuleShape, CylinderShape
// or ConeShape. Dimensions cross the boundary as float32, so a decoded shape
// matches its source only to float32 precision.
type ColliderShape interface {
	isColliderShape()
}

// BoxShape has half-extents along each axis.
type BoxShape struct{ HalfExtents Vec3 }

type SphereShape struct{ Radius float64 }

// CapsuleShape is aligned with the Y axis.
type CapsuleShape struct{ HalfHeight, Radius float64 }

type CylinderShape struct{ HalfHeight, Radius float64 }

type ConeShape struct{ HalfHeight, Radius float64 }

func (BoxShape) isColliderShape()      {}
func (SphereShape) isColliderShape()   {}
func (CapsuleShape) isColliderShape()  {}
func (CylinderShape) isColliderShape() {}
func (ConeShape) isColliderShape()     {}

func encodeHeightRadius(h, r float64, b []byte) {
	putF32(b[0:], h)
	putF32(b[4:], r)
}

var colliderShapeCases = []variantCase[ColliderShape]{
	{
		name: "Box", size: 12,
		encode: func(s ColliderShape, b []byte) bool {
			v, ok := s.(BoxShape)
			if ok {
				putF32(b[0:], v.HalfExtents.X)
				putF32(b[4:], v.HalfExtents.Y)
				putF32(b[8:], v.HalfExtents.Z)
			}
			return ok
		},
		decode: func(b []byte) ColliderShape {
			return BoxShape{HalfExtents: Vec3{getF32(b[0:]), getF32(b[4:]), getF32(b[8:])}}
		},
	},
	{
		name: "Sphere", size: 4,
		encode: func(s ColliderShape, b []byte) bool {
			v, ok := s.(SphereShape)
			if ok {
				putF32(b[0:], v.Radius)
			}
			return ok
		},
		decode: func(b []byte) ColliderShape { return SphereShape{Radius: getF32(b)} },
	},
	{
		name: "Capsule", size: 8,
		encode: func(s ColliderShape, b []byte) bool {
			v, ok := s.(CapsuleShape)
			if ok {
				encodeHeightRadius(v.HalfHeight, v.Radius, b)
			}
			return ok
		},
		decode: func(b []byte) ColliderShape {
			return CapsuleShape{HalfHeight: getF32(b[0:]), Radius: getF32(b[4:])}
		},
	},
	{
		name: "Cylinder", size: 8,
		encode: func(s ColliderShape, b []byte) bool {
			v, ok := s.(CylinderShape)
			if ok {
				encodeHeightRadius(v.HalfHeight, v.Radius, b)
			}
			return ok
		},
		decode: func(b []byte) ColliderShape {
			return CylinderShape{HalfHeight: getF32(b[0:]), Radius: getF32(b[4:])}
		},
	},
	{
		name: "Cone", size: 8,
		encode: func(s ColliderShape, b []byte) bool {
			v, ok := s.(ConeShape)
			if ok {
				encodeHeightRadius(v.HalfHeight, v.Radius, b)
			}
			return ok
		},
		decode: func(b []byte) ColliderShape {
			return ConeShape{HalfHeight: getF32(b[0:]), Radius: getF32(b[4:])}
		},
	},
}

// EncodeColliderShape builds the boundary form of s. A nil or foreign shape
// returns StatusInvalidArgument.
func EncodeColliderShape(s ColliderShape) (NativeColliderShape, Status) {
	var n NativeColliderShape
	if s == nil {
		return n, StatusInvalidArgument
	}
	tag, ok := encodeVariant(colliderShapeCases, s, n.Payload[:])
	if !ok {
		return NativeColliderShape{}, StatusInvalidArgument
	}
	n.Tag = tag
	return n, StatusOK
}

// DecodeColliderShape reads only the payload bytes of the case named by Tag.
func DecodeColliderShape(n NativeColliderShape) (ColliderShape, Status) {
	return decodeVariant(colliderShapeCases, n.Tag, n.Payload[:])
}

// ── Shape cast status ──────────────────────────────────────────────

// ShapeCastStatus is a payload-free variant.
type ShapeCastStatus uint32

const (
	ShapeCastOutOfIterations ShapeCastStatus = iota
	ShapeCastConverged
	ShapeCastFailed
	ShapeCastPenetratingOrWithinTargetDist
)

var shapeCastStatusNames = []string{
	"OutOfIterations", "Converged", "Failed", "PenetratingOrWithinTargetDist",
}

func (s ShapeCastStatus) String() string {
	if int(s) < len(shapeCastStatusNames) {
		return shapeCastStatusNames[s]
	}
	return fmt.Sprintf("ShapeCastStatus(%d)", uint32(s))
}

// NativeShapeCastStatus is the boundary form of ShapeCastStatus.
type NativeShapeCastStatus struct {
	Tag uint32
}

func EncodeShapeCastStatus(s ShapeCastStatus) NativeShapeCastStatus {
	return NativeShapeCastStatus{Tag: uint32(s)}
}

func DecodeShapeCastStatus(n NativeShapeCastStatus) (ShapeCastStatus, Status) {
	if int(n.Tag) >= len(shapeCastStatusNames) {
		return 0, StatusInvalidEnumOrdinal
	}
	return ShapeCastStatus(n.Tag), StatusOK
}

// ── Animation interpolation ────────────────────────────────────────

type Interpolation uint32

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

var interpolationNames = []string{"Linear", "Step", "CubicSpline"}

func (i Interpolation) String() string {
	if int(i) < len(interpolationNames) {
		return interpolationNames[i]
	}
	return fmt.Sprintf("Interpolation(%d)", uint32(i))
}

// NativeInterpolation is the boundary form of Interpolation.
type NativeInterpolation struct {
	Tag uint32
}

func EncodeInterpolation(i Interpolation) NativeInterpolation {
	return NativeInterpolation{Tag: uint32(i)}
}

func DecodeInterpolation(n NativeInterpolation) (Interpolation, Status) {
	if int(n.Tag) >= len(interpolationNames) {
		return 0, StatusInvalidEnumOrdinal
	}
	return Interpolation(n.Tag), StatusOK
}

// ── Channel values ─────────────────────────────────────────────────

// ChannelValuesPayloadSize holds a buffer id and an element count.
const ChannelValuesPayloadSize = 16

// NativeChannelValues carries a callee-allocated float64 array. Each element
// occupies 3 floats (translations, scales) or 4 floats (rotations).
type NativeChannelValues struct {
	Tag     uint32
	Payload [ChannelValuesPayloadSize]byte
}

// ChannelValues is one of Translations, Rotations or Scales.
type ChannelValues interface {
	isChannelValues()
}

type Translations struct{ Values []Vec3 }
type Rotations struct{ Values []Quat }
type Scales struct{ Values []Vec3 }

func (Translations) isChannelValues() {}
func (Rotations) isChannelValues()    {}
func (Scales) isChannelValues()       {}

// channelRef is the decoded payload of NativeChannelValues.
type channelRef struct {
	id    BufferID
	count uint64
}

func putChannelRef(b []byte, r channelRef) {
	binary.LittleEndian.PutUint64(b[0:], uint64(r.id))
	binary.LittleEndian.PutUint64(b[8:], r.count)
}

func getChannelRef(b []byte) channelRef {
	return channelRef{
		id:    BufferID(binary.LittleEndian.Uint64(b[0:])),
		count: binary.LittleEndian.Uint64(b[8:]),
	}
}

var channelWidths = []int{3, 4, 3}

var channelValuesCases = []variantCase[channelRef]{
	{name: "Translations", size: 16, decode: getChannelRef},
	{name: "Rotations", size: 16, decode: getChannelRef},
	{name: "Scales", size: 16, decode: getChannelRef},
}

func init() {
	checkCases("ColliderShape", colliderShapeCases, ColliderShapePayloadSize)
	checkCases("ChannelValues", channelValuesCases, ChannelValuesPayloadSize)
	if len(channelWidths) != len(channelValuesCases) {
		panic("ffi: ChannelValues width table out of step with case table")
	}
}

// EncodeChannelValues flattens v into a float array obtained from alloc and
// returns the boundary form referencing it.
func EncodeChannelValues(v ChannelValues, alloc func([]float64) BufferID) (NativeChannelValues, Status) {
	var (
		n    NativeChannelValues
		flat []float64
		cnt  int
	)
	switch c := v.(type) {
	case Translations:
		n.Tag, flat, cnt = 0, flattenVec3(c.Values), len(c.Values)
	case Rotations:
		n.Tag, cnt = 1, len(c.Values)
		flat = make([]float64, 0, 4*len(c.Values))
		for _, q := range c.Values {
			flat = append(flat, q.X, q.Y, q.Z, q.W)
		}
	case Scales:
		n.Tag, flat, cnt = 2, flattenVec3(c.Values), len(c.Values)
	default:
		return NativeChannelValues{}, StatusInvalidArgument
	}
	var id BufferID
	if len(flat) > 0 {
		id = alloc(flat)
	}
	putChannelRef(n.Payload[:], channelRef{id: id, count: uint64(cnt)})
	return n, StatusOK
}

func flattenVec3(vs []Vec3) []float64 {
	flat := make([]float64, 0, 3*len(vs))
	for _, v := range vs {
		flat = append(flat, v.X, v.Y, v.Z)
	}
	return flat
}

// ChannelBuffer returns the buffer referenced by n so the caller can free it.
func ChannelBuffer(n NativeChannelValues) BufferID {
	return getChannelRef(n.Payload[:]).id
}

// DecodeChannelValues resolves the referenced array through read and builds
// the script-side value. read must return a copy of the array contents.
func DecodeChannelValues(n NativeChannelValues, read func(BufferID) ([]float64, Status)) (ChannelValues, Status) {
	ref, st := decodeVariant(channelValuesCases, n.Tag, n.Payload[:])
	if st != StatusOK {
		return nil, st
	}
	width := channelWidths[n.Tag]
	var flat []float64
	if ref.id != 0 {
		if flat, st = read(ref.id); st != StatusOK {
			return nil, st
		}
	}
	if uint64(len(flat)) != ref.count*uint64(width) {
		return nil, StatusInvalidArgument
	}
	switch n.Tag {
	case 0, 2:
		vs := make([]Vec3, ref.count)
		for i := range vs {
			vs[i] = Vec3{flat[3*i], flat[3*i+1], flat[3*i+2]}
		}
		if n.Tag == 0 {
			return Translations{Values: vs}, StatusOK
		}
		return Scales{Values: vs}, StatusOK
	default:
		qs := make([]Quat, ref.count)
		for i := range qs {
			qs[i] = Quat{flat[4*i], flat[4*i+1], flat[4*i+2], flat[4*i+3]}
		}
		return Rotations{Values: qs}, StatusOK
	}
}
