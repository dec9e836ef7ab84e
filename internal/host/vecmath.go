package host

import (
	"math"

	"github.com/dropbear/bridge/internal/ffi"
)

func vec3From(a [3]float64) ffi.Vec3 { return ffi.Vec3{X: a[0], Y: a[1], Z: a[2]} }

func add(a, b ffi.Vec3) ffi.Vec3           { return ffi.Vec3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z} }
func sub(a, b ffi.Vec3) ffi.Vec3           { return ffi.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z} }
func mul(a, b ffi.Vec3) ffi.Vec3           { return ffi.Vec3{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z} }
func scale(a ffi.Vec3, s float64) ffi.Vec3 { return ffi.Vec3{X: a.X * s, Y: a.Y * s, Z: a.Z * s} }
func dot(a, b ffi.Vec3) float64            { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func length(a ffi.Vec3) float64            { return math.Sqrt(dot(a, a)) }

func normalize(a ffi.Vec3) (ffi.Vec3, bool) {
	l := length(a)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return ffi.Vec3{}, false
	}
	return scale(a, 1/l), true
}

func quatMul(a, b ffi.Quat) ffi.Quat {
	return ffi.Quat{
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
	}
}

// rotate applies unit quaternion q to v.
func rotate(q ffi.Quat, v ffi.Vec3) ffi.Vec3 {
	u := ffi.Vec3{X: q.X, Y: q.Y, Z: q.Z}
	t := scale(cross(u, v), 2)
	return add(add(v, scale(t, q.W)), cross(u, t))
}

func cross(a, b ffi.Vec3) ffi.Vec3 {
	return ffi.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// compose returns child expressed in the parent's space.
func compose(parent, child ffi.Transform) ffi.Transform {
	return ffi.Transform{
		Position: add(parent.Position, rotate(parent.Rotation, mul(parent.Scale, child.Position))),
		Rotation: quatMul(parent.Rotation, child.Rotation),
		Scale:    mul(parent.Scale, child.Scale),
	}
}
