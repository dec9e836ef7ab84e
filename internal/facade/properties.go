package facade

import (
	"errors"
	"fmt"

	"github.com/dropbear/bridge/internal/ffi"
)

// PropertyKind is one of the value kinds a property bag can hold.
type PropertyKind int

const (
	PropertyString PropertyKind = iota
	PropertyInt
	PropertyLong
	PropertyDouble
	PropertyFloat
	PropertyBool
	PropertyVec3
)

var propertyKindNames = [...]string{"string", "int", "long", "double", "float", "bool", "vec3"}

func (k PropertyKind) String() string {
	if k < 0 || int(k) >= len(propertyKindNames) {
		return fmt.Sprintf("PropertyKind(%d)", int(k))
	}
	return propertyKindNames[k]
}

// ParsePropertyKind maps a kind name such as "int" or "vec3" to its kind.
func ParsePropertyKind(name string) (PropertyKind, bool) {
	for i, n := range propertyKindNames {
		if n == name {
			return PropertyKind(i), true
		}
	}
	return 0, false
}

// ErrUnsupportedPropertyKind is returned, without any boundary call, when a
// value or requested kind is outside the supported set. It is a protocol
// violation and is raised in lenient sessions too.
var ErrUnsupportedPropertyKind = errors.New("unsupported property kind")

func unsupported(op, label string, what any) error {
	v := &ffi.ViolationError{Op: op, Reason: fmt.Sprintf("property %q: %v", label, what)}
	return fmt.Errorf("%w: %w", v, ErrUnsupportedPropertyKind)
}

// KindOf maps a Go value to its property kind.
func KindOf(v any) (PropertyKind, bool) {
	switch v.(type) {
	case string:
		return PropertyString, true
	case int32:
		return PropertyInt, true
	case int64:
		return PropertyLong, true
	case float64:
		return PropertyDouble, true
	case float32:
		return PropertyFloat, true
	case bool:
		return PropertyBool, true
	case ffi.Vec3:
		return PropertyVec3, true
	}
	return 0, false
}

// Properties is the entity's custom property bag. A missing label reads as
// found=false; a label holding another kind is a boundary failure.
type Properties struct{ entity Entity }

type propertyGetter[T any] func(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, out *T, found *bool) ffi.Status

type propertySetter[T any] func(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, value T) ffi.Status

func getProperty[T any](p Properties, op string, fn propertyGetter[T], label string) (T, bool, error) {
	var (
		out   T
		found bool
	)
	x := p.entity
	if st := fn(x.e.reg.World(), x.ID, ffi.BytesOf(label), &out, &found); st != ffi.StatusOK {
		var zero T
		return zero, false, x.e.failf(op, st, "entity %d property %q", x.ID, label)
	}
	return out, found, nil
}

func setProperty[T any](p Properties, op string, fn propertySetter[T], label string, v T) error {
	x := p.entity
	if st := fn(x.e.reg.World(), x.ID, ffi.BytesOf(label), v); st != ffi.StatusOK {
		return x.e.failf(op, st, "entity %d property %q", x.ID, label)
	}
	return nil
}

// String copies the value out of host scratch memory.
func (p Properties) String(label string) (string, bool, error) {
	b, found, err := getProperty[ffi.Bytes](p, "get_string_property", p.entity.e.abi.GetStringProperty, label)
	if err != nil || !found {
		return "", found, err
	}
	s, st := ffi.CopyString(b)
	if st != ffi.StatusOK {
		x := p.entity
		return "", false, x.e.failf("get_string_property", st, "entity %d property %q", x.ID, label)
	}
	return s, true, nil
}

func (p Properties) Int(label string) (int32, bool, error) {
	return getProperty[int32](p, "get_int_property", p.entity.e.abi.GetIntProperty, label)
}

func (p Properties) Long(label string) (int64, bool, error) {
	return getProperty[int64](p, "get_long_property", p.entity.e.abi.GetLongProperty, label)
}

func (p Properties) Double(label string) (float64, bool, error) {
	return getProperty[float64](p, "get_double_property", p.entity.e.abi.GetDoubleProperty, label)
}

func (p Properties) Float(label string) (float32, bool, error) {
	return getProperty[float32](p, "get_float_property", p.entity.e.abi.GetFloatProperty, label)
}

func (p Properties) Bool(label string) (bool, bool, error) {
	return getProperty[bool](p, "get_bool_property", p.entity.e.abi.GetBoolProperty, label)
}

func (p Properties) Vec3(label string) (ffi.Vec3, bool, error) {
	return getProperty[ffi.Vec3](p, "get_vec3_property", p.entity.e.abi.GetVec3Property, label)
}

func (p Properties) SetString(label, v string) error {
	return setProperty[ffi.Bytes](p, "set_string_property", p.entity.e.abi.SetStringProperty, label, ffi.BytesOf(v))
}

func (p Properties) SetInt(label string, v int32) error {
	return setProperty[int32](p, "set_int_property", p.entity.e.abi.SetIntProperty, label, v)
}

func (p Properties) SetLong(label string, v int64) error {
	return setProperty[int64](p, "set_long_property", p.entity.e.abi.SetLongProperty, label, v)
}

func (p Properties) SetDouble(label string, v float64) error {
	return setProperty[float64](p, "set_double_property", p.entity.e.abi.SetDoubleProperty, label, v)
}

func (p Properties) SetFloat(label string, v float32) error {
	return setProperty[float32](p, "set_float_property", p.entity.e.abi.SetFloatProperty, label, v)
}

func (p Properties) SetBool(label string, v bool) error {
	return setProperty[bool](p, "set_bool_property", p.entity.e.abi.SetBoolProperty, label, v)
}

func (p Properties) SetVec3(label string, v ffi.Vec3) error {
	return setProperty[ffi.Vec3](p, "set_vec3_property", p.entity.e.abi.SetVec3Property, label, v)
}

// Get reads label as kind.
func (p Properties) Get(label string, kind PropertyKind) (any, bool, error) {
	switch kind {
	case PropertyString:
		return p.String(label)
	case PropertyInt:
		return p.Int(label)
	case PropertyLong:
		return p.Long(label)
	case PropertyDouble:
		return p.Double(label)
	case PropertyFloat:
		return p.Float(label)
	case PropertyBool:
		return p.Bool(label)
	case PropertyVec3:
		return p.Vec3(label)
	}
	return nil, false, unsupported("get_property", label, kind)
}

// Set stores v under label. The kind is taken from v's dynamic type.
func (p Properties) Set(label string, v any) error {
	switch v := v.(type) {
	case string:
		return p.SetString(label, v)
	case int32:
		return p.SetInt(label, v)
	case int64:
		return p.SetLong(label, v)
	case float64:
		return p.SetDouble(label, v)
	case float32:
		return p.SetFloat(label, v)
	case bool:
		return p.SetBool(label, v)
	case ffi.Vec3:
		return p.SetVec3(label, v)
	}
	return unsupported("set_property", label, fmt.Sprintf("%T", v))
}
