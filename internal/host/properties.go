package host

import (
	"github.com/dropbear/bridge/internal/core/ecs"
	"github.com/dropbear/bridge/internal/data"
	"github.com/dropbear/bridge/internal/ffi"
)

type propKind int

const (
	propString propKind = iota
	propInt
	propLong
	propDouble
	propFloat
	propBool
	propVec3
)

var propKindNames = [...]string{"string", "int", "long", "double", "float", "bool", "vec3"}

func (k propKind) String() string { return propKindNames[k] }

type property struct {
	kind propKind
	str  string
	i32  int32
	i64  int64
	f64  float64
	f32  float32
	b    bool
	v3   ffi.Vec3
}

type propertyBag struct {
	values map[string]property
}

func propertyBagFrom(specs map[string]data.PropertySpec) *propertyBag {
	bag := &propertyBag{values: make(map[string]property, len(specs))}
	for name, p := range specs {
		switch {
		case p.String != nil:
			bag.values[name] = property{kind: propString, str: *p.String}
		case p.Int != nil:
			bag.values[name] = property{kind: propInt, i32: *p.Int}
		case p.Long != nil:
			bag.values[name] = property{kind: propLong, i64: *p.Long}
		case p.Double != nil:
			bag.values[name] = property{kind: propDouble, f64: *p.Double}
		case p.Float != nil:
			bag.values[name] = property{kind: propFloat, f32: *p.Float}
		case p.Bool != nil:
			bag.values[name] = property{kind: propBool, b: *p.Bool}
		case p.Vec3 != nil:
			bag.values[name] = property{kind: propVec3, v3: vec3From(*p.Vec3)}
		}
	}
	return bag
}

// bag resolves the property bag of an entity.
func (h *Host) bag(op string, world ffi.Handle, id ffi.EntityID) (*propertyBag, ffi.Status) {
	if st := h.checkHandle(op, world, resWorld); st != ffi.StatusOK {
		return nil, st
	}
	idx, st := h.world.resolve(id)
	if st != ffi.StatusOK {
		return nil, h.fail(op, st, "entity %d", id)
	}
	bag, ok := h.world.props.Get(idx)
	if !ok {
		return nil, h.fail(op, ffi.StatusNoSuchComponent, "entity %d has no custom properties", id)
	}
	return bag, ffi.StatusOK
}

// lookup finds a property of the wanted kind. A missing label reports
// found=false; a label holding another kind is an invalid argument.
func (h *Host) lookup(op string, world ffi.Handle, id ffi.EntityID, label ffi.Bytes, want propKind, found *bool) (property, ffi.Status) {
	if found == nil {
		return property{}, ffi.StatusNullPointer
	}
	*found = false
	bag, st := h.bag(op, world, id)
	if st != ffi.StatusOK {
		return property{}, st
	}
	name, st := h.copyIn(op, label)
	if st != ffi.StatusOK {
		return property{}, st
	}
	p, ok := bag.values[name]
	if !ok {
		return property{}, ffi.StatusOK
	}
	if p.kind != want {
		return property{}, h.fail(op, ffi.StatusInvalidArgument, "property %q is %s, not %s", name, p.kind, want)
	}
	*found = true
	return p, ffi.StatusOK
}

func (h *Host) store(op string, world ffi.Handle, id ffi.EntityID, label ffi.Bytes, p property) ffi.Status {
	bag, st := h.bag(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	name, st := h.copyIn(op, label)
	if st != ffi.StatusOK {
		return st
	}
	if name == "" {
		return h.fail(op, ffi.StatusInvalidArgument, "empty property label")
	}
	bag.values[name] = p
	return ffi.StatusOK
}

func (h *Host) PropertiesExist(world ffi.Handle, id ffi.EntityID, out *bool) ffi.Status {
	return h.hasComponent("properties_exist", world, id, out, func(idx ecs.Index) bool { return h.world.props.Has(idx) })
}

func (h *Host) GetStringProperty(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, out *ffi.Bytes, found *bool) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	p, st := h.lookup("get_string_property", world, id, label, propString, found)
	if st == ffi.StatusOK && *found {
		*out = h.scratchBytes(p.str)
	}
	return st
}

func (h *Host) GetIntProperty(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, out *int32, found *bool) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	p, st := h.lookup("get_int_property", world, id, label, propInt, found)
	if st == ffi.StatusOK && *found {
		*out = p.i32
	}
	return st
}

func (h *Host) GetLongProperty(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, out *int64, found *bool) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	p, st := h.lookup("get_long_property", world, id, label, propLong, found)
	if st == ffi.StatusOK && *found {
		*out = p.i64
	}
	return st
}

func (h *Host) GetDoubleProperty(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, out *float64, found *bool) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	p, st := h.lookup("get_double_property", world, id, label, propDouble, found)
	if st == ffi.StatusOK && *found {
		*out = p.f64
	}
	return st
}

func (h *Host) GetFloatProperty(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, out *float32, found *bool) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	p, st := h.lookup("get_float_property", world, id, label, propFloat, found)
	if st == ffi.StatusOK && *found {
		*out = p.f32
	}
	return st
}

func (h *Host) GetBoolProperty(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, out *bool, found *bool) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	p, st := h.lookup("get_bool_property", world, id, label, propBool, found)
	if st == ffi.StatusOK && *found {
		*out = p.b
	}
	return st
}

func (h *Host) GetVec3Property(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, out *ffi.Vec3, found *bool) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	p, st := h.lookup("get_vec3_property", world, id, label, propVec3, found)
	if st == ffi.StatusOK && *found {
		*out = p.v3
	}
	return st
}

func (h *Host) SetStringProperty(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, value ffi.Bytes) ffi.Status {
	s, st := h.copyIn("set_string_property", value)
	if st != ffi.StatusOK {
		return st
	}
	return h.store("set_string_property", world, id, label, property{kind: propString, str: s})
}

func (h *Host) SetIntProperty(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, value int32) ffi.Status {
	return h.store("set_int_property", world, id, label, property{kind: propInt, i32: value})
}

func (h *Host) SetLongProperty(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, value int64) ffi.Status {
	return h.store("set_long_property", world, id, label, property{kind: propLong, i64: value})
}

func (h *Host) SetDoubleProperty(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, value float64) ffi.Status {
	return h.store("set_double_property", world, id, label, property{kind: propDouble, f64: value})
}

func (h *Host) SetFloatProperty(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, value float32) ffi.Status {
	return h.store("set_float_property", world, id, label, property{kind: propFloat, f32: value})
}

func (h *Host) SetBoolProperty(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, value bool) ffi.Status {
	return h.store("set_bool_property", world, id, label, property{kind: propBool, b: value})
}

func (h *Host) SetVec3Property(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, value ffi.Vec3) ffi.Status {
	return h.store("set_vec3_property", world, id, label, property{kind: propVec3, v3: value})
}
