package facade

import (
	"github.com/dropbear/bridge/internal/ffi"
)

// ── Transform ───────────────────────────────────────────────────────

type Transform struct{ entity Entity }

// Get returns the local and world transforms.
func (t Transform) Get() (ffi.EntityTransform, error) {
	var out ffi.EntityTransform
	x := t.entity
	if st := x.e.abi.GetTransform(x.e.reg.World(), x.ID, &out); st != ffi.StatusOK {
		return ffi.EntityTransform{}, x.e.failf("get_transform", st, "entity %d", x.ID)
	}
	return out, nil
}

// Set writes both transforms.
func (t Transform) Set(v ffi.EntityTransform) error {
	x := t.entity
	if st := x.e.abi.SetTransform(x.e.reg.World(), x.ID, v); st != ffi.StatusOK {
		return x.e.failf("set_transform", st, "entity %d", x.ID)
	}
	return nil
}

func (t Transform) Local() (ffi.Transform, error) {
	v, err := t.Get()
	return v.Local, err
}

func (t Transform) World() (ffi.Transform, error) {
	v, err := t.Get()
	return v.World, err
}

// SetLocal replaces the local transform and keeps the world transform.
func (t Transform) SetLocal(local ffi.Transform) error {
	v, err := t.Get()
	if err != nil {
		return err
	}
	v.Local = local
	return t.Set(v)
}

// SetWorld replaces the world transform until the next propagation.
func (t Transform) SetWorld(world ffi.Transform) error {
	v, err := t.Get()
	if err != nil {
		return err
	}
	v.World = world
	return t.Set(v)
}

// Propagate recomputes the world transform from the parent chain and
// returns it.
func (t Transform) Propagate() (ffi.Transform, error) {
	var out ffi.Transform
	x := t.entity
	if st := x.e.abi.PropagateTransform(x.e.reg.World(), x.ID, &out); st != ffi.StatusOK {
		return ffi.Transform{}, x.e.failf("propagate_transform", st, "entity %d", x.ID)
	}
	return out, nil
}

// ── Camera ──────────────────────────────────────────────────────────

type Camera struct{ entity Entity }

func (c Camera) vec3(f ffi.CameraField) (ffi.Vec3, error) {
	var out ffi.Vec3
	x := c.entity
	if st := x.e.abi.GetCameraVec3(x.e.reg.World(), x.ID, f, &out); st != ffi.StatusOK {
		return ffi.Vec3{}, x.e.failf("get_camera_vec3", st, "entity %d field %d", x.ID, f)
	}
	return out, nil
}

func (c Camera) setVec3(f ffi.CameraField, v ffi.Vec3) error {
	x := c.entity
	if st := x.e.abi.SetCameraVec3(x.e.reg.World(), x.ID, f, v); st != ffi.StatusOK {
		return x.e.failf("set_camera_vec3", st, "entity %d field %d", x.ID, f)
	}
	return nil
}

func (c Camera) scalar(f ffi.CameraField) (float64, error) {
	var out float64
	x := c.entity
	if st := x.e.abi.GetCameraScalar(x.e.reg.World(), x.ID, f, &out); st != ffi.StatusOK {
		return 0, x.e.failf("get_camera_scalar", st, "entity %d field %d", x.ID, f)
	}
	return out, nil
}

func (c Camera) setScalar(f ffi.CameraField, v float64) error {
	x := c.entity
	if st := x.e.abi.SetCameraScalar(x.e.reg.World(), x.ID, f, v); st != ffi.StatusOK {
		return x.e.failf("set_camera_scalar", st, "entity %d field %d", x.ID, f)
	}
	return nil
}

func (c Camera) Eye() (ffi.Vec3, error)         { return c.vec3(ffi.CameraEye) }
func (c Camera) SetEye(v ffi.Vec3) error        { return c.setVec3(ffi.CameraEye, v) }
func (c Camera) Target() (ffi.Vec3, error)      { return c.vec3(ffi.CameraTarget) }
func (c Camera) SetTarget(v ffi.Vec3) error     { return c.setVec3(ffi.CameraTarget, v) }
func (c Camera) Up() (ffi.Vec3, error)          { return c.vec3(ffi.CameraUp) }
func (c Camera) SetUp(v ffi.Vec3) error         { return c.setVec3(ffi.CameraUp, v) }
func (c Camera) FovY() (float64, error)         { return c.scalar(ffi.CameraFovY) }
func (c Camera) SetFovY(v float64) error        { return c.setScalar(ffi.CameraFovY, v) }
func (c Camera) ZNear() (float64, error)        { return c.scalar(ffi.CameraZNear) }
func (c Camera) SetZNear(v float64) error       { return c.setScalar(ffi.CameraZNear, v) }
func (c Camera) ZFar() (float64, error)         { return c.scalar(ffi.CameraZFar) }
func (c Camera) SetZFar(v float64) error        { return c.setScalar(ffi.CameraZFar, v) }
func (c Camera) Yaw() (float64, error)          { return c.scalar(ffi.CameraYaw) }
func (c Camera) SetYaw(v float64) error         { return c.setScalar(ffi.CameraYaw, v) }
func (c Camera) Pitch() (float64, error)        { return c.scalar(ffi.CameraPitch) }
func (c Camera) SetPitch(v float64) error       { return c.setScalar(ffi.CameraPitch, v) }
func (c Camera) Speed() (float64, error)        { return c.scalar(ffi.CameraSpeed) }
func (c Camera) SetSpeed(v float64) error       { return c.setScalar(ffi.CameraSpeed, v) }
func (c Camera) Sensitivity() (float64, error)  { return c.scalar(ffi.CameraSensitivity) }
func (c Camera) SetSensitivity(v float64) error { return c.setScalar(ffi.CameraSensitivity, v) }

// Aspect is derived from the window and has no setter.
func (c Camera) Aspect() (float64, error) { return c.scalar(ffi.CameraAspect) }

// ── MeshRenderer ────────────────────────────────────────────────────

type MeshRenderer struct{ entity Entity }

// Model returns the model asset. found is false when no model is set.
func (m MeshRenderer) Model() (model ffi.Handle, found bool, err error) {
	x := m.entity
	if st := x.e.abi.GetModel(x.e.reg.World(), x.ID, &model); st != ffi.StatusOK {
		return ffi.NullHandle, false, x.e.failf("get_model", st, "entity %d", x.ID)
	}
	return model, model != ffi.NullHandle, nil
}

// SetModel swaps the model and drops every texture override.
func (m MeshRenderer) SetModel(model ffi.Handle) error {
	x := m.entity
	if st := x.e.abi.SetModel(x.e.reg.World(), x.e.reg.Assets(), x.ID, model); st != ffi.StatusOK {
		return x.e.failf("set_model", st, "entity %d", x.ID)
	}
	return nil
}

// Texture returns the texture bound to material, override first.
func (m MeshRenderer) Texture(material string) (tex ffi.Handle, found bool, err error) {
	x := m.entity
	if st := x.e.abi.GetTexture(x.e.reg.World(), x.ID, ffi.BytesOf(material), &tex); st != ffi.StatusOK {
		return ffi.NullHandle, false, x.e.failf("get_texture", st, "entity %d material %q", x.ID, material)
	}
	return tex, tex != ffi.NullHandle, nil
}

func (m MeshRenderer) SetTextureOverride(material string, tex ffi.Handle) error {
	x := m.entity
	st := x.e.abi.SetTextureOverride(x.e.reg.World(), x.e.reg.Assets(), x.ID, ffi.BytesOf(material), tex)
	if st != ffi.StatusOK {
		return x.e.failf("set_texture_override", st, "entity %d material %q", x.ID, material)
	}
	return nil
}

// TextureIDs lists the bound textures in material order.
func (m MeshRenderer) TextureIDs() ([]ffi.Handle, error) {
	const op = "get_texture_ids"
	x := m.entity
	var arr ffi.Array[ffi.Handle]
	if st := x.e.abi.GetTextureIDs(x.e.reg.World(), x.ID, &arr); st != ffi.StatusOK {
		return nil, x.e.failf(op, st, "entity %d", x.ID)
	}
	return take(x.e, op, arr)
}
