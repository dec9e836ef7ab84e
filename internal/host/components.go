package host

import (
	"github.com/dropbear/bridge/internal/core/ecs"
	"github.com/dropbear/bridge/internal/ffi"
)

// ── Transform ──────────────────────────────────────────────────────

func (h *Host) TransformExists(world ffi.Handle, id ffi.EntityID, out *bool) ffi.Status {
	return h.hasComponent("transform_exists", world, id, out, h.world.transforms.Has)
}

func (h *Host) transform(op string, world ffi.Handle, id ffi.EntityID) (ecs.Index, *ffi.EntityTransform, ffi.Status) {
	idx, st := h.entity(op, world, id)
	if st != ffi.StatusOK {
		return idx, nil, st
	}
	t, ok := h.world.transforms.Get(idx)
	if !ok {
		return idx, nil, h.fail(op, ffi.StatusNoSuchComponent, "entity %d has no transform", id)
	}
	return idx, t, ffi.StatusOK
}

func (h *Host) GetTransform(world ffi.Handle, id ffi.EntityID, out *ffi.EntityTransform) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	_, t, st := h.transform("get_transform", world, id)
	if st != ffi.StatusOK {
		return st
	}
	*out = *t
	return ffi.StatusOK
}

func (h *Host) SetTransform(world ffi.Handle, id ffi.EntityID, value ffi.EntityTransform) ffi.Status {
	_, t, st := h.transform("set_transform", world, id)
	if st != ffi.StatusOK {
		return st
	}
	*t = value
	return ffi.StatusOK
}

func (h *Host) PropagateTransform(world ffi.Handle, id ffi.EntityID, out *ffi.Transform) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	idx, _, st := h.transform("propagate_transform", world, id)
	if st != ffi.StatusOK {
		return st
	}
	*out = h.world.propagate(idx)
	return ffi.StatusOK
}

// ── Camera ─────────────────────────────────────────────────────────

func (h *Host) CameraExists(world ffi.Handle, id ffi.EntityID, out *bool) ffi.Status {
	return h.hasComponent("camera_exists", world, id, out, h.world.cameras.Has)
}

func (h *Host) camera(op string, world ffi.Handle, id ffi.EntityID) (*camera, ffi.Status) {
	idx, st := h.entity(op, world, id)
	if st != ffi.StatusOK {
		return nil, st
	}
	c, ok := h.world.cameras.Get(idx)
	if !ok {
		return nil, h.fail(op, ffi.StatusNoSuchComponent, "entity %d has no camera", id)
	}
	return c, ffi.StatusOK
}

func (c *camera) vec3(f ffi.CameraField) *ffi.Vec3 {
	switch f {
	case ffi.CameraEye:
		return &c.eye
	case ffi.CameraTarget:
		return &c.target
	case ffi.CameraUp:
		return &c.up
	}
	return nil
}

func (c *camera) scalar(f ffi.CameraField) *float64 {
	switch f {
	case ffi.CameraFovY:
		return &c.fovY
	case ffi.CameraZNear:
		return &c.zNear
	case ffi.CameraZFar:
		return &c.zFar
	case ffi.CameraYaw:
		return &c.yaw
	case ffi.CameraPitch:
		return &c.pitch
	case ffi.CameraSpeed:
		return &c.speed
	case ffi.CameraSensitivity:
		return &c.sensitivity
	case ffi.CameraAspect:
		return &c.aspect
	}
	return nil
}

func (h *Host) GetCameraVec3(world ffi.Handle, id ffi.EntityID, field ffi.CameraField, out *ffi.Vec3) ffi.Status {
	const op = "get_camera_vec3"
	if out == nil {
		return ffi.StatusNullPointer
	}
	c, st := h.camera(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	v := c.vec3(field)
	if v == nil {
		return h.fail(op, ffi.StatusInvalidArgument, "camera field %d is not a vector", field)
	}
	*out = *v
	return ffi.StatusOK
}

func (h *Host) SetCameraVec3(world ffi.Handle, id ffi.EntityID, field ffi.CameraField, value ffi.Vec3) ffi.Status {
	const op = "set_camera_vec3"
	c, st := h.camera(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	v := c.vec3(field)
	if v == nil {
		return h.fail(op, ffi.StatusInvalidArgument, "camera field %d is not a vector", field)
	}
	*v = value
	return ffi.StatusOK
}

func (h *Host) GetCameraScalar(world ffi.Handle, id ffi.EntityID, field ffi.CameraField, out *float64) ffi.Status {
	const op = "get_camera_scalar"
	if out == nil {
		return ffi.StatusNullPointer
	}
	c, st := h.camera(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	v := c.scalar(field)
	if v == nil {
		return h.fail(op, ffi.StatusInvalidArgument, "camera field %d is not a scalar", field)
	}
	*out = *v
	return ffi.StatusOK
}

func (h *Host) SetCameraScalar(world ffi.Handle, id ffi.EntityID, field ffi.CameraField, value float64) ffi.Status {
	const op = "set_camera_scalar"
	c, st := h.camera(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	if field == ffi.CameraAspect {
		return h.fail(op, ffi.StatusInvalidArgument, "camera aspect is read-only")
	}
	v := c.scalar(field)
	if v == nil {
		return h.fail(op, ffi.StatusInvalidArgument, "camera field %d is not a scalar", field)
	}
	*v = value
	return ffi.StatusOK
}

// ── Mesh renderer ──────────────────────────────────────────────────

func (h *Host) MeshRendererExists(world ffi.Handle, id ffi.EntityID, out *bool) ffi.Status {
	return h.hasComponent("mesh_renderer_exists", world, id, out, h.world.meshes.Has)
}

func (h *Host) mesh(op string, world ffi.Handle, id ffi.EntityID) (*meshRenderer, ffi.Status) {
	idx, st := h.entity(op, world, id)
	if st != ffi.StatusOK {
		return nil, st
	}
	m, ok := h.world.meshes.Get(idx)
	if !ok {
		return nil, h.fail(op, ffi.StatusNoSuchComponent, "entity %d has no mesh renderer", id)
	}
	return m, ffi.StatusOK
}

func (h *Host) GetModel(world ffi.Handle, id ffi.EntityID, out *ffi.Handle) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	m, st := h.mesh("get_model", world, id)
	if st != ffi.StatusOK {
		return st
	}
	*out = m.model
	return ffi.StatusOK
}

// SetModel swaps the model. Texture overrides are dropped with the old model.
func (h *Host) SetModel(world ffi.Handle, assets ffi.Handle, id ffi.EntityID, model ffi.Handle) ffi.Status {
	const op = "set_model"
	if st := h.checkHandle(op, assets, resAssets); st != ffi.StatusOK {
		return st
	}
	m, st := h.mesh(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	a, st := h.assets.get(model, assetModel)
	if st != ffi.StatusOK {
		return h.fail(op, st, "model handle %#x", uint64(model))
	}
	m.model = a.handle
	m.materials = a.materials()
	m.textures = make(map[string]ffi.Handle)
	m.overrides = make(map[string]ffi.Handle)
	return ffi.StatusOK
}

func (h *Host) GetTexture(world ffi.Handle, id ffi.EntityID, material ffi.Bytes, out *ffi.Handle) ffi.Status {
	const op = "get_texture"
	if out == nil {
		return ffi.StatusNullPointer
	}
	m, st := h.mesh(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	name, st := h.copyIn(op, material)
	if st != ffi.StatusOK {
		return st
	}
	*out = m.texture(name)
	return ffi.StatusOK
}

func (h *Host) SetTextureOverride(world ffi.Handle, assets ffi.Handle, id ffi.EntityID, material ffi.Bytes, texture ffi.Handle) ffi.Status {
	const op = "set_texture_override"
	if st := h.checkHandle(op, assets, resAssets); st != ffi.StatusOK {
		return st
	}
	m, st := h.mesh(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	name, st := h.copyIn(op, material)
	if st != ffi.StatusOK {
		return st
	}
	if !contains(m.materials, name) {
		return h.fail(op, ffi.StatusInvalidArgument, "model has no material %q", name)
	}
	tex, st := h.assets.get(texture, assetTexture)
	if st != ffi.StatusOK {
		return h.fail(op, st, "texture handle %#x", uint64(texture))
	}
	m.overrides[name] = tex.handle
	return ffi.StatusOK
}

// GetTextureIDs lists the effective texture of each material in material
// order, skipping materials without one.
func (h *Host) GetTextureIDs(world ffi.Handle, id ffi.EntityID, out *ffi.Array[ffi.Handle]) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	m, st := h.mesh("get_texture_ids", world, id)
	if st != ffi.StatusOK {
		return st
	}
	var ids []ffi.Handle
	for _, mat := range m.materials {
		if t := m.texture(mat); t != ffi.NullHandle {
			ids = append(ids, t)
		}
	}
	*out = allocArray(h.arena, ids)
	return ffi.StatusOK
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
