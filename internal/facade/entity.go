package facade

import (
	"github.com/dropbear/bridge/internal/ffi"
)

const labelBufferSize = 64

// Entity is exactly an entity id bound to its engine.
type Entity struct {
	e  *Engine
	ID ffi.EntityID
}

// Exists asks the host whether the id still names a live entity.
func (x Entity) Exists() (bool, error) {
	var ok bool
	if st := x.e.abi.EntityExists(x.e.reg.World(), x.ID, &ok); st != ffi.StatusOK {
		return false, x.e.failf("entity_exists", st, "entity %d", x.ID)
	}
	return ok, nil
}

// Label reads the entity label into a caller-owned buffer, growing it once
// when the host reports the required size.
func (x Entity) Label() (string, error) {
	const op = "get_entity_label"
	buf := ffi.NewFixedBuffer(labelBufferSize)
	st := x.e.abi.GetEntityLabel(x.e.reg.World(), x.ID, buf)
	if st == ffi.StatusBufferTooSmall {
		buf.Grow()
		st = x.e.abi.GetEntityLabel(x.e.reg.World(), x.ID, buf)
	}
	if st != ffi.StatusOK {
		return "", x.e.failf(op, st, "entity %d", x.ID)
	}
	s, cst := buf.String()
	if cst != ffi.StatusOK {
		return "", x.e.failf(op, cst, "entity %d", x.ID)
	}
	return s, nil
}

// ── Hierarchy ───────────────────────────────────────────────────────
// Empty, present and failed are separate outcomes: found=false with a nil
// error means the entity legitimately has no such relative.

// Parent returns the parent entity. A root entity yields found=false.
func (x Entity) Parent() (parent Entity, found bool, err error) {
	var id ffi.EntityID
	if st := x.e.abi.GetParent(x.e.reg.World(), x.ID, &id); st != ffi.StatusOK {
		return Entity{}, false, x.e.failf("get_parent", st, "entity %d", x.ID)
	}
	if !id.Present() {
		return Entity{}, false, nil
	}
	return x.e.EntityByID(id), true, nil
}

// Children returns the direct children. No children is an empty slice.
func (x Entity) Children() ([]Entity, error) {
	const op = "get_children"
	var arr ffi.Array[ffi.EntityID]
	if st := x.e.abi.GetChildren(x.e.reg.World(), x.ID, &arr); st != ffi.StatusOK {
		return nil, x.e.failf(op, st, "entity %d", x.ID)
	}
	ids, err := take(x.e, op, arr)
	if err != nil {
		return nil, err
	}
	out := make([]Entity, len(ids))
	for i, id := range ids {
		out[i] = x.e.EntityByID(id)
	}
	return out, nil
}

// ChildByLabel finds a direct child by label.
func (x Entity) ChildByLabel(label string) (child Entity, found bool, err error) {
	var id ffi.EntityID
	if st := x.e.abi.GetChildByLabel(x.e.reg.World(), x.ID, ffi.BytesOf(label), &id); st != ffi.StatusOK {
		return Entity{}, false, x.e.failf("get_child_by_label", st, "entity %d child %q", x.ID, label)
	}
	if !id.Present() {
		return Entity{}, false, nil
	}
	return x.e.EntityByID(id), true, nil
}

// ── Components ──────────────────────────────────────────────────────
// Each accessor runs the existence query first and constructs the typed
// wrapper only when it succeeds.

type existsFunc func(world ffi.Handle, id ffi.EntityID, out *bool) ffi.Status

func (x Entity) has(op string, query existsFunc) (bool, error) {
	var ok bool
	if st := query(x.e.reg.World(), x.ID, &ok); st != ffi.StatusOK {
		return false, x.e.failf(op, st, "entity %d", x.ID)
	}
	return ok, nil
}

func (x Entity) Transform() (Transform, bool, error) {
	ok, err := x.has("transform_exists", x.e.abi.TransformExists)
	if !ok || err != nil {
		return Transform{}, false, err
	}
	return Transform{x}, true, nil
}

func (x Entity) Properties() (Properties, bool, error) {
	ok, err := x.has("properties_exist", x.e.abi.PropertiesExist)
	if !ok || err != nil {
		return Properties{}, false, err
	}
	return Properties{x}, true, nil
}

func (x Entity) Camera() (Camera, bool, error) {
	ok, err := x.has("camera_exists", x.e.abi.CameraExists)
	if !ok || err != nil {
		return Camera{}, false, err
	}
	return Camera{x}, true, nil
}

func (x Entity) MeshRenderer() (MeshRenderer, bool, error) {
	ok, err := x.has("mesh_renderer_exists", x.e.abi.MeshRendererExists)
	if !ok || err != nil {
		return MeshRenderer{}, false, err
	}
	return MeshRenderer{x}, true, nil
}

// RigidBody also resolves the body's physics index.
func (x Entity) RigidBody() (RigidBody, bool, error) {
	ok, err := x.has("rigid_body_exists", x.e.abi.RigidBodyExists)
	if !ok || err != nil {
		return RigidBody{}, false, err
	}
	var idx ffi.Index
	if st := x.e.abi.GetRigidBodyIndex(x.e.reg.World(), x.e.reg.Physics(), x.ID, &idx); st != ffi.StatusOK {
		return RigidBody{}, false, x.e.failf("get_rigid_body_index", st, "entity %d", x.ID)
	}
	return RigidBody{entity: x, index: idx}, true, nil
}

func (x Entity) ColliderGroup() (ColliderGroup, bool, error) {
	ok, err := x.has("collider_group_exists", x.e.abi.ColliderGroupExists)
	if !ok || err != nil {
		return ColliderGroup{}, false, err
	}
	return ColliderGroup{x}, true, nil
}

func (x Entity) KinematicController() (KinematicController, bool, error) {
	ok, err := x.has("kinematic_controller_exists", x.e.abi.KinematicControllerExists)
	if !ok || err != nil {
		return KinematicController{}, false, err
	}
	return KinematicController{x}, true, nil
}
