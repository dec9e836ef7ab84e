package facade

import (
	"github.com/dropbear/bridge/internal/ffi"
)

// ── RigidBody ───────────────────────────────────────────────────────

// RigidBody addresses a body by its generation-checked index. A body
// removed by a scene switch reports PhysicsObjectNotFound.
type RigidBody struct {
	entity Entity
	index  ffi.Index
}

func (b RigidBody) Index() ffi.Index { return b.index }

func (b RigidBody) Entity() Entity { return b.entity }

func (b RigidBody) Mode() (ffi.RigidBodyMode, error) {
	e := b.entity.e
	var out ffi.RigidBodyMode
	if st := e.abi.GetRigidBodyMode(e.reg.Physics(), b.index, &out); st != ffi.StatusOK {
		return 0, e.failf("get_rigid_body_mode", st, "body %v", b.index)
	}
	return out, nil
}

func (b RigidBody) SetMode(m ffi.RigidBodyMode) error {
	e := b.entity.e
	if st := e.abi.SetRigidBodyMode(e.reg.Physics(), b.index, m); st != ffi.StatusOK {
		return e.failf("set_rigid_body_mode", st, "body %v", b.index)
	}
	return nil
}

func (b RigidBody) scalar(f ffi.BodyField) (float64, error) {
	e := b.entity.e
	var out float64
	if st := e.abi.GetRigidBodyScalar(e.reg.Physics(), b.index, f, &out); st != ffi.StatusOK {
		return 0, e.failf("get_rigid_body_scalar", st, "body %v field %d", b.index, f)
	}
	return out, nil
}

func (b RigidBody) setScalar(f ffi.BodyField, v float64) error {
	e := b.entity.e
	if st := e.abi.SetRigidBodyScalar(e.reg.Physics(), b.index, f, v); st != ffi.StatusOK {
		return e.failf("set_rigid_body_scalar", st, "body %v field %d", b.index, f)
	}
	return nil
}

func (b RigidBody) vec3(f ffi.BodyField) (ffi.Vec3, error) {
	e := b.entity.e
	var out ffi.Vec3
	if st := e.abi.GetRigidBodyVec3(e.reg.Physics(), b.index, f, &out); st != ffi.StatusOK {
		return ffi.Vec3{}, e.failf("get_rigid_body_vec3", st, "body %v field %d", b.index, f)
	}
	return out, nil
}

func (b RigidBody) setVec3(f ffi.BodyField, v ffi.Vec3) error {
	e := b.entity.e
	if st := e.abi.SetRigidBodyVec3(e.reg.Physics(), b.index, f, v); st != ffi.StatusOK {
		return e.failf("set_rigid_body_vec3", st, "body %v field %d", b.index, f)
	}
	return nil
}

func (b RigidBody) GravityScale() (float64, error)      { return b.scalar(ffi.BodyGravityScale) }
func (b RigidBody) SetGravityScale(v float64) error     { return b.setScalar(ffi.BodyGravityScale, v) }
func (b RigidBody) LinearDamping() (float64, error)     { return b.scalar(ffi.BodyLinearDamping) }
func (b RigidBody) SetLinearDamping(v float64) error    { return b.setScalar(ffi.BodyLinearDamping, v) }
func (b RigidBody) AngularDamping() (float64, error)    { return b.scalar(ffi.BodyAngularDamping) }
func (b RigidBody) SetAngularDamping(v float64) error   { return b.setScalar(ffi.BodyAngularDamping, v) }
func (b RigidBody) LinearVelocity() (ffi.Vec3, error)   { return b.vec3(ffi.BodyLinearVelocity) }
func (b RigidBody) SetLinearVelocity(v ffi.Vec3) error  { return b.setVec3(ffi.BodyLinearVelocity, v) }
func (b RigidBody) AngularVelocity() (ffi.Vec3, error)  { return b.vec3(ffi.BodyAngularVelocity) }
func (b RigidBody) SetAngularVelocity(v ffi.Vec3) error { return b.setVec3(ffi.BodyAngularVelocity, v) }

func (b RigidBody) Sleeping() (bool, error) {
	e := b.entity.e
	var out bool
	if st := e.abi.GetRigidBodySleeping(e.reg.Physics(), b.index, &out); st != ffi.StatusOK {
		return false, e.failf("get_rigid_body_sleeping", st, "body %v", b.index)
	}
	return out, nil
}

func (b RigidBody) ApplyImpulse(impulse ffi.Vec3) error {
	e := b.entity.e
	if st := e.abi.ApplyImpulse(e.reg.Physics(), b.index, impulse); st != ffi.StatusOK {
		return e.failf("apply_impulse", st, "body %v", b.index)
	}
	return nil
}

func (b RigidBody) ApplyTorqueImpulse(torque ffi.Vec3) error {
	e := b.entity.e
	if st := e.abi.ApplyTorqueImpulse(e.reg.Physics(), b.index, torque); st != ffi.StatusOK {
		return e.failf("apply_torque_impulse", st, "body %v", b.index)
	}
	return nil
}

// ChildColliders lists the colliders attached to the body's entity.
func (b RigidBody) ChildColliders() ([]Collider, error) {
	const op = "get_child_colliders"
	e := b.entity.e
	var arr ffi.Array[ffi.ColliderRef]
	if st := e.abi.GetChildColliders(e.reg.World(), e.reg.Physics(), b.index, &arr); st != ffi.StatusOK {
		return nil, e.failf(op, st, "body %v", b.index)
	}
	return colliders(e, op, arr)
}

func colliders(e *Engine, op string, arr ffi.Array[ffi.ColliderRef]) ([]Collider, error) {
	refs, err := take(e, op, arr)
	if err != nil {
		return nil, err
	}
	out := make([]Collider, len(refs))
	for i, r := range refs {
		out[i] = e.Collider(r)
	}
	return out, nil
}

// ── Collider ────────────────────────────────────────────────────────

// Collider is addressed by its owning entity plus its own index, since an
// entity may carry several.
type Collider struct {
	e   *Engine
	Ref ffi.ColliderRef
}

// Collider wraps a reference received from a query or collision event.
func (e *Engine) Collider(ref ffi.ColliderRef) Collider {
	return Collider{e: e, Ref: ref}
}

func (c Collider) Entity() Entity { return c.e.EntityByID(c.Ref.Entity) }

// Shape decodes the collider's shape variant.
func (c Collider) Shape() (ffi.ColliderShape, error) {
	const op = "get_collider_shape"
	var n ffi.NativeColliderShape
	if st := c.e.abi.GetColliderShape(c.e.reg.Physics(), c.Ref.Index, &n); st != ffi.StatusOK {
		return nil, c.e.failf(op, st, "collider %v", c.Ref.Index)
	}
	s, st := ffi.DecodeColliderShape(n)
	if st != ffi.StatusOK {
		return nil, c.e.policy.Resolve(c.e.log, ffi.Check(op, st))
	}
	return s, nil
}

func (c Collider) SetShape(s ffi.ColliderShape) error {
	const op = "set_collider_shape"
	n, st := ffi.EncodeColliderShape(s)
	if st != ffi.StatusOK {
		return c.e.policy.Resolve(c.e.log, ffi.Check(op, st))
	}
	if st := c.e.abi.SetColliderShape(c.e.reg.Physics(), c.Ref.Index, n); st != ffi.StatusOK {
		return c.e.failf(op, st, "collider %v", c.Ref.Index)
	}
	return nil
}

func (c Collider) scalar(f ffi.ColliderField) (float64, error) {
	var out float64
	if st := c.e.abi.GetColliderScalar(c.e.reg.Physics(), c.Ref.Index, f, &out); st != ffi.StatusOK {
		return 0, c.e.failf("get_collider_scalar", st, "collider %v field %d", c.Ref.Index, f)
	}
	return out, nil
}

func (c Collider) setScalar(f ffi.ColliderField, v float64) error {
	if st := c.e.abi.SetColliderScalar(c.e.reg.Physics(), c.Ref.Index, f, v); st != ffi.StatusOK {
		return c.e.failf("set_collider_scalar", st, "collider %v field %d", c.Ref.Index, f)
	}
	return nil
}

func (c Collider) Density() (float64, error)      { return c.scalar(ffi.ColliderDensity) }
func (c Collider) SetDensity(v float64) error     { return c.setScalar(ffi.ColliderDensity, v) }
func (c Collider) Friction() (float64, error)     { return c.scalar(ffi.ColliderFriction) }
func (c Collider) SetFriction(v float64) error    { return c.setScalar(ffi.ColliderFriction, v) }
func (c Collider) Restitution() (float64, error)  { return c.scalar(ffi.ColliderRestitution) }
func (c Collider) SetRestitution(v float64) error { return c.setScalar(ffi.ColliderRestitution, v) }

// Mass is derived from shape and density.
func (c Collider) Mass() (float64, error) { return c.scalar(ffi.ColliderMass) }

func (c Collider) IsSensor() (bool, error) {
	var out bool
	if st := c.e.abi.GetColliderSensor(c.e.reg.Physics(), c.Ref.Index, &out); st != ffi.StatusOK {
		return false, c.e.failf("get_collider_sensor", st, "collider %v", c.Ref.Index)
	}
	return out, nil
}

func (c Collider) SetSensor(sensor bool) error {
	if st := c.e.abi.SetColliderSensor(c.e.reg.Physics(), c.Ref.Index, sensor); st != ffi.StatusOK {
		return c.e.failf("set_collider_sensor", st, "collider %v", c.Ref.Index)
	}
	return nil
}

// Translation is the offset from the owning entity.
func (c Collider) Translation() (ffi.Vec3, error) {
	var out ffi.Vec3
	if st := c.e.abi.GetColliderTranslation(c.e.reg.Physics(), c.Ref.Index, &out); st != ffi.StatusOK {
		return ffi.Vec3{}, c.e.failf("get_collider_translation", st, "collider %v", c.Ref.Index)
	}
	return out, nil
}

func (c Collider) SetTranslation(v ffi.Vec3) error {
	if st := c.e.abi.SetColliderTranslation(c.e.reg.Physics(), c.Ref.Index, v); st != ffi.StatusOK {
		return c.e.failf("set_collider_translation", st, "collider %v", c.Ref.Index)
	}
	return nil
}

// ── ColliderGroup ───────────────────────────────────────────────────

type ColliderGroup struct{ entity Entity }

func (g ColliderGroup) Colliders() ([]Collider, error) {
	const op = "get_collider_group_colliders"
	x := g.entity
	var arr ffi.Array[ffi.ColliderRef]
	if st := x.e.abi.GetColliderGroupColliders(x.e.reg.World(), x.e.reg.Physics(), x.ID, &arr); st != ffi.StatusOK {
		return nil, x.e.failf(op, st, "entity %d", x.ID)
	}
	return colliders(x.e, op, arr)
}

// ── KinematicController ─────────────────────────────────────────────

type KinematicController struct{ entity Entity }

// Move requests a character translation for this step. The outcome is read
// back with MovementResult.
func (k KinematicController) Move(translation ffi.Vec3, dt float64) error {
	x := k.entity
	if st := x.e.abi.MoveCharacter(x.e.reg.World(), x.e.reg.Physics(), x.ID, translation, dt); st != ffi.StatusOK {
		return x.e.failf("move_character", st, "entity %d", x.ID)
	}
	return nil
}

func (k KinematicController) MovementResult() (ffi.MovementResult, error) {
	x := k.entity
	var out ffi.MovementResult
	if st := x.e.abi.GetMovementResult(x.e.reg.World(), x.ID, &out); st != ffi.StatusOK {
		return ffi.MovementResult{}, x.e.failf("get_movement_result", st, "entity %d", x.ID)
	}
	return out, nil
}

// ── Queries ─────────────────────────────────────────────────────────

type Physics struct{ e *Engine }

func (p Physics) Gravity() (ffi.Vec3, error) {
	var out ffi.Vec3
	if st := p.e.abi.GetGravity(p.e.reg.Physics(), &out); st != ffi.StatusOK {
		return ffi.Vec3{}, p.e.fail("get_gravity", st)
	}
	return out, nil
}

func (p Physics) SetGravity(g ffi.Vec3) error {
	if st := p.e.abi.SetGravity(p.e.reg.Physics(), g); st != ffi.StatusOK {
		return p.e.fail("set_gravity", st)
	}
	return nil
}

// RayHit is a raycast result.
type RayHit struct {
	Collider Collider
	Distance float64
}

// Raycast returns the nearest non-sensor hit within maxDistance. found is
// false on a miss.
func (p Physics) Raycast(origin, direction ffi.Vec3, maxDistance float64, solid bool) (hit RayHit, found bool, err error) {
	var out ffi.RayHit
	if st := p.e.abi.Raycast(p.e.reg.Physics(), origin, direction, maxDistance, solid, &out); st != ffi.StatusOK {
		return RayHit{}, false, p.e.fail("raycast", st)
	}
	if !out.Collider.Entity.Present() {
		return RayHit{}, false, nil
	}
	return RayHit{Collider: p.e.Collider(out.Collider), Distance: out.Distance}, true, nil
}

// ShapeCastHit is a decoded shape cast result.
type ShapeCastHit struct {
	Collider Collider
	Distance float64
	Witness1 ffi.Vec3
	Witness2 ffi.Vec3
	Normal1  ffi.Vec3
	Normal2  ffi.Vec3
	Status   ffi.ShapeCastStatus
}

// ShapeCast sweeps shape along direction. found is false on a miss.
func (p Physics) ShapeCast(origin, direction ffi.Vec3, shape ffi.ColliderShape, maxDistance float64) (hit ShapeCastHit, found bool, err error) {
	const op = "shape_cast"
	n, st := ffi.EncodeColliderShape(shape)
	if st != ffi.StatusOK {
		return ShapeCastHit{}, false, p.e.policy.Resolve(p.e.log, ffi.Check(op, st))
	}
	var out ffi.NativeShapeCastHit
	if st := p.e.abi.ShapeCast(p.e.reg.Physics(), origin, direction, n, maxDistance, &out); st != ffi.StatusOK {
		return ShapeCastHit{}, false, p.e.fail(op, st)
	}
	if !out.Collider.Entity.Present() {
		return ShapeCastHit{}, false, nil
	}
	status, st := ffi.DecodeShapeCastStatus(out.Status)
	if st != ffi.StatusOK {
		return ShapeCastHit{}, false, p.e.policy.Resolve(p.e.log, ffi.Check(op, st))
	}
	return ShapeCastHit{
		Collider: p.e.Collider(out.Collider),
		Distance: out.Distance,
		Witness1: out.Witness1,
		Witness2: out.Witness2,
		Normal1:  out.Normal1,
		Normal2:  out.Normal2,
		Status:   status,
	}, true, nil
}

// IsTouching reports a live contact between any colliders of a and b.
func (p Physics) IsTouching(a, b Entity) (bool, error) {
	var out bool
	if st := p.e.abi.IsTouching(p.e.reg.Physics(), a.ID, b.ID, &out); st != ffi.StatusOK {
		return false, p.e.failf("is_touching", st, "entities %d and %d", a.ID, b.ID)
	}
	return out, nil
}
