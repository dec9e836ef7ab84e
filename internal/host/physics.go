package host

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dropbear/bridge/internal/core/ecs"
	"github.com/dropbear/bridge/internal/core/event"
	"github.com/dropbear/bridge/internal/data"
	"github.com/dropbear/bridge/internal/ffi"
)

const sleepThreshold = 1e-3

type body struct {
	entity          ecs.Index
	mode            ffi.RigidBodyMode
	gravityScale    float64
	linearDamping   float64
	angularDamping  float64
	linearVelocity  ffi.Vec3
	angularVelocity ffi.Vec3
	impulse         ffi.Vec3
	torque          ffi.Vec3
	sleeping        bool
	colliders       []ecs.Index
}

type collider struct {
	entity      ecs.Index
	body        ecs.Index
	attached    bool
	shape       ffi.NativeColliderShape
	density     float64
	friction    float64
	restitution float64
	mass        float64 // explicit mass; zero derives it from density
	sensor      bool
	translation ffi.Vec3
}

type entityPair struct{ a, b ecs.Index }

func pairOf(a, b ecs.Index) entityPair {
	if b.Pack() < a.Pack() {
		a, b = b, a
	}
	return entityPair{a, b}
}

// physics stores bodies and colliders in generational slots. Slots are never
// reset, only destroyed, so an Index held across a scene change goes stale.
type physics struct {
	bodyPool     *ecs.SlotPool
	bodies       *ecs.PtrComponentStore[body]
	colliderPool *ecs.SlotPool
	colliders    *ecs.PtrComponentStore[collider]
	gravity      ffi.Vec3
	contacts     map[entityPair]bool
}

func newPhysics() *physics {
	return &physics{
		bodyPool:     ecs.NewSlotPool(),
		bodies:       ecs.NewPtrComponentStore[body](),
		colliderPool: ecs.NewSlotPool(),
		colliders:    ecs.NewPtrComponentStore[collider](),
		gravity:      ffi.Vec3{Y: -9.81},
		contacts:     make(map[entityPair]bool),
	}
}

func (p *physics) clear() {
	var bodies, colliders []ecs.Index
	p.bodies.Each(func(i ecs.Index, _ *body) { bodies = append(bodies, i) })
	p.colliders.Each(func(i ecs.Index, _ *collider) { colliders = append(colliders, i) })
	for _, i := range bodies {
		p.bodies.Remove(i)
		p.bodyPool.Destroy(i)
	}
	for _, i := range colliders {
		p.colliders.Remove(i)
		p.colliderPool.Destroy(i)
	}
	p.contacts = make(map[entityPair]bool)
	p.gravity = ffi.Vec3{Y: -9.81}
}

func (p *physics) removeEntity(entity ecs.Index) {
	var bodies, colliders []ecs.Index
	p.bodies.Each(func(i ecs.Index, b *body) {
		if b.entity == entity {
			bodies = append(bodies, i)
		}
	})
	p.colliders.Each(func(i ecs.Index, c *collider) {
		if c.entity == entity {
			colliders = append(colliders, i)
		}
	})
	for _, i := range bodies {
		p.bodies.Remove(i)
		p.bodyPool.Destroy(i)
	}
	for _, i := range colliders {
		p.colliders.Remove(i)
		p.colliderPool.Destroy(i)
	}
	for pair := range p.contacts {
		if pair.a == entity || pair.b == entity {
			delete(p.contacts, pair)
		}
	}
}

func (h *Host) spawnPhysics(entity ecs.Index, spec data.EntitySpec) {
	p := h.physics
	var bodyIdx ecs.Index
	var b *body
	if rb := spec.RigidBody; rb != nil {
		bodyIdx = p.bodyPool.Create()
		b = &body{
			entity:         entity,
			mode:           ffi.RigidBodyMode(data.RigidBodyModeOrdinal(rb.Mode)),
			gravityScale:   1,
			linearDamping:  rb.LinearDamping,
			angularDamping: rb.AngularDamping,
			linearVelocity: vec3From(rb.LinearVelocity),
		}
		if rb.GravityScale != nil {
			b.gravityScale = *rb.GravityScale
		}
		p.bodies.Set(bodyIdx, b)
		idx := bodyIdx
		h.world.bodies.Set(entity, &idx)
	}
	if len(spec.Colliders) == 0 {
		return
	}
	group := make([]ecs.Index, 0, len(spec.Colliders))
	for _, cs := range spec.Colliders {
		cIdx := p.colliderPool.Create()
		c := &collider{
			entity:      entity,
			shape:       shapeFrom(cs),
			density:     1,
			friction:    0.5,
			restitution: cs.Restitution,
			sensor:      cs.Sensor,
			translation: vec3From(cs.Translation),
		}
		if cs.Density != nil {
			c.density = *cs.Density
		}
		if cs.Friction != nil {
			c.friction = *cs.Friction
		}
		if b != nil {
			c.body, c.attached = bodyIdx, true
			b.colliders = append(b.colliders, cIdx)
		}
		p.colliders.Set(cIdx, c)
		group = append(group, cIdx)
	}
	h.world.colliders.Set(entity, &group)
}

func shapeFrom(cs data.ColliderSpec) ffi.NativeColliderShape {
	var s ffi.ColliderShape
	switch cs.Shape {
	case "sphere":
		s = ffi.SphereShape{Radius: cs.Radius}
	case "capsule":
		s = ffi.CapsuleShape{HalfHeight: cs.HalfHeight, Radius: cs.Radius}
	case "cylinder":
		s = ffi.CylinderShape{HalfHeight: cs.HalfHeight, Radius: cs.Radius}
	case "cone":
		s = ffi.ConeShape{HalfHeight: cs.HalfHeight, Radius: cs.Radius}
	default:
		s = ffi.BoxShape{HalfExtents: vec3From(cs.HalfExtents)}
	}
	n, _ := ffi.EncodeColliderShape(s)
	return n
}

// boundingRadius is the radius of a sphere enclosing the shape.
func boundingRadius(n ffi.NativeColliderShape) float64 {
	s, st := ffi.DecodeColliderShape(n)
	if st != ffi.StatusOK {
		return 0
	}
	switch v := s.(type) {
	case ffi.BoxShape:
		return length(v.HalfExtents)
	case ffi.SphereShape:
		return v.Radius
	case ffi.CapsuleShape:
		return v.HalfHeight + v.Radius
	case ffi.CylinderShape:
		return math.Hypot(v.HalfHeight, v.Radius)
	case ffi.ConeShape:
		return math.Hypot(v.HalfHeight, v.Radius)
	}
	return 0
}

func volume(n ffi.NativeColliderShape) float64 {
	s, st := ffi.DecodeColliderShape(n)
	if st != ffi.StatusOK {
		return 0
	}
	switch v := s.(type) {
	case ffi.BoxShape:
		return 8 * v.HalfExtents.X * v.HalfExtents.Y * v.HalfExtents.Z
	case ffi.SphereShape:
		return 4.0 / 3.0 * math.Pi * v.Radius * v.Radius * v.Radius
	case ffi.CapsuleShape:
		r := v.Radius
		return math.Pi*r*r*2*v.HalfHeight + 4.0/3.0*math.Pi*r*r*r
	case ffi.CylinderShape:
		return math.Pi * v.Radius * v.Radius * 2 * v.HalfHeight
	case ffi.ConeShape:
		return math.Pi * v.Radius * v.Radius * 2 * v.HalfHeight / 3
	}
	return 0
}

func (c *collider) massOf() float64 {
	if c.mass > 0 {
		return c.mass
	}
	return c.density * volume(c.shape)
}

func (p *physics) bodyMass(b *body) float64 {
	m := 0.0
	for _, ci := range b.colliders {
		if c, ok := p.colliders.Get(ci); ok {
			m += c.massOf()
		}
	}
	if m <= 0 {
		return 1
	}
	return m
}

func (h *Host) colliderCenter(c *collider) ffi.Vec3 {
	t := h.world.propagate(c.entity)
	return add(t.Position, rotate(t.Rotation, mul(t.Scale, c.translation)))
}

// ── Driver API ─────────────────────────────────────────────────────

// StepPhysics advances every body by dt: pending impulses become velocity,
// dynamic bodies feel gravity and damping, velocity-driven bodies move.
// World transforms of entities with a body are refreshed afterwards.
func (h *Host) StepPhysics(dt time.Duration) {
	p := h.physics
	secs := dt.Seconds()
	p.bodies.Each(func(_ ecs.Index, b *body) {
		switch b.mode {
		case ffi.RigidBodyDynamic:
			invMass := 1 / p.bodyMass(b)
			b.linearVelocity = add(b.linearVelocity, scale(b.impulse, invMass))
			b.angularVelocity = add(b.angularVelocity, scale(b.torque, invMass))
			b.linearVelocity = add(b.linearVelocity, scale(p.gravity, b.gravityScale*secs))
			b.linearVelocity = scale(b.linearVelocity, 1/(1+b.linearDamping*secs))
			b.angularVelocity = scale(b.angularVelocity, 1/(1+b.angularDamping*secs))
		case ffi.RigidBodyKinematicVelocity:
		default:
			b.impulse, b.torque = ffi.Vec3{}, ffi.Vec3{}
			return
		}
		b.impulse, b.torque = ffi.Vec3{}, ffi.Vec3{}
		if t, ok := h.world.transforms.Get(b.entity); ok {
			t.Local.Position = add(t.Local.Position, scale(b.linearVelocity, secs))
		}
		b.sleeping = length(b.linearVelocity) < sleepThreshold && length(b.angularVelocity) < sleepThreshold
	})
	ecs.Each2(h.world.bodies, h.world.transforms, func(idx ecs.Index, _ *ecs.Index, _ *ffi.EntityTransform) {
		h.world.propagate(idx)
	})
}

// ReportContact records a contact change between two colliders and emits a
// Collision event for the script host.
func (h *Host) ReportContact(a, b ecs.Index, kind event.CollisionKind) error {
	ca, cb, err := h.contactPair(a, b)
	if err != nil {
		return err
	}
	pair := pairOf(ca.entity, cb.entity)
	if kind == event.CollisionStarted {
		h.physics.contacts[pair] = true
	} else {
		delete(h.physics.contacts, pair)
	}
	event.Emit(h.bus, event.Collision{
		Kind:   kind,
		A:      ffi.ColliderRef{Entity: entityID(ca.entity), Index: a},
		B:      ffi.ColliderRef{Entity: entityID(cb.entity), Index: b},
		Sensor: ca.sensor || cb.sensor,
	})
	return nil
}

// ReportContactForce emits a CollisionForce event for a contact.
func (h *Host) ReportContactForce(a, b ecs.Index, force ffi.Vec3) error {
	ca, cb, err := h.contactPair(a, b)
	if err != nil {
		return err
	}
	mag := length(force)
	dir, _ := normalize(force)
	event.Emit(h.bus, event.CollisionForce{
		A:              ffi.ColliderRef{Entity: entityID(ca.entity), Index: a},
		B:              ffi.ColliderRef{Entity: entityID(cb.entity), Index: b},
		TotalForce:     force,
		TotalMagnitude: mag,
		MaxDirection:   dir,
		MaxMagnitude:   mag,
	})
	return nil
}

func (h *Host) contactPair(a, b ecs.Index) (*collider, *collider, error) {
	ca, ok := h.physics.colliders.Get(a)
	if !ok {
		return nil, nil, fmt.Errorf("contact: collider %+v: %w", a, ffi.ErrPhysicsObjectNotFound)
	}
	cb, ok := h.physics.colliders.Get(b)
	if !ok {
		return nil, nil, fmt.Errorf("contact: collider %+v: %w", b, ffi.ErrPhysicsObjectNotFound)
	}
	return ca, cb, nil
}

// ColliderIndices returns the collider slots of an entity, for drivers that
// report contacts.
func (h *Host) ColliderIndices(id ffi.EntityID) []ecs.Index {
	idx, st := h.world.resolve(id)
	if st != ffi.StatusOK {
		return nil
	}
	g, ok := h.world.colliders.Get(idx)
	if !ok {
		return nil
	}
	return append([]ecs.Index(nil), (*g)...)
}

// ── Rigid bodies ───────────────────────────────────────────────────

func (h *Host) RigidBodyExists(world ffi.Handle, id ffi.EntityID, out *bool) ffi.Status {
	return h.hasComponent("rigid_body_exists", world, id, out, h.world.bodies.Has)
}

func (h *Host) GetRigidBodyIndex(world, physics ffi.Handle, id ffi.EntityID, out *ffi.Index) ffi.Status {
	const op = "get_rigid_body"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, physics, resPhysics); st != ffi.StatusOK {
		return st
	}
	idx, st := h.entity(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	b, ok := h.world.bodies.Get(idx)
	if !ok {
		return h.fail(op, ffi.StatusNoSuchComponent, "entity %d has no rigid body", id)
	}
	*out = *b
	return ffi.StatusOK
}

func (h *Host) body(op string, physics ffi.Handle, idx ffi.Index) (*body, ffi.Status) {
	if st := h.checkHandle(op, physics, resPhysics); st != ffi.StatusOK {
		return nil, st
	}
	b, ok := h.physics.bodies.Get(idx)
	if !ok {
		return nil, h.fail(op, ffi.StatusPhysicsObjectNotFound, "rigid body %d/%d", idx.Slot, idx.Generation)
	}
	return b, ffi.StatusOK
}

func (h *Host) GetRigidBodyMode(physics ffi.Handle, idx ffi.Index, out *ffi.RigidBodyMode) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	b, st := h.body("get_rigid_body_mode", physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	*out = b.mode
	return ffi.StatusOK
}

func (h *Host) SetRigidBodyMode(physics ffi.Handle, idx ffi.Index, mode ffi.RigidBodyMode) ffi.Status {
	const op = "set_rigid_body_mode"
	b, st := h.body(op, physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	if !mode.Valid() {
		return h.fail(op, ffi.StatusInvalidEnumOrdinal, "rigid body mode %d", mode)
	}
	b.mode = mode
	b.sleeping = false
	return ffi.StatusOK
}

func (b *body) scalar(f ffi.BodyField) *float64 {
	switch f {
	case ffi.BodyGravityScale:
		return &b.gravityScale
	case ffi.BodyLinearDamping:
		return &b.linearDamping
	case ffi.BodyAngularDamping:
		return &b.angularDamping
	}
	return nil
}

func (b *body) vec3(f ffi.BodyField) *ffi.Vec3 {
	switch f {
	case ffi.BodyLinearVelocity:
		return &b.linearVelocity
	case ffi.BodyAngularVelocity:
		return &b.angularVelocity
	}
	return nil
}

func (h *Host) GetRigidBodyScalar(physics ffi.Handle, idx ffi.Index, field ffi.BodyField, out *float64) ffi.Status {
	const op = "get_rigid_body_scalar"
	if out == nil {
		return ffi.StatusNullPointer
	}
	b, st := h.body(op, physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	v := b.scalar(field)
	if v == nil {
		return h.fail(op, ffi.StatusInvalidArgument, "body field %d is not a scalar", field)
	}
	*out = *v
	return ffi.StatusOK
}

func (h *Host) SetRigidBodyScalar(physics ffi.Handle, idx ffi.Index, field ffi.BodyField, value float64) ffi.Status {
	const op = "set_rigid_body_scalar"
	b, st := h.body(op, physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	v := b.scalar(field)
	if v == nil {
		return h.fail(op, ffi.StatusInvalidArgument, "body field %d is not a scalar", field)
	}
	*v = value
	return ffi.StatusOK
}

func (h *Host) GetRigidBodyVec3(physics ffi.Handle, idx ffi.Index, field ffi.BodyField, out *ffi.Vec3) ffi.Status {
	const op = "get_rigid_body_vec3"
	if out == nil {
		return ffi.StatusNullPointer
	}
	b, st := h.body(op, physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	v := b.vec3(field)
	if v == nil {
		return h.fail(op, ffi.StatusInvalidArgument, "body field %d is not a vector", field)
	}
	*out = *v
	return ffi.StatusOK
}

func (h *Host) SetRigidBodyVec3(physics ffi.Handle, idx ffi.Index, field ffi.BodyField, value ffi.Vec3) ffi.Status {
	const op = "set_rigid_body_vec3"
	b, st := h.body(op, physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	v := b.vec3(field)
	if v == nil {
		return h.fail(op, ffi.StatusInvalidArgument, "body field %d is not a vector", field)
	}
	*v = value
	b.sleeping = false
	return ffi.StatusOK
}

func (h *Host) GetRigidBodySleeping(physics ffi.Handle, idx ffi.Index, out *bool) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	b, st := h.body("get_rigid_body_sleeping", physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	*out = b.sleeping
	return ffi.StatusOK
}

// ApplyImpulse queues an impulse for the next step and wakes the body.
// Non-dynamic bodies ignore impulses.
func (h *Host) ApplyImpulse(physics ffi.Handle, idx ffi.Index, impulse ffi.Vec3) ffi.Status {
	b, st := h.body("apply_impulse", physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	if b.mode == ffi.RigidBodyDynamic {
		b.impulse = add(b.impulse, impulse)
		b.sleeping = false
	}
	return ffi.StatusOK
}

func (h *Host) ApplyTorqueImpulse(physics ffi.Handle, idx ffi.Index, torque ffi.Vec3) ffi.Status {
	b, st := h.body("apply_torque_impulse", physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	if b.mode == ffi.RigidBodyDynamic {
		b.torque = add(b.torque, torque)
		b.sleeping = false
	}
	return ffi.StatusOK
}

func (h *Host) colliderRefs(list []ecs.Index) ffi.Array[ffi.ColliderRef] {
	refs := make([]ffi.ColliderRef, 0, len(list))
	for _, ci := range list {
		if c, ok := h.physics.colliders.Get(ci); ok {
			refs = append(refs, ffi.ColliderRef{Entity: entityID(c.entity), Index: ci})
		}
	}
	return allocArray(h.arena, refs)
}

func (h *Host) GetChildColliders(world, physics ffi.Handle, idx ffi.Index, out *ffi.Array[ffi.ColliderRef]) ffi.Status {
	const op = "get_child_colliders"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, world, resWorld); st != ffi.StatusOK {
		return st
	}
	b, st := h.body(op, physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	*out = h.colliderRefs(b.colliders)
	return ffi.StatusOK
}

// ── Colliders ──────────────────────────────────────────────────────

func (h *Host) ColliderGroupExists(world ffi.Handle, id ffi.EntityID, out *bool) ffi.Status {
	return h.hasComponent("collider_group_exists", world, id, out, h.world.colliders.Has)
}

func (h *Host) GetColliderGroupColliders(world, physics ffi.Handle, id ffi.EntityID, out *ffi.Array[ffi.ColliderRef]) ffi.Status {
	const op = "get_collider_group_colliders"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, physics, resPhysics); st != ffi.StatusOK {
		return st
	}
	idx, st := h.entity(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	g, ok := h.world.colliders.Get(idx)
	if !ok {
		return h.fail(op, ffi.StatusNoSuchComponent, "entity %d has no collider group", id)
	}
	*out = h.colliderRefs(*g)
	return ffi.StatusOK
}

func (h *Host) collider(op string, physics ffi.Handle, idx ffi.Index) (*collider, ffi.Status) {
	if st := h.checkHandle(op, physics, resPhysics); st != ffi.StatusOK {
		return nil, st
	}
	c, ok := h.physics.colliders.Get(idx)
	if !ok {
		return nil, h.fail(op, ffi.StatusPhysicsObjectNotFound, "collider %d/%d", idx.Slot, idx.Generation)
	}
	return c, ffi.StatusOK
}

func (h *Host) GetColliderShape(physics ffi.Handle, idx ffi.Index, out *ffi.NativeColliderShape) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	c, st := h.collider("get_collider_shape", physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	*out = c.shape
	return ffi.StatusOK
}

// SetColliderShape validates the discriminant before storing the shape.
func (h *Host) SetColliderShape(physics ffi.Handle, idx ffi.Index, shape ffi.NativeColliderShape) ffi.Status {
	const op = "set_collider_shape"
	c, st := h.collider(op, physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	if _, st := ffi.DecodeColliderShape(shape); st != ffi.StatusOK {
		return h.fail(op, st, "collider shape tag %d", shape.Tag)
	}
	c.shape = shape
	return ffi.StatusOK
}

func (c *collider) scalar(f ffi.ColliderField) *float64 {
	switch f {
	case ffi.ColliderDensity:
		return &c.density
	case ffi.ColliderFriction:
		return &c.friction
	case ffi.ColliderRestitution:
		return &c.restitution
	case ffi.ColliderMass:
		return &c.mass
	}
	return nil
}

func (h *Host) GetColliderScalar(physics ffi.Handle, idx ffi.Index, field ffi.ColliderField, out *float64) ffi.Status {
	const op = "get_collider_scalar"
	if out == nil {
		return ffi.StatusNullPointer
	}
	c, st := h.collider(op, physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	if field == ffi.ColliderMass {
		*out = c.massOf()
		return ffi.StatusOK
	}
	v := c.scalar(field)
	if v == nil {
		return h.fail(op, ffi.StatusInvalidArgument, "collider field %d", field)
	}
	*out = *v
	return ffi.StatusOK
}

func (h *Host) SetColliderScalar(physics ffi.Handle, idx ffi.Index, field ffi.ColliderField, value float64) ffi.Status {
	const op = "set_collider_scalar"
	c, st := h.collider(op, physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	v := c.scalar(field)
	if v == nil {
		return h.fail(op, ffi.StatusInvalidArgument, "collider field %d", field)
	}
	if value < 0 || math.IsNaN(value) {
		return h.fail(op, ffi.StatusInvalidArgument, "collider field %d must be non-negative", field)
	}
	*v = value
	return ffi.StatusOK
}

func (h *Host) GetColliderSensor(physics ffi.Handle, idx ffi.Index, out *bool) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	c, st := h.collider("get_collider_sensor", physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	*out = c.sensor
	return ffi.StatusOK
}

func (h *Host) SetColliderSensor(physics ffi.Handle, idx ffi.Index, sensor bool) ffi.Status {
	c, st := h.collider("set_collider_sensor", physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	c.sensor = sensor
	return ffi.StatusOK
}

func (h *Host) GetColliderTranslation(physics ffi.Handle, idx ffi.Index, out *ffi.Vec3) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	c, st := h.collider("get_collider_translation", physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	*out = c.translation
	return ffi.StatusOK
}

func (h *Host) SetColliderTranslation(physics ffi.Handle, idx ffi.Index, value ffi.Vec3) ffi.Status {
	c, st := h.collider("set_collider_translation", physics, idx)
	if st != ffi.StatusOK {
		return st
	}
	c.translation = value
	return ffi.StatusOK
}

// ── Kinematic controller ───────────────────────────────────────────

func (h *Host) KinematicControllerExists(world ffi.Handle, id ffi.EntityID, out *bool) ffi.Status {
	return h.hasComponent("kinematic_controller_exists", world, id, out, h.world.kccs.Has)
}

// MoveCharacter applies translation to the entity, stopping at the ground
// plane y=0. The outcome is kept for GetMovementResult.
func (h *Host) MoveCharacter(world, physics ffi.Handle, id ffi.EntityID, translation ffi.Vec3, dt float64) ffi.Status {
	const op = "move_character"
	if st := h.checkHandle(op, physics, resPhysics); st != ffi.StatusOK {
		return st
	}
	idx, st := h.entity(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	kcc, ok := h.world.kccs.Get(idx)
	if !ok {
		return h.fail(op, ffi.StatusNoSuchComponent, "entity %d has no kinematic controller", id)
	}
	if dt < 0 || math.IsNaN(dt) || math.IsNaN(dot(translation, translation)) {
		return h.fail(op, ffi.StatusInvalidArgument, "invalid movement")
	}
	t, ok := h.world.transforms.Get(idx)
	if !ok {
		return h.fail(op, ffi.StatusNoSuchComponent, "entity %d has no transform", id)
	}
	before := t.Local.Position
	t.Local.Position = add(t.Local.Position, translation)
	res := ffi.MovementResult{}
	if w := h.world.propagate(idx); w.Position.Y <= 0 {
		t.Local.Position.Y -= w.Position.Y
		h.world.propagate(idx)
		res.Grounded = true
		if translation.Y < 0 || w.Position.Y < 0 {
			res.Collisions = 1
		}
	}
	res.Translation = sub(t.Local.Position, before)
	kcc.last = res
	return ffi.StatusOK
}

func (h *Host) GetMovementResult(world ffi.Handle, id ffi.EntityID, out *ffi.MovementResult) ffi.Status {
	const op = "get_movement_result"
	if out == nil {
		return ffi.StatusNullPointer
	}
	idx, st := h.entity(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	kcc, ok := h.world.kccs.Get(idx)
	if !ok {
		return h.fail(op, ffi.StatusNoSuchComponent, "entity %d has no kinematic controller", id)
	}
	*out = kcc.last
	return ffi.StatusOK
}

// ── Queries ────────────────────────────────────────────────────────

func (h *Host) GetGravity(physics ffi.Handle, out *ffi.Vec3) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle("get_gravity", physics, resPhysics); st != ffi.StatusOK {
		return st
	}
	*out = h.physics.gravity
	return ffi.StatusOK
}

func (h *Host) SetGravity(physics ffi.Handle, gravity ffi.Vec3) ffi.Status {
	if st := h.checkHandle("set_gravity", physics, resPhysics); st != ffi.StatusOK {
		return st
	}
	h.physics.gravity = gravity
	return ffi.StatusOK
}

// sortedColliders returns live non-sensor colliders in slot order.
func (h *Host) sortedColliders() []ecs.Index {
	var out []ecs.Index
	h.physics.colliders.Each(func(i ecs.Index, c *collider) {
		if !c.sensor {
			out = append(out, i)
		}
	})
	sort.Slice(out, func(a, b int) bool { return out[a].Slot < out[b].Slot })
	return out
}

// raySphere returns the distance along unit dir to a sphere, or false on a
// miss. An origin inside the sphere hits at 0 when solid, otherwise at the
// exit point.
func raySphere(origin, dir, center ffi.Vec3, radius float64, solid bool) (float64, bool) {
	m := sub(origin, center)
	b := dot(m, dir)
	c := dot(m, m) - radius*radius
	if c > 0 && b > 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	root := math.Sqrt(disc)
	t := -b - root
	if t < 0 {
		if solid {
			return 0, true
		}
		t = -b + root
	}
	return t, true
}

// Raycast tests colliders by their bounding spheres and reports the nearest.
func (h *Host) Raycast(physics ffi.Handle, origin, direction ffi.Vec3, maxDistance float64, solid bool, out *ffi.RayHit) ffi.Status {
	const op = "raycast"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, physics, resPhysics); st != ffi.StatusOK {
		return st
	}
	dir, ok := normalize(direction)
	if !ok || maxDistance < 0 {
		return h.fail(op, ffi.StatusInvalidArgument, "zero direction or negative distance")
	}
	*out = ffi.RayHit{Collider: ffi.ColliderRef{Entity: ffi.AbsentEntity}}
	best := math.Inf(1)
	for _, ci := range h.sortedColliders() {
		c, _ := h.physics.colliders.Get(ci)
		t, hit := raySphere(origin, dir, h.colliderCenter(c), boundingRadius(c.shape), solid)
		if hit && t <= maxDistance && t < best {
			best = t
			*out = ffi.RayHit{Collider: ffi.ColliderRef{Entity: entityID(c.entity), Index: ci}, Distance: t}
		}
	}
	return ffi.StatusOK
}

// ShapeCast sweeps the bounding sphere of shape along direction.
func (h *Host) ShapeCast(physics ffi.Handle, origin, direction ffi.Vec3, shape ffi.NativeColliderShape, maxDistance float64, out *ffi.NativeShapeCastHit) ffi.Status {
	const op = "shape_cast"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, physics, resPhysics); st != ffi.StatusOK {
		return st
	}
	if _, st := ffi.DecodeColliderShape(shape); st != ffi.StatusOK {
		return h.fail(op, st, "shape tag %d", shape.Tag)
	}
	dir, ok := normalize(direction)
	if !ok || maxDistance < 0 {
		return h.fail(op, ffi.StatusInvalidArgument, "zero direction or negative distance")
	}
	castRadius := boundingRadius(shape)
	*out = ffi.NativeShapeCastHit{Collider: ffi.ColliderRef{Entity: ffi.AbsentEntity}}
	best := math.Inf(1)
	for _, ci := range h.sortedColliders() {
		c, _ := h.physics.colliders.Get(ci)
		center := h.colliderCenter(c)
		r := boundingRadius(c.shape)
		t, hit := raySphere(origin, dir, center, r+castRadius, true)
		if !hit || t > maxDistance || t >= best {
			continue
		}
		best = t
		at := add(origin, scale(dir, t))
		n, ok := normalize(sub(center, at))
		if !ok {
			n = dir
		}
		status := ffi.ShapeCastConverged
		if t == 0 {
			status = ffi.ShapeCastPenetratingOrWithinTargetDist
		}
		*out = ffi.NativeShapeCastHit{
			Collider: ffi.ColliderRef{Entity: entityID(c.entity), Index: ci},
			Distance: t,
			Witness1: add(at, scale(n, castRadius)),
			Witness2: sub(center, scale(n, r)),
			Normal1:  n,
			Normal2:  scale(n, -1),
			Status:   ffi.EncodeShapeCastStatus(status),
		}
	}
	return ffi.StatusOK
}

func (h *Host) IsTouching(physics ffi.Handle, a, b ffi.EntityID, out *bool) ffi.Status {
	const op = "is_touching"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, physics, resPhysics); st != ffi.StatusOK {
		return st
	}
	ia, st := h.world.resolve(a)
	if st != ffi.StatusOK {
		return h.fail(op, st, "entity %d", a)
	}
	ib, st := h.world.resolve(b)
	if st != ffi.StatusOK {
		return h.fail(op, st, "entity %d", b)
	}
	*out = h.physics.contacts[pairOf(ia, ib)]
	return ffi.StatusOK
}
