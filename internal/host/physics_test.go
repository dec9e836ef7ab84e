package host

import (
	"testing"
	"time"

	"github.com/dropbear/bridge/internal/core/event"
	"github.com/dropbear/bridge/internal/ffi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhysics_StaleIndexAfterSceneChange(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")

	var body ffi.Index
	require.Equal(t, ffi.StatusOK, h.GetRigidBodyIndex(p.World, p.Physics, player, &body))
	var mode ffi.RigidBodyMode
	require.Equal(t, ffi.StatusOK, h.GetRigidBodyMode(p.Physics, body, &mode))
	assert.Equal(t, ffi.RigidBodyDynamic, mode)

	scene, err := h.LoadScene("level1")
	require.NoError(t, err)
	require.NoError(t, h.ApplyScene(scene))

	var fresh ffi.Index
	player = mustEntity(t, h, p, "player")
	require.Equal(t, ffi.StatusOK, h.GetRigidBodyIndex(p.World, p.Physics, player, &fresh))
	assert.Equal(t, body.Slot, fresh.Slot, "slot is recycled")
	assert.False(t, body.Equal(fresh))
	assert.Equal(t, ffi.StatusPhysicsObjectNotFound, h.GetRigidBodyMode(p.Physics, body, &mode))
}

func TestPhysics_BodyAccessors(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")
	var body ffi.Index
	require.Equal(t, ffi.StatusOK, h.GetRigidBodyIndex(p.World, p.Physics, player, &body))

	require.Equal(t, ffi.StatusOK, h.SetRigidBodyScalar(p.Physics, body, ffi.BodyGravityScale, 2))
	var gs float64
	require.Equal(t, ffi.StatusOK, h.GetRigidBodyScalar(p.Physics, body, ffi.BodyGravityScale, &gs))
	assert.Equal(t, 2.0, gs)
	assert.Equal(t, ffi.StatusInvalidArgument, h.GetRigidBodyScalar(p.Physics, body, ffi.BodyLinearVelocity, &gs))
	assert.Equal(t, ffi.StatusInvalidEnumOrdinal, h.SetRigidBodyMode(p.Physics, body, ffi.RigidBodyMode(9)))

	cam := mustEntity(t, h, p, "camera")
	assert.Equal(t, ffi.StatusNoSuchComponent, h.GetRigidBodyIndex(p.World, p.Physics, cam, &body))
}

func TestPhysics_ImpulseMovesDynamicBody(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")
	var body ffi.Index
	require.Equal(t, ffi.StatusOK, h.GetRigidBodyIndex(p.World, p.Physics, player, &body))

	var mass float64
	var colliders ffi.Array[ffi.ColliderRef]
	require.Equal(t, ffi.StatusOK, h.GetChildColliders(p.World, p.Physics, body, &colliders))
	refs, err := ffi.TakeArray[ffi.ColliderRef](h, "child_colliders", colliders)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, player, refs[0].Entity)
	require.Equal(t, ffi.StatusOK, h.GetColliderScalar(p.Physics, refs[0].Index, ffi.ColliderMass, &mass))
	require.Greater(t, mass, 0.0)

	require.Equal(t, ffi.StatusOK, h.ApplyImpulse(p.Physics, body, ffi.Vec3{X: mass}))
	h.StepPhysics(time.Second)

	var vel ffi.Vec3
	require.Equal(t, ffi.StatusOK, h.GetRigidBodyVec3(p.Physics, body, ffi.BodyLinearVelocity, &vel))
	assert.InDelta(t, 1.0, vel.X, 1e-9)

	var tr ffi.EntityTransform
	require.Equal(t, ffi.StatusOK, h.GetTransform(p.World, player, &tr))
	assert.InDelta(t, 2.0, tr.Local.Position.X, 1e-9)
	assert.InDelta(t, 2.0, tr.World.Position.X, 1e-9, "world transform follows the body")

	var sleeping bool
	require.Equal(t, ffi.StatusOK, h.GetRigidBodySleeping(p.Physics, body, &sleeping))
	assert.False(t, sleeping)
}

func TestPhysics_ColliderAccessors(t *testing.T) {
	h, p := newTestHost(t, Options{})
	wall := mustEntity(t, h, p, "wall")

	var group ffi.Array[ffi.ColliderRef]
	require.Equal(t, ffi.StatusOK, h.GetColliderGroupColliders(p.World, p.Physics, wall, &group))
	refs, err := ffi.TakeArray[ffi.ColliderRef](h, "collider_group", group)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	idx := refs[0].Index

	var native ffi.NativeColliderShape
	require.Equal(t, ffi.StatusOK, h.GetColliderShape(p.Physics, idx, &native))
	shape, st := ffi.DecodeColliderShape(native)
	require.Equal(t, ffi.StatusOK, st)
	assert.Equal(t, ffi.BoxShape{HalfExtents: ffi.Vec3{X: 1, Y: 1, Z: 1}}, shape)

	cone, _ := ffi.EncodeColliderShape(ffi.ConeShape{HalfHeight: 1, Radius: 0.5})
	require.Equal(t, ffi.StatusOK, h.SetColliderShape(p.Physics, idx, cone))
	assert.Equal(t, ffi.StatusInvalidEnumOrdinal, h.SetColliderShape(p.Physics, idx, ffi.NativeColliderShape{Tag: 77}))

	require.Equal(t, ffi.StatusOK, h.SetColliderScalar(p.Physics, idx, ffi.ColliderFriction, 0.9))
	var friction float64
	require.Equal(t, ffi.StatusOK, h.GetColliderScalar(p.Physics, idx, ffi.ColliderFriction, &friction))
	assert.Equal(t, 0.9, friction)
	assert.Equal(t, ffi.StatusInvalidArgument, h.SetColliderScalar(p.Physics, idx, ffi.ColliderDensity, -1))

	require.Equal(t, ffi.StatusOK, h.SetColliderSensor(p.Physics, idx, true))
	var sensor bool
	require.Equal(t, ffi.StatusOK, h.GetColliderSensor(p.Physics, idx, &sensor))
	assert.True(t, sensor)

	require.Equal(t, ffi.StatusOK, h.SetColliderTranslation(p.Physics, idx, ffi.Vec3{Y: 1}))
	var tr ffi.Vec3
	require.Equal(t, ffi.StatusOK, h.GetColliderTranslation(p.Physics, idx, &tr))
	assert.Equal(t, ffi.Vec3{Y: 1}, tr)
}

func TestPhysics_Raycast(t *testing.T) {
	h, p := newTestHost(t, Options{})
	wall := mustEntity(t, h, p, "wall")

	var hit ffi.RayHit
	require.Equal(t, ffi.StatusOK, h.Raycast(p.Physics, ffi.Vec3{X: 5}, ffi.Vec3{X: 1}, 100, true, &hit))
	assert.Equal(t, wall, hit.Collider.Entity)
	assert.Greater(t, hit.Distance, 0.0)

	require.Equal(t, ffi.StatusOK, h.Raycast(p.Physics, ffi.Vec3{X: 5}, ffi.Vec3{Y: 1}, 100, true, &hit))
	assert.Equal(t, ffi.AbsentEntity, hit.Collider.Entity, "a miss is absent, not a failure")

	// The sensor at x=20 is skipped, so nothing lies beyond the wall.
	require.Equal(t, ffi.StatusOK, h.Raycast(p.Physics, ffi.Vec3{X: 15}, ffi.Vec3{X: 1}, 100, true, &hit))
	assert.Equal(t, ffi.AbsentEntity, hit.Collider.Entity)

	assert.Equal(t, ffi.StatusInvalidArgument, h.Raycast(p.Physics, ffi.Vec3{}, ffi.Vec3{}, 1, true, &hit))
}

func TestPhysics_ShapeCast(t *testing.T) {
	h, p := newTestHost(t, Options{})
	wall := mustEntity(t, h, p, "wall")
	sphere, _ := ffi.EncodeColliderShape(ffi.SphereShape{Radius: 0.5})

	var hit ffi.NativeShapeCastHit
	require.Equal(t, ffi.StatusOK, h.ShapeCast(p.Physics, ffi.Vec3{X: 5}, ffi.Vec3{X: 1}, sphere, 100, &hit))
	assert.Equal(t, wall, hit.Collider.Entity)
	status, st := ffi.DecodeShapeCastStatus(hit.Status)
	require.Equal(t, ffi.StatusOK, st)
	assert.Equal(t, ffi.ShapeCastConverged, status)
	assert.Equal(t, ffi.Vec3{X: 1}, hit.Normal1)

	require.Equal(t, ffi.StatusOK, h.ShapeCast(p.Physics, ffi.Vec3{X: 10}, ffi.Vec3{X: 1}, sphere, 100, &hit))
	status, _ = ffi.DecodeShapeCastStatus(hit.Status)
	assert.Equal(t, ffi.ShapeCastPenetratingOrWithinTargetDist, status)

	assert.Equal(t, ffi.StatusInvalidEnumOrdinal, h.ShapeCast(p.Physics, ffi.Vec3{}, ffi.Vec3{X: 1}, ffi.NativeColliderShape{Tag: 8}, 1, &hit))
}

func TestPhysics_ContactsAndEvents(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")
	wall := mustEntity(t, h, p, "wall")
	pc := h.ColliderIndices(player)
	wc := h.ColliderIndices(wall)
	require.Len(t, pc, 1)
	require.Len(t, wc, 1)

	var got []event.Collision
	event.Subscribe(h.Bus(), func(c event.Collision) { got = append(got, c) })
	var forces []event.CollisionForce
	event.Subscribe(h.Bus(), func(f event.CollisionForce) { forces = append(forces, f) })

	require.NoError(t, h.ReportContact(pc[0], wc[0], event.CollisionStarted))
	require.NoError(t, h.ReportContactForce(pc[0], wc[0], ffi.Vec3{X: 3, Y: 4}))

	var touching bool
	require.Equal(t, ffi.StatusOK, h.IsTouching(p.Physics, wall, player, &touching))
	assert.True(t, touching)

	h.Bus().SwapBuffers()
	h.Bus().DispatchAll()
	require.Len(t, got, 1)
	assert.Equal(t, player, got[0].A.Entity)
	assert.Equal(t, wall, got[0].B.Entity)
	require.Len(t, forces, 1)
	assert.InDelta(t, 5.0, forces[0].TotalMagnitude, 1e-9)

	require.NoError(t, h.ReportContact(pc[0], wc[0], event.CollisionStopped))
	require.Equal(t, ffi.StatusOK, h.IsTouching(p.Physics, player, wall, &touching))
	assert.False(t, touching)

	assert.ErrorIs(t, h.ReportContact(ffi.Index{Slot: 99}, wc[0], event.CollisionStarted), ffi.ErrPhysicsObjectNotFound)
}

func TestPhysics_KinematicController(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")

	require.Equal(t, ffi.StatusOK, h.MoveCharacter(p.World, p.Physics, player, ffi.Vec3{X: 1}, 0.016))
	var res ffi.MovementResult
	require.Equal(t, ffi.StatusOK, h.GetMovementResult(p.World, player, &res))
	assert.Equal(t, ffi.Vec3{X: 1}, res.Translation)
	assert.False(t, res.Grounded)

	require.Equal(t, ffi.StatusOK, h.MoveCharacter(p.World, p.Physics, player, ffi.Vec3{Y: -5}, 0.016))
	require.Equal(t, ffi.StatusOK, h.GetMovementResult(p.World, player, &res))
	assert.True(t, res.Grounded)
	assert.Equal(t, int32(1), res.Collisions)
	assert.InDelta(t, -2.0, res.Translation.Y, 1e-9, "movement stops at the ground plane")

	wall := mustEntity(t, h, p, "wall")
	assert.Equal(t, ffi.StatusNoSuchComponent, h.MoveCharacter(p.World, p.Physics, wall, ffi.Vec3{X: 1}, 0.016))
}

func TestPhysics_Gravity(t *testing.T) {
	h, p := newTestHost(t, Options{})
	require.Equal(t, ffi.StatusOK, h.SetGravity(p.Physics, ffi.Vec3{Y: -1.62}))
	var g ffi.Vec3
	require.Equal(t, ffi.StatusOK, h.GetGravity(p.Physics, &g))
	assert.Equal(t, ffi.Vec3{Y: -1.62}, g)
	assert.Equal(t, ffi.StatusInvalidHandle, h.GetGravity(p.World, &g))
}
