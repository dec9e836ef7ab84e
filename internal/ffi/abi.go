package ffi

// ABI is the full set of boundary exports. Every method returns a Status and
// writes results through its out-parameters; out-parameters are untouched on
// failure unless documented otherwise.
type ABI interface {
	// LastError copies the detail message of the most recent failed call
	// into buf (caller-owned).
	LastError(buf *FixedBuffer) Status

	// FreeArray releases a callee-allocated array. Each id must be freed
	// exactly once; a repeated free returns StatusDoubleFree.
	FreeArray(id BufferID) Status

	// ViewFloat64Array exposes a callee-allocated float array referenced from
	// a variant payload. The view must be copied before FreeArray.
	ViewFloat64Array(id BufferID, out *Array[float64]) Status

	WorldABI
	PropertyABI
	ComponentABI
	PhysicsABI
	SceneABI
	InputABI
	AssetABI
	CommandABI
}

// WorldABI covers entity lookup and hierarchy.
type WorldABI interface {
	// GetEntity writes the entity carrying label, or AbsentEntity if none.
	GetEntity(world Handle, label Bytes, out *EntityID) Status
	// EntityExists is the round-trip existence query for a recycled id.
	EntityExists(world Handle, id EntityID, out *bool) Status
	// GetEntityLabel fills a caller-owned buffer; StatusBufferTooSmall
	// reports the required length in buf.N.
	GetEntityLabel(world Handle, id EntityID, buf *FixedBuffer) Status
	// GetParent writes AbsentEntity for a root entity.
	GetParent(world Handle, id EntityID, out *EntityID) Status
	// GetChildren writes a callee-allocated array; an entity without
	// children yields an empty Array with no allocation.
	GetChildren(world Handle, id EntityID, out *Array[EntityID]) Status
	// GetChildByLabel writes AbsentEntity when no direct child matches.
	GetChildByLabel(world Handle, id EntityID, label Bytes, out *EntityID) Status
}

// PropertyABI covers the custom property bag. A missing label writes
// found=false with StatusOK; a label holding another kind returns
// StatusInvalidArgument.
type PropertyABI interface {
	PropertiesExist(world Handle, id EntityID, out *bool) Status

	// GetStringProperty writes a scratch view; copy it before the next call.
	GetStringProperty(world Handle, id EntityID, label Bytes, out *Bytes, found *bool) Status
	GetIntProperty(world Handle, id EntityID, label Bytes, out *int32, found *bool) Status
	GetLongProperty(world Handle, id EntityID, label Bytes, out *int64, found *bool) Status
	GetDoubleProperty(world Handle, id EntityID, label Bytes, out *float64, found *bool) Status
	GetFloatProperty(world Handle, id EntityID, label Bytes, out *float32, found *bool) Status
	GetBoolProperty(world Handle, id EntityID, label Bytes, out *bool, found *bool) Status
	GetVec3Property(world Handle, id EntityID, label Bytes, out *Vec3, found *bool) Status

	SetStringProperty(world Handle, id EntityID, label Bytes, value Bytes) Status
	SetIntProperty(world Handle, id EntityID, label Bytes, value int32) Status
	SetLongProperty(world Handle, id EntityID, label Bytes, value int64) Status
	SetDoubleProperty(world Handle, id EntityID, label Bytes, value float64) Status
	SetFloatProperty(world Handle, id EntityID, label Bytes, value float32) Status
	SetBoolProperty(world Handle, id EntityID, label Bytes, value bool) Status
	SetVec3Property(world Handle, id EntityID, label Bytes, value Vec3) Status
}

// ComponentABI covers the singleton-per-entity components. Accessors on an
// entity lacking the component return StatusNoSuchComponent.
type ComponentABI interface {
	TransformExists(world Handle, id EntityID, out *bool) Status
	GetTransform(world Handle, id EntityID, out *EntityTransform) Status
	SetTransform(world Handle, id EntityID, t EntityTransform) Status
	// PropagateTransform recomputes the world transform from the parent chain.
	PropagateTransform(world Handle, id EntityID, out *Transform) Status

	CameraExists(world Handle, id EntityID, out *bool) Status
	GetCameraVec3(world Handle, id EntityID, field CameraField, out *Vec3) Status
	SetCameraVec3(world Handle, id EntityID, field CameraField, value Vec3) Status
	GetCameraScalar(world Handle, id EntityID, field CameraField, out *float64) Status
	// SetCameraScalar rejects CameraAspect, which is derived from the window.
	SetCameraScalar(world Handle, id EntityID, field CameraField, value float64) Status

	MeshRendererExists(world Handle, id EntityID, out *bool) Status
	GetModel(world Handle, id EntityID, out *Handle) Status
	SetModel(world Handle, assets Handle, id EntityID, model Handle) Status
	// GetTexture writes NullHandle when the material has no texture.
	GetTexture(world Handle, id EntityID, material Bytes, out *Handle) Status
	SetTextureOverride(world Handle, assets Handle, id EntityID, material Bytes, texture Handle) Status
	GetTextureIDs(world Handle, id EntityID, out *Array[Handle]) Status
}

// PhysicsABI covers rigid bodies, colliders, kinematic controllers and queries.
// Stale or unknown indices return StatusPhysicsObjectNotFound.
type PhysicsABI interface {
	RigidBodyExists(world Handle, id EntityID, out *bool) Status
	GetRigidBodyIndex(world Handle, physics Handle, id EntityID, out *Index) Status
	GetRigidBodyMode(physics Handle, body Index, out *RigidBodyMode) Status
	SetRigidBodyMode(physics Handle, body Index, mode RigidBodyMode) Status
	GetRigidBodyScalar(physics Handle, body Index, field BodyField, out *float64) Status
	SetRigidBodyScalar(physics Handle, body Index, field BodyField, value float64) Status
	GetRigidBodyVec3(physics Handle, body Index, field BodyField, out *Vec3) Status
	SetRigidBodyVec3(physics Handle, body Index, field BodyField, value Vec3) Status
	GetRigidBodySleeping(physics Handle, body Index, out *bool) Status
	ApplyImpulse(physics Handle, body Index, impulse Vec3) Status
	ApplyTorqueImpulse(physics Handle, body Index, torque Vec3) Status
	GetChildColliders(world Handle, physics Handle, body Index, out *Array[ColliderRef]) Status

	ColliderGroupExists(world Handle, id EntityID, out *bool) Status
	GetColliderGroupColliders(world Handle, physics Handle, id EntityID, out *Array[ColliderRef]) Status
	GetColliderShape(physics Handle, collider Index, out *NativeColliderShape) Status
	SetColliderShape(physics Handle, collider Index, shape NativeColliderShape) Status
	GetColliderScalar(physics Handle, collider Index, field ColliderField, out *float64) Status
	SetColliderScalar(physics Handle, collider Index, field ColliderField, value float64) Status
	GetColliderSensor(physics Handle, collider Index, out *bool) Status
	SetColliderSensor(physics Handle, collider Index, sensor bool) Status
	GetColliderTranslation(physics Handle, collider Index, out *Vec3) Status
	SetColliderTranslation(physics Handle, collider Index, value Vec3) Status

	KinematicControllerExists(world Handle, id EntityID, out *bool) Status
	MoveCharacter(world Handle, physics Handle, id EntityID, translation Vec3, dt float64) Status
	GetMovementResult(world Handle, id EntityID, out *MovementResult) Status

	GetGravity(physics Handle, out *Vec3) Status
	SetGravity(physics Handle, gravity Vec3) Status
	// Raycast writes AbsentEntity into out.Collider.Entity on a miss.
	Raycast(physics Handle, origin, direction Vec3, maxDistance float64, solid bool, out *RayHit) Status
	// ShapeCast writes AbsentEntity into out.Collider.Entity on a miss.
	ShapeCast(physics Handle, origin, direction Vec3, shape NativeColliderShape, maxDistance float64, out *NativeShapeCastHit) Status
	IsTouching(physics Handle, a, b EntityID, out *bool) Status
}

// SceneABI is the asynchronous scene load protocol.
type SceneABI interface {
	// LoadSceneAsync registers a load and returns immediately. loading may be
	// empty. A pending load of the same scene is returned instead of a new one.
	LoadSceneAsync(commands Handle, loader Handle, name Bytes, loading Bytes, out *NativeSceneLoadHandle) Status
	GetSceneLoadStatus(loader Handle, id int64, out *SceneLoadStatus) Status
	GetSceneLoadProgress(loader Handle, id int64, out *NativeProgress) Status
	// SwitchToSceneAsync returns StatusPrematureSceneSwitch while the load is
	// still pending.
	SwitchToSceneAsync(commands Handle, loader Handle, id int64) Status
	// SwitchToSceneImmediate loads and switches synchronously, blocking the
	// caller until the scene is in place.
	SwitchToSceneImmediate(commands Handle, loader Handle, name Bytes) Status
}

type InputABI interface {
	IsKeyPressed(input Handle, key KeyCode, out *bool) Status
	GetMousePosition(input Handle, out *Vec2) Status
	// Gamepad queries return StatusGamepadNotFound for a pad that is not
	// connected.
	GetConnectedGamepads(input Handle, out *Array[GamepadID]) Status
	IsGamepadButtonPressed(input Handle, pad GamepadID, button GamepadButton, out *bool) Status
	GetGamepadStick(input Handle, pad GamepadID, stick GamepadStick, out *Vec2) Status
}

type AssetABI interface {
	// GetAsset writes NullHandle when no asset carries the name.
	GetAsset(assets Handle, name Bytes, out *Handle) Status
	// GetAnimationChannels writes a callee-allocated array. Each channel's
	// Times array and Values payload reference further allocations that must
	// be freed individually.
	GetAnimationChannels(assets Handle, model Handle, out *Array[NativeAnimationChannel]) Status
}

type CommandABI interface {
	Quit(commands Handle) Status
}
