package ffi

import "github.com/dropbear/bridge/internal/core/ecs"

// Handle is an opaque reference to a host-owned resource. Zero is null.
type Handle uint64

// NullHandle is the zero handle.
const NullHandle Handle = 0

// EntityID is the boundary form of an entity. It is a bare slot number: the
// host recycles ids, so an id must be re-validated with an existence query
// before it is trusted across frames.
type EntityID int64

// AbsentEntity is written to an entity out-parameter when the value is
// legitimately missing. It is not an error.
const AbsentEntity EntityID = -1

// Present reports whether id names an entity rather than the absent sentinel.
func (id EntityID) Present() bool { return id != AbsentEntity }

// Index is the generation-checked physics slot reference.
type Index = ecs.Index

type Vec2 struct {
	X, Y float64
}

type Vec3 struct {
	X, Y, Z float64
}

type Quat struct {
	X, Y, Z, W float64
}

// Transform is a position, rotation and scale.
type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// IdentityTransform returns a transform with unit scale and no rotation.
func IdentityTransform() Transform {
	return Transform{Rotation: Quat{W: 1}, Scale: Vec3{1, 1, 1}}
}

// EntityTransform pairs the local and world transforms of an entity.
type EntityTransform struct {
	Local Transform
	World Transform
}

// CameraField selects a camera property for the generic camera accessors.
type CameraField uint32

const (
	CameraEye CameraField = iota
	CameraTarget
	CameraUp
	CameraFovY
	CameraZNear
	CameraZFar
	CameraYaw
	CameraPitch
	CameraSpeed
	CameraSensitivity
	CameraAspect
)

// IsVector reports whether the field holds a Vec3.
func (f CameraField) IsVector() bool {
	return f == CameraEye || f == CameraTarget || f == CameraUp
}

// RigidBodyMode mirrors the host's body types.
type RigidBodyMode uint32

const (
	RigidBodyDynamic RigidBodyMode = iota
	RigidBodyFixed
	RigidBodyKinematicPosition
	RigidBodyKinematicVelocity
)

func (m RigidBodyMode) Valid() bool { return m <= RigidBodyKinematicVelocity }

// BodyField selects a rigid body property.
type BodyField uint32

const (
	BodyGravityScale BodyField = iota
	BodyLinearDamping
	BodyAngularDamping
	BodyLinearVelocity
	BodyAngularVelocity
)

func (f BodyField) IsVector() bool {
	return f == BodyLinearVelocity || f == BodyAngularVelocity
}

// ColliderField selects a scalar collider property.
type ColliderField uint32

const (
	ColliderDensity ColliderField = iota
	ColliderFriction
	ColliderRestitution
	ColliderMass
)

// ColliderRef addresses one collider: the owning entity plus its slot.
type ColliderRef struct {
	Entity EntityID
	Index  Index
}

// RayHit is the result of a raycast. Collider.Entity is AbsentEntity on a miss.
type RayHit struct {
	Collider ColliderRef
	Distance float64
}

// NativeShapeCastHit is the boundary form of a shape cast result.
type NativeShapeCastHit struct {
	Collider ColliderRef
	Distance float64
	Witness1 Vec3
	Witness2 Vec3
	Normal1  Vec3
	Normal2  Vec3
	Status   NativeShapeCastStatus
}

// MovementResult reports the last kinematic controller move.
type MovementResult struct {
	Translation Vec3
	Grounded    bool
	Collisions  int32
}

// SceneLoadStatus is the poll result of an asynchronous scene load.
type SceneLoadStatus uint32

const (
	ScenePending SceneLoadStatus = iota
	SceneReady
	SceneFailed
)

func (s SceneLoadStatus) String() string {
	switch s {
	case ScenePending:
		return "PENDING"
	case SceneReady:
		return "READY"
	case SceneFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// NativeSceneLoadHandle is written by LoadSceneAsync. Name is a scratch view.
type NativeSceneLoadHandle struct {
	ID   int64
	Name Bytes
}

// NativeProgress is written by GetSceneLoadProgress. Message is a scratch view.
type NativeProgress struct {
	Current uint64
	Total   uint64
	Message Bytes
}

// NativeAnimationChannel describes one animation channel of a model.
type NativeAnimationChannel struct {
	TargetNode    int32
	Times         Array[float64]
	Values        NativeChannelValues
	Interpolation NativeInterpolation
}

// Key codes understood by IsKeyPressed. The host owns the full table.
type KeyCode int32
