package event

import "github.com/dropbear/bridge/internal/ffi"

// CollisionKind distinguishes contact start from contact end.
type CollisionKind int

const (
	CollisionStarted CollisionKind = iota
	CollisionStopped
)

func (k CollisionKind) String() string {
	if k == CollisionStopped {
		return "stopped"
	}
	return "started"
}

// Collision is emitted by the physics step when two colliders begin or stop
// touching. Sensor is set when either collider is a sensor.
type Collision struct {
	Kind   CollisionKind
	A, B   ffi.ColliderRef
	Sensor bool
}

// CollisionForce is emitted for contacts whose force exceeds the reporting
// threshold of either body.
type CollisionForce struct {
	A, B           ffi.ColliderRef
	TotalForce     ffi.Vec3
	TotalMagnitude float64
	MaxDirection   ffi.Vec3
	MaxMagnitude   float64
}

// SceneSwitched is emitted once the frame loop has replaced the active scene.
type SceneSwitched struct {
	From, To string
}
