package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SceneManifest describes one scene: the script tags it activates and the
// entities it spawns.
type SceneManifest struct {
	Name     string       `yaml:"name"`
	Tags     []string     `yaml:"tags"`
	Gravity  *[3]float64  `yaml:"gravity"`
	Entities []EntitySpec `yaml:"entities"`
}

// EntitySpec is one entity of a scene. Parent names another entity's label.
type EntitySpec struct {
	Label      string                  `yaml:"label"`
	Parent     string                  `yaml:"parent"`
	Tags       []string                `yaml:"tags"` // per-entity script tags
	Transform  *TransformSpec          `yaml:"transform"`
	Properties map[string]PropertySpec `yaml:"properties"`
	Camera     *CameraSpec             `yaml:"camera"`
	Mesh       *MeshSpec               `yaml:"mesh"`
	RigidBody  *RigidBodySpec          `yaml:"rigid_body"`
	Colliders  []ColliderSpec          `yaml:"colliders"`
	Kinematic  bool                    `yaml:"kinematic_controller"`
}

type TransformSpec struct {
	Position [3]float64  `yaml:"position"`
	Rotation *[4]float64 `yaml:"rotation"` // x, y, z, w; identity when omitted
	Scale    *[3]float64 `yaml:"scale"`    // unit when omitted
}

// PropertySpec is a typed custom property. Exactly one field must be set.
type PropertySpec struct {
	String *string     `yaml:"string"`
	Int    *int32      `yaml:"int"`
	Long   *int64      `yaml:"long"`
	Double *float64    `yaml:"double"`
	Float  *float32    `yaml:"float"`
	Bool   *bool       `yaml:"bool"`
	Vec3   *[3]float64 `yaml:"vec3"`
}

func (p PropertySpec) count() int {
	n := 0
	for _, set := range []bool{p.String != nil, p.Int != nil, p.Long != nil, p.Double != nil, p.Float != nil, p.Bool != nil, p.Vec3 != nil} {
		if set {
			n++
		}
	}
	return n
}

type CameraSpec struct {
	Eye         [3]float64 `yaml:"eye"`
	Target      [3]float64 `yaml:"target"`
	Up          [3]float64 `yaml:"up"`
	FovY        float64    `yaml:"fov_y"`
	ZNear       float64    `yaml:"z_near"`
	ZFar        float64    `yaml:"z_far"`
	Yaw         float64    `yaml:"yaw"`
	Pitch       float64    `yaml:"pitch"`
	Speed       float64    `yaml:"speed"`
	Sensitivity float64    `yaml:"sensitivity"`
	Aspect      float64    `yaml:"aspect"`
}

// MeshSpec references assets by name. Textures maps material to texture.
type MeshSpec struct {
	Model    string            `yaml:"model"`
	Textures map[string]string `yaml:"textures"`
}

type RigidBodySpec struct {
	Mode           string     `yaml:"mode"` // dynamic, fixed, kinematic_position, kinematic_velocity
	GravityScale   *float64   `yaml:"gravity_scale"`
	LinearDamping  float64    `yaml:"linear_damping"`
	AngularDamping float64    `yaml:"angular_damping"`
	LinearVelocity [3]float64 `yaml:"linear_velocity"`
}

// ColliderSpec describes one collider. Shape selects which size fields apply.
type ColliderSpec struct {
	Shape       string     `yaml:"shape"` // box, sphere, capsule, cylinder, cone
	HalfExtents [3]float64 `yaml:"half_extents"`
	Radius      float64    `yaml:"radius"`
	HalfHeight  float64    `yaml:"half_height"`
	Density     *float64   `yaml:"density"`
	Friction    *float64   `yaml:"friction"`
	Restitution float64    `yaml:"restitution"`
	Sensor      bool       `yaml:"sensor"`
	Translation [3]float64 `yaml:"translation"`
}

// RigidBodyModes lists the accepted rigid_body.mode values in ordinal order.
var RigidBodyModes = []string{"dynamic", "fixed", "kinematic_position", "kinematic_velocity"}

// ColliderShapes lists the accepted collider shape names.
var ColliderShapes = []string{"box", "sphere", "capsule", "cylinder", "cone"}

// LoadScene loads and validates one scene manifest.
func LoadScene(path string) (*SceneManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var s SceneManifest
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", s.Name, err)
	}
	return &s, nil
}

// ScenePath maps a scene name to its manifest file under dir.
func ScenePath(dir, name string) string {
	return filepath.Join(dir, name+".yaml")
}

// Validate checks label uniqueness, parent references and enum values.
func (s *SceneManifest) Validate() error {
	labels := make(map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		if e.Label == "" {
			continue
		}
		if labels[e.Label] {
			return fmt.Errorf("duplicate entity label %q", e.Label)
		}
		labels[e.Label] = true
	}
	for _, e := range s.Entities {
		if e.Parent != "" && !labels[e.Parent] {
			return fmt.Errorf("entity %q: unknown parent %q", e.Label, e.Parent)
		}
		if e.Parent != "" && e.Parent == e.Label {
			return fmt.Errorf("entity %q: parent of itself", e.Label)
		}
		for name, p := range e.Properties {
			if p.count() != 1 {
				return fmt.Errorf("entity %q: property %q must set exactly one kind", e.Label, name)
			}
		}
		if e.RigidBody != nil && e.RigidBody.Mode != "" && indexOf(RigidBodyModes, e.RigidBody.Mode) < 0 {
			return fmt.Errorf("entity %q: unknown rigid body mode %q", e.Label, e.RigidBody.Mode)
		}
		for _, c := range e.Colliders {
			if indexOf(ColliderShapes, c.Shape) < 0 {
				return fmt.Errorf("entity %q: unknown collider shape %q", e.Label, c.Shape)
			}
		}
	}
	return s.checkCycles()
}

func (s *SceneManifest) checkCycles() error {
	parent := make(map[string]string, len(s.Entities))
	for _, e := range s.Entities {
		if e.Label != "" {
			parent[e.Label] = e.Parent
		}
	}
	for label := range parent {
		cur := label
		for steps := 0; cur != ""; steps++ {
			if steps > len(parent) {
				return fmt.Errorf("entity %q: parent cycle", label)
			}
			cur = parent[cur]
		}
	}
	return nil
}

// EntityCount returns the number of entities the scene spawns.
func (s *SceneManifest) EntityCount() int {
	return len(s.Entities)
}

// AllTags returns the scene tags followed by every per-entity tag, deduplicated
// in first-seen order.
func (s *SceneManifest) AllTags() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range s.Tags {
		add(t)
	}
	for _, e := range s.Entities {
		for _, t := range e.Tags {
			add(t)
		}
	}
	return out
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

// RigidBodyModeOrdinal returns the ordinal of a rigid body mode name. An empty
// name means dynamic.
func RigidBodyModeOrdinal(mode string) int {
	if mode == "" {
		return 0
	}
	return indexOf(RigidBodyModes, mode)
}

// SceneNames lists the scene manifests present in dir.
func SceneNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scene dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return names, nil
}
