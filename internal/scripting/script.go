// Package scripting hosts the script instances bound to entity tags and
// drives their callbacks from the frame loop. A failing script is logged and
// isolated; it never stops the loop or its siblings.
package scripting

import (
	"fmt"

	"github.com/dropbear/bridge/internal/core/event"
	"github.com/dropbear/bridge/internal/facade"
)

// Script is one script instance. Returned errors and panics are both treated
// as script faults.
type Script interface {
	Load(e *facade.Engine) error
	Update(e *facade.Engine, dt float64) error
	PhysicsUpdate(e *facade.Engine, dt float64) error
	Destroy(e *facade.Engine) error
}

// CollisionHandler is implemented by scripts that want contact events. The
// engine's current entity is the entity owning the receiving script.
type CollisionHandler interface {
	CollisionEvent(e *facade.Engine, ev event.Collision) error
	CollisionForceEvent(e *facade.Engine, ev event.CollisionForce) error
}

// Named lets a script report a stable name in logs and fault records.
type Named interface {
	Name() string
}

// Base is a no-op Script to embed.
type Base struct{}

func (Base) Load(*facade.Engine) error                   { return nil }
func (Base) Update(*facade.Engine, float64) error        { return nil }
func (Base) PhysicsUpdate(*facade.Engine, float64) error { return nil }
func (Base) Destroy(*facade.Engine) error                { return nil }

func scriptName(s Script) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// Registry resolves a tag to fresh script instances. On a partial failure it
// returns the instances it did build together with the error.
type Registry interface {
	Instantiate(tag string) ([]Script, error)
	// Reload re-reads the registry's source into a registry ready to swap
	// in. The receiver is left as it was.
	Reload() (Registry, error)
}

// Sourced is implemented by registries that can expose the source they were
// built from, for versioning.
type Sourced interface {
	Source() []byte
}
