// Package facade is the script-side view of the engine. Every accessor makes
// one boundary round trip and reflects host state at call time; nothing is
// cached. Failures are mapped through the session's strict-mode policy.
package facade

import (
	"fmt"

	"github.com/dropbear/bridge/internal/ffi"
	"github.com/dropbear/bridge/internal/handles"
	"github.com/dropbear/bridge/internal/scene"
	"go.uber.org/zap"
)

// Engine is handed to every script callback.
type Engine struct {
	abi    ffi.ABI
	reg    *handles.Registry
	policy ffi.Policy
	log    *zap.Logger
	scenes *scene.Manager

	current ffi.EntityID
}

// New builds the facade for an initialized session.
func New(abi ffi.ABI, reg *handles.Registry) *Engine {
	log := reg.Logger()
	return &Engine{
		abi:     abi,
		reg:     reg,
		policy:  reg.Policy(),
		log:     log,
		scenes:  scene.NewManager(abi, abi, reg, log),
		current: ffi.AbsentEntity,
	}
}

// Logger returns the session logger.
func (e *Engine) Logger() *zap.Logger { return e.log }

// Policy returns the session's strict-mode policy.
func (e *Engine) Policy() ffi.Policy { return e.policy }

// ── Error mapping ───────────────────────────────────────────────────

// fail describes a failed call and applies the policy. The returned error is
// nil when the failure was degraded.
func (e *Engine) fail(op string, st ffi.Status) error {
	return e.policy.Resolve(e.log, ffi.Describe(e.abi, op, st))
}

// failf is fail with extra context, for calls that name their target.
func (e *Engine) failf(op string, st ffi.Status, format string, args ...any) error {
	err := fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ffi.Describe(e.abi, op, st))
	return e.policy.Resolve(e.log, err)
}

// take copies a callee array out and frees it. A failed free is a protocol
// violation and is always returned.
func take[T any](e *Engine, op string, a ffi.Array[T]) ([]T, error) {
	out, err := ffi.TakeArray(e.abi, op, a)
	if err != nil {
		return nil, e.policy.Resolve(e.log, err)
	}
	return out, nil
}

// ── Current entity ──────────────────────────────────────────────────

// CurrentEntity returns the entity the running callback is scoped to. It is
// only set during per-entity dispatch and collision delivery.
func (e *Engine) CurrentEntity() (Entity, bool) {
	if !e.current.Present() {
		return Entity{}, false
	}
	return e.EntityByID(e.current), true
}

// SetCurrentEntity scopes the following callbacks to id.
func (e *Engine) SetCurrentEntity(id ffi.EntityID) { e.current = id }

// ClearCurrentEntity removes the per-entity scope.
func (e *Engine) ClearCurrentEntity() { e.current = ffi.AbsentEntity }

// ── Lookups ─────────────────────────────────────────────────────────

// Entity finds the entity carrying label. found is false when no entity has
// it, which is not an error.
func (e *Engine) Entity(label string) (ent Entity, found bool, err error) {
	const op = "get_entity"
	var id ffi.EntityID
	if st := e.abi.GetEntity(e.reg.World(), ffi.BytesOf(label), &id); st != ffi.StatusOK {
		return Entity{}, false, e.failf(op, st, "entity %q", label)
	}
	if !id.Present() {
		return Entity{}, false, nil
	}
	return e.EntityByID(id), true, nil
}

// EntityByID wraps an id without a round trip. Call Exists before trusting
// an id kept across frames.
func (e *Engine) EntityByID(id ffi.EntityID) Entity {
	return Entity{e: e, ID: id}
}

// Asset is shorthand for Assets().Asset.
func (e *Engine) Asset(name string) (ffi.Handle, bool, error) {
	return e.Assets().Asset(name)
}

// Quit asks the host to end the session after the current frame.
func (e *Engine) Quit() error {
	if st := e.abi.Quit(e.reg.Commands()); st != ffi.StatusOK {
		return e.fail("quit", st)
	}
	return nil
}

func (e *Engine) Physics() Physics { return Physics{e: e} }

func (e *Engine) Input() Input { return Input{e: e} }

func (e *Engine) Assets() Assets { return Assets{e: e} }

// Scenes exposes the asynchronous scene load protocol.
func (e *Engine) Scenes() *scene.Manager { return e.scenes }
