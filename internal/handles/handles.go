// Package handles holds the opaque resource handles a host issues once per
// session. The registry never allocates, mutates or frees them.
package handles

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dropbear/bridge/internal/ffi"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	ErrMissingHandle      = errors.New("missing handle")
	ErrAlreadyInitialized = errors.New("handle registry already initialized")
	ErrDegraded           = errors.New("subsystem degraded")
)

// Subsystem names one of the six resources.
type Subsystem int

const (
	World Subsystem = iota
	Input
	Commands
	Assets
	SceneLoader
	Physics
	subsystemCount
)

var subsystemNames = [subsystemCount]string{"world", "input", "commands", "assets", "scene_loader", "physics"}

func (s Subsystem) String() string {
	if s >= 0 && s < subsystemCount {
		return subsystemNames[s]
	}
	return fmt.Sprintf("Subsystem(%d)", int(s))
}

// Payload is the session init payload: one handle per subsystem.
type Payload struct {
	World       ffi.Handle
	Input       ffi.Handle
	Commands    ffi.Handle
	Assets      ffi.Handle
	SceneLoader ffi.Handle
	Physics     ffi.Handle
}

func (p Payload) get(s Subsystem) ffi.Handle {
	switch s {
	case World:
		return p.World
	case Input:
		return p.Input
	case Commands:
		return p.Commands
	case Assets:
		return p.Assets
	case SceneLoader:
		return p.SceneLoader
	case Physics:
		return p.Physics
	}
	return ffi.NullHandle
}

// MissingHandleError reports one null handle in the init payload.
type MissingHandleError struct {
	Subsystem Subsystem
}

func (e *MissingHandleError) Error() string {
	return fmt.Sprintf("%s handle is null", e.Subsystem)
}

func (e *MissingHandleError) Is(target error) bool { return target == ErrMissingHandle }

// Registry is the validated, immutable set of session handles.
type Registry struct {
	payload  Payload
	degraded [subsystemCount]bool
	policy   ffi.Policy
	session  uuid.UUID
	log      *zap.Logger
}

// Init validates the payload. Every null handle is logged. In strict mode any
// null handle fails initialization with all of them reported together;
// otherwise the registry is returned with those subsystems degraded.
func Init(p Payload, policy ffi.Policy, log *zap.Logger) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		payload: p,
		policy:  policy,
		session: uuid.Must(uuid.NewV7()),
	}
	r.log = log.With(zap.String("session", r.session.String()))

	var errs error
	for s := Subsystem(0); s < subsystemCount; s++ {
		if p.get(s) != ffi.NullHandle {
			continue
		}
		r.degraded[s] = true
		r.log.Warn("init payload missing handle", zap.Stringer("subsystem", s))
		errs = multierr.Append(errs, &MissingHandleError{Subsystem: s})
	}
	if errs != nil && policy.Strict {
		return nil, fmt.Errorf("init handle registry: %w", errs)
	}
	r.log.Info("handle registry initialized",
		zap.Bool("strict", policy.Strict),
		zap.Int("degraded", len(multierr.Errors(errs))),
	)
	return r, nil
}

// Handle returns the handle for s. A degraded subsystem yields NullHandle,
// which the host rejects with StatusNullPointer.
func (r *Registry) Handle(s Subsystem) ffi.Handle {
	return r.payload.get(s)
}

// Require returns the handle for s, or ErrDegraded if it was missing at init.
func (r *Registry) Require(s Subsystem) (ffi.Handle, error) {
	if r.Degraded(s) {
		return ffi.NullHandle, fmt.Errorf("%s: %w", s, ErrDegraded)
	}
	return r.payload.get(s), nil
}

func (r *Registry) World() ffi.Handle       { return r.payload.World }
func (r *Registry) Input() ffi.Handle       { return r.payload.Input }
func (r *Registry) Commands() ffi.Handle    { return r.payload.Commands }
func (r *Registry) Assets() ffi.Handle      { return r.payload.Assets }
func (r *Registry) SceneLoader() ffi.Handle { return r.payload.SceneLoader }
func (r *Registry) Physics() ffi.Handle     { return r.payload.Physics }

// Degraded reports whether s was missing at init.
func (r *Registry) Degraded(s Subsystem) bool {
	return s >= 0 && s < subsystemCount && r.degraded[s]
}

// Policy returns the strict-mode policy the registry was built with.
func (r *Registry) Policy() ffi.Policy { return r.policy }

// Session returns the session id.
func (r *Registry) Session() uuid.UUID { return r.session }

// Logger returns the session-scoped logger.
func (r *Registry) Logger() *zap.Logger { return r.log }

// Session guards the once-per-session init.
type Session struct {
	mu  sync.Mutex
	reg *Registry
}

// Init builds the registry on first call. Later calls fail with
// ErrAlreadyInitialized and leave the first registry in place.
func (s *Session) Init(p Payload, policy ffi.Policy, log *zap.Logger) (*Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reg != nil {
		return nil, ErrAlreadyInitialized
	}
	reg, err := Init(p, policy, log)
	if err != nil {
		return nil, err
	}
	s.reg = reg
	return reg, nil
}

// Registry returns the initialized registry, or nil before Init.
func (s *Session) Registry() *Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg
}
