// Package scene drives the asynchronous scene load protocol from the script
// side. A load moves PENDING -> READY or PENDING -> FAILED and never leaves a
// terminal state.
package scene

import (
	"errors"
	"fmt"

	"github.com/dropbear/bridge/internal/ffi"
	"github.com/dropbear/bridge/internal/handles"
	"go.uber.org/zap"
)

// ErrPrematureSwitch is returned by SwitchTo while the load is still pending.
// It is raised in lenient sessions too.
var ErrPrematureSwitch = errors.New("scene switch before load completed")

// Progress is a snapshot of a load. While the load is pending Current never
// decreases.
type Progress struct {
	Current uint64
	Total   uint64
	Message string
}

// Fraction returns Current/Total in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	f := float64(p.Current) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Manager issues scene loads and switches against the host's scene loader.
type Manager struct {
	abi    ffi.SceneABI
	errs   ffi.ErrorSource
	reg    *handles.Registry
	policy ffi.Policy
	log    *zap.Logger
}

// NewManager binds the protocol to the session's command and loader handles.
// errs may be nil; failures then carry no host detail.
func NewManager(abi ffi.SceneABI, errs ffi.ErrorSource, reg *handles.Registry, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{abi: abi, errs: errs, reg: reg, policy: reg.Policy(), log: log}
}

// LoadAsync starts loading name and returns at once. A scene that already
// has a pending load yields that load's handle.
func (m *Manager) LoadAsync(name string) (*Handle, error) {
	return m.load(name, "")
}

// LoadAsyncWithLoading shows the loading scene right away while name loads
// in the background.
func (m *Manager) LoadAsyncWithLoading(name, loading string) (*Handle, error) {
	return m.load(name, loading)
}

func (m *Manager) load(name, loading string) (*Handle, error) {
	const op = "load_scene_async"
	var out ffi.NativeSceneLoadHandle
	st := m.abi.LoadSceneAsync(m.reg.Commands(), m.reg.SceneLoader(), ffi.BytesOf(name), ffi.BytesOf(loading), &out)
	if st != ffi.StatusOK {
		err := fmt.Errorf("load scene %q: %w", name, ffi.Describe(m.errs, op, st))
		return nil, m.policy.Resolve(m.log, err)
	}
	resolved, cst := ffi.CopyString(out.Name)
	if cst != ffi.StatusOK {
		resolved = name
	}
	m.log.Debug("scene load requested", zap.String("scene", resolved), zap.Int64("load_id", out.ID))
	return &Handle{m: m, id: out.ID, name: resolved}, nil
}

// SwitchTo asks the host to switch to a loaded scene. The switch is applied
// by the frame loop, not during this call. A handle must not be reused after
// a successful switch.
func (m *Manager) SwitchTo(h *Handle) error {
	const op = "switch_to_scene_async"
	if h == nil {
		return &ffi.ViolationError{Op: op, Reason: "nil scene load handle"}
	}
	st := m.abi.SwitchToSceneAsync(m.reg.Commands(), m.reg.SceneLoader(), h.id)
	switch st {
	case ffi.StatusOK:
		m.log.Info("scene switch queued", zap.String("scene", h.name), zap.Int64("load_id", h.id))
		return nil
	case ffi.StatusPrematureSceneSwitch:
		return fmt.Errorf("switch to %q: %w: %w", h.name, ErrPrematureSwitch, ffi.Describe(m.errs, op, st))
	}
	err := fmt.Errorf("switch to %q: %w", h.name, ffi.Describe(m.errs, op, st))
	return m.policy.Resolve(m.log, err)
}

// SwitchToImmediate loads and switches synchronously. The caller is blocked
// until the scene has been read, so keep it to small scenes.
func (m *Manager) SwitchToImmediate(name string) error {
	const op = "switch_to_scene_immediate"
	st := m.abi.SwitchToSceneImmediate(m.reg.Commands(), m.reg.SceneLoader(), ffi.BytesOf(name))
	if st != ffi.StatusOK {
		err := fmt.Errorf("switch to %q: %w", name, ffi.Describe(m.errs, op, st))
		return m.policy.Resolve(m.log, err)
	}
	m.log.Info("scene switch queued", zap.String("scene", name), zap.Bool("immediate", true))
	return nil
}
