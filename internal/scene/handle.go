package scene

import (
	"fmt"

	"github.com/dropbear/bridge/internal/ffi"
)

// Handle is a single-use reference to one scene load. A nil handle, returned
// by a lenient session when the request failed, reports FAILED.
type Handle struct {
	m    *Manager
	id   int64
	name string
}

func (h *Handle) ID() int64 { return h.id }

// Name is the scene being loaded.
func (h *Handle) Name() string { return h.name }

// Status polls the load state.
func (h *Handle) Status() (ffi.SceneLoadStatus, error) {
	if h == nil {
		return ffi.SceneFailed, nil
	}
	const op = "get_scene_load_status"
	var out ffi.SceneLoadStatus
	if st := h.m.abi.GetSceneLoadStatus(h.m.reg.SceneLoader(), h.id, &out); st != ffi.StatusOK {
		err := fmt.Errorf("scene %q: %w", h.name, ffi.Describe(h.m.errs, op, st))
		return ffi.SceneFailed, h.m.policy.Resolve(h.m.log, err)
	}
	return out, nil
}

// IsComplete reports READY.
func (h *Handle) IsComplete() (bool, error) {
	s, err := h.Status()
	return s == ffi.SceneReady, err
}

// HasFailed reports FAILED.
func (h *Handle) HasFailed() (bool, error) {
	s, err := h.Status()
	return s == ffi.SceneFailed, err
}

// Progress returns the latest progress snapshot. After a terminal state the
// values are whatever the host last reported; on failure Message holds the
// reason.
func (h *Handle) Progress() (Progress, error) {
	if h == nil {
		return Progress{}, nil
	}
	const op = "get_scene_load_progress"
	var out ffi.NativeProgress
	if st := h.m.abi.GetSceneLoadProgress(h.m.reg.SceneLoader(), h.id, &out); st != ffi.StatusOK {
		err := fmt.Errorf("scene %q: %w", h.name, ffi.Describe(h.m.errs, op, st))
		return Progress{}, h.m.policy.Resolve(h.m.log, err)
	}
	msg, _ := ffi.CopyString(out.Message)
	return Progress{Current: out.Current, Total: out.Total, Message: msg}, nil
}
