package system

import (
	"time"

	coresys "github.com/dropbear/bridge/internal/core/system"
)

// UpdateSystem runs the per-frame script callbacks with the frame's delta.
// Phase 2 (Update).
type UpdateSystem struct {
	stage *Stage
}

func NewUpdateSystem(stage *Stage) *UpdateSystem {
	return &UpdateSystem{stage: stage}
}

func (s *UpdateSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *UpdateSystem) Update(dt time.Duration) {
	s.stage.update(dt.Seconds())
}
