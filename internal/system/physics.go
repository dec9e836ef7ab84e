package system

import (
	"time"

	coresys "github.com/dropbear/bridge/internal/core/system"
	"github.com/dropbear/bridge/internal/host"
	"go.uber.org/zap"
)

// PhysicsSystem steps physics at a fixed rate decoupled from the frame rate
// and runs the physics callbacks after every step, so a frame may see zero,
// one or several steps. At most maxSteps run per frame; a larger backlog is
// dropped. Phase 1 (Physics).
type PhysicsSystem struct {
	host     *host.Host
	stage    *Stage
	step     time.Duration
	maxSteps int
	acc      time.Duration
	steps    uint64
	log      *zap.Logger
}

func NewPhysicsSystem(h *host.Host, stage *Stage, step time.Duration, maxSteps int, log *zap.Logger) *PhysicsSystem {
	if maxSteps <= 0 {
		maxSteps = 1
	}
	return &PhysicsSystem{host: h, stage: stage, step: step, maxSteps: maxSteps, log: log}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem) Update(dt time.Duration) {
	s.acc += dt
	n := 0
	for s.acc >= s.step && n < s.maxSteps {
		s.host.StepPhysics(s.step)
		s.stage.physicsUpdate(s.step.Seconds())
		s.acc -= s.step
		s.steps++
		n++
	}
	if s.acc >= s.step {
		s.log.Warn("physics falling behind, dropping backlog",
			zap.Duration("backlog", s.acc),
			zap.Int("steps", n),
		)
		s.acc = 0
	}
}

// Steps returns the number of physics steps run so far.
func (s *PhysicsSystem) Steps() uint64 { return s.steps }
