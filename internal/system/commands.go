package system

import (
	"time"

	coresys "github.com/dropbear/bridge/internal/core/system"
	"github.com/dropbear/bridge/internal/host"
	"go.uber.org/zap"
)

// CommandSystem applies the commands scripts queued this frame: scene
// switches and quit. Phase 4 (Commands).
type CommandSystem struct {
	host   *host.Host
	stage  *Stage
	onQuit func()
	log    *zap.Logger
}

func NewCommandSystem(h *host.Host, stage *Stage, onQuit func(), log *zap.Logger) *CommandSystem {
	return &CommandSystem{host: h, stage: stage, onQuit: onQuit, log: log}
}

func (s *CommandSystem) Phase() coresys.Phase { return coresys.PhaseCommands }

func (s *CommandSystem) Update(_ time.Duration) {
	for _, cmd := range s.host.DrainCommands() {
		switch cmd.Kind {
		case host.CommandQuit:
			s.log.Info("quit requested")
			if s.onQuit != nil {
				s.onQuit()
			}
		case host.CommandSwitchScene:
			if err := s.stage.Enter(cmd.Scene); err != nil {
				s.log.Error("scene switch incomplete",
					zap.String("scene", cmd.Scene.Name),
					zap.Error(err),
				)
			}
		}
	}
}
