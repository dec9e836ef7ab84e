package system

import (
	"time"

	coresys "github.com/dropbear/bridge/internal/core/system"
	"github.com/dropbear/bridge/internal/host"
	"go.uber.org/zap"
)

// CleanupSystem frees entities despawned during the frame and reports
// callee-allocated arrays nobody freed. Phase 6 (Cleanup).
type CleanupSystem struct {
	host *host.Host
	live int
	log  *zap.Logger
}

func NewCleanupSystem(h *host.Host, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{host: h, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.host.FlushDespawns()
	n := s.host.LiveArrays()
	if n > s.live {
		s.log.Warn("boundary arrays leaked", zap.Int("live", n), zap.Int("new", n-s.live))
	}
	s.live = n
}
