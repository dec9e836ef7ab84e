package system

import (
	"context"
	"time"

	coresys "github.com/dropbear/bridge/internal/core/system"
	"go.uber.org/zap"
)

// Flusher writes buffered records out, e.g. the script fault journal.
type Flusher interface {
	Flush(ctx context.Context) error
}

// PersistenceSystem flushes a Flusher every interval of simulated time.
// Phase 5 (Persist).
type PersistenceSystem struct {
	target   Flusher
	interval time.Duration
	timeout  time.Duration
	elapsed  time.Duration
	log      *zap.Logger
}

func NewPersistenceSystem(target Flusher, interval time.Duration, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		target:   target,
		interval: interval,
		timeout:  5 * time.Second,
		log:      log,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	if err := s.Flush(); err != nil {
		s.log.Warn("journal flush failed", zap.Error(err))
	}
}

// Flush writes immediately, outside the interval. Used on shutdown.
func (s *PersistenceSystem) Flush() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.target.Flush(ctx)
}
