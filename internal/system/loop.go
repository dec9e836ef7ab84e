package system

import (
	"context"
	"sync/atomic"
	"time"

	coresys "github.com/dropbear/bridge/internal/core/system"
	"go.uber.org/zap"
)

// Loop drives a Runner at a fixed frame rate until stopped, cancelled or a
// frame limit is reached.
type Loop struct {
	runner  *coresys.Runner
	frame   time.Duration
	stopped atomic.Bool
	frames  uint64
	log     *zap.Logger
}

func NewLoop(runner *coresys.Runner, frame time.Duration, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{runner: runner, frame: frame, log: log}
}

// Stop ends the loop after the current frame. Safe from any goroutine.
func (l *Loop) Stop() { l.stopped.Store(true) }

// Stopped reports whether Stop was called.
func (l *Loop) Stopped() bool { return l.stopped.Load() }

// Frames returns the number of frames run.
func (l *Loop) Frames() uint64 { return l.frames }

// Step runs one frame with the given delta.
func (l *Loop) Step(dt time.Duration) {
	l.runner.Tick(dt)
	l.frames++
}

// Run ticks every frame period. maxFrames <= 0 runs until Stop or ctx is
// done. A script-side failure never ends the loop.
func (l *Loop) Run(ctx context.Context, maxFrames int) error {
	ticker := time.NewTicker(l.frame)
	defer ticker.Stop()

	l.log.Info("frame loop started", zap.Duration("frame", l.frame), zap.Int("max_frames", maxFrames))
	last := time.Now()
	for !l.Stopped() {
		if maxFrames > 0 && l.frames >= uint64(maxFrames) {
			break
		}
		if ctx.Err() != nil {
			l.log.Info("frame loop cancelled", zap.Uint64("frames", l.frames))
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			l.log.Info("frame loop cancelled", zap.Uint64("frames", l.frames))
			return ctx.Err()
		case now := <-ticker.C:
			l.Step(now.Sub(last))
			last = now
		}
	}
	l.log.Info("frame loop finished", zap.Uint64("frames", l.frames))
	return nil
}
