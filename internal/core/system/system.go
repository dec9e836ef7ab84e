package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput    Phase = iota // 0: snapshot input state
	PhasePhysics               // 1: fixed-step physics + script physics callbacks
	PhaseUpdate                // 2: per-frame script callbacks
	PhaseEvents                // 3: deliver last frame's collision events
	PhaseCommands              // 4: quit + scene switches
	PhasePersist               // 5: fault journal flush
	PhaseCleanup               // 6: destroy queued entities
)

var phaseNames = [...]string{"input", "physics", "update", "events", "commands", "persist", "cleanup"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
