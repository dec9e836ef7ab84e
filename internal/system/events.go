package system

import (
	"time"

	"github.com/dropbear/bridge/internal/core/event"
	coresys "github.com/dropbear/bridge/internal/core/system"
	"github.com/dropbear/bridge/internal/ffi"
	"github.com/dropbear/bridge/internal/host"
	"github.com/dropbear/bridge/internal/scripting"
	"go.uber.org/zap"
)

// EventSystem swaps the event bus and delivers the previous buffer. Contact
// events go to the systems of each touching entity's tags, with that entity
// as the current entity. Phase 3 (Events).
type EventSystem struct {
	bus *event.Bus
}

func NewEventSystem(bus *event.Bus, h *host.Host, scripts *scripting.Host, log *zap.Logger) *EventSystem {
	owners := func(a, b ffi.ColliderRef, fn func(tag string, owner ffi.EntityID)) {
		for _, owner := range []ffi.EntityID{a.Entity, b.Entity} {
			for _, tag := range h.EntityTags(owner) {
				fn(tag, owner)
			}
		}
	}
	event.Subscribe(bus, func(ev event.Collision) {
		owners(ev.A, ev.B, func(tag string, owner ffi.EntityID) {
			scripts.CollisionEvent(tag, owner, ev)
		})
	})
	event.Subscribe(bus, func(ev event.CollisionForce) {
		owners(ev.A, ev.B, func(tag string, owner ffi.EntityID) {
			scripts.CollisionForceEvent(tag, owner, ev)
		})
	})
	event.Subscribe(bus, func(ev event.SceneSwitched) {
		log.Debug("scene switch delivered", zap.String("from", ev.From), zap.String("to", ev.To))
	})
	return &EventSystem{bus: bus}
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *EventSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
