// Package scripts holds the Go scripts compiled into the binary and the
// static tag table that exposes them to the script host.
package scripts

import (
	"github.com/dropbear/bridge/internal/core/event"
	"github.com/dropbear/bridge/internal/facade"
	"github.com/dropbear/bridge/internal/scripting"
)

// Registry returns the static tag table.
func Registry() *scripting.StaticRegistry {
	return scripting.NewStaticRegistry().
		Register("patrol", "Patrol", func() scripting.Script { return &Patrol{} }).
		Register("countdown", "Countdown", func() scripting.Script { return &Countdown{Seconds: 30} })
}

// Patrol moves the current entity along X at its "speed" property (1 when
// unset) and reverses direction when it starts touching something.
type Patrol struct {
	scripting.Base
}

func (p *Patrol) Name() string { return "Patrol" }

func (p *Patrol) Update(e *facade.Engine, dt float64) error {
	ent, ok := e.CurrentEntity()
	if !ok {
		return nil
	}
	speed, err := p.speed(ent)
	if err != nil {
		return err
	}
	tr, ok, err := ent.Transform()
	if err != nil || !ok {
		return err
	}
	local, err := tr.Local()
	if err != nil {
		return err
	}
	local.Position.X += speed * dt
	return tr.SetLocal(local)
}

func (p *Patrol) speed(ent facade.Entity) (float64, error) {
	props, ok, err := ent.Properties()
	if err != nil || !ok {
		return 1, err
	}
	v, found, err := props.Double("speed")
	if err != nil || !found {
		return 1, err
	}
	return v, nil
}

func (p *Patrol) CollisionEvent(e *facade.Engine, ev event.Collision) error {
	if ev.Kind != event.CollisionStarted {
		return nil
	}
	ent, ok := e.CurrentEntity()
	if !ok {
		return nil
	}
	speed, err := p.speed(ent)
	if err != nil {
		return err
	}
	props, ok, err := ent.Properties()
	if err != nil || !ok {
		return err
	}
	return props.SetDouble("speed", -speed)
}

func (p *Patrol) CollisionForceEvent(*facade.Engine, event.CollisionForce) error { return nil }

// Countdown quits the session once Seconds of frame time have passed since
// it was last loaded.
type Countdown struct {
	scripting.Base
	Seconds   float64
	remaining float64
	fired     bool
}

func (c *Countdown) Name() string { return "Countdown" }

func (c *Countdown) Load(*facade.Engine) error {
	c.remaining = c.Seconds
	c.fired = false
	return nil
}

func (c *Countdown) Update(e *facade.Engine, dt float64) error {
	if c.fired {
		return nil
	}
	c.remaining -= dt
	if c.remaining > 0 {
		return nil
	}
	c.fired = true
	e.Logger().Info("countdown elapsed, quitting")
	return e.Quit()
}

// Remaining returns the seconds left before the quit.
func (c *Countdown) Remaining() float64 { return c.remaining }
