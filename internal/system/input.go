package system

import (
	"time"

	coresys "github.com/dropbear/bridge/internal/core/system"
	"github.com/dropbear/bridge/internal/ffi"
	"github.com/dropbear/bridge/internal/host"
)

// InputEvent is one key, mouse or gamepad change from the window layer.
// Gamepad or Mouse, when set, take precedence; otherwise Key is pressed or
// released.
type InputEvent struct {
	Key     ffi.KeyCode
	Pressed bool
	Mouse   *ffi.Vec2
	Gamepad *GamepadEvent
}

type GamepadChange int

const (
	GamepadConnected GamepadChange = iota
	GamepadDisconnected
	GamepadButtonChanged
	GamepadStickMoved
)

// GamepadEvent is one change on one pad. Button and Pressed apply to
// GamepadButtonChanged, Stick and Position to GamepadStickMoved.
type GamepadEvent struct {
	Pad      ffi.GamepadID
	Change   GamepadChange
	Button   ffi.GamepadButton
	Pressed  bool
	Stick    ffi.GamepadStick
	Position ffi.Vec2
}

// InputSystem drains queued input into the host's input state so scripts
// see a stable snapshot for the rest of the frame. Phase 0 (Input).
type InputSystem struct {
	host       *host.Host
	feed       <-chan InputEvent
	maxPerTick int
}

func NewInputSystem(h *host.Host, feed <-chan InputEvent, maxPerTick int) *InputSystem {
	if maxPerTick <= 0 {
		maxPerTick = 64
	}
	return &InputSystem{host: h, feed: feed, maxPerTick: maxPerTick}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case ev, ok := <-s.feed:
			if !ok {
				return
			}
			s.apply(ev)
		default:
			return
		}
	}
}

func (s *InputSystem) apply(ev InputEvent) {
	switch {
	case ev.Gamepad != nil:
		s.applyGamepad(*ev.Gamepad)
	case ev.Mouse != nil:
		s.host.MoveMouse(*ev.Mouse)
	case ev.Pressed:
		s.host.PressKey(ev.Key)
	default:
		s.host.ReleaseKey(ev.Key)
	}
}

func (s *InputSystem) applyGamepad(ev GamepadEvent) {
	switch ev.Change {
	case GamepadConnected:
		s.host.ConnectGamepad(ev.Pad)
	case GamepadDisconnected:
		s.host.DisconnectGamepad(ev.Pad)
	case GamepadButtonChanged:
		s.host.SetGamepadButton(ev.Pad, ev.Button, ev.Pressed)
	case GamepadStickMoved:
		s.host.SetGamepadStick(ev.Pad, ev.Stick, ev.Position)
	}
}
