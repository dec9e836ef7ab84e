package ffi

import "fmt"

// GamepadID identifies a connected gamepad.
type GamepadID uint64

// GamepadButton is a button ordinal. Ordinals outside the table are
// rejected with StatusInvalidEnumOrdinal.
type GamepadButton int32

const (
	ButtonUnknown GamepadButton = iota
	ButtonSouth
	ButtonEast
	ButtonNorth
	ButtonWest
	ButtonC
	ButtonZ
	ButtonLeftTrigger
	ButtonRightTrigger
	ButtonLeftTrigger2
	ButtonRightTrigger2
	ButtonSelect
	ButtonStart
	ButtonMode
	ButtonLeftThumb
	ButtonRightThumb
	ButtonDPadUp
	ButtonDPadDown
	ButtonDPadLeft
	ButtonDPadRight
)

var gamepadButtonNames = []string{
	"Unknown", "South", "East", "North", "West", "C", "Z",
	"LeftTrigger", "RightTrigger", "LeftTrigger2", "RightTrigger2",
	"Select", "Start", "Mode", "LeftThumb", "RightThumb",
	"DPadUp", "DPadDown", "DPadLeft", "DPadRight",
}

// Valid reports whether b is a known ordinal.
func (b GamepadButton) Valid() bool { return b >= 0 && int(b) < len(gamepadButtonNames) }

func (b GamepadButton) String() string {
	if b.Valid() {
		return gamepadButtonNames[b]
	}
	return fmt.Sprintf("GamepadButton(%d)", int32(b))
}

// GamepadStick selects one of the two analog sticks.
type GamepadStick int32

const (
	StickLeft GamepadStick = iota
	StickRight
)

func (s GamepadStick) Valid() bool { return s == StickLeft || s == StickRight }
