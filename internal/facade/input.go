package facade

import "github.com/dropbear/bridge/internal/ffi"

type Input struct{ e *Engine }

func (in Input) IsKeyPressed(key ffi.KeyCode) (bool, error) {
	var out bool
	if st := in.e.abi.IsKeyPressed(in.e.reg.Input(), key, &out); st != ffi.StatusOK {
		return false, in.e.failf("is_key_pressed", st, "key %d", key)
	}
	return out, nil
}

func (in Input) MousePosition() (ffi.Vec2, error) {
	var out ffi.Vec2
	if st := in.e.abi.GetMousePosition(in.e.reg.Input(), &out); st != ffi.StatusOK {
		return ffi.Vec2{}, in.e.fail("get_mouse_position", st)
	}
	return out, nil
}

// Gamepads lists the connected gamepads in id order.
func (in Input) Gamepads() ([]ffi.GamepadID, error) {
	var arr ffi.Array[ffi.GamepadID]
	if st := in.e.abi.GetConnectedGamepads(in.e.reg.Input(), &arr); st != ffi.StatusOK {
		return nil, in.e.fail("get_connected_gamepads", st)
	}
	return take(in.e, "get_connected_gamepads", arr)
}

// IsGamepadButtonPressed fails with ffi.ErrGamepadNotFound when pad is not
// connected.
func (in Input) IsGamepadButtonPressed(pad ffi.GamepadID, button ffi.GamepadButton) (bool, error) {
	var out bool
	if st := in.e.abi.IsGamepadButtonPressed(in.e.reg.Input(), pad, button, &out); st != ffi.StatusOK {
		return false, in.e.failf("is_gamepad_button_pressed", st, "gamepad %d button %s", uint64(pad), button)
	}
	return out, nil
}

func (in Input) LeftStick(pad ffi.GamepadID) (ffi.Vec2, error) {
	return in.stick(pad, ffi.StickLeft)
}

func (in Input) RightStick(pad ffi.GamepadID) (ffi.Vec2, error) {
	return in.stick(pad, ffi.StickRight)
}

func (in Input) stick(pad ffi.GamepadID, stick ffi.GamepadStick) (ffi.Vec2, error) {
	var out ffi.Vec2
	if st := in.e.abi.GetGamepadStick(in.e.reg.Input(), pad, stick, &out); st != ffi.StatusOK {
		return ffi.Vec2{}, in.e.failf("get_gamepad_stick", st, "gamepad %d", uint64(pad))
	}
	return out, nil
}
