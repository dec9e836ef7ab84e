package host

import (
	"sort"

	"github.com/dropbear/bridge/internal/ffi"
)

type gamepad struct {
	buttons     map[ffi.GamepadButton]bool
	left, right ffi.Vec2
}

// ConnectGamepad registers pad. Connecting a connected pad keeps its state.
func (h *Host) ConnectGamepad(pad ffi.GamepadID) {
	h.input.mu.Lock()
	defer h.input.mu.Unlock()
	if _, ok := h.input.pads[pad]; !ok {
		h.input.pads[pad] = &gamepad{buttons: make(map[ffi.GamepadButton]bool)}
	}
}

// DisconnectGamepad forgets pad and everything held on it.
func (h *Host) DisconnectGamepad(pad ffi.GamepadID) {
	h.input.mu.Lock()
	delete(h.input.pads, pad)
	h.input.mu.Unlock()
}

// SetGamepadButton records a button change. Changes for a pad that is not
// connected are ignored.
func (h *Host) SetGamepadButton(pad ffi.GamepadID, button ffi.GamepadButton, pressed bool) {
	h.input.mu.Lock()
	defer h.input.mu.Unlock()
	g, ok := h.input.pads[pad]
	if !ok || !button.Valid() {
		return
	}
	if pressed {
		g.buttons[button] = true
	} else {
		delete(g.buttons, button)
	}
}

// SetGamepadStick records a stick position.
func (h *Host) SetGamepadStick(pad ffi.GamepadID, stick ffi.GamepadStick, pos ffi.Vec2) {
	h.input.mu.Lock()
	defer h.input.mu.Unlock()
	g, ok := h.input.pads[pad]
	if !ok {
		return
	}
	switch stick {
	case ffi.StickLeft:
		g.left = pos
	case ffi.StickRight:
		g.right = pos
	}
}

func (h *Host) GetConnectedGamepads(input ffi.Handle, out *ffi.Array[ffi.GamepadID]) ffi.Status {
	if st := h.checkHandle("get_connected_gamepads", input, resInput); st != ffi.StatusOK {
		return st
	}
	if out == nil {
		return ffi.StatusNullPointer
	}
	h.input.mu.Lock()
	ids := make([]ffi.GamepadID, 0, len(h.input.pads))
	for id := range h.input.pads {
		ids = append(ids, id)
	}
	h.input.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	*out = allocArray(h.arena, ids)
	return ffi.StatusOK
}

// pad looks up a connected gamepad. Callers hold input.mu.
func (h *Host) pad(op string, id ffi.GamepadID) (*gamepad, ffi.Status) {
	g, ok := h.input.pads[id]
	if !ok {
		return nil, h.fail(op, ffi.StatusGamepadNotFound, "gamepad %d", uint64(id))
	}
	return g, ffi.StatusOK
}

func (h *Host) IsGamepadButtonPressed(input ffi.Handle, pad ffi.GamepadID, button ffi.GamepadButton, out *bool) ffi.Status {
	const op = "is_gamepad_button_pressed"
	if st := h.checkHandle(op, input, resInput); st != ffi.StatusOK {
		return st
	}
	if out == nil {
		return ffi.StatusNullPointer
	}
	if !button.Valid() {
		return h.fail(op, ffi.StatusInvalidEnumOrdinal, "button %d", int32(button))
	}
	h.input.mu.Lock()
	defer h.input.mu.Unlock()
	g, st := h.pad(op, pad)
	if st != ffi.StatusOK {
		return st
	}
	*out = g.buttons[button]
	return ffi.StatusOK
}

func (h *Host) GetGamepadStick(input ffi.Handle, pad ffi.GamepadID, stick ffi.GamepadStick, out *ffi.Vec2) ffi.Status {
	const op = "get_gamepad_stick"
	if st := h.checkHandle(op, input, resInput); st != ffi.StatusOK {
		return st
	}
	if out == nil {
		return ffi.StatusNullPointer
	}
	if !stick.Valid() {
		return h.fail(op, ffi.StatusInvalidEnumOrdinal, "stick %d", int32(stick))
	}
	h.input.mu.Lock()
	defer h.input.mu.Unlock()
	g, st := h.pad(op, pad)
	if st != ffi.StatusOK {
		return st
	}
	if stick == ffi.StickLeft {
		*out = g.left
	} else {
		*out = g.right
	}
	return ffi.StatusOK
}
