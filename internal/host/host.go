// Package host is an in-process reference implementation of the boundary
// exports. It keeps entities, components and physics objects in simple stores
// so the script side can be driven and tested without a real engine.
package host

import (
	"fmt"
	"sync"
	"time"

	"github.com/dropbear/bridge/internal/core/event"
	"github.com/dropbear/bridge/internal/data"
	"github.com/dropbear/bridge/internal/ffi"
	"github.com/dropbear/bridge/internal/handles"
	"go.uber.org/zap"
)

// resource is the kind of object a session handle refers to.
type resource int

const (
	resWorld resource = iota + 1
	resInput
	resCommands
	resAssets
	resSceneLoader
	resPhysics
)

var resourceNames = map[resource]string{
	resWorld:       "world",
	resInput:       "input",
	resCommands:    "commands",
	resAssets:      "assets",
	resSceneLoader: "scene loader",
	resPhysics:     "physics",
}

// handleBase keeps session handles clear of small integers a caller might
// pass by mistake.
const handleBase ffi.Handle = 0xdb00

// Options configures a Host.
type Options struct {
	ScenesDir   string
	Assets      *data.AssetTable
	LoadWorkers int
	LoadDelay   time.Duration // artificial pause between load stages
	Bus         *event.Bus
}

// CommandKind identifies a queued engine command.
type CommandKind int

const (
	CommandQuit CommandKind = iota
	CommandSwitchScene
)

// Command is drained by the frame loop once per frame.
type Command struct {
	Kind  CommandKind
	Scene *data.SceneManifest
}

// Host implements ffi.ABI. Boundary calls are expected from one goroutine;
// only the scene loader's workers run concurrently.
type Host struct {
	log     *zap.Logger
	bus     *event.Bus
	handles map[ffi.Handle]resource

	world   *world
	physics *physics
	assets  *assetRegistry
	input   inputState
	loader  *sceneLoader
	arena   *arena

	cmdMu    sync.Mutex
	commands []Command

	scratch []byte
	lastErr string
	current string
}

var _ ffi.ABI = (*Host)(nil)

// New creates a host and starts its scene loader workers.
func New(opts Options, log *zap.Logger) *Host {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus()
	}
	h := &Host{
		log:     log,
		bus:     opts.Bus,
		handles: make(map[ffi.Handle]resource, 6),
		world:   newWorld(),
		physics: newPhysics(),
		assets:  newAssetRegistry(opts.Assets),
		arena:   newArena(),
		scratch: make([]byte, 0, 256),
	}
	h.input.keys = make(map[ffi.KeyCode]bool)
	h.input.pads = make(map[ffi.GamepadID]*gamepad)
	for r := resWorld; r <= resPhysics; r++ {
		h.handles[handleBase+ffi.Handle(r)] = r
	}
	h.loader = newSceneLoader(opts.ScenesDir, opts.LoadWorkers, opts.LoadDelay, log)
	return h
}

// Close stops the scene loader workers. Pending loads are abandoned.
func (h *Host) Close() {
	h.loader.close()
}

// Bus returns the event bus collision events are emitted on.
func (h *Host) Bus() *event.Bus { return h.bus }

// Handles returns the session init payload.
func (h *Host) Handles() handles.Payload {
	return handles.Payload{
		World:       handleBase + ffi.Handle(resWorld),
		Input:       handleBase + ffi.Handle(resInput),
		Commands:    handleBase + ffi.Handle(resCommands),
		Assets:      handleBase + ffi.Handle(resAssets),
		SceneLoader: handleBase + ffi.Handle(resSceneLoader),
		Physics:     handleBase + ffi.Handle(resPhysics),
	}
}

// fail records the detail for LastError and returns s.
func (h *Host) fail(op string, s ffi.Status, format string, args ...any) ffi.Status {
	h.lastErr = op + ": " + fmt.Sprintf(format, args...)
	h.log.Debug("boundary call failed", zap.String("op", op), zap.Stringer("status", s), zap.String("detail", h.lastErr))
	return s
}

// checkHandle validates a session handle against the expected resource.
func (h *Host) checkHandle(op string, got ffi.Handle, want resource) ffi.Status {
	if got == ffi.NullHandle {
		return h.fail(op, ffi.StatusNullPointer, "null %s handle", resourceNames[want])
	}
	r, ok := h.handles[got]
	if !ok || r != want {
		return h.fail(op, ffi.StatusInvalidHandle, "handle %#x is not a %s handle", uint64(got), resourceNames[want])
	}
	return ffi.StatusOK
}

// scratchBytes copies s into the reused scratch buffer. The returned view is
// overwritten by the next call that produces a string.
func (h *Host) scratchBytes(s string) ffi.Bytes {
	h.scratch = append(h.scratch[:0], s...)
	return ffi.Bytes(h.scratch)
}

// copyIn converts boundary bytes to a Go string.
func (h *Host) copyIn(op string, b ffi.Bytes) (string, ffi.Status) {
	s, st := ffi.CopyString(b)
	if st != ffi.StatusOK {
		return "", h.fail(op, st, "input is not valid UTF-8")
	}
	return s, ffi.StatusOK
}

// LastError copies the last failure detail into buf.
func (h *Host) LastError(buf *ffi.FixedBuffer) ffi.Status {
	if buf == nil {
		return ffi.StatusNullPointer
	}
	return buf.Fill([]byte(h.lastErr))
}

func (h *Host) pushCommand(c Command) {
	h.cmdMu.Lock()
	h.commands = append(h.commands, c)
	h.cmdMu.Unlock()
}

// DrainCommands returns and clears the queued commands.
func (h *Host) DrainCommands() []Command {
	h.cmdMu.Lock()
	defer h.cmdMu.Unlock()
	out := h.commands
	h.commands = nil
	return out
}

// Quit queues a quit command.
func (h *Host) Quit(commands ffi.Handle) ffi.Status {
	if st := h.checkHandle("quit", commands, resCommands); st != ffi.StatusOK {
		return st
	}
	h.pushCommand(Command{Kind: CommandQuit})
	return ffi.StatusOK
}

// CurrentScene returns the name of the last applied scene.
func (h *Host) CurrentScene() string { return h.current }

// ApplyScene replaces the world contents with the entities of s. Physics
// objects of the previous scene are discarded with it.
func (h *Host) ApplyScene(s *data.SceneManifest) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("apply scene %s: %w", s.Name, err)
	}
	h.world.clear()
	h.physics.clear()
	if s.Gravity != nil {
		h.physics.gravity = vec3From(*s.Gravity)
	}
	if _, err := h.spawnAll(s); err != nil {
		return fmt.Errorf("apply scene %s: %w", s.Name, err)
	}
	h.log.Info("scene applied",
		zap.String("scene", s.Name),
		zap.Int("entities", s.EntityCount()),
		zap.Strings("tags", s.AllTags()),
	)
	h.current = s.Name
	return nil
}

// ── Input ──────────────────────────────────────────────────────────

type inputState struct {
	mu    sync.Mutex
	keys  map[ffi.KeyCode]bool
	mouse ffi.Vec2
	pads  map[ffi.GamepadID]*gamepad
}

// PressKey marks key as held.
func (h *Host) PressKey(key ffi.KeyCode) {
	h.input.mu.Lock()
	h.input.keys[key] = true
	h.input.mu.Unlock()
}

// ReleaseKey marks key as released.
func (h *Host) ReleaseKey(key ffi.KeyCode) {
	h.input.mu.Lock()
	delete(h.input.keys, key)
	h.input.mu.Unlock()
}

// MoveMouse sets the cursor position.
func (h *Host) MoveMouse(pos ffi.Vec2) {
	h.input.mu.Lock()
	h.input.mouse = pos
	h.input.mu.Unlock()
}

func (h *Host) IsKeyPressed(input ffi.Handle, key ffi.KeyCode, out *bool) ffi.Status {
	if st := h.checkHandle("is_key_pressed", input, resInput); st != ffi.StatusOK {
		return st
	}
	if out == nil {
		return ffi.StatusNullPointer
	}
	h.input.mu.Lock()
	*out = h.input.keys[key]
	h.input.mu.Unlock()
	return ffi.StatusOK
}

func (h *Host) GetMousePosition(input ffi.Handle, out *ffi.Vec2) ffi.Status {
	if st := h.checkHandle("get_mouse_position", input, resInput); st != ffi.StatusOK {
		return st
	}
	if out == nil {
		return ffi.StatusNullPointer
	}
	h.input.mu.Lock()
	*out = h.input.mouse
	h.input.mu.Unlock()
	return ffi.StatusOK
}
