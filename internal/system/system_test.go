package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropbear/bridge/internal/core/event"
	coresys "github.com/dropbear/bridge/internal/core/system"
	"github.com/dropbear/bridge/internal/data"
	"github.com/dropbear/bridge/internal/facade"
	"github.com/dropbear/bridge/internal/ffi"
	"github.com/dropbear/bridge/internal/handles"
	"github.com/dropbear/bridge/internal/host"
	"github.com/dropbear/bridge/internal/scripting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// counter records callbacks for one script instance.
type counter struct {
	name     string
	loads    int
	updates  int
	physics  int
	destroys int
	entities []ffi.EntityID
	hits     []event.Collision
}

func (c *counter) Name() string { return c.name }

func (c *counter) Load(*facade.Engine) error {
	c.loads++
	return nil
}

func (c *counter) Update(e *facade.Engine, _ float64) error {
	c.updates++
	if cur, ok := e.CurrentEntity(); ok {
		c.entities = append(c.entities, cur.ID)
	}
	return nil
}

func (c *counter) PhysicsUpdate(*facade.Engine, float64) error {
	c.physics++
	return nil
}

func (c *counter) Destroy(*facade.Engine) error {
	c.destroys++
	return nil
}

func (c *counter) CollisionEvent(e *facade.Engine, ev event.Collision) error {
	c.hits = append(c.hits, ev)
	if cur, ok := e.CurrentEntity(); ok {
		c.entities = append(c.entities, cur.ID)
	}
	return nil
}

func (c *counter) CollisionForceEvent(*facade.Engine, event.CollisionForce) error { return nil }

type flushCounter struct {
	n   int
	err error
}

func (f *flushCounter) Flush(context.Context) error {
	f.n++
	return f.err
}

type frame struct {
	host     *host.Host
	engine   *facade.Engine
	scripts  *scripting.Host
	stage    *Stage
	physics  *PhysicsSystem
	loop     *Loop
	input    chan InputEvent
	journal  *flushCounter
	switched []event.SceneSwitched
	byName   map[string]*counter
}

func newFrame(t *testing.T) *frame {
	t.Helper()
	assets, err := data.LoadAssetTable("testdata/assets.yaml")
	require.NoError(t, err)
	h := host.New(host.Options{ScenesDir: "testdata/scenes", Assets: assets}, zap.NewNop())
	t.Cleanup(h.Close)
	reg, err := handles.Init(h.Handles(), ffi.Policy{Strict: true}, zap.NewNop())
	require.NoError(t, err)
	eng := facade.New(h, reg)

	f := &frame{
		host:    h,
		engine:  eng,
		input:   make(chan InputEvent, 8),
		journal: &flushCounter{},
		byName:  make(map[string]*counter),
	}
	factory := func(name string) scripting.Factory {
		return func() scripting.Script {
			c := &counter{name: name}
			f.byName[name] = c
			return c
		}
	}
	registry := scripting.NewStaticRegistry().
		Register("player", "Mover", factory("Mover")).
		Register("world", "Clock", factory("Clock")).
		Register("boss", "BossAI", factory("BossAI"))
	f.scripts = scripting.NewHost(registry, eng, zap.NewNop())
	f.stage = NewStage(h, f.scripts, zap.NewNop())
	event.Subscribe(h.Bus(), func(ev event.SceneSwitched) { f.switched = append(f.switched, ev) })

	runner := coresys.NewRunner()
	f.loop = NewLoop(runner, time.Millisecond, zap.NewNop())
	f.physics = NewPhysicsSystem(h, f.stage, 20*time.Millisecond, 5, zap.NewNop())
	runner.Register(NewCleanupSystem(h, zap.NewNop()))
	runner.Register(NewPersistenceSystem(f.journal, 100*time.Millisecond, zap.NewNop()))
	runner.Register(NewCommandSystem(h, f.stage, f.loop.Stop, zap.NewNop()))
	runner.Register(NewEventSystem(h.Bus(), h, f.scripts, zap.NewNop()))
	runner.Register(NewUpdateSystem(f.stage))
	runner.Register(f.physics)
	runner.Register(NewInputSystem(h, f.input, 4))

	level1, err := h.LoadScene("level1")
	require.NoError(t, err)
	require.NoError(t, f.stage.Enter(level1))
	return f
}

func (f *frame) entity(t *testing.T, label string) ffi.EntityID {
	t.Helper()
	e, found, err := f.engine.Entity(label)
	require.NoError(t, err)
	require.True(t, found, label)
	return e.ID
}

func TestStage_EnterLoadsSceneAndEntityTags(t *testing.T) {
	f := newFrame(t)
	assert.Equal(t, "level1", f.stage.Scene())
	assert.Equal(t, []string{"world", "player"}, f.stage.Tags())
	assert.Equal(t, 1, f.byName["Clock"].loads)
	assert.Equal(t, 1, f.byName["Mover"].loads)
	assert.NotContains(t, f.byName, "BossAI")
}

func TestStage_InvalidSceneKeepsCurrent(t *testing.T) {
	f := newFrame(t)
	entities := f.host.EntityCount()
	broken := &data.SceneManifest{
		Name: "broken",
		Tags: []string{"boss"},
		Entities: []data.EntitySpec{
			{Label: "orphan", Parent: "nobody"},
		},
	}

	require.Error(t, f.stage.Enter(broken))
	assert.Equal(t, "level1", f.stage.Scene())
	assert.Equal(t, []string{"world", "player"}, f.stage.Tags())
	assert.Zero(t, f.byName["Clock"].destroys)
	assert.Zero(t, f.byName["Mover"].destroys)
	assert.Equal(t, entities, f.host.EntityCount())
	f.entity(t, "player")
}

func TestPhysics_FixedStep(t *testing.T) {
	f := newFrame(t)
	mover, clock := f.byName["Mover"], f.byName["Clock"]

	f.loop.Step(50 * time.Millisecond)
	assert.Equal(t, uint64(2), f.physics.Steps())
	assert.Equal(t, 2, clock.physics, "scene tag runs once per step")
	assert.Equal(t, 4, mover.physics, "entity tag runs once per tagged entity per step")
	assert.Equal(t, 1, clock.updates)
	assert.Equal(t, 2, mover.updates)

	f.loop.Step(50 * time.Millisecond)
	assert.Equal(t, uint64(5), f.physics.Steps(), "the 10ms remainder carries over")

	f.loop.Step(time.Second)
	assert.Equal(t, uint64(10), f.physics.Steps(), "backlog beyond five steps is dropped")

	f.loop.Step(10 * time.Millisecond)
	assert.Equal(t, uint64(10), f.physics.Steps())
	assert.Equal(t, 4, clock.updates, "update runs every frame")
}

func TestUpdate_EntityContextPerTaggedEntity(t *testing.T) {
	f := newFrame(t)
	player, sword := f.entity(t, "player"), f.entity(t, "sword")

	f.loop.Step(time.Millisecond)
	assert.ElementsMatch(t, []ffi.EntityID{player, sword}, f.byName["Mover"].entities)
	assert.Empty(t, f.byName["Clock"].entities, "scene tags run without a current entity")
	_, ok := f.engine.CurrentEntity()
	assert.False(t, ok)
}

func TestCommands_SceneSwitch(t *testing.T) {
	f := newFrame(t)
	f.loop.Step(time.Millisecond)
	require.Equal(t, []event.SceneSwitched{{From: "", To: "level1"}}, f.switched)

	scenes := f.engine.Scenes()
	h, err := scenes.LoadAsync("level2")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		done, err := h.IsComplete()
		return err == nil && done
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, scenes.SwitchTo(h))

	f.loop.Step(time.Millisecond)
	assert.Equal(t, "level2", f.stage.Scene())
	assert.Equal(t, 1, f.byName["Mover"].destroys)
	assert.Equal(t, 1, f.byName["Clock"].destroys)
	assert.Equal(t, 2, f.byName["Clock"].loads, "shared tag is loaded again, not rebuilt")
	require.Contains(t, f.byName, "BossAI")
	assert.Equal(t, 1, f.byName["BossAI"].loads)
	assert.Equal(t, []string{"world", "boss"}, f.scripts.ActiveTags())

	f.loop.Step(time.Millisecond)
	require.Len(t, f.switched, 2)
	assert.Equal(t, event.SceneSwitched{From: "level1", To: "level2"}, f.switched[1])
}

func TestCommands_Quit(t *testing.T) {
	f := newFrame(t)
	require.NoError(t, f.engine.Quit())
	assert.False(t, f.loop.Stopped(), "quit is applied by the frame loop")
	f.loop.Step(time.Millisecond)
	assert.True(t, f.loop.Stopped())
}

func TestEvents_CollisionReachesOwnerTags(t *testing.T) {
	f := newFrame(t)
	player, wall := f.entity(t, "player"), f.entity(t, "wall")
	pc, wc := f.host.ColliderIndices(player), f.host.ColliderIndices(wall)
	require.NotEmpty(t, pc)
	require.NotEmpty(t, wc)
	require.NoError(t, f.host.ReportContact(pc[0], wc[0], event.CollisionStarted))

	mover := f.byName["Mover"]
	f.loop.Step(time.Millisecond)

	require.Len(t, mover.hits, 1)
	assert.Equal(t, event.CollisionStarted, mover.hits[0].Kind)
	assert.Equal(t, player, mover.entities[len(mover.entities)-1], "delivered with the owner as current entity")
	assert.Empty(t, f.byName["Clock"].hits, "scene tags own no colliders")

	f.loop.Step(time.Millisecond)
	assert.Len(t, mover.hits, 1, "events are delivered once")
}

func TestInput_SnapshotBeforeScripts(t *testing.T) {
	f := newFrame(t)
	key := ffi.KeyCode(65)
	f.input <- InputEvent{Key: key, Pressed: true}
	f.input <- InputEvent{Mouse: &ffi.Vec2{X: 3, Y: 4}}

	pressed, err := f.engine.Input().IsKeyPressed(key)
	require.NoError(t, err)
	assert.False(t, pressed)

	f.loop.Step(time.Millisecond)
	pressed, err = f.engine.Input().IsKeyPressed(key)
	require.NoError(t, err)
	assert.True(t, pressed)
	pos, err := f.engine.Input().MousePosition()
	require.NoError(t, err)
	assert.Equal(t, ffi.Vec2{X: 3, Y: 4}, pos)

	f.input <- InputEvent{Key: key}
	f.loop.Step(time.Millisecond)
	pressed, err = f.engine.Input().IsKeyPressed(key)
	require.NoError(t, err)
	assert.False(t, pressed)
}

func TestInput_Gamepad(t *testing.T) {
	f := newFrame(t)
	f.input <- InputEvent{Gamepad: &GamepadEvent{Pad: 3, Change: GamepadConnected}}
	f.input <- InputEvent{Gamepad: &GamepadEvent{Pad: 3, Change: GamepadButtonChanged, Button: ffi.ButtonStart, Pressed: true}}
	f.input <- InputEvent{Gamepad: &GamepadEvent{Pad: 3, Change: GamepadStickMoved, Stick: ffi.StickLeft, Position: ffi.Vec2{X: -1}}}
	f.loop.Step(time.Millisecond)

	down, err := f.engine.Input().IsGamepadButtonPressed(3, ffi.ButtonStart)
	require.NoError(t, err)
	assert.True(t, down)
	left, err := f.engine.Input().LeftStick(3)
	require.NoError(t, err)
	assert.Equal(t, ffi.Vec2{X: -1}, left)

	f.input <- InputEvent{Gamepad: &GamepadEvent{Pad: 3, Change: GamepadDisconnected}}
	f.loop.Step(time.Millisecond)
	_, err = f.engine.Input().IsGamepadButtonPressed(3, ffi.ButtonStart)
	assert.ErrorIs(t, err, ffi.ErrGamepadNotFound)
}

func TestPersistence_FlushInterval(t *testing.T) {
	f := newFrame(t)
	f.loop.Step(60 * time.Millisecond)
	assert.Zero(t, f.journal.n)
	f.loop.Step(60 * time.Millisecond)
	assert.Equal(t, 1, f.journal.n)

	f.journal.err = errors.New("db down")
	f.loop.Step(100 * time.Millisecond)
	assert.Equal(t, 2, f.journal.n, "a failed flush does not stop the loop")
	assert.Equal(t, uint64(3), f.loop.Frames())
}

func TestCleanup_FlushesDespawns(t *testing.T) {
	f := newFrame(t)
	wall := f.entity(t, "wall")
	require.NoError(t, f.host.QueueDespawn(wall))

	_, found, err := f.engine.Entity("wall")
	require.NoError(t, err)
	assert.False(t, found, "label is released immediately")
	exists, err := f.engine.EntityByID(wall).Exists()
	require.NoError(t, err)
	assert.True(t, exists, "slot lives until cleanup")

	f.loop.Step(time.Millisecond)
	exists, err = f.engine.EntityByID(wall).Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoop_Run(t *testing.T) {
	f := newFrame(t)
	require.NoError(t, f.loop.Run(context.Background(), 3))
	assert.Equal(t, uint64(3), f.loop.Frames())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := newFrame(t)
	assert.ErrorIs(t, g.loop.Run(ctx, 0), context.Canceled)

	h := newFrame(t)
	require.NoError(t, h.engine.Quit())
	require.NoError(t, h.loop.Run(context.Background(), 100))
	assert.Equal(t, uint64(1), h.loop.Frames(), "quit ends the loop after the frame")
}
