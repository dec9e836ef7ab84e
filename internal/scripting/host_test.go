package scripting

import (
	"errors"
	"sync"
	"testing"

	"github.com/dropbear/bridge/internal/core/event"
	"github.com/dropbear/bridge/internal/data"
	"github.com/dropbear/bridge/internal/facade"
	"github.com/dropbear/bridge/internal/ffi"
	"github.com/dropbear/bridge/internal/handles"
	"github.com/dropbear/bridge/internal/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEngine(t *testing.T) (*host.Host, *facade.Engine) {
	t.Helper()
	assets, err := data.LoadAssetTable("testdata/assets.yaml")
	require.NoError(t, err)
	h := host.New(host.Options{ScenesDir: "testdata/scenes", Assets: assets}, zap.NewNop())
	t.Cleanup(h.Close)
	scene, err := h.LoadScene("level1")
	require.NoError(t, err)
	require.NoError(t, h.ApplyScene(scene))
	reg, err := handles.Init(h.Handles(), ffi.Policy{Strict: true}, zap.NewNop())
	require.NoError(t, err)
	return h, facade.New(h, reg)
}

// recorder counts callbacks and remembers the entity context each one saw.
type recorder struct {
	name     string
	fail     error
	panics   bool
	loads    int
	updates  []float64
	physics  int
	destroys int
	engines  []*facade.Engine
	entities []ffi.EntityID
	hits     []event.Collision
	forces   int
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) seen(e *facade.Engine) {
	r.engines = append(r.engines, e)
	if cur, ok := e.CurrentEntity(); ok {
		r.entities = append(r.entities, cur.ID)
	} else {
		r.entities = append(r.entities, ffi.AbsentEntity)
	}
}

func (r *recorder) outcome() error {
	if r.panics {
		panic("boom")
	}
	return r.fail
}

func (r *recorder) Load(e *facade.Engine) error {
	r.loads++
	return nil
}

func (r *recorder) Update(e *facade.Engine, dt float64) error {
	r.updates = append(r.updates, dt)
	r.seen(e)
	return r.outcome()
}

func (r *recorder) PhysicsUpdate(e *facade.Engine, dt float64) error {
	r.physics++
	r.seen(e)
	return r.outcome()
}

func (r *recorder) Destroy(e *facade.Engine) error {
	r.destroys++
	return nil
}

func (r *recorder) CollisionEvent(e *facade.Engine, ev event.Collision) error {
	r.hits = append(r.hits, ev)
	r.seen(e)
	return r.outcome()
}

func (r *recorder) CollisionForceEvent(e *facade.Engine, ev event.CollisionForce) error {
	r.forces++
	r.seen(e)
	return r.outcome()
}

type sinkStub struct {
	mu     sync.Mutex
	faults []Fault
}

func (s *sinkStub) RecordFault(f Fault) {
	s.mu.Lock()
	s.faults = append(s.faults, f)
	s.mu.Unlock()
}

// built collects every instance a registry creates.
type built struct{ all []*recorder }

func (b *built) factory(name string, configure func(*recorder)) Factory {
	return func() Script {
		r := &recorder{name: name}
		if configure != nil {
			configure(r)
		}
		b.all = append(b.all, r)
		return r
	}
}

func TestHost_PlayerScenario(t *testing.T) {
	_, eng := newEngine(t)
	var b built
	reg := NewStaticRegistry().Register("player", "PlayerController", b.factory("PlayerController", nil))
	h := NewHost(reg, eng, zap.NewNop())

	require.NoError(t, h.LoadSystemsForTag("player"))
	require.Len(t, b.all, 1)
	script := b.all[0]
	assert.Equal(t, 1, script.loads)
	assert.Empty(t, script.updates)

	h.UpdateSystemsByTag("player", 0.016)
	require.Equal(t, []float64{0.016}, script.updates)
	assert.Same(t, eng, script.engines[0])

	h.UnloadSystemsByTag("player")
	assert.Equal(t, 1, script.destroys)
	assert.NotContains(t, h.ActiveTags(), "player")
	assert.False(t, h.HasSystems("player"))
}

func TestHost_FailingScriptDoesNotStopSiblings(t *testing.T) {
	_, eng := newEngine(t)
	var b built
	reg := NewStaticRegistry().
		Register("enemy", "Faulty", b.factory("Faulty", func(r *recorder) { r.fail = errors.New("bad update") })).
		Register("enemy", "Healthy", b.factory("Healthy", nil)).
		Register("boss", "Panicky", b.factory("Panicky", func(r *recorder) { r.panics = true }))
	h := NewHost(reg, eng, zap.NewNop())
	sink := &sinkStub{}
	h.SetFaultSink(sink)

	require.NoError(t, h.LoadSystemsForTag("enemy"))
	require.NoError(t, h.LoadSystemsForTag("boss"))
	require.Len(t, b.all, 3)

	h.UpdateAllSystems(0.5)
	for _, r := range b.all {
		assert.Len(t, r.updates, 1, r.name)
	}

	require.Len(t, sink.faults, 2)
	assert.Equal(t, "enemy", sink.faults[0].Tag)
	assert.Equal(t, "Faulty", sink.faults[0].Script)
	assert.Equal(t, "update", sink.faults[0].Callback)
	assert.Equal(t, "Panicky", sink.faults[1].Script)
	assert.ErrorIs(t, sink.faults[1].Err, ErrScriptPanic)
}

func TestHost_DestroyKeepsInstancesUnloadDiscards(t *testing.T) {
	_, eng := newEngine(t)
	var b built
	reg := NewStaticRegistry().Register("t", "Counter", b.factory("Counter", nil))
	h := NewHost(reg, eng, zap.NewNop())

	require.NoError(t, h.LoadSystemsForTag("t"))
	first := b.all[0]

	h.DestroySystemsByTag("t")
	assert.Equal(t, 1, first.destroys)
	assert.NotContains(t, h.ActiveTags(), "t")
	assert.Equal(t, 1, h.SystemCount("t"))
	h.UpdateAllSystems(1)
	assert.Empty(t, first.updates, "destroyed instances are not dispatched")

	require.NoError(t, h.LoadSystemsForTag("t"))
	require.Len(t, b.all, 1, "no re-instantiation after destroy")
	assert.Equal(t, 2, first.loads)
	assert.Contains(t, h.ActiveTags(), "t")

	h.UnloadSystemsByTag("t")
	require.NoError(t, h.LoadSystemsForTag("t"))
	require.Len(t, b.all, 2, "unload discards instances")
	assert.Equal(t, 1, b.all[1].loads)
	assert.Equal(t, 2, first.destroys)
}

func TestHost_PartialInstantiationIsKept(t *testing.T) {
	_, eng := newEngine(t)
	var b built
	reg := NewStaticRegistry().
		Register("t", "Good", b.factory("Good", nil)).
		Register("t", "Bad", func() Script { panic("constructor failed") }).
		Register("t", "Nil", func() Script { return nil })
	h := NewHost(reg, eng, zap.NewNop())

	err := h.LoadSystemsForTag("t")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScriptPanic)
	assert.Equal(t, 1, h.SystemCount("t"))
	assert.Equal(t, 1, b.all[0].loads)

	assert.NoError(t, h.LoadSystemsForTag("unknown"))
	assert.False(t, h.HasSystems("unknown"))
}

func TestHost_EntityContextNeverLeaks(t *testing.T) {
	_, eng := newEngine(t)
	var b built
	reg := NewStaticRegistry().
		Register("player", "A", b.factory("A", nil)).
		Register("player", "B", b.factory("B", nil))
	h := NewHost(reg, eng, zap.NewNop())
	require.NoError(t, h.LoadSystemsForTag("player"))

	ids := []ffi.EntityID{0, 1}
	h.UpdateSystemsForEntities("player", ids, 0.1)
	for _, r := range b.all {
		assert.Equal(t, ids, r.entities, r.name)
	}
	_, ok := eng.CurrentEntity()
	assert.False(t, ok)

	h.PhysicsUpdateSystemsForEntities("player", ids[:1], 0.02)
	h.UpdateAllSystems(0.1)
	h.PhysicsUpdateAllSystems(0.02)
	h.PhysicsUpdateSystemsByTag("player", 0.02)
	for _, r := range b.all {
		assert.Equal(t, []ffi.EntityID{0, 1, 0, ffi.AbsentEntity, ffi.AbsentEntity, ffi.AbsentEntity}, r.entities, r.name)
		assert.Equal(t, 3, r.physics)
	}
}

func TestHost_CollisionDelivery(t *testing.T) {
	_, eng := newEngine(t)
	var b built
	reg := NewStaticRegistry().
		Register("player", "Faulty", b.factory("Faulty", func(r *recorder) { r.fail = errors.New("nope") })).
		Register("player", "Healthy", b.factory("Healthy", nil))
	h := NewHost(reg, eng, zap.NewNop())
	sink := &sinkStub{}
	h.SetFaultSink(sink)
	require.NoError(t, h.LoadSystemsForTag("player"))

	ev := event.Collision{Kind: event.CollisionStarted, A: ffi.ColliderRef{Entity: 0}, B: ffi.ColliderRef{Entity: 3}}
	h.CollisionEvent("player", 0, ev)
	h.CollisionForceEvent("player", 0, event.CollisionForce{TotalMagnitude: 4})
	for _, r := range b.all {
		require.Len(t, r.hits, 1, r.name)
		assert.Equal(t, ev, r.hits[0])
		assert.Equal(t, 1, r.forces)
		assert.Equal(t, []ffi.EntityID{0, 0}, r.entities)
	}
	require.Len(t, sink.faults, 2)
	assert.Equal(t, ffi.EntityID(0), sink.faults[0].Entity)
	assert.Equal(t, "collision_force", sink.faults[1].Callback)

	_, ok := eng.CurrentEntity()
	assert.False(t, ok)
}

type failingRegistry struct{ *StaticRegistry }

func (failingRegistry) Reload() (Registry, error) { return nil, errors.New("source unavailable") }

func TestHost_ReloadLeavesNothingActive(t *testing.T) {
	_, eng := newEngine(t)
	var b built
	reg := NewStaticRegistry().
		Register("a", "A", b.factory("A", nil)).
		Register("b", "B", b.factory("B", nil))
	h := NewHost(reg, eng, zap.NewNop())
	require.NoError(t, h.LoadSystemsForTag("a"))
	require.NoError(t, h.LoadSystemsForTag("b"))
	before := h.Version()
	require.NotEmpty(t, before)

	err := h.Reload(failingRegistry{NewStaticRegistry()})
	require.Error(t, err)
	assert.Equal(t, 2, h.TotalSystems(), "a failed reload changes nothing")

	next := NewStaticRegistry().Register("a", "A2", b.factory("A2", nil))
	require.NoError(t, h.Reload(next))
	assert.Zero(t, h.TotalSystems())
	assert.Empty(t, h.ActiveTags())
	for _, r := range b.all {
		assert.Equal(t, 1, r.destroys, r.name)
	}
	assert.NotEqual(t, before, h.Version())

	require.NoError(t, h.LoadSystemsForTag("a"))
	assert.Equal(t, "A2", b.all[len(b.all)-1].name)
	assert.Equal(t, []string{"a"}, h.ActiveTags())
}

func TestHost_DestroyAllAndUnloadAll(t *testing.T) {
	_, eng := newEngine(t)
	var b built
	reg := NewStaticRegistry().
		Register("a", "A", b.factory("A", nil)).
		Register("b", "B", b.factory("B", nil))
	h := NewHost(reg, eng, zap.NewNop())
	require.NoError(t, h.LoadSystemsForTag("a"))
	require.NoError(t, h.LoadSystemsForTag("b"))

	h.DestroyAll()
	assert.Empty(t, h.ActiveTags())
	assert.Equal(t, 2, h.TotalSystems())

	h.UnloadAll()
	assert.Zero(t, h.TotalSystems())
	for _, r := range b.all {
		assert.Equal(t, 1, r.destroys, "destroy runs once per instance")
	}
}
