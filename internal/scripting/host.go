package scripting

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/dropbear/bridge/internal/core/event"
	"github.com/dropbear/bridge/internal/facade"
	"github.com/dropbear/bridge/internal/ffi"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// Fault is one script failure caught during dispatch.
type Fault struct {
	Tag      string
	Script   string
	Callback string
	Entity   ffi.EntityID
	Err      error
	At       time.Time
}

// FaultSink receives every caught fault, after it has been logged.
type FaultSink interface {
	RecordFault(f Fault)
}

type instance struct {
	script    Script
	name      string
	destroyed bool
}

// closer is implemented by scripts holding resources beyond an unload.
type closer interface {
	Close()
}

type tagSystems struct {
	tag       string
	instances []*instance
}

func (t *tagSystems) active() bool {
	for _, in := range t.instances {
		if !in.destroyed {
			return true
		}
	}
	return false
}

// Host owns the per-tag script instances. Instances survive a destroy (scene
// exit) and are only discarded by an unload or a registry reload. Dispatch
// holds the read lock; anything that changes the cache or swaps the registry
// holds the write lock.
type Host struct {
	mu       sync.RWMutex
	registry Registry
	engine   *facade.Engine
	log      *zap.Logger
	sink     FaultSink
	tags     map[string]*tagSystems
	order    []string
}

// NewHost builds a script host dispatching through engine.
func NewHost(reg Registry, engine *facade.Engine, log *zap.Logger) *Host {
	if log == nil {
		log = zap.NewNop()
	}
	return &Host{
		registry: reg,
		engine:   engine,
		log:      log,
		tags:     make(map[string]*tagSystems),
	}
}

// SetFaultSink installs a sink for caught faults. nil removes it.
func (h *Host) SetFaultSink(s FaultSink) {
	h.mu.Lock()
	h.sink = s
	h.mu.Unlock()
}

// ── Fault isolation ─────────────────────────────────────────────────

func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrScriptPanic, r)
		}
	}()
	return fn()
}

// invoke runs one callback and records its failure without propagating it.
func (h *Host) invoke(tag string, in *instance, callback string, entity ffi.EntityID, fn func() error) {
	err := protect(fn)
	if err == nil {
		return
	}
	h.log.Error("script callback failed",
		zap.String("tag", tag),
		zap.String("script", in.name),
		zap.String("callback", callback),
		zap.Int64("entity", int64(entity)),
		zap.Error(err),
	)
	if h.sink != nil {
		h.sink.RecordFault(Fault{
			Tag:      tag,
			Script:   in.name,
			Callback: callback,
			Entity:   entity,
			Err:      err,
			At:       time.Now(),
		})
	}
}

// ── Lifecycle ───────────────────────────────────────────────────────

// LoadSystemsForTag calls Load on the tag's instances. Cached instances,
// including destroyed ones, are loaded again rather than rebuilt. Otherwise
// the registry builds them; on a partial failure the built ones are kept and
// the error is returned after they have been loaded.
func (h *Host) LoadSystemsForTag(tag string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine.ClearCurrentEntity()

	if ts, ok := h.tags[tag]; ok {
		for _, in := range ts.instances {
			h.invoke(tag, in, "load", ffi.AbsentEntity, func() error { return in.script.Load(h.engine) })
			in.destroyed = false
		}
		return nil
	}

	scripts, err := h.instantiate(tag)
	if err != nil {
		h.log.Error("instantiate scripts", zap.String("tag", tag), zap.Int("built", len(scripts)), zap.Error(err))
	}
	if len(scripts) == 0 {
		return err
	}
	ts := &tagSystems{tag: tag}
	for _, s := range scripts {
		ts.instances = append(ts.instances, &instance{script: s, name: scriptName(s)})
	}
	h.tags[tag] = ts
	h.order = append(h.order, tag)
	for _, in := range ts.instances {
		h.invoke(tag, in, "load", ffi.AbsentEntity, func() error { return in.script.Load(h.engine) })
	}
	h.log.Debug("scripts loaded", zap.String("tag", tag), zap.Int("count", len(ts.instances)))
	return err
}

func (h *Host) instantiate(tag string) (scripts []Script, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("instantiate %q: %w: %v", tag, ErrScriptPanic, r)
		}
	}()
	return h.registry.Instantiate(tag)
}

// DestroySystemsByTag calls Destroy on the tag's live instances and keeps
// them cached, so a later load resumes their state.
func (h *Host) DestroySystemsByTag(tag string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ts, ok := h.tags[tag]; ok {
		h.destroy(ts)
	}
}

// UnloadSystemsByTag destroys the tag's instances and discards them.
func (h *Host) UnloadSystemsByTag(tag string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unload(tag)
}

// DestroyAll destroys every cached instance without discarding any.
func (h *Host) DestroyAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, tag := range h.order {
		h.destroy(h.tags[tag])
	}
}

// UnloadAll destroys and discards every instance.
func (h *Host) UnloadAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unloadAll()
}

func (h *Host) destroy(ts *tagSystems) {
	h.engine.ClearCurrentEntity()
	for _, in := range ts.instances {
		if in.destroyed {
			continue
		}
		h.invoke(ts.tag, in, "destroy", ffi.AbsentEntity, func() error { return in.script.Destroy(h.engine) })
		in.destroyed = true
	}
}

func (h *Host) unload(tag string) {
	ts, ok := h.tags[tag]
	if !ok {
		return
	}
	h.destroy(ts)
	for _, in := range ts.instances {
		if c, ok := in.script.(closer); ok {
			c.Close()
		}
	}
	delete(h.tags, tag)
	for i, t := range h.order {
		if t == tag {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

func (h *Host) unloadAll() {
	for len(h.order) > 0 {
		h.unload(h.order[0])
	}
}

// Reload prepares a fresh registry from next (or from the current registry
// when next is nil), then discards every instance and swaps it in under the
// write lock. Callers must load their tags again afterwards. If preparing
// fails nothing changes.
func (h *Host) Reload(next Registry) error {
	h.mu.RLock()
	if next == nil {
		next = h.registry
	}
	h.mu.RUnlock()

	next, err := next.Reload()
	if err != nil {
		return fmt.Errorf("reload script registry: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	discarded := h.countLocked()
	h.unloadAll()
	h.registry = next
	h.log.Info("script registry reloaded", zap.Int("discarded", discarded), zap.String("version", version(next)))
	return nil
}

// ── Dispatch ────────────────────────────────────────────────────────

func update(s Script, e *facade.Engine, dt float64) error        { return s.Update(e, dt) }
func physicsUpdate(s Script, e *facade.Engine, dt float64) error { return s.PhysicsUpdate(e, dt) }

// each runs fn on every live instance of ts with no entity context.
func (h *Host) each(ts *tagSystems, name string, dt float64, fn func(Script, *facade.Engine, float64) error) {
	for _, in := range ts.instances {
		if in.destroyed {
			continue
		}
		h.invoke(ts.tag, in, name, ffi.AbsentEntity, func() error { return fn(in.script, h.engine, dt) })
	}
}

func (h *Host) all(name string, dt float64, fn func(Script, *facade.Engine, float64) error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.engine.ClearCurrentEntity()
	for _, tag := range h.order {
		h.each(h.tags[tag], name, dt, fn)
	}
}

func (h *Host) byTag(tag, name string, dt float64, fn func(Script, *facade.Engine, float64) error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.engine.ClearCurrentEntity()
	if ts, ok := h.tags[tag]; ok {
		h.each(ts, name, dt, fn)
	}
}

// forEntities runs fn once per entity per live instance, with that entity as
// the current entity. The context is cleared once every system is done.
func (h *Host) forEntities(tag string, ids []ffi.EntityID, name string, dt float64, fn func(Script, *facade.Engine, float64) error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ts, ok := h.tags[tag]
	if !ok {
		return
	}
	defer h.engine.ClearCurrentEntity()
	for _, in := range ts.instances {
		if in.destroyed {
			continue
		}
		for _, id := range ids {
			h.engine.SetCurrentEntity(id)
			h.invoke(tag, in, name, id, func() error { return fn(in.script, h.engine, dt) })
		}
	}
}

// UpdateAllSystems calls Update on every live instance in tag load order.
func (h *Host) UpdateAllSystems(dt float64) { h.all("update", dt, update) }

// PhysicsUpdateAllSystems calls PhysicsUpdate on every live instance.
func (h *Host) PhysicsUpdateAllSystems(dt float64) { h.all("physics_update", dt, physicsUpdate) }

func (h *Host) UpdateSystemsByTag(tag string, dt float64) { h.byTag(tag, "update", dt, update) }

func (h *Host) PhysicsUpdateSystemsByTag(tag string, dt float64) {
	h.byTag(tag, "physics_update", dt, physicsUpdate)
}

func (h *Host) UpdateSystemsForEntities(tag string, ids []ffi.EntityID, dt float64) {
	h.forEntities(tag, ids, "update", dt, update)
}

func (h *Host) PhysicsUpdateSystemsForEntities(tag string, ids []ffi.EntityID, dt float64) {
	h.forEntities(tag, ids, "physics_update", dt, physicsUpdate)
}

// CollisionEvent delivers ev to every live CollisionHandler of tag with
// entity as the current entity. Delivery continues past failing handlers.
func (h *Host) CollisionEvent(tag string, entity ffi.EntityID, ev event.Collision) {
	h.deliver(tag, entity, "collision", func(c CollisionHandler) error { return c.CollisionEvent(h.engine, ev) })
}

// CollisionForceEvent is CollisionEvent for contact force reports.
func (h *Host) CollisionForceEvent(tag string, entity ffi.EntityID, ev event.CollisionForce) {
	h.deliver(tag, entity, "collision_force", func(c CollisionHandler) error { return c.CollisionForceEvent(h.engine, ev) })
}

func (h *Host) deliver(tag string, entity ffi.EntityID, name string, fn func(CollisionHandler) error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ts, ok := h.tags[tag]
	if !ok {
		return
	}
	h.engine.SetCurrentEntity(entity)
	defer h.engine.ClearCurrentEntity()
	for _, in := range ts.instances {
		c, ok := in.script.(CollisionHandler)
		if !ok || in.destroyed {
			continue
		}
		h.invoke(tag, in, name, entity, func() error { return fn(c) })
	}
}

// ── Introspection ───────────────────────────────────────────────────

// ActiveTags lists tags with at least one live instance, in load order.
func (h *Host) ActiveTags() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []string
	for _, tag := range h.order {
		if h.tags[tag].active() {
			out = append(out, tag)
		}
	}
	return out
}

// SystemCount returns the number of cached instances for tag.
func (h *Host) SystemCount(tag string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if ts, ok := h.tags[tag]; ok {
		return len(ts.instances)
	}
	return 0
}

// HasSystems reports whether tag has cached instances.
func (h *Host) HasSystems(tag string) bool { return h.SystemCount(tag) > 0 }

// TotalSystems returns the number of cached instances across all tags.
func (h *Host) TotalSystems() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked()
}

func (h *Host) countLocked() int {
	n := 0
	for _, ts := range h.tags {
		n += len(ts.instances)
	}
	return n
}

// Version is a BLAKE2b-256 digest of the registry source, or "" when the
// registry does not expose one.
func (h *Host) Version() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return version(h.registry)
}

func version(r Registry) string {
	s, ok := r.(Sourced)
	if !ok {
		return ""
	}
	sum := blake2b.Sum256(s.Source())
	return hex.EncodeToString(sum[:])
}
