package host

import (
	"fmt"
	"math"
	"sort"

	"github.com/dropbear/bridge/internal/core/ecs"
	"github.com/dropbear/bridge/internal/data"
	"github.com/dropbear/bridge/internal/ffi"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

type camera struct {
	eye         ffi.Vec3
	target      ffi.Vec3
	up          ffi.Vec3
	fovY        float64
	zNear       float64
	zFar        float64
	yaw         float64
	pitch       float64
	speed       float64
	sensitivity float64
	aspect      float64
}

type meshRenderer struct {
	model     ffi.Handle
	materials []string
	textures  map[string]ffi.Handle
	overrides map[string]ffi.Handle
}

// texture returns the override for material, falling back to the model's
// own texture.
func (m *meshRenderer) texture(material string) ffi.Handle {
	if t, ok := m.overrides[material]; ok {
		return t
	}
	return m.textures[material]
}

type kinematicController struct {
	last ffi.MovementResult
}

// world is the entity side of the host: a generational slot pool plus one
// store per component.
type world struct {
	ecs        *ecs.World
	labels     *ecs.PtrComponentStore[string]
	byLabel    map[string]ecs.Index
	parents    *ecs.PtrComponentStore[ecs.Index]
	children   *ecs.PtrComponentStore[[]ecs.Index]
	transforms *ecs.PtrComponentStore[ffi.EntityTransform]
	cameras    *ecs.PtrComponentStore[camera]
	meshes     *ecs.PtrComponentStore[meshRenderer]
	props      *ecs.PtrComponentStore[propertyBag]
	bodies     *ecs.PtrComponentStore[ecs.Index]
	colliders  *ecs.PtrComponentStore[[]ecs.Index]
	kccs       *ecs.PtrComponentStore[kinematicController]
	tags       *ecs.PtrComponentStore[[]string]
}

func newWorld() *world {
	w := &world{
		ecs:        ecs.NewWorld(),
		labels:     ecs.NewPtrComponentStore[string](),
		byLabel:    make(map[string]ecs.Index),
		parents:    ecs.NewPtrComponentStore[ecs.Index](),
		children:   ecs.NewPtrComponentStore[[]ecs.Index](),
		transforms: ecs.NewPtrComponentStore[ffi.EntityTransform](),
		cameras:    ecs.NewPtrComponentStore[camera](),
		meshes:     ecs.NewPtrComponentStore[meshRenderer](),
		props:      ecs.NewPtrComponentStore[propertyBag](),
		bodies:     ecs.NewPtrComponentStore[ecs.Index](),
		colliders:  ecs.NewPtrComponentStore[[]ecs.Index](),
		kccs:       ecs.NewPtrComponentStore[kinematicController](),
		tags:       ecs.NewPtrComponentStore[[]string](),
	}
	reg := w.ecs.Registry()
	for _, s := range []ecs.Removable{
		w.labels, w.parents, w.children, w.transforms, w.cameras, w.meshes,
		w.props, w.bodies, w.colliders, w.kccs, w.tags,
	} {
		reg.Register(s)
	}
	return w
}

// normalizeLabel folds labels to NFC so visually identical labels match.
func normalizeLabel(s string) string {
	return norm.NFC.String(s)
}

func entityID(i ecs.Index) ffi.EntityID { return ffi.EntityID(i.Slot) }

// resolve maps a boundary id to the slot's current occupant.
func (w *world) resolve(id ffi.EntityID) (ecs.Index, ffi.Status) {
	if id < 0 || id > math.MaxUint32 {
		return ecs.Index{}, ffi.StatusInvalidEntity
	}
	idx, ok := w.ecs.Resolve(uint32(id))
	if !ok {
		return ecs.Index{}, ffi.StatusEntityNotFound
	}
	return idx, ffi.StatusOK
}

func (w *world) create(label string) ecs.Index {
	idx := w.ecs.CreateEntity()
	label = normalizeLabel(label)
	w.labels.Set(idx, &label)
	if label != "" {
		if _, taken := w.byLabel[label]; !taken {
			w.byLabel[label] = idx
		}
	}
	t := ffi.EntityTransform{Local: ffi.IdentityTransform(), World: ffi.IdentityTransform()}
	w.transforms.Set(idx, &t)
	return idx
}

func (w *world) setParent(child, parent ecs.Index) {
	p := parent
	w.parents.Set(child, &p)
	kids, ok := w.children.Get(parent)
	if !ok {
		kids = new([]ecs.Index)
		w.children.Set(parent, kids)
	}
	*kids = append(*kids, child)
}

func (w *world) findByLabel(label string) (ecs.Index, bool) {
	idx, ok := w.byLabel[normalizeLabel(label)]
	if !ok || !w.ecs.Alive(idx) {
		return ecs.Index{}, false
	}
	return idx, true
}

// propagate recomputes the world transform of idx from its parent chain.
func (w *world) propagate(idx ecs.Index) ffi.Transform {
	t, ok := w.transforms.Get(idx)
	if !ok {
		return ffi.IdentityTransform()
	}
	world := t.Local
	if p, ok := w.parents.Get(idx); ok && w.ecs.Alive(*p) {
		world = compose(w.propagate(*p), t.Local)
	}
	t.World = world
	return world
}

// withTag returns the live entities carrying script tag, ordered by id.
func (w *world) withTag(tag string) []ffi.EntityID {
	var out []ffi.EntityID
	w.tags.Each(func(idx ecs.Index, tags *[]string) {
		for _, t := range *tags {
			if t == tag {
				out = append(out, entityID(idx))
				return
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *world) clear() {
	w.ecs.Clear()
	w.byLabel = make(map[string]ecs.Index)
}

func (w *world) count() int { return w.ecs.Pool().Len() }

// spawnAll creates every entity of s. Entities are created first so parents
// can be referenced regardless of file order; a parent label not found in s
// falls back to an existing entity.
func (h *Host) spawnAll(s *data.SceneManifest) ([]ecs.Index, error) {
	w := h.world
	created := make([]ecs.Index, len(s.Entities))
	byLabel := make(map[string]ecs.Index, len(s.Entities))
	for i, spec := range s.Entities {
		created[i] = w.create(spec.Label)
		if spec.Label != "" {
			byLabel[spec.Label] = created[i]
		}
	}
	for i, spec := range s.Entities {
		idx := created[i]
		if spec.Parent != "" {
			parent, ok := byLabel[spec.Parent]
			if !ok {
				parent, ok = w.findByLabel(spec.Parent)
			}
			if !ok {
				return created, fmt.Errorf("entity %q: unknown parent %q", spec.Label, spec.Parent)
			}
			w.setParent(idx, parent)
		}
		if len(spec.Tags) > 0 {
			tags := append([]string(nil), spec.Tags...)
			w.tags.Set(idx, &tags)
		}
		if spec.Transform != nil {
			t, _ := w.transforms.Get(idx)
			t.Local = transformFrom(spec.Transform)
		}
		if spec.Properties != nil {
			w.props.Set(idx, propertyBagFrom(spec.Properties))
		}
		if spec.Camera != nil {
			w.cameras.Set(idx, cameraFrom(spec.Camera))
		}
		if spec.Mesh != nil {
			w.meshes.Set(idx, h.meshFrom(spec.Label, spec.Mesh))
		}
		if spec.Kinematic {
			w.kccs.Set(idx, &kinematicController{})
		}
		h.spawnPhysics(idx, spec)
	}
	for _, idx := range created {
		w.propagate(idx)
	}
	return created, nil
}

func transformFrom(s *data.TransformSpec) ffi.Transform {
	t := ffi.IdentityTransform()
	t.Position = vec3From(s.Position)
	if s.Rotation != nil {
		r := *s.Rotation
		t.Rotation = ffi.Quat{X: r[0], Y: r[1], Z: r[2], W: r[3]}
	}
	if s.Scale != nil {
		t.Scale = vec3From(*s.Scale)
	}
	return t
}

func cameraFrom(s *data.CameraSpec) *camera {
	return &camera{
		eye:         vec3From(s.Eye),
		target:      vec3From(s.Target),
		up:          vec3From(s.Up),
		fovY:        s.FovY,
		zNear:       s.ZNear,
		zFar:        s.ZFar,
		yaw:         s.Yaw,
		pitch:       s.Pitch,
		speed:       s.Speed,
		sensitivity: s.Sensitivity,
		aspect:      s.Aspect,
	}
}

func (h *Host) meshFrom(label string, s *data.MeshSpec) *meshRenderer {
	m := &meshRenderer{
		textures:  make(map[string]ffi.Handle),
		overrides: make(map[string]ffi.Handle),
	}
	model := h.assets.byName[s.Model]
	if model == nil || model.kind != assetModel {
		h.log.Warn("mesh references unknown model", zap.String("entity", label), zap.String("model", s.Model))
		return m
	}
	m.model = model.handle
	m.materials = model.materials()
	for material, texName := range s.Textures {
		tex := h.assets.byName[texName]
		if tex == nil || tex.kind != assetTexture {
			h.log.Warn("mesh references unknown texture", zap.String("entity", label), zap.String("texture", texName))
			continue
		}
		m.textures[material] = tex.handle
	}
	return m
}

// EntitiesWithTag returns the entities carrying a per-entity script tag.
func (h *Host) EntitiesWithTag(tag string) []ffi.EntityID {
	return h.world.withTag(tag)
}

// EntityCount returns the number of live entities.
func (h *Host) EntityCount() int { return h.world.count() }

// SpawnEntity creates an entity outside of any scene file. Parent may name
// any live entity.
func (h *Host) SpawnEntity(spec data.EntitySpec) (ffi.EntityID, error) {
	created, err := h.spawnAll(&data.SceneManifest{Entities: []data.EntitySpec{spec}})
	if err != nil {
		return ffi.AbsentEntity, fmt.Errorf("spawn %q: %w", spec.Label, err)
	}
	return entityID(created[0]), nil
}

// DespawnEntity destroys an entity and its physics objects immediately.
// Children are detached and become roots.
func (h *Host) DespawnEntity(id ffi.EntityID) error {
	if err := h.QueueDespawn(id); err != nil {
		return err
	}
	h.FlushDespawns()
	return nil
}

// QueueDespawn detaches an entity from the hierarchy, the label index and
// physics right away, and defers freeing its slot to FlushDespawns.
func (h *Host) QueueDespawn(id ffi.EntityID) error {
	idx, st := h.world.resolve(id)
	if st != ffi.StatusOK {
		return ffi.Check("despawn", st)
	}
	w := h.world
	if kids, ok := w.children.Get(idx); ok {
		for _, k := range *kids {
			w.parents.Remove(k)
		}
	}
	if p, ok := w.parents.Get(idx); ok {
		if siblings, ok := w.children.Get(*p); ok {
			*siblings = removeIndex(*siblings, idx)
		}
	}
	if label, ok := w.labels.Get(idx); ok && w.byLabel[*label] == idx {
		delete(w.byLabel, *label)
	}
	w.tags.Remove(idx)
	h.physics.removeEntity(idx)
	w.ecs.MarkForDestruction(idx)
	return nil
}

// FlushDespawns frees every queued entity slot.
func (h *Host) FlushDespawns() {
	h.world.ecs.FlushDestroyQueue()
}

// EntityTags returns the per-entity script tags of a live entity.
func (h *Host) EntityTags(id ffi.EntityID) []string {
	idx, st := h.world.resolve(id)
	if st != ffi.StatusOK {
		return nil
	}
	tags, ok := h.world.tags.Get(idx)
	if !ok {
		return nil
	}
	return append([]string(nil), (*tags)...)
}

func removeIndex(list []ecs.Index, idx ecs.Index) []ecs.Index {
	out := list[:0]
	for _, i := range list {
		if i != idx {
			out = append(out, i)
		}
	}
	return out
}
