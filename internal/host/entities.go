package host

import (
	"github.com/dropbear/bridge/internal/core/ecs"
	"github.com/dropbear/bridge/internal/ffi"
)

// entity validates the world handle and resolves id.
func (h *Host) entity(op string, world ffi.Handle, id ffi.EntityID) (ecs.Index, ffi.Status) {
	if st := h.checkHandle(op, world, resWorld); st != ffi.StatusOK {
		return ecs.Index{}, st
	}
	idx, st := h.world.resolve(id)
	if st != ffi.StatusOK {
		return ecs.Index{}, h.fail(op, st, "entity %d", id)
	}
	return idx, ffi.StatusOK
}

// hasComponent answers an existence query. A missing entity is a failure;
// a missing component is a plain false.
func (h *Host) hasComponent(op string, world ffi.Handle, id ffi.EntityID, out *bool, has func(ecs.Index) bool) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	idx, st := h.entity(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	*out = has(idx)
	return ffi.StatusOK
}

func (h *Host) GetEntity(world ffi.Handle, label ffi.Bytes, out *ffi.EntityID) ffi.Status {
	const op = "get_entity"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, world, resWorld); st != ffi.StatusOK {
		return st
	}
	name, st := h.copyIn(op, label)
	if st != ffi.StatusOK {
		return st
	}
	idx, ok := h.world.findByLabel(name)
	if !ok {
		*out = ffi.AbsentEntity
		return ffi.StatusOK
	}
	*out = entityID(idx)
	return ffi.StatusOK
}

func (h *Host) EntityExists(world ffi.Handle, id ffi.EntityID, out *bool) ffi.Status {
	const op = "entity_exists"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, world, resWorld); st != ffi.StatusOK {
		return st
	}
	_, st := h.world.resolve(id)
	switch st {
	case ffi.StatusOK:
		*out = true
	case ffi.StatusEntityNotFound:
		*out = false
	default:
		return h.fail(op, st, "entity %d", id)
	}
	return ffi.StatusOK
}

func (h *Host) GetEntityLabel(world ffi.Handle, id ffi.EntityID, buf *ffi.FixedBuffer) ffi.Status {
	const op = "get_entity_label"
	if buf == nil {
		return ffi.StatusNullPointer
	}
	idx, st := h.entity(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	label := ""
	if l, ok := h.world.labels.Get(idx); ok {
		label = *l
	}
	if st := buf.Fill([]byte(label)); st != ffi.StatusOK {
		return h.fail(op, st, "label needs %d bytes, buffer holds %d", buf.N, len(buf.Buf))
	}
	return ffi.StatusOK
}

func (h *Host) GetParent(world ffi.Handle, id ffi.EntityID, out *ffi.EntityID) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	idx, st := h.entity("get_parent", world, id)
	if st != ffi.StatusOK {
		return st
	}
	p, ok := h.world.parents.Get(idx)
	if !ok || !h.world.ecs.Alive(*p) {
		*out = ffi.AbsentEntity
		return ffi.StatusOK
	}
	*out = entityID(*p)
	return ffi.StatusOK
}

func (h *Host) liveChildren(idx ecs.Index) []ecs.Index {
	kids, ok := h.world.children.Get(idx)
	if !ok {
		return nil
	}
	out := make([]ecs.Index, 0, len(*kids))
	for _, k := range *kids {
		if h.world.ecs.Alive(k) {
			out = append(out, k)
		}
	}
	return out
}

func (h *Host) GetChildren(world ffi.Handle, id ffi.EntityID, out *ffi.Array[ffi.EntityID]) ffi.Status {
	if out == nil {
		return ffi.StatusNullPointer
	}
	idx, st := h.entity("get_children", world, id)
	if st != ffi.StatusOK {
		return st
	}
	kids := h.liveChildren(idx)
	ids := make([]ffi.EntityID, len(kids))
	for i, k := range kids {
		ids[i] = entityID(k)
	}
	*out = allocArray(h.arena, ids)
	return ffi.StatusOK
}

func (h *Host) GetChildByLabel(world ffi.Handle, id ffi.EntityID, label ffi.Bytes, out *ffi.EntityID) ffi.Status {
	const op = "get_child_by_label"
	if out == nil {
		return ffi.StatusNullPointer
	}
	idx, st := h.entity(op, world, id)
	if st != ffi.StatusOK {
		return st
	}
	name, st := h.copyIn(op, label)
	if st != ffi.StatusOK {
		return st
	}
	name = normalizeLabel(name)
	*out = ffi.AbsentEntity
	for _, k := range h.liveChildren(idx) {
		if l, ok := h.world.labels.Get(k); ok && *l == name {
			*out = entityID(k)
			break
		}
	}
	return ffi.StatusOK
}
