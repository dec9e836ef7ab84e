package ecs

// World owns a slot pool, the component registry, and a deferred destruction
// queue flushed once per frame.
type World struct {
	pool         *SlotPool
	registry     *Registry
	destroyQueue []Index
}

func NewWorld() *World {
	return &World{
		pool:         NewSlotPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]Index, 0, 64),
	}
}

func (w *World) Pool() *SlotPool     { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() Index {
	return w.pool.Create()
}

func (w *World) Alive(id Index) bool {
	return w.pool.Alive(id)
}

// Resolve maps a bare slot number to its current occupant.
func (w *World) Resolve(slot uint32) (Index, bool) {
	return w.pool.Resolve(slot)
}

// MarkForDestruction queues an entity for end-of-frame cleanup.
func (w *World) MarkForDestruction(id Index) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue destroys all queued entities and clears their components.
func (w *World) FlushDestroyQueue() {
	for _, id := range w.destroyQueue {
		w.registry.RemoveAll(id)
		w.pool.Destroy(id)
	}
	w.destroyQueue = w.destroyQueue[:0]
}

// Clear destroys every live entity immediately. Used when a scene is replaced.
func (w *World) Clear() {
	for slot := uint32(0); slot < w.pool.nextSlot; slot++ {
		if id, ok := w.pool.Resolve(slot); ok {
			w.registry.RemoveAll(id)
			w.pool.Destroy(id)
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
}
