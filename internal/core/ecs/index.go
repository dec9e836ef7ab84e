package ecs

// Index is a generation-checked reference to a slot. A slot that is freed and
// reused receives a new generation, so a reference to the previous occupant
// never compares equal to a reference to the new one.
type Index struct {
	Slot       uint32
	Generation uint32
}

// Equal reports whether both the slot and the generation match.
func (i Index) Equal(o Index) bool {
	return i.Slot == o.Slot && i.Generation == o.Generation
}

// Pack encodes the slot in the lower 32 bits and the generation in the upper 32 bits.
func (i Index) Pack() uint64 {
	return uint64(i.Generation)<<32 | uint64(i.Slot)
}

// UnpackIndex is the inverse of Pack.
func UnpackIndex(v uint64) Index {
	return Index{Slot: uint32(v), Generation: uint32(v >> 32)}
}

// SlotPool manages slot allocation with generational indices and a free list.
type SlotPool struct {
	generations []uint32
	live        []bool
	freeList    []uint32
	nextSlot    uint32
}

func NewSlotPool() *SlotPool {
	return &SlotPool{
		generations: make([]uint32, 0, 1024),
		live:        make([]bool, 0, 1024),
		freeList:    make([]uint32, 0, 256),
	}
}

func (p *SlotPool) Create() Index {
	if len(p.freeList) > 0 {
		slot := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		p.live[slot] = true
		return Index{Slot: slot, Generation: p.generations[slot]}
	}
	slot := p.nextSlot
	p.nextSlot++
	p.generations = append(p.generations, 0)
	p.live = append(p.live, true)
	return Index{Slot: slot, Generation: 0}
}

func (p *SlotPool) Alive(i Index) bool {
	if i.Slot >= p.nextSlot {
		return false
	}
	return p.live[i.Slot] && p.generations[i.Slot] == i.Generation
}

// Resolve returns the current occupant of a slot. Callers holding only a slot
// number (no generation) get whatever lives there now.
func (p *SlotPool) Resolve(slot uint32) (Index, bool) {
	if slot >= p.nextSlot || !p.live[slot] {
		return Index{}, false
	}
	return Index{Slot: slot, Generation: p.generations[slot]}, true
}

// Destroy frees the slot and bumps its generation. Stale references are ignored.
func (p *SlotPool) Destroy(i Index) bool {
	if !p.Alive(i) {
		return false
	}
	p.generations[i.Slot]++
	p.live[i.Slot] = false
	p.freeList = append(p.freeList, i.Slot)
	return true
}

// Len returns the number of live slots.
func (p *SlotPool) Len() int {
	return int(p.nextSlot) - len(p.freeList)
}
