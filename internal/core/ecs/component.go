package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id Index)
}

// PtrComponentStore is a generic typed map store for ECS components.
type PtrComponentStore[T any] struct {
	data map[Index]*T
}

func NewPtrComponentStore[T any]() *PtrComponentStore[T] {
	return &PtrComponentStore[T]{
		data: make(map[Index]*T, 256),
	}
}

func (s *PtrComponentStore[T]) Set(id Index, c *T) {
	s.data[id] = c
}

func (s *PtrComponentStore[T]) Get(id Index) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *PtrComponentStore[T]) Remove(id Index) {
	delete(s.data, id)
}

func (s *PtrComponentStore[T]) Has(id Index) bool {
	_, ok := s.data[id]
	return ok
}

func (s *PtrComponentStore[T]) Len() int {
	return len(s.data)
}

func (s *PtrComponentStore[T]) Each(fn func(Index, *T)) {
	for id, c := range s.data {
		fn(id, c)
	}
}
