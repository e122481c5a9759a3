package ecs

// Removable is implemented by every per-entity store so the World can purge an
// entity from all of them when its destruction is flushed.
type Removable interface {
	Remove(id EntityID)
}

// Store keeps one component pointer per entity. It is not safe for
// concurrent use; the frame loop owns it.
type Store[T any] struct {
	byID map[EntityID]*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{byID: make(map[EntityID]*T)}
}

func (s *Store[T]) Set(id EntityID, c *T) { s.byID[id] = c }
func (s *Store[T]) Remove(id EntityID)    { delete(s.byID, id) }

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.byID[id]
	return c, ok
}
