// Package entity is an in-memory registry of drawable elements.
//
// The store announces every change on an event emitter using the entity
// lifecycle topics, which is how the history engine learns about edits.
// Events are emitted after the store lock is released.
package entity

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/vectorcore/internal/event"
	"github.com/dshills/vectorcore/internal/tree"
)

// Emitter publishes store events.
type Emitter interface {
	Emit(topic event.Topic, args ...any) bool
}

// Store holds elements by id, in registration order.
type Store struct {
	mu       sync.RWMutex
	elements map[string]*Element
	order    []string

	emitter Emitter
	logger  *slog.Logger
	now     func() time.Time
	newID   func(elementType string) string
}

// NewStore creates an empty store. emitter may be nil.
func NewStore(emitter Emitter, opts ...Option) *Store {
	s := &Store{
		elements: make(map[string]*Element),
		emitter:  emitter,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    generateID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "entity"))
	return s
}

func generateID(elementType string) string {
	return elementType + "_" + uuid.NewString()
}

// Register adds e and emits entity-registered. The store copies the
// metadata and style maps and takes ownership of the node. An empty id is
// generated as "<type>_<uuid>".
func (s *Store) Register(e Element) (string, error) {
	el := Element{
		ID:       e.ID,
		Type:     e.Type,
		Metadata: tree.CloneMap(e.Metadata),
		Style:    tree.CloneMap(e.Style),
		Node:     e.Node,
	}
	if el.Type == "" {
		el.Type = "element"
	}
	if el.Metadata == nil {
		el.Metadata = map[string]any{}
	}
	if el.Style == nil {
		el.Style = map[string]any{}
	}

	s.mu.Lock()
	if el.ID == "" {
		el.ID = s.newID(el.Type)
	}
	if _, exists := s.elements[el.ID]; exists {
		s.mu.Unlock()
		return "", fmt.Errorf("register %s: %w", el.ID, ErrDuplicateID)
	}
	s.elements[el.ID] = &el
	s.order = append(s.order, el.ID)
	s.mu.Unlock()

	s.emit(event.TopicEntityRegistered, el.ID)
	return el.ID, nil
}

// Remove deletes the element and emits entity-removed with the id and a
// copy of the removed element. With purge set, a node implementing
// Detacher is detached. It reports false if the id is unknown.
func (s *Store) Remove(id string, purge bool) (Element, bool) {
	s.mu.Lock()
	el, ok := s.elements[id]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("remove of unknown element", slog.String("id", id))
		return Element{}, false
	}
	delete(s.elements, id)
	s.order = removeID(s.order, id)
	s.mu.Unlock()

	if purge {
		if d, ok := el.Node.(Detacher); ok {
			d.Detach()
		}
	}

	removed := el.Clone()
	s.emit(event.TopicEntityRemoved, id, removed.Clone())
	return removed, true
}

// Update applies p to the element and emits entity-data-updated.
func (s *Store) Update(id string, p Patch) error {
	s.mu.Lock()
	el, ok := s.elements[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	p.apply(el)
	s.mu.Unlock()

	s.emit(event.TopicEntityUpdated, id)
	return nil
}

// Reshape merges geometry metadata into the element and emits
// entity-data-formatted.
func (s *Store) Reshape(id string, metadata map[string]any) error {
	s.mu.Lock()
	el, ok := s.elements[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("reshape %s: %w", id, ErrNotFound)
	}
	el.Metadata = mergeInto(el.Metadata, metadata)
	s.mu.Unlock()

	s.emit(event.TopicEntityFormatted, []string{id})
	return nil
}

// Translate moves the given elements by (dx, dy) and emits one
// entity-data-formatted event for those that exist. It returns the ids
// that were moved.
func (s *Store) Translate(ids []string, dx, dy float64) []string {
	s.mu.Lock()
	moved := make([]string, 0, len(ids))
	for _, id := range ids {
		el, ok := s.elements[id]
		if !ok {
			continue
		}
		if el.Metadata == nil {
			el.Metadata = map[string]any{}
		}
		el.Metadata["x"] = toFloat(el.Metadata["x"]) + dx
		el.Metadata["y"] = toFloat(el.Metadata["y"]) + dy
		moved = append(moved, id)
	}
	s.mu.Unlock()

	if len(moved) > 0 {
		s.emit(event.TopicEntityFormatted, append([]string(nil), moved...))
	}
	return moved
}

// Format announces that the geometry of the given elements changed
// outside the store. Unknown ids are dropped.
func (s *Store) Format(ids ...string) {
	s.mu.RLock()
	known := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.elements[id]; ok {
			known = append(known, id)
		}
	}
	s.mu.RUnlock()

	if len(known) > 0 {
		s.emit(event.TopicEntityFormatted, known)
	}
}

// Get returns a copy of the element.
func (s *Store) Get(id string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.elements[id]
	if !ok {
		return Element{}, false
	}
	return el.Clone(), true
}

// Has reports whether id is registered.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.elements[id]
	return ok
}

// Len returns the number of elements.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements)
}

// IDs returns element ids in registration order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// All returns copies of every element accepted by filter, in
// registration order. A nil filter accepts everything.
func (s *Store) All(filter func(Element) bool) []Element {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Element, 0, len(s.order))
	for _, id := range s.order {
		el := s.elements[id]
		if filter != nil && !filter(*el) {
			continue
		}
		out = append(out, el.Clone())
	}
	return out
}

// Clear drops every element without emitting events and returns how many
// were removed. Nodes implementing Detacher are detached.
func (s *Store) Clear() int {
	s.mu.Lock()
	dropped := s.elements
	s.elements = make(map[string]*Element)
	s.order = nil
	s.mu.Unlock()

	for _, el := range dropped {
		if d, ok := el.Node.(Detacher); ok {
			d.Detach()
		}
	}
	return len(dropped)
}

func (s *Store) emit(topic event.Topic, args ...any) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(topic, args...)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	default:
		return 0
	}
}
