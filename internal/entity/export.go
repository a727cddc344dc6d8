package entity

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ExportVersion is written to every export document.
const ExportVersion = "1.0"

// Export renders the given elements, or every element when ids is empty,
// as a JSON document:
//
//	{"version":"1.0","exportDate":"...","elementCount":2,"elements":[...]}
//
// Each element carries id, type, metadata and style. Unknown ids are
// skipped.
func (s *Store) Export(ids ...string) ([]byte, error) {
	s.mu.RLock()
	if len(ids) == 0 {
		ids = append([]string(nil), s.order...)
	}
	elements := make([]Element, 0, len(ids))
	for _, id := range ids {
		if el, ok := s.elements[id]; ok {
			elements = append(elements, el.Clone())
		}
	}
	s.mu.RUnlock()

	doc := []byte(`{"elements":[]}`)
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		doc, err = sjson.SetBytes(doc, path, value)
	}

	set("version", ExportVersion)
	set("exportDate", s.now().UTC().Format(time.RFC3339))
	set("elementCount", len(elements))
	for i, el := range elements {
		prefix := fmt.Sprintf("elements.%d.", i)
		set(prefix+"id", el.ID)
		set(prefix+"type", el.Type)
		set(prefix+"metadata", el.Metadata)
		set(prefix+"style", el.Style)
	}
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return doc, nil
}

// Import registers every element of an export document, in document
// order, and returns the registered ids. Elements without an id get a
// generated one. Import stops at the first element that cannot be
// registered; elements registered before it are kept.
func (s *Store) Import(data []byte) ([]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidDocument
	}
	root := gjson.ParseBytes(data)
	list := root.Get("elements")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: missing elements array", ErrInvalidDocument)
	}

	var ids []string
	var regErr error
	list.ForEach(func(_, item gjson.Result) bool {
		el := Element{
			ID:       item.Get("id").String(),
			Type:     item.Get("type").String(),
			Metadata: objectOf(item.Get("metadata")),
			Style:    objectOf(item.Get("style")),
		}
		id, err := s.Register(el)
		if err != nil {
			regErr = err
			return false
		}
		ids = append(ids, id)
		return true
	})
	if regErr != nil {
		return ids, fmt.Errorf("import: %w", regErr)
	}
	return ids, nil
}

func objectOf(r gjson.Result) map[string]any {
	if !r.IsObject() {
		return map[string]any{}
	}
	m, ok := r.Value().(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}
