package entity

import "github.com/dshills/vectorcore/internal/tree"

// Node is the renderable behind an element. The store never inspects it;
// it only clones it for snapshots.
type Node interface {
	CloneNode() Node
}

// Detacher is implemented by nodes that hold resources to release when
// their element is purged.
type Detacher interface {
	Detach()
}

// Element is one drawable entity: its identity, geometry metadata
// (x, y, width, height, rotate, ...) and style attributes.
type Element struct {
	ID       string
	Type     string
	Metadata map[string]any
	Style    map[string]any
	Node     Node
}

// Clone returns a deep copy of e, including a clone of its node.
func (e Element) Clone() Element {
	out := Element{
		ID:       e.ID,
		Type:     e.Type,
		Metadata: tree.CloneMap(e.Metadata),
		Style:    tree.CloneMap(e.Style),
	}
	if e.Node != nil {
		out.Node = e.Node.CloneNode()
	}
	return out
}

// Equal reports whether two elements carry the same data. Nodes are not
// compared.
func (e Element) Equal(o Element) bool {
	return e.ID == o.ID &&
		e.Type == o.Type &&
		tree.Equal(normalize(e.Metadata), normalize(o.Metadata)) &&
		tree.Equal(normalize(e.Style), normalize(o.Style))
}

func normalize(m map[string]any) any {
	if len(m) == 0 {
		return nil
	}
	return m
}

// Patch describes an update to an element.
//
// By default the given keys are merged into the existing metadata and
// style. With Replace set, each non-nil map replaces its counterpart
// wholesale. A non-nil Node replaces the element's node.
type Patch struct {
	Metadata map[string]any
	Style    map[string]any
	Node     Node
	Replace  bool
}

// PatchFrom builds a replacing patch that restores e's data.
func PatchFrom(e Element) Patch {
	p := Patch{
		Metadata: tree.CloneMap(e.Metadata),
		Style:    tree.CloneMap(e.Style),
		Replace:  true,
	}
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	if p.Style == nil {
		p.Style = map[string]any{}
	}
	if e.Node != nil {
		p.Node = e.Node.CloneNode()
	}
	return p
}

func (p Patch) apply(e *Element) {
	if p.Replace {
		if p.Metadata != nil {
			e.Metadata = tree.CloneMap(p.Metadata)
		}
		if p.Style != nil {
			e.Style = tree.CloneMap(p.Style)
		}
	} else {
		e.Metadata = mergeInto(e.Metadata, p.Metadata)
		e.Style = mergeInto(e.Style, p.Style)
	}
	if p.Node != nil {
		e.Node = p.Node
	}
}

func mergeInto(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = tree.Clone(v)
	}
	return dst
}
