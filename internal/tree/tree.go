// Package tree provides helpers for nested map[string]any documents
// addressed by dot-separated paths.
//
// The state store and the entity store both keep their data as plain
// nested maps. These helpers are the only code that walks those maps, so
// copy and comparison rules stay consistent across packages.
package tree

import (
	"reflect"
	"sort"
	"strings"
)

// Split splits a dot-separated path into its segments.
// An empty path yields no segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Ancestors returns every prefix path of path, shortest first, including
// path itself. "a.b.c" yields ["a", "a.b", "a.b.c"].
func Ancestors(path string) []string {
	parts := Split(path)
	result := make([]string, 0, len(parts))
	for i := 1; i <= len(parts); i++ {
		result = append(result, strings.Join(parts[:i], "."))
	}
	return result
}

// IsParentPath reports whether parent is a strict ancestor of child.
// "editor" is a parent of "editor.tabSize"; "edit" is not.
func IsParentPath(parent, child string) bool {
	if len(parent) >= len(child) {
		return false
	}
	if parent == "" {
		return true
	}
	return child[:len(parent)] == parent && child[len(parent)] == '.'
}

// Get retrieves a value from a nested map using a dot-separated path.
// The returned value is the stored node itself, not a copy.
func Get(data map[string]any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}

	parts := Split(path)
	if len(parts) == 0 {
		return data, true
	}

	current := any(data)
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		val, exists := m[part]
		if !exists {
			return nil, false
		}

		current = val
	}

	return current, true
}

// Set sets a value in a nested map using a dot-separated path.
// Intermediate maps are created as needed; a non-map intermediate is
// replaced by an empty map.
func Set(data map[string]any, path string, value any) {
	parts := Split(path)
	if data == nil || len(parts) == 0 {
		return
	}

	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}

	current[parts[len(parts)-1]] = value
}

// Delete removes a value from a nested map using a dot-separated path.
// Returns true if the value was found and deleted.
func Delete(data map[string]any, path string) bool {
	parts := Split(path)
	if data == nil || len(parts) == 0 {
		return false
	}

	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return false
		}
		current = next
	}

	key := parts[len(parts)-1]
	if _, exists := current[key]; exists {
		delete(current, key)
		return true
	}
	return false
}

// Clone returns a deep copy of val. Maps, slices and arrays of any type
// are copied recursively; pointers, structs and scalars are returned as-is.
func Clone(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case map[string]any:
		return CloneMap(v)
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	default:
		rv := reflect.ValueOf(val)
		switch rv.Kind() {
		case reflect.Map, reflect.Slice, reflect.Array:
			return cloneValue(rv).Interface()
		}
		return val
	}
}

// cloneValue copies composite kinds through reflection. Interface-typed
// elements are cloned by their dynamic value.
func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		return reflect.ValueOf(Clone(v.Interface()))
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), settable(cloneValue(iter.Value()), v.Type().Elem()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(settable(cloneValue(v.Index(i)), v.Type().Elem()))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(settable(cloneValue(v.Index(i)), v.Type().Elem()))
		}
		return out
	default:
		return v
	}
}

// settable returns the zero value of typ in place of an invalid value, so
// nil interface elements survive the copy.
func settable(v reflect.Value, typ reflect.Type) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(typ)
	}
	return v
}

// CloneMap returns a deep copy of m. A nil map clones to nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// Equal compares two values structurally.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch va := a.(type) {
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for k, x := range va {
			y, ok := vb[k]
			if !ok || !Equal(x, y) {
				return false
			}
		}
		return true
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !Equal(va[i], vb[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Diff returns the paths whose values differ between old and new.
// Where both sides hold maps the comparison descends; otherwise the
// deepest differing path is reported once. Paths are sorted.
func Diff(old, new map[string]any) []string {
	var paths []string
	diffInto(old, new, "", &paths)
	sort.Strings(paths)
	return paths
}

func diffInto(old, new map[string]any, prefix string, out *[]string) {
	for key, newVal := range new {
		path := join(prefix, key)
		oldVal, exists := old[key]
		if !exists {
			*out = append(*out, path)
			continue
		}
		oldMap, oldIsMap := oldVal.(map[string]any)
		newMap, newIsMap := newVal.(map[string]any)
		if oldIsMap && newIsMap {
			diffInto(oldMap, newMap, path, out)
			continue
		}
		if !Equal(oldVal, newVal) {
			*out = append(*out, path)
		}
	}
	for key := range old {
		if _, exists := new[key]; !exists {
			*out = append(*out, join(prefix, key))
		}
	}
}

// Flatten flattens a nested map into a single-level map with
// dot-separated keys. Empty nested maps are dropped.
func Flatten(data map[string]any) map[string]any {
	result := make(map[string]any)
	flattenInto(data, "", result)
	return result
}

func flattenInto(data map[string]any, prefix string, result map[string]any) {
	for key, val := range data {
		fullKey := join(prefix, key)
		if nested, ok := val.(map[string]any); ok {
			flattenInto(nested, fullKey, result)
		} else {
			result[fullKey] = val
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
