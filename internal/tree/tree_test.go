package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAncestors(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"a", []string{"a"}},
		{"a.b.c", []string{"a", "a.b", "a.b.c"}},
		{"", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Ancestors(tt.path))
		})
	}
}

func TestIsParentPath(t *testing.T) {
	tests := []struct {
		parent, child string
		want          bool
	}{
		{"a", "a.b", true},
		{"a.b", "a.b.c", true},
		{"", "a", true},
		{"a", "a", false},
		{"a", "ab.c", false},
		{"a.b.c", "a.b", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsParentPath(tt.parent, tt.child), "%q -> %q", tt.parent, tt.child)
	}
}

func TestGetSet(t *testing.T) {
	data := map[string]any{}

	Set(data, "selectOptions.isDragAdoption", true)
	got, ok := Get(data, "selectOptions.isDragAdoption")
	require.True(t, ok)
	assert.Equal(t, true, got)

	_, ok = Get(data, "selectOptions.missing")
	assert.False(t, ok)

	_, ok = Get(data, "selectOptions.isDragAdoption.deeper")
	assert.False(t, ok, "scalar intermediate must not resolve")
}

func TestSet_ReplacesScalarIntermediate(t *testing.T) {
	data := map[string]any{"a": 1}

	Set(data, "a.b", 2)

	got, ok := Get(data, "a.b")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestDelete(t *testing.T) {
	data := map[string]any{"a": map[string]any{"b": 1, "c": 2}}

	assert.True(t, Delete(data, "a.b"))
	assert.False(t, Delete(data, "a.b"))
	assert.False(t, Delete(data, "x.y"))
	assert.Equal(t, map[string]any{"a": map[string]any{"c": 2}}, data)
}

func TestClone_IsDeep(t *testing.T) {
	orig := map[string]any{
		"a": map[string]any{"b": []any{1, map[string]any{"c": 2}}},
	}

	clone := CloneMap(orig)
	clone["a"].(map[string]any)["b"].([]any)[1].(map[string]any)["c"] = 99

	got, _ := Get(orig, "a.b")
	assert.Equal(t, 2, got.([]any)[1].(map[string]any)["c"])
}

func TestClone_TypedComposites(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		mutate func(any)
	}{
		{
			name:   "nested float slices",
			value:  [][]float64{{0, 0}, {10, 0}},
			mutate: func(v any) { v.([][]float64)[1][0] = 99 },
		},
		{
			name:   "string map",
			value:  map[string]string{"a": "1"},
			mutate: func(v any) { v.(map[string]string)["a"] = "2" },
		},
		{
			name:   "map of slices",
			value:  map[string][]int{"ids": {1, 2}},
			mutate: func(v any) { v.(map[string][]int)["ids"][0] = 7 },
		},
		{
			name:   "typed values inside any",
			value:  []any{map[string]string{"k": "v"}, nil},
			mutate: func(v any) { v.([]any)[0].(map[string]string)["k"] = "w" },
		},
		{
			name:   "array of slices",
			value:  [2][]string{{"a"}, {"b"}},
			mutate: func(v any) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := Clone(tt.value)
			clone := Clone(tt.value)
			require.Equal(t, tt.value, clone)

			tt.mutate(clone)
			assert.Equal(t, want, tt.value)
		})
	}
}

func TestClone_NilValues(t *testing.T) {
	assert.Nil(t, Clone(nil))
	assert.Nil(t, Clone([]any(nil)))
	assert.Nil(t, Clone(map[string]string(nil)))
	assert.Equal(t, 3, Clone(3))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, 0))
	assert.True(t, Equal(map[string]any{"a": []any{1}}, map[string]any{"a": []any{1}}))
	assert.False(t, Equal(map[string]any{"a": 1}, map[string]any{"a": 2}))
	assert.True(t, Equal([]float64{1, 2}, []float64{1, 2}), "uncomparable slices must not panic")
}

func TestDiff(t *testing.T) {
	old := map[string]any{
		"showGrid": true,
		"gridSize": 20,
		"panZoomOptions": map[string]any{
			"zoomMin": 0.01,
			"zoomMax": 20,
		},
		"gone": "x",
	}
	new := map[string]any{
		"showGrid": true,
		"gridSize": 10,
		"panZoomOptions": map[string]any{
			"zoomMin": 0.01,
			"zoomMax": 40,
		},
		"added": map[string]any{},
	}

	assert.Equal(t, []string{"added", "gone", "gridSize", "panZoomOptions.zoomMax"}, Diff(old, new))
}

func TestFlatten(t *testing.T) {
	got := Flatten(map[string]any{"a": map[string]any{"b": 1}, "c": 2})
	assert.Equal(t, map[string]any{"a.b": 1, "c": 2}, got)
}
