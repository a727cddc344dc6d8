package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		wantPaths []string
	}{
		{name: "empty", overrides: nil},
		{
			name: "valid",
			overrides: map[string]any{
				"svgWidth":       800,
				"svgHeight":      "50%",
				"svgBgColor":     "rgba(0, 0, 0, 0.5)",
				"gridLineColor":  "#abc",
				"gridSize":       10,
				"showGrid":       false,
				"panZoomOptions": map[string]any{"zoomMax": 4.5, "panning": false},
				"custom":         []any{1, 2},
			},
		},
		{
			name: "wrong kinds",
			overrides: map[string]any{
				"showGrid":       "yes",
				"currentTool":    3,
				"selectOptions":  true,
				"panZoomOptions": map[string]any{"zoomFactor": "fast"},
			},
			wantPaths: []string{"currentTool", "panZoomOptions.zoomFactor", "selectOptions", "showGrid"},
		},
		{
			name: "rules",
			overrides: map[string]any{
				"svgWidth":      "",
				"svgHeight":     -1,
				"svgBgColor":    "#12",
				"gridLineColor": 7,
				"gridSize":      0,
			},
			wantPaths: []string{"gridLineColor", "gridSize", "svgBgColor", "svgHeight", "svgWidth"},
		},
		{
			name:      "fractional grid",
			overrides: map[string]any{"gridSize": 2.5},
			wantPaths: []string{"gridSize"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.overrides)
			if len(tt.wantPaths) == 0 {
				require.NoError(t, err)
				return
			}

			var verrs *ValidationErrors
			require.ErrorAs(t, err, &verrs)
			paths := make([]string, 0, len(verrs.Errors))
			for _, e := range verrs.Errors {
				paths = append(paths, e.Path)
			}
			assert.Equal(t, tt.wantPaths, paths)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := &ValidationErrors{}
	assert.NoError(t, errs.AsError())
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("gridSize", "must be positive", 0)
	assert.Equal(t, "gridSize: must be positive", errs.Error())

	errs.Add("", "bad document", nil)
	assert.Equal(t, "2 validation errors:\n  - gridSize: must be positive\n  - bad document", errs.Error())
}

func TestIsValidColor(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"#fff", true},
		{"#f87f7f", true},
		{"#f87f7f80", true},
		{"#ggg", false},
		{"#12345", false},
		{"rgb(1,2,3)", true},
		{"RGBA(1,2,3,0.5)", true},
		{"rgb(1,2,3", false},
		{"Transparent", true},
		{"chartreuse", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, isValidColor(tt.in))
		})
	}
}

func TestLoad_RejectsInvalidOptions(t *testing.T) {
	path := writeFile(t, "options.yaml", "gridSize: -4\n")

	_, err := Load(path)

	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "gridSize", verrs.Errors[0].Path)
}
