package state

import "github.com/dshills/vectorcore/internal/tree"

// Canvas-level paths. Changes to these are observed by history but never
// recorded as undoable actions.
const (
	PathSVGWidth      = "svgWidth"
	PathSVGHeight     = "svgHeight"
	PathSVGBgColor    = "svgBgColor"
	PathShowGrid      = "showGrid"
	PathGridSize      = "gridSize"
	PathGridLineColor = "gridLineColor"
)

// Session paths.
const (
	PathCurrentTool    = "currentTool"
	PathPanZoomStatus  = "panZoomStatus"
	PathActiveDrawTool = "activeDrawTool"
	PathPanZoomOptions = "panZoomOptions"
	PathSelectOptions  = "selectOptions"
	PathDrawOptions    = "drawOptions"
)

// CanvasPaths lists the canvas-level paths in a stable order.
var CanvasPaths = []string{
	PathSVGWidth,
	PathSVGHeight,
	PathSVGBgColor,
	PathShowGrid,
	PathGridSize,
	PathGridLineColor,
}

// shallowGroups are the default groups merged key by key with caller
// overrides. Every other key is replaced wholesale.
var shallowGroups = []string{PathPanZoomOptions, PathSelectOptions}

// Defaults returns a fresh copy of the built-in editor options.
func Defaults() map[string]any {
	return map[string]any{
		PathSVGWidth:       "100%",
		PathSVGHeight:      "100%",
		PathSVGBgColor:     "#ffffff",
		PathShowGrid:       true,
		PathGridSize:       20,
		PathGridLineColor:  "#f87f7f",
		PathCurrentTool:    "moveZoom",
		PathPanZoomStatus:  true,
		PathActiveDrawTool: "",
		PathPanZoomOptions: map[string]any{
			"panning":                        true,
			"pinchZoom":                      true,
			"wheelZoom":                      true,
			"panButton":                      0,
			"oneFingerPan":                   true,
			"margins":                        false,
			"zoomFactor":                     0.1,
			"zoomMin":                        0.01,
			"zoomMax":                        20,
			"wheelZoomDeltaModeLinePixels":   17,
			"wheelZoomDeltaModeScreenPixels": 53,
		},
		PathSelectOptions: map[string]any{
			"isBoxSelection": true,
			"isDragAdoption": false,
		},
		PathDrawOptions: map[string]any{
			"isDrawAdoption":       false,
			"enableContinuousDraw": false,
			"rect":                 shapeStyle(true),
			"circle":               shapeStyle(true),
			"ellipse":              shapeStyle(true),
			"line":                 shapeStyle(false),
			"polygon":              shapeStyle(true),
			"polyline":             shapeStyle(true),
			"bezier":               shapeStyle(true),
			"text": map[string]any{
				"stroke":            "#000000",
				"stroke-width":      1,
				"fill":              "#000000",
				"font-size":         16,
				"font-family":       "微软雅黑",
				"text-anchor":       "start",
				"dominant-baseline": "middle",
				"font-weight":       "normal",
				"font-style":        "normal",
			},
		},
	}
}

func shapeStyle(filled bool) map[string]any {
	s := map[string]any{
		"stroke":       "#000000",
		"stroke-width": 1,
		"opacity":      1,
	}
	if filled {
		s["fill"] = "transparent"
	}
	return s
}

// Merge combines defaults with overrides. Top-level keys in overrides
// replace the default; the panZoomOptions and selectOptions groups are
// merged one level deep. Neither input is modified.
func Merge(defaults, overrides map[string]any) map[string]any {
	result := tree.CloneMap(defaults)
	if result == nil {
		result = make(map[string]any, len(overrides))
	}
	for k, v := range overrides {
		result[k] = tree.Clone(v)
	}

	for _, group := range shallowGroups {
		merged := map[string]any{}
		if base, ok := defaults[group].(map[string]any); ok {
			merged = tree.CloneMap(base)
		}
		if over, ok := overrides[group].(map[string]any); ok {
			for k, v := range over {
				merged[k] = tree.Clone(v)
			}
		}
		if _, hasDefault := defaults[group]; hasDefault || len(merged) > 0 {
			result[group] = merged
		}
	}
	return result
}
