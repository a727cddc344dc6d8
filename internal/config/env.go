package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/dshills/vectorcore/internal/state"
)

// Env holds the options that may be set from the environment. Unset
// variables leave their field nil.
type Env struct {
	SVGWidth      *string `env:"VECTORCORE_SVG_WIDTH"`
	SVGHeight     *string `env:"VECTORCORE_SVG_HEIGHT"`
	BgColor       *string `env:"VECTORCORE_BG_COLOR"`
	ShowGrid      *bool   `env:"VECTORCORE_SHOW_GRID"`
	GridSize      *int    `env:"VECTORCORE_GRID_SIZE"`
	GridLineColor *string `env:"VECTORCORE_GRID_LINE_COLOR"`
	Tool          *string `env:"VECTORCORE_TOOL"`
}

// FromEnv reads overrides from the process environment.
func FromEnv() (map[string]any, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return e.Overrides(), nil
}

// FromEnvironment reads overrides from the given variables instead of
// the process environment.
func FromEnvironment(vars map[string]string) (map[string]any, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return e.Overrides(), nil
}

// Overrides returns the set fields keyed by option name.
func (e Env) Overrides() map[string]any {
	out := map[string]any{}
	if e.SVGWidth != nil {
		out[state.PathSVGWidth] = *e.SVGWidth
	}
	if e.SVGHeight != nil {
		out[state.PathSVGHeight] = *e.SVGHeight
	}
	if e.BgColor != nil {
		out[state.PathSVGBgColor] = *e.BgColor
	}
	if e.ShowGrid != nil {
		out[state.PathShowGrid] = *e.ShowGrid
	}
	if e.GridSize != nil {
		out[state.PathGridSize] = *e.GridSize
	}
	if e.GridLineColor != nil {
		out[state.PathGridLineColor] = *e.GridLineColor
	}
	if e.Tool != nil {
		out[state.PathCurrentTool] = *e.Tool
	}
	return out
}
