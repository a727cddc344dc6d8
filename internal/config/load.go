package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// LoadFile reads an options file, choosing the parser by extension.
// A missing file is not an error: LoadFile returns nil, nil.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes data in the format implied by path's extension.
func Parse(path string, data []byte) (map[string]any, error) {
	var (
		config map[string]any
		err    error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		config, err = parseTOML(path, data)
	case ".yaml", ".yml":
		config, err = parseYAML(path, data)
	case ".json":
		config, err = parseJSON(path, data)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = map[string]any{}
	}
	return normalizeMap(config), nil
}

func parseTOML(path string, data []byte) (map[string]any, error) {
	var config map[string]any
	if err := toml.Unmarshal(data, &config); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			pe.Line, pe.Column = decodeErr.Position()
		}
		return nil, pe
	}
	return config, nil
}

func parseYAML(path string, data []byte) (map[string]any, error) {
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return config, nil
}

func parseJSON(path string, data []byte) (map[string]any, error) {
	if !gjson.ValidBytes(data) {
		err := errors.New("invalid JSON")
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		err := errors.New("top level must be an object")
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	config, _ := root.Value().(map[string]any)
	return config, nil
}

// normalizeMap rewrites decoded numbers so whole numbers are int,
// matching the defaults' representation regardless of source format.
func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalize(v)
	}
	return m
}

func normalize(v any) any {
	switch n := v.(type) {
	case map[string]any:
		return normalizeMap(n)
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, val := range n {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		for i := range n {
			n[i] = normalize(n[i])
		}
		return n
	case int64:
		if n >= math.MinInt && n <= math.MaxInt {
			return int(n)
		}
		return n
	case uint64:
		if n <= math.MaxInt {
			return int(n)
		}
		return n
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int(n)
		}
		return n
	default:
		return v
	}
}

// Load reads the options file at path (if any), applies environment
// overrides on top and validates the result. An empty path skips the
// file. Invalid options are reported as *ValidationErrors.
func Load(path string) (map[string]any, error) {
	overrides := map[string]any{}
	if path != "" {
		fromFile, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for k, v := range fromFile {
			overrides[k] = v
		}
	}

	fromEnv, err := FromEnv()
	if err != nil {
		return nil, err
	}
	for k, v := range fromEnv {
		overrides[k] = v
	}

	if err := Validate(overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}
