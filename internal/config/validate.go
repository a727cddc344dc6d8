package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/vectorcore/internal/state"
)

// ValidationError represents a single invalid option.
type ValidationError struct {
	// Path is the dot-separated path to the invalid value.
	Path string

	// Message describes what's wrong.
	Message string

	// Value is the invalid value (may be nil).
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

// Error implements the error interface.
func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e.Errors), strings.Join(msgs, "\n  - "))
}

// Add adds a validation error with the invalid value.
func (e *ValidationErrors) Add(path, message string, value any) {
	e.Errors = append(e.Errors, &ValidationError{Path: path, Message: message, Value: value})
}

// AsError returns nil if no errors, otherwise returns self.
func (e *ValidationErrors) AsError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// rule checks one option and returns a message when the value is invalid.
type rule func(v any) string

// rules replace the default-type check for their paths.
var rules = map[string]rule{
	state.PathSVGWidth:      dimension,
	state.PathSVGHeight:     dimension,
	state.PathSVGBgColor:    color,
	state.PathGridLineColor: color,
	state.PathGridSize:      positiveInt,
}

// Validate checks overrides against the shape of the built-in defaults.
// Known options must keep their default's type; unknown options are
// accepted as-is. Errors are reported in path order.
func Validate(overrides map[string]any) error {
	errs := &ValidationErrors{}
	validateMap("", overrides, state.Defaults(), errs)
	return errs.AsError()
}

func validateMap(base string, values, defaults map[string]any, errs *ValidationErrors) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := joinPath(base, k)
		v := values[k]

		if r, ok := rules[path]; ok {
			if msg := r(v); msg != "" {
				errs.Add(path, msg, v)
			}
			continue
		}

		def, known := defaults[k]
		if !known {
			continue
		}
		if nested, ok := def.(map[string]any); ok {
			m, ok := v.(map[string]any)
			if !ok {
				errs.Add(path, fmt.Sprintf("expected object, got %s", kindOf(v)), v)
				continue
			}
			validateMap(path, m, nested, errs)
			continue
		}
		if want, got := kindOf(def), kindOf(v); want != got {
			errs.Add(path, fmt.Sprintf("expected %s, got %s", want, got), v)
		}
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func dimension(v any) string {
	switch d := v.(type) {
	case string:
		if strings.TrimSpace(d) == "" {
			return "must not be empty"
		}
		return ""
	case int:
		if d <= 0 {
			return "must be positive"
		}
		return ""
	case float64:
		if d <= 0 {
			return "must be positive"
		}
		return ""
	default:
		return fmt.Sprintf("expected string or number, got %s", kindOf(v))
	}
}

func positiveInt(v any) string {
	n, ok := v.(int)
	if !ok {
		return fmt.Sprintf("expected integer, got %s", kindOf(v))
	}
	if n <= 0 {
		return "must be positive"
	}
	return ""
}

func color(v any) string {
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("expected string, got %s", kindOf(v))
	}
	if !isValidColor(s) {
		return fmt.Sprintf("invalid color %q", s)
	}
	return ""
}

func isValidColor(s string) bool {
	if len(s) == 0 {
		return false
	}
	if s[0] == '#' {
		// #rgb, #rrggbb, or #rrggbbaa with the alpha checked separately.
		if len(s) == 9 {
			if _, err := colorful.Hex(s[:7]); err != nil {
				return false
			}
			_, err := colorful.Hex("#" + s[7:9] + "0000")
			return err == nil
		}
		_, err := colorful.Hex(s)
		return err == nil
	}
	lower := strings.ToLower(s)
	if (strings.HasPrefix(lower, "rgb(") || strings.HasPrefix(lower, "rgba(")) && strings.HasSuffix(lower, ")") {
		return true
	}
	// Named colors (basic)
	namedColors := map[string]bool{
		"black": true, "white": true, "red": true, "green": true, "blue": true,
		"yellow": true, "cyan": true, "magenta": true, "gray": true, "grey": true,
		"transparent": true, "none": true,
	}
	return namedColors[lower]
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}
