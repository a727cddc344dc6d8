package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Replay step operations.
const (
	OpRegister = "register"
	OpMove     = "move"
	OpReshape  = "reshape"
	OpStyle    = "style"
	OpRemove   = "remove"
	OpWait     = "wait"
	OpFlush    = "flush"
	OpUndo     = "undo"
	OpRedo     = "redo"
	OpTool     = "tool"
)

// Script is a scripted editing session.
//
//	name: drag a rectangle
//	options:
//	  gridSize: 10
//	steps:
//	  - op: register
//	    ref: box
//	    type: rect
//	    metadata: {x: 0, y: 0, width: 20, height: 20}
//	  - op: move
//	    refs: [box]
//	    dx: 10
//	    dy: 10
//	  - op: wait
//	  - op: undo
type Script struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options"`
	Steps   []Step         `yaml:"steps"`
}

// Step is one scripted operation. Elements are named by ref because their
// ids are assigned at registration.
type Step struct {
	Op       string         `yaml:"op"`
	Ref      string         `yaml:"ref"`
	Refs     []string       `yaml:"refs"`
	Type     string         `yaml:"type"`
	Metadata map[string]any `yaml:"metadata"`
	Style    map[string]any `yaml:"style"`
	DX       float64        `yaml:"dx"`
	DY       float64        `yaml:"dy"`
	Purge    bool           `yaml:"purge"`
	Duration string         `yaml:"duration"`
	Tool     string         `yaml:"tool"`
}

// targets returns the refs the step applies to.
func (s Step) targets() []string {
	if len(s.Refs) > 0 {
		return s.Refs
	}
	if s.Ref != "" {
		return []string{s.Ref}
	}
	return nil
}

// LoadScript reads and validates a replay script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes and validates a replay script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step for a known op and its required fields.
func (s *Script) Validate() error {
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	switch s.Op {
	case OpRegister, OpFlush, OpUndo, OpRedo:
		return nil
	case OpMove:
		if len(s.targets()) == 0 {
			return errors.New("ref or refs required")
		}
	case OpReshape, OpStyle, OpRemove:
		if s.Ref == "" {
			return errors.New("ref required")
		}
	case OpWait:
		if s.Duration == "" {
			return nil
		}
		if d, err := time.ParseDuration(s.Duration); err != nil || d < 0 {
			return fmt.Errorf("invalid duration %q", s.Duration)
		}
	case OpTool:
		if s.Tool == "" {
			return errors.New("tool required")
		}
	case "":
		return errors.New("op required")
	default:
		return errors.New("unknown op")
	}
	return nil
}
