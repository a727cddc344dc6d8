package editor

import (
	"log/slog"
	"sync/atomic"

	"github.com/dshills/vectorcore/internal/config"
	"github.com/dshills/vectorcore/internal/entity"
	"github.com/dshills/vectorcore/internal/event"
	"github.com/dshills/vectorcore/internal/history"
	"github.com/dshills/vectorcore/internal/state"
	"github.com/dshills/vectorcore/internal/tree"
)

// Tool names with editor-level behavior.
const (
	ToolMoveZoom = "moveZoom"
	ToolSelect   = "select"
)

// drawTools activate a drawing tool when selected.
var drawTools = map[string]bool{
	"rect":     true,
	"circle":   true,
	"ellipse":  true,
	"line":     true,
	"polygon":  true,
	"polyline": true,
	"bezier":   true,
	"text":     true,
}

// IsDrawTool reports whether tool is a drawing tool.
func IsDrawTool(tool string) bool {
	return drawTools[tool]
}

// Context is one editing session: the option store, the event bus, the
// entity store and the history engine recording it.
//
// Components are built in dependency order, with history last so that
// setup is not recorded. Destroy tears them down in reverse.
type Context struct {
	state    *state.Store
	bus      *event.Bus
	entities *entity.Store
	history  *history.Engine
	watcher  *config.Watcher

	overrides map[string]any
	unsubTool state.Unsubscribe
	destroyed atomic.Bool

	logger *slog.Logger
}

// New creates an editing session whose options are the defaults merged
// with overrides. With WithConfigFile, file and environment values are
// applied first and overrides replace them key by key.
func New(overrides map[string]any, opts ...Option) (*Context, error) {
	cfg := defaultContextConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Context{
		overrides: tree.CloneMap(overrides),
		logger:    cfg.logger.With(slog.String("component", "editor")),
	}

	initial := tree.CloneMap(overrides)
	if cfg.configPath != "" {
		loaded, err := config.Load(cfg.configPath)
		if err != nil {
			return nil, &InitError{Component: "config", Err: err}
		}
		initial = c.layer(loaded)
	}

	// 1. State store
	c.state = state.New(initial, state.WithLogger(cfg.logger))

	// 2. Event bus
	busOpts := append([]event.BusOption{event.WithLogger(cfg.logger)}, cfg.busOpts...)
	c.bus = event.NewBus(busOpts...)

	// 3. Tool switching
	c.applyTool(c.Tool())
	c.unsubTool = c.state.Subscribe(state.PathCurrentTool, c.onToolChange)

	// 4. Entity store
	entityOpts := append([]entity.Option{entity.WithLogger(cfg.logger)}, cfg.entityOpts...)
	c.entities = entity.NewStore(c.bus, entityOpts...)

	// 5. History, last so it starts from the initial entity set
	historyOpts := []history.Option{
		history.WithLogger(cfg.logger),
		history.WithState(c.state),
	}
	if cfg.clock != nil {
		historyOpts = append(historyOpts, history.WithClock(cfg.clock))
	}
	c.history = history.New(c.bus, c.entities, append(historyOpts, cfg.historyOpts...)...)

	// 6. Live reload
	if cfg.watch && cfg.configPath != "" {
		w, err := config.Watch(cfg.configPath, resetFunc(c.reload), config.WithWatcherLogger(cfg.logger))
		if err != nil {
			c.Destroy()
			return nil, &InitError{Component: "config watcher", Err: err}
		}
		c.watcher = w
	}

	c.logger.Debug("editor context ready", slog.String("tool", c.Tool()))
	return c, nil
}

// State returns the option store.
func (c *Context) State() *state.Store { return c.state }

// Bus returns the event bus.
func (c *Context) Bus() *event.Bus { return c.bus }

// Entities returns the entity store.
func (c *Context) Entities() *entity.Store { return c.entities }

// History returns the history engine.
func (c *Context) History() *history.Engine { return c.history }

// Tool returns the current tool name.
func (c *Context) Tool() string {
	tool, _ := c.state.Value(state.PathCurrentTool).(string)
	return tool
}

// SetTool selects a tool. Listeners on tool-change are notified when the
// tool actually changes.
func (c *Context) SetTool(tool string) error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	return c.state.Set(state.PathCurrentTool, tool)
}

// SetPanZoomStatus enables or disables pan and zoom.
func (c *Context) SetPanZoomStatus(enabled bool) error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	return c.state.Set(state.PathPanZoomStatus, enabled)
}

// Undo reverts the most recent recorded action.
func (c *Context) Undo() error {
	return c.history.Undo()
}

// Redo reapplies the most recently undone action.
func (c *Context) Redo() error {
	return c.history.Redo()
}

// Clear removes every entity and drops the history and baselines that
// referred to them. It returns the number of entities removed.
func (c *Context) Clear() int {
	if c.destroyed.Load() {
		return 0
	}
	n := c.entities.Clear()
	c.history.Reset()
	c.logger.Info("canvas cleared", slog.Int("entities", n))
	return n
}

// Destroy tears the session down. It is safe to call more than once.
func (c *Context) Destroy() {
	if c.destroyed.Swap(true) {
		return
	}

	if c.watcher != nil {
		if err := c.watcher.Close(); err != nil {
			c.logger.Warn("closing config watcher", slog.String("error", err.Error()))
		}
	}
	if c.history != nil {
		c.history.Destroy()
	}
	if c.unsubTool != nil {
		c.unsubTool()
	}
	c.bus.Destroy()
	c.state.Destroy()
}

func (c *Context) onToolChange(ch state.Change) {
	tool, _ := ch.Value.(string)
	c.applyTool(tool)
	c.bus.Emit(event.TopicToolChange, tool)
}

// applyTool puts the pan/zoom and drawing state in line with tool.
func (c *Context) applyTool(tool string) {
	active := ""
	if IsDrawTool(tool) {
		active = tool
	}
	if err := c.state.Set(state.PathPanZoomStatus, tool == ToolMoveZoom); err != nil {
		c.logger.Debug("tool state not applied", slog.String("error", err.Error()))
		return
	}
	if err := c.state.Set(state.PathActiveDrawTool, active); err != nil {
		c.logger.Debug("tool state not applied", slog.String("error", err.Error()))
	}
}

func (c *Context) reload(loaded map[string]any) {
	c.state.Reset(c.layer(loaded))
	c.applyTool(c.Tool())
}

// layer applies the explicit overrides on top of loaded options.
func (c *Context) layer(loaded map[string]any) map[string]any {
	out := tree.CloneMap(loaded)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range c.overrides {
		out[k] = tree.Clone(v)
	}
	return out
}

type resetFunc func(map[string]any)

func (f resetFunc) Reset(newState map[string]any) { f(newState) }
