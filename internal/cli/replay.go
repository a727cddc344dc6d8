package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"

	"github.com/dshills/vectorcore/internal/editor"
	"github.com/dshills/vectorcore/internal/entity"
	"github.com/dshills/vectorcore/internal/history"
	"github.com/dshills/vectorcore/internal/testutil"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Export string
}

// EntityResult describes one entity left after a replay.
type EntityResult struct {
	Ref      string         `json:"ref"`
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata"`
	Style    map[string]any `json:"style"`
}

// ReplayResult holds the state of the session after the last step.
type ReplayResult struct {
	Script    string         `json:"script"`
	Steps     int            `json:"steps"`
	Tool      string         `json:"tool"`
	UndoDepth int            `json:"undo_depth"`
	RedoDepth int            `json:"redo_depth"`
	Pending   int            `json:"pending"`
	Undo      []string       `json:"undo"`
	Entities  []EntityResult `json:"entities"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay a scripted editing session",
		Long: `Replay a YAML script of entity edits against a fresh editor session
and report the resulting entities and history depths.

Time is simulated: edits are only batched into history by "wait" or
"flush" steps, or by the next add, remove, undo or redo.

Steps: register, move, reshape, style, remove, wait, flush, undo, redo, tool.

Exit codes:
  0 - All steps succeeded
  1 - A step failed
  2 - Command error (script not found, invalid script, etc.)

Examples:
  vectorcore replay session.yaml
  vectorcore replay session.yaml --format json
  vectorcore replay session.yaml --export entities.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Export, "export", "", "write the final entities as a JSON document")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	script, err := LoadScript(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}

	sess, err := newSession(script, opts.Config, opts.Logger(cmd))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}
	defer sess.close()

	if err := sess.run(script.Steps); err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	if opts.Export != "" {
		doc, err := sess.ctx.Entities().Export()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to export entities", err)
		}
		if err := os.WriteFile(opts.Export, doc, 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write export", err)
		}
	}

	result := sess.result(script)
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	writeReplayText(cmd.OutOrStdout(), result)
	return nil
}

// session is an editor context driven by a simulated clock.
type session struct {
	ctx   *editor.Context
	clock *testutil.FakeClock
	refs  map[string]string
}

func newSession(script *Script, configPath string, logger *slog.Logger) (*session, error) {
	clock := testutil.NewFakeClock(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))

	seq := 0
	ids := entity.WithIDGenerator(func(elementType string) string {
		seq++
		return fmt.Sprintf("%s_%d", elementType, seq)
	})

	opts := []editor.Option{
		editor.WithLogger(logger),
		editor.WithClock(clock),
		editor.WithEntityOptions(ids, entity.WithNow(clock.Now)),
	}
	if configPath != "" {
		opts = append(opts, editor.WithConfigFile(configPath))
	}

	ctx, err := editor.New(script.Options, opts...)
	if err != nil {
		return nil, err
	}
	return &session{ctx: ctx, clock: clock, refs: make(map[string]string)}, nil
}

func (s *session) close() {
	s.ctx.Destroy()
}

func (s *session) run(steps []Step) error {
	for i, step := range steps {
		if err := s.apply(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}
	return nil
}

func (s *session) apply(step Step) error {
	ents := s.ctx.Entities()

	switch step.Op {
	case OpRegister:
		id, err := ents.Register(entity.Element{
			Type:     step.Type,
			Metadata: step.Metadata,
			Style:    step.Style,
		})
		if err != nil {
			return err
		}
		ref := step.Ref
		if ref == "" {
			ref = id
		}
		s.refs[ref] = id
		return nil

	case OpMove:
		ids, err := s.resolve(step.targets()...)
		if err != nil {
			return err
		}
		if moved := ents.Translate(ids, step.DX, step.DY); len(moved) == 0 {
			return fmt.Errorf("%v: %w", step.targets(), entity.ErrNotFound)
		}
		return nil

	case OpReshape:
		id, err := s.resolveOne(step.Ref)
		if err != nil {
			return err
		}
		return ents.Reshape(id, step.Metadata)

	case OpStyle:
		id, err := s.resolveOne(step.Ref)
		if err != nil {
			return err
		}
		return ents.Update(id, entity.Patch{Style: step.Style})

	case OpRemove:
		id, err := s.resolveOne(step.Ref)
		if err != nil {
			return err
		}
		if _, ok := ents.Remove(id, step.Purge); !ok {
			return fmt.Errorf("%s: %w", step.Ref, entity.ErrNotFound)
		}
		return nil

	case OpWait:
		d := history.DefaultDebounceDelay
		if step.Duration != "" {
			d, _ = time.ParseDuration(step.Duration)
		}
		s.clock.Advance(d)
		return nil

	case OpFlush:
		s.ctx.History().Flush()
		return nil

	case OpUndo:
		return s.ctx.Undo()

	case OpRedo:
		return s.ctx.Redo()

	case OpTool:
		return s.ctx.SetTool(step.Tool)
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

func (s *session) resolveOne(ref string) (string, error) {
	id, ok := s.refs[ref]
	if !ok {
		return "", fmt.Errorf("unknown ref %q", ref)
	}
	return id, nil
}

func (s *session) resolve(refs ...string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := s.resolveOne(ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *session) result(script *Script) ReplayResult {
	byID := make(map[string]string, len(s.refs))
	for ref, id := range s.refs {
		byID[id] = ref
	}

	h := s.ctx.History()
	res := ReplayResult{
		Script:    script.Name,
		Steps:     len(script.Steps),
		Tool:      s.ctx.Tool(),
		UndoDepth: h.UndoCount(),
		RedoDepth: h.RedoCount(),
		Pending:   h.PendingCount(),
		Undo:      []string{},
		Entities:  []EntityResult{},
	}
	for _, info := range h.UndoInfo() {
		res.Undo = append(res.Undo, info.Kind.String())
	}
	for _, el := range s.ctx.Entities().All(nil) {
		res.Entities = append(res.Entities, EntityResult{
			Ref:      byID[el.ID],
			ID:       el.ID,
			Type:     el.Type,
			Metadata: el.Metadata,
			Style:    el.Style,
		})
	}
	return res
}

func writeReplayText(w io.Writer, r ReplayResult) {
	if r.Script != "" {
		fmt.Fprintf(w, "Script: %s\n", r.Script)
	}
	fmt.Fprintf(w, "Steps: %d\n", r.Steps)
	fmt.Fprintf(w, "Tool: %s\n", r.Tool)
	fmt.Fprintf(w, "Undo: %d  Redo: %d  Pending: %d\n", r.UndoDepth, r.RedoDepth, r.Pending)
	if len(r.Undo) > 0 {
		fmt.Fprintf(w, "Undo stack: %s\n", strings.Join(r.Undo, ", "))
	}

	refWidth := 0
	for _, e := range r.Entities {
		refWidth = max(refWidth, uniseg.StringWidth(e.Ref))
	}

	fmt.Fprintf(w, "Entities: %d\n", len(r.Entities))
	for _, e := range r.Entities {
		fmt.Fprintf(w, "  %s (%s) %s", padRight(e.Ref, refWidth), e.ID, e.Type)
		if len(e.Metadata) > 0 {
			fmt.Fprintf(w, " %s", formatFields(e.Metadata))
		}
		if len(e.Style) > 0 {
			fmt.Fprintf(w, " style[%s]", formatFields(e.Style))
		}
		fmt.Fprintln(w)
	}
}

func formatFields(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, m[k])
	}
	return strings.Join(parts, " ")
}
