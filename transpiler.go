package oxcc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"fortio.org/safecast"
	"go.uber.org/zap"

	"github.com/maxleiko/oxcc/internal/arena"
	"github.com/maxleiko/oxcc/internal/codegen"
	"github.com/maxleiko/oxcc/internal/semantic"
	"github.com/maxleiko/oxcc/internal/source"
	"github.com/maxleiko/oxcc/internal/syntax"
	"github.com/maxleiko/oxcc/internal/transform"
)

// State is a step of the per-call state machine. A call moves from
// StateIdle through every stage in order and ends in StateDone or
// StateFailed, after which the Transpiler is idle again.
type State uint8

const (
	StateIdle State = iota
	StateArenaReset
	StateClassify
	StateLoad
	StateParse
	StateAnalyze
	StateTransform
	StateGenerate
	StateDone
	StateFailed
)

var stateNames = [...]string{
	"idle", "arena-reset", "classify", "load", "parse", "analyze", "transform", "generate", "done", "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// StateListener observes state transitions.
type StateListener func(from, to State)

// ErrInvalidUTF8 is returned when a path or a source file is not valid
// UTF-8.
var ErrInvalidUTF8 = errors.New("not valid UTF-8")

// Output is a successful transpilation. It does not reference the
// Transpiler's arena.
type Output struct {
	Code       string
	SourceType SourceType
}

// Transpiler runs the pipeline for one file at a time. All stages allocate
// from a single arena that is reset at the start of every call, so memory
// reserved by earlier calls is reused. A Transpiler is not safe for
// concurrent use; independent Transpilers share no mutable state.
type Transpiler struct {
	cfg      Config
	logger   *zap.Logger
	excess   float64
	listener StateListener

	arena       *arena.Arena
	parser      *syntax.Parser
	builder     *semantic.Builder
	transformer *transform.Transformer
	generator   *codegen.Generator

	state      State
	stageStart time.Time
}

// Option configures a Transpiler.
type Option func(*Transpiler)

// WithConfig sets the transform and codegen configuration.
func WithConfig(cfg Config) Option {
	return func(t *Transpiler) {
		t.cfg = cfg
	}
}

// WithLogger sets the logger. Stage timings are logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Transpiler) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithExcessCapacity sets the extra room reserved in the semantic tables,
// as a fraction of their estimated size.
func WithExcessCapacity(excess float64) Option {
	return func(t *Transpiler) {
		t.excess = excess
	}
}

// WithStateListener registers fn to observe every state transition.
func WithStateListener(fn StateListener) Option {
	return func(t *Transpiler) {
		t.listener = fn
	}
}

// New creates a Transpiler.
func New(opts ...Option) *Transpiler {
	t := &Transpiler{
		cfg:    DefaultConfig(),
		logger: zap.NewNop(),
		excess: semantic.DefaultExcessCapacity,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.cfg = t.cfg.normalize()

	t.arena = arena.New()
	t.parser = syntax.NewParser(t.arena)
	t.builder = semantic.NewBuilder(t.arena, semantic.WithExcessCapacity(t.excess))
	t.transformer = transform.New(t.cfg.Transform, t.logger)
	t.generator = codegen.New(t.cfg.Codegen, t.logger)
	return t
}

// Close releases the parser. The Transpiler must not be used afterwards.
func (t *Transpiler) Close() {
	t.parser.Close()
}

// Config returns the configuration the Transpiler was built with.
func (t *Transpiler) Config() Config { return t.cfg }

// State returns the current state; StateIdle between calls.
func (t *Transpiler) State() State { return t.state }

// ArenaGeneration returns the arena generation. It advances by one per call.
func (t *Transpiler) ArenaGeneration() uint64 { return t.arena.Generation() }

// ArenaReserved returns the bytes held by the arena between calls.
func (t *Transpiler) ArenaReserved() int { return t.arena.Reserved() }

// Transpile converts the file at path to JavaScript. The extension decides
// the source type and is checked before the file is opened. On failure the
// error is an *Error whose Kind names the first stage that failed.
func (t *Transpiler) Transpile(ctx context.Context, path string) (Output, error) {
	defer t.to(StateIdle)

	t.to(StateArenaReset)
	t.arena.Reset()

	t.to(StateClassify)
	if !utf8.ValidString(path) {
		return Output{}, t.fail(&Error{Kind: KindIO, Path: path, Err: fmt.Errorf("path is %w", ErrInvalidUTF8)})
	}
	st, err := source.Classify(path)
	if err != nil {
		return Output{}, t.fail(&Error{Kind: KindIO, Path: path, Err: err})
	}

	t.to(StateLoad)
	src, err := t.load(path)
	if err != nil {
		return Output{}, t.fail(&Error{Kind: KindIO, Path: path, Err: err})
	}

	t.to(StateParse)
	tree, diags, err := t.parser.Parse(ctx, src, st)
	if err != nil {
		return Output{}, t.fail(&Error{Kind: KindParse, Path: path, Err: err})
	}
	if len(diags) > 0 {
		return Output{}, t.fail(&Error{Kind: KindParse, Path: path, Diagnostics: diags})
	}

	t.to(StateAnalyze)
	sc, diags := t.builder.Build(tree)
	if len(diags) > 0 {
		return Output{}, t.fail(&Error{Kind: KindSemantic, Path: path, Diagnostics: diags})
	}

	t.to(StateTransform)
	if diags := t.transformer.Transform(tree, sc); len(diags) > 0 {
		return Output{}, t.fail(&Error{Kind: KindTransform, Path: path, Diagnostics: diags})
	}

	t.to(StateGenerate)
	code := t.generator.Generate(tree)
	out := Output{Code: string(code), SourceType: st}

	t.to(StateDone)
	return out, nil
}

// load reads the file at path into the arena.
func (t *Transpiler) load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	size, err := safecast.Conv[int](info.Size())
	if err != nil {
		return nil, fmt.Errorf("file too large: %w", err)
	}
	buf := t.arena.Alloc(size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(buf) {
		return nil, fmt.Errorf("source is %w", ErrInvalidUTF8)
	}
	return buf, nil
}

func (t *Transpiler) fail(e *Error) error {
	t.to(StateFailed)
	fields := []zap.Field{zap.String("path", e.Path), zap.Stringer("kind", e.Kind)}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}
	if n := len(e.Diagnostics); n > 0 {
		fields = append(fields, zap.Int("diagnostics", n))
	}
	t.logger.Debug("transpile failed", fields...)
	return e
}

// to moves to state s, logging how long the previous stage took.
func (t *Transpiler) to(s State) {
	now := time.Now()
	from := t.state
	if from != StateIdle && from != StateDone && from != StateFailed {
		t.logger.Debug("stage finished", zap.Stringer("stage", from), zap.Duration("took", now.Sub(t.stageStart)))
	}
	t.state = s
	t.stageStart = now
	if t.listener != nil {
		t.listener(from, s)
	}
}
