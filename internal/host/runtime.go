// Package host runs contract calls against a persistent byte store.
//
// Each call is atomic end to end: the runtime loads the snapshot, decodes a
// fresh Contract, runs the operation and saves the re-encoded state only if
// the operation succeeded. On any failure the decoded Contract and its
// buffered log lines are dropped, so no partial write is ever observable.
// Calls on one Runtime are serialized.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/genstore/internal/codec"
	"github.com/roach88/genstore/internal/engine"
	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/metrics"
	"github.com/roach88/genstore/internal/schema"
	"github.com/roach88/genstore/internal/versions"
)

// DefaultKey is the byte-store key the contract state lives under.
const DefaultKey = "genstore/state"

// Outcome is the result of a successful call.
type Outcome struct {
	Op     string   `json:"op"`
	Result any      `json:"result,omitempty"`
	Logs   []string `json:"logs,omitempty"`
	Digest string   `json:"digest"`
	Bytes  int      `json:"bytes"`
	Seq    int64    `json:"seq,omitempty"`
}

// Runtime is the host for one contract instance.
type Runtime struct {
	mu      sync.Mutex
	store   ByteStore
	key     string
	self    schema.Principal
	logger  *slog.Logger
	ids     versions.IDGenerator
	metrics *metrics.Metrics
	clock   *Clock
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithKey stores state under key instead of DefaultKey.
func WithKey(key string) Option {
	return func(r *Runtime) { r.key = key }
}

// WithLogger sets the logger call logs are flushed to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// WithIDGenerator sets the generator for new record identities.
func WithIDGenerator(ids versions.IDGenerator) Option {
	return func(r *Runtime) { r.ids = ids }
}

// WithMetrics records call and snapshot metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runtime) { r.metrics = m }
}

// New creates a runtime for the contract owned by self.
func New(store ByteStore, self schema.Principal, opts ...Option) *Runtime {
	r := &Runtime{
		store: store,
		key:   DefaultKey,
		self:  self,
		ids:   versions.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	return r
}

// Owner returns the principal that owns the contract.
func (r *Runtime) Owner() schema.Principal {
	return r.self
}

// Construct creates the contract with a single gen-1 record.
// It fails with AlreadyInitialized if state already exists.
func (r *Runtime) Construct(ctx context.Context, caller schema.Principal, name string) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	out, err := r.construct(ctx, name)
	return r.finish(ctx, engine.OpConstruct, caller, out, err, start)
}

func (r *Runtime) construct(ctx context.Context, name string) (Outcome, error) {
	_, ok, err := r.store.Load(ctx, r.key)
	if err != nil {
		return Outcome{}, fmt.Errorf("load state: %w", err)
	}
	if ok {
		return Outcome{}, fault.NewAlreadyInitialized().WithOp(engine.OpConstruct)
	}
	if err := engine.CheckText("name", name); err != nil {
		return Outcome{}, fault.Annotate(err, engine.OpConstruct)
	}
	c := engine.Construct(name, r.ids)
	return r.commit(ctx, Outcome{Op: engine.OpConstruct}, c)
}

// Call runs the operation named op on behalf of caller.
func (r *Runtime) Call(ctx context.Context, caller schema.Principal, op string, args engine.Args) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	out, err := r.call(ctx, caller, op, args)
	return r.finish(ctx, op, caller, out, err, start)
}

func (r *Runtime) call(ctx context.Context, caller schema.Principal, name string, args engine.Args) (Outcome, error) {
	op, ok := engine.Lookup(name)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", engine.ErrUnknownOperation, name)
	}

	c, data, err := r.load(ctx)
	if err != nil {
		return Outcome{}, fault.Annotate(err, name)
	}

	env := engine.NewCallEnv(caller, r.self)
	res, err := c.Invoke(env, name, args)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Op: name, Result: res, Logs: env.Logs()}
	if !op.Mutating {
		out.Digest = codec.Digest(data)
		out.Bytes = len(data)
		return out, nil
	}
	return r.commit(ctx, out, c)
}

// load reads and decodes the current state.
func (r *Runtime) load(ctx context.Context) (*engine.Contract, []byte, error) {
	data, ok, err := r.store.Load(ctx, r.key)
	if err != nil {
		return nil, nil, fmt.Errorf("load state: %w", err)
	}
	if !ok {
		return nil, nil, fault.NewUninitialized()
	}
	c, err := engine.Decode(data, r.ids)
	if err != nil {
		return nil, nil, err
	}
	return c, data, nil
}

// commit encodes c and saves it.
func (r *Runtime) commit(ctx context.Context, out Outcome, c *engine.Contract) (Outcome, error) {
	data, err := c.Encode()
	if err != nil {
		return Outcome{}, err
	}
	if err := r.store.Save(ctx, r.key, data); err != nil {
		return Outcome{}, fmt.Errorf("save state: %w", err)
	}
	r.metrics.ObserveSnapshot(len(data), c.Len())
	out.Digest = codec.Digest(data)
	out.Bytes = len(data)
	return out, nil
}

// finish records metrics, journals the call and flushes logs of successful
// calls.
func (r *Runtime) finish(ctx context.Context, op string, caller schema.Principal, out Outcome, err error, start time.Time) (Outcome, error) {
	r.metrics.ObserveCall(op, err, time.Since(start))
	outcome := metrics.Outcome(err)

	if j, ok := r.store.(Journal); ok {
		seq, jerr := r.nextSeq(ctx, j)
		if jerr == nil {
			jerr = j.AppendCall(ctx, CallRecord{
				Seq:     seq,
				Op:      op,
				Caller:  string(caller),
				Outcome: outcome,
				Digest:  out.Digest,
			})
		}
		if jerr != nil {
			r.logger.Warn("journal append failed", "op", op, "error", jerr)
		} else if err == nil {
			out.Seq = seq
		}
	}

	if err != nil {
		r.logger.Debug("call failed", "op", op, "caller", caller, "outcome", outcome, "error", err)
		return Outcome{}, err
	}
	for _, line := range out.Logs {
		r.logger.Info(line, "op", op)
	}
	r.logger.Debug("call committed", "op", op, "caller", caller, "bytes", out.Bytes, "digest", out.Digest)
	return out, nil
}

// nextSeq seeds the clock from the journal on first use.
func (r *Runtime) nextSeq(ctx context.Context, j Journal) (int64, error) {
	if r.clock == nil {
		last, err := j.LastSeq(ctx)
		if err != nil {
			return 0, err
		}
		r.clock = NewClockAt(last)
	}
	return r.clock.Next(), nil
}

// Stats summarizes the persisted state.
type Stats struct {
	Version    string              `json:"version"`
	Records    int                 `json:"records"`
	MapLen     int                 `json:"map_len"`
	Bytes      int                 `json:"bytes"`
	Digest     string              `json:"digest"`
	Migrations []string            `json:"migrations"`
	Slots      []versions.SlotInfo `json:"slots"`
}

// Stats reads the persisted state without running an operation.
// MapLen is -1 once gen-1 has been removed.
func (r *Runtime) Stats(ctx context.Context) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, data, err := r.load(ctx)
	if err != nil {
		return Stats{}, err
	}
	version, err := c.CurrentVersion()
	if err != nil {
		return Stats{}, err
	}
	mapLen, err := c.MapLen()
	if err != nil {
		mapLen = -1
	}
	return Stats{
		Version:    version,
		Records:    c.Len(),
		MapLen:     mapLen,
		Bytes:      len(data),
		Digest:     codec.Digest(data),
		Migrations: c.Migrations(),
		Slots:      c.Versions(),
	}, nil
}
