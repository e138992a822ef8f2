package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/genstore/internal/config"
	"github.com/roach88/genstore/internal/host"
	"github.com/roach88/genstore/internal/ldbstore"
	"github.com/roach88/genstore/internal/metrics"
	"github.com/roach88/genstore/internal/schema"
	"github.com/roach88/genstore/internal/store"
)

// History lists journaled calls, newest last.
type History interface {
	Calls(ctx context.Context, op string, limit int) ([]host.CallRecord, error)
}

// session is one opened backend plus the runtime over it.
type session struct {
	runtime  *host.Runtime
	store    host.ByteStore
	history  History // nil for backends without a journal
	registry *prometheus.Registry
	closer   io.Closer
	logger   *slog.Logger
}

// openBackend opens the configured byte store. The memory backend lives for
// one command only.
func openBackend(cfg config.StoreConfig) (host.ByteStore, History, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := store.Open(cfg.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s, s, nil
	case config.BackendLevelDB:
		s, err := ldbstore.Open(cfg.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s, s, nil
	case config.BackendMemory:
		return host.NewMemoryStore(), nil, nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// open opens the backend and builds a runtime with registered metrics.
func (o *RootOptions) open() (*session, error) {
	bs, history, closer, err := openBackend(o.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", o.cfg.Store.Backend, err)
	}
	o.logger.Debug("store opened", "backend", o.cfg.Store.Backend, "path", o.cfg.Store.Path, "key", o.cfg.Store.Key)

	m := metrics.New()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.Collectors()...)

	rt := host.New(bs, schema.Principal(o.cfg.Owner),
		host.WithKey(o.cfg.Store.Key),
		host.WithLogger(o.logger),
		host.WithMetrics(m),
	)
	return &session{
		runtime:  rt,
		store:    bs,
		history:  history,
		registry: reg,
		closer:   closer,
		logger:   o.logger,
	}, nil
}

// Close logs gathered metrics at debug level and closes the backend.
func (s *session) Close() {
	logMetrics(s.logger, s.registry)
	if s.closer == nil {
		return
	}
	if err := s.closer.Close(); err != nil {
		s.logger.Error("error closing store", "error", err)
	}
}

func logMetrics(logger *slog.Logger, g prometheus.Gatherer) {
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	families, err := g.Gather()
	if err != nil {
		logger.Warn("gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"name", mf.GetName()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				attrs = append(attrs, "value", m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				attrs = append(attrs,
					"count", m.GetHistogram().GetSampleCount(),
					"sum", m.GetHistogram().GetSampleSum())
			}
			logger.Debug("metric", attrs...)
		}
	}
}
