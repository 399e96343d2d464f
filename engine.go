package swr

import (
	"context"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// DefaultDedupingInterval is the default width of the fetch deduplication
// window.
const DefaultDedupingInterval = 2 * time.Second

// Config is optional configuration for NewEngine.
type Config struct {
	// Name is added to logs and stats.
	Name string

	// Store is a cache store instance, created by default.
	Store *Store

	// StoreConfig is a configuration for the store instance if Store is not
	// provided.
	StoreConfig StoreConfig

	// Environment reports host visibility/connectivity and emits focus and
	// visibility events, NoOpEnvironment by default.
	Environment Environment

	// DedupingInterval is the default fetch deduplication window for
	// subscriptions that do not set their own, default 2s.
	DedupingInterval time.Duration

	// Logger collects messages with context.
	Logger ctxd.Logger

	// Stats tracks stats.
	Stats stats.Tracker
}

// Engine serves cached values while revalidating them in background.
//
// Please use NewEngine to create instance.
type Engine struct {
	config Config
	store  *Store
	env    Environment
	log    ctxd.Logger
	stat   stats.Tracker
}

// NewEngine creates an Engine instance.
//
// Fetches are deduplicated per key, a stale value is served while an update
// is in flight. Optional configuration can be provided with Config (only
// first argument is used).
func NewEngine(cfg ...Config) *Engine {
	config := Config{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	if config.DedupingInterval == 0 {
		config.DedupingInterval = DefaultDedupingInterval
	}

	e := &Engine{}
	e.config = config

	e.log = config.Logger
	if e.log == nil {
		e.log = ctxd.NoOpLogger{}
	}

	e.stat = config.Stats
	if e.stat == nil {
		e.stat = stats.NoOp{}
	}

	e.env = config.Environment
	if e.env == nil {
		e.env = NoOpEnvironment{}
	}

	e.store = config.Store

	if e.store == nil {
		config.StoreConfig.Name = config.Name
		config.StoreConfig.Logger = config.Logger
		config.StoreConfig.Stats = config.Stats
		e.store = NewStore(config.StoreConfig)
	}

	return e
}

// Store exposes the engine's cache store.
func (e *Engine) Store() *Store {
	return e.store
}

// revalidate invokes a deduplicated fetch for a key and settles it into the
// store.
//
// The validating flag of the key is raised for the duration of the fetch and
// lowered only after the settlement write has fanned out. Concurrent
// revalidations of one key converge on a single flight, whose owner performs
// the single store write; each call still reports its own failure callback.
func (e *Engine) revalidate(ctx context.Context, key string, fetcher Fetcher, cfg SubscriptionConfig) {
	st := e.store

	st.beginValidating(key)

	f := st.BeginFetch(ctx, key, func(fctx context.Context) (interface{}, error) {
		v, err := fetcher(fctx, key)
		if err != nil {
			e.log.Warn(fctx, "failed to revalidate cache value",
				"error", err,
				"name", e.config.Name,
				"key", key)
			e.stat.Add(fctx, MetricFailed, 1, "name", e.config.Name)

			st.WriteErr(fctx, key, err)

			return nil, err
		}

		st.Write(fctx, key, v)

		return v, nil
	}, cfg.DedupingInterval)

	go func() {
		_, err := f.Wait(context.Background())
		if err != nil && cfg.OnError != nil {
			cfg.OnError(err, key)
		}

		st.endValidating(key)
	}()
}
