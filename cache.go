// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package grantgraph

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sethvargo/go-retry"

	"github.com/grantgraph/grantgraph/storage"
)

// Default cache configuration values.
const (
	defaultStalenessThreshold = 30 * time.Second
	defaultReconnectInitial   = 100 * time.Millisecond
	defaultReconnectMax       = 30 * time.Second
)

// Listener abstracts a push-invalidation mechanism (e.g. Postgres
// LISTEN/NOTIFY) for testability. Implementations return a channel
// that emits the key (or "*" for "invalidate everything") that
// changed; the channel closes when ctx is cancelled.
type Listener interface {
	Listen(ctx context.Context) (<-chan string, error)
}

// CacheOption configures a CachingStorage.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	stalenessThreshold time.Duration
	reconnectInitial   time.Duration
	reconnectMax       time.Duration
	lastUpdateGauge    prometheus.Gauge
	logger             *slog.Logger
}

// WithStalenessThreshold sets the duration after which the cache
// reports itself stale if no invalidation has been observed.
func WithStalenessThreshold(d time.Duration) CacheOption {
	return func(c *cacheConfig) { c.stalenessThreshold = d }
}

// WithReconnectBackoff sets the exponential backoff bounds for the
// listener reconnection loop.
func WithReconnectBackoff(initial, max time.Duration) CacheOption {
	return func(c *cacheConfig) { c.reconnectInitial = initial; c.reconnectMax = max }
}

// WithCacheLogger overrides the slog.Logger used for reconnect and
// invalidation diagnostics. Defaults to slog.Default().
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *cacheConfig) { c.logger = l }
}

// WithLastUpdateGauge sets a Prometheus gauge recording the Unix
// timestamp of the last observed invalidation.
func WithLastUpdateGauge(g prometheus.Gauge) CacheOption {
	return func(c *cacheConfig) { c.lastUpdateGauge = g }
}

// CachingStorage decorates a storage.Storage, caching raw row bytes in
// memory and invalidating entries as a Listener reports changes. Decode
// calls are always forwarded to the underlying adapter: only the raw
// Get is cached, since decoding is a pure function of the bytes.
type CachingStorage struct {
	inner    storage.Storage
	listener Listener
	cfg      cacheConfig

	mu    sync.RWMutex
	cache map[string][]byte

	lastUpdate atomic.Int64
	wg         sync.WaitGroup
}

// NewCachingStorage wraps inner with an in-memory row cache. If
// listener is non-nil, Watch must be called to start the background
// invalidation loop.
func NewCachingStorage(inner storage.Storage, listener Listener, opts ...CacheOption) *CachingStorage {
	cfg := cacheConfig{
		stalenessThreshold: defaultStalenessThreshold,
		reconnectInitial:   defaultReconnectInitial,
		reconnectMax:       defaultReconnectMax,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cs := &CachingStorage{
		inner:    inner,
		listener: listener,
		cfg:      cfg,
		cache:    make(map[string][]byte),
	}
	cs.lastUpdate.Store(time.Now().UnixNano())
	return cs
}

// Get implements storage.Storage, serving from cache when possible.
func (c *CachingStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	if raw, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return raw, true, nil
	}
	c.mu.RUnlock()

	raw, found, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		c.mu.Lock()
		c.cache[key] = raw
		c.mu.Unlock()
	}
	return raw, found, nil
}

// DecodeMembership forwards to the underlying adapter.
func (c *CachingStorage) DecodeMembership(raw []byte) ([]storage.Record, bool, error) {
	return c.inner.DecodeMembership(raw)
}

// DecodePermissions forwards to the underlying adapter.
func (c *CachingStorage) DecodePermissions(raw []byte) ([]storage.Record, bool, error) {
	return c.inner.DecodePermissions(raw)
}

// DecodeFilter forwards to the underlying adapter.
func (c *CachingStorage) DecodeFilter(raw []byte) (uint16, error) {
	return c.inner.DecodeFilter(raw)
}

// ConsumeCounter forwards to the underlying adapter if it implements
// storage.CounterConsumer; otherwise it reports the counter as absent.
func (c *CachingStorage) ConsumeCounter(ctx context.Context, recordKey, counterName string) (int, bool, error) {
	cc, ok := c.inner.(storage.CounterConsumer)
	if !ok {
		return 0, false, nil
	}
	return cc.ConsumeCounter(ctx, recordKey, counterName)
}

// Invalidate drops key from the cache, or clears the entire cache when
// key is "*".
func (c *CachingStorage) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == "*" {
		c.cache = make(map[string][]byte)
	} else {
		delete(c.cache, key)
	}
	c.lastUpdate.Store(time.Now().UnixNano())
	if c.cfg.lastUpdateGauge != nil {
		c.cfg.lastUpdateGauge.SetToCurrentTime()
	}
}

// IsStale reports whether longer than the configured staleness
// threshold has elapsed since the last observed invalidation.
func (c *CachingStorage) IsStale() bool {
	last := time.Unix(0, c.lastUpdate.Load())
	return time.Since(last) > c.cfg.stalenessThreshold
}

// Watch starts the background listener reconnection loop, which
// invalidates cache entries as notifications arrive. It returns
// immediately; call Close to stop it.
func (c *CachingStorage) Watch(ctx context.Context) {
	if c.listener == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.watchLoop(ctx)
	}()
}

// Close waits for the background watch loop to exit. ctx cancellation
// must have already been triggered by the caller.
func (c *CachingStorage) Close() {
	c.wg.Wait()
}

func (c *CachingStorage) watchLoop(ctx context.Context) {
	for ctx.Err() == nil {
		ch, err := c.connectWithBackoff(ctx)
		if err != nil {
			return
		}
		for key := range ch {
			c.Invalidate(key)
		}
	}
}

func (c *CachingStorage) connectWithBackoff(ctx context.Context) (<-chan string, error) {
	b := retry.NewExponential(c.cfg.reconnectInitial)
	b = retry.WithCappedDuration(c.cfg.reconnectMax, b)

	var ch <-chan string
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		listened, listenErr := c.listener.Listen(ctx)
		if listenErr != nil {
			c.cfg.logger.WarnContext(ctx, "cache listener reconnect failed, retrying", "error", listenErr)
			return retry.RetryableError(listenErr)
		}
		ch = listened
		return nil
	})
	return ch, err
}
