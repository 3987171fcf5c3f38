// Package service orchestrates document version history: committing new
// versions as deltas against the cheapest prior base, reconstructing
// content at any timestamp, and maintenance operations around the
// patch store.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/patchline/cache"
	"github.com/viant/patchline/codec"
	"github.com/viant/patchline/revision"
	"github.com/viant/patchline/store"
)

// Option configures the Service.
type Option func(*Service)

// WithStore sets an existing patch store.
func WithStore(st *store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithDSN sets the DSN used when opening a store.
func WithDSN(dsn string) Option {
	return func(s *Service) { s.dsn = dsn }
}

// WithDriver sets the database/sql driver (default sqlite).
func WithDriver(driver string) Option {
	return func(s *Service) { s.driver = driver }
}

// WithWindow sets the base-selection window.
func WithWindow(window int) Option {
	return func(s *Service) { s.window = window }
}

// WithCacheCapacity bounds the version cache; <= 0 keeps it unbounded.
func WithCacheCapacity(capacity int) Option {
	return func(s *Service) { s.cacheCapacity = capacity }
}

// WithCodec overrides the delta codec.
func WithCodec(co *codec.Codec) Option {
	return func(s *Service) { s.codec = co }
}

// WithLogf sets the default logger for operations without their own.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Service) { s.logf = logf }
}

// Service exposes reusable operations for version history: commit,
// load, stats, import/export, and replication.
type Service struct {
	store         *store.Store
	dsn           string
	driver        string
	window        int
	cacheCapacity int
	cache         *cache.Cache
	codec         *codec.Codec
	recon         *revision.Reconstructor
	selector      *revision.Selector
	logf          func(format string, args ...any)
	mu            sync.Mutex
}

// NewService creates a new Service.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.codec == nil {
		s.codec = codec.New()
	}
	if s.window <= 0 {
		s.window = revision.DefaultWindow
	}
	s.cache = cache.New(s.cacheCapacity)
	return s, nil
}

// Close releases an owned store (if any).
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil && s.dsn != "" {
		return s.store.Close()
	}
	return nil
}

// ensureStore opens the store lazily and installs the resolver chain.
func (s *Service) ensureStore(ctx context.Context) (*store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		if s.dsn == "" {
			return nil, fmt.Errorf("service: dsn required")
		}
		st, err := store.Open(ctx, s.driver, s.dsn)
		if err != nil {
			return nil, err
		}
		s.store = st
	}
	if err := s.store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	if s.recon == nil {
		s.recon = revision.NewReconstructor(s.store, s.cache, s.codec)
		s.selector = revision.NewSelector(s.store, s.recon, s.codec, s.window)
	}
	return s.store, nil
}

// ClearCache empties the version cache. Reconstruction results are
// unaffected; only recomputation cost changes.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// CacheLen returns the number of cached reconstructed versions.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

func (s *Service) logfOr(logf func(format string, args ...any)) func(format string, args ...any) {
	if logf != nil {
		return logf
	}
	return s.logf
}
