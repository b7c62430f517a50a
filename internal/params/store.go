// Package params supplies the admin-editable function-permission override.
// Lookups fall back from memory to the remote source, then the persistent
// cache, then the built-in defaults, and never fail.
package params

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"hdcn-access/internal/logging"
	"hdcn-access/internal/metadata"
	"hdcn-access/internal/metrics"
)

// Key is the parameter name of the function-permission override.
const Key = "function_permissions"

var (
	ErrNoSource   = errors.New("no parameter source configured")
	ErrReadOnly   = errors.New("parameter store is read-only")
	ErrCacheMiss  = errors.New("parameter cache miss")
	errEmptyTable = errors.New("empty function-permission table")
)

// Lookup tiers, also used as metric labels.
const (
	TierMemory  = "memory"
	TierRemote  = "remote"
	TierCache   = "cache"
	TierDefault = "default"
)

// Source fetches the current override table.
type Source interface {
	Fetch(ctx context.Context) (metadata.FunctionPermissions, error)
}

// Writer persists a new override table.
type Writer interface {
	Save(ctx context.Context, table metadata.FunctionPermissions, updatedBy string) error
}

// Cache is the persistent tier that survives restarts and source outages.
type Cache interface {
	Get(ctx context.Context) (metadata.FunctionPermissions, error)
	Set(ctx context.Context, table metadata.FunctionPermissions) error
	Delete(ctx context.Context) error
}

// Store resolves the function-permission table. All collaborators are
// injected; a nil source, cache or writer disables that tier.
type Store struct {
	source  Source
	cache   Cache
	writer  Writer
	memory  *lru.LRU[string, metadata.FunctionPermissions]
	onLoad  func(metadata.FunctionPermissions)
	metrics *metrics.Metrics
	logger  *zap.Logger

	// pending is the last table saved through a writer that is not the
	// source. It is layered over every resolved table until the source
	// serves it.
	mu      sync.Mutex
	pending metadata.FunctionPermissions
}

type Option func(*Store)

func WithCache(c Cache) Option {
	return func(s *Store) { s.cache = c }
}

func WithWriter(w Writer) Option {
	return func(s *Store) { s.writer = w }
}

// WithRegistry reloads reg whenever a table is resolved from outside the
// memory tier.
func WithRegistry(reg *metadata.Registry) Option {
	return func(s *Store) { s.onLoad = reg.LoadFunctionPermissions }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMemoryTTL sizes the in-memory tier.
func WithMemoryTTL(capacity int, ttl time.Duration) Option {
	return func(s *Store) {
		s.memory = lru.NewLRU[string, metadata.FunctionPermissions](capacity, nil, ttl)
	}
}

// New returns a store reading from source. source may be nil.
func New(source Source, opts ...Option) *Store {
	s := &Store{
		source: source,
		onLoad: func(metadata.FunctionPermissions) {},
		logger: logging.L().Named("params"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.memory == nil {
		s.memory = lru.NewLRU[string, metadata.FunctionPermissions](1, nil, 10*time.Minute)
	}
	return s
}

// FunctionPermissions returns the defaults merged with the best available
// override. It never fails.
func (s *Store) FunctionPermissions(ctx context.Context) metadata.FunctionPermissions {
	table, _ := s.lookup(ctx)
	return table
}

// Load resolves the table like FunctionPermissions and makes sure the
// registry holds it. It returns the tier that answered.
func (s *Store) Load(ctx context.Context) string {
	table, tier := s.lookup(ctx)
	if tier == TierMemory {
		s.onLoad(table)
	}
	return tier
}

func (s *Store) lookup(ctx context.Context) (metadata.FunctionPermissions, string) {
	if table, ok := s.memory.Get(Key); ok {
		s.metrics.ParameterLookup(TierMemory)
		return table, TierMemory
	}

	if s.source != nil {
		override, err := s.source.Fetch(ctx)
		if err == nil {
			s.writeCache(ctx, override)
			return s.remember(override, TierRemote)
		}
		s.logger.Warn("parameter source failed, trying cache", zap.Error(err))
	}

	if s.cache != nil {
		override, err := s.cache.Get(ctx)
		if err == nil {
			return s.remember(override, TierCache)
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("parameter cache failed", zap.Error(err))
		}
	}

	return s.remember(nil, TierDefault)
}

// remember merges override over the defaults, stores the result in the
// memory tier and reloads the registry.
func (s *Store) remember(override metadata.FunctionPermissions, tier string) (metadata.FunctionPermissions, string) {
	table := metadata.DefaultFunctionPermissions().Merge(override)
	if pending := s.layerPending(override, tier == TierRemote); pending != nil {
		table = table.Merge(pending)
	}
	s.memory.Add(Key, table)
	s.metrics.ParameterLookup(tier)
	s.onLoad(table)
	return table, tier
}

// layerPending returns the pending save still missing from override. Once
// the source serves a table covering it the pending table is dropped.
func (s *Store) layerPending(override metadata.FunctionPermissions, fromSource bool) metadata.FunctionPermissions {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	if fromSource && covers(override, s.pending) {
		s.pending = nil
		return nil
	}
	return s.pending
}

func covers(table, want metadata.FunctionPermissions) bool {
	for feature, g := range want {
		have := table[feature]
		if !lo.Every(have.Read, g.Read) || !lo.Every(have.Write, g.Write) {
			return false
		}
	}
	return true
}

func (s *Store) writeCache(ctx context.Context, override metadata.FunctionPermissions) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, override); err != nil {
		s.logger.Warn("write parameter cache", zap.Error(err))
	}
}

// Refresh fetches from the source, bypassing the memory tier, and updates
// both cache tiers and the registry. On error nothing changes.
func (s *Store) Refresh(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.metrics.ParameterRefresh(start, err) }()

	if s.source == nil {
		return ErrNoSource
	}
	override, err := s.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("refresh parameters: %w", err)
	}
	s.writeCache(ctx, override)
	s.remember(override, TierRemote)
	return nil
}

// Invalidate drops the memory and persistent tiers. The next lookup goes to
// the source.
func (s *Store) Invalidate(ctx context.Context) {
	s.memory.Purge()
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx); err != nil {
		s.logger.Warn("invalidate parameter cache", zap.Error(err))
	}
}

// Save persists override through the writer, invalidates the caches and
// reloads. When the writer is not the source the saved table stays layered
// over what the source serves until the source catches up. When the reload
// cannot reach the source the saved table is used.
func (s *Store) Save(ctx context.Context, override metadata.FunctionPermissions, updatedBy string) error {
	if s.writer == nil {
		return ErrReadOnly
	}
	if err := s.writer.Save(ctx, override, updatedBy); err != nil {
		return fmt.Errorf("save parameters: %w", err)
	}
	if !s.writerIsSource() {
		s.mu.Lock()
		s.pending = override
		s.mu.Unlock()
	}
	s.Invalidate(ctx)

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("reload after save failed, using saved table", zap.Error(err))
		s.writeCache(ctx, override)
		if s.writerIsSource() {
			s.remember(override, TierRemote)
		} else {
			s.remember(nil, TierCache)
		}
	}
	return nil
}

func (s *Store) writerIsSource() bool {
	w, ok := s.source.(Writer)
	return ok && w == s.writer
}

// DecodeTable parses the override JSON document.
func DecodeTable(data []byte) (metadata.FunctionPermissions, error) {
	var table metadata.FunctionPermissions
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decode function permissions: %w", err)
	}
	if table == nil {
		return nil, errEmptyTable
	}
	return table, nil
}
