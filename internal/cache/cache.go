// Package cache provides the in-memory query result cache for the
// Kraxel API. Results are held per (query, params) digest with a TTL;
// expiry is enforced lazily on Get and the size bound lazily on Set,
// so no background sweeper is needed.
package cache

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/internal/metrics"
)

const (
	// DefaultMaxSize bounds the number of cached query results.
	DefaultMaxSize = 1000
	// DefaultTTL is applied when a caller does not override the TTL.
	DefaultTTL = 60 * time.Second

	// statsTopEntries is how many entries Stats reports, newest expiry first.
	statsTopEntries = 10
)

// Store is a bounded, TTL-limited key-value store for query results.
// It knows nothing about SQL; keys come from ComputeKey and values are
// opaque. All operations are safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxSize    int
	defaultTTL time.Duration

	// now is swapped out in tests to control expiry.
	now func() time.Time

	logger *zap.Logger
}

type entry struct {
	data      any
	createdAt time.Time
	expiresAt time.Time
}

// New creates an empty store. maxSize and defaultTTL fall back to the
// package defaults when non-positive.
func New(maxSize int, defaultTTL time.Duration, logger *zap.Logger) *Store {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		entries:    make(map[string]*entry),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		now:        time.Now,
		logger:     logger,
	}
}

// DefaultTTL returns the TTL applied when callers do not specify one.
func (s *Store) DefaultTTL() time.Duration {
	return s.defaultTTL
}

// Get returns the live value stored under key. An entry whose TTL has
// elapsed is removed and reported as a miss.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}

	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		s.logger.Debug("cache entry expired", zap.String("key", shortKey(key)))
		return nil, false
	}

	return e.data, true
}

// Set stores data under key for ttl (the store default when ttl <= 0).
// When the store is at capacity the 10% of entries closest to expiry
// are evicted first, so Set always succeeds.
func (s *Store) Set(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.maxSize {
		s.evictSoonestExpiring()
	}

	now := s.now()
	s.entries[key] = &entry{
		data:      data,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

// evictSoonestExpiring removes the soonest-expiring 10% of maxSize.
// Must be called with the lock held.
//
// The percentage truncates: for maxSize < 10 it removes nothing and
// the store may exceed maxSize by one per Set until entries expire.
// That matches the historical behavior callers rely on; see the
// capacity tests before changing the rounding.
func (s *Store) evictSoonestExpiring() {
	n := s.maxSize / 10
	if n == 0 {
		return
	}
	if n > len(s.entries) {
		n = len(s.entries)
	}

	type keyed struct {
		key       string
		expiresAt time.Time
	}
	candidates := make([]keyed, 0, len(s.entries))
	for k, e := range s.entries {
		candidates = append(candidates, keyed{key: k, expiresAt: e.expiresAt})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].expiresAt.Before(candidates[j].expiresAt)
	})

	for _, c := range candidates[:n] {
		delete(s.entries, c.key)
	}

	metrics.CacheEvictions.Add(float64(n))
	s.logger.Debug("cache evicted entries", zap.Int("removed", n))
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry)
	s.logger.Info("cache cleared")
}

// Len reports the current number of entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats describes the state of the store for the admin endpoint.
type Stats struct {
	Size       int            `json:"size"`
	MaxSize    int            `json:"max_size"`
	TopEntries []EntrySummary `json:"items"`
}

// EntrySummary is one entry in Stats, keyed by a truncated digest.
type EntrySummary struct {
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"`
	Age       int    `json:"age"`
}

// Stats reports the entry count and the ten entries with the latest
// expiry. It is read-only: it never evicts, even expired entries.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	type keyed struct {
		key string
		e   *entry
	}
	all := make([]keyed, 0, len(s.entries))
	for k, e := range s.entries {
		all = append(all, keyed{key: k, e: e})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].e.expiresAt.After(all[j].e.expiresAt)
	})

	if len(all) > statsTopEntries {
		all = all[:statsTopEntries]
	}

	now := s.now()
	top := make([]EntrySummary, 0, len(all))
	for _, kv := range all {
		top = append(top, EntrySummary{
			Key:       shortKey(kv.key),
			ExpiresIn: int(kv.e.expiresAt.Sub(now).Seconds()),
			Age:       int(now.Sub(kv.e.createdAt).Seconds()),
		})
	}

	return Stats{
		Size:       len(s.entries),
		MaxSize:    s.maxSize,
		TopEntries: top,
	}
}

func shortKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8] + "..."
}
