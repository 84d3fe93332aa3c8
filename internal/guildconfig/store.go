package guildconfig

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kaikybrofc/ayana-bot/internal/database"
)

const (
	cacheTTL     = 30 * time.Second
	cacheCleanup = 2 * time.Minute
)

// Store is the read-mostly per-guild configuration store. Reads hit a short
// TTL cache; Set persists first and only then replaces the cached value, so a
// failed write leaves the cache at its last known-good state and a successful
// write is immediately visible to subsequent reads.
type Store struct {
	db    *database.Database
	cache *gocache.Cache

	// setMu serializes writers per process so two concurrent patches cannot
	// interleave their read-merge-write cycles.
	setMu sync.Mutex
}

func NewStore(db *database.Database) *Store {
	return &Store{
		db:    db,
		cache: gocache.New(cacheTTL, cacheCleanup),
	}
}

// Get returns the decoded configuration for a guild, falling back to defaults
// when the guild was never configured. The default record is not persisted.
func (s *Store) Get(ctx context.Context, guildID string) (*Record, error) {
	if cached, ok := s.cache.Get(guildID); ok {
		return cached.(*Record), nil
	}

	raw, err := s.db.GetGuildSettings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(guildID, rec)
	return rec, nil
}

// Set merges the patch onto the guild's current settings, validates, persists,
// and returns the new record. The cache is only touched after the durable
// write succeeds.
func (s *Store) Set(ctx context.Context, guildID string, patch Patch) (*Record, error) {
	s.setMu.Lock()
	defer s.setMu.Unlock()

	raw, err := s.db.GetGuildSettings(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if err := applyPatch(raw, patch); err != nil {
		return nil, err
	}

	if err := s.db.UpsertGuildSettings(ctx, raw); err != nil {
		return nil, err
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(guildID)
	s.cache.SetDefault(guildID, rec)
	return rec, nil
}

// Invalidate drops the cached record for a guild.
func (s *Store) Invalidate(guildID string) {
	s.cache.Delete(guildID)
}
