package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
)

// cachedMedia is the stored record for one indexed image
type cachedMedia struct {
	Hash     string `badgerhold:"key"`
	Entry    models.MediaEntry
	CachedAt time.Time
}

// MediaCacheStorage implements the MediaCache interface for Badger
type MediaCacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewMediaCacheStorage creates a new MediaCacheStorage instance
func NewMediaCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.MediaCache {
	return &MediaCacheStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a cached media entry by content hash
func (s *MediaCacheStorage) Get(ctx context.Context, contentHash string) (*models.MediaEntry, error) {
	var record cachedMedia
	err := s.db.Store().Get(contentHash, &record)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached media: %w", err)
	}
	entry := record.Entry
	return &entry, nil
}

// Put inserts or updates a cached media entry
func (s *MediaCacheStorage) Put(ctx context.Context, contentHash string, entry *models.MediaEntry) error {
	record := cachedMedia{
		Hash:     contentHash,
		Entry:    *entry,
		CachedAt: time.Now(),
	}
	if err := s.db.Store().Upsert(contentHash, &record); err != nil {
		return fmt.Errorf("failed to cache media entry: %w", err)
	}
	return nil
}

// Close closes the underlying connection
func (s *MediaCacheStorage) Close() error {
	return s.db.Close()
}
