package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/ostendo/internal/models"
)

// ErrCacheMiss is returned when a media hash has no cached entry
var ErrCacheMiss = errors.New("media cache miss")

// MediaCache persists indexed media entries keyed by content hash, so
// unchanged images skip dimension probing and preview encoding on re-runs.
type MediaCache interface {
	Get(ctx context.Context, contentHash string) (*models.MediaEntry, error)
	Put(ctx context.Context, contentHash string, entry *models.MediaEntry) error
	Close() error
}

// StorageManager aggregates the storage concerns behind one lifecycle
type StorageManager interface {
	MediaCache() MediaCache
	Close() error
}
