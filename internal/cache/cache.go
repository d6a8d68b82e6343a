package cache

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"time"

	"github.com/pep299/comment-sentiment-analyzer/internal/model"
)

// Cache interface defines cache operations
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// CacheEntry represents a cached analysis run
type CacheEntry struct {
	Key         string     `json:"key"`
	Run         *model.Run `json:"run"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	AccessedAt  time.Time  `json:"accessed_at"`
	AccessCount int        `json:"access_count"`
}

// Stats represents cache statistics
type Stats struct {
	TotalEntries   int           `json:"total_entries"`
	HitCount       int64         `json:"hit_count"`
	MissCount      int64         `json:"miss_count"`
	HitRate        float64       `json:"hit_rate"`
	MemoryUsage    int64         `json:"memory_usage_bytes"`
	OldestEntry    time.Time     `json:"oldest_entry"`
	AverageAge     time.Duration `json:"average_age"`
	ExpiredEntries int           `json:"expired_entries"`
}

// Common cache errors
var (
	ErrCacheMiss = errors.New("cache miss")
)

// Manager stores runs by run ID and remembers the latest run per video
type Manager struct {
	cache Cache
}

// NewManager creates a cache manager backed by cacheType, either "memory" or
// "cloud-storage". bucket is only used by the cloud-storage backend.
func NewManager(ctx context.Context, cacheType string, duration time.Duration, bucket string) (*Manager, error) {
	var cache Cache

	switch cacheType {
	case "memory":
		cache = NewMemoryCache(duration)
	case "cloud-storage":
		gcs, err := NewCloudStorageCache(ctx, bucket, duration)
		if err != nil {
			return nil, err
		}
		cache = gcs
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}

	return &Manager{cache: cache}, nil
}

// NewManagerWithCache wraps an existing Cache
func NewManagerWithCache(cache Cache) *Manager {
	return &Manager{cache: cache}
}

// SetRun stores a run under its ID and as the latest run of its video
func (m *Manager) SetRun(ctx context.Context, run *model.Run) error {
	if err := m.cache.Set(ctx, RunKey(run.ID), &CacheEntry{Run: run}); err != nil {
		return fmt.Errorf("caching run %s: %w", run.ID, err)
	}

	if run.Video != nil && run.Video.ID != "" {
		if err := m.cache.Set(ctx, VideoKey(run.Video.ID), &CacheEntry{Run: run}); err != nil {
			return fmt.Errorf("caching latest run of video %s: %w", run.Video.ID, err)
		}
	}
	return nil
}

// GetRun retrieves a run by ID. A missing or expired run returns ErrCacheMiss.
func (m *Manager) GetRun(ctx context.Context, id string) (*model.Run, error) {
	return m.get(ctx, RunKey(id))
}

// GetLatestRun retrieves the most recent run of a video
func (m *Manager) GetLatestRun(ctx context.Context, videoID string) (*model.Run, error) {
	return m.get(ctx, VideoKey(videoID))
}

func (m *Manager) get(ctx context.Context, key string) (*model.Run, error) {
	entry, err := m.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry.Run == nil {
		return nil, ErrCacheMiss
	}
	return entry.Run, nil
}

// GetStats returns cache statistics
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	return m.cache.GetStats(ctx)
}

// Clear clears all cached entries
func (m *Manager) Clear(ctx context.Context) error {
	return m.cache.Clear(ctx)
}

// Close releases the backend
func (m *Manager) Close() error {
	return m.cache.Close()
}

// RunKey is the cache key of a run
func RunKey(id string) string {
	return "run:" + id
}

// VideoKey is the cache key of the latest run of a video
func VideoKey(videoID string) string {
	return "video:" + videoID
}

// NewRunID derives a run ID from the video and the processing time
func NewRunID(videoID string, processedAt time.Time) string {
	hash := md5.Sum([]byte(videoID + "|" + processedAt.UTC().Format(time.RFC3339Nano)))
	return fmt.Sprintf("%x", hash[:8])
}
