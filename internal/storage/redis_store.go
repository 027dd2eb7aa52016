package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/starhopp3r/sci-cam-edge/pkg/metrics"
	"github.com/starhopp3r/sci-cam-edge/pkg/util"
)

// FrameCache keeps recently published frames in Redis with a TTL, so ground
// tooling can fetch the latest sci cam image without subscribing to the bus.
// Frames are zstd-compressed before storage.
type FrameCache struct {
	client     *redis.Client
	keys       *KeyGenerator
	compressor *util.Compressor
	ttl        time.Duration
	enabled    bool
}

func NewFrameCache(addr string, ttlSeconds int, keys *KeyGenerator, compressor *util.Compressor, enabled bool) *FrameCache {
	if !enabled {
		return &FrameCache{enabled: false}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	return &FrameCache{
		client:     rdb,
		keys:       keys,
		compressor: compressor,
		ttl:        time.Duration(ttlSeconds) * time.Second,
		enabled:    true,
	}
}

func (fc *FrameCache) Enabled() bool {
	return fc.enabled
}

// SaveFrame stores one published JPEG under a generated key and returns the
// key. Disabled caches report success without touching Redis.
func (fc *FrameCache) SaveFrame(ctx context.Context, timestamp time.Time, data []byte) (string, error) {
	if !fc.enabled {
		return "", nil
	}

	payload := data
	if fc.compressor != nil {
		compressed, err := fc.compressor.Compress(data)
		if err != nil {
			metrics.StorageOperations.WithLabelValues("save", "error").Inc()
			return "", fmt.Errorf("compress frame: %w", err)
		}
		payload = compressed
	}

	key := fc.keys.GenerateKey(timestamp)
	if err := fc.client.Set(ctx, key, payload, fc.ttl).Err(); err != nil {
		metrics.StorageOperations.WithLabelValues("save", "error").Inc()
		return "", fmt.Errorf("failed to save frame to redis: %w", err)
	}

	metrics.StorageOperations.WithLabelValues("save", "ok").Inc()
	return key, nil
}

// LoadFrame fetches and decompresses a cached frame.
func (fc *FrameCache) LoadFrame(ctx context.Context, key string) ([]byte, error) {
	if !fc.enabled {
		return nil, fmt.Errorf("frame cache disabled")
	}

	payload, err := fc.client.Get(ctx, key).Bytes()
	if err != nil {
		metrics.StorageOperations.WithLabelValues("load", "error").Inc()
		return nil, fmt.Errorf("failed to load frame from redis: %w", err)
	}

	metrics.StorageOperations.WithLabelValues("load", "ok").Inc()
	if fc.compressor != nil {
		return util.Decompress(payload)
	}
	return payload, nil
}

func (fc *FrameCache) Close() error {
	if fc.client != nil {
		return fc.client.Close()
	}
	return nil
}
