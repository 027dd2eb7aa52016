package storage

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KeyStrategy selects how cache keys are suffixed.
type KeyStrategy string

const (
	// StrategyBasic uses only the timestamp.
	StrategyBasic KeyStrategy = "basic"
	// StrategySequence appends a rolling counter, enough to disambiguate
	// frames from one camera on one node.
	StrategySequence KeyStrategy = "sequence"
	// StrategyUUID appends a short UUID for multi-node deployments sharing
	// one Redis.
	StrategyUUID KeyStrategy = "uuid"
)

type KeyGeneratorConfig struct {
	Strategy KeyStrategy
	Prefix   string
	CameraID string
}

// KeyGenerator builds unique Redis keys for cached frames.
// Format: {prefix}:{camera_id}:{unix_nano}[:{suffix}]
type KeyGenerator struct {
	config   KeyGeneratorConfig
	sequence uint64
	mu       sync.Mutex
}

func NewKeyGenerator(config KeyGeneratorConfig) *KeyGenerator {
	if config.Strategy == "" {
		config.Strategy = StrategySequence
	}
	if config.CameraID == "" {
		config.CameraID = "sci_cam"
	}

	return &KeyGenerator{config: config}
}

func (kg *KeyGenerator) GenerateKey(timestamp time.Time) string {
	baseKey := fmt.Sprintf("%s:%s:%d",
		kg.config.Prefix,
		kg.config.CameraID,
		timestamp.UnixNano(),
	)

	switch kg.config.Strategy {
	case StrategySequence:
		return fmt.Sprintf("%s:%05d", baseKey, kg.nextSequence())
	case StrategyUUID:
		return fmt.Sprintf("%s:%s", baseKey, uuid.New().String()[:8])
	default:
		return baseKey
	}
}

// KeyComponents are the parsed parts of a cache key.
type KeyComponents struct {
	Prefix    string
	CameraID  string
	Timestamp time.Time
	Suffix    string
}

// ParseKey decomposes a cache key produced by GenerateKey.
func (kg *KeyGenerator) ParseKey(key string) (*KeyComponents, error) {
	parts := strings.Split(key, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return nil, fmt.Errorf("invalid key format: %s", key)
	}

	unixNano, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp in key %s: %w", key, err)
	}

	components := &KeyComponents{
		Prefix:    parts[0],
		CameraID:  parts[1],
		Timestamp: time.Unix(0, unixNano),
	}
	if len(parts) == 4 {
		components.Suffix = parts[3]
	}
	return components, nil
}

// QueryPattern returns the Redis MATCH pattern covering this generator's keys.
func (kg *KeyGenerator) QueryPattern() string {
	return fmt.Sprintf("%s:%s:*", kg.config.Prefix, kg.config.CameraID)
}

func (kg *KeyGenerator) nextSequence() uint64 {
	kg.mu.Lock()
	defer kg.mu.Unlock()
	kg.sequence++
	if kg.sequence > 99999 {
		kg.sequence = 1
	}
	return kg.sequence
}
