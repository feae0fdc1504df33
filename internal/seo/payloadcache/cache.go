// Package payloadcache stores extracted SEO payloads in Redis, keyed by the
// upstream URL they were fetched from.
package payloadcache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
	"github.com/educationmalaysia/seo-server/pkg/types"
)

// KeyPrefix namespaces payload entries in Redis
const KeyPrefix = "seo:payload:"

// Store is the subset of the Redis client the cache needs
type Store interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Cache is a TTL cache of SEO payloads. A cached nil payload records that
// the upstream answered but carried no SEO object.
type Cache struct {
	store       Store
	ttl         time.Duration
	compression string
	logger      *zap.Logger
}

// New creates a payload cache over store
func New(store Store, cfg configtypes.PayloadCacheConfig, logger *zap.Logger) *Cache {
	return &Cache{
		store:       store,
		ttl:         cfg.TTL.ToDuration(),
		compression: cfg.Compression,
		logger:      logger,
	}
}

// Key returns the Redis key for an upstream URL
func Key(upstreamURL string) string {
	return KeyPrefix + strconv.FormatUint(xxhash.Sum64String(upstreamURL), 16)
}

// Get looks up the payload for upstreamURL. found is false on a miss.
// A hit may carry a nil payload.
func (c *Cache) Get(ctx context.Context, upstreamURL string) (payload *types.SeoPayload, found bool, err error) {
	key := Key(upstreamURL)

	frame, found, err := c.store.GetBytes(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}

	raw, err := decodeFrame(frame)
	if err != nil {
		return nil, false, fmt.Errorf("cache entry %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false, fmt.Errorf("cache entry %s: invalid payload: %w", key, err)
	}

	c.logger.Debug("Payload cache hit",
		zap.String("key", key),
		zap.Bool("has_seo", payload != nil))

	return payload, true, nil
}

// Put stores payload (possibly nil) for upstreamURL with the configured TTL
func (c *Cache) Put(ctx context.Context, upstreamURL string, payload *types.SeoPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	frame, err := encodeFrame(raw, c.compression)
	if err != nil {
		return err
	}

	key := Key(upstreamURL)
	if err := c.store.Set(ctx, key, frame, c.ttl); err != nil {
		return err
	}

	c.logger.Debug("Payload cached",
		zap.String("key", key),
		zap.Int("size", len(frame)),
		zap.Duration("ttl", c.ttl))

	return nil
}
