package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/equipe-visionarios/imoveis-api/models"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "property:"
	genKey      = keyPrefix + "gen"
	listPrefix  = keyPrefix + "list:"
	scanPattern = listPrefix + "*"
	scanCount   = 100
	DefaultTTL  = 10 * time.Minute
)

// Properties caches listing results in Redis, one entry per canonical filter
// and cache generation. Every mutation bumps the generation, so an entry
// written from a read that started before the mutation is never served.
// A nil *Properties or one built without a client behaves as an always-empty cache.
type Properties struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProperties(client *redis.Client, ttl time.Duration) *Properties {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Properties{client: client, ttl: ttl}
}

func (c *Properties) enabled() bool {
	return c != nil && c.client != nil
}

// Key derives the Redis key for a filter under generation gen.
func Key(gen int64, f models.PropertyFilter) string {
	sum := sha256.Sum256([]byte(f.CacheKey()))
	return listPrefix + strconv.FormatInt(gen, 10) + ":" + hex.EncodeToString(sum[:])
}

// Generation returns the current cache generation. It must be read before
// the store is queried. ok is false when the cache cannot be used.
func (c *Properties) Generation(ctx context.Context) (int64, bool) {
	if !c.enabled() {
		return 0, false
	}

	gen, err := c.client.Get(ctx, genKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		log.Printf("Redis GET error for key %s: %v", genKey, err)
		return 0, false
	}
	return gen, true
}

func (c *Properties) Get(ctx context.Context, gen int64, f models.PropertyFilter) ([]models.Property, bool) {
	if !c.enabled() {
		return nil, false
	}

	key := Key(gen, f)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Redis GET error for key %s: %v", key, err)
		}
		return nil, false
	}

	var props []models.Property
	if err := json.Unmarshal(data, &props); err != nil {
		log.Printf("Discarding undecodable cache entry %s: %v", key, err)
		return nil, false
	}
	return props, true
}

func (c *Properties) Set(ctx context.Context, gen int64, f models.PropertyFilter, props []models.Property) {
	if !c.enabled() {
		return
	}

	data, err := json.Marshal(props)
	if err != nil {
		log.Printf("Failed to encode listing for cache: %v", err)
		return
	}
	key := Key(gen, f)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("Redis SET error for key %s: %v", key, err)
	}
}

// Invalidate bumps the generation and drops every cached listing.
func (c *Properties) Invalidate(ctx context.Context) {
	if !c.enabled() {
		return
	}

	if err := c.client.Incr(ctx, genKey).Err(); err != nil {
		log.Printf("Redis INCR error for key %s: %v", genKey, err)
	}

	var keys []string
	var cursor uint64
	for {
		batch, next, err := c.client.Scan(ctx, cursor, scanPattern, scanCount).Result()
		if err != nil {
			log.Printf("Error during Redis SCAN for pattern '%s': %v", scanPattern, err)
			return
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return
	}

	pipe := c.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Error deleting property cache keys: %v", err)
		return
	}
	log.Printf("Invalidated %d property cache keys", len(keys))
}
