package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/equipe-visionarios/imoveis-api/models"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func regionFilter(region string) models.PropertyFilter {
	return models.PropertyFilter{Region: &region}
}

func TestKeyIsStableAndPrefixed(t *testing.T) {
	a := Key(0, regionFilter("central"))
	b := Key(0, regionFilter("central"))
	c := Key(0, regionFilter("abc"))

	if a != b {
		t.Fatalf("same filter must map to the same key")
	}
	if a == c {
		t.Fatalf("different filters must map to different keys")
	}
	if a == Key(1, regionFilter("central")) {
		t.Fatalf("generations must not share keys")
	}
	if !strings.HasPrefix(a, "property:list:") {
		t.Fatalf("key %q lacks the property:list: prefix", a)
	}
}

func TestGetSetWithTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewProperties(client, 0)
	ctx := context.Background()
	f := regionFilter("central")

	gen, ok := c.Generation(ctx)
	if !ok || gen != 0 {
		t.Fatalf("fresh cache must start at generation 0, got %d %v", gen, ok)
	}
	if _, ok := c.Get(ctx, gen, f); ok {
		t.Fatalf("empty cache must miss")
	}

	c.Set(ctx, gen, f, []models.Property{{Title: "Casa", Region: "central", Images: []models.Image{}}})

	got, ok := c.Get(ctx, gen, f)
	if !ok || len(got) != 1 || got[0].Title != "Casa" {
		t.Fatalf("expected cache hit, got %v %v", got, ok)
	}
	if ttl := mr.TTL(Key(gen, f)); ttl != DefaultTTL {
		t.Fatalf("expected ttl %v, got %v", DefaultTTL, ttl)
	}

	mr.FastForward(DefaultTTL + time.Second)
	if _, ok := c.Get(ctx, gen, f); ok {
		t.Fatalf("entry must expire after the ttl")
	}
}

func TestInvalidateDropsOnlyListingKeys(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewProperties(client, time.Minute)
	ctx := context.Background()

	for _, region := range []string{"central", "abc", "zona sul"} {
		c.Set(ctx, 0, regionFilter(region), []models.Property{})
	}
	if err := mr.Set("session:1", "keep"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c.Invalidate(ctx)

	for _, region := range []string{"central", "abc", "zona sul"} {
		if mr.Exists(Key(0, regionFilter(region))) {
			t.Fatalf("listing for %s survived invalidation", region)
		}
	}
	if !mr.Exists("session:1") {
		t.Fatalf("unrelated keys must be left alone")
	}
	if gen, _ := c.Generation(ctx); gen != 1 {
		t.Fatalf("invalidation must bump the generation, got %d", gen)
	}
}

func TestLateSetAfterInvalidateIsNeverServed(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewProperties(client, time.Minute)
	ctx := context.Background()
	f := regionFilter("central")

	// A reader takes the generation and queries the store before a write lands.
	before, _ := c.Generation(ctx)
	c.Invalidate(ctx)
	c.Set(ctx, before, f, []models.Property{{Title: "Antigo"}})

	after, _ := c.Generation(ctx)
	if _, ok := c.Get(ctx, after, f); ok {
		t.Fatalf("entry written under an old generation must not be served")
	}
}

func TestDisabledCache(t *testing.T) {
	var nilCache *Properties
	ctx := context.Background()

	nilCache.Set(ctx, 0, regionFilter("central"), nil)
	nilCache.Invalidate(ctx)
	if _, ok := nilCache.Generation(ctx); ok {
		t.Fatalf("nil cache must report itself unusable")
	}
	if _, ok := nilCache.Get(ctx, 0, regionFilter("central")); ok {
		t.Fatalf("nil cache must always miss")
	}

	noClient := NewProperties(nil, 0)
	noClient.Set(ctx, 0, regionFilter("central"), nil)
	if _, ok := noClient.Get(ctx, 0, regionFilter("central")); ok {
		t.Fatalf("cache without client must always miss")
	}
}
