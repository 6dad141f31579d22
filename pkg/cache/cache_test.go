package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// Miss before Set
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get before Set should miss")
	}

	// Round trip
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit {
		t.Fatalf("Get after Set: hit=%v err=%v", hit, err)
	}
	if string(data) != "value" {
		t.Errorf("data = %q, want value", data)
	}

	// Expired entries are treated as misses
	if err := c.Set(ctx, "stale", []byte("old"), -time.Second); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "stale"); hit {
		t.Error("expired entry should miss")
	}

	// Delete removes, deleting again is fine
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("double Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Different inputs produce different hashes
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("different inputs should hash differently")
	}

	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	opts := PlanKeyOpts{DeckWidth: 30, DeckHeight: 15, BlockSpacing: 1}

	// Determinism
	if k.PlanKey("abc", opts) != k.PlanKey("abc", opts) {
		t.Error("PlanKey should be deterministic")
	}

	// Sensitivity to each input
	if k.PlanKey("abc", opts) == k.PlanKey("def", opts) {
		t.Error("PlanKey should depend on the blocks hash")
	}
	other := opts
	other.RingBowClearance = 5
	if k.PlanKey("abc", opts) == k.PlanKey("abc", other) {
		t.Error("PlanKey should depend on deck parameters")
	}

	// Key space prefixes keep stages apart
	if !strings.HasPrefix(k.BlocksKey("abc"), "blocks:") {
		t.Errorf("BlocksKey = %q, want blocks: prefix", k.BlocksKey("abc"))
	}
	if !strings.HasPrefix(k.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg"}), "artifact:") {
		t.Error("ArtifactKey should carry the artifact prefix")
	}
	if k.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg"}) == k.ArtifactKey("abc", ArtifactKeyOpts{Format: "json"}) {
		t.Error("ArtifactKey should depend on the format")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "voyage:42:")

	key := scoped.BlocksKey("abc")
	if !strings.HasPrefix(key, "voyage:42:") {
		t.Errorf("key = %q, want voyage:42: prefix", key)
	}
	if strings.TrimPrefix(key, "voyage:42:") != inner.BlocksKey("abc") {
		t.Error("scoped key should wrap the inner key")
	}

	// Should use DefaultKeyer when inner is nil
	fallback := NewScopedKeyer(nil, "p:")
	if fallback.BlocksKey("abc") != "p:"+inner.BlocksKey("abc") {
		t.Error("nil inner should fall back to the default keyer")
	}
}
