package pricing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStore_PutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_cache.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	entry := &Entry{
		Price: 7990, Category: "Electronics", ItemName: "Headphones",
		Condition: "new", Source: SourceFallback, Timestamp: time.Now(),
	}
	if err := store.Put(ctx, "electronics_headphones_new", entry); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "electronics_headphones_new")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price != 7990 || got.Source != SourceFallback {
		t.Fatalf("unexpected entry: %+v", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestFileStore_PurgesExpiredOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_cache.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	fresh := &Entry{Price: 100, Timestamp: time.Now()}
	stale := &Entry{Price: 200, Timestamp: time.Now().Add(-8 * 24 * time.Hour)}
	if err := store.Put(ctx, "fresh", fresh); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "stale", stale); err != nil {
		t.Fatalf("put: %v", err)
	}

	reloaded, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, err := reloaded.Get(ctx, "fresh"); err != nil {
		t.Fatalf("fresh entry lost: %v", err)
	}
	if _, err := reloaded.Get(ctx, "stale"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("stale entry should be purged, got %v", err)
	}
}

func TestFileStore_ExpiredEntryIsMissWithoutReload(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "price_cache.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := store.Put(ctx, "k", &Entry{Price: 100, Timestamp: time.Now()}); err != nil {
		t.Fatalf("put: %v", err)
	}
	store.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("aged entry should miss, got %v", err)
	}
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_cache.json")
	if err := os.WriteFile(path, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("corrupt cache should not fail startup: %v", err)
	}
	if _, err := store.Get(context.Background(), "anything"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected empty store, got %v", err)
	}
}
