package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Load(ctx, "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Save(ctx, "token", "abc", 0); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if err := store.Save(ctx, "superadmin_token", "sa", 0); err != nil {
		t.Fatalf("save superadmin token: %v", err)
	}
	got, err := store.Load(ctx, "token")
	if err != nil || got != "abc" {
		t.Fatalf("expected abc, got %q (%v)", got, err)
	}

	if err := store.Delete(ctx, "token"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected token gone, got %v", err)
	}
	if got, _ := store.Load(ctx, "superadmin_token"); got != "sa" {
		t.Fatalf("superadmin token must survive, got %q", got)
	}

	if err := store.Delete(ctx, "token", "superadmin_token"); err != nil {
		t.Fatalf("delete both: %v", err)
	}
	if _, err := store.Load(ctx, "superadmin_token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected superadmin token gone, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_ = store.Save(context.Background(), "token", "abc", time.Minute)
	now = now.Add(2 * time.Minute)
	if _, err := store.Load(context.Background(), "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestFileStore(t *testing.T) {
	store, err := OpenFile(filepath.Join(t.TempDir(), "nested", "session.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	exerciseStore(t, store)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	first, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Save(context.Background(), "token", "persisted", 0); err != nil {
		t.Fatalf("save: %v", err)
	}

	second, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := second.Load(context.Background(), "token")
	if err != nil || got != "persisted" {
		t.Fatalf("expected persisted token, got %q (%v)", got, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}
}

func TestFileStoreExpiry(t *testing.T) {
	store, err := OpenFile(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Save(context.Background(), "token", "abc", time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	now = now.Add(59 * time.Minute)
	if got, err := store.Load(context.Background(), "token"); err != nil || got != "abc" {
		t.Fatalf("expected live token, got %q (%v)", got, err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := store.Load(context.Background(), "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.Load(context.Background(), "token"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	store := NewRedis(client, "test:")
	exerciseStore(t, store)

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestRedisStoreTTL(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	store := NewRedis(client, "")
	ctx := context.Background()
	if err := store.Save(ctx, "token", "abc", time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !s.Exists(defaultRedisPrefix + "token") {
		t.Fatalf("expected prefixed key in redis")
	}

	s.FastForward(2 * time.Minute)
	if _, err := store.Load(ctx, "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired key, got %v", err)
	}
}
