package cache

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func TestMemory(t *testing.T) {
	var m Memory
	ctx := context.Background()

	if _, ok, _ := m.Get(ctx, "https://wp/a.png"); ok {
		t.Fatal("empty cache returned a hit")
	}
	if err := m.Set(ctx, "https://wp/a.png", "asset-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	id, ok, err := m.Get(ctx, "https://wp/a.png")
	if err != nil || !ok || id != "asset-1" {
		t.Errorf("Get = (%q, %v, %v), want (asset-1, true, nil)", id, ok, err)
	}
	if _, ok, _ := m.Get(ctx, "https://wp/b.png"); ok {
		t.Error("unknown url returned a hit")
	}
}

func TestHashKey(t *testing.T) {
	if got := HashKey("sp", "master"); got != "wp2ctf:assets:sp:master" {
		t.Errorf("HashKey = %q", got)
	}
}

func TestNewRedis_InvalidURL(t *testing.T) {
	if _, err := NewRedis(context.Background(), "not a url", "s", "e"); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestRedis(t *testing.T) {
	url := os.Getenv("MIGRATE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MIGRATE_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	r, err := NewRedis(ctx, url, "test-"+uuid.NewString(), "master")
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer r.Close()
	defer r.Clear(ctx)

	if _, ok, err := r.Get(ctx, "https://wp/a.png"); err != nil || ok {
		t.Fatalf("Get on empty hash = (%v, %v), want miss", ok, err)
	}
	if err := r.Set(ctx, "https://wp/a.png", "asset-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	id, ok, err := r.Get(ctx, "https://wp/a.png")
	if err != nil || !ok || id != "asset-1" {
		t.Errorf("Get = (%q, %v, %v), want (asset-1, true, nil)", id, ok, err)
	}
}
