package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisGetSetDelete(t *testing.T) {
	store := newTestRedis(t)
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "products", []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, ok, err := store.Get(ctx, "products")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(raw) != `[]` {
		t.Fatalf("unexpected value %q", raw)
	}

	if err := store.Delete(ctx, "products"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "products"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestRedisKeysAreNamespaced(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Set(context.Background(), "businessSettings", []byte(`{}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("tillpoint:businessSettings") {
		t.Fatalf("expected namespaced key, have %v", mr.Keys())
	}
}

func TestRedisValuesDoNotExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Set(context.Background(), "transactionLog", []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("tillpoint:transactionLog"); ttl != 0 {
		t.Fatalf("system-of-record keys must not expire, got ttl %v", ttl)
	}
}
