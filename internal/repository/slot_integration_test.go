package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

// slotKey returns a key unique to this test run.
func slotKey(t *testing.T) string {
	return fmt.Sprintf("test-%s-%d", t.Name(), time.Now().UnixNano())
}

func exerciseSlot(t *testing.T, slot Slot) {
	t.Helper()
	ctx := context.Background()

	if _, err := slot.Get(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first Put, got %v", err)
	}
	for _, body := range []string{`{"items":[]}`, `{"invoiceNumber":"INV-7","items":[]}`} {
		if err := slot.Put(ctx, []byte(body)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	b, err := slot.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	rec, err := NewSlotInvoiceStore(slot, fixedTemplate).Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v (blob %s)", err, b)
	}
	if rec.InvoiceNumber != "INV-7" {
		t.Errorf("expected INV-7 after overwrite, got %q", rec.InvoiceNumber)
	}
}

func TestPgInvoiceSlot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS invoice_slots (
		key TEXT PRIMARY KEY,
		data JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	key := slotKey(t)
	defer pool.Exec(ctx, `DELETE FROM invoice_slots WHERE key = $1`, key)
	exerciseSlot(t, NewPgInvoiceSlot(pool, key))
}

func TestRedisInvoiceSlot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := ConnectRedis(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	key := slotKey(t)
	defer client.Del(ctx, key)
	exerciseSlot(t, NewRedisInvoiceSlot(client, key))
}

func TestMongoInvoiceSlot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, db, err := ConnectMongo(ctx, uri, "seafreight_test")
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Disconnect(ctx)

	key := slotKey(t)
	slot := NewMongoInvoiceSlot(db, key)
	defer slot.coll.DeleteOne(ctx, map[string]string{"_id": key})
	exerciseSlot(t, slot)
}
