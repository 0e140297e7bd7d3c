//go:build integration

package firestore_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	pconfig "github.com/august-web/dev-quoteX/internal/platform/config"
	pfirestore "github.com/august-web/dev-quoteX/internal/platform/firestore"
)

type counterDoc struct {
	Name  string `firestore:"name"`
	Count int    `firestore:"count"`
}

// Run with FIRESTORE_EMULATOR_HOST pointing at `gcloud emulators firestore start`.
func newEmulatorProvider(t *testing.T) *pfirestore.Provider {
	t.Helper()
	host := os.Getenv("FIRESTORE_EMULATOR_HOST")
	if host == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	provider := pfirestore.NewProvider(pconfig.FirestoreConfig{ProjectID: "quote-test", EmulatorHost: host})
	t.Cleanup(func() { _ = provider.Close(context.Background()) })
	return provider
}

func TestCollectionRoundTrip(t *testing.T) {
	provider := newEmulatorProvider(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	coll := pfirestore.NewCollection[counterDoc](provider, "counters_"+time.Now().Format("150405.000"))

	if err := coll.Create(ctx, "a", counterDoc{Name: "alpha", Count: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := coll.Create(ctx, "a", counterDoc{Name: "dup"})
	var cls interface{ IsConflict() bool }
	if !errors.As(err, &cls) || !cls.IsConflict() {
		t.Fatalf("expected conflict on duplicate create, got %v", err)
	}

	if err := provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := coll.Ref(ctx, "a")
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc counterDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		doc.Count++
		return tx.Set(ref, doc)
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}

	got, err := coll.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Count != 2 {
		t.Fatalf("expected count 2, got %d", got.Count)
	}

	docs, err := coll.Query(ctx, func(q firestore.Query) firestore.Query { return q.Where("name", "==", "alpha") })
	if err != nil || len(docs) != 1 {
		t.Fatalf("query: %v (%d docs)", err, len(docs))
	}

	_, err = coll.Get(ctx, "missing")
	var nf interface{ IsNotFound() bool }
	if !errors.As(err, &nf) || !nf.IsNotFound() {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := provider.Ping(ctx, coll.Name()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	if err := provider.RunTransaction(cancelled, func(context.Context, *firestore.Transaction) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
