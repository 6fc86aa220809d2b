package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/adityamenon/newsdesk/internal/models"
)

func TestUpsertAndGetOverride(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ov := &models.Override{
		URL:     "https://example.com/f-1",
		Type:    models.TypeFunding,
		Company: "Acme",
		Amount:  "$1.5M",
	}
	if err := store.UpsertOverride(ctx, ov); err != nil {
		t.Fatalf("UpsertOverride error: %v", err)
	}

	got, err := store.GetOverrideByURL(ctx, ov.URL)
	if err != nil {
		t.Fatalf("GetOverrideByURL error: %v", err)
	}
	if got.Company != "Acme" || got.Amount != "$1.5M" {
		t.Errorf("got %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}

	// Upsert replaces fields, including clearing them with empty strings.
	ov.Amount = ""
	ov.Round = "Seed"
	if err := store.UpsertOverride(ctx, ov); err != nil {
		t.Fatalf("second UpsertOverride error: %v", err)
	}
	got, err = store.GetOverrideByURL(ctx, ov.URL)
	if err != nil {
		t.Fatalf("GetOverrideByURL error: %v", err)
	}
	if got.Amount != "" {
		t.Errorf("Amount = %q, want cleared", got.Amount)
	}
	if got.Round != "Seed" {
		t.Errorf("Round = %q, want Seed", got.Round)
	}
}

func TestGetOverrideNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetOverrideByURL(context.Background(), "https://example.com/none")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListAndMapOverrides(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, url := range []string{"https://example.com/o-1", "https://example.com/o-2"} {
		if err := store.UpsertOverride(ctx, &models.Override{URL: url, Name: "N"}); err != nil {
			t.Fatalf("upsert %s: %v", url, err)
		}
	}

	list, err := store.ListOverrides(ctx, 0)
	if err != nil {
		t.Fatalf("ListOverrides error: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("len = %d, want 2", len(list))
	}

	list, err = store.ListOverrides(ctx, 1)
	if err != nil {
		t.Fatalf("ListOverrides(limit=1) error: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("limited len = %d, want 1", len(list))
	}

	m, err := store.OverridesByURL(ctx, 0)
	if err != nil {
		t.Fatalf("OverridesByURL error: %v", err)
	}
	if _, ok := m["https://example.com/o-1"]; !ok {
		t.Error("map missing o-1")
	}
}

func TestDeleteOverride(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertOverride(ctx, &models.Override{URL: "https://example.com/d-1"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ok, err := store.DeleteOverrideByURL(ctx, "https://example.com/d-1")
	if err != nil {
		t.Fatalf("DeleteOverrideByURL error: %v", err)
	}
	if !ok {
		t.Error("delete of existing row should return true")
	}

	ok, err = store.DeleteOverrideByURL(ctx, "https://example.com/d-1")
	if err != nil {
		t.Fatalf("second delete error: %v", err)
	}
	if ok {
		t.Error("delete of missing row should return false")
	}
}
