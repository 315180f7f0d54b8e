package profile

import (
	"context"
	"errors"
	"testing"
)

func TestNameFallsBackToEmailLocalPart(t *testing.T) {
	p := Profile{Email: "ada@example.com"}
	if got := p.Name(); got != "ada" {
		t.Fatalf("expected ada, got %q", got)
	}
	p.DisplayName = "Ada Lovelace"
	if got := p.Name(); got != "Ada Lovelace" {
		t.Fatalf("expected display name, got %q", got)
	}
}

func TestMemoryRepositoryUpdateMergesProvidedFields(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, Profile{ID: "u1", Email: "a@b.co", DisplayName: "A", Country: "US", Residence: "US"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, Profile{ID: "u1"}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	country := "UK"
	if err := repo.Update(ctx, "u1", Update{Country: &country}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Country != "UK" || got.DisplayName != "A" || got.Residence != "US" {
		t.Fatalf("unexpected profile %+v", got)
	}

	if err := repo.Update(ctx, "missing", Update{Country: &country}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
