package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ankimd/ankimd/internal/domain"
)

func reviewedCard(id string, interval int) domain.Card {
	last := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	next := last.Add(time.Duration(interval) * 24 * time.Hour)
	return domain.Card{
		ID:           id,
		Front:        "old front",
		Back:         "old back",
		SourceFile:   "old",
		LastReviewed: &last,
		NextReview:   &next,
		EaseFactor:   2.2,
		Interval:     interval,
		ReviewCount:  4,
	}
}

func TestMergePreservesSchedulingState(t *testing.T) {
	old := reviewedCard("card-1", 6)
	fresh := domain.Card{
		ID:         "card-1",
		Front:      "new front",
		Back:       "new back",
		SourceFile: "new",
		Position:   42,
	}

	merged := Merge([]domain.Card{fresh}, []domain.Card{old})
	if len(merged) != 1 {
		t.Fatalf("Expected 1 card, got %d", len(merged))
	}

	got := merged[0]
	// Text and provenance come from the fresh parse.
	if got.Front != "new front" || got.Back != "new back" || got.SourceFile != "new" || got.Position != 42 {
		t.Errorf("Expected fresh text and provenance to win, got %+v", got)
	}
	// Scheduling state comes from the old card, bit for bit.
	want := old
	want.Front, want.Back, want.SourceFile, want.Position = got.Front, got.Back, got.SourceFile, got.Position
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scheduling state not preserved (-want +got):\n%s", diff)
	}
}

func TestMergeInitializesNewCards(t *testing.T) {
	fresh := domain.Card{ID: "card-new", Front: "f", Back: "b"}

	merged := Merge([]domain.Card{fresh}, []domain.Card{reviewedCard("card-other", 3)})
	if len(merged) != 1 {
		t.Fatalf("Expected 1 card, got %d", len(merged))
	}

	got := merged[0]
	if got.EaseFactor != domain.DefaultEase || got.Interval != 0 || got.ReviewCount != 0 {
		t.Errorf("Expected default scheduling state, got ease=%.2f interval=%d count=%d",
			got.EaseFactor, got.Interval, got.ReviewCount)
	}
	if got.LastReviewed != nil || got.NextReview != nil {
		t.Error("Expected no review timestamps on a new card")
	}
}

func TestMergeDropsAbsentCards(t *testing.T) {
	previous := []domain.Card{reviewedCard("card-a", 3), reviewedCard("card-b", 5)}
	fresh := []domain.Card{{ID: "card-a", Front: "f", Back: "b"}}

	merged := Merge(fresh, previous)

	if len(merged) != 1 {
		t.Fatalf("Expected cards absent from the parse to drop out, got %d cards", len(merged))
	}
	if merged[0].ID != "card-a" {
		t.Errorf("Expected surviving card card-a, got %s", merged[0].ID)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "cards.json"))

	// Missing file reads as an empty deck.
	deck, err := s.Load()
	if err != nil {
		t.Fatalf("Load() on missing file: %v", err)
	}
	if len(deck.Cards) != 0 {
		t.Fatalf("Expected empty deck, got %d cards", len(deck.Cards))
	}

	parsed := []domain.Card{
		{ID: "card-a", Front: "fa", Back: "ba", SourceFile: "doc"},
		{ID: "card-b", Front: "fb", Back: "bb", SourceFile: "doc"},
	}
	saved, err := s.Replace(parsed)
	if err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if saved.TotalCards != 2 {
		t.Errorf("Expected totalCards 2, got %d", saved.TotalCards)
	}
	if saved.Timestamp.IsZero() {
		t.Error("Expected a save timestamp")
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(saved.Cards, loaded.Cards); diff != "" {
		t.Errorf("Deck changed across save/load (-saved +loaded):\n%s", diff)
	}
}

func TestStoreUpdate(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "cards.json"))
	if _, err := s.Replace([]domain.Card{{ID: "card-a", Front: "f", Back: "b"}}); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}

	now := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	next := now.Add(3 * 24 * time.Hour)
	updated := domain.Card{
		ID: "card-a", Front: "f", Back: "b",
		LastReviewed: &now, NextReview: &next,
		EaseFactor: 2.5, Interval: 3, ReviewCount: 1,
	}
	if err := s.Update(updated); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	deck, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(updated, deck.Cards[0]); diff != "" {
		t.Errorf("Write-back did not persist (-want +got):\n%s", diff)
	}
}

func TestStoreUpdateUnknownCard(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "cards.json"))
	if _, err := s.Replace(nil); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}

	err := s.Update(domain.Card{ID: "card-missing"})
	if err == nil {
		t.Fatal("Expected an error for an unknown card id")
	}
}

func TestMergeTwicePreservesState(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "cards.json"))

	fresh := []domain.Card{{ID: "card-a", Front: "f", Back: "b", SourceFile: "doc"}}
	first, err := s.Replace(fresh)
	if err != nil {
		t.Fatalf("Replace() error: %v", err)
	}

	// Simulate a review between indexing passes.
	reviewed := first.Cards[0]
	now := time.Date(2026, 4, 4, 9, 0, 0, 0, time.UTC)
	next := now.Add(24 * time.Hour)
	reviewed.LastReviewed, reviewed.NextReview = &now, &next
	reviewed.Interval, reviewed.ReviewCount, reviewed.EaseFactor = 1, 1, 2.35
	if err := s.Update(reviewed); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	second, err := s.Replace(fresh)
	if err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if diff := cmp.Diff(reviewed, second.Cards[0]); diff != "" {
		t.Errorf("Reindexing lost review progress (-want +got):\n%s", diff)
	}
}
