// Package store persists the deck as a single JSON document and reconciles
// freshly indexed cards against it. All mutation goes through one handle so
// the load-mutate-save cycle cannot interleave with itself.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/ankimd/ankimd/internal/domain"
)

// ErrCardNotFound is returned when a write-back targets an id that is not
// in the deck.
var ErrCardNotFound = errors.New("card not found in deck")

// Store is a handle on the persisted deck file.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a handle for the deck file at path. The file need not exist;
// a missing file reads as an empty deck.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted deck.
func (s *Store) Load() (domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Replace merges freshly parsed cards against the persisted deck and saves
// the result. Cards whose id already exists keep their scheduling state;
// new ids start from defaults. Cards absent from the parse drop out of the
// deck entirely.
func (s *Store) Replace(parsed []domain.Card) (domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, err := s.load()
	if err != nil {
		return domain.Deck{}, err
	}
	deck.Cards = Merge(parsed, deck.Cards)
	if err := s.save(&deck); err != nil {
		return domain.Deck{}, err
	}
	return deck, nil
}

// Update writes a single card back into the deck by id lookup, as after a
// review. Returns ErrCardNotFound if the id is not in the deck.
func (s *Store) Update(card domain.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, err := s.load()
	if err != nil {
		return err
	}
	found := false
	for i := range deck.Cards {
		if deck.Cards[i].ID == card.ID {
			deck.Cards[i] = card
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrCardNotFound, card.ID)
	}
	return s.save(&deck)
}

// Merge reconciles freshly parsed cards against the previous deck contents.
// The result is exactly the parsed set: matching ids inherit the previous
// scheduling state (the new text and provenance win), unseen ids are
// initialized as new cards.
func Merge(parsed, previous []domain.Card) []domain.Card {
	prev := make(map[string]domain.Card, len(previous))
	for _, c := range previous {
		prev[c.ID] = c
	}

	out := make([]domain.Card, 0, len(parsed))
	for _, c := range parsed {
		if old, ok := prev[c.ID]; ok {
			c.LastReviewed = old.LastReviewed
			c.NextReview = old.NextReview
			c.EaseFactor = old.EaseFactor
			c.Interval = old.Interval
			c.ReviewCount = old.ReviewCount
		} else {
			c.EaseFactor = domain.DefaultEase
			c.Interval = 0
			c.ReviewCount = 0
		}
		out = append(out, c)
	}
	return out
}

func (s *Store) load() (domain.Deck, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Deck{}, nil
		}
		return domain.Deck{}, fmt.Errorf("read deck %s: %w", s.path, err)
	}
	var deck domain.Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		return domain.Deck{}, fmt.Errorf("decode deck %s: %w", s.path, err)
	}
	return deck, nil
}

func (s *Store) save(deck *domain.Deck) error {
	deck.Timestamp = time.Now().UTC()
	deck.TotalCards = len(deck.Cards)

	data, err := json.MarshalIndent(deck, "", "  ")
	if err != nil {
		return fmt.Errorf("encode deck: %w", err)
	}
	// Atomic replace: a failed save never leaves a truncated deck behind.
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write deck %s: %w", s.path, err)
	}
	return nil
}
