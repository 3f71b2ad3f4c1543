// Package review chooses which cards to present in a study session.
package review

import (
	"errors"
	"math/rand"
	"slices"
	"sort"
	"time"

	"github.com/ankimd/ankimd/internal/domain"
)

// ErrNoCards is returned when nothing is due and no new cards remain. The
// caller may fall back to a forced review.
var ErrNoCards = errors.New("no cards available for review")

// Config bounds a session and the daily workload.
type Config struct {
	CardsPerSession int
	NewCardsPerDay  int
	ReviewsPerDay   int
}

// Selector draws session subsets from a deck.
type Selector struct {
	cfg Config
	rng *rand.Rand
}

// NewSelector creates a Selector. A nil rng gets a time-seeded source.
func NewSelector(cfg Config, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{cfg: cfg, rng: rng}
}

// Select returns the cards to present at time now: due cards capped at
// ReviewsPerDay, or, if nothing is due, never-reviewed cards capped at
// NewCardsPerDay. The pool is sampled uniformly down to CardsPerSession.
// Returns ErrNoCards if both pools are empty.
func (s *Selector) Select(cards []domain.Card, now time.Time) ([]domain.Card, error) {
	var pool []domain.Card
	for _, c := range cards {
		if c.Due(now) {
			pool = append(pool, c)
		}
	}
	if len(pool) > 0 {
		pool = truncate(pool, s.cfg.ReviewsPerDay)
	} else {
		for _, c := range cards {
			if c.New() {
				pool = append(pool, c)
			}
		}
		pool = truncate(pool, s.cfg.NewCardsPerDay)
	}
	if len(pool) == 0 {
		return nil, ErrNoCards
	}

	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return truncate(pool, s.cfg.CardsPerSession), nil
}

// Forced returns every card regardless of due date, never-reviewed cards
// first, then least-recently-reviewed first, capped at CardsPerSession.
func (s *Selector) Forced(cards []domain.Card) []domain.Card {
	out := slices.Clone(cards)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastReviewed, out[j].LastReviewed
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	return truncate(out, s.cfg.CardsPerSession)
}

func truncate(cards []domain.Card, n int) []domain.Card {
	if len(cards) > n {
		return cards[:n]
	}
	return cards
}
