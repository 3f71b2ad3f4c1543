// Package scheduler computes a card's next review from a difficulty rating,
// using an SM-2 style algorithm: a per-card ease factor grows or shrinks
// with the rating, and the review interval is either a fixed first-review
// value or the previous interval scaled by ease.
package scheduler

import (
	"math"
	"time"

	"github.com/ankimd/ankimd/internal/domain"
)

// Config holds the tunable scheduling parameters.
type Config struct {
	EasyBonus        float64 // scales the ease reward for Easy ratings
	IntervalModifier float64 // global multiplier on computed intervals
	MaxInterval      int     // upper bound on any interval, in days
}

// DefaultConfig returns the stock scheduling parameters.
func DefaultConfig() Config {
	return Config{
		EasyBonus:        1.3,
		IntervalModifier: 1.0,
		MaxInterval:      365,
	}
}

const (
	easeStep = 0.15

	firstIntervalHard = 1
	firstIntervalGood = 3
	firstIntervalEasy = 7
)

// Schedule applies a review at time now and returns the updated card. The
// input card is not mutated; the caller writes the result back into the
// deck by id. Scheduling fields missing on the card are initialized to
// their defaults before the rating is applied.
//
// Interval == 0 (never scheduled) selects the fixed first-review intervals;
// afterwards the interval compounds by ease and the interval modifier,
// clamped to MaxInterval. There is no terminal state: a card stays
// reviewable indefinitely.
func Schedule(card domain.Card, rating domain.Rating, now time.Time, cfg Config) domain.Card {
	if card.EaseFactor == 0 {
		card.EaseFactor = domain.DefaultEase
	}

	switch rating {
	case domain.Hard:
		card.EaseFactor = math.Max(domain.MinEase, card.EaseFactor-easeStep)
	case domain.Easy:
		card.EaseFactor = math.Min(domain.DefaultEase, card.EaseFactor+easeStep*cfg.EasyBonus)
	}

	if card.Interval == 0 {
		switch rating {
		case domain.Hard:
			card.Interval = firstIntervalHard
		case domain.Easy:
			card.Interval = firstIntervalEasy
		default:
			card.Interval = firstIntervalGood
		}
	} else {
		next := int(math.Round(float64(card.Interval) * card.EaseFactor * cfg.IntervalModifier))
		if next > cfg.MaxInterval {
			next = cfg.MaxInterval
		}
		card.Interval = next
	}

	due := now.Add(time.Duration(card.Interval) * 24 * time.Hour)
	card.LastReviewed = &now
	card.NextReview = &due
	card.ReviewCount++

	return card
}
