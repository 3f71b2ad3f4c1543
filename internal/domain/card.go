package domain

import (
	"fmt"
	"time"
)

// DefaultEase is the ease factor assigned to a card that has never been
// reviewed. Ease stays within [MinEase, DefaultEase] for the card's lifetime.
const (
	DefaultEase = 2.5
	MinEase     = 1.3
)

// Rating is the user's assessment of recall difficulty for one review.
type Rating int

const (
	Hard Rating = iota + 1
	Good
	Easy
)

// IsValid reports whether r is one of Hard, Good or Easy.
func (r Rating) IsValid() bool {
	return r >= Hard && r <= Easy
}

func (r Rating) String() string {
	switch r {
	case Hard:
		return "Hard"
	case Good:
		return "Good"
	case Easy:
		return "Easy"
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// Card is a single question/answer study unit extracted from a source
// document. ID is a content fingerprint and acts as the merge key across
// indexing passes; Position is provenance only.
//
// Scheduling fields are absent until the card is first merged into a deck.
// LastReviewed and NextReview stay nil until the first review; ReviewCount
// == 0 marks a card as new, Interval == 0 marks "no prior interval" and
// selects the first-review scheduling rules.
type Card struct {
	ID         string `json:"id"`
	Front      string `json:"front"`
	Back       string `json:"back"`
	SourceFile string `json:"sourceFile"`
	Position   int    `json:"position"`

	LastReviewed *time.Time `json:"lastReviewed,omitempty"`
	NextReview   *time.Time `json:"nextReview,omitempty"`
	EaseFactor   float64    `json:"easeFactor,omitempty"`
	Interval     int        `json:"interval,omitempty"`
	ReviewCount  int        `json:"reviewCount,omitempty"`
}

// Due reports whether the card should be presented at time t. A card with no
// scheduled review yet is always due.
func (c Card) Due(t time.Time) bool {
	return c.NextReview == nil || !c.NextReview.After(t)
}

// New reports whether the card has never been reviewed.
func (c Card) New() bool {
	return c.LastReviewed == nil
}

// Deck is the full persisted card collection. Timestamp records the last
// save; card order is indexing order and carries no meaning.
type Deck struct {
	Timestamp  time.Time `json:"timestamp"`
	TotalCards int       `json:"totalCards"`
	Cards      []Card    `json:"cards"`
}

// ReviewLog records a single review event for a card, including the
// scheduling state that resulted from it. Logs are append-only and outlive
// the card they refer to.
type ReviewLog struct {
	CardID     string
	Rating     Rating
	ReviewedAt time.Time
	Interval   int
	EaseFactor float64
}
