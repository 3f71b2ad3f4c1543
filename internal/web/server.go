// Package web exposes the host commands over a JSON API: index all cards,
// start a review session, rate a card, and view the deck. Rendering is the
// host's job; every handler returns data only.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/ankimd/ankimd/internal/config"
	"github.com/ankimd/ankimd/internal/domain"
	"github.com/ankimd/ankimd/internal/indexer"
	"github.com/ankimd/ankimd/internal/review"
	"github.com/ankimd/ankimd/internal/scheduler"
	"github.com/ankimd/ankimd/internal/store"
	"github.com/ankimd/ankimd/internal/storage"
)

// Server holds the dependencies for the HTTP command surface.
type Server struct {
	settings config.Settings
	deck     *store.Store
	db       *storage.DB
	indexer  *indexer.Indexer
	selector *review.Selector
	sched    scheduler.Config
	router   *http.ServeMux
}

// NewServer creates and configures a server. rng may be nil.
func NewServer(settings config.Settings, deck *store.Store, db *storage.DB, ix *indexer.Indexer, rng *rand.Rand) *Server {
	s := &Server{
		settings: settings,
		deck:     deck,
		db:       db,
		indexer:  ix,
		selector: review.NewSelector(review.Config{
			CardsPerSession: settings.CardsPerSession,
			NewCardsPerDay:  settings.NewCardsPerDay,
			ReviewsPerDay:   settings.ReviewsPerDay,
		}, rng),
		sched: scheduler.Config{
			EasyBonus:        settings.EasyBonus,
			IntervalModifier: settings.IntervalModifier,
			MaxInterval:      settings.MaxInterval,
		},
		router: http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("/api/index", s.handleIndex())
	s.router.HandleFunc("/api/cards", s.handleCards())
	s.router.HandleFunc("/api/review/start", s.handleStartSession())
	s.router.HandleFunc("/api/review/forced", s.handleForcedSession())
	s.router.HandleFunc("/api/review/", s.handleRate())
}

// handleIndex triggers a full indexing pass. The silent variant suppresses
// the stats body, mirroring the silent reindex command.
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		stats, err := s.indexer.Run(r.Context())
		if err != nil {
			slog.Error("indexing failed", "error", err)
			http.Error(w, "Indexing failed", http.StatusInternalServerError)
			return
		}
		if r.URL.Query().Get("silent") == "1" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, stats)
	}
}

// handleCards returns the whole deck (the view-all-cards command).
func (s *Server) handleCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		deck, err := s.deck.Load()
		if err != nil {
			slog.Error("failed to load deck", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, deck)
	}
}

// sessionResponse carries the cards chosen for one session. NoCards is set
// when nothing is due and no new cards remain, so the host can offer a
// forced review instead.
type sessionResponse struct {
	Cards   []domain.Card `json:"cards"`
	NoCards bool          `json:"noCardsAvailable,omitempty"`
}

// sessionCards applies presentation settings to a session's card list.
func (s *Server) sessionCards(cards []domain.Card) []domain.Card {
	if s.settings.ShowSourceFile {
		return cards
	}
	out := make([]domain.Card, len(cards))
	for i, c := range cards {
		c.SourceFile = ""
		out[i] = c
	}
	return out
}

func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		deck, err := s.deck.Load()
		if err != nil {
			slog.Error("failed to load deck", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		cards, err := s.selector.Select(deck.Cards, time.Now())
		if errors.Is(err, review.ErrNoCards) {
			writeJSON(w, sessionResponse{Cards: []domain.Card{}, NoCards: true})
			return
		}
		writeJSON(w, sessionResponse{Cards: s.sessionCards(cards)})
	}
}

func (s *Server) handleForcedSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		deck, err := s.deck.Load()
		if err != nil {
			slog.Error("failed to load deck", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, sessionResponse{Cards: s.sessionCards(s.selector.Forced(deck.Cards))})
	}
}

type rateRequest struct {
	Rating domain.Rating `json:"rating"`
}

// handleRate applies a rating to one card: schedule, write back into the
// deck by id, and append to the review log.
func (s *Server) handleRate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/review/")
		if id == "" {
			http.NotFound(w, r)
			return
		}

		var req rateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Rating.IsValid() {
			http.Error(w, "Invalid rating", http.StatusBadRequest)
			return
		}

		deck, err := s.deck.Load()
		if err != nil {
			slog.Error("failed to load deck", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		var card *domain.Card
		for i := range deck.Cards {
			if deck.Cards[i].ID == id {
				card = &deck.Cards[i]
				break
			}
		}
		if card == nil {
			http.NotFound(w, r)
			return
		}

		updated := scheduler.Schedule(*card, req.Rating, time.Now(), s.sched)
		if err := s.deck.Update(updated); err != nil {
			slog.Error("failed to write card back", "card", id, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.logReview(r.Context(), updated, req.Rating)

		writeJSON(w, updated)
	}
}

// logReview appends to the review history. A logging failure is not a
// review failure; the deck already holds the new state.
func (s *Server) logReview(ctx context.Context, card domain.Card, rating domain.Rating) {
	if s.db == nil {
		return
	}
	err := s.db.AppendReview(ctx, domain.ReviewLog{
		CardID:     card.ID,
		Rating:     rating,
		ReviewedAt: *card.LastReviewed,
		Interval:   card.Interval,
		EaseFactor: card.EaseFactor,
	})
	if err != nil {
		slog.Warn("failed to append review log", "card", card.ID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
