// Command ankimd extracts flashcards from markdown documents and schedules
// their review.
//
// Typical usage:
//
//	ankimd --add-source ~/notes
//	ankimd --add-source https://github.com/user/cards.git
//	ankimd --index
//	ankimd --serve --addr :8344
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/ankimd/ankimd/internal/config"
	"github.com/ankimd/ankimd/internal/indexer"
	"github.com/ankimd/ankimd/internal/store"
	"github.com/ankimd/ankimd/internal/storage"
	"github.com/ankimd/ankimd/internal/web"
)

// startupIndexDelay postpones the automatic indexing pass so it does not
// contend with host initialization.
const startupIndexDelay = 5 * time.Second

func main() {
	flags := pflag.NewFlagSet("ankimd", pflag.ExitOnError)

	configPath := flags.String("config", "ankimd.yaml", "Path to the settings file")
	dbPath := flags.String("db", "ankimd.db", "Path to the SQLite database file")
	deckPath := flags.String("deck", "cards.json", "Path to the deck file")
	reposDir := flags.String("repos", "repos", "Directory for git source checkouts")
	addSource := flags.String("add-source", "", "Register a card source (directory or git URL)")
	listSources := flags.Bool("list-sources", false, "List registered card sources")
	index := flags.Bool("index", false, "Run one full indexing pass")
	serve := flags.Bool("serve", false, "Start the HTTP command surface")
	addr := flags.String("addr", ":8344", "Listen address for --serve")

	// Settings overrides; names match the settings file keys.
	defaults := config.Default()
	flags.Int("cardsPerSession", defaults.CardsPerSession, "Cards per review session")
	flags.Int("newCardsPerDay", defaults.NewCardsPerDay, "Daily cap on new cards")
	flags.Int("reviewsPerDay", defaults.ReviewsPerDay, "Daily cap on due-card reviews")
	flags.Float64("easyBonus", defaults.EasyBonus, "Ease reward multiplier for Easy ratings")
	flags.Float64("intervalModifier", defaults.IntervalModifier, "Global interval multiplier")
	flags.Int("maxInterval", defaults.MaxInterval, "Maximum review interval in days")

	if err := flags.Parse(os.Args[1:]); err != nil {
		fatal("parse flags", err)
	}

	settings, err := config.Load(*configPath, flags)
	if err != nil {
		fatal("load settings", err)
	}

	db, err := storage.Open(*dbPath)
	if err != nil {
		fatal("open database", err)
	}
	defer db.Close()

	deck := store.New(*deckPath)
	ix := indexer.New(db, deck, *reposDir)
	ctx := context.Background()

	switch {
	case *addSource != "":
		typ := storage.SourceLocal
		if isGitURL(*addSource) {
			typ = storage.SourceGit
		}
		id, err := db.InsertSource(ctx, *addSource, typ)
		if err != nil {
			fatal("add source", err)
		}
		slog.Info("source registered", "id", id, "path", *addSource, "type", typ)

	case *listSources:
		sources, err := db.GetAllSources(ctx)
		if err != nil {
			fatal("list sources", err)
		}
		for _, s := range sources {
			scanned := "never"
			if s.LastScanned.Valid {
				scanned = s.LastScanned.Time.Format(time.RFC3339)
			}
			fmt.Printf("%d\t%s\t%s\tlast scanned %s\n", s.ID, s.Type, s.Path, scanned)
		}

	case *index:
		stats, err := ix.Run(ctx)
		if err != nil {
			fatal("index", err)
		}
		fmt.Printf("Indexed %d cards from %d documents (%d failures).\n",
			stats.Cards, stats.Documents, stats.Failures)

	case *serve:
		if settings.EnableAutomaticIndexing {
			time.AfterFunc(startupIndexDelay, func() {
				if _, err := ix.Run(ctx); err != nil {
					slog.Error("automatic indexing failed", "error", err)
				}
			})
		}
		server := web.NewServer(settings, deck, db, ix, rand.New(rand.NewSource(time.Now().UnixNano())))
		slog.Info("listening", "addr", *addr)
		if err := http.ListenAndServe(*addr, server); err != nil {
			fatal("serve", err)
		}

	default:
		flags.Usage()
	}
}

func isGitURL(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}

func fatal(what string, err error) {
	slog.Error(what, "error", err)
	os.Exit(1)
}
