// Package indexer runs full indexing passes: every registered source is
// rescanned, every document parsed, and the resulting card set merged into
// the deck as a whole. There is no per-file incremental path.
package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/ankimd/ankimd/internal/domain"
	"github.com/ankimd/ankimd/internal/gitsource"
	"github.com/ankimd/ankimd/internal/parser"
	"github.com/ankimd/ankimd/internal/store"
	"github.com/ankimd/ankimd/internal/storage"
)

// Stats summarizes one indexing pass.
type Stats struct {
	Sources   int `json:"sources"`
	Documents int `json:"documents"`
	Cards     int `json:"cards"`
	Failures  int `json:"failures"`
}

// Indexer rebuilds the deck from all registered sources.
type Indexer struct {
	db       *storage.DB
	deck     *store.Store
	reposDir string
}

// New creates an Indexer. Git sources are checked out under reposDir.
func New(db *storage.DB, deck *store.Store, reposDir string) *Indexer {
	return &Indexer{db: db, deck: deck, reposDir: reposDir}
}

// Run performs a full indexing pass and saves the merged deck. Individual
// documents that fail to read are logged and skipped; one bad file never
// aborts the pass. The returned error covers only failures that prevent the
// deck from being rebuilt at all, such as a failed save.
func (ix *Indexer) Run(ctx context.Context) (Stats, error) {
	sources, err := ix.db.GetAllSources(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("no sources registered, nothing to index")
	}

	var stats Stats
	var cards []domain.Card

	for _, src := range sources {
		root := src.Path
		if src.Type == storage.SourceGit {
			root, err = gitLocalPath(ix.reposDir, src.Path)
			if err != nil {
				slog.Error("bad git source url", "url", src.Path, "error", err)
				stats.Failures++
				continue
			}
			if err := gitsource.Sync(ctx, src.Path, root); err != nil {
				slog.Error("git source sync failed", "url", src.Path, "error", err)
				stats.Failures++
				continue
			}
		}

		srcCards, srcStats := ix.scan(root)
		cards = append(cards, srcCards...)
		stats.Documents += srcStats.Documents
		stats.Failures += srcStats.Failures
		stats.Sources++

		if err := ix.db.UpdateSourceLastScanned(ctx, src.ID); err != nil {
			slog.Warn("failed to stamp source as scanned", "source_id", src.ID, "error", err)
		}
	}

	deck, err := ix.deck.Replace(cards)
	if err != nil {
		return stats, fmt.Errorf("save deck: %w", err)
	}
	stats.Cards = deck.TotalCards

	slog.Info("indexing pass complete",
		"sources", stats.Sources,
		"documents", stats.Documents,
		"cards", stats.Cards,
		"failures", stats.Failures,
	)
	return stats, nil
}

// scan walks one source root and parses every markdown document under it.
func (ix *Indexer) scan(root string) ([]domain.Card, Stats) {
	var cards []domain.Card
	var stats Stats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable entry", "path", path, "error", err)
			stats.Failures++
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		fileCards, err := parser.ParseFile(path, sourceName(root, path))
		if err != nil {
			slog.Warn("skipping unreadable document", "path", path, "error", err)
			stats.Failures++
			return nil
		}
		stats.Documents++
		cards = append(cards, fileCards...)
		return nil
	})
	if err != nil {
		slog.Error("walking source failed", "path", root, "error", err)
		stats.Failures++
	}
	return cards, stats
}

// sourceName is the logical document name recorded on cards: the path
// relative to the source root, without the .md extension.
func sourceName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.ToSlash(rel)
}

// gitLocalPath maps a git URL to its checkout directory under baseDir.
func gitLocalPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		return filepath.Join(baseDir, parsed.Host, strings.TrimSuffix(parsed.Path, ".git")), nil
	}

	// scp-like syntax: git@host:user/repo.git
	if strings.Contains(repoURL, "@") {
		parts := strings.SplitN(repoURL, ":", 2)
		if len(parts) == 2 {
			hostAndUser := strings.SplitN(parts[0], "@", 2)
			if len(hostAndUser) == 2 {
				return filepath.Join(baseDir, hostAndUser[1], strings.TrimSuffix(parts[1], ".git")), nil
			}
		}
	}
	return "", fmt.Errorf("could not parse git url: %s", repoURL)
}
