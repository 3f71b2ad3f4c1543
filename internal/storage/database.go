// Package storage keeps what the deck file cannot: the registry of card
// sources and the durable review history.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the sqlite driver

	"github.com/ankimd/ankimd/internal/domain"
)

// Source types.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Source is a registered card source, either a local path or a git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string
	LastScanned sql.NullTime
}

// InsertSource registers a new source and returns its ID.
func (db *DB) InsertSource(ctx context.Context, path, typ string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sources (path, type) VALUES (?, ?)
	`, path, typ)
	if err != nil {
		return 0, fmt.Errorf("insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id for source %s: %w", path, err)
	}
	return id, nil
}

// GetAllSources retrieves all registered sources.
func (db *DB) GetAllSources(ctx context.Context) ([]Source, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, path, type, last_scanned FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("get sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceLastScanned stamps a source as scanned now.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("update last scanned for source %d: %w", sourceID, err)
	}
	return nil
}

// AppendReview records one review event. The log is append-only.
func (db *DB) AppendReview(ctx context.Context, log domain.ReviewLog) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO review_log (card_id, rating, reviewed_at, interval, ease_factor)
		VALUES (?, ?, ?, ?, ?)
	`, log.CardID, int(log.Rating), log.ReviewedAt, log.Interval, log.EaseFactor)
	if err != nil {
		return fmt.Errorf("append review for card %s: %w", log.CardID, err)
	}
	return nil
}

// ReviewsForCard retrieves the review history of a card, oldest first.
func (db *DB) ReviewsForCard(ctx context.Context, cardID string) ([]domain.ReviewLog, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT card_id, rating, reviewed_at, interval, ease_factor
		FROM review_log WHERE card_id = ? ORDER BY reviewed_at
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("get reviews for card %s: %w", cardID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var l domain.ReviewLog
		var rating int
		if err := rows.Scan(&l.CardID, &rating, &l.ReviewedAt, &l.Interval, &l.EaseFactor); err != nil {
			return nil, fmt.Errorf("scan review row for card %s: %w", cardID, err)
		}
		l.Rating = domain.Rating(rating)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
