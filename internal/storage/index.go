package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Index is the SQLite catalog of mirrored documents. One row per URL,
// upserted on every write, so the index always reflects the latest crawl.
//
// Design decision: We keep the index in SQLite rather than a JSON file
// because:
//  1. The status subcommand queries it without loading everything
//  2. Upserts are atomic, so a crash never corrupts the catalog
//  3. Concurrent workers can record documents without coordination
type Index struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// IndexRecord is one mirrored document in the catalog.
type IndexRecord struct {
	// URL is the canonical page URL.
	URL string

	// Path is the document's file path relative to the output root.
	Path string

	// Title is the page title.
	Title string

	// StatusCode is the HTTP status observed at fetch time, when any.
	StatusCode int

	// WordCount is the extracted word count.
	WordCount int

	// FetchedAt is when the document was last written.
	FetchedAt time.Time
}

// Summary aggregates the catalog for the status subcommand.
type Summary struct {
	// Documents is the number of mirrored documents.
	Documents int

	// TotalWords sums the word counts of all documents.
	TotalWords int

	// LastFetched is the most recent write, zero when the catalog is empty.
	LastFetched time.Time
}

// OpenIndex opens or creates the document index under dbDir.
func OpenIndex(dbDir string) (*Index, error) {
	if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, "docmirror.db")

	// mode=rwc creates the file on first run; WAL lets the status
	// subcommand read while a crawl is writing.
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	idx := &Index{db: db, dbPath: dbPath}
	if err := idx.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create index schema: %w", err)
	}
	return idx, nil
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Path returns the index file's location on disk.
func (idx *Index) Path() string {
	return idx.dbPath
}

// createTables creates the catalog schema if it doesn't exist.
func (idx *Index) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		url TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		title TEXT,
		status_code INTEGER,
		word_count INTEGER,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path);
	CREATE INDEX IF NOT EXISTS idx_documents_fetched ON documents(fetched_at);
	`

	_, err := idx.db.ExecContext(context.Background(), schema)
	return err
}

// Upsert records a mirrored document, replacing any previous record for the
// same URL.
func (idx *Index) Upsert(ctx context.Context, record IndexRecord) error {
	query := `
	INSERT INTO documents (url, path, title, status_code, word_count, fetched_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(url) DO UPDATE SET
		path = excluded.path,
		title = excluded.title,
		status_code = excluded.status_code,
		word_count = excluded.word_count,
		fetched_at = CURRENT_TIMESTAMP
	`

	_, err := idx.db.ExecContext(ctx, query,
		record.URL,
		record.Path,
		record.Title,
		record.StatusCode,
		record.WordCount,
	)
	if err != nil {
		return fmt.Errorf("failed to record document: %w", err)
	}
	return nil
}

// Get retrieves the record for a URL, or nil when the URL was never
// mirrored.
func (idx *Index) Get(ctx context.Context, url string) (*IndexRecord, error) {
	query := `
	SELECT url, path, title, status_code, word_count, fetched_at
	FROM documents WHERE url = ?
	`

	var record IndexRecord
	var fetchedAt string
	err := idx.db.QueryRowContext(ctx, query, url).Scan(
		&record.URL,
		&record.Path,
		&record.Title,
		&record.StatusCode,
		&record.WordCount,
		&fetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document record: %w", err)
	}

	record.FetchedAt = parseTimestamp(fetchedAt)
	return &record, nil
}

// List returns all records ordered by path, for the status subcommand.
func (idx *Index) List(ctx context.Context) ([]IndexRecord, error) {
	query := `
	SELECT url, path, title, status_code, word_count, fetched_at
	FROM documents ORDER BY path
	`

	rows, err := idx.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var records []IndexRecord
	for rows.Next() {
		var record IndexRecord
		var fetchedAt string
		if err := rows.Scan(
			&record.URL,
			&record.Path,
			&record.Title,
			&record.StatusCode,
			&record.WordCount,
			&fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document record: %w", err)
		}
		record.FetchedAt = parseTimestamp(fetchedAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate document records: %w", err)
	}
	return records, nil
}

// Summarize aggregates the catalog.
func (idx *Index) Summarize(ctx context.Context) (*Summary, error) {
	query := `
	SELECT COUNT(*), COALESCE(SUM(word_count), 0), COALESCE(MAX(fetched_at), '')
	FROM documents
	`

	var summary Summary
	var lastFetched string
	err := idx.db.QueryRowContext(ctx, query).Scan(
		&summary.Documents,
		&summary.TotalWords,
		&lastFetched,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize index: %w", err)
	}
	if lastFetched != "" {
		summary.LastFetched = parseTimestamp(lastFetched)
	}
	return &summary, nil
}

// parseTimestamp handles the formats SQLite emits for DATETIME columns.
func parseTimestamp(s string) time.Time {
	formats := []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05Z",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
