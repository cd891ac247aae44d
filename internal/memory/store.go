// Package memory persists composed context snapshots across sessions.
//
// It uses SQLite with FTS5 full-text search so earlier context
// documents stay queryable after their cache entries expire. Saving is
// strictly best effort: the engine offers every successful composition
// and swallows store failures.
package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// Snapshot is one archived context composition.
type Snapshot struct {
	ID         int64             `json:"id"`
	CacheKey   string            `json:"cache_key"`
	Directory  string            `json:"directory"`
	Mode       string            `json:"mode"`
	Category   string            `json:"category"`
	Importance int               `json:"importance"`
	Document   string            `json:"document"`
	Variables  map[string]string `json:"variables,omitempty"`
	FileCount  int               `json:"file_count"`
	TotalBytes int64             `json:"total_bytes"`
	ElapsedMS  int64             `json:"elapsed_ms"`
	CreatedAt  string            `json:"created_at"`
}

// SearchResult embeds a Snapshot with its FTS5 rank score.
type SearchResult struct {
	Snapshot
	Rank float64 `json:"rank"`
}

// SaveParams holds the input for archiving a composition.
type SaveParams struct {
	CacheKey   string
	Directory  string
	Mode       string
	Category   string
	Importance int
	Document   string
	Variables  map[string]string
	FileCount  int
	TotalBytes int64
	Elapsed    time.Duration
}

// Stats holds aggregate snapshot statistics.
type Stats struct {
	TotalSnapshots int      `json:"total_snapshots"`
	Directories    []string `json:"directories"`
	OldestSavedAt  string   `json:"oldest_saved_at,omitempty"`
	NewestSavedAt  string   `json:"newest_saved_at,omitempty"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds snapshot store configuration.
type Config struct {
	DataDir           string
	MaxDocumentLength int
	MaxSearchResults  int
	KeepPerKey        int
}

// DefaultConfig returns the default configuration for the store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:           filepath.Join(home, ".vibex"),
		MaxDocumentLength: 256 * 1024,
		MaxSearchResults:  20,
		KeepPerKey:        10,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the snapshot archive backed by SQLite + FTS5.
type Store struct {
	db    *sql.DB
	cfg   Config
	hooks storeHooks
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// storeHooks intercept database access for fault-injection tests.
type storeHooks struct {
	exec  func(db execer, query string, args ...any) (sql.Result, error)
	query func(db queryer, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execHook(db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(db, query, args...)
	}
	return db.Exec(query, args...)
}

func (s *Store) queryHook(db queryer, query string, args ...any) (*sql.Rows, error) {
	if s.hooks.query != nil {
		return s.hooks.query(db, query, args...)
	}
	return db.Query(query, args...)
}

// New creates a Store with the given configuration. It creates the
// data directory if needed, opens SQLite with WAL mode, and runs
// migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "snapshots.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("memory: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("memory: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			cache_key   TEXT    NOT NULL,
			directory   TEXT    NOT NULL,
			mode        TEXT    NOT NULL DEFAULT 'standard',
			category    TEXT    NOT NULL DEFAULT 'context',
			importance  INTEGER NOT NULL DEFAULT 0,
			document    TEXT    NOT NULL,
			variables   TEXT,
			file_count  INTEGER NOT NULL DEFAULT 0,
			total_bytes INTEGER NOT NULL DEFAULT 0,
			elapsed_ms  INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_snap_key     ON snapshots(cache_key, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_snap_dir     ON snapshots(directory);
		CREATE INDEX IF NOT EXISTS idx_snap_created ON snapshots(created_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS snapshots_fts USING fts5(
			document,
			directory,
			category,
			content='snapshots',
			content_rowid='id'
		);
	`
	if _, err := s.execHook(s.db, schema); err != nil {
		return err
	}

	// Create FTS triggers (idempotent)
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='snap_fts_insert'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER snap_fts_insert AFTER INSERT ON snapshots BEGIN
				INSERT INTO snapshots_fts(rowid, document, directory, category)
				VALUES (new.id, new.document, new.directory, new.category);
			END;

			CREATE TRIGGER snap_fts_delete AFTER DELETE ON snapshots BEGIN
				INSERT INTO snapshots_fts(snapshots_fts, rowid, document, directory, category)
				VALUES ('delete', old.id, old.document, old.directory, old.category);
			END;

			CREATE TRIGGER snap_fts_update AFTER UPDATE ON snapshots BEGIN
				INSERT INTO snapshots_fts(snapshots_fts, rowid, document, directory, category)
				VALUES ('delete', old.id, old.document, old.directory, old.category);
				INSERT INTO snapshots_fts(rowid, document, directory, category)
				VALUES (new.id, new.document, new.directory, new.category);
			END;
		`
		if _, err := s.execHook(s.db, triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// ─── Snapshots ───────────────────────────────────────────────────────────────

// SaveSnapshot archives one composition and prunes older snapshots of
// the same cache key beyond the retention limit.
func (s *Store) SaveSnapshot(p SaveParams) (int64, error) {
	document := p.Document
	if s.cfg.MaxDocumentLength > 0 && len(document) > s.cfg.MaxDocumentLength {
		document = document[:s.cfg.MaxDocumentLength] + "... [truncated]"
	}
	category := p.Category
	if category == "" {
		category = "context"
	}
	mode := p.Mode
	if mode == "" {
		mode = "standard"
	}

	variables, err := marshalVariables(p.Variables)
	if err != nil {
		return 0, fmt.Errorf("memory: encode variables: %w", err)
	}

	res, err := s.execHook(s.db,
		`INSERT INTO snapshots (cache_key, directory, mode, category, importance, document, variables, file_count, total_bytes, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CacheKey, p.Directory, mode, category, p.Importance,
		document, variables, p.FileCount, p.TotalBytes, p.Elapsed.Milliseconds(), Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("memory: insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if pruneErr := s.pruneKey(p.CacheKey); pruneErr != nil {
		return id, fmt.Errorf("memory: prune %q: %w", p.CacheKey, pruneErr)
	}
	return id, nil
}

// pruneKey drops the oldest snapshots of one cache key past the
// retention limit.
func (s *Store) pruneKey(cacheKey string) error {
	if s.cfg.KeepPerKey <= 0 {
		return nil
	}
	_, err := s.execHook(s.db,
		`DELETE FROM snapshots
		 WHERE cache_key = ?
		   AND id NOT IN (
			SELECT id FROM snapshots
			WHERE cache_key = ?
			ORDER BY id DESC
			LIMIT ?
		 )`,
		cacheKey, cacheKey, s.cfg.KeepPerKey,
	)
	return err
}

// GetSnapshot retrieves a single snapshot by ID.
func (s *Store) GetSnapshot(id int64) (*Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT id, cache_key, directory, mode, category, importance, document, variables, file_count, total_bytes, elapsed_ms, created_at
		 FROM snapshots WHERE id = ?`, id,
	)
	return scanSnapshot(row.Scan)
}

// RecentSnapshots returns the latest snapshots, optionally filtered to
// one directory.
func (s *Store) RecentSnapshots(directory string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = s.cfg.MaxSearchResults
	}

	query := `
		SELECT id, cache_key, directory, mode, category, importance, document, variables, file_count, total_bytes, elapsed_ms, created_at
		FROM snapshots
	`
	args := []any{}
	if directory != "" {
		query += " WHERE directory = ?"
		args = append(args, directory)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.queryHook(s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: recent snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, *snap)
	}
	return results, rows.Err()
}

// ─── Search (FTS5) ───────────────────────────────────────────────────────────

// Search performs full-text search across archived documents. An empty
// or whitespace-only query falls back to recent snapshots.
func (s *Store) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if s.cfg.MaxSearchResults > 0 && limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		recent, err := s.RecentSnapshots("", limit)
		if err != nil {
			return nil, err
		}
		results := make([]SearchResult, len(recent))
		for i, snap := range recent {
			results[i] = SearchResult{Snapshot: snap}
		}
		return results, nil
	}

	rows, err := s.queryHook(s.db, `
		SELECT sn.id, sn.cache_key, sn.directory, sn.mode, sn.category, sn.importance, sn.document, sn.variables,
		       sn.file_count, sn.total_bytes, sn.elapsed_ms, sn.created_at, fts.rank
		FROM snapshots_fts fts
		JOIN snapshots sn ON sn.id = fts.rowid
		WHERE snapshots_fts MATCH ?
		ORDER BY fts.rank
		LIMIT ?`,
		ftsQuery, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var sr SearchResult
		var variables sql.NullString
		if err := rows.Scan(
			&sr.ID, &sr.CacheKey, &sr.Directory, &sr.Mode, &sr.Category, &sr.Importance,
			&sr.Document, &variables, &sr.FileCount, &sr.TotalBytes, &sr.ElapsedMS,
			&sr.CreatedAt, &sr.Rank,
		); err != nil {
			return nil, err
		}
		sr.Variables = unmarshalVariables(variables)
		results = append(results, sr)
	}
	return results, rows.Err()
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate snapshot statistics.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}

	_ = s.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&stats.TotalSnapshots)
	_ = s.db.QueryRow("SELECT COALESCE(MIN(created_at), '') FROM snapshots").Scan(&stats.OldestSavedAt)
	_ = s.db.QueryRow("SELECT COALESCE(MAX(created_at), '') FROM snapshots").Scan(&stats.NewestSavedAt)

	rows, err := s.queryHook(s.db,
		"SELECT directory FROM snapshots GROUP BY directory ORDER BY MAX(created_at) DESC")
	if err != nil {
		return stats, nil
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err == nil {
			stats.Directories = append(stats.Directories, d)
		}
	}
	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type scanner func(dest ...any) error

func scanSnapshot(scan scanner) (*Snapshot, error) {
	var snap Snapshot
	var variables sql.NullString
	if err := scan(
		&snap.ID, &snap.CacheKey, &snap.Directory, &snap.Mode, &snap.Category,
		&snap.Importance, &snap.Document, &variables, &snap.FileCount,
		&snap.TotalBytes, &snap.ElapsedMS, &snap.CreatedAt,
	); err != nil {
		return nil, err
	}
	snap.Variables = unmarshalVariables(variables)
	return &snap, nil
}

func marshalVariables(vars map[string]string) (*string, error) {
	if len(vars) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(vars)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func unmarshalVariables(raw sql.NullString) map[string]string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var vars map[string]string
	if err := json.Unmarshal([]byte(raw.String), &vars); err != nil {
		return nil
	}
	return vars
}

// Truncate shortens a string to max length with ellipsis.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "auth service notes" → `"auth" "service" "notes"`
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.Trim(w, `"`)
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}

// Now returns the current time formatted for SQLite.
func Now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}
