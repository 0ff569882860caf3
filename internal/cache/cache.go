package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"textveil/internal/model"
)

// fileName is the cache database file inside the cache directory.
const fileName = "verdicts.db"

// VerdictCache stores verdicts keyed by content hash in a SQLite file.
// It is safe for concurrent use.
type VerdictCache struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures VerdictCache behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default cache options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a VerdictCache in cacheDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned.
func Open(cacheDir string, opts Options) (*VerdictCache, error) {
	dbPath := filepath.Join(cacheDir, fileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("verdict cache not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check cache path: %w", err)
		}
	} else {
		if err := os.MkdirAll(cacheDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw refuses to create a new
	// file, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open verdict cache: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	vc := &VerdictCache{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := vc.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return vc, nil
}

// Close closes the database connection.
func (vc *VerdictCache) Close() error {
	return vc.db.Close()
}

// Path returns the database file path.
func (vc *VerdictCache) Path() string {
	return vc.dbPath
}

// createTables creates the cache schema if it doesn't exist.
func (vc *VerdictCache) createTables() error {
	schema := `
	-- Verdicts store one classification outcome per content hash. The
	-- fragment text itself is never persisted.
	CREATE TABLE IF NOT EXISTS verdicts (
		content_hash TEXT PRIMARY KEY,
		should_block INTEGER NOT NULL,
		matched_by TEXT NOT NULL,
		matched_keyword TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_verdicts_created ON verdicts(created_at);
	`

	_, err := vc.db.ExecContext(context.Background(), schema)
	return err
}

// Get looks up the verdict for contentHash. The second return value reports
// whether the hash was present.
func (vc *VerdictCache) Get(ctx context.Context, contentHash string) (model.Verdict, bool, error) {
	query := `
	SELECT should_block, matched_by, matched_keyword
	FROM verdicts
	WHERE content_hash = ?
	`

	var shouldBlock int
	var matchedBy string
	var matchedKeyword sql.NullString

	err := vc.db.QueryRowContext(ctx, query, contentHash).Scan(&shouldBlock, &matchedBy, &matchedKeyword)
	if err == sql.ErrNoRows {
		return model.Verdict{}, false, nil
	}
	if err != nil {
		return model.Verdict{}, false, fmt.Errorf("failed to get verdict: %w", err)
	}

	v := model.Verdict{
		ShouldBlock: shouldBlock != 0,
		MatchedBy:   model.MatchSource(matchedBy),
	}
	if matchedKeyword.Valid {
		v.MatchedKeyword = matchedKeyword.String
	}
	return v, true, nil
}

// Put stores the verdict for contentHash, replacing any previous entry.
// Verdicts carrying a diagnostic error are skipped: a degraded allow must
// not shadow a future successful classification.
func (vc *VerdictCache) Put(ctx context.Context, contentHash string, v model.Verdict) error {
	if v.Err != "" {
		return nil
	}

	query := `
	INSERT INTO verdicts (content_hash, should_block, matched_by, matched_keyword)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(content_hash) DO UPDATE SET
		should_block = excluded.should_block,
		matched_by = excluded.matched_by,
		matched_keyword = excluded.matched_keyword,
		created_at = CURRENT_TIMESTAMP
	`

	shouldBlock := 0
	if v.ShouldBlock {
		shouldBlock = 1
	}

	if _, err := vc.db.ExecContext(ctx, query, contentHash, shouldBlock, string(v.MatchedBy), v.MatchedKeyword); err != nil {
		return fmt.Errorf("failed to store verdict: %w", err)
	}
	return nil
}

// Count returns the number of stored verdicts.
func (vc *VerdictCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := vc.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM verdicts").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count verdicts: %w", err)
	}
	return n, nil
}

// Prune deletes entries older than maxAge and returns how many were removed.
func (vc *VerdictCache) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UTC().Format("2006-01-02 15:04:05")
	result, err := vc.db.ExecContext(ctx, "DELETE FROM verdicts WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune verdicts: %w", err)
	}
	return result.RowsAffected()
}
