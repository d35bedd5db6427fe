package etag

import (
	"database/sql"
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	// Import the SQLite driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/glorpus-work/tilefetch/internal/logger"
	"github.com/glorpus-work/tilefetch/pkg/errors"
	"github.com/glorpus-work/tilefetch/pkg/fsutil"
)

// SQLiteStore keeps all ETags in one SQLite database, keyed by absolute
// destination path. It is safe for concurrent use.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens or creates the database at dbPath.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := fsutil.EnsureStateDir(dbPath); err != nil {
			return nil, errors.Wrapf(err, "could not create directory for %s", dbPath)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open etag database %s", dbPath)
	}
	// One connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS etags (
		path TEXT PRIMARY KEY,
		etag TEXT NOT NULL,
		updated_at DATETIME
	)`)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "could not initialize etag database %s", dbPath)
	}

	if dbPath != ":memory:" {
		if err := os.Chmod(dbPath, fsutil.FileModeSecure); err != nil {
			logger.Warn("could not restrict etag database permissions", logger.Fields{"path": dbPath, "error": err})
		}
	}

	logger.Debug("etag database ready", logger.Fields{"path": dbPath})
	return &SQLiteStore{db: db}, nil
}

// Get returns "" for unknown paths.
func (s *SQLiteStore) Get(path string) (string, error) {
	var etag string
	err := s.db.QueryRow(`SELECT etag FROM etags WHERE path = ?`, key(path)).Scan(&etag)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "could not read etag for %s", path)
	}
	return etag, nil
}

// Set inserts or replaces the ETag for path.
func (s *SQLiteStore) Set(path, etag string) error {
	_, err := s.db.Exec(`
		INSERT INTO etags (path, etag, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET etag = excluded.etag, updated_at = excluded.updated_at
	`, key(path), etag, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errors.Wrapf(err, "could not write etag for %s", path)
	}
	return nil
}

// Delete forgets path.
func (s *SQLiteStore) Delete(path string) error {
	if _, err := s.db.Exec(`DELETE FROM etags WHERE path = ?`, key(path)); err != nil {
		return errors.Wrapf(err, "could not remove etag for %s", path)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
