// Package store persists Gaussian decompositions to SQLite. One store file
// holds the component catalog, an index over the HEALPix column, and the
// bookkeeping records of the runs that produced it.
//
// A writable store batches appends inside a transaction. Nothing becomes
// durable, or visible to readers, before Flush commits the batch. On
// abnormal termination the file rolls back to the last flush, never to a
// partially written batch.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"gaussdec/internal/model"
)

var (
	// ErrOutputExists is returned by Create when the target file already
	// exists and clobbering was not requested.
	ErrOutputExists = errors.New("store: output file already exists")

	// ErrStoreClosed is returned on use after Close.
	ErrStoreClosed = errors.New("store: closed")

	// ErrReadOnly is returned when writing to a store opened with
	// OpenRead.
	ErrReadOnly = errors.New("store: opened read-only")

	// ErrNotStore is returned when a file does not carry the expected
	// tables.
	ErrNotStore = errors.New("store: not a decomposition store")

	// ErrRunNotFound is returned for unknown run IDs.
	ErrRunNotFound = errors.New("store: run not found")
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS gaussdec (
	hpxindex   INTEGER NOT NULL,
	glon       REAL NOT NULL,
	glat       REAL NOT NULL,
	amplitude  REAL NOT NULL,
	peak       REAL NOT NULL,
	center_c   REAL NOT NULL,
	center_kms REAL NOT NULL,
	sigma_c    REAL NOT NULL,
	sigma_kms  REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_gaussdec_hpxindex ON gaussdec (hpxindex);
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	infile           TEXT NOT NULL,
	mode             TEXT NOT NULL,
	config           TEXT NOT NULL,
	status           TEXT NOT NULL,
	started_at       DATETIME NOT NULL,
	finished_at      DATETIME,
	units            INTEGER NOT NULL DEFAULT 0,
	fitted           INTEGER NOT NULL DEFAULT 0,
	skipped          INTEGER NOT NULL DEFAULT 0,
	filtered         INTEGER NOT NULL DEFAULT 0,
	components       INTEGER NOT NULL DEFAULT 0,
	checkpoint_units INTEGER NOT NULL DEFAULT 0,
	checkpoint_at    DATETIME
);
`

const insertSQL = `
INSERT INTO gaussdec (hpxindex, glon, glat, amplitude, peak, center_c, center_kms, sigma_c, sigma_kms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Store is a handle on one decomposition file. Writable stores are bound
// to a single goroutine, the pipeline's writer loop. Read-only stores may
// be shared.
type Store struct {
	db       *sql.DB
	insert   *sql.Stmt
	tx       *sql.Tx
	txInsert *sql.Stmt
	readOnly bool
	closed   bool
	path     string
}

// Create creates a new store file. An existing file is an error unless
// clobber is set, in which case it is replaced.
func Create(path string, clobber bool) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		if !clobber {
			return nil, fmt.Errorf("create store %s: %w", path, ErrOutputExists)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("create store %s: %w", path, err)
		}
	}
	return openWritable(path, true)
}

// OpenAppend opens an existing store for appending, the recovery path for
// resuming an interrupted run.
func OpenAppend(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return openWritable(path, false)
}

func openWritable(path string, create bool) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if create {
		if _, err := db.Exec(schemaSQL); err != nil {
			db.Close()
			return nil, fmt.Errorf("create store %s: %w", path, err)
		}
	} else if err := verifySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	insert, err := db.Prepare(insertSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	s := &Store{db: db, insert: insert, path: path}
	if err := s.begin(); err != nil {
		insert.Close()
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenRead opens a store read-only. Append and Flush return ErrReadOnly.
func OpenRead(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := verifySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &Store{db: db, readOnly: true, path: path}, nil
}

func verifySchema(db *sql.DB) error {
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('gaussdec', 'runs')`,
	).Scan(&n)
	if err != nil {
		return err
	}
	if n != 2 {
		return ErrNotStore
	}
	return nil
}

// Path returns the file the store was opened on.
func (s *Store) Path() string { return s.path }

func (s *Store) begin() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store %s: begin batch: %w", s.path, err)
	}
	s.tx = tx
	s.txInsert = tx.Stmt(s.insert)
	return nil
}

func (s *Store) writable() error {
	if s.closed {
		return ErrStoreClosed
	}
	if s.readOnly {
		return ErrReadOnly
	}
	return nil
}

// Append adds one component to the current batch.
func (s *Store) Append(rec model.GaussianComponent) error {
	if err := s.writable(); err != nil {
		return err
	}
	_, err := s.txInsert.Exec(
		rec.HPXIndex, rec.GLon, rec.GLat,
		rec.Amplitude, rec.Peak,
		rec.CenterC, rec.CenterKMS,
		rec.SigmaC, rec.SigmaKMS,
	)
	if err != nil {
		return fmt.Errorf("store %s: append: %w", s.path, err)
	}
	return nil
}

// AppendAll adds a group of components to the current batch. Because the
// batch commits as one transaction, the group can never become durable
// partially.
func (s *Store) AppendAll(recs []model.GaussianComponent) error {
	for _, rec := range recs {
		if err := s.Append(rec); err != nil {
			return err
		}
	}
	return nil
}

// Flush commits the current batch to disk and starts a new one.
func (s *Store) Flush() error {
	if err := s.writable(); err != nil {
		return err
	}
	s.txInsert.Close()
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("store %s: flush: %w", s.path, err)
	}
	return s.begin()
}

// Discard rolls back the current batch and starts a new one. Everything
// appended since the last flush is dropped. A failed append leaves the
// batch with a partial record group, so the writer discards before
// recording the failure.
func (s *Store) Discard() error {
	if err := s.writable(); err != nil {
		return err
	}
	s.txInsert.Close()
	if err := s.tx.Rollback(); err != nil {
		return fmt.Errorf("store %s: discard: %w", s.path, err)
	}
	return s.begin()
}

// Close commits pending appends and releases the handle. Further use of
// the store returns ErrStoreClosed. Skipping Close on abnormal
// termination is safe: the pending batch rolls back.
func (s *Store) Close() error {
	if s.closed {
		return ErrStoreClosed
	}
	s.closed = true

	if s.readOnly {
		return s.db.Close()
	}

	s.txInsert.Close()
	err := s.tx.Commit()
	s.insert.Close()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("close store %s: %w", s.path, err)
	}
	return nil
}
