package survey

import (
	"database/sql"
	"fmt"
	"os"
)

// Writer appends spectra to a new survey file. Rows are numbered in append
// order starting at zero. All appends happen inside one transaction that
// commits on Close.
type Writer struct {
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
	next int64
}

// Create creates a new survey file. An existing file is an error unless
// clobber is set, in which case it is replaced.
func Create(path string, clobber bool) (*Writer, error) {
	if _, err := os.Stat(path); err == nil {
		if !clobber {
			return nil, fmt.Errorf("create survey %s: %w", path, ErrSurveyExists)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("create survey %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("create survey %s: %w", path, err)
	}
	_, err = db.Exec(`
		CREATE TABLE survey (
			row_index INTEGER PRIMARY KEY,
			hpxindex  INTEGER NOT NULL,
			data      BLOB    NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create survey %s: %w", path, err)
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create survey %s: %w", path, err)
	}
	stmt, err := tx.Prepare(`INSERT INTO survey (row_index, hpxindex, data) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("create survey %s: %w", path, err)
	}
	return &Writer{db: db, tx: tx, stmt: stmt}, nil
}

// Append writes one spectrum and returns its row index.
func (w *Writer) Append(hpx int64, data []float64) (int64, error) {
	row := w.next
	if _, err := w.stmt.Exec(row, hpx, EncodeSamples(data)); err != nil {
		return 0, fmt.Errorf("append survey row %d: %w", row, err)
	}
	w.next++
	return row, nil
}

// Close commits the pending rows and closes the file.
func (w *Writer) Close() error {
	w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("close survey writer: %w", err)
	}
	return w.db.Close()
}
