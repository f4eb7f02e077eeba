// Package survey reads and writes the single-dish HI survey tables the
// decomposition runs against. A survey file is a SQLite database with one
// table, "survey", holding one spectrum per sky pixel: the row index, the
// HEALPix index of the pixel and the brightness-temperature samples packed
// as little-endian float32.
package survey

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrRowNotFound is returned when a requested row index is not present
	// in the survey table.
	ErrRowNotFound = errors.New("survey: row not found")

	// ErrSurveyExists is returned by Create when the target file already
	// exists and clobbering was not requested.
	ErrSurveyExists = errors.New("survey: file already exists")
)

// Row is one spectrum of the survey.
type Row struct {
	Index    int64
	HPXIndex int64
	Data     []float64
}

// Table provides read access to a survey file. A Table is safe to use from
// a single goroutine; workers that read concurrently each open their own.
type Table struct {
	db    *sql.DB
	nrows int64
	nchan int
}

// Open opens a survey file read-only.
func Open(path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open survey %s: %w", path, err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open survey %s: %w", path, err)
	}

	t := &Table{db: db}
	if err := db.QueryRow(`SELECT COUNT(*) FROM survey`).Scan(&t.nrows); err != nil {
		db.Close()
		return nil, fmt.Errorf("open survey %s: %w", path, err)
	}
	if t.nrows > 0 {
		var nbytes int
		err = db.QueryRow(`SELECT LENGTH(data) FROM survey LIMIT 1`).Scan(&nbytes)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open survey %s: %w", path, err)
		}
		t.nchan = nbytes / 4
	}
	return t, nil
}

// NRows returns the number of spectra in the table.
func (t *Table) NRows() int64 { return t.nrows }

// NChannels returns the number of spectral channels per row, 0 for an
// empty table.
func (t *Table) NChannels() int { return t.nchan }

// Row reads the spectrum at the given row index.
func (t *Table) Row(index int64) (Row, error) {
	var (
		hpx  int64
		blob []byte
	)
	err := t.db.QueryRow(
		`SELECT hpxindex, data FROM survey WHERE row_index = ?`, index,
	).Scan(&hpx, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, fmt.Errorf("row %d: %w", index, ErrRowNotFound)
	}
	if err != nil {
		return Row{}, fmt.Errorf("read row %d: %w", index, err)
	}
	return Row{Index: index, HPXIndex: hpx, Data: DecodeSamples(blob)}, nil
}

// ScanIndex calls fn for every (row index, HEALPix index) pair in row
// order. Scanning stops at the first error fn returns.
func (t *Table) ScanIndex(fn func(row, hpx int64) error) error {
	rows, err := t.db.Query(`SELECT row_index, hpxindex FROM survey ORDER BY row_index`)
	if err != nil {
		return fmt.Errorf("scan survey index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row, hpx int64
		if err := rows.Scan(&row, &hpx); err != nil {
			return fmt.Errorf("scan survey index: %w", err)
		}
		if err := fn(row, hpx); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close releases the underlying database handle.
func (t *Table) Close() error {
	return t.db.Close()
}

// DecodeSamples unpacks a little-endian float32 blob into float64 samples.
func DecodeSamples(blob []byte) []float64 {
	data := make([]float64, len(blob)/4)
	for i := range data {
		bits := binary.LittleEndian.Uint32(blob[4*i:])
		data[i] = float64(math.Float32frombits(bits))
	}
	return data
}

// EncodeSamples packs float64 samples into a little-endian float32 blob.
func EncodeSamples(data []float64) []byte {
	blob := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(blob[4*i:], math.Float32bits(float32(v)))
	}
	return blob
}
