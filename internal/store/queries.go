package store

import (
	"fmt"

	"gaussdec/internal/model"
)

// PixelStats aggregates the catalog for one sky pixel.
type PixelStats struct {
	HPXIndex     int64   `json:"hpxindex"`
	NComponents  int64   `json:"ncomponents"`
	SumAmplitude float64 `json:"sum_amplitude"`
}

// HistogramBin counts the pixels decomposed into a given number of
// components.
type HistogramBin struct {
	NComponents int64 `json:"ncomponents"`
	Pixels      int64 `json:"pixels"`
}

const componentColumns = `hpxindex, glon, glat, amplitude, peak, center_c, center_kms, sigma_c, sigma_kms`

// ComponentsByPixel returns the flushed components of one pixel in
// insertion order.
func (s *Store) ComponentsByPixel(hpx int64) ([]model.GaussianComponent, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.Query(
		`SELECT `+componentColumns+` FROM gaussdec WHERE hpxindex = ?`, hpx,
	)
	if err != nil {
		return nil, fmt.Errorf("store %s: components for pixel %d: %w", s.path, hpx, err)
	}
	defer rows.Close()

	var recs []model.GaussianComponent
	for rows.Next() {
		var rec model.GaussianComponent
		err := rows.Scan(
			&rec.HPXIndex, &rec.GLon, &rec.GLat,
			&rec.Amplitude, &rec.Peak,
			&rec.CenterC, &rec.CenterKMS,
			&rec.SigmaC, &rec.SigmaKMS,
		)
		if err != nil {
			return nil, fmt.Errorf("store %s: components for pixel %d: %w", s.path, hpx, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store %s: components for pixel %d: %w", s.path, hpx, err)
	}
	return recs, nil
}

// DistinctPixels returns the sorted HEALPix indices that have at least one
// flushed component.
func (s *Store) DistinctPixels() ([]int64, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.Query(`SELECT DISTINCT hpxindex FROM gaussdec ORDER BY hpxindex`)
	if err != nil {
		return nil, fmt.Errorf("store %s: distinct pixels: %w", s.path, err)
	}
	defer rows.Close()

	var pixels []int64
	for rows.Next() {
		var hpx int64
		if err := rows.Scan(&hpx); err != nil {
			return nil, fmt.Errorf("store %s: distinct pixels: %w", s.path, err)
		}
		pixels = append(pixels, hpx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store %s: distinct pixels: %w", s.path, err)
	}
	return pixels, nil
}

// CountComponents returns the number of flushed components.
func (s *Store) CountComponents() (int64, error) {
	if s.closed {
		return 0, ErrStoreClosed
	}
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM gaussdec`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store %s: count components: %w", s.path, err)
	}
	return n, nil
}

// CountPixels returns the number of sky pixels with at least one flushed
// component.
func (s *Store) CountPixels() (int64, error) {
	if s.closed {
		return 0, ErrStoreClosed
	}
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(DISTINCT hpxindex) FROM gaussdec`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store %s: count pixels: %w", s.path, err)
	}
	return n, nil
}

// GetPixelStats aggregates one pixel. A pixel without components yields
// zero counts, not an error.
func (s *Store) GetPixelStats(hpx int64) (PixelStats, error) {
	if s.closed {
		return PixelStats{}, ErrStoreClosed
	}
	st := PixelStats{HPXIndex: hpx}
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(amplitude), 0) FROM gaussdec WHERE hpxindex = ?`, hpx,
	).Scan(&st.NComponents, &st.SumAmplitude)
	if err != nil {
		return PixelStats{}, fmt.Errorf("store %s: stats for pixel %d: %w", s.path, hpx, err)
	}
	return st, nil
}

// ScanPixelStats streams the per-pixel aggregates in pixel order.
// Scanning stops at the first error fn returns.
func (s *Store) ScanPixelStats(fn func(PixelStats) error) error {
	if s.closed {
		return ErrStoreClosed
	}
	rows, err := s.db.Query(`
		SELECT hpxindex, COUNT(*), SUM(amplitude)
		FROM gaussdec GROUP BY hpxindex ORDER BY hpxindex`)
	if err != nil {
		return fmt.Errorf("store %s: scan pixel stats: %w", s.path, err)
	}
	defer rows.Close()

	for rows.Next() {
		var st PixelStats
		if err := rows.Scan(&st.HPXIndex, &st.NComponents, &st.SumAmplitude); err != nil {
			return fmt.Errorf("store %s: scan pixel stats: %w", s.path, err)
		}
		if err := fn(st); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store %s: scan pixel stats: %w", s.path, err)
	}
	return nil
}

// Histogram returns how many pixels were decomposed into 1, 2, ...
// components.
func (s *Store) Histogram() ([]HistogramBin, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.Query(`
		SELECT cnt, COUNT(*) FROM (
			SELECT COUNT(*) AS cnt FROM gaussdec GROUP BY hpxindex
		) GROUP BY cnt ORDER BY cnt`)
	if err != nil {
		return nil, fmt.Errorf("store %s: histogram: %w", s.path, err)
	}
	defer rows.Close()

	var bins []HistogramBin
	for rows.Next() {
		var bin HistogramBin
		if err := rows.Scan(&bin.NComponents, &bin.Pixels); err != nil {
			return nil, fmt.Errorf("store %s: histogram: %w", s.path, err)
		}
		bins = append(bins, bin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store %s: histogram: %w", s.path, err)
	}
	return bins, nil
}
