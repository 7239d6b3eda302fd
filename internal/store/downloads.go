package store

import (
	"database/sql"
)

// RecordDownload inserts or updates the ledger row of a lute table row
func (s *Store) RecordDownload(d *Download) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO downloads
		(row_index, composer, url, path, bytes_written, error, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.RowIndex, d.Composer, d.URL, d.Path, d.BytesWritten, nullString(d.Error), d.CompletedAt)

	return err
}

// GetDownload gets the ledger row for a lute table row, or nil if none
func (s *Store) GetDownload(rowIndex int) (*Download, error) {
	var d Download
	var completedAt sql.NullTime

	err := s.db.QueryRow(`
		SELECT row_index, COALESCE(composer, ''), url, COALESCE(path, ''), bytes_written,
		       COALESCE(error, ''), completed_at
		FROM downloads
		WHERE row_index = ?
	`, rowIndex).Scan(&d.RowIndex, &d.Composer, &d.URL, &d.Path, &d.BytesWritten, &d.Error, &completedAt)

	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	d.CompletedAt = completedAt.Time
	return &d, nil
}

// DownloadStats summarises the ledger
type DownloadStats struct {
	Succeeded  int
	Failed     int
	TotalBytes int64
}

// GetDownloadStats counts ledger rows by outcome and sums the bytes written
func (s *Store) GetDownloadStats() (*DownloadStats, error) {
	var st DownloadStats
	err := s.db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN error IS NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN error IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(bytes_written), 0)
		FROM downloads
	`).Scan(&st.Succeeded, &st.Failed, &st.TotalBytes)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetComposerDownloads returns the successful downloads of a composer
func (s *Store) GetComposerDownloads(composer string) ([]*Download, error) {
	rows, err := s.db.Query(`
		SELECT row_index, COALESCE(composer, ''), url, COALESCE(path, ''), bytes_written, completed_at
		FROM downloads
		WHERE composer = ? AND error IS NULL
		ORDER BY row_index
	`, composer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Download
	for rows.Next() {
		var d Download
		var completedAt sql.NullTime
		if err := rows.Scan(&d.RowIndex, &d.Composer, &d.URL, &d.Path, &d.BytesWritten, &completedAt); err != nil {
			return nil, err
		}
		d.CompletedAt = completedAt.Time
		out = append(out, &d)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ErrorCount is the number of ledger rows that failed with one error
type ErrorCount struct {
	Error string
	Count int
}

// TopDownloadErrors returns the most common download errors, most frequent first
func (s *Store) TopDownloadErrors(limit int) ([]ErrorCount, error) {
	rows, err := s.db.Query(`
		SELECT error, COUNT(*) AS n FROM downloads
		WHERE error IS NOT NULL
		GROUP BY error
		ORDER BY n DESC, error
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ErrorCount
	for rows.Next() {
		var ec ErrorCount
		if err := rows.Scan(&ec.Error, &ec.Count); err != nil {
			return nil, err
		}
		out = append(out, ec)
	}
	return out, rows.Err()
}
