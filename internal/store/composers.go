package store

import (
	"database/sql"
	"fmt"

	"github.com/franz/lute-composers/internal/composer"
)

const composerColumns = `name, date_of_birth, birth_town, birth_country,
	date_of_death, death_town, death_country, nationality`

// ReplaceComposers stores the merged table of a parse run, replacing the
// previous one. Row order is kept in the position column.
func (s *Store) ReplaceComposers(records []composer.Merged) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM composers`); err != nil {
			return fmt.Errorf("failed to clear composers: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO composers
			(position, ` + composerColumns + `, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, m := range records {
			if _, err := stmt.Exec(i, m.Composer, m.DateOfBirth, m.BirthTown, m.BirthCountry,
				m.DateOfDeath, m.DeathTown, m.DeathCountry, m.Nationality); err != nil {
				return fmt.Errorf("failed to insert %q: %w", m.Composer, err)
			}
		}
		return nil
	})
}

func scanComposer(row interface{ Scan(...any) error }) (*composer.Merged, error) {
	var m composer.Merged
	err := row.Scan(&m.Composer, &m.DateOfBirth, &m.BirthTown, &m.BirthCountry,
		&m.DateOfDeath, &m.DeathTown, &m.DeathCountry, &m.Nationality)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetComposer returns the merged record for a composer, matching the name
// exactly first and then case-insensitively. Returns nil if not found.
func (s *Store) GetComposer(name string) (*composer.Merged, error) {
	m, err := scanComposer(s.db.QueryRow(`
		SELECT `+composerColumns+` FROM composers WHERE name = ?
	`, name))
	if err == nil {
		return m, nil
	}
	if !isNoRows(err) {
		return nil, err
	}

	m, err = scanComposer(s.db.QueryRow(`
		SELECT `+composerColumns+` FROM composers WHERE name = ? COLLATE NOCASE
		ORDER BY position LIMIT 1
	`, name))
	if isNoRows(err) {
		return nil, nil
	}
	return m, err
}

// SearchComposers returns composers whose name contains fragment, in table order
func (s *Store) SearchComposers(fragment string) ([]*composer.Merged, error) {
	return s.queryComposers(`
		SELECT `+composerColumns+` FROM composers
		WHERE name LIKE '%' || ? || '%'
		ORDER BY position
	`, fragment)
}

// ListComposers returns every stored composer in table order
func (s *Store) ListComposers() ([]*composer.Merged, error) {
	return s.queryComposers(`SELECT ` + composerColumns + ` FROM composers ORDER BY position`)
}

func (s *Store) queryComposers(query string, args ...any) ([]*composer.Merged, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*composer.Merged
	for rows.Next() {
		m, err := scanComposer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountComposers returns the number of stored composers
func (s *Store) CountComposers() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM composers`).Scan(&count)
	return count, err
}

// NationalityCount is the number of composers of one nationality
type NationalityCount struct {
	Nationality string
	Count       int
}

// CountByNationality groups stored composers by nationality, most common
// first. Unknown nationality is reported as the empty string.
func (s *Store) CountByNationality() ([]NationalityCount, error) {
	rows, err := s.db.Query(`
		SELECT nationality, COUNT(*) AS n FROM composers
		GROUP BY nationality
		ORDER BY n DESC, nationality
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NationalityCount
	for rows.Next() {
		var nc NationalityCount
		if err := rows.Scan(&nc.Nationality, &nc.Count); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}
