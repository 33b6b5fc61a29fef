package names

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"personmatch/internal/person"
)

// PostgresStore reads the reference corpus from PostgreSQL. The tables are
// small (tens of thousands of rows) and read in full once; occurrence
// lookups stay per-row queries because the occurrence index is large.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed reference store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LoadTables(ctx context.Context) (*Tables, error) {
	tables := &Tables{
		Affixes:    map[string]struct{}{},
		Titles:     map[string]struct{}{},
		FirstNames: map[string]person.Gender{},
		Surnames:   map[string]int{},
	}

	if err := s.readSet(ctx, `SELECT affix FROM name_affixes`, tables.Affixes); err != nil {
		return nil, fmt.Errorf("affixes: %w", err)
	}
	if err := s.readSet(ctx, `SELECT title FROM name_titles`, tables.Titles); err != nil {
		return nil, fmt.Errorf("titles: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT firstname, gender FROM firstname_genders`)
	if err != nil {
		return nil, fmt.Errorf("first names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, gender string
		if err := rows.Scan(&name, &gender); err != nil {
			return nil, fmt.Errorf("first names: %w", err)
		}
		tables.FirstNames[name] = person.Gender(gender)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("first names: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT surname, occurrence FROM surname_occurrences`)
	if err != nil {
		return nil, fmt.Errorf("surnames: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("surnames: %w", err)
		}
		if existing, ok := tables.Surnames[name]; !ok || n > existing {
			tables.Surnames[name] = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("surnames: %w", err)
	}

	return tables, nil
}

func (s *PostgresStore) readSet(ctx context.Context, query string, into map[string]struct{}) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return err
		}
		into[v] = struct{}{}
	}
	return rows.Err()
}

func (s *PostgresStore) LastnameOccurrence(ctx context.Context, lastname string) (Occurrence, bool, error) {
	var occ Occurrence
	err := s.db.QueryRowContext(ctx, `
		SELECT regular_count, fuzzy_count, regular_proportion, fuzzy_proportion
		FROM lastname_occurrences
		WHERE lastname = $1
	`, lastname).Scan(&occ.RegularCount, &occ.FuzzyCount, &occ.RegularProportion, &occ.FuzzyProportion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Occurrence{}, false, nil
		}
		return Occurrence{}, false, fmt.Errorf("lastname occurrence: %w", err)
	}
	return occ, true, nil
}

func (s *PostgresStore) InitialProportion(ctx context.Context, initials string) (float64, bool, error) {
	var p float64
	err := s.db.QueryRowContext(ctx, `
		SELECT proportion FROM initials_occurrences WHERE initials = $1
	`, initials).Scan(&p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("initials occurrence: %w", err)
	}
	return p, true, nil
}

func (s *PostgresStore) Bounds(ctx context.Context) (Bounds, error) {
	var b Bounds
	err := s.db.QueryRowContext(ctx, `
		SELECT
			max(regular_proportion),
			avg(regular_proportion),
			(SELECT max(proportion) FROM initials_occurrences),
			(SELECT count(*) FROM lastname_occurrences)
		FROM lastname_occurrences
	`).Scan(&b.MaxLastnameProportion, &b.MeanLastnameProportion, &b.MaxInitialProportion, &b.RecordCount)
	if err != nil {
		return Bounds{}, fmt.Errorf("corpus bounds: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) FirstNameCount(ctx context.Context, firstname string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM firstname_occurrences WHERE firstname = $1
	`, firstname).Scan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("firstname occurrence: %w", err)
	}
	return n, nil
}
