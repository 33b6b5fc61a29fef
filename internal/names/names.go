// Package names serves the reference tables the matching core depends on:
// lastname affixes, academic titles, first names with their dominant gender
// and surname occurrence counts, plus the occurrence proportions the
// probability engine feeds on.
//
// All data pertains to the Netherlands. Tables load once per process and are
// read-only afterwards, safe to share across concurrent matches.
package names

import (
	"context"
	"fmt"
	"sync"

	"personmatch/internal/person"
)

// Occurrence holds corpus statistics for one lastname: count and proportion
// under exact ("regular") and fuzzy matching.
type Occurrence struct {
	RegularCount      int
	FuzzyCount        int
	RegularProportion float64
	FuzzyProportion   float64
}

// Bounds are corpus-wide aggregates used as conservative defaults when a
// name has no occurrence row.
type Bounds struct {
	MaxLastnameProportion  float64
	MeanLastnameProportion float64
	MaxInitialProportion   float64
	RecordCount            int
}

// Tables are the load-once reference tables.
type Tables struct {
	Affixes    map[string]struct{}
	Titles     map[string]struct{}
	FirstNames map[string]person.Gender
	Surnames   map[string]int
}

// Store provides access to the reference corpus.
type Store interface {
	LoadTables(ctx context.Context) (*Tables, error)
	LastnameOccurrence(ctx context.Context, lastname string) (Occurrence, bool, error)
	InitialProportion(ctx context.Context, initials string) (float64, bool, error)
	Bounds(ctx context.Context) (Bounds, error)
	FirstNameCount(ctx context.Context, firstname string) (int, error)
}

// Statistics caches the reference tables for process lifetime. A store
// failure on first load is fatal: every accessor returns the load error
// until the process restarts.
type Statistics struct {
	store Store

	once   sync.Once
	tables *Tables
	bounds Bounds
	err    error
}

// New wraps a store in a load-once statistics view.
func New(store Store) *Statistics {
	return &Statistics{store: store}
}

func (s *Statistics) load(ctx context.Context) error {
	s.once.Do(func() {
		tables, err := s.store.LoadTables(ctx)
		if err != nil {
			s.err = fmt.Errorf("load reference tables: %w", err)
			return
		}
		bounds, err := s.store.Bounds(ctx)
		if err != nil {
			s.err = fmt.Errorf("load corpus bounds: %w", err)
			return
		}
		s.tables = tables
		s.bounds = bounds
	})
	return s.err
}

// Load eagerly loads every table. Call at startup; an error here means the
// reference corpus is unavailable and the process should not serve.
func (s *Statistics) Load(ctx context.Context) error {
	return s.load(ctx)
}

// Affixes returns the set of lastname affixes ("van", "de", ...) used to
// clean lastname data.
func (s *Statistics) Affixes(ctx context.Context) (map[string]struct{}, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s.tables.Affixes, nil
}

// Titles returns the set of academic and nobility titles trailing lastnames.
func (s *Statistics) Titles(ctx context.Context) (map[string]struct{}, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s.tables.Titles, nil
}

// FirstNameGender reports whether a first name has more male or female
// bearers. Unknown names report GenderUnknown and false.
func (s *Statistics) FirstNameGender(ctx context.Context, name string) (person.Gender, bool, error) {
	if err := s.load(ctx); err != nil {
		return person.GenderUnknown, false, err
	}
	g, ok := s.tables.FirstNames[name]
	return g, ok, nil
}

// SurnameCount returns the occurrence count of a surname, or false when the
// corpus does not know it.
func (s *Statistics) SurnameCount(ctx context.Context, name string) (int, bool, error) {
	if err := s.load(ctx); err != nil {
		return 0, false, err
	}
	n, ok := s.tables.Surnames[name]
	return n, ok, nil
}

// Bounds returns the corpus-wide aggregates.
func (s *Statistics) Bounds(ctx context.Context) (Bounds, error) {
	if err := s.load(ctx); err != nil {
		return Bounds{}, err
	}
	return s.bounds, nil
}

// Store exposes the underlying store for per-name occurrence lookups.
func (s *Statistics) Store() Store {
	return s.store
}
