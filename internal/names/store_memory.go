package names

import (
	"context"
	"sync"

	"personmatch/internal/person"
)

// MemoryStore is an in-memory reference store for tests and development.
// Occurrence proportions derive from the surname counts it is seeded with.
type MemoryStore struct {
	mu sync.RWMutex

	affixes     map[string]struct{}
	titles      map[string]struct{}
	firstNames  map[string]person.Gender
	firstCounts map[string]int
	surnames    map[string]int
	occurrences map[string]Occurrence
	initials    map[string]float64
	bounds      Bounds
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		affixes:     map[string]struct{}{},
		titles:      map[string]struct{}{},
		firstNames:  map[string]person.Gender{},
		firstCounts: map[string]int{},
		surnames:    map[string]int{},
		occurrences: map[string]Occurrence{},
		initials:    map[string]float64{},
	}
}

// SeedAffixes adds lastname affixes.
func (s *MemoryStore) SeedAffixes(affixes ...string) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range affixes {
		s.affixes[a] = struct{}{}
	}
	return s
}

// SeedTitles adds trailing titles.
func (s *MemoryStore) SeedTitles(titles ...string) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range titles {
		s.titles[t] = struct{}{}
	}
	return s
}

// SeedFirstName records a first name with its dominant gender and count.
func (s *MemoryStore) SeedFirstName(name string, gender person.Gender, count int) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firstNames[name] = gender
	s.firstCounts[name] = count
	return s
}

// SeedSurname records a surname occurrence count.
func (s *MemoryStore) SeedSurname(name string, count int) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surnames[name] = count
	return s
}

// SeedLastnameOccurrence records corpus proportions for a lastname.
func (s *MemoryStore) SeedLastnameOccurrence(name string, occ Occurrence) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.occurrences[name] = occ
	return s
}

// SeedInitialProportion records the corpus proportion of an initials string.
func (s *MemoryStore) SeedInitialProportion(initials string, p float64) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initials[initials] = p
	return s
}

// SeedBounds sets the corpus-wide aggregates.
func (s *MemoryStore) SeedBounds(b Bounds) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = b
	return s
}

func (s *MemoryStore) LoadTables(_ context.Context) (*Tables, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Tables{
		Affixes:    s.affixes,
		Titles:     s.titles,
		FirstNames: s.firstNames,
		Surnames:   s.surnames,
	}, nil
}

func (s *MemoryStore) LastnameOccurrence(_ context.Context, lastname string) (Occurrence, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	occ, ok := s.occurrences[lastname]
	return occ, ok, nil
}

func (s *MemoryStore) InitialProportion(_ context.Context, initials string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.initials[initials]
	return p, ok, nil
}

func (s *MemoryStore) Bounds(_ context.Context) (Bounds, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds, nil
}

func (s *MemoryStore) FirstNameCount(_ context.Context, firstname string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firstCounts[firstname], nil
}
