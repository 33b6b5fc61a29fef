// Package match runs the candidate matching state machine: search, decode,
// composite merge, key comparison and grading.
package match

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"personmatch/internal/person"
	"personmatch/internal/query"
	"personmatch/internal/search"
	"personmatch/pkg/platform/sentinel"
)

// Status tracks how far a match has progressed.
type Status int

const (
	StatusUnsearched Status = iota
	StatusSearched
	StatusScored
	StatusComposited
	StatusNoMatch
)

func (s Status) String() string {
	switch s {
	case StatusUnsearched:
		return "unsearched"
	case StatusSearched:
		return "searched"
	case StatusScored:
		return "scored"
	case StatusComposited:
		return "composited"
	case StatusNoMatch:
		return "no_match"
	default:
		return "unknown"
	}
}

// Key is one of the comparison dimensions between input and composite.
type Key string

const (
	KeyName        Key = "name"
	KeyAddress     Key = "address"
	KeyGender      Key = "gender"
	KeyMobile      Key = "mobile"
	KeyLandline    Key = "landline"
	KeyDateOfBirth Key = "date_of_birth"
	KeyEmail       Key = "email"
	KeyFamily      Key = "family"
)

// AllKeys lists every key in reporting order.
var AllKeys = []Key{
	KeyName, KeyAddress, KeyGender, KeyMobile,
	KeyLandline, KeyDateOfBirth, KeyEmail, KeyFamily,
}

// Result is a finished match.
type Result struct {
	ID        uuid.UUID
	Composite person.Person
	Keys      []Key
	Grade     string
}

// Match carries one matching run for a single input person.
type Match struct {
	id         uuid.UUID
	input      *person.Person
	client     search.Client
	mergeYears int
	now        func() time.Time

	status     Status
	candidates []person.Person
	composite  person.Person
}

// Option configures a Match.
type Option func(*Match)

// WithClock overrides the time source, pinning recency cutoffs in tests.
func WithClock(now func() time.Time) Option {
	return func(m *Match) { m.now = now }
}

// New prepares a match for the given input. The input is authoritative in
// every comparison; candidates only ever supplement it.
func New(input *person.Person, client search.Client, mergeYears int, opts ...Option) *Match {
	m := &Match{
		id:         uuid.New(),
		input:      input,
		client:     client,
		mergeYears: mergeYears,
		now:        time.Now,
		status:     StatusUnsearched,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ID identifies this matching run.
func (m *Match) ID() uuid.UUID { return m.id }

// Status reports the current state.
func (m *Match) Status() Status { return m.status }

// Run executes the full state machine against the given query and returns
// the composite with its grade. Zero hits or an empty matched-key set end
// in sentinel.ErrNoMatch.
func (m *Match) Run(ctx context.Context, q query.Query, size int) (Result, error) {
	if err := m.search(ctx, q, size); err != nil {
		return Result{}, err
	}
	m.buildComposite()
	keys := m.matchedKeys()
	if len(keys) == 0 {
		m.status = StatusNoMatch
		return Result{}, fmt.Errorf("no keys matched: %w", sentinel.ErrNoMatch)
	}
	m.status = StatusScored
	grade, err := m.grade(keys)
	if err != nil {
		return Result{}, err
	}
	return Result{ID: m.id, Composite: m.composite, Keys: keys, Grade: grade}, nil
}

func (m *Match) search(ctx context.Context, q query.Query, size int) error {
	records, err := m.client.Search(ctx, q, size)
	if err != nil {
		return fmt.Errorf("search candidates: %w", err)
	}
	if len(records) == 0 {
		m.status = StatusNoMatch
		return fmt.Errorf("zero hits: %w", sentinel.ErrNoMatch)
	}
	m.candidates = make([]person.Person, len(records))
	for i, r := range records {
		m.candidates[i] = r.Person()
	}
	m.status = StatusSearched
	return nil
}

// buildComposite folds the candidates most recent first. The backend sorts
// by record date already; sorting again keeps the fold correct for clients
// that do not.
func (m *Match) buildComposite() {
	sort.SliceStable(m.candidates, func(i, j int) bool {
		return m.candidates[i].Date.After(m.candidates[j].Date)
	})
	m.composite = m.candidates[0]
	cutoff := m.now().AddDate(-m.mergeYears, 0, 0)
	for _, candidate := range m.candidates[1:] {
		merge(&m.composite, candidate, cutoff)
	}
	m.status = StatusComposited
}

// merge folds one candidate into the composite. A candidate with compatible
// initials is the same person: its fields fill gaps, and when its record is
// recent enough it may also overwrite stale values. Incompatible initials
// mean a household member, who can only contribute shared fields.
func merge(composite *person.Person, candidate person.Person, cutoff time.Time) {
	compatible := initialsCompatible(composite.Initials, candidate.Initials)
	fresh := !candidate.Date.IsZero() && candidate.Date.After(cutoff)

	switch {
	case compatible && fresh:
		overwriteFields(composite, candidate)
	case compatible:
		fillPersonFields(composite, candidate)
	default:
		fillFamilyFields(composite, candidate)
	}
	if composite.Date.IsZero() {
		composite.Date = candidate.Date
	}
	if composite.Source == "" {
		composite.Source = candidate.Source
	}
}

func overwriteFields(dst *person.Person, src person.Person) {
	setNonEmpty(&dst.Lastname, src.Lastname)
	setNonEmpty(&dst.Firstname, src.Firstname)
	setNonEmpty(&dst.Middlename, src.Middlename)
	setNonEmpty(&dst.Initials, src.Initials)
	if src.Gender != person.GenderUnknown {
		dst.Gender = src.Gender
	}
	if !src.DateOfBirth.IsZero() {
		dst.DateOfBirth = src.DateOfBirth
	}
	setNonEmpty(&dst.Mobile, src.Mobile)
	setNonEmpty(&dst.Landline, src.Landline)
	setNonEmpty(&dst.Email, src.Email)
	if src.Address.Present() {
		dst.Address = src.Address
	} else {
		fillAddress(&dst.Address, src.Address)
	}
}

func fillPersonFields(dst *person.Person, src person.Person) {
	fillNonEmpty(&dst.Lastname, src.Lastname)
	fillNonEmpty(&dst.Firstname, src.Firstname)
	fillNonEmpty(&dst.Middlename, src.Middlename)
	fillNonEmpty(&dst.Initials, src.Initials)
	if dst.Gender == person.GenderUnknown {
		dst.Gender = src.Gender
	}
	if dst.DateOfBirth.IsZero() {
		dst.DateOfBirth = src.DateOfBirth
	}
	fillNonEmpty(&dst.Mobile, src.Mobile)
	fillNonEmpty(&dst.Landline, src.Landline)
	fillNonEmpty(&dst.Email, src.Email)
	if !dst.Address.Present() && src.Address.Present() {
		dst.Address = src.Address
	} else if dst.Address.Postcode == src.Address.Postcode && dst.Address.HouseNumber == src.Address.HouseNumber {
		fillAddress(&dst.Address, src.Address)
	}
}

// fillFamilyFields copies only what household members share.
func fillFamilyFields(dst *person.Person, src person.Person) {
	fillNonEmpty(&dst.Lastname, src.Lastname)
	fillNonEmpty(&dst.Middlename, src.Middlename)
	fillNonEmpty(&dst.Landline, src.Landline)
	if !dst.Address.Present() && src.Address.Present() {
		dst.Address = src.Address
	} else if dst.Address.Postcode == src.Address.Postcode && dst.Address.HouseNumber == src.Address.HouseNumber {
		fillAddress(&dst.Address, src.Address)
	}
}

func fillAddress(dst *person.Address, src person.Address) {
	fillNonEmpty(&dst.Postcode, src.Postcode)
	if dst.HouseNumber == 0 {
		dst.HouseNumber = src.HouseNumber
	}
	fillNonEmpty(&dst.HouseNumberExt, src.HouseNumberExt)
	fillNonEmpty(&dst.Street, src.Street)
	fillNonEmpty(&dst.City, src.City)
	fillNonEmpty(&dst.Country, src.Country)
}

func setNonEmpty(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func fillNonEmpty(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

func initialsCompatible(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return longer[:len(shorter)] == shorter
}
