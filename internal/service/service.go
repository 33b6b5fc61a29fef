// Package service orchestrates a full person match: normalization, field
// selection, query construction, the search round trip and grading.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"personmatch/internal/match"
	"personmatch/internal/match/events"
	"personmatch/internal/match/metrics"
	"personmatch/internal/normalize"
	"personmatch/internal/person"
	"personmatch/internal/platform/config"
	"personmatch/internal/probability"
	"personmatch/internal/query"
	"personmatch/internal/search"
	"personmatch/pkg/platform/sentinel"
)

// Result is the outcome of a successful match.
type Result struct {
	Person person.Person
	Grade  string
	Keys   []match.Key
}

// Matcher wires the pipeline together. Construct once and share across
// requests; all state is per-call.
type Matcher struct {
	normalizer *normalize.Normalizer
	engine     *probability.Engine
	client     search.Client
	cfg        config.Matching
	logger     *slog.Logger
	metrics    *metrics.Metrics
	events     *events.Publisher
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Matcher) { s.metrics = m }
}

// WithEvents sets the match event publisher.
func WithEvents(p *events.Publisher) Option {
	return func(s *Matcher) { s.events = p }
}

// New constructs a Matcher.
func New(normalizer *normalize.Normalizer, engine *probability.Engine, client search.Client, cfg config.Matching, logger *slog.Logger, opts ...Option) *Matcher {
	s := &Matcher{
		normalizer: normalizer,
		engine:     engine,
		client:     client,
		cfg:        cfg,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Match normalizes p, finds the best candidate set and returns the graded
// composite. The input is never mutated beyond normalization.
func (s *Matcher) Match(ctx context.Context, p *person.Person) (Result, error) {
	start := time.Now()
	defer s.observe(start)

	if err := s.normalizer.Normalize(ctx, p); err != nil {
		return Result{}, err
	}
	if !p.Matchable() {
		return Result{}, fmt.Errorf("person lacks name and address: %w", sentinel.ErrNoMatch)
	}

	q, size, err := s.buildQuery(ctx, p)
	if err != nil {
		return Result{}, err
	}
	return s.run(ctx, p, q, size)
}

// Upgrade builds a Person from the address alone and enriches it through an
// exact address lookup.
func (s *Matcher) Upgrade(ctx context.Context, addr person.Address) (person.Person, error) {
	p := person.FromAddress(addr)
	if err := s.normalizer.Normalize(ctx, &p); err != nil {
		return person.Person{}, err
	}
	if !p.Address.Present() {
		return person.Person{}, fmt.Errorf("address lacks postcode or house number: %w", sentinel.ErrNoMatch)
	}
	result, err := s.run(ctx, &p, query.AddressQuery(&p), 1)
	if err != nil {
		return person.Person{}, err
	}
	return result.Person, nil
}

// buildQuery selects the query variant. A named person gets the weighted
// query; when no field combination reaches significance we fall back to the
// unweighted complete query rather than refusing the match outright.
func (s *Matcher) buildQuery(ctx context.Context, p *person.Person) (query.Query, int, error) {
	if !p.HasName() {
		return query.AddressQuery(p), 1, nil
	}
	combos, err := s.engine.ExtraFieldsCalculation(ctx, p.Lastname, p.Initials, availableFields(p))
	switch {
	case err == nil:
		return query.PersonQuery(p, combos), s.cfg.SearchSize, nil
	case errors.Is(err, sentinel.ErrNoSufficientCombination):
		s.logger.InfoContext(ctx, "no significant field combination, using complete query",
			"lastname", p.Lastname)
		return query.CompleteQuery(p), s.cfg.SearchSize, nil
	default:
		return query.Query{}, 0, fmt.Errorf("select fields: %w", err)
	}
}

func (s *Matcher) run(ctx context.Context, p *person.Person, q query.Query, size int) (Result, error) {
	m := match.New(p, s.client, s.cfg.MergeYears)
	result, err := m.Run(ctx, q, size)
	if err != nil {
		s.count(err)
		return Result{}, err
	}
	if s.metrics != nil {
		s.metrics.IncrementMatch(result.Grade)
	}
	s.events.Publish(ctx, result, p.Source)
	s.logger.InfoContext(ctx, "match completed",
		"match_id", result.ID,
		"grade", result.Grade,
		"keys", len(result.Keys))
	return Result{Person: result.Composite, Grade: result.Grade, Keys: result.Keys}, nil
}

// availableFields reports which optional fields the person can back a query
// clause with. A full address supersedes its postcode; they are mutually
// exclusive in probability terms.
func availableFields(p *person.Person) []probability.Field {
	var fields []probability.Field
	if !p.DateOfBirth.IsZero() {
		fields = append(fields, probability.FieldDateOfBirth)
	}
	if p.Address.Present() {
		fields = append(fields, probability.FieldAddress)
	} else if p.Address.Postcode != "" {
		fields = append(fields, probability.FieldPostcode)
	}
	if p.Mobile != "" {
		fields = append(fields, probability.FieldMobile)
	}
	if p.Landline != "" {
		fields = append(fields, probability.FieldLandline)
	}
	return fields
}

func (s *Matcher) count(err error) {
	if s.metrics == nil {
		return
	}
	if errors.Is(err, sentinel.ErrNoMatch) {
		s.metrics.IncrementNoMatch()
	} else {
		s.metrics.IncrementSearchError()
	}
}

func (s *Matcher) observe(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveMatch(start)
	}
}
