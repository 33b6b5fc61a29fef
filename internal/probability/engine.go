// Package probability computes false-positive probabilities for name and
// field combinations, and searches for the minimal field sets that keep the
// false-positive rate of a match below the configured significance threshold.
package probability

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"personmatch/internal/names"
	"personmatch/internal/platform/config"
	"personmatch/pkg/platform/sentinel"
)

// Field is an optional match field that can sharpen a person query.
type Field string

const (
	FieldDateOfBirth Field = "date_of_birth"
	FieldAddress     Field = "address"
	FieldPostcode    Field = "postcode"
	FieldMobile      Field = "mobile"
	FieldLandline    Field = "landline"
)

// fieldOrder fixes subset enumeration so results are deterministic.
var fieldOrder = []Field{FieldDateOfBirth, FieldAddress, FieldPostcode, FieldMobile, FieldLandline}

// Demographic constants behind the per-field false-positive factors. They
// derive from national register cardinalities: residential address and
// postcode counts, yearly relocations, and phone number reuse rates.
const (
	maxAge = 90
	minAge = 18

	residentialAddresses = 7_088_757
	postcodeCount        = 437_383
	yearlyMovements      = 1_700_000
	averageLifespan      = 82
	inhabitants          = 17_461_543

	mobileDistributed   = 55_000_000
	mobileYearlyReused  = 100_000
	landlineDistributed = 70_000_000
	landlineYearlyReuse = 400_000
	phoneYears          = 10
)

// Base identifies one base calculation: a lastname variant, an initials
// variant, and whether the lastname clause matches fuzzily. Partial marks a
// single token of a multi-token lastname; initials do not discriminate there.
type Base struct {
	Lastname string `json:"lastname"`
	Initials string `json:"initials"`
	Fuzzy    bool   `json:"fuzzy"`
	Partial  bool   `json:"partial"`
}

// Combination is a base plus the extra fields required to push its
// false-positive probability below alpha.
type Combination struct {
	Base
	Fields      []Field `json:"fields,omitempty"`
	Probability float64 `json:"probability"`
}

// Requires reports whether the combination needs the given extra field.
func (c Combination) Requires(f Field) bool {
	for _, have := range c.Fields {
		if have == f {
			return true
		}
	}
	return false
}

// Engine computes false-positive probabilities against the reference corpus.
// It is safe for concurrent use; corpus bounds load once at construction.
type Engine struct {
	cfg     config.Matching
	store   names.Store
	bounds  names.Bounds
	popSize float64
	factors map[Field]float64

	cache       Cache
	proportions *boundedMap[lastnameProportion]
	initialProp *boundedMap[float64]
}

type lastnameProportion struct {
	Regular float64
	Fuzzy   float64
}

// Option configures the Engine.
type Option func(*Engine)

// WithCache sets the combination cache; defaults to an in-process bounded
// cache.
func WithCache(c Cache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// New constructs an engine. Corpus bounds are read once here; an unavailable
// store is a fatal startup error.
func New(ctx context.Context, cfg config.Matching, store names.Store, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bounds, err := store.Bounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: corpus bounds: %v", sentinel.ErrUnavailable, err)
	}

	addressesPerPerson := float64(yearlyMovements*averageLifespan)/float64(inhabitants) + 2
	e := &Engine{
		cfg:     cfg,
		store:   store,
		bounds:  bounds,
		popSize: cfg.PopulationSize(),
		factors: map[Field]float64{
			FieldDateOfBirth: 1 / (365.25 * (maxAge - minAge)),
			FieldAddress:     addressesPerPerson * addressesPerPerson / residentialAddresses,
			FieldPostcode:    addressesPerPerson * addressesPerPerson / postcodeCount,
			FieldMobile:      0.5 * float64(mobileYearlyReused*phoneYears) / mobileDistributed,
			FieldLandline:    0.5 * float64(landlineYearlyReuse*phoneYears) / landlineDistributed,
		},
		cache:       newBoundedCache(1024),
		proportions: newBoundedMap[lastnameProportion](4096),
		initialProp: newBoundedMap[float64](256),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// PopulationSize returns the population estimate the engine calculates
// against.
func (e *Engine) PopulationSize() float64 {
	return e.popSize
}

// ProportionLastname returns the corpus proportions of a lastname under
// regular and fuzzy matching. Unknown or empty lastnames fall back to the
// corpus mean.
func (e *Engine) ProportionLastname(ctx context.Context, lastname string) (regular, fuzzy float64, err error) {
	if lastname == "" {
		return e.bounds.MeanLastnameProportion, e.bounds.MeanLastnameProportion, nil
	}
	if p, ok := e.proportions.get(lastname); ok {
		return p.Regular, p.Fuzzy, nil
	}
	occ, ok, err := e.store.LastnameOccurrence(ctx, lastname)
	if err != nil {
		return 0, 0, fmt.Errorf("lastname proportion %q: %w", lastname, err)
	}
	p := lastnameProportion{
		Regular: e.bounds.MeanLastnameProportion,
		Fuzzy:   e.bounds.MeanLastnameProportion,
	}
	if ok {
		if occ.RegularProportion > 0 {
			p.Regular = occ.RegularProportion
		}
		if occ.FuzzyProportion > 0 {
			p.Fuzzy = occ.FuzzyProportion
		}
	}
	e.proportions.set(lastname, p)
	return p.Regular, p.Fuzzy, nil
}

// ProportionInitial returns the corpus proportion of an initials string.
// Unknown initials report the corpus maximum, which keeps the estimate
// conservative.
func (e *Engine) ProportionInitial(ctx context.Context, initials string) (float64, error) {
	if initials == "" {
		return e.bounds.MaxInitialProportion, nil
	}
	if p, ok := e.initialProp.get(initials); ok {
		return p, nil
	}
	p, ok, err := e.store.InitialProportion(ctx, initials)
	if err != nil {
		return 0, fmt.Errorf("initials proportion %q: %w", initials, err)
	}
	if !ok || p == 0 {
		p = e.bounds.MaxInitialProportion
	}
	e.initialProp.set(initials, p)
	return p, nil
}

// EstimatedCount estimates how many people in the population bear the
// lastname. Never exceeds the population size.
func (e *Engine) EstimatedCount(ctx context.Context, lastname string) (float64, error) {
	regular, _, err := e.ProportionLastname(ctx, lastname)
	if err != nil {
		return 0, err
	}
	return regular * e.popSize, nil
}

type lastnameVariant struct {
	name    string
	regular float64
	fuzzy   float64
	partial bool
}

func (e *Engine) lastnameVariants(ctx context.Context, lastname string) ([]lastnameVariant, error) {
	if lastname == "" {
		return []lastnameVariant{{
			regular: e.bounds.MaxLastnameProportion,
			fuzzy:   e.bounds.MaxLastnameProportion,
		}}, nil
	}

	regular, fuzzy, err := e.ProportionLastname(ctx, lastname)
	if err != nil {
		return nil, err
	}
	variants := []lastnameVariant{{name: lastname, regular: regular, fuzzy: fuzzy}}

	tokens := strings.Fields(lastname)
	if len(tokens) < 2 {
		return variants, nil
	}

	// Multi-token lastnames also match reversed and per token. The reversed
	// form describes the same name, so it shares the full-name proportions.
	reversed := make([]string, len(tokens))
	for i, tok := range tokens {
		reversed[len(tokens)-1-i] = tok
	}
	variants = append(variants, lastnameVariant{
		name:    strings.Join(reversed, " "),
		regular: regular,
		fuzzy:   fuzzy,
	})
	for _, tok := range tokens {
		tokRegular, tokFuzzy, err := e.ProportionLastname(ctx, tok)
		if err != nil {
			return nil, err
		}
		variants = append(variants, lastnameVariant{
			name:    tok,
			regular: tokRegular,
			fuzzy:   tokFuzzy,
			partial: true,
		})
	}
	return variants, nil
}

type initialsVariant struct {
	initials   string
	proportion float64
}

func (e *Engine) initialsVariants(ctx context.Context, initials string) ([]initialsVariant, error) {
	variants := []initialsVariant{{initials: "", proportion: e.bounds.MaxInitialProportion}}
	if initials == "" {
		return variants, nil
	}
	first := initials[:1]
	p, err := e.ProportionInitial(ctx, first)
	if err != nil {
		return nil, err
	}
	variants = append(variants, initialsVariant{initials: first, proportion: p})
	if initials != first {
		p, err = e.ProportionInitial(ctx, initials)
		if err != nil {
			return nil, err
		}
		variants = append(variants, initialsVariant{initials: initials, proportion: p})
	}
	return variants, nil
}

// BaseCalculations crosses every lastname variant (whitespace-split tokens
// plus the full and reversed lastname) with the regular and fuzzy situations
// and the initials variants (absent, first letter, full), each multiplied by
// the population size and the matching proportions.
func (e *Engine) BaseCalculations(ctx context.Context, lastname, initials string) (map[Base]float64, error) {
	lvs, err := e.lastnameVariants(ctx, lastname)
	if err != nil {
		return nil, err
	}
	ivs, err := e.initialsVariants(ctx, initials)
	if err != nil {
		return nil, err
	}

	bases := make(map[Base]float64)
	for _, lv := range lvs {
		for _, fuzz := range []bool{false, true} {
			lprop := lv.regular
			if fuzz {
				lprop = lv.fuzzy
			}
			if lv.partial {
				// A partial token says nothing about initials order, so
				// initials do not discriminate and are left out.
				bases[Base{Lastname: lv.name, Fuzzy: fuzz, Partial: true}] = e.popSize * lprop
				continue
			}
			for _, iv := range ivs {
				key := Base{Lastname: lv.name, Initials: iv.initials, Fuzzy: fuzz}
				bases[key] = e.popSize * lprop * iv.proportion
			}
		}
	}
	return bases, nil
}

// FullCalculationFP multiplies each base probability by the false-positive
// factor of every requested field. Requesting both postcode and the full
// address is contradictory and fails. Date-of-birth and mobile factors do not
// apply to partial bases.
func (e *Engine) FullCalculationFP(ctx context.Context, lastname, initials string, fields []Field) (map[Base]float64, error) {
	has := func(f Field) bool {
		for _, x := range fields {
			if x == f {
				return true
			}
		}
		return false
	}
	if has(FieldAddress) && has(FieldPostcode) {
		return nil, fmt.Errorf("%w: choose postcode or full address, not both", sentinel.ErrConfiguration)
	}

	bases, err := e.BaseCalculations(ctx, lastname, initials)
	if err != nil {
		return nil, err
	}
	out := make(map[Base]float64, len(bases))
	for base, p := range bases {
		for _, f := range fields {
			if base.Partial && (f == FieldDateOfBirth || f == FieldMobile) {
				continue
			}
			p *= e.factors[f]
		}
		out[base] = p
	}
	return out, nil
}

// ExtraFieldsCalculation finds, for each base, the smallest subsets of the
// available fields that drive the false-positive probability below alpha.
// Bases already below alpha need no extra fields. A subset whose strict
// subset is already accepted for the same base is skipped (minimality).
// Returns ErrNoSufficientCombination when nothing reaches significance.
func (e *Engine) ExtraFieldsCalculation(ctx context.Context, lastname, initials string, available []Field) ([]Combination, error) {
	key := cacheKey(lastname, initials, available, e.cfg.MustHaveAddress, e.cfg.Alpha)
	if combos, ok := e.cache.Get(ctx, key); ok {
		return combos, nil
	}

	bases, err := e.BaseCalculations(ctx, lastname, initials)
	if err != nil {
		return nil, fmt.Errorf("base calculations: %w", err)
	}

	alpha := e.cfg.Alpha
	allBelow := true
	for _, p := range bases {
		if p >= alpha {
			allBelow = false
			break
		}
	}
	if allBelow {
		combos := combosFromBases(bases)
		e.cache.Set(ctx, key, combos)
		return combos, nil
	}

	accepted := make(map[Base][][]Field)
	probabilities := make(map[Base]map[string]float64)
	record := func(base Base, fields []Field, p float64) {
		accepted[base] = append(accepted[base], fields)
		if probabilities[base] == nil {
			probabilities[base] = make(map[string]float64)
		}
		probabilities[base][fieldsKey(fields)] = p
	}

	if !e.cfg.MustHaveAddress {
		for base, p := range bases {
			if p < alpha {
				record(base, nil, p)
			}
		}
	}

	for _, subset := range subsets(canonical(available)) {
		if containsField(subset, FieldAddress) && containsField(subset, FieldPostcode) {
			continue
		}
		if e.cfg.MustHaveAddress &&
			!containsField(subset, FieldAddress) && !containsField(subset, FieldPostcode) {
			continue
		}
		full, err := e.FullCalculationFP(ctx, lastname, initials, subset)
		if err != nil {
			return nil, err
		}
		for base, p := range full {
			if p >= alpha {
				continue
			}
			effective := subset
			if base.Partial {
				effective = withoutFields(subset, FieldDateOfBirth, FieldMobile)
				if len(effective) == 0 {
					continue
				}
			}
			if subsumed(accepted[base], effective) {
				continue
			}
			record(base, effective, p)
		}
	}

	if len(accepted) == 0 {
		return nil, fmt.Errorf("%w: lastname %q", sentinel.ErrNoSufficientCombination, lastname)
	}

	combos := make([]Combination, 0, len(accepted))
	for base, fieldSets := range accepted {
		for _, fields := range fieldSets {
			combos = append(combos, Combination{
				Base:        base,
				Fields:      fields,
				Probability: probabilities[base][fieldsKey(fields)],
			})
		}
	}
	sortCombinations(combos)
	e.cache.Set(ctx, key, combos)
	return combos, nil
}

func combosFromBases(bases map[Base]float64) []Combination {
	combos := make([]Combination, 0, len(bases))
	for base, p := range bases {
		combos = append(combos, Combination{Base: base, Probability: p})
	}
	sortCombinations(combos)
	return combos
}

func sortCombinations(combos []Combination) {
	sort.Slice(combos, func(i, j int) bool {
		a, b := combos[i], combos[j]
		if a.Lastname != b.Lastname {
			return a.Lastname < b.Lastname
		}
		if a.Initials != b.Initials {
			return a.Initials < b.Initials
		}
		if a.Fuzzy != b.Fuzzy {
			return !a.Fuzzy
		}
		return fieldsKey(a.Fields) < fieldsKey(b.Fields)
	})
}

// canonical orders fields and drops duplicates.
func canonical(fields []Field) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fieldOrder {
		if containsField(fields, f) {
			out = append(out, f)
		}
	}
	return out
}

// subsets enumerates non-empty subsets in increasing size, smaller first so
// minimality checks see cheaper options before expensive ones.
func subsets(fields []Field) [][]Field {
	var out [][]Field
	n := len(fields)
	for size := 1; size <= n; size++ {
		var walk func(start int, current []Field)
		walk = func(start int, current []Field) {
			if len(current) == size {
				out = append(out, current)
				return
			}
			for i := start; i < n; i++ {
				next := make([]Field, len(current), size)
				copy(next, current)
				walk(i+1, append(next, fields[i]))
			}
		}
		walk(0, nil)
	}
	return out
}

func containsField(fields []Field, f Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

func withoutFields(fields []Field, drop ...Field) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if !containsField(drop, f) {
			out = append(out, f)
		}
	}
	return out
}

// subsumed reports whether any accepted field set is a subset (or equal) of
// the candidate.
func subsumed(acceptedSets [][]Field, candidate []Field) bool {
	for _, a := range acceptedSets {
		isSubset := true
		for _, f := range a {
			if !containsField(candidate, f) {
				isSubset = false
				break
			}
		}
		if isSubset {
			return true
		}
	}
	return false
}

func fieldsKey(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

func cacheKey(lastname, initials string, available []Field, mustHaveAddress bool, alpha float64) string {
	return fmt.Sprintf("%s|%s|%s|%t|%g", lastname, initials, fieldsKey(canonical(available)), mustHaveAddress, alpha)
}
