// Package query models search queries as a typed clause tree and compiles
// them to the search backend's wire format at the boundary.
package query

// Clause is one node of a query tree.
type Clause interface {
	clause()
}

// Term matches a field exactly.
type Term struct {
	Field string
	Value any
}

// Match runs an analyzed match on a field, optionally fuzzy or boosted.
type Match struct {
	Field     string
	Query     string
	Fuzziness string
	Boost     float64
}

// Wildcard matches a field against a pattern with "*" placeholders.
type Wildcard struct {
	Field   string
	Pattern string
}

// Bool combines sub-clauses. A Should list needs MinimumShouldMatch of its
// members to hold.
type Bool struct {
	Must               []Clause
	Should             []Clause
	MustNot            []Clause
	MinimumShouldMatch int
	Boost              float64
}

func (Term) clause()     {}
func (Match) clause()    {}
func (Wildcard) clause() {}
func (Bool) clause()     {}

// SortField orders results by a field.
type SortField struct {
	Field      string
	Descending bool
}

// Query is a complete search request body.
type Query struct {
	Root Clause
	Sort []SortField
}

// defaultSort prefers recent records, then backend relevance.
var defaultSort = []SortField{
	{Field: "date", Descending: true},
	{Field: "_score", Descending: true},
}
