package query

import "fmt"

// Body compiles the query to the backend's JSON request body. The size
// parameter caps the number of hits returned.
func (q Query) Body(size int) map[string]any {
	body := map[string]any{
		"query": encode(q.Root),
		"size":  size,
	}
	if len(q.Sort) > 0 {
		sort := make([]any, len(q.Sort))
		for i, s := range q.Sort {
			order := "asc"
			if s.Descending {
				order = "desc"
			}
			sort[i] = map[string]any{s.Field: order}
		}
		body["sort"] = sort
	}
	return body
}

func encode(c Clause) map[string]any {
	switch c := c.(type) {
	case Term:
		return map[string]any{"term": map[string]any{c.Field: c.Value}}
	case Match:
		inner := map[string]any{"query": c.Query}
		if c.Fuzziness != "" {
			inner["fuzziness"] = c.Fuzziness
		}
		if c.Boost != 0 {
			inner["boost"] = c.Boost
		}
		return map[string]any{"match": map[string]any{c.Field: inner}}
	case Wildcard:
		return map[string]any{"wildcard": map[string]any{c.Field: c.Pattern}}
	case Bool:
		inner := map[string]any{}
		if len(c.Must) > 0 {
			inner["must"] = encodeAll(c.Must)
		}
		if len(c.Should) > 0 {
			inner["should"] = encodeAll(c.Should)
		}
		if len(c.MustNot) > 0 {
			inner["must_not"] = encodeAll(c.MustNot)
		}
		if c.MinimumShouldMatch > 0 {
			inner["minimum_should_match"] = c.MinimumShouldMatch
		}
		if c.Boost != 0 {
			inner["boost"] = c.Boost
		}
		return map[string]any{"bool": inner}
	default:
		panic(fmt.Sprintf("query: unknown clause type %T", c))
	}
}

func encodeAll(clauses []Clause) []any {
	out := make([]any, len(clauses))
	for i, c := range clauses {
		out[i] = encode(c)
	}
	return out
}
