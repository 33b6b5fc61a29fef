package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type WireSuite struct {
	suite.Suite
}

func TestWireSuite(t *testing.T) {
	suite.Run(t, new(WireSuite))
}

func (s *WireSuite) TestEncodeTerm() {
	s.Equal(
		map[string]any{"term": map[string]any{"address.postalCode.keyword": "1071XB"}},
		encode(Term{Field: "address.postalCode.keyword", Value: "1071XB"}),
	)
}

func (s *WireSuite) TestEncodeMatch() {
	s.Run("plain match", func() {
		s.Equal(
			map[string]any{"match": map[string]any{"details.lastname": map[string]any{"query": "Jansen"}}},
			encode(Match{Field: "details.lastname", Query: "Jansen"}),
		)
	})

	s.Run("fuzziness and boost are only present when set", func() {
		encoded := encode(Match{Field: "details.lastname", Query: "Jansen", Fuzziness: "AUTO", Boost: 2})
		inner := encoded["match"].(map[string]any)["details.lastname"].(map[string]any)
		s.Equal("AUTO", inner["fuzziness"])
		s.Equal(float64(2), inner["boost"])
	})
}

func (s *WireSuite) TestEncodeWildcard() {
	s.Equal(
		map[string]any{"wildcard": map[string]any{"details.initials": "pj*"}},
		encode(Wildcard{Field: "details.initials", Pattern: "pj*"}),
	)
}

func (s *WireSuite) TestEncodeBool() {
	encoded := encode(Bool{
		Must:               []Clause{Term{Field: "a", Value: 1}},
		Should:             []Clause{Term{Field: "b", Value: 2}, Term{Field: "c", Value: 3}},
		MustNot:            []Clause{Term{Field: "d", Value: 4}},
		MinimumShouldMatch: 1,
		Boost:              2,
	})
	inner := encoded["bool"].(map[string]any)
	s.Len(inner["must"], 1)
	s.Len(inner["should"], 2)
	s.Len(inner["must_not"], 1)
	s.Equal(1, inner["minimum_should_match"])
	s.Equal(float64(2), inner["boost"])
}

func (s *WireSuite) TestBodyIsValidJSON() {
	q := Query{
		Root: Bool{Should: []Clause{
			Term{Field: "contact.email", Value: "p@example.nl"},
			Wildcard{Field: "details.initials", Pattern: "p*"},
		}},
		Sort: defaultSort,
	}
	body := q.Body(10)

	raw, err := json.Marshal(body)
	s.Require().NoError(err)

	var decoded map[string]any
	s.Require().NoError(json.Unmarshal(raw, &decoded))
	s.Contains(decoded, "query")
	s.Equal(float64(10), decoded["size"])

	sort := decoded["sort"].([]any)
	s.Equal(map[string]any{"date": "desc"}, sort[0])
	s.Equal(map[string]any{"_score": "desc"}, sort[1])
}
