package nameparse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"personmatch/internal/names"
	"personmatch/internal/person"
)

type ParserSuite struct {
	suite.Suite
	parser *Parser
}

func TestParserSuite(t *testing.T) {
	suite.Run(t, new(ParserSuite))
}

func (s *ParserSuite) SetupTest() {
	store := names.NewMemoryStore().
		SeedAffixes("van", "de", "der").
		SeedFirstName("peter", person.GenderMale, 250_000).
		SeedFirstName("anna", person.GenderFemale, 180_000).
		SeedSurname("jansen", 120_000).
		SeedSurname("saalbrink", 12)
	s.parser = New(names.New(store))
}

func (s *ParserSuite) TestParse() {
	ctx := context.Background()

	s.Run("first and last name from an email local part", func() {
		parsed, err := s.parser.Parse(ctx, "peter.jansen")
		s.NoError(err)
		s.Equal("Peter", parsed.FirstName)
		s.Equal("Jansen", parsed.LastName)
		s.Equal("P", parsed.Initials)
		s.Equal(person.GenderMale, parsed.Gender)
	})

	s.Run("leading single letters become initials", func() {
		parsed, err := s.parser.Parse(ctx, "p.j.jansen")
		s.NoError(err)
		s.Equal("PJ", parsed.Initials)
		s.Equal("Jansen", parsed.LastName)
		s.Empty(parsed.FirstName)
	})

	s.Run("affix tokens are dropped", func() {
		parsed, err := s.parser.Parse(ctx, "anna_van_jansen")
		s.NoError(err)
		s.Equal("Anna", parsed.FirstName)
		s.Equal("Jansen", parsed.LastName)
		s.Equal(person.GenderFemale, parsed.Gender)
	})

	s.Run("digits separate like punctuation", func() {
		parsed, err := s.parser.Parse(ctx, "peter2jansen1980")
		s.NoError(err)
		s.Equal("Peter", parsed.FirstName)
		s.Equal("Jansen", parsed.LastName)
	})

	s.Run("two first names reassign the trailing one", func() {
		parsed, err := s.parser.Parse(ctx, "peter.anna")
		s.NoError(err)
		s.Equal("Peter", parsed.FirstName)
		s.Equal("Anna", parsed.LastName)
	})

	s.Run("unknown tokens classify as last name", func() {
		parsed, err := s.parser.Parse(ctx, "peter.saalbrink")
		s.NoError(err)
		s.Equal("Peter", parsed.FirstName)
		s.Equal("Saalbrink", parsed.LastName)
	})

	s.Run("initials only input returns them as first name", func() {
		parsed, err := s.parser.Parse(ctx, "p.j.")
		s.NoError(err)
		s.Equal("PJ", parsed.Initials)
		s.Equal("PJ", parsed.FirstName)
		s.Empty(parsed.LastName)
	})

	s.Run("empty input yields nothing", func() {
		parsed, err := s.parser.Parse(ctx, "")
		s.NoError(err)
		s.Equal(Parsed{}, parsed)
	})
}
