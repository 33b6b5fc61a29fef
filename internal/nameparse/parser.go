// Package nameparse splits a raw name string, typically the local part of
// an email address, into first name, last name, initials and a gender guess
// using corpus frequency counts.
package nameparse

import (
	"context"
	"strings"
	"unicode"

	"personmatch/internal/names"
	"personmatch/internal/normalize"
	"personmatch/internal/person"
)

// Parsed is the outcome of parsing a raw name.
type Parsed struct {
	FirstName string
	LastName  string
	Initials  string
	Gender    person.Gender
}

// Parser classifies name tokens by how often they occur as first names
// versus surnames in the loaded statistics.
type Parser struct {
	stats *names.Statistics
}

func New(stats *names.Statistics) *Parser {
	return &Parser{stats: stats}
}

// Parse tokenizes raw on common separator characters and assigns each token
// to a name part. Leading single-letter tokens become initials, affix tokens
// are dropped, and the remaining tokens go to whichever side the corpus
// counts favor. When every token is classified as a first name, the last one
// is reassigned to the last name so realistic input always yields both.
func (p *Parser) Parse(ctx context.Context, raw string) (Parsed, error) {
	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return Parsed{}, nil
	}

	var parsed Parsed
	for len(tokens) > 0 && len([]rune(tokens[0])) == 1 {
		parsed.Initials += strings.ToUpper(tokens[0])
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		parsed.FirstName = parsed.Initials
		return parsed, nil
	}

	affixes, err := p.stats.Affixes(ctx)
	if err != nil {
		return Parsed{}, err
	}

	var first, last []string
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if _, ok := affixes[lower]; ok {
			continue
		}
		isFirst, err := p.likelyFirstName(ctx, lower)
		if err != nil {
			return Parsed{}, err
		}
		if isFirst {
			first = append(first, tok)
		} else {
			last = append(last, tok)
		}
	}

	if len(last) == 0 && len(first) > 1 {
		last = first[len(first)-1:]
		first = first[:len(first)-1]
	}

	parsed.FirstName = joinTitle(first)
	parsed.LastName = joinTitle(last)
	if parsed.Initials == "" && parsed.FirstName != "" {
		parsed.Initials = normalize.Initials(string([]rune(parsed.FirstName)[0]))
	}
	if len(first) > 0 {
		gender, ok, err := p.stats.FirstNameGender(ctx, strings.ToLower(first[0]))
		if err != nil {
			return Parsed{}, err
		}
		if ok {
			parsed.Gender = gender
		}
	}
	return parsed, nil
}

// likelyFirstName compares occurrence counts of the token as a first name
// and as a surname. Unknown tokens count as surname.
func (p *Parser) likelyFirstName(ctx context.Context, token string) (bool, error) {
	firstCount, err := p.stats.Store().FirstNameCount(ctx, token)
	if err != nil {
		return false, err
	}
	lastCount, _, err := p.stats.SurnameCount(ctx, token)
	if err != nil {
		return false, err
	}
	return firstCount > lastCount, nil
}

func tokenize(raw string) []string {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+' || unicode.IsSpace(r) || unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func joinTitle(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		runes := []rune(tok)
		parts[i] = string(unicode.ToUpper(runes[0])) + string(runes[1:])
	}
	return strings.Join(parts, " ")
}
