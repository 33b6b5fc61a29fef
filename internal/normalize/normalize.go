// Package normalize canonicalizes raw person input into clean value objects,
// calling the external phone and email verification services where
// configured.
package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"personmatch/internal/names"
	"personmatch/internal/person"
	"personmatch/internal/platform/config"
	"personmatch/pkg/platform/sentinel"
)

var supportedCountries = map[string]struct{}{
	"nederland": {}, "netherlands": {}, "nl": {}, "nld": {},
}

var titleCaser = cases.Title(language.Dutch)

// Normalizer mutates Persons in place through a fixed cleaning pipeline.
// Phone and email clients are optional; without them the respective fields
// are kept as-is (phone) or per the clean-email toggle (email).
type Normalizer struct {
	stats  *names.Statistics
	phone  PhoneClient
	email  EmailClient
	cfg    config.Matching
	logger *slog.Logger
}

// New constructs a Normalizer.
func New(stats *names.Statistics, phone PhoneClient, email EmailClient, cfg config.Matching, logger *slog.Logger) *Normalizer {
	return &Normalizer{stats: stats, phone: phone, email: email, cfg: cfg, logger: logger}
}

// Normalize cleans every field of p in place. The email and phone
// validations are independent and run concurrently, each under its own
// timeout; a failed validation unsets the field rather than failing the
// pipeline. An unsupported country is fatal.
func (n *Normalizer) Normalize(ctx context.Context, p *person.Person) error {
	if err := n.checkCountry(p); err != nil {
		return err
	}

	p.Date = dropDefaultDate(p.Date)
	p.DateOfBirth = dropDefaultDate(p.DateOfBirth)
	p.Gender = normalizeGender(string(p.Gender))
	p.Address.HouseNumberExt = Extension(p.Address.HouseNumberExt)
	p.Initials = Initials(p.Initials)
	if err := n.normalizeLastname(ctx, p); err != nil {
		return err
	}
	p.Address.Postcode = Postcode(p.Address.Postcode)

	return n.validateContacts(ctx, p)
}

func (n *Normalizer) checkCountry(p *person.Person) error {
	country := p.Address.Country
	if country == "" {
		country = n.cfg.DefaultCountry
		p.Address.Country = country
	}
	if _, ok := supportedCountries[strings.ToLower(country)]; !ok {
		return fmt.Errorf("%w: not implemented for country %q", sentinel.ErrConfiguration, country)
	}
	return nil
}

func (n *Normalizer) normalizeLastname(ctx context.Context, p *person.Person) error {
	if p.Lastname == "" {
		return nil
	}
	affixes, err := n.stats.Affixes(ctx)
	if err != nil {
		return err
	}
	titles, err := n.stats.Titles(ctx)
	if err != nil {
		return err
	}
	p.Lastname = Lastname(p.Lastname, affixes, titles)
	return nil
}

// validateContacts runs the email and phone validations concurrently. Each
// validation failure logs and unsets the field; only context cancellation
// propagates.
func (n *Normalizer) validateContacts(ctx context.Context, p *person.Person) error {
	g, gctx := errgroup.WithContext(ctx)

	if n.cfg.CleanEmail && n.email != nil && p.Email != "" {
		address := p.Email
		g.Go(func() error {
			vctx, cancel := context.WithTimeout(gctx, n.cfg.ValidationTimeout)
			defer cancel()
			result, err := n.email.Validate(vctx, address)
			if err != nil {
				n.warn(gctx, "email validation failed", err)
				p.Email = ""
				return nil
			}
			if result.Valid {
				p.Email = result.Address
			} else {
				p.Email = ""
			}
			return nil
		})
	}

	if n.phone != nil && (p.Mobile != "" || p.Landline != "") {
		mobile, landline := p.Mobile, p.Landline
		g.Go(func() error {
			vctx, cancel := context.WithTimeout(gctx, n.cfg.ValidationTimeout)
			defer cancel()
			p.Mobile, p.Landline = n.validatePhones(vctx, mobile, landline, countryISO2(p.Address.Country))
			return nil
		})
	}

	return g.Wait()
}

// validatePhones validates both numbers and re-categorizes them per the
// service's classification: a number supplied as landline but classified as
// mobile moves to the mobile field, and vice versa. Invalid numbers drop.
func (n *Normalizer) validatePhones(ctx context.Context, mobile, landline, iso string) (string, string) {
	var outMobile, outLandline string
	assign := func(raw string) {
		if raw == "" {
			return
		}
		result, err := n.phone.Validate(ctx, raw, iso)
		if err != nil {
			n.warn(ctx, "phone validation failed", err)
			return
		}
		if !result.Valid {
			return
		}
		switch result.Type {
		case PhoneTypeMobile:
			outMobile = result.Number
		case PhoneTypeLandline:
			outLandline = result.Number
		}
	}
	assign(mobile)
	assign(landline)
	return outMobile, outLandline
}

func (n *Normalizer) warn(ctx context.Context, msg string, err error) {
	if n.logger != nil {
		n.logger.WarnContext(ctx, msg, "error", err)
	}
}

func dropDefaultDate(t time.Time) time.Time {
	if !t.IsZero() && t.Format("2006-01-02") == person.DefaultDate.Format("2006-01-02") {
		return time.Time{}
	}
	return t
}

func normalizeGender(raw string) person.Gender {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "M", "MAN":
		return person.GenderMale
	case "V", "VROUW":
		return person.GenderFemale
	default:
		return person.GenderUnknown
	}
}

func countryISO2(country string) string {
	c := strings.ToUpper(country)
	if len(c) >= 2 {
		return c[:2]
	}
	return "NL"
}

// HouseNumber extracts an integer house number from raw input, dropping unit
// suffixes after "/" or "-" and any non-digit characters.
func HouseNumber(raw string) int {
	if cut := strings.IndexAny(raw, "/-"); cut >= 0 {
		raw = raw[:cut]
	}
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := 0
	for _, r := range digits.String() {
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 0
		}
	}
	return n
}

// Extension keeps only alphanumerics, upper-cased, and drops letter prefixes
// in front of digits ("HS1" becomes "1", trailing letters survive).
func Extension(raw string) string {
	var clean []rune
	for _, r := range strings.ToUpper(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			clean = append(clean, r)
		}
	}
	lastDigit := -1
	for i, r := range clean {
		if unicode.IsDigit(r) {
			lastDigit = i
		}
	}
	if lastDigit < 0 {
		return string(clean)
	}
	var out []rune
	for i, r := range clean {
		if unicode.IsDigit(r) || i > lastDigit {
			out = append(out, r)
		}
	}
	return string(out)
}

// Initials keeps only letters, diacritics folded, upper-cased.
func Initials(raw string) string {
	var out strings.Builder
	for _, r := range stripDiacritics(raw) {
		if unicode.IsLetter(r) {
			out.WriteRune(unicode.ToUpper(r))
		}
	}
	return out.String()
}

// Postcode normalizes to the six-character form without spaces. Anything
// else, including a leading zero, discards the value.
func Postcode(raw string) string {
	pc := strings.ToUpper(strings.ReplaceAll(raw, " ", ""))
	if len(pc) != 6 || strings.HasPrefix(pc, "0") {
		return ""
	}
	return pc
}

// Lastname cleans a lastname: title-case, strip the longest matching affix
// or title prefix, hyphens to spaces, letters only, diacritics folded,
// whitespace collapsed, isolated single-letter tokens and a trailing title
// dropped.
func Lastname(raw string, affixes, titles map[string]struct{}) string {
	name := titleCaser.String(strings.TrimSpace(raw))
	name = stripPrefixes(name, affixes, titles)
	name = strings.ReplaceAll(name, "-", " ")

	var letters strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || r == ' ' {
			letters.WriteRune(r)
		}
	}
	name = stripDiacritics(letters.String())

	tokens := strings.Fields(name)
	kept := tokens[:0]
	for _, tok := range tokens {
		if len([]rune(tok)) > 1 {
			kept = append(kept, tok)
		}
	}
	if len(kept) > 0 {
		if _, ok := titles[strings.ToLower(kept[len(kept)-1])]; ok {
			kept = kept[:len(kept)-1]
		}
	}
	return strings.Join(kept, " ")
}

// stripPrefixes repeatedly removes the longest affix or title leading the
// name, so "Van Der Berg" reduces to "Berg" with {"van", "der"} loaded.
func stripPrefixes(name string, affixes, titles map[string]struct{}) string {
	for {
		lower := strings.ToLower(name)
		longest := 0
		for affix := range affixes {
			if strings.HasPrefix(lower, affix+" ") && len(affix) > longest {
				longest = len(affix)
			}
		}
		for title := range titles {
			if strings.HasPrefix(lower, title+" ") && len(title) > longest {
				longest = len(title)
			}
		}
		if longest == 0 {
			return name
		}
		name = strings.TrimSpace(name[longest:])
	}
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}

// ParseDate parses the date formats seen in raw input. The corpus sentinel
// date reports as unset.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if fields := strings.Fields(raw); len(fields) > 0 {
		raw = fields[0]
	}
	if raw == "" {
		return time.Time{}, false
	}
	layouts := []string{"2006-01-02", time.RFC3339, "02-01-2006", "02/01/2006", "2006/01/02"}
	candidate := raw
	if len(candidate) > 10 && !strings.ContainsAny(candidate, "TZ") {
		candidate = candidate[:10]
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			if t.Format("2006-01-02") == person.DefaultDate.Format("2006-01-02") {
				return time.Time{}, false
			}
			return t, true
		}
	}
	return time.Time{}, false
}
