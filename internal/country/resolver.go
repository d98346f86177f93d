// Package country resolves free-text GitHub profile locations to a
// canonical country from a static, ordered reference list.
package country

import (
	"strings"
	"unicode"

	"github.com/sakif/gh-rankings/internal/model"
)

// aliases are extra spellings that are matched as whole words, never as
// substrings ("UK" would otherwise match "Ukraine").
var aliases = map[string][]string{
	"US": {"usa", "u.s.a", "u.s"},
	"GB": {"uk", "england", "scotland", "wales", "london"},
	"DE": {"deutschland"},
	"BR": {"brasil"},
	"ES": {"españa", "espana"},
	"NL": {"holland"},
	"KR": {"korea"},
	"CZ": {"czechia"},
	"TR": {"türkiye", "turkiye"},
	"AE": {"uae"},
}

// Resolver matches locations against the reference list.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	countries []model.Country
	lowered   []string // lower-cased names, same order as countries
	byKey     map[string]model.Country
}

// New returns a Resolver over the built-in reference list.
func New() *Resolver {
	return NewWithCountries(reference)
}

// NewWithCountries returns a Resolver over a custom ordered list.
func NewWithCountries(countries []model.Country) *Resolver {
	r := &Resolver{
		countries: make([]model.Country, len(countries)),
		lowered:   make([]string, len(countries)),
		byKey:     make(map[string]model.Country, len(countries)*2),
	}
	copy(r.countries, countries)
	for i, c := range r.countries {
		r.lowered[i] = strings.ToLower(c.Name)
		r.byKey[strings.ToLower(c.Code)] = c
		r.byKey[r.lowered[i]] = c
	}
	return r
}

// FindByLocation returns the country the location mentions. Names and
// aliases are tried first, in reference order: a name matches as a
// case-insensitive substring, an alias as a whole word. Only then are codes
// tried, also in reference order. A code matches when it is the whole
// location in any case ("de") or a standalone upper-case token ("Berlin, DE").
// Lower-case two-letter words in prose ("in", "us") are not codes.
func (r *Resolver) FindByLocation(location string) (model.Country, bool) {
	trimmed := strings.TrimSpace(location)
	loc := strings.ToLower(trimmed)
	if loc == "" {
		return model.Country{}, false
	}

	words := wordSet(loc)
	for i, c := range r.countries {
		if strings.Contains(loc, r.lowered[i]) {
			return c, true
		}
		for _, alias := range aliases[c.Code] {
			if words[alias] {
				return c, true
			}
		}
	}

	tokens := wordSet(trimmed)
	for _, c := range r.countries {
		if loc == strings.ToLower(c.Code) || tokens[strings.ToUpper(c.Code)] {
			return c, true
		}
	}
	return model.Country{}, false
}

// Lookup resolves a rankings country selector, given as a code or a
// canonical name, case-insensitively.
func (r *Resolver) Lookup(selector string) (model.Country, bool) {
	c, ok := r.byKey[strings.ToLower(strings.TrimSpace(selector))]
	return c, ok
}

// All returns a copy of the reference list in order.
func (r *Resolver) All() []model.Country {
	out := make([]model.Country, len(r.countries))
	copy(out, r.countries)
	return out
}

// wordSet splits s on anything that is not a letter or a dot, trimming
// trailing dots so "U.S." and "U.S" both yield "u.s".
func wordSet(s string) map[string]bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '.'
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f = strings.Trim(f, "."); f != "" {
			set[f] = true
		}
	}
	return set
}
