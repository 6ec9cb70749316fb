package query

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/jengzang/crash-records-backend-go/internal/models"
	"github.com/jengzang/crash-records-backend-go/internal/vocabulary"
)

// term is one matchable phrase of a dimension
type term struct {
	tokens    []string
	canonical string
}

// Parser maps free-text queries to a FilterSpec using a fixed vocabulary.
// A Parser is safe for concurrent use.
type Parser struct {
	vocab *vocabulary.Vocabulary
	terms map[string][]term
}

// NewParser compiles the vocabulary terms of every dimension
func NewParser(vocab *vocabulary.Vocabulary) *Parser {
	p := &Parser{
		vocab: vocab,
		terms: make(map[string][]term, len(vocabulary.Dimensions)),
	}

	for _, dim := range vocabulary.Dimensions {
		if dim == vocabulary.DimYear {
			continue
		}
		var compiled []term
		for phrase, canonical := range vocab.Terms(dim) {
			toks := Tokenize(phrase)
			if len(toks) == 0 {
				continue
			}
			compiled = append(compiled, term{tokens: toks, canonical: canonical})
		}
		// Longest phrase first, then lexical, so equal-position matches are deterministic
		sort.Slice(compiled, func(i, j int) bool {
			if len(compiled[i].tokens) != len(compiled[j].tokens) {
				return len(compiled[i].tokens) > len(compiled[j].tokens)
			}
			return strings.Join(compiled[i].tokens, " ") < strings.Join(compiled[j].tokens, " ")
		})
		p.terms[dim] = compiled
	}

	return p
}

// Parse extracts a FilterSpec from a free-text query.
// Empty or unrecognized input yields an all-wildcard spec; Parse never fails.
func (p *Parser) Parse(q string) models.FilterSpec {
	tokens := Tokenize(q)
	if len(tokens) == 0 {
		return models.FilterSpec{}
	}

	return models.FilterSpec{
		Borough:            p.firstMatch(vocabulary.DimBorough, tokens),
		Year:               firstYear(tokens),
		VehicleType:        p.firstMatch(vocabulary.DimVehicleType, tokens),
		ContributingFactor: p.firstMatch(vocabulary.DimContributingFactor, tokens),
		PersonType:         p.firstMatch(vocabulary.DimPersonType, tokens),
		InjuryType:         p.firstMatch(vocabulary.DimInjuryType, tokens),
	}
}

// firstMatch returns the canonical value of the term matching earliest in the query
func (p *Parser) firstMatch(dim string, tokens []string) string {
	terms := p.terms[dim]
	for i := range tokens {
		for _, t := range terms {
			if matchAt(tokens, i, t.tokens) {
				return t.canonical
			}
		}
	}
	return ""
}

// matchAt reports whether phrase occurs at position i. The last phrase token
// also matches its plural forms ("pedestrians", "crashes").
func matchAt(tokens []string, i int, phrase []string) bool {
	if i+len(phrase) > len(tokens) {
		return false
	}
	last := len(phrase) - 1
	for k, want := range phrase {
		got := tokens[i+k]
		if got == want {
			continue
		}
		if k == last && (got == want+"s" || got == want+"es") {
			continue
		}
		return false
	}
	return true
}

// firstYear returns the first 4-digit token inside the supported year range
func firstYear(tokens []string) string {
	for _, tok := range tokens {
		if len(tok) != 4 {
			continue
		}
		y, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if y >= vocabulary.MinYear && y <= vocabulary.MaxYear {
			return tok
		}
	}
	return ""
}

// Tokenize lower-cases s and splits it on anything that is not a letter or digit
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
