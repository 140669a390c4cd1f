// =============================================================================
// GSTR-2B Reconciler - Column Mapping Suggestion
// =============================================================================
//
// This module proposes which header of a dataset holds each semantic field.
// Suggestions only pre-fill the mapping; anything configured explicitly is
// kept as is.
//
// STRATEGIES:
//   - regex: a fixed list of header patterns per field, first header wins
//   - fuzzy: closest header to a set of field phrases (closestmatch)
//   - chain: regex first, fuzzy for whatever regex left empty
//
// =============================================================================

package mapping

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	"github.com/schollz/closestmatch"
)

// Suggester proposes a mapping for a header list. Fields it cannot place are
// left empty.
type Suggester interface {
	Suggest(headers []string) types.Mapping
}

// New returns the suggester registered under name ("regex", "fuzzy" or
// "chain").
func New(name string) (Suggester, error) {
	switch name {
	case "regex":
		return NewRegexSuggester(), nil
	case "fuzzy":
		return NewFuzzySuggester(), nil
	case "", "chain":
		return Chain(NewRegexSuggester(), NewFuzzySuggester()), nil
	}
	return nil, fmt.Errorf("unknown suggester %q", name)
}

// =============================================================================
// REGEX SUGGESTER
// =============================================================================

// RegexSuggester matches lower-cased headers against one pattern per field.
type RegexSuggester struct {
	patterns map[types.Field]*regexp.Regexp
}

// NewRegexSuggester returns the built-in header patterns.
func NewRegexSuggester() *RegexSuggester {
	return &RegexSuggester{patterns: map[types.Field]*regexp.Regexp{
		types.FieldGSTIN:         regexp.MustCompile(`gstin|gst no|gstin of supplier|supplier gst`),
		types.FieldInvoiceNumber: regexp.MustCompile(`invoice no|inv no|bill no|document number|doc no`),
		types.FieldInvoiceDate:   regexp.MustCompile(`invoice date|inv date|bill date|doc date`),
		types.FieldTaxableValue:  regexp.MustCompile(`taxable value|taxable amt|taxable`),
		types.FieldTotalValue:    regexp.MustCompile(`total value|invoice value|grand total|total amt|total`),
	}}
}

// Suggest maps each field to the first header its pattern matches. Fields
// are matched independently, so one header may serve two fields.
func (s *RegexSuggester) Suggest(headers []string) types.Mapping {
	var m types.Mapping
	for _, f := range types.Fields {
		re := s.patterns[f]
		for _, h := range headers {
			if re.MatchString(strings.ToLower(h)) {
				m = m.Set(f, h)
				break
			}
		}
	}
	return m
}

// =============================================================================
// FUZZY SUGGESTER
// =============================================================================

// FuzzySuggester picks, per field, the header closest to one of the field's
// phrases. A header is used for at most one field and must share a word with
// the phrase it matched.
type FuzzySuggester struct {
	// Phrases are tried in order for each field.
	Phrases map[types.Field][]string

	// SubsetSizes are the closestmatch bag sizes.
	SubsetSizes []int
}

// NewFuzzySuggester returns the built-in phrases for GST portal and
// accounting-package exports.
func NewFuzzySuggester() *FuzzySuggester {
	return &FuzzySuggester{
		Phrases: map[types.Field][]string{
			types.FieldGSTIN:         {"gstin", "supplier gstin", "gstin uin", "gst number", "ctin"},
			types.FieldInvoiceNumber: {"invoice number", "invoice no", "bill number", "document number", "voucher number", "voucher no"},
			types.FieldInvoiceDate:   {"invoice date", "bill date", "document date", "voucher date"},
			types.FieldTaxableValue:  {"taxable value", "taxable amount", "assessable value"},
			types.FieldTotalValue:    {"invoice value", "total amount", "gross amount", "bill amount"},
		},
		SubsetSizes: []int{3, 4},
	}
}

// Suggest fills fields in display order so earlier fields claim headers first.
func (s *FuzzySuggester) Suggest(headers []string) types.Mapping {
	var m types.Mapping
	used := make(map[string]bool)

	for _, f := range types.Fields {
		if h := s.closest(headers, used, s.Phrases[f]); h != "" {
			m = m.Set(f, h)
			used[h] = true
		}
	}
	return m
}

func (s *FuzzySuggester) closest(headers []string, used map[string]bool, phrases []string) string {
	byLower := make(map[string]string, len(headers))
	var candidates []string
	for _, h := range headers {
		if used[h] || h == "" {
			continue
		}
		key := strings.ToLower(h)
		if _, seen := byLower[key]; seen {
			continue
		}
		byLower[key] = h
		candidates = append(candidates, key)
	}
	if len(candidates) == 0 {
		return ""
	}

	cm := closestmatch.New(candidates, s.SubsetSizes)
	for _, phrase := range phrases {
		match := cm.Closest(phrase)
		if match != "" && sharesWord(match, phrase) {
			return byLower[match]
		}
	}
	return ""
}

// sharesWord reports whether a and b have a common word of three or more
// letters or digits.
func sharesWord(a, b string) bool {
	words := make(map[string]bool)
	for _, w := range splitWords(a) {
		words[w] = true
	}
	for _, w := range splitWords(b) {
		if words[w] {
			return true
		}
	}
	return false
}

func splitWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, w := range fields {
		if len(w) >= 3 {
			out = append(out, w)
		}
	}
	return out
}

// =============================================================================
// COMBINATORS
// =============================================================================

type chain []Suggester

// Chain consults suggesters in order. A later suggester only fills fields
// that are still empty, and never with a header an earlier one already took.
func Chain(suggesters ...Suggester) Suggester {
	return chain(suggesters)
}

func (c chain) Suggest(headers []string) types.Mapping {
	var m types.Mapping
	for _, s := range c {
		m = Fill(m, s.Suggest(headers))
	}
	return m
}

// Fill returns m with its empty fields taken from suggested. A suggested
// header that m already maps to another field is skipped. Within suggested,
// one header may fill several fields, as the regex patterns allow for a
// column like "Total Taxable Value".
func Fill(m, suggested types.Mapping) types.Mapping {
	taken := make(map[string]bool)
	for _, f := range types.Fields {
		if h := m.Get(f); h != "" {
			taken[h] = true
		}
	}

	for _, f := range types.Fields {
		if m.Get(f) != "" {
			continue
		}
		if h := suggested.Get(f); h != "" && !taken[h] {
			m = m.Set(f, h)
		}
	}
	return m
}
