package search

import (
	"time"
	"unicode/utf8"
)

// Clause is one node of a search query. The set of clause kinds is closed;
// index adapters render each kind into their engine's request format.
type Clause interface {
	clause()
}

// PhrasePrefix matches Text as a phrase whose last term may be a prefix,
// tolerating up to Slop extra tokens between the terms.
type PhrasePrefix struct {
	Field string
	Text  string
	Slop  int
	Boost float64
}

// FieldBoost is a field name with its relevance weight.
type FieldBoost struct {
	Field string
	Boost float64
}

// FuzzyMulti matches the terms of Text against several fields with an edit
// distance scaled to each term's length. The first PrefixLength characters
// of a term must match exactly and at least MinimumShouldMatch percent of
// the terms must match.
type FuzzyMulti struct {
	Fields             []FieldBoost
	Text               string
	PrefixLength       int
	MinimumShouldMatch int
}

// TermExact matches Value verbatim. When Keyword is set the match runs
// against the non-analyzed keyword variant of an analyzed text field.
type TermExact struct {
	Field   string
	Keyword bool
	Value   string
	Boost   float64
}

// TagsFilter keeps documents carrying at least one of Tags.
type TagsFilter struct {
	Tags []string
}

// DateRangeFilter keeps documents whose Field falls within [From, To].
// A zero bound is open.
type DateRangeFilter struct {
	Field string
	From  time.Time
	To    time.Time
}

// AccessFilter keeps documents owned by UserID or shared with them.
type AccessFilter struct {
	UserID string
}

func (PhrasePrefix) clause()    {}
func (FuzzyMulti) clause()      {}
func (TermExact) clause()       {}
func (TagsFilter) clause()      {}
func (DateRangeFilter) clause() {}
func (AccessFilter) clause()    {}

// SortKey orders hits by one field.
type SortKey struct {
	Field      SortField
	Descending bool
}

// HighlightField asks for highlighted fragments of a field.
// NumberOfFragments 0 highlights the whole field value.
type HighlightField struct {
	Field             string
	FragmentSize      int
	NumberOfFragments int
}

// Highlight asks for highlighted fragments, driven by Query rather than by
// the filters so that only text that scored gets marked.
type Highlight struct {
	Fields  []HighlightField
	PreTag  string
	PostTag string
	Query   []Clause
}

// Query is the engine independent search request.
//
// Every filter must match and does not contribute to relevance. When Should
// is non-empty at least one of its clauses must match and the matches
// decide relevance.
type Query struct {
	Filters   []Clause
	Should    []Clause
	Sort      []SortKey
	From      int
	Size      int
	Highlight *Highlight
}

// HasRelevance reports whether the query carries scoring clauses.
func (q *Query) HasRelevance() bool {
	return len(q.Should) > 0
}

// AutoFuzziness is the edit distance allowed for a term: exact for up to two
// characters, one edit for three to five, two edits beyond.
func AutoFuzziness(term string) int {
	switch n := utf8.RuneCountInString(term); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

// MinimumMatches converts a percentage of terms into a count, rounding down
// but never below one.
func MinimumMatches(terms, percent int) int {
	n := terms * percent / 100
	if n < 1 {
		return 1
	}
	return n
}
