package search

import (
	"strings"

	"tonotes/model"

	"github.com/samber/lo"
)

const (
	phrasePrefixSlop        = 3
	fuzzyPrefixLength       = 2
	fuzzyMinimumShouldMatch = 50

	contentFragmentSize = 200
	highlightPreTag     = "<mark>"
	highlightPostTag    = "</mark>"
)

// BuildQuery translates a search request into an engine independent query.
// It returns ErrNoCriteria when the request has no text, tags or dates;
// such requests must be served as a plain listing without touching the
// search index.
func BuildQuery(req Request) (*Query, error) {
	req, err := NormalizeRequest(req)
	if err != nil {
		return nil, err
	}
	if !req.HasCriteria() {
		return nil, ErrNoCriteria
	}

	q := &Query{
		From: req.Offset(),
		Size: req.PageSize,
	}

	q.Filters = append(q.Filters, AccessFilter{UserID: req.RequestingUser})
	if len(req.Tags) > 0 {
		q.Filters = append(q.Filters, TagsFilter{Tags: req.Tags})
	}
	if req.DateRange != nil {
		from, to := req.DateRange.Bounds()
		q.Filters = append(q.Filters, DateRangeFilter{
			Field: model.FieldCreatedAt,
			From:  from,
			To:    to,
		})
	}

	sortKey := SortKey{Field: req.Sort.Field, Descending: req.Sort.Descending}
	if req.QueryText == "" {
		q.Sort = []SortKey{sortKey}
		return q, nil
	}

	q.Should = relevanceClauses(req.QueryText)
	q.Sort = []SortKey{{Field: SortByScore, Descending: true}, sortKey}
	q.Highlight = &Highlight{
		Fields: []HighlightField{
			{Field: model.FieldTitle, NumberOfFragments: 0},
			{Field: model.FieldContent, FragmentSize: contentFragmentSize, NumberOfFragments: 1},
			{Field: model.FieldTags, NumberOfFragments: 0},
		},
		PreTag:  highlightPreTag,
		PostTag: highlightPostTag,
		Query:   q.Should,
	}
	return q, nil
}

func relevanceClauses(text string) []Clause {
	clauses := []Clause{
		PhrasePrefix{Field: model.FieldTitle, Text: text, Slop: phrasePrefixSlop, Boost: 4.0},
		PhrasePrefix{Field: model.FieldContent, Text: text, Slop: phrasePrefixSlop, Boost: 2.0},
		FuzzyMulti{
			Fields: []FieldBoost{
				{Field: model.FieldTitle, Boost: 3},
				{Field: model.FieldContent, Boost: 2},
				{Field: model.FieldTags, Boost: 1},
			},
			Text:               text,
			PrefixLength:       fuzzyPrefixLength,
			MinimumShouldMatch: fuzzyMinimumShouldMatch,
		},
	}

	for _, term := range Tokens(text) {
		clauses = append(clauses,
			TermExact{Field: model.FieldTitle, Keyword: true, Value: term, Boost: 5.0},
			TermExact{Field: model.FieldContent, Keyword: true, Value: term, Boost: 3.0},
			TermExact{Field: model.FieldTags, Value: term, Boost: 4.0},
		)
	}
	return clauses
}

// Tokens splits text on whitespace and lower-cases each token, dropping
// repeats.
func Tokens(text string) []string {
	return lo.Uniq(strings.Fields(strings.ToLower(text)))
}
