package bleveindex

import (
	"fmt"
	"strings"
	"unicode"

	"tonotes/model"
	"tonotes/search"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/highlight/highlighter/html"
	bquery "github.com/blevesearch/bleve/v2/search/query"
)

// newSearchRequest renders q as a bleve search request.
func newSearchRequest(q *search.Query) (*bleve.SearchRequest, error) {
	root, err := renderQuery(q)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(root, q.Size, q.From, false)
	req.Fields = []string{"*"}
	req.SortBy(sortOrder(q.Sort))

	if q.Highlight != nil && len(q.Highlight.Fields) > 0 {
		req.Highlight = bleve.NewHighlightWithStyle(html.Name)
		for _, f := range q.Highlight.Fields {
			req.Highlight.AddField(f.Field)
		}
	}
	return req, nil
}

// renderQuery combines every filter and, when present, a disjunction of the
// relevance clauses into one conjunction.
func renderQuery(q *search.Query) (bquery.Query, error) {
	if len(q.Filters) == 0 {
		return nil, fmt.Errorf("query has no filters")
	}

	root := bleve.NewConjunctionQuery()
	for _, c := range q.Filters {
		rendered, err := renderClause(c)
		if err != nil {
			return nil, err
		}
		root.AddQuery(rendered)
	}

	if len(q.Should) > 0 {
		should := bleve.NewDisjunctionQuery()
		for _, c := range q.Should {
			rendered, err := renderClause(c)
			if err != nil {
				return nil, err
			}
			should.AddQuery(rendered)
		}
		should.SetMin(1)
		root.AddQuery(should)
	}
	return root, nil
}

func renderClause(c search.Clause) (bquery.Query, error) {
	switch c := c.(type) {
	case search.AccessFilter:
		return bleve.NewDisjunctionQuery(
			termQuery(model.FieldOwner, c.UserID),
			termQuery(model.FieldCollaborators, c.UserID),
		), nil

	case search.TagsFilter:
		q := bleve.NewDisjunctionQuery()
		for _, tag := range c.Tags {
			q.AddQuery(termQuery(model.FieldTags, tag))
		}
		return q, nil

	case search.DateRangeFilter:
		inclusive := true
		q := bleve.NewDateRangeInclusiveQuery(c.From, c.To, &inclusive, &inclusive)
		q.SetField(c.Field)
		return q, nil

	case search.PhrasePrefix:
		return phrasePrefixQuery(c), nil

	case search.FuzzyMulti:
		return fuzzyMultiQuery(c), nil

	case search.TermExact:
		field := c.Field
		if c.Keyword {
			field = keywordField(c.Field)
		}
		q := termQuery(field, c.Value)
		q.SetBoost(c.Boost)
		return q, nil
	}
	return nil, fmt.Errorf("unsupported clause %T", c)
}

// phrasePrefixQuery requires every leading term and a prefix match on the
// last one. Term order and distance are not enforced.
func phrasePrefixQuery(c search.PhrasePrefix) bquery.Query {
	terms := analyzeTerms(c.Text)
	if len(terms) == 0 {
		return bleve.NewMatchNoneQuery()
	}

	last := terms[len(terms)-1]
	prefix := bleve.NewPrefixQuery(last)
	prefix.SetField(c.Field)

	if len(terms) == 1 {
		prefix.SetBoost(c.Boost)
		return prefix
	}

	leading := bleve.NewMatchQuery(strings.Join(terms[:len(terms)-1], " "))
	leading.SetField(c.Field)
	leading.SetOperator(bquery.MatchQueryOperatorAnd)

	q := bleve.NewConjunctionQuery(leading, prefix)
	q.SetBoost(c.Boost)
	return q
}

// fuzzyMultiQuery matches each term against every field with an edit
// distance scaled to the term length, and requires a share of the terms to
// match.
func fuzzyMultiQuery(c search.FuzzyMulti) bquery.Query {
	terms := analyzeTerms(c.Text)
	if len(terms) == 0 {
		return bleve.NewMatchNoneQuery()
	}

	q := bleve.NewDisjunctionQuery()
	for _, term := range terms {
		perField := bleve.NewDisjunctionQuery()
		fuzziness := search.AutoFuzziness(term)
		for _, fb := range c.Fields {
			if fuzziness == 0 {
				tq := termQuery(fb.Field, term)
				tq.SetBoost(fb.Boost)
				perField.AddQuery(tq)
				continue
			}
			fq := bleve.NewFuzzyQuery(term)
			fq.SetField(fb.Field)
			fq.SetFuzziness(fuzziness)
			fq.SetPrefix(c.PrefixLength)
			fq.SetBoost(fb.Boost)
			perField.AddQuery(fq)
		}
		q.AddQuery(perField)
	}
	q.SetMin(float64(search.MinimumMatches(len(terms), c.MinimumShouldMatch)))
	return q
}

func keywordField(field string) string {
	switch field {
	case model.FieldTitle:
		return fieldTitleKeyword
	case model.FieldContent:
		return fieldContentKeyword
	}
	return field
}

// analyzeTerms approximates the standard analyzer for query text that
// bleve does not analyze itself: lower-case runs of letters and digits.
func analyzeTerms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func termQuery(field, value string) *bquery.TermQuery {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

func sortOrder(keys []search.SortKey) []string {
	order := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		field := string(k.Field)
		if k.Field == search.SortByTitle {
			field = fieldTitleKeyword
		}
		if k.Descending {
			field = "-" + field
		}
		order = append(order, field)
	}
	return append(order, "_id")
}
