package opensearch

import (
	"fmt"
	"strconv"

	"tonotes/model"
	"tonotes/search"
)

const keywordSuffix = ".keyword"

// indexBody is the settings and mappings the notes index is created with.
func indexBody() map[string]any {
	text := func() map[string]any {
		return map[string]any{
			"type":     "text",
			"analyzer": "standard",
			"fields": map[string]any{
				"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
			},
		}
	}
	keyword := map[string]any{"type": "keyword"}

	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"analysis": map[string]any{
				"analyzer": map[string]any{
					"default": map[string]any{"type": "standard", "stopwords": "_english_"},
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				model.FieldTitle:         text(),
				model.FieldContent:       text(),
				model.FieldTags:          keyword,
				model.FieldOwner:         keyword,
				model.FieldCollaborators: keyword,
				model.FieldFolder:        keyword,
				model.FieldImages:        keyword,
				model.FieldIsPinned:      map[string]any{"type": "boolean"},
				model.FieldCreatedAt:     map[string]any{"type": "date"},
				model.FieldUpdatedAt:     map[string]any{"type": "date"},
			},
		},
	}
}

// expectedTypes are the field types an existing index must have to be
// reused as is.
var expectedTypes = map[string]string{
	model.FieldTitle:         "text",
	model.FieldContent:       "text",
	model.FieldTags:          "keyword",
	model.FieldOwner:         "keyword",
	model.FieldCollaborators: "keyword",
	model.FieldCreatedAt:     "date",
	model.FieldUpdatedAt:     "date",
}

// renderSearch renders q as an OpenSearch search body.
func renderSearch(q *search.Query) (map[string]any, error) {
	filters := make([]any, 0, len(q.Filters))
	for _, c := range q.Filters {
		rendered, err := renderClause(c)
		if err != nil {
			return nil, err
		}
		filters = append(filters, rendered)
	}

	boolQuery := map[string]any{"filter": filters}
	body := map[string]any{
		"from":             q.From,
		"size":             q.Size,
		"sort":             renderSort(q.Sort),
		"track_total_hits": true,
	}

	if len(q.Should) > 0 {
		should, err := renderClauses(q.Should)
		if err != nil {
			return nil, err
		}
		boolQuery["must"] = []any{
			map[string]any{"bool": map[string]any{"should": should, "minimum_should_match": 1}},
		}
		body["track_scores"] = true
	}
	body["query"] = map[string]any{"bool": boolQuery}

	if q.Highlight != nil {
		hl, err := renderHighlight(q.Highlight)
		if err != nil {
			return nil, err
		}
		body["highlight"] = hl
	}
	return body, nil
}

// renderCount renders the matching part of q with no hits returned, for
// counting past the result window.
func renderCount(q *search.Query) (map[string]any, error) {
	body, err := renderSearch(&search.Query{Filters: q.Filters, Should: q.Should})
	if err != nil {
		return nil, err
	}
	delete(body, "sort")
	delete(body, "from")
	delete(body, "track_scores")
	body["size"] = 0
	return body, nil
}

// renderIDsAfter pages through document ids in ascending order.
func renderIDsAfter(afterID string, limit int) map[string]any {
	body := map[string]any{
		"size":    limit,
		"_source": false,
		"query":   map[string]any{"match_all": map[string]any{}},
		"sort":    []any{map[string]any{"_id": map[string]any{"order": "asc"}}},
	}
	if afterID != "" {
		body["search_after"] = []string{afterID}
	}
	return body
}

func renderClauses(clauses []search.Clause) ([]any, error) {
	out := make([]any, 0, len(clauses))
	for _, c := range clauses {
		rendered, err := renderClause(c)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}

func renderClause(c search.Clause) (map[string]any, error) {
	switch c := c.(type) {
	case search.AccessFilter:
		return map[string]any{"bool": map[string]any{
			"should": []any{
				map[string]any{"term": map[string]any{model.FieldOwner: c.UserID}},
				map[string]any{"term": map[string]any{model.FieldCollaborators: c.UserID}},
			},
			"minimum_should_match": 1,
		}}, nil

	case search.TagsFilter:
		return map[string]any{"terms": map[string]any{model.FieldTags: c.Tags}}, nil

	case search.DateRangeFilter:
		bounds := map[string]any{}
		if !c.From.IsZero() {
			bounds["gte"] = model.FormatTimestamp(c.From)
		}
		if !c.To.IsZero() {
			bounds["lte"] = model.FormatTimestamp(c.To)
		}
		return map[string]any{"range": map[string]any{c.Field: bounds}}, nil

	case search.PhrasePrefix:
		return map[string]any{"match_phrase_prefix": map[string]any{
			c.Field: map[string]any{"query": c.Text, "boost": c.Boost, "slop": c.Slop},
		}}, nil

	case search.FuzzyMulti:
		fields := make([]string, 0, len(c.Fields))
		for _, fb := range c.Fields {
			fields = append(fields, fb.Field+"^"+strconv.FormatFloat(fb.Boost, 'f', -1, 64))
		}
		return map[string]any{"multi_match": map[string]any{
			"query":                c.Text,
			"fields":               fields,
			"fuzziness":            "AUTO",
			"prefix_length":        c.PrefixLength,
			"minimum_should_match": strconv.Itoa(c.MinimumShouldMatch) + "%",
		}}, nil

	case search.TermExact:
		field := c.Field
		if c.Keyword {
			field += keywordSuffix
		}
		return map[string]any{"term": map[string]any{
			field: map[string]any{"value": c.Value, "boost": c.Boost},
		}}, nil
	}
	return nil, fmt.Errorf("unsupported clause %T", c)
}

func renderSort(keys []search.SortKey) []any {
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		field := string(k.Field)
		if k.Field == search.SortByTitle {
			field += keywordSuffix
		}
		order := "asc"
		if k.Descending {
			order = "desc"
		}
		out = append(out, map[string]any{field: map[string]any{"order": order}})
	}
	return out
}

func renderHighlight(h *search.Highlight) (map[string]any, error) {
	fields := make(map[string]any, len(h.Fields))
	for _, f := range h.Fields {
		opts := map[string]any{
			"number_of_fragments": f.NumberOfFragments,
			"pre_tags":            []string{h.PreTag},
			"post_tags":           []string{h.PostTag},
		}
		if f.FragmentSize > 0 {
			opts["fragment_size"] = f.FragmentSize
		}
		fields[f.Field] = opts
	}

	hl := map[string]any{
		"fields":              fields,
		"require_field_match": false,
	}
	if len(h.Query) > 0 {
		should, err := renderClauses(h.Query)
		if err != nil {
			return nil, err
		}
		hl["highlight_query"] = map[string]any{"bool": map[string]any{"should": should}}
	}
	return hl, nil
}

// documentBody is the _source of a search document.
func documentBody(doc model.SearchDocument) map[string]any {
	return map[string]any{
		model.FieldTitle:         doc.Title,
		model.FieldContent:       doc.Content,
		model.FieldTags:          nonNil(doc.Tags),
		model.FieldOwner:         doc.Owner,
		model.FieldCollaborators: nonNil(doc.Collaborators),
		model.FieldFolder:        doc.FolderID,
		model.FieldIsPinned:      doc.IsPinned,
		model.FieldImages:        nonNil(doc.Images),
		model.FieldCreatedAt:     doc.CreatedAt,
		model.FieldUpdatedAt:     doc.UpdatedAt,
	}
}

func partialBody(doc model.SearchDocument, fields []string) map[string]any {
	full := documentBody(doc)
	partial := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := full[f]; ok {
			partial[f] = v
		}
	}
	return partial
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
