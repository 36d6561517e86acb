package bleveindex

import (
	"reflect"
	"testing"

	"tonotes/search"

	bquery "github.com/blevesearch/bleve/v2/search/query"
)

func TestSortOrder(t *testing.T) {
	got := sortOrder([]search.SortKey{
		{Field: search.SortByScore, Descending: true},
		{Field: search.SortByTitle},
	})
	want := []string{"-_score", "title_keyword", "_id"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sortOrder() = %v, want %v", got, want)
	}
}

func TestAnalyzeTerms(t *testing.T) {
	got := analyzeTerms("Alpha, report's  Q3!")
	want := []string{"alpha", "report", "s", "q3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("analyzeTerms() = %v, want %v", got, want)
	}
}

func TestRenderClause(t *testing.T) {
	tests := []struct {
		name   string
		clause search.Clause
		check  func(t *testing.T, q bquery.Query)
	}{
		{
			name:   "single term phrase prefix becomes a prefix query",
			clause: search.PhrasePrefix{Field: "title", Text: "Alp", Slop: 3, Boost: 4},
			check: func(t *testing.T, q bquery.Query) {
				pq, ok := q.(*bquery.PrefixQuery)
				if !ok {
					t.Fatalf("got %T, want *query.PrefixQuery", q)
				}
				if pq.Prefix != "alp" || pq.FieldVal != "title" {
					t.Errorf("prefix query = %+v", pq)
				}
			},
		},
		{
			name:   "exact keyword term targets the keyword field",
			clause: search.TermExact{Field: "content", Keyword: true, Value: "alpha", Boost: 3},
			check: func(t *testing.T, q bquery.Query) {
				tq, ok := q.(*bquery.TermQuery)
				if !ok || tq.FieldVal != fieldContentKeyword || tq.Term != "alpha" {
					t.Errorf("got %#v", q)
				}
			},
		},
		{
			name: "fuzzy query requires half the terms",
			clause: search.FuzzyMulti{
				Fields:             []search.FieldBoost{{Field: "title", Boost: 3}},
				Text:               "alpha beta gamma delta",
				PrefixLength:       2,
				MinimumShouldMatch: 50,
			},
			check: func(t *testing.T, q bquery.Query) {
				dq, ok := q.(*bquery.DisjunctionQuery)
				if !ok {
					t.Fatalf("got %T", q)
				}
				if dq.Min != 2 || len(dq.Disjuncts) != 4 {
					t.Errorf("min=%v disjuncts=%d, want 2/4", dq.Min, len(dq.Disjuncts))
				}
			},
		},
		{
			name:   "access filter matches owner or collaborator",
			clause: search.AccessFilter{UserID: "u1"},
			check: func(t *testing.T, q bquery.Query) {
				dq, ok := q.(*bquery.DisjunctionQuery)
				if !ok || len(dq.Disjuncts) != 2 {
					t.Errorf("got %#v", q)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := renderClause(tt.clause)
			if err != nil {
				t.Fatalf("renderClause() error: %v", err)
			}
			tt.check(t, q)
		})
	}
}
