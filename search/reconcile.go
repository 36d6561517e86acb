package search

import (
	"context"
	"fmt"
	"unicode/utf8"

	"tonotes/model"

	"github.com/samber/lo"
)

// MaxHighlightLength is the longest content highlight returned, in
// characters, before the ellipsis.
const MaxHighlightLength = 200

// ResultItem is one note in a search result.
type ResultItem struct {
	Note             *model.Note
	Owner            model.UserIdentity
	Collaborators    []model.UserIdentity
	RelevanceScore   float64
	TitleHighlight   string
	ContentHighlight string
	MatchedFields    []string
}

// Result is a ranked, highlighted page of notes.
type Result struct {
	Items      []ResultItem
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int
}

// Reconciler merges index hits with the authoritative records.
type Reconciler struct {
	records RecordStore
}

func NewReconciler(records RecordStore) *Reconciler {
	return &Reconciler{records: records}
}

// Reconcile keeps the hit order and lets record fields win over indexed
// ones. Hits whose note no longer exists, or that the record store no
// longer lets userID read, are dropped and the total is lowered by the
// same amount.
func (r *Reconciler) Reconcile(ctx context.Context, hits *HitSet, userID string, page, pageSize int) (*Result, error) {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	result := &Result{
		Items:    []ResultItem{},
		Page:     page,
		PageSize: pageSize,
	}
	if hits == nil {
		return result, nil
	}

	var byID map[string]*model.NoteRecord
	if len(hits.Hits) > 0 {
		ids := lo.Uniq(lo.Map(hits.Hits, func(h Hit, _ int) string { return h.ID }))
		records, err := r.records.FindManyByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("loading search hits: %w", err)
		}
		byID = lo.KeyBy(
			lo.Filter(records, func(rec *model.NoteRecord, _ int) bool { return rec != nil && rec.Note != nil }),
			func(rec *model.NoteRecord) string { return rec.Note.ID },
		)
	}

	dropped := 0
	for _, hit := range hits.Hits {
		record, ok := byID[hit.ID]
		if !ok || !record.Note.CanRead(userID) {
			dropped++
			continue
		}
		result.Items = append(result.Items, mergeHit(hit, record))
	}
	if dropped > 0 {
		ReconcileDroppedTotal.Add(float64(dropped))
	}

	result.TotalCount = max(0, hits.Total-dropped)
	result.TotalPages = (result.TotalCount + pageSize - 1) / pageSize
	return result, nil
}

func mergeHit(hit Hit, record *model.NoteRecord) ResultItem {
	item := ResultItem{
		Note:           record.Note,
		Owner:          record.Owner,
		Collaborators:  record.Collaborators,
		RelevanceScore: hit.Score,
		MatchedFields:  []string{},
	}
	if item.Collaborators == nil {
		item.Collaborators = []model.UserIdentity{}
	}

	item.TitleHighlight = record.Note.Title
	if frag := firstFragment(hit.Highlights, model.FieldTitle); frag != "" {
		item.TitleHighlight = frag
	}
	item.ContentHighlight = model.SearchableContent(record.Note)
	if frag := firstFragment(hit.Highlights, model.FieldContent); frag != "" {
		item.ContentHighlight = frag
	}
	item.ContentHighlight = TruncateHighlight(item.ContentHighlight)

	for _, field := range []string{model.FieldTitle, model.FieldContent, model.FieldTags} {
		if firstFragment(hit.Highlights, field) != "" {
			item.MatchedFields = append(item.MatchedFields, field)
		}
	}
	return item
}

func firstFragment(highlights map[string][]string, field string) string {
	for _, frag := range highlights[field] {
		if frag != "" {
			return frag
		}
	}
	return ""
}

// TruncateHighlight cuts s to MaxHighlightLength characters and appends an
// ellipsis when it is longer.
func TruncateHighlight(s string) string {
	if utf8.RuneCountInString(s) <= MaxHighlightLength {
		return s
	}
	return string([]rune(s)[:MaxHighlightLength]) + "..."
}
