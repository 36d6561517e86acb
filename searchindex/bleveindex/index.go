// Package bleveindex stores search documents in an embedded bleve index.
package bleveindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tonotes/contextutil"
	"tonotes/model"
	"tonotes/search"

	"github.com/blevesearch/bleve/v2"
	blevesearch "github.com/blevesearch/bleve/v2/search"

	_ "github.com/blevesearch/bleve/v2/config"
)

var (
	ErrIndexClosed        = errors.New("bleve index is not open")
	ErrIncompatibleSchema = errors.New("existing bleve index has an incompatible schema")
)

// Index is a search.Index backed by bleve. An empty path keeps the index
// in memory.
type Index struct {
	mu    sync.RWMutex
	path  string
	index bleve.Index
}

var _ search.Index = (*Index)(nil)

func New(path string) *Index {
	return &Index{path: path}
}

// EnsureSchema opens the index at the configured path, creating it when it
// does not exist yet. An existing index is never dropped.
func (ix *Index) EnsureSchema(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.index != nil {
		return nil
	}
	logger := contextutil.LoggerFromContext(ctx)

	if ix.path == "" {
		idx, err := bleve.NewMemOnly(buildMapping())
		if err != nil {
			return fmt.Errorf("create in-memory index: %w", err)
		}
		ix.index = idx
		logger.Info("created in-memory search index")
		return nil
	}

	if _, err := os.Stat(filepath.Join(ix.path, "index_meta.json")); err == nil {
		idx, err := bleve.Open(ix.path)
		if err != nil {
			return fmt.Errorf("open index %s: %w", ix.path, err)
		}
		if err := checkCompatible(idx.Mapping()); err != nil {
			_ = idx.Close()
			return err
		}
		ix.index = idx
		logger.Info("opened search index", "path", ix.path)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
		return err
	}
	idx, err := bleve.New(ix.path, buildMapping())
	if err != nil {
		return fmt.Errorf("create index %s: %w", ix.path, err)
	}
	ix.index = idx
	logger.Info("created search index", "path", ix.path)
	return nil
}

func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.index == nil {
		return nil
	}
	err := ix.index.Close()
	ix.index = nil
	return err
}

// IndexDocument upserts doc. Bleve writes are searchable once they return,
// so refresh needs no extra work.
func (ix *Index) IndexDocument(ctx context.Context, doc model.SearchDocument, _ bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.index == nil {
		return ErrIndexClosed
	}
	return ix.index.Index(doc.ID, toIndexed(doc))
}

func (ix *Index) BulkIndex(ctx context.Context, docs []model.SearchDocument) error {
	if len(docs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.index == nil {
		return ErrIndexClosed
	}

	batch := ix.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, toIndexed(doc)); err != nil {
			return fmt.Errorf("batch document %s: %w", doc.ID, err)
		}
	}
	return ix.index.Batch(batch)
}

// UpdateDocument merges the named fields of doc into the stored document.
// The stored copy is read back and rewritten under the write lock so that
// concurrent partial updates do not lose each other's fields.
func (ix *Index) UpdateDocument(ctx context.Context, doc model.SearchDocument, fields []string, _ bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.index == nil {
		return ErrIndexClosed
	}

	stored, found, err := ix.load(ctx, doc.ID)
	if err != nil {
		return err
	}
	if !found {
		return ix.index.Index(doc.ID, toIndexed(doc))
	}
	return ix.index.Index(doc.ID, toIndexed(mergeFields(stored, doc, fields)))
}

// DeleteDocument removes id. Bleve treats a missing id as a no-op.
func (ix *Index) DeleteDocument(ctx context.Context, id string, _ bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.index == nil {
		return ErrIndexClosed
	}
	return ix.index.Delete(id)
}

func (ix *Index) Search(ctx context.Context, q *search.Query) (*search.HitSet, error) {
	req, err := newSearchRequest(q)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.index == nil {
		return nil, ErrIndexClosed
	}

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	hits := &search.HitSet{
		Hits:  make([]search.Hit, 0, len(res.Hits)),
		Total: int(res.Total),
	}
	for _, h := range res.Hits {
		hits.Hits = append(hits.Hits, convertHit(h))
	}
	return hits, nil
}

func (ix *Index) DocumentIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error) {
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), limit, 0, false)
	req.SortBy([]string{"_id"})
	if afterID != "" {
		req.SetSearchAfter([]string{afterID})
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.index == nil {
		return nil, ErrIndexClosed
	}

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve list ids: %w", err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// Refresh is a no-op: bleve has no refresh interval.
func (ix *Index) Refresh(context.Context) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.index == nil {
		return ErrIndexClosed
	}
	return nil
}

// DocCount returns the number of indexed documents.
func (ix *Index) DocCount() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.index == nil {
		return 0, ErrIndexClosed
	}
	return ix.index.DocCount()
}

func (ix *Index) load(ctx context.Context, id string) (model.SearchDocument, bool, error) {
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	req.Fields = []string{"*"}
	req.Size = 1

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return model.SearchDocument{}, false, fmt.Errorf("load document %s: %w", id, err)
	}
	if len(res.Hits) == 0 {
		return model.SearchDocument{}, false, nil
	}
	return documentFromFields(id, res.Hits[0].Fields), true, nil
}

func convertHit(h *blevesearch.DocumentMatch) search.Hit {
	highlights := make(map[string][]string, len(h.Fragments))
	for field, frags := range h.Fragments {
		switch field {
		case model.FieldTitle, model.FieldContent, model.FieldTags:
			highlights[field] = frags
		}
	}
	return search.Hit{
		ID:         h.ID,
		Score:      h.Score,
		Highlights: highlights,
		Source:     documentFromFields(h.ID, h.Fields),
	}
}

func documentFromFields(id string, fields map[string]interface{}) model.SearchDocument {
	pinned, _ := fields[model.FieldIsPinned].(bool)
	return model.SearchDocument{
		ID:            id,
		Title:         stringField(fields, model.FieldTitle),
		Content:       stringField(fields, model.FieldContent),
		Tags:          stringsField(fields, model.FieldTags),
		Owner:         stringField(fields, model.FieldOwner),
		Collaborators: stringsField(fields, model.FieldCollaborators),
		FolderID:      stringField(fields, model.FieldFolder),
		IsPinned:      pinned,
		Images:        stringsField(fields, model.FieldImages),
		CreatedAt:     timestampField(fields, model.FieldCreatedAt),
		UpdatedAt:     timestampField(fields, model.FieldUpdatedAt),
	}
}

func mergeFields(stored, doc model.SearchDocument, fields []string) model.SearchDocument {
	for _, f := range fields {
		switch f {
		case model.FieldTitle:
			stored.Title = doc.Title
		case model.FieldContent:
			stored.Content = doc.Content
		case model.FieldTags:
			stored.Tags = doc.Tags
		case model.FieldOwner:
			stored.Owner = doc.Owner
		case model.FieldCollaborators:
			stored.Collaborators = doc.Collaborators
		case model.FieldFolder:
			stored.FolderID = doc.FolderID
		case model.FieldIsPinned:
			stored.IsPinned = doc.IsPinned
		case model.FieldImages:
			stored.Images = doc.Images
		case model.FieldCreatedAt:
			stored.CreatedAt = doc.CreatedAt
		case model.FieldUpdatedAt:
			stored.UpdatedAt = doc.UpdatedAt
		}
	}
	return stored
}

func stringField(fields map[string]interface{}, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case []interface{}:
		if len(v) > 0 {
			s, _ := v[0].(string)
			return s
		}
	}
	return ""
}

// stringsField reads a multi-valued field. Bleve returns a single value
// as a plain string.
func stringsField(fields map[string]interface{}, name string) []string {
	switch v := fields[name].(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func timestampField(fields map[string]interface{}, name string) string {
	raw := stringField(fields, name)
	if raw == "" {
		return ""
	}
	t, err := model.ParseTimestamp(raw)
	if err != nil {
		return raw
	}
	return model.FormatTimestamp(t)
}
