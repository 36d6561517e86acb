package search

import (
	"context"

	"tonotes/model"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search.go -package=mocks tonotes/search Index,RecordStore

// Index is the secondary full-text engine holding SearchDocuments.
type Index interface {
	// EnsureSchema creates the index when missing. An existing index is
	// kept; an incompatible one is reported as an error, never recreated.
	EnsureSchema(ctx context.Context) error
	// IndexDocument upserts doc. refresh makes it searchable before return.
	IndexDocument(ctx context.Context, doc model.SearchDocument, refresh bool) error
	BulkIndex(ctx context.Context, docs []model.SearchDocument) error
	// UpdateDocument overwrites only the named fields of doc, creating the
	// document from doc when it is missing.
	UpdateDocument(ctx context.Context, doc model.SearchDocument, fields []string, refresh bool) error
	// DeleteDocument removes a document. A missing document is not an error.
	DeleteDocument(ctx context.Context, id string, refresh bool) error
	Search(ctx context.Context, q *Query) (*HitSet, error)
	// DocumentIDsAfter lists indexed ids in ascending order starting after
	// afterID.
	DocumentIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error)
	Refresh(ctx context.Context) error
}

// RecordStore is the read side of the authoritative note storage.
type RecordStore interface {
	// FindByID returns model.ErrNoteNotFound when the note does not exist.
	FindByID(ctx context.Context, id string) (*model.Note, error)
	// FindManyByIDs returns the populated records that exist, in any order.
	FindManyByIDs(ctx context.Context, ids []string) ([]*model.NoteRecord, error)
	// ListAfter scans notes in ascending id order starting after afterID.
	ListAfter(ctx context.Context, afterID string, limit int) ([]*model.Note, error)
}

// Hit is one scored document returned by the index.
type Hit struct {
	ID         string
	Score      float64
	Highlights map[string][]string
	Source     model.SearchDocument
}

// HitSet is a page of hits plus the total number of matches.
type HitSet struct {
	Hits  []Hit
	Total int
}
