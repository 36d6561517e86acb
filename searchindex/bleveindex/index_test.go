package bleveindex_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tonotes/model"
	"tonotes/search"
	"tonotes/searchindex/bleveindex"
	"tonotes/testutils"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fixture struct {
	index  *bleveindex.Index
	store  *testutils.MemoryStore
	sync   *search.Synchronizer
	search *search.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	idx := bleveindex.New("")
	if err := idx.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })

	store := testutils.NewMemoryStore()
	store.AddUser(model.UserIdentity{ID: "alice", Username: "alice", Email: "alice@example.com"})
	store.AddUser(model.UserIdentity{ID: "bob", Username: "bob", Email: "bob@example.com"})

	return &fixture{
		index:  idx,
		store:  store,
		sync:   search.NewSynchronizer(idx, store, nil, nil, search.SyncConfig{BatchSize: 2}),
		search: search.NewService(idx, store, time.Second),
	}
}

// create stores a note and mirrors it, the same order the notes service
// uses.
func (f *fixture) create(t *testing.T, note *model.Note) *model.Note {
	t.Helper()
	if note.UpdatedAt.IsZero() {
		note.UpdatedAt = note.CreatedAt
	}
	if err := f.store.CreateNote(context.Background(), note); err != nil {
		t.Fatalf("CreateNote() error: %v", err)
	}
	f.sync.OnNoteCreated(context.Background(), note)
	return note
}

func (f *fixture) searchIDs(t *testing.T, req search.Request) []string {
	t.Helper()
	res, err := f.search.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search(%+v) error: %v", req, err)
	}
	ids := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		ids = append(ids, item.Note.ID)
	}
	return ids
}

func note(id, owner, title, content string, created time.Time, tags ...string) *model.Note {
	return &model.Note{
		ID:        id,
		Title:     title,
		Content:   content,
		OwnerID:   owner,
		Tags:      tags,
		CreatedAt: created,
	}
}

var jan1 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func TestWriteThroughThenSearch(t *testing.T) {
	f := newFixture(t)
	f.create(t, note("n1", "alice", "Alpha Report", "quarterly numbers", jan1))

	res, err := f.search.Search(context.Background(), search.Request{RequestingUser: "alice", QueryText: "Alpha"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Note.ID != "n1" {
		t.Fatalf("items = %+v, want n1", res.Items)
	}
	item := res.Items[0]
	if item.RelevanceScore <= 0 {
		t.Errorf("RelevanceScore = %v, want > 0", item.RelevanceScore)
	}
	if !strings.Contains(item.TitleHighlight, "<mark>Alpha</mark>") {
		t.Errorf("TitleHighlight = %q", item.TitleHighlight)
	}
	if item.Owner.Email != "alice@example.com" {
		t.Errorf("Owner = %+v", item.Owner)
	}
}

func TestSearchAsYouType(t *testing.T) {
	f := newFixture(t)
	f.create(t, note("n1", "alice", "Quarterly planning", "budget review", jan1))
	f.create(t, note("n2", "alice", "Groceries", "milk", jan1.Add(time.Hour)))

	if got := f.searchIDs(t, search.Request{RequestingUser: "alice", QueryText: "quarterly plan"}); len(got) != 1 || got[0] != "n1" {
		t.Errorf("prefix search = %v, want [n1]", got)
	}
	if got := f.searchIDs(t, search.Request{RequestingUser: "alice", QueryText: "budgte"}); len(got) != 1 || got[0] != "n1" {
		t.Errorf("fuzzy search = %v, want [n1]", got)
	}
}

func TestAccessControl(t *testing.T) {
	f := newFixture(t)
	f.create(t, note("a1", "alice", "Shared alpha", "x", jan1))
	f.create(t, note("b1", "bob", "Bob alpha", "x", jan1))
	shared := note("b2", "bob", "Bob alpha shared", "x", jan1)
	shared.Collaborators = []string{"alice"}
	f.create(t, shared)

	got := f.searchIDs(t, search.Request{RequestingUser: "alice", QueryText: "alpha"})
	seen := map[string]bool{}
	for _, id := range got {
		seen[id] = true
	}
	if seen["b1"] {
		t.Errorf("alice must not see bob's private note, got %v", got)
	}
	if !seen["a1"] || !seen["b2"] || len(got) != 2 {
		t.Errorf("alice should see her note and the shared one, got %v", got)
	}

	if got := f.searchIDs(t, search.Request{RequestingUser: "mallory", QueryText: "alpha"}); len(got) != 0 {
		t.Errorf("stranger sees %v", got)
	}
}

func TestRevokedCollaboratorWithStaleIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shared := note("n1", "alice", "Secret plans", "x", jan1)
	shared.Collaborators = []string{"bob"}
	f.create(t, shared)

	// bob is removed in the record store but the index write never happens
	revoked := *shared
	revoked.Collaborators = []string{}
	if err := f.store.UpdateNote(ctx, &revoked); err != nil {
		t.Fatal(err)
	}

	res, err := f.search.Search(ctx, search.Request{RequestingUser: "bob", QueryText: "secret"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(res.Items) != 0 || res.TotalCount != 0 {
		t.Errorf("bob still sees %d items (total %d) after losing access", len(res.Items), res.TotalCount)
	}
	if got := f.searchIDs(t, search.Request{RequestingUser: "alice", QueryText: "secret"}); len(got) != 1 {
		t.Errorf("owner search = %v, want [n1]", got)
	}
}

func TestDateRangeInclusiveEnd(t *testing.T) {
	f := newFixture(t)
	f.create(t, note("late", "alice", "Late", "x", time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)))
	f.create(t, note("next", "alice", "Next", "x", time.Date(2024, 1, 2, 0, 0, 1, 0, time.UTC)))
	f.create(t, note("before", "alice", "Before", "x", time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)))

	dr, err := search.ParseDateRange("2024-01-01", "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	got := f.searchIDs(t, search.Request{RequestingUser: "alice", DateRange: dr})
	if len(got) != 1 || got[0] != "late" {
		t.Errorf("date range result = %v, want [late]", got)
	}
}

func TestTagFilterOR(t *testing.T) {
	f := newFixture(t)
	f.create(t, note("w", "alice", "Work only", "x", jan1, "work"))
	f.create(t, note("u", "alice", "Urgent only", "x", jan1.Add(time.Hour), "urgent"))
	f.create(t, note("h", "alice", "Home", "x", jan1.Add(2*time.Hour), "home"))

	got := f.searchIDs(t, search.Request{RequestingUser: "alice", Tags: []string{"work", "urgent"}})
	// filter-only searches sort by createdAt desc
	if len(got) != 2 || got[0] != "u" || got[1] != "w" {
		t.Errorf("tag search = %v, want [u w]", got)
	}
}

func TestSortWithoutText(t *testing.T) {
	f := newFixture(t)
	f.create(t, note("b", "alice", "banana", "x", jan1, "fruit"))
	f.create(t, note("a", "alice", "Apple", "x", jan1.Add(time.Hour), "fruit"))
	f.create(t, note("c", "alice", "cherry", "x", jan1.Add(2*time.Hour), "fruit"))

	got := f.searchIDs(t, search.Request{RequestingUser: "alice", Tags: []string{"fruit"}, Sort: search.ParseSort("title:asc")})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("title sort = %v, want [a b c]", got)
	}
}

func TestPagination(t *testing.T) {
	f := newFixture(t)
	for i, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		f.create(t, note(id, "alice", "Page note", "x", jan1.Add(time.Duration(i)*time.Hour), "paged"))
	}

	req := search.Request{RequestingUser: "alice", Tags: []string{"paged"}, Page: 2, PageSize: 2}
	res, err := f.search.Search(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalCount != 5 || res.TotalPages != 3 {
		t.Errorf("total=%d pages=%d, want 5/3", res.TotalCount, res.TotalPages)
	}
	if len(res.Items) != 2 || res.Items[0].Note.ID != "p3" || res.Items[1].Note.ID != "p2" {
		t.Errorf("page 2 = %+v, want [p3 p2]", res.Items)
	}

	req.Page = 9
	res, err = f.search.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("page beyond the end should not fail: %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("page beyond the end returned %d items", len(res.Items))
	}
}

func TestPartialUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n := f.create(t, note("n1", "bob", "Design doc", "architecture", jan1, "eng"))

	if got := f.searchIDs(t, search.Request{RequestingUser: "alice", QueryText: "design"}); len(got) != 0 {
		t.Fatalf("alice should not see the note yet, got %v", got)
	}

	n.Collaborators = []string{"alice"}
	n.UpdatedAt = jan1.Add(time.Hour)
	if err := f.store.UpdateNote(ctx, n); err != nil {
		t.Fatal(err)
	}
	f.sync.OnNoteUpdated(ctx, n, []string{model.FieldCollaborators})

	if got := f.searchIDs(t, search.Request{RequestingUser: "alice", QueryText: "design"}); len(got) != 1 {
		t.Fatalf("alice should see the shared note, got %v", got)
	}
	// fields outside the update are kept
	if got := f.searchIDs(t, search.Request{RequestingUser: "alice", Tags: []string{"eng"}}); len(got) != 1 {
		t.Errorf("tags lost by partial update, got %v", got)
	}

	if err := f.store.DeleteNote(ctx, n.ID); err != nil {
		t.Fatal(err)
	}
	f.sync.OnNoteDeleted(ctx, n.ID)
	if got := f.searchIDs(t, search.Request{RequestingUser: "bob", QueryText: "design"}); len(got) != 0 {
		t.Errorf("deleted note still found: %v", got)
	}
}

func TestUpdateDocumentKeepsUpdatedAt(t *testing.T) {
	idx := bleveindex.New("")
	ctx := context.Background()
	if err := idx.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	n := note("n1", "alice", "Title", "body", jan1)
	n.UpdatedAt = jan1
	if err := idx.IndexDocument(ctx, model.NewSearchDocument(n), true); err != nil {
		t.Fatal(err)
	}

	n.IsPinned = true
	n.UpdatedAt = jan1.Add(48 * time.Hour)
	if err := idx.UpdateDocument(ctx, model.NewSearchDocument(n), []string{model.FieldIsPinned, model.FieldUpdatedAt}, true); err != nil {
		t.Fatal(err)
	}

	from := jan1.Add(24 * time.Hour)
	hits, err := idx.Search(ctx, &search.Query{
		Filters: []search.Clause{
			search.AccessFilter{UserID: "alice"},
			search.DateRangeFilter{Field: model.FieldUpdatedAt, From: from},
		},
		Size: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits.Hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits.Hits))
	}
	src := hits.Hits[0].Source
	if !src.IsPinned || src.Title != "Title" {
		t.Errorf("source = %+v", src)
	}
	if src.UpdatedAt != model.FormatTimestamp(n.UpdatedAt) {
		t.Errorf("UpdatedAt = %q, want %q", src.UpdatedAt, model.FormatTimestamp(n.UpdatedAt))
	}
}

func TestDeleteMissingDocument(t *testing.T) {
	idx := bleveindex.New("")
	if err := idx.EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if err := idx.DeleteDocument(context.Background(), "nope", true); err != nil {
		t.Errorf("DeleteDocument() of a missing id error: %v", err)
	}
}

func TestResyncIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, id := range []string{"r1", "r2", "r3"} {
		n := note(id, "alice", "Resync note", "x", jan1.Add(time.Duration(i)*time.Minute))
		n.UpdatedAt = n.CreatedAt
		// stored without mirroring, as if every index write had failed
		if err := f.store.CreateNote(ctx, n); err != nil {
			t.Fatal(err)
		}
	}

	for run := 1; run <= 2; run++ {
		n, err := f.sync.Resync(ctx, search.ResyncOptions{})
		if err != nil {
			t.Fatalf("Resync() run %d error: %v", run, err)
		}
		if n != 3 {
			t.Errorf("Resync() run %d = %d, want 3", run, n)
		}
		count, err := f.index.DocCount()
		if err != nil {
			t.Fatal(err)
		}
		if count != 3 {
			t.Errorf("DocCount after run %d = %d, want 3", run, count)
		}
		if got := f.searchIDs(t, search.Request{RequestingUser: "alice", QueryText: "resync"}); len(got) != 3 {
			t.Errorf("search after run %d = %v", run, got)
		}
	}
}

func TestResyncPrunesOrphans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, id := range []string{"k1", "k2", "k3"} {
		f.create(t, note(id, "alice", "Kept note", "x", jan1.Add(time.Duration(i)*time.Minute)))
	}
	// deletes that never reached the index
	for _, id := range []string{"k0", "k2a", "z9"} {
		orphan := note(id, "alice", "Kept note", "x", jan1)
		orphan.UpdatedAt = orphan.CreatedAt
		if err := f.index.IndexDocument(ctx, model.NewSearchDocument(orphan), true); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := f.sync.Resync(ctx, search.ResyncOptions{}); err != nil {
		t.Fatalf("Resync() error: %v", err)
	}
	count, err := f.index.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("DocCount after resync = %d, want 3", count)
	}
	res, err := f.search.Search(ctx, search.Request{RequestingUser: "alice", QueryText: "kept"})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalCount != 3 || len(res.Items) != 3 {
		t.Errorf("search total = %d items = %d, want 3 and 3", res.TotalCount, len(res.Items))
	}
}

func TestIndexNotOpen(t *testing.T) {
	idx := bleveindex.New("")
	err := idx.IndexDocument(context.Background(), model.SearchDocument{ID: "x"}, false)
	if !errors.Is(err, bleveindex.ErrIndexClosed) {
		t.Errorf("IndexDocument() before EnsureSchema error = %v", err)
	}
}

func TestEnsureSchemaReopensExistingIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.bleve")
	ctx := context.Background()

	first := bleveindex.New(path)
	if err := first.EnsureSchema(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	doc := model.NewSearchDocument(note("keep", "alice", "Persisted", "x", jan1))
	if err := first.IndexDocument(ctx, doc, true); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second := bleveindex.New(path)
	if err := second.EnsureSchema(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	count, err := second.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("DocCount after reopen = %d, want 1 (index must not be recreated)", count)
	}
}
