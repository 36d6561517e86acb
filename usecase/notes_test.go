package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"tonotes/model"
	"tonotes/testutils"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type syncCall struct {
	Op      string
	ID      string
	Changed []string
}

type recordingSync struct {
	mu    sync.Mutex
	calls []syncCall
}

func (r *recordingSync) OnNoteCreated(_ context.Context, note *model.Note) {
	r.add(syncCall{Op: "create", ID: note.ID})
}

func (r *recordingSync) OnNoteUpdated(_ context.Context, note *model.Note, changed []string) {
	r.add(syncCall{Op: "update", ID: note.ID, Changed: changed})
}

func (r *recordingSync) OnNoteDeleted(_ context.Context, id string) {
	r.add(syncCall{Op: "delete", ID: id})
}

func (r *recordingSync) add(c syncCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recordingSync) last() syncCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return syncCall{}
	}
	return r.calls[len(r.calls)-1]
}

var (
	alice = model.UserIdentity{ID: "u-alice", Username: "alice", Email: "alice@example.com"}
	bob   = model.UserIdentity{ID: "u-bob", Username: "bob", Email: "bob@example.com"}
	carol = model.UserIdentity{ID: "u-carol", Username: "carol", Email: "carol@example.com"}
)

func setupService(t *testing.T) (*NotesService, *testutils.MemoryStore, *recordingSync) {
	t.Helper()
	store := testutils.NewMemoryStore()
	for _, u := range []model.UserIdentity{alice, bob, carol} {
		store.AddUser(u)
	}
	rec := &recordingSync{}

	svc := NewNotesService(store, store, store, rec)
	svc.Clock = &testutils.StepTime{
		Current: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Step:    time.Minute,
	}
	n := 0
	svc.NewID = func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
	return svc, store, rec
}

func createNote(t *testing.T, svc *NotesService, owner string) *model.NoteRecord {
	t.Helper()
	rec, err := svc.CreateNote(context.Background(), owner, NoteInput{Title: "Groceries", Content: "milk, eggs", Tags: []string{"home"}})
	if err != nil {
		t.Fatalf("CreateNote() error: %v", err)
	}
	return rec
}

func TestCreateNote(t *testing.T) {
	tests := []struct {
		name      string
		input     NoteInput
		wantField string
	}{
		{
			name:  "valid note",
			input: NoteInput{Title: "  Title  ", Content: " body ", Tags: []string{" Work ", "", "work", "ideas"}},
		},
		{
			name:  "html note",
			input: NoteInput{Title: "Title", Content: "<p>body</p>", ContentType: model.ContentTypeHTML},
		},
		{
			name:      "missing title",
			input:     NoteInput{Title: "   ", Content: "body"},
			wantField: "title",
		},
		{
			name:      "missing content",
			input:     NoteInput{Title: "Title", Content: "  "},
			wantField: "content",
		},
		{
			name:      "too many tags",
			input:     NoteInput{Title: "Title", Content: "body", Tags: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}},
			wantField: "tags",
		},
		{
			name:      "unknown content type",
			input:     NoteInput{Title: "Title", Content: "body", ContentType: "markdown"},
			wantField: "contentType",
		},
		{
			name:      "invalid folder",
			input:     NoteInput{Title: "Title", Content: "body", FolderID: "not-a-folder"},
			wantField: "folderId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, idx := setupService(t)

			rec, err := svc.CreateNote(context.Background(), alice.ID, tt.input)
			if tt.wantField != "" {
				var verr *model.ValidationError
				if !errors.As(err, &verr) || verr.Field != tt.wantField {
					t.Fatalf("CreateNote() error = %v, want validation error on %s", err, tt.wantField)
				}
				if store.Len() != 0 || len(idx.calls) != 0 {
					t.Error("invalid note must not be stored or indexed")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateNote() error: %v", err)
			}

			if rec.Note.ID != "id-001" || rec.Owner != alice {
				t.Errorf("record = %+v", rec)
			}
			if rec.Note.Title != "Title" {
				t.Errorf("title = %q, want trimmed", rec.Note.Title)
			}
			if !rec.Note.CreatedAt.Equal(rec.Note.UpdatedAt) {
				t.Error("new note should have equal timestamps")
			}
			if got := idx.last(); got.Op != "create" || got.ID != rec.Note.ID {
				t.Errorf("index call = %+v", got)
			}
			if tt.name == "valid note" && !reflect.DeepEqual(rec.Note.Tags, []string{"work", "ideas"}) {
				t.Errorf("tags = %v", rec.Note.Tags)
			}
			if tt.name == "valid note" && rec.Note.ContentType != model.ContentTypeText {
				t.Errorf("content type = %q, want text", rec.Note.ContentType)
			}
		})
	}
}

func TestAccessRules(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	note := createNote(t, svc, alice.ID)
	if _, err := svc.AddCollaborator(ctx, alice.ID, note.Note.ID, bob.Email); err != nil {
		t.Fatal(err)
	}

	title := "Edited"
	tests := []struct {
		name    string
		user    string
		op      func(user string) error
		wantErr error
	}{
		{"owner reads", alice.ID, func(u string) error { _, err := svc.GetNote(ctx, u, note.Note.ID); return err }, nil},
		{"collaborator reads", bob.ID, func(u string) error { _, err := svc.GetNote(ctx, u, note.Note.ID); return err }, nil},
		{"stranger reads", carol.ID, func(u string) error { _, err := svc.GetNote(ctx, u, note.Note.ID); return err }, model.ErrNoteNotFound},
		{"collaborator edits", bob.ID, func(u string) error {
			_, err := svc.UpdateNote(ctx, u, note.Note.ID, NoteUpdate{Title: &title})
			return err
		}, nil},
		{"stranger edits", carol.ID, func(u string) error {
			_, err := svc.UpdateNote(ctx, u, note.Note.ID, NoteUpdate{Title: &title})
			return err
		}, model.ErrNoteNotFound},
		{"collaborator pins", bob.ID, func(u string) error { _, err := svc.TogglePin(ctx, u, note.Note.ID); return err }, ErrForbidden},
		{"collaborator shares", bob.ID, func(u string) error {
			_, err := svc.AddCollaborator(ctx, u, note.Note.ID, carol.Email)
			return err
		}, ErrForbidden},
		{"collaborator deletes", bob.ID, func(u string) error { return svc.DeleteNote(ctx, u, note.Note.ID) }, ErrForbidden},
		{"stranger deletes", carol.ID, func(u string) error { return svc.DeleteNote(ctx, u, note.Note.ID) }, model.ErrNoteNotFound},
		{"missing note", alice.ID, func(u string) error { _, err := svc.GetNote(ctx, u, "nope"); return err }, model.ErrNoteNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op(tt.user)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateNote_ReportsChangedFields(t *testing.T) {
	svc, store, idx := setupService(t)
	ctx := context.Background()
	note := createNote(t, svc, alice.ID)

	sameTitle := "Groceries"
	newContent := "milk, eggs, bread"
	newTags := []string{"Home", "shopping"}

	rec, err := svc.UpdateNote(ctx, alice.ID, note.Note.ID, NoteUpdate{Title: &sameTitle, Content: &newContent, Tags: &newTags})
	if err != nil {
		t.Fatalf("UpdateNote() error: %v", err)
	}

	got := idx.last()
	if got.Op != "update" || !reflect.DeepEqual(got.Changed, []string{model.FieldContent, model.FieldTags}) {
		t.Errorf("index call = %+v", got)
	}
	if !rec.Note.UpdatedAt.After(note.Note.UpdatedAt) {
		t.Error("updatedAt was not advanced")
	}
	stored, _ := store.GetNote(ctx, note.Note.ID)
	if stored.Content != newContent || !reflect.DeepEqual(stored.Tags, []string{"home", "shopping"}) {
		t.Errorf("stored note = %+v", stored)
	}

	calls := len(idx.calls)
	if _, err := svc.UpdateNote(ctx, alice.ID, note.Note.ID, NoteUpdate{Title: &sameTitle}); err != nil {
		t.Fatal(err)
	}
	if len(idx.calls) != calls {
		t.Error("no-op update should not touch the index")
	}

	empty := " "
	var verr *model.ValidationError
	if _, err := svc.UpdateNote(ctx, alice.ID, note.Note.ID, NoteUpdate{Content: &empty}); !errors.As(err, &verr) {
		t.Errorf("empty content error = %v", err)
	}
}

func TestCollaborators(t *testing.T) {
	svc, _, idx := setupService(t)
	ctx := context.Background()
	note := createNote(t, svc, alice.ID)
	id := note.Note.ID

	rec, err := svc.AddCollaborator(ctx, alice.ID, id, "BOB@example.com")
	if err != nil {
		t.Fatalf("AddCollaborator() error: %v", err)
	}
	if len(rec.Collaborators) != 1 || rec.Collaborators[0] != bob {
		t.Errorf("collaborators = %+v", rec.Collaborators)
	}
	if got := idx.last(); !reflect.DeepEqual(got.Changed, []string{model.FieldCollaborators}) {
		t.Errorf("index call = %+v", got)
	}

	if _, err := svc.AddCollaborator(ctx, alice.ID, id, bob.Email); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate collaborator error = %v, want ErrConflict", err)
	}

	var verr *model.ValidationError
	if _, err := svc.AddCollaborator(ctx, alice.ID, id, alice.Email); !errors.As(err, &verr) {
		t.Errorf("adding owner error = %v, want validation error", err)
	}

	if _, err := svc.AddCollaborator(ctx, alice.ID, id, "nobody@example.com"); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("unknown email error = %v", err)
	}

	rec, err = svc.RemoveCollaborator(ctx, alice.ID, id, bob.ID)
	if err != nil {
		t.Fatalf("RemoveCollaborator() error: %v", err)
	}
	if len(rec.Collaborators) != 0 {
		t.Errorf("collaborators after removal = %+v", rec.Collaborators)
	}
	if _, err := svc.GetNote(ctx, bob.ID, id); !errors.Is(err, model.ErrNoteNotFound) {
		t.Error("removed collaborator can still read the note")
	}

	if _, err := svc.RemoveCollaborator(ctx, alice.ID, id, bob.ID); !errors.Is(err, ErrNotCollaborator) {
		t.Errorf("second removal error = %v", err)
	}
}

func TestPinMoveAndImages(t *testing.T) {
	svc, _, idx := setupService(t)
	ctx := context.Background()
	id := createNote(t, svc, alice.ID).Note.ID

	rec, err := svc.TogglePin(ctx, alice.ID, id)
	if err != nil || !rec.Note.IsPinned {
		t.Fatalf("TogglePin() = %v, %v", rec, err)
	}
	if got := idx.last(); !reflect.DeepEqual(got.Changed, []string{model.FieldIsPinned}) {
		t.Errorf("pin index call = %+v", got)
	}
	rec, _ = svc.TogglePin(ctx, alice.ID, id)
	if rec.Note.IsPinned {
		t.Error("second toggle should unpin")
	}

	folder := "6f1c1d7e-8a8b-4c1e-9f57-2b2f1c0d9e11"
	rec, err = svc.MoveToFolder(ctx, alice.ID, id, folder)
	if err != nil || rec.Note.FolderID != folder {
		t.Fatalf("MoveToFolder() = %v, %v", rec, err)
	}
	if got := idx.last(); !reflect.DeepEqual(got.Changed, []string{model.FieldFolder}) {
		t.Errorf("move index call = %+v", got)
	}
	var verr *model.ValidationError
	if _, err := svc.MoveToFolder(ctx, alice.ID, id, "folder-1"); !errors.As(err, &verr) {
		t.Errorf("invalid folder error = %v", err)
	}

	rec, err = svc.AttachImage(ctx, alice.ID, id, "https://cdn.example.com/a.png", " receipt ")
	if err != nil {
		t.Fatalf("AttachImage() error: %v", err)
	}
	if len(rec.Note.Images) != 1 || rec.Note.Images[0].Caption != "receipt" || rec.Note.Images[0].ID == "" {
		t.Errorf("images = %+v", rec.Note.Images)
	}
	if got := idx.last(); !reflect.DeepEqual(got.Changed, []string{model.FieldImages}) {
		t.Errorf("image index call = %+v", got)
	}
}

func TestDeleteNote(t *testing.T) {
	svc, store, idx := setupService(t)
	ctx := context.Background()
	id := createNote(t, svc, alice.ID).Note.ID

	if err := svc.DeleteNote(ctx, alice.ID, id); err != nil {
		t.Fatalf("DeleteNote() error: %v", err)
	}
	if store.Len() != 0 {
		t.Error("note still stored")
	}
	if got := idx.last(); got.Op != "delete" || got.ID != id {
		t.Errorf("index call = %+v", got)
	}
	if err := svc.DeleteNote(ctx, alice.ID, id); !errors.Is(err, model.ErrNoteNotFound) {
		t.Errorf("second delete error = %v", err)
	}
}

func TestListNotes(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		createNote(t, svc, alice.ID)
	}
	shared := createNote(t, svc, carol.ID)
	if _, err := svc.AddCollaborator(ctx, carol.ID, shared.Note.ID, alice.Email); err != nil {
		t.Fatal(err)
	}
	createNote(t, svc, bob.ID)

	tests := []struct {
		name      string
		page      int
		pageSize  int
		wantItems int
		wantPages int
		wantFirst string
	}{
		{"first page", 1, 2, 2, 3, shared.Note.ID},
		{"last page", 3, 2, 2, 3, "id-002"},
		{"past the end", 9, 2, 0, 3, ""},
		{"defaults", 0, 0, 6, 1, shared.Note.ID},
		{"clamped size", 1, 500, 6, 1, shared.Note.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.ListNotes(ctx, alice.ID, tt.page, tt.pageSize)
			if err != nil {
				t.Fatalf("ListNotes() error: %v", err)
			}
			if res.TotalCount != 6 || res.TotalPages != tt.wantPages || len(res.Items) != tt.wantItems {
				t.Fatalf("got %d items, total %d, pages %d", len(res.Items), res.TotalCount, res.TotalPages)
			}
			if tt.wantFirst != "" && res.Items[0].Note.ID != tt.wantFirst {
				t.Errorf("first item = %s, want %s", res.Items[0].Note.ID, tt.wantFirst)
			}
		})
	}
}
