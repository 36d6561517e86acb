package usecase

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"tonotes/contextutil"
	"tonotes/model"
	"tonotes/search"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	maxTitleLength   = 200
	maxContentLength = 50000
	maxTags          = 10
)

type NoteRepository interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, id string) (*model.Note, error)
	UpdateNote(ctx context.Context, note *model.Note) error
	DeleteNote(ctx context.Context, id string) error
	ListAccessibleNotes(ctx context.Context, userID string, skip, limit int) ([]*model.Note, int, error)
}

type UserRepository interface {
	FindUserByEmail(ctx context.Context, email string) (*model.UserIdentity, error)
}

// RecordPopulator expands notes to records carrying user identities.
type RecordPopulator interface {
	Populate(ctx context.Context, notes []*model.Note) ([]*model.NoteRecord, error)
}

// IndexSync is told about every committed note change.
type IndexSync interface {
	OnNoteCreated(ctx context.Context, note *model.Note)
	OnNoteUpdated(ctx context.Context, note *model.Note, changed []string)
	OnNoteDeleted(ctx context.Context, id string)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type NotesService struct {
	Notes   NoteRepository
	Users   UserRepository
	Records RecordPopulator
	Index   IndexSync
	Clock   Clock
	NewID   func() string
}

func NewNotesService(notes NoteRepository, users UserRepository, records RecordPopulator, index IndexSync) *NotesService {
	return &NotesService{
		Notes:   notes,
		Users:   users,
		Records: records,
		Index:   index,
		Clock:   systemClock{},
		NewID:   uuid.NewString,
	}
}

// NoteInput is the caller supplied content of a new note.
type NoteInput struct {
	Title       string
	Content     string
	ContentType string
	Tags        []string
	FolderID    string
}

// NoteUpdate carries the fields to change. Nil fields are left alone.
type NoteUpdate struct {
	Title   *string
	Content *string
	Tags    *[]string
}

func (svc *NotesService) now() time.Time {
	// Mongo keeps millisecond precision.
	return svc.Clock.Now().UTC().Truncate(time.Millisecond)
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", model.NewValidationError("title", "is required")
	}
	if len(title) > maxTitleLength {
		return "", model.NewValidationError("title", "exceeds maximum length")
	}
	return title, nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", model.NewValidationError("content", "is required")
	}
	if len(content) > maxContentLength {
		return "", model.NewValidationError("content", "exceeds maximum length")
	}
	return content, nil
}

func validateTags(tags []string) ([]string, error) {
	tags = search.NormalizeTags(tags)
	if len(tags) > maxTags {
		return nil, model.NewValidationError("tags", fmt.Sprintf("maximum %d tags allowed", maxTags))
	}
	return tags, nil
}

func validateFolderID(folderID string) error {
	if folderID == "" {
		return nil
	}
	if _, err := uuid.Parse(folderID); err != nil {
		return model.NewValidationError("folderId", "must be a valid folder id")
	}
	return nil
}

func (svc *NotesService) CreateNote(ctx context.Context, userID string, input NoteInput) (*model.NoteRecord, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	content, err := validateContent(input.Content)
	if err != nil {
		return nil, err
	}
	tags, err := validateTags(input.Tags)
	if err != nil {
		return nil, err
	}
	if err := validateFolderID(input.FolderID); err != nil {
		return nil, err
	}

	contentType := input.ContentType
	switch contentType {
	case "":
		contentType = model.ContentTypeText
	case model.ContentTypeText, model.ContentTypeHTML:
	default:
		return nil, model.NewValidationError("contentType", "must be text or html")
	}

	now := svc.now()
	note := &model.Note{
		ID:          svc.NewID(),
		Title:       title,
		Content:     content,
		ContentType: contentType,
		OwnerID:     userID,
		FolderID:    input.FolderID,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := svc.Notes.CreateNote(ctx, note); err != nil {
		return nil, err
	}
	TrackNoteOperation("create")
	svc.Index.OnNoteCreated(ctx, note)

	contextutil.LoggerFromContext(ctx).Info("note created", "note_id", note.ID)
	return svc.record(ctx, note)
}

// GetNote returns a note the user can read. Notes the user cannot read are
// reported as not found.
func (svc *NotesService) GetNote(ctx context.Context, userID, noteID string) (*model.NoteRecord, error) {
	note, err := svc.load(ctx, userID, noteID, false)
	if err != nil {
		return nil, err
	}
	return svc.record(ctx, note)
}

// UpdateNote changes the content of a note. Owners and collaborators may
// edit.
func (svc *NotesService) UpdateNote(ctx context.Context, userID, noteID string, update NoteUpdate) (*model.NoteRecord, error) {
	note, err := svc.load(ctx, userID, noteID, false)
	if err != nil {
		return nil, err
	}

	var changed []string
	if update.Title != nil {
		title, err := validateTitle(*update.Title)
		if err != nil {
			return nil, err
		}
		if title != note.Title {
			note.Title = title
			changed = append(changed, model.FieldTitle)
		}
	}
	if update.Content != nil {
		content, err := validateContent(*update.Content)
		if err != nil {
			return nil, err
		}
		if content != note.Content {
			note.Content = content
			changed = append(changed, model.FieldContent)
		}
	}
	if update.Tags != nil {
		tags, err := validateTags(*update.Tags)
		if err != nil {
			return nil, err
		}
		if !slices.Equal(tags, note.Tags) {
			note.Tags = tags
			changed = append(changed, model.FieldTags)
		}
	}

	if err := svc.save(ctx, note, "update", changed...); err != nil {
		return nil, err
	}
	return svc.record(ctx, note)
}

// DeleteNote removes a note. Only the owner may delete.
func (svc *NotesService) DeleteNote(ctx context.Context, userID, noteID string) error {
	if _, err := svc.load(ctx, userID, noteID, true); err != nil {
		return err
	}
	if err := svc.Notes.DeleteNote(ctx, noteID); err != nil {
		return err
	}
	TrackNoteOperation("delete")
	svc.Index.OnNoteDeleted(ctx, noteID)

	contextutil.LoggerFromContext(ctx).Info("note deleted", "note_id", noteID)
	return nil
}

// AddCollaborator shares a note with the user registered under email.
func (svc *NotesService) AddCollaborator(ctx context.Context, userID, noteID, email string) (*model.NoteRecord, error) {
	note, err := svc.load(ctx, userID, noteID, true)
	if err != nil {
		return nil, err
	}

	user, err := svc.Users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.ID == note.OwnerID {
		return nil, model.NewValidationError("email", "the owner cannot be added as a collaborator")
	}
	if note.IsCollaborator(user.ID) {
		return nil, fmt.Errorf("%w: %s already collaborates on this note", ErrConflict, user.Email)
	}

	note.Collaborators = append(note.Collaborators, user.ID)
	if err := svc.save(ctx, note, "share", model.FieldCollaborators); err != nil {
		return nil, err
	}
	return svc.record(ctx, note)
}

func (svc *NotesService) RemoveCollaborator(ctx context.Context, userID, noteID, collaboratorID string) (*model.NoteRecord, error) {
	note, err := svc.load(ctx, userID, noteID, true)
	if err != nil {
		return nil, err
	}
	if !note.IsCollaborator(collaboratorID) {
		return nil, ErrNotCollaborator
	}

	note.Collaborators = lo.Without(note.Collaborators, collaboratorID)
	if err := svc.save(ctx, note, "unshare", model.FieldCollaborators); err != nil {
		return nil, err
	}
	return svc.record(ctx, note)
}

func (svc *NotesService) TogglePin(ctx context.Context, userID, noteID string) (*model.NoteRecord, error) {
	note, err := svc.load(ctx, userID, noteID, true)
	if err != nil {
		return nil, err
	}

	note.IsPinned = !note.IsPinned
	if err := svc.save(ctx, note, "pin", model.FieldIsPinned); err != nil {
		return nil, err
	}
	return svc.record(ctx, note)
}

// MoveToFolder files a note under folderID. An empty folderID moves it
// back to the top level.
func (svc *NotesService) MoveToFolder(ctx context.Context, userID, noteID, folderID string) (*model.NoteRecord, error) {
	folderID = strings.TrimSpace(folderID)
	if err := validateFolderID(folderID); err != nil {
		return nil, err
	}
	note, err := svc.load(ctx, userID, noteID, true)
	if err != nil {
		return nil, err
	}

	note.FolderID = folderID
	if err := svc.save(ctx, note, "move", model.FieldFolder); err != nil {
		return nil, err
	}
	return svc.record(ctx, note)
}

// AttachImage records an already uploaded image on a note.
func (svc *NotesService) AttachImage(ctx context.Context, userID, noteID, url, caption string) (*model.NoteRecord, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, model.NewValidationError("url", "is required")
	}
	note, err := svc.load(ctx, userID, noteID, true)
	if err != nil {
		return nil, err
	}

	note.Images = append(note.Images, model.Image{
		ID:         svc.NewID(),
		URL:        url,
		Caption:    strings.TrimSpace(caption),
		UploadedAt: svc.now(),
	})
	if err := svc.save(ctx, note, "image", model.FieldImages); err != nil {
		return nil, err
	}
	return svc.record(ctx, note)
}

// ListNotes pages through the notes the user can read, newest first. It
// serves searches that carry no criteria.
func (svc *NotesService) ListNotes(ctx context.Context, userID string, page, pageSize int) (*search.Result, error) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize == 0:
		pageSize = search.DefaultPageSize
	case pageSize < 1:
		pageSize = 1
	case pageSize > search.MaxPageSize:
		pageSize = search.MaxPageSize
	}

	notes, total, err := svc.Notes.ListAccessibleNotes(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	records, err := svc.Records.Populate(ctx, notes)
	if err != nil {
		return nil, err
	}

	items := lo.Map(records, func(rec *model.NoteRecord, _ int) search.ResultItem {
		return search.ResultItem{
			Note:          rec.Note,
			Owner:         rec.Owner,
			Collaborators: lo.Ternary(rec.Collaborators == nil, []model.UserIdentity{}, rec.Collaborators),
			MatchedFields: []string{},
		}
	})

	return &search.Result{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// load fetches a note and checks the user's access. Strangers get
// ErrNoteNotFound; collaborators get ErrForbidden for owner only actions.
func (svc *NotesService) load(ctx context.Context, userID, noteID string, ownerOnly bool) (*model.Note, error) {
	note, err := svc.Notes.GetNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if !note.CanRead(userID) {
		return nil, model.ErrNoteNotFound
	}
	if ownerOnly && note.OwnerID != userID {
		return nil, ErrForbidden
	}
	return note, nil
}

// save stores note and mirrors the changed fields into the search index.
// Nothing is written when no field changed.
func (svc *NotesService) save(ctx context.Context, note *model.Note, operation string, changed ...string) error {
	if len(changed) == 0 {
		return nil
	}
	note.UpdatedAt = svc.now()
	if err := svc.Notes.UpdateNote(ctx, note); err != nil {
		return err
	}
	TrackNoteOperation(operation)
	svc.Index.OnNoteUpdated(ctx, note, changed)

	contextutil.LoggerFromContext(ctx).Info("note updated",
		"note_id", note.ID, "operation", operation, "fields", changed)
	return nil
}

func (svc *NotesService) record(ctx context.Context, note *model.Note) (*model.NoteRecord, error) {
	records, err := svc.Records.Populate(ctx, []*model.Note{note})
	if err != nil {
		return nil, err
	}
	return records[0], nil
}
