package repository

import (
	"context"

	"tonotes/model"
	"tonotes/search"

	"github.com/samber/lo"
)

// NoteRecords joins notes with their users' display identities. It is the
// record store the search core reconciles hits against.
type NoteRecords struct {
	Notes *NotesRepo
	Users *UsersRepo
}

var _ search.RecordStore = (*NoteRecords)(nil)

func NewNoteRecords(notes *NotesRepo, users *UsersRepo) *NoteRecords {
	return &NoteRecords{Notes: notes, Users: users}
}

func (r *NoteRecords) FindByID(ctx context.Context, id string) (*model.Note, error) {
	return r.Notes.GetNote(ctx, id)
}

// FindManyByIDs loads the notes and all of their users in two queries.
func (r *NoteRecords) FindManyByIDs(ctx context.Context, ids []string) ([]*model.NoteRecord, error) {
	notes, err := r.Notes.FindNotesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return r.Populate(ctx, notes)
}

func (r *NoteRecords) ListAfter(ctx context.Context, afterID string, limit int) ([]*model.Note, error) {
	return r.Notes.ListNotesAfter(ctx, afterID, limit)
}

// Populate expands owners and collaborators to display identities. Users
// missing from the users collection keep their id with empty names.
func (r *NoteRecords) Populate(ctx context.Context, notes []*model.Note) ([]*model.NoteRecord, error) {
	userIDs := lo.Uniq(lo.FlatMap(notes, func(n *model.Note, _ int) []string {
		return append([]string{n.OwnerID}, n.Collaborators...)
	}))

	users, err := r.Users.FindUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(users, func(u model.UserIdentity) string { return u.ID })

	identity := func(id string) model.UserIdentity {
		if u, ok := byID[id]; ok {
			return u
		}
		return model.UserIdentity{ID: id}
	}

	return lo.Map(notes, func(n *model.Note, _ int) *model.NoteRecord {
		return &model.NoteRecord{
			Note:          n,
			Owner:         identity(n.OwnerID),
			Collaborators: lo.Map(n.Collaborators, func(id string, _ int) model.UserIdentity { return identity(id) }),
		}
	}), nil
}
