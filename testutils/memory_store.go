package testutils

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tonotes/model"
)

// MemoryStore is an in-process record store holding notes and user
// identities. It satisfies the repositories the notes service and the
// search core depend on.
type MemoryStore struct {
	mu    sync.RWMutex
	notes map[string]*model.Note
	users map[string]model.UserIdentity
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notes: make(map[string]*model.Note),
		users: make(map[string]model.UserIdentity),
	}
}

func (s *MemoryStore) AddUser(u model.UserIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemoryStore) CreateNote(_ context.Context, note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[note.ID] = cloneNote(note)
	return nil
}

func (s *MemoryStore) GetNote(_ context.Context, id string) (*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, model.ErrNoteNotFound
	}
	return cloneNote(n), nil
}

func (s *MemoryStore) UpdateNote(_ context.Context, note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[note.ID]; !ok {
		return model.ErrNoteNotFound
	}
	s.notes[note.ID] = cloneNote(note)
	return nil
}

func (s *MemoryStore) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return model.ErrNoteNotFound
	}
	delete(s.notes, id)
	return nil
}

// ListAccessibleNotes returns the notes userID can read, newest first.
func (s *MemoryStore) ListAccessibleNotes(_ context.Context, userID string, skip, limit int) ([]*model.Note, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var visible []*model.Note
	for _, n := range s.notes {
		if n.CanRead(userID) {
			visible = append(visible, n)
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		if visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return visible[i].ID < visible[j].ID
		}
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})

	total := len(visible)
	if skip >= total {
		return []*model.Note{}, total, nil
	}
	end := min(total, skip+limit)
	out := make([]*model.Note, 0, end-skip)
	for _, n := range visible[skip:end] {
		out = append(out, cloneNote(n))
	}
	return out, total, nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*model.UserIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (s *MemoryStore) FindUsersByIDs(_ context.Context, ids []string) ([]model.UserIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UserIdentity, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*model.Note, error) {
	return s.GetNote(ctx, id)
}

func (s *MemoryStore) FindManyByIDs(ctx context.Context, ids []string) ([]*model.NoteRecord, error) {
	s.mu.RLock()
	var notes []*model.Note
	for _, id := range ids {
		if n, ok := s.notes[id]; ok {
			notes = append(notes, cloneNote(n))
		}
	}
	s.mu.RUnlock()
	return s.Populate(ctx, notes)
}

// ListAfter scans notes in ascending id order.
func (s *MemoryStore) ListAfter(_ context.Context, afterID string, limit int) ([]*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.notes))
	for id := range s.notes {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*model.Note, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneNote(s.notes[id]))
	}
	return out, nil
}

// Populate expands owners and collaborators to display identities. Unknown
// users keep their id with empty names.
func (s *MemoryStore) Populate(_ context.Context, notes []*model.Note) ([]*model.NoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity := func(id string) model.UserIdentity {
		if u, ok := s.users[id]; ok {
			return u
		}
		return model.UserIdentity{ID: id}
	}

	out := make([]*model.NoteRecord, 0, len(notes))
	for _, n := range notes {
		rec := &model.NoteRecord{
			Note:          n,
			Owner:         identity(n.OwnerID),
			Collaborators: make([]model.UserIdentity, 0, len(n.Collaborators)),
		}
		for _, c := range n.Collaborators {
			rec.Collaborators = append(rec.Collaborators, identity(c))
		}
		out = append(out, rec)
	}
	return out, nil
}

// Len returns the number of stored notes.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

func cloneNote(n *model.Note) *model.Note {
	c := *n
	c.Tags = append([]string(nil), n.Tags...)
	c.Collaborators = append([]string(nil), n.Collaborators...)
	c.Images = append([]model.Image(nil), n.Images...)
	return &c
}
