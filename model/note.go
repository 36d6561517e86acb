package model

import (
	"time"
)

const (
	ContentTypeText = "text"
	ContentTypeHTML = "html"
)

type Note struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Title         string    `bson:"title" json:"title"`
	Content       string    `bson:"content" json:"content"`
	ContentType   string    `bson:"content_type,omitempty" json:"content_type,omitempty"`
	OwnerID       string    `bson:"owner_id" json:"owner_id"`
	FolderID      string    `bson:"folder_id,omitempty" json:"folder_id,omitempty"`
	IsPinned      bool      `bson:"is_pinned" json:"is_pinned"`
	Tags          []string  `bson:"tags,omitempty" json:"tags,omitempty"`
	Collaborators []string  `bson:"collaborators,omitempty" json:"collaborators,omitempty"`
	Images        []Image   `bson:"images,omitempty" json:"images,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

type Image struct {
	ID         string    `bson:"id" json:"id"`
	URL        string    `bson:"url" json:"url"`
	Caption    string    `bson:"caption,omitempty" json:"caption,omitempty"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// CanRead reports whether userID owns the note or collaborates on it.
func (n *Note) CanRead(userID string) bool {
	return n.OwnerID == userID || n.IsCollaborator(userID)
}

func (n *Note) IsCollaborator(userID string) bool {
	for _, c := range n.Collaborators {
		if c == userID {
			return true
		}
	}
	return false
}

// NoteRecord is a note with its owner and collaborators expanded to
// display identities.
type NoteRecord struct {
	Note          *Note
	Owner         UserIdentity
	Collaborators []UserIdentity
}
