package model

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Field names of a SearchDocument as seen by the search index. Partial
// index updates are expressed as a list of these.
const (
	FieldTitle         = "title"
	FieldContent       = "content"
	FieldTags          = "tags"
	FieldOwner         = "owner"
	FieldCollaborators = "collaborators"
	FieldFolder        = "folder"
	FieldIsPinned      = "isPinned"
	FieldImages        = "images"
	FieldCreatedAt     = "createdAt"
	FieldUpdatedAt     = "updatedAt"
)

// SearchDocumentFields lists every field of a SearchDocument.
var SearchDocumentFields = []string{
	FieldTitle,
	FieldContent,
	FieldTags,
	FieldOwner,
	FieldCollaborators,
	FieldFolder,
	FieldIsPinned,
	FieldImages,
	FieldCreatedAt,
	FieldUpdatedAt,
}

// SearchDocument is the flat, index-friendly projection of a Note. It is
// disposable: it can always be re-derived from the note it mirrors.
type SearchDocument struct {
	ID            string   `json:"-"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Tags          []string `json:"tags"`
	Owner         string   `json:"owner"`
	Collaborators []string `json:"collaborators"`
	FolderID      string   `json:"folder,omitempty"`
	IsPinned      bool     `json:"isPinned"`
	Images        []string `json:"images,omitempty"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

var plainText = bluemonday.StrictPolicy()

// NewSearchDocument derives the search projection of a note.
func NewSearchDocument(note *Note) SearchDocument {
	images := make([]string, 0, len(note.Images))
	for _, img := range note.Images {
		images = append(images, img.URL)
	}

	return SearchDocument{
		ID:            note.ID,
		Title:         note.Title,
		Content:       SearchableContent(note),
		Tags:          nonNil(note.Tags),
		Owner:         note.OwnerID,
		Collaborators: nonNil(note.Collaborators),
		FolderID:      note.FolderID,
		IsPinned:      note.IsPinned,
		Images:        images,
		CreatedAt:     FormatTimestamp(note.CreatedAt),
		UpdatedAt:     FormatTimestamp(note.UpdatedAt),
	}
}

// SearchableContent returns the note body as plain text. HTML notes are
// stripped of markup so that tags and attributes never match a query.
func SearchableContent(note *Note) string {
	if note.ContentType != ContentTypeHTML {
		return note.Content
	}
	stripped := html.UnescapeString(plainText.Sanitize(note.Content))
	return strings.Join(strings.Fields(stripped), " ")
}

// FormatTimestamp renders t as ISO-8601 in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// ParseTimestamp accepts anything FormatTimestamp or RFC 3339 produces.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
