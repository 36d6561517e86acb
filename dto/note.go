package dto

import (
	"time"

	"tonotes/model"
	"tonotes/search"

	"github.com/samber/lo"
)

type CreateNoteRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Content     string   `json:"content" binding:"required"`
	ContentType string   `json:"content_type" binding:"omitempty,oneof=text html"`
	Tags        []string `json:"tags" binding:"max=10"`
	FolderID    string   `json:"folder_id" binding:"omitempty,uuid"`
}

// UpdateNoteRequest changes only the fields present in the body.
type UpdateNoteRequest struct {
	Title   *string   `json:"title" binding:"omitempty,max=200"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags" binding:"omitempty,max=10"`
}

type AddCollaboratorRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// MoveNoteRequest moves a note to a folder. An empty folder id moves it to
// the top level.
type MoveNoteRequest struct {
	FolderID string `json:"folder_id" binding:"omitempty,uuid"`
}

type AttachImageRequest struct {
	URL     string `json:"url" binding:"required,url"`
	Caption string `json:"caption" binding:"max=500"`
}

// SearchNotesQuery is the query string of GET /api/notes/search.
type SearchNotesQuery struct {
	Query     string `form:"query"`
	Tags      string `form:"tags"`
	StartDate string `form:"startDate" binding:"searchdate"`
	EndDate   string `form:"endDate" binding:"searchdate"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	Sort      string `form:"sort"`
}

type ListNotesQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

type NoteResponse struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	ContentType   string         `json:"content_type,omitempty"`
	Owner         UserResponse   `json:"owner"`
	Collaborators []UserResponse `json:"collaborators"`
	FolderID      string         `json:"folder_id,omitempty"`
	IsPinned      bool           `json:"is_pinned"`
	Tags          []string       `json:"tags"`
	Images        []model.Image  `json:"images,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Highlights struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SearchResultResponse is a note as returned by search and listing.
// Relevance fields are empty for listings.
type SearchResultResponse struct {
	NoteResponse
	RelevanceScore float64     `json:"relevance_score,omitempty"`
	Highlights     *Highlights `json:"highlights,omitempty"`
	MatchedFields  []string    `json:"matched_fields,omitempty"`
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

type NotesPageResponse struct {
	Notes      []SearchResultResponse `json:"notes"`
	Pagination Pagination             `json:"pagination"`
}

func toUserResponse(u model.UserIdentity) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

func noteResponse(note *model.Note, owner model.UserIdentity, collaborators []model.UserIdentity) NoteResponse {
	return NoteResponse{
		ID:            note.ID,
		Title:         note.Title,
		Content:       note.Content,
		ContentType:   note.ContentType,
		Owner:         toUserResponse(owner),
		Collaborators: lo.Map(collaborators, func(u model.UserIdentity, _ int) UserResponse { return toUserResponse(u) }),
		FolderID:      note.FolderID,
		IsPinned:      note.IsPinned,
		Tags:          lo.Ternary(note.Tags == nil, []string{}, note.Tags),
		Images:        note.Images,
		CreatedAt:     note.CreatedAt,
		UpdatedAt:     note.UpdatedAt,
	}
}

// ToNoteResponse converts a populated note record.
func ToNoteResponse(rec *model.NoteRecord) NoteResponse {
	return noteResponse(rec.Note, rec.Owner, rec.Collaborators)
}

func ToSearchResultResponse(item search.ResultItem) SearchResultResponse {
	resp := SearchResultResponse{
		NoteResponse:   noteResponse(item.Note, item.Owner, item.Collaborators),
		RelevanceScore: item.RelevanceScore,
		MatchedFields:  item.MatchedFields,
	}
	if item.TitleHighlight != "" || item.ContentHighlight != "" {
		resp.Highlights = &Highlights{Title: item.TitleHighlight, Content: item.ContentHighlight}
	}
	return resp
}

func NewNotesPageResponse(res *search.Result) *NotesPageResponse {
	return &NotesPageResponse{
		Notes: lo.Map(res.Items, func(item search.ResultItem, _ int) SearchResultResponse {
			return ToSearchResultResponse(item)
		}),
		Pagination: Pagination{
			Total:      res.TotalCount,
			Page:       res.Page,
			Limit:      res.PageSize,
			TotalPages: res.TotalPages,
		},
	}
}
