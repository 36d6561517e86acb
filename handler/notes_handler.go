package handler

import (
	"context"

	"tonotes/dto"
	"tonotes/model"
	"tonotes/search"
	"tonotes/usecase"
	"tonotes/utils"

	"github.com/gin-gonic/gin"
)

type NoteService interface {
	CreateNote(ctx context.Context, userID string, input usecase.NoteInput) (*model.NoteRecord, error)
	GetNote(ctx context.Context, userID, noteID string) (*model.NoteRecord, error)
	UpdateNote(ctx context.Context, userID, noteID string, update usecase.NoteUpdate) (*model.NoteRecord, error)
	DeleteNote(ctx context.Context, userID, noteID string) error
	AddCollaborator(ctx context.Context, userID, noteID, email string) (*model.NoteRecord, error)
	RemoveCollaborator(ctx context.Context, userID, noteID, collaboratorID string) (*model.NoteRecord, error)
	TogglePin(ctx context.Context, userID, noteID string) (*model.NoteRecord, error)
	MoveToFolder(ctx context.Context, userID, noteID, folderID string) (*model.NoteRecord, error)
	AttachImage(ctx context.Context, userID, noteID, url, caption string) (*model.NoteRecord, error)
	ListNotes(ctx context.Context, userID string, page, pageSize int) (*search.Result, error)
}

type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Result, error)
}

type NotesHandler struct {
	notes  NoteService
	search Searcher
}

func NewNotesHandler(notes NoteService, searcher Searcher) *NotesHandler {
	return &NotesHandler{notes: notes, search: searcher}
}

func (h *NotesHandler) ListNotes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var q dto.ListNotesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, bindingMessage(err))
		return
	}

	res, err := h.notes.ListNotes(c.Request.Context(), userID, q.Page, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.NewNotesPageResponse(res))
}

func (h *NotesHandler) CreateNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindingMessage(err))
		return
	}

	rec, err := h.notes.CreateNote(c.Request.Context(), userID, usecase.NoteInput{
		Title:       req.Title,
		Content:     req.Content,
		ContentType: req.ContentType,
		Tags:        req.Tags,
		FolderID:    req.FolderID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, dto.ToNoteResponse(rec))
}

func (h *NotesHandler) GetNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rec, err := h.notes.GetNote(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponse(rec))
}

func (h *NotesHandler) UpdateNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindingMessage(err))
		return
	}

	rec, err := h.notes.UpdateNote(c.Request.Context(), userID, c.Param("id"), usecase.NoteUpdate{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponse(rec))
}

func (h *NotesHandler) DeleteNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.notes.DeleteNote(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"message": "Note deleted successfully"})
}

func (h *NotesHandler) AddCollaborator(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.AddCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindingMessage(err))
		return
	}

	rec, err := h.notes.AddCollaborator(c.Request.Context(), userID, c.Param("id"), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponse(rec))
}

func (h *NotesHandler) RemoveCollaborator(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rec, err := h.notes.RemoveCollaborator(c.Request.Context(), userID, c.Param("id"), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponse(rec))
}

func (h *NotesHandler) TogglePin(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rec, err := h.notes.TogglePin(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponse(rec))
}

func (h *NotesHandler) MoveNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.MoveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindingMessage(err))
		return
	}

	rec, err := h.notes.MoveToFolder(c.Request.Context(), userID, c.Param("id"), req.FolderID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponse(rec))
}

func (h *NotesHandler) AttachImage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.AttachImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindingMessage(err))
		return
	}

	rec, err := h.notes.AttachImage(c.Request.Context(), userID, c.Param("id"), req.URL, req.Caption)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, dto.ToNoteResponse(rec))
}
