package handler

import (
	"errors"

	"tonotes/dto"
	"tonotes/search"
	"tonotes/utils"

	"github.com/gin-gonic/gin"
)

// SearchNotes runs a full-text search. A request without text, tags or
// dates is served as the plain listing.
func (h *NotesHandler) SearchNotes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var q dto.SearchNotesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, bindingMessage(err))
		return
	}

	dateRange, err := search.ParseDateRange(q.StartDate, q.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	res, err := h.search.Search(ctx, search.Request{
		QueryText:      q.Query,
		Tags:           search.SplitTags(q.Tags),
		DateRange:      dateRange,
		Page:           q.Page,
		PageSize:       q.Limit,
		Sort:           search.ParseSort(q.Sort),
		RequestingUser: userID,
	})
	if errors.Is(err, search.ErrNoCriteria) {
		res, err = h.notes.ListNotes(ctx, userID, q.Page, q.Limit)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.NewNotesPageResponse(res))
}
