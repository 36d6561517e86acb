package handler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tonotes/contextutil"
	"tonotes/middleware"
	"tonotes/model"
	"tonotes/search"
	"tonotes/usecase"
	"tonotes/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// RetryAfter is suggested to clients when the search engine is down.
const RetryAfter = 5 * time.Second

// respondError maps a service error onto the response envelope.
func respondError(c *gin.Context, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.BadRequest(c, verr.Error())
	case errors.Is(err, model.ErrNoteNotFound):
		utils.NotFound(c, "Note not found")
	case errors.Is(err, model.ErrUserNotFound):
		utils.NotFound(c, "User not found")
	case errors.Is(err, usecase.ErrNotCollaborator):
		utils.NotFound(c, "Collaborator not found")
	case errors.Is(err, usecase.ErrForbidden):
		utils.Forbidden(c, "Only the note owner can do this")
	case errors.Is(err, usecase.ErrConflict):
		utils.Conflict(c, err.Error())
	case errors.Is(err, search.ErrSearchUnavailable):
		middleware.TrackError("unavailable")
		contextutil.LoggerFromContext(c.Request.Context()).Warn("search unavailable", "error", err)
		utils.ServiceUnavailable(c, "Search is temporarily unavailable", RetryAfter)
	default:
		middleware.TrackError("internal")
		contextutil.LoggerFromContext(c.Request.Context()).Error("request failed", "error", err)
		utils.InternalError(c, "Internal server error")
	}
}

// bindingMessage turns a binding error into a client facing message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		utils.Unauthorized(c, "Missing or invalid token")
		return "", false
	}
	return userID, true
}
