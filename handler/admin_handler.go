package handler

import (
	"context"
	"strconv"

	"tonotes/contextutil"
	"tonotes/search"
	"tonotes/utils"

	"github.com/gin-gonic/gin"
)

type Resyncer interface {
	Resync(ctx context.Context, opts search.ResyncOptions) (int, error)
}

type AdminHandler struct {
	resyncer Resyncer
}

func NewAdminHandler(resyncer Resyncer) *AdminHandler {
	return &AdminHandler{resyncer: resyncer}
}

// Resync rebuilds the search index from the record store. With
// resume=true it continues an interrupted rebuild.
func (h *AdminHandler) Resync(c *gin.Context) {
	resume, err := strconv.ParseBool(c.DefaultQuery("resume", "false"))
	if err != nil {
		utils.BadRequest(c, "resume must be true or false")
		return
	}

	ctx := c.Request.Context()
	count, err := h.resyncer.Resync(ctx, search.ResyncOptions{Resume: resume})
	if err != nil {
		contextutil.LoggerFromContext(ctx).Error("resync failed", "indexed", count, "error", err)
		utils.ServiceUnavailable(c, "Resync failed; retry with resume=true", RetryAfter)
		return
	}
	utils.Success(c, gin.H{"indexed": count})
}
