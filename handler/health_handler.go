package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"tonotes/utils"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	System     utils.SystemStats `json:"system"`
	Time       time.Time         `json:"time"`
}

// Health reports each dependency and host usage. It answers 503 when any
// dependency is down.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{
		Status:     "ok",
		Components: make(map[string]string, len(names)),
		Time:       time.Now().UTC(),
	}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			resp.Components[name] = "down: " + err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Components[name] = "up"
	}
	resp.System = utils.GetSystemStats(ctx, 0)

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
