package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Service health
// @Description  Liveness probe. Pass deep=1 to also verify the upstream social feed.
// @Tags         system
// @Produce      json
// @Param        deep  query  string  false  "Set to 1 to check the upstream feed"
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.health")
	defer span.End()

	if c.Query("deep") == "1" && h.topics != nil {
		if err := h.topics.Healthy(ctx); err != nil {
			fail(c, http.StatusServiceUnavailable, "upstream_unhealthy", err.Error())
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"version":   serviceVersion,
		"backend":   h.backend,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
