package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetTopic godoc
// @Summary      Get social metrics for an asset
// @Description  Returns the current social snapshot (galaxy score, dominance, sentiment) for a symbol
// @Tags         topics
// @Produce      json
// @Param        symbol  path  string  true  "Asset symbol or alias (e.g., btc, bitcoin)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /topic/{symbol} [get]
func (h *Handler) GetTopic(c *gin.Context) {
	if h.topics == nil {
		fail(c, http.StatusServiceUnavailable, "service_unavailable", "topic service unavailable")
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-topic")
	defer span.End()

	symbol := strings.TrimSpace(c.Param("symbol"))
	if symbol == "" {
		fail(c, http.StatusBadRequest, "invalid_request", "symbol is required")
		return
	}
	span.SetAttributes(attribute.String("symbol", symbol))

	snap, err := h.topics.Topic(ctx, symbol)
	if err != nil {
		fail(c, http.StatusBadGateway, "upstream_error", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": snap})
}
