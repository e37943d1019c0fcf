package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	Message      string `json:"message"`
	UserID       string `json:"userId"`
	CryptoSymbol string `json:"cryptoSymbol"`
}

// AgentChat godoc
// @Summary      Chat with the prediction agent
// @Description  Free-form chat. Messages naming a known asset trigger a fresh prediction; pipeline failures still return 200 with an apology.
// @Tags         agent
// @Accept       json
// @Produce      json
// @Param        request  body  chatRequest  true  "Message with optional user id and symbol hint"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /agent/chat [post]
func (h *Handler) AgentChat(c *gin.Context) {
	if h.agent == nil {
		fail(c, http.StatusServiceUnavailable, "service_unavailable", "agent service unavailable")
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.agent-chat")
	defer span.End()

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		fail(c, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}

	reply := h.agent.Respond(ctx, req.UserID, req.Message, req.CryptoSymbol)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": reply})
}
