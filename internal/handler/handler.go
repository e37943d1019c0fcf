package handler

import (
	"lunar-oracle/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName    = "LunarOracle API"
	serviceVersion = "1.0.0"
)

type Handler struct {
	tracer      trace.Tracer
	topics      *service.TopicService
	predictions *service.PredictionService
	agent       *service.AgentService
	backend     string
}

func New(
	tracer trace.Tracer,
	topics *service.TopicService,
	predictions *service.PredictionService,
	agent *service.AgentService,
	backend string,
) *Handler {
	return &Handler{
		tracer:      tracer,
		topics:      topics,
		predictions: predictions,
		agent:       agent,
		backend:     backend,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/topic/:symbol", h.GetTopic)
	r.POST("/predict", h.Predict)
	r.POST("/agent/chat", h.AgentChat)
	r.GET("/predictions", h.ListPredictions)
	r.GET("/predictions/:symbol", h.ListPredictions)
}

func fail(c *gin.Context, status int, tag, message string) {
	c.JSON(status, gin.H{"success": false, "error": tag, "message": message})
}
