package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type predictRequest struct {
	CryptoSymbol string `json:"cryptoSymbol"`
	Timeframe    int    `json:"timeframe"`
}

// Predict godoc
// @Summary      Generate a prediction
// @Description  Runs the full pipeline for a symbol: social evidence, historical accuracy, model verdict, persisted record
// @Tags         predictions
// @Accept       json
// @Produce      json
// @Param        request  body  predictRequest  true  "Symbol and optional timeframe in hours"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /predict [post]
func (h *Handler) Predict(c *gin.Context) {
	if h.predictions == nil {
		fail(c, http.StatusServiceUnavailable, "service_unavailable", "prediction service unavailable")
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.predict")
	defer span.End()

	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	req.CryptoSymbol = strings.TrimSpace(req.CryptoSymbol)
	if req.CryptoSymbol == "" {
		fail(c, http.StatusBadRequest, "invalid_request", "cryptoSymbol is required")
		return
	}
	if req.Timeframe < 0 {
		fail(c, http.StatusBadRequest, "invalid_request", "timeframe must be a positive number of hours")
		return
	}
	span.SetAttributes(attribute.String("symbol", req.CryptoSymbol))

	rec, err := h.predictions.Generate(ctx, req.CryptoSymbol, req.Timeframe)
	if err != nil {
		fail(c, http.StatusInternalServerError, "prediction_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rec})
}

// ListPredictions godoc
// @Summary      List stored predictions
// @Description  Returns recent predictions, newest first, optionally filtered by symbol
// @Tags         predictions
// @Produce      json
// @Param        symbol  path   string  false  "Asset symbol or alias"
// @Param        limit   query  int     false  "Number of predictions (default 50, max 50)"  default(50)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /predictions [get]
func (h *Handler) ListPredictions(c *gin.Context) {
	if h.predictions == nil {
		fail(c, http.StatusServiceUnavailable, "service_unavailable", "prediction service unavailable")
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-predictions")
	defer span.End()

	limit := 0
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.predictions.History(ctx, strings.TrimSpace(c.Param("symbol")), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"count":   len(records),
	})
}
