package mcp

import (
	"fmt"
	"sort"
	"strings"

	"lunar-oracle/internal/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 50
	maxTimeframeHours   = 24 * 30
)

type predictionGenerateInput struct {
	Symbol         string `json:"symbol" jsonschema:"asset symbol or alias (e.g. btc, bitcoin)"`
	TimeframeHours int    `json:"timeframe_hours,omitempty" jsonschema:"prediction horizon in hours, default 24"`
}

type predictionGenerateOutput struct {
	Prediction *domain.PredictionRecord `json:"prediction"`
}

type predictionsListInput struct {
	Symbol string `json:"symbol,omitempty" jsonschema:"optional asset symbol or alias"`
	Limit  int    `json:"limit,omitempty" jsonschema:"number of predictions to return, max 50"`
}

type predictionsListOutput struct {
	Count       int                       `json:"count"`
	Predictions []domain.PredictionRecord `json:"predictions"`
}

type topicGetInput struct {
	Symbol string `json:"symbol" jsonschema:"asset symbol or alias (e.g. btc, bitcoin)"`
}

type topicGetOutput struct {
	Topic domain.SocialSnapshot `json:"topic"`
}

func normalizeToolSymbol(symbol string) (string, error) {
	normalized := domain.NormalizeSymbol(symbol)
	if normalized == "" {
		return "", fmt.Errorf("symbol is required")
	}
	return normalized, nil
}

func normalizeTimeframe(hours int) (int, error) {
	if hours == 0 {
		return domain.DefaultTimeframeHours, nil
	}
	if hours < 0 || hours > maxTimeframeHours {
		return 0, fmt.Errorf("timeframe_hours must be between 1 and %d", maxTimeframeHours)
	}
	return hours, nil
}

func normalizeHistoryLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

func knownSymbols() []string {
	seen := make(map[string]struct{}, len(domain.SymbolAliases))
	for _, canonical := range domain.SymbolAliases {
		seen[canonical] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for symbol := range seen {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

func trimSymbolPath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}
