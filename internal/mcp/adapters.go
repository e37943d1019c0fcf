package mcp

import (
	"context"

	"lunar-oracle/internal/domain"
)

// PredictionReaderWriter exposes the prediction pipeline and its history.
type PredictionReaderWriter interface {
	Generate(ctx context.Context, symbol string, timeframeHours int) (*domain.PredictionRecord, error)
	History(ctx context.Context, symbol string, limit int) ([]domain.PredictionRecord, error)
}

// TopicReader exposes raw social snapshots.
type TopicReader interface {
	Topic(ctx context.Context, symbol string) (domain.SocialSnapshot, error)
}
