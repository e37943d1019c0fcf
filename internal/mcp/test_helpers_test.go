package mcp

import (
	"context"
	"encoding/json"
	"time"

	"lunar-oracle/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubPredictionService struct {
	generated *domain.PredictionRecord
	history   []domain.PredictionRecord

	lastGenerateSymbol    string
	lastGenerateTimeframe int
	lastHistorySymbol     string
	lastHistoryLimit      int
}

func (s *stubPredictionService) Generate(ctx context.Context, symbol string, timeframeHours int) (*domain.PredictionRecord, error) {
	s.lastGenerateSymbol = symbol
	s.lastGenerateTimeframe = timeframeHours
	rec := *s.generated
	return &rec, nil
}

func (s *stubPredictionService) History(ctx context.Context, symbol string, limit int) ([]domain.PredictionRecord, error) {
	s.lastHistorySymbol = symbol
	s.lastHistoryLimit = limit
	return append([]domain.PredictionRecord(nil), s.history...), nil
}

type stubTopicService struct {
	snapshot domain.SocialSnapshot
}

func (s *stubTopicService) Topic(ctx context.Context, symbol string) (domain.SocialSnapshot, error) {
	snap := s.snapshot
	snap.Symbol = symbol
	return snap, nil
}

func testServer() (*sdkmcp.Server, *stubPredictionService, *stubTopicService) {
	predictions := &stubPredictionService{
		generated: &domain.PredictionRecord{
			ID:             "1",
			Symbol:         "bitcoin",
			Direction:      domain.DirectionBullish,
			Confidence:     75,
			TargetChange:   5.2,
			TimeframeHours: 24,
			Status:         domain.StatusActive,
			CreatedAt:      time.Unix(0, 0).UTC(),
			ExpiresAt:      time.Unix(0, 0).UTC().Add(24 * time.Hour),
		},
		history: []domain.PredictionRecord{
			{ID: "2", Symbol: "bitcoin", Direction: domain.DirectionNeutral, Confidence: 50},
		},
	}
	topics := &stubTopicService{
		snapshot: domain.SocialSnapshot{GalaxyScore: 70, SocialDominance: 12.5, Sentiment: 66},
	}

	srv := NewServer(nil, predictions, topics, ServerConfig{RequestTimeout: time.Second})
	return srv, predictions, topics
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}
