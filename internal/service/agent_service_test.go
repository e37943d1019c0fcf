package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lunar-oracle/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type stubGenerator struct {
	rec        *domain.PredictionRecord
	err        error
	lastSymbol string
	calls      int
}

func (s *stubGenerator) Generate(ctx context.Context, symbol string, timeframeHours int) (*domain.PredictionRecord, error) {
	s.lastSymbol = symbol
	s.calls++
	return s.rec, s.err
}

type stubConversationalist struct {
	reply       string
	err         error
	lastMessage string
	lastContext string
}

func (s *stubConversationalist) Converse(ctx context.Context, message, marketContext string) (string, error) {
	s.lastMessage = message
	s.lastContext = marketContext
	return s.reply, s.err
}

type stubRanker struct {
	assets []domain.RankedAsset
	err    error
}

func (s *stubRanker) CoinsList(ctx context.Context, limit int) ([]domain.RankedAsset, error) {
	return s.assets, s.err
}

type stubInteractions struct {
	userID     string
	message    string
	response   string
	confidence float64
	err        error
	calls      int
}

func (s *stubInteractions) InsertInteraction(ctx context.Context, userID, message, response string, confidence float64) error {
	s.userID = userID
	s.message = message
	s.response = response
	s.confidence = confidence
	s.calls++
	return s.err
}

func sampleRecord() *domain.PredictionRecord {
	return &domain.PredictionRecord{
		Symbol:         "bitcoin",
		Direction:      domain.DirectionBullish,
		Confidence:     75,
		TargetChange:   5.2,
		TimeframeHours: 24,
		Reasoning:      "strong social momentum",
	}
}

func newTestAgentService(gen *stubGenerator, conv *stubConversationalist, ranker *stubRanker, inter *stubInteractions) *AgentService {
	return NewAgentService(trace.NewNoopTracerProvider().Tracer("test"), gen, conv, ranker, inter)
}

func TestRespondDetectsSymbolAndRestyles(t *testing.T) {
	gen := &stubGenerator{rec: sampleRecord()}
	conv := &stubConversationalist{reply: "Looking bullish on Bitcoin today!"}
	inter := &stubInteractions{}
	svc := newTestAgentService(gen, conv, &stubRanker{}, inter)

	reply := svc.Respond(context.Background(), "user-1", "what do you think about btc?", "")
	if gen.lastSymbol != "bitcoin" {
		t.Fatalf("expected detected symbol bitcoin, got %q", gen.lastSymbol)
	}
	if reply.Message != "Looking bullish on Bitcoin today!" || reply.Confidence != 75 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if !strings.Contains(conv.lastContext, "bullish") {
		t.Fatalf("expected prediction summary as context, got %q", conv.lastContext)
	}
	if inter.calls != 1 || inter.userID != "user-1" || inter.confidence != 75 {
		t.Fatalf("expected interaction logged: %+v", inter)
	}
}

func TestRespondHintOverridesDetection(t *testing.T) {
	gen := &stubGenerator{rec: sampleRecord()}
	svc := newTestAgentService(gen, &stubConversationalist{reply: "ok"}, &stubRanker{}, &stubInteractions{})

	svc.Respond(context.Background(), "user-1", "thoughts on eth?", "SOL")
	if gen.lastSymbol != "solana" {
		t.Fatalf("expected hint to win, got %q", gen.lastSymbol)
	}
}

func TestRespondWithoutSymbolListsTrendingAssets(t *testing.T) {
	gen := &stubGenerator{}
	ranker := &stubRanker{assets: []domain.RankedAsset{
		{Name: "Bitcoin", Symbol: "btc"},
		{Name: "Ethereum", Symbol: "eth"},
	}}
	svc := newTestAgentService(gen, &stubConversationalist{}, ranker, &stubInteractions{})

	reply := svc.Respond(context.Background(), "user-1", "hello there", "")
	if gen.calls != 0 {
		t.Fatal("no prediction expected without a symbol")
	}
	if !strings.Contains(reply.Message, "Bitcoin, Ethereum") {
		t.Fatalf("expected trending assets listed, got %q", reply.Message)
	}
	if reply.Confidence != 0 {
		t.Fatalf("expected zero confidence for capability reply, got %f", reply.Confidence)
	}
}

func TestRespondWordBoundaryAvoidsFalsePositive(t *testing.T) {
	gen := &stubGenerator{rec: sampleRecord()}
	svc := newTestAgentService(gen, &stubConversationalist{}, &stubRanker{}, &stubInteractions{})

	svc.Respond(context.Background(), "user-1", "I met a bitcoiner yesterday", "")
	if gen.calls != 0 {
		t.Fatal("substring match must not trigger a prediction")
	}
}

func TestRespondRankerFailureFallsBackToPlainReply(t *testing.T) {
	svc := newTestAgentService(&stubGenerator{}, &stubConversationalist{}, &stubRanker{err: errors.New("api down")}, &stubInteractions{})

	reply := svc.Respond(context.Background(), "user-1", "hello", "")
	if reply.Message != capabilityReply {
		t.Fatalf("expected plain capability reply, got %q", reply.Message)
	}
}

func TestRespondPipelineFailureApologizes(t *testing.T) {
	inter := &stubInteractions{}
	svc := newTestAgentService(&stubGenerator{err: errors.New("upstream down")}, &stubConversationalist{}, &stubRanker{}, inter)

	reply := svc.Respond(context.Background(), "user-1", "how is bitcoin doing?", "")
	if reply.Message != apologyReply || reply.Confidence != 0 {
		t.Fatalf("expected apology reply, got %+v", reply)
	}
	if inter.calls != 1 {
		t.Fatal("failed replies are still logged")
	}
}

func TestRespondConverseFailureFallsBackToSummary(t *testing.T) {
	svc := newTestAgentService(
		&stubGenerator{rec: sampleRecord()},
		&stubConversationalist{err: errors.New("rate limited")},
		&stubRanker{},
		&stubInteractions{},
	)

	reply := svc.Respond(context.Background(), "user-1", "bitcoin outlook?", "")
	if !strings.Contains(reply.Message, "bullish") || !strings.Contains(reply.Message, "75%") {
		t.Fatalf("expected deterministic summary fallback, got %q", reply.Message)
	}
	if reply.Confidence != 75 {
		t.Fatalf("expected prediction confidence kept, got %f", reply.Confidence)
	}
}

func TestRespondInteractionLogFailureIsBestEffort(t *testing.T) {
	svc := newTestAgentService(
		&stubGenerator{rec: sampleRecord()},
		&stubConversationalist{reply: "ok"},
		&stubRanker{},
		&stubInteractions{err: errors.New("storage down")},
	)

	reply := svc.Respond(context.Background(), "user-1", "bitcoin?", "")
	if reply.Message != "ok" {
		t.Fatalf("interaction log failure must not change the reply, got %q", reply.Message)
	}
}
