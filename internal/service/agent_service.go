package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"lunar-oracle/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	agentTopAssets = 5

	apologyReply = "Sorry, I'm having trouble analyzing the market right now. Please try again in a moment."

	capabilityReply = "I can analyze social sentiment and generate price predictions for major cryptocurrencies. " +
		"Ask me about a specific coin, for example: \"What's your outlook on bitcoin?\""
)

type PredictionGenerator interface {
	Generate(ctx context.Context, symbol string, timeframeHours int) (*domain.PredictionRecord, error)
}

type Conversationalist interface {
	Converse(ctx context.Context, message, marketContext string) (string, error)
}

type AssetRanker interface {
	CoinsList(ctx context.Context, limit int) ([]domain.RankedAsset, error)
}

type InteractionStore interface {
	InsertInteraction(ctx context.Context, userID, message, response string, confidence float64) error
}

// AgentService turns free-form chat into prediction-backed replies. When a
// message names a known asset the full pipeline runs and the verdict is
// restyled conversationally; otherwise the agent describes what it can do.
type AgentService struct {
	tracer       trace.Tracer
	predictions  PredictionGenerator
	advisor      Conversationalist
	ranker       AssetRanker
	interactions InteractionStore
}

func NewAgentService(
	tracer trace.Tracer,
	predictions PredictionGenerator,
	advisor Conversationalist,
	ranker AssetRanker,
	interactions InteractionStore,
) *AgentService {
	return &AgentService{
		tracer:       tracer,
		predictions:  predictions,
		advisor:      advisor,
		ranker:       ranker,
		interactions: interactions,
	}
}

// Respond never returns an error: chat failures become an apology reply so
// the conversation surface stays up even when the pipeline is down.
func (s *AgentService) Respond(ctx context.Context, userID, message, symbolHint string) domain.AgentReply {
	_, span := s.tracer.Start(ctx, "agent-service.respond")
	defer span.End()

	reply := s.buildReply(ctx, message, symbolHint)

	if s.interactions != nil {
		if err := s.interactions.InsertInteraction(ctx, userID, message, reply.Message, reply.Confidence); err != nil {
			log.Printf("interaction log failed for user %s: %v", userID, err)
		}
	}
	return reply
}

func (s *AgentService) buildReply(ctx context.Context, message, symbolHint string) domain.AgentReply {
	symbol := strings.TrimSpace(symbolHint)
	if symbol != "" {
		symbol = domain.NormalizeSymbol(symbol)
	} else {
		symbol = domain.DetectSymbol(message)
	}

	if symbol == "" {
		return domain.AgentReply{
			Message:   s.capabilityMessage(ctx),
			Timestamp: time.Now().UTC(),
		}
	}

	if s.predictions == nil {
		return domain.AgentReply{Message: apologyReply, Timestamp: time.Now().UTC()}
	}

	rec, err := s.predictions.Generate(ctx, symbol, 0)
	if err != nil {
		log.Printf("agent prediction failed for %s: %v", symbol, err)
		return domain.AgentReply{Message: apologyReply, Timestamp: time.Now().UTC()}
	}

	text := summarizeRecord(rec)
	if s.advisor != nil {
		styled, err := s.advisor.Converse(ctx, message, text)
		if err != nil {
			log.Printf("conversational restyle failed for %s: %v", symbol, err)
		} else if styled != "" {
			text = styled
		}
	}

	return domain.AgentReply{
		Message:    text,
		Confidence: rec.Confidence,
		Timestamp:  time.Now().UTC(),
	}
}

func (s *AgentService) capabilityMessage(ctx context.Context) string {
	if s.ranker == nil {
		return capabilityReply
	}
	assets, err := s.ranker.CoinsList(ctx, agentTopAssets)
	if err != nil || len(assets) == 0 {
		return capabilityReply
	}
	names := make([]string, 0, len(assets))
	for _, a := range assets {
		names = append(names, a.Name)
	}
	return capabilityReply + " Trending right now: " + strings.Join(names, ", ") + "."
}

func summarizeRecord(rec *domain.PredictionRecord) string {
	return fmt.Sprintf(
		"My %d-hour outlook on %s is %s with %.0f%% confidence, targeting a %.1f%% move. %s",
		rec.TimeframeHours, rec.Symbol, rec.Direction, rec.Confidence, rec.TargetChange, rec.Reasoning,
	)
}
