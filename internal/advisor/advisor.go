package advisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lunar-oracle/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/trace"
)

const (
	predictTimeout     = 30 * time.Second
	predictTemperature = 0.2
	predictMaxTokens   = 700
	converseMaxTokens  = 400
	maxPromptPosts     = 5
	maxPostChars       = 200
)

// ErrNotConfigured is returned when no reasoning-provider key was supplied.
// Unlike the storage credentials there is no fallback for this dependency.
var ErrNotConfigured = errors.New("advisor not configured: set OPENAI_API_KEY")

// LLMClient is the minimal completion surface the advisor needs. Tests
// substitute fakes; production uses the OpenAI implementation below.
type LLMClient interface {
	Complete(ctx context.Context, model, system, user string, temperature float64, maxTokens int64) (string, error)
}

type openAIClient struct {
	client openai.Client
}

// NewOpenAIClient returns an OpenAI-backed LLMClient, or nil when the key is
// empty so callers can detect the unconfigured state.
func NewOpenAIClient(apiKey string) LLMClient {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return &openAIClient{client: openai.NewClient(option.WithAPIKey(apiKey))}
}

func (c *openAIClient) Complete(ctx context.Context, model, system, user string, temperature float64, maxTokens int64) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// Advisor wraps the reasoning provider: it builds bounded evidence prompts,
// invokes the model with low-variance settings, and repairs the output into
// a strict Verdict.
type Advisor struct {
	tracer  trace.Tracer
	llm     LLMClient
	model   string
	timeout time.Duration
}

func New(tracer trace.Tracer, llm LLMClient, model string) *Advisor {
	return &Advisor{
		tracer:  tracer,
		llm:     llm,
		model:   model,
		timeout: predictTimeout,
	}
}

// Configured reports whether a reasoning provider is available.
func (a *Advisor) Configured() bool {
	return a != nil && a.llm != nil
}

// Predict asks the model for a structured verdict on the evidence bundle.
// The reasoning step is best-effort by contract: transport failures,
// timeouts, and undecodable output all degrade to the neutral verdict. The
// only returned error is the unconfigured-provider case.
func (a *Advisor) Predict(ctx context.Context, bundle domain.EvidenceBundle) (*domain.Verdict, error) {
	if !a.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, span := a.tracer.Start(ctx, "advisor.predict")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.llm.Complete(ctx, a.model, predictionSystemPrompt, buildPredictionPrompt(bundle), predictTemperature, predictMaxTokens)
	if err != nil {
		log.Printf("advisor completion error for %s: %v", bundle.Symbol, err)
		return domain.NeutralVerdict("Reasoning service unavailable, defaulting to neutral"), nil
	}
	return ParseVerdict(text), nil
}

// Converse is the one-shot freeform chat path. No structured-output
// requirement, and unlike Predict its failures propagate so the caller can
// substitute its canned apology.
func (a *Advisor) Converse(ctx context.Context, message, marketContext string) (string, error) {
	if !a.Configured() {
		return "", ErrNotConfigured
	}

	ctx, span := a.tracer.Start(ctx, "advisor.converse")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := message
	if marketContext != "" {
		prompt = message + "\n\nCurrent market context you can reference:\n" + marketContext
	}
	reply, err := a.llm.Complete(ctx, a.model, conversationSystemPrompt, prompt, 0.7, converseMaxTokens)
	if err != nil {
		return "", fmt.Errorf("conversation completion: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

const predictionSystemPrompt = `You are LunarOracle, an expert crypto analyst. ` +
	`You combine social sentiment metrics with market data to predict short-term price direction. ` +
	`You respond with a single JSON object and nothing else.`

const conversationSystemPrompt = `You are LunarOracle, an expert crypto analyst AI. ` +
	`You are helpful, informative, and engaging. Keep responses concise but insightful, ` +
	`and reference specific metrics when they are relevant.`

// buildPredictionPrompt renders the evidence bundle into a deterministic
// prompt. Every numeric field is enumerated with its semantic label so the
// model cannot silently ignore one.
func buildPredictionPrompt(bundle domain.EvidenceBundle) string {
	snap := bundle.Snapshot
	var sb strings.Builder

	fmt.Fprintf(&sb, "Analyze this social and market data for %s and predict its price direction over the next %d hours.\n\n",
		strings.ToUpper(bundle.Symbol), bundle.TimeframeHours)
	fmt.Fprintf(&sb, "Data:\n")
	fmt.Fprintf(&sb, "- Galaxy Score: %.1f/100 (composite social+market momentum)\n", snap.GalaxyScore)
	fmt.Fprintf(&sb, "- Social Dominance: %.2f%% (share of all tracked social volume)\n", snap.SocialDominance)
	fmt.Fprintf(&sb, "- Sentiment: %.1f/100 (bullish vs bearish post ratio)\n", snap.Sentiment)
	fmt.Fprintf(&sb, "- Active Posts: %d\n", snap.PostsActive)
	fmt.Fprintf(&sb, "- Active Contributors: %d\n", snap.ContributorsActive)
	fmt.Fprintf(&sb, "- Interactions (24h): %d\n", snap.Interactions)
	fmt.Fprintf(&sb, "- Price: $%.4f\n", snap.Price)
	fmt.Fprintf(&sb, "- 24h Change: %+.2f%%\n\n", snap.PercentChange24h)
	fmt.Fprintf(&sb, "Your historical prediction accuracy for this asset is %.0f%%.\n", bundle.HistoricalAccuracy)

	if len(bundle.RecentPosts) > 0 {
		sb.WriteString("\nRecent posts (sample):\n")
		for i, post := range bundle.RecentPosts {
			if i >= maxPromptPosts {
				break
			}
			text := post.Text
			if len(text) > maxPostChars {
				text = text[:maxPostChars]
			}
			fmt.Fprintf(&sb, "- (%d interactions) %s\n", post.Interactions, text)
		}
	}

	sb.WriteString(`
Rules:
- Only answer "bullish" or "bearish" when your confidence is at least 65. Otherwise answer "neutral".
- confidence is a number from 0 to 100.
- targetChange is the expected percent price change over the timeframe (signed).

Respond with only this JSON object:
{"prediction":"bullish|bearish|neutral","confidence":75,"targetChange":5.2,"reasoning":"...","keyFactors":["..."],"riskFactors":["..."]}`)

	return sb.String()
}
