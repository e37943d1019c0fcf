package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"lunar-oracle/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL = "https://lunarcrush.com/api4"
	requestTimeout = 15 * time.Second
)

// Neutral defaults applied when the upstream payload omits a field. Mid-scale
// values for the 0-100 composites, zero for counts and price.
const (
	defaultGalaxyScore = 50.0
	defaultSentiment   = 50.0
	defaultDominance   = 0.0
)

// LunarCrushProvider fetches social and market metrics from the LunarCrush
// HTTP API and normalizes its loosely-typed payloads into domain types.
type LunarCrushProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	tracer  trace.Tracer
}

func NewLunarCrushProvider(apiKey string, tracer trace.Tracer) *LunarCrushProvider {
	return NewLunarCrushProviderWithBaseURL(apiKey, defaultBaseURL, tracer)
}

func NewLunarCrushProviderWithBaseURL(apiKey, baseURL string, tracer trace.Tracer) *LunarCrushProvider {
	return &LunarCrushProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
		tracer:  tracer,
	}
}

// Topic fetches the current social snapshot for a symbol. Strict: transport
// and decode failures surface as errors. Use TopicOrDefault on the advisory
// path.
func (p *LunarCrushProvider) Topic(ctx context.Context, symbol string) (domain.SocialSnapshot, error) {
	_, span := p.tracer.Start(ctx, "lunarcrush.topic")
	defer span.End()

	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return domain.SocialSnapshot{}, fmt.Errorf("symbol is required")
	}

	var payload struct {
		Data map[string]any `json:"data"`
	}
	if err := p.getJSON(ctx, "/public/topic/"+url.PathEscape(symbol)+"/v1", &payload); err != nil {
		return domain.SocialSnapshot{}, fmt.Errorf("fetch topic %s: %w", symbol, err)
	}
	if payload.Data == nil {
		return domain.SocialSnapshot{}, fmt.Errorf("fetch topic %s: empty payload", symbol)
	}

	return normalizeSnapshot(symbol, payload.Data), nil
}

// TopicOrDefault is the lenient variant used by the prediction pipeline: on
// any failure it logs and returns the documented neutral-default snapshot so
// downstream prompt construction never sees missing fields.
func (p *LunarCrushProvider) TopicOrDefault(ctx context.Context, symbol string) domain.SocialSnapshot {
	snap, err := p.Topic(ctx, symbol)
	if err != nil {
		log.Printf("lunarcrush topic error for %s, using defaults: %v", symbol, err)
		return DefaultSnapshot(domain.NormalizeSymbol(symbol))
	}
	return snap
}

// TopicPosts samples recent posts for a symbol. Callers treat failures as
// best-effort; posts only enrich the prompt.
func (p *LunarCrushProvider) TopicPosts(ctx context.Context, symbol, window string) ([]domain.SocialPost, error) {
	_, span := p.tracer.Start(ctx, "lunarcrush.topic-posts")
	defer span.End()

	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if window == "" {
		window = "1d"
	}

	var payload struct {
		Data []map[string]any `json:"data"`
	}
	path := "/public/topic/" + url.PathEscape(symbol) + "/posts/v1?interval=" + url.QueryEscape(window)
	if err := p.getJSON(ctx, path, &payload); err != nil {
		return nil, fmt.Errorf("fetch posts for %s: %w", symbol, err)
	}

	posts := make([]domain.SocialPost, 0, len(payload.Data))
	for _, raw := range payload.Data {
		text := stringOr(raw, "", "post_title", "text", "body")
		if text == "" {
			continue
		}
		posts = append(posts, domain.SocialPost{
			Text:         text,
			Interactions: int64(floatOr(raw, 0, "interactions_24h", "interactions", "interactions_total")),
		})
	}
	return posts, nil
}

// CoinsList returns the top ranked assets by social activity.
func (p *LunarCrushProvider) CoinsList(ctx context.Context, limit int) ([]domain.RankedAsset, error) {
	return p.coinsList(ctx, limit)
}

// Healthy verifies the API key and connectivity with a minimal request.
// Strict by design: the health-check path must surface provider failures.
func (p *LunarCrushProvider) Healthy(ctx context.Context) error {
	_, err := p.coinsList(ctx, 1)
	return err
}

func (p *LunarCrushProvider) coinsList(ctx context.Context, limit int) ([]domain.RankedAsset, error) {
	_, span := p.tracer.Start(ctx, "lunarcrush.coins-list")
	defer span.End()

	if limit <= 0 {
		limit = 10
	}

	var payload struct {
		Data []map[string]any `json:"data"`
	}
	if err := p.getJSON(ctx, "/public/coins/list/v1?limit="+strconv.Itoa(limit), &payload); err != nil {
		return nil, fmt.Errorf("fetch coins list: %w", err)
	}

	assets := make([]domain.RankedAsset, 0, len(payload.Data))
	for _, raw := range payload.Data {
		assets = append(assets, domain.RankedAsset{
			Name:   stringOr(raw, "", "name"),
			Symbol: stringOr(raw, "", "symbol"),
		})
	}
	return assets, nil
}

func (p *LunarCrushProvider) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// DefaultSnapshot is the documented neutral-default record returned when the
// provider is unavailable.
func DefaultSnapshot(symbol string) domain.SocialSnapshot {
	return domain.SocialSnapshot{
		Symbol:      symbol,
		GalaxyScore: defaultGalaxyScore,
		Sentiment:   defaultSentiment,
		Timestamp:   time.Now().UTC(),
	}
}

// normalizeSnapshot maps the provider's loosely-typed topic payload onto the
// strict SocialSnapshot type. The API has shipped several field-name variants
// over time (e.g. galaxy_score vs gs), so each field probes its known names
// in order and falls back to a neutral default.
func normalizeSnapshot(symbol string, raw map[string]any) domain.SocialSnapshot {
	return domain.SocialSnapshot{
		Symbol:             symbol,
		GalaxyScore:        clampRange(floatOr(raw, defaultGalaxyScore, "galaxy_score", "gs"), 0, 100),
		SocialDominance:    clampRange(floatOr(raw, defaultDominance, "social_dominance", "sd"), 0, 100),
		Sentiment:          clampRange(floatOr(raw, defaultSentiment, "sentiment", "average_sentiment"), 0, 100),
		PostsActive:        nonNegative(floatOr(raw, 0, "num_posts", "posts_active")),
		ContributorsActive: nonNegative(floatOr(raw, 0, "num_contributors", "contributors_active")),
		Interactions:       nonNegative(floatOr(raw, 0, "interactions_24h", "interactions")),
		Price:              clampFloor(floatOr(raw, 0, "price", "close"), 0),
		PercentChange24h:   floatOr(raw, 0, "percent_change_24h", "pc_24h"),
		Timestamp:          time.Now().UTC(),
	}
}

func floatOr(raw map[string]any, def float64, keys ...string) float64 {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f
			}
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	}
	return def
}

func stringOr(raw map[string]any, def string, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok && v != "" {
			return v
		}
	}
	return def
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloor(v, lo float64) float64 {
	if v < lo {
		return lo
	}
	return v
}

func nonNegative(v float64) int64 {
	if v < 0 {
		return 0
	}
	return int64(v)
}
