package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"lunar-oracle/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const d1APIBase = "https://api.cloudflare.com/client/v4"

// D1Store is the durable Store variant backed by the Cloudflare D1 HTTP
// query API. Every write is one parameterized insert; every failure is a
// hard error to the caller.
type D1Store struct {
	baseURL  string
	apiToken string
	client   *http.Client
	tracer   trace.Tracer
}

func NewD1Store(accountID, databaseID, apiToken string, tracer trace.Tracer) *D1Store {
	return NewD1StoreWithBaseURL(
		fmt.Sprintf("%s/accounts/%s/d1/database/%s", d1APIBase, accountID, databaseID),
		apiToken,
		tracer,
	)
}

func NewD1StoreWithBaseURL(baseURL, apiToken string, tracer trace.Tracer) *D1Store {
	return &D1Store{
		baseURL:  baseURL,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 15 * time.Second},
		tracer:   tracer,
	}
}

type d1QueryResult struct {
	Results []map[string]any `json:"results"`
	Success bool             `json:"success"`
	Meta    struct {
		LastRowID int64 `json:"last_row_id"`
	} `json:"meta"`
}

type d1Response struct {
	Result  []d1QueryResult `json:"result"`
	Success bool            `json:"success"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (s *D1Store) query(ctx context.Context, sql string, params ...any) (*d1QueryResult, error) {
	body, err := json.Marshal(map[string]any{"sql": sql, "params": params})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("d1 api status %d: %s", resp.StatusCode, string(snippet))
	}

	var decoded d1Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode d1 response: %w", err)
	}
	if !decoded.Success || len(decoded.Result) == 0 {
		if len(decoded.Errors) > 0 {
			return nil, fmt.Errorf("d1 query failed: %s", decoded.Errors[0].Message)
		}
		return nil, fmt.Errorf("d1 query failed")
	}
	return &decoded.Result[0], nil
}

func (s *D1Store) InsertPrediction(ctx context.Context, rec *domain.PredictionRecord) (string, error) {
	_, span := s.tracer.Start(ctx, "d1-store.insert-prediction")
	defer span.End()

	result, err := s.query(ctx,
		`INSERT INTO predictions (
			crypto_symbol, prediction_type, confidence_score, target_change,
			timeframe_hours, reasoning, galaxy_score, social_dominance,
			sentiment_spike, created_at, expires_at, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Symbol,
		string(rec.Direction),
		rec.Confidence,
		rec.TargetChange,
		rec.TimeframeHours,
		rec.Reasoning,
		rec.GalaxyScore,
		rec.SocialDominance,
		rec.Sentiment,
		rec.CreatedAt.UTC().Format(time.RFC3339),
		rec.ExpiresAt.UTC().Format(time.RFC3339),
		rec.Status,
	)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(result.Meta.LastRowID, 10), nil
}

func (s *D1Store) ListPredictions(ctx context.Context, symbol string, limit int) ([]domain.PredictionRecord, error) {
	_, span := s.tracer.Start(ctx, "d1-store.list-predictions")
	defer span.End()

	limit = clampPageSize(limit)

	var (
		result *d1QueryResult
		err    error
	)
	if symbol != "" {
		result, err = s.query(ctx,
			`SELECT * FROM predictions WHERE crypto_symbol = ? ORDER BY created_at DESC LIMIT ?`,
			symbol, limit,
		)
	} else {
		result, err = s.query(ctx,
			`SELECT * FROM predictions ORDER BY created_at DESC LIMIT ?`,
			limit,
		)
	}
	if err != nil {
		return nil, err
	}

	records := make([]domain.PredictionRecord, 0, len(result.Results))
	for _, row := range result.Results {
		records = append(records, rowToRecord(row))
	}
	return records, nil
}

func (s *D1Store) InsertSnapshot(ctx context.Context, snap domain.SocialSnapshot) error {
	_, span := s.tracer.Start(ctx, "d1-store.insert-snapshot")
	defer span.End()

	_, err := s.query(ctx,
		`INSERT INTO social_metrics (
			crypto_symbol, galaxy_score, social_dominance, sentiment_score,
			posts_active, contributors_active, interactions, price_at_time, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Symbol,
		snap.GalaxyScore,
		snap.SocialDominance,
		snap.Sentiment,
		snap.PostsActive,
		snap.ContributorsActive,
		snap.Interactions,
		snap.Price,
		snap.Timestamp.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *D1Store) InsertInteraction(ctx context.Context, userID, message, response string, confidence float64) error {
	_, span := s.tracer.Start(ctx, "d1-store.insert-interaction")
	defer span.End()

	_, err := s.query(ctx,
		`INSERT INTO agent_interactions (user_id, interaction_type, message, response, confidence)
		 VALUES (?, 'chat', ?, ?, ?)`,
		userID, message, response, confidence,
	)
	return err
}

func (s *D1Store) RollingAccuracy(ctx context.Context, symbol string) (float64, error) {
	_, span := s.tracer.Start(ctx, "d1-store.rolling-accuracy")
	defer span.End()

	result, err := s.query(ctx,
		`SELECT AVG(accuracy_score) AS avg_accuracy FROM predictions
		 WHERE crypto_symbol = ? AND accuracy_score IS NOT NULL`,
		symbol,
	)
	if err != nil {
		return 0, err
	}
	if len(result.Results) == 0 {
		return domain.DefaultAccuracy, nil
	}
	if avg, ok := rowFloat(result.Results[0], "avg_accuracy"); ok {
		return avg, nil
	}
	return domain.DefaultAccuracy, nil
}

func (s *D1Store) ListExpiredActive(ctx context.Context, limit int) ([]domain.PredictionRecord, error) {
	_, span := s.tracer.Start(ctx, "d1-store.list-expired-active")
	defer span.End()

	if limit <= 0 {
		limit = DefaultPageSize
	}
	result, err := s.query(ctx,
		`SELECT * FROM predictions
		 WHERE status = 'active' AND expires_at <= ?
		 ORDER BY expires_at ASC LIMIT ?`,
		time.Now().UTC().Format(time.RFC3339), limit,
	)
	if err != nil {
		return nil, err
	}

	records := make([]domain.PredictionRecord, 0, len(result.Results))
	for _, row := range result.Results {
		records = append(records, rowToRecord(row))
	}
	return records, nil
}

func (s *D1Store) ResolvePrediction(ctx context.Context, id string, actualChange, accuracyScore float64) error {
	_, span := s.tracer.Start(ctx, "d1-store.resolve-prediction")
	defer span.End()

	_, err := s.query(ctx,
		`UPDATE predictions
		 SET actual_change = ?, accuracy_score = ?, status = 'resolved'
		 WHERE id = ?`,
		actualChange, accuracyScore, id,
	)
	return err
}

// rowToRecord reconstructs a PredictionRecord from a loosely-typed D1 row.
func rowToRecord(row map[string]any) domain.PredictionRecord {
	rec := domain.PredictionRecord{
		Symbol:          rowString(row, "crypto_symbol"),
		Direction:       domain.Direction(rowString(row, "prediction_type")),
		Reasoning:       rowString(row, "reasoning"),
		Status:          rowString(row, "status"),
		CreatedAt:       rowTime(row, "created_at"),
		ExpiresAt:       rowTime(row, "expires_at"),
		TimeframeHours:  int(rowFloatOr(row, 0, "timeframe_hours")),
		Confidence:      rowFloatOr(row, 0, "confidence_score"),
		TargetChange:    rowFloatOr(row, 0, "target_change"),
		GalaxyScore:     rowFloatOr(row, 0, "galaxy_score"),
		SocialDominance: rowFloatOr(row, 0, "social_dominance"),
		Sentiment:       rowFloatOr(row, 0, "sentiment_spike"),
	}
	if id, ok := rowFloat(row, "id"); ok {
		rec.ID = strconv.FormatInt(int64(id), 10)
	}
	if actual, ok := rowFloat(row, "actual_change"); ok {
		rec.ActualChange = &actual
	}
	if score, ok := rowFloat(row, "accuracy_score"); ok {
		rec.AccuracyScore = &score
	}
	return rec
}

func rowFloat(row map[string]any, key string) (float64, bool) {
	v, ok := row[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func rowFloatOr(row map[string]any, def float64, key string) float64 {
	if f, ok := rowFloat(row, key); ok {
		return f
	}
	return def
}

func rowString(row map[string]any, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}

func rowTime(row map[string]any, key string) time.Time {
	raw := rowString(row, key)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
