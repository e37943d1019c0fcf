package repository

import (
	"context"
	"strconv"
	"time"

	"lunar-oracle/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// PostgresStore is the durable Store variant backed by pgx.
type PostgresStore struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewPostgresStore(pool PgxPool, tracer trace.Tracer) *PostgresStore {
	return &PostgresStore{pool: pool, tracer: tracer}
}

func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "store.run-migrations")
	defer span.End()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id BIGSERIAL PRIMARY KEY,
			crypto_symbol TEXT NOT NULL,
			prediction_type TEXT NOT NULL,
			confidence_score DOUBLE PRECISION NOT NULL,
			target_change DOUBLE PRECISION NOT NULL,
			timeframe_hours INT NOT NULL,
			reasoning TEXT NOT NULL DEFAULT '',
			galaxy_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			social_dominance DOUBLE PRECISION NOT NULL DEFAULT 0,
			sentiment_spike DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			actual_change DOUBLE PRECISION,
			accuracy_score DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_symbol_created
			ON predictions (crypto_symbol, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS social_metrics (
			id BIGSERIAL PRIMARY KEY,
			crypto_symbol TEXT NOT NULL,
			galaxy_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			social_dominance DOUBLE PRECISION NOT NULL DEFAULT 0,
			sentiment_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			posts_active BIGINT NOT NULL DEFAULT 0,
			contributors_active BIGINT NOT NULL DEFAULT 0,
			interactions BIGINT NOT NULL DEFAULT 0,
			price_at_time DOUBLE PRECISION NOT NULL DEFAULT 0,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS agent_interactions (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			interaction_type TEXT NOT NULL DEFAULT 'chat',
			message TEXT NOT NULL,
			response TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) InsertPrediction(ctx context.Context, rec *domain.PredictionRecord) (string, error) {
	_, span := s.tracer.Start(ctx, "store.insert-prediction")
	defer span.End()

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO predictions (
			crypto_symbol, prediction_type, confidence_score, target_change,
			timeframe_hours, reasoning, galaxy_score, social_dominance,
			sentiment_spike, created_at, expires_at, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		rec.Symbol,
		string(rec.Direction),
		rec.Confidence,
		rec.TargetChange,
		rec.TimeframeHours,
		rec.Reasoning,
		rec.GalaxyScore,
		rec.SocialDominance,
		rec.Sentiment,
		rec.CreatedAt.UTC(),
		rec.ExpiresAt.UTC(),
		rec.Status,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *PostgresStore) ListPredictions(ctx context.Context, symbol string, limit int) ([]domain.PredictionRecord, error) {
	_, span := s.tracer.Start(ctx, "store.list-predictions")
	defer span.End()

	limit = clampPageSize(limit)

	query := `SELECT id, crypto_symbol, prediction_type, confidence_score, target_change,
			timeframe_hours, reasoning, galaxy_score, social_dominance, sentiment_spike,
			created_at, expires_at, status, actual_change, accuracy_score
		FROM predictions`
	args := []any{}
	if symbol != "" {
		query += ` WHERE crypto_symbol = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, symbol, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.PredictionRecord, 0, limit)
	for rows.Next() {
		var (
			rec       domain.PredictionRecord
			id        int64
			direction string
			createdAt time.Time
			expiresAt time.Time
		)
		if err := rows.Scan(
			&id,
			&rec.Symbol,
			&direction,
			&rec.Confidence,
			&rec.TargetChange,
			&rec.TimeframeHours,
			&rec.Reasoning,
			&rec.GalaxyScore,
			&rec.SocialDominance,
			&rec.Sentiment,
			&createdAt,
			&expiresAt,
			&rec.Status,
			&rec.ActualChange,
			&rec.AccuracyScore,
		); err != nil {
			return nil, err
		}
		rec.ID = strconv.FormatInt(id, 10)
		rec.Direction = domain.Direction(direction)
		rec.CreatedAt = createdAt.UTC()
		rec.ExpiresAt = expiresAt.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) InsertSnapshot(ctx context.Context, snap domain.SocialSnapshot) error {
	_, span := s.tracer.Start(ctx, "store.insert-snapshot")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO social_metrics (
			crypto_symbol, galaxy_score, social_dominance, sentiment_score,
			posts_active, contributors_active, interactions, price_at_time, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		snap.Symbol,
		snap.GalaxyScore,
		snap.SocialDominance,
		snap.Sentiment,
		snap.PostsActive,
		snap.ContributorsActive,
		snap.Interactions,
		snap.Price,
		snap.Timestamp.UTC(),
	)
	return err
}

func (s *PostgresStore) InsertInteraction(ctx context.Context, userID, message, response string, confidence float64) error {
	_, span := s.tracer.Start(ctx, "store.insert-interaction")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO agent_interactions (user_id, interaction_type, message, response, confidence)
		 VALUES ($1, 'chat', $2, $3, $4)`,
		userID, message, response, confidence,
	)
	return err
}

func (s *PostgresStore) RollingAccuracy(ctx context.Context, symbol string) (float64, error) {
	_, span := s.tracer.Start(ctx, "store.rolling-accuracy")
	defer span.End()

	var avg *float64
	err := s.pool.QueryRow(ctx,
		`SELECT AVG(accuracy_score) FROM predictions
		 WHERE crypto_symbol = $1 AND accuracy_score IS NOT NULL`,
		symbol,
	).Scan(&avg)
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return domain.DefaultAccuracy, nil
	}
	return *avg, nil
}

func (s *PostgresStore) ListExpiredActive(ctx context.Context, limit int) ([]domain.PredictionRecord, error) {
	_, span := s.tracer.Start(ctx, "store.list-expired-active")
	defer span.End()

	if limit <= 0 {
		limit = DefaultPageSize
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, crypto_symbol, prediction_type, confidence_score, target_change,
			timeframe_hours, reasoning, galaxy_score, social_dominance, sentiment_spike,
			created_at, expires_at, status, actual_change, accuracy_score
		 FROM predictions
		 WHERE status = 'active' AND expires_at <= NOW()
		 ORDER BY expires_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.PredictionRecord, 0, limit)
	for rows.Next() {
		var (
			rec       domain.PredictionRecord
			id        int64
			direction string
			createdAt time.Time
			expiresAt time.Time
		)
		if err := rows.Scan(
			&id,
			&rec.Symbol,
			&direction,
			&rec.Confidence,
			&rec.TargetChange,
			&rec.TimeframeHours,
			&rec.Reasoning,
			&rec.GalaxyScore,
			&rec.SocialDominance,
			&rec.Sentiment,
			&createdAt,
			&expiresAt,
			&rec.Status,
			&rec.ActualChange,
			&rec.AccuracyScore,
		); err != nil {
			return nil, err
		}
		rec.ID = strconv.FormatInt(id, 10)
		rec.Direction = domain.Direction(direction)
		rec.CreatedAt = createdAt.UTC()
		rec.ExpiresAt = expiresAt.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) ResolvePrediction(ctx context.Context, id string, actualChange, accuracyScore float64) error {
	_, span := s.tracer.Start(ctx, "store.resolve-prediction")
	defer span.End()

	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE predictions
		 SET actual_change = $1, accuracy_score = $2, status = 'resolved'
		 WHERE id = $3`,
		actualChange, accuracyScore, numericID,
	)
	return err
}
