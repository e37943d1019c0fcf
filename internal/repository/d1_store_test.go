package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lunar-oracle/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type d1Capture struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

func newD1TestServer(t *testing.T, captured *d1Capture, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer d1-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
}

func newD1TestStore(baseURL string) *D1Store {
	return NewD1StoreWithBaseURL(baseURL, "d1-token", trace.NewNoopTracerProvider().Tracer("test"))
}

func TestD1InsertPredictionReturnsLastRowID(t *testing.T) {
	var captured d1Capture
	srv := newD1TestServer(t, &captured,
		`{"success":true,"result":[{"success":true,"results":[],"meta":{"last_row_id":17}}]}`)
	defer srv.Close()

	store := newD1TestStore(srv.URL)
	now := time.Now().UTC()
	id, err := store.InsertPrediction(context.Background(), &domain.PredictionRecord{
		Symbol:         "solana",
		Direction:      domain.DirectionBearish,
		Confidence:     68,
		TargetChange:   -3.5,
		TimeframeHours: 24,
		CreatedAt:      now,
		ExpiresAt:      now.Add(24 * time.Hour),
		Status:         domain.StatusActive,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "17" {
		t.Fatalf("expected id 17, got %q", id)
	}
	if len(captured.Params) != 12 {
		t.Fatalf("expected 12 bound params, got %d", len(captured.Params))
	}
	if captured.Params[0] != "solana" || captured.Params[1] != "bearish" {
		t.Fatalf("unexpected params: %v", captured.Params)
	}
}

func TestD1ListPredictionsDecodesRows(t *testing.T) {
	srv := newD1TestServer(t, nil,
		`{"success":true,"result":[{"success":true,"results":[
			{"id":9,"crypto_symbol":"bitcoin","prediction_type":"bullish","confidence_score":75,
			 "target_change":5.2,"timeframe_hours":24,"reasoning":"momentum","galaxy_score":70,
			 "social_dominance":12.5,"sentiment_spike":68,"created_at":"2026-08-29T10:00:00Z",
			 "expires_at":"2026-08-30 10:00:00","status":"resolved","actual_change":4.8,"accuracy_score":100}
		],"meta":{}}]}`)
	defer srv.Close()

	store := newD1TestStore(srv.URL)
	records, err := store.ListPredictions(context.Background(), "bitcoin", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.ID != "9" || rec.Direction != domain.DirectionBullish || rec.Confidence != 75 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.CreatedAt.IsZero() || rec.ExpiresAt.IsZero() {
		t.Fatalf("expected both timestamp layouts parsed: %+v", rec)
	}
	if rec.ActualChange == nil || *rec.ActualChange != 4.8 || rec.AccuracyScore == nil || *rec.AccuracyScore != 100 {
		t.Fatalf("expected resolution fields decoded: %+v", rec)
	}
}

func TestD1ListPredictionsNullResolutionFields(t *testing.T) {
	srv := newD1TestServer(t, nil,
		`{"success":true,"result":[{"success":true,"results":[
			{"id":3,"crypto_symbol":"bitcoin","prediction_type":"neutral","confidence_score":50,
			 "status":"active","actual_change":null,"accuracy_score":null}
		],"meta":{}}]}`)
	defer srv.Close()

	store := newD1TestStore(srv.URL)
	records, err := store.ListPredictions(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].ActualChange != nil || records[0].AccuracyScore != nil {
		t.Fatalf("expected nil resolution fields: %+v", records[0])
	}
}

func TestD1RollingAccuracyDefaultsWhenNull(t *testing.T) {
	srv := newD1TestServer(t, nil,
		`{"success":true,"result":[{"success":true,"results":[{"avg_accuracy":null}],"meta":{}}]}`)
	defer srv.Close()

	store := newD1TestStore(srv.URL)
	acc, err := store.RollingAccuracy(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc != domain.DefaultAccuracy {
		t.Fatalf("expected default accuracy, got %f", acc)
	}
}

func TestD1QueryErrorSurfaced(t *testing.T) {
	srv := newD1TestServer(t, nil,
		`{"success":false,"result":[],"errors":[{"message":"no such table: predictions"}]}`)
	defer srv.Close()

	store := newD1TestStore(srv.URL)
	if _, err := store.ListPredictions(context.Background(), "", 10); err == nil {
		t.Fatal("expected api error surfaced")
	}
}

func TestD1HTTPStatusErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "authentication error", http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := newD1TestStore(srv.URL)
	if err := store.InsertSnapshot(context.Background(), domain.SocialSnapshot{Symbol: "bitcoin"}); err == nil {
		t.Fatal("expected status error surfaced")
	}
}
