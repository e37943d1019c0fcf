package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *LunarCrushProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLunarCrushProviderWithBaseURL("test-key", srv.URL, trace.NewNoopTracerProvider().Tracer("test"))
}

func TestTopicNormalizesPayload(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/public/topic/bitcoin/v1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", got)
		}
		w.Write([]byte(`{"data":{
			"galaxy_score": 75.5,
			"social_dominance": 12.2,
			"sentiment": 68,
			"num_posts": 1200,
			"num_contributors": 300,
			"interactions_24h": 99000,
			"price": 45000.5,
			"percent_change_24h": -2.5
		}}`))
	})

	snap, err := p.Topic(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Symbol != "bitcoin" {
		t.Fatalf("expected alias-normalized symbol, got %s", snap.Symbol)
	}
	if snap.GalaxyScore != 75.5 || snap.Sentiment != 68 || snap.Price != 45000.5 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.PostsActive != 1200 || snap.ContributorsActive != 300 || snap.Interactions != 99000 {
		t.Fatalf("unexpected counts: %+v", snap)
	}
	if snap.PercentChange24h != -2.5 {
		t.Fatalf("expected signed change kept, got %f", snap.PercentChange24h)
	}
}

func TestTopicHandlesLegacyFieldNames(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"gs": 81, "sd": "4.5", "pc_24h": 1.2, "close": 100}}`))
	})

	snap, err := p.Topic(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.GalaxyScore != 81 {
		t.Fatalf("expected gs variant honored, got %f", snap.GalaxyScore)
	}
	if snap.SocialDominance != 4.5 {
		t.Fatalf("expected string number parsed, got %f", snap.SocialDominance)
	}
	if snap.Price != 100 || snap.PercentChange24h != 1.2 {
		t.Fatalf("unexpected price fields: %+v", snap)
	}
	// omitted field falls back to its neutral default
	if snap.Sentiment != defaultSentiment {
		t.Fatalf("expected default sentiment, got %f", snap.Sentiment)
	}
}

func TestTopicOrDefaultOnFailure(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	snap := p.TopicOrDefault(context.Background(), "bitcoin")
	if snap.Symbol != "bitcoin" {
		t.Fatalf("expected symbol kept, got %s", snap.Symbol)
	}
	if snap.GalaxyScore != defaultGalaxyScore || snap.Sentiment != defaultSentiment {
		t.Fatalf("expected neutral defaults, got %+v", snap)
	}
	if snap.PostsActive != 0 || snap.Price != 0 {
		t.Fatalf("expected zero counts and price, got %+v", snap)
	}
}

func TestTopicStrictFailureSurfaces(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})

	if _, err := p.Topic(context.Background(), "bitcoin"); err == nil {
		t.Fatal("expected strict topic fetch to fail")
	}
	if err := p.Healthy(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestTopicPosts(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"post_title":"to the moon","interactions_24h":500},
			{"body":"bearish vibes","interactions":20},
			{"irrelevant":true}
		]}`))
	})

	posts, err := p.TopicPosts(context.Background(), "bitcoin", "1d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Text != "to the moon" || posts[0].Interactions != 500 {
		t.Fatalf("unexpected first post: %+v", posts[0])
	}

	failing := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	if _, err := failing.TopicPosts(context.Background(), "bitcoin", "1d"); err == nil {
		t.Fatal("expected posts fetch to fail")
	}
}

func TestCoinsList(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Fatalf("unexpected limit %q", got)
		}
		w.Write([]byte(`{"data":[{"name":"Bitcoin","symbol":"BTC"},{"name":"Ethereum","symbol":"ETH"}]}`))
	})

	assets, err := p.CoinsList(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 2 || assets[0].Name != "Bitcoin" {
		t.Fatalf("unexpected assets: %+v", assets)
	}

	failing := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	if _, err := failing.CoinsList(context.Background(), 5); err == nil {
		t.Fatal("expected coins list fetch to fail")
	}
}

func TestSnapshotRangesClamped(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"galaxy_score":150,"sentiment":-10,"num_posts":-4,"price":-1}}`))
	})

	snap, err := p.Topic(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.GalaxyScore != 100 || snap.Sentiment != 0 {
		t.Fatalf("expected clamped composites, got %+v", snap)
	}
	if snap.PostsActive != 0 || snap.Price != 0 {
		t.Fatalf("expected non-negative counts, got %+v", snap)
	}
}
