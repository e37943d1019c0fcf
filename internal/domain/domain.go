package domain

import (
	"strings"
	"time"
)

// Direction is the predicted price direction for an asset.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

func (d Direction) IsValid() bool {
	return d == DirectionBullish || d == DirectionBearish || d == DirectionNeutral
}

const (
	StatusActive   = "active"
	StatusResolved = "resolved"

	// DefaultAccuracy is the neutral prior used when an asset has no
	// resolved prediction history yet.
	DefaultAccuracy = 70.0

	DefaultTimeframeHours = 24
)

// SocialSnapshot is a point-in-time read of an asset's social and market
// standing, normalized from the upstream provider. Every numeric field is
// always set; omitted upstream values fall back to documented defaults.
type SocialSnapshot struct {
	Symbol             string    `json:"symbol"`
	GalaxyScore        float64   `json:"galaxy_score"`
	SocialDominance    float64   `json:"social_dominance"`
	Sentiment          float64   `json:"sentiment"`
	PostsActive        int64     `json:"posts_active"`
	ContributorsActive int64     `json:"contributors_active"`
	Interactions       int64     `json:"interactions"`
	Price              float64   `json:"price"`
	PercentChange24h   float64   `json:"percent_change_24h"`
	Timestamp          time.Time `json:"timestamp"`
}

// SocialPost is a single social post sampled for qualitative prompt context.
type SocialPost struct {
	Text         string `json:"text"`
	Interactions int64  `json:"interactions"`
}

// RankedAsset is one entry of the provider's ranked coin list.
type RankedAsset struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Verdict is the structured output of one reasoning call. Confidence is
// always on the canonical 0-100 scale.
type Verdict struct {
	Direction    Direction `json:"prediction"`
	Confidence   float64   `json:"confidence"`
	TargetChange float64   `json:"targetChange"`
	Reasoning    string    `json:"reasoning"`
	KeyFactors   []string  `json:"keyFactors,omitempty"`
	RiskFactors  []string  `json:"riskFactors,omitempty"`
}

// NeutralVerdict is the safe fallback used whenever the reasoning step is
// unavailable or returns output that cannot be decoded.
func NeutralVerdict(reasoning string) *Verdict {
	if strings.TrimSpace(reasoning) == "" {
		reasoning = "Analysis unavailable, defaulting to neutral"
	}
	return &Verdict{
		Direction:    DirectionNeutral,
		Confidence:   50,
		TargetChange: 0,
		Reasoning:    reasoning,
	}
}

// EvidenceBundle aggregates everything the reasoning step is allowed to see.
type EvidenceBundle struct {
	Symbol             string
	Snapshot           SocialSnapshot
	HistoricalAccuracy float64
	TimeframeHours     int
	RecentPosts        []SocialPost
}

// PredictionRecord is the system's primary output and persisted artifact.
// ActualChange and AccuracyScore stay nil until the resolution job fills
// them in after expiry.
type PredictionRecord struct {
	ID              string    `json:"id,omitempty"`
	Symbol          string    `json:"symbol"`
	Direction       Direction `json:"prediction"`
	Confidence      float64   `json:"confidence"`
	TargetChange    float64   `json:"targetChange"`
	TimeframeHours  int       `json:"timeframe"`
	Reasoning       string    `json:"reasoning"`
	GalaxyScore     float64   `json:"galaxyScore"`
	SocialDominance float64   `json:"socialDominance"`
	Sentiment       float64   `json:"sentiment"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
	Status          string    `json:"status"`
	ActualChange    *float64  `json:"actualChange,omitempty"`
	AccuracyScore   *float64  `json:"accuracyScore,omitempty"`
}

// AgentReply is the conversational surface's response payload.
type AgentReply struct {
	Message    string    `json:"message"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// SymbolAliases maps chat shorthand to the provider's canonical topic name.
var SymbolAliases = map[string]string{
	"btc":      "bitcoin",
	"bitcoin":  "bitcoin",
	"eth":      "ethereum",
	"ethereum": "ethereum",
	"sol":      "solana",
	"solana":   "solana",
	"doge":     "dogecoin",
	"dogecoin": "dogecoin",
	"xrp":      "xrp",
	"ripple":   "xrp",
	"ada":      "cardano",
	"cardano":  "cardano",
	"avax":     "avalanche",
	"dot":      "polkadot",
	"polkadot": "polkadot",
	"link":     "chainlink",
	"ltc":      "litecoin",
	"litecoin": "litecoin",
}

// NormalizeSymbol lowercases and trims an asset identifier and resolves
// known aliases. Unknown symbols pass through unchanged; the provider is
// the authority on whether they exist.
func NormalizeSymbol(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if canonical, ok := SymbolAliases[s]; ok {
		return canonical
	}
	return s
}

// DetectSymbol scans free text for a known asset alias. Matching is
// case-insensitive and on word boundaries only, so "btc" inside an
// unrelated word never matches. Returns "" when nothing is recognized.
func DetectSymbol(message string) string {
	for _, word := range splitWords(message) {
		if canonical, ok := SymbolAliases[word]; ok {
			return canonical
		}
	}
	return ""
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		default:
			return true
		}
	})
}
