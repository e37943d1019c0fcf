package advisor

import (
	"encoding/json"
	"strings"

	"lunar-oracle/internal/domain"
)

type verdictPayload struct {
	Prediction   string   `json:"prediction"`
	Confidence   float64  `json:"confidence"`
	TargetChange float64  `json:"targetChange"`
	Reasoning    string   `json:"reasoning"`
	KeyFactors   []string `json:"keyFactors"`
	RiskFactors  []string `json:"riskFactors"`
}

// ParseVerdict decodes model output into a Verdict, tolerating the
// formatting noise models add. Order of attempts: strip a surrounding
// markdown fence and decode strictly; scan the raw text for the first
// balanced JSON object and decode that; give up and return the neutral
// verdict carrying the raw text as reasoning.
func ParseVerdict(text string) *domain.Verdict {
	trimmed := strings.TrimSpace(text)

	var payload verdictPayload
	if err := json.Unmarshal([]byte(stripCodeFence(trimmed)), &payload); err != nil {
		candidate, ok := extractJSONObject(trimmed)
		if !ok {
			return domain.NeutralVerdict(trimmed)
		}
		if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
			return domain.NeutralVerdict(trimmed)
		}
	}

	direction := domain.Direction(strings.ToLower(strings.TrimSpace(payload.Prediction)))
	if !direction.IsValid() {
		// Contract violation: never pass an unknown direction through.
		return domain.NeutralVerdict(trimmed)
	}

	return &domain.Verdict{
		Direction:    direction,
		Confidence:   normalizeConfidence(payload.Confidence),
		TargetChange: payload.TargetChange,
		Reasoning:    payload.Reasoning,
		KeyFactors:   payload.KeyFactors,
		RiskFactors:  payload.RiskFactors,
	}
}

// normalizeConfidence maps a model-reported confidence onto the canonical
// 0-100 scale. Values at or below 1 are treated as fractions (the provider
// has returned both scales historically) and everything is clamped.
func normalizeConfidence(c float64) float64 {
	if c > 0 && c <= 1 {
		c *= 100
	}
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// stripCodeFence removes a surrounding markdown code fence, with or without
// a language tag.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// drop the language tag line (e.g. "json")
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced {...} substring, tracking
// string literals so braces inside values do not break the depth count.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
