package advisor

import (
	"testing"

	"lunar-oracle/internal/domain"
)

func TestParseVerdictStrictJSON(t *testing.T) {
	v := ParseVerdict(`{"prediction":"bearish","confidence":82,"targetChange":-4.1,"reasoning":"sentiment collapse"}`)
	if v.Direction != domain.DirectionBearish || v.Confidence != 82 || v.TargetChange != -4.1 {
		t.Fatalf("unexpected verdict: %+v", v)
	}
}

func TestParseVerdictMarkdownFence(t *testing.T) {
	text := "```json\n{\"prediction\":\"bullish\",\"confidence\":70,\"targetChange\":2.5,\"reasoning\":\"ok\"}\n```"
	v := ParseVerdict(text)
	if v.Direction != domain.DirectionBullish || v.Confidence != 70 {
		t.Fatalf("expected fenced JSON decoded, got %+v", v)
	}
}

func TestParseVerdictEmbeddedObject(t *testing.T) {
	text := `Sure! Here's my analysis: {"prediction":"neutral","confidence":55,"targetChange":0.5,"reasoning":"mixed {signals} everywhere"} hope that helps`
	v := ParseVerdict(text)
	if v.Direction != domain.DirectionNeutral || v.Confidence != 55 {
		t.Fatalf("expected embedded object decoded, got %+v", v)
	}
	if v.Reasoning != "mixed {signals} everywhere" {
		t.Fatalf("expected braces inside strings preserved, got %q", v.Reasoning)
	}
}

func TestParseVerdictGarbageFallsBackToNeutral(t *testing.T) {
	raw := "I cannot make a prediction right now."
	v := ParseVerdict(raw)
	if v.Direction != domain.DirectionNeutral || v.Confidence != 50 {
		t.Fatalf("expected neutral fallback, got %+v", v)
	}
	if v.Reasoning != raw {
		t.Fatalf("expected raw text as reasoning, got %q", v.Reasoning)
	}
}

func TestParseVerdictInvalidDirectionCoerced(t *testing.T) {
	v := ParseVerdict(`{"prediction":"moon","confidence":99,"targetChange":50,"reasoning":"lol"}`)
	if v.Direction != domain.DirectionNeutral {
		t.Fatalf("expected invalid direction coerced to neutral, got %s", v.Direction)
	}
	if v.Confidence != 50 {
		t.Fatalf("expected neutral confidence, got %f", v.Confidence)
	}
}

func TestParseVerdictFractionalConfidenceRescaled(t *testing.T) {
	v := ParseVerdict(`{"prediction":"bullish","confidence":0.75,"targetChange":3,"reasoning":"ok"}`)
	if v.Confidence != 75 {
		t.Fatalf("expected 0.75 rescaled to 75, got %f", v.Confidence)
	}
}

func TestParseVerdictConfidenceClamped(t *testing.T) {
	v := ParseVerdict(`{"prediction":"bearish","confidence":140,"targetChange":-1,"reasoning":"ok"}`)
	if v.Confidence != 100 {
		t.Fatalf("expected clamp to 100, got %f", v.Confidence)
	}
	v = ParseVerdict(`{"prediction":"bearish","confidence":-5,"targetChange":-1,"reasoning":"ok"}`)
	if v.Confidence != 0 {
		t.Fatalf("expected clamp to 0, got %f", v.Confidence)
	}
}

func TestExtractJSONObjectUnbalanced(t *testing.T) {
	if _, ok := extractJSONObject(`{"prediction":"bullish"`); ok {
		t.Fatal("expected unbalanced object to be rejected")
	}
	if _, ok := extractJSONObject("no braces at all"); ok {
		t.Fatal("expected no-object text to be rejected")
	}
}
