package engine

import (
	"testing"

	"cyber-intake/internal/policy"
)

func testFramework() policy.Framework {
	return policy.Framework{Questions: []policy.FrameworkQuestion{
		{ID: "q1", Text: "new endpoint", Weight: 1, RiskWhen: policy.RiskWhenYes},
		{ID: "q2", Text: "external exposure", Weight: 2, RiskWhen: policy.RiskWhenYes},
		{ID: "q3", Text: "sensitive data", Weight: 3, RiskWhen: policy.RiskWhenYes},
		{ID: "q4", Text: "backend validation", Weight: 2, RiskWhen: policy.RiskWhenNoOrUnknown},
	}}
}

func testLevels() []policy.RiskBand {
	return []policy.RiskBand{
		{Key: "Low", Min: 0, Color: "bg-emerald-500"},
		{Key: "Medium", Min: 10, Color: "bg-amber-500"},
		{Key: "High", Min: 20, Color: "bg-rose-600"},
	}
}

func TestEvalFramework(t *testing.T) {
	def := testFramework()
	levels := testLevels()
	cfg := DefaultConfig()

	tests := []struct {
		name        string
		answers     policy.AnswerMap
		score       float64
		level       string
		allAnswered bool
	}{
		{"empty", policy.AnswerMap{}, 0, "Low", false},
		{"all safe", policy.AnswerMap{"q1": "no", "q2": "no", "q3": "no", "q4": "yes"}, 0, "Low", true},
		{"one risk", policy.AnswerMap{"q1": "yes"}, 1, "Low", false},
		{"validation missing", policy.AnswerMap{"q4": "no"}, 2, "Low", false},
		{"unknown counts full", policy.AnswerMap{"q3": "unknown"}, 3, "Low", false},
		{"all risky", policy.AnswerMap{"q1": "yes", "q2": "yes", "q3": "yes", "q4": "no"}, 8, "Low", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EvalFramework(def, levels, tc.answers, cfg)
			if got.Score != tc.score || got.Level != tc.level || got.AllAnswered != tc.allAnswered {
				t.Fatalf("expected {%v %s %v} got %+v", tc.score, tc.level, tc.allAnswered, got)
			}
		})
	}
}

func TestEvalFrameworkDampenedUnknown(t *testing.T) {
	def := testFramework()
	cfg := Config{UnknownWeightFactor: 0.5, UnknownAlwaysInRationale: true}

	// q3 unknown does not match riskWhen "yes", so it contributes 3 * 0.5.
	got := EvalFramework(def, testLevels(), policy.AnswerMap{"q3": "unknown"}, cfg)
	if got.Score != 1.5 {
		t.Fatalf("expected score 1.5 got %v", got.Score)
	}

	// q4 unknown matches riskWhen no_or_unknown and counts at full weight.
	got = EvalFramework(def, testLevels(), policy.AnswerMap{"q4": "unknown"}, cfg)
	if got.Score != 2 {
		t.Fatalf("expected score 2 got %v", got.Score)
	}
}

func TestEvalFrameworkMonotonic(t *testing.T) {
	def := testFramework()
	cfg := DefaultConfig()
	answers := policy.AnswerMap{}
	prev := 0.0
	for _, id := range []string{"q1", "q2", "q3"} {
		answers[id] = policy.AnswerYes
		score := EvalFramework(def, testLevels(), answers, cfg).Score
		if score < prev {
			t.Fatalf("score decreased after answering %s: %v -> %v", id, prev, score)
		}
		prev = score
	}
}

func TestResolveLevel(t *testing.T) {
	levels := testLevels()
	tests := []struct {
		score float64
		want  string
	}{
		{0, "Low"},
		{9.5, "Low"},
		{10, "Medium"},
		{19, "Medium"},
		{19.99, "Medium"},
		{20, "High"},
		{500, "High"},
	}
	for _, tc := range tests {
		if got := ResolveLevel(tc.score, levels); got != tc.want {
			t.Errorf("ResolveLevel(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestResolveLevelUnsorted(t *testing.T) {
	shuffled := []policy.RiskBand{
		{Key: "High", Min: 20},
		{Key: "Low", Min: 0},
		{Key: "Medium", Min: 10},
	}
	if got := ResolveLevel(15, shuffled); got != "Medium" {
		t.Fatalf("expected Medium got %q", got)
	}
}

func TestResolveLevelEmpty(t *testing.T) {
	if got := ResolveLevel(42, nil); got != policy.DefaultLevelKey {
		t.Fatalf("expected %q got %q", policy.DefaultLevelKey, got)
	}
}

func TestLevelColor(t *testing.T) {
	levels := testLevels()
	if got := LevelColor("High", levels); got != "bg-rose-600" {
		t.Fatalf("expected bg-rose-600 got %q", got)
	}
	if got := LevelColor("Unknown", levels); got != "bg-emerald-500" {
		t.Fatalf("expected fallback to first band color, got %q", got)
	}
	if got := LevelColor("High", nil); got != "" {
		t.Fatalf("expected empty color got %q", got)
	}
}
