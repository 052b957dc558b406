package engine

import (
	"testing"

	"cyber-intake/internal/policy"
)

func TestShouldCount(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name     string
		when     policy.RiskWhen
		answer   policy.Answer
		answered bool
		want     bool
	}{
		{"unanswered", policy.RiskWhenYes, "", false, false},
		{"no pattern", policy.RiskWhenNone, policy.AnswerYes, true, false},
		{"match", policy.RiskWhenYes, policy.AnswerYes, true, true},
		{"no match", policy.RiskWhenYes, policy.AnswerNo, true, false},
		{"unknown forced in", policy.RiskWhenYes, policy.AnswerUnknown, true, true},
		{"unknown matching", policy.RiskWhenNoOrUnknown, policy.AnswerUnknown, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cfg.ShouldCount(tc.when, tc.answer, tc.answered); got != tc.want {
				t.Fatalf("expected %v got %v", tc.want, got)
			}
		})
	}

	quiet := Config{UnknownWeightFactor: 0.5, UnknownAlwaysInRationale: false}
	if quiet.ShouldCount(policy.RiskWhenYes, policy.AnswerUnknown, true) {
		t.Fatal("non-matching unknown should stay out of the rationale when not forced")
	}
	if !quiet.ShouldCount(policy.RiskWhenYesOrUnknown, policy.AnswerUnknown, true) {
		t.Fatal("matching unknown should count regardless of the forcing flag")
	}
}

func TestRiskFactor(t *testing.T) {
	cfg := Config{UnknownWeightFactor: 0.25, UnknownAlwaysInRationale: true}
	tests := []struct {
		name     string
		when     policy.RiskWhen
		answer   policy.Answer
		answered bool
		want     float64
	}{
		{"unanswered", policy.RiskWhenYes, "", false, 0},
		{"no pattern", policy.RiskWhenNone, policy.AnswerYes, true, 0},
		{"match", policy.RiskWhenYes, policy.AnswerYes, true, 1},
		{"matching unknown", policy.RiskWhenYesOrUnknown, policy.AnswerUnknown, true, 1},
		{"dampened unknown", policy.RiskWhenYes, policy.AnswerUnknown, true, 0.25},
		{"safe answer", policy.RiskWhenYes, policy.AnswerNo, true, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cfg.RiskFactor(tc.when, tc.answer, tc.answered); got != tc.want {
				t.Fatalf("expected %v got %v", tc.want, got)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.UnknownWeightFactor != 1.0 || !cfg.UnknownAlwaysInRationale {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
