package policy

import (
	"encoding/json"
	"testing"
)

func TestRiskWhenUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    RiskWhen
		wantErr bool
	}{
		{"tag yes", `"yes"`, RiskWhenYes, false},
		{"tag no", `"no"`, RiskWhenNo, false},
		{"tag unknown", `"unknown"`, RiskWhenUnknown, false},
		{"tag yes_or_unknown", `"yes_or_unknown"`, RiskWhenYesOrUnknown, false},
		{"tag no_or_unknown", `"no_or_unknown"`, RiskWhenNoOrUnknown, false},
		{"tag empty", `""`, RiskWhenNone, false},
		{"tag bogus", `"sometimes"`, RiskWhenNone, true},
		{"list yes", `["yes"]`, RiskWhenYes, false},
		{"list yes unknown", `["yes","unknown"]`, RiskWhenYesOrUnknown, false},
		{"list no unknown", `["no","unknown"]`, RiskWhenNoOrUnknown, false},
		{"list unknown", `["unknown"]`, RiskWhenUnknown, false},
		{"list empty", `[]`, RiskWhenNone, false},
		{"list yes and no", `["yes","no"]`, RiskWhenNone, true},
		{"list bad answer", `["maybe"]`, RiskWhenNone, true},
		{"number", `3`, RiskWhenNone, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got RiskWhen
			err := json.Unmarshal([]byte(tc.raw), &got)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}

func TestRiskWhenMatches(t *testing.T) {
	tests := []struct {
		when RiskWhen
		yes  bool
		no   bool
		unk  bool
	}{
		{RiskWhenNone, false, false, false},
		{RiskWhenYes, true, false, false},
		{RiskWhenNo, false, true, false},
		{RiskWhenUnknown, false, false, true},
		{RiskWhenYesOrUnknown, true, false, true},
		{RiskWhenNoOrUnknown, false, true, true},
	}
	for _, tc := range tests {
		if got := tc.when.Matches(AnswerYes); got != tc.yes {
			t.Errorf("%q.Matches(yes) = %v", tc.when, got)
		}
		if got := tc.when.Matches(AnswerNo); got != tc.no {
			t.Errorf("%q.Matches(no) = %v", tc.when, got)
		}
		if got := tc.when.Matches(AnswerUnknown); got != tc.unk {
			t.Errorf("%q.Matches(unknown) = %v", tc.when, got)
		}
	}
}

func TestAnswerValid(t *testing.T) {
	for _, a := range []Answer{AnswerYes, AnswerNo, AnswerUnknown} {
		if !a.Valid() {
			t.Errorf("%q should be valid", a)
		}
	}
	for _, a := range []Answer{"", "si", "YES", "maybe"} {
		if a.Valid() {
			t.Errorf("%q should be invalid", a)
		}
	}
}
