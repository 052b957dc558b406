package policy

import (
	"encoding/json"
	"fmt"
)

// RiskWhen tags the answer pattern that makes a framework question
// contribute risk. The zero value ("none") matches nothing, so a question
// missing riskWhen in the policy file contributes zero risk instead of
// failing.
type RiskWhen string

const (
	RiskWhenNone         RiskWhen = ""
	RiskWhenYes          RiskWhen = "yes"
	RiskWhenNo           RiskWhen = "no"
	RiskWhenUnknown      RiskWhen = "unknown"
	RiskWhenYesOrUnknown RiskWhen = "yes_or_unknown"
	RiskWhenNoOrUnknown  RiskWhen = "no_or_unknown"
)

// Matches reports whether the answer falls inside the pattern.
func (w RiskWhen) Matches(a Answer) bool {
	switch w {
	case RiskWhenYes:
		return a == AnswerYes
	case RiskWhenNo:
		return a == AnswerNo
	case RiskWhenUnknown:
		return a == AnswerUnknown
	case RiskWhenYesOrUnknown:
		return a == AnswerYes || a == AnswerUnknown
	case RiskWhenNoOrUnknown:
		return a == AnswerNo || a == AnswerUnknown
	}
	return false
}

// UnmarshalJSON accepts the string tag form ("yes_or_unknown") as well as
// the legacy array-of-answers form (["yes","unknown"]) found in older policy
// files, and maps both onto the closed tag set.
func (w *RiskWhen) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		parsed, err := parseRiskWhenTag(tag)
		if err != nil {
			return err
		}
		*w = parsed
		return nil
	}

	var answers []Answer
	if err := json.Unmarshal(data, &answers); err != nil {
		return fmt.Errorf("riskWhen must be a tag or an answer list: %s", string(data))
	}
	parsed, err := riskWhenFromAnswers(answers)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

func parseRiskWhenTag(tag string) (RiskWhen, error) {
	switch RiskWhen(tag) {
	case RiskWhenNone, RiskWhenYes, RiskWhenNo, RiskWhenUnknown,
		RiskWhenYesOrUnknown, RiskWhenNoOrUnknown:
		return RiskWhen(tag), nil
	}
	return RiskWhenNone, fmt.Errorf("unknown riskWhen tag %q", tag)
}

func riskWhenFromAnswers(answers []Answer) (RiskWhen, error) {
	var yes, no, unknown bool
	for _, a := range answers {
		switch a {
		case AnswerYes:
			yes = true
		case AnswerNo:
			no = true
		case AnswerUnknown:
			unknown = true
		default:
			return RiskWhenNone, fmt.Errorf("invalid answer %q in riskWhen list", a)
		}
	}
	switch {
	case yes && no:
		return RiskWhenNone, fmt.Errorf("riskWhen list may not combine yes and no")
	case yes && unknown:
		return RiskWhenYesOrUnknown, nil
	case no && unknown:
		return RiskWhenNoOrUnknown, nil
	case yes:
		return RiskWhenYes, nil
	case no:
		return RiskWhenNo, nil
	case unknown:
		return RiskWhenUnknown, nil
	}
	return RiskWhenNone, nil
}
