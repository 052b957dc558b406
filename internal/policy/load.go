package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Set bundles the three policy documents loaded at session start. It is
// built once and treated as read-only afterwards.
type Set struct {
	Criteria  []Criterion
	Framework Framework
	Levels    []RiskBand
}

// LoadSet reads criteria.json, framework.json and levels.json from dir and
// validates the result.
func LoadSet(dir string) (*Set, error) {
	criteria, err := LoadCriteria(filepath.Join(dir, "criteria.json"))
	if err != nil {
		return nil, err
	}
	framework, err := LoadFramework(filepath.Join(dir, "framework.json"))
	if err != nil {
		return nil, err
	}
	levels, err := LoadLevels(filepath.Join(dir, "levels.json"))
	if err != nil {
		return nil, err
	}
	set := &Set{Criteria: criteria, Framework: framework, Levels: levels}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// LoadCriteria reads the criteria document from the provided JSON file.
func LoadCriteria(path string) ([]Criterion, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read criteria: %w", err)
	}
	var doc struct {
		Criteria []Criterion `json:"criteria"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal criteria: %w", err)
	}
	return doc.Criteria, nil
}

// LoadFramework reads the framework document from the provided JSON file.
func LoadFramework(path string) (Framework, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Framework{}, fmt.Errorf("read framework: %w", err)
	}
	var doc Framework
	if err := json.Unmarshal(data, &doc); err != nil {
		return Framework{}, fmt.Errorf("unmarshal framework: %w", err)
	}
	return doc, nil
}

// LoadLevels reads the risk band document from the provided JSON file.
func LoadLevels(path string) ([]RiskBand, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read levels: %w", err)
	}
	var doc struct {
		Levels []RiskBand `json:"levels"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal levels: %w", err)
	}
	return doc.Levels, nil
}

// Validate checks structural invariants that would otherwise surface as
// confusing verdicts later: unique non-empty ids and positive weights.
// It does not reject an empty levels list, the resolver degrades to
// DefaultLevelKey in that case.
func (s *Set) Validate() error {
	seenCriteria := make(map[string]struct{}, len(s.Criteria))
	for _, c := range s.Criteria {
		if c.ID == "" {
			return fmt.Errorf("criterion with empty id (%q)", c.Title)
		}
		if _, dup := seenCriteria[c.ID]; dup {
			return fmt.Errorf("duplicate criterion id %q", c.ID)
		}
		seenCriteria[c.ID] = struct{}{}
		if len(c.Questions) == 0 {
			return fmt.Errorf("criterion %s has no questions", c.ID)
		}
		seenQuestions := make(map[string]struct{}, len(c.Questions))
		for _, q := range c.Questions {
			if q.ID == "" {
				return fmt.Errorf("criterion %s has a question with empty id", c.ID)
			}
			if _, dup := seenQuestions[q.ID]; dup {
				return fmt.Errorf("criterion %s has duplicate question id %q", c.ID, q.ID)
			}
			seenQuestions[q.ID] = struct{}{}
		}
	}

	seenFramework := make(map[string]struct{}, len(s.Framework.Questions))
	for _, q := range s.Framework.Questions {
		if q.ID == "" {
			return fmt.Errorf("framework question with empty id (%q)", q.Text)
		}
		if _, dup := seenFramework[q.ID]; dup {
			return fmt.Errorf("duplicate framework question id %q", q.ID)
		}
		seenFramework[q.ID] = struct{}{}
		if q.Weight <= 0 {
			return fmt.Errorf("framework question %s has non-positive weight %d", q.ID, q.Weight)
		}
	}

	for _, band := range s.Levels {
		if band.Key == "" {
			return fmt.Errorf("risk band with empty key (min %.0f)", band.Min)
		}
		if band.Min < 0 {
			return fmt.Errorf("risk band %s has negative min", band.Key)
		}
	}
	return nil
}

// CriterionByID returns the criterion with the given id, or nil.
func (s *Set) CriterionByID(id string) *Criterion {
	for i := range s.Criteria {
		if s.Criteria[i].ID == id {
			return &s.Criteria[i]
		}
	}
	return nil
}
