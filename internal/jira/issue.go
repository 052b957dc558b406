package jira

import (
	"strings"
	"time"
)

// Issue is the subset of a Jira issue the intake tool cares about.
type Issue struct {
	Key            string
	Summary        string
	Status         string
	StatusCategory string
	Labels         []string
	Squad          string
	RiskLevel      string
	Created        time.Time
}

type searchResponse struct {
	Issues []rawIssue `json:"issues"`
	Total  int        `json:"total"`
}

type rawIssue struct {
	Key    string                 `json:"key"`
	Fields map[string]interface{} `json:"fields"`
}

func (c *Client) toIssue(item rawIssue) Issue {
	fields := item.Fields
	issue := Issue{Key: item.Key}
	issue.Summary, _ = fields["summary"].(string)

	if status, ok := fields["status"].(map[string]interface{}); ok {
		issue.Status, _ = status["name"].(string)
		if category, ok := status["statusCategory"].(map[string]interface{}); ok {
			issue.StatusCategory, _ = category["name"].(string)
		}
	}

	if labels, ok := fields["labels"].([]interface{}); ok {
		for _, label := range labels {
			if s, ok := label.(string); ok {
				issue.Labels = append(issue.Labels, s)
			}
		}
	}

	issue.Squad = c.squadFrom(fields, issue.Labels)
	issue.RiskLevel = riskFromField(fields[c.riskLevelField])

	if created, ok := fields["created"].(string); ok {
		issue.Created = parseDate(created)
	}
	return issue
}

// squadFrom resolves the owning squad from the first component or from a
// prefixed label, depending on configuration.
func (c *Client) squadFrom(fields map[string]interface{}, labels []string) string {
	if c.squadSource == SquadSourceComponent {
		if components, ok := fields["components"].([]interface{}); ok && len(components) > 0 {
			if first, ok := components[0].(map[string]interface{}); ok {
				if name, ok := first["name"].(string); ok && name != "" {
					return name
				}
			}
		}
		return "Unknown"
	}
	for _, label := range labels {
		if strings.HasPrefix(label, c.squadLabelPrefix) {
			return strings.TrimPrefix(label, c.squadLabelPrefix)
		}
	}
	return "Unknown"
}

// riskFromField reads the risk custom field, which may arrive as a plain
// string or as an option object with a "value" member.
func riskFromField(v interface{}) string {
	var s string
	switch value := v.(type) {
	case string:
		s = value
	case map[string]interface{}:
		s, _ = value["value"].(string)
	default:
		return ""
	}
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "high"):
		return "High"
	case strings.Contains(s, "medium"):
		return "Medium"
	case strings.Contains(s, "low"):
		return "Low"
	}
	return ""
}

func parseDate(value string) time.Time {
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05.000-0700",
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
	}
	for _, format := range formats {
		if parsed, err := time.Parse(format, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
