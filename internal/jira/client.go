// Package jira is a thin REST v3 client used by the intake tool to post
// decision comments and to feed the SOC dashboard. The engine never depends
// on it.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cyber-intake/internal/ticket"
)

// ErrNotConfigured is returned when the client is built without the
// mandatory connection settings. Callers downgrade the affected features
// instead of failing startup.
var ErrNotConfigured = errors.New("jira not configured")

// SquadSource selects where an issue's squad name comes from.
const (
	SquadSourceComponent = "component"
	SquadSourceLabel     = "label"
)

// Config carries connection and field-mapping settings.
type Config struct {
	BaseURL          string
	Username         string
	APIToken         string
	RiskLevelField   string
	CriterionLabel   string
	SquadSource      string
	SquadLabelPrefix string
	Timeout          time.Duration
}

// Client talks to the Jira REST v3 API with basic auth.
type Client struct {
	baseURL          string
	username         string
	apiToken         string
	riskLevelField   string
	criterionLabel   string
	squadSource      string
	squadLabelPrefix string
	httpClient       *http.Client
}

// NewClient validates the config and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIToken) == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	riskField := cfg.RiskLevelField
	if riskField == "" {
		riskField = "customfield_12345"
	}
	squadSource := cfg.SquadSource
	if squadSource != SquadSourceLabel {
		squadSource = SquadSourceComponent
	}
	squadPrefix := cfg.SquadLabelPrefix
	if squadPrefix == "" {
		squadPrefix = "squad-"
	}
	return &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		username:         cfg.Username,
		apiToken:         cfg.APIToken,
		riskLevelField:   riskField,
		criterionLabel:   cfg.CriterionLabel,
		squadSource:      squadSource,
		squadLabelPrefix: squadPrefix,
		httpClient:       &http.Client{Timeout: timeout},
	}, nil
}

// BrowseURL returns the tracker deep-link for a validated key.
func (c *Client) BrowseURL(key string) string {
	return ticket.BrowseURL(c.baseURL, key)
}

// AddComment posts a plain-text comment to an issue, wrapped in the minimal
// ADF document the v3 API requires.
func (c *Client) AddComment(ctx context.Context, key, body string) error {
	if !ticket.IsValidKey(key) {
		return fmt.Errorf("invalid issue key %q", key)
	}

	paragraphs := []adfNode{}
	for _, line := range strings.Split(body, "\n") {
		content := []adfNode{}
		if line != "" {
			content = append(content, adfNode{Type: "text", Text: line})
		}
		paragraphs = append(paragraphs, adfNode{Type: "paragraph", Content: content})
	}
	payload := map[string]any{
		"body": adfNode{Type: "doc", Version: 1, Content: paragraphs},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rest/api/3/issue/%s/comment", c.baseURL, strings.TrimSpace(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build comment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.username, c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post comment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("jira comment failed (status %d): %s", resp.StatusCode, string(detail))
	}
	return nil
}

// SearchOpenIssues fetches unresolved issues created inside the period
// ("30d", "90d" or "fy"), including the fields the SOC dataset needs.
func (c *Client) SearchOpenIssues(ctx context.Context, period string) ([]Issue, error) {
	var timeJQL string
	switch period {
	case "90d":
		timeJQL = "created >= -90d"
	case "fy":
		timeJQL = "created >= startOfYear()"
	default:
		timeJQL = "created >= -30d"
	}
	jql := timeJQL + " AND resolution = EMPTY ORDER BY created DESC"
	fields := []string{"summary", "status", "labels", "components", "created", "updated", c.riskLevelField}

	params := url.Values{}
	params.Add("jql", jql)
	params.Add("maxResults", "100")
	params.Add("fields", strings.Join(fields, ","))

	endpoint := c.baseURL + "/rest/api/3/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.username, c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("jira search failed (status %d): %s", resp.StatusCode, string(detail))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	var search searchResponse
	if err := json.Unmarshal(raw, &search); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	issues := make([]Issue, 0, len(search.Issues))
	for _, item := range search.Issues {
		issues = append(issues, c.toIssue(item))
	}
	return issues, nil
}

type adfNode struct {
	Type    string    `json:"type"`
	Version int       `json:"version,omitempty"`
	Text    string    `json:"text,omitempty"`
	Content []adfNode `json:"content,omitempty"`
}
