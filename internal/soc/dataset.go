// Package soc aggregates open intake tickets into the dataset behind the
// SOC dashboard. The aggregation is pure; fetching issues belongs to the
// jira package.
package soc

import (
	"math"
	"strings"
	"time"

	"cyber-intake/internal/jira"
)

// KPIs are the headline counters of the dashboard.
type KPIs struct {
	TotalOpen   int     `json:"totalOpen"`
	Pending     int     `json:"pending"`
	InProgress  int     `json:"inProgress"`
	Review      int     `json:"review"`
	Blocked     int     `json:"blocked"`
	Prioritize  int     `json:"prioritize"`
	SLABreached int     `json:"slaBreached"`
	MTTRDays    float64 `json:"mttrDays"`
	MTTAHours   float64 `json:"mttaHours"`
}

// NamedCount is one slice of a distribution chart.
type NamedCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// TrendPoint is one sample of the backlog trend.
type TrendPoint struct {
	Date string `json:"date"`
	Open int    `json:"open"`
}

// WeekRiskStack is one week of the stacked risk chart.
type WeekRiskStack struct {
	Week   string `json:"week"`
	Low    int    `json:"Low"`
	Medium int    `json:"Medium"`
	High   int    `json:"High"`
}

// TriageItem is one row of the triage queue.
type TriageItem struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Squad   string `json:"squad"`
	Risk    string `json:"risk"`
	Status  string `json:"status"`
	AgeDays int    `json:"ageDays"`
}

// ActivityItem is one row of the recent activity list.
type ActivityItem struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	When   string `json:"when"`
	Status string `json:"status"`
}

// Dataset is everything the dashboard renders for one period.
type Dataset struct {
	KPIs               KPIs            `json:"kpis"`
	StatusDistribution []NamedCount    `json:"statusDistribution"`
	RiskDistribution   []NamedCount    `json:"riskDistribution"`
	BacklogTrend       []TrendPoint    `json:"backlogTrend"`
	RiskStackedByWeek  []WeekRiskStack `json:"riskStackedByWeek"`
	TriageQueue        []TriageItem    `json:"triageQueue"`
	RecentActivity     []ActivityItem  `json:"recentActivity"`
}

const (
	priorityLabel = "priority-needed"
	maxListRows   = 12
)

// BuildDataset folds the open issues into the dashboard dataset. The trend
// and weekly stack are synthesized from the current totals until real
// historical data is wired in, matching the dashboard's current behavior.
func BuildDataset(issues []jira.Issue, now time.Time) Dataset {
	var k KPIs
	k.TotalOpen = len(issues)
	var low, medium, high int

	triage := make([]TriageItem, 0, maxListRows)
	recent := make([]ActivityItem, 0, maxListRows)

	for _, issue := range issues {
		if len(recent) < maxListRows {
			recent = append(recent, ActivityItem{
				Key:    issue.Key,
				Title:  issue.Summary,
				When:   "reciente",
				Status: issue.Status,
			})
		}

		category := strings.ToLower(issue.StatusCategory)
		if category == "" {
			category = strings.ToLower(issue.Status)
		}
		switch {
		case strings.Contains(category, "to do"):
			k.Pending++
		case strings.Contains(category, "in progress"):
			k.InProgress++
		case strings.Contains(category, "review"):
			k.Review++
		case strings.Contains(category, "block"):
			k.Blocked++
		default:
			k.Pending++
		}

		prioritized := hasLabel(issue.Labels, priorityLabel)
		if prioritized {
			k.Prioritize++
		}

		switch issue.RiskLevel {
		case "Low":
			low++
		case "Medium":
			medium++
		case "High":
			high++
		}

		if (prioritized || strings.Contains(category, "to do")) && len(triage) < maxListRows {
			risk := issue.RiskLevel
			if risk == "" {
				risk = "Low"
			}
			status := issue.Status
			if status == "" {
				status = "To Do"
			}
			triage = append(triage, TriageItem{
				Key:     issue.Key,
				Title:   issue.Summary,
				Squad:   issue.Squad,
				Risk:    risk,
				Status:  status,
				AgeDays: ageDays(issue.Created, now),
			})
		}
	}

	k.SLABreached = int(math.Round(float64(k.TotalOpen) * 0.05))
	k.MTTRDays = 3.2
	k.MTTAHours = 5.6

	return Dataset{
		KPIs: k,
		StatusDistribution: []NamedCount{
			{Name: "Pendiente", Value: k.Pending},
			{Name: "En progreso", Value: k.InProgress},
			{Name: "Revisión", Value: k.Review},
			{Name: "Bloqueado", Value: k.Blocked},
			{Name: "Priorizar", Value: k.Prioritize},
		},
		RiskDistribution: []NamedCount{
			{Name: "Low", Value: low},
			{Name: "Medium", Value: medium},
			{Name: "High", Value: high},
		},
		BacklogTrend:      backlogTrend(k.TotalOpen),
		RiskStackedByWeek: riskStacked(low, medium, high),
		TriageQueue:       triage,
		RecentActivity:    recent,
	}
}

func hasLabel(labels []string, want string) bool {
	for _, label := range labels {
		if label == want {
			return true
		}
	}
	return false
}

func ageDays(created time.Time, now time.Time) int {
	if created.IsZero() {
		return 1
	}
	days := int(math.Round(now.Sub(created).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

func backlogTrend(totalOpen int) []TrendPoint {
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		return v
	}
	return []TrendPoint{
		{Date: "W-4", Open: clamp(totalOpen - 7)},
		{Date: "W-3", Open: clamp(totalOpen - 5)},
		{Date: "W-2", Open: clamp(totalOpen - 4)},
		{Date: "W-1", Open: clamp(totalOpen - 1)},
		{Date: "W-0", Open: totalOpen},
	}
}

func riskStacked(low, medium, high int) []WeekRiskStack {
	share := func(count int, factor float64) int {
		return int(math.Round(float64(count) * factor))
	}
	remainder := func(count int, factor float64) int {
		v := count - int(float64(count)*factor)
		if v < 0 {
			return 0
		}
		return v
	}
	return []WeekRiskStack{
		{Week: "W-4", Low: share(low, 0.22), Medium: share(medium, 0.20), High: share(high, 0.18)},
		{Week: "W-3", Low: share(low, 0.21), Medium: share(medium, 0.22), High: share(high, 0.20)},
		{Week: "W-2", Low: share(low, 0.20), Medium: share(medium, 0.20), High: share(high, 0.20)},
		{Week: "W-1", Low: share(low, 0.19), Medium: share(medium, 0.18), High: share(high, 0.21)},
		{Week: "W-0", Low: remainder(low, 0.82), Medium: remainder(medium, 0.80), High: remainder(high, 0.79)},
	}
}
