// Package analytics aggregates a user's tasks into statistics, insight and
// recommendation text, weekly reports, and due-date buckets. It operates on
// task slices so it stays decoupled from the store.
package analytics

import (
	"math"
	"sort"
	"time"

	"taskmind/internal/logging"
	"taskmind/internal/memory"
)

// Analyzer computes reports. The clock is injectable for tests.
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer returns an Analyzer on the real clock.
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

func newAnalyzerAt(anchor time.Time) *Analyzer {
	return &Analyzer{now: func() time.Time { return anchor }}
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// Report is the comprehensive statistics bundle.
type Report struct {
	Basic           BasicStats          `json:"basic_stats"`
	Priority        PriorityAnalysis    `json:"priority_analysis"`
	Status          StatusAnalysis      `json:"status_analysis"`
	Tags            TagAnalysis         `json:"tag_analysis"`
	Productivity    ProductivityMetrics `json:"productivity_metrics"`
	Trends          TrendAnalysis       `json:"trends"`
	Insights        []string            `json:"insights"`
	Recommendations []string            `json:"recommendations"`
}

// BasicStats covers raw counts and text-length averages.
type BasicStats struct {
	TotalTasks           int     `json:"total_tasks"`
	AvgTitleLength       float64 `json:"avg_title_length"`
	AvgDescriptionLength float64 `json:"avg_description_length"`
	TasksWithDescription int     `json:"tasks_with_descriptions"`
	TasksWithTags        int     `json:"tasks_with_tags"`
	OldestTaskDays       int     `json:"oldest_task_days"`
	NewestTaskDays       int     `json:"newest_task_days"`
}

// PriorityAnalysis covers the priority distribution and its balance.
type PriorityAnalysis struct {
	Distribution      map[string]int     `json:"distribution"`
	Percentages       map[string]float64 `json:"percentages"`
	HighPriorityRatio float64            `json:"high_priority_ratio"`
	Balance           string             `json:"priority_balance"` // well_balanced, moderately_balanced, unbalanced
	UrgentTasks       int                `json:"urgent_tasks"`
}

// StatusAnalysis covers the status distribution and completion rate.
type StatusAnalysis struct {
	Distribution    map[string]int     `json:"distribution"`
	Percentages     map[string]float64 `json:"percentages"`
	CompletionRate  float64            `json:"completion_rate"` // percent
	PendingTasks    int                `json:"pending_tasks"`
	InProgressTasks int                `json:"in_progress_tasks"`
	CompletedTasks  int                `json:"completed_tasks"`
}

// TagCount is one tag with its usage count.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagAnalysis covers tag usage and diversity.
type TagAnalysis struct {
	TotalUniqueTags    int        `json:"total_unique_tags"`
	MostCommonTags     []TagCount `json:"most_common_tags"` // top 5
	TagUsagePercentage float64    `json:"tag_usage_percentage"`
	TagDiversity       float64    `json:"tag_diversity"` // unique tags per task
}

// ProductivityMetrics covers creation-rate and complexity measures.
type ProductivityMetrics struct {
	AvgDailyTasks     float64 `json:"avg_daily_tasks"`
	MaxDailyTasks     int     `json:"max_daily_tasks"`
	MinDailyTasks     int     `json:"min_daily_tasks"`
	AvgTaskComplexity float64 `json:"avg_task_complexity"`
	TotalDaysActive   int     `json:"total_days_active"`
	ProductivityScore float64 `json:"productivity_score"` // 0-100
}

// TrendAnalysis covers week-over-week creation volume.
type TrendAnalysis struct {
	WeeklyTaskCounts   []int   `json:"weekly_task_counts"` // oldest week first
	TrendDirection     string  `json:"trend_direction"`    // increasing, decreasing, stable
	TrendStrength      float64 `json:"trend_strength"`
	MostProductiveWeek int     `json:"most_productive_week"`
}

// =============================================================================
// ANALYSIS
// =============================================================================

// Analyze builds the full report. An empty task list yields the onboarding
// report rather than an error.
func (a *Analyzer) Analyze(tasks []memory.Task) *Report {
	timer := logging.StartTimer(logging.CategoryAnalytics, "Analyze")
	defer timer.Stop()

	if len(tasks) == 0 {
		return &Report{
			Insights:        []string{"No tasks available for analysis"},
			Recommendations: []string{"Add some tasks to get started!"},
		}
	}

	report := &Report{
		Basic:        a.basicStats(tasks),
		Priority:     analyzePriorities(tasks),
		Status:       analyzeStatuses(tasks),
		Tags:         analyzeTags(tasks),
		Productivity: productivityMetrics(tasks),
		Trends:       analyzeTrends(tasks),
	}
	report.Insights = generateInsights(report)
	report.Recommendations = generateRecommendations(report)

	logging.AnalyticsDebug("Analyzed %d tasks, productivity score %.1f",
		len(tasks), report.Productivity.ProductivityScore)
	return report
}

func (a *Analyzer) basicStats(tasks []memory.Task) BasicStats {
	stats := BasicStats{TotalTasks: len(tasks)}

	var titleLen, descLen int
	oldest, newest := tasks[0].CreatedAt, tasks[0].CreatedAt
	for _, t := range tasks {
		titleLen += len(t.Title)
		descLen += len(t.Description)
		if t.Description != "" {
			stats.TasksWithDescription++
		}
		if len(t.Tags) > 0 {
			stats.TasksWithTags++
		}
		if t.CreatedAt.Before(oldest) {
			oldest = t.CreatedAt
		}
		if t.CreatedAt.After(newest) {
			newest = t.CreatedAt
		}
	}

	n := float64(len(tasks))
	stats.AvgTitleLength = float64(titleLen) / n
	stats.AvgDescriptionLength = float64(descLen) / n
	stats.OldestTaskDays = int(a.now().Sub(oldest).Hours() / 24)
	stats.NewestTaskDays = int(a.now().Sub(newest).Hours() / 24)
	return stats
}

func analyzePriorities(tasks []memory.Task) PriorityAnalysis {
	counts := make(map[string]int)
	for _, t := range tasks {
		counts[t.Priority]++
	}

	total := float64(len(tasks))
	percentages := make(map[string]float64, len(counts))
	for p, c := range counts {
		percentages[p] = float64(c) / total * 100
	}

	high := counts[memory.PriorityHigh]
	return PriorityAnalysis{
		Distribution:      counts,
		Percentages:       percentages,
		HighPriorityRatio: float64(high) / total,
		Balance:           priorityBalance(counts, len(tasks)),
		UrgentTasks:       high,
	}
}

// priorityBalance grades the distribution by normalized entropy.
func priorityBalance(counts map[string]int, total int) string {
	if total == 0 || len(counts) < 2 {
		return "unbalanced"
	}

	var entropy float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}
	ratio := entropy / math.Log2(float64(len(counts)))

	switch {
	case ratio > 0.8:
		return "well_balanced"
	case ratio > 0.5:
		return "moderately_balanced"
	default:
		return "unbalanced"
	}
}

func analyzeStatuses(tasks []memory.Task) StatusAnalysis {
	counts := make(map[string]int)
	for _, t := range tasks {
		status := t.Status
		if t.Completed {
			status = memory.StatusCompleted
		} else if status == "" {
			status = memory.StatusPending
		}
		counts[status]++
	}

	total := float64(len(tasks))
	percentages := make(map[string]float64, len(counts))
	for s, c := range counts {
		percentages[s] = float64(c) / total * 100
	}

	completed := counts[memory.StatusCompleted]
	return StatusAnalysis{
		Distribution:    counts,
		Percentages:     percentages,
		CompletionRate:  float64(completed) / total * 100,
		PendingTasks:    counts[memory.StatusPending],
		InProgressTasks: counts[memory.StatusInProgress],
		CompletedTasks:  completed,
	}
}

func analyzeTags(tasks []memory.Task) TagAnalysis {
	tagCounts := make(map[string]int)
	tagged := 0
	for _, t := range tasks {
		if len(t.Tags) > 0 {
			tagged++
		}
		for _, tag := range t.Tags {
			tagCounts[tag]++
		}
	}

	ranked := make([]TagCount, 0, len(tagCounts))
	for tag, count := range tagCounts {
		ranked = append(ranked, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Tag < ranked[j].Tag
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	total := float64(len(tasks))
	return TagAnalysis{
		TotalUniqueTags:    len(tagCounts),
		MostCommonTags:     ranked,
		TagUsagePercentage: float64(tagged) / total * 100,
		TagDiversity:       float64(len(tagCounts)) / total,
	}
}

func productivityMetrics(tasks []memory.Task) ProductivityMetrics {
	daily := make(map[string]int)
	var complexity float64
	for _, t := range tasks {
		daily[t.CreatedAt.Format("2006-01-02")]++

		score := float64(len(t.Description)) / 100
		score += float64(len(t.Tags)) * 0.5
		if t.Priority == memory.PriorityHigh {
			score++
		}
		complexity += score
	}

	metrics := ProductivityMetrics{TotalDaysActive: len(daily)}
	if len(daily) > 0 {
		sum := 0
		metrics.MinDailyTasks = len(tasks)
		for _, c := range daily {
			sum += c
			if c > metrics.MaxDailyTasks {
				metrics.MaxDailyTasks = c
			}
			if c < metrics.MinDailyTasks {
				metrics.MinDailyTasks = c
			}
		}
		metrics.AvgDailyTasks = float64(sum) / float64(len(daily))
	}
	metrics.AvgTaskComplexity = complexity / float64(len(tasks))
	metrics.ProductivityScore = productivityScore(tasks)
	return metrics
}

// productivityScore is a 0-100 weighted blend: completion rate 50%, low
// high-priority pressure 30%, tag organization 20%.
func productivityScore(tasks []memory.Task) float64 {
	status := analyzeStatuses(tasks)
	priority := analyzePriorities(tasks)
	tags := analyzeTags(tasks)

	score := status.CompletionRate*0.5 +
		100*(1-priority.HighPriorityRatio)*0.3 +
		tags.TagUsagePercentage*0.2
	return math.Min(100, math.Max(0, score))
}

func analyzeTrends(tasks []memory.Task) TrendAnalysis {
	weekly := make(map[string]int)
	for _, t := range tasks {
		weekly[weekStart(t.CreatedAt)]++
	}

	weeks := make([]string, 0, len(weekly))
	for w := range weekly {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)

	counts := make([]int, len(weeks))
	most := 0
	for i, w := range weeks {
		counts[i] = weekly[w]
		if counts[i] > most {
			most = counts[i]
		}
	}

	trends := TrendAnalysis{
		WeeklyTaskCounts:   counts,
		TrendDirection:     "stable",
		MostProductiveWeek: most,
	}
	if len(counts) > 1 {
		first, last := counts[0], counts[len(counts)-1]
		if last > first {
			trends.TrendDirection = "increasing"
		} else {
			trends.TrendDirection = "decreasing"
		}
		trends.TrendStrength = math.Abs(float64(last-first)) / float64(most)
	}
	return trends
}

// weekStart returns the ISO date of the Monday of t's week.
func weekStart(t time.Time) string {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format("2006-01-02")
}

// =============================================================================
// INSIGHTS AND RECOMMENDATIONS
// =============================================================================

func generateInsights(r *Report) []string {
	var insights []string

	if r.Priority.HighPriorityRatio > 0.3 {
		insights = append(insights, "A large share of your tasks are high priority - consider delegating or breaking them down")
	} else if r.Priority.HighPriorityRatio < 0.1 {
		insights = append(insights, "Your priority distribution looks balanced")
	}

	if r.Status.CompletionRate < 20 {
		insights = append(insights, "Low completion rate - try focusing on smaller, achievable tasks")
	} else if r.Status.CompletionRate > 80 {
		insights = append(insights, "Excellent completion rate! Keep up the great work")
	}

	if r.Tags.TagUsagePercentage < 50 {
		insights = append(insights, "Consider using more tags to better organize your tasks")
	}

	if r.Productivity.AvgDailyTasks > 10 {
		insights = append(insights, "High daily task volume - consider batching similar tasks")
	}

	switch r.Trends.TrendDirection {
	case "increasing":
		insights = append(insights, "Task volume is increasing - monitor your workload")
	case "decreasing":
		insights = append(insights, "Task volume is decreasing - good progress on clearing your backlog")
	}

	return insights
}

func generateRecommendations(r *Report) []string {
	var recs []string

	if r.Priority.UrgentTasks > 5 {
		recs = append(recs, "You have many high-priority tasks. Try the Eisenhower Matrix to prioritize effectively")
	}
	if r.Status.PendingTasks > 10 {
		recs = append(recs, "Many pending tasks - consider time-blocking to tackle them systematically")
	}
	if r.Tags.TotalUniqueTags < 5 {
		recs = append(recs, "Create a tagging system (e.g., work, personal, urgent, learning) for better organization")
	}
	if r.Productivity.AvgTaskComplexity > 2 {
		recs = append(recs, "Complex tasks detected - break them into smaller, manageable subtasks")
	}

	return recs
}

// =============================================================================
// WEEKLY REPORT AND DUE BUCKETS
// =============================================================================

// WeeklyReport summarizes the last seven days of activity.
type WeeklyReport struct {
	Period            string         `json:"period"`
	TasksCreated      int            `json:"tasks_created"`
	TasksCompleted    int            `json:"tasks_completed"`
	CompletionRate    float64        `json:"completion_rate"`
	MostProductiveDay string         `json:"most_productive_day"`
	PriorityBreakdown map[string]int `json:"priority_distribution"`
	TopTags           []TagCount     `json:"top_tags"`
}

// Weekly builds a report over tasks created in the last seven days.
func (a *Analyzer) Weekly(tasks []memory.Task) *WeeklyReport {
	weekAgo := a.now().AddDate(0, 0, -7)

	var recent []memory.Task
	for _, t := range tasks {
		if !t.CreatedAt.Before(weekAgo) {
			recent = append(recent, t)
		}
	}

	report := &WeeklyReport{
		Period:            "Last 7 days",
		TasksCreated:      len(recent),
		PriorityBreakdown: make(map[string]int),
		MostProductiveDay: "No tasks",
	}
	if len(recent) == 0 {
		return report
	}

	dayCounts := make(map[string]int)
	tagCounts := make(map[string]int)
	for _, t := range recent {
		if t.Completed {
			report.TasksCompleted++
		}
		report.PriorityBreakdown[t.Priority]++
		dayCounts[t.CreatedAt.Weekday().String()]++
		for _, tag := range t.Tags {
			tagCounts[tag]++
		}
	}
	report.CompletionRate = float64(report.TasksCompleted) / float64(len(recent)) * 100

	bestDay, bestCount := "", -1
	for day, c := range dayCounts {
		if c > bestCount || (c == bestCount && day < bestDay) {
			bestDay, bestCount = day, c
		}
	}
	report.MostProductiveDay = bestDay

	ranked := make([]TagCount, 0, len(tagCounts))
	for tag, count := range tagCounts {
		ranked = append(ranked, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Tag < ranked[j].Tag
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	report.TopTags = ranked

	return report
}

// DueBuckets groups incomplete tasks by urgency of their due date.
type DueBuckets struct {
	Overdue  []memory.Task `json:"overdue"`
	DueToday []memory.Task `json:"due_today"`
	DueSoon  []memory.Task `json:"due_soon"` // within the next 3 days
}

// Due buckets incomplete tasks with due dates into overdue / today / soon.
func (a *Analyzer) Due(tasks []memory.Task) DueBuckets {
	nowTime := a.now()
	today := nowTime.Format("2006-01-02")
	soonCutoff := nowTime.AddDate(0, 0, 3).Format("2006-01-02")

	var buckets DueBuckets
	for _, t := range tasks {
		if t.DueDate == "" || t.Completed {
			continue
		}
		switch {
		case t.DueDate < today:
			buckets.Overdue = append(buckets.Overdue, t)
		case t.DueDate == today:
			buckets.DueToday = append(buckets.DueToday, t)
		case t.DueDate <= soonCutoff:
			buckets.DueSoon = append(buckets.DueSoon, t)
		}
	}
	return buckets
}
