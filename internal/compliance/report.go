package compliance

import (
	"math"
	"sort"
	"time"

	"github.com/cafeops/shiftdeck/internal/domain"
)

// Policy constants for report aggregation and insights. These are fixed
// product thresholds; changing them breaks compatibility with historical
// reports.
const (
	// MinAttemptsForAggregate filters per-title aggregates to titles seen
	// at least this many times.
	MinAttemptsForAggregate = 3

	// MaxTroubleTasks caps the per-title aggregate list.
	MaxTroubleTasks = 10

	// SwingThreshold is the week-over-week score delta (in points) that
	// triggers an improving/declining insight.
	SwingThreshold = 5

	// StrongScoreThreshold and WeakScoreThreshold trigger fixed insights
	// off the 30-day mean.
	StrongScoreThreshold = 95
	WeakScoreThreshold   = 75

	// DeviationThreshold is the mean absolute deviation from the 30-day
	// mean that marks performance as inconsistent.
	DeviationThreshold = 15

	trendWindowDays = 7
	insightSpanDays = 30
)

// TitleAggregate is the per-task-title breakdown of a report.
type TitleAggregate struct {
	Title        string
	Attempts     int
	LateCount    int
	SkippedCount int
	LatePercent  float64
}

// DayBucket is one calendar day's scored tasks.
type DayBucket struct {
	Date      time.Time
	Score     int
	TaskCount int
}

// InsightKind enumerates the fixed insight types a report can carry.
type InsightKind string

const (
	InsightImproving    InsightKind = "improving"
	InsightDeclining    InsightKind = "declining"
	InsightStrong       InsightKind = "strong_compliance"
	InsightWeak         InsightKind = "needs_attention"
	InsightInconsistent InsightKind = "inconsistent"
)

// Insight is one derived observation about the scored window.
type Insight struct {
	Kind    InsightKind
	Message string
}

// Report is the aggregate compliance picture for a site over a time range.
type Report struct {
	Score         int
	CriticalScore int

	EarlyCount   int
	OnTimeCount  int
	LateCount    int
	SkippedCount int
	MissedCount  int
	TotalTasks   int

	TroubleTasks []TitleAggregate
	Days         []DayBucket

	// WeekOverWeekDelta is the most recent 7-day mean minus the prior
	// 7-day mean. MonthOverMonthDelta compares 30-day spans the same way.
	WeekOverWeekDelta   float64
	MonthOverMonthDelta float64

	Insights []Insight
}

// BuildReport aggregates classified tasks into a report. rangeEnd is the
// exclusive end of the scored window; trend windows count back from it.
func BuildReport(tasks []ClassifiedTask, rangeEnd time.Time) Report {
	report := Report{
		Score:      Score(tasks),
		TotalTasks: len(tasks),
	}

	var critical []ClassifiedTask
	for _, t := range tasks {
		switch t.Outcome {
		case domain.OutcomeEarly:
			report.EarlyCount++
		case domain.OutcomeOnTime:
			report.OnTimeCount++
		case domain.OutcomeLate:
			report.LateCount++
		case domain.OutcomeSkipped:
			report.SkippedCount++
		case domain.OutcomeMissed:
			report.MissedCount++
		}
		if t.IsCritical {
			critical = append(critical, t)
		}
	}
	report.CriticalScore = Score(critical)

	report.TroubleTasks = troubleTasks(tasks)
	report.Days = dayBuckets(tasks)
	report.WeekOverWeekDelta = meanDelta(report.Days, rangeEnd, trendWindowDays)
	report.MonthOverMonthDelta = meanDelta(report.Days, rangeEnd, insightSpanDays)
	report.Insights = insights(report.Days, rangeEnd, report.WeekOverWeekDelta)

	return report
}

// troubleTasks builds the per-title aggregates: titles with at least
// MinAttemptsForAggregate attempts, sorted descending by late percentage,
// capped at MaxTroubleTasks.
func troubleTasks(tasks []ClassifiedTask) []TitleAggregate {
	byTitle := make(map[string]*TitleAggregate)
	var order []string
	for _, t := range tasks {
		agg, ok := byTitle[t.Title]
		if !ok {
			agg = &TitleAggregate{Title: t.Title}
			byTitle[t.Title] = agg
			order = append(order, t.Title)
		}
		agg.Attempts++
		switch t.Outcome {
		case domain.OutcomeLate:
			agg.LateCount++
		case domain.OutcomeSkipped:
			agg.SkippedCount++
		}
	}

	var result []TitleAggregate
	for _, title := range order {
		agg := byTitle[title]
		if agg.Attempts < MinAttemptsForAggregate {
			continue
		}
		agg.LatePercent = 100 * float64(agg.LateCount) / float64(agg.Attempts)
		result = append(result, *agg)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LatePercent > result[j].LatePercent
	})
	if len(result) > MaxTroubleTasks {
		result = result[:MaxTroubleTasks]
	}
	return result
}

// dayBuckets groups tasks into contiguous calendar-day buckets, oldest
// first. Days with no tasks produce no bucket; trend means skip them
// rather than smoothing.
func dayBuckets(tasks []ClassifiedTask) []DayBucket {
	byDay := make(map[time.Time][]ClassifiedTask)
	for _, t := range tasks {
		byDay[t.Day] = append(byDay[t.Day], t)
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	buckets := make([]DayBucket, 0, len(days))
	for _, day := range days {
		buckets = append(buckets, DayBucket{
			Date:      day,
			Score:     Score(byDay[day]),
			TaskCount: len(byDay[day]),
		})
	}
	return buckets
}

// windowMean returns the arithmetic mean of daily scores in
// [end-days, end), and whether the window held any data.
func windowMean(buckets []DayBucket, end time.Time, days int) (float64, bool) {
	start := end.AddDate(0, 0, -days)
	sum, n := 0, 0
	for _, b := range buckets {
		if !b.Date.Before(start) && b.Date.Before(end) {
			sum += b.Score
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// meanDelta is the most recent window's mean minus the prior window's.
// Zero when either window is empty.
func meanDelta(buckets []DayBucket, rangeEnd time.Time, days int) float64 {
	recent, okRecent := windowMean(buckets, rangeEnd, days)
	prior, okPrior := windowMean(buckets, rangeEnd.AddDate(0, 0, -days), days)
	if !okRecent || !okPrior {
		return 0
	}
	return recent - prior
}

// insights derives the fixed insight set from the day buckets.
func insights(buckets []DayBucket, rangeEnd time.Time, weekDelta float64) []Insight {
	var result []Insight

	if weekDelta > SwingThreshold {
		result = append(result, Insight{
			Kind:    InsightImproving,
			Message: "Compliance is trending up versus the prior week.",
		})
	} else if weekDelta < -SwingThreshold {
		result = append(result, Insight{
			Kind:    InsightDeclining,
			Message: "Compliance is trending down versus the prior week.",
		})
	}

	mean30, ok := windowMean(buckets, rangeEnd, insightSpanDays)
	if !ok {
		return result
	}

	if mean30 >= StrongScoreThreshold {
		result = append(result, Insight{
			Kind:    InsightStrong,
			Message: "Excellent compliance over the last 30 days.",
		})
	} else if mean30 < WeakScoreThreshold {
		result = append(result, Insight{
			Kind:    InsightWeak,
			Message: "Compliance over the last 30 days needs attention.",
		})
	}

	if mad(buckets, rangeEnd, mean30) > DeviationThreshold {
		result = append(result, Insight{
			Kind:    InsightInconsistent,
			Message: "Day-to-day compliance is inconsistent.",
		})
	}

	return result
}

// mad is the mean absolute deviation of daily scores from the 30-day mean.
func mad(buckets []DayBucket, rangeEnd time.Time, mean float64) float64 {
	start := rangeEnd.AddDate(0, 0, -insightSpanDays)
	sum, n := 0.0, 0
	for _, b := range buckets {
		if !b.Date.Before(start) && b.Date.Before(rangeEnd) {
			sum += math.Abs(float64(b.Score) - mean)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
