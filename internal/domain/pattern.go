package domain

import (
	"sort"
	"time"
)

// HourAverage pairs an hour-of-day with its average post count.
type HourAverage struct {
	Hour    int     `json:"hour"`
	Average float64 `json:"average"`
}

// ActivityPatterns holds descriptive hour-of-day and day-of-week statistics
// over all historical daily aggregates. no smoothing or outlier rejection: a
// single quiet day pulls its weekday average down, because the output
// describes what actually happened, not a steady-state estimate.
type ActivityPatterns struct {
	HourlyAverage    [24]float64   `json:"hourly_average"`
	PeakHours        []HourAverage `json:"peak_hours"`
	QuietHours       []HourAverage `json:"quiet_hours"`
	DayOfWeekAverage [7]float64    `json:"day_of_week_average"` // Sunday..Saturday
	WeekdayAverage   float64       `json:"weekday_average"`
	WeekendAverage   float64       `json:"weekend_average"`
	PeakDay          time.Weekday  `json:"peak_day"`
	LowDay           time.Weekday  `json:"low_day"`
	DaysAnalyzed     int           `json:"days_analyzed"`
}

// patternExtremeCount is how many peak and quiet hours are reported.
const patternExtremeCount = 5

// AnalyzePatterns computes activity patterns across the full aggregate set.
// hourly averages divide by the count of days with any data, so unpopulated
// hours on populated days weigh in as zeros. the weekday of each date is
// derived from the normalized local calendar date itself, keeping the
// day-of-week grouping consistent with how dates were bucketed upstream.
func AnalyzePatterns(daily map[string]DailyAggregate) ActivityPatterns {
	patterns := ActivityPatterns{DaysAnalyzed: len(daily)}
	if len(daily) == 0 {
		return patterns
	}

	var hourTotals [24]int
	var weekdayTotals [7]int
	var weekdayDays [7]int

	for date, agg := range daily {
		for hour := 0; hour < 24; hour++ {
			hourTotals[hour] += agg.HourlyPosts[hour]
		}

		parsed, err := time.Parse(DateLayout, date)
		if err != nil {
			// keys are produced by the aggregator, a bad one means corruption;
			// skip it rather than poison the weekday stats
			continue
		}
		wd := int(parsed.Weekday())
		weekdayTotals[wd] += agg.TotalPosts
		weekdayDays[wd]++
	}

	for hour := 0; hour < 24; hour++ {
		patterns.HourlyAverage[hour] = float64(hourTotals[hour]) / float64(len(daily))
	}
	patterns.PeakHours = topHours(patterns.HourlyAverage, true)
	patterns.QuietHours = topHours(patterns.HourlyAverage, false)

	for wd := 0; wd < 7; wd++ {
		if weekdayDays[wd] > 0 {
			patterns.DayOfWeekAverage[wd] = float64(weekdayTotals[wd]) / float64(weekdayDays[wd])
		}
	}

	// Mon..Fri mean and Sat/Sun mean
	var weekdaySum float64
	for wd := time.Monday; wd <= time.Friday; wd++ {
		weekdaySum += patterns.DayOfWeekAverage[wd]
	}
	patterns.WeekdayAverage = weekdaySum / 5
	patterns.WeekendAverage = (patterns.DayOfWeekAverage[time.Saturday] + patterns.DayOfWeekAverage[time.Sunday]) / 2

	// argmax/argmin with ties broken by first occurrence in Sun..Sat order
	for wd := 1; wd < 7; wd++ {
		if patterns.DayOfWeekAverage[wd] > patterns.DayOfWeekAverage[patterns.PeakDay] {
			patterns.PeakDay = time.Weekday(wd)
		}
		if patterns.DayOfWeekAverage[wd] < patterns.DayOfWeekAverage[patterns.LowDay] {
			patterns.LowDay = time.Weekday(wd)
		}
	}

	return patterns
}

// topHours returns the five highest (or lowest) hourly averages. ties keep
// canonical hour order.
func topHours(averages [24]float64, descending bool) []HourAverage {
	hours := make([]HourAverage, 24)
	for h := 0; h < 24; h++ {
		hours[h] = HourAverage{Hour: h, Average: averages[h]}
	}

	sort.SliceStable(hours, func(i, j int) bool {
		if descending {
			return hours[i].Average > hours[j].Average
		}
		return hours[i].Average < hours[j].Average
	})

	return hours[:patternExtremeCount]
}
