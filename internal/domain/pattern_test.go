package domain

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnalyzePatterns_PeakAndQuietHours(t *testing.T) {
	// single date with 3, 8, 12, 20 posts at hours 9, 10, 14, 18
	agg := DailyAggregate{Date: "2026-01-12"}
	for hour, count := range map[int]int{9: 3, 10: 8, 14: 12, 18: 20} {
		agg.HourlyPosts[hour] = count
		agg.TotalPosts += count
	}
	daily := map[string]DailyAggregate{agg.Date: agg}

	patterns := AnalyzePatterns(daily)

	if patterns.PeakHours[0].Hour != 18 || !almostEqual(patterns.PeakHours[0].Average, 20) {
		t.Errorf("expected peak hour 18 (20), got %+v", patterns.PeakHours[0])
	}

	// unpopulated hours average 0 and dominate the quiet list; among populated
	// hours, hour 9 is the quietest
	for _, quiet := range patterns.QuietHours {
		if !almostEqual(quiet.Average, 0) {
			t.Errorf("expected quiet hours to be the zero hours, got %+v", quiet)
		}
	}
	populated := map[int]float64{9: 3, 10: 8, 14: 12, 18: 20}
	lowestPopulated := -1
	lowest := math.MaxFloat64
	for hour, avg := range populated {
		if avg < lowest {
			lowest = avg
			lowestPopulated = hour
		}
	}
	if lowestPopulated != 9 {
		t.Errorf("expected hour 9 to be the quietest populated hour, got %d", lowestPopulated)
	}

	// single day of data: denominator is 1, averages equal raw counts
	if !almostEqual(patterns.HourlyAverage[14], 12) {
		t.Errorf("expected hourly average 12 at hour 14, got %f", patterns.HourlyAverage[14])
	}
	if !almostEqual(patterns.HourlyAverage[0], 0) {
		t.Errorf("expected 0 for unpopulated hour, got %f", patterns.HourlyAverage[0])
	}
}

func TestAnalyzePatterns_HourlyDenominatorIsDaysWithData(t *testing.T) {
	daily := map[string]DailyAggregate{}
	// two days: hour 9 has 10 posts on one day, 0 on the other
	day1 := DailyAggregate{Date: "2026-01-12"}
	day1.HourlyPosts[9] = 10
	day1.TotalPosts = 10
	day2 := DailyAggregate{Date: "2026-01-13"}
	day2.HourlyPosts[15] = 4
	day2.TotalPosts = 4
	daily[day1.Date] = day1
	daily[day2.Date] = day2

	patterns := AnalyzePatterns(daily)

	if !almostEqual(patterns.HourlyAverage[9], 5) {
		t.Errorf("expected 10/2=5, got %f", patterns.HourlyAverage[9])
	}
	if patterns.DaysAnalyzed != 2 {
		t.Errorf("expected 2 days analyzed, got %d", patterns.DaysAnalyzed)
	}
}

func TestAnalyzePatterns_DayOfWeekAverages(t *testing.T) {
	daily := map[string]DailyAggregate{
		// 2026-01-12 is a Monday, 2026-01-19 the following Monday
		"2026-01-12": {Date: "2026-01-12", TotalPosts: 10},
		"2026-01-19": {Date: "2026-01-19", TotalPosts: 20},
		// 2026-01-17 is a Saturday
		"2026-01-17": {Date: "2026-01-17", TotalPosts: 6},
	}

	patterns := AnalyzePatterns(daily)

	if !almostEqual(patterns.DayOfWeekAverage[time.Monday], 15) {
		t.Errorf("expected Monday average 15, got %f", patterns.DayOfWeekAverage[time.Monday])
	}
	if !almostEqual(patterns.DayOfWeekAverage[time.Saturday], 6) {
		t.Errorf("expected Saturday average 6, got %f", patterns.DayOfWeekAverage[time.Saturday])
	}
	if patterns.PeakDay != time.Monday {
		t.Errorf("expected peak day Monday, got %s", patterns.PeakDay)
	}
	if !almostEqual(patterns.WeekdayAverage, 15.0/5) {
		t.Errorf("expected weekday average 3, got %f", patterns.WeekdayAverage)
	}
	if !almostEqual(patterns.WeekendAverage, 3) {
		t.Errorf("expected weekend average 3, got %f", patterns.WeekendAverage)
	}
}

func TestAnalyzePatterns_TieBreaksInCanonicalOrder(t *testing.T) {
	// all days equal: ties resolve to the first weekday in Sun..Sat order
	daily := map[string]DailyAggregate{
		"2026-01-11": {Date: "2026-01-11", TotalPosts: 5}, // Sunday
		"2026-01-12": {Date: "2026-01-12", TotalPosts: 5}, // Monday
	}

	patterns := AnalyzePatterns(daily)

	if patterns.PeakDay != time.Sunday {
		t.Errorf("expected tie to resolve to Sunday, got %s", patterns.PeakDay)
	}
}

func TestAnalyzePatterns_EmptyInput(t *testing.T) {
	patterns := AnalyzePatterns(map[string]DailyAggregate{})

	if patterns.DaysAnalyzed != 0 {
		t.Errorf("expected 0 days analyzed, got %d", patterns.DaysAnalyzed)
	}
	if len(patterns.PeakHours) != 0 {
		t.Errorf("expected no peak hours for empty input, got %d", len(patterns.PeakHours))
	}
}
