package domain

import "time"

// PeriodStats holds the aggregate counts for one period window.
type PeriodStats struct {
	Period        Period `json:"period"`
	NonReplyCount int    `json:"non_reply_count"`
	ReplyCount    int    `json:"reply_count"`
	TotalCount    int    `json:"total_count"`
}

// SummarizePeriod sums daily aggregate contributions restricted to the
// period's instant range, with exact boundary-day trimming:
//
//   - start date: only hours at or after the start boundary's local hour
//   - end date: only hours strictly before the end boundary's local hour
//   - every date strictly between: all 24 hours
//
// each boundary is trimmed by its own local hour: across a DST transition
// the end boundary lands at a different hour-of-day than the start, and
// trimming both by the start hour would drop (or double-count) the shifted
// hour on the end date.
//
// dates with no aggregate contribute zero; historical gaps are expected and
// never an error. the function has no shared accumulator, so periods can be
// summarized in any order, concurrently, and incrementally.
func SummarizePeriod(daily map[string]DailyAggregate, p Period, loc *time.Location) PeriodStats {
	stats := PeriodStats{Period: p}

	startLocal := p.Start.In(loc)
	endLocal := p.End.In(loc)
	startDate := startLocal.Format(DateLayout)
	endDate := endLocal.Format(DateLayout)

	// walk calendar dates from the start date through the end date
	day := time.Date(startLocal.Year(), startLocal.Month(), startLocal.Day(), 0, 0, 0, 0, loc)
	endDay := time.Date(endLocal.Year(), endLocal.Month(), endLocal.Day(), 0, 0, 0, 0, loc)

	for !day.After(endDay) {
		date := day.Format(DateLayout)
		agg, ok := daily[date]
		day = day.AddDate(0, 0, 1)
		if !ok {
			continue
		}

		fromHour, toHour := 0, 24
		if date == startDate {
			fromHour = startLocal.Hour()
		}
		if date == endDate {
			toHour = endLocal.Hour()
		}

		for hour := fromHour; hour < toHour; hour++ {
			stats.NonReplyCount += agg.HourlyPosts[hour]
			stats.ReplyCount += agg.HourlyReplies[hour]
		}
	}

	stats.TotalCount = stats.NonReplyCount + stats.ReplyCount
	return stats
}

// RangeTotals answers an ad-hoc date-range aggregate query over [startDate,
// endDate] inclusive, summing full days. exact, not sampled.
type RangeTotals struct {
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	TotalPosts   int    `json:"total_posts"`
	TotalReplies int    `json:"total_replies"`
	DaysWithData int    `json:"days_with_data"`
}

// SummarizeRange sums daily aggregates over an inclusive local date range.
// both bounds are normalized YYYY-MM-DD strings; lexical comparison is
// chronological for that layout.
func SummarizeRange(daily map[string]DailyAggregate, startDate, endDate string) RangeTotals {
	totals := RangeTotals{StartDate: startDate, EndDate: endDate}

	for date, agg := range daily {
		if date < startDate || date > endDate {
			continue
		}
		totals.TotalPosts += agg.TotalPosts
		totals.TotalReplies += agg.TotalReplies
		totals.DaysWithData++
	}

	return totals
}

// CountInPeriod counts events whose instants fall inside the period range
// directly, without going through hour buckets. this is the independent
// computation path used to cross-check the bucket sum.
func CountInPeriod(events []Event, p Period) int {
	count := 0
	for _, event := range events {
		if p.Contains(event.OccurredAtTime()) {
			count++
		}
	}
	return count
}
