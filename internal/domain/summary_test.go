package domain

import "testing"

func TestSummarizePeriod_BoundaryTrimming(t *testing.T) {
	scheme := testScheme(t)
	loc := nyLocation(t)
	period := scheme.PeriodContaining(localTime(t, "2026-01-10T00:00:00"))

	events := []Event{
		eventAt(t, "2026-01-09T11:59:00", false), // before anchor hour on start date: excluded
		eventAt(t, "2026-01-09T12:00:00", false), // at anchor instant: included
		eventAt(t, "2026-01-16T11:59:00", false), // last hour of period: included
		eventAt(t, "2026-01-16T12:00:00", false), // at period end: excluded
	}

	daily := BuildDailyAggregates(AggregateHourly(events, loc))
	stats := SummarizePeriod(daily, period, loc)

	if stats.TotalCount != 2 {
		t.Errorf("expected exactly the two in-range events, got %d", stats.TotalCount)
	}
	if stats.NonReplyCount != 2 || stats.ReplyCount != 0 {
		t.Errorf("unexpected split: %+v", stats)
	}
}

func TestSummarizePeriod_MiddleDaysFullyIncluded(t *testing.T) {
	scheme := testScheme(t)
	loc := nyLocation(t)
	period := scheme.PeriodContaining(localTime(t, "2026-01-10T00:00:00"))

	// midnight and 23:00 on a strictly-interior date both count
	events := []Event{
		eventAt(t, "2026-01-12T00:00:00", false),
		eventAt(t, "2026-01-12T23:00:00", true),
	}

	daily := BuildDailyAggregates(AggregateHourly(events, loc))
	stats := SummarizePeriod(daily, period, loc)

	if stats.NonReplyCount != 1 || stats.ReplyCount != 1 {
		t.Errorf("expected 1 post and 1 reply, got %+v", stats)
	}
}

func TestSummarizePeriod_MissingDaysContributeZero(t *testing.T) {
	scheme := testScheme(t)
	loc := nyLocation(t)
	period := scheme.PeriodContaining(localTime(t, "2026-01-10T00:00:00"))

	// only one day of the seven has any data
	events := []Event{eventAt(t, "2026-01-11T15:00:00", false)}
	daily := BuildDailyAggregates(AggregateHourly(events, loc))

	stats := SummarizePeriod(daily, period, loc)
	if stats.TotalCount != 1 {
		t.Errorf("expected 1, got %d", stats.TotalCount)
	}

	// an entirely empty aggregate set is silent, not fatal
	empty := SummarizePeriod(map[string]DailyAggregate{}, period, loc)
	if empty.TotalCount != 0 {
		t.Errorf("expected 0 for empty aggregates, got %d", empty.TotalCount)
	}
}

func TestSummarizePeriod_IndependentAcrossPeriods(t *testing.T) {
	scheme := testScheme(t)
	loc := nyLocation(t)

	first := scheme.PeriodContaining(localTime(t, "2026-01-10T00:00:00"))
	second := scheme.PeriodContaining(localTime(t, "2026-01-17T00:00:00"))

	events := []Event{
		eventAt(t, "2026-01-12T10:00:00", false),
		eventAt(t, "2026-01-19T10:00:00", false),
		eventAt(t, "2026-01-19T11:00:00", false),
	}
	daily := BuildDailyAggregates(AggregateHourly(events, loc))

	// summarize in reverse order; results must not depend on sequencing
	secondStats := SummarizePeriod(daily, second, loc)
	firstStats := SummarizePeriod(daily, first, loc)

	if firstStats.TotalCount != 1 {
		t.Errorf("first period: expected 1, got %d", firstStats.TotalCount)
	}
	if secondStats.TotalCount != 2 {
		t.Errorf("second period: expected 2, got %d", secondStats.TotalCount)
	}
}

func TestSummarizePeriod_RoundTripAgainstDirectCount(t *testing.T) {
	scheme := testScheme(t)
	loc := nyLocation(t)
	period := scheme.PeriodContaining(localTime(t, "2026-01-10T00:00:00"))

	// scatter events across the period, its edges, and outside it
	var events []Event
	instants := []string{
		"2026-01-09T11:00:00", // out (before anchor)
		"2026-01-09T12:30:00",
		"2026-01-10T03:14:00",
		"2026-01-11T23:59:00",
		"2026-01-13T12:00:00",
		"2026-01-15T06:45:00",
		"2026-01-16T11:30:00",
		"2026-01-16T13:00:00", // out (after end)
		"2026-01-20T10:00:00", // out (next period)
	}
	for i, instant := range instants {
		events = append(events, eventAt(t, instant, i%2 == 0))
	}

	daily := BuildDailyAggregates(AggregateHourly(events, loc))
	viaBuckets := SummarizePeriod(daily, period, loc).TotalCount
	direct := CountInPeriod(events, period)

	if viaBuckets != direct {
		t.Errorf("bucket path (%d) and direct path (%d) disagree", viaBuckets, direct)
	}
	if direct != 6 {
		t.Errorf("expected 6 in-period events, got %d", direct)
	}
}

func TestSummarizePeriod_RoundTripAcrossSpringForward(t *testing.T) {
	scheme := testScheme(t)
	loc := nyLocation(t)

	// the period crossing 2026-03-08 starts at 12:00 EST and ends at
	// 13:00 EDT, so the two boundary days trim at different local hours
	period := scheme.PeriodContaining(localTime(t, "2026-03-10T00:00:00"))
	next := scheme.PeriodContaining(localTime(t, "2026-03-14T00:00:00"))

	events := []Event{
		eventAt(t, "2026-03-06T12:00:00", false), // at period start: included
		eventAt(t, "2026-03-08T01:30:00", false), // transition night: included
		eventAt(t, "2026-03-13T12:30:00", false), // shifted final hour: included
		eventAt(t, "2026-03-13T13:00:00", false), // at period end: next period
	}
	daily := BuildDailyAggregates(AggregateHourly(events, loc))

	stats := SummarizePeriod(daily, period, loc)
	direct := CountInPeriod(events, period)
	if stats.TotalCount != direct {
		t.Errorf("bucket path (%d) and direct path (%d) disagree", stats.TotalCount, direct)
	}
	if direct != 3 {
		t.Errorf("expected 3 in-period events, got %d", direct)
	}

	// the boundary event lands in exactly one period
	nextStats := SummarizePeriod(daily, next, loc)
	if nextStats.TotalCount != 1 {
		t.Errorf("expected 1 event in the following period, got %d", nextStats.TotalCount)
	}
	if stats.TotalCount+nextStats.TotalCount != len(events) {
		t.Errorf("events dropped or double-counted across the boundary: %d + %d != %d",
			stats.TotalCount, nextStats.TotalCount, len(events))
	}
}

func TestSummarizeRange(t *testing.T) {
	loc := nyLocation(t)
	events := []Event{
		eventAt(t, "2026-01-10T09:00:00", false),
		eventAt(t, "2026-01-11T09:00:00", true),
		eventAt(t, "2026-01-12T09:00:00", false),
		eventAt(t, "2026-01-20T09:00:00", false),
	}
	daily := BuildDailyAggregates(AggregateHourly(events, loc))

	totals := SummarizeRange(daily, "2026-01-10", "2026-01-12")

	if totals.TotalPosts != 2 || totals.TotalReplies != 1 {
		t.Errorf("expected 2 posts / 1 reply, got %+v", totals)
	}
	if totals.DaysWithData != 3 {
		t.Errorf("expected 3 days with data, got %d", totals.DaysWithData)
	}

	// inverted or empty ranges simply sum nothing
	empty := SummarizeRange(daily, "2026-02-01", "2026-02-28")
	if empty.TotalPosts != 0 || empty.DaysWithData != 0 {
		t.Errorf("expected empty totals, got %+v", empty)
	}
}
