package domain

import "time"

// MomentumBand classifies the actual-vs-expected activity ratio for a short
// trailing window.
type MomentumBand string

const (
	BandBurst    MomentumBand = "burst"    // ratio > 1.5
	BandElevated MomentumBand = "elevated" // 1.2 - 1.5
	BandNormal   MomentumBand = "normal"   // 0.8 - 1.2
	BandLow      MomentumBand = "low"      // 0.5 - 0.8
	BandQuiet    MomentumBand = "quiet"    // < 0.5
)

// momentumWindowsHours are the short trailing windows analyzed per pass.
var momentumWindowsHours = []int{1, 3, 6, 12}

// WindowMomentum is the momentum reading for one trailing window.
type WindowMomentum struct {
	WindowHours int          `json:"window_hours"`
	Actual      int          `json:"actual"`
	Expected    float64      `json:"expected"`
	Ratio       float64      `json:"ratio"`
	Band        MomentumBand `json:"band"`
}

// ShortWindowMomentum computes actual-vs-expected ratios for the 1h/3h/6h/12h
// trailing windows ending at now. expected activity for a window is the
// current period's observed hourly rate scaled to the window length:
//
//	expected = (periodCount / elapsedDays / 24) * windowHours
//
// a zero expectation is treated as ratio 1 (normal), never a division by
// zero. the event slice is the full snapshot; filtering happens here.
func ShortWindowMomentum(events []Event, now time.Time, periodCount int, elapsedDays float64) []WindowMomentum {
	hourlyRate := 0.0
	if elapsedDays > 0 {
		hourlyRate = float64(periodCount) / elapsedDays / 24
	}

	readings := make([]WindowMomentum, 0, len(momentumWindowsHours))
	for _, hours := range momentumWindowsHours {
		windowStart := now.Add(-time.Duration(hours) * time.Hour)

		actual := 0
		for _, event := range events {
			instant := event.OccurredAtTime()
			// half-open trailing window (now - window, now]
			if instant.After(windowStart) && !instant.After(now) {
				actual++
			}
		}

		expected := hourlyRate * float64(hours)
		ratio := 1.0
		if expected > 0 {
			ratio = float64(actual) / expected
		}

		readings = append(readings, WindowMomentum{
			WindowHours: hours,
			Actual:      actual,
			Expected:    expected,
			Ratio:       ratio,
			Band:        classifyRatio(ratio),
		})
	}

	return readings
}

func classifyRatio(ratio float64) MomentumBand {
	switch {
	case ratio > 1.5:
		return BandBurst
	case ratio >= 1.2:
		return BandElevated
	case ratio >= 0.8:
		return BandNormal
	case ratio >= 0.5:
		return BandLow
	default:
		return BandQuiet
	}
}

// TrendDirection is the qualitative trend signal.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// trendThresholdPercent is the band around zero treated as stable.
const trendThresholdPercent = 5.0

// Trend compares the 7-day and 30-day trailing daily averages.
type Trend struct {
	SevenDayAverage  float64        `json:"seven_day_average"`
	ThirtyDayAverage float64        `json:"thirty_day_average"`
	ChangePercent    float64        `json:"change_percent"`
	Direction        TrendDirection `json:"direction"`
}

// AnalyzeTrend computes trailing daily averages over the local civil dates
// ending at now. days absent from the aggregate set count as zero, so the
// averages always divide by the full window length.
func AnalyzeTrend(daily map[string]DailyAggregate, now time.Time, loc *time.Location) Trend {
	trend := Trend{
		SevenDayAverage:  trailingDailyAverage(daily, now, loc, 7),
		ThirtyDayAverage: trailingDailyAverage(daily, now, loc, 30),
		Direction:        TrendStable,
	}

	if trend.ThirtyDayAverage > 0 {
		trend.ChangePercent = (trend.SevenDayAverage - trend.ThirtyDayAverage) / trend.ThirtyDayAverage * 100
	}

	switch {
	case trend.ChangePercent > trendThresholdPercent:
		trend.Direction = TrendUp
	case trend.ChangePercent < -trendThresholdPercent:
		trend.Direction = TrendDown
	}

	return trend
}

// trailingDailyAverage sums total activity for the last `days` local civil
// dates, today included, divided by the window length.
func trailingDailyAverage(daily map[string]DailyAggregate, now time.Time, loc *time.Location, days int) float64 {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	total := 0
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, -i).Format(DateLayout)
		if agg, ok := daily[date]; ok {
			total += agg.TotalActivity()
		}
	}

	return float64(total) / float64(days)
}
