package domain

import (
	"sort"
	"time"
)

// DateLayout is the normalized local civil date format used as bucket keys.
const DateLayout = "2006-01-02"

// BucketKey uniquely identifies an hour bucket: local civil date + local hour.
type BucketKey struct {
	Date string
	Hour int
}

// HourBucket counts posts and replies for one (local date, local hour) cell.
type HourBucket struct {
	DateNormalized string
	Hour           int
	PostCount      int
	ReplyCount     int
}

// Total returns the combined post and reply count for the bucket.
func (b HourBucket) Total() int {
	return b.PostCount + b.ReplyCount
}

// AggregateHourly folds an event set into hour buckets. each event's UTC
// instant is converted to the configured civil timezone with real calendar
// rules, so month/day rollover and DST offset changes land events in the
// correct local cell. the fold is a pure grouped sum: any processing order
// over the same event set produces identical counts.
func AggregateHourly(events []Event, loc *time.Location) map[BucketKey]HourBucket {
	buckets := make(map[BucketKey]HourBucket)

	for _, event := range events {
		local := event.OccurredAtTime().In(loc)
		key := BucketKey{
			Date: local.Format(DateLayout),
			Hour: local.Hour(),
		}

		bucket, ok := buckets[key]
		if !ok {
			bucket = HourBucket{DateNormalized: key.Date, Hour: key.Hour}
		}
		if event.IsReply {
			bucket.ReplyCount++
		} else {
			bucket.PostCount++
		}
		buckets[key] = bucket
	}

	return buckets
}

// DailyAggregate is a derived, non-persisted per-date view of the bucket set.
type DailyAggregate struct {
	Date          string
	TotalPosts    int
	TotalReplies  int
	HourlyPosts   [24]int
	HourlyReplies [24]int
}

// TotalActivity returns posts plus replies for the day.
func (d DailyAggregate) TotalActivity() int {
	return d.TotalPosts + d.TotalReplies
}

// BuildDailyAggregates rolls hour buckets up into one aggregate per distinct
// local date present in the bucket set.
func BuildDailyAggregates(buckets map[BucketKey]HourBucket) map[string]DailyAggregate {
	daily := make(map[string]DailyAggregate)

	for key, bucket := range buckets {
		agg, ok := daily[key.Date]
		if !ok {
			agg = DailyAggregate{Date: key.Date}
		}
		agg.HourlyPosts[key.Hour] += bucket.PostCount
		agg.HourlyReplies[key.Hour] += bucket.ReplyCount
		agg.TotalPosts += bucket.PostCount
		agg.TotalReplies += bucket.ReplyCount
		daily[key.Date] = agg
	}

	return daily
}

// HeatmapRow is one date row of the (date, hour) activity matrix.
type HeatmapRow struct {
	Date    string  `json:"date"`
	Posts   [24]int `json:"posts"`
	Replies [24]int `json:"replies"`
	Total   int     `json:"total"`
}

// BuildHeatmap flattens the bucket set into date-sorted heatmap rows for the
// presentation layer.
func BuildHeatmap(buckets map[BucketKey]HourBucket) []HeatmapRow {
	daily := BuildDailyAggregates(buckets)

	rows := make([]HeatmapRow, 0, len(daily))
	for _, agg := range daily {
		rows = append(rows, HeatmapRow{
			Date:    agg.Date,
			Posts:   agg.HourlyPosts,
			Replies: agg.HourlyReplies,
			Total:   agg.TotalActivity(),
		})
	}

	// YYYY-MM-DD sorts chronologically as plain strings
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}

// SortedDates returns the distinct dates of the aggregate set in ascending
// order.
func SortedDates(daily map[string]DailyAggregate) []string {
	dates := make([]string, 0, len(daily))
	for date := range daily {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
