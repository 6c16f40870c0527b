package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/tidemarkhq/tidemark/internal/domain"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/config"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/postgres"
)

const barWidth = 40

func main() {
	_ = godotenv.Load()

	dsn := flag.String("dsn", os.Getenv("DATABASE_URL"), "postgres connection string")
	schema := flag.String("schema", envOrDefault("DB_SCHEMA", "tidemark"), "database schema")
	days := flag.Int("days", 14, "number of trailing days to show")
	schemeName := flag.String("scheme", "", "rotation scheme to forecast (default: first configured)")
	flag.Parse()

	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "error: -dsn or DATABASE_URL is required")
		os.Exit(1)
	}

	if err := run(*dsn, *schema, *days, *schemeName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(dsn, schema string, days int, schemeName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer pool.Close()

	scheme, err := resolveScheme(schemeName)
	if err != nil {
		return err
	}

	eventRepo := postgres.NewEventRepository(pool, schema)
	bucketRepo := postgres.NewBucketRepository(pool, schema)
	statsRepo := postgres.NewPeriodStatsRepository(pool, schema)

	buckets, err := bucketRepo.LoadAll(ctx)
	if err != nil {
		return err
	}
	daily := domain.BuildDailyAggregates(buckets)

	printDailyTotals(daily, days)
	printHourlyPattern(daily)
	if err := printPeriodHistory(ctx, statsRepo, scheme.Name()); err != nil {
		return err
	}
	return printForecast(ctx, eventRepo, scheme)
}

// resolveScheme builds the rotation scheme from SCHEMES/TRACKER_TIMEZONE.
func resolveScheme(name string) (domain.RotationScheme, error) {
	declared, err := config.ParseSchemes(os.Getenv("SCHEMES"))
	if err != nil {
		return domain.RotationScheme{}, err
	}
	if len(declared) == 0 {
		return domain.RotationScheme{}, fmt.Errorf("SCHEMES is required, e.g. weekly=2026-01-09T12:00:00")
	}

	timezone := envOrDefault("TRACKER_TIMEZONE", "America/New_York")
	for _, sc := range declared {
		if name == "" || sc.Name == name {
			return domain.NewRotationScheme(sc.Name, sc.Anchor, timezone)
		}
	}
	return domain.RotationScheme{}, fmt.Errorf("scheme %q not configured", name)
}

func printDailyTotals(daily map[string]domain.DailyAggregate, days int) {
	dates := domain.SortedDates(daily)
	if len(dates) > days {
		dates = dates[len(dates)-days:]
	}

	fmt.Println("Daily activity")
	fmt.Println(strings.Repeat("─", 60))

	maxTotal := 0
	for _, date := range dates {
		if t := daily[date].TotalActivity(); t > maxTotal {
			maxTotal = t
		}
	}
	if maxTotal == 0 {
		fmt.Println("no activity recorded")
		fmt.Println()
		return
	}

	postColor := color.New(color.FgCyan)
	replyColor := color.New(color.FgHiBlack)
	for _, date := range dates {
		agg := daily[date]
		posts := agg.TotalPosts * barWidth / maxTotal
		replies := agg.TotalReplies * barWidth / maxTotal
		fmt.Printf("%s %s%s %d\n",
			date,
			postColor.Sprint(strings.Repeat("█", posts)),
			replyColor.Sprint(strings.Repeat("█", replies)),
			agg.TotalActivity(),
		)
	}
	fmt.Println()
}

func printHourlyPattern(daily map[string]domain.DailyAggregate) {
	patterns := domain.AnalyzePatterns(daily)

	fmt.Println("Hourly pattern (posts/day average)")
	fmt.Println(strings.Repeat("─", 60))

	peak := make(map[int]bool)
	for _, h := range patterns.PeakHours {
		peak[h.Hour] = true
	}
	quiet := make(map[int]bool)
	for _, h := range patterns.QuietHours {
		quiet[h.Hour] = true
	}

	maxAvg := 0.0
	for _, avg := range patterns.HourlyAverage {
		if avg > maxAvg {
			maxAvg = avg
		}
	}

	for hour := 0; hour < 24; hour++ {
		avg := patterns.HourlyAverage[hour]
		bar := 0
		if maxAvg > 0 {
			bar = int(avg / maxAvg * barWidth)
		}

		marker := "  "
		barColor := color.New(color.Reset)
		switch {
		case peak[hour]:
			marker = color.New(color.FgYellow).Sprint("^") + " "
			barColor = color.New(color.FgYellow)
		case quiet[hour]:
			marker = color.New(color.FgBlue).Sprint("z") + " "
			barColor = color.New(color.FgBlue)
		}

		fmt.Printf("%02d:00 %s%s %.2f\n", hour, marker, barColor.Sprint(strings.Repeat("█", bar)), avg)
	}

	fmt.Printf("\npeak day %s, low day %s, %d days analyzed\n\n",
		patterns.PeakDay, patterns.LowDay, patterns.DaysAnalyzed)
}

func printPeriodHistory(ctx context.Context, repo *postgres.PeriodStatsRepository, scheme string) error {
	stats, err := repo.ListByScheme(ctx, scheme, 8)
	if err != nil {
		return err
	}

	fmt.Printf("Closed periods (%s)\n", scheme)
	fmt.Println(strings.Repeat("─", 60))
	if len(stats) == 0 {
		fmt.Println("no closed periods yet")
		fmt.Println()
		return nil
	}

	for _, s := range stats {
		fmt.Printf("%-28s posts %4d  replies %4d  total %4d\n",
			s.Period.Label, s.NonReplyCount, s.ReplyCount, s.TotalCount)
	}
	fmt.Println()
	return nil
}

func printForecast(ctx context.Context, repo *postgres.EventRepository, scheme domain.RotationScheme) error {
	events, err := repo.Snapshot(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	current, next := scheme.PeriodsAt(now)

	fmt.Printf("Forecast (%s)\n", scheme.Name())
	fmt.Println(strings.Repeat("─", 60))
	if current == nil {
		fmt.Printf("no live period yet, first period ends %s\n", next.Label)
		return nil
	}

	currentCount := domain.CountInPeriod(events, *current)
	inPeriod := make([]domain.Event, 0, currentCount)
	for _, e := range events {
		if current.Contains(e.OccurredAtTime()) {
			inPeriod = append(inPeriod, e)
		}
	}

	prediction := domain.Predict(domain.PredictionInput{
		CurrentCount: currentCount,
		PeriodStart:  current.Start,
		PeriodEnd:    current.End,
		Now:          now,
		RecentEvents: inPeriod,
	})

	bold := color.New(color.Bold)
	fmt.Printf("period ends %s\n", current.Label)
	fmt.Printf("observed    %d\n", currentCount)
	fmt.Printf("predicted   %s (range %d-%d, %s confidence)\n",
		bold.Sprintf("%d", prediction.PredictedTotal),
		prediction.Range.Min, prediction.Range.Max, prediction.Confidence)
	for _, line := range prediction.Reasoning {
		fmt.Printf("  - %s\n", line)
	}

	elapsedDays := now.Sub(current.Start).Hours() / 24
	fmt.Println("\nmomentum")
	for _, w := range domain.ShortWindowMomentum(events, now, currentCount, elapsedDays) {
		bandColor := color.New(color.Reset)
		switch w.Band {
		case domain.BandBurst:
			bandColor = color.New(color.FgRed)
		case domain.BandElevated:
			bandColor = color.New(color.FgYellow)
		case domain.BandQuiet, domain.BandLow:
			bandColor = color.New(color.FgBlue)
		}
		fmt.Printf("  %2dh window: %3d events, %.2fx expected %s\n",
			w.WindowHours, w.Actual, w.Ratio, bandColor.Sprint(string(w.Band)))
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
