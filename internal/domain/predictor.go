package domain

import (
	"fmt"
	"math"
	"time"
)

// Confidence is the qualitative label attached to a prediction, derived from
// how much of the period has elapsed.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"    // progress < 0.3
	ConfidenceMedium Confidence = "medium" // 0.3 - 0.7
	ConfidenceHigh   Confidence = "high"   // progress > 0.7
)

// range spread per confidence level, as a fraction of the prediction.
const (
	spreadLow    = 0.15
	spreadMedium = 0.10
	spreadHigh   = 0.05
)

// momentum gets at most this share of the blend, however late in the period.
const maxMomentumWeight = 0.7

// PredictionRange bounds the prediction.
type PredictionRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// PredictionResult is the forward-looking count estimate for a period.
type PredictionResult struct {
	PredictedTotal int             `json:"predicted_total"`
	Range          PredictionRange `json:"range"`
	Confidence     Confidence      `json:"confidence"`
	Reasoning      []string        `json:"reasoning"`
}

// PredictionInput carries everything the predictor needs. RecentEvents is
// the event snapshot used for the trailing 24h momentum rate; only events
// inside the period and before now are considered.
type PredictionInput struct {
	CurrentCount int
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Now          time.Time
	RecentEvents []Event
}

// minRecentEvents is how many trailing-24h events are needed before the
// recent rate is trusted over the long-run rate.
const minRecentEvents = 2

// Predict blends linear extrapolation with momentum-adjusted extrapolation,
// weighted by period progress. pure linear extrapolation is misled by
// diurnal and weekly rhythms early in a period; pure recent-momentum
// overreacts to short bursts. the blend trusts the long-run rate early and
// short-term momentum late, when little time remains for a burst to mislead.
// never returns fewer events than already observed, and never fails on
// degenerate input.
func Predict(in PredictionInput) PredictionResult {
	elapsedDays := in.Now.Sub(in.PeriodStart).Hours() / 24
	totalDays := in.PeriodEnd.Sub(in.PeriodStart).Hours() / 24

	if elapsedDays <= 0 || in.CurrentCount <= 0 {
		count := in.CurrentCount
		if count < 0 {
			count = 0
		}
		return PredictionResult{
			PredictedTotal: count,
			Range:          PredictionRange{Min: count, Max: count},
			Confidence:     ConfidenceLow,
			Reasoning:      []string{"insufficient data: period not started or no events observed yet"},
		}
	}

	remainingDays := totalDays - elapsedDays
	if remainingDays < 0 {
		remainingDays = 0
	}
	progress := elapsedDays / totalDays
	if progress > 1 {
		progress = 1
	}

	reasoning := []string{
		fmt.Sprintf("observed %d events in %.1f of %.1f days", in.CurrentCount, elapsedDays, totalDays),
	}

	simpleRate := float64(in.CurrentCount) / elapsedDays
	linearPrediction := math.Round(simpleRate * totalDays)
	reasoning = append(reasoning, fmt.Sprintf("long-run rate %.1f/day, linear extrapolation %d", simpleRate, int(linearPrediction)))

	recentRate, recentCount := trailing24hRate(in)
	if recentCount >= minRecentEvents {
		reasoning = append(reasoning, fmt.Sprintf("trailing 24h: %d events (%.1f/day)", recentCount, recentRate))
	} else {
		recentRate = simpleRate
		reasoning = append(reasoning, fmt.Sprintf("too few events in trailing 24h (%d), falling back to long-run rate", recentCount))
	}

	momentumPrediction := math.Round(float64(in.CurrentCount) + recentRate*remainingDays)

	momentumWeight := math.Min(maxMomentumWeight, progress)
	linearWeight := 1 - momentumWeight
	weighted := linearPrediction*linearWeight + momentumPrediction*momentumWeight
	reasoning = append(reasoning, fmt.Sprintf("blend: linear %d x %.2f + momentum %d x %.2f (progress %.0f%%)",
		int(linearPrediction), linearWeight, int(momentumPrediction), momentumWeight, progress*100))

	// confidence tightens the estimate as the period nears completion
	confidenceFactor := 0.90 + progress*0.10
	finalPrediction := int(math.Round(weighted * confidenceFactor))

	// never forecast fewer events than already observed
	if finalPrediction < in.CurrentCount {
		finalPrediction = in.CurrentCount
	}

	confidence := confidenceForProgress(progress)
	spread := spreadForConfidence(confidence)
	result := PredictionResult{
		PredictedTotal: finalPrediction,
		Range: PredictionRange{
			Min: int(math.Round(float64(finalPrediction) * (1 - spread))),
			Max: int(math.Round(float64(finalPrediction) * (1 + spread))),
		},
		Confidence: confidence,
	}
	if result.Range.Min < in.CurrentCount {
		result.Range.Min = in.CurrentCount
	}

	reasoning = append(reasoning, fmt.Sprintf("confidence factor %.2f, final prediction %d (%s, range %d-%d)",
		confidenceFactor, finalPrediction, confidence, result.Range.Min, result.Range.Max))
	result.Reasoning = reasoning

	return result
}

// trailing24hRate counts period events in (now-24h, now] and returns the
// implied daily rate alongside the raw count.
func trailing24hRate(in PredictionInput) (float64, int) {
	windowStart := in.Now.Add(-24 * time.Hour)

	count := 0
	for _, event := range in.RecentEvents {
		instant := event.OccurredAtTime()
		if instant.After(windowStart) && !instant.After(in.Now) && !instant.Before(in.PeriodStart) {
			count++
		}
	}

	return float64(count), count
}

func confidenceForProgress(progress float64) Confidence {
	switch {
	case progress < 0.3:
		return ConfidenceLow
	case progress <= 0.7:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

func spreadForConfidence(c Confidence) float64 {
	switch c {
	case ConfidenceHigh:
		return spreadHigh
	case ConfidenceMedium:
		return spreadMedium
	default:
		return spreadLow
	}
}
