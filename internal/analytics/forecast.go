package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/nutricycle/backend/internal/domain"
)

// Mature compost EC band, in mS/cm.
const (
	OptimalECMin = 1.5
	OptimalECMax = 3.0
)

const (
	highECLevel    = 3.5
	lowECLevel     = 1.0
	risingRatio    = 1.2
	decliningRatio = 0.8
)

// normalizedForecast is an ECForecastRecord with every optional field
// resolved to its default.
type normalizedForecast struct {
	currentEC       float64
	currentMoisture float64
	predictions     []float64
	dates           []time.Time
	timeline        domain.ForecastTimeline
	hasMonth3       bool // a stored 0 is a value, not an absence
	trend           string
	readiness       string
	estimatedDays   int
	completion      float64
	qualityScore    float64
	alertLevel      string
	alertMessage    string
	recommendations []string
	generatedAt     time.Time
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return strings.TrimSpace(*v)
}

func normalizeForecast(rec domain.ECForecastRecord) normalizedForecast {
	days := 0
	if rec.EstimatedDaysToReady != nil {
		days = *rec.EstimatedDaysToReady
	}
	recs := rec.Recommendations
	if recs == nil {
		recs = []string{}
	}

	return normalizedForecast{
		currentEC:       floatOr(rec.CurrentEC, 0),
		currentMoisture: floatOr(rec.CurrentMoisture, 0),
		predictions:     rec.PredictedEC,
		dates:           rec.PredictionDates,
		timeline: domain.ForecastTimeline{
			Week1:   floatOr(rec.Week1EC, 0),
			Week2:   floatOr(rec.Week2EC, 0),
			Month1:  floatOr(rec.Month1EC, 0),
			Month2:  floatOr(rec.Month2EC, 0),
			Month3:  floatOr(rec.Month3EC, 0),
			Average: floatOr(rec.AverageEC, 0),
			Min:     floatOr(rec.MinEC, 0),
			Max:     floatOr(rec.MaxEC, 0),
		},
		hasMonth3:       rec.Month3EC != nil,
		trend:           strings.ToLower(stringOr(rec.ECTrend, "")),
		readiness:       strings.ToLower(stringOr(rec.ReadinessStatus, "")),
		estimatedDays:   days,
		completion:      floatOr(rec.CompletionPercentage, 0),
		qualityScore:    floatOr(rec.QualityScore, 0),
		alertLevel:      strings.ToLower(stringOr(rec.AlertLevel, "")),
		alertMessage:    stringOr(rec.AlertMessage, ""),
		recommendations: recs,
		generatedAt:     rec.CreatedAt,
	}
}

// ClassifyEC places a predicted EC value relative to the optimal band.
func ClassifyEC(ec float64) domain.ECStatus {
	switch {
	case ec < OptimalECMin:
		return domain.ECLow
	case ec > OptimalECMax:
		return domain.ECHigh
	default:
		return domain.ECOptimal
	}
}

// InterpretForecast reshapes a stored EC forecast into the dashboard view.
// The prediction and date arrays must be the same length.
func InterpretForecast(rec domain.ECForecastRecord) (domain.ForecastInterpretation, error) {
	if len(rec.PredictedEC) != len(rec.PredictionDates) {
		return domain.ForecastInterpretation{}, fmt.Errorf("%w: %d predictions, %d dates",
			domain.ErrMalformedForecast, len(rec.PredictedEC), len(rec.PredictionDates))
	}

	n := normalizeForecast(rec)

	points := make([]domain.ForecastPoint, len(n.predictions))
	for i, ec := range n.predictions {
		points[i] = domain.ForecastPoint{
			Day:         i + 1,
			Date:        n.dates[i],
			PredictedEC: ec,
			Status:      ClassifyEC(ec),
		}
	}

	direction := n.trend
	if direction == "" {
		direction = deriveTrend(n)
	}

	var alerts []domain.ForecastAlert
	if n.alertLevel != "" && n.alertLevel != domain.AlertLevelNone {
		msg := n.alertMessage
		if msg == "" {
			msg = "Compost conditions need a check."
		}
		alerts = append(alerts, domain.ForecastAlert{Level: n.alertLevel, Message: msg})
	}
	if alerts == nil {
		alerts = []domain.ForecastAlert{}
	}

	return domain.ForecastInterpretation{
		CurrentEC:       n.currentEC,
		CurrentMoisture: n.currentMoisture,
		ForecastPoints:  points,
		Timeline:        n.timeline,
		Trend: domain.ForecastTrend{
			Direction:    direction,
			Description:  trendDescription(direction),
			LevelInsight: levelInsight(n.timeline.Average),
		},
		Readiness: domain.ForecastReadiness{
			Status:               n.readiness,
			EstimatedDays:        n.estimatedDays,
			CompletionPercentage: n.completion,
		},
		Quality: domain.ForecastQuality{
			Score:       n.qualityScore,
			Description: QualityDescription(n.qualityScore),
		},
		Recommendations: n.recommendations,
		Alerts:          alerts,
		Summary:         ReadinessSummary(n.readiness, n.estimatedDays),
		GeneratedAt:     n.generatedAt,
	}, nil
}

// deriveTrend compares the 3-month horizon (or the last prediction) with the
// current EC when the forecaster did not store a trend.
func deriveTrend(n normalizedForecast) string {
	var final float64
	switch {
	case n.hasMonth3:
		final = n.timeline.Month3
	case len(n.predictions) > 0:
		final = n.predictions[len(n.predictions)-1]
	default:
		return ""
	}
	if n.currentEC <= 0 {
		return ""
	}

	switch {
	case final > n.currentEC*risingRatio:
		return domain.TrendIncreasing
	case final < n.currentEC*decliningRatio:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

func trendDescription(direction string) string {
	switch direction {
	case domain.TrendIncreasing:
		return "Rising trend: EC is expected to increase. Consider more frequent watering to manage salinity."
	case domain.TrendDecreasing:
		return "Declining trend: EC is expected to decrease as nutrients are absorbed."
	case domain.TrendStable:
		return "Stable trend: EC levels remain relatively consistent, a sign of good nutrient balance."
	default:
		return "Trend not available yet."
	}
}

func levelInsight(avg float64) string {
	switch {
	case avg > highECLevel:
		return "High EC levels: monitor for salt stress."
	case avg < lowECLevel:
		return "Low EC levels: consider nutrient supplementation."
	default:
		return "Optimal EC range: good for most plants."
	}
}

// QualityDescription grades a 0-10 quality score.
func QualityDescription(score float64) string {
	switch {
	case score > 8:
		return "Excellent"
	case score > 6:
		return "Good"
	case score > 4:
		return "Fair"
	default:
		return "Needs Improvement"
	}
}

// ReadinessSummary renders the headline message for a readiness status.
func ReadinessSummary(status string, estimatedDays int) string {
	switch status {
	case domain.ReadinessReadySoon:
		return fmt.Sprintf("Your compost is almost ready! Estimated %d days to maturity.", estimatedDays)
	case domain.ReadinessShortTerm:
		return fmt.Sprintf("Your compost is progressing well. Estimated %d days to readiness.", estimatedDays)
	case domain.ReadinessMediumTerm:
		return fmt.Sprintf("Your compost is maturing steadily. Estimated %d days to readiness.", estimatedDays)
	case domain.ReadinessNeedsAttention:
		return "Your compost needs attention. Check moisture and feeding balance."
	default:
		return "Compost readiness is still being assessed."
	}
}
