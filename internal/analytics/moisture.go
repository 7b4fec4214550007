package analytics

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/nutricycle/backend/internal/domain"
	"github.com/nutricycle/backend/pkg/utils"
)

const (
	// ProjectionDays is the length of a moisture forecast, day 0 included.
	ProjectionDays = 30

	meanDailyLossPct   = 3.5
	dailyLossJitterPct = 1.0
	maxMoistureAlerts  = 5
	projectedPrecision = 1
)

// Moisture status thresholds, in percent.
const (
	criticalBelow = 20.0
	lowBelow      = 40.0
	moderateBelow = 60.0
)

// NewTimeSeededRand returns a generator seeded from the clock. Production
// projections use it; tests pass a fixed seed instead.
func NewTimeSeededRand() *rand.Rand {
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>17|1))
}

// ClassifyMoisture maps a moisture percentage onto the status ladder.
func ClassifyMoisture(pct float64) domain.MoistureStatus {
	switch {
	case pct < criticalBelow:
		return domain.MoistureCritical
	case pct < lowBelow:
		return domain.MoistureLow
	case pct < moderateBelow:
		return domain.MoistureModerate
	default:
		return domain.MoistureGood
	}
}

// ValidateMoisturePercentage rejects values outside 0..100 and NaN.
func ValidateMoisturePercentage(pct float64) error {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return fmt.Errorf("analytics: moisture percentage %.1f outside 0-100", pct)
	}
	return nil
}

// ProjectMoisture forecasts ProjectionDays of moisture decay from the current
// reading. Each day draws its own loss rate from 2.5-4.5%, so two calls with
// the same input diverge unless rng is seeded identically. Day 0 is the
// current reading as given.
func ProjectMoisture(current float64, anchor time.Time, rng *rand.Rand) domain.MoistureForecast {
	if rng == nil {
		rng = NewTimeSeededRand()
	}

	days := make([]domain.MoistureProjectionDay, 0, ProjectionDays)
	for d := 0; d < ProjectionDays; d++ {
		value, shown := current, current
		if d > 0 {
			loss := meanDailyLossPct - dailyLossJitterPct + rng.Float64()*2*dailyLossJitterPct
			value = max(0, current-loss*float64(d))
			shown = utils.RoundTo(value, projectedPrecision)
		}

		// status comes from the unrounded value; rounding is for display only
		date := anchor.AddDate(0, 0, d)
		status := ClassifyMoisture(value)
		days = append(days, domain.MoistureProjectionDay{
			Day:                 d,
			Date:                date.Format(time.DateOnly),
			DayOfWeek:           date.Weekday().String(),
			ProjectedPercentage: shown,
			Status:              status,
			Recommendation:      dayRecommendation(status),
		})
	}

	return domain.MoistureForecast{
		CurrentMoisture:       current,
		AnchorDate:            anchor,
		Projections:           days,
		Alerts:                moistureAlerts(days),
		OverallRecommendation: overallRecommendation(days),
		NextWateringDay:       nextWateringDay(days),
		Tips:                  MoistureTips(current),
	}
}

func dayRecommendation(s domain.MoistureStatus) string {
	switch s {
	case domain.MoistureCritical:
		return "Critical - Water immediately"
	case domain.MoistureLow:
		return "Low - Water soon"
	case domain.MoistureModerate:
		return "Moderate - Monitor"
	default:
		return "Good - No action needed"
	}
}

func moistureAlerts(days []domain.MoistureProjectionDay) []domain.MoistureAlert {
	alerts := make([]domain.MoistureAlert, 0, maxMoistureAlerts)
	for _, p := range days {
		if len(alerts) == maxMoistureAlerts {
			break
		}
		if !p.Status.NeedsWater() {
			continue
		}
		alerts = append(alerts, domain.MoistureAlert{
			Date:    p.Date,
			Day:     p.DayOfWeek,
			Status:  p.Status,
			Value:   p.ProjectedPercentage,
			Message: fmt.Sprintf("%s: moisture projected at %.1f%%. %s", p.DayOfWeek, p.ProjectedPercentage, dayRecommendation(p.Status)),
		})
	}
	return alerts
}

func overallRecommendation(days []domain.MoistureProjectionDay) string {
	critical, low := 0, 0
	for _, p := range days {
		switch p.Status {
		case domain.MoistureCritical:
			critical++
		case domain.MoistureLow:
			low++
		}
	}

	switch {
	case critical > 0:
		return "Immediate action required: your plant will need water within the next few days."
	case low > 2:
		return "Plan ahead: schedule watering sessions to maintain healthy moisture levels."
	default:
		return "All good: your plant's moisture levels look healthy for the month ahead."
	}
}

func nextWateringDay(days []domain.MoistureProjectionDay) string {
	for _, p := range days {
		if p.Status.NeedsWater() {
			return fmt.Sprintf("Next watering recommended: %s (%s)", p.DayOfWeek, p.Date)
		}
	}
	return "No immediate watering needed this month"
}

// MoistureTips returns care tips for the current moisture level.
func MoistureTips(current float64) []string {
	switch ClassifyMoisture(current) {
	case domain.MoistureCritical:
		return []string{
			"Water immediately with room temperature water",
			"Check drainage - soil should be moist but not waterlogged",
			"Monitor daily until moisture improves",
		}
	case domain.MoistureLow:
		return []string{
			"Plan to water within 1-2 days",
			"Check soil with finger test - top inch should be slightly moist",
			"Consider humidity levels in your environment",
		}
	case domain.MoistureModerate:
		return []string{
			"Monitor every 2-3 days",
			"Water when top layer of soil feels dry",
			"Maintain consistent watering schedule",
		}
	default:
		return []string{
			"Your plant is well-hydrated",
			"Continue current watering routine",
			"Avoid overwatering - check soil before next water",
		}
	}
}
