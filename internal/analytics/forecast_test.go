package analytics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nutricycle/backend/internal/domain"
)

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

func forecastDates(n int) []time.Time {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i+1)
	}
	return out
}

func TestInterpretForecastMismatchedArrays(t *testing.T) {
	rec := domain.ECForecastRecord{
		PredictedEC:     []float64{1.2, 1.4, 1.6},
		PredictionDates: forecastDates(2),
	}
	_, err := InterpretForecast(rec)
	if !errors.Is(err, domain.ErrMalformedForecast) {
		t.Fatalf("expected ErrMalformedForecast, got %v", err)
	}
}

func TestInterpretForecastPoints(t *testing.T) {
	rec := domain.ECForecastRecord{
		CurrentEC:       f64(1.8),
		PredictedEC:     []float64{1.2, 1.5, 3.0, 3.1},
		PredictionDates: forecastDates(4),
	}
	got, err := InterpretForecast(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.ECStatus{domain.ECLow, domain.ECOptimal, domain.ECOptimal, domain.ECHigh}
	if len(got.ForecastPoints) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got.ForecastPoints))
	}
	for i, p := range got.ForecastPoints {
		if p.Day != i+1 {
			t.Fatalf("point %d: day got %d want %d", i, p.Day, i+1)
		}
		if p.Status != want[i] {
			t.Fatalf("point %d: status got %s want %s", i, p.Status, want[i])
		}
		if !p.Date.Equal(rec.PredictionDates[i]) {
			t.Fatalf("point %d: date got %v want %v", i, p.Date, rec.PredictionDates[i])
		}
	}
}

func TestInterpretForecastDefaults(t *testing.T) {
	got, err := InterpretForecast(domain.ECForecastRecord{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Timeline != (domain.ForecastTimeline{}) {
		t.Fatalf("expected zero timeline, got %+v", got.Timeline)
	}
	if got.CurrentEC != 0 || got.CurrentMoisture != 0 {
		t.Fatalf("expected zero readings, got %v / %v", got.CurrentEC, got.CurrentMoisture)
	}
	if got.Recommendations == nil || len(got.Recommendations) != 0 {
		t.Fatalf("expected empty recommendations, got %v", got.Recommendations)
	}
	if got.Alerts == nil || len(got.Alerts) != 0 {
		t.Fatalf("expected empty alerts, got %v", got.Alerts)
	}
	if got.Quality.Description != "Needs Improvement" {
		t.Fatalf("quality: got %q", got.Quality.Description)
	}
	if got.Summary != "Compost readiness is still being assessed." {
		t.Fatalf("summary: got %q", got.Summary)
	}
	if got.Trend.Direction != "" {
		t.Fatalf("trend: expected none, got %q", got.Trend.Direction)
	}
}

func TestInterpretForecastAlerts(t *testing.T) {
	cases := []struct {
		name  string
		level *string
		msg   *string
		want  int
	}{
		{"absent", nil, nil, 0},
		{"none", str("none"), str("ignored"), 0},
		{"none upper case", str("NONE"), nil, 0},
		{"warning", str("warning"), str("EC rising fast"), 1},
		{"warning without message", str("warning"), nil, 1},
	}
	for _, tc := range cases {
		got, err := InterpretForecast(domain.ECForecastRecord{AlertLevel: tc.level, AlertMessage: tc.msg})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if len(got.Alerts) != tc.want {
			t.Fatalf("%s: got %d alerts want %d", tc.name, len(got.Alerts), tc.want)
		}
		if tc.want == 1 && got.Alerts[0].Message == "" {
			t.Fatalf("%s: alert has empty message", tc.name)
		}
	}
}

func TestInterpretForecastStoredTrendWins(t *testing.T) {
	rec := domain.ECForecastRecord{
		CurrentEC: f64(2.0),
		Month3EC:  f64(3.0),
		ECTrend:   str("Stable"),
	}
	got, _ := InterpretForecast(rec)
	if got.Trend.Direction != domain.TrendStable {
		t.Fatalf("got %q want stable", got.Trend.Direction)
	}
	if !strings.HasPrefix(got.Trend.Description, "Stable trend") {
		t.Fatalf("description: got %q", got.Trend.Description)
	}
}

func TestInterpretForecastDerivedTrend(t *testing.T) {
	cases := []struct {
		month3 float64
		want   string
	}{
		{3.0, domain.TrendIncreasing},
		{1.5, domain.TrendDecreasing},
		{2.1, domain.TrendStable},
	}
	for _, tc := range cases {
		got, _ := InterpretForecast(domain.ECForecastRecord{CurrentEC: f64(2.0), Month3EC: f64(tc.month3)})
		if got.Trend.Direction != tc.want {
			t.Fatalf("month3 %v: got %q want %q", tc.month3, got.Trend.Direction, tc.want)
		}
	}

	// falls back to the last prediction when the horizon is missing
	got, _ := InterpretForecast(domain.ECForecastRecord{
		CurrentEC:       f64(2.0),
		PredictedEC:     []float64{2.2, 2.6, 2.9},
		PredictionDates: forecastDates(3),
	})
	if got.Trend.Direction != domain.TrendIncreasing {
		t.Fatalf("last prediction fallback: got %q", got.Trend.Direction)
	}

	// a stored month-3 value of 0 is used, not replaced by the last prediction
	got, _ = InterpretForecast(domain.ECForecastRecord{
		CurrentEC:       f64(2.0),
		Month3EC:        f64(0),
		PredictedEC:     []float64{2.2, 2.6, 2.9},
		PredictionDates: forecastDates(3),
	})
	if got.Trend.Direction != domain.TrendDecreasing {
		t.Fatalf("stored zero month-3: got %q want %q", got.Trend.Direction, domain.TrendDecreasing)
	}

	if got, _ := InterpretForecast(domain.ECForecastRecord{CurrentEC: f64(2.0)}); got.Trend.Direction != "" {
		t.Fatalf("no horizon and no predictions: got %q", got.Trend.Direction)
	}
}

func TestLevelInsight(t *testing.T) {
	got, _ := InterpretForecast(domain.ECForecastRecord{AverageEC: f64(3.8)})
	if !strings.HasPrefix(got.Trend.LevelInsight, "High EC") {
		t.Fatalf("high: got %q", got.Trend.LevelInsight)
	}
	got, _ = InterpretForecast(domain.ECForecastRecord{AverageEC: f64(2.2)})
	if !strings.HasPrefix(got.Trend.LevelInsight, "Optimal EC") {
		t.Fatalf("optimal: got %q", got.Trend.LevelInsight)
	}
}

func TestQualityDescription(t *testing.T) {
	cases := map[float64]string{
		9.1: "Excellent",
		8:   "Good",
		6.5: "Good",
		6:   "Fair",
		4.2: "Fair",
		4:   "Needs Improvement",
		0:   "Needs Improvement",
	}
	for score, want := range cases {
		if got := QualityDescription(score); got != want {
			t.Fatalf("score %v: got %q want %q", score, got, want)
		}
	}
}

func TestReadinessSummary(t *testing.T) {
	if got := ReadinessSummary(domain.ReadinessReadySoon, 5); !strings.Contains(got, "5 days") {
		t.Fatalf("ready soon: got %q", got)
	}
	if got := ReadinessSummary(domain.ReadinessNeedsAttention, 0); !strings.Contains(got, "needs attention") {
		t.Fatalf("needs attention: got %q", got)
	}
	if got := ReadinessSummary("mystery", 3); got != "Compost readiness is still being assessed." {
		t.Fatalf("unknown: got %q", got)
	}
}

func TestInterpretForecastReadinessPassthrough(t *testing.T) {
	days := 12
	rec := domain.ECForecastRecord{
		ReadinessStatus:      str("SHORT_TERM"),
		EstimatedDaysToReady: &days,
		CompletionPercentage: f64(64.5),
		QualityScore:         f64(7.2),
		Recommendations:      []string{"Turn the pile"},
	}
	got, err := InterpretForecast(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Readiness.Status != domain.ReadinessShortTerm || got.Readiness.EstimatedDays != 12 {
		t.Fatalf("readiness: got %+v", got.Readiness)
	}
	if got.Quality.Description != "Good" {
		t.Fatalf("quality: got %q", got.Quality.Description)
	}
	if len(got.Recommendations) != 1 {
		t.Fatalf("recommendations: got %v", got.Recommendations)
	}
}
