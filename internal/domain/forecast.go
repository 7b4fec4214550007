package domain

import "time"

// ECForecastRecord mirrors a compost status row written by the forecasting
// bot. Optional columns are pointers; nil means the column was NULL.
type ECForecastRecord struct {
	TelegramID           int64
	CurrentEC            *float64
	CurrentMoisture      *float64
	PredictedEC          []float64
	PredictionDates      []time.Time
	Week1EC              *float64
	Week2EC              *float64
	Month1EC             *float64
	Month2EC             *float64
	Month3EC             *float64
	AverageEC            *float64
	MinEC                *float64
	MaxEC                *float64
	ECTrend              *string
	ReadinessStatus      *string
	EstimatedDaysToReady *int
	CompletionPercentage *float64
	QualityScore         *float64
	AlertLevel           *string
	AlertMessage         *string
	Recommendations      []string
	CreatedAt            time.Time
}

// ECStatus classifies a predicted EC value against the maturity band.
type ECStatus string

const (
	ECLow     ECStatus = "low"
	ECOptimal ECStatus = "optimal"
	ECHigh    ECStatus = "high"
)

// Readiness statuses written by the forecaster.
const (
	ReadinessReadySoon      = "ready_soon"
	ReadinessShortTerm      = "short_term"
	ReadinessMediumTerm     = "medium_term"
	ReadinessNeedsAttention = "needs_attention"
)

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// AlertLevelNone is the sentinel for "no alert".
const AlertLevelNone = "none"

// ForecastPoint is one day of the predicted EC curve.
type ForecastPoint struct {
	Day         int       `json:"day"`
	Date        time.Time `json:"date"`
	PredictedEC float64   `json:"predictedEc"`
	Status      ECStatus  `json:"status"`
}

// ForecastTimeline holds the named horizons and curve statistics.
type ForecastTimeline struct {
	Week1   float64 `json:"week1"`
	Week2   float64 `json:"week2"`
	Month1  float64 `json:"month1"`
	Month2  float64 `json:"month2"`
	Month3  float64 `json:"month3"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// ForecastTrend describes where EC is heading.
type ForecastTrend struct {
	Direction    string `json:"direction"`
	Description  string `json:"description"`
	LevelInsight string `json:"levelInsight"`
}

// ForecastReadiness describes how close the batch is to finished.
type ForecastReadiness struct {
	Status               string  `json:"status"`
	EstimatedDays        int     `json:"estimatedDays"`
	CompletionPercentage float64 `json:"completionPercentage"`
}

// ForecastQuality is the graded quality score.
type ForecastQuality struct {
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// ForecastAlert is a stored alert surfaced to the dashboard.
type ForecastAlert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ForecastInterpretation is the structured view of an ECForecastRecord.
type ForecastInterpretation struct {
	CurrentEC       float64           `json:"currentEc"`
	CurrentMoisture float64           `json:"currentMoisture"`
	ForecastPoints  []ForecastPoint   `json:"forecastPoints"`
	Timeline        ForecastTimeline  `json:"timeline"`
	Trend           ForecastTrend     `json:"trend"`
	Readiness       ForecastReadiness `json:"readiness"`
	Quality         ForecastQuality   `json:"quality"`
	Recommendations []string          `json:"recommendations"`
	Alerts          []ForecastAlert   `json:"alerts"`
	Summary         string            `json:"summary"`
	GeneratedAt     time.Time         `json:"generatedAt"`
}

// ECForecastView wraps an interpretation with the no-data state.
type ECForecastView struct {
	Username string                  `json:"username,omitempty"`
	HasData  bool                    `json:"hasData"`
	Message  string                  `json:"message,omitempty"`
	Forecast *ForecastInterpretation `json:"forecast,omitempty"`
}
