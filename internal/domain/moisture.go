package domain

import "time"

// MoistureReading is a plant moisture sample.
type MoistureReading struct {
	Moisture  Moisture  `json:"moisture"`
	CreatedAt time.Time `json:"createdAt"`
}

// MoistureStatus classifies a projected moisture percentage.
type MoistureStatus string

const (
	MoistureCritical MoistureStatus = "critical"
	MoistureLow      MoistureStatus = "low"
	MoistureModerate MoistureStatus = "moderate"
	MoistureGood     MoistureStatus = "good"
)

// NeedsWater reports whether the status is below moderate.
func (s MoistureStatus) NeedsWater() bool {
	return s == MoistureCritical || s == MoistureLow
}

// MoistureProjectionDay is one day of a moisture forecast.
type MoistureProjectionDay struct {
	Day                 int            `json:"day"`
	Date                string         `json:"date"`
	DayOfWeek           string         `json:"dayName"`
	ProjectedPercentage float64        `json:"moisturePercentage"`
	Status              MoistureStatus `json:"status"`
	Recommendation      string         `json:"recommendation"`
}

// MoistureAlert flags a projected day that needs watering.
type MoistureAlert struct {
	Date    string         `json:"date"`
	Day     string         `json:"day"`
	Status  MoistureStatus `json:"status"`
	Value   float64        `json:"value"`
	Message string         `json:"message"`
}

// MoistureForecast is the full projection output.
type MoistureForecast struct {
	CurrentMoisture       float64                 `json:"currentMoisture"`
	AnchorDate            time.Time               `json:"anchorDate"`
	Projections           []MoistureProjectionDay `json:"projections"`
	Alerts                []MoistureAlert         `json:"alerts"`
	OverallRecommendation string                  `json:"overallRecommendation"`
	NextWateringDay       string                  `json:"nextWateringDay"`
	Tips                  []string                `json:"tips"`
}

// MoistureProjectionView wraps a forecast with the no-data state.
type MoistureProjectionView struct {
	Username string            `json:"username,omitempty"`
	HasData  bool              `json:"hasData"`
	Message  string            `json:"message,omitempty"`
	Forecast *MoistureForecast `json:"forecast,omitempty"`
}
