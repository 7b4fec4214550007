package postgres

import (
	"time"

	"github.com/nutricycle/backend/internal/domain"
)

// Demo users. Together they cover every dashboard state: a complete
// profile with all data, volume-only moisture, a missing profile and a
// user who never fed the bin.
const (
	DemoAlice int64 = 1001
	DemoBob   int64 = 1002
	DemoCarol int64 = 1003
	DemoDave  int64 = 1004
)

func ptr[T any](v T) *T { return &v }

// DemoDataset builds the demo data relative to now.
func DemoDataset(now time.Time) Dataset {
	day := func(n int) time.Time { return now.AddDate(0, 0, -n) }
	pct := domain.PercentageMoisture
	ml := domain.VolumeMoisture

	logs := map[int64][]domain.FeedingEntry{
		DemoAlice: {
			{GreensGrams: 850, BrownsGrams: 400, Moisture: ptr(pct(55)), CreatedAt: day(2)},
			{GreensGrams: 620, BrownsGrams: 310, Moisture: ptr(pct(58)), CreatedAt: day(9)},
			{GreensGrams: 1200, BrownsGrams: 500, CreatedAt: day(21)},
			{GreensGrams: 430, BrownsGrams: 250, Moisture: ptr(ml(300)), CreatedAt: day(38)},
			{GreensGrams: 910, BrownsGrams: 420, CreatedAt: day(52)},
			{GreensGrams: 700, BrownsGrams: 350, CreatedAt: day(75)},
		},
		DemoBob: {
			{GreensGrams: 300, BrownsGrams: 150, Moisture: ptr(ml(200)), CreatedAt: day(4)},
			{GreensGrams: 520, BrownsGrams: 260, CreatedAt: day(33)},
		},
		DemoCarol: {
			{GreensGrams: 640, BrownsGrams: 280, CreatedAt: day(6)},
		},
	}

	moisture := map[int64][]domain.MoistureReading{
		DemoAlice: {
			{Moisture: pct(48), CreatedAt: day(5)},
			{Moisture: pct(64.5), CreatedAt: day(1)},
		},
		DemoBob: {
			{Moisture: ml(250), CreatedAt: day(3)},
		},
	}

	start := now.Truncate(24 * time.Hour)
	predictions := []float64{2.41, 2.45, 2.48, 2.52, 2.55, 2.57, 2.6}
	dates := make([]time.Time, len(predictions))
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i+1)
	}

	forecasts := map[int64]*domain.ECForecastRecord{
		DemoAlice: {
			TelegramID:           DemoAlice,
			CurrentEC:            ptr(2.38),
			CurrentMoisture:      ptr(62.0),
			PredictedEC:          predictions,
			PredictionDates:      dates,
			Week1EC:              ptr(2.6),
			Week2EC:              ptr(2.71),
			Month1EC:             ptr(2.84),
			Month2EC:             ptr(2.9),
			Month3EC:             ptr(2.93),
			AverageEC:            ptr(2.67),
			MinEC:                ptr(2.41),
			MaxEC:                ptr(2.93),
			ECTrend:              ptr("increasing"),
			ReadinessStatus:      ptr("short_term"),
			EstimatedDaysToReady: ptr(18),
			CompletionPercentage: ptr(72.5),
			QualityScore:         ptr(7.4),
			AlertLevel:           ptr("none"),
			Recommendations: []string{
				"Keep moisture between 50% and 60%",
				"Turn the pile twice a week",
			},
			CreatedAt: day(1),
		},
	}

	return Dataset{
		Users: []domain.User{
			{TelegramID: DemoAlice, Username: "alice", Profile: &domain.ContainerProfile{TankVolumeLiters: 50, SoilVolumeLiters: 20}},
			{TelegramID: DemoBob, Username: "bob", Profile: &domain.ContainerProfile{TankVolumeLiters: 40, SoilVolumeLiters: 10}},
			{TelegramID: DemoCarol, Username: "carol"},
			{TelegramID: DemoDave, Username: "dave", Profile: &domain.ContainerProfile{TankVolumeLiters: 60, SoilVolumeLiters: 25}},
		},
		Logs:      logs,
		Moisture:  moisture,
		Forecasts: forecasts,
	}
}
