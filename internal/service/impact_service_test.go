package service

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/nutricycle/backend/internal/analytics"
	"github.com/nutricycle/backend/internal/domain"
	"github.com/nutricycle/backend/internal/repository/postgres"
	"github.com/nutricycle/backend/pkg/cache"
	"github.com/nutricycle/backend/pkg/metrics"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, c cache.Service) (*ImpactService, *postgres.MockRepository) {
	t.Helper()
	repo := postgres.NewMockRepositoryFrom(postgres.DemoDataset(fixedNow))
	svc := NewImpactService(repo, c, metrics.New(), nil, Options{
		Now:  func() time.Time { return fixedNow },
		Rand: func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) },
	})
	return svc, repo
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestListUsersTotals(t *testing.T) {
	svc, _ := newTestService(t, nil)

	got, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalUsers != 4 || got.UsersWithData != 3 || got.UsersWithoutData != 1 {
		t.Fatalf("totals: got %+v", got)
	}
}

func TestUserImpact(t *testing.T) {
	svc, _ := newTestService(t, nil)

	got, err := svc.UserImpact(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.HasData || got.FeedingLogsCount != 6 {
		t.Fatalf("expected 6 logs with data, got %+v", got)
	}
	if !near(got.TotalFoodWasteKg, 6.94) || !near(got.TotalCO2SavedKg, 13.88) {
		t.Fatalf("totals: got %v kg waste, %v kg co2", got.TotalFoodWasteKg, got.TotalCO2SavedKg)
	}
	if len(got.FeedingLogs) != 6 {
		t.Fatalf("recent logs: got %d", len(got.FeedingLogs))
	}
	if got.Breakdown == nil || !near(got.Breakdown.EffectiveVolume, 45.8) {
		t.Fatalf("breakdown: got %+v", got.Breakdown)
	}

	wantMonths := []string{"Apr", "May", "Jun"}
	if len(got.MonthlyData) != len(wantMonths) {
		t.Fatalf("expected %d months, got %+v", len(wantMonths), got.MonthlyData)
	}
	for i, m := range got.MonthlyData {
		if m.Month != wantMonths[i] || m.Year != 2025 {
			t.Fatalf("month %d: got %s %d", i, m.Month, m.Year)
		}
	}
	if last := got.MonthlyData[2]; !near(last.CumulativeCO2Kg, 13.88) {
		t.Fatalf("cumulative: got %v want 13.88", last.CumulativeCO2Kg)
	}

	want := analytics.ComputeEquivalents(13.88, analytics.EquivalenceV2)
	if got.Impact != want {
		t.Fatalf("impact: got %+v want %+v", got.Impact, want)
	}
}

func TestUserImpactStates(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.UserImpact(ctx, "carol"); !errors.Is(err, domain.ErrProfileIncomplete) {
		t.Fatalf("carol: expected ErrProfileIncomplete, got %v", err)
	}
	if _, err := svc.UserImpact(ctx, "nobody"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("nobody: expected ErrUserNotFound, got %v", err)
	}

	dave, err := svc.UserImpact(ctx, "dave")
	if err != nil {
		t.Fatalf("dave: unexpected error: %v", err)
	}
	if dave.HasData || dave.Message != MsgNoFeedingLogs {
		t.Fatalf("dave: expected no-data payload, got %+v", dave)
	}
	if dave.FeedingLogs == nil || dave.MonthlyData == nil {
		t.Fatalf("dave: no-data payload should carry empty arrays")
	}
}

func TestFeedingLogsLimit(t *testing.T) {
	svc, _ := newTestService(t, nil)

	got, err := svc.FeedingLogs(context.Background(), "alice", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Count != 2 || len(got.FeedingLogs) != 2 {
		t.Fatalf("expected 2 logs, got %+v", got)
	}

	got, _ = svc.FeedingLogs(context.Background(), "dave", 0)
	if got.FeedingLogs == nil || got.Count != 0 {
		t.Fatalf("dave: expected empty list, got %+v", got)
	}
}

func TestGlobalStats(t *testing.T) {
	svc, _ := newTestService(t, nil)

	got, err := svc.GlobalStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.TotalUsers != 4 || got.ActiveUsers != 3 || got.UsersOnDefaultProfile != 1 {
		t.Fatalf("user counts: got %+v", got)
	}
	if got.TotalFeedingLogs != 9 {
		t.Fatalf("logs: got %d want 9", got.TotalFeedingLogs)
	}
	if !near(got.GlobalFoodWasteKg, 9.09) || !near(got.GlobalCO2SavedKg, 18.18) || !near(got.AvgCO2PerUserKg, 6.06) {
		t.Fatalf("sums: got %+v", got)
	}
	if !near(got.TreesPlanted, 0.83) || !near(got.PetrolSavedLitres, 7.8) || !near(got.CarMilesOffset, 40) {
		t.Fatalf("equivalents: got %+v", got)
	}
	if got.EquivalenceVersion != "v2" {
		t.Fatalf("version: got %q", got.EquivalenceVersion)
	}
}

func TestGlobalStatsIsStableAcrossRuns(t *testing.T) {
	svc, _ := newTestService(t, nil)
	first, _ := svc.GlobalStats(context.Background())
	for i := 0; i < 20; i++ {
		next, err := svc.GlobalStats(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next != first {
			t.Fatalf("run %d differs: %+v vs %+v", i, next, first)
		}
	}
}

// reassignIDs gives each user the telegram id at the same position in ids,
// carrying their logs, readings and forecast along. The repository lists
// users by id, so this changes the order users are processed and summed in.
func reassignIDs(ds postgres.Dataset, ids []int64) postgres.Dataset {
	out := postgres.Dataset{
		Logs:      map[int64][]domain.FeedingEntry{},
		Moisture:  map[int64][]domain.MoistureReading{},
		Forecasts: map[int64]*domain.ECForecastRecord{},
	}
	for i, u := range ds.Users {
		old, id := u.TelegramID, ids[i]
		u.TelegramID = id
		out.Users = append(out.Users, u)
		out.Logs[id] = ds.Logs[old]
		out.Moisture[id] = ds.Moisture[old]
		if rec := ds.Forecasts[old]; rec != nil {
			cp := *rec
			cp.TelegramID = id
			out.Forecasts[id] = &cp
		}
	}
	return out
}

func permutations(ids []int64) [][]int64 {
	if len(ids) <= 1 {
		return [][]int64{append([]int64(nil), ids...)}
	}
	var out [][]int64
	for i := range ids {
		rest := append(append([]int64(nil), ids[:i]...), ids[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]int64{ids[i]}, p...))
		}
	}
	return out
}

func TestGlobalStatsIndependentOfUserOrder(t *testing.T) {
	base := postgres.DemoDataset(fixedNow)
	ids := make([]int64, len(base.Users))
	for i := range ids {
		ids[i] = int64(5001 + i)
	}

	var want domain.GlobalStats
	for n, perm := range permutations(ids) {
		repo := postgres.NewMockRepositoryFrom(reassignIDs(base, perm))
		svc := NewImpactService(repo, nil, nil, nil, Options{Now: func() time.Time { return fixedNow }})

		got, err := svc.GlobalStats(context.Background())
		if err != nil {
			t.Fatalf("permutation %v: %v", perm, err)
		}
		if n == 0 {
			want = got
			continue
		}
		if !near(got.GlobalCO2SavedKg, want.GlobalCO2SavedKg) || !near(got.GlobalFoodWasteKg, want.GlobalFoodWasteKg) ||
			!near(got.AvgCO2PerUserKg, want.AvgCO2PerUserKg) || got.ActiveUsers != want.ActiveUsers ||
			got.TotalFeedingLogs != want.TotalFeedingLogs || got.UsersOnDefaultProfile != want.UsersOnDefaultProfile {
			t.Fatalf("permutation %v: got %+v want %+v", perm, got, want)
		}
	}
	if !near(want.GlobalCO2SavedKg, 18.18) {
		t.Fatalf("global CO2: got %v want 18.18", want.GlobalCO2SavedKg)
	}
}

func TestGlobalStatsPropagatesRepositoryFailure(t *testing.T) {
	svc, repo := newTestService(t, nil)
	boom := errors.New("connection reset")
	repo.FailOn("GetFeedingLogs", boom)

	if _, err := svc.GlobalStats(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected repository error, got %v", err)
	}
}

func TestMoistureProjection(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	got, err := svc.MoistureProjection(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.HasData || got.Forecast == nil {
		t.Fatalf("expected forecast, got %+v", got)
	}
	if got.Forecast.Projections[0].ProjectedPercentage != 64.5 {
		t.Fatalf("day 0 should be the latest reading, got %v", got.Forecast.Projections[0].ProjectedPercentage)
	}
	if want := fixedNow.AddDate(0, 0, -1).Format(time.DateOnly); got.Forecast.Projections[0].Date != want {
		t.Fatalf("anchor date: got %s want %s", got.Forecast.Projections[0].Date, want)
	}

	bob, err := svc.MoistureProjection(ctx, "bob")
	if err != nil {
		t.Fatalf("bob: unexpected error: %v", err)
	}
	if bob.HasData || bob.Message != MsgNoMoisture {
		t.Fatalf("bob only has ml readings, got %+v", bob)
	}
}

func TestManualMoistureProjection(t *testing.T) {
	svc, _ := newTestService(t, nil)

	got, err := svc.ManualMoistureProjection(35)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Projections[0].Date != "2025-06-15" || got.Projections[0].Status != domain.MoistureLow {
		t.Fatalf("day 0: got %+v", got.Projections[0])
	}
	if _, err := svc.ManualMoistureProjection(120); err == nil {
		t.Fatalf("expected validation error for 120%%")
	}
}

func TestECForecast(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	got, err := svc.ECForecast(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.HasData || got.Forecast == nil {
		t.Fatalf("expected forecast, got %+v", got)
	}
	if len(got.Forecast.ForecastPoints) != 7 || got.Forecast.Trend.Direction != domain.TrendIncreasing {
		t.Fatalf("forecast: got %+v", got.Forecast)
	}
	if len(got.Forecast.Alerts) != 0 {
		t.Fatalf("alert level none should not produce alerts")
	}

	bob, _ := svc.ECForecast(ctx, "bob")
	if bob.HasData || bob.Message != MsgNoForecast {
		t.Fatalf("bob: expected no-data payload, got %+v", bob)
	}
}

func TestResponsesAreCached(t *testing.T) {
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	svc, repo := newTestService(t, mc)
	ctx := context.Background()

	first, err := svc.UserImpact(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// a cached response survives the repository going away
	repo.FailOn("GetUser", errors.New("down"))
	second, err := svc.UserImpact(ctx, "alice")
	if err != nil {
		t.Fatalf("expected cached response, got %v", err)
	}
	if second.TotalCO2SavedKg != first.TotalCO2SavedKg || len(second.MonthlyData) != len(first.MonthlyData) {
		t.Fatalf("cached response differs: %+v vs %+v", second, first)
	}

	// moisture is never cached
	if _, err := svc.MoistureProjection(ctx, "alice"); err == nil {
		t.Fatalf("moisture projection should hit the repository")
	}

	repo.FailOn("GetUser", nil)
	if err := svc.InvalidateUser(ctx, "alice"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	repo.FailOn("GetUser", errors.New("down"))
	if _, err := svc.UserImpact(ctx, "alice"); err == nil {
		t.Fatalf("expected a recompute after invalidation")
	}
}

func TestEquivalenceVersionIsConfigurable(t *testing.T) {
	repo := postgres.NewMockRepositoryFrom(postgres.DemoDataset(fixedNow))
	svc := NewImpactService(repo, nil, nil, nil, Options{Equivalence: analytics.EquivalenceV1})

	got, err := svc.GlobalStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.EquivalenceVersion != "v1" || !near(got.TreesPlanted, 0.73) {
		t.Fatalf("v1 equivalents: got %+v", got)
	}
}
