package postgres

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nutricycle/backend/internal/domain"
)

// Dataset is the content served by a MockRepository.
type Dataset struct {
	Users     []domain.User
	Logs      map[int64][]domain.FeedingEntry
	Moisture  map[int64][]domain.MoistureReading
	Forecasts map[int64]*domain.ECForecastRecord
}

// MockRepository implements domain.DataRepository for testing/demo mode
type MockRepository struct {
	mu       sync.RWMutex
	data     Dataset
	failures map[string]error
}

// NewMockRepository creates a mock repository holding the demo dataset
func NewMockRepository() *MockRepository {
	return NewMockRepositoryFrom(DemoDataset(time.Now().UTC()))
}

// NewMockRepositoryFrom serves ds as-is
func NewMockRepositoryFrom(ds Dataset) *MockRepository {
	if ds.Logs == nil {
		ds.Logs = map[int64][]domain.FeedingEntry{}
	}
	if ds.Moisture == nil {
		ds.Moisture = map[int64][]domain.MoistureReading{}
	}
	if ds.Forecasts == nil {
		ds.Forecasts = map[int64]*domain.ECForecastRecord{}
	}
	return &MockRepository{data: ds, failures: map[string]error{}}
}

// FailOn makes the named method return err until cleared with a nil err
func (r *MockRepository) FailOn(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, method)
		return
	}
	r.failures[method] = err
}

func (r *MockRepository) fail(method string) error {
	return r.failures[method]
}

// ListUsers orders by log count descending, then username
func (r *MockRepository) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.fail("ListUsers"); err != nil {
		return nil, err
	}

	out := make([]domain.UserSummary, 0, len(r.data.Users))
	for _, u := range r.data.Users {
		logs := r.data.Logs[u.TelegramID]
		s := domain.UserSummary{
			Username:         u.Username,
			TelegramID:       u.TelegramID,
			FeedingLogsCount: len(logs),
			HasData:          len(logs) > 0,
		}
		for _, l := range logs {
			if s.LastFeedingDate == nil || l.CreatedAt.After(*s.LastFeedingDate) {
				ts := l.CreatedAt
				s.LastFeedingDate = &ts
			}
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FeedingLogsCount != out[j].FeedingLogsCount {
			return out[i].FeedingLogsCount > out[j].FeedingLogsCount
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

// GetUser returns ErrUserNotFound for unknown usernames
func (r *MockRepository) GetUser(ctx context.Context, username string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.fail("GetUser"); err != nil {
		return domain.User{}, err
	}

	for _, u := range r.data.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

// ListUserProfiles returns users ordered by telegram id
func (r *MockRepository) ListUserProfiles(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.fail("ListUserProfiles"); err != nil {
		return nil, err
	}

	out := append([]domain.User(nil), r.data.Users...)
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

// GetFeedingLogs returns logs newest first
func (r *MockRepository) GetFeedingLogs(ctx context.Context, telegramID int64, limit int) ([]domain.FeedingEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.fail("GetFeedingLogs"); err != nil {
		return nil, err
	}

	logs := append([]domain.FeedingEntry(nil), r.data.Logs[telegramID]...)
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

// GetLatestMoisture skips readings that are not percentages
func (r *MockRepository) GetLatestMoisture(ctx context.Context, telegramID int64) (*domain.MoistureReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.fail("GetLatestMoisture"); err != nil {
		return nil, err
	}

	var latest *domain.MoistureReading
	for _, m := range r.data.Moisture[telegramID] {
		if _, ok := m.Moisture.Percentage(); !ok {
			continue
		}
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			reading := m
			latest = &reading
		}
	}
	return latest, nil
}

// GetLatestForecast returns nil when no forecast is stored
func (r *MockRepository) GetLatestForecast(ctx context.Context, telegramID int64) (*domain.ECForecastRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.fail("GetLatestForecast"); err != nil {
		return nil, err
	}

	rec, ok := r.data.Forecasts[telegramID]
	if !ok || rec == nil {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// Health fails only when told to
func (r *MockRepository) Health(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fail("Health")
}
