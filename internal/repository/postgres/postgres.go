package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutricycle/backend/internal/domain"
	"github.com/nutricycle/backend/pkg/utils"
)

// PostgresRepository implements domain.DataRepository
type PostgresRepository struct {
	pool    *pgxpool.Pool
	queries map[string]string
	retry   RetryPolicy
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool, retry RetryPolicy) (*PostgresRepository, error) {
	queries, err := loadQueries()
	if err != nil {
		return nil, err
	}
	if retry.Attempts <= 0 {
		retry = DefaultRetryPolicy
	}
	return &PostgresRepository{pool: pool, queries: queries, retry: retry}, nil
}

// Connect opens a pool and pings it. Callers fall back to demo data when
// this fails.
func Connect(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to reach database: %w", err)
	}
	return pool, nil
}

// ListUsers returns every user with feeding activity counters
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	var results []domain.UserSummary
	err := withRetry(ctx, r.retry, func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, r.queries[qListUsers])
		if err != nil {
			return err
		}
		defer rows.Close()

		results = results[:0]
		for rows.Next() {
			var (
				s        domain.UserSummary
				username *string
				count    int64
			)
			if err := rows.Scan(&username, &s.TelegramID, &count, &s.LastFeedingDate); err != nil {
				return fmt.Errorf("scan user row: %w", err)
			}
			if username != nil {
				s.Username = *username
			}
			s.FeedingLogsCount = int(count)
			s.HasData = count > 0
			results = append(results, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query users: %w", err)
	}

	return results, nil
}

// GetUser looks a user up by username
func (r *PostgresRepository) GetUser(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := withRetry(ctx, r.retry, func(ctx context.Context) error {
		row := r.pool.QueryRow(ctx, r.queries[qGetUser], username)
		var err error
		u, err = scanUser(row)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("postgres: failed to query user %q: %w", username, err)
	}

	return u, nil
}

// ListUserProfiles returns every user with its container profile
func (r *PostgresRepository) ListUserProfiles(ctx context.Context) ([]domain.User, error) {
	var results []domain.User
	err := withRetry(ctx, r.retry, func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, r.queries[qListUserProfiles])
		if err != nil {
			return err
		}
		defer rows.Close()

		results = results[:0]
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("scan profile row: %w", err)
			}
			results = append(results, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query user profiles: %w", err)
	}

	return results, nil
}

// GetFeedingLogs returns a user's logs newest first. limit <= 0 returns all.
func (r *PostgresRepository) GetFeedingLogs(ctx context.Context, telegramID int64, limit int) ([]domain.FeedingEntry, error) {
	// LIMIT NULL is no limit
	var lim interface{}
	if limit > 0 {
		lim = limit
	}

	var results []domain.FeedingEntry
	err := withRetry(ctx, r.retry, func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, r.queries[qFeedingLogs], telegramID, lim)
		if err != nil {
			return err
		}
		defer rows.Close()

		results = results[:0]
		for rows.Next() {
			var (
				e              domain.FeedingEntry
				greens, browns *float64
				water          *float64
				unit           *string
			)
			if err := rows.Scan(&greens, &browns, &water, &unit, &e.CreatedAt); err != nil {
				return fmt.Errorf("scan feeding row: %w", err)
			}
			if greens != nil {
				e.GreensGrams = *greens
			}
			if browns != nil {
				e.BrownsGrams = *browns
			}
			e.Moisture = feedingMoisture(water, unit)
			results = append(results, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query feeding logs: %w", err)
	}

	return results, nil
}

// GetLatestMoisture returns the newest percentage reading, nil if none
func (r *PostgresRepository) GetLatestMoisture(ctx context.Context, telegramID int64) (*domain.MoistureReading, error) {
	var latest *domain.MoistureReading
	err := withRetry(ctx, r.retry, func(ctx context.Context) error {
		row := r.pool.QueryRow(ctx, r.queries[qLatestMoisture], telegramID)
		var err error
		latest, err = scanMoisture(row)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query moisture: %w", err)
	}

	return latest, nil
}

// GetLatestForecast returns the newest stored EC forecast, nil if none
func (r *PostgresRepository) GetLatestForecast(ctx context.Context, telegramID int64) (*domain.ECForecastRecord, error) {
	var rec *domain.ECForecastRecord
	err := withRetry(ctx, r.retry, func(ctx context.Context) error {
		row := r.pool.QueryRow(ctx, r.queries[qLatestForecast], telegramID)
		var err error
		rec, err = scanForecast(row)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query forecast: %w", err)
	}

	return rec, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u          domain.User
		username   *string
		tank, soil *float64
	)
	if err := row.Scan(&u.TelegramID, &username, &tank, &soil); err != nil {
		return domain.User{}, err
	}
	if username != nil {
		u.Username = *username
	}
	if tank != nil && soil != nil {
		u.Profile = &domain.ContainerProfile{TankVolumeLiters: *tank, SoilVolumeLiters: *soil}
	}
	return u, nil
}

// scanMoisture reads one plant_moisture row. The query already filters to
// percentage readings; a NULL value or non-percentage unit still yields nil.
func scanMoisture(row pgx.Row) (*domain.MoistureReading, error) {
	var (
		value     *float64
		unit      *string
		createdAt time.Time
	)
	if err := row.Scan(&value, &unit, &createdAt); err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	m := readingMoisture(*value, unit)
	if _, ok := m.Percentage(); !ok {
		return nil, nil
	}
	return &domain.MoistureReading{Moisture: m, CreatedAt: createdAt}, nil
}

func scanForecast(row pgx.Row) (*domain.ECForecastRecord, error) {
	var (
		rec                                   domain.ECForecastRecord
		predictedRaw, datesRaw, recommendsRaw []byte
	)
	err := row.Scan(
		&rec.TelegramID, &rec.CurrentEC, &rec.CurrentMoisture,
		&predictedRaw, &datesRaw,
		&rec.Week1EC, &rec.Week2EC, &rec.Month1EC, &rec.Month2EC, &rec.Month3EC,
		&rec.AverageEC, &rec.MinEC, &rec.MaxEC,
		&rec.ECTrend, &rec.ReadinessStatus, &rec.EstimatedDaysToReady,
		&rec.CompletionPercentage, &rec.QualityScore,
		&rec.AlertLevel, &rec.AlertMessage, &recommendsRaw, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rec.PredictedEC, err = decodePredictions(predictedRaw); err != nil {
		return nil, err
	}
	if rec.PredictionDates, err = decodeDates(datesRaw); err != nil {
		return nil, err
	}
	if len(recommendsRaw) > 0 {
		if err := json.Unmarshal(recommendsRaw, &rec.Recommendations); err != nil {
			return nil, fmt.Errorf("decode recommendations: %w", err)
		}
	}
	return &rec, nil
}

func decodePredictions(raw []byte) ([]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: predicted_ec: %v", domain.ErrMalformedForecast, err)
	}
	return out, nil
}

func decodeDates(raw []byte) ([]time.Time, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var strs []string
	if err := json.Unmarshal(raw, &strs); err != nil {
		return nil, fmt.Errorf("%w: prediction_dates: %v", domain.ErrMalformedForecast, err)
	}
	out := make([]time.Time, len(strs))
	for i, s := range strs {
		t, ok := utils.ParseDate(s, time.UTC)
		if !ok {
			return nil, fmt.Errorf("%w: prediction_dates[%d] = %q", domain.ErrMalformedForecast, i, s)
		}
		out[i] = t
	}
	return out, nil
}

// feedingMoisture resolves the water column of a feeding log. Rows written
// before the unit column existed hold millilitres.
func feedingMoisture(water *float64, unit *string) *domain.Moisture {
	if water == nil {
		return nil
	}
	m := domain.VolumeMoisture(*water)
	if unit != nil && isPercentUnit(*unit) {
		m = domain.PercentageMoisture(*water)
	}
	return &m
}

// readingMoisture resolves a plant_moisture row. That table stores
// percentages unless tagged otherwise.
func readingMoisture(value float64, unit *string) domain.Moisture {
	if unit != nil && !isPercentUnit(*unit) {
		return domain.VolumeMoisture(value)
	}
	return domain.PercentageMoisture(value)
}

func isPercentUnit(unit string) bool {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "percentage", "percent", "%":
		return true
	default:
		return false
	}
}
