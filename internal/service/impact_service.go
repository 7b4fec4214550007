package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nutricycle/backend/internal/analytics"
	"github.com/nutricycle/backend/internal/domain"
	"github.com/nutricycle/backend/pkg/cache"
	"github.com/nutricycle/backend/pkg/logger"
	"github.com/nutricycle/backend/pkg/metrics"
	"github.com/nutricycle/backend/pkg/utils"
)

// No-data messages shown by the dashboard.
const (
	MsgNoFeedingLogs = "No feeding logs found. Start logging your compost materials in the NutriBot Compost Feeding feature!"
	MsgNoMoisture    = "No moisture readings found. Record your plant moisture percentage in NutriBot to see a projection."
	MsgNoForecast    = "No EC prediction data found. Run a compost status check in NutriBot to generate a forecast."
)

// Options tune the orchestrator. Zero values fall back to defaults.
type Options struct {
	Equivalence      analytics.EquivalenceFactors
	Location         *time.Location
	DefaultProfile   domain.ContainerProfile
	FleetConcurrency int
	RecentLogsLimit  int
	CacheTTL         time.Duration

	// Now and Rand are injectable for tests.
	Now  func() time.Time
	Rand func() *rand.Rand
}

func (o *Options) setDefaults() {
	if o.Equivalence.Version == "" {
		o.Equivalence = analytics.EquivalenceV2
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if !(o.DefaultProfile.TankVolumeLiters > 0) {
		o.DefaultProfile = domain.ContainerProfile{TankVolumeLiters: 50, SoilVolumeLiters: 20}
	}
	if o.FleetConcurrency <= 0 {
		o.FleetConcurrency = 8
	}
	if o.RecentLogsLimit <= 0 {
		o.RecentLogsLimit = 10
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 30 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Rand == nil {
		o.Rand = analytics.NewTimeSeededRand
	}
}

// ImpactService composes the repository with the analytics core and
// serves every dashboard read.
type ImpactService struct {
	repo    domain.DataRepository
	cache   cache.Service
	metrics *metrics.Recorder
	log     *logger.Logger
	opts    Options
}

// NewImpactService creates the orchestrator. cache and rec may be nil.
func NewImpactService(
	repo domain.DataRepository,
	c cache.Service,
	rec *metrics.Recorder,
	log *logger.Logger,
	opts Options,
) *ImpactService {
	opts.setDefaults()
	if c == nil {
		c = cache.NopCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ImpactService{
		repo:    repo,
		cache:   c,
		metrics: rec,
		log:     log.With(logger.String("component", "impact_service")),
		opts:    opts,
	}
}

// Health checks the repository
func (s *ImpactService) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}

// ListUsers returns every user with activity counters and totals
func (s *ImpactService) ListUsers(ctx context.Context) (domain.UserList, error) {
	return cached(ctx, s, "list_users", cache.GenerateKey("users"), func(ctx context.Context) (domain.UserList, error) {
		users, err := s.repo.ListUsers(ctx)
		if err != nil {
			return domain.UserList{}, fmt.Errorf("service: list users: %w", err)
		}

		list := domain.UserList{Users: users, TotalUsers: len(users)}
		if list.Users == nil {
			list.Users = []domain.UserSummary{}
		}
		for _, u := range users {
			if u.HasData {
				list.UsersWithData++
			}
		}
		list.UsersWithoutData = list.TotalUsers - list.UsersWithData
		return list, nil
	})
}

// UserImpact builds the per-user CO2 dashboard
func (s *ImpactService) UserImpact(ctx context.Context, username string) (domain.UserImpact, error) {
	return cached(ctx, s, "user_impact", cache.GenerateKey("impact", username), func(ctx context.Context) (domain.UserImpact, error) {
		user, err := s.repo.GetUser(ctx, username)
		if err != nil {
			return domain.UserImpact{}, fmt.Errorf("service: user impact: %w", err)
		}
		if user.Profile == nil {
			return domain.UserImpact{}, domain.ErrProfileIncomplete
		}
		profile := *user.Profile

		logs, err := s.repo.GetFeedingLogs(ctx, user.TelegramID, 0)
		if err != nil {
			return domain.UserImpact{}, fmt.Errorf("service: user impact: %w", err)
		}

		view := domain.UserImpact{
			User: domain.UserProfileView{
				Username:   user.Username,
				TankVolume: profile.TankVolumeLiters,
				SoilVolume: profile.SoilVolumeLiters,
			},
			FeedingLogs: []domain.FeedingEntry{},
			MonthlyData: []domain.MonthBucket{},
		}
		if len(logs) == 0 {
			view.Message = MsgNoFeedingLogs
			return view, nil
		}

		foodWasteKg := analytics.TotalFoodWasteKg(logs)
		result, err := analytics.ComputeEmissions(foodWasteKg, profile.TankVolumeLiters, profile.SoilVolumeLiters)
		if err != nil {
			return domain.UserImpact{}, err
		}
		monthly, err := analytics.AggregateMonthly(logs, profile.TankVolumeLiters, profile.SoilVolumeLiters, s.opts.Location)
		if err != nil {
			return domain.UserImpact{}, err
		}
		breakdown := analytics.Breakdown(result)

		view.HasData = true
		view.TotalFoodWasteKg = utils.RoundTo(foodWasteKg, 2)
		view.TotalCO2SavedKg = result.TotalCO2SavedKg
		view.FeedingLogsCount = len(logs)
		view.FeedingLogs = logs[:min(len(logs), s.opts.RecentLogsLimit)]
		view.MonthlyData = monthly
		view.Impact = analytics.ComputeEquivalents(result.TotalCO2SavedKg, s.opts.Equivalence)
		view.Breakdown = &breakdown
		return view, nil
	})
}

// FeedingLogs returns the latest limit logs for a user
func (s *ImpactService) FeedingLogs(ctx context.Context, username string, limit int) (domain.FeedingLogsView, error) {
	if limit <= 0 {
		limit = s.opts.RecentLogsLimit
	}

	user, err := s.repo.GetUser(ctx, username)
	if err != nil {
		return domain.FeedingLogsView{}, fmt.Errorf("service: feeding logs: %w", err)
	}
	logs, err := s.repo.GetFeedingLogs(ctx, user.TelegramID, limit)
	if err != nil {
		return domain.FeedingLogsView{}, fmt.Errorf("service: feeding logs: %w", err)
	}
	if logs == nil {
		logs = []domain.FeedingEntry{}
	}

	return domain.FeedingLogsView{Username: user.Username, FeedingLogs: logs, Count: len(logs)}, nil
}

// userContribution is one user's unrounded share of the fleet totals.
type userContribution struct {
	active         bool
	defaultProfile bool
	logs           int
	foodWasteKg    float64
	co2Kg          float64
}

// GlobalStats sums every user's savings. Users without a profile are
// counted with the default container.
func (s *ImpactService) GlobalStats(ctx context.Context) (domain.GlobalStats, error) {
	key := cache.GenerateKey("global", s.opts.Equivalence.Version)
	return cached(ctx, s, "global_stats", key, func(ctx context.Context) (domain.GlobalStats, error) {
		users, err := s.repo.ListUserProfiles(ctx)
		if err != nil {
			return domain.GlobalStats{}, fmt.Errorf("service: global stats: %w", err)
		}

		contributions := make([]userContribution, len(users))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.FleetConcurrency)
		for i, u := range users {
			g.Go(func() error {
				c, err := s.contribution(gctx, u)
				if err != nil {
					s.log.Error("fleet aggregation failed for user",
						logger.Int64("telegram_id", u.TelegramID),
						logger.Error(err),
					)
					return err
				}
				contributions[i] = c
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return domain.GlobalStats{}, fmt.Errorf("service: global stats: %w", err)
		}

		// summed in user order so results do not depend on scheduling
		stats := domain.GlobalStats{TotalUsers: len(users), EquivalenceVersion: s.opts.Equivalence.Version}
		var foodWasteKg, co2Kg float64
		for _, c := range contributions {
			if !c.active {
				continue
			}
			stats.ActiveUsers++
			stats.TotalFeedingLogs += c.logs
			if c.defaultProfile {
				stats.UsersOnDefaultProfile++
			}
			foodWasteKg += c.foodWasteKg
			co2Kg += c.co2Kg
		}

		stats.GlobalFoodWasteKg = utils.RoundTo(foodWasteKg, 2)
		stats.GlobalCO2SavedKg = utils.RoundTo(co2Kg, 2)
		if stats.ActiveUsers > 0 {
			stats.AvgCO2PerUserKg = utils.RoundTo(co2Kg/float64(stats.ActiveUsers), 2)
		}
		eq := analytics.ComputeEquivalents(co2Kg, s.opts.Equivalence)
		stats.TreesPlanted = eq.TreesEquivalent
		stats.PetrolSavedLitres = eq.PetrolLitresEquivalent
		stats.CarMilesOffset = eq.CarMilesEquivalent

		if s.metrics != nil {
			s.metrics.RecordActiveUsers(stats.ActiveUsers)
		}
		return stats, nil
	})
}

func (s *ImpactService) contribution(ctx context.Context, u domain.User) (userContribution, error) {
	logs, err := s.repo.GetFeedingLogs(ctx, u.TelegramID, 0)
	if err != nil {
		return userContribution{}, err
	}
	if len(logs) == 0 {
		return userContribution{}, nil
	}

	profile, defaulted := s.opts.DefaultProfile, true
	if u.Profile != nil && u.Profile.TankVolumeLiters > 0 {
		profile, defaulted = *u.Profile, false
	}

	foodWasteKg := analytics.TotalFoodWasteKg(logs)
	co2Kg, err := analytics.CO2SavedKg(foodWasteKg, profile.TankVolumeLiters, profile.SoilVolumeLiters)
	if err != nil {
		return userContribution{}, err
	}
	return userContribution{
		active:         true,
		defaultProfile: defaulted,
		logs:           len(logs),
		foodWasteKg:    foodWasteKg,
		co2Kg:          co2Kg,
	}, nil
}

// MoistureProjection projects a user's plant moisture from the latest
// percentage reading. Projections are random and never cached.
func (s *ImpactService) MoistureProjection(ctx context.Context, username string) (domain.MoistureProjectionView, error) {
	defer s.observe("moisture_projection", s.opts.Now())

	user, err := s.repo.GetUser(ctx, username)
	if err != nil {
		return domain.MoistureProjectionView{}, fmt.Errorf("service: moisture projection: %w", err)
	}
	reading, err := s.repo.GetLatestMoisture(ctx, user.TelegramID)
	if err != nil {
		return domain.MoistureProjectionView{}, fmt.Errorf("service: moisture projection: %w", err)
	}

	view := domain.MoistureProjectionView{Username: user.Username}
	if reading == nil {
		view.Message = MsgNoMoisture
		return view, nil
	}
	current, ok := reading.Moisture.Percentage()
	if !ok {
		view.Message = MsgNoMoisture
		return view, nil
	}

	forecast := analytics.ProjectMoisture(current, reading.CreatedAt.In(s.opts.Location), s.opts.Rand())
	view.HasData = true
	view.Forecast = &forecast
	return view, nil
}

// ManualMoistureProjection projects from a percentage the caller supplies,
// anchored today.
func (s *ImpactService) ManualMoistureProjection(current float64) (domain.MoistureForecast, error) {
	if err := analytics.ValidateMoisturePercentage(current); err != nil {
		return domain.MoistureForecast{}, err
	}
	defer s.observe("manual_moisture_projection", s.opts.Now())
	return analytics.ProjectMoisture(current, s.opts.Now().In(s.opts.Location), s.opts.Rand()), nil
}

// ECForecast interprets the latest stored EC forecast for a user
func (s *ImpactService) ECForecast(ctx context.Context, username string) (domain.ECForecastView, error) {
	return cached(ctx, s, "ec_forecast", cache.GenerateKey("forecast", username), func(ctx context.Context) (domain.ECForecastView, error) {
		user, err := s.repo.GetUser(ctx, username)
		if err != nil {
			return domain.ECForecastView{}, fmt.Errorf("service: ec forecast: %w", err)
		}
		rec, err := s.repo.GetLatestForecast(ctx, user.TelegramID)
		if err != nil {
			return domain.ECForecastView{}, fmt.Errorf("service: ec forecast: %w", err)
		}

		view := domain.ECForecastView{Username: user.Username}
		if rec == nil {
			view.Message = MsgNoForecast
			return view, nil
		}

		interp, err := analytics.InterpretForecast(*rec)
		if err != nil {
			return domain.ECForecastView{}, err
		}
		view.HasData = true
		view.Forecast = &interp
		return view, nil
	})
}

// InvalidateUser drops every cached view of a user along with the fleet-wide
// entries that include them. Served at POST /api/user/:username/cache/invalidate.
func (s *ImpactService) InvalidateUser(ctx context.Context, username string) error {
	return s.cache.Delete(ctx,
		cache.GenerateKey("impact", username),
		cache.GenerateKey("forecast", username),
		cache.GenerateKey("users"),
		cache.GenerateKey("global", s.opts.Equivalence.Version),
	)
}

func (s *ImpactService) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordLatency(op, s.opts.Now().Sub(start).Seconds())
	}
}

func (s *ImpactService) recordCache(op string, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.RecordCacheHit(op)
	} else {
		s.metrics.RecordCacheMiss(op)
	}
}

// cached serves op from the response cache, computing and storing it on a
// miss. Cache faults are logged and never fail the request.
func cached[T any](ctx context.Context, s *ImpactService, op, key string, compute func(context.Context) (T, error)) (T, error) {
	var out T
	err := s.cache.Get(ctx, key, &out)
	if err == nil {
		s.recordCache(op, true)
		return out, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("cache read failed", logger.String("key", key), logger.Error(err))
	}
	s.recordCache(op, false)

	start := s.opts.Now()
	out, err = compute(ctx)
	s.observe(op, start)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordError(op)
		}
		return out, err
	}

	if err := s.cache.Set(ctx, key, out, s.opts.CacheTTL); err != nil {
		s.log.Warn("cache write failed", logger.String("key", key), logger.Error(err))
	}
	return out, nil
}
