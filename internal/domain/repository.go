package domain

import "context"

// DataRepository defines the read side of the compost store.
// The domain owns the interface; repositories implement it.
type DataRepository interface {
	// ListUsers returns every user with feeding activity counters
	ListUsers(ctx context.Context) ([]UserSummary, error)

	// GetUser looks a user up by username, ErrUserNotFound if absent
	GetUser(ctx context.Context, username string) (User, error)

	// ListUserProfiles returns every user with its container profile
	ListUserProfiles(ctx context.Context) ([]User, error)

	// GetFeedingLogs returns a user's logs newest first; limit <= 0 returns all
	GetFeedingLogs(ctx context.Context, telegramID int64, limit int) ([]FeedingEntry, error)

	// GetLatestMoisture returns the newest percentage reading, nil if none
	GetLatestMoisture(ctx context.Context, telegramID int64) (*MoistureReading, error)

	// GetLatestForecast returns the newest stored EC forecast, nil if none
	GetLatestForecast(ctx context.Context, telegramID int64) (*ECForecastRecord, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}
