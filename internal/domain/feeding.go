package domain

import "time"

// MoistureUnit tags how a moisture value was recorded.
type MoistureUnit string

const (
	MoistureUnitPercentage MoistureUnit = "percentage"
	MoistureUnitVolumeMl   MoistureUnit = "ml"
)

// Moisture is a moisture value tagged with its unit. Legacy rows store water
// volume in ml, newer rows store a percentage; the repository resolves the
// tag once when the row is read.
type Moisture struct {
	Unit  MoistureUnit `json:"unit"`
	Value float64      `json:"value"`
}

// PercentageMoisture returns a percentage-tagged moisture value.
func PercentageMoisture(v float64) Moisture {
	return Moisture{Unit: MoistureUnitPercentage, Value: v}
}

// VolumeMoisture returns a volume-tagged (ml) moisture value.
func VolumeMoisture(ml float64) Moisture {
	return Moisture{Unit: MoistureUnitVolumeMl, Value: ml}
}

// Percentage returns the value when the reading is a percentage.
func (m Moisture) Percentage() (float64, bool) {
	if m.Unit != MoistureUnitPercentage {
		return 0, false
	}
	return m.Value, true
}

// FeedingEntry is one compost feeding log row.
type FeedingEntry struct {
	GreensGrams float64   `json:"greens"`
	BrownsGrams float64   `json:"browns"`
	Moisture    *Moisture `json:"moisture,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FoodWasteKg is the combined greens and browns mass in kilograms.
func (e FeedingEntry) FoodWasteKg() float64 {
	return (e.GreensGrams + e.BrownsGrams) / 1000
}

// ContainerProfile holds the user-level compost container geometry.
type ContainerProfile struct {
	TankVolumeLiters float64 `json:"tankVolume"`
	SoilVolumeLiters float64 `json:"soilVolume"`
}

// User is a registered bot user. Profile is nil until both volumes are set.
type User struct {
	TelegramID int64             `json:"telegramId"`
	Username   string            `json:"username"`
	Profile    *ContainerProfile `json:"profile,omitempty"`
}

// UserSummary is a user row with feeding activity counters.
type UserSummary struct {
	Username         string     `json:"username"`
	TelegramID       int64      `json:"telegramId"`
	FeedingLogsCount int        `json:"feedingLogsCount"`
	LastFeedingDate  *time.Time `json:"lastFeedingDate"`
	HasData          bool       `json:"hasData"`
}

// UserList is the payload for the users overview.
type UserList struct {
	Users            []UserSummary `json:"users"`
	TotalUsers       int           `json:"totalUsers"`
	UsersWithData    int           `json:"usersWithData"`
	UsersWithoutData int           `json:"usersWithoutData"`
}

// FeedingLogsView is a user's most recent feeding logs.
type FeedingLogsView struct {
	Username    string         `json:"username"`
	FeedingLogs []FeedingEntry `json:"feedingLogs"`
	Count       int            `json:"count"`
}
