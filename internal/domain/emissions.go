package domain

// EmissionsResult is the CO2 savings breakdown for a quantity of food waste
// composted in a given container.
type EmissionsResult struct {
	FoodWasteKg            float64 `json:"foodWasteKg"`
	TankVolume             float64 `json:"tankVolume"`
	SoilVolume             float64 `json:"soilVolume"`
	EffectiveVolume        float64 `json:"effectiveVolume"`
	BaselineEmissionsGrams float64 `json:"baselineEmissionsGrams"`
	CO2SavedFromLandfillKg float64 `json:"co2SavedFromLandfillKg"`
	TotalCO2SavedKg        float64 `json:"totalCO2SavedKg"`
	TotalCO2SavedGrams     float64 `json:"totalCO2SavedGrams"`
}

// Equivalents expresses CO2 savings in everyday terms.
type Equivalents struct {
	TreesEquivalent        float64 `json:"treesEquivalent"`
	PetrolLitresEquivalent float64 `json:"petrolLitresEquivalent"`
	CarMilesEquivalent     float64 `json:"carMilesEquivalent"`
}

// MonthBucket is one calendar month of feeding activity.
type MonthBucket struct {
	Month           string  `json:"month"`
	Year            int     `json:"year"`
	FoodWasteKg     float64 `json:"foodWaste"`
	CO2SavedKg      float64 `json:"co2Saved"`
	CumulativeCO2Kg float64 `json:"cumulativeCO2"`
}

// Breakdown is the subset of EmissionsResult shown under the user totals.
type Breakdown struct {
	BaselineEmissionsGrams float64 `json:"baselineEmissionsGrams"`
	CO2SavedFromLandfillKg float64 `json:"co2SavedFromLandfillKg"`
	EffectiveVolume        float64 `json:"effectiveVolume"`
}

// UserImpact is the per-user CO2 dashboard payload.
type UserImpact struct {
	User             UserProfileView `json:"user"`
	HasData          bool            `json:"hasData"`
	Message          string          `json:"message,omitempty"`
	TotalFoodWasteKg float64         `json:"totalFoodWasteKg"`
	TotalCO2SavedKg  float64         `json:"totalCO2SavedKg"`
	FeedingLogsCount int             `json:"feedingLogsCount"`
	FeedingLogs      []FeedingEntry  `json:"feedingLogs"`
	MonthlyData      []MonthBucket   `json:"monthlyData"`
	Impact           Equivalents     `json:"impact"`
	Breakdown        *Breakdown      `json:"breakdown,omitempty"`
}

// UserProfileView is the user header of UserImpact.
type UserProfileView struct {
	Username   string  `json:"username"`
	TankVolume float64 `json:"tankVolume"`
	SoilVolume float64 `json:"soilVolume"`
}

// GlobalStats aggregates every user's emissions.
type GlobalStats struct {
	TotalUsers            int     `json:"totalUsers"`
	ActiveUsers           int     `json:"activeUsers"`
	UsersOnDefaultProfile int     `json:"usersOnDefaultProfile"`
	TotalFeedingLogs      int     `json:"totalFeedingLogs"`
	GlobalFoodWasteKg     float64 `json:"globalFoodWaste"`
	GlobalCO2SavedKg      float64 `json:"globalCO2Saved"`
	AvgCO2PerUserKg       float64 `json:"avgPerUser"`
	TreesPlanted          float64 `json:"treesPlanted"`
	PetrolSavedLitres     float64 `json:"petrolSaved"`
	CarMilesOffset        float64 `json:"carMilesOffset"`
	EquivalenceVersion    string  `json:"equivalenceVersion"`
}
