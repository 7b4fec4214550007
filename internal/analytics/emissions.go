package analytics

import (
	"fmt"

	"github.com/nutricycle/backend/internal/domain"
	"github.com/nutricycle/backend/pkg/utils"
)

// Physical model constants. These are not configurable.
const (
	STPCO2PPM                  = 415.0
	STPAirConcentrationPercent = 21.0
	// HeadspaceGasDensity converts the CO2 share of the effective volume to grams.
	HeadspaceGasDensity    = 1.8
	FoodWasteCO2Factor     = 2.5
	CompostReductionFactor = 0.8
)

// Output precisions for EmissionsResult fields.
const (
	volumePrecision   = 4
	baselinePrecision = 6
	massPrecision     = 2
)

// EquivalenceFactors converts CO2 savings into everyday equivalents. The
// factors and their precisions have been revised over time, so each revision
// is kept as a named version to reproduce historical figures.
type EquivalenceFactors struct {
	Version             string
	TreeCO2Kg           float64
	PetrolCO2KgPerLitre float64
	CarCO2KgPerMile     float64
	TreesPrecision      int
	PetrolPrecision     int
	MilesPrecision      int
}

var (
	// EquivalenceV1 is the chatbot /co2 revision.
	EquivalenceV1 = EquivalenceFactors{
		Version:             "v1",
		TreeCO2Kg:           25,
		PetrolCO2KgPerLitre: 2.3,
		CarCO2KgPerMile:     0.4,
		TreesPrecision:      2,
		PetrolPrecision:     1,
		MilesPrecision:      1,
	}

	// EquivalenceV2 is the dashboard revision and the default.
	EquivalenceV2 = EquivalenceFactors{
		Version:             "v2",
		TreeCO2Kg:           21.9,
		PetrolCO2KgPerLitre: 2.33,
		CarCO2KgPerMile:     0.454,
		TreesPrecision:      2,
		PetrolPrecision:     2,
		MilesPrecision:      1,
	}
)

// DefaultEquivalenceVersion is used when no version is configured.
const DefaultEquivalenceVersion = "v2"

var equivalenceVersions = map[string]EquivalenceFactors{
	EquivalenceV1.Version: EquivalenceV1,
	EquivalenceV2.Version: EquivalenceV2,
}

// EquivalenceFor returns the factors registered under version.
func EquivalenceFor(version string) (EquivalenceFactors, error) {
	if version == "" {
		version = DefaultEquivalenceVersion
	}
	f, ok := equivalenceVersions[version]
	if !ok {
		return EquivalenceFactors{}, fmt.Errorf("analytics: unknown equivalence version %q", version)
	}
	return f, nil
}

// co2Savings holds the unrounded model outputs.
type co2Savings struct {
	effectiveVolume float64
	baselineGrams   float64
	landfillKg      float64
	totalGrams      float64
	totalKg         float64
}

func computeSavings(foodWasteKg, tankVolumeL, soilVolumeL float64) co2Savings {
	airConc := STPAirConcentrationPercent / 100

	effective := tankVolumeL - (soilVolumeL * airConc)
	baselineG := (STPCO2PPM / 1_000_000) * effective * HeadspaceGasDensity

	landfillKg := foodWasteKg * FoodWasteCO2Factor * CompostReductionFactor
	totalG := baselineG + landfillKg*1000

	return co2Savings{
		effectiveVolume: effective,
		baselineGrams:   baselineG,
		landfillKg:      landfillKg,
		totalGrams:      totalG,
		totalKg:         totalG / 1000,
	}
}

// ComputeEmissions estimates the CO2 saved by composting foodWasteKg in a
// container with the given tank and soil volumes (litres). Negative food
// waste is not rejected and yields a negative saving.
func ComputeEmissions(foodWasteKg, tankVolumeL, soilVolumeL float64) (domain.EmissionsResult, error) {
	if !(tankVolumeL > 0) {
		return domain.EmissionsResult{}, domain.ErrInvalidProfile
	}

	s := computeSavings(foodWasteKg, tankVolumeL, soilVolumeL)

	return domain.EmissionsResult{
		FoodWasteKg:            foodWasteKg,
		TankVolume:             tankVolumeL,
		SoilVolume:             soilVolumeL,
		EffectiveVolume:        utils.RoundTo(s.effectiveVolume, volumePrecision),
		BaselineEmissionsGrams: utils.RoundTo(s.baselineGrams, baselinePrecision),
		CO2SavedFromLandfillKg: utils.RoundTo(s.landfillKg, massPrecision),
		TotalCO2SavedKg:        utils.RoundTo(s.totalKg, massPrecision),
		TotalCO2SavedGrams:     utils.RoundTo(s.totalGrams, massPrecision),
	}, nil
}

// CO2SavedKg is the unrounded total saving, for callers that sum across
// users or entries and round once at the end.
func CO2SavedKg(foodWasteKg, tankVolumeL, soilVolumeL float64) (float64, error) {
	if !(tankVolumeL > 0) {
		return 0, domain.ErrInvalidProfile
	}
	return computeSavings(foodWasteKg, tankVolumeL, soilVolumeL).totalKg, nil
}

// ComputeEquivalents converts CO2 savings into trees, petrol litres and car
// miles using the given factor revision.
func ComputeEquivalents(co2SavedKg float64, f EquivalenceFactors) domain.Equivalents {
	return domain.Equivalents{
		TreesEquivalent:        utils.RoundTo(co2SavedKg/f.TreeCO2Kg, f.TreesPrecision),
		PetrolLitresEquivalent: utils.RoundTo(co2SavedKg/f.PetrolCO2KgPerLitre, f.PetrolPrecision),
		CarMilesEquivalent:     utils.RoundTo(co2SavedKg/f.CarCO2KgPerMile, f.MilesPrecision),
	}
}

// Breakdown extracts the dashboard breakdown from a result.
func Breakdown(r domain.EmissionsResult) domain.Breakdown {
	return domain.Breakdown{
		BaselineEmissionsGrams: r.BaselineEmissionsGrams,
		CO2SavedFromLandfillKg: r.CO2SavedFromLandfillKg,
		EffectiveVolume:        r.EffectiveVolume,
	}
}
