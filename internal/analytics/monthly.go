package analytics

import (
	"sort"
	"time"

	"github.com/nutricycle/backend/internal/domain"
	"github.com/nutricycle/backend/pkg/utils"
)

type monthKey struct {
	year  int
	month time.Month
}

type monthTotals struct {
	foodWasteKg float64
	co2SavedKg  float64
}

// AggregateMonthly buckets feeding entries by calendar month in loc and adds
// a running CO2 total. Volumes are the user's container profile and apply to
// every entry. Sums are kept unrounded until the cumulative pass is done.
func AggregateMonthly(entries []domain.FeedingEntry, tankVolumeL, soilVolumeL float64, loc *time.Location) ([]domain.MonthBucket, error) {
	if !(tankVolumeL > 0) {
		return nil, domain.ErrInvalidProfile
	}
	if loc == nil {
		loc = time.Local
	}

	totals := make(map[monthKey]*monthTotals)
	for _, e := range entries {
		ts := e.CreatedAt.In(loc)
		key := monthKey{year: ts.Year(), month: ts.Month()}

		t, ok := totals[key]
		if !ok {
			t = &monthTotals{}
			totals[key] = t
		}

		kg := e.FoodWasteKg()
		t.foodWasteKg += kg
		t.co2SavedKg += computeSavings(kg, tankVolumeL, soilVolumeL).totalKg
	}

	keys := make([]monthKey, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	buckets := make([]domain.MonthBucket, 0, len(keys))
	cumulative := 0.0
	for _, k := range keys {
		t := totals[k]
		cumulative += t.co2SavedKg
		buckets = append(buckets, domain.MonthBucket{
			Month:           k.month.String()[:3],
			Year:            k.year,
			FoodWasteKg:     utils.RoundTo(t.foodWasteKg, massPrecision),
			CO2SavedKg:      utils.RoundTo(t.co2SavedKg, massPrecision),
			CumulativeCO2Kg: utils.RoundTo(cumulative, massPrecision),
		})
	}

	return buckets, nil
}

// TotalFoodWasteKg sums the food waste of every entry.
func TotalFoodWasteKg(entries []domain.FeedingEntry) float64 {
	grams := 0.0
	for _, e := range entries {
		grams += e.GreensGrams + e.BrownsGrams
	}
	return grams / 1000
}
