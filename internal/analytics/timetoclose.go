package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/fmachado/propstack/internal/core"
)

// TimeToCloseBucket reports how long properties in one category took to
// close. Buckets with zero samples are omitted, unlike the closure-ratio
// series which stays dense.
type TimeToCloseBucket struct {
	Category    string `json:"category"`
	AvgDays     int    `json:"avg_days"`
	SampleCount int    `json:"total_closed"`
}

// daysToClose returns the calendar days between creation and the closing
// status change, or false when the record cannot contribute: not closed,
// missing either timestamp, or a status change before creation. The count
// is a date difference, not elapsed 24-hour periods: a listing created late
// in the evening and closed early in the morning still counts every date
// boundary crossed.
func daysToClose(row core.PropertyRow) (int, bool) {
	if row.Status != core.PropertyStatusClosed {
		return 0, false
	}
	if row.CreatedAt == nil || row.StatusChangedAt == nil {
		return 0, false
	}
	days := int(dateOf(*row.StatusChangedAt).Sub(dateOf(*row.CreatedAt)).Hours() / 24)
	if days < 0 {
		return 0, false
	}
	return days, true
}

// dateOf truncates a timestamp to midnight of its calendar date.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type accum struct {
	totalDays int
	count     int
}

func (a accum) avg() int {
	return int(math.Round(float64(a.totalDays) / float64(a.count)))
}

// TimeToCloseByLocation groups closed properties verbatim by area. Sorted
// fastest-to-close first, ties by category for determinism.
func TimeToCloseByLocation(rows []core.PropertyRow) []TimeToCloseBucket {
	byLocation := map[string]*accum{}
	for _, row := range rows {
		days, ok := daysToClose(row)
		if !ok || row.Area == "" {
			continue
		}
		a, ok := byLocation[row.Area]
		if !ok {
			a = &accum{}
			byLocation[row.Area] = a
		}
		a.totalDays += days
		a.count++
	}

	out := make([]TimeToCloseBucket, 0, len(byLocation))
	for loc, a := range byLocation {
		out = append(out, TimeToCloseBucket{Category: loc, AvgDays: a.avg(), SampleCount: a.count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgDays != out[j].AvgDays {
			return out[i].AvgDays < out[j].AvgDays
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TimeToCloseByBudget groups closed properties into the fixed budget
// buckets, reported in bucket order.
func TimeToCloseByBudget(rows []core.PropertyRow) []TimeToCloseBucket {
	byBudget := map[string]*accum{}
	for _, row := range rows {
		days, ok := daysToClose(row)
		if !ok || row.PriceUSD == nil {
			continue
		}
		label := BudgetBucket(*row.PriceUSD)
		a, ok := byBudget[label]
		if !ok {
			a = &accum{}
			byBudget[label] = a
		}
		a.totalDays += days
		a.count++
	}

	out := make([]TimeToCloseBucket, 0, len(budgetRanges))
	for _, r := range budgetRanges {
		if a, ok := byBudget[r.Label]; ok {
			out = append(out, TimeToCloseBucket{Category: r.Label, AvgDays: a.avg(), SampleCount: a.count})
		}
	}
	return out
}

// TimeToCloseByAge groups closed properties by construction-age bucket
// relative to now, reported in bucket order. Records without a construction
// year are excluded.
func TimeToCloseByAge(rows []core.PropertyRow, now time.Time) []TimeToCloseBucket {
	byAge := map[string]*accum{}
	for _, row := range rows {
		days, ok := daysToClose(row)
		if !ok || row.ConstructionYear == nil {
			continue
		}
		label := AgeBucket(row.ConstructionYear, now)
		if label == ageUnknown {
			continue
		}
		a, ok := byAge[label]
		if !ok {
			a = &accum{}
			byAge[label] = a
		}
		a.totalDays += days
		a.count++
	}

	out := make([]TimeToCloseBucket, 0, len(ageRanges))
	for _, r := range ageRanges {
		if a, ok := byAge[r.Label]; ok {
			out = append(out, TimeToCloseBucket{Category: r.Label, AvgDays: a.avg(), SampleCount: a.count})
		}
	}
	return out
}
