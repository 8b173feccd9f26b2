package analytics

import (
	"fmt"

	"github.com/fmachado/propstack/internal/core"
)

// ClosurePoint is one month of the closure-ratio series. Added counts
// properties by creation month; closed counts them by the month their
// status changed to closed, which can predate the creation month when
// historical data is backfilled. That asymmetry is deliberate and kept.
type ClosurePoint struct {
	Month  string  `json:"month"`
	Added  int     `json:"properties_added"`
	Closed int     `json:"properties_closed"`
	Ratio  float64 `json:"closure_ratio"`
}

// MonthlyClosureRatio builds the dense 12-point series for a year from
// property rows already merged across tenants. Counts are summed per month
// before the ratio is computed; averaging per-tenant ratios would weight a
// tenant with one sale the same as one with a thousand.
func MonthlyClosureRatio(year int, rows []core.PropertyRow) []ClosurePoint {
	type bucket struct{ added, closed int }
	months := make(map[string]*bucket, 12)

	keys := make([]string, 0, 12)
	for m := 1; m <= 12; m++ {
		key := fmt.Sprintf("%d-%02d", year, m)
		months[key] = &bucket{}
		keys = append(keys, key)
	}

	monthKey := func(row core.PropertyRow, closed bool) (string, bool) {
		t := row.CreatedAt
		if closed {
			t = row.StatusChangedAt
		}
		if t == nil || t.Year() != year {
			return "", false
		}
		return fmt.Sprintf("%d-%02d", t.Year(), int(t.Month())), true
	}

	for _, row := range rows {
		if key, ok := monthKey(row, false); ok {
			months[key].added++
		}
		if row.Status == core.PropertyStatusClosed {
			if key, ok := monthKey(row, true); ok {
				months[key].closed++
			}
		}
	}

	points := make([]ClosurePoint, 0, 12)
	for _, key := range keys {
		b := months[key]
		p := ClosurePoint{Month: key, Added: b.added, Closed: b.closed}
		if b.added > 0 {
			p.Ratio = float64(b.closed) / float64(b.added)
		}
		points = append(points, p)
	}
	return points
}
