package analytics

import (
	"sort"
	"time"

	"github.com/fmachado/propstack/internal/core"
)

// HotPreference is one (area, budget, age, type) demand combination ranked
// by how many leads it attracted.
type HotPreference struct {
	Area         string `json:"area"`
	BudgetRange  string `json:"budget_range"`
	AgeRange     string `json:"age_range"`
	PropertyType string `json:"property_type"`
	LeadCount    int    `json:"lead_count"`
}

// PreferenceFilter narrows the ranking post-hoc on any dimension. Empty
// fields match everything.
type PreferenceFilter struct {
	Area         string
	BudgetRange  string
	AgeRange     string
	PropertyType string
}

func (f PreferenceFilter) matches(p HotPreference) bool {
	if f.Area != "" && p.Area != f.Area {
		return false
	}
	if f.BudgetRange != "" && p.BudgetRange != f.BudgetRange {
		return false
	}
	if f.AgeRange != "" && p.AgeRange != f.AgeRange {
		return false
	}
	if f.PropertyType != "" && p.PropertyType != f.PropertyType {
		return false
	}
	return true
}

// HotPreferences ranks demand combinations among lead-bearing records by
// summed lead count, descending. Ties break by area then property type so
// the order is stable for equal demand.
func HotPreferences(rows []core.LeadRow, now time.Time, filter PreferenceFilter) []HotPreference {
	combined := map[[4]string]*HotPreference{}

	for _, row := range rows {
		if row.LeadCount <= 0 || row.PriceUSD == nil {
			continue
		}
		p := HotPreference{
			Area:         row.Area,
			BudgetRange:  BudgetBucket(*row.PriceUSD),
			AgeRange:     AgeBucket(row.ConstructionYear, now),
			PropertyType: row.PropertyType,
		}
		key := [4]string{p.Area, p.BudgetRange, p.AgeRange, p.PropertyType}
		if existing, ok := combined[key]; ok {
			existing.LeadCount += row.LeadCount
		} else {
			p.LeadCount = row.LeadCount
			combined[key] = &p
		}
	}

	out := []HotPreference{}
	for _, p := range combined {
		if filter.matches(*p) {
			out = append(out, *p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LeadCount != out[j].LeadCount {
			return out[i].LeadCount > out[j].LeadCount
		}
		if out[i].Area != out[j].Area {
			return out[i].Area < out[j].Area
		}
		return out[i].PropertyType < out[j].PropertyType
	})
	return out
}
