package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fmachado/propstack/internal/core"
)

// highDemandThreshold is the lead count at which an area is worth promoting.
const highDemandThreshold = 10

type AreaLeads struct {
	Area      string `json:"area"`
	LeadCount int    `json:"lead_count"`
}

type SpecLeads struct {
	PropertyType string `json:"property_type"`
	BudgetRange  string `json:"budget_range"`
	AgeRange     string `json:"age_range"`
	LeadCount    int    `json:"lead_count"`
}

type Farming struct {
	TopLocations    []AreaLeads `json:"top_locations"`
	TopSpecs        []SpecLeads `json:"top_specs"`
	Recommendations []string    `json:"recommendations"`
}

// FarmingRecommendations turns lead-bearing records into actionable
// farming advice: the hottest area, the hottest spec combination, and
// every area above the high-demand threshold. With no lead data at all it
// returns exactly one insufficient-data recommendation, never an empty
// list.
func FarmingRecommendations(rows []core.LeadRow, now time.Time) Farming {
	byArea := map[string]int{}
	bySpec := map[[3]string]*SpecLeads{}

	for _, row := range rows {
		if row.LeadCount <= 0 || row.PriceUSD == nil {
			continue
		}
		byArea[row.Area] += row.LeadCount

		spec := SpecLeads{
			PropertyType: row.PropertyType,
			BudgetRange:  BudgetBucket(*row.PriceUSD),
			AgeRange:     AgeBucket(row.ConstructionYear, now),
		}
		key := [3]string{spec.PropertyType, spec.BudgetRange, spec.AgeRange}
		if existing, ok := bySpec[key]; ok {
			existing.LeadCount += row.LeadCount
		} else {
			spec.LeadCount = row.LeadCount
			bySpec[key] = &spec
		}
	}

	topLocations := make([]AreaLeads, 0, len(byArea))
	for area, count := range byArea {
		topLocations = append(topLocations, AreaLeads{Area: area, LeadCount: count})
	}
	sort.Slice(topLocations, func(i, j int) bool {
		if topLocations[i].LeadCount != topLocations[j].LeadCount {
			return topLocations[i].LeadCount > topLocations[j].LeadCount
		}
		return topLocations[i].Area < topLocations[j].Area
	})

	topSpecs := make([]SpecLeads, 0, len(bySpec))
	for _, s := range bySpec {
		topSpecs = append(topSpecs, *s)
	}
	sort.Slice(topSpecs, func(i, j int) bool {
		if topSpecs[i].LeadCount != topSpecs[j].LeadCount {
			return topSpecs[i].LeadCount > topSpecs[j].LeadCount
		}
		if topSpecs[i].PropertyType != topSpecs[j].PropertyType {
			return topSpecs[i].PropertyType < topSpecs[j].PropertyType
		}
		return topSpecs[i].BudgetRange < topSpecs[j].BudgetRange
	})

	if len(topLocations) > 5 {
		topLocations = topLocations[:5]
	}
	if len(topSpecs) > 5 {
		topSpecs = topSpecs[:5]
	}

	recommendations := []string{}
	if len(topLocations) > 0 {
		top := topLocations[0]
		recommendations = append(recommendations,
			fmt.Sprintf("Focus on %s — highest demand with %d leads", top.Area, top.LeadCount))
	}
	if len(topSpecs) > 0 {
		top := topSpecs[0]
		recommendations = append(recommendations,
			fmt.Sprintf("Target %s %ss aged %s", top.BudgetRange, top.PropertyType, top.AgeRange))
	}

	highDemand := []string{}
	for _, l := range topLocations {
		if l.LeadCount >= highDemandThreshold {
			highDemand = append(highDemand, l.Area)
		}
	}
	if len(highDemand) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Promote listings in areas with %d+ leads: %s",
				highDemandThreshold, strings.Join(highDemand, ", ")))
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Not enough lead data to generate recommendations")
	}

	return Farming{
		TopLocations:    topLocations,
		TopSpecs:        topSpecs,
		Recommendations: recommendations,
	}
}
