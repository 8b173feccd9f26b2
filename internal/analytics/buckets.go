// Package analytics holds the derived-metric computations: pure transforms
// over rows already fetched and merged by the aggregation layer. Nothing in
// this package issues queries, and every function has a defined zero-value
// output on empty input.
package analytics

import "time"

var budgetRanges = []struct {
	Label string
	Min   float64
	Max   float64 // exclusive; <= 0 means unbounded
}{
	{"0-100k", 0, 100000},
	{"100-200k", 100000, 200000},
	{"200-300k", 200000, 300000},
	{"300-500k", 300000, 500000},
	{"500k+", 500000, 0},
}

var ageRanges = []struct {
	Label string
	Min   int
	Max   int // exclusive; <= 0 means unbounded
}{
	{"0-5 years", 0, 5},
	{"5-10 years", 5, 10},
	{"10-20 years", 10, 20},
	{"20+ years", 20, 0},
}

const ageUnknown = "Unknown"

// BudgetBucket maps a price to its range label. Lower bound inclusive,
// upper bound exclusive.
func BudgetBucket(priceUSD float64) string {
	for _, r := range budgetRanges {
		if priceUSD >= r.Min && (r.Max <= 0 || priceUSD < r.Max) {
			return r.Label
		}
	}
	return budgetRanges[0].Label // negative prices land in the lowest bucket
}

// AgeBucket maps a construction year to its age-range label relative to
// now's calendar year.
func AgeBucket(constructionYear *int, now time.Time) string {
	if constructionYear == nil {
		return ageUnknown
	}
	age := now.Year() - *constructionYear
	for _, r := range ageRanges {
		if age >= r.Min && (r.Max <= 0 || age < r.Max) {
			return r.Label
		}
	}
	return ageUnknown // future construction years
}
