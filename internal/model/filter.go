package model

import "time"

// Granularity selects the bucketing for time-series aggregations.
type Granularity string

const (
	ByMonth Granularity = "month"
	ByDay   Granularity = "day"
)

// ProductMetric selects the ranking metric for product aggregations.
type ProductMetric string

const (
	ByQuantity ProductMetric = "quantity"
	ByRevenue  ProductMetric = "revenue"
)

// FilterContext is an explicit, immutable description of the user's filter
// selections. Every computation receives one; there is no ambient filter
// state shared between views. The zero value means "no restriction".
type FilterContext struct {
	States     []string // empty = all states
	Franchises []string // empty = all franchises
	Segments   []string // empty = all segments
	Cohort     string   // manager cohort name, empty = no cohort filter

	From time.Time // inclusive, zero = open start
	To   time.Time // inclusive, zero = open end

	Granularity Granularity   // defaults to ByMonth when empty
	Metric      ProductMetric // defaults to ByQuantity when empty
}

// BucketBy returns the effective granularity.
func (fc FilterContext) BucketBy() Granularity {
	if fc.Granularity == ByDay {
		return ByDay
	}
	return ByMonth
}

// RankBy returns the effective product ranking metric.
func (fc FilterContext) RankBy() ProductMetric {
	if fc.Metric == ByRevenue {
		return ByRevenue
	}
	return ByQuantity
}

// MatchesDims reports whether a transaction passes the state, franchise,
// segment and date-range restrictions. Cohort matching is rule-driven and
// handled separately by the analytics layer.
func (fc FilterContext) MatchesDims(t Transaction) bool {
	if !inSet(fc.States, t.State) {
		return false
	}
	if !inSet(fc.Franchises, t.Franchise) {
		return false
	}
	if !inSet(fc.Segments, t.Segment) {
		return false
	}
	if !fc.From.IsZero() && t.Day().Before(fc.From) {
		return false
	}
	if !fc.To.IsZero() && t.Day().After(fc.To) {
		return false
	}
	return true
}

// inSet treats an empty set as "match everything".
func inSet(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
