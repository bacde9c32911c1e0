// Package rules holds the data-driven business rule tables: segment
// canonicalization, payment-method coalescing and manager cohort
// definitions. Rules ship with compiled-in defaults and can be overridden
// from a YAML file, so adding a cohort or a payment alias is a config
// change, not a code change.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iamdaviwilliam/phiq-insights/internal/model"
)

// SegmentRule rewrites one known segment variant to its canonical form.
type SegmentRule struct {
	Match     string `mapstructure:"match"`
	Canonical string `mapstructure:"canonical"`
}

// PaymentRule rewrites payment-method strings matching Pattern to Label.
type PaymentRule struct {
	Pattern string `mapstructure:"pattern"`
	Label   string `mapstructure:"label"`

	re *regexp.Regexp
}

// Cohort is a named partition of transactions defined by salesperson
// patterns and an optional keyword predicate over segment and customer.
// Cohorts are evaluated in order; the first match wins, which keeps the
// partition disjoint regardless of how individual predicates overlap.
type Cohort struct {
	Name string `mapstructure:"name"`

	// Salesperson matches when the (upper-cased) salesperson name
	// contains any of these fragments.
	Salesperson []string `mapstructure:"salesperson"`

	// Keywords are matched case-insensitively against segment and
	// customer. IncludeKeywords pulls matching rows into the cohort even
	// when the salesperson does not match; ExcludeKeywords pushes
	// matching rows out even when it does.
	Keywords        []string `mapstructure:"keywords"`
	IncludeKeywords bool     `mapstructure:"include_keywords"`
	ExcludeKeywords bool     `mapstructure:"exclude_keywords"`

	// StateSegments restricts the cohort to the listed segments in the
	// given state. States not present in the map are unrestricted.
	StateSegments map[string][]string `mapstructure:"state_segments"`
}

// Set is a complete rule configuration.
type Set struct {
	SegmentRules []SegmentRule `mapstructure:"segment_rules"`
	PaymentRules []PaymentRule `mapstructure:"payment_rules"`

	// PaymentAllowList limits payment-method aggregations to these
	// canonical labels. It never drops rows from the canonical table.
	PaymentAllowList []string `mapstructure:"payment_allow_list"`

	Cohorts []Cohort `mapstructure:"cohorts"`
}

// compile validates patterns ahead of use.
func (s *Set) compile() error {
	for i := range s.PaymentRules {
		re, err := regexp.Compile(s.PaymentRules[i].Pattern)
		if err != nil {
			return fmt.Errorf("rules: payment pattern %q: %w", s.PaymentRules[i].Pattern, err)
		}
		s.PaymentRules[i].re = re
	}
	return nil
}

// CanonicalSegment applies the segment rewrite table to an already
// trimmed, upper-cased segment value.
func (s *Set) CanonicalSegment(segment string) string {
	for _, r := range s.SegmentRules {
		if segment == r.Match {
			return r.Canonical
		}
	}
	return segment
}

// CanonicalPayment coalesces a raw payment-method string and reports
// whether the result is on the allow-list. The first matching rule wins;
// unmatched values keep their trimmed form.
func (s *Set) CanonicalPayment(method string) (label string, allowed bool) {
	label = strings.TrimSpace(method)
	for _, r := range s.PaymentRules {
		if r.re != nil && r.re.MatchString(label) {
			label = r.Label
			break
		}
	}
	for _, a := range s.PaymentAllowList {
		if label == a {
			return label, true
		}
	}
	return label, false
}

// Cohort returns the named cohort definition.
func (s *Set) Cohort(name string) (Cohort, bool) {
	for _, c := range s.Cohorts {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Cohort{}, false
}

// CohortNames lists the configured cohort names in order.
func (s *Set) CohortNames() []string {
	names := make([]string, 0, len(s.Cohorts))
	for _, c := range s.Cohorts {
		names = append(names, c.Name)
	}
	return names
}

// Assign returns the first cohort whose predicate matches the transaction,
// or false when none does.
func (s *Set) Assign(t model.Transaction) (Cohort, bool) {
	for _, c := range s.Cohorts {
		if c.Matches(t) {
			return c, true
		}
	}
	return Cohort{}, false
}

// Matches evaluates the cohort predicate against one transaction.
func (c Cohort) Matches(t model.Transaction) bool {
	kw := c.keywordHit(t)
	ok := containsAnyFold(t.Salesperson, c.Salesperson)
	if c.IncludeKeywords && kw {
		ok = true
	}
	if c.ExcludeKeywords && kw {
		ok = false
	}
	if !ok {
		return false
	}
	if allowed, restricted := c.StateSegments[t.State]; restricted && len(allowed) > 0 {
		found := false
		for _, seg := range allowed {
			if strings.EqualFold(seg, t.Segment) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (c Cohort) keywordHit(t model.Transaction) bool {
	return containsAnyFold(t.Segment, c.Keywords) || containsAnyFold(t.CustomerID, c.Keywords)
}

func containsAnyFold(s string, fragments []string) bool {
	if s == "" {
		return false
	}
	up := strings.ToUpper(s)
	for _, f := range fragments {
		if f != "" && strings.Contains(up, strings.ToUpper(f)) {
			return true
		}
	}
	return false
}
