package analytics

import (
	"fmt"

	"github.com/iamdaviwilliam/phiq-insights/internal/model"
)

// Filter returns a new dataset holding the rows that pass the filter
// context. The input dataset is never modified; an unrestricted filter
// reproduces it row for row. A cohort name that matches no configured
// cohort is an error (the selector offered something the rules cannot
// answer).
func (e *Engine) Filter(ds *model.Dataset, fc model.FilterContext) (*model.Dataset, error) {
	matchCohort := func(model.Transaction) bool { return true }
	if fc.Cohort != "" {
		cohort, ok := e.rules.Cohort(fc.Cohort)
		if !ok {
			return nil, fmt.Errorf("filter: unknown cohort %q", fc.Cohort)
		}
		matchCohort = cohort.Matches
	}

	rows := make([]model.Transaction, 0, len(ds.Rows))
	for _, t := range ds.Rows {
		if fc.MatchesDims(t) && matchCohort(t) {
			rows = append(rows, t)
		}
	}
	return ds.WithRows(rows), nil
}
