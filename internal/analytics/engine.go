// Package analytics derives customer-behavior metrics from the canonical
// dataset: new-vs-repeat classification, purchase recurrence forecasting
// and the grouped aggregates the presentation layer renders.
package analytics

import (
	"github.com/rs/zerolog"

	"github.com/iamdaviwilliam/phiq-insights/internal/rules"
)

// Engine evaluates analytics over immutable datasets. It holds no
// per-request state; every method takes the dataset (and filter) it
// operates on and never mutates it.
type Engine struct {
	rules *rules.Set
	log   zerolog.Logger
}

// NewEngine creates an analytics engine backed by the given rule set.
func NewEngine(rs *rules.Set, log zerolog.Logger) *Engine {
	return &Engine{rules: rs, log: log}
}

// Rules exposes the engine's rule set to the boundary layer (cohort names
// for the manager selector, payment labels for legends).
func (e *Engine) Rules() *rules.Set { return e.rules }
