// Package runner orchestrates one validation run: synthesize the suite's
// query, execute it, and aggregate the result into per-rule outcomes.
package runner

import (
	"context"
	"time"

	"snowcheck/internal/aggregate"
	"snowcheck/internal/catalog"
	"snowcheck/internal/grain"
	"snowcheck/internal/snowflake"
	"snowcheck/internal/sqlgen"
)

// Executor runs one query against the engine. Satisfied by
// *snowflake.Service; tests substitute a mock.
type Executor interface {
	Query(ctx context.Context, query string) (*snowflake.QueryResult, error)
}

// Options tunes a single run.
type Options struct {
	// Limit caps the base row set when positive. Used by previews and
	// smoke runs; 0 validates everything.
	Limit int
}

// RunResult is everything one run produced.
type RunResult struct {
	Suite   *catalog.Suite
	Query   string
	Started time.Time
	Elapsed time.Duration

	// RowCount is the physical row count of the result set, before any
	// grain deduplication.
	RowCount int

	Outcomes []*aggregate.RuleOutcome
	Derived  []*aggregate.DerivedOutcome

	// ValidatedEntities lists the distinct root-entity values the run
	// covered, in result order.
	ValidatedEntities []string
}

// FailedRules returns the outcomes with at least one failure.
func (r *RunResult) FailedRules() []*aggregate.RuleOutcome {
	var out []*aggregate.RuleOutcome
	for _, o := range r.Outcomes {
		if !o.Success {
			out = append(out, o)
		}
	}
	return out
}

// Runner executes validation suites.
type Runner struct {
	resolver *grain.Resolver
	exec     Executor
}

// New creates a runner. A nil resolver falls back to the default entity
// mapping.
func New(exec Executor, resolver *grain.Resolver) *Runner {
	if resolver == nil {
		resolver = grain.DefaultResolver()
	}
	return &Runner{resolver: resolver, exec: exec}
}

// Run validates one suite end to end.
func (r *Runner) Run(ctx context.Context, suite *catalog.Suite, opts Options) (*RunResult, error) {
	started := time.Now()

	query, err := sqlgen.New(suite, r.resolver).Generate(opts.Limit)
	if err != nil {
		return nil, err
	}

	result, err := r.exec.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	table := aggregate.NewTable(result.Columns, result.Rows)
	outcomes, derived, err := aggregate.Aggregate(table, suite, r.resolver)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		Suite:             suite,
		Query:             query,
		Started:           started,
		Elapsed:           time.Since(started),
		RowCount:          table.Len(),
		Outcomes:          outcomes,
		Derived:           derived,
		ValidatedEntities: aggregate.ValidatedEntities(table, suite.IndexColumn),
	}, nil
}

// Preview synthesizes the suite's query without executing it.
func (r *Runner) Preview(suite *catalog.Suite, opts Options) (string, error) {
	return sqlgen.New(suite, r.resolver).Generate(opts.Limit)
}
