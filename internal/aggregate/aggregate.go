// Package aggregate reconstructs per-rule and per-entity statistics from
// the single full-width result set the synthesized query returns: one row
// per source record, one 0/1 flag column per rule instance.
package aggregate

import (
	"math"
	"sort"
	"strings"

	"snowcheck/internal/catalog"
	"snowcheck/internal/grain"
	"snowcheck/pkg/errors"
)

// FailingEntity is one deduplicated failing entity: its grain key values,
// the minimal context carried for attribution, and the offending value of
// the rule's source column.
type FailingEntity struct {
	Key         map[string]string
	Context     map[string]string
	ActualValue string

	// FiredRuleIDs is populated for derived statuses only: the member
	// rules that actually fired for this entity.
	FiredRuleIDs []string
}

// RuleOutcome is the aggregated result for one rule instance. Failing
// entities are extracted lazily on first request, not eagerly per run.
type RuleOutcome struct {
	RuleID   string
	Kind     catalog.Kind
	Target   string
	Columns  []string
	Total    int
	Failures int
	Percent  float64
	Success  bool

	GrainName     string
	GrainKey      []string
	GrainDegraded bool

	table    *Table
	flagCol  string
	valueCol string
	context  []string
	failing  []FailingEntity
	fetched  bool
}

// FailingEntities extracts the failing entities for this rule, deduplicated
// by the rule's grain key: multiple physical rows for the same entity
// collapse to one record. The result is memoized.
func (o *RuleOutcome) FailingEntities() ([]FailingEntity, error) {
	if o.fetched {
		return o.failing, nil
	}

	entities, err := extractFailures(o.table, o.flagCol, o.GrainKey, o.context, o.valueCol, nil)
	if err != nil {
		return nil, err
	}
	o.failing = entities
	o.fetched = true
	return o.failing, nil
}

// DerivedOutcome is the aggregated result for one derived status.
type DerivedOutcome struct {
	Name      string
	MemberIDs []string
	Total     int
	Failures  int
	Percent   float64
	Success   bool

	GrainName     string
	GrainKey      []string
	GrainDegraded bool

	table    *Table
	flagCol  string
	context  []string
	memberBy map[string]string // rule id -> flag column
	failing  []FailingEntity
	fetched  bool
}

// FailingEntities extracts the deduplicated failing entities for the
// derived status. Each entity additionally reports which member rules
// fired, recovered by re-checking every member flag over the entity's rows.
func (o *DerivedOutcome) FailingEntities() ([]FailingEntity, error) {
	if o.fetched {
		return o.failing, nil
	}

	entities, err := extractFailures(o.table, o.flagCol, o.GrainKey, o.context, "", o.memberBy)
	if err != nil {
		return nil, err
	}
	o.failing = entities
	o.fetched = true
	return o.failing, nil
}

// Aggregate consumes the tabular result of a suite's synthesized query and
// produces one outcome per rule instance and per derived status. A missing
// flag column means the synthesizer and aggregator have drifted apart and
// is fatal.
func Aggregate(t *Table, suite *catalog.Suite, resolver *grain.Resolver) ([]*RuleOutcome, []*DerivedOutcome, error) {
	total := t.Len()

	outcomes := make([]*RuleOutcome, 0, len(suite.Rules))
	for i := range suite.Rules {
		inst := &suite.Rules[i]

		if _, ok := t.Index(inst.ID); !ok {
			return nil, nil, errors.AggregationError(inst.ID, suite.Name, inst.ID)
		}

		failures := countFlags(t, inst.ID)

		g, err := resolver.GrainForColumns(inst.Columns)
		if err != nil {
			return nil, nil, err
		}
		context, err := resolver.ContextFor(inst.Columns)
		if err != nil {
			return nil, nil, err
		}

		outcomes = append(outcomes, &RuleOutcome{
			RuleID:        inst.ID,
			Kind:          inst.Kind,
			Target:        inst.Target,
			Columns:       inst.Columns,
			Total:         total,
			Failures:      failures,
			Percent:       percent(failures, total),
			Success:       failures == 0,
			GrainName:     g.Entity,
			GrainKey:      g.Key,
			GrainDegraded: g.Degraded,
			table:         t,
			flagCol:       inst.ID,
			valueCol:      inst.SourceColumn,
			context:       context,
		})
	}

	derived := make([]*DerivedOutcome, 0, len(suite.Derived))
	for _, d := range suite.Derived {
		if _, ok := t.Index(d.Alias); !ok {
			return nil, nil, errors.AggregationError(d.Name, suite.Name, d.Alias)
		}

		memberBy := make(map[string]string, len(d.MemberIDs))
		var memberCols []string
		for _, id := range d.MemberIDs {
			if _, ok := t.Index(id); !ok {
				return nil, nil, errors.AggregationError(id, suite.Name, id)
			}
			memberBy[id] = id
			inst, ok := suite.RuleByID(id)
			if !ok {
				return nil, nil, errors.AggregationError(id, suite.Name, id)
			}
			memberCols = append(memberCols, inst.Columns...)
		}

		failures := countFlags(t, d.Alias)
		g, err := resolver.GrainForColumns(memberCols)
		if err != nil {
			return nil, nil, err
		}
		context, err := resolver.ContextFor(memberCols)
		if err != nil {
			return nil, nil, err
		}

		derived = append(derived, &DerivedOutcome{
			Name:          d.Name,
			MemberIDs:     d.MemberIDs,
			Total:         total,
			Failures:      failures,
			Percent:       percent(failures, total),
			Success:       failures == 0,
			GrainName:     g.Entity,
			GrainKey:      g.Key,
			GrainDegraded: g.Degraded,
			table:         t,
			flagCol:       d.Alias,
			context:       context,
			memberBy:      memberBy,
		})
	}

	return outcomes, derived, nil
}

// ValidatedEntities returns the distinct non-empty values of the root
// entity column, in first-seen order.
func ValidatedEntities(t *Table, indexColumn string) []string {
	if _, ok := t.Index(indexColumn); !ok {
		return nil
	}

	seen := map[string]bool{}
	var out []string
	for i := 0; i < t.Len(); i++ {
		v := cellString(t.Value(i, indexColumn))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func countFlags(t *Table, column string) int {
	n := 0
	for i := 0; i < t.Len(); i++ {
		if truthy(t.Value(i, column)) {
			n++
		}
	}
	return n
}

// percent is 0 when total is 0, never NaN. Rounded to two decimals.
func percent(failures, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(failures)/float64(total)*100*100) / 100
}

// extractFailures filters flagged rows, projects grain key + context +
// diagnostic value, and deduplicates by the grain key tuple. When memberBy
// is non-nil (derived statuses), the fired member rules are accumulated per
// entity across all of its rows.
func extractFailures(t *Table, flagCol string, key, context []string, valueCol string, memberBy map[string]string) ([]FailingEntity, error) {
	for _, col := range append(append([]string{}, key...), context...) {
		if _, ok := t.Index(col); !ok {
			return nil, errors.New(errors.ErrCodeContextColumnMissing,
				"result set is missing context column "+col).
				WithContext("column", col).
				WithSeverity(errors.SeverityCritical)
		}
	}

	byKey := map[string]*FailingEntity{}
	var order []string
	for i := 0; i < t.Len(); i++ {
		if !truthy(t.Value(i, flagCol)) {
			continue
		}

		keyParts := make([]string, len(key))
		entityKey := make(map[string]string, len(key))
		for j, col := range key {
			v := cellString(t.Value(i, col))
			keyParts[j] = v
			entityKey[col] = v
		}
		id := strings.Join(keyParts, "\x1f")

		entity, ok := byKey[id]
		if !ok {
			ctx := make(map[string]string, len(context))
			for _, col := range context {
				ctx[col] = cellString(t.Value(i, col))
			}
			entity = &FailingEntity{Key: entityKey, Context: ctx}
			if valueCol != "" {
				entity.ActualValue = cellString(t.Value(i, valueCol))
			}
			byKey[id] = entity
			order = append(order, id)
		}

		if memberBy != nil {
			for ruleID, col := range memberBy {
				if truthy(t.Value(i, col)) && !containsString(entity.FiredRuleIDs, ruleID) {
					entity.FiredRuleIDs = append(entity.FiredRuleIDs, ruleID)
				}
			}
		}
	}

	out := make([]FailingEntity, 0, len(order))
	for _, id := range order {
		e := byKey[id]
		sortStrings(e.FiredRuleIDs)
		out = append(out, *e)
	}
	return out, nil
}

func sortStrings(s []string) {
	sort.Strings(s)
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
