// Package grain maps validated columns to their entity grain: the minimal
// key that uniquely identifies the real-world record a value belongs to.
// The default mapping covers the SAP material master tables feeding the
// product data view; validation failures are deduplicated at this grain
// before they are attributed to entities.
package grain

import (
	"sort"
	"strings"

	"snowcheck/pkg/errors"
)

// Grain is the resolved entity grain for one or more columns. Entity is the
// owning table name ("MARA"), or a "+"-joined combination when the columns
// span tables. Degraded is set when the resolver fell back to the root key
// because a column had no mapping; duplicate failures are then possible.
type Grain struct {
	Entity   string
	Key      []string
	Degraded bool
}

// Resolver answers grain questions for a fixed column-to-entity mapping.
// Immutable after construction; safe for concurrent use.
type Resolver struct {
	definitions   map[string][]string
	columnEntity  map[string]string
	rootKey       []string
	allowFallback bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFallback permits unresolvable columns to degrade to the root entity
// key instead of failing. Degraded grains are flagged on every result.
func WithFallback() Option {
	return func(r *Resolver) { r.allowFallback = true }
}

// NewResolver builds a resolver from entity definitions (entity name to
// unique key columns), a column-to-entity lookup, and the root entity key
// used for fallback.
func NewResolver(definitions map[string][]string, columns map[string]string, rootKey []string, opts ...Option) *Resolver {
	r := &Resolver{
		definitions:  definitions,
		columnEntity: columns,
		rootKey:      rootKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GrainOf returns the grain of a single column. An unmapped column is a
// GrainResolutionError unless fallback is enabled, in which case the root
// key is returned with Degraded set.
func (r *Resolver) GrainOf(column string) (Grain, error) {
	entity, ok := r.columnEntity[column]
	if !ok {
		if r.allowFallback {
			return Grain{Entity: "UNKNOWN", Key: r.copyRootKey(), Degraded: true}, nil
		}
		return Grain{}, errors.GrainError(column)
	}

	key, ok := r.definitions[entity]
	if !ok {
		if r.allowFallback {
			return Grain{Entity: entity, Key: r.copyRootKey(), Degraded: true}, nil
		}
		return Grain{}, errors.GrainError(column)
	}

	return Grain{Entity: entity, Key: append([]string(nil), key...)}, nil
}

// GrainForColumns returns the most granular grain required to attribute a
// failure spanning all the given columns: the longest key among the
// columns' grains, with the entity name combined when tables are mixed.
func (r *Resolver) GrainForColumns(columns []string) (Grain, error) {
	if len(columns) == 0 {
		return Grain{}, errors.New(errors.ErrCodeGrainEmptyInput, "no columns to resolve a grain for")
	}

	var (
		most     Grain
		entities []string
		degraded bool
	)
	seen := map[string]bool{}
	for _, col := range columns {
		g, err := r.GrainOf(col)
		if err != nil {
			return Grain{}, err
		}
		degraded = degraded || g.Degraded
		if !seen[g.Entity] {
			seen[g.Entity] = true
			entities = append(entities, g.Entity)
		}
		if len(g.Key) > len(most.Key) {
			most = g
		}
	}

	entity := most.Entity
	if len(entities) > 1 {
		sort.Strings(entities)
		entity = strings.Join(entities, "+")
	}

	return Grain{Entity: entity, Key: most.Key, Degraded: degraded}, nil
}

// ContextFor computes the minimal context columns for a set of validated
// columns: the set union of each column's grain key, sorted for
// reproducible output. The union (not the cross product) is what keeps the
// synthesized projection minimal.
func (r *Resolver) ContextFor(columns []string) ([]string, error) {
	if len(columns) == 0 {
		return r.copyRootKey(), nil
	}

	union := map[string]bool{}
	for _, col := range columns {
		g, err := r.GrainOf(col)
		if err != nil {
			return nil, err
		}
		for _, k := range g.Key {
			union[k] = true
		}
	}

	out := make([]string, 0, len(union))
	for k := range union {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// RootKey returns the root entity key (copy).
func (r *Resolver) RootKey() []string {
	return r.copyRootKey()
}

func (r *Resolver) copyRootKey() []string {
	return append([]string(nil), r.rootKey...)
}
