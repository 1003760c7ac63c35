// Package sqlgen compiles a loaded validation suite into a single Snowflake
// query. The query selects every context and validated column from a base
// row set, plus one 0/1 flag column per rule instance (1 on failure) and
// one OR-combined flag per derived status, so the whole suite costs exactly
// one round trip regardless of rule count.
package sqlgen

import (
	"fmt"
	"sort"
	"strings"

	"snowcheck/internal/catalog"
	"snowcheck/internal/grain"
	"snowcheck/pkg/errors"
)

// DefaultTable is the product data view validated when a suite does not
// name a table.
const DefaultTable = `PROD_MO_MONM.REPORTING."vw_ProductDataAll"`

// Generator synthesizes SQL for one suite.
type Generator struct {
	suite    *catalog.Suite
	resolver *grain.Resolver
}

// New creates a generator for the suite.
func New(suite *catalog.Suite, resolver *grain.Resolver) *Generator {
	return &Generator{suite: suite, resolver: resolver}
}

// Generate produces the complete query. limit caps the base row set when
// positive (preview/testing); 0 means no cap. The output is deterministic
// for a fixed suite, so it can be logged and diffed without executing.
func (g *Generator) Generate(limit int) (string, error) {
	if len(g.suite.Rules) == 0 {
		return "", errors.New(errors.ErrCodeSynthesisNoRules,
			fmt.Sprintf("suite %q has no rule instances to synthesize", g.suite.Name))
	}

	validated := g.suite.ValidatedColumns()
	context, err := g.resolver.ContextFor(validated)
	if err != nil {
		return "", err
	}

	projection := projectionColumns(context, validated)

	exprs := make(map[string]string, len(g.suite.Rules))
	var flags []string
	for i := range g.suite.Rules {
		inst := &g.suite.Rules[i]
		expr, err := failureExpression(inst)
		if err != nil {
			return "", err
		}
		exprs[inst.ID] = expr
		flags = append(flags, fmt.Sprintf("  -- %s on %s\n  CASE WHEN %s THEN 1 ELSE 0 END AS %s",
			inst.Kind, inst.Target, expr, inst.ID))
	}

	for _, d := range g.suite.Derived {
		var members []string
		for _, id := range d.MemberIDs {
			expr, ok := exprs[id]
			if !ok {
				return "", errors.New(errors.ErrCodeSynthesisInternal,
					fmt.Sprintf("derived status %q references rule %s with no synthesized expression", d.Name, id))
			}
			members = append(members, "("+expr+")")
		}
		flags = append(flags, fmt.Sprintf("  -- derived status %s\n  CASE WHEN %s THEN 1 ELSE 0 END AS %s",
			d.Name, strings.Join(members, " OR "), d.Alias))
	}

	var b strings.Builder
	b.WriteString("WITH base_data AS (\n")
	if g.suite.Distinct {
		b.WriteString("  SELECT DISTINCT\n")
	} else {
		b.WriteString("  SELECT\n")
	}
	b.WriteString("    " + strings.Join(quoteAll(projection), ",\n    ") + "\n")
	b.WriteString("  FROM " + g.tableName() + "\n")
	if where := buildWhere(g.suite.Filters); where != "" {
		b.WriteString("  " + where + "\n")
	}
	if limit > 0 {
		b.WriteString(fmt.Sprintf("  LIMIT %d\n", limit))
	}
	b.WriteString(")\nSELECT\n")
	b.WriteString("  " + strings.Join(quoteAll(projection), ",\n  ") + ",\n")
	b.WriteString(strings.Join(flags, ",\n"))
	b.WriteString("\nFROM base_data")

	return b.String(), nil
}

// ContextColumns exposes the minimal context computed for the suite, for
// callers that attribute failures.
func (g *Generator) ContextColumns() ([]string, error) {
	return g.resolver.ContextFor(g.suite.ValidatedColumns())
}

func (g *Generator) tableName() string {
	if g.suite.Table != "" {
		return g.suite.Table
	}
	return DefaultTable
}

// projectionColumns assembles context columns followed by validated columns
// not already present. Both inputs are sorted, so the projection is stable.
func projectionColumns(context, validated []string) []string {
	seen := map[string]bool{}
	var cols []string
	for _, c := range context {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	for _, c := range validated {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	return cols
}

// buildWhere renders the optional suite filters. A string value starting
// with a comparison operator or LIKE/IN passes through verbatim; a plain
// scalar becomes an equality; a list becomes an IN clause. Keys are sorted
// so the clause is reproducible.
func buildWhere(filters map[string]interface{}) string {
	if len(filters) == 0 {
		return ""
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conditions []string
	for _, column := range keys {
		switch v := filters[column].(type) {
		case string:
			if hasOperatorPrefix(v) {
				conditions = append(conditions, quoteIdent(column)+" "+v)
			} else {
				conditions = append(conditions, quoteIdent(column)+" = "+formatValue(v))
			}
		case []interface{}:
			conditions = append(conditions, quoteIdent(column)+" IN ("+formatValueList(v)+")")
		default:
			conditions = append(conditions, quoteIdent(column)+" = "+formatValue(v))
		}
	}

	return "WHERE " + strings.Join(conditions, " AND ")
}

// hasOperatorPrefix reports whether a filter value is already a predicate
// fragment. Word operators must be followed by a space or an opening
// parenthesis so plain values that merely start with a keyword, like
// INACTIVE or LIKELY, stay equality matches.
func hasOperatorPrefix(s string) bool {
	prefixes := []string{
		"LIKE ", "NOT LIKE ", "IN ", "IN(", "NOT IN ", "NOT IN(", "IS ",
		"=", "!=", "<>", "<=", ">=", "<", ">",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func quoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return out
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, "") + `"`
}

func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return "'" + escapeString(t) + "'"
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case int, int64, float64:
		return fmt.Sprintf("%v", t)
	default:
		return "'" + escapeString(fmt.Sprintf("%v", t)) + "'"
	}
}

func formatValueList(values []interface{}) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ", ")
}
