package sqlgen

import (
	"fmt"
	"strings"

	"snowcheck/internal/catalog"
	"snowcheck/pkg/errors"
)

// exprBuilder renders the true-on-failure boolean expression for one rule
// instance over a base_data row.
type exprBuilder func(*catalog.RuleInstance) (string, error)

// Null policy, applied uniformly here and in the reference evaluator:
// value_in_set and reference_lookup treat NULL as a failure (a required
// domain implies the value must be present); value_not_in_set treats NULL
// as a pass (NULL is never a member of the forbidden set); regex_match
// fails on NULL, regex_not_match passes; length and range constraints
// apply to present values only.
var builders = map[catalog.Kind]exprBuilder{
	catalog.KindNotNull:               buildNotNull,
	catalog.KindValueInSet:            buildValueInSet,
	catalog.KindValueNotInSet:         buildValueNotInSet,
	catalog.KindRegexMatch:            buildRegexMatch,
	catalog.KindRegexNotMatch:         buildRegexNotMatch,
	catalog.KindPairEqual:             buildPairEqual,
	catalog.KindPairGreaterThan:       buildPairGreaterThan,
	catalog.KindLengthEqual:           buildLengthEqual,
	catalog.KindLengthBetween:         buildLengthBetween,
	catalog.KindValueBetween:          buildValueBetween,
	catalog.KindUnique:                buildUnique,
	catalog.KindCompoundUnique:        buildCompoundUnique,
	catalog.KindConditionalRequired:   buildConditionalRequired,
	catalog.KindConditionalValueInSet: buildConditionalValueInSet,
	catalog.KindReferenceLookup:       buildReferenceLookup,
}

// failureExpression dispatches to the kind's builder. An unknown kind here
// means the loader's validation was bypassed: a programming error, not a
// document error.
func failureExpression(inst *catalog.RuleInstance) (string, error) {
	build, ok := builders[inst.Kind]
	if !ok {
		return "", errors.New(errors.ErrCodeSynthesisInternal,
			fmt.Sprintf("no expression builder for rule kind %q (rule %s)", inst.Kind, inst.ID)).
			WithContext("rule_id", inst.ID).
			WithSeverity(errors.SeverityCritical)
	}
	return build(inst)
}

func buildNotNull(inst *catalog.RuleInstance) (string, error) {
	return fmt.Sprintf("%s IS NULL", quoteIdent(inst.SourceColumn)), nil
}

func buildValueInSet(inst *catalog.RuleInstance) (string, error) {
	col := quoteIdent(inst.SourceColumn)
	return fmt.Sprintf("(%s IS NULL OR %s NOT IN (%s))", col, col, formatValueList(inst.ValueSet)), nil
}

func buildValueNotInSet(inst *catalog.RuleInstance) (string, error) {
	col := quoteIdent(inst.SourceColumn)
	return fmt.Sprintf("(%s IS NOT NULL AND %s IN (%s))", col, col, formatValueList(inst.ValueSet)), nil
}

func buildRegexMatch(inst *catalog.RuleInstance) (string, error) {
	col := quoteIdent(inst.SourceColumn)
	return fmt.Sprintf("(%s IS NULL OR NOT RLIKE(%s, '%s'))", col, col, escapeString(inst.Pattern)), nil
}

func buildRegexNotMatch(inst *catalog.RuleInstance) (string, error) {
	col := quoteIdent(inst.SourceColumn)
	return fmt.Sprintf("(%s IS NOT NULL AND RLIKE(%s, '%s'))", col, col, escapeString(inst.Pattern)), nil
}

func buildPairEqual(inst *catalog.RuleInstance) (string, error) {
	a, b := quoteIdent(inst.ColumnA), quoteIdent(inst.ColumnB)
	return fmt.Sprintf("(%s != %s OR (%s IS NULL AND %s IS NOT NULL) OR (%s IS NOT NULL AND %s IS NULL))",
		a, b, a, b, a, b), nil
}

func buildPairGreaterThan(inst *catalog.RuleInstance) (string, error) {
	a, b := quoteIdent(inst.ColumnA), quoteIdent(inst.ColumnB)
	// The rule requires A > B (or A >= B); the failure comparison is its
	// negation, with either side NULL also failing.
	op := "<="
	if inst.OrEqual {
		op = "<"
	}
	return fmt.Sprintf("(%s %s %s OR %s IS NULL OR %s IS NULL)", a, op, b, a, b), nil
}

func buildLengthEqual(inst *catalog.RuleInstance) (string, error) {
	col := quoteIdent(inst.SourceColumn)
	return fmt.Sprintf("(%s IS NOT NULL AND LENGTH(%s) != %d)", col, col, *inst.Length), nil
}

func buildLengthBetween(inst *catalog.RuleInstance) (string, error) {
	col := quoteIdent(inst.SourceColumn)
	var bounds []string
	if inst.MinLength != nil {
		bounds = append(bounds, fmt.Sprintf("LENGTH(%s) < %d", col, *inst.MinLength))
	}
	if inst.MaxLength != nil {
		bounds = append(bounds, fmt.Sprintf("LENGTH(%s) > %d", col, *inst.MaxLength))
	}
	return fmt.Sprintf("(%s IS NOT NULL AND (%s))", col, strings.Join(bounds, " OR ")), nil
}

func buildValueBetween(inst *catalog.RuleInstance) (string, error) {
	col := quoteIdent(inst.SourceColumn)
	var bounds []string
	if inst.MinValue != nil {
		bounds = append(bounds, fmt.Sprintf("%s < %v", col, *inst.MinValue))
	}
	if inst.MaxValue != nil {
		bounds = append(bounds, fmt.Sprintf("%s > %v", col, *inst.MaxValue))
	}
	return fmt.Sprintf("(%s IS NOT NULL AND (%s))", col, strings.Join(bounds, " OR ")), nil
}

func buildUnique(inst *catalog.RuleInstance) (string, error) {
	col := quoteIdent(inst.SourceColumn)
	return fmt.Sprintf("(COUNT(*) OVER (PARTITION BY %s) > 1)", col), nil
}

func buildCompoundUnique(inst *catalog.RuleInstance) (string, error) {
	return fmt.Sprintf("(COUNT(*) OVER (PARTITION BY %s) > 1)",
		strings.Join(quoteAll(inst.ColumnList), ", ")), nil
}

func buildConditionalRequired(inst *catalog.RuleInstance) (string, error) {
	cond := quoteIdent(inst.ConditionColumn)
	req := quoteIdent(inst.RequiredColumn)
	return fmt.Sprintf("(%s IN (%s) AND %s IS NULL)",
		cond, formatValueList(inst.ConditionValues), req), nil
}

func buildConditionalValueInSet(inst *catalog.RuleInstance) (string, error) {
	cond := quoteIdent(inst.ConditionColumn)
	tgt := quoteIdent(inst.TargetColumn)
	return fmt.Sprintf("(%s IN (%s) AND (%s IS NULL OR %s NOT IN (%s)))",
		cond, formatValueList(inst.ConditionValues), tgt, tgt, formatValueList(inst.AllowedValues)), nil
}

func buildReferenceLookup(inst *catalog.RuleInstance) (string, error) {
	col := quoteIdent(inst.SourceColumn)
	ref := inst.Reference
	if len(ref.Values) > 0 {
		return fmt.Sprintf("(%s IS NULL OR %s NOT IN (%s))", col, col, formatValueList(ref.Values)), nil
	}
	refCol := quoteIdent(ref.Column)
	return fmt.Sprintf("(%s IS NULL OR %s NOT IN (SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL))",
		col, col, refCol, ref.Table, refCol), nil
}
