// Package refeval is a naive row-by-row evaluator applying each rule
// kind's failure predicate in process. It exists as the parity oracle for
// the SQL synthesizer: for any dataset, the failure count it computes must
// equal the count the synthesized query produces engine-side.
package refeval

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"snowcheck/internal/catalog"
	"snowcheck/pkg/errors"
)

// Row is one source record; nil cells are NULL.
type Row map[string]interface{}

// Evaluator evaluates rule instances against a fixed dataset. Uniqueness
// kinds need the whole dataset, hence the struct rather than a free
// function.
type Evaluator struct {
	rows []Row
}

// New creates an evaluator over the dataset.
func New(rows []Row) *Evaluator {
	return &Evaluator{rows: rows}
}

// Fails reports whether row i fails the rule, using exactly the failure
// semantics the synthesizer compiles to SQL (including the null policy).
func (e *Evaluator) Fails(inst *catalog.RuleInstance, i int) (bool, error) {
	row := e.rows[i]

	switch inst.Kind {
	case catalog.KindNotNull:
		return isNull(row[inst.SourceColumn]), nil

	case catalog.KindValueInSet:
		v := row[inst.SourceColumn]
		return isNull(v) || !inSet(v, inst.ValueSet), nil

	case catalog.KindValueNotInSet:
		v := row[inst.SourceColumn]
		return !isNull(v) && inSet(v, inst.ValueSet), nil

	case catalog.KindRegexMatch:
		v := row[inst.SourceColumn]
		if isNull(v) {
			return true, nil
		}
		ok, err := matchEntire(inst.Pattern, asString(v))
		return !ok, err

	case catalog.KindRegexNotMatch:
		v := row[inst.SourceColumn]
		if isNull(v) {
			return false, nil
		}
		ok, err := matchEntire(inst.Pattern, asString(v))
		return ok, err

	case catalog.KindPairEqual:
		a, b := row[inst.ColumnA], row[inst.ColumnB]
		if isNull(a) && isNull(b) {
			return false, nil
		}
		if isNull(a) != isNull(b) {
			return true, nil
		}
		return !valuesEqual(a, b), nil

	case catalog.KindPairGreaterThan:
		a, b := row[inst.ColumnA], row[inst.ColumnB]
		if isNull(a) || isNull(b) {
			return true, nil
		}
		cmp := compare(a, b)
		if inst.OrEqual {
			return cmp < 0, nil
		}
		return cmp <= 0, nil

	case catalog.KindLengthEqual:
		v := row[inst.SourceColumn]
		return !isNull(v) && len(asString(v)) != *inst.Length, nil

	case catalog.KindLengthBetween:
		v := row[inst.SourceColumn]
		if isNull(v) {
			return false, nil
		}
		n := len(asString(v))
		if inst.MinLength != nil && n < *inst.MinLength {
			return true, nil
		}
		if inst.MaxLength != nil && n > *inst.MaxLength {
			return true, nil
		}
		return false, nil

	case catalog.KindValueBetween:
		v := row[inst.SourceColumn]
		if isNull(v) {
			return false, nil
		}
		f, ok := asFloat(v)
		if !ok {
			return true, nil
		}
		if inst.MinValue != nil && f < *inst.MinValue {
			return true, nil
		}
		if inst.MaxValue != nil && f > *inst.MaxValue {
			return true, nil
		}
		return false, nil

	case catalog.KindUnique:
		return e.keyCount([]string{inst.SourceColumn}, row) > 1, nil

	case catalog.KindCompoundUnique:
		return e.keyCount(inst.ColumnList, row) > 1, nil

	case catalog.KindConditionalRequired:
		cond := row[inst.ConditionColumn]
		if isNull(cond) || !inSet(cond, inst.ConditionValues) {
			return false, nil
		}
		return isNull(row[inst.RequiredColumn]), nil

	case catalog.KindConditionalValueInSet:
		cond := row[inst.ConditionColumn]
		if isNull(cond) || !inSet(cond, inst.ConditionValues) {
			return false, nil
		}
		tgt := row[inst.TargetColumn]
		return isNull(tgt) || !inSet(tgt, inst.AllowedValues), nil

	case catalog.KindReferenceLookup:
		if inst.Reference == nil || len(inst.Reference.Values) == 0 {
			return false, errors.New(errors.ErrCodeInternal,
				fmt.Sprintf("rule %s: reference table lookups require the execution engine", inst.ID))
		}
		v := row[inst.SourceColumn]
		return isNull(v) || !inSet(v, inst.Reference.Values), nil
	}

	return false, errors.New(errors.ErrCodeInternal,
		fmt.Sprintf("no reference predicate for rule kind %q", inst.Kind))
}

// Flags returns 0/1 failure flags for the rule over every row.
func (e *Evaluator) Flags(inst *catalog.RuleInstance) ([]int, error) {
	flags := make([]int, len(e.rows))
	for i := range e.rows {
		fails, err := e.Fails(inst, i)
		if err != nil {
			return nil, err
		}
		if fails {
			flags[i] = 1
		}
	}
	return flags, nil
}

// FailureCount counts the rows failing the rule.
func (e *Evaluator) FailureCount(inst *catalog.RuleInstance) (int, error) {
	flags, err := e.Flags(inst)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range flags {
		n += f
	}
	return n, nil
}

func (e *Evaluator) keyCount(columns []string, row Row) int {
	sig := signature(columns, row)
	n := 0
	for _, r := range e.rows {
		if signature(columns, r) == sig {
			n++
		}
	}
	return n
}

func signature(columns []string, row Row) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		v := row[c]
		if isNull(v) {
			parts[i] = "\x00"
		} else {
			parts[i] = asString(v)
		}
	}
	return strings.Join(parts, "\x1f")
}

func isNull(v interface{}) bool {
	return v == nil
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// valuesEqual follows the engine's comparison rules: two varchar values
// compare as text ('1' IN ('01') is false), while a native numeric on
// either side coerces the comparison to numbers.
func valuesEqual(a, b interface{}) bool {
	if isText(a) && isText(b) {
		return asString(a) == asString(b)
	}
	fa, okA := asFloat(a)
	fb, okB := asFloat(b)
	if okA && okB {
		return fa == fb
	}
	return asString(a) == asString(b)
}

func isText(v interface{}) bool {
	switch v.(type) {
	case string, []byte:
		return true
	}
	return false
}

// compare returns <0, 0, >0. Numeric when both sides parse, otherwise
// lexical, matching the engine's behavior for numeric and varchar columns.
func compare(a, b interface{}) int {
	fa, okA := asFloat(a)
	fb, okB := asFloat(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(asString(a), asString(b))
}

func inSet(v interface{}, set []interface{}) bool {
	for _, s := range set {
		if valuesEqual(v, s) {
			return true
		}
	}
	return false
}

// matchEntire anchors the pattern to the whole value, the way Snowflake's
// RLIKE matches.
func matchEntire(pattern, value string) (bool, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternal, "invalid regex pattern "+pattern)
	}
	return re.MatchString(value), nil
}
