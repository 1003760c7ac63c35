package refeval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowcheck/internal/aggregate"
	"snowcheck/internal/catalog"
	"snowcheck/internal/grain"
)

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }

func TestNullPolicyPerKind(t *testing.T) {
	rows := []Row{
		{"A": nil, "B": nil, "C": nil, "R": nil, "T": nil},
	}
	e := New(rows)

	tests := []struct {
		name  string
		inst  catalog.RuleInstance
		fails bool
	}{
		{"not_null fails", catalog.RuleInstance{Kind: catalog.KindNotNull, SourceColumn: "A"}, true},
		{"value_in_set fails", catalog.RuleInstance{Kind: catalog.KindValueInSet, SourceColumn: "A", ValueSet: []interface{}{"x"}}, true},
		{"value_not_in_set passes", catalog.RuleInstance{Kind: catalog.KindValueNotInSet, SourceColumn: "A", ValueSet: []interface{}{"x"}}, false},
		{"regex_match fails", catalog.RuleInstance{Kind: catalog.KindRegexMatch, SourceColumn: "A", Pattern: ".*"}, true},
		{"regex_not_match passes", catalog.RuleInstance{Kind: catalog.KindRegexNotMatch, SourceColumn: "A", Pattern: ".*"}, false},
		{"pair_equal both null passes", catalog.RuleInstance{Kind: catalog.KindPairEqual, ColumnA: "A", ColumnB: "B"}, false},
		{"pair_greater_than fails", catalog.RuleInstance{Kind: catalog.KindPairGreaterThan, ColumnA: "A", ColumnB: "B"}, true},
		{"length_equal passes", catalog.RuleInstance{Kind: catalog.KindLengthEqual, SourceColumn: "A", Length: intp(3)}, false},
		{"length_between passes", catalog.RuleInstance{Kind: catalog.KindLengthBetween, SourceColumn: "A", MinLength: intp(1)}, false},
		{"value_between passes", catalog.RuleInstance{Kind: catalog.KindValueBetween, SourceColumn: "A", MinValue: floatp(0)}, false},
		{"conditional_required null condition passes", catalog.RuleInstance{
			Kind: catalog.KindConditionalRequired, ConditionColumn: "C",
			ConditionValues: []interface{}{"Y"}, RequiredColumn: "R"}, false},
		{"reference_lookup fails", catalog.RuleInstance{
			Kind: catalog.KindReferenceLookup, SourceColumn: "A",
			Reference: &catalog.Reference{Values: []interface{}{"x"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fails, err := e.Fails(&tt.inst, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.fails, fails)
		})
	}
}

func TestPairSemantics(t *testing.T) {
	e := New([]Row{
		{"A": "x", "B": "x"},
		{"A": "x", "B": "y"},
		{"A": "x", "B": nil},
		{"A": 5, "B": 3},
		{"A": 3, "B": 3},
		{"A": 2, "B": 3},
	})

	eq := catalog.RuleInstance{Kind: catalog.KindPairEqual, ColumnA: "A", ColumnB: "B"}
	flags, err := e.Flags(&eq)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1, 1, 0, 1}, flags)

	gt := catalog.RuleInstance{Kind: catalog.KindPairGreaterThan, ColumnA: "A", ColumnB: "B"}
	flags, err = e.Flags(&gt)
	require.NoError(t, err)
	// Non-numeric pairs compare lexically; equal values fail a strict >.
	assert.Equal(t, []int{1, 1, 1, 0, 1, 1}, flags)

	gte := catalog.RuleInstance{Kind: catalog.KindPairGreaterThan, ColumnA: "A", ColumnB: "B", OrEqual: true}
	flags, err = e.Flags(&gte)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1, 0, 0, 1}, flags)
}

func TestRegexMatchesEntireValue(t *testing.T) {
	e := New([]Row{
		{"A": "12345678"},
		{"A": "1234567x"},
		{"A": "x12345678y"},
	})
	inst := catalog.RuleInstance{Kind: catalog.KindRegexMatch, SourceColumn: "A", Pattern: "[0-9]{8}"}
	flags, err := e.Flags(&inst)
	require.NoError(t, err)
	// The engine's RLIKE matches the whole string, so a longer string
	// containing a valid substring still fails.
	assert.Equal(t, []int{0, 1, 1}, flags)
}

func TestUniquenessCountsDataset(t *testing.T) {
	e := New([]Row{
		{"A": "x", "B": "1"},
		{"A": "x", "B": "2"},
		{"A": "y", "B": "1"},
	})

	u := catalog.RuleInstance{Kind: catalog.KindUnique, SourceColumn: "A"}
	flags, err := e.Flags(&u)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 0}, flags)

	cu := catalog.RuleInstance{Kind: catalog.KindCompoundUnique, ColumnList: []string{"A", "B"}}
	flags, err = e.Flags(&cu)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0}, flags)
}

func TestConditionalKinds(t *testing.T) {
	e := New([]Row{
		{"C": "Y", "R": nil, "T": "bad"},
		{"C": "Y", "R": "x", "T": "a"},
		{"C": "N", "R": nil, "T": nil},
	})

	req := catalog.RuleInstance{
		Kind: catalog.KindConditionalRequired, ConditionColumn: "C",
		ConditionValues: []interface{}{"Y"}, RequiredColumn: "R",
	}
	flags, err := e.Flags(&req)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0}, flags)

	set := catalog.RuleInstance{
		Kind: catalog.KindConditionalValueInSet, ConditionColumn: "C",
		ConditionValues: []interface{}{"Y"}, TargetColumn: "T",
		AllowedValues: []interface{}{"a", "b"},
	}
	flags, err = e.Flags(&set)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0}, flags)
}

func TestValueInSetComparesVarcharAsText(t *testing.T) {
	e := New([]Row{
		{"A": "1"},
		{"A": "01"},
		{"A": int64(1)},
	})

	inst := catalog.RuleInstance{
		Kind: catalog.KindValueInSet, SourceColumn: "A",
		ValueSet: []interface{}{"01"},
	}
	flags, err := e.Flags(&inst)
	require.NoError(t, err)
	// '1' IN ('01') is false for varchar data; a native numeric on either
	// side coerces the comparison and 1 = 01 holds.
	assert.Equal(t, []int{1, 0, 0}, flags)
}

func TestValueAndLengthBounds(t *testing.T) {
	e := New([]Row{
		{"A": "abc", "V": 5.0},
		{"A": "abcdef", "V": 0.5},
		{"A": "", "V": 10.0},
	})

	length := catalog.RuleInstance{
		Kind: catalog.KindLengthBetween, SourceColumn: "A",
		MinLength: intp(1), MaxLength: intp(4),
	}
	flags, err := e.Flags(&length)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1}, flags)

	value := catalog.RuleInstance{
		Kind: catalog.KindValueBetween, SourceColumn: "V",
		MinValue: floatp(1), MaxValue: floatp(9),
	}
	flags, err = e.Flags(&value)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1}, flags)
}

func TestReferenceTableLookupNeedsEngine(t *testing.T) {
	e := New([]Row{{"A": "x"}})
	inst := catalog.RuleInstance{
		Kind: catalog.KindReferenceLookup, SourceColumn: "A",
		Reference: &catalog.Reference{Table: "REF.DB.UOM", Column: "CODE"},
	}
	_, err := e.Fails(&inst, 0)
	assert.Error(t, err)
}

// TestParityWithAggregator evaluates a suite in process, materializes the
// flags into the tabular shape the synthesized query would return, and
// checks the aggregator reproduces the evaluator's failure counts.
func TestParityWithAggregator(t *testing.T) {
	doc := `
metadata:
  suite_name: parity
data_source:
  table: T
rules:
  - kind: not_null
    columns: [MATERIAL_GROUP, DIVISION]
  - kind: value_in_set
    column: DIVISION
    value_set: ["01", "02"]
  - kind: regex_match
    column: MATERIAL_NUMBER
    pattern: '[0-9]{2}'
  - kind: unique
    column: MATERIAL_NUMBER
`
	suite, err := catalog.Load([]byte(doc))
	require.NoError(t, err)

	rows := []Row{
		{"MATERIAL_NUMBER": "10", "MATERIAL_GROUP": "G1", "DIVISION": "01"},
		{"MATERIAL_NUMBER": "11", "MATERIAL_GROUP": nil, "DIVISION": "09"},
		{"MATERIAL_NUMBER": "xx", "MATERIAL_GROUP": "G2", "DIVISION": nil},
		{"MATERIAL_NUMBER": "10", "MATERIAL_GROUP": "G3", "DIVISION": "02"},
	}
	e := New(rows)

	// Materialize what the engine would return: source columns plus one
	// upper-cased flag column per rule.
	columns := []string{"MATERIAL_NUMBER", "MATERIAL_GROUP", "DIVISION"}
	cells := make([][]interface{}, len(rows))
	for i, r := range rows {
		cells[i] = []interface{}{r["MATERIAL_NUMBER"], r["MATERIAL_GROUP"], r["DIVISION"]}
	}
	for i := range suite.Rules {
		inst := &suite.Rules[i]
		flags, err := e.Flags(inst)
		require.NoError(t, err)
		columns = append(columns, strings.ToUpper(inst.ID))
		for j := range cells {
			cells[j] = append(cells[j], int64(flags[j]))
		}
	}

	tbl := aggregate.NewTable(columns, cells)
	outcomes, _, err := aggregate.Aggregate(tbl, suite, grain.DefaultResolver())
	require.NoError(t, err)
	require.Len(t, outcomes, len(suite.Rules))

	for _, o := range outcomes {
		inst, ok := suite.RuleByID(o.RuleID)
		require.True(t, ok)
		want, err := e.FailureCount(inst)
		require.NoError(t, err)
		assert.Equal(t, want, o.Failures, "rule %s (%s on %s)", o.RuleID, o.Kind, o.Target)
		assert.Equal(t, len(rows), o.Total)
	}
}
