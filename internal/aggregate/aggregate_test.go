package aggregate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowcheck/internal/catalog"
	"snowcheck/internal/grain"
	"snowcheck/pkg/errors"
)

func loadSuite(t *testing.T, doc string) *catalog.Suite {
	t.Helper()
	suite, err := catalog.Load([]byte(doc))
	require.NoError(t, err)
	return suite
}

func TestTableLookupIsCaseInsensitive(t *testing.T) {
	// Snowflake folds unquoted aliases to upper case.
	tbl := NewTable([]string{"MATERIAL_NUMBER", "ID_AB12CD34EF"}, [][]interface{}{
		{"10000001", int64(1)},
	})

	_, ok := tbl.Index("id_ab12cd34ef")
	assert.True(t, ok)
	assert.Equal(t, int64(1), tbl.Value(0, "id_ab12cd34ef"))
	assert.Nil(t, tbl.Value(0, "missing"))
	assert.Nil(t, tbl.Value(5, "MATERIAL_NUMBER"))
}

func TestAggregateCountsAndPercent(t *testing.T) {
	suite := loadSuite(t, `
metadata:
  suite_name: s
data_source:
  table: T
rules:
  - kind: not_null
    column: MATERIAL_GROUP
`)
	id := suite.Rules[0].ID

	tbl := NewTable([]string{"MATERIAL_NUMBER", "MATERIAL_GROUP", strings.ToUpper(id)}, [][]interface{}{
		{"M1", "G1", int64(0)},
		{"M2", nil, int64(1)},
		{"M3", "G3", int64(0)},
	})

	outcomes, derived, err := Aggregate(tbl, suite, grain.DefaultResolver())
	require.NoError(t, err)
	assert.Empty(t, derived)
	require.Len(t, outcomes, 1)

	o := outcomes[0]
	assert.Equal(t, 3, o.Total)
	assert.Equal(t, 1, o.Failures)
	assert.Equal(t, 33.33, o.Percent)
	assert.False(t, o.Success)
	assert.Equal(t, "MARA", o.GrainName)
	assert.Equal(t, []string{"MATERIAL_NUMBER"}, o.GrainKey)
}

func TestAggregateEmptyResultIsZeroPercent(t *testing.T) {
	suite := loadSuite(t, `
metadata:
  suite_name: s
data_source:
  table: T
rules:
  - kind: not_null
    column: MATERIAL_GROUP
`)
	id := suite.Rules[0].ID

	tbl := NewTable([]string{"MATERIAL_NUMBER", "MATERIAL_GROUP", strings.ToUpper(id)}, nil)

	outcomes, _, err := Aggregate(tbl, suite, grain.DefaultResolver())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, 0, outcomes[0].Total)
	assert.Equal(t, 0.0, outcomes[0].Percent)
	assert.True(t, outcomes[0].Success)
}

func TestFailingEntitiesDedupedByGrain(t *testing.T) {
	// MRP_TYPE lives at the (MATERIAL_NUMBER, PLANT) grain. The view joins
	// sales organizations on, so one plant-level failure surfaces as many
	// physical rows; the aggregator must collapse them.
	suite := loadSuite(t, `
metadata:
  suite_name: s
data_source:
  table: T
rules:
  - kind: not_null
    column: MRP_TYPE
`)
	id := suite.Rules[0].ID

	tbl := NewTable(
		[]string{"MATERIAL_NUMBER", "PLANT", "MRP_TYPE", strings.ToUpper(id)},
		[][]interface{}{
			{"M1", "1000", nil, int64(1)},
			{"M1", "1000", nil, int64(1)}, // same entity, second sales org row
			{"M1", "2000", "PD", int64(0)},
			{"M2", "1000", nil, int64(1)},
		},
	)

	outcomes, _, err := Aggregate(tbl, suite, grain.DefaultResolver())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	o := outcomes[0]
	assert.Equal(t, 3, o.Failures) // row-level count stays physical

	entities, err := o.FailingEntities()
	require.NoError(t, err)
	require.Len(t, entities, 2) // entity-level is deduplicated

	assert.Equal(t, map[string]string{"MATERIAL_NUMBER": "M1", "PLANT": "1000"}, entities[0].Key)
	assert.Equal(t, map[string]string{"MATERIAL_NUMBER": "M2", "PLANT": "1000"}, entities[1].Key)
	assert.Equal(t, "", entities[0].ActualValue)

	// Memoized: second call returns the same slice contents.
	again, err := o.FailingEntities()
	require.NoError(t, err)
	assert.Equal(t, entities, again)
}

func TestDerivedOutcomeRecoversFiredRules(t *testing.T) {
	suite := loadSuite(t, `
metadata:
  suite_name: s
data_source:
  table: T
rules:
  - kind: not_null
    columns: [MATERIAL_GROUP, DIVISION]
derived_statuses:
  - name: Basic Complete
    kind: not_null
    columns: [MATERIAL_GROUP, DIVISION]
`)
	groupID := suite.Rules[0].ID
	divisionID := suite.Rules[1].ID
	alias := suite.Derived[0].Alias

	tbl := NewTable(
		[]string{"MATERIAL_NUMBER", "MATERIAL_GROUP", "DIVISION",
			strings.ToUpper(groupID), strings.ToUpper(divisionID), strings.ToUpper(alias)},
		[][]interface{}{
			{"M1", nil, "01", int64(1), int64(0), int64(1)},
			{"M2", nil, nil, int64(1), int64(1), int64(1)},
			{"M3", "G", "01", int64(0), int64(0), int64(0)},
		},
	)

	_, derived, err := Aggregate(tbl, suite, grain.DefaultResolver())
	require.NoError(t, err)
	require.Len(t, derived, 1)

	d := derived[0]
	assert.Equal(t, "Basic Complete", d.Name)
	assert.Equal(t, 2, d.Failures)

	entities, err := d.FailingEntities()
	require.NoError(t, err)
	require.Len(t, entities, 2)

	fired := map[string][]string{}
	for _, e := range entities {
		fired[e.Key["MATERIAL_NUMBER"]] = e.FiredRuleIDs
	}
	assert.Equal(t, []string{groupID}, fired["M1"])
	assert.ElementsMatch(t, []string{groupID, divisionID}, fired["M2"])
}

func TestAggregateMissingFlagColumn(t *testing.T) {
	suite := loadSuite(t, `
metadata:
  suite_name: s
data_source:
  table: T
rules:
  - kind: not_null
    column: MATERIAL_GROUP
`)

	tbl := NewTable([]string{"MATERIAL_NUMBER", "MATERIAL_GROUP"}, nil)

	_, _, err := Aggregate(tbl, suite, grain.DefaultResolver())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFlagColumnMissing, errors.GetErrorCode(err))
}

func TestFailingEntitiesMissingContextColumn(t *testing.T) {
	suite := loadSuite(t, `
metadata:
  suite_name: s
data_source:
  table: T
rules:
  - kind: not_null
    column: MRP_TYPE
`)
	id := suite.Rules[0].ID

	// PLANT is required context for MRP_TYPE but absent from the result.
	tbl := NewTable([]string{"MATERIAL_NUMBER", "MRP_TYPE", strings.ToUpper(id)}, [][]interface{}{
		{"M1", nil, int64(1)},
	})

	outcomes, _, err := Aggregate(tbl, suite, grain.DefaultResolver())
	require.NoError(t, err)

	_, err = outcomes[0].FailingEntities()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeContextColumnMissing, errors.GetErrorCode(err))
}

func TestValidatedEntities(t *testing.T) {
	tbl := NewTable([]string{"MATERIAL_NUMBER"}, [][]interface{}{
		{"M2"}, {"M1"}, {"M2"}, {nil}, {"M3"},
	})
	assert.Equal(t, []string{"M2", "M1", "M3"}, ValidatedEntities(tbl, "MATERIAL_NUMBER"))
	assert.Nil(t, ValidatedEntities(tbl, "NOPE"))
}

func TestTruthyVariants(t *testing.T) {
	for _, v := range []interface{}{int64(1), 1, float64(1), "1", "true", true, []byte("1")} {
		assert.True(t, truthy(v), "%T %v", v, v)
	}
	for _, v := range []interface{}{nil, int64(0), "0", "false", false, ""} {
		assert.False(t, truthy(v), "%T %v", v, v)
	}
}
