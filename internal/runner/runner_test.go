package runner

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowcheck/internal/catalog"
	"snowcheck/internal/refeval"
	"snowcheck/internal/snowflake"
	"snowcheck/pkg/errors"
)

// fakeEngine answers the synthesized query by evaluating the suite's rules
// in process over canned rows, producing the same tabular shape Snowflake
// would: context and validated columns plus upper-cased flag columns.
type fakeEngine struct {
	suite   *catalog.Suite
	columns []string
	rows    []refeval.Row

	lastQuery string
	err       error
}

func (f *fakeEngine) Query(_ context.Context, query string) (*snowflake.QueryResult, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}

	e := refeval.New(f.rows)

	columns := append([]string(nil), f.columns...)
	cells := make([][]interface{}, len(f.rows))
	for i, r := range f.rows {
		for _, c := range f.columns {
			cells[i] = append(cells[i], r[c])
		}
	}

	memberFlags := map[string][]int{}
	for i := range f.suite.Rules {
		inst := &f.suite.Rules[i]
		flags, err := e.Flags(inst)
		if err != nil {
			return nil, err
		}
		memberFlags[inst.ID] = flags
		columns = append(columns, strings.ToUpper(inst.ID))
		for j := range cells {
			cells[j] = append(cells[j], int64(flags[j]))
		}
	}
	for _, d := range f.suite.Derived {
		columns = append(columns, strings.ToUpper(d.Alias))
		for j := range cells {
			fired := false
			for _, id := range d.MemberIDs {
				fired = fired || memberFlags[id][j] == 1
			}
			if fired {
				cells[j] = append(cells[j], int64(1))
			} else {
				cells[j] = append(cells[j], int64(0))
			}
		}
	}

	return &snowflake.QueryResult{Columns: columns, Rows: cells}, nil
}

const runnerSuite = `
metadata:
  suite_name: material_basic
data_source:
  table: T
rules:
  - kind: not_null
    column: MATERIAL_GROUP
  - kind: value_in_set
    column: DIVISION
    value_set: ["01", "02"]
derived_statuses:
  - name: Basic Complete
    columns: [MATERIAL_GROUP, DIVISION]
`

func TestRunEndToEnd(t *testing.T) {
	suite, err := catalog.Load([]byte(runnerSuite))
	require.NoError(t, err)

	engine := &fakeEngine{
		suite:   suite,
		columns: []string{"MATERIAL_NUMBER", "DIVISION", "MATERIAL_GROUP"},
		rows: []refeval.Row{
			{"MATERIAL_NUMBER": "M1", "DIVISION": "01", "MATERIAL_GROUP": "G1"},
			{"MATERIAL_NUMBER": "M2", "DIVISION": "09", "MATERIAL_GROUP": "G2"},
			{"MATERIAL_NUMBER": "M3", "DIVISION": "01", "MATERIAL_GROUP": nil},
			{"MATERIAL_NUMBER": "M4", "DIVISION": nil, "MATERIAL_GROUP": nil},
		},
	}

	result, err := New(engine, nil).Run(context.Background(), suite, Options{})
	require.NoError(t, err)

	assert.Equal(t, 4, result.RowCount)
	assert.Equal(t, []string{"M1", "M2", "M3", "M4"}, result.ValidatedEntities)
	assert.Contains(t, engine.lastQuery, "WITH base_data AS")
	require.Len(t, result.Outcomes, 2)

	byTarget := map[string]int{}
	for _, o := range result.Outcomes {
		byTarget[o.Target] = o.Failures
	}
	assert.Equal(t, 2, byTarget["MATERIAL_GROUP"])
	assert.Equal(t, 2, byTarget["DIVISION"])

	require.Len(t, result.Derived, 1)
	d := result.Derived[0]
	assert.Equal(t, "Basic Complete", d.Name)
	assert.Equal(t, 3, d.Failures) // M2, M3, M4

	entities, err := d.FailingEntities()
	require.NoError(t, err)
	require.Len(t, entities, 3)
	// M4 fails both members.
	assert.Len(t, entities[2].FiredRuleIDs, 2)

	failed := result.FailedRules()
	assert.Len(t, failed, 2)
}

func TestRunPropagatesLimit(t *testing.T) {
	suite, err := catalog.Load([]byte(runnerSuite))
	require.NoError(t, err)

	engine := &fakeEngine{suite: suite, columns: []string{"MATERIAL_NUMBER", "DIVISION", "MATERIAL_GROUP"}}
	_, err = New(engine, nil).Run(context.Background(), suite, Options{Limit: 100})
	require.NoError(t, err)
	assert.Contains(t, engine.lastQuery, "LIMIT 100")
}

func TestRunPropagatesQueryError(t *testing.T) {
	suite, err := catalog.Load([]byte(runnerSuite))
	require.NoError(t, err)

	engine := &fakeEngine{
		suite: suite,
		err:   errors.ExecutionError("Validation query failed", "q", fmt.Errorf("boom")),
	}
	_, err = New(engine, nil).Run(context.Background(), suite, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryFailed, errors.GetErrorCode(err))
}

func TestPreviewDoesNotExecute(t *testing.T) {
	suite, err := catalog.Load([]byte(runnerSuite))
	require.NoError(t, err)

	engine := &fakeEngine{suite: suite}
	query, err := New(engine, nil).Preview(suite, Options{Limit: 10})
	require.NoError(t, err)
	assert.Contains(t, query, "LIMIT 10")
	assert.Empty(t, engine.lastQuery)
}
