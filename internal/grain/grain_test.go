package grain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowcheck/pkg/errors"
)

func TestGrainOfSingleColumn(t *testing.T) {
	r := DefaultResolver()

	g, err := r.GrainOf("MATERIAL_GROUP")
	require.NoError(t, err)
	assert.Equal(t, "MARA", g.Entity)
	assert.Equal(t, []string{"MATERIAL_NUMBER"}, g.Key)
	assert.False(t, g.Degraded)

	g, err = r.GrainOf("MRP_TYPE")
	require.NoError(t, err)
	assert.Equal(t, "MARC", g.Entity)
	assert.Equal(t, []string{"MATERIAL_NUMBER", "PLANT"}, g.Key)
}

func TestGrainOfUnmappedColumn(t *testing.T) {
	r := DefaultResolver()
	_, err := r.GrainOf("NO_SUCH_COLUMN")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeGrainUnresolved, errors.GetErrorCode(err))
}

func TestGrainOfFallback(t *testing.T) {
	r := DefaultResolver(WithFallback())
	g, err := r.GrainOf("NO_SUCH_COLUMN")
	require.NoError(t, err)
	assert.True(t, g.Degraded)
	assert.Equal(t, DefaultRootKey, g.Key)
}

func TestGrainForColumnsPicksMostGranular(t *testing.T) {
	r := DefaultResolver()

	// MARA column + MARC column: attribution needs the MARC grain.
	g, err := r.GrainForColumns([]string{"MATERIAL_GROUP", "MRP_TYPE"})
	require.NoError(t, err)
	assert.Equal(t, "MARA+MARC", g.Entity)
	assert.Equal(t, []string{"MATERIAL_NUMBER", "PLANT"}, g.Key)
	assert.False(t, g.Degraded)

	// Same-entity columns keep the plain entity name.
	g, err = r.GrainForColumns([]string{"MATERIAL_GROUP", "DIVISION"})
	require.NoError(t, err)
	assert.Equal(t, "MARA", g.Entity)
	assert.Equal(t, []string{"MATERIAL_NUMBER"}, g.Key)
}

func TestContextForIsSetUnion(t *testing.T) {
	r := DefaultResolver()

	// MARA + MARC columns: the union is {MATERIAL_NUMBER, PLANT}, not a
	// cross product, and MATERIAL_NUMBER appears once.
	ctx, err := r.ContextFor([]string{"MATERIAL_GROUP", "MRP_TYPE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MATERIAL_NUMBER", "PLANT"}, ctx)

	// Adding a sales-org column widens the union.
	ctx, err = r.ContextFor([]string{"MATERIAL_GROUP", "MRP_TYPE", "SALES_STATUS"})
	require.NoError(t, err)
	assert.Equal(t, []string{"DISTRIBUTION_CHANNEL", "MATERIAL_NUMBER", "PLANT", "SALES_ORGANIZATION"}, ctx)
}

func TestContextForEmptyInput(t *testing.T) {
	r := DefaultResolver()
	ctx, err := r.ContextFor(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultRootKey, ctx)
}

func TestGrainForColumnsEmptyInput(t *testing.T) {
	r := DefaultResolver()
	_, err := r.GrainForColumns(nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeGrainEmptyInput, errors.GetErrorCode(err))
}

func TestRootKeyReturnsCopy(t *testing.T) {
	r := DefaultResolver()
	key := r.RootKey()
	key[0] = "MUTATED"
	assert.Equal(t, DefaultRootKey, r.RootKey())
}

func TestCustomResolver(t *testing.T) {
	r := NewResolver(
		map[string][]string{"ORDERS": {"ORDER_ID"}},
		map[string]string{"ORDER_TOTAL": "ORDERS"},
		[]string{"ORDER_ID"},
	)
	g, err := r.GrainOf("ORDER_TOTAL")
	require.NoError(t, err)
	assert.Equal(t, "ORDERS", g.Entity)
	assert.Equal(t, []string{"ORDER_ID"}, g.Key)
}
