package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot/docupilot/internal/apperr"
)

func unconfiguredIndex(t *testing.T) *Index {
	t.Helper()
	ix := New(context.Background(), Config{Collection: "test"}, nil)
	require.False(t, ix.Configured())
	return ix
}

func TestUnconfigured_QueryReturnsEmpty(t *testing.T) {
	ix := unconfiguredIndex(t)
	matches, err := ix.Query(context.Background(), []float32{0.1, 0.2}, 5, "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestUnconfigured_UpsertFails(t *testing.T) {
	ix := unconfiguredIndex(t)
	err := ix.Upsert(context.Background(), []Vector{{ID: "d1_chunk_0", Values: []float32{0.1}}})
	assert.ErrorIs(t, err, apperr.ErrIndexUnavailable)
}

func TestUnconfigured_DeleteAndEnsureAreNoOps(t *testing.T) {
	ix := unconfiguredIndex(t)
	assert.NoError(t, ix.DeleteByDoc(context.Background(), "doc-1"))
	assert.NoError(t, ix.Ensure(context.Background(), 768))
	assert.NoError(t, ix.Close())
}

func TestUnconfigured_HealthReportsUnavailable(t *testing.T) {
	ix := unconfiguredIndex(t)
	assert.ErrorIs(t, ix.Health(context.Background()), apperr.ErrIndexUnavailable)
}

func TestPointID_Deterministic(t *testing.T) {
	a := PointID("doc-1_chunk_0")
	b := PointID("doc-1_chunk_0")
	c := PointID("doc-1_chunk_1")

	assert.Equal(t, a, b, "same logical ID must map to the same point")
	assert.NotEqual(t, a, c, "different chunks must map to different points")
	assert.Len(t, a, 36, "point ID must be a UUID string")
}
