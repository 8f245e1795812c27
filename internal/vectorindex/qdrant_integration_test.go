//go:build integration

package vectorindex

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot/docupilot/internal/apperr"
)

func TestEnsure_RejectsDimensionMismatch_Integration(t *testing.T) {
	host := os.Getenv("QDRANT_HOST")
	if host == "" {
		t.Skip("QDRANT_HOST not set, skipping integration test")
	}

	ctx := context.Background()
	ix := New(ctx, Config{Host: host, Port: 6334, Collection: "dimension-check-test"}, nil)
	require.True(t, ix.Configured())
	defer ix.Close()
	defer ix.client.DeleteCollection(ctx, "dimension-check-test")

	require.NoError(t, ix.Ensure(ctx, 768))

	// Same dimension is idempotent; a changed embedding model is not.
	require.NoError(t, ix.Ensure(ctx, 768))
	err := ix.Ensure(ctx, 1536)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
	assert.Equal(t, 768, ix.Dimension(), "a rejected Ensure must not change the tracked dimension")
}
