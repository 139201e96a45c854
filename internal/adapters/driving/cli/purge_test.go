package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeCmd_Use(t *testing.T) {
	assert.Equal(t, "purge", purgeCmd.Use)
}

func TestPurgeCmd_WithYesFlag(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()
	defer func() { purgeYes = false }()

	_, err := retrievalService.Ingest(context.Background(), "default", "soon to be gone", "doc", nil)
	require.NoError(t, err)

	out, err := execute(t, "purge", "--yes")

	require.NoError(t, err)
	assert.Contains(t, out, "purged")

	n, err := chunkStore.Count(context.Background(), "default")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurgeCmd_ConfirmationAccepted(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("y\n"))

	out, err := execute(t, "purge")

	require.NoError(t, err)
	assert.Contains(t, out, "purged")
}

func TestPurgeCmd_ConfirmationDeclined(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := retrievalService.Ingest(context.Background(), "default", "kept after abort", "doc", nil)
	require.NoError(t, err)

	rootCmd.SetIn(strings.NewReader("n\n"))

	out, err := execute(t, "purge")

	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")

	n, err := chunkStore.Count(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPurgeCmd_IdempotentOnEmptyCollection(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()
	defer func() { purgeYes = false }()

	_, err := execute(t, "purge", "--yes")
	require.NoError(t, err)

	_, err = execute(t, "purge", "--yes")
	require.NoError(t, err)
}
