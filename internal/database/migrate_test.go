package database

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The embedded migration set must always parse; a typo in a filename fails
// silently at runtime otherwise.
func TestMigrationsEmbedded(t *testing.T) {
	source, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer func() { _ = source.Close() }()

	first, err := source.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, identifier, err := source.ReadUp(first)
	require.NoError(t, err)
	defer func() { _ = up.Close() }()
	assert.NotEmpty(t, identifier)

	down, _, err := source.ReadDown(first)
	require.NoError(t, err)
	defer func() { _ = down.Close() }()
}
