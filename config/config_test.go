package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DatabasePoolFromEnv(t *testing.T) {
	t.Setenv("DB_MAX_IDLE_CONNS", "4")
	t.Setenv("DB_MAX_OPEN_CONNS", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Database.MaxIdleConns)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestLoad_DatabasePoolInvalidFallsBack(t *testing.T) {
	t.Setenv("DB_MAX_IDLE_CONNS", "lots")
	t.Setenv("DB_MAX_OPEN_CONNS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
}

func TestLoad_RejectsUnknownStorageMode(t *testing.T) {
	t.Setenv("STORAGE_MODE", "ftp")

	_, err := Load()
	require.Error(t, err)
}
