package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Reads values and fills defaults", func(t *testing.T) {
		// Given: a config file with a few values set
		path := writeConfig(t, `
log-level: debug
storage: redis
redis:
  host: cache
  match-ttl: 30m
match:
  default-board-size: 4
`)

		// When: the config is loaded
		conf, err := Load(path)

		// Then: file values win and the rest fall back to defaults
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "9091", conf.SocketPort)
		assert.Equal(t, StorageRedis, conf.Storage)
		assert.Equal(t, "cache:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, 30*time.Minute, conf.Redis.MatchTTL)
		assert.Equal(t, 4, conf.Match.DefaultBoardSize)
		assert.Equal(t, 10, conf.Match.MaxBoardSize)
		assert.Equal(t, int64(0), conf.Match.ComputerSeed)
	})

	t.Run("Error on unknown storage", func(t *testing.T) {
		path := writeConfig(t, "storage: postgres\n")

		_, err := Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage")
	})

	t.Run("Error on default board size outside the bounds", func(t *testing.T) {
		path := writeConfig(t, "match:\n  default-board-size: 12\n")

		_, err := Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "default board size")
	})

	t.Run("Error on default board size below the minimum", func(t *testing.T) {
		path := writeConfig(t, "match:\n  default-board-size: 2\n")

		_, err := Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "is outside [3, 10)")
	})

	t.Run("MustLoad panics on a missing file", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "missing.yml"))
		})
	})
}
