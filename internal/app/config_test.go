package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, 60*time.Second, cfg.ReclaimInterval)
	assert.Equal(t, 5*time.Minute, cfg.StaleTimeout)
}

func TestLoadConfigParsesDurations(t *testing.T) {
	t.Setenv("ROOM_RECLAIM_INTERVAL", "30s")
	t.Setenv("ROOM_STALE_TIMEOUT", "10m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.ReclaimInterval)
	assert.Equal(t, 10*time.Minute, cfg.StaleTimeout)
}

func TestLoadConfigRejectsNonPositiveDurations(t *testing.T) {
	for _, v := range []string{"0s", "-5s"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("ROOM_STALE_TIMEOUT", v)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigRejectsGarbageDurations(t *testing.T) {
	t.Setenv("ROOM_RECLAIM_INTERVAL", "sixty seconds")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, b ,"))
	assert.Nil(t, splitCSV(""))
}
