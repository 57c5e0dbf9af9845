package config

import (
	"testing"
	"time"

	"github.com/l2gate/gate/log"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	require.Equal(t, log.EnvironmentDevelopment, cfg.Log.Environment)
	require.Equal(t, "info", cfg.Log.Level)

	require.NotEmpty(t, cfg.Bridge.DBPath)
	require.NotNil(t, cfg.Bridge.Governor)
	require.Equal(t, 0, cfg.Bridge.Governor.Sign())

	require.Equal(t, time.Second*5, cfg.Relay.WaitOnEmptyQueue.Duration)
	require.Equal(t, 32, cfg.Relay.BatchSize)

	require.Equal(t, "0.0.0.0", cfg.RPC.Host)
}
