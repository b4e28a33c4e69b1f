package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Blank the variables under test so ambient environment cannot leak into the
// default assertions; t.Setenv restores everything afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "READ_TIMEOUT_SEC", "WRITE_TIMEOUT_SEC",
		"REDIS_ADDR", "JWT_EXPIRE_HOURS",
		"AWS_S3_VIDEOS_BUCKET", "AWS_S3_MARKERS_BUCKET",
		"AWS_PRESIGN_EXPIRE_MINUTES", "ROTATION_TICK_SEC",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 30, cfg.Server.ReadTimeout)
	require.Equal(t, 30, cfg.Server.WriteTimeout)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, 24, cfg.JWT.ExpireHours)
	require.Equal(t, "lumen-videos-bucket", cfg.AWS.VideosBucket)
	require.Equal(t, "lumen-markers-bucket", cfg.AWS.MarkersBucket)
	require.Equal(t, 15, cfg.AWS.PresignExpireMinutes)
	require.Equal(t, 300, cfg.Rotation.TickSeconds)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ROTATION_TICK_SEC", "60")
	t.Setenv("AWS_S3_MARKERS_BUCKET", "my-markers")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, 60, cfg.Rotation.TickSeconds)
	require.Equal(t, "my-markers", cfg.AWS.MarkersBucket)
}
