package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigFile = `
[worker]
count = 4
bin = "/opt/mediasoup-worker"
log_level = "warn"
log_tags = ["info", "ice"]
rtc_min_port = 40000
rtc_max_port = 49999

[admin]
addr = ":9000"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sfuctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, testConfigFile))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.NumWorkers)
	assert.Equal(t, "/opt/mediasoup-worker", cfg.WorkerBin)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []string{"info", "ice"}, cfg.LogTags)
	assert.Equal(t, 40000, cfg.RtcMinPort)
	assert.Equal(t, 49999, cfg.RtcMaxPort)
	assert.Equal(t, ":9000", cfg.AdminAddr)

	// Untouched keys keep their defaults.
	assert.Equal(t, "/metrics", cfg.MetricsPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	want := Default()
	want.Config = cfg.Config
	assert.Equal(t, want, cfg)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "[worker\ncount = "))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, "[worker]\ncount = \"four\"\n"))
	assert.ErrorContains(t, err, "worker.count")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("SFUCTL_LOG_LEVEL", "debug")
	t.Setenv("SFUCTL_LOG_TAGS", "rtp, rtcp,")
	t.Setenv("SFUCTL_NUM_WORKERS", "2")

	cfg, err := LoadFile(writeConfig(t, testConfigFile))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"rtp", "rtcp"}, cfg.LogTags)
	assert.Equal(t, 2, cfg.NumWorkers)
	assert.Equal(t, 40000, cfg.RtcMinPort)
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("SFUCTL_RTC_MIN_PORT", "low")

	_, err := LoadFile("")
	assert.ErrorContains(t, err, "SFUCTL_RTC_MIN_PORT")
}

func TestLoadChangedFlagsWin(t *testing.T) {
	t.Setenv("SFUCTL_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.Config = writeConfig(t, testConfigFile)

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&cfg.LogLevel, FlagName("LogLevel"), cfg.LogLevel, "")
	cmd.Flags().IntVar(&cfg.NumWorkers, FlagName("NumWorkers"), cfg.NumWorkers, "")
	cmd.Flags().StringVar(&cfg.AdminAddr, FlagName("AdminAddr"), cfg.AdminAddr, "")
	require.NoError(t, cmd.ParseFlags([]string{"--log-level=none", "--num-workers=8"}))

	require.NoError(t, Load(&cfg, cmd))

	assert.Equal(t, "none", cfg.LogLevel)
	assert.Equal(t, 8, cfg.NumWorkers)
	// Not changed on the command line, so the file wins.
	assert.Equal(t, ":9000", cfg.AdminAddr)
}

func TestFlagName(t *testing.T) {
	assert.Equal(t, "num-workers", FlagName("NumWorkers"))
	assert.Equal(t, "config", FlagName("Config"))
	assert.Equal(t, "dtls-cert-file", FlagName("DtlsCertFile"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	cfg := Default()
	cfg.NumWorkers = 0
	cfg.LogLevel = "verbose"
	cfg.LogTags = []string{"ice", "everything"}
	cfg.RtcMinPort = 50000
	cfg.RtcMaxPort = 40000
	cfg.DtlsCertFile = "cert.pem"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "worker.count")
	assert.ErrorContains(t, err, "verbose")
	assert.ErrorContains(t, err, "everything")
	assert.ErrorContains(t, err, "port range")
	assert.ErrorContains(t, err, "dtls_key_file")
}
