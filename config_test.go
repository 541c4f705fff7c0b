package buildver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iwtcode/buildver/arlog"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"LOG_LEVEL", "LOGGER_LOGS_DIR", "BUILDVER_LOGBOOK", "BUILDVER_OBJECT_ID", "BUILDVER_MESSAGE_TAG",
		"BUILDVER_MESSAGE_SIZE", "BUILDVER_FACILITY", "BUILDVER_CODE", "BUILDVER_POLL_INTERVAL_MS",
		"BUILDVER_LATENCY", "BUILDVER_INFO_FILE", "METRICS_ADDR",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, &Config{
		LogLevel:     "info",
		LogbookName:  arlog.UserLogbook,
		ObjectID:     "BuildVersion",
		MessageTag:   "BuildVersion=",
		MessageSize:  121,
		Facility:     10,
		Code:         100,
		PollInterval: time.Millisecond,
		Latency:      1,
	}, cfg)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BUILDVER_LOGBOOK", "$custom")
	t.Setenv("BUILDVER_MESSAGE_SIZE", "64")
	t.Setenv("BUILDVER_FACILITY", "4096")
	t.Setenv("BUILDVER_CODE", "7")
	t.Setenv("BUILDVER_POLL_INTERVAL_MS", "0")
	t.Setenv("BUILDVER_LATENCY", "-3")
	t.Setenv("BUILDVER_INFO_FILE", "/etc/buildinfo.json")

	cfg := Load()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "$custom", cfg.LogbookName)
	assert.Equal(t, 64, cfg.MessageSize)
	assert.Equal(t, uint16(10), cfg.Facility, "facility шире 12 бит отбрасывается")
	assert.Equal(t, uint16(7), cfg.Code)
	assert.Equal(t, time.Duration(0), cfg.PollInterval)
	assert.Equal(t, 1, cfg.Latency)
	assert.Equal(t, "/etc/buildinfo.json", cfg.BuildInfoFile)
}
