package buildver

import (
	"os"
	"strconv"
	"time"

	"github.com/iwtcode/buildver/arlog"
)

// Config хранит модель конфигурации приложения
type Config struct {
	LogLevel      string
	LogsDir       string
	LogbookName   string
	ObjectID      string
	MessageTag    string
	MessageSize   int
	Facility      uint16
	Code          uint16
	PollInterval  time.Duration
	Latency       int
	BuildInfoFile string
	MetricsAddr   string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogsDir:       os.Getenv("LOGGER_LOGS_DIR"),
		LogbookName:   getEnv("BUILDVER_LOGBOOK", arlog.UserLogbook),
		ObjectID:      getEnv("BUILDVER_OBJECT_ID", "BuildVersion"),
		MessageTag:    getEnv("BUILDVER_MESSAGE_TAG", "BuildVersion="),
		MessageSize:   getEnvAsInt("BUILDVER_MESSAGE_SIZE", 121),
		Facility:      uint16(getEnvAsUint("BUILDVER_FACILITY", 10, 12)),
		Code:          uint16(getEnvAsUint("BUILDVER_CODE", 100, 16)),
		PollInterval:  time.Duration(getEnvAsInt("BUILDVER_POLL_INTERVAL_MS", 1)) * time.Millisecond,
		Latency:       getEnvAsInt("BUILDVER_LATENCY", 1),
		BuildInfoFile: os.Getenv("BUILDVER_INFO_FILE"),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil && value >= 0 {
		return value
	}
	return defaultValue
}

// getEnvAsUint читает беззнаковое значение шириной bits, при переполнении - значение по умолчанию
func getEnvAsUint(name string, defaultValue uint64, bits int) uint64 {
	valueStr := getEnv(name, "")
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil || value >= 1<<bits {
		return defaultValue
	}
	return value
}
