package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds harness configuration.
type Config struct {
	ListenAddr      string
	CallbackAddress string
	CounterpartURL  string
	ParticipantID   string
	LocalConnector  bool
	WaitTimeout     time.Duration
	PoolSize        int
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	addr := getenv("TCK_LISTEN_ADDR", "localhost:8083")
	callback := os.Getenv("TCK_CALLBACK_ADDRESS")
	if callback == "" {
		callback = fmt.Sprintf("http://%s", addr)
	}
	counterpart := getenv("TCK_COUNTERPART_URL", "http://localhost:8080")
	participant := getenv("TCK_PARTICIPANT_ID", "urn:tck:participant")
	local := parseBool(getenv("TCK_LOCAL_CONNECTOR", "true"), true)
	wait := parseDuration(getenv("TCK_WAIT_TIMEOUT", "5s"), 5*time.Second)
	pool := parseInt(getenv("TCK_POOL_SIZE", "4"), 4)

	return &Config{
		ListenAddr:      addr,
		CallbackAddress: callback,
		CounterpartURL:  counterpart,
		ParticipantID:   participant,
		LocalConnector:  local,
		WaitTimeout:     wait,
		PoolSize:        pool,
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return def
	}
	return i
}
