package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// EnvFileVar points at an alternate .env when none sits next to the binary.
	EnvFileVar = "CAMINO_LOTE_ENV"

	DefaultVPNHost      = "10.167.205.151"
	DefaultSentinelText = "Búsqueda no guardada"
	DefaultOutputDir    = "Result"
)

// Delays are the fixed settle pauses inserted after UI actions. The target
// application exposes no readiness signal, so each action is followed by a
// conservative fixed wait sized to how heavy the triggered rendering is.
type Delays struct {
	Click          time.Duration
	Short          time.Duration
	Medium         time.Duration
	Long           time.Duration
	SearchWait     time.Duration
	DetailOpen     time.Duration
	BetweenRecords time.Duration
	ClipboardRetry time.Duration
	MouseMove      time.Duration
	KeyInterval    time.Duration
}

// DefaultDelays mirrors the timings the workflow was tuned with.
func DefaultDelays() Delays {
	return Delays{
		Click:          300 * time.Millisecond,
		Short:          200 * time.Millisecond,
		Medium:         500 * time.Millisecond,
		Long:           time.Second,
		SearchWait:     2 * time.Second,
		DetailOpen:     1500 * time.Millisecond,
		BetweenRecords: 500 * time.Millisecond,
		ClipboardRetry: 300 * time.Millisecond,
		MouseMove:      100 * time.Millisecond,
		KeyInterval:    50 * time.Millisecond,
	}
}

type Config struct {
	VPNHost           string
	VPNPingTimeout    time.Duration
	VPNCheckInterval  time.Duration
	VPNStabilityCount int
	VPNStabilityDelay time.Duration
	VPNRetryCooldown  time.Duration

	FailureThreshold    int
	PopupClearAttempts  int
	RecoveryCloseClicks int
	ClipboardAttempts   int

	SentinelText      string
	OutputDir         string
	EnableFileLogging bool

	Delays Delays
}

// Load reads configuration from a .env file next to the executable (or the
// file named by CAMINO_LOTE_ENV), then from process environment, falling back
// to the tuned defaults. All values are optional; a missing .env is fine.
func Load() (*Config, error) {
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		VPNHost:           getEnvWithDefault("VPN_HOST", DefaultVPNHost),
		VPNPingTimeout:    secondsEnv("VPN_PING_TIMEOUT_SEC", 1),
		VPNCheckInterval:  secondsEnv("VPN_CHECK_INTERVAL_SEC", 10),
		VPNStabilityCount: intEnv("VPN_STABILITY_CHECKS", 3),
		VPNStabilityDelay: secondsEnv("VPN_STABILITY_DELAY_SEC", 2),
		VPNRetryCooldown:  secondsEnv("VPN_RETRY_COOLDOWN_SEC", 10),

		FailureThreshold:    intEnv("FAILURE_THRESHOLD", 3),
		PopupClearAttempts:  intEnv("POPUP_CLEAR_ATTEMPTS", 5),
		RecoveryCloseClicks: intEnv("RECOVERY_CLOSE_CLICKS", 4),
		ClipboardAttempts:   intEnv("CLIPBOARD_ATTEMPTS", 3),

		SentinelText:      getEnvWithDefault("POPUP_SENTINEL_TEXT", DefaultSentinelText),
		OutputDir:         getEnvWithDefault("OUTPUT_DIR", DefaultOutputDir),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) != "false",

		Delays: DefaultDelays(),
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func secondsEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(intEnv(key, defaultSeconds)) * time.Second
}
