package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultPort = 7777

	minPort = 1024
	maxPort = 65535
)

var ErrInvalidConfig = errors.New("invalid_config")

// ServerConfig holds every start-up parameter of the node process. It is
// loaded once from the environment, overlaid with launch arguments, validated,
// and never mutated afterwards.
type ServerConfig struct {
	Port       int `env:"NODE_PORT" envDefault:"7777"`
	MaxPlayers int `env:"NODE_MAX_PLAYERS" envDefault:"16"`

	MaxRetryAttempts       int           `env:"INIT_MAX_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay         time.Duration `env:"INIT_RETRY_BASE_DELAY" envDefault:"1s"`
	RetryBackoffMultiplier float64       `env:"INIT_RETRY_BACKOFF_MULTIPLIER" envDefault:"2.0"`

	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"60s"`
	MemoryThresholdPct  float64       `env:"MEMORY_THRESHOLD_PCT" envDefault:"90"`
	LoopStallThreshold  time.Duration `env:"LOOP_STALL_THRESHOLD" envDefault:"5s"`
	StatsInterval       time.Duration `env:"STATS_INTERVAL" envDefault:"1s"`

	DetailedLogging    bool     `env:"DETAILED_LOGGING" envDefault:"false"`
	AutoExitOnShutdown bool     `env:"AUTO_EXIT_ON_SHUTDOWN" envDefault:"true"`
	LogDir             string   `env:"NODE_LOG_DIR" envDefault:"logs"`
	AdditionalLogFiles []string `env:"ADDITIONAL_LOG_FILES" envSeparator:","`

	OpsAddr     string `env:"OPS_ADDR" envDefault:":8090"`
	OpsAdminKey string `env:"OPS_ADMIN_KEY"`

	JournalDSN string `env:"JOURNAL_DSN"`

	Anywhere AnywhereConfig
}

// AnywhereConfig is the registration bundle for self-managed ("anywhere")
// fleets. Token and key fields are secrets and must only ever be logged
// redacted.
type AnywhereConfig struct {
	Enabled      bool   `env:"ANYWHERE_ENABLED" envDefault:"false"`
	WebSocketURL string `env:"FLEET_WS_URL"`
	FleetID      string `env:"FLEET_ID"`
	HostID       string `env:"HOST_ID"`
	ProcessID    string `env:"PROCESS_ID"`
	AuthToken    string `env:"FLEET_AUTH_TOKEN"`
	AccessKey    string `env:"FLEET_ACCESS_KEY"`
	SecretKey    string `env:"FLEET_SECRET_KEY"`
	SessionToken string `env:"FLEET_SESSION_TOKEN"`
	Region       string `env:"FLEET_REGION"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}

// ApplyArgs overlays launch arguments of the form key=value onto the config.
// The orchestrator passes parameters this way when it launches the process.
// Unknown keys are ignored so unrelated engine arguments pass through. A port
// argument outside the valid range falls back to the default; hard validation
// happens in Validate.
func (c *ServerConfig) ApplyArgs(args []string) []string {
	var warnings []string
	for _, arg := range args {
		key, value, ok := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "port":
			n, err := strconv.Atoi(value)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("ignoring non-numeric port argument %q", value))
				continue
			}
			if n < minPort || n > maxPort {
				warnings = append(warnings, fmt.Sprintf("port %d out of range, using default %d", n, DefaultPort))
				c.Port = DefaultPort
				continue
			}
			c.Port = n
		case "maxplayers":
			if n, err := strconv.Atoi(value); err == nil {
				c.MaxPlayers = n
			} else {
				warnings = append(warnings, fmt.Sprintf("ignoring non-numeric maxplayers argument %q", value))
			}
		case "detailedlogging":
			if b, err := strconv.ParseBool(value); err == nil {
				c.DetailedLogging = b
			}
		case "anywhere":
			if b, err := strconv.ParseBool(value); err == nil {
				c.Anywhere.Enabled = b
			}
		case "wsurl":
			c.Anywhere.WebSocketURL = value
		case "fleetid":
			c.Anywhere.FleetID = value
		case "hostid":
			c.Anywhere.HostID = value
		case "processid":
			c.Anywhere.ProcessID = value
		case "authtoken":
			c.Anywhere.AuthToken = value
		case "accesskey":
			c.Anywhere.AccessKey = value
		case "secretkey":
			c.Anywhere.SecretKey = value
		case "sessiontoken":
			c.Anywhere.SessionToken = value
		case "region":
			c.Anywhere.Region = value
		}
	}
	return warnings
}

// Validate rejects configurations the node must not start with. It runs
// before any orchestrator contact; a failure here is fatal.
func (c ServerConfig) Validate() error {
	if c.Port < minPort || c.Port > maxPort {
		return fmt.Errorf("%w: port %d outside [%d, %d]", ErrInvalidConfig, c.Port, minPort, maxPort)
	}
	if c.MaxPlayers < 0 {
		return fmt.Errorf("%w: max players %d negative", ErrInvalidConfig, c.MaxPlayers)
	}
	if c.MemoryThresholdPct <= 0 || c.MemoryThresholdPct > 100 {
		return fmt.Errorf("%w: memory threshold %.2f%% outside (0, 100]", ErrInvalidConfig, c.MemoryThresholdPct)
	}
	if c.MaxRetryAttempts < 0 {
		return fmt.Errorf("%w: max retry attempts %d negative", ErrInvalidConfig, c.MaxRetryAttempts)
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("%w: retry base delay %s negative", ErrInvalidConfig, c.RetryBaseDelay)
	}
	if c.RetryBackoffMultiplier < 1 {
		return fmt.Errorf("%w: retry backoff multiplier %.2f below 1", ErrInvalidConfig, c.RetryBackoffMultiplier)
	}
	if c.HealthCheckInterval <= 0 {
		return fmt.Errorf("%w: health check interval %s not positive", ErrInvalidConfig, c.HealthCheckInterval)
	}
	if c.LoopStallThreshold <= 0 {
		return fmt.Errorf("%w: loop stall threshold %s not positive", ErrInvalidConfig, c.LoopStallThreshold)
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("%w: stats interval %s not positive", ErrInvalidConfig, c.StatsInterval)
	}
	return nil
}
