package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/example/activity-booking/internal/logging"
)

// Store drivers accepted by BOOKING_STORE_DRIVER.
const (
	DriverJSONFile = "jsonfile"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort        int           `env:"BOOKING_HTTP_PORT"        envDefault:"8080"`
	StoreDriver     string        `env:"BOOKING_STORE_DRIVER"     envDefault:"jsonfile"`
	StorePath       string        `env:"BOOKING_STORE_PATH"       envDefault:"bookings.json"`
	SQLitePath      string        `env:"BOOKING_SQLITE_PATH"      envDefault:"bookings.db"`
	SchedulePath    string        `env:"BOOKING_SCHEDULE_PATH,required,notEmpty"`
	HorizonDays     int           `env:"BOOKING_HORIZON_DAYS"     envDefault:"14"`
	LogLevel        string        `env:"BOOKING_LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"BOOKING_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// OTelEndpoint is the OTLP/HTTP traces URL. Empty disables tracing.
	OTelEndpoint string `env:"BOOKING_OTEL_ENDPOINT"`
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses configuration from environ. A nil map means the process
// environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	invalid := make([]string, 0, 4)
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "BOOKING_HTTP_PORT")
	}
	switch cfg.StoreDriver {
	case DriverJSONFile:
		if strings.TrimSpace(cfg.StorePath) == "" {
			invalid = append(invalid, "BOOKING_STORE_PATH")
		}
	case DriverSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			invalid = append(invalid, "BOOKING_SQLITE_PATH")
		}
	case DriverMemory:
	default:
		invalid = append(invalid, "BOOKING_STORE_DRIVER")
	}
	if cfg.HorizonDays <= 0 {
		invalid = append(invalid, "BOOKING_HORIZON_DAYS")
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		invalid = append(invalid, "BOOKING_LOG_LEVEL")
	}
	if cfg.ShutdownTimeout <= 0 {
		invalid = append(invalid, "BOOKING_SHUTDOWN_TIMEOUT")
	}

	cfg.OTelEndpoint = strings.TrimSpace(cfg.OTelEndpoint)
	if cfg.OTelEndpoint != "" && !validEndpoint(cfg.OTelEndpoint) {
		invalid = append(invalid, "BOOKING_OTEL_ENDPOINT")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func validEndpoint(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.HTTPPort)
}
