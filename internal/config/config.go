package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	AppPort string

	DBDriver   string
	SQLitePath string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	LogLevel  string
	LogFormat string

	EventStream       string
	EventStreamMaxLen int64

	SweepIntervalSecs   int
	ReminderWindowHours int
	ShutdownTimeoutSecs int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// getint falls back to d when k is unset or not an integer.
func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

// Load reads the environment, after applying a .env file when one exists.
// Variables already set in the environment win over .env.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort: getenv("APP_PORT", "8080"),

		DBDriver:   getenv("DB_DRIVER", DriverMySQL),
		SQLitePath: getenv("SQLITE_PATH", "p2p-lending.db"),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "lending"),
		MySQLUser: getenv("MYSQL_USER", "lending"),
		MySQLPass: getenv("MYSQL_PASS", "lending"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:   getint("REDIS_DB", 0),

		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		EventStream:       getenv("EVENT_STREAM", "loan-events"),
		EventStreamMaxLen: int64(getint("EVENT_STREAM_MAXLEN", 100_000)),

		SweepIntervalSecs:   getint("SWEEP_INTERVAL_SECONDS", 3600),
		ReminderWindowHours: getint("REMINDER_WINDOW_HOURS", 72),
		ShutdownTimeoutSecs: getint("SHUTDOWN_TIMEOUT_SECONDS", 15),
	}
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (mysql|sqlite)", c.DBDriver)
	}
	if c.RedisAddr == "" {
		return errors.New("missing REDIS_ADDR")
	}
	if c.IdempTTLSecs <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL_SECONDS must be positive, got %d", c.IdempTTLSecs)
	}
	if c.SweepIntervalSecs <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL_SECONDS must be positive, got %d", c.SweepIntervalSecs)
	}
	return nil
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSecs) * time.Second
}

func (c *Config) ReminderWindow() time.Duration {
	return time.Duration(c.ReminderWindowHours) * time.Hour
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSecs) * time.Second
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime maps DATETIME to time.Time; loc=UTC keeps due dates stable
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
