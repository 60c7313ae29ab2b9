package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppPort string `yaml:"app_port"`

	MySQLHost string `yaml:"mysql_host"`
	MySQLPort string `yaml:"mysql_port"`
	MySQLDB   string `yaml:"mysql_db"`
	MySQLUser string `yaml:"mysql_user"`
	MySQLPass string `yaml:"mysql_pass"`

	RedisAddr string `yaml:"redis_addr"`
	RedisPass string `yaml:"redis_pass"`
	RedisDB   int    `yaml:"redis_db"`

	IdempTTLSecs int    `yaml:"idempotency_ttl_seconds"`
	LogLevel     string `yaml:"log_level"`

	CommunityID string `yaml:"community_id"`
	// decimal string, e.g. "5" or "2.5"
	LoanInterestRatePercent string        `yaml:"loan_interest_rate_percent"`
	LoanTermDays            int           `yaml:"loan_term_days"`
	OverdueScanInterval     time.Duration `yaml:"overdue_scan_interval"`
	EventStream             string        `yaml:"event_stream"`
	WorkerCount             int           `yaml:"worker_count"`
}

func defaults() *Config {
	return &Config{
		AppPort:   "8080",
		MySQLHost: "mysql",
		MySQLPort: "3306",
		MySQLDB:   "ledger",
		MySQLUser: "ledger",
		MySQLPass: "ledger",

		RedisAddr: "redis:6379",

		IdempTTLSecs: 300,
		LogLevel:     "info",

		CommunityID:             "default",
		LoanInterestRatePercent: "5",
		LoanTermDays:            30,
		OverdueScanInterval:     time.Hour,
		EventStream:             "ledger:events",
		WorkerCount:             4,
	}
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return n, nil
}

// Load reads .env (when present), then the YAML file named by
// LEDGER_CONFIG_FILE, then the environment. Later sources win.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		// never overrides variables already set
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	c := defaults()
	if path := os.Getenv("LEDGER_CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	c.AppPort = getenv("APP_PORT", c.AppPort)
	c.MySQLHost = getenv("MYSQL_HOST", c.MySQLHost)
	c.MySQLPort = getenv("MYSQL_PORT", c.MySQLPort)
	c.MySQLDB = getenv("MYSQL_DB", c.MySQLDB)
	c.MySQLUser = getenv("MYSQL_USER", c.MySQLUser)
	c.MySQLPass = getenv("MYSQL_PASS", c.MySQLPass)
	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)
	c.RedisPass = getenv("REDIS_PASS", c.RedisPass)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.CommunityID = getenv("COMMUNITY_ID", c.CommunityID)
	c.LoanInterestRatePercent = getenv("LOAN_INTEREST_RATE_PERCENT", c.LoanInterestRatePercent)
	c.EventStream = getenv("EVENT_STREAM", c.EventStream)

	var errs []error
	var err error
	if c.RedisDB, err = getenvInt("REDIS_DB", c.RedisDB); err != nil {
		errs = append(errs, err)
	}
	if c.IdempTTLSecs, err = getenvInt("IDEMPOTENCY_TTL_SECONDS", c.IdempTTLSecs); err != nil {
		errs = append(errs, err)
	}
	if c.LoanTermDays, err = getenvInt("LOAN_TERM_DAYS", c.LoanTermDays); err != nil {
		errs = append(errs, err)
	}
	if c.WorkerCount, err = getenvInt("WORKER_COUNT", c.WorkerCount); err != nil {
		errs = append(errs, err)
	}
	if v := os.Getenv("OVERDUE_SCAN_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid OVERDUE_SCAN_INTERVAL %q: %w", v, err))
		} else {
			c.OverdueScanInterval = d
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

var maxInterestRate = decimal.NewFromInt(1000)

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if _, err := net.LookupPort("tcp", c.AppPort); err != nil {
		return fmt.Errorf("invalid APP_PORT %q: %w", c.AppPort, err)
	}
	if c.RedisAddr == "" {
		return errors.New("missing REDIS_ADDR")
	}
	rate, err := c.InterestRate()
	if err != nil {
		return err
	}
	if rate.IsNegative() {
		return fmt.Errorf("LOAN_INTEREST_RATE_PERCENT must not be negative, got %s", rate)
	}
	// loans store the rate as decimal(6,3)
	if !rate.Equal(rate.Truncate(3)) || rate.GreaterThanOrEqual(maxInterestRate) {
		return fmt.Errorf("LOAN_INTEREST_RATE_PERCENT must be below %s with at most 3 decimals, got %s", maxInterestRate, rate)
	}
	if c.LoanTermDays <= 0 {
		return fmt.Errorf("LOAN_TERM_DAYS must be positive, got %d", c.LoanTermDays)
	}
	if c.OverdueScanInterval <= 0 {
		return fmt.Errorf("OVERDUE_SCAN_INTERVAL must be positive, got %s", c.OverdueScanInterval)
	}
	if c.IdempTTLSecs <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL_SECONDS must be positive, got %d", c.IdempTTLSecs)
	}
	return nil
}

func (c *Config) InterestRate() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.LoanInterestRatePercent)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid LOAN_INTEREST_RATE_PERCENT %q: %w", c.LoanInterestRatePercent, err)
	}
	return d, nil
}

func (c *Config) LoanTerm() time.Duration { return time.Duration(c.LoanTermDays) * 24 * time.Hour }

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime is needed for DATETIME columns
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
