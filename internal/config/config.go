package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	GatewayURL         string
	GatewayTimeoutSecs int

	// DBDriver selects the snapshot store backend: "mysql" or "sqlite".
	DBDriver   string
	MySQLHost  string
	MySQLPort  string
	MySQLDB    string
	MySQLUser  string
	MySQLPass  string
	SQLitePath string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	// RefreshSpec is a cron spec for the background data refresh.
	// RefreshScopes lists "ROLE:id_petugas" pairs to refresh.
	RefreshSpec   string
	RefreshScopes []string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	c := &Config{
		AppPort: getenv("APP_PORT", "8080"),

		GatewayURL:         os.Getenv("SHEETS_GATEWAY_URL"),
		GatewayTimeoutSecs: getint("SHEETS_GATEWAY_TIMEOUT_SECONDS", 30),

		DBDriver:   getenv("DB_DRIVER", "sqlite"),
		MySQLHost:  getenv("MYSQL_HOST", "mysql"),
		MySQLPort:  getenv("MYSQL_PORT", "3306"),
		MySQLDB:    getenv("MYSQL_DB", "koperasi"),
		MySQLUser:  getenv("MYSQL_USER", "koperasi"),
		MySQLPass:  getenv("MYSQL_PASS", "koperasi"),
		SQLitePath: getenv("SQLITE_PATH", "koperasi.db"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:      getint("REDIS_DB", 0),
		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		RefreshSpec: getenv("REFRESH_CRON", "@every 5m"),
	}

	for _, scope := range strings.Split(os.Getenv("REFRESH_SCOPES"), ",") {
		scope = strings.TrimSpace(scope)
		if scope != "" {
			c.RefreshScopes = append(c.RefreshScopes, scope)
		}
	}
	return c
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.GatewayURL == "" {
		return errors.New("missing SHEETS_GATEWAY_URL")
	}
	if _, err := url.ParseRequestURI(c.GatewayURL); err != nil {
		return fmt.Errorf("invalid SHEETS_GATEWAY_URL %q: %w", c.GatewayURL, err)
	}
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME columns
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
