package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; required variables are enforced by must() and
// missing values stop the process at startup rather than midway through a
// request.
type Config struct {
	Env               string // application environment ("dev", "prod")
	Port              string // HTTP port to listen on
	DBUser            string // database username
	DBPass            string // database password (optional)
	DBHost            string // database host address
	DBPort            string // database port number
	DBName            string // database name

	DBMaxOpenConns int           // connection pool ceiling
	DBMaxIdleConns int           // idle connections kept warm
	DBConnLifetime time.Duration // recycle connections older than this
	DBPingTimeout  time.Duration // startup connectivity probe deadline

	JWTSecret         string // secret used to sign session JWTs
	JWTExpiresDays    int    // session token time-to-live in days
	CookieExpiresDays int    // jwt cookie lifetime in days
	BcryptCost        int    // bcrypt cost for password hashing
}

// Load reads configuration values from environment variables.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"), // empty allowed
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		DBMaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnLifetime:    envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DBPingTimeout:     envDur("DB_PING_TIMEOUT", 5*time.Second),
		JWTSecret:         must("JWT_SECRET"),
		JWTExpiresDays:    mustInt("JWT_EXPIRES_DAYS"),
		CookieExpiresDays: mustInt("JWT_COOKIE_EXPIRES_DAYS"),
		BcryptCost:        mustInt("BCRYPT_COST"),
	}
}

// Production reports whether the app runs in production mode. It gates the
// Secure flag on the jwt cookie and the verbosity of error responses.
func (c Config) Production() bool { return c.Env == "prod" || c.Env == "production" }

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
