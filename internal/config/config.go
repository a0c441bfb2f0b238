// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env          string // APP_ENV (dev, test, prod)
	Port         string // APP_PORT
	StoreDriver  string // STORE_DRIVER, defaults to mongo
	MongoURI     string // MONGO_URI
	MongoDB      string // MONGO_DB
	DBUser       string // DB_USER
	DBPass       string // DB_PASS (empty allowed)
	DBHost       string // DB_HOST
	DBPort       string // DB_PORT
	DBName       string // DB_NAME
	JWTSecret    string // JWT_SECRET
	AccessTTLMin int    // ACCESS_TOKEN_TTL_MIN
	BcryptCost   int    // BCRYPT_COST

	UploadDir    string // UPLOAD_DIR, defaults to ./uploads
	ImageBaseURL string // IMAGE_BASE_URL, prefix of stored image URLs

	RabbitURL            string // RABBITMQ_URL; empty disables order events
	OrderConsumerEnabled bool   // ORDER_CONSUMER_ENABLED
	OrderLogDir          string // ORDER_LOG_DIR, defaults to ./logs
}

// Load reads .env when present, then the environment.  Missing or invalid
// required values stop the process with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Parse builds a Config from the current environment.  Settings needed
// only by the selected store driver are required only for that driver.
func Parse() (Config, error) {
	var r reader
	cfg := Config{
		Env:          r.must("APP_ENV"),
		Port:         r.must("APP_PORT"),
		StoreDriver:  strings.ToLower(envStr("STORE_DRIVER", DriverMongo)),
		JWTSecret:    r.must("JWT_SECRET"),
		AccessTTLMin: r.mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:   r.mustInt("BCRYPT_COST"),

		UploadDir:    envStr("UPLOAD_DIR", "./uploads"),
		ImageBaseURL: os.Getenv("IMAGE_BASE_URL"),

		RabbitURL:            os.Getenv("RABBITMQ_URL"),
		OrderConsumerEnabled: envBool("ORDER_CONSUMER_ENABLED", false),
		OrderLogDir:          envStr("ORDER_LOG_DIR", "./logs"),
	}

	switch cfg.StoreDriver {
	case DriverMongo:
		cfg.MongoURI = r.must("MONGO_URI")
		cfg.MongoDB = r.must("MONGO_DB")
	case DriverMySQL:
		cfg.DBUser = r.must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = r.must("DB_HOST")
		cfg.DBPort = r.must("DB_PORT")
		cfg.DBName = r.must("DB_NAME")
	case DriverMemory:
	default:
		r.errs = append(r.errs, fmt.Sprintf("unknown STORE_DRIVER %q", cfg.StoreDriver))
	}

	if cfg.AccessTTLMin <= 0 && r.errs == nil {
		r.errs = append(r.errs, "ACCESS_TOKEN_TTL_MIN must be positive")
	}
	if r.errs != nil {
		return Config{}, errors.New(strings.Join(r.errs, "; "))
	}
	return cfg, nil
}

// reader collects problems with required variables so they can be reported
// together.
type reader struct {
	errs []string
}

// must retrieves the value of a required environment variable.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.errs = append(r.errs, "missing required env var: "+key)
	}
	return v
}

// mustInt is like must but converts the value into an integer.
func (r *reader) mustInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("invalid int for %s: %q", key, s))
	}
	return n
}
