package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultAppName          = "WalletLedger"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultMongoDatabase    = "wallet_ledger"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultStoreMaxAttempts = 3
	defaultWriteRateLimit   = 120
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName          string `validate:"required"`
	Env              string `validate:"required"`
	Port             string `validate:"required"`
	LogLevel         string `validate:"oneof=debug info warn error"`
	DatabaseURL      string `validate:"required_outside_dev"`
	RedisURL         string `validate:"required_outside_dev"`
	AMQPURL          string
	MongoURL         string
	MongoDatabase    string        `validate:"required"`
	JWTSecret        string        `validate:"required_outside_dev"`
	RazorpayKey      string        `validate:"required_with=RazorpaySecret"`
	RazorpaySecret   string        `validate:"required_with=RazorpayKey"`
	ShutdownPeriod   time.Duration `validate:"gt=0"`
	IdempotencyTTL   time.Duration `validate:"gt=0"`
	StoreMaxAttempts int           `validate:"min=1,max=10"`
	WriteRateLimit   int           `validate:"min=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("required_outside_dev", func(fl validator.FieldLevel) bool {
		top := reflect.Indirect(fl.Top())
		if IsDevelopment(top.FieldByName("Env").String()) {
			return true
		}
		return fl.Field().String() != ""
	})
	return v
}

// Load reads configuration values from the environment and populates a Config
// instance. A .env file in the working directory is loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		Env:              getEnv("APP_ENV", defaultAppEnv),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		AMQPURL:          os.Getenv("AMQP_URL"),
		MongoURL:         os.Getenv("MONGO_URL"),
		MongoDatabase:    getEnv("MONGO_DATABASE", defaultMongoDatabase),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		RazorpayKey:      os.Getenv("RAZORPAY_KEY"),
		RazorpaySecret:   os.Getenv("RAZORPAY_SECRET"),
		ShutdownPeriod:   defaultShutdownDelay,
		IdempotencyTTL:   defaultIdempotencyTTL,
		StoreMaxAttempts: defaultStoreMaxAttempts,
		WriteRateLimit:   defaultWriteRateLimit,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.StoreMaxAttempts, err = intEnv("STORE_MAX_ATTEMPTS", cfg.StoreMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.WriteRateLimit, err = intEnv("WRITE_RATE_LIMIT", cfg.WriteRateLimit); err != nil {
		return Config{}, err
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, describe(err)
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment reports whether env allows in-memory fallbacks.
func IsDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func durationEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
