package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_NAME", "APP_ENV", "PORT", "LOG_LEVEL", "DATABASE_URL", "REDIS_URL",
		"AMQP_URL", "MONGO_URL", "MONGO_DATABASE", "JWT_SECRET", "RAZORPAY_KEY",
		"RAZORPAY_SECRET", shutdownSecondsEnvVar, shutdownDurationEnvVar,
		idemTTLSecondsEnvVar, idemTTLDurEnvVar, "STORE_MAX_ATTEMPTS", "WRITE_RATE_LIMIT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsInDevelopment(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "development" || cfg.Address() != ":8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.StoreMaxAttempts != 3 || cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadRequiresBackendsOutsideDevelopment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, field := range []string{"DatabaseURL", "RedisURL", "JWTSecret"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("expected %s in %q", field, err)
		}
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadDurations(t *testing.T) {
	clearEnv(t)
	t.Setenv(shutdownSecondsEnvVar, "5")
	t.Setenv(idemTTLDurEnvVar, "90m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ShutdownPeriod != 5*time.Second || cfg.IdempotencyTTL != 90*time.Minute {
		t.Fatalf("unexpected durations: %+v", cfg)
	}

	t.Setenv(shutdownSecondsEnvVar, "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected invalid duration error")
	}
}

func TestLoadRejectsPartialRazorpayCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("RAZORPAY_KEY", "rzp_test")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "RazorpaySecret") {
		t.Fatalf("expected RazorpaySecret error, got %v", err)
	}
}
