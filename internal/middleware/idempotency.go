package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
	cacheTimeout         = 2 * time.Second
)

var errInProgress = errors.New("idempotent request in progress")

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

// keyStore wraps the three Redis operations a write goes through: reserve the
// key, then either save the response or release the key.
type keyStore struct {
	cache *redis.Client
	ttl   time.Duration
}

// lookup returns the stored response for key, nil when the key is unused, or
// errInProgress while another request holds it.
func (s keyStore) lookup(ctx context.Context, key string) (*storedResponse, error) {
	raw, err := s.cache.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if raw == inProgressMarker {
		return nil, errInProgress
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s keyStore) reserve(ctx context.Context, key string) error {
	ok, err := s.cache.SetNX(ctx, key, inProgressMarker, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return errInProgress
	}
	return nil
}

func (s keyStore) save(key string, resp storedResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	return s.cache.Set(ctx, key, payload, s.ttl).Err()
}

func (s keyStore) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	s.cache.Del(ctx, key)
}

// Idempotency replays the stored response of a ledger write when a client
// retries it with the same Idempotency-Key. Keys are scoped to the caller and
// route so two callers cannot collide. Failed writes are not stored and may be
// retried under the same key.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	store := keyStore{cache: cache, ttl: ttl}

	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		switch method {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}
		caller, _ := c.Locals(UserIDKey).(string)
		cacheKey := idempotencyPrefix + caller + ":" + method + ":" + c.Path() + ":" + key
		log := logger.With(slog.String("idempotency_key", key))

		ctx, cancel := context.WithTimeout(c.UserContext(), cacheTimeout)
		defer cancel()

		stored, err := store.lookup(ctx, cacheKey)
		switch {
		case errors.Is(err, errInProgress):
			return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
		case err != nil:
			log.Error("idempotency lookup failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		case stored != nil:
			if stored.ContentType != "" {
				c.Set(fiber.HeaderContentType, stored.ContentType)
			}
			c.Set(replayedHeader, "true")
			return c.Status(stored.Status).SendString(stored.Body)
		}

		if err := store.reserve(ctx, cacheKey); err != nil {
			if errors.Is(err, errInProgress) {
				return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
			}
			log.Error("idempotency reservation failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency reservation failure")
		}

		if err := c.Next(); err != nil {
			store.release(cacheKey)
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			store.release(cacheKey)
			return nil
		}

		resp := storedResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        string(c.Response().Body()),
		}
		if err := store.save(cacheKey, resp); err != nil {
			log.Error("failed to persist idempotent response", slog.Any("error", err))
			store.release(cacheKey)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
		}
		return nil
	}
}
