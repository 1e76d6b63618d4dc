package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_ledger/internal/ledger"
	"github.com/congo-pay/wallet_ledger/internal/metrics"
	"github.com/congo-pay/wallet_ledger/internal/middleware"
)

// ErrorBody is the JSON envelope of every failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var kindStatus = map[ledger.Kind]int{
	ledger.KindInvalidArgument:    http.StatusBadRequest,
	ledger.KindAlreadyExists:      http.StatusConflict,
	ledger.KindFailedPrecondition: http.StatusPreconditionFailed,
	ledger.KindNotFound:           http.StatusNotFound,
	ledger.KindInternal:           http.StatusInternalServerError,
}

var fiberCodes = map[int]string{
	http.StatusBadRequest:            "INVALID_ARGUMENT",
	http.StatusUnauthorized:          "UNAUTHENTICATED",
	http.StatusForbidden:             "PERMISSION_DENIED",
	http.StatusNotFound:              "NOT_FOUND",
	http.StatusMethodNotAllowed:      "UNIMPLEMENTED",
	http.StatusConflict:              "ABORTED",
	http.StatusRequestEntityTooLarge: "INVALID_ARGUMENT",
	http.StatusUnprocessableEntity:   "INVALID_ARGUMENT",
	http.StatusTooManyRequests:       "RESOURCE_EXHAUSTED",
	http.StatusServiceUnavailable:    "UNAVAILABLE",
}

// Render maps err to its HTTP status and envelope.
func Render(err error) (int, ErrorBody) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, ok := fiberCodes[fe.Code]
		if !ok {
			code = "INTERNAL"
		}
		return fe.Code, ErrorBody{Code: code, Message: fe.Message}
	}

	kind, message := ledger.Classify(err)
	status := kindStatus[kind]
	if errors.Is(err, ledger.ErrConflict) {
		status = http.StatusServiceUnavailable
	}
	return status, ErrorBody{Code: kind.Code(), Message: message}
}

// ErrorHandler renders errors returned by handlers and middleware. Internal
// causes are logged and never sent to the client.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := Render(err)
		metrics.RequestErrors.WithLabelValues(body.Code).Inc()
		if status >= http.StatusInternalServerError && logger != nil {
			logger.Error("request failed",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("request_id", middleware.RequestIDFrom(c)),
				slog.Any("error", err),
			)
		}
		return c.Status(status).JSON(body)
	}
}
