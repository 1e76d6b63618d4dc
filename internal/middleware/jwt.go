package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_ledger/internal/auth"
)

// UserIDKey is the fiber local holding the authenticated user id.
const UserIDKey = "user_id"

const msgInvalidAuthorization = "Invalid Authorization"

// JWTAuth returns a middleware that validates bearer access tokens.
func JWTAuth(verifier *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, msgInvalidAuthorization)
		}
		userID, err := verifier.Verify(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, msgInvalidAuthorization)
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}
