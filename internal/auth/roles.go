package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aastu-platform/facility-reports/internal/domain"
	apperrors "github.com/aastu-platform/facility-reports/pkg/errorutil"
)

// RequireRole ensures the principal holds one of the allowed roles. An empty
// allow list only requires that someone is authenticated.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		user, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[user.Role]; !exists {
			return apperrors.NewWrongRole("insufficient role for this operation")
		}
		return c.Next()
	}
}
