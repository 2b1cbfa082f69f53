package auth

import (
	"strings"

	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

const authLocalsKey = "auth"

type AuthMiddleware struct {
	tokenService TokenService
}

func NewAuthMiddleware(tokenService TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenService: tokenService}
}

// Authenticate validates the bearer token and stores the principal in the request locals.
// The token may come from the Authorization header, the access_token cookie or,
// for EventSource clients that cannot set headers, the access_token query parameter.
func (am *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return iam.ErrUnauthorized()
		}

		claims, err := am.tokenService.ValidateAccessToken(token)
		if err != nil {
			return err
		}

		c.Locals(authLocalsKey, claims.AuthContext())
		return c.Next()
	}
}

// RequireScope - Requires a specific scope
func (am *AuthMiddleware) RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authContext, ok := GetAuthContext(c)
		if !ok {
			return iam.ErrUnauthorized()
		}
		if !authContext.HasScope(scope) {
			return iam.ErrForbidden().WithDetail("required_scope", scope)
		}
		return c.Next()
	}
}

// RequireAnyScope - OR
func (am *AuthMiddleware) RequireAnyScope(required ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authContext, ok := GetAuthContext(c)
		if !ok {
			return iam.ErrUnauthorized()
		}
		if !authContext.HasAnyScope(required...) {
			return iam.ErrForbidden().WithDetail("required_scopes", required)
		}
		return c.Next()
	}
}

// RequireAllScopes - AND
func (am *AuthMiddleware) RequireAllScopes(required ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authContext, ok := GetAuthContext(c)
		if !ok {
			return iam.ErrUnauthorized()
		}
		if !authContext.HasAllScopes(required...) {
			return iam.ErrForbidden().WithDetail("required_scopes", required)
		}
		return c.Next()
	}
}

// RequireAdmin - solo usuarios con "*"
func (am *AuthMiddleware) RequireAdmin() fiber.Handler {
	return am.RequireScope(scopes.ScopeAll)
}

func extractToken(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1]
		}
	}
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	return c.Query("access_token")
}

// GetAuthContext helper to extract auth context from Fiber
func GetAuthContext(c *fiber.Ctx) (*kernel.AuthContext, bool) {
	authContext, ok := c.Locals(authLocalsKey).(*kernel.AuthContext)
	return authContext, ok && authContext != nil && authContext.IsValid()
}

// SetAuthContext installs a principal directly. Used by tests and internal callers.
func SetAuthContext(c *fiber.Ctx, ac *kernel.AuthContext) {
	c.Locals(authLocalsKey, ac)
}

// Principal returns the request principal, or an unauthorized error when the
// route was not behind Authenticate
func Principal(c *fiber.Ctx) (*kernel.AuthContext, error) {
	ac, ok := GetAuthContext(c)
	if !ok {
		return nil, iam.ErrUnauthorized()
	}
	return ac, nil
}
