package auth

import (
	"time"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/gofiber/fiber/v2"
)

// AuthHandlers maneja las rutas de autenticación con Fiber
type AuthHandlers struct {
	service *AuthService
	cookie  config.CookieConfig
	jwt     config.JWTConfig
}

// NewAuthHandlers crea un nuevo handler de autenticación
func NewAuthHandlers(service *AuthService, cfg *config.AuthConfig) *AuthHandlers {
	return &AuthHandlers{
		service: service,
		cookie:  cfg.Cookie,
		jwt:     cfg.JWT,
	}
}

// RegisterRoutes registers the auth routes on Fiber
func (ah *AuthHandlers) RegisterRoutes(router fiber.Router, authMiddleware *AuthMiddleware) {
	auth := router.Group("/auth")

	auth.Post("/login", ah.Login)
	auth.Post("/refresh", ah.RefreshToken)

	protected := auth.Group("", authMiddleware.Authenticate())
	protected.Post("/logout", ah.Logout)
	protected.Get("/me", ah.GetCurrentUser)
	protected.Post("/change-password", ah.ChangePassword)
}

// Login autentica con email y contraseña
func (ah *AuthHandlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	if req.Email == "" || req.Password == "" {
		return errx.New("email and password are required", errx.TypeValidation)
	}

	resp, err := ah.service.Login(c.Context(), req)
	if err != nil {
		return err
	}

	ah.setTokenCookies(c, resp)
	return c.JSON(resp)
}

// RefreshToken renueva el par de tokens usando refresh token
func (ah *AuthHandlers) RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	_ = c.BodyParser(&req)

	// Alternativamente, obtener refresh token de cookie
	if req.RefreshToken == "" {
		req.RefreshToken = c.Cookies(ah.cookie.RefreshTokenName)
	}
	if req.RefreshToken == "" {
		return errx.New("refresh_token is required", errx.TypeValidation)
	}

	resp, err := ah.service.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	ah.setTokenCookies(c, resp)
	return c.JSON(resp)
}

// Logout invalida el refresh token presentado, o todos si no se envía ninguno
func (ah *AuthHandlers) Logout(c *fiber.Ctx) error {
	authContext, ok := GetAuthContext(c)
	if !ok {
		return iam.ErrUnauthorized()
	}

	var req RefreshTokenRequest
	_ = c.BodyParser(&req)
	if req.RefreshToken == "" {
		req.RefreshToken = c.Cookies(ah.cookie.RefreshTokenName)
	}

	if err := ah.service.Logout(c.Context(), *authContext.UserID, req.RefreshToken); err != nil {
		return err
	}

	ah.clearTokenCookies(c)
	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser obtiene la información del usuario autenticado
func (ah *AuthHandlers) GetCurrentUser(c *fiber.Ctx) error {
	authContext, ok := GetAuthContext(c)
	if !ok {
		return iam.ErrUnauthorized()
	}

	u, err := ah.service.CurrentUser(c.Context(), *authContext.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user":   u.ToDTO(),
		"scopes": authContext.Scopes,
	})
}

func (ah *AuthHandlers) ChangePassword(c *fiber.Ctx) error {
	authContext, ok := GetAuthContext(c)
	if !ok {
		return iam.ErrUnauthorized()
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}

	if err := ah.service.ChangePassword(c.Context(), *authContext.UserID, req); err != nil {
		return err
	}

	ah.clearTokenCookies(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (ah *AuthHandlers) setTokenCookies(c *fiber.Ctx, resp *TokenResponse) {
	now := time.Now()
	c.Cookie(&fiber.Cookie{
		Name:     ah.cookie.AccessTokenName,
		Value:    resp.AccessToken,
		Expires:  now.Add(ah.jwt.AccessTokenTTL),
		HTTPOnly: ah.cookie.HTTPOnly,
		Secure:   ah.cookie.Secure,
		SameSite: ah.cookie.SameSite,
		Domain:   ah.cookie.Domain,
		Path:     ah.cookie.Path,
	})
	c.Cookie(&fiber.Cookie{
		Name:     ah.cookie.RefreshTokenName,
		Value:    resp.RefreshToken,
		Expires:  now.Add(ah.jwt.RefreshTokenTTL),
		HTTPOnly: true,
		Secure:   ah.cookie.Secure,
		SameSite: ah.cookie.SameSite,
		Domain:   ah.cookie.Domain,
		Path:     ah.cookie.Path,
	})
}

func (ah *AuthHandlers) clearTokenCookies(c *fiber.Ctx) {
	for _, name := range []string{ah.cookie.AccessTokenName, ah.cookie.RefreshTokenName} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Path:     ah.cookie.Path,
		})
	}
}
