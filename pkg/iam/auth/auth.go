package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/user"
	"github.com/Abraxas-365/hireline/pkg/kernel"
)

// TokenClaims is what an access token asserts about its bearer
type TokenClaims struct {
	UserID    kernel.UserID `json:"user_id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Role      kernel.Role   `json:"role"`
	Scopes    []string      `json:"scopes"`
	Links     kernel.Links  `json:"links"`
	IssuedAt  time.Time     `json:"issued_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// ClaimsFor builds the access token claims of a user
func ClaimsFor(u *user.User) TokenClaims {
	return TokenClaims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		Scopes: u.Scopes(),
		Links:  u.Links(),
	}
}

// AuthContext converts validated claims into the request principal
func (c *TokenClaims) AuthContext() *kernel.AuthContext {
	id := c.UserID
	return &kernel.AuthContext{
		UserID: &id,
		Email:  c.Email,
		Name:   c.Name,
		Role:   c.Role,
		Scopes: c.Scopes,
		Links:  c.Links,
	}
}

// TokenService firma y valida access tokens
type TokenService interface {
	GenerateAccessToken(claims TokenClaims) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	AccessTokenTTL() time.Duration
}

// RefreshToken is persisted by hash only
type RefreshToken struct {
	ID        string        `db:"id"`
	TokenHash string        `db:"token_hash"`
	UserID    kernel.UserID `db:"user_id"`
	ExpiresAt time.Time     `db:"expires_at"`
	CreatedAt time.Time     `db:"created_at"`
	RevokedAt *time.Time    `db:"revoked_at"`
}

// IsValid reports whether the token can still be exchanged
func (t *RefreshToken) IsValid() bool {
	return t.RevokedAt == nil && time.Now().Before(t.ExpiresAt)
}

type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, token RefreshToken) error
	FindRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID kernel.UserID) error
	CleanExpiredTokens(ctx context.Context) error
}

// LoginLimiter tracks failed password attempts per email
type LoginLimiter interface {
	// Check fails with ErrTooManyAttempts while the email is locked
	Check(ctx context.Context, email string) error
	Fail(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// ============================================================================
// Request / Response types
// ============================================================================

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// TokenResponse respuesta con tokens de autenticación
type TokenResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	TokenType    string              `json:"token_type"`
	ExpiresIn    int                 `json:"expires_in"`
	User         user.UserDetailsDTO `json:"user"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to generate token")
	CodeTokenValidationFailed = ErrRegistry.Register("TOKEN_VALIDATION_FAILED", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired token")
	CodeInvalidRefreshToken   = ErrRegistry.Register("INVALID_REFRESH_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid refresh token")
	CodeExpiredRefreshToken   = ErrRegistry.Register("EXPIRED_REFRESH_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Refresh token expired or revoked")
	CodeTooManyAttempts       = ErrRegistry.Register("TOO_MANY_ATTEMPTS", errx.TypeAuthorization, http.StatusTooManyRequests, "Too many failed login attempts, try again later")
	CodeWrongPassword         = ErrRegistry.Register("WRONG_PASSWORD", errx.TypeValidation, http.StatusBadRequest, "Current password is incorrect")
)

func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}

func ErrTokenValidationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenValidationFailed)
}

func ErrInvalidRefreshToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidRefreshToken)
}

func ErrExpiredRefreshToken() *errx.Error {
	return ErrRegistry.New(CodeExpiredRefreshToken)
}

func ErrTooManyAttempts() *errx.Error {
	return ErrRegistry.New(CodeTooManyAttempts)
}

func ErrWrongPassword() *errx.Error {
	return ErrRegistry.New(CodeWrongPassword)
}
