package config

import "time"

type AuthConfig struct {
	JWT        JWTConfig
	Invitation InvitationConfig
	Login      LoginConfig
	Cookie     CookieConfig
	Password   PasswordConfig
	Cleanup    CleanupConfig
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        []string
}

type InvitationConfig struct {
	DefaultExpirationDays int
	TokenByteLength       int
	AcceptURL             string
}

// LoginConfig bounds failed password attempts per email
type LoginConfig struct {
	MaxFailedAttempts int
	LockoutWindow     time.Duration
}

type CookieConfig struct {
	AccessTokenName  string
	RefreshTokenName string
	Domain           string
	Path             string
	Secure           bool
	HTTPOnly         bool
	SameSite         string
}

type PasswordConfig struct {
	BcryptCost int
	MinLength  int
}

type CleanupConfig struct {
	Interval time.Duration
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET_KEY", ""),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
			Issuer:          getEnv("JWT_ISSUER", "hireline"),
			Audience:        getEnvStringSlice("JWT_AUDIENCE", []string{"hireline-api"}),
		},
		Invitation: InvitationConfig{
			DefaultExpirationDays: getEnvInt("INVITATION_DEFAULT_EXPIRATION_DAYS", 7),
			TokenByteLength:       getEnvInt("INVITATION_TOKEN_BYTE_LENGTH", 32),
			AcceptURL:             getEnv("INVITATION_ACCEPT_URL", "http://localhost:3000/accept-invitation"),
		},
		Login: LoginConfig{
			MaxFailedAttempts: getEnvInt("LOGIN_MAX_FAILED_ATTEMPTS", 5),
			LockoutWindow:     getEnvDuration("LOGIN_LOCKOUT_WINDOW", 15*time.Minute),
		},
		Cookie: CookieConfig{
			AccessTokenName:  getEnv("COOKIE_ACCESS_TOKEN_NAME", "access_token"),
			RefreshTokenName: getEnv("COOKIE_REFRESH_TOKEN_NAME", "refresh_token"),
			Domain:           getEnv("COOKIE_DOMAIN", ""),
			Path:             getEnv("COOKIE_PATH", "/"),
			Secure:           getEnvBool("COOKIE_SECURE", false),
			HTTPOnly:         getEnvBool("COOKIE_HTTP_ONLY", true),
			SameSite:         getEnv("COOKIE_SAME_SITE", "Lax"),
		},
		Password: PasswordConfig{
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
			MinLength:  getEnvInt("PASSWORD_MIN_LENGTH", 8),
		},
		Cleanup: CleanupConfig{
			Interval: getEnvDuration("AUTH_CLEANUP_INTERVAL", 1*time.Hour),
		},
	}
}
