package auth

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

// JWTService implementación del TokenService usando JWT
type JWTService struct {
	secretKey      []byte
	accessTokenTTL time.Duration
	issuer         string
	audience       []string
}

// NewJWTServiceFromConfig crea una nueva instancia del servicio JWT
func NewJWTServiceFromConfig(cfg *config.JWTConfig) *JWTService {
	return &JWTService{
		secretKey:      []byte(cfg.SecretKey),
		accessTokenTTL: cfg.AccessTokenTTL,
		issuer:         cfg.Issuer,
		audience:       cfg.Audience,
	}
}

// Claims personalizados para JWT
type JWTClaims struct {
	UserID kernel.UserID `json:"user_id"`
	Email  string        `json:"email"`
	Name   string        `json:"name"`
	Role   kernel.Role   `json:"role"`
	Scopes []string      `json:"scopes"`
	Links  kernel.Links  `json:"links"`
	jwt.RegisteredClaims
}

func (j *JWTService) AccessTokenTTL() time.Duration {
	return j.accessTokenTTL
}

// GenerateAccessToken genera un token de acceso JWT
func (j *JWTService) GenerateAccessToken(claims TokenClaims) (string, error) {
	now := time.Now()

	scopes := claims.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	jwtClaims := JWTClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   claims.Role,
		Scopes: scopes,
		Links:  claims.Links,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   claims.UserID.String(),
			Audience:  j.audience,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims)

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithDetail("error", err.Error())
	}

	return tokenString, nil
}

// ValidateAccessToken valida y decodifica un token de acceso
func (j *JWTService) ValidateAccessToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		// Verificar el método de firma
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithIssuer(j.issuer))

	if err != nil {
		return nil, ErrTokenValidationFailed().WithDetail("error", err.Error())
	}

	if !token.Valid {
		return nil, ErrTokenValidationFailed().WithDetail("error", "token is invalid")
	}

	jwtClaims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, ErrTokenValidationFailed().WithDetail("error", "invalid claims type")
	}

	return &TokenClaims{
		UserID:    jwtClaims.UserID,
		Email:     jwtClaims.Email,
		Name:      jwtClaims.Name,
		Role:      jwtClaims.Role,
		Scopes:    jwtClaims.Scopes,
		Links:     jwtClaims.Links,
		IssuedAt:  jwtClaims.IssuedAt.Time,
		ExpiresAt: jwtClaims.ExpiresAt.Time,
	}, nil
}
