package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/user"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/google/uuid"
)

// AuthService implements password login with rotating refresh tokens
type AuthService struct {
	userRepo    user.UserRepository
	passwordSvc user.PasswordService
	tokenSvc    TokenService
	tokenRepo   TokenRepository
	limiter     LoginLimiter
	refreshTTL  time.Duration
	minPassword int
}

func NewAuthService(
	userRepo user.UserRepository,
	passwordSvc user.PasswordService,
	tokenSvc TokenService,
	tokenRepo TokenRepository,
	limiter LoginLimiter,
	refreshTTL time.Duration,
	minPassword int,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		tokenRepo:   tokenRepo,
		limiter:     limiter,
		refreshTTL:  refreshTTL,
		minPassword: minPassword,
	}
}

// Login verifies credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	email := user.NormalizeEmail(req.Email)
	if err := s.limiter.Check(ctx, email); err != nil {
		return nil, err
	}

	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			s.registerFailure(ctx, email)
			return nil, iam.ErrInvalidCredentials()
		}
		return nil, err
	}

	if !s.passwordSvc.VerifyPassword(u.PasswordHash, req.Password) {
		s.registerFailure(ctx, email)
		return nil, iam.ErrInvalidCredentials()
	}

	if !u.IsActive() {
		return nil, user.ErrUserSuspended()
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		logx.Warnf("failed to reset login limiter for %s: %v", email, err)
	}

	if s.passwordSvc.NeedsRehash(u.PasswordHash) {
		if hash, err := s.passwordSvc.HashPassword(req.Password); err == nil {
			u.PasswordHash = hash
		} else {
			logx.Warnf("failed to rehash password for %s: %v", email, err)
		}
	}

	u.UpdateLastLogin()
	if err := s.userRepo.Save(ctx, *u); err != nil {
		return nil, errx.Wrap(err, "failed to update last login", errx.TypeInternal)
	}

	return s.issue(ctx, u)
}

// Refresh exchanges a refresh token for a new pair. The presented token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken()
	}

	hash := HashToken(refreshToken)
	stored, err := s.tokenRepo.FindRefreshToken(ctx, hash)
	if err != nil {
		return nil, ErrInvalidRefreshToken()
	}
	if !stored.IsValid() {
		return nil, ErrExpiredRefreshToken()
	}

	u, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, ErrInvalidRefreshToken()
	}
	if !u.IsActive() {
		return nil, user.ErrUserSuspended()
	}

	if err := s.tokenRepo.RevokeRefreshToken(ctx, hash); err != nil {
		return nil, errx.Wrap(err, "failed to revoke refresh token", errx.TypeInternal)
	}

	return s.issue(ctx, u)
}

// Logout revokes the given refresh token, or every token of the user when none is given
func (s *AuthService) Logout(ctx context.Context, userID kernel.UserID, refreshToken string) error {
	if refreshToken != "" {
		return s.tokenRepo.RevokeRefreshToken(ctx, HashToken(refreshToken))
	}
	return s.tokenRepo.RevokeAllUserTokens(ctx, userID)
}

// ChangePassword replaces the password and signs the user out everywhere
func (s *AuthService) ChangePassword(ctx context.Context, userID kernel.UserID, req ChangePasswordRequest) error {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.passwordSvc.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return ErrWrongPassword()
	}
	if len(req.NewPassword) < s.minPassword {
		return iam.ErrWeakPassword().WithDetail("min_length", s.minPassword)
	}

	hash, err := s.passwordSvc.HashPassword(req.NewPassword)
	if err != nil {
		return errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	if err := s.userRepo.Save(ctx, *u); err != nil {
		return errx.Wrap(err, "failed to save password", errx.TypeInternal)
	}

	return s.tokenRepo.RevokeAllUserTokens(ctx, userID)
}

func (s *AuthService) CurrentUser(ctx context.Context, userID kernel.UserID) (*user.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func (s *AuthService) issue(ctx context.Context, u *user.User) (*TokenResponse, error) {
	accessToken, err := s.tokenSvc.GenerateAccessToken(ClaimsFor(u))
	if err != nil {
		return nil, err
	}

	raw, err := generateOpaqueToken()
	if err != nil {
		return nil, ErrTokenGenerationFailed().WithDetail("error", err.Error())
	}

	now := time.Now()
	if err := s.tokenRepo.SaveRefreshToken(ctx, RefreshToken{
		ID:        uuid.NewString(),
		TokenHash: HashToken(raw),
		UserID:    u.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, errx.Wrap(err, "failed to save refresh token", errx.TypeInternal)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: raw,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenSvc.AccessTokenTTL() / time.Second),
		User:         u.ToDTO(),
	}, nil
}

func (s *AuthService) registerFailure(ctx context.Context, email string) {
	if err := s.limiter.Fail(ctx, email); err != nil {
		logx.Warnf("failed to record login failure for %s: %v", email, err)
	}
}

// HashToken is the at-rest form of a refresh token
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func generateOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
