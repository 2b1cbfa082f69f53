package authinfra

import (
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/user"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes
const maxPasswordBytes = 72

// BcryptPasswordService hashes user passwords with a fixed work factor
type BcryptPasswordService struct {
	cost int
}

var _ user.PasswordService = (*BcryptPasswordService)(nil)

// NewBcryptPasswordService clamps cost into bcrypt's accepted range; 0 means the default
func NewBcryptPasswordService(cost int) *BcryptPasswordService {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptPasswordService{cost: cost}
}

func (s *BcryptPasswordService) HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", iam.ErrWeakPassword().
			WithDetail("max_bytes", maxPasswordBytes).
			WithDetail("reason", "password is too long")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *BcryptPasswordService) VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// NeedsRehash reports hashes made with a different cost than the configured one
func (s *BcryptPasswordService) NeedsRehash(hashedPassword string) bool {
	cost, err := bcrypt.Cost([]byte(hashedPassword))
	if err != nil {
		return false
	}
	return cost != s.cost
}
