package user

import (
	"context"

	"github.com/Abraxas-365/hireline/pkg/kernel"
)

// UserRepository persiste usuarios; FindByTeamLead alimenta las vistas de TeamLead
type UserRepository interface {
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]*User, error)
	FindByRole(ctx context.Context, role kernel.Role) ([]*User, error)
	FindByTeamLead(ctx context.Context, leadID kernel.UserID) ([]*User, error)
	Save(ctx context.Context, u User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// PasswordService define el contrato para el manejo de contraseñas
type PasswordService interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hashedPassword, password string) bool
	// NeedsRehash is checked after a successful login
	NeedsRehash(hashedPassword string) bool
}
