package userinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/user"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const userColumns = `
	id, email, name, phone, role, password_hash, status,
	partner_id, store_id, team_lead_id, candidate_id,
	last_login_at, created_at, updated_at`

// PostgresUserRepository implementación de PostgreSQL para UserRepository
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository crea una nueva instancia del repositorio de usuarios
func NewPostgresUserRepository(db *sqlx.DB) user.UserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

// FindByID busca un usuario por ID
func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound().WithDetail("user_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find user by id", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}

	return &u, nil
}

// FindByEmail busca un usuario por email
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound().WithDetail("email", email)
		}
		return nil, errx.Wrap(err, "failed to find user by email", errx.TypeInternal).
			WithDetail("email", email)
	}

	return &u, nil
}

func (r *PostgresUserRepository) FindAll(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY name ASC`
	return r.selectUsers(ctx, query)
}

func (r *PostgresUserRepository) FindByRole(ctx context.Context, role kernel.Role) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY name ASC`
	return r.selectUsers(ctx, query, string(role))
}

// FindByTeamLead returns the team members reporting to leadID
func (r *PostgresUserRepository) FindByTeamLead(ctx context.Context, leadID kernel.UserID) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE team_lead_id = $1 ORDER BY name ASC`
	return r.selectUsers(ctx, query, leadID.String())
}

func (r *PostgresUserRepository) selectUsers(ctx context.Context, query string, args ...any) ([]*user.User, error) {
	var users []user.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, errx.Wrap(err, "failed to list users", errx.TypeInternal)
	}

	// Convertir a slice de punteros
	result := make([]*user.User, len(users))
	for i := range users {
		result[i] = &users[i]
	}
	return result, nil
}

// Save guarda o actualiza un usuario
func (r *PostgresUserRepository) Save(ctx context.Context, u user.User) error {
	exists, err := r.userExists(ctx, u.ID)
	if err != nil {
		return errx.Wrap(err, "failed to check user existence", errx.TypeInternal)
	}

	if exists {
		return r.update(ctx, u)
	}
	return r.create(ctx, u)
}

func (r *PostgresUserRepository) create(ctx context.Context, u user.User) error {
	query := `
		INSERT INTO users (` + userColumns + `
		) VALUES (
			:id, :email, :name, :phone, :role, :password_hash, :status,
			:partner_id, :store_id, :team_lead_id, :candidate_id,
			:last_login_at, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, u)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrUserAlreadyExists().WithDetail("email", u.Email)
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String()).
			WithDetail("email", u.Email)
	}

	return nil
}

func (r *PostgresUserRepository) update(ctx context.Context, u user.User) error {
	query := `
		UPDATE users SET
			email = :email,
			name = :name,
			phone = :phone,
			role = :role,
			password_hash = :password_hash,
			status = :status,
			partner_id = :partner_id,
			store_id = :store_id,
			team_lead_id = :team_lead_id,
			candidate_id = :candidate_id,
			last_login_at = :last_login_at,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, u)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrUserAlreadyExists().WithDetail("email", u.Email)
		}
		return errx.Wrap(err, "failed to update user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return user.ErrUserNotFound().WithDetail("user_id", u.ID.String())
	}

	return nil
}

// ExistsByEmail verifica si existe un usuario con el email dado
func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, errx.Wrap(err, "failed to check user existence by email", errx.TypeInternal).
			WithDetail("email", email)
	}

	return exists, nil
}

func (r *PostgresUserRepository) userExists(ctx context.Context, id kernel.UserID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id.String()); err != nil {
		return false, err
	}
	return exists, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
