package invitationinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/invitation"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const invitationColumns = `id, email, token, role, partner_id, store_id, team_lead_id, candidate_id,
	status, invited_by, expires_at, accepted_at, accepted_by, created_at, updated_at`

// PostgresInvitationRepository implementación de PostgreSQL para InvitationRepository
type PostgresInvitationRepository struct {
	db *sqlx.DB
}

func NewPostgresInvitationRepository(db *sqlx.DB) invitation.InvitationRepository {
	return &PostgresInvitationRepository{db: db}
}

func (r *PostgresInvitationRepository) FindByID(ctx context.Context, id string) (*invitation.Invitation, error) {
	return r.findOne(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id)
}

func (r *PostgresInvitationRepository) FindByToken(ctx context.Context, token string) (*invitation.Invitation, error) {
	return r.findOne(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE token = $1`, token)
}

func (r *PostgresInvitationRepository) FindAll(ctx context.Context) ([]*invitation.Invitation, error) {
	return r.findMany(ctx, `SELECT `+invitationColumns+` FROM invitations ORDER BY created_at DESC`)
}

func (r *PostgresInvitationRepository) FindPending(ctx context.Context) ([]*invitation.Invitation, error) {
	return r.findMany(ctx, `SELECT `+invitationColumns+` FROM invitations
		WHERE status = 'PENDING' AND expires_at > NOW() ORDER BY created_at DESC`)
}

func (r *PostgresInvitationRepository) FindExpired(ctx context.Context) ([]*invitation.Invitation, error) {
	return r.findMany(ctx, `SELECT `+invitationColumns+` FROM invitations
		WHERE status = 'PENDING' AND expires_at <= NOW()`)
}

func (r *PostgresInvitationRepository) ExistsPendingForEmail(ctx context.Context, email string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM invitations
			WHERE email = $1 AND status = 'PENDING' AND expires_at > NOW()
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, errx.Wrap(err, "failed to check pending invitation", errx.TypeInternal)
	}
	return exists, nil
}

// Save inserta o actualiza la invitación
func (r *PostgresInvitationRepository) Save(ctx context.Context, inv invitation.Invitation) error {
	query := `
		INSERT INTO invitations (` + invitationColumns + `) VALUES (
			:id, :email, :token, :role, :partner_id, :store_id, :team_lead_id, :candidate_id,
			:status, :invited_by, :expires_at, :accepted_at, :accepted_by, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			expires_at = EXCLUDED.expires_at,
			accepted_at = EXCLUDED.accepted_at,
			accepted_by = EXCLUDED.accepted_by,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return invitation.ErrInvitationAlreadyExists().WithDetail("email", inv.Email)
		}
		return errx.Wrap(err, "failed to save invitation", errx.TypeInternal).
			WithDetail("invitation_id", inv.ID)
	}
	return nil
}

func (r *PostgresInvitationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return errx.Wrap(err, "failed to delete invitation", errx.TypeInternal)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return invitation.ErrInvitationNotFound().WithDetail("invitation_id", id)
	}
	return nil
}

func (r *PostgresInvitationRepository) findOne(ctx context.Context, query string, arg any) (*invitation.Invitation, error) {
	var inv invitation.Invitation
	if err := r.db.GetContext(ctx, &inv, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invitation.ErrInvitationNotFound()
		}
		return nil, errx.Wrap(err, "failed to find invitation", errx.TypeInternal)
	}
	return &inv, nil
}

func (r *PostgresInvitationRepository) findMany(ctx context.Context, query string) ([]*invitation.Invitation, error) {
	var items []*invitation.Invitation
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, errx.Wrap(err, "failed to list invitations", errx.TypeInternal)
	}
	if items == nil {
		items = []*invitation.Invitation{}
	}
	return items, nil
}
