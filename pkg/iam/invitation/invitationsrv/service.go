package invitationsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/invitation"
	"github.com/Abraxas-365/hireline/pkg/iam/user"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/google/uuid"
)

// UserCreator is the slice of the user service that accepting an invitation needs
type UserCreator interface {
	CreateUser(ctx context.Context, req user.CreateUserRequest) (*user.User, error)
}

// InvitationService proporciona operaciones de negocio para invitaciones
type InvitationService struct {
	invitationRepo invitation.InvitationRepository
	userRepo       user.UserRepository
	users          UserCreator
	config         *config.InvitationConfig
}

// NewInvitationService crea una nueva instancia del servicio de invitaciones
func NewInvitationService(
	invitationRepo invitation.InvitationRepository,
	userRepo user.UserRepository,
	users UserCreator,
	cfg *config.InvitationConfig,
) *InvitationService {
	return &InvitationService{
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		users:          users,
		config:         cfg,
	}
}

// CreateInvitation crea una nueva invitación pendiente para el rol indicado
func (s *InvitationService) CreateInvitation(ctx context.Context, invitedBy kernel.UserID, req invitation.CreateInvitationRequest) (*invitation.CreatedInvitationDTO, error) {
	email := user.NormalizeEmail(req.Email)
	if email == "" {
		return nil, errx.New("email is required", errx.TypeValidation)
	}
	if err := user.ValidateRoleLinks(req.Role, req.Links); err != nil {
		return nil, err
	}

	// Verificar que el usuario no existe
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, errx.Wrap(err, "failed to check email existence", errx.TypeInternal)
	}
	if exists {
		return nil, invitation.ErrUserAlreadyExists().WithDetail("email", email)
	}

	// Verificar que no existe una invitación pendiente para este email
	pending, err := s.invitationRepo.ExistsPendingForEmail(ctx, email)
	if err != nil {
		return nil, errx.Wrap(err, "failed to check pending invitation", errx.TypeInternal)
	}
	if pending {
		return nil, invitation.ErrInvitationAlreadyExists().WithDetail("email", email)
	}

	token, err := invitation.GenerateInvitationToken(s.config.TokenByteLength)
	if err != nil {
		return nil, err
	}

	expiresIn := s.config.DefaultExpirationDays
	if req.ExpiresIn != nil && *req.ExpiresIn > 0 {
		expiresIn = *req.ExpiresIn
	}

	now := time.Now()
	inv := invitation.Invitation{
		ID:        uuid.NewString(),
		Email:     email,
		Token:     token,
		Role:      req.Role,
		Status:    invitation.InvitationStatusPending,
		InvitedBy: invitedBy,
		ExpiresAt: invitation.CalculateExpirationDate(expiresIn, s.config.DefaultExpirationDays),
		CreatedAt: now,
		UpdatedAt: now,
	}
	inv.SetLinks(req.Links)

	if err := s.invitationRepo.Save(ctx, inv); err != nil {
		return nil, errx.Wrap(err, "failed to save invitation", errx.TypeInternal)
	}

	logx.WithFields(logx.Fields{"invitation_id": inv.ID, "role": inv.Role, "by": invitedBy}).Info("invitation created")

	return &invitation.CreatedInvitationDTO{
		Invitation: inv,
		Token:      token,
		AcceptURL:  s.config.AcceptURL + "?token=" + token,
	}, nil
}

func (s *InvitationService) GetInvitation(ctx context.Context, id string) (*invitation.Invitation, error) {
	return s.invitationRepo.FindByID(ctx, id)
}

// ValidateInvitationToken valida un token de invitación sin aceptarlo
func (s *InvitationService) ValidateInvitationToken(ctx context.Context, token string) *invitation.ValidateInvitationResponse {
	inv, err := s.invitationRepo.FindByToken(ctx, token)
	if err != nil {
		return &invitation.ValidateInvitationResponse{Valid: false, Message: "Invitación no encontrada"}
	}

	if !inv.CanBeAccepted() {
		message := "Invitación inválida"
		switch {
		case inv.Status == invitation.InvitationStatusAccepted:
			message = "Invitación ya aceptada"
		case inv.Status == invitation.InvitationStatusRevoked:
			message = "Invitación revocada"
		case inv.IsExpired():
			message = "Invitación expirada"
		}
		return &invitation.ValidateInvitationResponse{Valid: false, Message: message}
	}

	return &invitation.ValidateInvitationResponse{
		Valid:      true,
		Invitation: inv,
		Message:    "Invitación válida",
	}
}

// AcceptInvitation creates the invited user and closes the invitation
func (s *InvitationService) AcceptInvitation(ctx context.Context, req invitation.AcceptInvitationRequest) (*user.User, error) {
	inv, err := s.invitationRepo.FindByToken(ctx, req.Token)
	if err != nil {
		return nil, invitation.ErrInvitationNotFound()
	}
	if !inv.CanBeAccepted() {
		if inv.MarkAsExpired() {
			_ = s.invitationRepo.Save(ctx, *inv)
			return nil, invitation.ErrInvitationExpired()
		}
		return nil, inv.Accept("")
	}

	created, err := s.users.CreateUser(ctx, user.CreateUserRequest{
		Email:    inv.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     inv.Role,
		Links:    inv.Links(),
	})
	if err != nil {
		return nil, err
	}

	if err := inv.Accept(created.ID); err != nil {
		return nil, err
	}
	if err := s.invitationRepo.Save(ctx, *inv); err != nil {
		return nil, errx.Wrap(err, "failed to save invitation", errx.TypeInternal)
	}

	logx.WithFields(logx.Fields{"invitation_id": inv.ID, "user_id": created.ID}).Info("invitation accepted")
	return created, nil
}

// ListInvitations lists all invitations, or only pending ones
func (s *InvitationService) ListInvitations(ctx context.Context, pendingOnly bool) (*invitation.InvitationListResponse, error) {
	var (
		items []*invitation.Invitation
		err   error
	)
	if pendingOnly {
		items, err = s.invitationRepo.FindPending(ctx)
	} else {
		items, err = s.invitationRepo.FindAll(ctx)
	}
	if err != nil {
		return nil, errx.Wrap(err, "failed to list invitations", errx.TypeInternal)
	}
	return &invitation.InvitationListResponse{Invitations: items, Total: len(items)}, nil
}

// RevokeInvitation revoca una invitación
func (s *InvitationService) RevokeInvitation(ctx context.Context, id string) error {
	inv, err := s.invitationRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := inv.Revoke(); err != nil {
		return err
	}
	return s.invitationRepo.Save(ctx, *inv)
}

// DeleteInvitation elimina una invitación no aceptada
func (s *InvitationService) DeleteInvitation(ctx context.Context, id string) error {
	inv, err := s.invitationRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status == invitation.InvitationStatusAccepted {
		return errx.New("cannot delete accepted invitation", errx.TypeBusiness)
	}
	return s.invitationRepo.Delete(ctx, id)
}

// ExpireStale marca invitaciones expiradas. Called by the cleanup worker.
func (s *InvitationService) ExpireStale(ctx context.Context) (int, error) {
	expired, err := s.invitationRepo.FindExpired(ctx)
	if err != nil {
		return 0, errx.Wrap(err, "failed to find expired invitations", errx.TypeInternal)
	}

	count := 0
	for _, inv := range expired {
		if !inv.MarkAsExpired() {
			continue
		}
		if err := s.invitationRepo.Save(ctx, *inv); err != nil {
			logx.WithError(err).WithField("invitation_id", inv.ID).Warn("failed to expire invitation")
			continue
		}
		count++
	}
	return count, nil
}
