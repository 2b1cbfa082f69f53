package invitation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/kernel"
)

// ============================================================================
// Invitation Entity
// ============================================================================

// InvitationStatus define los posibles estados de una invitación
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "PENDING"
	InvitationStatusAccepted InvitationStatus = "ACCEPTED"
	InvitationStatusExpired  InvitationStatus = "EXPIRED"
	InvitationStatusRevoked  InvitationStatus = "REVOKED"
)

// Invitation invites an email into a role. Accepting it creates the user account.
type Invitation struct {
	ID          string           `db:"id" json:"id"`
	Email       string           `db:"email" json:"email"`
	Token       string           `db:"token" json:"-"`
	Role        kernel.Role      `db:"role" json:"role"`
	PartnerID   string           `db:"partner_id" json:"partner_id,omitempty"`
	StoreID     string           `db:"store_id" json:"store_id,omitempty"`
	TeamLeadID  string           `db:"team_lead_id" json:"team_lead_id,omitempty"`
	CandidateID string           `db:"candidate_id" json:"candidate_id,omitempty"`
	Status      InvitationStatus `db:"status" json:"status"`
	InvitedBy   kernel.UserID    `db:"invited_by" json:"invited_by"`
	ExpiresAt   time.Time        `db:"expires_at" json:"expires_at"`
	AcceptedAt  *time.Time       `db:"accepted_at" json:"accepted_at,omitempty"`
	AcceptedBy  *kernel.UserID   `db:"accepted_by" json:"accepted_by,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// ============================================================================
// Domain Methods
// ============================================================================

func (i *Invitation) Links() kernel.Links {
	return kernel.Links{
		PartnerID:   i.PartnerID,
		StoreID:     i.StoreID,
		TeamLeadID:  i.TeamLeadID,
		CandidateID: i.CandidateID,
	}
}

func (i *Invitation) SetLinks(l kernel.Links) {
	i.PartnerID = l.PartnerID
	i.StoreID = l.StoreID
	i.TeamLeadID = l.TeamLeadID
	i.CandidateID = l.CandidateID
}

// IsExpired verifica si la invitación ha expirado
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// CanBeAccepted verifica si la invitación puede ser aceptada
func (i *Invitation) CanBeAccepted() bool {
	return i.Status == InvitationStatusPending && !i.IsExpired()
}

// Accept marca la invitación como aceptada
func (i *Invitation) Accept(userID kernel.UserID) error {
	if !i.CanBeAccepted() {
		if i.Status == InvitationStatusPending && i.IsExpired() {
			return ErrInvitationExpired()
		}
		return i.statusError()
	}

	now := time.Now()
	i.Status = InvitationStatusAccepted
	i.AcceptedAt = &now
	i.AcceptedBy = &userID
	i.UpdatedAt = now
	return nil
}

// Revoke revoca la invitación
func (i *Invitation) Revoke() error {
	if i.Status == InvitationStatusAccepted {
		return ErrInvitationAlreadyAccepted()
	}
	if i.Status == InvitationStatusRevoked {
		return ErrInvitationAlreadyRevoked()
	}

	i.Status = InvitationStatusRevoked
	i.UpdatedAt = time.Now()
	return nil
}

// MarkAsExpired marca la invitación como expirada. Reports whether it changed.
func (i *Invitation) MarkAsExpired() bool {
	if i.Status == InvitationStatusPending && i.IsExpired() {
		i.Status = InvitationStatusExpired
		i.UpdatedAt = time.Now()
		return true
	}
	return false
}

func (i *Invitation) statusError() *errx.Error {
	switch i.Status {
	case InvitationStatusAccepted:
		return ErrInvitationAlreadyAccepted()
	case InvitationStatusRevoked:
		return ErrInvitationAlreadyRevoked()
	case InvitationStatusExpired:
		return ErrInvitationExpired()
	}
	return ErrInvitationInvalid().WithDetail("status", string(i.Status))
}

// ============================================================================
// Repository
// ============================================================================

type InvitationRepository interface {
	FindByID(ctx context.Context, id string) (*Invitation, error)
	FindByToken(ctx context.Context, token string) (*Invitation, error)
	FindAll(ctx context.Context) ([]*Invitation, error)
	FindPending(ctx context.Context) ([]*Invitation, error)
	// FindExpired returns pending invitations whose expiry has passed
	FindExpired(ctx context.Context) ([]*Invitation, error)
	ExistsPendingForEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, inv Invitation) error
	Delete(ctx context.Context, id string) error
}

// ============================================================================
// DTOs
// ============================================================================

// CreateInvitationRequest representa la petición para crear una invitación
type CreateInvitationRequest struct {
	Email     string       `json:"email" validate:"required,email"`
	Role      kernel.Role  `json:"role" validate:"required"`
	Links     kernel.Links `json:"links"`
	ExpiresIn *int         `json:"expires_in,omitempty"` // Días hasta expiración (default: 7)
}

// AcceptInvitationRequest representa la petición para aceptar una invitación
type AcceptInvitationRequest struct {
	Token    string `json:"token" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required"`
}

// CreatedInvitationDTO includes the token once, at creation time
type CreatedInvitationDTO struct {
	Invitation
	Token     string `json:"token"`
	AcceptURL string `json:"accept_url"`
}

// InvitationListResponse para listas de invitaciones
type InvitationListResponse struct {
	Invitations []*Invitation `json:"invitations"`
	Total       int           `json:"total"`
}

// ValidateInvitationResponse respuesta de validación de invitación
type ValidateInvitationResponse struct {
	Valid      bool        `json:"valid"`
	Invitation *Invitation `json:"invitation,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// ============================================================================
// Helper Functions
// ============================================================================

// GenerateInvitationToken genera un token único para la invitación
func GenerateInvitationToken(byteLength int) (string, error) {
	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", errx.Wrap(err, "failed to generate invitation token", errx.TypeInternal)
	}
	return hex.EncodeToString(bytes), nil
}

func CalculateExpirationDate(daysFromNow int, defaultDays int) time.Time {
	if daysFromNow <= 0 {
		daysFromNow = defaultDays
	}
	return time.Now().AddDate(0, 0, daysFromNow)
}

// ============================================================================
// Error Registry - Errores específicos de Invitation
// ============================================================================

var ErrRegistry = errx.NewRegistry("INVITATION")

// Códigos de error
var (
	CodeInvitationNotFound        = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Invitación no encontrada")
	CodeInvitationExpired         = ErrRegistry.Register("EXPIRED", errx.TypeBusiness, http.StatusGone, "Invitación expirada")
	CodeInvitationInvalid         = ErrRegistry.Register("INVALID", errx.TypeBusiness, http.StatusBadRequest, "Invitación inválida")
	CodeInvitationAlreadyAccepted = ErrRegistry.Register("ALREADY_ACCEPTED", errx.TypeBusiness, http.StatusConflict, "Invitación ya aceptada")
	CodeInvitationAlreadyRevoked  = ErrRegistry.Register("ALREADY_REVOKED", errx.TypeBusiness, http.StatusConflict, "Invitación ya revocada")
	CodeInvitationAlreadyExists   = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "Ya existe una invitación pendiente para este email")
	CodeUserAlreadyExists         = ErrRegistry.Register("USER_ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "El usuario ya existe")
)

// Helper functions para crear errores
func ErrInvitationNotFound() *errx.Error {
	return ErrRegistry.New(CodeInvitationNotFound)
}

func ErrInvitationExpired() *errx.Error {
	return ErrRegistry.New(CodeInvitationExpired)
}

func ErrInvitationInvalid() *errx.Error {
	return ErrRegistry.New(CodeInvitationInvalid)
}

func ErrInvitationAlreadyAccepted() *errx.Error {
	return ErrRegistry.New(CodeInvitationAlreadyAccepted)
}

func ErrInvitationAlreadyRevoked() *errx.Error {
	return ErrRegistry.New(CodeInvitationAlreadyRevoked)
}

func ErrInvitationAlreadyExists() *errx.Error {
	return ErrRegistry.New(CodeInvitationAlreadyExists)
}

func ErrUserAlreadyExists() *errx.Error {
	return ErrRegistry.New(CodeUserAlreadyExists)
}
