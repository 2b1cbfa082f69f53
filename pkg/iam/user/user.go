package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/kernel"
)

// ============================================================================
// User Entity
// ============================================================================

// UserStatus define los posibles estados de un usuario
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is an account of the back-office. Role links tie partner, supervisor,
// team and candidate accounts to the records they act on.
type User struct {
	ID           kernel.UserID `db:"id" json:"id"`
	Email        string        `db:"email" json:"email"`
	Name         string        `db:"name" json:"name"`
	Phone        string        `db:"phone" json:"phone"`
	Role         kernel.Role   `db:"role" json:"role"`
	PasswordHash string        `db:"password_hash" json:"-"`
	Status       UserStatus    `db:"status" json:"status"`

	PartnerID   string `db:"partner_id" json:"partner_id,omitempty"`
	StoreID     string `db:"store_id" json:"store_id,omitempty"`
	TeamLeadID  string `db:"team_lead_id" json:"team_lead_id,omitempty"`
	CandidateID string `db:"candidate_id" json:"candidate_id,omitempty"`

	LastLoginAt *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// ============================================================================
// Domain Methods
// ============================================================================

// IsActive verifica si el usuario está activo
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Activate reactivates a suspended user
func (u *User) Activate() error {
	if u.Status != UserStatusSuspended {
		return ErrInvalidStatus().WithDetail("current_status", u.Status)
	}

	u.Status = UserStatusActive
	u.UpdatedAt = time.Now()
	return nil
}

// Suspend suspende un usuario activo
func (u *User) Suspend() error {
	if !u.IsActive() {
		return ErrInvalidStatus().WithDetail("current_status", u.Status)
	}

	u.Status = UserStatusSuspended
	u.UpdatedAt = time.Now()
	return nil
}

// UpdateLastLogin actualiza la fecha del último login
func (u *User) UpdateLastLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// UpdateProfile changes name and phone when given
func (u *User) UpdateProfile(name, phone string) {
	if name != "" {
		u.Name = name
	}
	if phone != "" {
		u.Phone = phone
	}
	u.UpdatedAt = time.Now()
}

// Links returns the role links of the account
func (u *User) Links() kernel.Links {
	return kernel.Links{
		PartnerID:   u.PartnerID,
		StoreID:     u.StoreID,
		TeamLeadID:  u.TeamLeadID,
		CandidateID: u.CandidateID,
	}
}

// SetRole changes the role and its links after validating them
func (u *User) SetRole(role kernel.Role, links kernel.Links) error {
	if err := ValidateRoleLinks(role, links); err != nil {
		return err
	}
	u.Role = role
	u.PartnerID = links.PartnerID
	u.StoreID = links.StoreID
	u.TeamLeadID = links.TeamLeadID
	u.CandidateID = links.CandidateID
	u.UpdatedAt = time.Now()
	return nil
}

// Scopes returns the scope template of the user's role
func (u *User) Scopes() []string {
	return scopes.ForRole(u.Role)
}

// ValidateRoleLinks checks the link each role depends on
func ValidateRoleLinks(role kernel.Role, links kernel.Links) error {
	if !role.IsValid() {
		return iam.ErrInvalidRole().WithDetail("role", role)
	}
	switch role {
	case kernel.RolePartner:
		if links.PartnerID == "" {
			return iam.ErrMissingRoleLink().WithDetail("role", role).WithDetail("link", "partner_id")
		}
	case kernel.RoleSupervisor:
		if links.StoreID == "" {
			return iam.ErrMissingRoleLink().WithDetail("role", role).WithDetail("link", "store_id")
		}
	case kernel.RoleCandidate:
		if links.CandidateID == "" {
			return iam.ErrMissingRoleLink().WithDetail("role", role).WithDetail("link", "candidate_id")
		}
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ============================================================================
// DTOs
// ============================================================================

// UserDetailsDTO contiene información básica de un usuario para otros módulos
type UserDetailsDTO struct {
	ID          kernel.UserID `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone,omitempty"`
	Role        kernel.Role   `json:"role"`
	IsActive    bool          `json:"is_active"`
	Scopes      []string      `json:"scopes"`
	Links       kernel.Links  `json:"links"`
	LastLoginAt *time.Time    `json:"last_login_at,omitempty"`
}

// ToDTO convierte la entidad User a UserDetailsDTO
func (u *User) ToDTO() UserDetailsDTO {
	return UserDetailsDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		IsActive:    u.IsActive(),
		Scopes:      u.Scopes(),
		Links:       u.Links(),
		LastLoginAt: u.LastLoginAt,
	}
}

// ============================================================================
// Service DTOs
// ============================================================================

// CreateUserRequest representa la petición para crear un usuario
type CreateUserRequest struct {
	Email    string       `json:"email" validate:"required,email"`
	Name     string       `json:"name" validate:"required,min=2"`
	Phone    string       `json:"phone,omitempty"`
	Password string       `json:"password" validate:"required,min=8"`
	Role     kernel.Role  `json:"role" validate:"required"`
	Links    kernel.Links `json:"links"`
}

// UpdateUserRequest representa la petición para actualizar un usuario
type UpdateUserRequest struct {
	Name  *string       `json:"name,omitempty" validate:"omitempty,min=2"`
	Phone *string       `json:"phone,omitempty"`
	Role  *kernel.Role  `json:"role,omitempty"`
	Links *kernel.Links `json:"links,omitempty"`
}

// UserListResponseDTO lista de usuarios
type UserListResponseDTO struct {
	Users []UserDetailsDTO `json:"users"`
	Total int              `json:"total"`
}

// ScopeDetail información detallada de un scope
type ScopeDetail struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// RoleScopesResponse lists the scopes granted by a role
type RoleScopesResponse struct {
	Role         kernel.Role   `json:"role"`
	Scopes       []string      `json:"scopes"`
	ScopeDetails []ScopeDetail `json:"scope_details"`
	// Effective has wildcards expanded
	Effective []string `json:"effective"`
}

// ============================================================================
// Error Registry - Errores específicos de User
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

// Códigos de error
var (
	CodeUserNotFound      = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeUserAlreadyExists = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "A user with this email already exists")
	CodeUserSuspended     = ErrRegistry.Register("SUSPENDED", errx.TypeBusiness, http.StatusForbidden, "User is suspended")
	CodeInvalidStatus     = ErrRegistry.Register("INVALID_STATUS", errx.TypeBusiness, http.StatusBadRequest, "Invalid user status for this operation")
	CodeSelfSuspension    = ErrRegistry.Register("SELF_SUSPENSION", errx.TypeBusiness, http.StatusBadRequest, "Users cannot suspend themselves")
)

// Helper functions para crear errores
func ErrUserNotFound() *errx.Error {
	return ErrRegistry.New(CodeUserNotFound)
}

func ErrUserAlreadyExists() *errx.Error {
	return ErrRegistry.New(CodeUserAlreadyExists)
}

func ErrUserSuspended() *errx.Error {
	return ErrRegistry.New(CodeUserSuspended)
}

func ErrInvalidStatus() *errx.Error {
	return ErrRegistry.New(CodeInvalidStatus)
}

func ErrSelfSuspension() *errx.Error {
	return ErrRegistry.New(CodeSelfSuspension)
}
