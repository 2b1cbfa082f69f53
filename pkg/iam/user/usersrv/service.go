package usersrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/iam/user"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
)

// UserService proporciona operaciones de negocio para usuarios
type UserService struct {
	userRepo    user.UserRepository
	passwordSvc user.PasswordService
	minPassword int
}

// NewUserService crea una nueva instancia del servicio de usuarios
func NewUserService(
	userRepo user.UserRepository,
	passwordSvc user.PasswordService,
	minPassword int,
) *UserService {
	if minPassword <= 0 {
		minPassword = 8
	}
	return &UserService{
		userRepo:    userRepo,
		passwordSvc: passwordSvc,
		minPassword: minPassword,
	}
}

// CreateUser crea un nuevo usuario activo con contraseña
func (s *UserService) CreateUser(ctx context.Context, req user.CreateUserRequest) (*user.User, error) {
	email := user.NormalizeEmail(req.Email)
	if email == "" || req.Name == "" {
		return nil, errx.New("email and name are required", errx.TypeValidation)
	}
	if err := user.ValidateRoleLinks(req.Role, req.Links); err != nil {
		return nil, err
	}
	if len(req.Password) < s.minPassword {
		return nil, iam.ErrWeakPassword().WithDetail("min_length", s.minPassword)
	}

	// Verificar que no exista un usuario con el mismo email
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, errx.Wrap(err, "failed to check email existence", errx.TypeInternal)
	}
	if exists {
		return nil, user.ErrUserAlreadyExists().WithDetail("email", email)
	}

	hash, err := s.passwordSvc.HashPassword(req.Password)
	if err != nil {
		return nil, errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}

	now := time.Now()
	newUser := &user.User{
		ID:           kernel.GenerateUserID(),
		Email:        email,
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: hash,
		Status:       user.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := newUser.SetRole(req.Role, req.Links); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, *newUser); err != nil {
		return nil, errx.Wrap(err, "failed to save user", errx.TypeInternal)
	}

	logx.WithFields(logx.Fields{"user_id": newUser.ID, "role": newUser.Role}).Info("user created")
	return newUser, nil
}

// GetUser obtiene un usuario por ID
func (s *UserService) GetUser(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// ListUsers lists every user, or only those with role when it is set
func (s *UserService) ListUsers(ctx context.Context, role kernel.Role) (*user.UserListResponseDTO, error) {
	var (
		users []*user.User
		err   error
	)
	if role != "" {
		users, err = s.userRepo.FindByRole(ctx, role)
	} else {
		users, err = s.userRepo.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	resp := &user.UserListResponseDTO{Users: make([]user.UserDetailsDTO, 0, len(users)), Total: len(users)}
	for _, u := range users {
		resp.Users = append(resp.Users, u.ToDTO())
	}
	return resp, nil
}

// UpdateUser applies profile and role changes
func (s *UserService) UpdateUser(ctx context.Context, id kernel.UserID, req user.UpdateUserRequest) (*user.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, phone := "", ""
	if req.Name != nil {
		name = *req.Name
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	u.UpdateProfile(name, phone)

	if req.Role != nil || req.Links != nil {
		role := u.Role
		if req.Role != nil {
			role = *req.Role
		}
		links := u.Links()
		if req.Links != nil {
			links = *req.Links
		}
		if err := u.SetRole(role, links); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Save(ctx, *u); err != nil {
		return nil, errx.Wrap(err, "failed to update user", errx.TypeInternal)
	}
	return u, nil
}

// SuspendUser blocks login for a user. Callers cannot suspend themselves.
func (s *UserService) SuspendUser(ctx context.Context, id, actor kernel.UserID) (*user.User, error) {
	if id == actor {
		return nil, user.ErrSelfSuspension()
	}

	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.Suspend(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, *u); err != nil {
		return nil, errx.Wrap(err, "failed to suspend user", errx.TypeInternal)
	}

	logx.WithFields(logx.Fields{"user_id": id, "by": actor}).Warn("user suspended")
	return u, nil
}

func (s *UserService) ActivateUser(ctx context.Context, id kernel.UserID) (*user.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.Activate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, *u); err != nil {
		return nil, errx.Wrap(err, "failed to activate user", errx.TypeInternal)
	}
	return u, nil
}

// TeamMemberIDs returns the ids of users reporting to leadID, including the lead
func (s *UserService) TeamMemberIDs(ctx context.Context, leadID kernel.UserID) ([]string, error) {
	members, err := s.userRepo.FindByTeamLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members)+1)
	ids = append(ids, leadID.String())
	for _, m := range members {
		ids = append(ids, m.ID.String())
	}
	return ids, nil
}

// GetRoleScopes describes the scopes a role is granted
func (s *UserService) GetRoleScopes(role kernel.Role) (*user.RoleScopesResponse, error) {
	if !role.IsValid() {
		return nil, iam.ErrInvalidRole().WithDetail("role", role)
	}

	granted := scopes.ForRole(role)
	details := make([]user.ScopeDetail, 0, len(granted))
	for _, scope := range granted {
		details = append(details, user.ScopeDetail{
			Name:        scope,
			Description: scopes.GetScopeDescription(scope),
			Category:    scopes.GetScopeCategory(scope),
		})
	}

	return &user.RoleScopesResponse{
		Role:         role,
		Scopes:       granted,
		ScopeDetails: details,
		Effective:    scopes.Effective(granted),
	}, nil
}
