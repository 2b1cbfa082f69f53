package userapi

import (
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/iam/user"
	"github.com/Abraxas-365/hireline/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// UserHandlers maneja las rutas de usuarios
type UserHandlers struct {
	service *usersrv.UserService
}

func NewUserHandlers(service *usersrv.UserService) *UserHandlers {
	return &UserHandlers{service: service}
}

func (h *UserHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	users := router.Group("/users", authMiddleware.Authenticate())

	users.Get("/", authMiddleware.RequireScope(scopes.ScopeUsersRead), h.ListUsers)
	users.Get("/roles/:role/scopes", authMiddleware.RequireScope(scopes.ScopeUsersRead), h.GetRoleScopes)
	users.Get("/:id", authMiddleware.RequireScope(scopes.ScopeUsersRead), h.GetUser)
	users.Post("/", authMiddleware.RequireScope(scopes.ScopeUsersWrite), h.CreateUser)
	users.Patch("/:id", authMiddleware.RequireScope(scopes.ScopeUsersWrite), h.UpdateUser)
	users.Post("/:id/suspend", authMiddleware.RequireScope(scopes.ScopeUsersWrite), h.SuspendUser)
	users.Post("/:id/activate", authMiddleware.RequireScope(scopes.ScopeUsersWrite), h.ActivateUser)
}

// ListUsers ?role=HR filtra por rol
func (h *UserHandlers) ListUsers(c *fiber.Ctx) error {
	resp, err := h.service.ListUsers(c.Context(), kernel.Role(c.Query("role")))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *UserHandlers) GetUser(c *fiber.Ctx) error {
	u, err := h.service.GetUser(c.Context(), kernel.NewUserID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(u.ToDTO())
}

func (h *UserHandlers) CreateUser(c *fiber.Ctx) error {
	var req user.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}

	u, err := h.service.CreateUser(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u.ToDTO())
}

func (h *UserHandlers) UpdateUser(c *fiber.Ctx) error {
	var req user.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}

	u, err := h.service.UpdateUser(c.Context(), kernel.NewUserID(c.Params("id")), req)
	if err != nil {
		return err
	}
	return c.JSON(u.ToDTO())
}

func (h *UserHandlers) SuspendUser(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return iam.ErrUnauthorized()
	}

	u, err := h.service.SuspendUser(c.Context(), kernel.NewUserID(c.Params("id")), *authContext.UserID)
	if err != nil {
		return err
	}
	return c.JSON(u.ToDTO())
}

func (h *UserHandlers) ActivateUser(c *fiber.Ctx) error {
	u, err := h.service.ActivateUser(c.Context(), kernel.NewUserID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(u.ToDTO())
}

func (h *UserHandlers) GetRoleScopes(c *fiber.Ctx) error {
	resp, err := h.service.GetRoleScopes(kernel.Role(c.Params("role")))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
