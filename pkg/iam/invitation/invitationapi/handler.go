package invitationapi

import (
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/invitation"
	"github.com/Abraxas-365/hireline/pkg/iam/invitation/invitationsrv"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/gofiber/fiber/v2"
)

// InvitationHandlers maneja las rutas de invitaciones con Fiber
type InvitationHandlers struct {
	service *invitationsrv.InvitationService
}

// NewInvitationHandlers crea un nuevo handler de invitaciones
func NewInvitationHandlers(service *invitationsrv.InvitationService) *InvitationHandlers {
	return &InvitationHandlers{
		service: service,
	}
}

// RegisterRoutes registra las rutas de invitaciones en Fiber
func (h *InvitationHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	// Public routes
	public := router.Group("/invitations/public")
	public.Get("/validate", h.ValidateInvitationToken)
	public.Post("/accept", h.AcceptInvitation)

	invitations := router.Group("/invitations", authMiddleware.Authenticate(), authMiddleware.RequireScope(scopes.ScopeUsersInvite))
	invitations.Post("/", h.CreateInvitation)
	invitations.Get("/", h.ListInvitations)
	invitations.Get("/:id", h.GetInvitationByID)
	invitations.Delete("/:id", h.DeleteInvitation)
	invitations.Post("/:id/revoke", h.RevokeInvitation)
}

// CreateInvitation crea una nueva invitación
func (h *InvitationHandlers) CreateInvitation(c *fiber.Ctx) error {
	authContext, ok := auth.GetAuthContext(c)
	if !ok {
		return iam.ErrUnauthorized()
	}

	var req invitation.CreateInvitationRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}

	inv, err := h.service.CreateInvitation(c.Context(), *authContext.UserID, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(inv)
}

// ListInvitations ?status=pending filtra solo pendientes
func (h *InvitationHandlers) ListInvitations(c *fiber.Ctx) error {
	list, err := h.service.ListInvitations(c.Context(), c.Query("status") == "pending")
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// GetInvitationByID obtiene una invitación por ID
func (h *InvitationHandlers) GetInvitationByID(c *fiber.Ctx) error {
	inv, err := h.service.GetInvitation(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

// ValidateInvitationToken valida un token de invitación (público)
func (h *InvitationHandlers) ValidateInvitationToken(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return errx.New("token is required", errx.TypeValidation)
	}
	return c.JSON(h.service.ValidateInvitationToken(c.Context(), token))
}

// AcceptInvitation crea la cuenta del invitado (público)
func (h *InvitationHandlers) AcceptInvitation(c *fiber.Ctx) error {
	var req invitation.AcceptInvitationRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	if req.Token == "" || req.Name == "" {
		return errx.New("token and name are required", errx.TypeValidation)
	}

	u, err := h.service.AcceptInvitation(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u.ToDTO())
}

// RevokeInvitation revoca una invitación
func (h *InvitationHandlers) RevokeInvitation(c *fiber.Ctx) error {
	if err := h.service.RevokeInvitation(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Invitation revoked successfully",
	})
}

// DeleteInvitation elimina una invitación
func (h *InvitationHandlers) DeleteInvitation(c *fiber.Ctx) error {
	if err := h.service.DeleteInvitation(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
