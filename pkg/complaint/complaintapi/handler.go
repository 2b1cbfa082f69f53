package complaintapi

import (
	"github.com/Abraxas-365/hireline/pkg/complaint"
	"github.com/Abraxas-365/hireline/pkg/complaint/complaintsrv"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/gofiber/fiber/v2"
)

type ComplaintHandlers struct {
	service *complaintsrv.ComplaintService
}

func NewComplaintHandlers(service *complaintsrv.ComplaintService) *ComplaintHandlers {
	return &ComplaintHandlers{service: service}
}

func (h *ComplaintHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	complaints := router.Group("/complaints", authMiddleware.Authenticate())
	read := authMiddleware.RequireScope(scopes.ScopeComplaintsRead)
	write := authMiddleware.RequireScope(scopes.ScopeComplaintsWrite)

	complaints.Get("/", read, h.List)
	complaints.Post("/", authMiddleware.RequireScope(scopes.ScopeComplaintsCreate), h.Create)
	complaints.Get("/:id", read, h.Get)
	complaints.Post("/:id/assign", write, h.Assign)
	complaints.Post("/:id/status", write, h.Transition)
	complaints.Post("/:id/comments", read, h.Comment)
}

// List ?status=&priority=&category=&store_id=&assigned_to=&overdue=true
func (h *ComplaintHandlers) List(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var f complaint.Filter
	if err := c.QueryParser(&f); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	list, err := h.service.List(c.Context(), ac, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"complaints": list, "total": len(list)})
}

func (h *ComplaintHandlers) Create(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req complaint.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	out, err := h.service.Create(c.Context(), ac, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *ComplaintHandlers) Get(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	out, err := h.service.Get(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *ComplaintHandlers) Assign(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req complaint.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	out, err := h.service.Assign(c.Context(), ac, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *ComplaintHandlers) Transition(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req complaint.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	out, err := h.service.Transition(c.Context(), ac, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *ComplaintHandlers) Comment(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req complaint.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	out, err := h.service.Comment(c.Context(), ac, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
