package panelapi

import (
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/panel"
	"github.com/Abraxas-365/hireline/pkg/panel/panelsrv"
	"github.com/gofiber/fiber/v2"
)

type PanelHandlers struct {
	service *panelsrv.PanelService
}

func NewPanelHandlers(service *panelsrv.PanelService) *PanelHandlers {
	return &PanelHandlers{service: service}
}

func (h *PanelHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	p := router.Group("/panel", authMiddleware.Authenticate())
	read := authMiddleware.RequireScope(scopes.ScopePanelRead)
	write := authMiddleware.RequireScope(scopes.ScopePanelWrite)

	p.Get("/roles", read, h.ListRoles)
	p.Post("/roles", write, h.CreateRole)
	p.Put("/roles/:id", write, h.UpdateRole)
	p.Delete("/roles/:id", write, h.DeleteRole)

	p.Get("/locations", read, h.ListLocations)
	p.Post("/locations", write, h.CreateLocation)
	p.Put("/locations/:id", write, h.UpdateLocation)
	p.Delete("/locations/:id", write, h.DeleteLocation)

	p.Get("/stores", read, h.ListStores)
	p.Get("/stores/:id", read, h.GetStore)
	p.Post("/stores", write, h.CreateStore)
	p.Put("/stores/:id", write, h.UpdateStore)
	p.Delete("/stores/:id", write, h.DeleteStore)

	p.Post("/seed", write, h.Seed)
}

func (h *PanelHandlers) ListRoles(c *fiber.Ctx) error {
	roles, err := h.service.ListRoles(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(roles)
}

func (h *PanelHandlers) CreateRole(c *fiber.Ctx) error {
	var req panel.RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	role, err := h.service.CreateRole(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(role)
}

func (h *PanelHandlers) UpdateRole(c *fiber.Ctx) error {
	var req panel.RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	role, err := h.service.UpdateRole(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(role)
}

func (h *PanelHandlers) DeleteRole(c *fiber.Ctx) error {
	if err := h.service.DeleteRole(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PanelHandlers) ListLocations(c *fiber.Ctx) error {
	locs, err := h.service.ListLocations(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(locs)
}

func (h *PanelHandlers) CreateLocation(c *fiber.Ctx) error {
	var req panel.LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	loc, err := h.service.CreateLocation(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(loc)
}

func (h *PanelHandlers) UpdateLocation(c *fiber.Ctx) error {
	var req panel.LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	loc, err := h.service.UpdateLocation(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(loc)
}

func (h *PanelHandlers) DeleteLocation(c *fiber.Ctx) error {
	if err := h.service.DeleteLocation(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PanelHandlers) ListStores(c *fiber.Ctx) error {
	stores, err := h.service.ListStores(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(stores)
}

func (h *PanelHandlers) GetStore(c *fiber.Ctx) error {
	st, err := h.service.GetStore(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (h *PanelHandlers) CreateStore(c *fiber.Ctx) error {
	var req panel.StoreRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	st, err := h.service.CreateStore(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

func (h *PanelHandlers) UpdateStore(c *fiber.Ctx) error {
	var req panel.StoreRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	st, err := h.service.UpdateStore(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (h *PanelHandlers) DeleteStore(c *fiber.Ctx) error {
	if err := h.service.DeleteStore(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Seed acepta el mismo layout que el comando seed-panel, en JSON
func (h *PanelHandlers) Seed(c *fiber.Ctx) error {
	var file panel.SeedFile
	if err := c.BodyParser(&file); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	result, err := h.service.Seed(c.Context(), file)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
