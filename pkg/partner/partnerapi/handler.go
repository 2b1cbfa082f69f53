package partnerapi

import (
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/partner"
	"github.com/Abraxas-365/hireline/pkg/partner/partnersrv"
	"github.com/Abraxas-365/hireline/pkg/sheetx"
	"github.com/gofiber/fiber/v2"
)

type PartnerHandlers struct {
	service *partnersrv.PartnerService
}

func NewPartnerHandlers(service *partnersrv.PartnerService) *PartnerHandlers {
	return &PartnerHandlers{service: service}
}

func (h *PartnerHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	read := authMiddleware.RequireAnyScope(scopes.ScopePartnersRead, scopes.ScopePartnersReadOwn)
	write := authMiddleware.RequireScope(scopes.ScopePartnersWrite)

	partners := router.Group("/partners", authMiddleware.Authenticate())
	partners.Get("/", read, h.ListPartners)
	partners.Post("/", write, h.CreatePartner)
	partners.Get("/:id", read, h.GetPartner)
	partners.Put("/:id", write, h.UpdatePartner)

	requirements := router.Group("/requirements", authMiddleware.Authenticate())
	requirements.Get("/", read, h.ListRequirements)
	requirements.Post("/", write, h.CreateRequirement)
	requirements.Get("/:id", read, h.GetRequirement)
	requirements.Put("/:id", write, h.UpdateRequirement)

	invoices := router.Group("/invoices", authMiddleware.Authenticate())
	invoicesRead := authMiddleware.RequireScope(scopes.ScopeInvoicesRead)
	invoicesWrite := authMiddleware.RequireScope(scopes.ScopeInvoicesWrite)
	invoices.Get("/", invoicesRead, h.ListInvoices)
	invoices.Post("/", invoicesWrite, h.GenerateInvoice)
	invoices.Get("/:id", invoicesRead, h.GetInvoice)
	invoices.Get("/:id/sheet", invoicesRead, h.InvoiceSheet)
	invoices.Post("/:id/send", invoicesWrite, h.SendInvoice)
	invoices.Post("/:id/paid", invoicesWrite, h.MarkInvoicePaid)
	invoices.Delete("/:id", invoicesWrite, h.DeleteInvoice)
}

// ============================================================================
// Partners
// ============================================================================

// ListPartners ?status=ACTIVE&q=
func (h *PartnerHandlers) ListPartners(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var f partner.PartnerFilter
	if err := c.QueryParser(&f); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	partners, err := h.service.ListPartners(c.Context(), ac, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"partners": partners, "total": len(partners)})
}

func (h *PartnerHandlers) CreatePartner(c *fiber.Ctx) error {
	var req partner.PartnerRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	p, err := h.service.CreatePartner(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *PartnerHandlers) GetPartner(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	p, err := h.service.GetPartner(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *PartnerHandlers) UpdatePartner(c *fiber.Ctx) error {
	var req partner.PartnerRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	p, err := h.service.UpdatePartner(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// ============================================================================
// Requirements
// ============================================================================

// ListRequirements ?partner_id=&status=OPEN&role=&location=
func (h *PartnerHandlers) ListRequirements(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var f partner.RequirementFilter
	if err := c.QueryParser(&f); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	list, err := h.service.ListRequirements(c.Context(), ac, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"requirements": list, "total": len(list)})
}

func (h *PartnerHandlers) CreateRequirement(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req partner.RequirementRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	r, err := h.service.CreateRequirement(c.Context(), ac, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

func (h *PartnerHandlers) GetRequirement(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	r, err := h.service.GetRequirement(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(r)
}

func (h *PartnerHandlers) UpdateRequirement(c *fiber.Ctx) error {
	var req partner.RequirementUpdate
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	r, err := h.service.UpdateRequirement(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(r)
}

// ============================================================================
// Invoices
// ============================================================================

// ListInvoices ?partner_id=&period=2024-06&status=OVERDUE
func (h *PartnerHandlers) ListInvoices(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var f partner.InvoiceFilter
	if err := c.QueryParser(&f); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	list, err := h.service.ListInvoices(c.Context(), ac, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"invoices": list, "total": len(list)})
}

func (h *PartnerHandlers) GenerateInvoice(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req partner.InvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	inv, err := h.service.GenerateInvoice(c.Context(), ac, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

func (h *PartnerHandlers) GetInvoice(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	inv, err := h.service.GetInvoice(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (h *PartnerHandlers) InvoiceSheet(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	data, filename, err := h.service.InvoiceSheet(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, sheetx.ContentTypeXLSX)
	c.Attachment(filename)
	return c.Send(data)
}

func (h *PartnerHandlers) SendInvoice(c *fiber.Ctx) error {
	inv, err := h.service.SendInvoice(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (h *PartnerHandlers) MarkInvoicePaid(c *fiber.Ctx) error {
	inv, err := h.service.MarkInvoicePaid(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (h *PartnerHandlers) DeleteInvoice(c *fiber.Ctx) error {
	if err := h.service.DeleteInvoice(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
