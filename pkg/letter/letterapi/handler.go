package letterapi

import (
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/letter"
	"github.com/Abraxas-365/hireline/pkg/letter/lettersrv"
	"github.com/gofiber/fiber/v2"
)

type LetterHandlers struct {
	service *lettersrv.LetterService
}

func NewLetterHandlers(service *lettersrv.LetterService) *LetterHandlers {
	return &LetterHandlers{service: service}
}

func (h *LetterHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	letters := router.Group("/letters", authMiddleware.Authenticate())
	write := authMiddleware.RequireScope(scopes.ScopeLettersWrite)
	read := authMiddleware.RequireScope(scopes.ScopeLettersRead)
	// candidates read and answer their own offers
	own := authMiddleware.RequireAnyScope(scopes.ScopeLettersRead, scopes.ScopeLettersRespond)

	offers := letters.Group("/offers")
	offers.Get("/", own, h.ListOffers)
	offers.Post("/", write, h.CreateOffer)
	offers.Get("/:id", own, h.GetOffer)
	offers.Put("/:id", write, h.RegenerateOffer)
	offers.Post("/:id/respond", authMiddleware.RequireAnyScope(scopes.ScopeLettersWrite, scopes.ScopeLettersRespond), h.RespondOffer)
	offers.Get("/:id/file", own, h.OfferFile)

	warnings := letters.Group("/warnings")
	warnings.Get("/", read, h.ListWarnings)
	warnings.Post("/", write, h.IssueWarning)
	warnings.Get("/:id", read, h.GetWarning)
	warnings.Get("/:id/file", read, h.WarningFile)
}

// ============================================================================
// Offers
// ============================================================================

func (h *LetterHandlers) CreateOffer(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req letter.OfferRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	o, err := h.service.CreateOffer(c.Context(), ac, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(o)
}

// ListOffers ?candidate_id=&status=GENERATED
func (h *LetterHandlers) ListOffers(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var f letter.OfferFilter
	if err := c.QueryParser(&f); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	offers, err := h.service.ListOffers(c.Context(), ac, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"offers": offers, "total": len(offers)})
}

func (h *LetterHandlers) GetOffer(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	o, err := h.service.GetOffer(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(o)
}

func (h *LetterHandlers) RegenerateOffer(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req letter.OfferRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	o, err := h.service.RegenerateOffer(c.Context(), ac, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(o)
}

func (h *LetterHandlers) RespondOffer(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req letter.RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	o, err := h.service.RespondOffer(c.Context(), ac, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(o)
}

func (h *LetterHandlers) OfferFile(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	data, contentType, name, err := h.service.OfferFile(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return send(c, data, contentType, name)
}

// ============================================================================
// Warnings
// ============================================================================

func (h *LetterHandlers) IssueWarning(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req letter.WarningRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	w, err := h.service.IssueWarning(c.Context(), ac, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(w)
}

// ListWarnings ?employee_id=&level=FINAL
func (h *LetterHandlers) ListWarnings(c *fiber.Ctx) error {
	var f letter.WarningFilter
	if err := c.QueryParser(&f); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	warnings, err := h.service.ListWarnings(c.Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"warnings": warnings, "total": len(warnings)})
}

func (h *LetterHandlers) GetWarning(c *fiber.Ctx) error {
	w, err := h.service.GetWarning(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(w)
}

func (h *LetterHandlers) WarningFile(c *fiber.Ctx) error {
	data, contentType, name, err := h.service.WarningFile(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return send(c, data, contentType, name)
}

func send(c *fiber.Ctx, data []byte, contentType, name string) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+name+`"`)
	return c.Send(data)
}
