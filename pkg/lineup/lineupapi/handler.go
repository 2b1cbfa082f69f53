package lineupapi

import (
	"io"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/lineup"
	"github.com/Abraxas-365/hireline/pkg/lineup/lineupsrv"
	"github.com/gofiber/fiber/v2"
)

type LineupHandlers struct {
	service *lineupsrv.LineupService
}

func NewLineupHandlers(service *lineupsrv.LineupService) *LineupHandlers {
	return &LineupHandlers{service: service}
}

func (h *LineupHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	lineups := router.Group("/lineups", authMiddleware.Authenticate())
	read := authMiddleware.RequireAnyScope(scopes.ScopeLineupsRead, scopes.ScopeLineupsReadTeam, scopes.ScopeLineupsReadOwn)
	write := authMiddleware.RequireScope(scopes.ScopeLineupsWrite)

	lineups.Get("/", read, h.List)
	lineups.Post("/import", authMiddleware.RequireScope(scopes.ScopeLineupsImport), h.Import)
	lineups.Get("/:id", read, h.Get)
	lineups.Post("/", write, h.Create)
	lineups.Put("/:id", write, h.Update)
	lineups.Delete("/:id", write, h.Delete)
	lineups.Post("/:id/interview", write, h.ScheduleInterview)
	lineups.Post("/:id/promote", write, authMiddleware.RequireScope(scopes.ScopeCandidatesWrite), h.Promote)
}

// List ?date=2024-06-10&recruiter_id=&call_status=&role=&location=
func (h *LineupHandlers) List(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var f lineup.Filter
	if err := c.QueryParser(&f); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	lineups, err := h.service.List(c.Context(), ac, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"lineups": lineups, "total": len(lineups)})
}

func (h *LineupHandlers) Get(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	l, err := h.service.Get(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(l)
}

func (h *LineupHandlers) Create(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req lineup.LineupRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	l, err := h.service.Create(c.Context(), ac, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(l)
}

func (h *LineupHandlers) Update(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req lineup.LineupRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	l, err := h.service.Update(c.Context(), ac, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(l)
}

func (h *LineupHandlers) Delete(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Context(), ac, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *LineupHandlers) ScheduleInterview(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req lineup.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	l, err := h.service.ScheduleInterview(c.Context(), ac, c.Params("id"), req.InterviewAt)
	if err != nil {
		return err
	}
	return c.JSON(l)
}

func (h *LineupHandlers) Promote(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	cand, err := h.service.Promote(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(cand)
}

// Import recibe el archivo en el campo multipart "file" (.xlsx o .xls)
func (h *LineupHandlers) Import(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return errx.New("file is required", errx.TypeValidation)
	}
	f, err := fh.Open()
	if err != nil {
		return errx.Wrap(err, "failed to open upload", errx.TypeInternal)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errx.Wrap(err, "failed to read upload", errx.TypeInternal)
	}

	result, err := h.service.Import(c.Context(), ac, data, fh.Filename)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
