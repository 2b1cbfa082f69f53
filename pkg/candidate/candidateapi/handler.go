package candidateapi

import (
	"github.com/Abraxas-365/hireline/pkg/candidate"
	"github.com/Abraxas-365/hireline/pkg/candidate/candidatesrv"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/gofiber/fiber/v2"
)

type CandidateHandlers struct {
	service *candidatesrv.CandidateService
}

func NewCandidateHandlers(service *candidatesrv.CandidateService) *CandidateHandlers {
	return &CandidateHandlers{service: service}
}

func (h *CandidateHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	candidates := router.Group("/candidates", authMiddleware.Authenticate())
	read := authMiddleware.RequireAnyScope(scopes.ScopeCandidatesRead, scopes.ScopeCandidatesReadOwn)
	write := authMiddleware.RequireScope(scopes.ScopeCandidatesWrite)

	candidates.Get("/", read, h.List)
	candidates.Get("/board", read, h.Board)
	candidates.Post("/", write, h.Create)
	candidates.Get("/:id", read, h.Get)
	candidates.Put("/:id", write, h.Update)
	candidates.Post("/:id/status", authMiddleware.RequireAnyScope(scopes.ScopeCandidatesTransition, scopes.ScopeCandidatesWrite), h.Transition)
	candidates.Post("/:id/hire", authMiddleware.RequireScope(scopes.ScopeCandidatesHire), h.Hire)
	candidates.Post("/:id/cv", write, h.GenerateCV)
	candidates.Get("/:id/cv", read, h.DownloadCV)
}

// List ?status=&role=&location=&recruiter_id=&partner_id=&job_id=&q=
func (h *CandidateHandlers) List(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var f candidate.Filter
	if err := c.QueryParser(&f); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	list, err := h.service.List(c.Context(), ac, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"candidates": list, "total": len(list)})
}

func (h *CandidateHandlers) Board(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var f candidate.Filter
	if err := c.QueryParser(&f); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	board, err := h.service.Board(c.Context(), ac, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"columns": board})
}

func (h *CandidateHandlers) Create(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req candidate.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	created, err := h.service.CreateCandidate(c.Context(), ac, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *CandidateHandlers) Get(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	found, err := h.service.Get(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(found)
}

func (h *CandidateHandlers) Update(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req candidate.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	updated, err := h.service.Update(c.Context(), ac, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *CandidateHandlers) Transition(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req candidate.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	moved, err := h.service.Transition(c.Context(), ac, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(moved)
}

func (h *CandidateHandlers) Hire(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req candidate.HireRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	res, err := h.service.Hire(c.Context(), ac, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *CandidateHandlers) GenerateCV(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	out, err := h.service.GenerateCV(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *CandidateHandlers) DownloadCV(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	data, contentType, err := h.service.CV(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}
