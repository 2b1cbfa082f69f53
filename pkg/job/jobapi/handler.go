package jobapi

import (
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/job"
	"github.com/Abraxas-365/hireline/pkg/job/jobsrv"
	"github.com/gofiber/fiber/v2"
)

type JobHandlers struct {
	service *jobsrv.JobService
}

func NewJobHandlers(service *jobsrv.JobService) *JobHandlers {
	return &JobHandlers{service: service}
}

func (h *JobHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	jobs := router.Group("/jobs", authMiddleware.Authenticate())
	write := authMiddleware.RequireScope(scopes.ScopeJobsWrite)

	jobs.Get("/", authMiddleware.RequireAnyScope(scopes.ScopeJobsRead, scopes.ScopePartnersReadOwn), h.List)
	jobs.Post("/draft", authMiddleware.RequireScope(scopes.ScopeJobsDraft), h.Draft)
	jobs.Get("/:id", authMiddleware.RequireScope(scopes.ScopeJobsRead), h.Get)
	jobs.Post("/", write, h.Create)
	jobs.Put("/:id", write, h.Update)
	jobs.Post("/:id/status", write, h.Transition)
	jobs.Delete("/:id", write, h.Delete)
}

// List ?status=OPEN&role=&location=&partner_id=&q=
func (h *JobHandlers) List(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var f job.Filter
	if err := c.QueryParser(&f); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	jobs, err := h.service.List(c.Context(), ac, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"jobs": jobs, "total": len(jobs)})
}

func (h *JobHandlers) Get(c *fiber.Ctx) error {
	j, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(j)
}

func (h *JobHandlers) Create(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req job.JobRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	j, err := h.service.Create(c.Context(), ac, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(j)
}

func (h *JobHandlers) Update(c *fiber.Ctx) error {
	var req job.JobRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	j, err := h.service.Update(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(j)
}

func (h *JobHandlers) Transition(c *fiber.Ctx) error {
	var req job.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	j, err := h.service.Transition(c.Context(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(j)
}

func (h *JobHandlers) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *JobHandlers) Draft(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req job.DraftRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	out, err := h.service.Draft(c.Context(), ac, req)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
