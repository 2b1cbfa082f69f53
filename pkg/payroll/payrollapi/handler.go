package payrollapi

import (
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/payroll"
	"github.com/Abraxas-365/hireline/pkg/payroll/payrollsrv"
	"github.com/Abraxas-365/hireline/pkg/sheetx"
	"github.com/gofiber/fiber/v2"
)

type PayrollHandlers struct {
	service *payrollsrv.PayrollService
}

func NewPayrollHandlers(service *payrollsrv.PayrollService) *PayrollHandlers {
	return &PayrollHandlers{service: service}
}

func (h *PayrollHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	group := router.Group("/payroll", authMiddleware.Authenticate())
	read := authMiddleware.RequireScope(scopes.ScopePayrollRead)
	run := authMiddleware.RequireScope(scopes.ScopePayrollRun)

	group.Post("/breakdown", read, h.Breakdown)
	group.Post("/run", run, h.Run)
	group.Get("/register", read, h.Register)
	group.Get("/payslips", read, h.List)
	group.Get("/payslips/:id", read, h.Get)
	group.Put("/payslips/:id/adjustments", run, h.Adjust)
	group.Post("/payslips/:id/finalize", run, h.Finalize)
	group.Post("/payslips/:id/paid", run, h.MarkPaid)
}

func (h *PayrollHandlers) Breakdown(c *fiber.Ctx) error {
	var req payroll.BreakdownRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	b, err := h.service.Breakdown(req.AnnualCTC)
	if err != nil {
		return err
	}
	return c.JSON(b)
}

func (h *PayrollHandlers) Run(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req payroll.RunRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	res, err := h.service.Run(c.Context(), ac, req)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// List ?month=2024-06&employee_id=&store_id=&status=
func (h *PayrollHandlers) List(c *fiber.Ctx) error {
	var f payroll.Filter
	if err := c.QueryParser(&f); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	list, err := h.service.List(c.Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payslips": list, "total": len(list)})
}

func (h *PayrollHandlers) Get(c *fiber.Ctx) error {
	p, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *PayrollHandlers) Adjust(c *fiber.Ctx) error {
	var req payroll.Adjustments
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	p, err := h.service.Adjust(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *PayrollHandlers) Finalize(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	p, err := h.service.Finalize(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *PayrollHandlers) MarkPaid(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	p, err := h.service.MarkPaid(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// Register ?month=2024-06
func (h *PayrollHandlers) Register(c *fiber.Ctx) error {
	data, filename, err := h.service.Register(c.Context(), c.Query("month"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, sheetx.ContentTypeXLSX)
	c.Attachment(filename)
	return c.Send(data)
}
