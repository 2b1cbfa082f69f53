package attendanceapi

import (
	"github.com/Abraxas-365/hireline/pkg/attendance"
	"github.com/Abraxas-365/hireline/pkg/attendance/attendancesrv"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/sheetx"
	"github.com/gofiber/fiber/v2"
)

type AttendanceHandlers struct {
	service *attendancesrv.AttendanceService
}

func NewAttendanceHandlers(service *attendancesrv.AttendanceService) *AttendanceHandlers {
	return &AttendanceHandlers{service: service}
}

func (h *AttendanceHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	group := router.Group("/attendance", authMiddleware.Authenticate())
	read := authMiddleware.RequireScope(scopes.ScopeAttendanceRead)
	mark := authMiddleware.RequireScope(scopes.ScopeAttendanceMark)

	group.Get("/", read, h.Grid)
	group.Get("/day", read, h.Day)
	group.Get("/export", authMiddleware.RequireScope(scopes.ScopeAttendanceExport), h.Export)
	group.Post("/", mark, h.Mark)
	group.Post("/bulk", mark, h.MarkBulk)
}

// Grid ?month=2024-06&store_id=
func (h *AttendanceHandlers) Grid(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var q attendance.GridQuery
	if err := c.QueryParser(&q); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	g, err := h.service.Grid(c.Context(), ac, q)
	if err != nil {
		return err
	}
	return c.JSON(g)
}

// Day ?date=2024-06-10&store_id=
func (h *AttendanceHandlers) Day(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var q attendance.DayQuery
	if err := c.QueryParser(&q); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	records, err := h.service.Day(c.Context(), ac, q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"records": records, "total": len(records)})
}

func (h *AttendanceHandlers) Export(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var q attendance.GridQuery
	if err := c.QueryParser(&q); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	data, filename, err := h.service.Export(c.Context(), ac, q)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, sheetx.ContentTypeXLSX)
	c.Attachment(filename)
	return c.Send(data)
}

func (h *AttendanceHandlers) Mark(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req attendance.MarkRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	r, err := h.service.Mark(c.Context(), ac, req)
	if err != nil {
		return err
	}
	return c.JSON(r)
}

func (h *AttendanceHandlers) MarkBulk(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req attendance.BulkRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	res, err := h.service.MarkBulk(c.Context(), ac, req)
	if err != nil {
		return err
	}
	return c.JSON(res)
}
