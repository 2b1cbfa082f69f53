package employeeapi

import (
	"io"

	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/employee/employeesrv"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/gofiber/fiber/v2"
)

// maxPhotoBytes caps photo uploads before decoding
const maxPhotoBytes = 8 << 20

type EmployeeHandlers struct {
	service *employeesrv.EmployeeService
}

func NewEmployeeHandlers(service *employeesrv.EmployeeService) *EmployeeHandlers {
	return &EmployeeHandlers{service: service}
}

func (h *EmployeeHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	employees := router.Group("/employees", authMiddleware.Authenticate())
	read := authMiddleware.RequireAnyScope(scopes.ScopeEmployeesRead, scopes.ScopeEmployeesReadStore)
	write := authMiddleware.RequireScope(scopes.ScopeEmployeesWrite)

	employees.Get("/", read, h.List)
	employees.Get("/:id", read, h.Get)
	employees.Put("/:id", write, h.Update)
	employees.Post("/:id/exit", write, h.Exit)
	employees.Post("/:id/photo", write, h.UploadPhoto)
	employees.Get("/:id/photo", read, h.Photo)
}

// List ?status=ACTIVE&store_id=&partner_id=&location=
func (h *EmployeeHandlers) List(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var f employee.Filter
	if err := c.QueryParser(&f); err != nil {
		return errx.New("invalid query", errx.TypeValidation)
	}
	employees, err := h.service.List(c.Context(), ac, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"employees": employees, "total": len(employees)})
}

func (h *EmployeeHandlers) Get(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	e, err := h.service.Get(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(e)
}

func (h *EmployeeHandlers) Update(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req employee.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	e, err := h.service.Update(c.Context(), ac, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(e)
}

func (h *EmployeeHandlers) Exit(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	var req employee.ExitRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	e, err := h.service.Exit(c.Context(), ac, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(e)
}

// UploadPhoto recibe la imagen en el campo multipart "photo"
func (h *EmployeeHandlers) UploadPhoto(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		return errx.New("photo is required", errx.TypeValidation)
	}
	if fh.Size > maxPhotoBytes {
		return errx.New("photo is too large", errx.TypeValidation).WithDetail("max_bytes", maxPhotoBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return errx.Wrap(err, "failed to open upload", errx.TypeInternal)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return errx.Wrap(err, "failed to read upload", errx.TypeInternal)
	}
	e, err := h.service.UploadPhoto(c.Context(), ac, c.Params("id"), raw)
	if err != nil {
		return err
	}
	return c.JSON(e)
}

func (h *EmployeeHandlers) Photo(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	data, err := h.service.Photo(c.Context(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.Send(data)
}
