package statsapi

import (
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/stats/statssrv"
	"github.com/gofiber/fiber/v2"
)

type DashboardHandlers struct {
	service *statssrv.DashboardService
}

func NewDashboardHandlers(service *statssrv.DashboardService) *DashboardHandlers {
	return &DashboardHandlers{service: service}
}

func (h *DashboardHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	router.Get("/dashboard", authMiddleware.Authenticate(), authMiddleware.RequireScope(scopes.ScopeDashboardView), h.Dashboard)
}

// Dashboard devuelve la vista del rol del usuario
func (h *DashboardHandlers) Dashboard(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	d, err := h.service.Dashboard(c.Context(), ac)
	if err != nil {
		return err
	}
	return c.JSON(d)
}
