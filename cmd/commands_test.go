package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/hireline/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/panel"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
roles:
  - name: Picker
    description: Warehouse picking
  - name: Cashier
locations:
  - name: Chennai
    state: Tamil Nadu
stores:
  - name: Anna Nagar
    location: Chennai
`

func TestReadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	seed, err := readSeedFile(path)
	require.NoError(t, err)
	require.Len(t, seed.Roles, 2)
	assert.Equal(t, "Warehouse picking", seed.Roles[0].Description)
	assert.Equal(t, "Tamil Nadu", seed.Locations[0].State)
	assert.Equal(t, panel.Store{Name: "Anna Nagar", Location: "Chennai"}, seed.Stores[0])

	_, err = readSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCreateAdmin(t *testing.T) {
	users := usersrv.NewUserService(userinfra.NewMemoryUserRepository(), authinfra.NewBcryptPasswordService(4), 8)

	_, err := createAdmin(context.Background(), users, &createAdminOptions{email: "root@hireline.in", name: "Root"})
	assert.Error(t, err)

	u, err := createAdmin(context.Background(), users, &createAdminOptions{email: "Root@Hireline.in", name: "Root", password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, kernel.RoleAdmin, u.Role)
	assert.Equal(t, "root@hireline.in", u.Email)
	assert.Contains(t, u.Scopes(), scopes.ScopeAll)
}

func TestErrorHandlerShapesErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: globalErrorHandler(&config.Config{})})
	app.Get("/missing", func(c *fiber.Ctx) error { return panel.ErrItemNotFound("store", "s1") })
	app.Get("/boom", func(c *fiber.Ctx) error { return io.ErrUnexpectedEOF })
	app.Use(notFoundHandler)

	cases := []struct {
		path   string
		status int
		code   string
	}{
		{"/missing", fiber.StatusNotFound, panel.CodeItemNotFound},
		{"/boom", fiber.StatusInternalServerError, "INTERNAL_ERROR"},
		{"/nowhere", fiber.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			var body struct {
				Error map[string]any `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.code, body.Error["code"])
		})
	}
}

func TestStreamAccessCoversCollections(t *testing.T) {
	access := streamAccess()
	for _, name := range []string{panel.StoresCollection, "candidates", "payslips", "invoices", "complaints"} {
		assert.NotEmpty(t, access[name], name)
	}
}
