// Package panel holds the admin maintained lookup lists: job roles, locations and stores.
package panel

import (
	"net/http"
	"strings"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
)

const (
	RolesCollection     = "panel_roles"
	LocationsCollection = "panel_locations"
	StoresCollection    = "panel_stores"
)

// JobRole is a designation offered to candidates
type JobRole struct {
	docstore.Meta
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
}

type Location struct {
	docstore.Meta
	Name  string `json:"name" yaml:"name"`
	State string `json:"state,omitempty" yaml:"state"`
}

// Store is a client outlet where employees are deployed
type Store struct {
	docstore.Meta
	Name         string `json:"name" yaml:"name"`
	Location     string `json:"location" yaml:"location"`
	Address      string `json:"address,omitempty" yaml:"address"`
	SupervisorID string `json:"supervisor_id,omitempty" yaml:"supervisor_id"`
}

// SameName compares names the way uniqueness is enforced
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ============================================================================
// Requests
// ============================================================================

type RoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LocationRequest struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

type StoreRequest struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	Address      string `json:"address"`
	SupervisorID string `json:"supervisor_id"`
}

// SeedFile is the YAML layout accepted by seed-panel
type SeedFile struct {
	Roles     []JobRole  `yaml:"roles"`
	Locations []Location `yaml:"locations"`
	Stores    []Store    `yaml:"stores"`
}

type SeedResult struct {
	Roles     int `json:"roles"`
	Locations int `json:"locations"`
	Stores    int `json:"stores"`
	Skipped   int `json:"skipped"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("PANEL")

var (
	CodeItemNotFound    = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Panel item not found")
	CodeDuplicateName   = ErrRegistry.Register("DUPLICATE_NAME", errx.TypeConflict, http.StatusConflict, "An item with this name already exists")
	CodeNameRequired    = ErrRegistry.Register("NAME_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "Name is required")
	CodeUnknownRole     = ErrRegistry.Register("UNKNOWN_ROLE", errx.TypeValidation, http.StatusBadRequest, "Role is not configured in the panel")
	CodeUnknownLocation = ErrRegistry.Register("UNKNOWN_LOCATION", errx.TypeValidation, http.StatusBadRequest, "Location is not configured in the panel")
	CodeUnknownStore    = ErrRegistry.Register("UNKNOWN_STORE", errx.TypeValidation, http.StatusBadRequest, "Store is not configured in the panel")
	CodeLocationInUse   = ErrRegistry.Register("LOCATION_IN_USE", errx.TypeBusiness, http.StatusConflict, "Location is still used by a store")
)

func ErrItemNotFound(kind, id string) *errx.Error {
	return ErrRegistry.New(CodeItemNotFound).WithDetail("kind", kind).WithDetail("id", id)
}

func ErrDuplicateName(name string) *errx.Error {
	return ErrRegistry.New(CodeDuplicateName).WithDetail("name", name)
}

func ErrNameRequired() *errx.Error {
	return ErrRegistry.New(CodeNameRequired)
}

func ErrUnknownRole(name string) *errx.Error {
	return ErrRegistry.New(CodeUnknownRole).WithDetail("role", name)
}

func ErrUnknownLocation(name string) *errx.Error {
	return ErrRegistry.New(CodeUnknownLocation).WithDetail("location", name)
}

func ErrUnknownStore(id string) *errx.Error {
	return ErrRegistry.New(CodeUnknownStore).WithDetail("store_id", id)
}

func ErrLocationInUse(name string, stores int) *errx.Error {
	return ErrRegistry.New(CodeLocationInUse).WithDetail("location", name).WithDetail("stores", stores)
}
