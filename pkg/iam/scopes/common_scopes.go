package scopes

// ============================================================================
// COMMON SCOPES - Platform administration
// ============================================================================

const (
	// Super scope - full access to everything
	ScopeAll = "*"

	// User management scopes
	ScopeUsersAll    = "users:*"
	ScopeUsersRead   = "users:read"
	ScopeUsersWrite  = "users:write"
	ScopeUsersInvite = "users:invite"

	// Panel config scopes (roles, locations, stores)
	ScopePanelAll   = "panel:*"
	ScopePanelRead  = "panel:read"
	ScopePanelWrite = "panel:write"

	// Dashboard
	ScopeDashboardView = "dashboard:view"
)

// CommonScopeCategories organizes common scopes by area
var CommonScopeCategories = map[string][]string{
	"Administration": {
		ScopeAll,
	},
	"Users": {
		ScopeUsersAll,
		ScopeUsersRead,
		ScopeUsersWrite,
		ScopeUsersInvite,
	},
	"Panel Config": {
		ScopePanelAll,
		ScopePanelRead,
		ScopePanelWrite,
	},
	"Dashboard": {
		ScopeDashboardView,
	},
}

// CommonScopeDescriptions provides human-readable descriptions
var CommonScopeDescriptions = map[string]string{
	ScopeAll: "Full access to every resource",

	ScopeUsersAll:    "Full user management",
	ScopeUsersRead:   "View users",
	ScopeUsersWrite:  "Create, update, suspend users and change roles",
	ScopeUsersInvite: "Invite new users",

	ScopePanelAll:   "Full panel config management",
	ScopePanelRead:  "View roles, locations and stores",
	ScopePanelWrite: "Maintain roles, locations and stores",

	ScopeDashboardView: "View the role dashboard",
}
