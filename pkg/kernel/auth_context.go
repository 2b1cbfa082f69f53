package kernel

import "strings"

// Role is the kind of account using the back-office
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleHR         Role = "HR"
	RoleTeamLead   Role = "TEAM_LEAD"
	RoleTeam       Role = "TEAM"
	RolePartner    Role = "PARTNER"
	RoleCandidate  Role = "CANDIDATE"
	RoleSupervisor Role = "SUPERVISOR"
)

var validRoles = map[Role]bool{
	RoleAdmin:      true,
	RoleHR:         true,
	RoleTeamLead:   true,
	RoleTeam:       true,
	RolePartner:    true,
	RoleCandidate:  true,
	RoleSupervisor: true,
}

func (r Role) IsValid() bool { return validRoles[r] }

func (r Role) String() string { return string(r) }

// Links ties an account to the records it acts on behalf of
type Links struct {
	PartnerID   string `json:"partner_id,omitempty"`
	StoreID     string `json:"store_id,omitempty"`
	TeamLeadID  string `json:"team_lead_id,omitempty"`
	CandidateID string `json:"candidate_id,omitempty"`
}

// AuthContext is the authenticated principal of a request
type AuthContext struct {
	UserID *UserID  `json:"user_id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Role   Role     `json:"role"`
	Scopes []string `json:"scopes"`
	Links  Links    `json:"links"`
}

func (a *AuthContext) IsValid() bool {
	return a != nil && a.UserID != nil && !a.UserID.IsEmpty()
}

// Actor returns the user id as a plain string for audit fields
func (a *AuthContext) Actor() string {
	if a == nil || a.UserID == nil {
		return ""
	}
	return a.UserID.String()
}

// HasScope reports whether the context grants scope. "*" grants everything and
// "resource:*" grants every action on resource.
func (a *AuthContext) HasScope(scope string) bool {
	if a == nil {
		return false
	}
	for _, s := range a.Scopes {
		if MatchScope(s, scope) {
			return true
		}
	}
	return false
}

func (a *AuthContext) HasAnyScope(scopes ...string) bool {
	for _, s := range scopes {
		if a.HasScope(s) {
			return true
		}
	}
	return false
}

func (a *AuthContext) HasAllScopes(scopes ...string) bool {
	for _, s := range scopes {
		if !a.HasScope(s) {
			return false
		}
	}
	return true
}

// IsRole reports whether the principal has one of roles
func (a *AuthContext) IsRole(roles ...Role) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// MatchScope reports whether granted covers required
func MatchScope(granted, required string) bool {
	if granted == "*" || granted == required {
		return true
	}
	if strings.HasSuffix(granted, ":*") {
		prefix := strings.TrimSuffix(granted, "*")
		return strings.HasPrefix(required, prefix)
	}
	return false
}
