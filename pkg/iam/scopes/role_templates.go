package scopes

import "github.com/Abraxas-365/hireline/pkg/kernel"

// RoleScopeGroups are the scope templates granted to each role
var RoleScopeGroups = map[string][]string{
	string(kernel.RoleAdmin): {
		ScopeAll,
	},
	string(kernel.RoleHR): {
		ScopeUsersRead, ScopeUsersInvite,
		ScopePanelRead,
		ScopeDashboardView,
		ScopeJobsAll,
		ScopeLineupsRead,
		ScopeCandidatesAll,
		ScopeEmployeesAll,
		ScopeAttendanceAll,
		ScopePayrollAll,
		ScopeLettersRead, ScopeLettersWrite,
		ScopePartnersRead,
		ScopeInvoicesRead,
		ScopeComplaintsAll,
	},
	string(kernel.RoleTeamLead): {
		ScopePanelRead,
		ScopeDashboardView,
		ScopeJobsRead,
		ScopeLineupsReadTeam, ScopeLineupsReadOwn, ScopeLineupsWrite, ScopeLineupsImport,
		ScopeCandidatesRead, ScopeCandidatesWrite, ScopeCandidatesTransition,
	},
	string(kernel.RoleTeam): {
		ScopePanelRead,
		ScopeDashboardView,
		ScopeJobsRead,
		ScopeLineupsReadOwn, ScopeLineupsWrite,
		ScopeCandidatesReadOwn, ScopeCandidatesWrite,
	},
	string(kernel.RolePartner): {
		ScopeDashboardView,
		ScopePartnersReadOwn,
		ScopeCandidatesReadOwn,
		ScopeInvoicesRead,
	},
	string(kernel.RoleCandidate): {
		ScopeDashboardView,
		ScopeCandidatesReadOwn,
		ScopeLettersRespond,
	},
	string(kernel.RoleSupervisor): {
		ScopePanelRead,
		ScopeDashboardView,
		ScopeEmployeesReadStore,
		ScopeAttendanceRead, ScopeAttendanceMark,
		ScopeComplaintsCreate, ScopeComplaintsRead,
	},
}

// ForRole returns the scope template of role, empty for unknown roles
func ForRole(role kernel.Role) []string {
	return GetScopesByGroup(string(role))
}
