package scopes

// ============================================================================
// RECRUITMENT SCOPES
// ============================================================================

const (
	// Job postings
	ScopeJobsAll   = "jobs:*"
	ScopeJobsRead  = "jobs:read"
	ScopeJobsWrite = "jobs:write"
	ScopeJobsDraft = "jobs:draft"

	// Daily lineups
	ScopeLineupsAll      = "lineups:*"
	ScopeLineupsRead     = "lineups:read"
	ScopeLineupsReadTeam = "lineups:read_team"
	ScopeLineupsReadOwn  = "lineups:read_own"
	ScopeLineupsWrite    = "lineups:write"
	ScopeLineupsImport   = "lineups:import"

	// Candidate pipeline
	ScopeCandidatesAll        = "candidates:*"
	ScopeCandidatesRead       = "candidates:read"
	ScopeCandidatesReadOwn    = "candidates:read_own"
	ScopeCandidatesWrite      = "candidates:write"
	ScopeCandidatesTransition = "candidates:transition"
	ScopeCandidatesHire       = "candidates:hire"

	// Employees
	ScopeEmployeesAll       = "employees:*"
	ScopeEmployeesRead      = "employees:read"
	ScopeEmployeesReadStore = "employees:read_store"
	ScopeEmployeesWrite     = "employees:write"

	// Attendance
	ScopeAttendanceAll    = "attendance:*"
	ScopeAttendanceRead   = "attendance:read"
	ScopeAttendanceMark   = "attendance:mark"
	ScopeAttendanceExport = "attendance:export"

	// Payroll
	ScopePayrollAll  = "payroll:*"
	ScopePayrollRead = "payroll:read"
	ScopePayrollRun  = "payroll:run"

	// Offer and warning letters
	ScopeLettersAll     = "letters:*"
	ScopeLettersRead    = "letters:read"
	ScopeLettersWrite   = "letters:write"
	ScopeLettersRespond = "letters:respond"

	// Partners, requirements and invoices
	ScopePartnersAll     = "partners:*"
	ScopePartnersRead    = "partners:read"
	ScopePartnersReadOwn = "partners:read_own"
	ScopePartnersWrite   = "partners:write"
	ScopeInvoicesAll     = "invoices:*"
	ScopeInvoicesRead    = "invoices:read"
	ScopeInvoicesWrite   = "invoices:write"

	// Complaints
	ScopeComplaintsAll    = "complaints:*"
	ScopeComplaintsRead   = "complaints:read"
	ScopeComplaintsCreate = "complaints:create"
	ScopeComplaintsWrite  = "complaints:write"
)

// DomainScopeCategories organizes recruitment scopes
var DomainScopeCategories = map[string][]string{
	"Jobs": {
		ScopeJobsAll, ScopeJobsRead, ScopeJobsWrite, ScopeJobsDraft,
	},
	"Lineups": {
		ScopeLineupsAll, ScopeLineupsRead, ScopeLineupsReadTeam, ScopeLineupsReadOwn,
		ScopeLineupsWrite, ScopeLineupsImport,
	},
	"Candidates": {
		ScopeCandidatesAll, ScopeCandidatesRead, ScopeCandidatesReadOwn,
		ScopeCandidatesWrite, ScopeCandidatesTransition, ScopeCandidatesHire,
	},
	"Employees": {
		ScopeEmployeesAll, ScopeEmployeesRead, ScopeEmployeesReadStore, ScopeEmployeesWrite,
	},
	"Attendance": {
		ScopeAttendanceAll, ScopeAttendanceRead, ScopeAttendanceMark, ScopeAttendanceExport,
	},
	"Payroll": {
		ScopePayrollAll, ScopePayrollRead, ScopePayrollRun,
	},
	"Letters": {
		ScopeLettersAll, ScopeLettersRead, ScopeLettersWrite, ScopeLettersRespond,
	},
	"Partners": {
		ScopePartnersAll, ScopePartnersRead, ScopePartnersReadOwn, ScopePartnersWrite,
		ScopeInvoicesAll, ScopeInvoicesRead, ScopeInvoicesWrite,
	},
	"Complaints": {
		ScopeComplaintsAll, ScopeComplaintsRead, ScopeComplaintsCreate, ScopeComplaintsWrite,
	},
}

var DomainScopeDescriptions = map[string]string{
	ScopeJobsAll:   "Full job posting management",
	ScopeJobsRead:  "View job postings",
	ScopeJobsWrite: "Create and update job postings",
	ScopeJobsDraft: "Generate job descriptions",

	ScopeLineupsAll:      "Full lineup management",
	ScopeLineupsRead:     "View every lineup",
	ScopeLineupsReadTeam: "View lineups of the caller's team",
	ScopeLineupsReadOwn:  "View lineups the caller created",
	ScopeLineupsWrite:    "Record calls, schedule interviews and promote lineups",
	ScopeLineupsImport:   "Bulk import lineups from spreadsheets",

	ScopeCandidatesAll:        "Full candidate management",
	ScopeCandidatesRead:       "View every candidate",
	ScopeCandidatesReadOwn:    "View candidates linked to the caller",
	ScopeCandidatesWrite:      "Create and edit candidates",
	ScopeCandidatesTransition: "Move candidates through the pipeline",
	ScopeCandidatesHire:       "Hire candidates",

	ScopeEmployeesAll:       "Full employee management",
	ScopeEmployeesRead:      "View every employee",
	ScopeEmployeesReadStore: "View employees of the caller's store",
	ScopeEmployeesWrite:     "Edit employees, upload photos and record exits",

	ScopeAttendanceAll:    "Full attendance management",
	ScopeAttendanceRead:   "View attendance",
	ScopeAttendanceMark:   "Mark attendance",
	ScopeAttendanceExport: "Export attendance grids",

	ScopePayrollAll:  "Full payroll management",
	ScopePayrollRead: "View payslips and breakdowns",
	ScopePayrollRun:  "Run, finalize and pay payroll",

	ScopeLettersAll:     "Full letter management",
	ScopeLettersRead:    "View and download letters",
	ScopeLettersWrite:   "Generate offer and warning letters",
	ScopeLettersRespond: "Accept or decline an own offer letter",

	ScopePartnersAll:     "Full partner management",
	ScopePartnersRead:    "View partners and requirements",
	ScopePartnersReadOwn: "View the caller's own partner records",
	ScopePartnersWrite:   "Maintain partners and requirements",
	ScopeInvoicesAll:     "Full invoice management",
	ScopeInvoicesRead:    "View invoices",
	ScopeInvoicesWrite:   "Generate and update invoices",

	ScopeComplaintsAll:    "Full complaint management",
	ScopeComplaintsRead:   "View complaints",
	ScopeComplaintsCreate: "Raise complaints",
	ScopeComplaintsWrite:  "Assign, progress and resolve complaints",
}
