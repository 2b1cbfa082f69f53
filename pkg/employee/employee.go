// Package employee holds hired candidates deployed to stores.
package employee

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/kernel"
)

const Collection = "employees"

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusResigned   Status = "RESIGNED"
	StatusTerminated Status = "TERMINATED"
	StatusAbsconded  Status = "ABSCONDED"
)

// IsExit reports whether s ends employment
func (s Status) IsExit() bool {
	return s == StatusResigned || s == StatusTerminated || s == StatusAbsconded
}

// QuitsCandidate is true for exits initiated by the employee
func (s Status) QuitsCandidate() bool {
	return s == StatusResigned || s == StatusAbsconded
}

type Employee struct {
	docstore.Meta
	CandidateID string    `json:"candidate_id,omitempty"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email,omitempty"`
	Designation string    `json:"designation"`
	StoreID     string    `json:"store_id"`
	Location    string    `json:"location"`
	PartnerID   string    `json:"partner_id,omitempty"`
	JoiningDate time.Time `json:"joining_date"`
	AnnualCTC   float64   `json:"annual_ctc"`
	BankAccount string    `json:"bank_account,omitempty"`
	IFSC        string    `json:"ifsc,omitempty"`
	PhotoPath   string    `json:"photo_path,omitempty"`

	Status     Status     `json:"status"`
	ExitDate   *time.Time `json:"exit_date,omitempty"`
	ExitReason string     `json:"exit_reason,omitempty"`
	ExitedBy   string     `json:"exited_by,omitempty"`
}

func (e *Employee) IsActive() bool {
	return e.Status == StatusActive
}

// EmployedOn reports whether day falls between joining and exit, both inclusive
func (e *Employee) EmployedOn(day time.Time) bool {
	key := kernel.DayKey(day)
	if key < kernel.DayKey(e.JoiningDate) {
		return false
	}
	if e.ExitDate != nil && key > kernel.DayKey(*e.ExitDate) {
		return false
	}
	return true
}

// EmployedIn reports whether any day of m is an employed day
func (e *Employee) EmployedIn(m kernel.Month) bool {
	var exit time.Time
	if e.ExitDate != nil {
		exit = *e.ExitDate
	}
	return m.Overlaps(e.JoiningDate, exit)
}

// Exit ends employment on date
func (e *Employee) Exit(status Status, date time.Time, reason, by string) error {
	if !status.IsExit() {
		return ErrInvalidExitStatus(string(status))
	}
	if !e.IsActive() {
		return ErrNotActive(e.Status)
	}
	if kernel.DayKey(date) < kernel.DayKey(e.JoiningDate) {
		return ErrExitBeforeJoining()
	}
	d := kernel.Day(date)
	e.Status = status
	e.ExitDate = &d
	e.ExitReason = reason
	e.ExitedBy = by
	return nil
}

func (e *Employee) Matches(f Filter) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.StoreID != "" && e.StoreID != f.StoreID {
		return false
	}
	if f.PartnerID != "" && e.PartnerID != f.PartnerID {
		return false
	}
	if f.Location != "" && e.Location != f.Location {
		return false
	}
	return true
}

// ============================================================================
// Requests
// ============================================================================

type Filter struct {
	Status    Status `query:"status"`
	StoreID   string `query:"store_id"`
	PartnerID string `query:"partner_id"`
	Location  string `query:"location"`
}

// HireInput is what the pipeline hands over when a candidate is hired
type HireInput struct {
	CandidateID string
	Name        string
	Phone       string
	Email       string
	Designation string
	StoreID     string
	Location    string
	PartnerID   string
	JoiningDate time.Time
	AnnualCTC   float64
}

type UpdateRequest struct {
	Email       *string  `json:"email"`
	Phone       *string  `json:"phone"`
	Designation *string  `json:"designation"`
	StoreID     *string  `json:"store_id"`
	AnnualCTC   *float64 `json:"annual_ctc"`
	BankAccount *string  `json:"bank_account"`
	IFSC        *string  `json:"ifsc"`
}

type ExitRequest struct {
	Status Status `json:"status"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("EMPLOYEE")

var (
	CodeEmployeeNotFound  = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Employee not found")
	CodeNotActive         = ErrRegistry.Register("NOT_ACTIVE", errx.TypeBusiness, http.StatusUnprocessableEntity, "Employee is no longer active")
	CodeInvalidExitStatus = ErrRegistry.Register("INVALID_EXIT_STATUS", errx.TypeValidation, http.StatusBadRequest, "Exit status must be RESIGNED, TERMINATED or ABSCONDED")
	CodeExitBeforeJoining = ErrRegistry.Register("EXIT_BEFORE_JOINING", errx.TypeValidation, http.StatusBadRequest, "Exit date is before the joining date")
	CodeInvalidEmployee   = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Employee is not valid")
	CodeInvalidPhoto      = ErrRegistry.Register("INVALID_PHOTO", errx.TypeValidation, http.StatusBadRequest, "Photo must be a JPEG, PNG or WebP image")
	CodeNoPhoto           = ErrRegistry.Register("NO_PHOTO", errx.TypeNotFound, http.StatusNotFound, "Employee has no photo")
)

func ErrEmployeeNotFound(id string) *errx.Error {
	return ErrRegistry.New(CodeEmployeeNotFound).WithDetail("employee_id", id)
}

func ErrNotActive(status Status) *errx.Error {
	return ErrRegistry.New(CodeNotActive).WithDetail("status", status)
}

func ErrInvalidExitStatus(status string) *errx.Error {
	return ErrRegistry.New(CodeInvalidExitStatus).WithDetail("status", status)
}

func ErrExitBeforeJoining() *errx.Error {
	return ErrRegistry.New(CodeExitBeforeJoining)
}

func ErrInvalidEmployee(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidEmployee).WithDetail("reason", reason)
}

func ErrInvalidPhoto(err error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeInvalidPhoto, err)
}

func ErrNoPhoto() *errx.Error {
	return ErrRegistry.New(CodeNoPhoto)
}
