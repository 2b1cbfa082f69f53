// Package job holds job postings and their publishing lifecycle.
package job

import (
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
)

const Collection = "jobs"

type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusOpen   Status = "OPEN"
	StatusOnHold Status = "ON_HOLD"
	StatusClosed Status = "CLOSED"
)

var transitions = map[Status][]Status{
	StatusDraft:  {StatusOpen},
	StatusOpen:   {StatusOnHold, StatusClosed},
	StatusOnHold: {StatusOpen, StatusClosed},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusOpen, StatusOnHold, StatusClosed:
		return true
	}
	return false
}

// CanTransitionTo reports whether a job in s may move to next
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Job is a posting recruiters source candidates against
type Job struct {
	docstore.Meta
	Title         string   `json:"title"`
	Role          string   `json:"role"`
	Location      string   `json:"location"`
	StoreID       string   `json:"store_id,omitempty"`
	PartnerID     string   `json:"partner_id,omitempty"`
	RequirementID string   `json:"requirement_id,omitempty"`
	Openings      int      `json:"openings"`
	SalaryMin     float64  `json:"salary_min"`
	SalaryMax     float64  `json:"salary_max"`
	ExperienceMin int      `json:"experience_min"`
	ExperienceMax int      `json:"experience_max"`
	Description   string   `json:"description"`
	Skills        []string `json:"skills"`
	Status        Status   `json:"status"`
	CreatedBy     string   `json:"created_by"`

	OpenedAt *time.Time `json:"opened_at,omitempty"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}

// Transition moves the job to next, stamping open and close times
func (j *Job) Transition(next Status) error {
	if !next.IsValid() {
		return ErrInvalidStatus(string(next))
	}
	if !j.Status.CanTransitionTo(next) {
		return ErrInvalidTransition(j.Status, next)
	}
	now := time.Now()
	switch next {
	case StatusOpen:
		if j.OpenedAt == nil {
			j.OpenedAt = &now
		}
	case StatusClosed:
		j.ClosedAt = &now
	}
	j.Status = next
	return nil
}

func (j *Job) IsEditable() bool {
	return j.Status != StatusClosed
}

// Matches applies the list filter
func (j *Job) Matches(f Filter) bool {
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.Role != "" && !strings.EqualFold(j.Role, f.Role) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(j.Location, f.Location) {
		return false
	}
	if f.PartnerID != "" && j.PartnerID != f.PartnerID {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		if !strings.Contains(strings.ToLower(j.Title), strings.ToLower(q)) {
			return false
		}
	}
	return true
}

// ============================================================================
// Requests
// ============================================================================

type Filter struct {
	Status    Status `query:"status"`
	Role      string `query:"role"`
	Location  string `query:"location"`
	PartnerID string `query:"partner_id"`
	Query     string `query:"q"`
}

type JobRequest struct {
	Title         string   `json:"title"`
	Role          string   `json:"role"`
	Location      string   `json:"location"`
	StoreID       string   `json:"store_id"`
	PartnerID     string   `json:"partner_id"`
	RequirementID string   `json:"requirement_id"`
	Openings      int      `json:"openings"`
	SalaryMin     float64  `json:"salary_min"`
	SalaryMax     float64  `json:"salary_max"`
	ExperienceMin int      `json:"experience_min"`
	ExperienceMax int      `json:"experience_max"`
	Description   string   `json:"description"`
	Skills        []string `json:"skills"`
}

type TransitionRequest struct {
	Status Status `json:"status"`
}

// DraftRequest describes the posting to write a description for
type DraftRequest struct {
	Title    string   `json:"title"`
	Role     string   `json:"role"`
	Location string   `json:"location"`
	Skills   []string `json:"skills"`
	Notes    string   `json:"notes"`
}

type DraftResponse struct {
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("JOB")

var (
	CodeJobNotFound       = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Job not found")
	CodeInvalidStatus     = ErrRegistry.Register("INVALID_STATUS", errx.TypeValidation, http.StatusBadRequest, "Unknown job status")
	CodeInvalidTransition = ErrRegistry.Register("INVALID_TRANSITION", errx.TypeBusiness, http.StatusUnprocessableEntity, "Job cannot move to that status")
	CodeJobClosed         = ErrRegistry.Register("CLOSED", errx.TypeBusiness, http.StatusUnprocessableEntity, "Closed jobs cannot be edited")
	CodeInvalidJob        = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Job is not valid")
	CodeAIUnavailable     = ErrRegistry.Register("AI_UNAVAILABLE", errx.TypeExternal, http.StatusServiceUnavailable, "Description drafting is not configured")
	CodeDraftFailed       = ErrRegistry.Register("DRAFT_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to draft job description")
)

func ErrJobNotFound(id string) *errx.Error {
	return ErrRegistry.New(CodeJobNotFound).WithDetail("job_id", id)
}

func ErrInvalidStatus(status string) *errx.Error {
	return ErrRegistry.New(CodeInvalidStatus).WithDetail("status", status)
}

func ErrInvalidTransition(from, to Status) *errx.Error {
	return ErrRegistry.New(CodeInvalidTransition).WithDetail("from", from).WithDetail("to", to)
}

func ErrJobClosed() *errx.Error {
	return ErrRegistry.New(CodeJobClosed)
}

func ErrInvalidJob(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidJob).WithDetail("reason", reason)
}

func ErrAIUnavailable() *errx.Error {
	return ErrRegistry.New(CodeAIUnavailable)
}

func ErrDraftFailed(err error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeDraftFailed, err)
}
