// Package candidate is the recruitment pipeline a sourced person moves through until hire.
package candidate

import (
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
)

const Collection = "candidates"

type Status string

const (
	StatusSourced   Status = "SOURCED"
	StatusScreening Status = "SCREENING"
	StatusOnTheWay  Status = "ON_THE_WAY"
	StatusInterview Status = "INTERVIEW"
	StatusSelected  Status = "SELECTED"
	StatusOfferSent Status = "OFFER_SENT"
	StatusHired     Status = "HIRED"
	StatusRejected  Status = "REJECTED"
	StatusQuit      Status = "QUIT"
)

// Pipeline is the board column order
var Pipeline = []Status{
	StatusSourced,
	StatusScreening,
	StatusOnTheWay,
	StatusInterview,
	StatusSelected,
	StatusOfferSent,
	StatusHired,
	StatusRejected,
	StatusQuit,
}

var transitions = map[Status][]Status{
	StatusSourced:   {StatusScreening, StatusRejected, StatusQuit},
	StatusScreening: {StatusOnTheWay, StatusInterview, StatusRejected, StatusQuit},
	StatusOnTheWay:  {StatusInterview, StatusRejected, StatusQuit},
	StatusInterview: {StatusSelected, StatusRejected, StatusQuit},
	StatusSelected:  {StatusOfferSent, StatusHired, StatusRejected, StatusQuit},
	StatusOfferSent: {StatusHired, StatusRejected, StatusQuit},
	StatusHired:     {StatusQuit},
}

func (s Status) IsValid() bool {
	for _, p := range Pipeline {
		if p == s {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusQuit
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses lists the moves available from s
func (s Status) NextStatuses() []Status {
	return append([]Status(nil), transitions[s]...)
}

type Source string

const (
	SourcePortal   Source = "PORTAL"
	SourceReferral Source = "REFERRAL"
	SourceWalkIn   Source = "WALK_IN"
	SourceSocial   Source = "SOCIAL"
	SourceOther    Source = "OTHER"
)

func (s Source) IsValid() bool {
	switch s {
	case SourcePortal, SourceReferral, SourceWalkIn, SourceSocial, SourceOther:
		return true
	}
	return false
}

// StatusChange is one entry of the pipeline history
type StatusChange struct {
	From Status    `json:"from,omitempty"`
	To   Status    `json:"to"`
	By   string    `json:"by"`
	Note string    `json:"note,omitempty"`
	At   time.Time `json:"at"`
}

type Candidate struct {
	docstore.Meta
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email,omitempty"`
	Role           string   `json:"role"`
	Location       string   `json:"location"`
	Source         Source   `json:"source,omitempty"`
	Experience     float64  `json:"experience"`
	CurrentSalary  float64  `json:"current_salary,omitempty"`
	ExpectedSalary float64  `json:"expected_salary,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	Education      string   `json:"education,omitempty"`
	Address        string   `json:"address,omitempty"`
	Notes          string   `json:"notes,omitempty"`

	JobID       string `json:"job_id,omitempty"`
	PartnerID   string `json:"partner_id,omitempty"`
	RecruiterID string `json:"recruiter_id"`
	LineupID    string `json:"lineup_id,omitempty"`

	Status          Status         `json:"status"`
	History         []StatusChange `json:"history"`
	InterviewAt     *time.Time     `json:"interview_at,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	EmployeeID      string         `json:"employee_id,omitempty"`
	CVPath          string         `json:"cv_path,omitempty"`
}

// Transition moves the candidate to next and records it in the history.
// Rejections must carry a reason.
func (c *Candidate) Transition(next Status, by, note string) error {
	if !next.IsValid() {
		return ErrInvalidStatus(string(next))
	}
	if !c.Status.CanTransitionTo(next) {
		return ErrInvalidTransition(c.Status, next)
	}
	note = strings.TrimSpace(note)
	if next == StatusRejected {
		if note == "" {
			return ErrReasonRequired()
		}
		c.RejectionReason = note
	}
	c.record(next, by, note)
	return nil
}

func (c *Candidate) record(next Status, by, note string) {
	c.History = append(c.History, StatusChange{
		From: c.Status,
		To:   next,
		By:   by,
		Note: note,
		At:   time.Now(),
	})
	c.Status = next
}

// Start sets the initial status of a new candidate
func (c *Candidate) Start(status Status, by, note string) {
	c.Status = ""
	c.History = nil
	c.record(status, by, note)
}

// IsActive is true while the candidate is still in the pipeline
func (c *Candidate) IsActive() bool {
	return !c.Status.IsTerminal()
}

func (c *Candidate) Matches(f Filter) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Role != "" && !strings.EqualFold(c.Role, f.Role) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(c.Location, f.Location) {
		return false
	}
	if f.RecruiterID != "" && c.RecruiterID != f.RecruiterID {
		return false
	}
	if f.PartnerID != "" && c.PartnerID != f.PartnerID {
		return false
	}
	if f.JobID != "" && c.JobID != f.JobID {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(c.Phone, q) {
			return false
		}
	}
	return true
}

// ============================================================================
// Board
// ============================================================================

type BoardColumn struct {
	Status     Status       `json:"status"`
	Count      int          `json:"count"`
	Candidates []*Candidate `json:"candidates"`
}

// BuildBoard groups candidates into one column per pipeline status
func BuildBoard(candidates []*Candidate) []BoardColumn {
	byStatus := make(map[Status][]*Candidate, len(Pipeline))
	for _, c := range candidates {
		byStatus[c.Status] = append(byStatus[c.Status], c)
	}
	board := make([]BoardColumn, 0, len(Pipeline))
	for _, s := range Pipeline {
		col := byStatus[s]
		if col == nil {
			col = []*Candidate{}
		}
		board = append(board, BoardColumn{Status: s, Count: len(col), Candidates: col})
	}
	return board
}

// ============================================================================
// Requests
// ============================================================================

type Filter struct {
	Status      Status `query:"status"`
	Role        string `query:"role"`
	Location    string `query:"location"`
	RecruiterID string `query:"recruiter_id"`
	PartnerID   string `query:"partner_id"`
	JobID       string `query:"job_id"`
	Query       string `query:"q"`
}

type CreateRequest struct {
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	Location       string     `json:"location"`
	Source         Source     `json:"source"`
	Experience     float64    `json:"experience"`
	CurrentSalary  float64    `json:"current_salary"`
	ExpectedSalary float64    `json:"expected_salary"`
	Skills         []string   `json:"skills"`
	Education      string     `json:"education"`
	Address        string     `json:"address"`
	Notes          string     `json:"notes"`
	JobID          string     `json:"job_id"`
	LineupID       string     `json:"-"`
	RecruiterID    string     `json:"-"`
	InterviewAt    *time.Time `json:"interview_at"`
}

type UpdateRequest struct {
	Name           *string   `json:"name"`
	Email          *string   `json:"email"`
	Experience     *float64  `json:"experience"`
	CurrentSalary  *float64  `json:"current_salary"`
	ExpectedSalary *float64  `json:"expected_salary"`
	Skills         *[]string `json:"skills"`
	Education      *string   `json:"education"`
	Address        *string   `json:"address"`
	Notes          *string   `json:"notes"`
	Version        int64     `json:"version"`
}

type TransitionRequest struct {
	Status      Status     `json:"status"`
	Note        string     `json:"note"`
	InterviewAt *time.Time `json:"interview_at"`
	// Version, when set, must equal the stored version
	Version int64 `json:"version"`
}

type HireRequest struct {
	StoreID     string  `json:"store_id"`
	Designation string  `json:"designation"`
	JoiningDate string  `json:"joining_date"`
	AnnualCTC   float64 `json:"annual_ctc"`
	Version     int64   `json:"version"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("CANDIDATE")

var (
	CodeCandidateNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Candidate not found")
	CodeInvalidStatus     = ErrRegistry.Register("INVALID_STATUS", errx.TypeValidation, http.StatusBadRequest, "Unknown candidate status")
	CodeInvalidTransition = ErrRegistry.Register("INVALID_TRANSITION", errx.TypeBusiness, http.StatusUnprocessableEntity, "Candidate cannot move to that status")
	CodeReasonRequired    = ErrRegistry.Register("REASON_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "A rejection reason is required")
	CodeInvalidCandidate  = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Candidate is not valid")
	CodeDuplicatePhone    = ErrRegistry.Register("DUPLICATE_PHONE", errx.TypeConflict, http.StatusConflict, "An active candidate with this phone already exists")
	CodeNotHirable        = ErrRegistry.Register("NOT_HIRABLE", errx.TypeBusiness, http.StatusUnprocessableEntity, "Candidate must be selected or have an offer before hiring")
	CodeCVFailed          = ErrRegistry.Register("CV_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to generate CV")
)

func ErrCandidateNotFound(id string) *errx.Error {
	return ErrRegistry.New(CodeCandidateNotFound).WithDetail("candidate_id", id)
}

func ErrInvalidStatus(status string) *errx.Error {
	return ErrRegistry.New(CodeInvalidStatus).WithDetail("status", status)
}

func ErrInvalidTransition(from, to Status) *errx.Error {
	return ErrRegistry.New(CodeInvalidTransition).
		WithDetail("from", from).
		WithDetail("to", to).
		WithDetail("allowed", from.NextStatuses())
}

func ErrReasonRequired() *errx.Error {
	return ErrRegistry.New(CodeReasonRequired)
}

func ErrInvalidCandidate(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidCandidate).WithDetail("reason", reason)
}

func ErrDuplicatePhone(existingID string) *errx.Error {
	return ErrRegistry.New(CodeDuplicatePhone).WithDetail("candidate_id", existingID)
}

func ErrNotHirable(status Status) *errx.Error {
	return ErrRegistry.New(CodeNotHirable).WithDetail("status", status)
}

func ErrCVFailed(err error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeCVFailed, err)
}
