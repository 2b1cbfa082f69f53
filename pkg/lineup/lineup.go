// Package lineup records the daily calls recruiters make to prospective candidates.
package lineup

import (
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/candidate"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
)

const Collection = "lineups"

type CallStatus string

const (
	CallInterested    CallStatus = "INTERESTED"
	CallNotInterested CallStatus = "NOT_INTERESTED"
	CallBack          CallStatus = "CALL_BACK"
	CallNotReachable  CallStatus = "NOT_REACHABLE"
	CallWrongNumber   CallStatus = "WRONG_NUMBER"
)

var CallStatuses = []CallStatus{CallInterested, CallNotInterested, CallBack, CallNotReachable, CallWrongNumber}

func (s CallStatus) IsValid() bool {
	for _, cs := range CallStatuses {
		if cs == s {
			return true
		}
	}
	return false
}

// ParseCallStatus accepts the enum value or its spreadsheet spelling ("Call back", "not-reachable")
func ParseCallStatus(s string) (CallStatus, bool) {
	r := strings.NewReplacer(" ", "_", "-", "_")
	cs := CallStatus(r.Replace(strings.ToUpper(strings.TrimSpace(s))))
	if cs == "CALLBACK" {
		cs = CallBack
	}
	return cs, cs.IsValid()
}

// ParseSource is lenient the same way, unknown values become OTHER
func ParseSource(s string) candidate.Source {
	r := strings.NewReplacer(" ", "_", "-", "_")
	src := candidate.Source(r.Replace(strings.ToUpper(strings.TrimSpace(s))))
	switch src {
	case "":
		return ""
	case "WALKIN":
		return candidate.SourceWalkIn
	}
	if !src.IsValid() {
		return candidate.SourceOther
	}
	return src
}

// Lineup is one call record
type Lineup struct {
	docstore.Meta
	CandidateName  string           `json:"candidate_name"`
	Phone          string           `json:"phone"`
	Email          string           `json:"email,omitempty"`
	Role           string           `json:"role"`
	Location       string           `json:"location"`
	Source         candidate.Source `json:"source,omitempty"`
	Experience     float64          `json:"experience"`
	CurrentSalary  float64          `json:"current_salary,omitempty"`
	ExpectedSalary float64          `json:"expected_salary,omitempty"`
	CallStatus     CallStatus       `json:"call_status"`
	CallBackAt     *time.Time       `json:"call_back_at,omitempty"`
	Remarks        string           `json:"remarks,omitempty"`
	InterviewAt    *time.Time       `json:"interview_at,omitempty"`
	JobID          string           `json:"job_id,omitempty"`
	RecruiterID    string           `json:"recruiter_id"`
	LineupDate     string           `json:"lineup_date"`
	CandidateID    string           `json:"candidate_id,omitempty"`
	PromotedAt     *time.Time       `json:"promoted_at,omitempty"`
}

func (l *Lineup) IsPromoted() bool {
	return l.CandidateID != ""
}

// ScheduleInterview sets the interview time of an interested caller
func (l *Lineup) ScheduleInterview(at, now time.Time) error {
	if l.CallStatus != CallInterested {
		return ErrNotInterested(l.CallStatus)
	}
	if !at.After(now) {
		return ErrInterviewInPast()
	}
	l.InterviewAt = &at
	return nil
}

func (l *Lineup) Matches(f Filter) bool {
	if f.Date != "" && l.LineupDate != f.Date {
		return false
	}
	if f.RecruiterID != "" && l.RecruiterID != f.RecruiterID {
		return false
	}
	if f.CallStatus != "" && l.CallStatus != f.CallStatus {
		return false
	}
	if f.Role != "" && !strings.EqualFold(l.Role, f.Role) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(l.Location, f.Location) {
		return false
	}
	return true
}

// ============================================================================
// Requests
// ============================================================================

type Filter struct {
	Date        string     `query:"date"`
	RecruiterID string     `query:"recruiter_id"`
	CallStatus  CallStatus `query:"call_status"`
	Role        string     `query:"role"`
	Location    string     `query:"location"`
}

type LineupRequest struct {
	CandidateName  string           `json:"candidate_name"`
	Phone          string           `json:"phone"`
	Email          string           `json:"email"`
	Role           string           `json:"role"`
	Location       string           `json:"location"`
	Source         candidate.Source `json:"source"`
	Experience     float64          `json:"experience"`
	CurrentSalary  float64          `json:"current_salary"`
	ExpectedSalary float64          `json:"expected_salary"`
	CallStatus     CallStatus       `json:"call_status"`
	CallBackAt     *time.Time       `json:"call_back_at"`
	Remarks        string           `json:"remarks"`
	JobID          string           `json:"job_id"`
	// LineupDate defaults to today
	LineupDate string `json:"lineup_date"`
}

type ScheduleRequest struct {
	InterviewAt time.Time `json:"interview_at"`
}

// RowResult is the outcome of one imported spreadsheet row. Row is 1-based, header included.
type RowResult struct {
	Row      int    `json:"row"`
	LineupID string `json:"lineup_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ImportResult struct {
	Total   int         `json:"total"`
	Created int         `json:"created"`
	Failed  int         `json:"failed"`
	Rows    []RowResult `json:"rows"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("LINEUP")

var (
	CodeLineupNotFound  = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Lineup not found")
	CodeInvalidLineup   = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Lineup is not valid")
	CodeInvalidPhone    = ErrRegistry.Register("INVALID_PHONE", errx.TypeValidation, http.StatusBadRequest, "Phone must have at least 10 digits")
	CodeDuplicatePhone  = ErrRegistry.Register("DUPLICATE_PHONE", errx.TypeConflict, http.StatusConflict, "This phone was already lined up recently")
	CodeNotInterested   = ErrRegistry.Register("NOT_INTERESTED", errx.TypeBusiness, http.StatusUnprocessableEntity, "Interviews can only be scheduled for interested callers")
	CodeInterviewInPast = ErrRegistry.Register("INTERVIEW_IN_PAST", errx.TypeValidation, http.StatusBadRequest, "Interview time must be in the future")
	CodeAlreadyPromoted = ErrRegistry.Register("ALREADY_PROMOTED", errx.TypeConflict, http.StatusConflict, "Lineup was already promoted to a candidate")
	CodeMissingColumn   = ErrRegistry.Register("MISSING_COLUMN", errx.TypeValidation, http.StatusBadRequest, "Spreadsheet is missing a required column")
)

func ErrLineupNotFound(id string) *errx.Error {
	return ErrRegistry.New(CodeLineupNotFound).WithDetail("lineup_id", id)
}

func ErrInvalidLineup(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidLineup).WithDetail("reason", reason)
}

func ErrInvalidPhone(phone string) *errx.Error {
	return ErrRegistry.New(CodeInvalidPhone).WithDetail("phone", phone)
}

func ErrDuplicatePhone(existingID string, lineupDate string) *errx.Error {
	return ErrRegistry.New(CodeDuplicatePhone).
		WithDetail("existing_lineup_id", existingID).
		WithDetail("lineup_date", lineupDate)
}

func ErrNotInterested(status CallStatus) *errx.Error {
	return ErrRegistry.New(CodeNotInterested).WithDetail("call_status", status)
}

func ErrInterviewInPast() *errx.Error {
	return ErrRegistry.New(CodeInterviewInPast)
}

func ErrAlreadyPromoted(candidateID string) *errx.Error {
	return ErrRegistry.New(CodeAlreadyPromoted).WithDetail("candidate_id", candidateID)
}

func ErrMissingColumn(column string) *errx.Error {
	return ErrRegistry.New(CodeMissingColumn).WithDetail("column", column)
}
