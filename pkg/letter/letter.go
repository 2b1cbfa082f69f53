// Package letter issues offer letters to selected candidates and warning letters to employees.
package letter

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/payroll"
)

const (
	OfferCollection   = "offer_letters"
	WarningCollection = "warning_letters"
)

type OfferStatus string

const (
	OfferGenerated OfferStatus = "GENERATED"
	OfferAccepted  OfferStatus = "ACCEPTED"
	OfferDeclined  OfferStatus = "DECLINED"
)

type OfferLetter struct {
	docstore.Meta
	Reference     string            `json:"reference"`
	CandidateID   string            `json:"candidate_id"`
	CandidateName string            `json:"candidate_name"`
	Address       string            `json:"address,omitempty"`
	Designation   string            `json:"designation"`
	StoreID       string            `json:"store_id"`
	StoreName     string            `json:"store_name"`
	Location      string            `json:"location"`
	JoiningDate   time.Time         `json:"joining_date"`
	AnnualCTC     float64           `json:"annual_ctc"`
	Breakdown     payroll.Breakdown `json:"breakdown"`
	FilePath      string            `json:"file_path"`
	GeneratedBy   string            `json:"generated_by"`

	Status       OfferStatus `json:"status"`
	RespondedBy  string      `json:"responded_by,omitempty"`
	RespondedAt  *time.Time  `json:"responded_at,omitempty"`
	ResponseNote string      `json:"response_note,omitempty"`
}

// Respond records the candidate's answer to a generated offer
func (o *OfferLetter) Respond(status OfferStatus, by, note string, at time.Time) error {
	if status != OfferAccepted && status != OfferDeclined {
		return ErrInvalidResponse(status)
	}
	if o.Status != OfferGenerated {
		return ErrNotGenerated(o.Status)
	}
	o.Status = status
	o.RespondedBy = by
	o.RespondedAt = &at
	o.ResponseNote = strings.TrimSpace(note)
	return nil
}

type WarningLevel string

const (
	LevelFirst  WarningLevel = "FIRST"
	LevelSecond WarningLevel = "SECOND"
	LevelFinal  WarningLevel = "FINAL"
)

// LevelFor is the level of a warning given the number issued before it
func LevelFor(previous int) WarningLevel {
	switch {
	case previous <= 0:
		return LevelFirst
	case previous == 1:
		return LevelSecond
	}
	return LevelFinal
}

type WarningLetter struct {
	docstore.Meta
	Reference    string       `json:"reference"`
	EmployeeID   string       `json:"employee_id"`
	EmployeeName string       `json:"employee_name"`
	Designation  string       `json:"designation"`
	StoreID      string       `json:"store_id"`
	Level        WarningLevel `json:"level"`
	Reason       string       `json:"reason"`
	Description  string       `json:"description"`
	FilePath     string       `json:"file_path"`
	IssuedBy     string       `json:"issued_by"`
}

// Reference builds a printable letter number like OL-202406-1A2B3C4D
func Reference(prefix string, at time.Time, id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("200601"), strings.ToUpper(short))
}

// ============================================================================
// Requests
// ============================================================================

type OfferRequest struct {
	CandidateID string  `json:"candidate_id"`
	Designation string  `json:"designation"`
	StoreID     string  `json:"store_id"`
	JoiningDate string  `json:"joining_date"`
	AnnualCTC   float64 `json:"annual_ctc"`
}

type RespondRequest struct {
	Status OfferStatus `json:"status"`
	Note   string      `json:"note"`
}

type OfferFilter struct {
	CandidateID string      `query:"candidate_id"`
	Status      OfferStatus `query:"status"`
}

type WarningRequest struct {
	EmployeeID  string `json:"employee_id"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

type WarningFilter struct {
	EmployeeID string       `query:"employee_id"`
	Level      WarningLevel `query:"level"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("LETTER")

var (
	CodeLetterNotFound  = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Letter not found")
	CodeNotSelected     = ErrRegistry.Register("NOT_SELECTED", errx.TypeBusiness, http.StatusUnprocessableEntity, "Offer letters are issued to selected candidates only")
	CodeNotGenerated    = ErrRegistry.Register("NOT_GENERATED", errx.TypeBusiness, http.StatusUnprocessableEntity, "Offer letter was already answered")
	CodeOfferSettled    = ErrRegistry.Register("OFFER_SETTLED", errx.TypeBusiness, http.StatusUnprocessableEntity, "Candidate has already moved past this offer")
	CodeInvalidResponse = ErrRegistry.Register("INVALID_RESPONSE", errx.TypeValidation, http.StatusBadRequest, "Response must be ACCEPTED or DECLINED")
	CodeInvalidLetter   = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Letter is not valid")
	CodeRenderFailed    = ErrRegistry.Register("RENDER_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to produce the letter document")
)

func ErrLetterNotFound(id string) *errx.Error {
	return ErrRegistry.New(CodeLetterNotFound).WithDetail("letter_id", id)
}

func ErrNotSelected(status string) *errx.Error {
	return ErrRegistry.New(CodeNotSelected).WithDetail("candidate_status", status)
}

func ErrNotGenerated(status OfferStatus) *errx.Error {
	return ErrRegistry.New(CodeNotGenerated).WithDetail("status", status)
}

func ErrOfferSettled(candidateStatus string) *errx.Error {
	return ErrRegistry.New(CodeOfferSettled).WithDetail("candidate_status", candidateStatus)
}

func ErrInvalidResponse(status OfferStatus) *errx.Error {
	return ErrRegistry.New(CodeInvalidResponse).WithDetail("status", status)
}

func ErrInvalidLetter(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidLetter).WithDetail("reason", reason)
}

func ErrRenderFailed(err error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeRenderFailed, err)
}
