// Package partner tracks staffing partners, their open requirements and the
// commission invoices raised against them.
package partner

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/payroll"
)

const (
	PartnersCollection     = "partners"
	RequirementsCollection = "requirements"
	InvoicesCollection     = "invoices"
	// CountersCollection holds one invoice sequence per period
	CountersCollection = "invoice_counters"
)

// ============================================================================
// Partners
// ============================================================================

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z0-9]{13}$`)

type Partner struct {
	docstore.Meta
	Name              string  `json:"name"`
	ContactName       string  `json:"contact_name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	GSTIN             string  `json:"gstin,omitempty"`
	Address           string  `json:"address,omitempty"`
	CommissionPercent float64 `json:"commission_percent"`
	Status            Status  `json:"status"`
}

func (p *Partner) IsActive() bool {
	return p.Status == StatusActive
}

// Apply validates req and copies it onto the partner
func (p *Partner) Apply(req PartnerRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return ErrInvalidPartner("name is required")
	}
	if req.CommissionPercent < 0 || req.CommissionPercent > 100 {
		return ErrInvalidPartner("commission_percent must be between 0 and 100")
	}
	gstin := strings.ToUpper(strings.TrimSpace(req.GSTIN))
	if gstin != "" && !gstinPattern.MatchString(gstin) {
		return ErrInvalidPartner("gstin must be 15 characters starting with the state code")
	}
	status := req.Status
	if status == "" {
		status = StatusActive
	}
	if status != StatusActive && status != StatusInactive {
		return ErrInvalidPartner("status must be ACTIVE or INACTIVE")
	}

	p.Name = name
	p.ContactName = strings.TrimSpace(req.ContactName)
	p.Email = strings.ToLower(strings.TrimSpace(req.Email))
	p.Phone = ""
	if strings.TrimSpace(req.Phone) != "" {
		phone, ok := kernel.NormalizePhone(req.Phone)
		if !ok {
			return ErrInvalidPartner("phone must have 10 digits")
		}
		p.Phone = phone
	}
	p.GSTIN = gstin
	p.Address = strings.TrimSpace(req.Address)
	p.CommissionPercent = req.CommissionPercent
	p.Status = status
	return nil
}

// ============================================================================
// Requirements
// ============================================================================

type RequirementStatus string

const (
	RequirementOpen   RequirementStatus = "OPEN"
	RequirementFilled RequirementStatus = "FILLED"
	RequirementClosed RequirementStatus = "CLOSED"
)

// Requirement is a partner's demand for headcount in one role and location
type Requirement struct {
	docstore.Meta
	PartnerID string            `json:"partner_id"`
	Role      string            `json:"role"`
	Location  string            `json:"location"`
	StoreID   string            `json:"store_id,omitempty"`
	Openings  int               `json:"openings"`
	Filled    int               `json:"filled"`
	Deadline  *time.Time        `json:"deadline,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	Status    RequirementStatus `json:"status"`
	CreatedBy string            `json:"created_by"`
}

func (r *Requirement) Unfilled() int {
	if r.Filled >= r.Openings {
		return 0
	}
	return r.Openings - r.Filled
}

// Fits reports whether a hire of e counts against the requirement
func (r *Requirement) Fits(e *employee.Employee) bool {
	return r.Status == RequirementOpen &&
		r.PartnerID == e.PartnerID &&
		strings.EqualFold(r.Role, e.Designation) &&
		strings.EqualFold(r.Location, e.Location)
}

// RecordHire counts one filled opening
func (r *Requirement) RecordHire() {
	r.Filled++
	if r.Filled >= r.Openings {
		r.Status = RequirementFilled
	}
}

// SetOpenings changes the headcount, reopening or filling as needed
func (r *Requirement) SetOpenings(n int) error {
	if n <= 0 {
		return ErrInvalidRequirement("openings must be positive")
	}
	if n < r.Filled {
		return ErrInvalidRequirement("openings cannot be below filled").WithDetail("filled", r.Filled)
	}
	r.Openings = n
	if r.Status == RequirementClosed {
		return nil
	}
	if r.Filled >= n {
		r.Status = RequirementFilled
	} else {
		r.Status = RequirementOpen
	}
	return nil
}

// Close stops matching hires. Reopen puts a closed requirement back.
func (r *Requirement) Close() error {
	if r.Status == RequirementClosed {
		return ErrInvalidRequirement("requirement is already closed")
	}
	r.Status = RequirementClosed
	return nil
}

func (r *Requirement) Reopen() error {
	if r.Status != RequirementClosed {
		return ErrInvalidRequirement("only closed requirements can be reopened")
	}
	r.Status = RequirementOpen
	if r.Filled >= r.Openings {
		r.Status = RequirementFilled
	}
	return nil
}

func (r *Requirement) Matches(f RequirementFilter) bool {
	if f.PartnerID != "" && r.PartnerID != f.PartnerID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Role != "" && !strings.EqualFold(r.Role, f.Role) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(r.Location, f.Location) {
		return false
	}
	return true
}

// ============================================================================
// Invoices
// ============================================================================

type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "DRAFT"
	InvoiceSent  InvoiceStatus = "SENT"
	InvoicePaid  InvoiceStatus = "PAID"
	// InvoiceOverdue is never stored, it is derived from SENT and the due date
	InvoiceOverdue InvoiceStatus = "OVERDUE"
)

type InvoiceLine struct {
	EmployeeID  string    `json:"employee_id"`
	Name        string    `json:"name"`
	Designation string    `json:"designation"`
	JoiningDate time.Time `json:"joining_date"`
	AnnualCTC   float64   `json:"annual_ctc"`
	Fee         float64   `json:"fee"`
}

// Invoice bills a partner the commission on employees who joined in Period
type Invoice struct {
	docstore.Meta
	PartnerID   string        `json:"partner_id"`
	PartnerName string        `json:"partner_name"`
	Number      string        `json:"number"`
	Period      string        `json:"period"`
	Lines       []InvoiceLine `json:"lines"`
	Subtotal    float64       `json:"subtotal"`
	GSTPercent  float64       `json:"gst_percent"`
	GST         float64       `json:"gst"`
	Total       float64       `json:"total"`
	Status      InvoiceStatus `json:"status"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	SentAt      *time.Time    `json:"sent_at,omitempty"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
	CreatedBy   string        `json:"created_by"`

	// Overdue is filled on read
	Overdue bool `json:"overdue"`
}

// CurrentStatus is Status with OVERDUE derived at now
func (inv *Invoice) CurrentStatus(now time.Time) InvoiceStatus {
	if inv.Status == InvoiceSent && inv.DueDate != nil && now.After(*inv.DueDate) {
		return InvoiceOverdue
	}
	return inv.Status
}

// Outstanding is the amount still owed
func (inv *Invoice) Outstanding() float64 {
	if inv.Status == InvoiceSent {
		return inv.Total
	}
	return 0
}

// Send issues the invoice, starting the payment term
func (inv *Invoice) Send(at time.Time, dueDays int) error {
	if inv.Status != InvoiceDraft {
		return ErrInvoiceTransition(inv.Status, InvoiceSent)
	}
	due := kernel.Day(at).AddDate(0, 0, dueDays)
	inv.Status = InvoiceSent
	inv.SentAt = &at
	inv.DueDate = &due
	return nil
}

func (inv *Invoice) MarkPaid(at time.Time) error {
	if inv.Status != InvoiceSent {
		return ErrInvoiceTransition(inv.Status, InvoicePaid)
	}
	inv.Status = InvoicePaid
	inv.PaidAt = &at
	return nil
}

func (inv *Invoice) Matches(f InvoiceFilter, now time.Time) bool {
	if f.PartnerID != "" && inv.PartnerID != f.PartnerID {
		return false
	}
	if f.Period != "" && inv.Period != f.Period {
		return false
	}
	if f.Status != "" && inv.CurrentStatus(now) != f.Status {
		return false
	}
	return true
}

// BuildInvoice bills p for every employee of p who joined in period.
// The number is left for the caller to assign.
func BuildInvoice(p *Partner, period kernel.Month, employees []*employee.Employee, gstPercent float64) (*Invoice, error) {
	inv := &Invoice{
		PartnerID:   p.ID,
		PartnerName: p.Name,
		Period:      period.String(),
		Lines:       make([]InvoiceLine, 0),
		GSTPercent:  gstPercent,
		Status:      InvoiceDraft,
	}
	for _, e := range employees {
		if e.PartnerID != p.ID || !period.Contains(e.JoiningDate) {
			continue
		}
		fee := payroll.Round2(e.AnnualCTC * p.CommissionPercent / 100)
		inv.Lines = append(inv.Lines, InvoiceLine{
			EmployeeID:  e.ID,
			Name:        e.Name,
			Designation: e.Designation,
			JoiningDate: e.JoiningDate,
			AnnualCTC:   e.AnnualCTC,
			Fee:         fee,
		})
		inv.Subtotal += fee
	}
	if len(inv.Lines) == 0 {
		return nil, ErrNothingToInvoice(p.ID, inv.Period)
	}
	inv.Subtotal = payroll.Round2(inv.Subtotal)
	inv.GST = payroll.Round2(inv.Subtotal * gstPercent / 100)
	inv.Total = payroll.Round2(inv.Subtotal + inv.GST)
	return inv, nil
}

// InvoiceNumber formats the seq-th invoice of period as INV-YYYYMM-NNNN
func InvoiceNumber(period kernel.Month, seq int) string {
	return fmt.Sprintf("INV-%04d%02d-%04d", period.Year, int(period.Month), seq)
}

// InvoiceSeq is the trailing sequence of an invoice number, 0 when it has none
func InvoiceSeq(number string) int {
	i := strings.LastIndexByte(number, '-')
	if i < 0 {
		return 0
	}
	seq, err := strconv.Atoi(number[i+1:])
	if err != nil {
		return 0
	}
	return seq
}

// InvoiceCounter is the last sequence handed out in a period. Numbers are never reused,
// even after the invoice holding one is deleted.
type InvoiceCounter struct {
	docstore.Meta
	Period string `json:"period"`
	Last   int    `json:"last"`
}

func CounterID(period kernel.Month) string {
	return "invoice-seq-" + period.String()
}

// ============================================================================
// Requests
// ============================================================================

type PartnerRequest struct {
	Name              string  `json:"name"`
	ContactName       string  `json:"contact_name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	GSTIN             string  `json:"gstin"`
	Address           string  `json:"address"`
	CommissionPercent float64 `json:"commission_percent"`
	Status            Status  `json:"status"`
}

type PartnerFilter struct {
	Status Status `query:"status"`
	Query  string `query:"q"`
}

type RequirementRequest struct {
	PartnerID string `json:"partner_id"`
	Role      string `json:"role"`
	Location  string `json:"location"`
	StoreID   string `json:"store_id"`
	Openings  int    `json:"openings"`
	// Deadline is YYYY-MM-DD
	Deadline string `json:"deadline"`
	Notes    string `json:"notes"`
}

type RequirementUpdate struct {
	Openings *int    `json:"openings"`
	Deadline *string `json:"deadline"`
	Notes    *string `json:"notes"`
	// Status accepts CLOSED, or OPEN to reopen
	Status RequirementStatus `json:"status"`
}

type RequirementFilter struct {
	PartnerID string            `query:"partner_id"`
	Status    RequirementStatus `query:"status"`
	Role      string            `query:"role"`
	Location  string            `query:"location"`
}

type InvoiceRequest struct {
	PartnerID string `json:"partner_id"`
	Period    string `json:"period"`
}

type InvoiceFilter struct {
	PartnerID string        `query:"partner_id"`
	Period    string        `query:"period"`
	Status    InvoiceStatus `query:"status"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("PARTNER")

var (
	CodePartnerNotFound     = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Partner not found")
	CodeDuplicatePartner    = ErrRegistry.Register("DUPLICATE", errx.TypeConflict, http.StatusConflict, "A partner with this name already exists")
	CodeInvalidPartner      = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Partner is not valid")
	CodePartnerInactive     = ErrRegistry.Register("INACTIVE", errx.TypeBusiness, http.StatusUnprocessableEntity, "Partner is inactive")
	CodeRequirementNotFound = ErrRegistry.Register("REQUIREMENT_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Requirement not found")
	CodeInvalidRequirement  = ErrRegistry.Register("INVALID_REQUIREMENT", errx.TypeValidation, http.StatusBadRequest, "Requirement is not valid")
	CodeInvoiceNotFound     = ErrRegistry.Register("INVOICE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Invoice not found")
	CodeDuplicateInvoice    = ErrRegistry.Register("DUPLICATE_INVOICE", errx.TypeConflict, http.StatusConflict, "An invoice for this partner and period already exists")
	CodeNothingToInvoice    = ErrRegistry.Register("NOTHING_TO_INVOICE", errx.TypeBusiness, http.StatusUnprocessableEntity, "No partner employees joined in this period")
	CodeInvoiceTransition   = ErrRegistry.Register("INVALID_INVOICE_TRANSITION", errx.TypeBusiness, http.StatusUnprocessableEntity, "Invoice status change is not allowed")
	CodeInvalidPeriod       = ErrRegistry.Register("INVALID_PERIOD", errx.TypeValidation, http.StatusBadRequest, "Invoice period is not valid")
)

func ErrPartnerNotFound(id string) *errx.Error {
	return ErrRegistry.New(CodePartnerNotFound).WithDetail("partner_id", id)
}

func ErrDuplicatePartner(name string) *errx.Error {
	return ErrRegistry.New(CodeDuplicatePartner).WithDetail("name", name)
}

func ErrInvalidPartner(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidPartner).WithDetail("reason", reason)
}

func ErrPartnerInactive(id string) *errx.Error {
	return ErrRegistry.New(CodePartnerInactive).WithDetail("partner_id", id)
}

func ErrRequirementNotFound(id string) *errx.Error {
	return ErrRegistry.New(CodeRequirementNotFound).WithDetail("requirement_id", id)
}

func ErrInvalidRequirement(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidRequirement).WithDetail("reason", reason)
}

func ErrInvoiceNotFound(id string) *errx.Error {
	return ErrRegistry.New(CodeInvoiceNotFound).WithDetail("invoice_id", id)
}

func ErrDuplicateInvoice(partnerID, period string) *errx.Error {
	return ErrRegistry.New(CodeDuplicateInvoice).WithDetail("partner_id", partnerID).WithDetail("period", period)
}

func ErrNothingToInvoice(partnerID, period string) *errx.Error {
	return ErrRegistry.New(CodeNothingToInvoice).WithDetail("partner_id", partnerID).WithDetail("period", period)
}

func ErrInvoiceTransition(from, to InvoiceStatus) *errx.Error {
	return ErrRegistry.New(CodeInvoiceTransition).WithDetail("from", from).WithDetail("to", to)
}

func ErrInvalidPeriod(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidPeriod).WithDetail("reason", reason)
}
