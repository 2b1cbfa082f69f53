// Package payroll computes CTC breakdowns and monthly payslips from attendance.
package payroll

import (
	"math"
	"net/http"
	"time"

	"github.com/Abraxas-365/hireline/pkg/attendance"
	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/kernel"
)

const Collection = "payslips"

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusFinalized Status = "FINALIZED"
	StatusPaid      Status = "PAID"
)

// Adjustments are one-off amounts applied on top of the earned salary
type Adjustments struct {
	Bonus   float64 `json:"bonus"`
	Advance float64 `json:"advance"`
}

func (a Adjustments) Validate() error {
	if a.Bonus < 0 || a.Advance < 0 {
		return ErrInvalidAdjustment("bonus and advance cannot be negative")
	}
	return nil
}

type Payslip struct {
	docstore.Meta
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Designation  string `json:"designation"`
	StoreID      string `json:"store_id"`
	PartnerID    string `json:"partner_id,omitempty"`
	Month        string `json:"month"`

	AnnualCTC   float64            `json:"annual_ctc"`
	DaysInMonth int                `json:"days_in_month"`
	PayableDays float64            `json:"payable_days"`
	Attendance  attendance.Summary `json:"attendance"`

	Basic            float64 `json:"basic"`
	HRA              float64 `json:"hra"`
	SpecialAllowance float64 `json:"special_allowance"`
	Bonus            float64 `json:"bonus"`
	GrossEarned      float64 `json:"gross_earned"`

	EmployeePF      float64 `json:"employee_pf"`
	EmployeeESI     float64 `json:"employee_esi"`
	ProfessionalTax float64 `json:"professional_tax"`
	Advance         float64 `json:"advance"`
	TotalDeductions float64 `json:"total_deductions"`
	NetPay          float64 `json:"net_pay"`

	EmployerPF  float64 `json:"employer_pf"`
	EmployerESI float64 `json:"employer_esi"`

	Status      Status     `json:"status"`
	FinalizedBy string     `json:"finalized_by,omitempty"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// PayslipID is the document id of the payslip of employeeID for m
func PayslipID(employeeID string, m kernel.Month) string {
	return employeeID + "_" + m.String()
}

// ComputePayslip prorates the CTC breakdown of e by the payable days of the month.
// PF is recomputed on the earned basic, ESI and professional tax on the earned gross.
func ComputePayslip(e *employee.Employee, m kernel.Month, sum attendance.Summary, adj Adjustments, cfg config.PayrollConfig) (*Payslip, error) {
	if err := adj.Validate(); err != nil {
		return nil, err
	}
	b := ComputeBreakdown(e.AnnualCTC, cfg)
	days := m.Days()
	ratio := math.Min(sum.PayableDays/float64(days), 1)

	p := &Payslip{
		EmployeeID:   e.ID,
		EmployeeName: e.Name,
		Designation:  e.Designation,
		StoreID:      e.StoreID,
		PartnerID:    e.PartnerID,
		Month:        m.String(),
		AnnualCTC:    e.AnnualCTC,
		DaysInMonth:  days,
		PayableDays:  sum.PayableDays,
		Attendance:   sum,
		Bonus:        Round2(adj.Bonus),
		Advance:      Round2(adj.Advance),
		Status:       StatusDraft,
	}
	p.ID = PayslipID(e.ID, m)

	p.Basic = Round2(b.Basic * ratio)
	p.HRA = Round2(b.HRA * ratio)
	p.SpecialAllowance = Round2(b.SpecialAllowance * ratio)
	p.GrossEarned = Round2(p.Basic + p.HRA + p.SpecialAllowance + p.Bonus)

	pfWage := math.Min(p.Basic, cfg.PFWageCeiling)
	p.EmployeePF = Round2(percent(pfWage, cfg.EmployeePFPercent))
	p.EmployerPF = Round2(percent(pfWage, cfg.EmployerPFPercent))
	if b.ESIApplicable {
		p.EmployeeESI = Round2(percent(p.GrossEarned, cfg.EmployeeESIPercent))
		p.EmployerESI = Round2(percent(p.GrossEarned, cfg.EmployerESIPercent))
	}
	if p.GrossEarned >= cfg.PTThreshold {
		p.ProfessionalTax = cfg.PTAmount
	}

	p.TotalDeductions = Round2(p.EmployeePF + p.EmployeeESI + p.ProfessionalTax + p.Advance)
	p.NetPay = Round2(p.GrossEarned - p.TotalDeductions)
	if p.NetPay < 0 {
		return nil, ErrInvalidAdjustment("advance exceeds the earned salary").WithDetail("employee_id", e.ID)
	}
	return p, nil
}

func (p *Payslip) IsDraft() bool {
	return p.Status == StatusDraft
}

// Finalize locks the payslip
func (p *Payslip) Finalize(by string, at time.Time) error {
	if p.Status != StatusDraft {
		return ErrInvalidTransition(p.Status, StatusFinalized)
	}
	p.Status = StatusFinalized
	p.FinalizedBy = by
	p.FinalizedAt = &at
	return nil
}

func (p *Payslip) MarkPaid(at time.Time) error {
	if p.Status != StatusFinalized {
		return ErrInvalidTransition(p.Status, StatusPaid)
	}
	p.Status = StatusPaid
	p.PaidAt = &at
	return nil
}

func (p *Payslip) Matches(f Filter) bool {
	if f.Month != "" && p.Month != f.Month {
		return false
	}
	if f.EmployeeID != "" && p.EmployeeID != f.EmployeeID {
		return false
	}
	if f.StoreID != "" && p.StoreID != f.StoreID {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	return true
}

// ============================================================================
// Requests
// ============================================================================

type Filter struct {
	Month      string `query:"month"`
	EmployeeID string `query:"employee_id"`
	StoreID    string `query:"store_id"`
	Status     Status `query:"status"`
}

type BreakdownRequest struct {
	AnnualCTC float64 `json:"annual_ctc"`
}

type RunRequest struct {
	Month string `json:"month"`
	// Adjustments by employee id
	Adjustments map[string]Adjustments `json:"adjustments"`
}

type RunResult struct {
	Month     string     `json:"month"`
	Generated int        `json:"generated"`
	Skipped   int        `json:"skipped"`
	Payslips  []*Payslip `json:"payslips"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("PAYROLL")

var (
	CodePayslipNotFound   = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Payslip not found")
	CodeInvalidCTC        = ErrRegistry.Register("INVALID_CTC", errx.TypeValidation, http.StatusBadRequest, "Annual CTC must be positive")
	CodeInvalidMonth      = ErrRegistry.Register("INVALID_MONTH", errx.TypeValidation, http.StatusBadRequest, "Month is not valid")
	CodeInvalidAdjustment = ErrRegistry.Register("INVALID_ADJUSTMENT", errx.TypeValidation, http.StatusBadRequest, "Payslip adjustment is not valid")
	CodeInvalidTransition = ErrRegistry.Register("INVALID_TRANSITION", errx.TypeBusiness, http.StatusUnprocessableEntity, "Payslip cannot move to that status")
	CodeNotDraft          = ErrRegistry.Register("NOT_DRAFT", errx.TypeBusiness, http.StatusUnprocessableEntity, "Payslip is finalized and cannot be changed")
)

func ErrPayslipNotFound(id string) *errx.Error {
	return ErrRegistry.New(CodePayslipNotFound).WithDetail("payslip_id", id)
}

func ErrInvalidCTC() *errx.Error {
	return ErrRegistry.New(CodeInvalidCTC)
}

func ErrInvalidMonth(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidMonth).WithDetail("reason", reason)
}

func ErrInvalidAdjustment(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidAdjustment).WithDetail("reason", reason)
}

func ErrInvalidTransition(from, to Status) *errx.Error {
	return ErrRegistry.New(CodeInvalidTransition).WithDetail("from", from).WithDetail("to", to)
}

func ErrNotDraft(status Status) *errx.Error {
	return ErrRegistry.New(CodeNotDraft).WithDetail("status", status)
}
