package payroll

import (
	"math"

	"github.com/Abraxas-365/hireline/pkg/config"
)

// Breakdown is the monthly split of an annual CTC
type Breakdown struct {
	AnnualCTC        float64 `json:"annual_ctc"`
	MonthlyCTC       float64 `json:"monthly_ctc"`
	Basic            float64 `json:"basic"`
	HRA              float64 `json:"hra"`
	SpecialAllowance float64 `json:"special_allowance"`
	Gross            float64 `json:"gross"`

	EmployerPF    float64 `json:"employer_pf"`
	EmployerESI   float64 `json:"employer_esi"`
	ESIApplicable bool    `json:"esi_applicable"`

	EmployeePF      float64 `json:"employee_pf"`
	EmployeeESI     float64 `json:"employee_esi"`
	ProfessionalTax float64 `json:"professional_tax"`
	TotalDeductions float64 `json:"total_deductions"`
	Net             float64 `json:"net"`
}

// Round2 rounds to paise
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(v, p float64) float64 {
	return v * p / 100
}

// ComputeBreakdown splits annualCTC into monthly earnings and statutory deductions.
// Employer PF and ESI come out of the CTC, so gross is what remains of the monthly CTC.
func ComputeBreakdown(annualCTC float64, cfg config.PayrollConfig) Breakdown {
	b := Breakdown{AnnualCTC: Round2(annualCTC)}
	b.MonthlyCTC = Round2(annualCTC / 12)
	b.Basic = Round2(percent(b.MonthlyCTC, cfg.BasicPercent))
	b.HRA = Round2(percent(b.Basic, cfg.HRAPercent))
	pfWage := math.Min(b.Basic, cfg.PFWageCeiling)
	b.EmployerPF = Round2(percent(pfWage, cfg.EmployerPFPercent))

	afterPF := b.MonthlyCTC - b.EmployerPF
	esiGross := afterPF / (1 + cfg.EmployerESIPercent/100)
	if esiGross <= cfg.ESIWageCeiling {
		b.ESIApplicable = true
		b.Gross = Round2(esiGross)
		b.EmployerESI = Round2(percent(b.Gross, cfg.EmployerESIPercent))
		b.EmployeeESI = Round2(percent(b.Gross, cfg.EmployeeESIPercent))
	} else {
		b.Gross = Round2(afterPF)
	}

	b.SpecialAllowance = math.Max(0, Round2(b.Gross-b.Basic-b.HRA))
	b.EmployeePF = Round2(percent(pfWage, cfg.EmployeePFPercent))
	if b.Gross >= cfg.PTThreshold {
		b.ProfessionalTax = cfg.PTAmount
	}
	b.TotalDeductions = Round2(b.EmployeePF + b.EmployeeESI + b.ProfessionalTax)
	b.Net = Round2(b.Gross - b.TotalDeductions)
	return b
}
