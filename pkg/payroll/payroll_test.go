package payroll

import (
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/attendance"
	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakdownWithESI(t *testing.T) {
	b := ComputeBreakdown(240000, config.DefaultPayrollConfig())

	assert.Equal(t, 20000.0, b.MonthlyCTC)
	assert.Equal(t, 10000.0, b.Basic)
	assert.Equal(t, 4000.0, b.HRA)
	assert.Equal(t, 1200.0, b.EmployerPF)
	assert.True(t, b.ESIApplicable)
	assert.Equal(t, 18208.23, b.Gross)
	assert.Equal(t, 591.77, b.EmployerESI)
	assert.Equal(t, 4208.23, b.SpecialAllowance)
	assert.Equal(t, 1200.0, b.EmployeePF)
	assert.Equal(t, 136.56, b.EmployeeESI)
	assert.Equal(t, 200.0, b.ProfessionalTax)
	assert.Equal(t, 1536.56, b.TotalDeductions)
	assert.Equal(t, 16671.67, b.Net)
}

func TestBreakdownAboveESICeiling(t *testing.T) {
	b := ComputeBreakdown(600000, config.DefaultPayrollConfig())

	assert.Equal(t, 25000.0, b.Basic)
	assert.Equal(t, 1800.0, b.EmployerPF) // capped at the PF wage ceiling
	assert.False(t, b.ESIApplicable)
	assert.Zero(t, b.EmployerESI)
	assert.Equal(t, 48200.0, b.Gross)
	assert.Equal(t, 13200.0, b.SpecialAllowance)
	assert.Equal(t, 46200.0, b.Net)
}

func TestBreakdownBelowPTThreshold(t *testing.T) {
	b := ComputeBreakdown(120000, config.DefaultPayrollConfig())
	assert.Less(t, b.Gross, 15000.0)
	assert.Zero(t, b.ProfessionalTax)
	assert.GreaterOrEqual(t, b.SpecialAllowance, 0.0)
}

func june() kernel.Month {
	return kernel.Month{Year: 2024, Month: time.June}
}

func newEmployee(ctc float64) *employee.Employee {
	e := &employee.Employee{Name: "Ravi", AnnualCTC: ctc, StoreID: "store-a"}
	e.ID = "emp-1"
	return e
}

func TestPayslipFullMonthWithAdjustments(t *testing.T) {
	p, err := ComputePayslip(newEmployee(240000), june(), attendance.Summary{PayableDays: 30}, Adjustments{Bonus: 1000, Advance: 500}, config.DefaultPayrollConfig())
	require.NoError(t, err)

	assert.Equal(t, "emp-1_2024-06", p.ID)
	assert.Equal(t, StatusDraft, p.Status)
	assert.Equal(t, 19208.23, p.GrossEarned)
	assert.Equal(t, 1200.0, p.EmployeePF)
	assert.Equal(t, 144.06, p.EmployeeESI)
	assert.Equal(t, 624.27, p.EmployerESI)
	assert.Equal(t, 200.0, p.ProfessionalTax)
	assert.Equal(t, 2044.06, p.TotalDeductions)
	assert.Equal(t, 17164.17, p.NetPay)
}

func TestPayslipIsProrated(t *testing.T) {
	p, err := ComputePayslip(newEmployee(600000), june(), attendance.Summary{PayableDays: 15}, Adjustments{}, config.DefaultPayrollConfig())
	require.NoError(t, err)

	assert.Equal(t, 12500.0, p.Basic)
	assert.Equal(t, 5000.0, p.HRA)
	assert.Equal(t, 6600.0, p.SpecialAllowance)
	assert.Equal(t, 24100.0, p.GrossEarned)
	assert.Equal(t, 1500.0, p.EmployeePF)
	assert.Equal(t, 1500.0, p.EmployerPF)
	assert.Zero(t, p.EmployeeESI)
	assert.Equal(t, 22400.0, p.NetPay)
}

func TestPayslipWithoutPayableDays(t *testing.T) {
	cfg := config.DefaultPayrollConfig()
	p, err := ComputePayslip(newEmployee(240000), june(), attendance.Summary{}, Adjustments{}, cfg)
	require.NoError(t, err)
	assert.Zero(t, p.GrossEarned)
	assert.Zero(t, p.ProfessionalTax)
	assert.Zero(t, p.NetPay)

	_, err = ComputePayslip(newEmployee(240000), june(), attendance.Summary{}, Adjustments{Advance: 100}, cfg)
	assert.True(t, errx.IsCode(err, CodeInvalidAdjustment))

	_, err = ComputePayslip(newEmployee(240000), june(), attendance.Summary{}, Adjustments{Bonus: -1}, cfg)
	assert.True(t, errx.IsCode(err, CodeInvalidAdjustment))
}

func TestPayslipLifecycle(t *testing.T) {
	p := &Payslip{Status: StatusDraft}
	at := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, errx.IsCode(p.MarkPaid(at), CodeInvalidTransition))
	require.NoError(t, p.Finalize("hr-1", at))
	assert.False(t, p.IsDraft())
	assert.True(t, errx.IsCode(p.Finalize("hr-1", at), CodeInvalidTransition))
	require.NoError(t, p.MarkPaid(at))
	assert.Equal(t, StatusPaid, p.Status)
}
