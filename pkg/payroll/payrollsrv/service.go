package payrollsrv

import (
	"context"
	"sort"
	"time"

	"github.com/Abraxas-365/hireline/pkg/attendance"
	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/Abraxas-365/hireline/pkg/payroll"
	"github.com/Abraxas-365/hireline/pkg/sheetx"
)

// AttendanceSummarizer provides the payable days of an employee's month
type AttendanceSummarizer interface {
	MonthSummary(ctx context.Context, e *employee.Employee, m kernel.Month) (attendance.Summary, error)
}

type PayrollService struct {
	payslips   docstore.Repository[payroll.Payslip]
	employees  docstore.Repository[employee.Employee]
	attendance AttendanceSummarizer
	cfg        config.PayrollConfig
	now        func() time.Time
}

func NewPayrollService(
	payslips docstore.Repository[payroll.Payslip],
	employees docstore.Repository[employee.Employee],
	attendance AttendanceSummarizer,
	cfg config.PayrollConfig,
) *PayrollService {
	return &PayrollService{
		payslips:   payslips,
		employees:  employees,
		attendance: attendance,
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *PayrollService) WithClock(now func() time.Time) *PayrollService {
	s.now = now
	return s
}

// Breakdown is the CTC calculator
func (s *PayrollService) Breakdown(annualCTC float64) (*payroll.Breakdown, error) {
	if annualCTC <= 0 {
		return nil, payroll.ErrInvalidCTC()
	}
	b := payroll.ComputeBreakdown(annualCTC, s.cfg)
	return &b, nil
}

// Run generates the payslips of every employee employed during the month.
// Finalized and paid payslips are left untouched. Drafts are recomputed and
// keep their adjustments unless new ones are given.
func (s *PayrollService) Run(ctx context.Context, ac *kernel.AuthContext, req payroll.RunRequest) (*payroll.RunResult, error) {
	m, err := kernel.ParseMonth(req.Month)
	if err != nil {
		return nil, payroll.ErrInvalidMonth(err.Error())
	}
	if m.First().After(s.now()) {
		return nil, payroll.ErrInvalidMonth("month has not started")
	}

	employees, err := s.employees.Filter(ctx, func(e *employee.Employee) bool { return e.EmployedIn(m) })
	if err != nil {
		return nil, err
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].Name < employees[j].Name })

	result := &payroll.RunResult{Month: m.String(), Payslips: make([]*payroll.Payslip, 0, len(employees))}
	for _, e := range employees {
		existing, err := s.find(ctx, payroll.PayslipID(e.ID, m))
		if err != nil {
			return nil, err
		}
		if existing != nil && !existing.IsDraft() {
			result.Skipped++
			result.Payslips = append(result.Payslips, existing)
			continue
		}

		adj, ok := req.Adjustments[e.ID]
		if !ok && existing != nil {
			adj = payroll.Adjustments{Bonus: existing.Bonus, Advance: existing.Advance}
		}
		p, err := s.compute(ctx, e, m, adj)
		if err != nil {
			return nil, err
		}
		if err := s.payslips.Upsert(ctx, p); err != nil {
			return nil, err
		}
		result.Generated++
		result.Payslips = append(result.Payslips, p)
	}

	logx.WithFields(logx.Fields{
		"month":     result.Month,
		"by":        ac.Actor(),
		"generated": result.Generated,
		"skipped":   result.Skipped,
	}).Info("payroll run completed")
	return result, nil
}

func (s *PayrollService) Get(ctx context.Context, id string) (*payroll.Payslip, error) {
	p, err := s.payslips.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, payroll.ErrPayslipNotFound(id)
		}
		return nil, err
	}
	return p, nil
}

func (s *PayrollService) List(ctx context.Context, f payroll.Filter) ([]*payroll.Payslip, error) {
	list, err := s.payslips.Filter(ctx, func(p *payroll.Payslip) bool { return p.Matches(f) })
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Month != list[j].Month {
			return list[i].Month > list[j].Month
		}
		return list[i].EmployeeName < list[j].EmployeeName
	})
	return list, nil
}

// Adjust recomputes a draft payslip with new bonus and advance amounts
func (s *PayrollService) Adjust(ctx context.Context, id string, adj payroll.Adjustments) (*payroll.Payslip, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsDraft() {
		return nil, payroll.ErrNotDraft(p.Status)
	}
	m, err := kernel.ParseMonth(p.Month)
	if err != nil {
		return nil, payroll.ErrInvalidMonth(err.Error())
	}
	e, err := s.employees.Get(ctx, p.EmployeeID)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, employee.ErrEmployeeNotFound(p.EmployeeID)
		}
		return nil, err
	}

	next, err := s.compute(ctx, e, m, adj)
	if err != nil {
		return nil, err
	}
	next.Meta = p.Meta
	if err := s.payslips.Update(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *PayrollService) Finalize(ctx context.Context, ac *kernel.AuthContext, id string) (*payroll.Payslip, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Finalize(ac.Actor(), s.now()); err != nil {
		return nil, err
	}
	if err := s.payslips.Update(ctx, p); err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{"payslip_id": id, "by": ac.Actor()}).Info("payslip finalized")
	return p, nil
}

func (s *PayrollService) MarkPaid(ctx context.Context, ac *kernel.AuthContext, id string) (*payroll.Payslip, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.MarkPaid(s.now()); err != nil {
		return nil, err
	}
	if err := s.payslips.Update(ctx, p); err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{"payslip_id": id, "by": ac.Actor()}).Info("payslip paid")
	return p, nil
}

// Register exports the month's payslips as an xlsx workbook
func (s *PayrollService) Register(ctx context.Context, month string) ([]byte, string, error) {
	m, err := kernel.ParseMonth(month)
	if err != nil {
		return nil, "", payroll.ErrInvalidMonth(err.Error())
	}
	list, err := s.List(ctx, payroll.Filter{Month: m.String()})
	if err != nil {
		return nil, "", err
	}

	sheet, err := sheetx.NewSheet("Payroll " + m.String())
	if err != nil {
		return nil, "", errx.Wrap(err, "failed to create workbook", errx.TypeInternal)
	}
	if err := sheet.Header(
		"Employee", "Designation", "Store", "Payable days", "Basic", "HRA", "Special allowance",
		"Bonus", "Gross", "PF", "ESI", "PT", "Advance", "Deductions", "Net pay", "Employer PF", "Employer ESI", "Status",
	); err != nil {
		return nil, "", errx.Wrap(err, "failed to write workbook", errx.TypeInternal)
	}
	for _, p := range list {
		if err := sheet.Append(
			p.EmployeeName, p.Designation, p.StoreID, p.PayableDays, p.Basic, p.HRA, p.SpecialAllowance,
			p.Bonus, p.GrossEarned, p.EmployeePF, p.EmployeeESI, p.ProfessionalTax, p.Advance,
			p.TotalDeductions, p.NetPay, p.EmployerPF, p.EmployerESI, string(p.Status),
		); err != nil {
			return nil, "", errx.Wrap(err, "failed to write workbook", errx.TypeInternal)
		}
	}

	data, err := sheet.Bytes()
	if err != nil {
		return nil, "", errx.Wrap(err, "failed to encode workbook", errx.TypeInternal)
	}
	return data, "payroll-" + m.String() + ".xlsx", nil
}

func (s *PayrollService) compute(ctx context.Context, e *employee.Employee, m kernel.Month, adj payroll.Adjustments) (*payroll.Payslip, error) {
	sum, err := s.attendance.MonthSummary(ctx, e, m)
	if err != nil {
		return nil, err
	}
	return payroll.ComputePayslip(e, m, sum, adj, s.cfg)
}

func (s *PayrollService) find(ctx context.Context, id string) (*payroll.Payslip, error) {
	p, err := s.payslips.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}
