package payrollsrv

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/attendance"
	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fixedAttendance map[string]float64

func (f fixedAttendance) MonthSummary(ctx context.Context, e *employee.Employee, m kernel.Month) (attendance.Summary, error) {
	return attendance.Summary{PayableDays: f[e.ID]}, nil
}

var now = time.Date(2024, 7, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc  *PayrollService
	ravi *employee.Employee
	old  *employee.Employee
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := docstore.NewMemoryStore()
	feed := docstore.NewLocalFeed(16)
	employees := docstore.NewCollection[employee.Employee](store, feed, employee.Collection)

	ctx := context.Background()
	ravi := &employee.Employee{Name: "Ravi", AnnualCTC: 600000, Status: employee.StatusActive, JoiningDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, employees.Create(ctx, ravi))
	exit := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	old := &employee.Employee{Name: "Anand", AnnualCTC: 240000, Status: employee.StatusResigned, JoiningDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), ExitDate: &exit}
	require.NoError(t, employees.Create(ctx, old))

	svc := NewPayrollService(
		docstore.NewCollection[payroll.Payslip](store, feed, payroll.Collection),
		employees,
		fixedAttendance{ravi.ID: 15, old.ID: 30},
		config.DefaultPayrollConfig(),
	).WithClock(func() time.Time { return now })
	return &fixture{svc: svc, ravi: ravi, old: old}
}

func hr() *kernel.AuthContext {
	uid := kernel.UserID("hr-1")
	return &kernel.AuthContext{UserID: &uid, Role: kernel.RoleHR}
}

func TestBreakdownRejectsNonPositiveCTC(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Breakdown(0)
	assert.True(t, errx.IsCode(err, payroll.CodeInvalidCTC))

	b, err := f.svc.Breakdown(240000)
	require.NoError(t, err)
	assert.Equal(t, 16671.67, b.Net)
}

func TestRunCoversEmployeesOfTheMonth(t *testing.T) {
	f := setup(t)
	res, err := f.svc.Run(context.Background(), hr(), payroll.RunRequest{Month: "2024-06"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Generated)
	require.Len(t, res.Payslips, 1)
	assert.Equal(t, f.ravi.ID+"_2024-06", res.Payslips[0].ID)
	assert.Equal(t, 22400.0, res.Payslips[0].NetPay)

	_, err = f.svc.Run(context.Background(), hr(), payroll.RunRequest{Month: "2024-08"})
	assert.True(t, errx.IsCode(err, payroll.CodeInvalidMonth))
}

func TestRunKeepsFinalizedPayslips(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	adj := map[string]payroll.Adjustments{f.ravi.ID: {Bonus: 500}}
	res, err := f.svc.Run(ctx, hr(), payroll.RunRequest{Month: "2024-06", Adjustments: adj})
	require.NoError(t, err)
	id := res.Payslips[0].ID
	assert.Equal(t, 500.0, res.Payslips[0].Bonus)

	// drafts keep their adjustments on a re-run
	res, err = f.svc.Run(ctx, hr(), payroll.RunRequest{Month: "2024-06"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Generated)
	assert.Equal(t, 500.0, res.Payslips[0].Bonus)

	_, err = f.svc.Finalize(ctx, hr(), id)
	require.NoError(t, err)

	res, err = f.svc.Run(ctx, hr(), payroll.RunRequest{Month: "2024-06", Adjustments: map[string]payroll.Adjustments{f.ravi.ID: {Bonus: 9000}}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Generated)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 500.0, res.Payslips[0].Bonus)

	_, err = f.svc.Adjust(ctx, id, payroll.Adjustments{Bonus: 1})
	assert.True(t, errx.IsCode(err, payroll.CodeNotDraft))

	paid, err := f.svc.MarkPaid(ctx, hr(), id)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusPaid, paid.Status)
}

func TestAdjustRecomputesDraft(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, err := f.svc.Run(ctx, hr(), payroll.RunRequest{Month: "2024-06"})
	require.NoError(t, err)

	p, err := f.svc.Adjust(ctx, res.Payslips[0].ID, payroll.Adjustments{Advance: 400})
	require.NoError(t, err)
	assert.Equal(t, 22000.0, p.NetPay)
	assert.Equal(t, res.Payslips[0].ID, p.ID)
}

func TestRegisterExport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.Run(ctx, hr(), payroll.RunRequest{Month: "2024-05"})
	require.NoError(t, err)

	data, name, err := f.svc.Register(ctx, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, "payroll-2024-05.xlsx", name)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(wb.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Anand", rows[1][0])
	assert.Equal(t, "Ravi", rows[2][0])
}
