package attendancesrv

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/attendance"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/Abraxas-365/hireline/pkg/sheetx"
)

type AttendanceService struct {
	records   docstore.Repository[attendance.Record]
	employees docstore.Repository[employee.Employee]
	now       func() time.Time
}

func NewAttendanceService(
	records docstore.Repository[attendance.Record],
	employees docstore.Repository[employee.Employee],
) *AttendanceService {
	return &AttendanceService{
		records:   records,
		employees: employees,
		now:       time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *AttendanceService) WithClock(now func() time.Time) *AttendanceService {
	s.now = now
	return s
}

// Mark records the status of one employee on one day, overwriting an earlier mark
func (s *AttendanceService) Mark(ctx context.Context, ac *kernel.AuthContext, req attendance.MarkRequest) (*attendance.Record, error) {
	if !req.Status.IsValid() {
		return nil, attendance.ErrInvalidStatus(req.Status)
	}
	day, err := s.day(req.Date)
	if err != nil {
		return nil, err
	}
	e, err := s.employee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	return s.mark(ctx, ac, e, day, req.Status, req.Note)
}

// MarkBulk marks several employees on the same day. Failures are reported per employee.
func (s *AttendanceService) MarkBulk(ctx context.Context, ac *kernel.AuthContext, req attendance.BulkRequest) (*attendance.BulkResult, error) {
	day, err := s.day(req.Date)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.Marks))
	for id := range req.Marks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := &attendance.BulkResult{Failed: make(map[string]string)}
	for _, id := range ids {
		status := req.Marks[id]
		err := func() error {
			if !status.IsValid() {
				return attendance.ErrInvalidStatus(status)
			}
			e, err := s.employee(ctx, id)
			if err != nil {
				return err
			}
			_, err = s.mark(ctx, ac, e, day, status, "")
			return err
		}()
		if err != nil {
			result.Failed[id] = message(err)
			continue
		}
		result.Marked++
	}

	logx.WithFields(logx.Fields{
		"date":   kernel.DayKey(day),
		"by":     ac.Actor(),
		"marked": result.Marked,
		"failed": len(result.Failed),
	}).Info("attendance marked in bulk")
	return result, nil
}

func (s *AttendanceService) mark(ctx context.Context, ac *kernel.AuthContext, e *employee.Employee, day time.Time, status attendance.Status, note string) (*attendance.Record, error) {
	if err := storeAllowed(ac, e.StoreID); err != nil {
		return nil, err
	}
	if !e.EmployedOn(day) {
		return nil, attendance.ErrNotEmployed(e.ID, kernel.DayKey(day))
	}
	r := &attendance.Record{
		EmployeeID: e.ID,
		StoreID:    e.StoreID,
		Date:       kernel.DayKey(day),
		Status:     status,
		Note:       strings.TrimSpace(note),
		MarkedBy:   ac.Actor(),
	}
	r.ID = attendance.RecordID(e.ID, day)
	if err := s.records.Upsert(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Day lists the marks of a day, restricted to the caller's store for supervisors
func (s *AttendanceService) Day(ctx context.Context, ac *kernel.AuthContext, q attendance.DayQuery) ([]*attendance.Record, error) {
	day := s.now()
	if q.Date != "" {
		var err error
		if day, err = kernel.ParseDay(q.Date); err != nil {
			return nil, attendance.ErrInvalidDate(err.Error())
		}
	}
	store, err := scopedStore(ac, q.StoreID)
	if err != nil {
		return nil, err
	}
	key := kernel.DayKey(day)
	return s.records.Filter(ctx, func(r *attendance.Record) bool {
		return r.Date == key && (store == "" || r.StoreID == store)
	})
}

// Grid is the month view of every employee employed in it
func (s *AttendanceService) Grid(ctx context.Context, ac *kernel.AuthContext, q attendance.GridQuery) (*attendance.Grid, error) {
	m, err := s.month(q.Month)
	if err != nil {
		return nil, err
	}
	store, err := scopedStore(ac, q.StoreID)
	if err != nil {
		return nil, err
	}

	employees, err := s.employees.Filter(ctx, func(e *employee.Employee) bool {
		return e.EmployedIn(m) && (store == "" || e.StoreID == store)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].Name < employees[j].Name })

	prefix := m.String() + "-"
	records, err := s.records.Filter(ctx, func(r *attendance.Record) bool {
		return strings.HasPrefix(r.Date, prefix) && (store == "" || r.StoreID == store)
	})
	if err != nil {
		return nil, err
	}
	return attendance.BuildGrid(m, employees, records, s.now()), nil
}

// MonthSummary summarizes one employee's month, for payroll
func (s *AttendanceService) MonthSummary(ctx context.Context, e *employee.Employee, m kernel.Month) (attendance.Summary, error) {
	prefix := m.String() + "-"
	records, err := s.records.Filter(ctx, func(r *attendance.Record) bool {
		return r.EmployeeID == e.ID && strings.HasPrefix(r.Date, prefix)
	})
	if err != nil {
		return attendance.Summary{}, err
	}
	marks := make(map[string]attendance.Status, len(records))
	for _, r := range records {
		marks[r.Date] = r.Status
	}
	return attendance.Summarize(e, m, marks, s.now()), nil
}

// Export writes the grid as an xlsx workbook
func (s *AttendanceService) Export(ctx context.Context, ac *kernel.AuthContext, q attendance.GridQuery) ([]byte, string, error) {
	g, err := s.Grid(ctx, ac, q)
	if err != nil {
		return nil, "", err
	}

	sheet, err := sheetx.NewSheet("Attendance " + g.Month)
	if err != nil {
		return nil, "", errx.Wrap(err, "failed to create workbook", errx.TypeInternal)
	}
	header := []any{"Employee", "Designation"}
	for _, d := range g.Days {
		header = append(header, d[len(d)-2:])
	}
	header = append(header, "Present", "Absent", "Half days", "Leave", "Week offs", "Holidays", "Unmarked", "Payable days")
	if err := sheet.Header(header...); err != nil {
		return nil, "", errx.Wrap(err, "failed to write workbook", errx.TypeInternal)
	}
	for _, row := range g.Rows {
		values := []any{row.Name, row.Designation}
		for _, c := range row.Cells {
			values = append(values, c)
		}
		sm := row.Summary
		values = append(values, sm.Present, sm.Absent, sm.HalfDays, sm.Leave, sm.WeekOffs, sm.Holidays, sm.Unmarked, sm.PayableDays)
		if err := sheet.Append(values...); err != nil {
			return nil, "", errx.Wrap(err, "failed to write workbook", errx.TypeInternal)
		}
	}

	data, err := sheet.Bytes()
	if err != nil {
		return nil, "", errx.Wrap(err, "failed to encode workbook", errx.TypeInternal)
	}
	return data, "attendance-" + g.Month + ".xlsx", nil
}

// ============================================================================
// helpers
// ============================================================================

func (s *AttendanceService) day(value string) (time.Time, error) {
	if value == "" {
		return kernel.Day(s.now()), nil
	}
	day, err := kernel.ParseDay(value)
	if err != nil {
		return time.Time{}, attendance.ErrInvalidDate(err.Error())
	}
	if kernel.DayKey(day) > kernel.DayKey(s.now()) {
		return time.Time{}, attendance.ErrFutureDate(value)
	}
	return day, nil
}

func (s *AttendanceService) month(value string) (kernel.Month, error) {
	if value == "" {
		return kernel.MonthOf(s.now()), nil
	}
	m, err := kernel.ParseMonth(value)
	if err != nil {
		return kernel.Month{}, attendance.ErrInvalidDate(err.Error())
	}
	return m, nil
}

func (s *AttendanceService) employee(ctx context.Context, id string) (*employee.Employee, error) {
	e, err := s.employees.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, employee.ErrEmployeeNotFound(id)
		}
		return nil, err
	}
	return e, nil
}

// storeAllowed keeps supervisors to the employees of their own store
func storeAllowed(ac *kernel.AuthContext, storeID string) error {
	if ac.IsRole(kernel.RoleSupervisor) && ac.Links.StoreID != storeID {
		return attendance.ErrStoreForbidden(storeID)
	}
	return nil
}

// scopedStore pins supervisors to their store whatever they asked for
func scopedStore(ac *kernel.AuthContext, requested string) (string, error) {
	if !ac.IsRole(kernel.RoleSupervisor) {
		return requested, nil
	}
	if requested != "" && requested != ac.Links.StoreID {
		return "", attendance.ErrStoreForbidden(requested)
	}
	return ac.Links.StoreID, nil
}

func message(err error) string {
	var e *errx.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
