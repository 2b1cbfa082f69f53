// Package attendance keeps one mark per employee and day and derives monthly summaries.
package attendance

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/kernel"
)

const Collection = "attendance"

type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusHalfDay Status = "HALF_DAY"
	StatusLeave   Status = "LEAVE"
	StatusWeekOff Status = "WEEK_OFF"
	StatusHoliday Status = "HOLIDAY"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHalfDay, StatusLeave, StatusWeekOff, StatusHoliday:
		return true
	}
	return false
}

// Payable is the fraction of a day s pays for
func (s Status) Payable() float64 {
	switch s {
	case StatusPresent, StatusLeave, StatusWeekOff, StatusHoliday:
		return 1
	case StatusHalfDay:
		return 0.5
	}
	return 0
}

// Short is the grid cell code
func (s Status) Short() string {
	switch s {
	case StatusPresent:
		return "P"
	case StatusAbsent:
		return "A"
	case StatusHalfDay:
		return "HD"
	case StatusLeave:
		return "L"
	case StatusWeekOff:
		return "WO"
	case StatusHoliday:
		return "H"
	}
	return ""
}

// Record is the mark of one employee on one day
type Record struct {
	docstore.Meta
	EmployeeID string `json:"employee_id"`
	StoreID    string `json:"store_id"`
	Date       string `json:"date"`
	Status     Status `json:"status"`
	Note       string `json:"note,omitempty"`
	MarkedBy   string `json:"marked_by"`
}

// RecordID is the document id of the mark of employeeID on day
func RecordID(employeeID string, day time.Time) string {
	return employeeID + "_" + kernel.DayKey(day)
}

// ============================================================================
// Summary
// ============================================================================

type Summary struct {
	Present     int     `json:"present"`
	Absent      int     `json:"absent"`
	HalfDays    int     `json:"half_days"`
	Leave       int     `json:"leave"`
	WeekOffs    int     `json:"week_offs"`
	Holidays    int     `json:"holidays"`
	Unmarked    int     `json:"unmarked"`
	PayableDays float64 `json:"payable_days"`
}

func (s *Summary) add(st Status) {
	switch st {
	case StatusPresent:
		s.Present++
	case StatusAbsent:
		s.Absent++
	case StatusHalfDay:
		s.HalfDays++
	case StatusLeave:
		s.Leave++
	case StatusWeekOff:
		s.WeekOffs++
	case StatusHoliday:
		s.Holidays++
	}
	s.PayableDays += st.Payable()
}

// Summarize counts the marks of e in m. marks is keyed by YYYY-MM-DD.
// Employed days up to today without a mark count as unmarked.
func Summarize(e *employee.Employee, m kernel.Month, marks map[string]Status, today time.Time) Summary {
	var sum Summary
	todayKey := kernel.DayKey(today)
	for day := m.First(); m.Contains(day); day = day.AddDate(0, 0, 1) {
		if !e.EmployedOn(day) {
			continue
		}
		key := kernel.DayKey(day)
		if st, ok := marks[key]; ok {
			sum.add(st)
			continue
		}
		if key <= todayKey {
			sum.Unmarked++
		}
	}
	return sum
}

// ============================================================================
// Grid
// ============================================================================

// GridRow is one employee across the month. Cells hold the day marks,
// "-" for days outside employment and "" for unmarked days.
type GridRow struct {
	EmployeeID  string   `json:"employee_id"`
	Name        string   `json:"name"`
	Designation string   `json:"designation"`
	StoreID     string   `json:"store_id"`
	Cells       []string `json:"cells"`
	Summary     Summary  `json:"summary"`
}

type Grid struct {
	Month string    `json:"month"`
	Days  []string  `json:"days"`
	Rows  []GridRow `json:"rows"`
}

// BuildGrid lays out employees × days of m from their records
func BuildGrid(m kernel.Month, employees []*employee.Employee, records []*Record, today time.Time) *Grid {
	byEmployee := make(map[string]map[string]Status, len(employees))
	for _, r := range records {
		if byEmployee[r.EmployeeID] == nil {
			byEmployee[r.EmployeeID] = make(map[string]Status)
		}
		byEmployee[r.EmployeeID][r.Date] = r.Status
	}

	g := &Grid{Month: m.String(), Days: make([]string, 0, m.Days()), Rows: make([]GridRow, 0, len(employees))}
	for day := m.First(); m.Contains(day); day = day.AddDate(0, 0, 1) {
		g.Days = append(g.Days, kernel.DayKey(day))
	}

	for _, e := range employees {
		marks := byEmployee[e.ID]
		row := GridRow{
			EmployeeID:  e.ID,
			Name:        e.Name,
			Designation: e.Designation,
			StoreID:     e.StoreID,
			Cells:       make([]string, len(g.Days)),
			Summary:     Summarize(e, m, marks, today),
		}
		for i, key := range g.Days {
			day, _ := kernel.ParseDay(key)
			switch st, ok := marks[key]; {
			case !e.EmployedOn(day):
				row.Cells[i] = "-"
			case ok:
				row.Cells[i] = st.Short()
			}
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

// ============================================================================
// Requests
// ============================================================================

type MarkRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Status     Status `json:"status"`
	Note       string `json:"note"`
}

type BulkRequest struct {
	Date  string            `json:"date"`
	Marks map[string]Status `json:"marks"`
}

type BulkResult struct {
	Marked int               `json:"marked"`
	Failed map[string]string `json:"failed"`
}

type GridQuery struct {
	Month   string `query:"month"`
	StoreID string `query:"store_id"`
}

type DayQuery struct {
	Date    string `query:"date"`
	StoreID string `query:"store_id"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("ATTENDANCE")

var (
	CodeInvalidStatus  = ErrRegistry.Register("INVALID_STATUS", errx.TypeValidation, http.StatusBadRequest, "Unknown attendance status")
	CodeInvalidDate    = ErrRegistry.Register("INVALID_DATE", errx.TypeValidation, http.StatusBadRequest, "Attendance date is not valid")
	CodeFutureDate     = ErrRegistry.Register("FUTURE_DATE", errx.TypeValidation, http.StatusBadRequest, "Attendance cannot be marked for a future date")
	CodeNotEmployed    = ErrRegistry.Register("NOT_EMPLOYED", errx.TypeBusiness, http.StatusUnprocessableEntity, "Employee was not employed on that date")
	CodeStoreForbidden = ErrRegistry.Register("STORE_FORBIDDEN", errx.TypeAuthorization, http.StatusForbidden, "Employee belongs to another store")
)

func ErrInvalidStatus(status Status) *errx.Error {
	return ErrRegistry.New(CodeInvalidStatus).WithDetail("status", status)
}

func ErrInvalidDate(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidDate).WithDetail("reason", reason)
}

func ErrFutureDate(date string) *errx.Error {
	return ErrRegistry.New(CodeFutureDate).WithDetail("date", date)
}

func ErrNotEmployed(employeeID, date string) *errx.Error {
	return ErrRegistry.New(CodeNotEmployed).WithDetail("employee_id", employeeID).WithDetail("date", date)
}

func ErrStoreForbidden(storeID string) *errx.Error {
	return ErrRegistry.New(CodeStoreForbidden).WithDetail("store_id", storeID)
}
