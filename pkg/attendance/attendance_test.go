package attendance

import (
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func june() kernel.Month {
	return kernel.Month{Year: 2024, Month: time.June}
}

func TestSummarizeCountsPayableDays(t *testing.T) {
	e := &employee.Employee{JoiningDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)}
	e.ID = "emp-1"
	marks := map[string]Status{
		"2024-06-01": StatusPresent, // before joining
		"2024-06-03": StatusPresent,
		"2024-06-04": StatusHalfDay,
		"2024-06-05": StatusLeave,
		"2024-06-06": StatusAbsent,
		"2024-06-09": StatusWeekOff,
		"2024-06-10": StatusHoliday,
	}
	today := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

	sum := Summarize(e, june(), marks, today)
	assert.Equal(t, 1, sum.Present)
	assert.Equal(t, 1, sum.HalfDays)
	assert.Equal(t, 1, sum.Leave)
	assert.Equal(t, 1, sum.Absent)
	assert.Equal(t, 1, sum.WeekOffs)
	assert.Equal(t, 1, sum.Holidays)
	// 3rd..12th is 10 employed days, 6 of them marked
	assert.Equal(t, 4, sum.Unmarked)
	assert.InDelta(t, 4.5, sum.PayableDays, 1e-9)
}

func TestSummarizeStopsAtExit(t *testing.T) {
	exit := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	e := &employee.Employee{JoiningDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ExitDate: &exit}
	sum := Summarize(e, june(), map[string]Status{"2024-06-05": StatusPresent}, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, sum.Present)
	assert.Equal(t, 2, sum.Unmarked)
}

func TestBuildGrid(t *testing.T) {
	e := &employee.Employee{Name: "Ravi", JoiningDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)}
	e.ID = "emp-1"
	records := []*Record{
		{EmployeeID: "emp-1", Date: "2024-06-03", Status: StatusPresent},
		{EmployeeID: "emp-1", Date: "2024-06-04", Status: StatusHalfDay},
		{EmployeeID: "other", Date: "2024-06-04", Status: StatusAbsent},
	}
	g := BuildGrid(june(), []*employee.Employee{e}, records, time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "2024-06", g.Month)
	require.Len(t, g.Days, 30)
	require.Len(t, g.Rows, 1)
	cells := g.Rows[0].Cells
	assert.Equal(t, []string{"-", "-", "P", "HD", ""}, cells[:5])
	assert.Equal(t, 1, g.Rows[0].Summary.Unmarked)
	assert.InDelta(t, 1.5, g.Rows[0].Summary.PayableDays, 1e-9)
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "emp-1_2024-06-03", RecordID("emp-1", time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)))
}
