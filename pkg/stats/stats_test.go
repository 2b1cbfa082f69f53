package stats

import (
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/attendance"
	"github.com/Abraxas-365/hireline/pkg/candidate"
	"github.com/Abraxas-365/hireline/pkg/complaint"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/lineup"
	"github.com/Abraxas-365/hireline/pkg/partner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func TestPipelineCounts(t *testing.T) {
	p := PipelineCounts([]*candidate.Candidate{
		{Status: candidate.StatusSourced},
		{Status: candidate.StatusSourced},
		{Status: candidate.StatusHired},
		{Status: candidate.StatusRejected},
	})
	assert.Equal(t, 4, p.Total)
	assert.Equal(t, 3, p.Active)
	assert.Equal(t, 2, p.ByStatus[candidate.StatusSourced])
	assert.Equal(t, 0, p.ByStatus[candidate.StatusInterview])
	assert.Len(t, p.ByStatus, len(candidate.Pipeline))
}

func TestLineupStats(t *testing.T) {
	interview := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	later := time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC)
	lineups := []*lineup.Lineup{
		{RecruiterID: "r1", LineupDate: "2024-06-10", CallStatus: lineup.CallInterested, InterviewAt: &later},
		{RecruiterID: "r1", LineupDate: "2024-06-10", CallStatus: lineup.CallInterested, CandidateID: "c1"},
		{RecruiterID: "r2", LineupDate: "2024-06-10", CallStatus: lineup.CallNotReachable},
		{RecruiterID: "r2", LineupDate: "2024-06-07", CallStatus: lineup.CallInterested, InterviewAt: &interview},
	}

	s := LineupStats(lineups, "2024-06-10")
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.ByCallStatus[lineup.CallInterested])
	assert.Equal(t, 1, s.ByCallStatus[lineup.CallNotReachable])
	assert.Equal(t, 0, s.ByCallStatus[lineup.CallWrongNumber])
	assert.Equal(t, 1, s.InterviewsOn)
	assert.Equal(t, 1, s.Promoted)

	require.Len(t, s.ByRecruiter, 2)
	assert.Equal(t, RecruiterLineups{RecruiterID: "r1", Total: 2, Interested: 2, Promoted: 1}, s.ByRecruiter[0])
	assert.Equal(t, RecruiterLineups{RecruiterID: "r2", Total: 1, Interviews: 1}, s.ByRecruiter[1])
}

func TestVendorCounts(t *testing.T) {
	due := now.AddDate(0, 0, -1)
	notDue := now.AddDate(0, 0, 5)
	v := VendorCounts(
		[]*partner.Partner{{Status: partner.StatusActive}, {Status: partner.StatusInactive}},
		[]*partner.Requirement{
			{Status: partner.RequirementOpen, Openings: 5, Filled: 2},
			{Status: partner.RequirementOpen, Openings: 1},
			{Status: partner.RequirementFilled, Openings: 2, Filled: 2},
			{Status: partner.RequirementClosed, Openings: 9},
		},
		[]*partner.Invoice{
			{Status: partner.InvoiceSent, Total: 1000.5, DueDate: &due},
			{Status: partner.InvoiceSent, Total: 250.25, DueDate: &notDue},
			{Status: partner.InvoicePaid, Total: 999},
			{Status: partner.InvoiceDraft, Total: 10},
		},
		now,
	)
	assert.Equal(t, Vendors{
		ActivePartners:    1,
		OpenRequirements:  2,
		UnfilledOpenings:  4,
		OutstandingAmount: 1250.75,
		OverdueInvoices:   1,
	}, v)
}

func TestComplaintCounts(t *testing.T) {
	c := ComplaintCounts([]*complaint.Complaint{
		{Status: complaint.StatusOpen, Priority: complaint.PriorityHigh, DueAt: now.Add(-time.Hour)},
		{Status: complaint.StatusEscalated, Priority: complaint.PriorityHigh, DueAt: now.Add(time.Hour)},
		{Status: complaint.StatusResolved, Priority: complaint.PriorityLow, DueAt: now.Add(-time.Hour)},
	}, now)
	assert.Equal(t, 3, c.Total)
	assert.Equal(t, 1, c.Overdue)
	assert.Equal(t, 2, c.ByPriority[complaint.PriorityHigh])
	assert.Equal(t, 1, c.ByStatus[complaint.StatusEscalated])
}

func TestAttendanceAndHeadcount(t *testing.T) {
	exited := now.AddDate(0, 0, -3)
	emp := func(id, store string, joined time.Time, status employee.Status, exit *time.Time) *employee.Employee {
		return &employee.Employee{Meta: docstore.Meta{ID: id}, StoreID: store, JoiningDate: joined, Status: status, ExitDate: exit}
	}
	employees := []*employee.Employee{
		emp("e1", "s1", now.AddDate(0, -1, 0), employee.StatusActive, nil),
		emp("e2", "s1", now.AddDate(0, -1, 0), employee.StatusActive, nil),
		emp("e3", "s2", now.AddDate(0, 0, 2), employee.StatusActive, nil),
		emp("e4", "s2", now.AddDate(0, -2, 0), employee.StatusResigned, &exited),
	}
	records := []*attendance.Record{
		{EmployeeID: "e1", Date: "2024-06-10", Status: attendance.StatusPresent},
		{EmployeeID: "e2", Date: "2024-06-09", Status: attendance.StatusAbsent},
		{EmployeeID: "e4", Date: "2024-06-10", Status: attendance.StatusPresent},
	}

	day := AttendanceToday(employees, records, now)
	assert.Equal(t, "2024-06-10", day.Day)
	assert.Equal(t, 2, day.Employed)
	assert.Equal(t, 1, day.Marked)
	assert.Equal(t, 1, day.Unmarked)
	assert.Equal(t, 1, day.ByStatus[attendance.StatusPresent])

	assert.Equal(t, map[string]int{"s1": 2, "s2": 1}, HeadcountByStore(employees))
}
