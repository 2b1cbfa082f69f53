// Package stats derives dashboard counts from collection snapshots. Every
// function here is pure and recomputed from full lists on each request.
package stats

import (
	"sort"
	"time"

	"github.com/Abraxas-365/hireline/pkg/attendance"
	"github.com/Abraxas-365/hireline/pkg/candidate"
	"github.com/Abraxas-365/hireline/pkg/complaint"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/lineup"
	"github.com/Abraxas-365/hireline/pkg/partner"
	"github.com/Abraxas-365/hireline/pkg/payroll"
)

// ============================================================================
// Pipeline
// ============================================================================

type Pipeline struct {
	ByStatus map[candidate.Status]int `json:"by_status"`
	Total    int                      `json:"total"`
	Active   int                      `json:"active"`
}

// PipelineCounts counts candidates per board column. Every column is present.
func PipelineCounts(candidates []*candidate.Candidate) Pipeline {
	p := Pipeline{ByStatus: make(map[candidate.Status]int, len(candidate.Pipeline))}
	for _, s := range candidate.Pipeline {
		p.ByStatus[s] = 0
	}
	for _, c := range candidates {
		p.ByStatus[c.Status]++
		p.Total++
		if c.IsActive() {
			p.Active++
		}
	}
	return p
}

// ============================================================================
// Lineups
// ============================================================================

type RecruiterLineups struct {
	RecruiterID string `json:"recruiter_id"`
	Total       int    `json:"total"`
	Interested  int    `json:"interested"`
	Interviews  int    `json:"interviews"`
	Promoted    int    `json:"promoted"`
}

type Lineups struct {
	Day          string                    `json:"day"`
	Total        int                       `json:"total"`
	ByCallStatus map[lineup.CallStatus]int `json:"by_call_status"`
	InterviewsOn int                       `json:"interviews_on_day"`
	Promoted     int                       `json:"promoted"`
	ByRecruiter  []RecruiterLineups        `json:"by_recruiter"`
}

// LineupStats summarizes the calls logged on day. Interviews count lineups whose
// interview falls on day, whenever the call was logged.
func LineupStats(lineups []*lineup.Lineup, day string) Lineups {
	out := Lineups{Day: day, ByCallStatus: make(map[lineup.CallStatus]int, len(lineup.CallStatuses))}
	for _, cs := range lineup.CallStatuses {
		out.ByCallStatus[cs] = 0
	}

	per := make(map[string]*RecruiterLineups)
	recruiter := func(id string) *RecruiterLineups {
		r, ok := per[id]
		if !ok {
			r = &RecruiterLineups{RecruiterID: id}
			per[id] = r
		}
		return r
	}

	for _, l := range lineups {
		if l.InterviewAt != nil && kernel.DayKey(l.InterviewAt.UTC()) == day {
			out.InterviewsOn++
			recruiter(l.RecruiterID).Interviews++
		}
		if l.LineupDate != day {
			continue
		}
		r := recruiter(l.RecruiterID)
		out.Total++
		r.Total++
		out.ByCallStatus[l.CallStatus]++
		if l.CallStatus == lineup.CallInterested {
			r.Interested++
		}
		if l.IsPromoted() {
			out.Promoted++
			r.Promoted++
		}
	}

	out.ByRecruiter = make([]RecruiterLineups, 0, len(per))
	for _, r := range per {
		out.ByRecruiter = append(out.ByRecruiter, *r)
	}
	sort.Slice(out.ByRecruiter, func(i, j int) bool {
		a, b := out.ByRecruiter[i], out.ByRecruiter[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.RecruiterID < b.RecruiterID
	})
	return out
}

// ============================================================================
// Vendors
// ============================================================================

type Vendors struct {
	ActivePartners    int     `json:"active_partners"`
	OpenRequirements  int     `json:"open_requirements"`
	UnfilledOpenings  int     `json:"unfilled_openings"`
	OutstandingAmount float64 `json:"outstanding_amount"`
	OverdueInvoices   int     `json:"overdue_invoices"`
}

func VendorCounts(partners []*partner.Partner, requirements []*partner.Requirement, invoices []*partner.Invoice, now time.Time) Vendors {
	var v Vendors
	for _, p := range partners {
		if p.IsActive() {
			v.ActivePartners++
		}
	}
	for _, r := range requirements {
		if r.Status == partner.RequirementOpen {
			v.OpenRequirements++
			v.UnfilledOpenings += r.Unfilled()
		}
	}
	for _, inv := range invoices {
		v.OutstandingAmount += inv.Outstanding()
		if inv.CurrentStatus(now) == partner.InvoiceOverdue {
			v.OverdueInvoices++
		}
	}
	v.OutstandingAmount = payroll.Round2(v.OutstandingAmount)
	return v
}

// ============================================================================
// Complaints
// ============================================================================

type Complaints struct {
	Total      int                        `json:"total"`
	ByStatus   map[complaint.Status]int   `json:"by_status"`
	ByPriority map[complaint.Priority]int `json:"by_priority"`
	Overdue    int                        `json:"overdue"`
}

func ComplaintCounts(complaints []*complaint.Complaint, now time.Time) Complaints {
	out := Complaints{
		ByStatus:   make(map[complaint.Status]int),
		ByPriority: make(map[complaint.Priority]int),
	}
	for _, c := range complaints {
		out.Total++
		out.ByStatus[c.Status]++
		out.ByPriority[c.Priority]++
		if c.IsBreached(now) {
			out.Overdue++
		}
	}
	return out
}

// ============================================================================
// Attendance and headcount
// ============================================================================

type AttendanceDay struct {
	Day      string                    `json:"day"`
	Employed int                       `json:"employed"`
	Marked   int                       `json:"marked"`
	Unmarked int                       `json:"unmarked"`
	ByStatus map[attendance.Status]int `json:"by_status"`
}

// AttendanceToday counts the marks of day against the employees employed on it
func AttendanceToday(employees []*employee.Employee, records []*attendance.Record, day time.Time) AttendanceDay {
	key := kernel.DayKey(day)
	out := AttendanceDay{Day: key, ByStatus: make(map[attendance.Status]int)}

	employed := make(map[string]bool, len(employees))
	for _, e := range employees {
		if e.EmployedOn(day) {
			employed[e.ID] = true
		}
	}
	out.Employed = len(employed)

	for _, r := range records {
		if r.Date != key || !employed[r.EmployeeID] {
			continue
		}
		out.Marked++
		out.ByStatus[r.Status]++
	}
	out.Unmarked = out.Employed - out.Marked
	return out
}

// HeadcountByStore counts active employees per store id
func HeadcountByStore(employees []*employee.Employee) map[string]int {
	out := make(map[string]int)
	for _, e := range employees {
		if e.IsActive() {
			out[e.StoreID]++
		}
	}
	return out
}
