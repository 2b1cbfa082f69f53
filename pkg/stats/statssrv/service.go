package statssrv

import (
	"context"
	"sort"
	"time"

	"github.com/Abraxas-365/hireline/pkg/attendance"
	"github.com/Abraxas-365/hireline/pkg/candidate"
	"github.com/Abraxas-365/hireline/pkg/complaint"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/letter"
	"github.com/Abraxas-365/hireline/pkg/lineup"
	"github.com/Abraxas-365/hireline/pkg/partner"
	"github.com/Abraxas-365/hireline/pkg/stats"
	"golang.org/x/sync/errgroup"
)

// TeamDirectory resolves the recruiters reporting to a team lead, lead included
type TeamDirectory interface {
	TeamMemberIDs(ctx context.Context, leadID kernel.UserID) ([]string, error)
}

// Sources are the collections dashboards read
type Sources struct {
	Candidates   docstore.Repository[candidate.Candidate]
	Lineups      docstore.Repository[lineup.Lineup]
	Employees    docstore.Repository[employee.Employee]
	Attendance   docstore.Repository[attendance.Record]
	Partners     docstore.Repository[partner.Partner]
	Requirements docstore.Repository[partner.Requirement]
	Invoices     docstore.Repository[partner.Invoice]
	Complaints   docstore.Repository[complaint.Complaint]
	Offers       docstore.Repository[letter.OfferLetter]
}

// Application is a candidate user's view of their own progress
type Application struct {
	CandidateID string                   `json:"candidate_id"`
	Role        string                   `json:"role"`
	Location    string                   `json:"location"`
	Status      candidate.Status         `json:"status"`
	InterviewAt *time.Time               `json:"interview_at,omitempty"`
	Offer       *letter.OfferLetter      `json:"offer,omitempty"`
	History     []candidate.StatusChange `json:"history"`
}

// Dashboard carries only the sections of the caller's role
type Dashboard struct {
	Role        kernel.Role `json:"role"`
	GeneratedAt time.Time   `json:"generated_at"`

	Pipeline     *stats.Pipeline        `json:"pipeline,omitempty"`
	Lineups      *stats.Lineups         `json:"lineups,omitempty"`
	Vendors      *stats.Vendors         `json:"vendors,omitempty"`
	Complaints   *stats.Complaints      `json:"complaints,omitempty"`
	Attendance   *stats.AttendanceDay   `json:"attendance,omitempty"`
	Headcount    map[string]int         `json:"headcount,omitempty"`
	Requirements []*partner.Requirement `json:"requirements,omitempty"`
	Invoices     []*partner.Invoice     `json:"invoices,omitempty"`
	Application  *Application           `json:"application,omitempty"`
}

type DashboardService struct {
	src  Sources
	team TeamDirectory
	now  func() time.Time
}

func NewDashboardService(src Sources, team TeamDirectory) *DashboardService {
	return &DashboardService{src: src, team: team, now: time.Now}
}

// WithClock replaces the time source, for tests
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// snapshot holds the lists loaded for one dashboard
type snapshot struct {
	candidates   []*candidate.Candidate
	lineups      []*lineup.Lineup
	employees    []*employee.Employee
	attendance   []*attendance.Record
	partners     []*partner.Partner
	requirements []*partner.Requirement
	invoices     []*partner.Invoice
	complaints   []*complaint.Complaint
	offers       []*letter.OfferLetter
	team         []string
}

type needs struct {
	candidates, lineups, employees, attendance bool
	partners, requirements, invoices           bool
	complaints, offers, team                   bool
}

func needsFor(role kernel.Role) needs {
	switch role {
	case kernel.RoleAdmin:
		return needs{candidates: true, lineups: true, employees: true, attendance: true,
			partners: true, requirements: true, invoices: true, complaints: true}
	case kernel.RoleHR:
		return needs{candidates: true, employees: true, attendance: true, complaints: true}
	case kernel.RoleTeamLead:
		return needs{candidates: true, lineups: true, team: true}
	case kernel.RoleTeam:
		return needs{lineups: true}
	case kernel.RolePartner:
		return needs{candidates: true, requirements: true, invoices: true}
	case kernel.RoleCandidate:
		return needs{candidates: true, offers: true}
	case kernel.RoleSupervisor:
		return needs{employees: true, attendance: true, complaints: true}
	}
	return needs{}
}

// Dashboard composes the role view of ac
func (s *DashboardService) Dashboard(ctx context.Context, ac *kernel.AuthContext) (*Dashboard, error) {
	now := s.now()
	want := needsFor(ac.Role)
	snap, err := s.load(ctx, ac, want, now)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Role: ac.Role, GeneratedAt: now}
	today := kernel.DayKey(now)

	switch ac.Role {
	case kernel.RoleAdmin:
		d.Pipeline = ptr(stats.PipelineCounts(snap.candidates))
		d.Lineups = ptr(stats.LineupStats(snap.lineups, today))
		d.Vendors = ptr(stats.VendorCounts(snap.partners, snap.requirements, snap.invoices, now))
		d.Complaints = ptr(stats.ComplaintCounts(snap.complaints, now))
		d.Attendance = ptr(stats.AttendanceToday(snap.employees, snap.attendance, now))
		d.Headcount = stats.HeadcountByStore(snap.employees)

	case kernel.RoleHR:
		d.Pipeline = ptr(stats.PipelineCounts(snap.candidates))
		d.Complaints = ptr(stats.ComplaintCounts(snap.complaints, now))
		d.Attendance = ptr(stats.AttendanceToday(snap.employees, snap.attendance, now))

	case kernel.RoleTeamLead:
		members := make(map[string]bool, len(snap.team))
		for _, id := range snap.team {
			members[id] = true
		}
		d.Lineups = ptr(stats.LineupStats(where(snap.lineups, func(l *lineup.Lineup) bool { return members[l.RecruiterID] }), today))
		d.Pipeline = ptr(stats.PipelineCounts(where(snap.candidates, func(c *candidate.Candidate) bool { return members[c.RecruiterID] })))

	case kernel.RoleTeam:
		me := ac.Actor()
		d.Lineups = ptr(stats.LineupStats(where(snap.lineups, func(l *lineup.Lineup) bool { return l.RecruiterID == me }), today))

	case kernel.RolePartner:
		own := ac.Links.PartnerID
		if own == "" {
			return nil, iam.ErrForbidden().WithDetail("reason", "user is not linked to a partner")
		}
		d.Pipeline = ptr(stats.PipelineCounts(where(snap.candidates, func(c *candidate.Candidate) bool { return c.PartnerID == own })))
		d.Requirements = where(snap.requirements, func(r *partner.Requirement) bool { return r.PartnerID == own })
		d.Invoices = where(snap.invoices, func(inv *partner.Invoice) bool { return inv.PartnerID == own })
		for _, inv := range d.Invoices {
			inv.Overdue = inv.CurrentStatus(now) == partner.InvoiceOverdue
		}

	case kernel.RoleCandidate:
		d.Application = application(ac.Links.CandidateID, snap.candidates, snap.offers)

	case kernel.RoleSupervisor:
		store := ac.Links.StoreID
		if store == "" {
			return nil, iam.ErrForbidden().WithDetail("reason", "user is not linked to a store")
		}
		staff := where(snap.employees, func(e *employee.Employee) bool { return e.StoreID == store })
		d.Headcount = stats.HeadcountByStore(staff)
		d.Attendance = ptr(stats.AttendanceToday(staff, snap.attendance, now))
		d.Complaints = ptr(stats.ComplaintCounts(where(snap.complaints, func(c *complaint.Complaint) bool { return c.StoreID == store }), now))

	default:
		return nil, iam.ErrInvalidRole().WithDetail("role", ac.Role)
	}
	return d, nil
}

func (s *DashboardService) load(ctx context.Context, ac *kernel.AuthContext, want needs, now time.Time) (*snapshot, error) {
	snap := &snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	if want.candidates {
		loadInto(gctx, g, s.src.Candidates, &snap.candidates)
	}
	if want.lineups {
		loadInto(gctx, g, s.src.Lineups, &snap.lineups)
	}
	if want.employees {
		loadInto(gctx, g, s.src.Employees, &snap.employees)
	}
	if want.attendance {
		day := kernel.DayKey(now)
		g.Go(func() error {
			records, err := s.src.Attendance.Filter(gctx, func(r *attendance.Record) bool { return r.Date == day })
			snap.attendance = records
			return err
		})
	}
	if want.partners {
		loadInto(gctx, g, s.src.Partners, &snap.partners)
	}
	if want.requirements {
		loadInto(gctx, g, s.src.Requirements, &snap.requirements)
	}
	if want.invoices {
		loadInto(gctx, g, s.src.Invoices, &snap.invoices)
	}
	if want.complaints {
		loadInto(gctx, g, s.src.Complaints, &snap.complaints)
	}
	if want.offers {
		loadInto(gctx, g, s.src.Offers, &snap.offers)
	}
	if want.team && s.team != nil && ac.UserID != nil {
		g.Go(func() error {
			ids, err := s.team.TeamMemberIDs(gctx, *ac.UserID)
			snap.team = ids
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func loadInto[T any](ctx context.Context, g *errgroup.Group, repo docstore.Repository[T], dst *[]*T) {
	if repo == nil {
		return
	}
	g.Go(func() error {
		list, err := repo.List(ctx)
		*dst = list
		return err
	})
}

func application(candidateID string, candidates []*candidate.Candidate, offers []*letter.OfferLetter) *Application {
	if candidateID == "" {
		return nil
	}
	var c *candidate.Candidate
	for _, cand := range candidates {
		if cand.ID == candidateID {
			c = cand
			break
		}
	}
	if c == nil {
		return nil
	}
	app := &Application{
		CandidateID: c.ID,
		Role:        c.Role,
		Location:    c.Location,
		Status:      c.Status,
		InterviewAt: c.InterviewAt,
		History:     c.History,
	}
	own := where(offers, func(o *letter.OfferLetter) bool { return o.CandidateID == c.ID })
	sort.Slice(own, func(i, j int) bool { return own[i].CreatedAt.After(own[j].CreatedAt) })
	if len(own) > 0 {
		app.Offer = own[0]
	}
	return app
}

func where[T any](list []*T, keep func(*T) bool) []*T {
	out := make([]*T, 0, len(list))
	for _, v := range list {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
