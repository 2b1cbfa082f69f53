package candidatesrv

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/candidate"
	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/docgen"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/employee/employeesrv"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/job"
	"github.com/Abraxas-365/hireline/pkg/job/jobsrv"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/panel"
	"github.com/Abraxas-365/hireline/pkg/panel/panelsrv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	hired []*employee.Employee
}

func (l *recordingListener) OnHired(ctx context.Context, e *employee.Employee) error {
	l.hired = append(l.hired, e)
	return nil
}

type fixture struct {
	svc       *CandidateService
	employees *employeesrv.EmployeeService
	jobs      *jobsrv.JobService
	listener  *recordingListener
	store     *panel.Store
}

// brokenCandidates fails every Update once broken is set
type brokenCandidates struct {
	docstore.Repository[candidate.Candidate]
	broken bool
}

func (r *brokenCandidates) Update(ctx context.Context, c *candidate.Candidate) error {
	if r.broken {
		return errx.New("disk full", errx.TypeInternal)
	}
	return r.Repository.Update(ctx, c)
}

func setup(t *testing.T) *fixture {
	return setupWith(t, nil)
}

func setupWith(t *testing.T, wrap func(docstore.Repository[candidate.Candidate]) docstore.Repository[candidate.Candidate]) *fixture {
	t.Helper()
	store := docstore.NewMemoryStore()
	feed := docstore.NewLocalFeed(16)
	ps := panelsrv.NewPanelService(
		docstore.NewCollection[panel.JobRole](store, feed, panel.RolesCollection),
		docstore.NewCollection[panel.Location](store, feed, panel.LocationsCollection),
		docstore.NewCollection[panel.Store](store, feed, panel.StoresCollection),
	)
	ctx := context.Background()
	_, err := ps.CreateRole(ctx, panel.RoleRequest{Name: "Picker"})
	require.NoError(t, err)
	_, err = ps.CreateLocation(ctx, panel.LocationRequest{Name: "Chennai"})
	require.NoError(t, err)
	st, err := ps.CreateStore(ctx, panel.StoreRequest{Name: "Anna Nagar", Location: "Chennai"})
	require.NoError(t, err)

	files, err := fsxlocal.NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)

	js := jobsrv.NewJobService(docstore.NewCollection[job.Job](store, feed, job.Collection), ps, nil)
	es := employeesrv.NewEmployeeService(
		docstore.NewCollection[employee.Employee](store, feed, employee.Collection),
		ps, nil, files,
	)
	var candidates docstore.Repository[candidate.Candidate] = docstore.NewCollection[candidate.Candidate](store, feed, candidate.Collection)
	if wrap != nil {
		candidates = wrap(candidates)
	}
	svc := NewCandidateService(candidates, ps, js, es)
	es.SetCandidateQuitter(svc)

	gen, err := docgen.NewGenerator(docgen.HTMLRenderer{}, config.DocGenConfig{CompanyName: "Hireline Staffing"})
	require.NoError(t, err)
	svc.SetCVService(NewCVService(gen, files, nil))

	l := &recordingListener{}
	svc.AddHireListener(l)
	return &fixture{svc: svc, employees: es, jobs: js, listener: l, store: st}
}

func principal(id string, role kernel.Role, granted ...string) *kernel.AuthContext {
	uid := kernel.UserID(id)
	return &kernel.AuthContext{UserID: &uid, Role: role, Scopes: granted}
}

func hr() *kernel.AuthContext {
	return principal("hr-1", kernel.RoleHR, scopes.ScopeCandidatesAll, scopes.ScopeEmployeesAll)
}

func newCandidate(phone string) candidate.CreateRequest {
	return candidate.CreateRequest{
		Name:     "Priya S",
		Phone:    phone,
		Role:     "picker",
		Location: "CHENNAI",
		Skills:   []string{"Forklift", "forklift ", ""},
	}
}

func (f *fixture) create(t *testing.T, ac *kernel.AuthContext, req candidate.CreateRequest) *candidate.Candidate {
	t.Helper()
	c, err := f.svc.CreateCandidate(context.Background(), ac, req)
	require.NoError(t, err)
	return c
}

func (f *fixture) moveTo(t *testing.T, id string, path ...candidate.Status) *candidate.Candidate {
	t.Helper()
	var c *candidate.Candidate
	var err error
	for _, st := range path {
		c, err = f.svc.Transition(context.Background(), hr(), id, candidate.TransitionRequest{Status: st})
		require.NoError(t, err)
	}
	return c
}

func TestCreateCandidate(t *testing.T) {
	f := setup(t)
	c := f.create(t, hr(), newCandidate("+91 98765 43210"))

	assert.Equal(t, candidate.StatusSourced, c.Status)
	assert.Equal(t, "9876543210", c.Phone)
	assert.Equal(t, "Picker", c.Role)
	assert.Equal(t, "Chennai", c.Location)
	assert.Equal(t, []string{"Forklift"}, c.Skills)
	assert.Equal(t, "hr-1", c.RecruiterID)
	require.Len(t, c.History, 1)
	assert.Equal(t, candidate.StatusSourced, c.History[0].To)

	_, err := f.svc.CreateCandidate(context.Background(), hr(), newCandidate("9876543210"))
	assert.True(t, errx.IsCode(err, candidate.CodeDuplicatePhone))

	at := time.Now().Add(24 * time.Hour)
	req := newCandidate("9000000001")
	req.InterviewAt = &at
	scheduled := f.create(t, hr(), req)
	assert.Equal(t, candidate.StatusInterview, scheduled.Status)
}

func TestCreateCandidateTakesPartnerFromJob(t *testing.T) {
	f := setup(t)
	j, err := f.jobs.Create(context.Background(), hr(), job.JobRequest{
		Title: "Pickers", Role: "Picker", Location: "Chennai", Openings: 3, PartnerID: "partner-1",
	})
	require.NoError(t, err)

	req := newCandidate("9000000002")
	req.JobID = j.ID
	c := f.create(t, hr(), req)
	assert.Equal(t, "partner-1", c.PartnerID)
}

func TestTransitionRules(t *testing.T) {
	f := setup(t)
	c := f.create(t, hr(), newCandidate("9000000003"))

	_, err := f.svc.Transition(context.Background(), hr(), c.ID, candidate.TransitionRequest{Status: candidate.StatusSelected})
	assert.True(t, errx.IsCode(err, candidate.CodeInvalidTransition))

	_, err = f.svc.Transition(context.Background(), hr(), c.ID, candidate.TransitionRequest{Status: candidate.StatusRejected})
	assert.True(t, errx.IsCode(err, candidate.CodeReasonRequired))

	_, err = f.svc.Transition(context.Background(), hr(), c.ID, candidate.TransitionRequest{Status: candidate.StatusHired})
	assert.True(t, errx.IsCode(err, candidate.CodeInvalidCandidate))

	moved := f.moveTo(t, c.ID, candidate.StatusScreening, candidate.StatusInterview)
	assert.Equal(t, candidate.StatusInterview, moved.Status)
	assert.Len(t, moved.History, 3)
	assert.Equal(t, candidate.StatusScreening, moved.History[2].From)
}

func TestStaleVersionConflicts(t *testing.T) {
	f := setup(t)
	c := f.create(t, hr(), newCandidate("9000000004"))
	stale := c.Version

	f.moveTo(t, c.ID, candidate.StatusScreening)

	_, err := f.svc.Transition(context.Background(), hr(), c.ID, candidate.TransitionRequest{
		Status:  candidate.StatusInterview,
		Version: stale,
	})
	assert.True(t, errx.IsCode(err, docstore.CodeVersionConflict))

	notes := "second thoughts"
	_, err = f.svc.Update(context.Background(), hr(), c.ID, candidate.UpdateRequest{Notes: &notes, Version: stale})
	assert.True(t, errx.IsCode(err, docstore.CodeVersionConflict))
}

func TestVisibility(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	recruiter := principal("rec-1", kernel.RoleTeam, scopes.ScopeCandidatesReadOwn, scopes.ScopeCandidatesWrite)
	mine := f.create(t, recruiter, newCandidate("9000000005"))
	other := f.create(t, hr(), newCandidate("9000000006"))

	list, err := f.svc.List(ctx, recruiter, candidate.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = f.svc.Get(ctx, recruiter, other.ID)
	assert.True(t, errx.IsCode(err, candidate.CodeCandidateNotFound))

	self := principal("cand-user", kernel.RoleCandidate, scopes.ScopeCandidatesReadOwn)
	self.Links.CandidateID = other.ID
	got, err := f.svc.Get(ctx, self, other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)

	partner := principal("p-user", kernel.RolePartner, scopes.ScopeCandidatesReadOwn)
	list, err = f.svc.List(ctx, partner, candidate.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.List(ctx, principal("x", kernel.RoleSupervisor), candidate.Filter{})
	assert.True(t, errx.IsCode(err, iam.CodeForbidden))
}

func TestBoardHasEveryColumn(t *testing.T) {
	f := setup(t)
	c := f.create(t, hr(), newCandidate("9000000007"))
	f.create(t, hr(), newCandidate("9000000008"))
	f.moveTo(t, c.ID, candidate.StatusScreening)

	board, err := f.svc.Board(context.Background(), hr(), candidate.Filter{})
	require.NoError(t, err)
	require.Len(t, board, len(candidate.Pipeline))
	assert.Equal(t, candidate.StatusSourced, board[0].Status)
	assert.Equal(t, 1, board[0].Count)
	assert.Equal(t, 1, board[1].Count)
}

func TestHireCreatesEmployee(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.create(t, hr(), newCandidate("9000000009"))

	_, err := f.svc.Hire(ctx, hr(), c.ID, candidate.HireRequest{StoreID: f.store.ID, JoiningDate: "2024-07-01", AnnualCTC: 240000})
	assert.True(t, errx.IsCode(err, candidate.CodeNotHirable))

	f.moveTo(t, c.ID, candidate.StatusScreening, candidate.StatusInterview, candidate.StatusSelected)

	_, err = f.svc.Hire(ctx, hr(), c.ID, candidate.HireRequest{StoreID: "missing", JoiningDate: "2024-07-01", AnnualCTC: 240000})
	assert.True(t, errx.IsCode(err, panel.CodeUnknownStore))

	res, err := f.svc.Hire(ctx, hr(), c.ID, candidate.HireRequest{StoreID: f.store.ID, JoiningDate: "2024-07-01", AnnualCTC: 240000})
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusHired, res.Candidate.Status)
	assert.Equal(t, res.Employee.ID, res.Candidate.EmployeeID)
	assert.Equal(t, c.ID, res.Employee.CandidateID)
	assert.Equal(t, "Picker", res.Employee.Designation)
	assert.Equal(t, "Chennai", res.Employee.Location)
	require.Len(t, f.listener.hired, 1)

	all, err := f.employees.List(ctx, hr(), employee.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestHireRemovesEmployeeWhenCandidateSaveFails(t *testing.T) {
	repo := &brokenCandidates{}
	f := setupWith(t, func(r docstore.Repository[candidate.Candidate]) docstore.Repository[candidate.Candidate] {
		repo.Repository = r
		return repo
	})
	ctx := context.Background()
	c := f.create(t, hr(), newCandidate("9000000011"))
	f.moveTo(t, c.ID, candidate.StatusScreening, candidate.StatusInterview, candidate.StatusSelected)

	repo.broken = true
	_, err := f.svc.Hire(ctx, hr(), c.ID, candidate.HireRequest{StoreID: f.store.ID, JoiningDate: "2024-07-01", AnnualCTC: 240000})
	require.Error(t, err)
	assert.Empty(t, f.listener.hired)

	all, err := f.employees.List(ctx, hr(), employee.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	got, err := f.svc.Get(ctx, hr(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusSelected, got.Status)
	assert.Empty(t, got.EmployeeID)

	// once storage recovers the hire goes through
	repo.broken = false
	res, err := f.svc.Hire(ctx, hr(), c.ID, candidate.HireRequest{StoreID: f.store.ID, JoiningDate: "2024-07-01", AnnualCTC: 240000})
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusHired, res.Candidate.Status)
}

func TestRemoveOnlyEarlyCandidates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	early := f.create(t, hr(), newCandidate("9000000012"))
	require.NoError(t, f.svc.Remove(ctx, early.ID))
	_, err := f.svc.Get(ctx, hr(), early.ID)
	assert.True(t, errx.IsCode(err, candidate.CodeCandidateNotFound))

	late := f.create(t, hr(), newCandidate("9000000013"))
	f.moveTo(t, late.ID, candidate.StatusScreening)
	err = f.svc.Remove(ctx, late.ID)
	assert.True(t, errx.IsCode(err, candidate.CodeInvalidTransition))
}

func TestResignationQuitsCandidate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.create(t, hr(), newCandidate("9000000010"))
	f.moveTo(t, c.ID, candidate.StatusScreening, candidate.StatusInterview, candidate.StatusSelected)
	res, err := f.svc.Hire(ctx, hr(), c.ID, candidate.HireRequest{StoreID: f.store.ID, JoiningDate: "2024-07-01", AnnualCTC: 240000})
	require.NoError(t, err)

	_, err = f.employees.Exit(ctx, hr(), res.Employee.ID, employee.ExitRequest{Status: employee.StatusResigned, Date: "2024-08-01"})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, hr(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusQuit, got.Status)
	assert.Equal(t, "RESIGNED", got.History[len(got.History)-1].Note)

	// already out of the pipeline
	require.NoError(t, f.svc.MarkQuit(ctx, c.ID, "hr-1", "again"))
}

func TestGenerateCV(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.create(t, hr(), newCandidate("9000000011"))

	out, err := f.svc.GenerateCV(ctx, hr(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "cv/"+c.ID+".html", out.CVPath)

	data, contentType, err := f.svc.CV(ctx, hr(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, docgen.ContentTypeHTML, contentType)
	assert.Contains(t, string(data), "Priya S")
	assert.Contains(t, string(data), "Hireline Staffing")
}
