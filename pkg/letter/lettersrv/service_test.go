package lettersrv

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/candidate"
	"github.com/Abraxas-365/hireline/pkg/candidate/candidatesrv"
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
	"github.com/Abraxas-365/hireline/pkg/letter"
	"github.com/Abraxas-365/hireline/pkg/panel"
	"github.com/Abraxas-365/hireline/pkg/panel/panelsrv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc        *LetterService
	candidates *candidatesrv.CandidateService
	employees  *employeesrv.EmployeeService
	store      *panel.Store
}

func setup(t *testing.T) *fixture {
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

	employees := docstore.NewCollection[employee.Employee](store, feed, employee.Collection)
	es := employeesrv.NewEmployeeService(employees, ps, nil, files)
	js := jobsrv.NewJobService(docstore.NewCollection[job.Job](store, feed, job.Collection), ps, nil)
	cs := candidatesrv.NewCandidateService(
		docstore.NewCollection[candidate.Candidate](store, feed, candidate.Collection),
		ps, js, es,
	)

	gen, err := docgen.NewGenerator(docgen.HTMLRenderer{}, config.DocGenConfig{CompanyName: "Hireline Staffing"})
	require.NoError(t, err)

	svc := NewLetterService(
		docstore.NewCollection[letter.OfferLetter](store, feed, letter.OfferCollection),
		docstore.NewCollection[letter.WarningLetter](store, feed, letter.WarningCollection),
		cs, employees, ps, gen, files, config.DefaultPayrollConfig(),
	).WithClock(func() time.Time { return now })
	cs.AddHireListener(svc)

	return &fixture{svc: svc, candidates: cs, employees: es, store: st}
}

func hr() *kernel.AuthContext {
	uid := kernel.UserID("hr-1")
	return &kernel.AuthContext{
		UserID: &uid,
		Role:   kernel.RoleHR,
		Scopes: []string{scopes.ScopeCandidatesAll, scopes.ScopeLettersRead, scopes.ScopeLettersWrite},
	}
}

func candidateUser(candidateID string) *kernel.AuthContext {
	uid := kernel.UserID("cand-user")
	return &kernel.AuthContext{
		UserID: &uid,
		Role:   kernel.RoleCandidate,
		Scopes: []string{scopes.ScopeCandidatesReadOwn, scopes.ScopeLettersRespond},
		Links:  kernel.Links{CandidateID: candidateID},
	}
}

func (f *fixture) selected(t *testing.T, phone string) *candidate.Candidate {
	t.Helper()
	ctx := context.Background()
	c, err := f.candidates.CreateCandidate(ctx, hr(), candidate.CreateRequest{
		Name:     "Priya S",
		Phone:    phone,
		Role:     "Picker",
		Location: "Chennai",
		Address:  "12 Lake View Road",
	})
	require.NoError(t, err)
	for _, st := range []candidate.Status{candidate.StatusScreening, candidate.StatusInterview, candidate.StatusSelected} {
		c, err = f.candidates.Transition(ctx, hr(), c.ID, candidate.TransitionRequest{Status: st})
		require.NoError(t, err)
	}
	return c
}

func (f *fixture) offerFor(c *candidate.Candidate) letter.OfferRequest {
	return letter.OfferRequest{
		CandidateID: c.ID,
		StoreID:     f.store.ID,
		JoiningDate: "2024-07-01",
		AnnualCTC:   240000,
	}
}

func TestCreateOffer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.selected(t, "9876543210")

	o, err := f.svc.CreateOffer(ctx, hr(), f.offerFor(c))
	require.NoError(t, err)

	assert.Equal(t, letter.OfferGenerated, o.Status)
	assert.Equal(t, "Picker", o.Designation)
	assert.Equal(t, "Anna Nagar", o.StoreName)
	assert.Equal(t, "Chennai", o.Location)
	assert.True(t, strings.HasPrefix(o.Reference, "OL-202406-"))
	assert.Equal(t, "letters/offer/"+o.ID+".html", o.FilePath)
	assert.InDelta(t, 20000, o.Breakdown.MonthlyCTC, 0.01)

	moved, err := f.candidates.Candidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusOfferSent, moved.Status)

	data, contentType, name, err := f.svc.OfferFile(ctx, hr(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, docgen.ContentTypeHTML, contentType)
	assert.Equal(t, o.Reference+".html", name)
	assert.Contains(t, string(data), "Priya S")
	assert.Contains(t, string(data), "Anna Nagar")
}

func TestCreateOfferRequiresSelected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c, err := f.candidates.CreateCandidate(ctx, hr(), candidate.CreateRequest{
		Name: "Arun", Phone: "9000000001", Role: "Picker", Location: "Chennai",
	})
	require.NoError(t, err)

	_, err = f.svc.CreateOffer(ctx, hr(), f.offerFor(c))
	assert.True(t, errx.IsCode(err, letter.CodeNotSelected))

	sel := f.selected(t, "9000000002")
	req := f.offerFor(sel)
	req.AnnualCTC = 0
	_, err = f.svc.CreateOffer(ctx, hr(), req)
	assert.True(t, errx.IsCode(err, letter.CodeInvalidLetter))

	req = f.offerFor(sel)
	req.StoreID = "missing"
	_, err = f.svc.CreateOffer(ctx, hr(), req)
	assert.True(t, errx.IsCode(err, panel.CodeUnknownStore))

	list, err := f.svc.ListOffers(ctx, hr(), letter.OfferFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegenerateOffer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.selected(t, "9876543210")
	o, err := f.svc.CreateOffer(ctx, hr(), f.offerFor(c))
	require.NoError(t, err)

	again, err := f.svc.RegenerateOffer(ctx, hr(), o.ID, letter.OfferRequest{AnnualCTC: 300000})
	require.NoError(t, err)
	assert.Equal(t, 300000.0, again.AnnualCTC)
	assert.Equal(t, "2024-07-01", kernel.DayKey(again.JoiningDate))
	assert.Equal(t, f.store.ID, again.StoreID)
	assert.InDelta(t, 25000, again.Breakdown.MonthlyCTC, 0.01)

	_, err = f.svc.RespondOffer(ctx, candidateUser(c.ID), o.ID, letter.RespondRequest{Status: letter.OfferAccepted})
	require.NoError(t, err)

	_, err = f.svc.RegenerateOffer(ctx, hr(), o.ID, letter.OfferRequest{AnnualCTC: 360000})
	assert.True(t, errx.IsCode(err, letter.CodeNotGenerated))
}

func TestRespondOffer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.selected(t, "9876543210")
	o, err := f.svc.CreateOffer(ctx, hr(), f.offerFor(c))
	require.NoError(t, err)

	_, err = f.svc.RespondOffer(ctx, candidateUser("someone-else"), o.ID, letter.RespondRequest{Status: letter.OfferAccepted})
	assert.True(t, errx.IsCode(err, letter.CodeLetterNotFound))

	_, err = f.svc.RespondOffer(ctx, candidateUser(c.ID), o.ID, letter.RespondRequest{Status: "MAYBE"})
	assert.True(t, errx.IsCode(err, letter.CodeInvalidResponse))

	answered, err := f.svc.RespondOffer(ctx, candidateUser(c.ID), o.ID, letter.RespondRequest{Status: letter.OfferAccepted})
	require.NoError(t, err)
	assert.Equal(t, letter.OfferAccepted, answered.Status)
	assert.Equal(t, "cand-user", answered.RespondedBy)

	still, err := f.candidates.Candidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusOfferSent, still.Status)

	_, err = f.svc.RespondOffer(ctx, candidateUser(c.ID), o.ID, letter.RespondRequest{Status: letter.OfferDeclined})
	assert.True(t, errx.IsCode(err, letter.CodeNotGenerated))
}

func TestDeclineQuitsCandidate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.selected(t, "9876543210")
	o, err := f.svc.CreateOffer(ctx, hr(), f.offerFor(c))
	require.NoError(t, err)

	_, err = f.svc.RespondOffer(ctx, candidateUser(c.ID), o.ID, letter.RespondRequest{Status: letter.OfferDeclined, Note: "relocating"})
	require.NoError(t, err)

	quit, err := f.candidates.Candidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusQuit, quit.Status)
	last := quit.History[len(quit.History)-1]
	assert.Equal(t, "offer declined: relocating", last.Note)
}

func TestHiredCandidateCannotDecline(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.selected(t, "9876543211")
	o, err := f.svc.CreateOffer(ctx, hr(), f.offerFor(c))
	require.NoError(t, err)

	res, err := f.candidates.Hire(ctx, hr(), c.ID, candidate.HireRequest{StoreID: f.store.ID, JoiningDate: "2024-07-01", AnnualCTC: 240000})
	require.NoError(t, err)

	settled, err := f.svc.GetOffer(ctx, hr(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, letter.OfferAccepted, settled.Status)
	assert.Equal(t, "system", settled.RespondedBy)

	_, err = f.svc.RespondOffer(ctx, candidateUser(c.ID), o.ID, letter.RespondRequest{Status: letter.OfferDeclined})
	assert.True(t, errx.IsCode(err, letter.CodeOfferSettled))

	hired, err := f.candidates.Candidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusHired, hired.Status)

	uid := kernel.UserID("admin-1")
	e, err := f.employees.Get(ctx, &kernel.AuthContext{UserID: &uid, Scopes: []string{"*"}}, res.Employee.ID)
	require.NoError(t, err)
	assert.Equal(t, employee.StatusActive, e.Status)
}

func TestCandidateSeesOwnOffersOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.selected(t, "9876543210")
	b := f.selected(t, "9876543211")
	oa, err := f.svc.CreateOffer(ctx, hr(), f.offerFor(a))
	require.NoError(t, err)
	_, err = f.svc.CreateOffer(ctx, hr(), f.offerFor(b))
	require.NoError(t, err)

	all, err := f.svc.ListOffers(ctx, hr(), letter.OfferFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.svc.ListOffers(ctx, candidateUser(a.ID), letter.OfferFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, oa.ID, own[0].ID)

	_, _, _, err = f.svc.OfferFile(ctx, candidateUser(b.ID), oa.ID)
	assert.True(t, errx.IsCode(err, letter.CodeLetterNotFound))
}

func TestIssueWarningEscalatesLevel(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e, err := f.employees.CreateFromHire(ctx, employee.HireInput{
		CandidateID: "cand-1",
		Name:        "Ravi Kumar",
		Phone:       "9876543210",
		Designation: "Picker",
		StoreID:     f.store.ID,
		JoiningDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		AnnualCTC:   240000,
	})
	require.NoError(t, err)

	_, err = f.svc.IssueWarning(ctx, hr(), letter.WarningRequest{EmployeeID: e.ID, Reason: "Late"})
	assert.True(t, errx.IsCode(err, letter.CodeInvalidLetter))

	levels := []letter.WarningLevel{letter.LevelFirst, letter.LevelSecond, letter.LevelFinal, letter.LevelFinal}
	for _, want := range levels {
		w, err := f.svc.IssueWarning(ctx, hr(), letter.WarningRequest{
			EmployeeID:  e.ID,
			Reason:      "Late arrival",
			Description: "Reported after 10:00 on three days",
		})
		require.NoError(t, err)
		assert.Equal(t, want, w.Level)
		assert.Equal(t, f.store.ID, w.StoreID)
	}

	list, err := f.svc.ListWarnings(ctx, letter.WarningFilter{EmployeeID: e.ID, Level: letter.LevelFinal})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	data, contentType, name, err := f.svc.WarningFile(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, docgen.ContentTypeHTML, contentType)
	assert.Equal(t, list[0].Reference+".html", name)
	assert.Contains(t, string(data), "Ravi Kumar")
}

func TestWarningNeedsActiveEmployee(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.IssueWarning(ctx, hr(), letter.WarningRequest{EmployeeID: "ghost", Reason: "x", Description: "y"})
	assert.True(t, errx.IsCode(err, employee.CodeEmployeeNotFound))

	_, err = f.svc.GetWarning(ctx, "ghost")
	assert.True(t, errx.IsCode(err, letter.CodeLetterNotFound))
}

func TestRespondNeedsOwnership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.selected(t, "9876543210")
	o, err := f.svc.CreateOffer(ctx, hr(), f.offerFor(c))
	require.NoError(t, err)

	reader := hr()
	reader.Scopes = []string{scopes.ScopeLettersRead}
	_, err = f.svc.RespondOffer(ctx, reader, o.ID, letter.RespondRequest{Status: letter.OfferAccepted})
	assert.True(t, errx.IsCode(err, iam.CodeForbidden))
}
