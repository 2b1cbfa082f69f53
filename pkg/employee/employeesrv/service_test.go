package employeesrv

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/panel"
	"github.com/Abraxas-365/hireline/pkg/panel/panelsrv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quitCall struct {
	candidateID string
	reason      string
}

type fakeQuitter struct {
	calls []quitCall
	err   error
}

func (f *fakeQuitter) MarkQuit(ctx context.Context, candidateID, by, reason string) error {
	f.calls = append(f.calls, quitCall{candidateID: candidateID, reason: reason})
	return f.err
}

var now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *EmployeeService
	quitter *fakeQuitter
	storeA  *panel.Store
	storeB  *panel.Store
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
	_, err := ps.CreateLocation(ctx, panel.LocationRequest{Name: "Chennai"})
	require.NoError(t, err)
	a, err := ps.CreateStore(ctx, panel.StoreRequest{Name: "Anna Nagar", Location: "Chennai"})
	require.NoError(t, err)
	b, err := ps.CreateStore(ctx, panel.StoreRequest{Name: "Velachery", Location: "chennai"})
	require.NoError(t, err)

	files, err := fsxlocal.NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)

	q := &fakeQuitter{}
	svc := NewEmployeeService(
		docstore.NewCollection[employee.Employee](store, feed, employee.Collection),
		ps, q, files,
	).WithClock(func() time.Time { return now })
	return &fixture{svc: svc, quitter: q, storeA: a, storeB: b}
}

func hr() *kernel.AuthContext {
	uid := kernel.UserID("hr-1")
	return &kernel.AuthContext{UserID: &uid, Scopes: []string{scopes.ScopeEmployeesAll}}
}

func supervisor(storeID string) *kernel.AuthContext {
	uid := kernel.UserID("sup-1")
	return &kernel.AuthContext{
		UserID: &uid,
		Role:   kernel.RoleSupervisor,
		Scopes: []string{scopes.ScopeEmployeesReadStore},
		Links:  kernel.Links{StoreID: storeID},
	}
}

func (f *fixture) hire(t *testing.T, storeID, candidateID string) *employee.Employee {
	t.Helper()
	e, err := f.svc.CreateFromHire(context.Background(), employee.HireInput{
		CandidateID: candidateID,
		Name:        "Ravi Kumar",
		Phone:       "9876543210",
		Designation: "Picker",
		StoreID:     storeID,
		JoiningDate: time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC),
		AnnualCTC:   240000,
	})
	require.NoError(t, err)
	return e
}

func TestCreateFromHireTakesLocationFromStore(t *testing.T) {
	f := setup(t)
	e := f.hire(t, f.storeA.ID, "cand-1")

	assert.Equal(t, employee.StatusActive, e.Status)
	assert.Equal(t, "Chennai", e.Location)
	assert.Equal(t, "2024-06-03", kernel.DayKey(e.JoiningDate))
	assert.Equal(t, 0, e.JoiningDate.Hour())

	_, err := f.svc.CreateFromHire(context.Background(), employee.HireInput{
		Name: "X", Designation: "Picker", StoreID: "nope", JoiningDate: now, AnnualCTC: 1,
	})
	assert.True(t, errx.IsCode(err, panel.CodeUnknownStore))
}

func TestSupervisorSeesOwnStoreOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mine := f.hire(t, f.storeA.ID, "")
	other := f.hire(t, f.storeB.ID, "")

	list, err := f.svc.List(ctx, supervisor(f.storeA.ID), employee.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = f.svc.Get(ctx, supervisor(f.storeA.ID), other.ID)
	assert.True(t, errx.IsCode(err, employee.CodeEmployeeNotFound))

	all, err := f.svc.List(ctx, hr(), employee.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	uid := kernel.UserID("nobody")
	_, err = f.svc.List(ctx, &kernel.AuthContext{UserID: &uid}, employee.Filter{})
	assert.True(t, errx.IsCode(err, iam.CodeForbidden))
}

func TestExitRules(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := f.hire(t, f.storeA.ID, "cand-1")

	_, err := f.svc.Exit(ctx, hr(), e.ID, employee.ExitRequest{Status: employee.StatusActive})
	assert.True(t, errx.IsCode(err, employee.CodeInvalidExitStatus))

	_, err = f.svc.Exit(ctx, hr(), e.ID, employee.ExitRequest{Status: employee.StatusResigned, Date: "2024-06-01"})
	assert.True(t, errx.IsCode(err, employee.CodeExitBeforeJoining))

	out, err := f.svc.Exit(ctx, hr(), e.ID, employee.ExitRequest{Status: employee.StatusResigned, Date: "2024-06-08", Reason: "relocating"})
	require.NoError(t, err)
	assert.Equal(t, employee.StatusResigned, out.Status)
	require.NotNil(t, out.ExitDate)
	assert.Equal(t, "2024-06-08", kernel.DayKey(*out.ExitDate))
	assert.Equal(t, []quitCall{{candidateID: "cand-1", reason: "RESIGNED"}}, f.quitter.calls)

	_, err = f.svc.Exit(ctx, hr(), e.ID, employee.ExitRequest{Status: employee.StatusTerminated})
	assert.True(t, errx.IsCode(err, employee.CodeNotActive))
}

func TestExitStandsWhenCandidateQuitFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := f.hire(t, f.storeA.ID, "cand-1")
	f.quitter.err = errx.New("candidate store unavailable", errx.TypeInternal)

	out, err := f.svc.Exit(ctx, hr(), e.ID, employee.ExitRequest{Status: employee.StatusAbsconded})
	require.NoError(t, err)
	assert.Equal(t, employee.StatusAbsconded, out.Status)
	assert.Len(t, f.quitter.calls, 1)

	stored, err := f.svc.Get(ctx, hr(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, employee.StatusAbsconded, stored.Status)
}

func TestTerminationLeavesCandidateAlone(t *testing.T) {
	f := setup(t)
	e := f.hire(t, f.storeA.ID, "cand-1")

	_, err := f.svc.Exit(context.Background(), hr(), e.ID, employee.ExitRequest{Status: employee.StatusTerminated})
	require.NoError(t, err)
	assert.Empty(t, f.quitter.calls)
}

func TestUpdateMovesStore(t *testing.T) {
	f := setup(t)
	e := f.hire(t, f.storeA.ID, "")

	ifsc := " hdfc0001234 "
	out, err := f.svc.Update(context.Background(), hr(), e.ID, employee.UpdateRequest{StoreID: &f.storeB.ID, IFSC: &ifsc})
	require.NoError(t, err)
	assert.Equal(t, f.storeB.ID, out.StoreID)
	assert.Equal(t, "HDFC0001234", out.IFSC)

	bad := -1.0
	_, err = f.svc.Update(context.Background(), hr(), e.ID, employee.UpdateRequest{AnnualCTC: &bad})
	assert.True(t, errx.IsCode(err, employee.CodeInvalidEmployee))
}

func TestPhotoUpload(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := f.hire(t, f.storeA.ID, "")

	_, err := f.svc.Photo(ctx, hr(), e.ID)
	assert.True(t, errx.IsCode(err, employee.CodeNoPhoto))

	var raw bytes.Buffer
	require.NoError(t, png.Encode(&raw, image.NewRGBA(image.Rect(0, 0, 640, 480))))

	out, err := f.svc.UploadPhoto(ctx, hr(), e.ID, raw.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "photos/"+e.ID+".png", out.PhotoPath)

	data, err := f.svc.Photo(ctx, hr(), e.ID)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, employee.PhotoSize, cfg.Width)
	assert.Equal(t, employee.PhotoSize, cfg.Height)
}

func TestRemoveIsIdempotent(t *testing.T) {
	f := setup(t)
	e := f.hire(t, f.storeA.ID, "")
	require.NoError(t, f.svc.Remove(context.Background(), e.ID))
	require.NoError(t, f.svc.Remove(context.Background(), e.ID))
}
