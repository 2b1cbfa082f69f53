package jobsrv

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/hireline/pkg/ai/llm"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/job"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/panel"
	"github.com/Abraxas-365/hireline/pkg/panel/panelsrv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply string
	err   error
	got   []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	f.got = messages
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Message: llm.NewAssistantMessage(f.reply)}, nil
}

func setup(t *testing.T, model llm.LLM) *JobService {
	t.Helper()
	store := docstore.NewMemoryStore()
	feed := docstore.NewLocalFeed(16)
	ps := panelsrv.NewPanelService(
		docstore.NewCollection[panel.JobRole](store, feed, panel.RolesCollection),
		docstore.NewCollection[panel.Location](store, feed, panel.LocationsCollection),
		docstore.NewCollection[panel.Store](store, feed, panel.StoresCollection),
	)
	ctx := context.Background()
	_, err := ps.CreateRole(ctx, panel.RoleRequest{Name: "Store Associate"})
	require.NoError(t, err)
	_, err = ps.CreateLocation(ctx, panel.LocationRequest{Name: "Pune"})
	require.NoError(t, err)

	return NewJobService(docstore.NewCollection[job.Job](store, feed, job.Collection), ps, model)
}

func hr() *kernel.AuthContext {
	id := kernel.UserID("hr-1")
	return &kernel.AuthContext{UserID: &id, Role: kernel.RoleHR}
}

func validRequest() job.JobRequest {
	return job.JobRequest{
		Title:     "Weekend associate",
		Role:      "store associate",
		Location:  "PUNE",
		Openings:  3,
		SalaryMin: 15000,
		SalaryMax: 18000,
		Skills:    []string{"billing", " Billing ", "", "stocking"},
	}
}

func TestCreateValidatesAgainstPanel(t *testing.T) {
	s := setup(t, nil)
	ctx := context.Background()

	j, err := s.Create(ctx, hr(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, job.StatusDraft, j.Status)
	assert.Equal(t, "Store Associate", j.Role)
	assert.Equal(t, "Pune", j.Location)
	assert.Equal(t, []string{"billing", "stocking"}, j.Skills)
	assert.Equal(t, "hr-1", j.CreatedBy)

	bad := validRequest()
	bad.Role = "Pilot"
	_, err = s.Create(ctx, hr(), bad)
	assert.True(t, errx.IsCode(err, panel.CodeUnknownRole))

	bad = validRequest()
	bad.Openings = 0
	_, err = s.Create(ctx, hr(), bad)
	assert.True(t, errx.IsCode(err, job.CodeInvalidJob))

	bad = validRequest()
	bad.SalaryMin = 20000
	_, err = s.Create(ctx, hr(), bad)
	assert.True(t, errx.IsCode(err, job.CodeInvalidJob))
}

func TestLifecycle(t *testing.T) {
	s := setup(t, nil)
	ctx := context.Background()

	j, err := s.Create(ctx, hr(), validRequest())
	require.NoError(t, err)

	_, err = s.Transition(ctx, j.ID, job.StatusOnHold)
	assert.True(t, errx.IsCode(err, job.CodeInvalidTransition))

	j, err = s.Transition(ctx, j.ID, job.StatusOpen)
	require.NoError(t, err)
	assert.NotNil(t, j.OpenedAt)

	j, err = s.Transition(ctx, j.ID, job.StatusOnHold)
	require.NoError(t, err)
	j, err = s.Transition(ctx, j.ID, job.StatusOpen)
	require.NoError(t, err)

	assert.True(t, errx.IsCode(s.Delete(ctx, j.ID), job.CodeInvalidTransition))

	j, err = s.Transition(ctx, j.ID, job.StatusClosed)
	require.NoError(t, err)
	assert.NotNil(t, j.ClosedAt)

	_, err = s.Transition(ctx, j.ID, job.StatusOpen)
	assert.True(t, errx.IsCode(err, job.CodeInvalidTransition))

	_, err = s.Update(ctx, j.ID, validRequest())
	assert.True(t, errx.IsCode(err, job.CodeJobClosed))
}

func TestListFilters(t *testing.T) {
	s := setup(t, nil)
	ctx := context.Background()

	a := validRequest()
	a.Title = "Cashier morning shift"
	a.PartnerID = "p-1"
	_, err := s.Create(ctx, hr(), a)
	require.NoError(t, err)

	b := validRequest()
	b.Title = "Night loader"
	open, err := s.Create(ctx, hr(), b)
	require.NoError(t, err)
	_, err = s.Transition(ctx, open.ID, job.StatusOpen)
	require.NoError(t, err)

	got, err := s.List(ctx, hr(), job.Filter{Query: "CASHIER"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p-1", got[0].PartnerID)

	got, err = s.List(ctx, hr(), job.Filter{Status: job.StatusOpen})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, open.ID, got[0].ID)

	// partner users are pinned to their own postings
	pid := kernel.UserID("partner-user")
	partner := &kernel.AuthContext{UserID: &pid, Role: kernel.RolePartner, Links: kernel.Links{PartnerID: "p-2"}}
	got, err = s.List(ctx, partner, job.Filter{PartnerID: "p-1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDraft(t *testing.T) {
	ctx := context.Background()

	_, err := setup(t, nil).Draft(ctx, hr(), job.DraftRequest{Role: "Store Associate"})
	assert.True(t, errx.IsCode(err, job.CodeAIUnavailable))

	model := &fakeLLM{reply: `{"description":"Greet customers and run the till.","skills":["billing","customer service"]}`}
	out, err := setup(t, model).Draft(ctx, hr(), job.DraftRequest{Role: "Store Associate", Location: "Pune"})
	require.NoError(t, err)
	assert.Equal(t, "Greet customers and run the till.", out.Description)
	assert.Equal(t, []string{"billing", "customer service"}, out.Skills)
	require.Len(t, model.got, 2)
	assert.Equal(t, llm.RoleSystem, model.got[0].Role)
	assert.Contains(t, model.got[1].Content, "Location: Pune")

	plain := &fakeLLM{reply: "  Greet customers.  "}
	out, err = setup(t, plain).Draft(ctx, hr(), job.DraftRequest{Role: "Store Associate", Skills: []string{"billing"}})
	require.NoError(t, err)
	assert.Equal(t, "Greet customers.", out.Description)
	assert.Equal(t, []string{"billing"}, out.Skills)

	failing := &fakeLLM{err: errors.New("boom")}
	_, err = setup(t, failing).Draft(ctx, hr(), job.DraftRequest{Role: "Store Associate"})
	assert.True(t, errx.IsCode(err, job.CodeDraftFailed))
}
