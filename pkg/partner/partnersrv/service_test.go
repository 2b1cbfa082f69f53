package partnersrv

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/panel"
	"github.com/Abraxas-365/hireline/pkg/panel/panelsrv"
	"github.com/Abraxas-365/hireline/pkg/partner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var now = time.Date(2024, 7, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *PartnerService
	employees docstore.Repository[employee.Employee]
	store     *panel.Store
	clock     time.Time
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
	_, err = ps.CreateLocation(ctx, panel.LocationRequest{Name: "Bengaluru"})
	require.NoError(t, err)
	st, err := ps.CreateStore(ctx, panel.StoreRequest{Name: "Anna Nagar", Location: "Chennai"})
	require.NoError(t, err)

	employees := docstore.NewCollection[employee.Employee](store, feed, employee.Collection)
	f := &fixture{employees: employees, store: st, clock: now}
	f.svc = NewPartnerService(
		docstore.NewCollection[partner.Partner](store, feed, partner.PartnersCollection),
		docstore.NewCollection[partner.Requirement](store, feed, partner.RequirementsCollection),
		docstore.NewCollection[partner.Invoice](store, feed, partner.InvoicesCollection),
		docstore.NewCollection[partner.InvoiceCounter](store, feed, partner.CountersCollection),
		employees, ps, config.DefaultPayrollConfig(),
	).WithClock(func() time.Time { return f.clock })
	return f
}

func admin() *kernel.AuthContext {
	uid := kernel.UserID("admin-1")
	return &kernel.AuthContext{UserID: &uid, Role: kernel.RoleAdmin, Scopes: []string{"*"}}
}

func partnerUser(partnerID string) *kernel.AuthContext {
	uid := kernel.UserID("vendor-1")
	return &kernel.AuthContext{
		UserID: &uid,
		Role:   kernel.RolePartner,
		Scopes: scopes.ForRole(kernel.RolePartner),
		Links:  kernel.Links{PartnerID: partnerID},
	}
}

func (f *fixture) partner(t *testing.T, name string) *partner.Partner {
	t.Helper()
	p, err := f.svc.CreatePartner(context.Background(), partner.PartnerRequest{Name: name, CommissionPercent: 10})
	require.NoError(t, err)
	return p
}

func (f *fixture) hire(t *testing.T, partnerID, designation, location string, joined time.Time, ctc float64) *employee.Employee {
	t.Helper()
	e := &employee.Employee{
		Name:        "Hire " + designation,
		Designation: designation,
		Location:    location,
		StoreID:     f.store.ID,
		PartnerID:   partnerID,
		JoiningDate: joined,
		AnnualCTC:   ctc,
		Status:      employee.StatusActive,
	}
	require.NoError(t, f.employees.Create(context.Background(), e))
	return e
}

func TestPartnerNamesAreUnique(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.partner(t, "Quick Staff")
	b := f.partner(t, "Metro Manpower")

	_, err := f.svc.CreatePartner(ctx, partner.PartnerRequest{Name: "quick staff"})
	assert.True(t, errx.IsCode(err, partner.CodeDuplicatePartner))

	_, err = f.svc.UpdatePartner(ctx, b.ID, partner.PartnerRequest{Name: "QUICK STAFF"})
	assert.True(t, errx.IsCode(err, partner.CodeDuplicatePartner))

	renamed, err := f.svc.UpdatePartner(ctx, a.ID, partner.PartnerRequest{Name: "Quick Staff Pvt Ltd", CommissionPercent: 12})
	require.NoError(t, err)
	assert.Equal(t, 12.0, renamed.CommissionPercent)
}

func TestPartnerUserSeesOwnRecords(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.partner(t, "Quick Staff")
	b := f.partner(t, "Metro Manpower")

	list, err := f.svc.ListPartners(ctx, partnerUser(a.ID), partner.PartnerFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	_, err = f.svc.GetPartner(ctx, partnerUser(a.ID), b.ID)
	assert.True(t, errx.IsCode(err, partner.CodePartnerNotFound))

	_, err = f.svc.CreateRequirement(ctx, admin(), partner.RequirementRequest{PartnerID: a.ID, Role: "picker", Location: "chennai", Openings: 2})
	require.NoError(t, err)
	rb, err := f.svc.CreateRequirement(ctx, admin(), partner.RequirementRequest{PartnerID: b.ID, Role: "Picker", Location: "Chennai", Openings: 1})
	require.NoError(t, err)

	reqs, err := f.svc.ListRequirements(ctx, partnerUser(a.ID), partner.RequirementFilter{PartnerID: b.ID})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, a.ID, reqs[0].PartnerID)

	_, err = f.svc.GetRequirement(ctx, partnerUser(a.ID), rb.ID)
	assert.True(t, errx.IsCode(err, partner.CodeRequirementNotFound))

	unlinked := partnerUser("")
	_, err = f.svc.ListInvoices(ctx, unlinked, partner.InvoiceFilter{})
	assert.True(t, errx.IsCode(err, iam.CodeForbidden))
}

func TestCreateRequirementValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.partner(t, "Quick Staff")

	r, err := f.svc.CreateRequirement(ctx, admin(), partner.RequirementRequest{
		PartnerID: p.ID, Role: "PICKER", Location: "chennai", StoreID: f.store.ID, Openings: 3, Deadline: "2024-08-15",
	})
	require.NoError(t, err)
	assert.Equal(t, "Picker", r.Role)
	assert.Equal(t, "Chennai", r.Location)
	assert.Equal(t, "2024-08-15", kernel.DayKey(*r.Deadline))
	assert.Equal(t, partner.RequirementOpen, r.Status)

	_, err = f.svc.CreateRequirement(ctx, admin(), partner.RequirementRequest{
		PartnerID: p.ID, Role: "Picker", Location: "Bengaluru", StoreID: f.store.ID, Openings: 1,
	})
	assert.True(t, errx.IsCode(err, partner.CodeInvalidRequirement))

	_, err = f.svc.CreateRequirement(ctx, admin(), partner.RequirementRequest{PartnerID: p.ID, Role: "Picker", Location: "Chennai"})
	assert.True(t, errx.IsCode(err, partner.CodeInvalidRequirement))

	_, err = f.svc.UpdatePartner(ctx, p.ID, partner.PartnerRequest{Name: p.Name, Status: partner.StatusInactive})
	require.NoError(t, err)
	_, err = f.svc.CreateRequirement(ctx, admin(), partner.RequirementRequest{PartnerID: p.ID, Role: "Picker", Location: "Chennai", Openings: 1})
	assert.True(t, errx.IsCode(err, partner.CodePartnerInactive))
}

func TestOnHiredFillsRequirement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.partner(t, "Quick Staff")
	r, err := f.svc.CreateRequirement(ctx, admin(), partner.RequirementRequest{PartnerID: p.ID, Role: "Picker", Location: "Chennai", Openings: 2})
	require.NoError(t, err)

	joined := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.svc.OnHired(ctx, f.hire(t, p.ID, "Picker", "Chennai", joined, 240000)))
	require.NoError(t, f.svc.OnHired(ctx, f.hire(t, "", "Picker", "Chennai", joined, 240000)))
	require.NoError(t, f.svc.OnHired(ctx, f.hire(t, p.ID, "Packer", "Chennai", joined, 240000)))

	got, err := f.svc.GetRequirement(ctx, admin(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Filled)
	assert.Equal(t, partner.RequirementOpen, got.Status)

	require.NoError(t, f.svc.OnHired(ctx, f.hire(t, p.ID, "picker", "CHENNAI", joined, 240000)))
	got, err = f.svc.GetRequirement(ctx, admin(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Filled)
	assert.Equal(t, partner.RequirementFilled, got.Status)

	// filled requirements stop counting
	require.NoError(t, f.svc.OnHired(ctx, f.hire(t, p.ID, "Picker", "Chennai", joined, 240000)))
	got, err = f.svc.GetRequirement(ctx, admin(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Filled)

	openings := 4
	got, err = f.svc.UpdateRequirement(ctx, r.ID, partner.RequirementUpdate{Openings: &openings})
	require.NoError(t, err)
	assert.Equal(t, partner.RequirementOpen, got.Status)
	assert.Equal(t, 2, got.Unfilled())
}

func TestInvoiceLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.partner(t, "Quick Staff")
	other := f.partner(t, "Metro Manpower")

	f.hire(t, p.ID, "Picker", "Chennai", time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), 240000)
	f.hire(t, p.ID, "Picker", "Chennai", time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), 300000)
	f.hire(t, p.ID, "Picker", "Chennai", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 300000)
	f.hire(t, other.ID, "Picker", "Chennai", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), 200000)

	inv, err := f.svc.GenerateInvoice(ctx, admin(), partner.InvoiceRequest{PartnerID: p.ID, Period: "2024-06"})
	require.NoError(t, err)
	assert.Equal(t, "INV-202406-0001", inv.Number)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, 54000.0, inv.Subtotal)
	assert.Equal(t, 9720.0, inv.GST)
	assert.Equal(t, 63720.0, inv.Total)

	_, err = f.svc.GenerateInvoice(ctx, admin(), partner.InvoiceRequest{PartnerID: p.ID, Period: "2024-06"})
	assert.True(t, errx.IsCode(err, partner.CodeDuplicateInvoice))

	second, err := f.svc.GenerateInvoice(ctx, admin(), partner.InvoiceRequest{PartnerID: other.ID, Period: "2024-06"})
	require.NoError(t, err)
	assert.Equal(t, "INV-202406-0002", second.Number)

	_, err = f.svc.GenerateInvoice(ctx, admin(), partner.InvoiceRequest{PartnerID: p.ID, Period: "2024-08"})
	assert.True(t, errx.IsCode(err, partner.CodeInvalidPeriod))

	sent, err := f.svc.SendInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, partner.InvoiceSent, sent.Status)
	assert.False(t, sent.Overdue)
	assert.True(t, errx.IsCode(f.svc.DeleteInvoice(ctx, inv.ID), partner.CodeInvoiceTransition))

	f.clock = now.AddDate(0, 0, 45)
	overdue, err := f.svc.ListInvoices(ctx, admin(), partner.InvoiceFilter{Status: partner.InvoiceOverdue})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.True(t, overdue[0].Overdue)

	own, err := f.svc.ListInvoices(ctx, partnerUser(other.ID), partner.InvoiceFilter{PartnerID: p.ID})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, second.ID, own[0].ID)

	_, err = f.svc.GetInvoice(ctx, partnerUser(other.ID), inv.ID)
	assert.True(t, errx.IsCode(err, partner.CodeInvoiceNotFound))

	paid, err := f.svc.MarkInvoicePaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, partner.InvoicePaid, paid.Status)
	assert.False(t, paid.Overdue)

	require.NoError(t, f.svc.DeleteInvoice(ctx, second.ID))
	_, err = f.svc.GenerateInvoice(ctx, admin(), partner.InvoiceRequest{PartnerID: other.ID, Period: "2024-06"})
	require.NoError(t, err)
}

func TestInvoiceSheet(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.partner(t, "Quick Staff")
	f.hire(t, p.ID, "Picker", "Chennai", time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), 240000)

	inv, err := f.svc.GenerateInvoice(ctx, admin(), partner.InvoiceRequest{PartnerID: p.ID, Period: "2024-06"})
	require.NoError(t, err)

	data, name, err := f.svc.InvoiceSheet(ctx, partnerUser(p.ID), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "inv-202406-0001.xlsx", name)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(book.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Employee", rows[0][0])
	assert.Equal(t, "2024-06-03", rows[1][2])
	assert.Equal(t, "Total", rows[4][3])
}

func TestInvoiceNumbersSurviveDeletedDrafts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.partner(t, "Alpha Staffing")
	b := f.partner(t, "Beta Manpower")
	c := f.partner(t, "Gamma Services")
	june := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	f.hire(t, a.ID, "Picker", "Chennai", june, 240000)
	f.hire(t, b.ID, "Picker", "Chennai", june, 240000)
	f.hire(t, c.ID, "Picker", "Chennai", june, 240000)

	invA, err := f.svc.GenerateInvoice(ctx, admin(), partner.InvoiceRequest{PartnerID: a.ID, Period: "2024-06"})
	require.NoError(t, err)
	invB, err := f.svc.GenerateInvoice(ctx, admin(), partner.InvoiceRequest{PartnerID: b.ID, Period: "2024-06"})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteInvoice(ctx, invA.ID))

	invC, err := f.svc.GenerateInvoice(ctx, admin(), partner.InvoiceRequest{PartnerID: c.ID, Period: "2024-06"})
	require.NoError(t, err)
	assert.NotEqual(t, invB.Number, invC.Number)
	assert.Equal(t, "INV-202406-0003", invC.Number)

	again, err := f.svc.GenerateInvoice(ctx, admin(), partner.InvoiceRequest{PartnerID: a.ID, Period: "2024-06"})
	require.NoError(t, err)
	assert.Equal(t, "INV-202406-0004", again.Number)
}

func TestInvoiceSeq(t *testing.T) {
	assert.Equal(t, 12, partner.InvoiceSeq("INV-202406-0012"))
	assert.Equal(t, 0, partner.InvoiceSeq("draft"))
	assert.Equal(t, 0, partner.InvoiceSeq("INV-202406-x"))
}
