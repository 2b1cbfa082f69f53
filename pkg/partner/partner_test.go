package partner

import (
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartnerApply(t *testing.T) {
	var p Partner
	require.NoError(t, p.Apply(PartnerRequest{
		Name:              "  Quick Staff ",
		Email:             "Ops@QuickStaff.in",
		Phone:             "+91 98400 12345",
		GSTIN:             "33aabcq1234f1z5",
		CommissionPercent: 8.33,
	}))
	assert.Equal(t, "Quick Staff", p.Name)
	assert.Equal(t, "ops@quickstaff.in", p.Email)
	assert.Equal(t, "9840012345", p.Phone)
	assert.Equal(t, "33AABCQ1234F1Z5", p.GSTIN)
	assert.Equal(t, StatusActive, p.Status)

	cases := []PartnerRequest{
		{Name: ""},
		{Name: "X", CommissionPercent: 120},
		{Name: "X", GSTIN: "ABC"},
		{Name: "X", Phone: "1234"},
		{Name: "X", Status: "PAUSED"},
	}
	for _, req := range cases {
		assert.True(t, errx.IsCode(p.Apply(req), CodeInvalidPartner), "%+v", req)
	}
}

func TestRequirementFilling(t *testing.T) {
	r := &Requirement{PartnerID: "p1", Role: "Picker", Location: "Chennai", Openings: 2, Status: RequirementOpen}

	hire := &employee.Employee{PartnerID: "p1", Designation: "picker", Location: "CHENNAI"}
	assert.True(t, r.Fits(hire))
	assert.False(t, r.Fits(&employee.Employee{PartnerID: "p2", Designation: "Picker", Location: "Chennai"}))
	assert.False(t, r.Fits(&employee.Employee{PartnerID: "p1", Designation: "Packer", Location: "Chennai"}))

	r.RecordHire()
	assert.Equal(t, RequirementOpen, r.Status)
	assert.Equal(t, 1, r.Unfilled())
	r.RecordHire()
	assert.Equal(t, RequirementFilled, r.Status)
	assert.Equal(t, 0, r.Unfilled())
	assert.False(t, r.Fits(hire))

	assert.True(t, errx.IsCode(r.SetOpenings(1), CodeInvalidRequirement))
	require.NoError(t, r.SetOpenings(3))
	assert.Equal(t, RequirementOpen, r.Status)

	require.NoError(t, r.Close())
	assert.Error(t, r.Close())
	require.NoError(t, r.SetOpenings(2))
	assert.Equal(t, RequirementClosed, r.Status)
	require.NoError(t, r.Reopen())
	assert.Equal(t, RequirementFilled, r.Status)
	assert.Error(t, r.Reopen())
}

func TestBuildInvoice(t *testing.T) {
	p := &Partner{Meta: docstore.Meta{ID: "p1"}, Name: "Quick Staff", CommissionPercent: 8.33}
	june := kernel.Month{Year: 2024, Month: time.June}
	emp := func(id, partnerID string, joined time.Time, ctc float64) *employee.Employee {
		return &employee.Employee{Meta: docstore.Meta{ID: id}, Name: id, PartnerID: partnerID, JoiningDate: joined, AnnualCTC: ctc}
	}
	employees := []*employee.Employee{
		emp("e1", "p1", time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), 240000),
		emp("e2", "p1", time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), 300000),
		emp("e3", "p1", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 240000),
		emp("e4", "p2", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), 240000),
	}

	inv, err := BuildInvoice(p, june, employees, 18)
	require.NoError(t, err)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, 19992.0, inv.Lines[0].Fee)
	assert.Equal(t, 24990.0, inv.Lines[1].Fee)
	assert.Equal(t, 44982.0, inv.Subtotal)
	assert.Equal(t, 8096.76, inv.GST)
	assert.Equal(t, 53078.76, inv.Total)
	assert.Equal(t, "2024-06", inv.Period)
	assert.Equal(t, InvoiceDraft, inv.Status)

	_, err = BuildInvoice(p, kernel.Month{Year: 2024, Month: time.May}, employees, 18)
	assert.True(t, errx.IsCode(err, CodeNothingToInvoice))

	assert.Equal(t, "INV-202406-0007", InvoiceNumber(june, 7))
}

func TestInvoiceLifecycle(t *testing.T) {
	inv := &Invoice{Status: InvoiceDraft, Total: 100}
	sent := time.Date(2024, 7, 1, 11, 0, 0, 0, time.UTC)

	assert.True(t, errx.IsCode(inv.MarkPaid(sent), CodeInvoiceTransition))
	assert.Zero(t, inv.Outstanding())

	require.NoError(t, inv.Send(sent, 30))
	assert.Equal(t, "2024-07-31", kernel.DayKey(*inv.DueDate))
	assert.Equal(t, 100.0, inv.Outstanding())
	assert.Equal(t, InvoiceSent, inv.CurrentStatus(sent.AddDate(0, 0, 10)))
	assert.Equal(t, InvoiceOverdue, inv.CurrentStatus(sent.AddDate(0, 0, 31)))
	assert.True(t, inv.Matches(InvoiceFilter{Status: InvoiceOverdue}, sent.AddDate(0, 0, 31)))

	assert.Error(t, inv.Send(sent, 30))
	require.NoError(t, inv.MarkPaid(sent.AddDate(0, 0, 40)))
	assert.Equal(t, InvoicePaid, inv.CurrentStatus(sent.AddDate(0, 0, 60)))
	assert.Zero(t, inv.Outstanding())
}
