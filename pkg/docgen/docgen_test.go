package docgen

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRenderer struct{}

func (failingRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	return nil, errors.New("chrome crashed")
}

func (failingRenderer) ContentType() string { return ContentTypePDF }

func newGenerator(t *testing.T, r Renderer) *Generator {
	t.Helper()
	g, err := NewGenerator(r, config.DocGenConfig{
		CompanyName:   "Acme Staffing",
		SignatoryName: "Priya Nair",
		SignatoryRole: "HR Manager",
	})
	require.NoError(t, err)
	return g
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "Rs. 18,000.00", Money(18000))
	assert.Equal(t, "Rs. 1,234,567.50", Money(1234567.5))
	assert.Equal(t, "Rs. 0.00", Money(0))
	assert.Equal(t, "-Rs. 250.50", Money(-250.5))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05 Mar 2024", FormatDate(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatDate(time.Time{}))
}

func TestOfferLetterWithHTMLRenderer(t *testing.T) {
	g := newGenerator(t, HTMLRenderer{})

	doc, err := g.OfferLetter(context.Background(), OfferLetter{
		Reference:     "OL-1",
		Date:          time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		CandidateName: "Meena <R>",
		Designation:   "Picker",
		StoreName:     "CHN-01",
		Location:      "Chennai",
		JoiningDate:   time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		AnnualCTC:     240000,
		Earnings:      []PayComponent{{Name: "Basic", Monthly: 10000, Annual: 120000}},
		GrossMonthly:  18500,
		NetMonthly:    16800,
	})
	require.NoError(t, err)
	assert.Equal(t, ContentTypeHTML, doc.ContentType)
	assert.Equal(t, ".html", doc.Ext())

	html := string(doc.Data)
	assert.Contains(t, html, "Acme Staffing")
	assert.Contains(t, html, "Meena &lt;R&gt;")
	assert.Contains(t, html, "15 Jun 2024")
	assert.Contains(t, html, "Rs. 240,000.00")
	assert.Contains(t, html, "Priya Nair")
}

func TestWarningAndCVTemplates(t *testing.T) {
	g := newGenerator(t, HTMLRenderer{})
	ctx := context.Background()

	doc, err := g.WarningLetter(ctx, WarningLetter{EmployeeName: "Ravi", Level: "second", Reason: "Late arrival", Previous: 1})
	require.NoError(t, err)
	assert.Contains(t, string(doc.Data), "SECOND WARNING")
	assert.Contains(t, string(doc.Data), "continuation of the 1 warning")

	doc, err = g.CV(ctx, CV{Name: "Asha", Role: "Cashier", Skills: []string{"billing", "tally"}, Experience: 2.5})
	require.NoError(t, err)
	assert.Contains(t, string(doc.Data), "billing, tally")
	assert.Contains(t, string(doc.Data), "2.5 years")
	assert.True(t, strings.HasPrefix(string(doc.Data), "<!DOCTYPE html>"))
}

func TestRenderFailureIsReported(t *testing.T) {
	g := newGenerator(t, failingRenderer{})
	_, err := g.CV(context.Background(), CV{Name: "Asha"})
	assert.True(t, errx.IsCode(err, CodeRenderFailed))
	assert.Equal(t, ".pdf", ExtFor(failingRenderer{}.ContentType()))
}
