// Package docgen renders CVs and HR letters from HTML templates to PDF.
package docgen

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeHTML = "text/html; charset=utf-8"

	DateLayout = "02 Jan 2006"
)

// Renderer turns a complete HTML document into the stored format
type Renderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
	ContentType() string
}

// Document is a rendered file ready to store
type Document struct {
	Data        []byte
	ContentType string
}

// Ext is the file extension matching the content type
func (d *Document) Ext() string {
	return ExtFor(d.ContentType)
}

func ExtFor(contentType string) string {
	if strings.HasPrefix(contentType, "text/html") {
		return ".html"
	}
	return ".pdf"
}

// ContentTypeFor maps a stored document path back to its content type
func ContentTypeFor(path string) string {
	if strings.HasSuffix(path, ".html") {
		return ContentTypeHTML
	}
	return ContentTypePDF
}

// HTMLRenderer stores the HTML itself. Used when Chrome is disabled.
type HTMLRenderer struct{}

func (HTMLRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	return html, nil
}

func (HTMLRenderer) ContentType() string { return ContentTypeHTML }

// ============================================================================
// Generator
// ============================================================================

//go:embed templates/*.html
var templateFS embed.FS

// Company is printed on every letterhead
type Company struct {
	Name          string
	Address       string
	SignatoryName string
	SignatoryRole string
}

type Generator struct {
	renderer Renderer
	tmpl     *template.Template
	company  Company
	timeout  time.Duration
}

func NewGenerator(renderer Renderer, cfg config.DocGenConfig) (*Generator, error) {
	tmpl, err := template.New("docgen").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse document templates: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		renderer: renderer,
		tmpl:     tmpl,
		company: Company{
			Name:          cfg.CompanyName,
			Address:       cfg.CompanyAddr,
			SignatoryName: cfg.SignatoryName,
			SignatoryRole: cfg.SignatoryRole,
		},
		timeout: timeout,
	}, nil
}

func (g *Generator) CV(ctx context.Context, cv CV) (*Document, error) {
	return g.render(ctx, "cv.html", cv)
}

func (g *Generator) OfferLetter(ctx context.Context, letter OfferLetter) (*Document, error) {
	return g.render(ctx, "offer_letter.html", letter)
}

func (g *Generator) WarningLetter(ctx context.Context, letter WarningLetter) (*Document, error) {
	return g.render(ctx, "warning_letter.html", letter)
}

// HTML executes a template without rendering it
func (g *Generator) HTML(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	err := g.tmpl.ExecuteTemplate(&buf, name, struct {
		Company Company
		Doc     any
		Today   time.Time
	}{g.company, data, time.Now()})
	if err != nil {
		return nil, ErrTemplate(name, err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) render(ctx context.Context, name string, data any) (*Document, error) {
	html, err := g.HTML(name, data)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, ErrRenderFailed(name, err)
	}
	return &Document{Data: out, ContentType: g.renderer.ContentType()}, nil
}

// ============================================================================
// Template funcs
// ============================================================================

var printer = message.NewPrinter(language.English)

// Money formats an amount in rupees with thousands separators and two decimals
func Money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	paise := int64(v*100 + 0.5)
	return fmt.Sprintf("%sRs. %s.%02d", sign, printer.Sprintf("%d", paise/100), paise%100)
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"money":  Money,
		"date":   FormatDate,
		"upper":  strings.ToUpper,
		"join":   strings.Join,
		"annual": func(monthly float64) float64 { return monthly * 12 },
	}
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("DOCGEN")

var (
	CodeTemplate     = ErrRegistry.Register("TEMPLATE", errx.TypeInternal, http.StatusInternalServerError, "Failed to build document")
	CodeRenderFailed = ErrRegistry.Register("RENDER_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to render PDF")
)

func ErrTemplate(name string, err error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeTemplate, err).WithDetail("template", name)
}

func ErrRenderFailed(name string, err error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeRenderFailed, err).WithDetail("template", name)
}
