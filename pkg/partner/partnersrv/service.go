package partnersrv

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/Abraxas-365/hireline/pkg/panel"
	"github.com/Abraxas-365/hireline/pkg/partner"
	"github.com/Abraxas-365/hireline/pkg/sheetx"
)

// hireRetries bounds the optimistic retries when two hires hit one requirement
const hireRetries = 3

type PanelLookup interface {
	CanonicalRole(ctx context.Context, name string) (string, error)
	CanonicalLocation(ctx context.Context, name string) (string, error)
	GetStore(ctx context.Context, id string) (*panel.Store, error)
}

type PartnerService struct {
	partners     docstore.Repository[partner.Partner]
	requirements docstore.Repository[partner.Requirement]
	invoices     docstore.Repository[partner.Invoice]
	counters     docstore.Repository[partner.InvoiceCounter]
	employees    docstore.Repository[employee.Employee]
	panel        PanelLookup
	cfg          config.PayrollConfig
	now          func() time.Time
}

func NewPartnerService(
	partners docstore.Repository[partner.Partner],
	requirements docstore.Repository[partner.Requirement],
	invoices docstore.Repository[partner.Invoice],
	counters docstore.Repository[partner.InvoiceCounter],
	employees docstore.Repository[employee.Employee],
	panel PanelLookup,
	cfg config.PayrollConfig,
) *PartnerService {
	return &PartnerService{
		partners:     partners,
		requirements: requirements,
		invoices:     invoices,
		counters:     counters,
		employees:    employees,
		panel:        panel,
		cfg:          cfg,
		now:          time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *PartnerService) WithClock(now func() time.Time) *PartnerService {
	s.now = now
	return s
}

// ownPartner resolves which partner the caller is limited to. An empty id
// means the caller sees every partner.
func ownPartner(ac *kernel.AuthContext) (string, error) {
	if ac.HasScope(scopes.ScopePartnersRead) {
		return "", nil
	}
	if ac.HasScope(scopes.ScopePartnersReadOwn) && ac.Links.PartnerID != "" {
		return ac.Links.PartnerID, nil
	}
	return "", iam.ErrForbidden().WithDetail("reason", "no partner access")
}

// invoicePartner is ownPartner for invoices. Partner users only ever see their own.
func invoicePartner(ac *kernel.AuthContext) (string, error) {
	if ac.IsRole(kernel.RolePartner) {
		if ac.Links.PartnerID == "" {
			return "", iam.ErrForbidden().WithDetail("reason", "user is not linked to a partner")
		}
		return ac.Links.PartnerID, nil
	}
	if !ac.HasScope(scopes.ScopeInvoicesRead) {
		return "", iam.ErrForbidden().WithDetail("required_scope", scopes.ScopeInvoicesRead)
	}
	return "", nil
}

// ============================================================================
// Partners
// ============================================================================

func (s *PartnerService) CreatePartner(ctx context.Context, req partner.PartnerRequest) (*partner.Partner, error) {
	p := &partner.Partner{}
	if err := p.Apply(req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, p.Name, ""); err != nil {
		return nil, err
	}
	if err := s.partners.Create(ctx, p); err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{"partner_id": p.ID, "name": p.Name}).Info("partner created")
	return p, nil
}

func (s *PartnerService) UpdatePartner(ctx context.Context, id string, req partner.PartnerRequest) (*partner.Partner, error) {
	p, err := s.partner(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, p.Name, p.ID); err != nil {
		return nil, err
	}
	if err := s.partners.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPartner returns not found for partners outside the caller's reach
func (s *PartnerService) GetPartner(ctx context.Context, ac *kernel.AuthContext, id string) (*partner.Partner, error) {
	own, err := ownPartner(ac)
	if err != nil {
		return nil, err
	}
	if own != "" && own != id {
		return nil, partner.ErrPartnerNotFound(id)
	}
	return s.partner(ctx, id)
}

func (s *PartnerService) ListPartners(ctx context.Context, ac *kernel.AuthContext, f partner.PartnerFilter) ([]*partner.Partner, error) {
	own, err := ownPartner(ac)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	list, err := s.partners.Filter(ctx, func(p *partner.Partner) bool {
		if own != "" && p.ID != own {
			return false
		}
		if f.Status != "" && p.Status != f.Status {
			return false
		}
		return q == "" || strings.Contains(strings.ToLower(p.Name), q)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *PartnerService) ensureUniqueName(ctx context.Context, name, self string) error {
	dup, err := s.partners.First(ctx, func(p *partner.Partner) bool {
		return p.ID != self && strings.EqualFold(p.Name, name)
	})
	if err != nil {
		return err
	}
	if dup != nil {
		return partner.ErrDuplicatePartner(name)
	}
	return nil
}

func (s *PartnerService) partner(ctx context.Context, id string) (*partner.Partner, error) {
	p, err := s.partners.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, partner.ErrPartnerNotFound(id)
		}
		return nil, err
	}
	return p, nil
}

// ============================================================================
// Requirements
// ============================================================================

func (s *PartnerService) CreateRequirement(ctx context.Context, ac *kernel.AuthContext, req partner.RequirementRequest) (*partner.Requirement, error) {
	p, err := s.partner(ctx, req.PartnerID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, partner.ErrPartnerInactive(p.ID)
	}
	if req.Openings <= 0 {
		return nil, partner.ErrInvalidRequirement("openings must be positive")
	}

	r := &partner.Requirement{
		PartnerID: p.ID,
		Openings:  req.Openings,
		Notes:     strings.TrimSpace(req.Notes),
		Status:    partner.RequirementOpen,
		CreatedBy: ac.Actor(),
	}
	if r.Role, err = s.panel.CanonicalRole(ctx, req.Role); err != nil {
		return nil, err
	}
	if r.Location, err = s.panel.CanonicalLocation(ctx, req.Location); err != nil {
		return nil, err
	}
	if req.StoreID != "" {
		st, err := s.panel.GetStore(ctx, req.StoreID)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(st.Location, r.Location) {
			return nil, partner.ErrInvalidRequirement("store is in another location").WithDetail("store_location", st.Location)
		}
		r.StoreID = st.ID
	}
	if r.Deadline, err = parseDeadline(req.Deadline); err != nil {
		return nil, err
	}

	if err := s.requirements.Create(ctx, r); err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{"requirement_id": r.ID, "partner_id": p.ID, "role": r.Role, "openings": r.Openings}).Info("requirement opened")
	return r, nil
}

func (s *PartnerService) UpdateRequirement(ctx context.Context, id string, req partner.RequirementUpdate) (*partner.Requirement, error) {
	r, err := s.requirement(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Openings != nil {
		if err := r.SetOpenings(*req.Openings); err != nil {
			return nil, err
		}
	}
	if req.Deadline != nil {
		if r.Deadline, err = parseDeadline(*req.Deadline); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		r.Notes = strings.TrimSpace(*req.Notes)
	}
	switch req.Status {
	case "":
	case partner.RequirementClosed:
		err = r.Close()
	case partner.RequirementOpen:
		err = r.Reopen()
	default:
		err = partner.ErrInvalidRequirement("status must be CLOSED or OPEN")
	}
	if err != nil {
		return nil, err
	}

	if err := s.requirements.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PartnerService) GetRequirement(ctx context.Context, ac *kernel.AuthContext, id string) (*partner.Requirement, error) {
	own, err := ownPartner(ac)
	if err != nil {
		return nil, err
	}
	r, err := s.requirement(ctx, id)
	if err != nil {
		return nil, err
	}
	if own != "" && r.PartnerID != own {
		return nil, partner.ErrRequirementNotFound(id)
	}
	return r, nil
}

func (s *PartnerService) ListRequirements(ctx context.Context, ac *kernel.AuthContext, f partner.RequirementFilter) ([]*partner.Requirement, error) {
	own, err := ownPartner(ac)
	if err != nil {
		return nil, err
	}
	if own != "" {
		f.PartnerID = own
	}
	list, err := s.requirements.Filter(ctx, func(r *partner.Requirement) bool { return r.Matches(f) })
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

// OnHired counts a partner hire against the oldest open requirement it fits.
// Hires without a partner or without a matching requirement are ignored.
func (s *PartnerService) OnHired(ctx context.Context, e *employee.Employee) error {
	if e.PartnerID == "" {
		return nil
	}
	for attempt := 0; attempt < hireRetries; attempt++ {
		open, err := s.requirements.Filter(ctx, func(r *partner.Requirement) bool { return r.Fits(e) })
		if err != nil {
			return err
		}
		if len(open) == 0 {
			logx.WithFields(logx.Fields{"employee_id": e.ID, "partner_id": e.PartnerID, "role": e.Designation}).
				Info("hire matches no open requirement")
			return nil
		}
		sort.Slice(open, func(i, j int) bool { return open[i].CreatedAt.Before(open[j].CreatedAt) })

		r := open[0]
		r.RecordHire()
		err = s.requirements.Update(ctx, r)
		if err == nil {
			logx.WithFields(logx.Fields{"requirement_id": r.ID, "filled": r.Filled, "openings": r.Openings}).Info("requirement filled by hire")
			return nil
		}
		if !errx.IsCode(err, docstore.CodeVersionConflict) {
			return err
		}
	}
	return errx.New("requirement kept changing while recording hire", errx.TypeConflict).WithDetail("employee_id", e.ID)
}

func (s *PartnerService) requirement(ctx context.Context, id string) (*partner.Requirement, error) {
	r, err := s.requirements.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, partner.ErrRequirementNotFound(id)
		}
		return nil, err
	}
	return r, nil
}

func parseDeadline(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := kernel.ParseDay(s)
	if err != nil {
		return nil, partner.ErrInvalidRequirement(err.Error())
	}
	return &d, nil
}

// ============================================================================
// Invoices
// ============================================================================

// GenerateInvoice bills a partner for the month's joiners. A partner has at most one invoice per period.
func (s *PartnerService) GenerateInvoice(ctx context.Context, ac *kernel.AuthContext, req partner.InvoiceRequest) (*partner.Invoice, error) {
	period, err := kernel.ParseMonth(req.Period)
	if err != nil {
		return nil, partner.ErrInvalidPeriod(err.Error())
	}
	now := s.now()
	if period.First().After(now) {
		return nil, partner.ErrInvalidPeriod("period has not started")
	}
	p, err := s.partner(ctx, req.PartnerID)
	if err != nil {
		return nil, err
	}

	existing, err := s.invoices.Filter(ctx, func(inv *partner.Invoice) bool { return inv.Period == period.String() })
	if err != nil {
		return nil, err
	}
	for _, inv := range existing {
		if inv.PartnerID == p.ID {
			return nil, partner.ErrDuplicateInvoice(p.ID, period.String())
		}
	}

	joiners, err := s.employees.Filter(ctx, func(e *employee.Employee) bool {
		return e.PartnerID == p.ID && period.Contains(e.JoiningDate)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(joiners, func(i, j int) bool { return joiners[i].JoiningDate.Before(joiners[j].JoiningDate) })

	inv, err := partner.BuildInvoice(p, period, joiners, s.cfg.GSTPercent)
	if err != nil {
		return nil, err
	}
	seq, err := s.nextInvoiceSeq(ctx, period, existing)
	if err != nil {
		return nil, err
	}
	inv.Number = partner.InvoiceNumber(period, seq)
	inv.CreatedBy = ac.Actor()
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{"invoice": inv.Number, "partner_id": p.ID, "total": inv.Total}).Info("invoice generated")
	return s.view(inv, now), nil
}

// nextInvoiceSeq reserves the period's next sequence. A missing counter is seeded
// from the highest live invoice so periods billed before counters existed keep counting.
func (s *PartnerService) nextInvoiceSeq(ctx context.Context, period kernel.Month, existing []*partner.Invoice) (int, error) {
	id := partner.CounterID(period)
	for attempt := 0; attempt < hireRetries; attempt++ {
		counter, err := s.counters.Get(ctx, id)
		switch {
		case docstore.IsNotFound(err):
			counter = &partner.InvoiceCounter{Period: period.String()}
			counter.ID = id
			for _, inv := range existing {
				counter.Last = max(counter.Last, partner.InvoiceSeq(inv.Number))
			}
			counter.Last++
			err = s.counters.Create(ctx, counter)
			if err == nil || !errx.IsCode(err, docstore.CodeAlreadyExists) {
				return counter.Last, err
			}
		case err != nil:
			return 0, err
		default:
			counter.Last++
			err = s.counters.Update(ctx, counter)
			if err == nil || !errx.IsCode(err, docstore.CodeVersionConflict) {
				return counter.Last, err
			}
		}
	}
	return 0, errx.New("invoice sequence kept changing", errx.TypeConflict).WithDetail("period", period.String())
}

func (s *PartnerService) SendInvoice(ctx context.Context, id string) (*partner.Invoice, error) {
	inv, err := s.invoice(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := inv.Send(now, s.cfg.InvoiceDueDays); err != nil {
		return nil, err
	}
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	return s.view(inv, now), nil
}

func (s *PartnerService) MarkInvoicePaid(ctx context.Context, id string) (*partner.Invoice, error) {
	inv, err := s.invoice(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := inv.MarkPaid(now); err != nil {
		return nil, err
	}
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{"invoice": inv.Number, "total": inv.Total}).Info("invoice paid")
	return s.view(inv, now), nil
}

// DeleteInvoice discards a draft so the period can be billed again
func (s *PartnerService) DeleteInvoice(ctx context.Context, id string) error {
	inv, err := s.invoice(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status != partner.InvoiceDraft {
		return partner.ErrInvoiceTransition(inv.Status, "DELETED")
	}
	return s.invoices.Delete(ctx, id)
}

func (s *PartnerService) GetInvoice(ctx context.Context, ac *kernel.AuthContext, id string) (*partner.Invoice, error) {
	own, err := invoicePartner(ac)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if own != "" && inv.PartnerID != own {
		return nil, partner.ErrInvoiceNotFound(id)
	}
	return s.view(inv, s.now()), nil
}

func (s *PartnerService) ListInvoices(ctx context.Context, ac *kernel.AuthContext, f partner.InvoiceFilter) ([]*partner.Invoice, error) {
	own, err := invoicePartner(ac)
	if err != nil {
		return nil, err
	}
	if own != "" {
		f.PartnerID = own
	}
	now := s.now()
	list, err := s.invoices.Filter(ctx, func(inv *partner.Invoice) bool { return inv.Matches(f, now) })
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Number > list[j].Number })
	for _, inv := range list {
		s.view(inv, now)
	}
	return list, nil
}

// InvoiceSheet exports one invoice as a workbook
func (s *PartnerService) InvoiceSheet(ctx context.Context, ac *kernel.AuthContext, id string) ([]byte, string, error) {
	inv, err := s.GetInvoice(ctx, ac, id)
	if err != nil {
		return nil, "", err
	}

	sheet, err := sheetx.NewSheet(inv.Number)
	if err != nil {
		return nil, "", errx.Wrap(err, "failed to create workbook", errx.TypeInternal)
	}
	if err := sheet.Header("Employee", "Designation", "Joining date", "Annual CTC", "Fee"); err != nil {
		return nil, "", errx.Wrap(err, "failed to write workbook", errx.TypeInternal)
	}
	rows := make([][]any, 0, len(inv.Lines)+3)
	for _, l := range inv.Lines {
		rows = append(rows, []any{l.Name, l.Designation, kernel.DayKey(l.JoiningDate), l.AnnualCTC, l.Fee})
	}
	rows = append(rows,
		[]any{"", "", "", "Subtotal", inv.Subtotal},
		[]any{"", "", "", "GST", inv.GST},
		[]any{"", "", "", "Total", inv.Total},
	)
	for _, row := range rows {
		if err := sheet.Append(row...); err != nil {
			return nil, "", errx.Wrap(err, "failed to write workbook", errx.TypeInternal)
		}
	}

	data, err := sheet.Bytes()
	if err != nil {
		return nil, "", errx.Wrap(err, "failed to encode workbook", errx.TypeInternal)
	}
	return data, strings.ToLower(inv.Number) + ".xlsx", nil
}

func (s *PartnerService) view(inv *partner.Invoice, now time.Time) *partner.Invoice {
	inv.Overdue = inv.CurrentStatus(now) == partner.InvoiceOverdue
	return inv
}

func (s *PartnerService) invoice(ctx context.Context, id string) (*partner.Invoice, error) {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, partner.ErrInvoiceNotFound(id)
		}
		return nil, err
	}
	return inv, nil
}
