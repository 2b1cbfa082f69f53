package lettersrv

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/candidate"
	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/docgen"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/fsx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/letter"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/Abraxas-365/hireline/pkg/panel"
	"github.com/Abraxas-365/hireline/pkg/payroll"
)

// CandidatePipeline reads candidates and moves them on behalf of the letter flow
type CandidatePipeline interface {
	Candidate(ctx context.Context, id string) (*candidate.Candidate, error)
	Move(ctx context.Context, id string, next candidate.Status, by, note string) (*candidate.Candidate, error)
}

type StoreLookup interface {
	GetStore(ctx context.Context, id string) (*panel.Store, error)
}

type LetterService struct {
	offers     docstore.Repository[letter.OfferLetter]
	warnings   docstore.Repository[letter.WarningLetter]
	candidates CandidatePipeline
	employees  docstore.Repository[employee.Employee]
	stores     StoreLookup
	docs       *docgen.Generator
	files      fsx.FileSystem
	payroll    config.PayrollConfig
	now        func() time.Time
}

func NewLetterService(
	offers docstore.Repository[letter.OfferLetter],
	warnings docstore.Repository[letter.WarningLetter],
	candidates CandidatePipeline,
	employees docstore.Repository[employee.Employee],
	stores StoreLookup,
	docs *docgen.Generator,
	files fsx.FileSystem,
	payrollCfg config.PayrollConfig,
) *LetterService {
	return &LetterService{
		offers:     offers,
		warnings:   warnings,
		candidates: candidates,
		employees:  employees,
		stores:     stores,
		docs:       docs,
		files:      files,
		payroll:    payrollCfg,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *LetterService) WithClock(now func() time.Time) *LetterService {
	s.now = now
	return s
}

// ============================================================================
// Offer letters
// ============================================================================

// CreateOffer issues an offer to a SELECTED candidate and moves it to OFFER_SENT
func (s *LetterService) CreateOffer(ctx context.Context, ac *kernel.AuthContext, req letter.OfferRequest) (*letter.OfferLetter, error) {
	c, err := s.candidates.Candidate(ctx, req.CandidateID)
	if err != nil {
		return nil, err
	}
	if c.Status != candidate.StatusSelected {
		return nil, letter.ErrNotSelected(string(c.Status))
	}

	o := &letter.OfferLetter{
		CandidateID:   c.ID,
		CandidateName: c.Name,
		Address:       c.Address,
		Designation:   c.Role,
		GeneratedBy:   ac.Actor(),
		Status:        letter.OfferGenerated,
	}
	o.ID = kernel.NewID()
	o.Reference = letter.Reference("OL", s.now(), o.ID)
	if err := s.applyTerms(ctx, o, req); err != nil {
		return nil, err
	}
	if err := s.renderOffer(ctx, o); err != nil {
		return nil, err
	}
	if err := s.offers.Create(ctx, o); err != nil {
		return nil, err
	}

	if _, err := s.candidates.Move(ctx, c.ID, candidate.StatusOfferSent, ac.Actor(), "offer "+o.Reference); err != nil {
		logx.WithFields(logx.Fields{"offer_id": o.ID, "candidate_id": c.ID}).
			Errorf("offer generated but candidate not moved: %v", err)
		if delErr := s.offers.Delete(ctx, o.ID); delErr != nil {
			logx.Warnf("failed to remove orphan offer %s: %v", o.ID, delErr)
		}
		return nil, err
	}

	logx.WithFields(logx.Fields{"offer_id": o.ID, "candidate_id": c.ID, "by": ac.Actor()}).Info("offer letter generated")
	return o, nil
}

// RegenerateOffer re-renders an unanswered offer with updated terms. Empty fields keep their value.
func (s *LetterService) RegenerateOffer(ctx context.Context, ac *kernel.AuthContext, id string, req letter.OfferRequest) (*letter.OfferLetter, error) {
	o, err := s.offer(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != letter.OfferGenerated {
		return nil, letter.ErrNotGenerated(o.Status)
	}
	if req.StoreID == "" {
		req.StoreID = o.StoreID
	}
	if req.Designation == "" {
		req.Designation = o.Designation
	}
	if req.JoiningDate == "" {
		req.JoiningDate = kernel.DayKey(o.JoiningDate)
	}
	if req.AnnualCTC == 0 {
		req.AnnualCTC = o.AnnualCTC
	}
	if err := s.applyTerms(ctx, o, req); err != nil {
		return nil, err
	}
	o.GeneratedBy = ac.Actor()
	if err := s.renderOffer(ctx, o); err != nil {
		return nil, err
	}
	if err := s.offers.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// RespondOffer records the candidate's answer. A decline takes the candidate out of the pipeline.
func (s *LetterService) RespondOffer(ctx context.Context, ac *kernel.AuthContext, id string, req letter.RespondRequest) (*letter.OfferLetter, error) {
	o, err := s.GetOffer(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if !ac.HasScope(scopes.ScopeLettersWrite) && ac.Links.CandidateID != o.CandidateID {
		return nil, iam.ErrForbidden().WithDetail("reason", "only the candidate can answer this offer")
	}
	c, err := s.candidates.Candidate(ctx, o.CandidateID)
	if err != nil {
		return nil, err
	}
	if c.Status != candidate.StatusOfferSent {
		return nil, letter.ErrOfferSettled(string(c.Status))
	}
	if err := o.Respond(req.Status, ac.Actor(), req.Note, s.now()); err != nil {
		return nil, err
	}
	if err := s.offers.Update(ctx, o); err != nil {
		return nil, err
	}

	if o.Status == letter.OfferDeclined {
		note := "offer declined"
		if o.ResponseNote != "" {
			note += ": " + o.ResponseNote
		}
		if _, err := s.candidates.Move(ctx, o.CandidateID, candidate.StatusQuit, ac.Actor(), note); err != nil {
			return nil, err
		}
	}

	logx.WithFields(logx.Fields{"offer_id": o.ID, "status": o.Status, "by": ac.Actor()}).Info("offer answered")
	return o, nil
}

// OnHired accepts the offers a hired candidate left unanswered, so they cannot be declined afterwards
func (s *LetterService) OnHired(ctx context.Context, e *employee.Employee) error {
	pending, err := s.offers.Filter(ctx, func(o *letter.OfferLetter) bool {
		return o.CandidateID == e.CandidateID && o.Status == letter.OfferGenerated
	})
	if err != nil {
		return err
	}
	var errs []error
	for _, o := range pending {
		if err := o.Respond(letter.OfferAccepted, "system", "accepted on hire", s.now()); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.offers.Update(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetOffer hides other candidates' offers from candidate users
func (s *LetterService) GetOffer(ctx context.Context, ac *kernel.AuthContext, id string) (*letter.OfferLetter, error) {
	o, err := s.offer(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeOffer(ac, o) {
		return nil, letter.ErrLetterNotFound(id)
	}
	return o, nil
}

func (s *LetterService) ListOffers(ctx context.Context, ac *kernel.AuthContext, f letter.OfferFilter) ([]*letter.OfferLetter, error) {
	list, err := s.offers.Filter(ctx, func(o *letter.OfferLetter) bool {
		if !canSeeOffer(ac, o) {
			return false
		}
		return (f.CandidateID == "" || o.CandidateID == f.CandidateID) && (f.Status == "" || o.Status == f.Status)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

// OfferFile returns the stored document, its content type and a download name
func (s *LetterService) OfferFile(ctx context.Context, ac *kernel.AuthContext, id string) ([]byte, string, string, error) {
	o, err := s.GetOffer(ctx, ac, id)
	if err != nil {
		return nil, "", "", err
	}
	data, contentType, err := s.read(ctx, o.FilePath)
	if err != nil {
		return nil, "", "", err
	}
	return data, contentType, o.Reference + docgen.ExtFor(contentType), nil
}

func (s *LetterService) applyTerms(ctx context.Context, o *letter.OfferLetter, req letter.OfferRequest) error {
	if req.AnnualCTC <= 0 {
		return letter.ErrInvalidLetter("annual_ctc must be positive")
	}
	if req.JoiningDate == "" {
		return letter.ErrInvalidLetter("joining_date is required")
	}
	joining, err := kernel.ParseDay(req.JoiningDate)
	if err != nil {
		return letter.ErrInvalidLetter(err.Error())
	}
	st, err := s.stores.GetStore(ctx, req.StoreID)
	if err != nil {
		return err
	}
	if d := strings.TrimSpace(req.Designation); d != "" {
		o.Designation = d
	}
	o.StoreID = st.ID
	o.StoreName = st.Name
	o.Location = st.Location
	o.JoiningDate = joining
	o.AnnualCTC = req.AnnualCTC
	o.Breakdown = payroll.ComputeBreakdown(req.AnnualCTC, s.payroll)
	return nil
}

func (s *LetterService) renderOffer(ctx context.Context, o *letter.OfferLetter) error {
	b := o.Breakdown
	earnings := []docgen.PayComponent{
		component("Basic", b.Basic),
		component("House rent allowance", b.HRA),
		component("Special allowance", b.SpecialAllowance),
	}
	deductions := []docgen.PayComponent{component("Provident fund", b.EmployeePF)}
	if b.EmployeeESI > 0 {
		deductions = append(deductions, component("ESI", b.EmployeeESI))
	}
	if b.ProfessionalTax > 0 {
		deductions = append(deductions, component("Professional tax", b.ProfessionalTax))
	}

	doc, err := s.docs.OfferLetter(ctx, docgen.OfferLetter{
		Reference:     o.Reference,
		Date:          s.now(),
		CandidateName: o.CandidateName,
		Address:       o.Address,
		Designation:   o.Designation,
		StoreName:     o.StoreName,
		Location:      o.Location,
		JoiningDate:   o.JoiningDate,
		AnnualCTC:     o.AnnualCTC,
		Earnings:      earnings,
		Deductions:    deductions,
		GrossMonthly:  b.Gross,
		NetMonthly:    b.Net,
	})
	if err != nil {
		return letter.ErrRenderFailed(err)
	}
	path, err := s.store(ctx, "letters/offer/"+o.ID, doc)
	if err != nil {
		return err
	}
	o.FilePath = path
	return nil
}

func canSeeOffer(ac *kernel.AuthContext, o *letter.OfferLetter) bool {
	if ac.HasScope(scopes.ScopeLettersRead) {
		return true
	}
	return ac.Links.CandidateID != "" && ac.Links.CandidateID == o.CandidateID
}

// ============================================================================
// Warning letters
// ============================================================================

// IssueWarning writes a warning to an active employee. The level follows the
// number of warnings the employee already has.
func (s *LetterService) IssueWarning(ctx context.Context, ac *kernel.AuthContext, req letter.WarningRequest) (*letter.WarningLetter, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, letter.ErrInvalidLetter("reason is required")
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, letter.ErrInvalidLetter("description is required")
	}

	e, err := s.employees.Get(ctx, req.EmployeeID)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, employee.ErrEmployeeNotFound(req.EmployeeID)
		}
		return nil, err
	}
	if !e.IsActive() {
		return nil, employee.ErrNotActive(e.Status)
	}

	prior, err := s.warnings.Filter(ctx, func(w *letter.WarningLetter) bool { return w.EmployeeID == e.ID })
	if err != nil {
		return nil, err
	}

	w := &letter.WarningLetter{
		EmployeeID:   e.ID,
		EmployeeName: e.Name,
		Designation:  e.Designation,
		StoreID:      e.StoreID,
		Level:        letter.LevelFor(len(prior)),
		Reason:       reason,
		Description:  description,
		IssuedBy:     ac.Actor(),
	}
	w.ID = kernel.NewID()
	w.Reference = letter.Reference("WL", s.now(), w.ID)

	var storeName string
	if st, err := s.stores.GetStore(ctx, e.StoreID); err == nil {
		storeName = st.Name
	}
	doc, err := s.docs.WarningLetter(ctx, docgen.WarningLetter{
		Reference:    w.Reference,
		Date:         s.now(),
		EmployeeName: w.EmployeeName,
		Designation:  w.Designation,
		StoreName:    storeName,
		Level:        string(w.Level),
		Reason:       w.Reason,
		Description:  w.Description,
		Previous:     len(prior),
	})
	if err != nil {
		return nil, letter.ErrRenderFailed(err)
	}
	if w.FilePath, err = s.store(ctx, "letters/warning/"+w.ID, doc); err != nil {
		return nil, err
	}
	if err := s.warnings.Create(ctx, w); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{"warning_id": w.ID, "employee_id": e.ID, "level": w.Level, "by": ac.Actor()}).Info("warning letter issued")
	return w, nil
}

func (s *LetterService) GetWarning(ctx context.Context, id string) (*letter.WarningLetter, error) {
	w, err := s.warnings.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, letter.ErrLetterNotFound(id)
		}
		return nil, err
	}
	return w, nil
}

func (s *LetterService) ListWarnings(ctx context.Context, f letter.WarningFilter) ([]*letter.WarningLetter, error) {
	list, err := s.warnings.Filter(ctx, func(w *letter.WarningLetter) bool {
		return (f.EmployeeID == "" || w.EmployeeID == f.EmployeeID) && (f.Level == "" || w.Level == f.Level)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (s *LetterService) WarningFile(ctx context.Context, id string) ([]byte, string, string, error) {
	w, err := s.GetWarning(ctx, id)
	if err != nil {
		return nil, "", "", err
	}
	data, contentType, err := s.read(ctx, w.FilePath)
	if err != nil {
		return nil, "", "", err
	}
	return data, contentType, w.Reference + docgen.ExtFor(contentType), nil
}

// ============================================================================
// helpers
// ============================================================================

func component(name string, monthly float64) docgen.PayComponent {
	return docgen.PayComponent{Name: name, Monthly: monthly, Annual: payroll.Round2(monthly * 12)}
}

// store writes doc under base plus the renderer's extension
func (s *LetterService) store(ctx context.Context, base string, doc *docgen.Document) (string, error) {
	path := base + doc.Ext()
	if err := s.files.WriteFile(ctx, path, doc.Data, doc.ContentType); err != nil {
		return "", letter.ErrRenderFailed(err)
	}
	return path, nil
}

func (s *LetterService) read(ctx context.Context, path string) ([]byte, string, error) {
	data, err := s.files.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, fsx.ErrNotExist) {
			return nil, "", errx.New("letter file is missing", errx.TypeNotFound).WithDetail("path", path)
		}
		return nil, "", errx.Wrap(err, "failed to read letter", errx.TypeInternal)
	}
	return data, docgen.ContentTypeFor(path), nil
}

func (s *LetterService) offer(ctx context.Context, id string) (*letter.OfferLetter, error) {
	o, err := s.offers.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, letter.ErrLetterNotFound(id)
		}
		return nil, err
	}
	return o, nil
}
