package employeesrv

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/fsx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/Abraxas-365/hireline/pkg/panel"
)

// StoreLookup resolves the store an employee is deployed to
type StoreLookup interface {
	GetStore(ctx context.Context, id string) (*panel.Store, error)
}

// CandidateQuitter closes the pipeline entry of an employee who left on their own
type CandidateQuitter interface {
	MarkQuit(ctx context.Context, candidateID, by, reason string) error
}

type EmployeeService struct {
	employees  docstore.Repository[employee.Employee]
	stores     StoreLookup
	candidates CandidateQuitter
	files      fsx.FileSystem
	now        func() time.Time
}

func NewEmployeeService(
	employees docstore.Repository[employee.Employee],
	stores StoreLookup,
	candidates CandidateQuitter,
	files fsx.FileSystem,
) *EmployeeService {
	return &EmployeeService{
		employees:  employees,
		stores:     stores,
		candidates: candidates,
		files:      files,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *EmployeeService) WithClock(now func() time.Time) *EmployeeService {
	s.now = now
	return s
}

// SetCandidateQuitter breaks the construction cycle with the candidate service
func (s *EmployeeService) SetCandidateQuitter(q CandidateQuitter) {
	s.candidates = q
}

// CreateFromHire records a hired candidate. Location comes from the store when not given.
func (s *EmployeeService) CreateFromHire(ctx context.Context, in employee.HireInput) (*employee.Employee, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, employee.ErrInvalidEmployee("name is required")
	}
	if strings.TrimSpace(in.Designation) == "" {
		return nil, employee.ErrInvalidEmployee("designation is required")
	}
	if in.AnnualCTC <= 0 {
		return nil, employee.ErrInvalidEmployee("annual_ctc must be positive")
	}
	if in.JoiningDate.IsZero() {
		return nil, employee.ErrInvalidEmployee("joining_date is required")
	}
	st, err := s.stores.GetStore(ctx, in.StoreID)
	if err != nil {
		return nil, err
	}

	e := &employee.Employee{
		CandidateID: in.CandidateID,
		Name:        strings.TrimSpace(in.Name),
		Phone:       in.Phone,
		Email:       in.Email,
		Designation: strings.TrimSpace(in.Designation),
		StoreID:     st.ID,
		Location:    st.Location,
		PartnerID:   in.PartnerID,
		JoiningDate: kernel.Day(in.JoiningDate),
		AnnualCTC:   in.AnnualCTC,
		Status:      employee.StatusActive,
	}
	if in.Location != "" {
		e.Location = in.Location
	}
	if err := s.employees.Create(ctx, e); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"employee_id":  e.ID,
		"candidate_id": e.CandidateID,
		"store_id":     e.StoreID,
	}).Info("employee created")
	return e, nil
}

// Remove deletes an employee record, used to undo a hire that could not complete
func (s *EmployeeService) Remove(ctx context.Context, id string) error {
	err := s.employees.Delete(ctx, id)
	if docstore.IsNotFound(err) {
		return nil
	}
	return err
}

// Get hides employees of other stores behind a not found error
func (s *EmployeeService) Get(ctx context.Context, ac *kernel.AuthContext, id string) (*employee.Employee, error) {
	visible, err := visibility(ac)
	if err != nil {
		return nil, err
	}
	e, err := s.employees.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, employee.ErrEmployeeNotFound(id)
		}
		return nil, err
	}
	if !visible(e) {
		return nil, employee.ErrEmployeeNotFound(id)
	}
	return e, nil
}

func (s *EmployeeService) List(ctx context.Context, ac *kernel.AuthContext, f employee.Filter) ([]*employee.Employee, error) {
	visible, err := visibility(ac)
	if err != nil {
		return nil, err
	}
	return s.employees.Filter(ctx, func(e *employee.Employee) bool { return visible(e) && e.Matches(f) })
}

func (s *EmployeeService) Update(ctx context.Context, ac *kernel.AuthContext, id string, req employee.UpdateRequest) (*employee.Employee, error) {
	e, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if !e.IsActive() {
		return nil, employee.ErrNotActive(e.Status)
	}

	if req.StoreID != nil && *req.StoreID != e.StoreID {
		st, err := s.stores.GetStore(ctx, *req.StoreID)
		if err != nil {
			return nil, err
		}
		e.StoreID = st.ID
		e.Location = st.Location
	}
	if req.AnnualCTC != nil {
		if *req.AnnualCTC <= 0 {
			return nil, employee.ErrInvalidEmployee("annual_ctc must be positive")
		}
		e.AnnualCTC = *req.AnnualCTC
	}
	if req.Phone != nil {
		phone, ok := kernel.NormalizePhone(*req.Phone)
		if !ok {
			return nil, employee.ErrInvalidEmployee("phone must have 10 digits")
		}
		e.Phone = phone
	}
	if req.Designation != nil {
		if strings.TrimSpace(*req.Designation) == "" {
			return nil, employee.ErrInvalidEmployee("designation is required")
		}
		e.Designation = strings.TrimSpace(*req.Designation)
	}
	if req.Email != nil {
		e.Email = strings.TrimSpace(*req.Email)
	}
	if req.BankAccount != nil {
		e.BankAccount = strings.TrimSpace(*req.BankAccount)
	}
	if req.IFSC != nil {
		e.IFSC = strings.ToUpper(strings.TrimSpace(*req.IFSC))
	}

	if err := s.employees.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Exit ends employment. Resignations and abscondings also move the linked
// candidate to QUIT; the exit stands even when that move fails.
func (s *EmployeeService) Exit(ctx context.Context, ac *kernel.AuthContext, id string, req employee.ExitRequest) (*employee.Employee, error) {
	e, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}

	date := s.now()
	if req.Date != "" {
		if date, err = kernel.ParseDay(req.Date); err != nil {
			return nil, employee.ErrInvalidEmployee(err.Error())
		}
	}
	if err := e.Exit(req.Status, date, strings.TrimSpace(req.Reason), ac.Actor()); err != nil {
		return nil, err
	}
	if err := s.employees.Update(ctx, e); err != nil {
		return nil, err
	}

	if req.Status.QuitsCandidate() && e.CandidateID != "" && s.candidates != nil {
		if err := s.candidates.MarkQuit(ctx, e.CandidateID, ac.Actor(), string(req.Status)); err != nil {
			logx.WithFields(logx.Fields{"employee_id": e.ID, "candidate_id": e.CandidateID}).
				Errorf("employee exited but candidate not moved to QUIT: %v", err)
		}
	}

	logx.WithFields(logx.Fields{"employee_id": e.ID, "status": e.Status, "by": ac.Actor()}).Info("employee exited")
	return e, nil
}

// ============================================================================
// Photo
// ============================================================================

func photoPath(id string) string {
	return "photos/" + id + ".png"
}

// UploadPhoto normalizes the image to a square PNG and stores it
func (s *EmployeeService) UploadPhoto(ctx context.Context, ac *kernel.AuthContext, id string, raw []byte) (*employee.Employee, error) {
	e, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	out, err := employee.ProcessPhoto(raw, employee.PhotoSize)
	if err != nil {
		return nil, err
	}
	path := photoPath(e.ID)
	if err := s.files.WriteFile(ctx, path, out, "image/png"); err != nil {
		return nil, errx.Wrap(err, "failed to store photo", errx.TypeInternal)
	}
	e.PhotoPath = path
	if err := s.employees.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EmployeeService) Photo(ctx context.Context, ac *kernel.AuthContext, id string) ([]byte, error) {
	e, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if e.PhotoPath == "" {
		return nil, employee.ErrNoPhoto()
	}
	data, err := s.files.ReadFile(ctx, e.PhotoPath)
	if err != nil {
		if errors.Is(err, fsx.ErrNotExist) {
			return nil, employee.ErrNoPhoto()
		}
		return nil, errx.Wrap(err, "failed to read photo", errx.TypeInternal)
	}
	return data, nil
}

func visibility(ac *kernel.AuthContext) (func(*employee.Employee) bool, error) {
	switch {
	case ac.HasScope(scopes.ScopeEmployeesRead):
		return func(*employee.Employee) bool { return true }, nil
	case ac.HasScope(scopes.ScopeEmployeesReadStore) && ac.Links.StoreID != "":
		store := ac.Links.StoreID
		return func(e *employee.Employee) bool { return e.StoreID == store }, nil
	}
	return nil, iam.ErrForbidden().WithDetail("required_scope", scopes.ScopeEmployeesRead)
}
