package candidatesrv

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/candidate"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/iam/user"
	"github.com/Abraxas-365/hireline/pkg/job"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
)

// PanelLookup validates role and location names
type PanelLookup interface {
	CanonicalRole(ctx context.Context, name string) (string, error)
	CanonicalLocation(ctx context.Context, name string) (string, error)
}

type JobLookup interface {
	Get(ctx context.Context, id string) (*job.Job, error)
}

// EmployeeCreator records hires. Remove undoes a hire that could not be completed.
type EmployeeCreator interface {
	CreateFromHire(ctx context.Context, in employee.HireInput) (*employee.Employee, error)
	Remove(ctx context.Context, id string) error
}

// HireListener is told about every completed hire
type HireListener interface {
	OnHired(ctx context.Context, e *employee.Employee) error
}

// UserDirectory resolves recruiter names for printed profiles
type UserDirectory interface {
	GetUser(ctx context.Context, id kernel.UserID) (*user.User, error)
}

type CandidateService struct {
	candidates docstore.Repository[candidate.Candidate]
	panel      PanelLookup
	jobs       JobLookup
	employees  EmployeeCreator
	listeners  []HireListener
	cv         *CVService
	now        func() time.Time
}

func NewCandidateService(
	candidates docstore.Repository[candidate.Candidate],
	panel PanelLookup,
	jobs JobLookup,
	employees EmployeeCreator,
) *CandidateService {
	return &CandidateService{
		candidates: candidates,
		panel:      panel,
		jobs:       jobs,
		employees:  employees,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *CandidateService) WithClock(now func() time.Time) *CandidateService {
	s.now = now
	return s
}

func (s *CandidateService) AddHireListener(l HireListener) {
	s.listeners = append(s.listeners, l)
}

// CreateCandidate opens a pipeline entry. A scheduled interview starts the
// candidate in INTERVIEW, otherwise it starts SOURCED.
func (s *CandidateService) CreateCandidate(ctx context.Context, ac *kernel.AuthContext, req candidate.CreateRequest) (*candidate.Candidate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, candidate.ErrInvalidCandidate("name is required")
	}
	phone, ok := kernel.NormalizePhone(req.Phone)
	if !ok {
		return nil, candidate.ErrInvalidCandidate("phone must have 10 digits")
	}
	if req.Source != "" && !req.Source.IsValid() {
		return nil, candidate.ErrInvalidCandidate("unknown source " + string(req.Source))
	}
	if req.Experience < 0 || req.CurrentSalary < 0 || req.ExpectedSalary < 0 {
		return nil, candidate.ErrInvalidCandidate("experience and salaries cannot be negative")
	}

	role, err := s.panel.CanonicalRole(ctx, req.Role)
	if err != nil {
		return nil, err
	}
	location, err := s.panel.CanonicalLocation(ctx, req.Location)
	if err != nil {
		return nil, err
	}

	var partnerID string
	if req.JobID != "" {
		j, err := s.jobs.Get(ctx, req.JobID)
		if err != nil {
			return nil, err
		}
		if j.Status == job.StatusClosed {
			return nil, job.ErrJobClosed()
		}
		partnerID = j.PartnerID
	}

	existing, err := s.candidates.First(ctx, func(c *candidate.Candidate) bool {
		return c.Phone == phone && c.IsActive()
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, candidate.ErrDuplicatePhone(existing.ID)
	}

	recruiter := req.RecruiterID
	if recruiter == "" {
		recruiter = ac.Actor()
	}
	c := &candidate.Candidate{
		Name:           name,
		Phone:          phone,
		Email:          strings.TrimSpace(req.Email),
		Role:           role,
		Location:       location,
		Source:         req.Source,
		Experience:     req.Experience,
		CurrentSalary:  req.CurrentSalary,
		ExpectedSalary: req.ExpectedSalary,
		Skills:         cleanSkills(req.Skills),
		Education:      strings.TrimSpace(req.Education),
		Address:        strings.TrimSpace(req.Address),
		Notes:          req.Notes,
		JobID:          req.JobID,
		PartnerID:      partnerID,
		RecruiterID:    recruiter,
		LineupID:       req.LineupID,
	}
	if req.InterviewAt != nil {
		at := *req.InterviewAt
		c.InterviewAt = &at
		c.Start(candidate.StatusInterview, ac.Actor(), "interview scheduled")
	} else {
		c.Start(candidate.StatusSourced, ac.Actor(), "")
	}

	if err := s.candidates.Create(ctx, c); err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{"candidate_id": c.ID, "status": c.Status, "by": ac.Actor()}).Info("candidate created")
	return c, nil
}

// Get hides candidates the caller may not see behind a not found error
func (s *CandidateService) Get(ctx context.Context, ac *kernel.AuthContext, id string) (*candidate.Candidate, error) {
	visible, err := visibility(ac)
	if err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(c) {
		return nil, candidate.ErrCandidateNotFound(id)
	}
	return c, nil
}

func (s *CandidateService) List(ctx context.Context, ac *kernel.AuthContext, f candidate.Filter) ([]*candidate.Candidate, error) {
	visible, err := visibility(ac)
	if err != nil {
		return nil, err
	}
	return s.candidates.Filter(ctx, func(c *candidate.Candidate) bool { return visible(c) && c.Matches(f) })
}

// Board is the kanban view of List
func (s *CandidateService) Board(ctx context.Context, ac *kernel.AuthContext, f candidate.Filter) ([]candidate.BoardColumn, error) {
	f.Status = ""
	list, err := s.List(ctx, ac, f)
	if err != nil {
		return nil, err
	}
	return candidate.BuildBoard(list), nil
}

func (s *CandidateService) Update(ctx context.Context, ac *kernel.AuthContext, id string, req candidate.UpdateRequest) (*candidate.Candidate, error) {
	c, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(c, req.Version); err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, candidate.ErrInvalidCandidate("name is required")
		}
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		c.Email = strings.TrimSpace(*req.Email)
	}
	for _, v := range []*float64{req.Experience, req.CurrentSalary, req.ExpectedSalary} {
		if v != nil && *v < 0 {
			return nil, candidate.ErrInvalidCandidate("experience and salaries cannot be negative")
		}
	}
	if req.Experience != nil {
		c.Experience = *req.Experience
	}
	if req.CurrentSalary != nil {
		c.CurrentSalary = *req.CurrentSalary
	}
	if req.ExpectedSalary != nil {
		c.ExpectedSalary = *req.ExpectedSalary
	}
	if req.Skills != nil {
		c.Skills = cleanSkills(*req.Skills)
	}
	if req.Education != nil {
		c.Education = strings.TrimSpace(*req.Education)
	}
	if req.Address != nil {
		c.Address = strings.TrimSpace(*req.Address)
	}
	if req.Notes != nil {
		c.Notes = *req.Notes
	}

	if err := s.candidates.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Transition moves a candidate along the pipeline. Hiring goes through Hire.
func (s *CandidateService) Transition(ctx context.Context, ac *kernel.AuthContext, id string, req candidate.TransitionRequest) (*candidate.Candidate, error) {
	if req.Status == candidate.StatusHired {
		return nil, candidate.ErrInvalidCandidate("use the hire operation to hire a candidate")
	}
	c, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(c, req.Version); err != nil {
		return nil, err
	}
	if req.Status == candidate.StatusInterview && req.InterviewAt != nil {
		at := *req.InterviewAt
		c.InterviewAt = &at
	}
	if err := c.Transition(req.Status, ac.Actor(), req.Note); err != nil {
		return nil, err
	}
	if err := s.candidates.Update(ctx, c); err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{"candidate_id": c.ID, "status": c.Status, "by": ac.Actor()}).Info("candidate moved")
	return c, nil
}

// Move applies a transition on behalf of another module, bypassing caller visibility
func (s *CandidateService) Move(ctx context.Context, id string, next candidate.Status, by, note string) (*candidate.Candidate, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Transition(next, by, note); err != nil {
		return nil, err
	}
	if err := s.candidates.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Candidate loads a candidate without visibility checks
func (s *CandidateService) Candidate(ctx context.Context, id string) (*candidate.Candidate, error) {
	return s.load(ctx, id)
}

// Remove drops a candidate that never left SOURCED or INTERVIEW, undoing a failed promotion
func (s *CandidateService) Remove(ctx context.Context, id string) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != candidate.StatusSourced && c.Status != candidate.StatusInterview {
		return candidate.ErrInvalidTransition(c.Status, "REMOVED")
	}
	return s.candidates.Delete(ctx, id)
}

// MarkQuit moves a candidate whose employee record ended to QUIT.
// Candidates already out of the pipeline are left as they are.
func (s *CandidateService) MarkQuit(ctx context.Context, candidateID, by, reason string) error {
	c, err := s.load(ctx, candidateID)
	if err != nil {
		return err
	}
	if c.Status.IsTerminal() {
		return nil
	}
	_, err = s.Move(ctx, candidateID, candidate.StatusQuit, by, reason)
	return err
}

// HireResult is the pipeline entry and the employee record a hire produced
type HireResult struct {
	Candidate *candidate.Candidate `json:"candidate"`
	Employee  *employee.Employee   `json:"employee"`
}

// Hire moves a selected or offered candidate to HIRED and creates the employee.
// The employee is removed again when the candidate cannot be saved.
func (s *CandidateService) Hire(ctx context.Context, ac *kernel.AuthContext, id string, req candidate.HireRequest) (*HireResult, error) {
	c, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(c, req.Version); err != nil {
		return nil, err
	}
	if c.Status != candidate.StatusSelected && c.Status != candidate.StatusOfferSent {
		return nil, candidate.ErrNotHirable(c.Status)
	}
	if req.JoiningDate == "" {
		return nil, candidate.ErrInvalidCandidate("joining_date is required")
	}
	joining, err := kernel.ParseDay(req.JoiningDate)
	if err != nil {
		return nil, candidate.ErrInvalidCandidate(err.Error())
	}
	designation := strings.TrimSpace(req.Designation)
	if designation == "" {
		designation = c.Role
	}

	e, err := s.employees.CreateFromHire(ctx, employee.HireInput{
		CandidateID: c.ID,
		Name:        c.Name,
		Phone:       c.Phone,
		Email:       c.Email,
		Designation: designation,
		StoreID:     req.StoreID,
		PartnerID:   c.PartnerID,
		JoiningDate: joining,
		AnnualCTC:   req.AnnualCTC,
	})
	if err != nil {
		return nil, err
	}

	if err := c.Transition(candidate.StatusHired, ac.Actor(), "joining "+kernel.DayKey(joining)); err != nil {
		s.undoHire(ctx, e, err)
		return nil, err
	}
	c.EmployeeID = e.ID
	if err := s.candidates.Update(ctx, c); err != nil {
		s.undoHire(ctx, e, err)
		return nil, err
	}

	for _, l := range s.listeners {
		if err := l.OnHired(ctx, e); err != nil {
			logx.WithFields(logx.Fields{"employee_id": e.ID}).Warnf("hire listener failed: %v", err)
		}
	}

	logx.WithFields(logx.Fields{
		"candidate_id": c.ID,
		"employee_id":  e.ID,
		"store_id":     e.StoreID,
		"by":           ac.Actor(),
	}).Info("candidate hired")
	return &HireResult{Candidate: c, Employee: e}, nil
}

func (s *CandidateService) undoHire(ctx context.Context, e *employee.Employee, cause error) {
	if err := s.employees.Remove(ctx, e.ID); err != nil {
		logx.WithFields(logx.Fields{"employee_id": e.ID}).
			Errorf("hire failed (%v) and employee could not be removed: %v", cause, err)
	}
}

// ============================================================================
// helpers
// ============================================================================

func (s *CandidateService) load(ctx context.Context, id string) (*candidate.Candidate, error) {
	c, err := s.candidates.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, candidate.ErrCandidateNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

// checkVersion fails fast when the caller edited a stale copy
func checkVersion(c *candidate.Candidate, version int64) error {
	if version != 0 && version != c.Version {
		return docstore.ErrVersionConflict(candidate.Collection, c.ID, version).
			WithDetail("current_version", c.Version)
	}
	return nil
}

func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, sk := range skills {
		sk = strings.TrimSpace(sk)
		key := strings.ToLower(sk)
		if sk == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sk)
	}
	return out
}

// visibility decides which candidates the caller may see from its scopes and links
func visibility(ac *kernel.AuthContext) (func(*candidate.Candidate) bool, error) {
	if ac.HasScope(scopes.ScopeCandidatesRead) {
		return func(*candidate.Candidate) bool { return true }, nil
	}
	if !ac.HasScope(scopes.ScopeCandidatesReadOwn) {
		return nil, iam.ErrForbidden().WithDetail("required_scope", scopes.ScopeCandidatesReadOwn)
	}
	switch {
	case ac.IsRole(kernel.RolePartner):
		partner := ac.Links.PartnerID
		return func(c *candidate.Candidate) bool { return partner != "" && c.PartnerID == partner }, nil
	case ac.IsRole(kernel.RoleCandidate):
		self := ac.Links.CandidateID
		return func(c *candidate.Candidate) bool { return self != "" && c.ID == self }, nil
	}
	me := ac.Actor()
	return func(c *candidate.Candidate) bool { return c.RecruiterID == me }, nil
}

var errNoCVRenderer = errors.New("no document generator configured")

// ============================================================================
// CV
// ============================================================================

// SetCVService enables GenerateCV
func (s *CandidateService) SetCVService(cv *CVService) {
	s.cv = cv
}

// GenerateCV renders the profile and stores it, recording the path on the candidate
func (s *CandidateService) GenerateCV(ctx context.Context, ac *kernel.AuthContext, id string) (*candidate.Candidate, error) {
	c, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if s.cv == nil {
		return nil, candidate.ErrCVFailed(errNoCVRenderer)
	}
	path, err := s.cv.Generate(ctx, c)
	if err != nil {
		return nil, err
	}
	c.CVPath = path
	if err := s.candidates.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CV returns the stored profile document and its content type
func (s *CandidateService) CV(ctx context.Context, ac *kernel.AuthContext, id string) ([]byte, string, error) {
	c, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, "", err
	}
	if c.CVPath == "" || s.cv == nil {
		return nil, "", errx.New("candidate has no generated CV", errx.TypeNotFound).WithDetail("candidate_id", id)
	}
	return s.cv.Read(ctx, c.CVPath)
}
