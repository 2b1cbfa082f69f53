package lineupsrv

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/candidate"
	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/lineup"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/Abraxas-365/hireline/pkg/sheetx"
)

// PanelLookup validates role and location names
type PanelLookup interface {
	CanonicalRole(ctx context.Context, name string) (string, error)
	CanonicalLocation(ctx context.Context, name string) (string, error)
}

// TeamResolver lists the members reporting to a team lead, the lead included
type TeamResolver interface {
	TeamMemberIDs(ctx context.Context, leadID kernel.UserID) ([]string, error)
}

// CandidateCreator opens a pipeline entry for a promoted lineup, and drops it
// again when the lineup cannot be marked promoted
type CandidateCreator interface {
	CreateCandidate(ctx context.Context, ac *kernel.AuthContext, req candidate.CreateRequest) (*candidate.Candidate, error)
	Remove(ctx context.Context, id string) error
}

type LineupService struct {
	lineups    docstore.Repository[lineup.Lineup]
	panel      PanelLookup
	team       TeamResolver
	candidates CandidateCreator
	cfg        config.RecruitmentConfig
	now        func() time.Time
}

func NewLineupService(
	lineups docstore.Repository[lineup.Lineup],
	panel PanelLookup,
	team TeamResolver,
	candidates CandidateCreator,
	cfg config.RecruitmentConfig,
) *LineupService {
	return &LineupService{
		lineups:    lineups,
		panel:      panel,
		team:       team,
		candidates: candidates,
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *LineupService) WithClock(now func() time.Time) *LineupService {
	s.now = now
	return s
}

func (s *LineupService) Create(ctx context.Context, ac *kernel.AuthContext, req lineup.LineupRequest) (*lineup.Lineup, error) {
	l := &lineup.Lineup{RecruiterID: ac.Actor()}
	if err := s.apply(ctx, l, req); err != nil {
		return nil, err
	}
	if err := s.ensureNotDuplicate(ctx, l.Phone, ""); err != nil {
		return nil, err
	}
	if err := s.lineups.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Get hides lineups the caller may not see behind a not found error
func (s *LineupService) Get(ctx context.Context, ac *kernel.AuthContext, id string) (*lineup.Lineup, error) {
	l, err := s.lineups.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, lineup.ErrLineupNotFound(id)
		}
		return nil, err
	}
	visible, err := s.visibility(ctx, ac)
	if err != nil {
		return nil, err
	}
	if !visible(l) {
		return nil, lineup.ErrLineupNotFound(id)
	}
	return l, nil
}

func (s *LineupService) List(ctx context.Context, ac *kernel.AuthContext, f lineup.Filter) ([]*lineup.Lineup, error) {
	visible, err := s.visibility(ctx, ac)
	if err != nil {
		return nil, err
	}
	return s.lineups.Filter(ctx, func(l *lineup.Lineup) bool { return visible(l) && l.Matches(f) })
}

func (s *LineupService) Update(ctx context.Context, ac *kernel.AuthContext, id string, req lineup.LineupRequest) (*lineup.Lineup, error) {
	l, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if l.IsPromoted() {
		return nil, lineup.ErrAlreadyPromoted(l.CandidateID)
	}
	if req.LineupDate == "" {
		req.LineupDate = l.LineupDate
	}
	if err := s.apply(ctx, l, req); err != nil {
		return nil, err
	}
	if err := s.ensureNotDuplicate(ctx, l.Phone, l.ID); err != nil {
		return nil, err
	}
	// un-interested callers lose their slot
	if l.CallStatus != lineup.CallInterested {
		l.InterviewAt = nil
	}
	if err := s.lineups.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LineupService) Delete(ctx context.Context, ac *kernel.AuthContext, id string) error {
	l, err := s.Get(ctx, ac, id)
	if err != nil {
		return err
	}
	if l.IsPromoted() {
		return lineup.ErrAlreadyPromoted(l.CandidateID)
	}
	return s.lineups.Delete(ctx, id)
}

func (s *LineupService) ScheduleInterview(ctx context.Context, ac *kernel.AuthContext, id string, at time.Time) (*lineup.Lineup, error) {
	l, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if err := l.ScheduleInterview(at, s.now()); err != nil {
		return nil, err
	}
	if err := s.lineups.Update(ctx, l); err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{"lineup_id": id, "interview_at": at}).Info("interview scheduled")
	return l, nil
}

// Promote opens a candidate from the lineup. Scheduled interviews start the
// candidate in INTERVIEW, everyone else in SOURCED.
func (s *LineupService) Promote(ctx context.Context, ac *kernel.AuthContext, id string) (*candidate.Candidate, error) {
	l, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if l.IsPromoted() {
		return nil, lineup.ErrAlreadyPromoted(l.CandidateID)
	}

	c, err := s.candidates.CreateCandidate(ctx, ac, candidate.CreateRequest{
		Name:           l.CandidateName,
		Phone:          l.Phone,
		Email:          l.Email,
		Role:           l.Role,
		Location:       l.Location,
		Source:         l.Source,
		Experience:     l.Experience,
		CurrentSalary:  l.CurrentSalary,
		ExpectedSalary: l.ExpectedSalary,
		Notes:          l.Remarks,
		JobID:          l.JobID,
		LineupID:       l.ID,
		RecruiterID:    l.RecruiterID,
		InterviewAt:    l.InterviewAt,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	l.CandidateID = c.ID
	l.PromotedAt = &now
	if err := s.lineups.Update(ctx, l); err != nil {
		if rmErr := s.candidates.Remove(ctx, c.ID); rmErr != nil {
			logx.WithFields(logx.Fields{"lineup_id": l.ID, "candidate_id": c.ID}).
				Errorf("lineup not marked promoted (%v) and candidate could not be removed: %v", err, rmErr)
		}
		return nil, err
	}

	logx.WithFields(logx.Fields{"lineup_id": l.ID, "candidate_id": c.ID, "status": c.Status}).Info("lineup promoted")
	return c, nil
}

// ============================================================================
// Import
// ============================================================================

var importColumns = map[string][]string{
	"name":            {"candidate name", "name", "candidate"},
	"phone":           {"phone", "mobile", "mobile number", "phone number", "contact", "contact number"},
	"email":           {"email", "email id", "mail"},
	"role":            {"role", "designation", "position", "job role"},
	"location":        {"location", "city"},
	"source":          {"source"},
	"experience":      {"experience", "exp", "experience years", "total experience"},
	"current_salary":  {"current salary", "current ctc", "salary"},
	"expected_salary": {"expected salary", "expected ctc"},
	"call_status":     {"call status", "status", "call outcome"},
	"remarks":         {"remarks", "comments", "notes"},
	"date":            {"lineup date", "date"},
}

var requiredColumns = []string{"name", "phone", "role", "location"}

// Import creates one lineup per spreadsheet row, reporting each row's outcome.
// A missing required column fails the whole file.
func (s *LineupService) Import(ctx context.Context, ac *kernel.AuthContext, data []byte, filename string) (*lineup.ImportResult, error) {
	rows, err := sheetx.ReadRows(data, filename, s.cfg.ImportMaxRows)
	if err != nil {
		return nil, err
	}

	idx := sheetx.HeaderIndex(rows[0], importColumns)
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, lineup.ErrMissingColumn(col)
		}
	}
	cell := func(row []string, field string) string {
		i, ok := idx[field]
		if !ok {
			return ""
		}
		return sheetx.Cell(row, i)
	}

	result := &lineup.ImportResult{Rows: make([]lineup.RowResult, 0, len(rows)-1)}
	for i, row := range rows[1:] {
		if sheetx.IsBlank(row) {
			continue
		}
		rowNum := i + 2
		result.Total++

		req, err := rowRequest(row, cell)
		if err == nil {
			var l *lineup.Lineup
			l, err = s.Create(ctx, ac, req)
			if err == nil {
				result.Created++
				result.Rows = append(result.Rows, lineup.RowResult{Row: rowNum, LineupID: l.ID})
				continue
			}
		}
		result.Failed++
		result.Rows = append(result.Rows, lineup.RowResult{Row: rowNum, Error: rowError(err)})
	}

	logx.WithFields(logx.Fields{
		"file":    filename,
		"by":      ac.Actor(),
		"created": result.Created,
		"failed":  result.Failed,
	}).Info("lineups imported")
	return result, nil
}

func rowRequest(row []string, cell func([]string, string) string) (lineup.LineupRequest, error) {
	req := lineup.LineupRequest{
		CandidateName: cell(row, "name"),
		Phone:         cell(row, "phone"),
		Email:         cell(row, "email"),
		Role:          cell(row, "role"),
		Location:      cell(row, "location"),
		Source:        lineup.ParseSource(cell(row, "source")),
		Remarks:       cell(row, "remarks"),
		CallStatus:    lineup.CallInterested,
	}

	if v := cell(row, "call_status"); v != "" {
		cs, ok := lineup.ParseCallStatus(v)
		if !ok {
			return req, errors.New("unknown call status " + strconv.Quote(v))
		}
		req.CallStatus = cs
	}

	var err error
	if req.Experience, err = parseAmount(cell(row, "experience")); err != nil {
		return req, errors.New("experience is not a number")
	}
	if req.CurrentSalary, err = parseAmount(cell(row, "current_salary")); err != nil {
		return req, errors.New("current salary is not a number")
	}
	if req.ExpectedSalary, err = parseAmount(cell(row, "expected_salary")); err != nil {
		return req, errors.New("expected salary is not a number")
	}

	if v := cell(row, "date"); v != "" {
		d, err := sheetx.ParseDate(v)
		if err != nil {
			return req, err
		}
		req.LineupDate = kernel.DayKey(d)
	}
	return req, nil
}

func parseAmount(v string) (float64, error) {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

func rowError(err error) string {
	var e *errx.Error
	if errors.As(err, &e) {
		if reason, ok := e.Details["reason"].(string); ok {
			return e.Message + ": " + reason
		}
		return e.Message
	}
	return err.Error()
}

// ============================================================================
// helpers
// ============================================================================

func (s *LineupService) apply(ctx context.Context, l *lineup.Lineup, req lineup.LineupRequest) error {
	name := strings.TrimSpace(req.CandidateName)
	if name == "" {
		return lineup.ErrInvalidLineup("candidate_name is required")
	}
	phone, ok := kernel.NormalizePhone(req.Phone)
	if !ok {
		return lineup.ErrInvalidPhone(req.Phone)
	}
	if !req.CallStatus.IsValid() {
		return lineup.ErrInvalidLineup("unknown call_status " + string(req.CallStatus))
	}
	if req.CallStatus == lineup.CallBack && req.CallBackAt == nil {
		return lineup.ErrInvalidLineup("call_back_at is required for CALL_BACK")
	}
	if req.Source != "" && !req.Source.IsValid() {
		return lineup.ErrInvalidLineup("unknown source " + string(req.Source))
	}
	if req.Experience < 0 || req.CurrentSalary < 0 || req.ExpectedSalary < 0 {
		return lineup.ErrInvalidLineup("experience and salaries cannot be negative")
	}

	day := kernel.DayKey(s.now())
	if req.LineupDate != "" {
		d, err := kernel.ParseDay(req.LineupDate)
		if err != nil {
			return lineup.ErrInvalidLineup(err.Error())
		}
		day = kernel.DayKey(d)
	}

	role, err := s.panel.CanonicalRole(ctx, req.Role)
	if err != nil {
		return err
	}
	location, err := s.panel.CanonicalLocation(ctx, req.Location)
	if err != nil {
		return err
	}

	l.CandidateName = name
	l.Phone = phone
	l.Email = strings.TrimSpace(req.Email)
	l.Role = role
	l.Location = location
	l.Source = req.Source
	l.Experience = req.Experience
	l.CurrentSalary = req.CurrentSalary
	l.ExpectedSalary = req.ExpectedSalary
	l.CallStatus = req.CallStatus
	l.CallBackAt = req.CallBackAt
	if req.CallStatus != lineup.CallBack {
		l.CallBackAt = nil
	}
	l.Remarks = req.Remarks
	l.JobID = req.JobID
	l.LineupDate = day
	return nil
}

// ensureNotDuplicate rejects a phone lined up on a day inside the configured window
func (s *LineupService) ensureNotDuplicate(ctx context.Context, phone, exceptID string) error {
	if s.cfg.DuplicateLineupWindow <= 0 {
		return nil
	}
	since := kernel.DayKey(s.now().Add(-s.cfg.DuplicateLineupWindow))
	existing, err := s.lineups.First(ctx, func(l *lineup.Lineup) bool {
		return l.Phone == phone && l.ID != exceptID && l.LineupDate >= since
	})
	if err != nil {
		return err
	}
	if existing != nil {
		return lineup.ErrDuplicatePhone(existing.ID, existing.LineupDate)
	}
	return nil
}

// visibility decides which lineups the caller may see from its scopes
func (s *LineupService) visibility(ctx context.Context, ac *kernel.AuthContext) (func(*lineup.Lineup) bool, error) {
	switch {
	case ac.HasScope(scopes.ScopeLineupsRead):
		return func(*lineup.Lineup) bool { return true }, nil
	case ac.HasScope(scopes.ScopeLineupsReadTeam):
		ids, err := s.team.TeamMemberIDs(ctx, kernel.UserID(ac.Actor()))
		if err != nil {
			return nil, err
		}
		team := make(map[string]bool, len(ids))
		for _, id := range ids {
			team[id] = true
		}
		return func(l *lineup.Lineup) bool { return team[l.RecruiterID] }, nil
	case ac.HasScope(scopes.ScopeLineupsReadOwn):
		me := ac.Actor()
		return func(l *lineup.Lineup) bool { return l.RecruiterID == me }, nil
	}
	return nil, iam.ErrForbidden().WithDetail("required_scope", scopes.ScopeLineupsReadOwn)
}
