package jobsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Abraxas-365/hireline/pkg/ai/llm"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/job"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/Abraxas-365/hireline/pkg/panel"
)

// PanelLookup resolves dropdown values against the panel config
type PanelLookup interface {
	CanonicalRole(ctx context.Context, name string) (string, error)
	CanonicalLocation(ctx context.Context, name string) (string, error)
	GetStore(ctx context.Context, id string) (*panel.Store, error)
}

type JobService struct {
	jobs  docstore.Repository[job.Job]
	panel PanelLookup
	llm   llm.LLM
}

// NewJobService creates the service. model may be nil, then Draft reports the AI as unavailable.
func NewJobService(jobs docstore.Repository[job.Job], panel PanelLookup, model llm.LLM) *JobService {
	return &JobService{
		jobs:  jobs,
		panel: panel,
		llm:   model,
	}
}

func (s *JobService) Create(ctx context.Context, ac *kernel.AuthContext, req job.JobRequest) (*job.Job, error) {
	j := &job.Job{Status: job.StatusDraft, CreatedBy: ac.Actor()}
	if err := s.apply(ctx, j, req); err != nil {
		return nil, err
	}
	if err := s.jobs.Create(ctx, j); err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{"job_id": j.ID, "role": j.Role, "location": j.Location}).Info("job created")
	return j, nil
}

func (s *JobService) Get(ctx context.Context, id string) (*job.Job, error) {
	j, err := s.jobs.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, job.ErrJobNotFound(id)
		}
		return nil, err
	}
	return j, nil
}

// List returns jobs matching f. Partner users only see their own postings.
func (s *JobService) List(ctx context.Context, ac *kernel.AuthContext, f job.Filter) ([]*job.Job, error) {
	if ac.IsRole(kernel.RolePartner) {
		f.PartnerID = ac.Links.PartnerID
	}
	return s.jobs.Filter(ctx, func(j *job.Job) bool { return j.Matches(f) })
}

func (s *JobService) Update(ctx context.Context, id string, req job.JobRequest) (*job.Job, error) {
	j, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !j.IsEditable() {
		return nil, job.ErrJobClosed()
	}
	if err := s.apply(ctx, j, req); err != nil {
		return nil, err
	}
	if err := s.jobs.Update(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *JobService) Transition(ctx context.Context, id string, next job.Status) (*job.Job, error) {
	j, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := j.Status
	if err := j.Transition(next); err != nil {
		return nil, err
	}
	if err := s.jobs.Update(ctx, j); err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{"job_id": id, "from": from, "to": next}).Info("job status changed")
	return j, nil
}

// Delete only removes drafts; published jobs are closed instead
func (s *JobService) Delete(ctx context.Context, id string) error {
	j, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if j.Status != job.StatusDraft {
		return job.ErrInvalidTransition(j.Status, "DELETED")
	}
	return s.jobs.Delete(ctx, id)
}

// ============================================================================
// Draft
// ============================================================================

const draftSystemPrompt = `You write job postings for a staffing agency hiring frontline staff in India.
Reply with a JSON object {"description": string, "skills": [string]}.
The description has a short summary, a responsibilities list and a requirements list, in plain text.
Keep it under 200 words. Do not invent salary figures.`

// Draft writes a job description with the configured language model
func (s *JobService) Draft(ctx context.Context, ac *kernel.AuthContext, req job.DraftRequest) (*job.DraftResponse, error) {
	if s.llm == nil {
		return nil, job.ErrAIUnavailable()
	}
	if strings.TrimSpace(req.Role) == "" {
		return nil, job.ErrInvalidJob("role is required")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Role: %s\n", req.Role)
	if req.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", req.Title)
	}
	if req.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", req.Location)
	}
	if len(req.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(req.Skills, ", "))
	}
	if req.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", req.Notes)
	}

	resp, err := s.llm.Chat(ctx, []llm.Message{
		llm.NewSystemMessage(draftSystemPrompt),
		llm.NewUserMessage(b.String()),
	}, llm.WithJSONMode(), llm.WithTemperature(0.4), llm.WithUser(ac.Actor()))
	if err != nil {
		return nil, job.ErrDraftFailed(err)
	}

	var out job.DraftResponse
	if err := json.Unmarshal([]byte(resp.Text()), &out); err != nil || out.Description == "" {
		// some models ignore JSON mode, keep the raw text
		out = job.DraftResponse{Description: resp.Text(), Skills: req.Skills}
	}
	if len(out.Skills) == 0 {
		out.Skills = req.Skills
	}

	logx.WithFields(logx.Fields{"role": req.Role, "tokens": resp.Usage.TotalTokens}).Debug("job description drafted")
	return &out, nil
}

// ============================================================================
// helpers
// ============================================================================

func (s *JobService) apply(ctx context.Context, j *job.Job, req job.JobRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return job.ErrInvalidJob("title is required")
	}
	if req.Openings <= 0 {
		return job.ErrInvalidJob("openings must be greater than zero")
	}
	if req.SalaryMin < 0 || (req.SalaryMax > 0 && req.SalaryMin > req.SalaryMax) {
		return job.ErrInvalidJob("salary_min must not exceed salary_max")
	}
	if req.ExperienceMin < 0 || (req.ExperienceMax > 0 && req.ExperienceMin > req.ExperienceMax) {
		return job.ErrInvalidJob("experience_min must not exceed experience_max")
	}

	role, err := s.panel.CanonicalRole(ctx, req.Role)
	if err != nil {
		return err
	}
	location, err := s.panel.CanonicalLocation(ctx, req.Location)
	if err != nil {
		return err
	}
	if req.StoreID != "" {
		if _, err := s.panel.GetStore(ctx, req.StoreID); err != nil {
			return err
		}
	}

	j.Title = strings.TrimSpace(req.Title)
	j.Role = role
	j.Location = location
	j.StoreID = req.StoreID
	j.PartnerID = req.PartnerID
	j.RequirementID = req.RequirementID
	j.Openings = req.Openings
	j.SalaryMin = req.SalaryMin
	j.SalaryMax = req.SalaryMax
	j.ExperienceMin = req.ExperienceMin
	j.ExperienceMax = req.ExperienceMax
	j.Description = req.Description
	j.Skills = normalizeSkills(req.Skills)
	return nil
}

func normalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
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
