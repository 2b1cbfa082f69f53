package complaintsrv

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/complaint"
	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
)

type ComplaintService struct {
	complaints docstore.Repository[complaint.Complaint]
	employees  docstore.Repository[employee.Employee]
	sla        config.SLAConfig
	now        func() time.Time
}

func NewComplaintService(
	complaints docstore.Repository[complaint.Complaint],
	employees docstore.Repository[employee.Employee],
	sla config.SLAConfig,
) *ComplaintService {
	return &ComplaintService{
		complaints: complaints,
		employees:  employees,
		sla:        sla,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *ComplaintService) WithClock(now func() time.Time) *ComplaintService {
	s.now = now
	return s
}

// Create raises a complaint. Supervisors can only raise complaints for their own store.
func (s *ComplaintService) Create(ctx context.Context, ac *kernel.AuthContext, req complaint.CreateRequest) (*complaint.Complaint, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, complaint.ErrInvalidComplaint("subject is required")
	}
	c := &complaint.Complaint{
		Subject:     subject,
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Priority:    req.Priority,
		RaisedBy:    ac.Actor(),
		StoreID:     req.StoreID,
	}
	if c.Category == "" {
		c.Category = complaint.CategoryOther
	}
	if !c.Category.IsValid() {
		return nil, complaint.ErrInvalidComplaint("unknown category").WithDetail("category", c.Category)
	}
	if c.Priority == "" {
		c.Priority = complaint.PriorityMedium
	}
	if !c.Priority.IsValid() {
		return nil, complaint.ErrInvalidComplaint("unknown priority").WithDetail("priority", c.Priority)
	}

	if req.EmployeeID != "" {
		e, err := s.employees.Get(ctx, req.EmployeeID)
		if err != nil {
			if docstore.IsNotFound(err) {
				return nil, employee.ErrEmployeeNotFound(req.EmployeeID)
			}
			return nil, err
		}
		c.EmployeeID = e.ID
		if c.StoreID == "" {
			c.StoreID = e.StoreID
		}
		if c.StoreID != e.StoreID {
			return nil, complaint.ErrInvalidComplaint("employee works in another store")
		}
	}
	if pinned, ok := storePin(ac); ok {
		if c.StoreID == "" {
			c.StoreID = pinned
		}
		if c.StoreID != pinned {
			return nil, complaint.ErrStoreForbidden(c.StoreID)
		}
	}

	c.Open(s.now(), s.sla)
	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"complaint_id": c.ID,
		"priority":     c.Priority,
		"store_id":     c.StoreID,
		"due_at":       c.DueAt,
	}).Info("complaint raised")
	return c, nil
}

func (s *ComplaintService) Get(ctx context.Context, ac *kernel.AuthContext, id string) (*complaint.Complaint, error) {
	c, err := s.complaint(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(ac, c) {
		return nil, complaint.ErrComplaintNotFound(id)
	}
	return c, nil
}

func (s *ComplaintService) List(ctx context.Context, ac *kernel.AuthContext, f complaint.Filter) ([]*complaint.Complaint, error) {
	now := s.now()
	list, err := s.complaints.Filter(ctx, func(c *complaint.Complaint) bool {
		return canSee(ac, c) && c.Matches(f, now)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].DueAt.Before(list[j].DueAt) })
	return list, nil
}

func (s *ComplaintService) Assign(ctx context.Context, ac *kernel.AuthContext, id string, req complaint.AssignRequest) (*complaint.Complaint, error) {
	assignee := strings.TrimSpace(req.AssigneeID)
	if assignee == "" {
		return nil, complaint.ErrInvalidComplaint("assignee_id is required")
	}
	c, err := s.complaint(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == complaint.StatusClosed {
		return nil, complaint.ErrInvalidTransition(c.Status, c.Status)
	}
	c.AssignedTo = assignee
	c.AddComment(ac.Actor(), "assigned to "+assignee, s.now(), true)
	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ComplaintService) Transition(ctx context.Context, ac *kernel.AuthContext, id string, req complaint.TransitionRequest) (*complaint.Complaint, error) {
	c, err := s.complaint(ctx, id)
	if err != nil {
		return nil, err
	}
	from := c.Status
	if err := c.Transition(req.Status, ac.Actor(), req.Resolution, s.now(), s.sla); err != nil {
		return nil, err
	}
	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{"complaint_id": c.ID, "from": from, "to": c.Status, "by": ac.Actor()}).Info("complaint status changed")
	return c, nil
}

// Comment appends a note. Anyone who can see the complaint can comment on it.
func (s *ComplaintService) Comment(ctx context.Context, ac *kernel.AuthContext, id string, req complaint.CommentRequest) (*complaint.Complaint, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, complaint.ErrInvalidComplaint("comment body is required")
	}
	c, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	c.AddComment(ac.Actor(), body, s.now(), false)
	if err := s.complaints.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// EscalateOverdue escalates every breached complaint and returns how many moved.
// A complaint changed concurrently is skipped until the next run.
func (s *ComplaintService) EscalateOverdue(ctx context.Context) (int, error) {
	now := s.now()
	breached, err := s.complaints.Filter(ctx, func(c *complaint.Complaint) bool { return c.IsBreached(now) })
	if err != nil {
		return 0, err
	}

	escalated := 0
	for _, c := range breached {
		if !c.Escalate(now, s.sla) {
			continue
		}
		if err := s.complaints.Update(ctx, c); err != nil {
			if errx.IsCode(err, docstore.CodeVersionConflict) {
				continue
			}
			return escalated, err
		}
		escalated++
		logx.WithFields(logx.Fields{
			"complaint_id": c.ID,
			"level":        c.EscalationLevel,
			"due_at":       c.DueAt,
		}).Warn("complaint escalated")
	}
	return escalated, nil
}

func (s *ComplaintService) complaint(ctx context.Context, id string) (*complaint.Complaint, error) {
	c, err := s.complaints.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, complaint.ErrComplaintNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

// storePin is the store a caller without complaint management is limited to
func storePin(ac *kernel.AuthContext) (string, bool) {
	if ac.HasScope(scopes.ScopeComplaintsWrite) || ac.Links.StoreID == "" {
		return "", false
	}
	return ac.Links.StoreID, true
}

// canSee: managers see everything, supervisors their store, everyone else what they raised
func canSee(ac *kernel.AuthContext, c *complaint.Complaint) bool {
	if ac.HasScope(scopes.ScopeComplaintsWrite) {
		return true
	}
	if store, ok := storePin(ac); ok {
		return c.StoreID == store
	}
	return c.RaisedBy == ac.Actor()
}
