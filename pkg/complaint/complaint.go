// Package complaint holds workplace complaints and their SLA escalation.
package complaint

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
)

const Collection = "complaints"

type Category string

const (
	CategoryPayroll    Category = "PAYROLL"
	CategoryAttendance Category = "ATTENDANCE"
	CategoryWorkplace  Category = "WORKPLACE"
	CategoryHarassment Category = "HARASSMENT"
	CategoryOther      Category = "OTHER"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryPayroll, CategoryAttendance, CategoryWorkplace, CategoryHarassment, CategoryOther:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// SLA is the time allowed to resolve a complaint of priority p
func SLA(p Priority, cfg config.SLAConfig) time.Duration {
	hours := cfg.MediumHours
	switch p {
	case PriorityLow:
		hours = cfg.LowHours
	case PriorityHigh:
		hours = cfg.HighHours
	case PriorityCritical:
		hours = cfg.CriticalHours
	}
	return time.Duration(hours) * time.Hour
}

type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusEscalated  Status = "ESCALATED"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

var transitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusResolved},
	StatusInProgress: {StatusResolved},
	StatusEscalated:  {StatusInProgress, StatusResolved},
	StatusResolved:   {StatusClosed, StatusInProgress},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusEscalated, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// IsSettled is true once the complaint no longer runs against its SLA
func (s Status) IsSettled() bool {
	return s == StatusResolved || s == StatusClosed
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Comment struct {
	Author string    `json:"author"`
	Body   string    `json:"body"`
	At     time.Time `json:"at"`
	// System marks comments written by the escalation worker and status changes
	System bool `json:"system,omitempty"`
}

type Complaint struct {
	docstore.Meta
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	RaisedBy    string   `json:"raised_by"`
	EmployeeID  string   `json:"employee_id,omitempty"`
	StoreID     string   `json:"store_id,omitempty"`
	AssignedTo  string   `json:"assigned_to,omitempty"`

	Status          Status     `json:"status"`
	DueAt           time.Time  `json:"due_at"`
	EscalationLevel int        `json:"escalation_level"`
	EscalatedAt     *time.Time `json:"escalated_at,omitempty"`
	Resolution      string     `json:"resolution,omitempty"`
	ResolvedBy      string     `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	Comments        []Comment  `json:"comments"`
}

// Open starts the SLA clock at now
func (c *Complaint) Open(now time.Time, cfg config.SLAConfig) {
	c.Status = StatusOpen
	c.DueAt = now.Add(SLA(c.Priority, cfg))
	if c.Comments == nil {
		c.Comments = make([]Comment, 0)
	}
}

// IsBreached reports an unsettled complaint past its due time
func (c *Complaint) IsBreached(now time.Time) bool {
	return !c.Status.IsSettled() && now.After(c.DueAt)
}

// Transition applies a status change. Resolving needs a resolution and
// reopening restarts the SLA clock.
func (c *Complaint) Transition(next Status, by, resolution string, now time.Time, cfg config.SLAConfig) error {
	if !next.IsValid() {
		return ErrInvalidStatus(string(next))
	}
	if !c.Status.CanTransitionTo(next) {
		return ErrInvalidTransition(c.Status, next)
	}

	switch next {
	case StatusResolved:
		resolution = strings.TrimSpace(resolution)
		if resolution == "" {
			return ErrResolutionRequired()
		}
		c.Resolution = resolution
		c.ResolvedBy = by
		c.ResolvedAt = &now
	case StatusClosed:
		c.ClosedAt = &now
	case StatusInProgress:
		if c.Status == StatusResolved {
			c.DueAt = now.Add(SLA(c.Priority, cfg))
			c.Resolution = ""
			c.ResolvedBy = ""
			c.ResolvedAt = nil
		}
	}

	c.AddComment(by, string(c.Status)+" -> "+string(next), now, true)
	c.Status = next
	return nil
}

// Escalate raises a breached complaint one level and gives it another SLA period.
// It returns false, changing nothing, when the complaint is not breached or is
// already at the configured maximum level.
func (c *Complaint) Escalate(now time.Time, cfg config.SLAConfig) bool {
	if !c.IsBreached(now) || c.EscalationLevel >= cfg.MaxEscalationLevel {
		return false
	}
	c.EscalationLevel++
	c.Status = StatusEscalated
	c.EscalatedAt = &now
	c.DueAt = now.Add(SLA(c.Priority, cfg))
	c.AddComment("system", "SLA breached, escalated to level "+strconv.Itoa(c.EscalationLevel), now, true)
	return true
}

func (c *Complaint) AddComment(author, body string, at time.Time, system bool) {
	c.Comments = append(c.Comments, Comment{Author: author, Body: body, At: at, System: system})
}

func (c *Complaint) Matches(f Filter, now time.Time) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Priority != "" && c.Priority != f.Priority {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.StoreID != "" && c.StoreID != f.StoreID {
		return false
	}
	if f.AssignedTo != "" && c.AssignedTo != f.AssignedTo {
		return false
	}
	if f.Overdue && !c.IsBreached(now) {
		return false
	}
	return true
}

// ============================================================================
// Requests
// ============================================================================

type CreateRequest struct {
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	EmployeeID  string   `json:"employee_id"`
	StoreID     string   `json:"store_id"`
}

type TransitionRequest struct {
	Status     Status `json:"status"`
	Resolution string `json:"resolution"`
}

type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

type CommentRequest struct {
	Body string `json:"body"`
}

type Filter struct {
	Status     Status   `query:"status"`
	Priority   Priority `query:"priority"`
	Category   Category `query:"category"`
	StoreID    string   `query:"store_id"`
	AssignedTo string   `query:"assigned_to"`
	Overdue    bool     `query:"overdue"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("COMPLAINT")

var (
	CodeComplaintNotFound  = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Complaint not found")
	CodeInvalidComplaint   = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Complaint is not valid")
	CodeInvalidStatus      = ErrRegistry.Register("INVALID_STATUS", errx.TypeValidation, http.StatusBadRequest, "Unknown complaint status")
	CodeInvalidTransition  = ErrRegistry.Register("INVALID_TRANSITION", errx.TypeBusiness, http.StatusUnprocessableEntity, "Complaint status change is not allowed")
	CodeResolutionRequired = ErrRegistry.Register("RESOLUTION_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "A resolution is required to resolve a complaint")
	CodeStoreForbidden     = ErrRegistry.Register("STORE_FORBIDDEN", errx.TypeAuthorization, http.StatusForbidden, "Complaints can only be raised for your own store")
)

func ErrComplaintNotFound(id string) *errx.Error {
	return ErrRegistry.New(CodeComplaintNotFound).WithDetail("complaint_id", id)
}

func ErrInvalidComplaint(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidComplaint).WithDetail("reason", reason)
}

func ErrInvalidStatus(status string) *errx.Error {
	return ErrRegistry.New(CodeInvalidStatus).WithDetail("status", status)
}

func ErrInvalidTransition(from, to Status) *errx.Error {
	return ErrRegistry.New(CodeInvalidTransition).WithDetail("from", from).WithDetail("to", to)
}

func ErrResolutionRequired() *errx.Error {
	return ErrRegistry.New(CodeResolutionRequired)
}

func ErrStoreForbidden(storeID string) *errx.Error {
	return ErrRegistry.New(CodeStoreForbidden).WithDetail("store_id", storeID)
}
