package complaint

import (
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func TestSLA(t *testing.T) {
	cfg := config.DefaultSLAConfig()
	assert.Equal(t, 72*time.Hour, SLA(PriorityLow, cfg))
	assert.Equal(t, 48*time.Hour, SLA(PriorityMedium, cfg))
	assert.Equal(t, 24*time.Hour, SLA(PriorityHigh, cfg))
	assert.Equal(t, 4*time.Hour, SLA(PriorityCritical, cfg))
}

func TestComplaintTransitions(t *testing.T) {
	cfg := config.DefaultSLAConfig()
	c := &Complaint{Priority: PriorityHigh}
	c.Open(t0, cfg)
	assert.Equal(t, t0.Add(24*time.Hour), c.DueAt)

	assert.True(t, errx.IsCode(c.Transition(StatusClosed, "hr", "", t0, cfg), CodeInvalidTransition))
	assert.True(t, errx.IsCode(c.Transition("DONE", "hr", "", t0, cfg), CodeInvalidStatus))

	require.NoError(t, c.Transition(StatusInProgress, "hr", "", t0, cfg))
	assert.True(t, errx.IsCode(c.Transition(StatusResolved, "hr", "  ", t0, cfg), CodeResolutionRequired))

	resolvedAt := t0.Add(2 * time.Hour)
	require.NoError(t, c.Transition(StatusResolved, "hr", "Salary corrected", resolvedAt, cfg))
	assert.Equal(t, "Salary corrected", c.Resolution)
	assert.False(t, c.IsBreached(t0.Add(100*time.Hour)))

	reopenedAt := t0.Add(30 * time.Hour)
	require.NoError(t, c.Transition(StatusInProgress, "hr", "", reopenedAt, cfg))
	assert.Equal(t, reopenedAt.Add(24*time.Hour), c.DueAt)
	assert.Empty(t, c.Resolution)
	assert.Nil(t, c.ResolvedAt)

	require.NoError(t, c.Transition(StatusResolved, "hr", "Paid in next cycle", reopenedAt, cfg))
	require.NoError(t, c.Transition(StatusClosed, "hr", "", reopenedAt, cfg))
	require.NotNil(t, c.ClosedAt)
	assert.Len(t, c.Comments, 5)
	assert.Equal(t, "RESOLVED -> CLOSED", c.Comments[4].Body)
}

func TestEscalate(t *testing.T) {
	cfg := config.DefaultSLAConfig()
	c := &Complaint{Priority: PriorityCritical}
	c.Open(t0, cfg)

	assert.False(t, c.Escalate(t0.Add(3*time.Hour), cfg))
	assert.Equal(t, StatusOpen, c.Status)

	at := t0.Add(5 * time.Hour)
	for level := 1; level <= cfg.MaxEscalationLevel; level++ {
		require.True(t, c.Escalate(at, cfg))
		assert.Equal(t, StatusEscalated, c.Status)
		assert.Equal(t, level, c.EscalationLevel)
		assert.Equal(t, at.Add(4*time.Hour), c.DueAt)
		at = at.Add(5 * time.Hour)
	}
	assert.False(t, c.Escalate(at, cfg))
	assert.Equal(t, cfg.MaxEscalationLevel, c.EscalationLevel)
	assert.True(t, c.IsBreached(at))
	assert.Equal(t, "SLA breached, escalated to level 3", c.Comments[len(c.Comments)-1].Body)

	require.NoError(t, c.Transition(StatusResolved, "hr", "Handled", at, cfg))
	assert.False(t, c.IsBreached(at.Add(time.Hour)))
}
