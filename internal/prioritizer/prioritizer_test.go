package prioritizer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafeops/shiftdeck/internal/domain"
	"github.com/cafeops/shiftdeck/internal/prioritizer"
)

var (
	shiftStart = time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	now        = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
)

func session() *domain.ShiftSession {
	return &domain.ShiftSession{
		ID:        "shift-1",
		SiteID:    "site-1",
		ShiftType: domain.ShiftOpening,
		StartedAt: shiftStart,
	}
}

func def(id string, opts ...func(*domain.TaskDefinition)) *domain.TaskDefinition {
	d := &domain.TaskDefinition{
		ID:       id,
		Title:    "task " + id,
		Priority: domain.PriorityP2,
		TaskType: domain.TaskTypeTick,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func pending(id, defID string, dueAt *time.Time) *domain.TaskInstance {
	return &domain.TaskInstance{
		ID:           id,
		ShiftID:      "shift-1",
		DefinitionID: defID,
		Status:       domain.TaskStatusPending,
		DueAt:        dueAt,
	}
}

func at(hour, minute int) *time.Time {
	t := time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
	return &t
}

func TestResolveNowAction_NilShiftYieldsStartPrompt(t *testing.T) {
	action := prioritizer.ResolveNowAction(nil, nil, nil, now)
	require.NotNil(t, action)
	assert.Equal(t, domain.ActionStartOpening, action.ActionType)
	assert.Equal(t, "Start your shift", action.Title)
	assert.Equal(t, domain.PriorityP1, action.Priority)
	assert.True(t, action.IsCritical)
	assert.Empty(t, action.TaskID)
}

func TestResolveNowAction_EmptyChecklistYieldsNil(t *testing.T) {
	action := prioritizer.ResolveNowAction(session(), nil, nil, now)
	assert.Nil(t, action)
}

func TestResolveNowAction_CriticalityDominatesPriority(t *testing.T) {
	defs := []*domain.TaskDefinition{
		def("p1", func(d *domain.TaskDefinition) { d.Priority = domain.PriorityP1 }),
		def("crit", func(d *domain.TaskDefinition) {
			d.Priority = domain.PriorityP3
			d.IsCritical = true
		}),
	}
	instances := []*domain.TaskInstance{
		pending("i-p1", "p1", at(7, 0)),
		pending("i-crit", "crit", at(12, 0)),
	}

	action := prioritizer.ResolveNowAction(session(), defs, instances, now)
	require.NotNil(t, action)
	assert.Equal(t, "i-crit", action.TaskID)
	assert.True(t, action.IsCritical)
}

func TestResolveNowAction_EarlierDueWinsWithinTier(t *testing.T) {
	defs := []*domain.TaskDefinition{def("a"), def("b")}
	instances := []*domain.TaskInstance{
		pending("i-a", "a", at(10, 0)),
		pending("i-b", "b", at(8, 0)),
	}

	action := prioritizer.ResolveNowAction(session(), defs, instances, now)
	require.NotNil(t, action)
	assert.Equal(t, "i-b", action.TaskID)
}

func TestResolveNowAction_DueBeatsNoDue(t *testing.T) {
	defs := []*domain.TaskDefinition{def("nodue"), def("due")}
	instances := []*domain.TaskInstance{
		pending("i-nodue", "nodue", nil),
		pending("i-due", "due", at(15, 0)),
	}

	action := prioritizer.ResolveNowAction(session(), defs, instances, now)
	require.NotNil(t, action)
	assert.Equal(t, "i-due", action.TaskID)
}

func TestResolveNowAction_SortOrderBreaksTies(t *testing.T) {
	defs := []*domain.TaskDefinition{
		def("first", func(d *domain.TaskDefinition) { d.SortOrder = 1 }),
		def("second", func(d *domain.TaskDefinition) { d.SortOrder = 2 }),
	}
	instances := []*domain.TaskInstance{
		pending("i-second", "second", nil),
		pending("i-first", "first", nil),
	}

	action := prioritizer.ResolveNowAction(session(), defs, instances, now)
	require.NotNil(t, action)
	assert.Equal(t, "i-first", action.TaskID)
}

func TestResolveNowAction_Idempotent(t *testing.T) {
	defs := []*domain.TaskDefinition{
		def("a", func(d *domain.TaskDefinition) { d.IsCritical = true }),
		def("b"),
		def("c", func(d *domain.TaskDefinition) { d.Priority = domain.PriorityP1 }),
	}
	instances := []*domain.TaskInstance{
		pending("i-a", "a", at(9, 30)),
		pending("i-b", "b", nil),
		pending("i-c", "c", at(8, 0)),
	}

	first := prioritizer.ResolveNowAction(session(), defs, instances, now)
	for range 10 {
		again := prioritizer.ResolveNowAction(session(), defs, instances, now)
		assert.Equal(t, first, again)
	}
}

func TestResolveNowAction_CompletedTaskMovesOn(t *testing.T) {
	defs := []*domain.TaskDefinition{def("a"), def("b")}
	instances := []*domain.TaskInstance{
		pending("i-a", "a", at(8, 0)),
		pending("i-b", "b", at(10, 0)),
	}

	action := prioritizer.ResolveNowAction(session(), defs, instances, now)
	require.NotNil(t, action)
	assert.Equal(t, "i-a", action.TaskID)

	// A concurrent completion of the selected task silently moves
	// resolution to the next candidate.
	instances[0].Status = domain.TaskStatusCompleted
	action = prioritizer.ResolveNowAction(session(), defs, instances, now)
	require.NotNil(t, action)
	assert.Equal(t, "i-b", action.TaskID)
}

func TestResolveNowAction_OverdueFlagAndMinutes(t *testing.T) {
	defs := []*domain.TaskDefinition{
		def("a", func(d *domain.TaskDefinition) { d.GracePeriodMinutes = 15 }),
	}
	instances := []*domain.TaskInstance{pending("i-a", "a", at(8, 30))}

	action := prioritizer.ResolveNowAction(session(), defs, instances, now)
	require.NotNil(t, action)
	assert.True(t, action.IsOverdue)
	assert.Equal(t, 15, action.OverdueMinutes)
}

func TestResolveNowAction_NeverGoesRedPropagated(t *testing.T) {
	defs := []*domain.TaskDefinition{
		def("rhythm", func(d *domain.TaskDefinition) { d.NeverGoesRed = true }),
	}
	instances := []*domain.TaskInstance{pending("i-r", "rhythm", at(7, 0))}

	action := prioritizer.ResolveNowAction(session(), defs, instances, now)
	require.NotNil(t, action)
	assert.True(t, action.NeverGoesRed)
	// The overdue state itself is still reported; suppression is the
	// presentation layer's job.
	assert.True(t, action.IsOverdue)
}

func TestResolveNowAction_GroupSurfacesWithSubTaskCount(t *testing.T) {
	groupID := "grp"
	defs := []*domain.TaskDefinition{
		def("grp", func(d *domain.TaskDefinition) { d.TaskType = domain.TaskTypeGroup }),
		def("sub1", func(d *domain.TaskDefinition) { d.GroupID = &groupID }),
		def("sub2", func(d *domain.TaskDefinition) { d.GroupID = &groupID }),
	}
	instances := []*domain.TaskInstance{
		pending("i-grp", "grp", nil),
		pending("i-sub1", "sub1", nil),
		pending("i-sub2", "sub2", nil),
	}

	action := prioritizer.ResolveNowAction(session(), defs, instances, now)
	require.NotNil(t, action)
	assert.Equal(t, domain.ActionGroup, action.ActionType)
	assert.Equal(t, "grp", action.GroupID)
	assert.Equal(t, 2, action.TaskCount)
}

func TestResolveNowAction_SubTasksNeverSurfaceDirectly(t *testing.T) {
	groupID := "grp"
	defs := []*domain.TaskDefinition{
		def("sub", func(d *domain.TaskDefinition) {
			d.GroupID = &groupID
			d.IsCritical = true
		}),
		def("plain"),
	}
	instances := []*domain.TaskInstance{
		pending("i-sub", "sub", at(7, 0)),
		pending("i-plain", "plain", nil),
	}

	action := prioritizer.ResolveNowAction(session(), defs, instances, now)
	require.NotNil(t, action)
	assert.Equal(t, "i-plain", action.TaskID)
}

func TestComingUp_ExcludesNowAndCaps(t *testing.T) {
	defs := []*domain.TaskDefinition{def("a"), def("b"), def("c"), def("d")}
	instances := []*domain.TaskInstance{
		pending("i-a", "a", at(8, 0)),
		pending("i-b", "b", at(9, 0)),
		pending("i-c", "c", at(10, 0)),
		pending("i-d", "d", at(11, 0)),
	}

	upcoming := prioritizer.ComingUp(session(), defs, instances, now, 2)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "i-b", upcoming[0].TaskID)
	assert.Equal(t, "i-c", upcoming[1].TaskID)
}

func TestComingUp_SingleTaskYieldsEmpty(t *testing.T) {
	defs := []*domain.TaskDefinition{def("a")}
	instances := []*domain.TaskInstance{pending("i-a", "a", nil)}

	upcoming := prioritizer.ComingUp(session(), defs, instances, now, 5)
	assert.Empty(t, upcoming)
}
