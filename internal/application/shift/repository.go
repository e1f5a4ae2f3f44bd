package shift

import (
	"context"
	"time"

	"github.com/cafeops/shiftdeck/internal/domain"
)

// Repository defines storage operations for shift management.
// All create/update operations return the entity as persisted.
type Repository interface {
	// === Shift Sessions ===

	// CreateShift opens a new shift session.
	// Returns domain.ErrShiftAlreadyOpen if the site already has an open
	// session (enforced by a partial unique index).
	CreateShift(ctx context.Context, session *domain.ShiftSession) (*domain.ShiftSession, error)

	// FindShiftByID retrieves a shift session by its ID.
	// Returns domain.ErrShiftNotFound if it doesn't exist.
	FindShiftByID(ctx context.Context, id string) (*domain.ShiftSession, error)

	// FindOpenShiftBySite retrieves the site's open session.
	// Returns domain.ErrShiftNotFound if the site has no open shift.
	FindOpenShiftBySite(ctx context.Context, siteID string) (*domain.ShiftSession, error)

	// FindOpenShifts lists every open session across all sites.
	// Used by the recurring expansion worker.
	FindOpenShifts(ctx context.Context) ([]*domain.ShiftSession, error)

	// CompleteShift marks a session complete.
	// Returns domain.ErrShiftNotFound if it doesn't exist and
	// domain.ErrShiftComplete if it is already closed.
	CompleteShift(ctx context.Context, shiftID, completedBy string, completedAt time.Time) (*domain.ShiftSession, error)

	// === Templates & Definitions ===

	// FindTemplateByID retrieves a checklist template.
	// Returns domain.ErrTemplateNotFound if it doesn't exist.
	FindTemplateByID(ctx context.Context, id string) (*domain.ChecklistTemplate, error)

	// FindDefinitionsByTemplate lists a template's task definitions in
	// sort order.
	FindDefinitionsByTemplate(ctx context.Context, templateID string) ([]*domain.TaskDefinition, error)

	// === Task Instances ===

	// CreateInstances bulk-inserts task instances.
	CreateInstances(ctx context.Context, instances []*domain.TaskInstance) error

	// FindInstanceByID retrieves a single task instance.
	// Returns domain.ErrTaskNotFound if it doesn't exist.
	FindInstanceByID(ctx context.Context, id string) (*domain.TaskInstance, error)

	// FindInstancesByShift lists every instance of a shift.
	FindInstancesByShift(ctx context.Context, shiftID string) ([]*domain.TaskInstance, error)

	// UpdateInstance persists a mutated instance. Last writer wins; there
	// is no version token on instances.
	// Returns domain.ErrTaskNotFound if it doesn't exist.
	UpdateInstance(ctx context.Context, inst *domain.TaskInstance) (*domain.TaskInstance, error)
}
