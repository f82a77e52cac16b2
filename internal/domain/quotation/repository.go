package quotation

import (
	"context"

	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines persistence operations for quotations
type Repository interface {
	// FindByID finds a quotation with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Quotation, error)

	// FindByProject finds quotations for a project with filtering
	FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]Quotation, error)

	// FindLatestApprovedForProject returns the highest-revision quotation
	// for the project whose status authorizes movement creation
	FindLatestApprovedForProject(ctx context.Context, projectID uuid.UUID) (*Quotation, error)

	// ExistsByID reports whether a quotation exists
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// Save creates or updates a quotation and its lines
	Save(ctx context.Context, q *Quotation) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, q *Quotation) error

	// CountByProject counts quotations for a project
	CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
}
