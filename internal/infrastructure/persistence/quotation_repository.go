package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/docflow/backend/internal/domain/quotation"
	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormQuotationRepository implements quotation.Repository using GORM
type GormQuotationRepository struct {
	db *gorm.DB
}

// NewGormQuotationRepository creates a new GormQuotationRepository
func NewGormQuotationRepository(db *gorm.DB) *GormQuotationRepository {
	return &GormQuotationRepository{db: db}
}

// FindByID finds a quotation with its lines
func (r *GormQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*quotation.Quotation, error) {
	var q quotation.Quotation
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// FindByProject finds quotations for a project with filtering
func (r *GormQuotationRepository) FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]quotation.Quotation, error) {
	var quotations []quotation.Quotation
	query := applyFilter(
		r.db.WithContext(ctx).Model(&quotation.Quotation{}).
			Preload("Lines").
			Where("project_id = ?", projectID),
		filter,
	)

	if err := query.Find(&quotations).Error; err != nil {
		return nil, err
	}
	return quotations, nil
}

// FindLatestApprovedForProject returns the highest-revision quotation for
// the project whose status authorizes movement creation
func (r *GormQuotationRepository) FindLatestApprovedForProject(ctx context.Context, projectID uuid.UUID) (*quotation.Quotation, error) {
	var q quotation.Quotation
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("project_id = ? AND status IN ?", projectID, []quotation.Status{
			quotation.StatusApproved, quotation.StatusSent, quotation.StatusAccepted,
		}).
		Order("revision DESC").
		First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// ExistsByID reports whether a quotation exists
func (r *GormQuotationRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&quotation.Quotation{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a quotation and its lines
func (r *GormQuotationRepository) Save(ctx context.Context, q *quotation.Quotation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(q).Error; err != nil {
			return err
		}

		// Replace removed lines and persist the current set
		currentLineIDs := make([]uuid.UUID, len(q.Lines))
		for i, line := range q.Lines {
			currentLineIDs[i] = line.ID
		}

		lineQuery := tx.Where("quotation_id = ?", q.ID)
		if len(currentLineIDs) > 0 {
			lineQuery = lineQuery.Where("id NOT IN ?", currentLineIDs)
		}
		if err := lineQuery.Delete(&quotation.Line{}).Error; err != nil {
			return err
		}

		for i := range q.Lines {
			q.Lines[i].QuotationID = q.ID
			if err := tx.Save(&q.Lines[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormQuotationRepository) SaveWithLock(ctx context.Context, q *quotation.Quotation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&quotation.Quotation{}).
			Where("id = ?", q.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			return err
		}
		if currentVersion == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != q.Version {
			return shared.ErrConcurrencyConflict
		}

		q.Version++
		q.UpdatedAt = time.Now()

		result := tx.Model(&quotation.Quotation{}).
			Where("id = ? AND version = ?", q.ID, currentVersion).
			Updates(map[string]interface{}{
				"status":       q.Status,
				"total_amount": q.TotalAmount,
				"submitted_at": q.SubmittedAt,
				"decided_at":   q.DecidedAt,
				"sent_at":      q.SentAt,
				"accepted_at":  q.AcceptedAt,
				"version":      q.Version,
				"updated_at":   q.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range q.Lines {
			q.Lines[i].QuotationID = q.ID
			if err := tx.Save(&q.Lines[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// CountByProject counts quotations for a project
func (r *GormQuotationRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&quotation.Quotation{}).
		Where("project_id = ?", projectID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormQuotationRepository implements quotation.Repository
var _ quotation.Repository = (*GormQuotationRepository)(nil)
