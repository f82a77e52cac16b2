package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/docflow/backend/internal/domain/document"
	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDeliveryRepository implements document.DeliveryRepository using GORM
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a new GormDeliveryRepository
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

// FindByID finds a delivery with its lines
func (r *GormDeliveryRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Delivery, error) {
	var d document.Delivery
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindByQuotation finds all deliveries recorded against a quotation. No
// pagination: the full set feeds the quantity guard.
func (r *GormDeliveryRepository) FindByQuotation(ctx context.Context, quotationID uuid.UUID) ([]document.Delivery, error) {
	var deliveries []document.Delivery
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("quotation_id = ?", quotationID).
		Order("created_at ASC").
		Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

// FindByProject finds deliveries for a project with filtering
func (r *GormDeliveryRepository) FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]document.Delivery, error) {
	var deliveries []document.Delivery
	query := applyFilter(
		r.db.WithContext(ctx).Model(&document.Delivery{}).
			Preload("Lines").
			Where("project_id = ?", projectID),
		filter,
	)

	if err := query.Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

// Save creates or updates a delivery and its lines
func (r *GormDeliveryRepository) Save(ctx context.Context, d *document.Delivery) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(d).Error; err != nil {
			return err
		}

		for i := range d.Lines {
			d.Lines[i].DeliveryID = d.ID
			if err := tx.Save(&d.Lines[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormDeliveryRepository) SaveWithLock(ctx context.Context, d *document.Delivery) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&document.Delivery{}).
			Where("id = ?", d.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			return err
		}
		if currentVersion == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != d.Version {
			return shared.ErrConcurrencyConflict
		}

		d.Version++
		d.UpdatedAt = time.Now()

		result := tx.Model(&document.Delivery{}).
			Where("id = ? AND version = ?", d.ID, currentVersion).
			Updates(map[string]interface{}{
				"quotation_id": d.QuotationID,
				"status":       d.Status,
				"returned_at":  d.ReturnedAt,
				"version":      d.Version,
				"updated_at":   d.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return nil
	})
}

// Ensure GormDeliveryRepository implements document.DeliveryRepository
var _ document.DeliveryRepository = (*GormDeliveryRepository)(nil)
