package assignmentrepo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ledgerOrder sorts rows in push order, batch by batch.
const ledgerOrder = "pushed_at ASC, (metadata->>'batch')::int ASC, id ASC"

// GormAssignmentRepository implements ports.AssignmentRepository using GORM.
// Rows are only ever inserted or moved out of PUSHED; nothing is deleted.
type GormAssignmentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormAssignmentRepository(db *gorm.DB, tracker aggregateTracker) *GormAssignmentRepository {
	return &GormAssignmentRepository{
		db:      db,
		tracker: tracker,
	}
}

// AddBatch inserts all rows with one multi-row INSERT.
func (r *GormAssignmentRepository) AddBatch(ctx context.Context, rows []*assignment.Assignment) error {
	if len(rows) == 0 {
		return nil
	}

	dtos := make([]AssignmentDTO, 0, len(rows))
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return err
		}
		dtos = append(dtos, fromDomain(row))
	}

	if err := r.db.WithContext(ctx).Create(&dtos).Error; err != nil {
		return err
	}

	for _, row := range rows {
		r.tracker.TrackAggregate(row.ID(), row)
	}
	return nil
}

// Update closes a row. The write only applies while the stored row is still PUSHED.
func (r *GormAssignmentRepository) Update(ctx context.Context, row *assignment.Assignment) error {
	if err := row.Validate(); err != nil {
		return err
	}

	dto := fromDomain(row)
	result := r.db.WithContext(ctx).
		Model(&AssignmentDTO{}).
		Where("id = ? AND status = ?", dto.ID, assignment.Pushed.String()).
		Select("status", "responded_at", "metadata").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var stored AssignmentDTO
		err := r.db.WithContext(ctx).Select("status").First(&stored, "id = ?", dto.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewObjectNotFoundError("assignment", row.ID().String())
		}
		if err != nil {
			return err
		}
		return errs.NewInvalidStateError("assignment", stored.Status, "offer already answered")
	}

	r.tracker.TrackAggregate(row.ID(), row)
	return nil
}

func (r *GormAssignmentRepository) GetPushed(
	ctx context.Context,
	orderID, vendorID kernel.UUID,
) (*assignment.Assignment, error) {
	var dto AssignmentDTO
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND vendor_id = ? AND status = ?", orderID.Raw(), vendorID.Raw(), assignment.Pushed.String()).
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("offer", vendorID.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormAssignmentRepository) FindPushedByOrder(
	ctx context.Context,
	orderID kernel.UUID,
) ([]*assignment.Assignment, error) {
	return r.find(r.db.WithContext(ctx).Where(
		"order_id = ? AND status = ?", orderID.Raw(), assignment.Pushed.String(),
	))
}

func (r *GormAssignmentRepository) FindByOrder(ctx context.Context, orderID kernel.UUID) ([]*assignment.Assignment, error) {
	return r.find(r.db.WithContext(ctx).Where("order_id = ?", orderID.Raw()))
}

// FindOrdersWithExpiredOffers returns orders that own at least one PUSHED row past its deadline.
func (r *GormAssignmentRepository) FindOrdersWithExpiredOffers(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]kernel.UUID, error) {
	var raw []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&AssignmentDTO{}).
		Distinct().
		Where("status = ? AND expires_at < ?", assignment.Pushed.String(), now.UTC()).
		Limit(limit).
		Pluck("order_id", &raw).Error
	if err != nil {
		return nil, err
	}

	ids := make([]kernel.UUID, 0, len(raw))
	for _, id := range raw {
		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		ids = append(ids, orderID)
	}
	return ids, nil
}

func (r *GormAssignmentRepository) find(query *gorm.DB) ([]*assignment.Assignment, error) {
	var dtos []AssignmentDTO
	if err := query.Order(ledgerOrder).Find(&dtos).Error; err != nil {
		return nil, err
	}

	rows := make([]*assignment.Assignment, 0, len(dtos))
	for _, dto := range dtos {
		row, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
