// Package assignmentrepo persists the append-only offer ledger with GORM.
package assignmentrepo

import (
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// AssignmentDTO is the row shape of the assignments table.
type AssignmentDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"type:uuid"`
	VendorID    uuid.UUID `gorm:"type:uuid"`
	Status      string
	PushedAt    time.Time
	RespondedAt *time.Time
	ExpiresAt   time.Time
	Metadata    MetadataDTO `gorm:"type:jsonb;serializer:json"`
}

func (AssignmentDTO) TableName() string {
	return "assignments"
}

// MetadataDTO is the jsonb document stored with each row.
type MetadataDTO struct {
	DistanceKm      float64 `json:"distanceKm"`
	Batch           int     `json:"batch"`
	RejectionReason string  `json:"rejectionReason,omitempty"`
	ForceAssigned   bool    `json:"forceAssigned,omitempty"`
	MaxRadiusKm     float64 `json:"maxRadiusKm,omitempty"`
	TimeoutSeconds  int     `json:"timeoutSeconds,omitempty"`
	BatchSize       int     `json:"batchSize,omitempty"`
}

func fromDomain(a *assignment.Assignment) AssignmentDTO {
	meta := a.Metadata()

	var respondedAt *time.Time
	if t := a.RespondedAt(); t != nil {
		u := t.UTC()
		respondedAt = &u
	}

	return AssignmentDTO{
		ID:          a.ID().Raw(),
		OrderID:     a.OrderID().Raw(),
		VendorID:    a.VendorID().Raw(),
		Status:      a.Status().String(),
		PushedAt:    a.PushedAt().UTC(),
		RespondedAt: respondedAt,
		ExpiresAt:   a.ExpiresAt().UTC(),
		Metadata: MetadataDTO{
			DistanceKm:      meta.DistanceKm,
			Batch:           meta.Batch,
			RejectionReason: meta.RejectionReason,
			ForceAssigned:   meta.ForceAssigned,
			MaxRadiusKm:     meta.MaxRadiusKm,
			TimeoutSeconds:  meta.TimeoutSeconds,
			BatchSize:       meta.BatchSize,
		},
	}
}

func toDomain(dto AssignmentDTO) (*assignment.Assignment, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	vendorID, err := kernel.UUIDFromBytes(dto.VendorID[:])
	if err != nil {
		return nil, err
	}

	status, err := assignment.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	var respondedAt *time.Time
	if dto.RespondedAt != nil {
		u := dto.RespondedAt.UTC()
		respondedAt = &u
	}

	return assignment.RestoreAssignment(
		id, orderID, vendorID, status,
		dto.PushedAt.UTC(), respondedAt, dto.ExpiresAt.UTC(),
		assignment.Metadata{
			DistanceKm:      dto.Metadata.DistanceKm,
			Batch:           dto.Metadata.Batch,
			RejectionReason: dto.Metadata.RejectionReason,
			ForceAssigned:   dto.Metadata.ForceAssigned,
			MaxRadiusKm:     dto.Metadata.MaxRadiusKm,
			TimeoutSeconds:  dto.Metadata.TimeoutSeconds,
			BatchSize:       dto.Metadata.BatchSize,
		},
	)
}
