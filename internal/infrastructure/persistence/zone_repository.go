package persistence

import (
	"context"
	"errors"

	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/aidledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormZoneRepository implements ZoneRepository using GORM
type GormZoneRepository struct {
	db *gorm.DB
}

// NewGormZoneRepository creates a new GormZoneRepository
func NewGormZoneRepository(db *gorm.DB) *GormZoneRepository {
	return &GormZoneRepository{db: db}
}

// FindByID finds a zone by its ID
func (r *GormZoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*relief.Zone, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate finds a zone by ID with a row lock (SELECT ... FOR UPDATE)
func (r *GormZoneRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*relief.Zone, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *GormZoneRepository) first(query *gorm.DB) (*relief.Zone, error) {
	var model models.ZoneModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrZoneNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the zones among ids that exist
func (r *GormZoneRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]relief.Zone, error) {
	if len(ids) == 0 {
		return []relief.Zone{}, nil
	}
	var rows []models.ZoneModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return zonesToDomain(rows), nil
}

// FindAll returns every zone, newest first
func (r *GormZoneRepository) FindAll(ctx context.Context) ([]relief.Zone, error) {
	var rows []models.ZoneModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return zonesToDomain(rows), nil
}

func zonesToDomain(rows []models.ZoneModel) []relief.Zone {
	zones := make([]relief.Zone, len(rows))
	for i := range rows {
		zones[i] = *rows[i].ToDomain()
	}
	return zones
}

// Create inserts a new zone
func (r *GormZoneRepository) Create(ctx context.Context, zone *relief.Zone) error {
	return r.db.WithContext(ctx).Create(models.ZoneModelFromDomain(zone)).Error
}

// SaveWithLock persists the zone counters guarded by the optimistic version check
func (r *GormZoneRepository) SaveWithLock(ctx context.Context, zone *relief.Zone) error {
	model := models.ZoneModelFromDomain(zone)
	result := r.db.WithContext(ctx).
		Model(&models.ZoneModel{}).
		Where("id = ? AND version = ?", zone.ID, zone.Version-1).
		Updates(map[string]any{
			"allocated":     model.Allocated,
			"distributed":   model.Distributed,
			"beneficiaries": model.Beneficiaries,
			"status":        model.Status,
			"severity":      model.Severity,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ relief.ZoneRepository = (*GormZoneRepository)(nil)
