package persistence

import (
	"context"
	"errors"

	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/aidledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDonationRepository implements DonationRepository using GORM
type GormDonationRepository struct {
	db *gorm.DB
}

// NewGormDonationRepository creates a new GormDonationRepository
func NewGormDonationRepository(db *gorm.DB) *GormDonationRepository {
	return &GormDonationRepository{db: db}
}

// Create inserts a donation record
func (r *GormDonationRepository) Create(ctx context.Context, donation *relief.Donation) error {
	return r.db.WithContext(ctx).Create(models.DonationModelFromDomain(donation)).Error
}

// FindByID finds a donation by its ID
func (r *GormDonationRepository) FindByID(ctx context.Context, id uuid.UUID) (*relief.Donation, error) {
	var model models.DonationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the donations among ids that exist
func (r *GormDonationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]relief.Donation, error) {
	if len(ids) == 0 {
		return []relief.Donation{}, nil
	}
	var rows []models.DonationModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	donations := make([]relief.Donation, len(rows))
	for i := range rows {
		donations[i] = *rows[i].ToDomain()
	}
	return donations, nil
}

var _ relief.DonationRepository = (*GormDonationRepository)(nil)
