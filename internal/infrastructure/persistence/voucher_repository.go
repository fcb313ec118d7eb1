package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/aidledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVoucherRepository implements VoucherRepository using GORM
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository creates a new GormVoucherRepository
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// Create inserts a voucher. A taken qr_code surfaces as ErrDuplicateToken.
func (r *GormVoucherRepository) Create(ctx context.Context, voucher *relief.Voucher) error {
	if err := r.db.WithContext(ctx).Create(models.VoucherModelFromDomain(voucher)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicateToken
		}
		return err
	}
	return nil
}

// FindByQRCode finds a voucher by its redemption token
func (r *GormVoucherRepository) FindByQRCode(ctx context.Context, qrCode string) (*relief.Voucher, error) {
	return r.first(r.db.WithContext(ctx).Where("qr_code = ?", qrCode))
}

// FindByQRCodeForUpdate finds a voucher by token with a row lock
func (r *GormVoucherRepository) FindByQRCodeForUpdate(ctx context.Context, qrCode string) (*relief.Voucher, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("qr_code = ?", qrCode))
}

func (r *GormVoucherRepository) first(query *gorm.DB) (*relief.Voucher, error) {
	var model models.VoucherModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrVoucherNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBeneficiary returns the beneficiary's vouchers, newest first
func (r *GormVoucherRepository) FindByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) ([]relief.Voucher, error) {
	var rows []models.VoucherModel
	if err := r.db.WithContext(ctx).
		Where("beneficiary_id = ?", beneficiaryID).
		Order("created_at DESC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return vouchersToDomain(rows), nil
}

// FindOverdueForUpdate locks up to limit ISSUED vouchers whose expiry has passed.
// SKIP LOCKED lets concurrent sweepers split the work.
func (r *GormVoucherRepository) FindOverdueForUpdate(ctx context.Context, now time.Time, limit int) ([]relief.Voucher, error) {
	if limit <= 0 {
		return []relief.Voucher{}, nil
	}
	var rows []models.VoucherModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND expires_at <= ?", relief.VoucherStatusIssued, now.UTC()).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return vouchersToDomain(rows), nil
}

func vouchersToDomain(rows []models.VoucherModel) []relief.Voucher {
	vouchers := make([]relief.Voucher, len(rows))
	for i := range rows {
		vouchers[i] = *rows[i].ToDomain()
	}
	return vouchers
}

// SaveWithLock persists a status transition guarded by the optimistic version check
func (r *GormVoucherRepository) SaveWithLock(ctx context.Context, voucher *relief.Voucher) error {
	model := models.VoucherModelFromDomain(voucher)
	result := r.db.WithContext(ctx).
		Model(&models.VoucherModel{}).
		Where("id = ? AND version = ?", voucher.ID, voucher.Version-1).
		Updates(map[string]any{
			"status":      model.Status,
			"redeemed_at": model.RedeemedAt,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ relief.VoucherRepository = (*GormVoucherRepository)(nil)
