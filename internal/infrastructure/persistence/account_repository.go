package persistence

import (
	"context"
	"errors"

	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/aidledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate finds an account by ID with a row lock (SELECT ... FOR UPDATE)
func (r *GormAccountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

// FindByAddress finds an account by its normalized wallet address
func (r *GormAccountRepository) FindByAddress(ctx context.Context, address string) (*ledger.Account, error) {
	return r.first(r.db.WithContext(ctx).Where("address = ?", ledger.NormalizeAddress(address)))
}

// FindByAddressForUpdate finds an account by address with a row lock
func (r *GormAccountRepository) FindByAddressForUpdate(ctx context.Context, address string) (*ledger.Account, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("address = ?", ledger.NormalizeAddress(address)))
}

// FindFirstByRole returns the oldest account holding role
func (r *GormAccountRepository) FindFirstByRole(ctx context.Context, role ledger.Role) (*ledger.Account, error) {
	return r.first(r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at ASC").
		Order("id ASC"))
}

func (r *GormAccountRepository) first(query *gorm.DB) (*ledger.Account, error) {
	var model models.AccountModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrAccountNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CreateIfAbsent inserts the account unless its address already exists
func (r *GormAccountRepository) CreateIfAbsent(ctx context.Context, account *ledger.Account) (bool, error) {
	model := models.AccountModelFromDomain(account)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Create inserts a new account
func (r *GormAccountRepository) Create(ctx context.Context, account *ledger.Account) error {
	model := models.AccountModelFromDomain(account)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Account with this address already exists")
		}
		return err
	}
	return nil
}

// SaveWithLock persists the balance guarded by the optimistic version check.
// The caller must have incremented the version before calling.
func (r *GormAccountRepository) SaveWithLock(ctx context.Context, account *ledger.Account) error {
	model := models.AccountModelFromDomain(account)
	result := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Updates(map[string]any{
			"balance":    model.Balance,
			"role":       model.Role,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ ledger.AccountRepository = (*GormAccountRepository)(nil)
