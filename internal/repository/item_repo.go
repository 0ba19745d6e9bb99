package repository

import (
	"context"
	"errors"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemListFilter struct {
	CompanyID uuid.UUID
	Category  *string
	Limit     int
	Offset    int
}

type ItemRepo interface {
	Create(ctx context.Context, it *models.Item) error
	GetByID(ctx context.Context, id int64, companyID uuid.UUID) (*models.Item, error)
	// GetByIDForUpdate блокирует строку товара (FOR UPDATE) до конца транзакции.
	GetByIDForUpdate(ctx context.Context, id int64, companyID uuid.UUID) (*models.Item, error)
	BatchGetByIDs(ctx context.Context, companyID uuid.UUID, ids []int64) ([]models.Item, error)
	UpdateFields(ctx context.Context, id int64, companyID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id int64, companyID uuid.UUID) (bool, error)
	List(ctx context.Context, f ItemListFilter) ([]models.Item, int64, error)

	// TryReserve: атомарно quantity -= qty, если остатка хватает.
	TryReserve(ctx context.Context, id int64, qty int64) (bool, error)
	// Release: quantity += qty. Используется при полной отмене позиции заказа
	// и при поступлении прихода — никогда при split-переносе.
	Release(ctx context.Context, id int64, qty int64) (bool, error)
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepo(db *gorm.DB) ItemRepo { return &itemRepo{db: db} }

func (r *itemRepo) Create(ctx context.Context, it *models.Item) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *itemRepo) GetByID(ctx context.Context, id int64, companyID uuid.UUID) (*models.Item, error) {
	var it models.Item
	err := r.db.WithContext(ctx).First(&it, "id = ? AND company_id = ?", id, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &it, err
}

func (r *itemRepo) GetByIDForUpdate(ctx context.Context, id int64, companyID uuid.UUID) (*models.Item, error) {
	var it models.Item
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&it, "id = ? AND company_id = ?", id, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &it, err
}

func (r *itemRepo) BatchGetByIDs(ctx context.Context, companyID uuid.UUID, ids []int64) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND id IN ?", companyID, ids).
		Find(&items).Error
	return items, err
}

func (r *itemRepo) UpdateFields(ctx context.Context, id int64, companyID uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ? AND company_id = ?", id, companyID).
		Updates(fields).Error
}

func (r *itemRepo) Delete(ctx context.Context, id int64, companyID uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&models.Item{})
	return tx.RowsAffected > 0, tx.Error
}

func (r *itemRepo) List(ctx context.Context, f ItemListFilter) ([]models.Item, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Item{}).Where("company_id = ?", f.CompanyID)
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var items []models.Item
	err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&items).Error
	return items, total, err
}

func (r *itemRepo) TryReserve(ctx context.Context, id int64, qty int64) (bool, error) {
	// атомарно: quantity -= qty, если хватает
	tx := r.db.WithContext(ctx).Exec(`
UPDATE items
SET quantity = quantity - @q,
    updated_at = now()
WHERE id = @id
  AND quantity >= @q
`, map[string]any{
		"id": id,
		"q":  qty,
	})
	return tx.RowsAffected > 0, tx.Error
}

func (r *itemRepo) Release(ctx context.Context, id int64, qty int64) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE items
SET quantity = quantity + @q,
    updated_at = now()
WHERE id = @id
`, map[string]any{
		"id": id,
		"q":  qty,
	})
	return tx.RowsAffected > 0, tx.Error
}
