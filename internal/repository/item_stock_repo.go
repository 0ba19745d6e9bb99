package repository

import (
	"context"
	"errors"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemStockRepo interface {
	Create(ctx context.Context, s *models.ItemStock) error
	GetByID(ctx context.Context, id int64, companyID uuid.UUID) (*models.ItemStock, error)
	ListByItem(ctx context.Context, itemID int64, companyID uuid.UUID) ([]models.ItemStock, error)
	UpdateQuantityAndNotes(ctx context.Context, id int64, quantity int64, notes string) error
}

type itemStockRepo struct{ db *gorm.DB }

func NewItemStockRepo(db *gorm.DB) ItemStockRepo { return &itemStockRepo{db: db} }

func (r *itemStockRepo) Create(ctx context.Context, s *models.ItemStock) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *itemStockRepo) GetByID(ctx context.Context, id int64, companyID uuid.UUID) (*models.ItemStock, error) {
	var s models.ItemStock
	err := r.db.WithContext(ctx).First(&s, "id = ? AND company_id = ?", id, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (r *itemStockRepo) ListByItem(ctx context.Context, itemID int64, companyID uuid.UUID) ([]models.ItemStock, error) {
	var rows []models.ItemStock
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND company_id = ?", itemID, companyID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *itemStockRepo) UpdateQuantityAndNotes(ctx context.Context, id int64, quantity int64, notes string) error {
	return r.db.WithContext(ctx).Model(&models.ItemStock{}).Where("id = ?", id).Updates(map[string]any{
		"quantity": quantity,
		"notes":    notes,
	}).Error
}
