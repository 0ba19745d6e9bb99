package repository

import (
	"context"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderSplitRepo interface {
	BulkCreate(ctx context.Context, splits []models.OrderSplit) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderSplit, error)
	DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, url string, status models.PaymentStatus) error
	SumAllocatedByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
}

type orderSplitRepo struct{ db *gorm.DB }

func NewOrderSplitRepo(db *gorm.DB) OrderSplitRepo { return &orderSplitRepo{db: db} }

func (r *orderSplitRepo) BulkCreate(ctx context.Context, splits []models.OrderSplit) error {
	if len(splits) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&splits).Error
}

func (r *orderSplitRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderSplit, error) {
	var rows []models.OrderSplit
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *orderSplitRepo) DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	tx := r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderSplit{})
	return tx.RowsAffected, tx.Error
}

func (r *orderSplitRepo) UpdatePayment(ctx context.Context, id uuid.UUID, url string, status models.PaymentStatus) error {
	return r.db.WithContext(ctx).Model(&models.OrderSplit{}).Where("id = ?", id).Updates(map[string]any{
		"payment_url":    url,
		"payment_status": status,
	}).Error
}

func (r *orderSplitRepo) SumAllocatedByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.OrderSplit{}).
		Select("COALESCE(SUM(allocated), 0)").
		Where("order_id = ?", orderID).
		Scan(&total).Error
	return total, err
}
