package repository

import (
	"context"
	"errors"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SeatArrangementRepo interface {
	Create(ctx context.Context, arr *models.SeatArrangement) error
	GetByID(ctx context.Context, id int64) (*models.SeatArrangement, error)
	GetByName(ctx context.Context, companyID uuid.UUID, name string) (*models.SeatArrangement, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.SeatArrangement, error)
	Delete(ctx context.Context, id int64, companyID uuid.UUID) (bool, error)
}

type seatArrangementRepo struct{ db *gorm.DB }

func NewSeatArrangementRepo(db *gorm.DB) SeatArrangementRepo { return &seatArrangementRepo{db: db} }

func (r *seatArrangementRepo) Create(ctx context.Context, arr *models.SeatArrangement) error {
	return r.db.WithContext(ctx).Create(arr).Error
}

func (r *seatArrangementRepo) GetByID(ctx context.Context, id int64) (*models.SeatArrangement, error) {
	var arr models.SeatArrangement
	err := r.db.WithContext(ctx).First(&arr, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &arr, err
}

func (r *seatArrangementRepo) GetByName(ctx context.Context, companyID uuid.UUID, name string) (*models.SeatArrangement, error) {
	var arr models.SeatArrangement
	err := r.db.WithContext(ctx).First(&arr, "company_id = ? AND name = ?", companyID, name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &arr, err
}

func (r *seatArrangementRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.SeatArrangement, error) {
	var arrs []models.SeatArrangement
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("name ASC").
		Find(&arrs).Error
	return arrs, err
}

func (r *seatArrangementRepo) Delete(ctx context.Context, id int64, companyID uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&models.SeatArrangement{})
	return tx.RowsAffected > 0, tx.Error
}
