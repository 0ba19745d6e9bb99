package repository

import (
	"context"
	"errors"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingListFilter struct {
	CompanyID *uuid.UUID
	GuestID   *uuid.UUID
	Status    *models.BookingStatus
	Limit     int
	Offset    int
}

type BookingRepo interface {
	Create(ctx context.Context, b *models.EventBooking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.EventBooking, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EventBooking, error)
	// ListActiveByRoom возвращает все неотменённые брони комнаты,
	// опционально исключая одну (для проверки при обновлении).
	// Вызывается с блокировкой строк, когда выполняется внутри WithTx.
	ListActiveByRoom(ctx context.Context, roomID int64, excludeID *uuid.UUID, lock bool) ([]models.EventBooking, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) error
	List(ctx context.Context, f BookingListFilter) ([]*models.EventBooking, int64, error)
}

type bookingRepo struct{ db *gorm.DB }

func NewBookingRepo(db *gorm.DB) BookingRepo { return &bookingRepo{db: db} }

func (r *bookingRepo) Create(ctx context.Context, b *models.EventBooking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.EventBooking, error) {
	var b models.EventBooking
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &b, err
}

func (r *bookingRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EventBooking, error) {
	var b models.EventBooking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &b, err
}

func (r *bookingRepo) ListActiveByRoom(ctx context.Context, roomID int64, excludeID *uuid.UUID, lock bool) ([]models.EventBooking, error) {
	q := r.db.WithContext(ctx).
		Where("meeting_room_id = ? AND status <> ?", roomID, models.BookingStatusCancelled)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []models.EventBooking
	err := q.Find(&rows).Error
	return rows, err
}

func (r *bookingRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.EventBooking{}).Where("id = ?", id).Updates(fields).Error
}

func (r *bookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) error {
	return r.db.WithContext(ctx).Model(&models.EventBooking{}).Where("id = ?", id).Update("status", status).Error
}

func (r *bookingRepo) List(ctx context.Context, f BookingListFilter) ([]*models.EventBooking, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.EventBooking{})

	if f.CompanyID != nil {
		q = q.Where("company_id = ?", *f.CompanyID)
	}
	if f.GuestID != nil {
		q = q.Where("guest_id = ?", *f.GuestID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
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

	var list []*models.EventBooking
	err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}
