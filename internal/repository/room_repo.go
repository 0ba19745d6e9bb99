package repository

import (
	"context"
	"errors"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MeetingRoomRepo interface {
	Create(ctx context.Context, room *models.MeetingRoom) error
	GetByID(ctx context.Context, id int64) (*models.MeetingRoom, error)
	// GetByIDForUpdate блокирует строку комнаты (FOR UPDATE). Все брони одной
	// комнаты сериализуются на этой блокировке: блокировка только строк броней
	// не видит конкурентную вставку (phantom). Вызывается только внутри WithTx.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.MeetingRoom, error)
	GetByName(ctx context.Context, companyID uuid.UUID, name string) (*models.MeetingRoom, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID, onlyAvailable bool) ([]models.MeetingRoom, error)
	UpdateFields(ctx context.Context, id int64, companyID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id int64, companyID uuid.UUID) (bool, error)
}

type meetingRoomRepo struct{ db *gorm.DB }

func NewMeetingRoomRepo(db *gorm.DB) MeetingRoomRepo { return &meetingRoomRepo{db: db} }

func (r *meetingRoomRepo) Create(ctx context.Context, room *models.MeetingRoom) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *meetingRoomRepo) GetByID(ctx context.Context, id int64) (*models.MeetingRoom, error) {
	var room models.MeetingRoom
	err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &room, err
}

func (r *meetingRoomRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.MeetingRoom, error) {
	var room models.MeetingRoom
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&room, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &room, err
}

func (r *meetingRoomRepo) GetByName(ctx context.Context, companyID uuid.UUID, name string) (*models.MeetingRoom, error) {
	var room models.MeetingRoom
	err := r.db.WithContext(ctx).First(&room, "company_id = ? AND name = ?", companyID, name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &room, err
}

func (r *meetingRoomRepo) ListByCompany(ctx context.Context, companyID uuid.UUID, onlyAvailable bool) ([]models.MeetingRoom, error) {
	q := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if onlyAvailable {
		q = q.Where("is_available = true")
	}
	var rooms []models.MeetingRoom
	err := q.Order("name ASC").Find(&rooms).Error
	return rooms, err
}

func (r *meetingRoomRepo) UpdateFields(ctx context.Context, id int64, companyID uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.MeetingRoom{}).
		Where("id = ? AND company_id = ?", id, companyID).
		Updates(fields).Error
}

func (r *meetingRoomRepo) Delete(ctx context.Context, id int64, companyID uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&models.MeetingRoom{})
	return tx.RowsAffected > 0, tx.Error
}
