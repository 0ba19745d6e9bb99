package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type bookingService struct {
	repo     *repository.Repository
	cache    ViewCache
	events   EventBus
	log      *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

func NewBookingService(repo *repository.Repository, cache ViewCache, events EventBus, log *zap.Logger, cacheTTL time.Duration) BookingService {
	return &bookingService{
		repo:     repo,
		cache:    cache,
		events:   events,
		log:      log,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// combineDateTime склеивает дату и время "HH:MM:SS" в одну точку на оси.
func combineDateTime(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		t, err = time.Parse("15:04", clock)
		if err != nil {
			return time.Time{}, ErrInvalidWindow
		}
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

// windowBounds приводит окно к [start, end). EndDate == nil трактуется как
// тот же день, что и ArrivalDate. end <= start — некорректное окно.
func windowBounds(w BookingWindow) (time.Time, time.Time, error) {
	start, err := combineDateTime(w.ArrivalDate, w.ArrivalTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDate := w.ArrivalDate
	if w.EndDate != nil {
		endDate = *w.EndDate
	}
	end, err := combineDateTime(endDate, w.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrInvalidWindow
	}
	return start, end, nil
}

func bookingWindow(b *models.EventBooking) BookingWindow {
	return BookingWindow{
		ArrivalDate: b.ArrivalDate,
		ArrivalTime: b.ArrivalTime,
		EndDate:     b.EndDate,
		EndTime:     b.EndTime,
	}
}

// overlaps — полуинтервалы [aStart, aEnd) и [bStart, bEnd) пересекаются.
// Бронь, начинающаяся ровно в момент окончания другой, не конфликтует.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// --- meeting rooms ---

func (s *bookingService) CreateRoom(ctx context.Context, in CreateRoomInput) (*models.MeetingRoom, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.Rooms.GetByName(ctx, companyID, in.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRoomNameTaken
	}

	room := &models.MeetingRoom{
		CompanyID:   companyID,
		Name:        in.Name,
		Capacity:    in.Capacity,
		Price:       in.Price,
		Amenities:   in.Amenities,
		ImageURL:    in.ImageURL,
		IsAvailable: in.IsAvailable,
	}
	if err := s.repo.Rooms.Create(ctx, room); err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.log, cacheKeyCompanyRooms(companyID))
	return room, nil
}

func (s *bookingService) GetRoom(ctx context.Context, id int64) (*models.MeetingRoom, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKeyRoomDetails(id)); err == nil {
			var room models.MeetingRoom
			if json.Unmarshal([]byte(raw), &room) == nil && room.CompanyID == companyID {
				return &room, nil
			}
		} else if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("room cache read failed", zap.Int64("room_id", id), zap.Error(err))
		}
	}

	room, err := s.repo.Rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room == nil || room.CompanyID != companyID {
		return nil, ErrRoomNotFound
	}

	if s.cache != nil {
		if raw, err := json.Marshal(room); err == nil {
			if err := s.cache.Set(ctx, cacheKeyRoomDetails(id), string(raw), s.cacheTTL); err != nil {
				s.log.Warn("room cache write failed", zap.Int64("room_id", id), zap.Error(err))
			}
		}
	}
	return room, nil
}

func (s *bookingService) ListRooms(ctx context.Context, onlyAvailable bool) ([]models.MeetingRoom, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}

	cacheable := !onlyAvailable
	if cacheable && s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKeyCompanyRooms(companyID)); err == nil {
			var rooms []models.MeetingRoom
			if json.Unmarshal([]byte(raw), &rooms) == nil {
				return rooms, nil
			}
		} else if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("rooms cache read failed", zap.Error(err))
		}
	}

	rooms, err := s.repo.Rooms.ListByCompany(ctx, companyID, onlyAvailable)
	if err != nil {
		return nil, err
	}

	if cacheable && s.cache != nil {
		if raw, err := json.Marshal(rooms); err == nil {
			if err := s.cache.Set(ctx, cacheKeyCompanyRooms(companyID), string(raw), s.cacheTTL); err != nil {
				s.log.Warn("rooms cache write failed", zap.Error(err))
			}
		}
	}
	return rooms, nil
}

func (s *bookingService) UpdateRoom(ctx context.Context, id int64, in UpdateRoomInput) (*models.MeetingRoom, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}
	room, err := s.repo.Rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room == nil || room.CompanyID != companyID {
		return nil, ErrRoomNotFound
	}

	fields := map[string]any{}
	if in.Name != nil && *in.Name != room.Name {
		taken, err := s.repo.Rooms.GetByName(ctx, companyID, *in.Name)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, ErrRoomNameTaken
		}
		fields["name"] = *in.Name
	}
	if in.Capacity != nil {
		fields["capacity"] = *in.Capacity
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.Amenities != nil {
		raw, err := json.Marshal(*in.Amenities)
		if err != nil {
			return nil, err
		}
		fields["amenities"] = string(raw)
	}
	if in.ImageURL != nil {
		fields["image_url"] = *in.ImageURL
	}
	if in.IsAvailable != nil {
		fields["is_available"] = *in.IsAvailable
	}
	if len(fields) > 0 {
		if err := s.repo.Rooms.UpdateFields(ctx, id, companyID, fields); err != nil {
			return nil, err
		}
	}

	invalidate(ctx, s.cache, s.log, cacheKeyCompanyRooms(companyID), cacheKeyRoomDetails(id))
	return s.repo.Rooms.GetByID(ctx, id)
}

func (s *bookingService) DeleteRoom(ctx context.Context, id int64) error {
	companyID, err := companyScope(ctx)
	if err != nil {
		return err
	}
	ok, err := s.repo.Rooms.Delete(ctx, id, companyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoomNotFound
	}
	invalidate(ctx, s.cache, s.log, cacheKeyCompanyRooms(companyID), cacheKeyRoomDetails(id))
	return nil
}

// --- seat arrangements ---

// normalizeArrangementName — имя хранится нормализованным, уникальность
// в пределах компании не зависит от регистра и пробелов.
func normalizeArrangementName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *bookingService) CreateArrangement(ctx context.Context, in CreateArrangementInput) (*models.SeatArrangement, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}
	name := normalizeArrangementName(in.Name)
	existing, err := s.repo.Arrangements.GetByName(ctx, companyID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrArrangementNameTaken
	}

	arr := &models.SeatArrangement{
		CompanyID:   companyID,
		Name:        name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
	if err := s.repo.Arrangements.Create(ctx, arr); err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.log, cacheKeyCompanyArrangements(companyID))
	return arr, nil
}

func (s *bookingService) GetArrangement(ctx context.Context, id int64) (*models.SeatArrangement, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}
	arr, err := s.repo.Arrangements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if arr == nil || arr.CompanyID != companyID {
		return nil, ErrArrangementNotFound
	}
	return arr, nil
}

func (s *bookingService) ListArrangements(ctx context.Context) ([]models.SeatArrangement, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKeyCompanyArrangements(companyID)); err == nil {
			var arrs []models.SeatArrangement
			if json.Unmarshal([]byte(raw), &arrs) == nil {
				return arrs, nil
			}
		} else if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("arrangements cache read failed", zap.Error(err))
		}
	}

	arrs, err := s.repo.Arrangements.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(arrs); err == nil {
			if err := s.cache.Set(ctx, cacheKeyCompanyArrangements(companyID), string(raw), s.cacheTTL); err != nil {
				s.log.Warn("arrangements cache write failed", zap.Error(err))
			}
		}
	}
	return arrs, nil
}

func (s *bookingService) DeleteArrangement(ctx context.Context, id int64) error {
	companyID, err := companyScope(ctx)
	if err != nil {
		return err
	}
	ok, err := s.repo.Arrangements.Delete(ctx, id, companyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrArrangementNotFound
	}
	invalidate(ctx, s.cache, s.log, cacheKeyCompanyArrangements(companyID))
	return nil
}

// --- availability ---

func (s *bookingService) IsRoomAvailable(ctx context.Context, roomID int64, window BookingWindow, excludeBookingID *uuid.UUID) (bool, error) {
	start, end, err := windowBounds(window)
	if err != nil {
		return false, err
	}
	return s.roomFree(ctx, s.repo, roomID, start, end, excludeBookingID, false)
}

// roomFree сравнивает окно со всеми активными бронями комнаты. lock=true
// берёт FOR UPDATE на существующие брони — используется внутри транзакции
// создания вместе с блокировкой строки комнаты (Rooms.GetByIDForUpdate),
// которая и сериализует конкурентные вставки.
func (s *bookingService) roomFree(ctx context.Context, repo *repository.Repository, roomID int64, start, end time.Time, excludeID *uuid.UUID, lock bool) (bool, error) {
	active, err := repo.Bookings.ListActiveByRoom(ctx, roomID, excludeID, lock)
	if err != nil {
		return false, err
	}
	for i := range active {
		bStart, bEnd, err := windowBounds(bookingWindow(&active[i]))
		if err != nil {
			// Битое окно в данных не должно блокировать комнату навсегда.
			s.log.Warn("booking has invalid window, skipping in overlap check",
				zap.String("booking_id", active[i].ID.String()))
			continue
		}
		if overlaps(start, end, bStart, bEnd) {
			return false, nil
		}
	}
	return true, nil
}

// --- bookings ---

func (s *bookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.EventBooking, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}
	uid, ut, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	start, end, err := windowBounds(in.Window)
	if err != nil {
		return nil, err
	}

	booking := &models.EventBooking{
		CompanyID:         companyID,
		MeetingRoomID:     in.MeetingRoomID,
		SeatArrangementID: in.SeatArrangementID,
		Status:            models.BookingStatusPending,
		ArrivalDate:       in.Window.ArrivalDate,
		ArrivalTime:       in.Window.ArrivalTime,
		EndDate:           in.Window.EndDate,
		EndTime:           in.Window.EndTime,
		ContactName:       in.ContactName,
		ContactEmail:      in.ContactEmail,
		ContactPhone:      in.ContactPhone,
		StaffName:         in.StaffName,
		Notes:             in.Notes,
		TotalAmount:       in.TotalAmount,
		PaymentStatus:     models.PaymentStatusPending,
	}
	if ut == UserTypeGuest {
		booking.GuestID = &uid
	}

	err = s.repo.WithTx(func(tx *repository.Repository) error {
		if in.MeetingRoomID != nil {
			// Блокировка строки комнаты сериализует все брони этой комнаты:
			// блокировка одних броней не защищает от конкурентной вставки.
			room, err := tx.Rooms.GetByIDForUpdate(ctx, *in.MeetingRoomID)
			if err != nil {
				return err
			}
			if room == nil || room.CompanyID != companyID {
				return ErrRoomNotFound
			}
			if !room.IsAvailable {
				return ErrRoomUnavailable
			}
			free, err := s.roomFree(ctx, tx, *in.MeetingRoomID, start, end, nil, true)
			if err != nil {
				return err
			}
			if !free {
				return ErrRoomUnavailable
			}
		}
		if in.SeatArrangementID != nil {
			// Рассадка — раскладка, а не эксклюзивный ресурс: проверяется
			// только существование и принадлежность компании.
			arr, err := tx.Arrangements.GetByID(ctx, *in.SeatArrangementID)
			if err != nil {
				return err
			}
			if arr == nil || arr.CompanyID != companyID {
				return ErrArrangementNotFound
			}
		}
		return tx.Bookings.Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	keys := []string{cacheKeyCompanyBookings(companyID)}
	if booking.GuestID != nil {
		keys = append(keys, cacheKeyGuestBookings(*booking.GuestID))
	}
	invalidate(ctx, s.cache, s.log, keys...)

	if s.events != nil {
		_ = s.events.PublishBookingCreated(ctx, BookingCreatedEvent{
			BookingID:     booking.ID,
			CompanyID:     booking.CompanyID,
			RoomID:        booking.MeetingRoomID,
			ArrangementID: booking.SeatArrangementID,
			Start:         start,
			End:           end,
			CreatedAt:     booking.CreatedAt,
		})
	}

	return booking, nil
}

func (s *bookingService) ownedBooking(ctx context.Context, b *models.EventBooking) error {
	uid, ut, err := requireAuth(ctx)
	if err != nil {
		return err
	}
	if b.GuestID != nil && *b.GuestID == uid {
		return nil
	}
	if ut != UserTypeGuest {
		cid, err := companyScope(ctx)
		if err != nil {
			return err
		}
		if b.CompanyID == cid {
			return nil
		}
	}
	return ErrForbidden
}

func (s *bookingService) GetBooking(ctx context.Context, id uuid.UUID) (*models.EventBooking, error) {
	b, err := s.repo.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	if err := s.ownedBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bookingService) ListBookings(ctx context.Context, f ListBookingsFilter) ([]*models.EventBooking, int64, error) {
	uid, ut, err := requireAuth(ctx)
	if err != nil {
		return nil, 0, err
	}

	rf := repository.BookingListFilter{Status: f.Status, Limit: f.Limit, Offset: f.Offset}
	var cacheKey string
	if ut == UserTypeGuest {
		rf.GuestID = &uid
		cacheKey = cacheKeyGuestBookings(uid)
	} else {
		cid, err := companyScope(ctx)
		if err != nil {
			return nil, 0, err
		}
		rf.CompanyID = &cid
		cacheKey = cacheKeyCompanyBookings(cid)
	}

	cacheable := f.Status == nil && f.Limit <= 0 && f.Offset <= 0
	if cacheable && s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var view struct {
				Bookings []*models.EventBooking `json:"bookings"`
				Total    int64                  `json:"total"`
			}
			if json.Unmarshal([]byte(raw), &view) == nil {
				return view.Bookings, view.Total, nil
			}
		} else if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("bookings cache read failed", zap.Error(err))
		}
	}

	bookings, total, err := s.repo.Bookings.List(ctx, rf)
	if err != nil {
		return nil, 0, err
	}

	if cacheable && s.cache != nil {
		view := struct {
			Bookings []*models.EventBooking `json:"bookings"`
			Total    int64                  `json:"total"`
		}{Bookings: bookings, Total: total}
		if raw, err := json.Marshal(view); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(raw), s.cacheTTL); err != nil {
				s.log.Warn("bookings cache write failed", zap.Error(err))
			}
		}
	}
	return bookings, total, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, id uuid.UUID, in UpdateBookingInput) (*models.EventBooking, error) {
	var updated *models.EventBooking

	err := s.repo.WithTx(func(tx *repository.Repository) error {
		b, err := tx.Bookings.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookingNotFound
		}
		if err := s.ownedBooking(ctx, b); err != nil {
			return err
		}
		if b.Status == models.BookingStatusCancelled {
			return ErrAlreadyCancelled
		}

		fields := map[string]any{}

		window := bookingWindow(b)
		windowChanged := false
		if in.ArrivalDate != nil {
			window.ArrivalDate = *in.ArrivalDate
			fields["arrival_date"] = *in.ArrivalDate
			windowChanged = true
		}
		if in.ArrivalTime != nil {
			window.ArrivalTime = *in.ArrivalTime
			fields["arrival_time"] = *in.ArrivalTime
			windowChanged = true
		}
		if in.ClearEnd {
			window.EndDate = nil
			fields["end_date"] = nil
			windowChanged = true
		} else if in.EndDate != nil {
			window.EndDate = in.EndDate
			fields["end_date"] = *in.EndDate
			windowChanged = true
		}
		if in.EndTime != nil {
			window.EndTime = *in.EndTime
			fields["end_time"] = *in.EndTime
			windowChanged = true
		}

		roomID := b.MeetingRoomID
		roomChanged := false
		if in.ClearRoom {
			roomID = nil
			fields["meeting_room_id"] = nil
			roomChanged = true
		} else if in.MeetingRoomID != nil {
			roomID = in.MeetingRoomID
			fields["meeting_room_id"] = *in.MeetingRoomID
			roomChanged = true
		}

		if in.ClearArrangement {
			fields["seat_arrangement_id"] = nil
		} else if in.SeatArrangementID != nil {
			arr, err := tx.Arrangements.GetByID(ctx, *in.SeatArrangementID)
			if err != nil {
				return err
			}
			if arr == nil || arr.CompanyID != b.CompanyID {
				return ErrArrangementNotFound
			}
			fields["seat_arrangement_id"] = *in.SeatArrangementID
		}

		if windowChanged || roomChanged {
			start, end, err := windowBounds(window)
			if err != nil {
				return err
			}
			if roomID != nil {
				room, err := tx.Rooms.GetByIDForUpdate(ctx, *roomID)
				if err != nil {
					return err
				}
				if room == nil || room.CompanyID != b.CompanyID {
					return ErrRoomNotFound
				}
				// Своя бронь исключается: сдвиг окна внутри себя — не конфликт.
				free, err := s.roomFree(ctx, tx, *roomID, start, end, &b.ID, true)
				if err != nil {
					return err
				}
				if !free {
					return ErrRoomUnavailable
				}
			}
		}

		if in.ContactName != nil {
			fields["contact_name"] = *in.ContactName
		}
		if in.ContactEmail != nil {
			fields["contact_email"] = *in.ContactEmail
		}
		if in.ContactPhone != nil {
			fields["contact_phone"] = *in.ContactPhone
		}
		if in.StaffName != nil {
			fields["staff_name"] = *in.StaffName
		}
		if in.Notes != nil {
			fields["notes"] = *in.Notes
		}
		if in.TotalAmount != nil {
			fields["total_amount"] = *in.TotalAmount
		}
		if in.Status != nil {
			if *in.Status == models.BookingStatusCancelled {
				return ErrInvalidTransition // отмена — только через CancelBooking
			}
			fields["status"] = *in.Status
		}

		if len(fields) > 0 {
			if err := tx.Bookings.UpdateFields(ctx, id, fields); err != nil {
				return err
			}
		}

		updated, err = tx.Bookings.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	keys := []string{cacheKeyCompanyBookings(updated.CompanyID)}
	if updated.GuestID != nil {
		keys = append(keys, cacheKeyGuestBookings(*updated.GuestID))
	}
	invalidate(ctx, s.cache, s.log, keys...)

	return updated, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, id uuid.UUID) (*models.EventBooking, error) {
	var cancelled *models.EventBooking

	err := s.repo.WithTx(func(tx *repository.Repository) error {
		b, err := tx.Bookings.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookingNotFound
		}
		if err := s.ownedBooking(ctx, b); err != nil {
			return err
		}
		if b.Status == models.BookingStatusCancelled {
			return ErrAlreadyCancelled
		}
		if err := tx.Bookings.UpdateStatus(ctx, id, models.BookingStatusCancelled); err != nil {
			return err
		}
		b.Status = models.BookingStatusCancelled
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	keys := []string{cacheKeyCompanyBookings(cancelled.CompanyID)}
	if cancelled.GuestID != nil {
		keys = append(keys, cacheKeyGuestBookings(*cancelled.GuestID))
	}
	invalidate(ctx, s.cache, s.log, keys...)

	return cancelled, nil
}
