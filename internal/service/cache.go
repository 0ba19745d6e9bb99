package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCacheMiss возвращается ViewCache.Get, когда ключа нет.
var ErrCacheMiss = errors.New("cache miss")

// ViewCache — кэш материализованных списков и деталей. Никогда не источник
// истины для решений о мутации: чтение может вернуть устаревшие данные,
// недоступный кэш не валит операцию.
type ViewCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

func cacheKeyCompanyOrders(companyID uuid.UUID) string {
	return fmt.Sprintf("orders:company:%s", companyID)
}

func cacheKeyGuestOrders(guestID uuid.UUID) string {
	return fmt.Sprintf("orders:guest:%s", guestID)
}

func cacheKeyOrderDetails(orderID uuid.UUID) string {
	return fmt.Sprintf("orders:details:%s", orderID)
}

func cacheKeyCompanyItems(companyID uuid.UUID) string {
	return fmt.Sprintf("items:company:%s", companyID)
}

func cacheKeyCompanyRooms(companyID uuid.UUID) string {
	return fmt.Sprintf("rooms:company:%s", companyID)
}

func cacheKeyRoomDetails(roomID int64) string {
	return fmt.Sprintf("rooms:details:%d", roomID)
}

func cacheKeyCompanyArrangements(companyID uuid.UUID) string {
	return fmt.Sprintf("arrangements:company:%s", companyID)
}

func cacheKeyCompanyBookings(companyID uuid.UUID) string {
	return fmt.Sprintf("bookings:company:%s", companyID)
}

func cacheKeyGuestBookings(guestID uuid.UUID) string {
	return fmt.Sprintf("bookings:guest:%s", guestID)
}

// invalidate удаляет ключи после успешного коммита. Ошибка кэша только
// логируется: следующая запись снова попытается удалить ключ.
func invalidate(ctx context.Context, cache ViewCache, log *zap.Logger, keys ...string) {
	if cache == nil || len(keys) == 0 {
		return
	}
	if err := cache.Delete(ctx, keys...); err != nil {
		log.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
