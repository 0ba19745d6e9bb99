package service

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxUserIDKey    ctxKey = "userID"
	ctxUserTypeKey  ctxKey = "userType"
	ctxCompanyIDKey ctxKey = "companyID"
)

type UserType string

const (
	UserTypeCompany UserType = "USER_TYPE_COMPANY"
	UserTypeStaff   UserType = "USER_TYPE_STAFF"
	UserTypeGuest   UserType = "USER_TYPE_GUEST"
)

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, id)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ctxUserIDKey).(uuid.UUID)
	return v, ok
}

func WithUserType(ctx context.Context, t UserType) context.Context {
	return context.WithValue(ctx, ctxUserTypeKey, t)
}

func UserTypeFromContext(ctx context.Context) (UserType, bool) {
	v, ok := ctx.Value(ctxUserTypeKey).(UserType)
	return v, ok
}

// WithCompanyID привязывает компанию сотрудника или гостя. Для пользователей
// типа COMPANY ключ не нужен: их company id совпадает с user id.
func WithCompanyID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxCompanyIDKey, id)
}

func CompanyIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ctxCompanyIDKey).(uuid.UUID)
	return v, ok
}

func requireAuth(ctx context.Context) (uuid.UUID, UserType, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, "", ErrUnauthorized
	}
	ut, ok := UserTypeFromContext(ctx)
	if !ok {
		ut = UserTypeGuest // по умолчанию считаем гостя
	}
	return uid, ut, nil
}

// companyScope возвращает company id вызывающего: для компании — её же id,
// для сотрудника и гостя — компанию из контекста.
func companyScope(ctx context.Context) (uuid.UUID, error) {
	uid, ut, err := requireAuth(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if ut == UserTypeCompany {
		return uid, nil
	}
	cid, ok := CompanyIDFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	return cid, nil
}
