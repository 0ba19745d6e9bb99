package http

import (
	"net/http"

	"backoffice-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Заголовки, которые проставляет API-шлюз после проверки токена.
const (
	headerUserID    = "X-User-ID"
	headerUserType  = "X-User-Type"
	headerCompanyID = "X-Company-ID"
)

// Identity переносит личность вызывающего из заголовков шлюза в контекст
// запроса. Сервис доверяет шлюзу: сам токены не проверяет.
func Identity(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := c.GetHeader(headerUserID)
		if rawID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newError("unauthorized", "missing identity headers"))
			return
		}
		uid, err := uuid.Parse(rawID)
		if err != nil {
			log.Warn("malformed user id header", zap.String("value", rawID))
			c.AbortWithStatusJSON(http.StatusUnauthorized, newError("unauthorized", "invalid user id"))
			return
		}

		ctx := service.WithUserID(c.Request.Context(), uid)

		switch ut := service.UserType(c.GetHeader(headerUserType)); ut {
		case service.UserTypeCompany, service.UserTypeStaff, service.UserTypeGuest:
			ctx = service.WithUserType(ctx, ut)
		default:
			ctx = service.WithUserType(ctx, service.UserTypeGuest)
		}

		if rawCompany := c.GetHeader(headerCompanyID); rawCompany != "" {
			cid, err := uuid.Parse(rawCompany)
			if err != nil {
				log.Warn("malformed company id header", zap.String("value", rawCompany))
				c.AbortWithStatusJSON(http.StatusUnauthorized, newError("unauthorized", "invalid company id"))
				return
			}
			ctx = service.WithCompanyID(ctx, cid)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
