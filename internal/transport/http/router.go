package http

import (
	"backoffice-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Router(orders service.OrderService, splits service.SplitService, items service.ItemService, bookings service.BookingService, log *zap.Logger) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", headerUserID, headerUserType, headerCompanyID},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	orderHandler := NewOrderHandler(orders, log)
	splitHandler := NewSplitHandler(splits, log)
	itemHandler := NewItemHandler(items, log)
	bookingHandler := NewBookingHandler(bookings, log)

	// Редирект платёжного провайдера приходит без заголовков шлюза.
	r.GET("/payments/callback", orderHandler.PaymentCallback)

	api := r.Group("/api/v1", Identity(log))
	{
		api.POST("/orders", orderHandler.Create)
		api.GET("/orders", orderHandler.List)
		api.GET("/orders/:id", orderHandler.Get)
		api.PATCH("/orders/:id/status", orderHandler.UpdateStatus)
		api.POST("/orders/:id/cancel", orderHandler.Cancel)
		api.POST("/orders/:id/payment/retry", orderHandler.RetryPaymentLink)

		api.POST("/orders/:id/split", splitHandler.SplitOrder)
		api.DELETE("/orders/:id/split", splitHandler.DeleteSplitOrder)
		api.POST("/orders/:id/bill-splits", splitHandler.SplitBill)
		api.PUT("/orders/:id/bill-splits", splitHandler.ReissueBillSplits)
		api.GET("/orders/:id/bill-splits", splitHandler.ListBillSplits)

		api.POST("/items", itemHandler.Create)
		api.GET("/items", itemHandler.List)
		api.GET("/items/:id", itemHandler.Get)
		api.PATCH("/items/:id", itemHandler.Update)
		api.DELETE("/items/:id", itemHandler.Delete)
		api.POST("/items/:id/stock", itemHandler.AddStock)
		api.GET("/items/:id/stock", itemHandler.ListStock)
		api.PATCH("/stocks/:id", itemHandler.UpdateStock)

		api.POST("/rooms", bookingHandler.CreateRoom)
		api.GET("/rooms", bookingHandler.ListRooms)
		api.GET("/rooms/:id", bookingHandler.GetRoom)
		api.PATCH("/rooms/:id", bookingHandler.UpdateRoom)
		api.DELETE("/rooms/:id", bookingHandler.DeleteRoom)
		api.GET("/rooms/:id/availability", bookingHandler.CheckAvailability)

		api.POST("/arrangements", bookingHandler.CreateArrangement)
		api.GET("/arrangements", bookingHandler.ListArrangements)
		api.GET("/arrangements/:id", bookingHandler.GetArrangement)
		api.DELETE("/arrangements/:id", bookingHandler.DeleteArrangement)

		api.POST("/bookings", bookingHandler.CreateBooking)
		api.GET("/bookings", bookingHandler.ListBookings)
		api.GET("/bookings/:id", bookingHandler.GetBooking)
		api.PATCH("/bookings/:id", bookingHandler.UpdateBooking)
		api.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
	}

	return r
}
