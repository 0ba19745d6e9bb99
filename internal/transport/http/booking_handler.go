package http

import (
	"net/http"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BookingHandler struct {
	bookings service.BookingService
	log      *zap.Logger
}

func NewBookingHandler(bookings service.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, log: log}
}

const dateLayout = "2006-01-02"

type createRoomRequest struct {
	Name        string          `json:"name" binding:"required"`
	Capacity    int             `json:"capacity" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Amenities   []string        `json:"amenities"`
	ImageURL    string          `json:"image_url"`
	IsAvailable *bool           `json:"is_available"`
}

func (h *BookingHandler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid create room request", zap.Error(err))
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	room, err := h.bookings.CreateRoom(c.Request.Context(), service.CreateRoomInput{
		Name:        req.Name,
		Capacity:    req.Capacity,
		Price:       req.Price,
		Amenities:   req.Amenities,
		ImageURL:    req.ImageURL,
		IsAvailable: available,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *BookingHandler) GetRoom(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	room, err := h.bookings.GetRoom(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *BookingHandler) ListRooms(c *gin.Context) {
	onlyAvailable := c.Query("available") == "true"
	rooms, err := h.bookings.ListRooms(c.Request.Context(), onlyAvailable)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

type updateRoomRequest struct {
	Name        *string          `json:"name"`
	Capacity    *int             `json:"capacity"`
	Price       *decimal.Decimal `json:"price"`
	Amenities   *[]string        `json:"amenities"`
	ImageURL    *string          `json:"image_url"`
	IsAvailable *bool            `json:"is_available"`
}

func (h *BookingHandler) UpdateRoom(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req updateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}
	room, err := h.bookings.UpdateRoom(c.Request.Context(), id, service.UpdateRoomInput{
		Name:        req.Name,
		Capacity:    req.Capacity,
		Price:       req.Price,
		Amenities:   req.Amenities,
		ImageURL:    req.ImageURL,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *BookingHandler) DeleteRoom(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.bookings.DeleteRoom(c.Request.Context(), id); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createArrangementRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (h *BookingHandler) CreateArrangement(c *gin.Context) {
	var req createArrangementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid create arrangement request", zap.Error(err))
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}
	arr, err := h.bookings.CreateArrangement(c.Request.Context(), service.CreateArrangementInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, arr)
}

func (h *BookingHandler) GetArrangement(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	arr, err := h.bookings.GetArrangement(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, arr)
}

func (h *BookingHandler) ListArrangements(c *gin.Context) {
	arrs, err := h.bookings.ListArrangements(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"arrangements": arrs})
}

func (h *BookingHandler) DeleteArrangement(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.bookings.DeleteArrangement(c.Request.Context(), id); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckAvailability отвечает, свободна ли комната в запрошенном окне.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	window, ok := windowFromQuery(c)
	if !ok {
		return
	}

	var excludeID *uuid.UUID
	if raw := c.Query("exclude_booking_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, newError("validation_error", "invalid exclude_booking_id"))
			return
		}
		excludeID = &parsed
	}

	available, err := h.bookings.IsRoomAvailable(c.Request.Context(), id, window, excludeID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

func windowFromQuery(c *gin.Context) (service.BookingWindow, bool) {
	var w service.BookingWindow

	arrival, err := time.Parse(dateLayout, c.Query("arrival_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid arrival_date"))
		return w, false
	}
	w.ArrivalDate = arrival
	w.ArrivalTime = c.Query("arrival_time")
	w.EndTime = c.Query("end_time")
	if raw := c.Query("end_date"); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, newError("validation_error", "invalid end_date"))
			return w, false
		}
		w.EndDate = &end
	}
	return w, true
}

type createBookingRequest struct {
	MeetingRoomID     *int64 `json:"meeting_room_id"`
	SeatArrangementID *int64 `json:"seat_arrangement_id"`

	ArrivalDate string  `json:"arrival_date" binding:"required"`
	ArrivalTime string  `json:"arrival_time" binding:"required"`
	EndDate     *string `json:"end_date"`
	EndTime     string  `json:"end_time" binding:"required"`

	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	StaffName    string `json:"staff_name"`
	Notes        string `json:"notes"`

	TotalAmount decimal.Decimal `json:"total_amount"`
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid create booking request", zap.Error(err))
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}

	arrival, err := time.Parse(dateLayout, req.ArrivalDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid arrival_date"))
		return
	}
	window := service.BookingWindow{
		ArrivalDate: arrival,
		ArrivalTime: req.ArrivalTime,
		EndTime:     req.EndTime,
	}
	if req.EndDate != nil {
		end, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, newError("validation_error", "invalid end_date"))
			return
		}
		window.EndDate = &end
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), service.CreateBookingInput{
		MeetingRoomID:     req.MeetingRoomID,
		SeatArrangementID: req.SeatArrangementID,
		Window:            window,
		ContactName:       req.ContactName,
		ContactEmail:      req.ContactEmail,
		ContactPhone:      req.ContactPhone,
		StaffName:         req.StaffName,
		Notes:             req.Notes,
		TotalAmount:       req.TotalAmount,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid booking id"))
		return
	}
	booking, err := h.bookings.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	var f service.ListBookingsFilter
	if raw := c.Query("status"); raw != "" {
		status := models.BookingStatus(raw)
		f.Status = &status
	}
	f.Limit = intQuery(c, "limit")
	f.Offset = intQuery(c, "offset")

	bookings, total, err := h.bookings.ListBookings(c.Request.Context(), f)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "total": total})
}

type updateBookingRequest struct {
	MeetingRoomID *int64 `json:"meeting_room_id"`
	ClearRoom     bool   `json:"clear_room"`

	SeatArrangementID *int64 `json:"seat_arrangement_id"`
	ClearArrangement  bool   `json:"clear_arrangement"`

	ArrivalDate *string `json:"arrival_date"`
	ArrivalTime *string `json:"arrival_time"`
	EndDate     *string `json:"end_date"`
	ClearEnd    bool    `json:"clear_end"`
	EndTime     *string `json:"end_time"`

	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
	StaffName    *string `json:"staff_name"`
	Notes        *string `json:"notes"`

	TotalAmount *decimal.Decimal      `json:"total_amount"`
	Status      *models.BookingStatus `json:"status"`
}

func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid booking id"))
		return
	}
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}

	in := service.UpdateBookingInput{
		MeetingRoomID:     req.MeetingRoomID,
		ClearRoom:         req.ClearRoom,
		SeatArrangementID: req.SeatArrangementID,
		ClearArrangement:  req.ClearArrangement,
		ArrivalTime:       req.ArrivalTime,
		ClearEnd:          req.ClearEnd,
		EndTime:           req.EndTime,
		ContactName:       req.ContactName,
		ContactEmail:      req.ContactEmail,
		ContactPhone:      req.ContactPhone,
		StaffName:         req.StaffName,
		Notes:             req.Notes,
		TotalAmount:       req.TotalAmount,
		Status:            req.Status,
	}
	if req.ArrivalDate != nil {
		arrival, err := time.Parse(dateLayout, *req.ArrivalDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, newError("validation_error", "invalid arrival_date"))
			return
		}
		in.ArrivalDate = &arrival
	}
	if req.EndDate != nil {
		end, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, newError("validation_error", "invalid end_date"))
			return
		}
		in.EndDate = &end
	}

	booking, err := h.bookings.UpdateBooking(c.Request.Context(), id, in)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid booking id"))
		return
	}
	booking, err := h.bookings.CancelBooking(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
