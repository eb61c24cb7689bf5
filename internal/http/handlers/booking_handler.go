// README: Booking handlers for create/list/detail, status changes, calendar and invoices.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"safari/internal/modules/booking"
)

const defaultCalendarDays = 30

type BookingService interface {
	Create(ctx context.Context, cmd booking.CreateCommand) (*booking.Booking, error)
	Get(ctx context.Context, id string) (*booking.Booking, error)
	List(ctx context.Context, f booking.Filter) ([]*booking.Booking, error)
	Confirm(ctx context.Context, id string) (*booking.Booking, error)
	Complete(ctx context.Context, id string) (*booking.Booking, error)
	Cancel(ctx context.Context, cmd booking.CancelCommand) (*booking.Booking, error)
	Delete(ctx context.Context, id string) error
	Events(ctx context.Context, id string) ([]booking.Event, error)
	Calendar(ctx context.Context, from, to booking.Date) ([]booking.Availability, error)
	Invoice(ctx context.Context, id string) ([]byte, string, error)
}

type BookingHandler struct {
	booking BookingService
	now     func() time.Time
}

func NewBookingHandler(svc BookingService) *BookingHandler {
	return &BookingHandler{booking: svc, now: time.Now}
}

func (h *BookingHandler) Create(c *gin.Context) {
	var cmd booking.CreateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json", "")
		return
	}
	b, err := h.booking.Create(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Location", "/api/bookings/"+b.ID)
	writeJSON(c, http.StatusCreated, b)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	b, err := h.booking.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) List(c *gin.Context) {
	f := booking.Filter{Status: booking.Status(c.Query("status"))}
	var ok bool
	if f.From, ok = queryDate(c, "from"); !ok {
		return
	}
	if f.To, ok = queryDate(c, "to"); !ok {
		return
	}
	if f.Limit, ok = queryInt(c, "limit", 0); !ok {
		writeError(c, http.StatusBadRequest, "bad_request", "limit must be an integer", "limit")
		return
	}
	if f.Offset, ok = queryInt(c, "offset", 0); !ok {
		writeError(c, http.StatusBadRequest, "bad_request", "offset must be an integer", "offset")
		return
	}
	list, err := h.booking.List(c.Request.Context(), f)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	b, err := h.booking.Confirm(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) Complete(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	b, err := h.booking.Complete(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

type cancelReq struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	var req cancelReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json", "")
		return
	}
	b, err := h.booking.Cancel(c.Request.Context(), booking.CancelCommand{ID: id, Actor: req.Actor, Reason: req.Reason})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) Delete(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	if err := h.booking.Delete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) Events(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	events, err := h.booking.Events(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"events": events})
}

// Calendar defaults to the next 30 days starting today.
func (h *BookingHandler) Calendar(c *gin.Context) {
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}
	if from.IsZero() {
		from = booking.NewDate(h.now())
	}
	if to.IsZero() {
		to = booking.NewDate(from.AddDate(0, 0, defaultCalendarDays))
	}
	days, err := h.booking.Calendar(c.Request.Context(), from, to)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"from": from, "to": to, "days": days})
}

func (h *BookingHandler) Invoice(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	pdf, name, err := h.booking.Invoice(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *BookingHandler) bookingID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "bad_request", "invalid booking id", "id")
		return "", false
	}
	return id, true
}

func queryDate(c *gin.Context, key string) (booking.Date, bool) {
	v := c.Query(key)
	if v == "" {
		return booking.Date{}, true
	}
	d, err := booking.ParseDate(v)
	if err != nil {
		writeError(c, http.StatusBadRequest, "bad_request", key+" must be YYYY-MM-DD", key)
		return booking.Date{}, false
	}
	return d, true
}
