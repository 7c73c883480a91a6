package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wanderio/tourhub/internal/apperr"
	"github.com/wanderio/tourhub/internal/middleware"
	"github.com/wanderio/tourhub/internal/model"
	"github.com/wanderio/tourhub/internal/query"
	"github.com/wanderio/tourhub/internal/queue"
	"github.com/wanderio/tourhub/internal/repository"
	"github.com/wanderio/tourhub/internal/service"
)

// bookingDTO is the API shape of a booking.
type bookingDTO struct {
	ID        uint64              `json:"id"`
	Tour      uint64              `json:"tour"`
	TourName  string              `json:"tourName,omitempty"`
	User      uint64              `json:"user"`
	Price     float64             `json:"price"`
	Paid      bool                `json:"paid"`
	Status    model.BookingStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

func toBookingDTO(b model.Booking) bookingDTO {
	return bookingDTO{ID: b.ID, Tour: b.TourID, TourName: b.TourName, User: b.UserID,
		Price: b.Price, Paid: b.Paid, Status: b.Status, CreatedAt: b.CreatedAt}
}

// BookingHandler owns checkout and booking management. Checkout records a
// pending booking priced from the tour; settlement against a payment
// provider happens outside this service.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Tours    *repository.TourRepo
	Mailer   service.Mailer
}

func NewBookingHandler(bookings *repository.BookingRepo, tours *repository.TourRepo, mailer service.Mailer) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Tours: tours, Mailer: mailer}
}

// Checkout creates a pending booking for the authenticated user on the tour
// named by the route.
func (h *BookingHandler) Checkout(c echo.Context) error {
	tourID, err := pathID(c, "tourId")
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)

	ctx := c.Request().Context()
	tour, err := h.Tours.GetByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "no tour found with that id")
		}
		return apperr.Internalf(err)
	}

	price := tour.Price
	if tour.PriceDiscount != nil {
		price = *tour.PriceDiscount
	}
	booking := model.Booking{
		TourID: tour.ID,
		UserID: user.ID,
		Price:  price,
		Paid:   false,
		Status: model.BookingPending,
	}
	id, err := h.Bookings.Create(ctx, &booking)
	if err != nil {
		return apperr.Internalf(err)
	}

	// Confirmation mail is best-effort; the booking stands either way.
	_ = h.Mailer.Send(ctx, queue.EmailRequestedEvent{
		To:       user.Email,
		Name:     user.Name,
		URL:      requestURL(c, "/api/v1/bookings/my-bookings"),
		Template: queue.TemplateBookingCreated,
	})

	created, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		return apperr.Internalf(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status": "success",
		"data":   echo.Map{"booking": toBookingDTO(created)},
	})
}

// MyBookings lists the authenticated user's bookings, newest first.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	user := middleware.CurrentUser(c)
	bookings, err := h.Bookings.ListByUser(c.Request().Context(), user.ID)
	if err != nil {
		return apperr.Internalf(err)
	}
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(out),
		"data":    echo.Map{"bookings": out},
	})
}

// List is the management listing across all bookings, driven by the query
// spec (admin, lead-guide).
func (h *BookingHandler) List(c echo.Context) error {
	spec, err := query.Parse(c.QueryParams(), repository.BookingResource)
	if err != nil {
		return err
	}
	bookings, total, err := h.Bookings.List(c.Request().Context(), spec)
	if err != nil {
		return apperr.Internalf(err)
	}
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(out),
		"total":   total,
		"page":    spec.Page(),
		"data":    echo.Map{"bookings": out},
	})
}

// Get fetches one booking (admin, lead-guide).
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	booking, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "no booking found with that id")
		}
		return apperr.Internalf(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"booking": toBookingDTO(booking)},
	})
}

// UpdateStatus moves a booking through checkout states (admin, lead-guide).
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	status := model.BookingStatus(req.Status)
	switch status {
	case model.BookingPending, model.BookingPaid, model.BookingCancelled:
	default:
		return apperr.New(apperr.Validation, "status must be one of: pending, paid, cancelled")
	}

	ctx := c.Request().Context()
	if err := h.Bookings.UpdateStatus(ctx, id, status, status == model.BookingPaid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "no booking found with that id")
		}
		return apperr.Internalf(err)
	}
	booking, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		return apperr.Internalf(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"booking": toBookingDTO(booking)},
	})
}

// Delete removes a booking (admin, lead-guide).
func (h *BookingHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Bookings.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "no booking found with that id")
		}
		return apperr.Internalf(err)
	}
	return c.NoContent(http.StatusNoContent)
}
