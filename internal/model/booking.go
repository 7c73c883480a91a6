package model

import "time"

// BookingStatus tracks a booking through checkout.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingPaid      BookingStatus = "paid"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking mirrors the `bookings` table. Price is captured from the tour at
// checkout time so later price changes do not rewrite history. Checkout
// creates the row as pending; settlement against a payment provider happens
// outside this service.
type Booking struct {
	ID        uint64        // bookings.id
	TourID    uint64        // bookings.tour_id
	UserID    uint64        // bookings.user_id
	Price     float64       // bookings.price
	Paid      bool          // bookings.paid
	Status    BookingStatus // bookings.status
	Version   int           // bookings.row_version
	CreatedAt time.Time     // bookings.created_at
	UpdatedAt time.Time     // bookings.updated_at
	TourName  string        // tours.name (joined)
}
