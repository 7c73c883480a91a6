package model

import "time"

// Review mirrors the `reviews` table. Each user may review a tour at most
// once (UNIQUE on tour_id+user_id). AuthorName and AuthorPhoto are joined
// from users on reads so listings carry the reviewer without another query.
type Review struct {
	ID          uint64    // reviews.id
	TourID      uint64    // reviews.tour_id
	UserID      uint64    // reviews.user_id
	Review      string    // reviews.review
	Rating      int       // reviews.rating
	Version     int       // reviews.row_version
	CreatedAt   time.Time // reviews.created_at
	UpdatedAt   time.Time // reviews.updated_at
	AuthorName  string    // users.name (joined)
	AuthorPhoto string    // users.photo (joined)
}
