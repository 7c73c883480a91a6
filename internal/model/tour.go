package model

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty is the closed set of tour difficulty grades.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// ParseDifficulty validates a raw difficulty string.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Tour mirrors the `tours` table plus its child tables. StartDates and
// GuideIDs come from tour_start_dates and tour_guides respectively and are
// loaded only on detail reads. Secret tours never appear in public listings;
// the repository adds that predicate at query construction.
type Tour struct {
	ID               uint64      // tours.id
	Name             string      // tours.name
	Slug             string      // tours.slug
	DurationDays     int         // tours.duration_days
	MaxGroupSize     int         // tours.max_group_size
	Difficulty       Difficulty  // tours.difficulty
	RatingsAverage   float64     // tours.ratings_average
	RatingsQuantity  int         // tours.ratings_quantity
	Price            float64     // tours.price
	PriceDiscount    *float64    // tours.price_discount (nullable)
	Summary          string      // tours.summary
	Description      string      // tours.description
	ImageCover       string      // tours.image_cover
	Secret           bool        // tours.secret
	StartLat         float64     // tours.start_lat
	StartLng         float64     // tours.start_lng
	StartAddress     string      // tours.start_address
	StartDescription string      // tours.start_description
	Version          int         // tours.row_version
	CreatedAt        time.Time   // tours.created_at
	UpdatedAt        time.Time   // tours.updated_at
	StartDates       []time.Time // tour_start_dates.starts_on
	GuideIDs         []uint64    // tour_guides.user_id
}

// DurationWeeks derives the duration in weeks; it is never persisted.
func (t *Tour) DurationWeeks() float64 {
	return float64(t.DurationDays) / 7
}

// Slugify produces the URL slug stored alongside a tour name.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
