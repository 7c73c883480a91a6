package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wanderio/tourhub/internal/apperr"
	"github.com/wanderio/tourhub/internal/model"
	"github.com/wanderio/tourhub/internal/query"
	"github.com/wanderio/tourhub/internal/repository"
)

// kmPerMile converts between the haversine kilometers and unit=mi requests.
const kmPerMile = 1.609344

// tourDTO is the API shape of a tour. Listing responses are projected, so
// unselected fields stay at their zero value and are omitted.
type tourDTO struct {
	ID               uint64           `json:"id"`
	Name             string           `json:"name,omitempty"`
	Slug             string           `json:"slug,omitempty"`
	Duration         int              `json:"duration,omitempty"`
	DurationWeeks    float64          `json:"durationWeeks,omitempty"`
	MaxGroupSize     int              `json:"maxGroupSize,omitempty"`
	Difficulty       model.Difficulty `json:"difficulty,omitempty"`
	RatingsAverage   float64          `json:"ratingsAverage,omitempty"`
	RatingsQuantity  int              `json:"ratingsQuantity,omitempty"`
	Price            float64          `json:"price,omitempty"`
	PriceDiscount    *float64         `json:"priceDiscount,omitempty"`
	Summary          string           `json:"summary,omitempty"`
	Description      string           `json:"description,omitempty"`
	ImageCover       string           `json:"imageCover,omitempty"`
	StartAddress     string           `json:"startAddress,omitempty"`
	StartDescription string           `json:"startDescription,omitempty"`
	StartLat         float64          `json:"startLat,omitempty"`
	StartLng         float64          `json:"startLng,omitempty"`
	StartDates       []time.Time      `json:"startDates,omitempty"`
	Guides           []uint64         `json:"guides,omitempty"`
	CreatedAt        *time.Time       `json:"createdAt,omitempty"`
}

func toTourDTO(t model.Tour) tourDTO {
	dto := tourDTO{
		ID:               t.ID,
		Name:             t.Name,
		Slug:             t.Slug,
		Duration:         t.DurationDays,
		MaxGroupSize:     t.MaxGroupSize,
		Difficulty:       t.Difficulty,
		RatingsAverage:   t.RatingsAverage,
		RatingsQuantity:  t.RatingsQuantity,
		Price:            t.Price,
		PriceDiscount:    t.PriceDiscount,
		Summary:          t.Summary,
		Description:      t.Description,
		ImageCover:       t.ImageCover,
		StartAddress:     t.StartAddress,
		StartDescription: t.StartDescription,
		StartLat:         t.StartLat,
		StartLng:         t.StartLng,
		StartDates:       t.StartDates,
		Guides:           t.GuideIDs,
	}
	if t.DurationDays > 0 {
		dto.DurationWeeks = t.DurationWeeks()
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt
		dto.CreatedAt = &created
	}
	return dto
}

// TourHandler owns the tour catalogue: listing, detail, writes and the
// aggregation/geo endpoints.
type TourHandler struct {
	Tours   *repository.TourRepo
	Reviews *repository.ReviewRepo
}

func NewTourHandler(tours *repository.TourRepo, reviews *repository.ReviewRepo) *TourHandler {
	return &TourHandler{Tours: tours, Reviews: reviews}
}

// List serves the public tour catalogue through the query spec.
func (h *TourHandler) List(c echo.Context) error {
	return h.list(c, c.QueryParams())
}

// TopCheap is the curated "best five" alias: a fixed spec rather than a
// client-supplied one.
func (h *TourHandler) TopCheap(c echo.Context) error {
	return h.list(c, url.Values{
		"limit":  {"5"},
		"sort":   {"-ratingsAverage,price"},
		"fields": {"name,price,ratingsAverage,summary,difficulty"},
	})
}

func (h *TourHandler) list(c echo.Context, values url.Values) error {
	spec, err := query.Parse(values, repository.TourResource)
	if err != nil {
		return err
	}

	tours, total, err := h.Tours.List(c.Request().Context(), spec)
	if err != nil {
		return apperr.Internalf(err)
	}

	out := make([]tourDTO, 0, len(tours))
	for _, t := range tours {
		out = append(out, toTourDTO(t))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(out),
		"total":   total,
		"page":    spec.Page(),
		"data":    echo.Map{"tours": out},
	})
}

// Get fetches one tour with its start dates, guides and reviews.
func (h *TourHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	tour, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "no tour found with that id")
		}
		return apperr.Internalf(err)
	}

	spec, err := query.Parse(url.Values{}, repository.ReviewResource)
	if err != nil {
		return apperr.Internalf(err)
	}
	reviews, _, err := h.Reviews.List(ctx, spec.And("r.tour_id", query.OpEq, id))
	if err != nil {
		return apperr.Internalf(err)
	}
	revOut := make([]reviewDTO, 0, len(reviews))
	for _, v := range reviews {
		revOut = append(revOut, toReviewDTO(v))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data": echo.Map{
			"tour":    toTourDTO(tour),
			"reviews": revOut,
		},
	})
}

type tourRequest struct {
	Name             string      `json:"name"`
	Duration         int         `json:"duration"`
	MaxGroupSize     int         `json:"maxGroupSize"`
	Difficulty       string      `json:"difficulty"`
	Price            float64     `json:"price"`
	PriceDiscount    *float64    `json:"priceDiscount"`
	Summary          string      `json:"summary"`
	Description      string      `json:"description"`
	ImageCover       string      `json:"imageCover"`
	Secret           bool        `json:"secret"`
	StartLat         float64     `json:"startLat"`
	StartLng         float64     `json:"startLng"`
	StartAddress     string      `json:"startAddress"`
	StartDescription string      `json:"startDescription"`
	StartDates       []time.Time `json:"startDates"`
	Guides           []uint64    `json:"guides"`
}

// toModel validates the write payload into a tour value.
func (req *tourRequest) toModel() (model.Tour, error) {
	if strings.TrimSpace(req.Name) == "" {
		return model.Tour{}, apperr.New(apperr.Validation, "a tour must have a name")
	}
	if req.Duration <= 0 {
		return model.Tour{}, apperr.New(apperr.Validation, "a tour must have a duration")
	}
	if req.MaxGroupSize <= 0 {
		return model.Tour{}, apperr.New(apperr.Validation, "a tour must have a group size")
	}
	difficulty, err := model.ParseDifficulty(req.Difficulty)
	if err != nil {
		return model.Tour{}, apperr.New(apperr.Validation, "difficulty is either: easy, medium, difficult")
	}
	if req.Price <= 0 {
		return model.Tour{}, apperr.New(apperr.Validation, "a tour must have a price")
	}
	if req.PriceDiscount != nil && *req.PriceDiscount >= req.Price {
		return model.Tour{}, apperr.New(apperr.Validation, "discount price should be below the regular price")
	}
	return model.Tour{
		Name:             strings.TrimSpace(req.Name),
		DurationDays:     req.Duration,
		MaxGroupSize:     req.MaxGroupSize,
		Difficulty:       difficulty,
		Price:            req.Price,
		PriceDiscount:    req.PriceDiscount,
		Summary:          req.Summary,
		Description:      req.Description,
		ImageCover:       req.ImageCover,
		Secret:           req.Secret,
		StartLat:         req.StartLat,
		StartLng:         req.StartLng,
		StartAddress:     req.StartAddress,
		StartDescription: req.StartDescription,
		StartDates:       req.StartDates,
		GuideIDs:         req.Guides,
	}, nil
}

// Create inserts a tour (admin, lead-guide).
func (h *TourHandler) Create(c echo.Context) error {
	var req tourRequest
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	tour, err := req.toModel()
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	id, err := h.Tours.Create(ctx, &tour)
	if err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return apperr.New(apperr.Validation, "a tour with that name already exists")
		}
		return apperr.Internalf(err)
	}
	created, err := h.Tours.GetByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperr.Internalf(err)
	}
	if errors.Is(err, repository.ErrNotFound) {
		// Secret tours are invisible to the scoped read; echo the input.
		created = tour
		created.ID = id
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status": "success",
		"data":   echo.Map{"tour": toTourDTO(created)},
	})
}

// Update rewrites a tour (admin, lead-guide).
func (h *TourHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req tourRequest
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	tour, err := req.toModel()
	if err != nil {
		return err
	}
	tour.ID = id

	ctx := c.Request().Context()
	if err := h.Tours.Update(ctx, &tour); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperr.New(apperr.NotFound, "no tour found with that id")
		case errors.Is(err, repository.ErrNameExists):
			return apperr.New(apperr.Validation, "a tour with that name already exists")
		}
		return apperr.Internalf(err)
	}
	updated, err := h.Tours.GetByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperr.Internalf(err)
	}
	if errors.Is(err, repository.ErrNotFound) {
		updated = tour
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"tour": toTourDTO(updated)},
	})
}

// Delete removes a tour (admin, lead-guide).
func (h *TourHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Tours.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "no tour found with that id")
		}
		return apperr.Internalf(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats serves the per-difficulty aggregation over well-rated tours.
func (h *TourHandler) Stats(c echo.Context) error {
	stats, err := h.Tours.Stats(c.Request().Context())
	if err != nil {
		return apperr.Internalf(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"stats": stats},
	})
}

// MonthlyPlan serves per-month start counts for a year.
func (h *TourHandler) MonthlyPlan(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		return apperr.New(apperr.Validation, "invalid year parameter")
	}
	plan, err := h.Tours.MonthlyPlan(c.Request().Context(), year)
	if err != nil {
		return apperr.Internalf(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(plan),
		"data":    echo.Map{"plan": plan},
	})
}

// parseLatLng splits the "lat,lng" path segment.
func parseLatLng(raw string) (float64, float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, apperr.New(apperr.Validation, "please provide latitude and longitude in the format lat,lng")
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, apperr.New(apperr.Validation, "please provide latitude and longitude in the format lat,lng")
	}
	return lat, lng, nil
}

// parseUnit accepts "km" or "mi".
func parseUnit(raw string) (string, error) {
	if raw != "km" && raw != "mi" {
		return "", apperr.New(apperr.Validation, "unit must be km or mi")
	}
	return raw, nil
}

// Within lists tours starting inside a radius of a center point.
// Route shape: /tours-within/:distance/center/:latlng/unit/:unit.
func (h *TourHandler) Within(c echo.Context) error {
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil || distance <= 0 {
		return apperr.New(apperr.Validation, "invalid distance parameter")
	}
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		return err
	}
	unit, err := parseUnit(c.Param("unit"))
	if err != nil {
		return err
	}

	radiusKm := distance
	if unit == "mi" {
		radiusKm = distance * kmPerMile
	}

	tours, err := h.Tours.Within(c.Request().Context(), lat, lng, radiusKm)
	if err != nil {
		return apperr.Internalf(err)
	}
	out := make([]tourDTO, 0, len(tours))
	for _, t := range tours {
		out = append(out, toTourDTO(t))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(out),
		"data":    echo.Map{"tours": out},
	})
}

// Distances lists every tour with its distance from a point, nearest first.
func (h *TourHandler) Distances(c echo.Context) error {
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		return err
	}
	unit, err := parseUnit(c.Param("unit"))
	if err != nil {
		return err
	}

	distances, err := h.Tours.Distances(c.Request().Context(), lat, lng)
	if err != nil {
		return apperr.Internalf(err)
	}
	if unit == "mi" {
		for i := range distances {
			distances[i].Distance /= kmPerMile
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(distances),
		"data":    echo.Map{"distances": distances},
	})
}
