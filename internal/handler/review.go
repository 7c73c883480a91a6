package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wanderio/tourhub/internal/apperr"
	"github.com/wanderio/tourhub/internal/middleware"
	"github.com/wanderio/tourhub/internal/model"
	"github.com/wanderio/tourhub/internal/query"
	"github.com/wanderio/tourhub/internal/repository"
	"github.com/wanderio/tourhub/internal/service"
)

// reviewDTO is the API shape of a review, carrying the joined author.
type reviewDTO struct {
	ID        uint64    `json:"id"`
	Tour      uint64    `json:"tour"`
	Review    string    `json:"review"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	User      struct {
		ID    uint64 `json:"id"`
		Name  string `json:"name"`
		Photo string `json:"photo,omitempty"`
	} `json:"user"`
}

func toReviewDTO(v model.Review) reviewDTO {
	dto := reviewDTO{
		ID:        v.ID,
		Tour:      v.TourID,
		Review:    v.Review,
		Rating:    v.Rating,
		CreatedAt: v.CreatedAt,
	}
	dto.User.ID = v.UserID
	dto.User.Name = v.AuthorName
	dto.User.Photo = v.AuthorPhoto
	return dto
}

// ReviewHandler owns review CRUD, nested under tours or standalone. Every
// write is followed by an explicit rating recompute on the parent tour.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Ratings *service.Ratings
}

func NewReviewHandler(reviews *repository.ReviewRepo, ratings *service.Ratings) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews, Ratings: ratings}
}

// List serves reviews through the query spec, scoped to the parent tour when
// the route is nested.
func (h *ReviewHandler) List(c echo.Context) error {
	spec, err := query.Parse(c.QueryParams(), repository.ReviewResource)
	if err != nil {
		return err
	}
	if raw := c.Param("id"); raw != "" {
		tourID, err := pathID(c, "id")
		if err != nil {
			return err
		}
		spec = spec.And("r.tour_id", query.OpEq, tourID)
	}

	reviews, total, err := h.Reviews.List(c.Request().Context(), spec)
	if err != nil {
		return apperr.Internalf(err)
	}

	out := make([]reviewDTO, 0, len(reviews))
	for _, v := range reviews {
		out = append(out, toReviewDTO(v))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(out),
		"total":   total,
		"page":    spec.Page(),
		"data":    echo.Map{"reviews": out},
	})
}

// Get fetches one review.
func (h *ReviewHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	review, err := h.Reviews.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "no review found with that id")
		}
		return apperr.Internalf(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"review": toReviewDTO(review)},
	})
}

type reviewRequest struct {
	Review string `json:"review"`
	Rating int    `json:"rating"`
}

func (req *reviewRequest) validate() error {
	text := strings.TrimSpace(req.Review)
	if len(text) < 5 || len(text) > 500 {
		return apperr.New(apperr.Validation, "review must be between 5 and 500 characters")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return apperr.New(apperr.Validation, "rating must be between 1 and 5")
	}
	return nil
}

// Create posts a review on the tour named by the route; the author is the
// authenticated user. One review per user per tour.
func (h *ReviewHandler) Create(c echo.Context) error {
	tourID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	review := model.Review{
		TourID: tourID,
		UserID: user.ID,
		Review: strings.TrimSpace(req.Review),
		Rating: req.Rating,
	}
	id, err := h.Reviews.Create(ctx, &review)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return apperr.New(apperr.Validation, "you have already reviewed this tour")
		}
		return apperr.Internalf(err)
	}
	if err := h.Ratings.Recalculate(ctx, tourID); err != nil {
		return apperr.Internalf(err)
	}

	created, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		return apperr.Internalf(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status": "success",
		"data":   echo.Map{"review": toReviewDTO(created)},
	})
}

// Update rewrites a review's text and rating. The author may edit their own
// review; admins may edit any.
func (h *ReviewHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	review, err := h.loadOwned(c, id)
	if err != nil {
		return err
	}
	if err := h.Reviews.Update(ctx, id, strings.TrimSpace(req.Review), req.Rating); err != nil {
		return apperr.Internalf(err)
	}
	if err := h.Ratings.Recalculate(ctx, review.TourID); err != nil {
		return apperr.Internalf(err)
	}

	updated, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		return apperr.Internalf(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"review": toReviewDTO(updated)},
	})
}

// Delete removes a review and recomputes the tour's aggregate.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	review, err := h.loadOwned(c, id)
	if err != nil {
		return err
	}
	if err := h.Reviews.Delete(ctx, id); err != nil {
		return apperr.Internalf(err)
	}
	if err := h.Ratings.Recalculate(ctx, review.TourID); err != nil {
		return apperr.Internalf(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// loadOwned fetches the review and enforces that plain users only touch
// their own.
func (h *ReviewHandler) loadOwned(c echo.Context, id uint64) (model.Review, error) {
	review, err := h.Reviews.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Review{}, apperr.New(apperr.NotFound, "no review found with that id")
		}
		return model.Review{}, apperr.Internalf(err)
	}
	user := middleware.CurrentUser(c)
	if user.Role != model.RoleAdmin && review.UserID != user.ID {
		return model.Review{}, apperr.New(apperr.Authorization, "you can only modify your own reviews")
	}
	return review, nil
}
