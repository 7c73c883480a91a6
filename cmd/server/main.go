package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/wanderio/tourhub/internal/config"
	"github.com/wanderio/tourhub/internal/database"
	"github.com/wanderio/tourhub/internal/handler"
	"github.com/wanderio/tourhub/internal/logger"
	"github.com/wanderio/tourhub/internal/middleware"
	"github.com/wanderio/tourhub/internal/queue"
	"github.com/wanderio/tourhub/internal/repository"
	"github.com/wanderio/tourhub/internal/router"
	"github.com/wanderio/tourhub/internal/service"
)

func main() {
	_ = godotenv.Load()
	logger.SetupDefault(os.Stdout)

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		slog.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware degrades

	// email worker: drains the email.send queue in the background
	go func() {
		if err := queue.StartEmailConsumer(); err != nil {
			slog.Error("email consumer stopped", "error", err)
		}
	}()

	userRepo := repository.NewUserRepo(db)
	tourRepo := repository.NewTourRepo(db)
	reviewRepo := repository.NewReviewRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	mailer := service.NewQueueMailer()
	ratings := service.NewRatings(reviewRepo, tourRepo)

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, userRepo, mailer),
		Users:    handler.NewUserHandler(userRepo),
		Tours:    handler.NewTourHandler(tourRepo, reviewRepo),
		Reviews:  handler.NewReviewHandler(reviewRepo, ratings),
		Bookings: handler.NewBookingHandler(bookingRepo, tourRepo, mailer),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(cfg.Production())
	e.Use(middleware.RequestLogger())

	router.Register(e, h, cfg, userRepo, rdb)

	addr := ":" + cfg.Port
	slog.Info("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
