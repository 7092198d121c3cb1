package routes

import (
	"log/slog"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/saeid-a/CoachBookingBack/internal/config"
	"github.com/saeid-a/CoachBookingBack/internal/handlers"
	"github.com/saeid-a/CoachBookingBack/internal/middleware"
	"github.com/saeid-a/CoachBookingBack/internal/policy"
	"github.com/saeid-a/CoachBookingBack/internal/repository"
	"github.com/saeid-a/CoachBookingBack/internal/services"
	feedws "github.com/saeid-a/CoachBookingBack/internal/websocket"
)

// Runtime carries the process-wide collaborators built in main.
type Runtime struct {
	Logger *slog.Logger
	Policy policy.Booking
	Hub    *feedws.Hub
	// Redis is optional. Without it the rate limiter is per instance.
	Redis redis.Scripter
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, rt Runtime) error {
	location, err := cfg.Location()
	if err != nil {
		return err
	}

	deps := services.Deps{
		Store:    repository.NewPgStore(db),
		Policy:   rt.Policy,
		Notifier: rt.Hub,
		Logger:   rt.Logger,
		Location: location,
		Now:      time.Now,
	}

	authService := services.NewAuthService(deps, services.AuthConfig{
		JWTSecret:     cfg.JWTSecret,
		TokenTTL:      cfg.JWTTTL,
		AdminPassword: cfg.AdminPassword,
	})
	availabilityService := services.NewAvailabilityService(deps)
	bookingService := services.NewBookingService(deps)
	lessonService := services.NewLessonService(deps)
	cancellationService := services.NewCancellationService(deps)
	invoiceService := services.NewInvoiceService(deps)
	favoritesService := services.NewFavoritesService(deps)

	authHandler := handlers.NewAuthHandler(authService, rt.Logger)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService, rt.Logger)
	lessonHandler := handlers.NewLessonHandler(bookingService, lessonService, cancellationService, rt.Logger)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, rt.Logger)
	coachHandler := handlers.NewCoachHandler(favoritesService, rt.Logger)
	feedHandler := handlers.NewFeedHandler(rt.Hub)

	authRequired := middleware.AuthRequired(cfg.JWTSecret, false)
	rateLimit := rateLimiter(cfg, rt)

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", rateLimit, authHandler.Register)
	auth.Post("/register/coach", rateLimit, authHandler.RegisterCoach)
	auth.Post("/login", rateLimit, authHandler.Login)
	auth.Get("/me", authRequired, authHandler.Me)

	availability := api.Group("/availability", authRequired)
	availability.Get("", availabilityHandler.ListAvailability)
	availability.Post("", availabilityHandler.CreateAvailability)
	availability.Put("/:id", availabilityHandler.UpdateAvailability)
	availability.Delete("/:id", availabilityHandler.DeleteAvailability)

	coaches := api.Group("/coaches", authRequired)
	coaches.Get("", coachHandler.ListCoaches)

	favorites := api.Group("/favorites", authRequired)
	favorites.Post("/:coach_uid", coachHandler.AddFavorite)
	favorites.Delete("/:coach_uid", coachHandler.RemoveFavorite)

	lessons := api.Group("/lessons", authRequired)
	lessons.Post("", rateLimit, lessonHandler.BookLesson)
	lessons.Get("/current", lessonHandler.ListCurrent)
	lessons.Patch("/:id/status", lessonHandler.UpdateStatus)
	lessons.Patch("/:id/cancel", lessonHandler.CancelLesson)
	lessons.Delete("/:id", lessonHandler.DeleteLesson)

	invoices := api.Group("/invoices", authRequired)
	invoices.Get("/current", invoiceHandler.ListCurrent)
	invoices.Patch("/:invoice_uid/pay", invoiceHandler.PayInvoice)

	api.Get("/ws/availability",
		middleware.AuthRequired(cfg.JWTSecret, true),
		feedHandler.Upgrade,
		websocket.New(feedHandler.Subscribe),
	)

	return nil
}

func rateLimiter(cfg *config.Config, rt Runtime) fiber.Handler {
	if rt.Redis != nil {
		return middleware.NewRedisRateLimiter(rt.Redis, cfg.RateLimitPerMinute, time.Minute, "booking").
			Handler(rt.Logger, cfg.RateLimitFailOpen)
	}
	return middleware.InMemoryRateLimit(cfg.RateLimitPerMinute, time.Minute)
}
