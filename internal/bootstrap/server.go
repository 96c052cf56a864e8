package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/campushub/api"
	"github.com/Domenick1991/campushub/config"
	"github.com/Domenick1991/campushub/internal/service/admin"
	"github.com/Domenick1991/campushub/internal/service/booking"
	"github.com/Domenick1991/campushub/internal/service/concierge"
	"github.com/Domenick1991/campushub/internal/service/messaging"
	"github.com/Domenick1991/campushub/internal/service/notifications"
	"github.com/Domenick1991/campushub/internal/service/resources"
	"github.com/Domenick1991/campushub/internal/service/reviews"
	"github.com/Domenick1991/campushub/internal/service/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Services bundles the use cases exposed over HTTP. RateLimiter may be nil.
type Services struct {
	Users         users.UserUseCase
	Resources     resources.ResourceUseCase
	Bookings      booking.BookingUseCase
	Messaging     messaging.MessagingUseCase
	Reviews       reviews.ReviewUseCase
	Concierge     concierge.ConciergeUseCase
	Notifications notifications.NotificationUseCase
	Admin         admin.AdminUseCase
	RateLimiter   api.RateLimiter
}

// Run serves the API and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services, logger *zap.Logger) error {
	router, err := NewRouter(cfg, svc, logger)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("http server stopped")
		return nil
	}
}

func NewRouter(cfg *config.Config, svc Services, logger *zap.Logger) (*gin.Engine, error) {
	if err := api.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.HTTP.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFile("/docs/swagger.json", filepath.Join(cfg.HTTP.SwaggerDir, "swagger.json"))
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/docs/swagger.json"))))
	}

	v1 := router.Group("/api/v1", api.Authenticate(svc.Users))
	api.NewAuthHandler(svc.Users).Register(v1.Group("/auth"))
	api.NewResourceHandler(svc.Resources).Register(v1.Group("/resources"))
	api.NewBookingHandler(svc.Bookings).Register(v1.Group("/bookings"))
	api.NewWaitlistHandler(svc.Bookings).Register(v1.Group("/waitlist"))
	api.NewMessageHandler(svc.Messaging, svc.RateLimiter, logger).Register(v1.Group("/messages"))
	api.NewReviewHandler(svc.Reviews).Register(v1.Group("/reviews"))
	api.NewConciergeHandler(svc.Concierge).Register(v1.Group("/concierge"))
	api.NewNotificationHandler(svc.Notifications).Register(v1.Group("/notifications"))
	api.NewAdminHandler(svc.Admin).Register(v1.Group("/admin"))

	return router, nil
}
