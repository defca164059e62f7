package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/loyalprogram/loyalty-api/internal/config"
	"github.com/loyalprogram/loyalty-api/internal/domain/auth"
	"github.com/loyalprogram/loyalty-api/internal/domain/dashboard"
	"github.com/loyalprogram/loyalty-api/internal/domain/event"
	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
	"github.com/loyalprogram/loyalty-api/internal/domain/notification"
	"github.com/loyalprogram/loyalty-api/internal/domain/profile"
	"github.com/loyalprogram/loyalty-api/internal/domain/promotion"
	"github.com/loyalprogram/loyalty-api/internal/domain/redemption"
	"github.com/loyalprogram/loyalty-api/internal/domain/scan"
	"github.com/loyalprogram/loyalty-api/internal/middleware"
	"github.com/loyalprogram/loyalty-api/internal/pkg/imaging"
	"github.com/loyalprogram/loyalty-api/internal/pkg/jwt"
	pkgresponse "github.com/loyalprogram/loyalty-api/internal/pkg/response"
	"github.com/loyalprogram/loyalty-api/internal/pkg/storage"
)

const version = "1.0.0"

// app holds the long-lived pieces main has to start and stop.
type app struct {
	router  chi.Router
	hub     *notification.Hub
	limiter *middleware.RateLimiter
}

func exportStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.ExportsToR2() {
		return storage.NewR2Storage(ctx, storage.R2Config{
			AccountID:       cfg.ExportR2AccountID,
			AccessKeyID:     cfg.ExportR2AccessKeyID,
			AccessKeySecret: cfg.ExportR2AccessKeySecret,
			BucketName:      cfg.ExportR2BucketName,
			PublicURL:       cfg.ExportR2PublicURL,
		})
	}
	return storage.NewLocalStorage(cfg.ExportLocalDir, cfg.ExportLocalURL)
}

func newApp(cfg *config.Config, b *backends, redisClient *redis.Client, exports storage.Storage) *app {
	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	qr := imaging.NewQRRenderer(imaging.QRConfig{Margin: 16})

	hub := notification.NewHub(redisClient, cfg.BannerTTL)

	// ---------- Services ----------
	ledgerService := ledger.NewService(b.ledger, hub)
	redemptionService := redemption.NewService(b.redemptions, ledgerService, hub)
	dispatcher := scan.NewDispatcher(ledgerService, redemptionService)
	authService := auth.NewService(b.users, jwtService, auth.NewRedisTokenStore(redisClient))
	profileService := profile.NewService(b.users)
	promotionService := promotion.NewService(b.promotions)
	eventService := event.NewService(b.events)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	profileHandler := profile.NewHandler(profileService, qr)
	ledgerHandler := ledger.NewHandler(ledgerService, ledger.NewExporter(b.ledger, exports))
	redemptionHandler := redemption.NewHandler(redemptionService, qr)
	scanHandler := scan.NewHandler(dispatcher)
	promotionHandler := promotion.NewHandler(promotionService)
	eventHandler := event.NewHandler(eventService)
	dashboardHandler := dashboard.NewHandler(b.stats)
	notificationHandler := notification.NewHandler(hub, cfg.AllowedOrigins)

	authMiddleware := middleware.Auth(jwtService)
	refreshActor := middleware.RefreshActor(b.users)
	scanLimiter := middleware.NewRateLimiter(middleware.RateLimit{
		RequestsPerMinute: cfg.ScanRatePerMinute,
		Burst:             cfg.ScanRateBurst,
	})

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	if !cfg.ExportsToR2() {
		r.Route("/exports", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireManager())
			r.Handle("/*", http.StripPrefix("/exports/", http.FileServer(http.Dir(cfg.ExportLocalDir))))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/auth", authHandler.Routes(authMiddleware))
		r.Mount("/users", profileHandler.Routes(authMiddleware))
		r.Mount("/transactions", ledgerHandler.Routes(authMiddleware))
		r.Mount("/redemptions", redemptionHandler.Routes(authMiddleware, refreshActor))
		r.Mount("/scan", scanHandler.Routes(authMiddleware, scanLimiter.Middleware))
		r.Mount("/promotions", promotionHandler.Routes(authMiddleware))
		r.Mount("/events", eventHandler.Routes(authMiddleware))
		r.Mount("/dashboard", dashboardHandler.Routes(authMiddleware))
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
	})

	return &app{router: r, hub: hub, limiter: scanLimiter}
}
