package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ErnestKamau/EasyBuy-sub001/api/controllers"
	ordercontrollers "github.com/ErnestKamau/EasyBuy-sub001/api/controllers/orders"
	"github.com/ErnestKamau/EasyBuy-sub001/api/middleware"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/notifications"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/orders"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/pickup"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/receipts"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/sales"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/wallet"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/config"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/metrics"
	pkgredis "github.com/ErnestKamau/EasyBuy-sub001/pkg/redis"
)

type pinger interface {
	Ping(context.Context) error
}

// redisStore is what the HTTP layer needs from Redis.
type redisStore interface {
	pkgredis.IdempotencyStore
	pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, time.Duration, error)
}

// Deps carries the collaborators of the API. Gatherer defaults to the global registry.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            pinger
	Redis         redisStore
	Gatherer      prometheus.Gatherer
	HTTPMetrics   *metrics.HTTPMetrics
	Orders        orders.Service
	Sales         *sales.Service
	Wallet        *wallet.Service
	Pickup        *pickup.Service
	Notifications notifications.Service
	Receipts      *receipts.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
		middleware.Metrics(d.HTTPMetrics),
	)

	commandPolicy := middleware.NewRateLimitPolicy("commands", cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimit)
	var (
		idempotencyStore pkgredis.IdempotencyStore
		redisPinger      pinger
		rateStore        interface {
			FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, time.Duration, error)
		}
	)
	if d.Redis != nil {
		idempotencyStore, redisPinger, rateStore = d.Redis, d.Redis, d.Redis
	}

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, redisPinger))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/api/public/ping", controllers.Ping("public"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.RateLimit(commandPolicy, rateStore, logg))
		r.Use(middleware.Idempotency(idempotencyStore, cfg.HTTP.IdempotencyTTL, logg))

		r.Get("/ping", controllers.Ping("private"))
		r.Get("/pickup-slots", controllers.PickupSlots(d.Pickup, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(d.Orders, logg))
			r.Post("/", ordercontrollers.Place(d.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(d.Orders, logg))
		})
		r.Post("/sales/{saleId}/payments", controllers.CustomerRecordPayment(d.Sales, logg))

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletBalance(d.Wallet, logg))
			r.Get("/transactions", controllers.WalletTransactions(d.Wallet, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, logg))
			r.Get("/preferences", controllers.NotificationPreferences(d.Notifications, logg))
			r.Put("/preferences", controllers.UpdateNotificationPreferences(d.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
		r.Use(middleware.RateLimit(commandPolicy, rateStore, logg))
		r.Use(middleware.Idempotency(idempotencyStore, cfg.HTTP.IdempotencyTTL, logg))

		r.Get("/ping", controllers.Ping("admin"))
		r.Route("/orders", func(r chi.Router) {
			r.Post("/verify-code", ordercontrollers.VerifyCode(d.Orders, logg))
			r.Get("/awaiting-pickup", ordercontrollers.AwaitingPickup(d.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(d.Orders, logg))
			r.Post("/{orderId}/confirm", ordercontrollers.Confirm(d.Orders, logg))
			r.Post("/{orderId}/ready", ordercontrollers.MarkReady(d.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(d.Orders, logg))
			r.Post("/{orderId}/pickup", ordercontrollers.CompletePickup(d.Orders, logg))
		})
		r.Route("/sales/{saleId}", func(r chi.Router) {
			r.Get("/", controllers.AdminSaleDetail(d.Sales, logg))
			r.Get("/receipt", controllers.AdminSaleReceipt(d.Receipts, logg))
			r.Post("/payments", controllers.AdminRecordPayment(d.Sales, logg))
			r.Put("/due-date", controllers.AdminSetDueDate(d.Sales, logg))
		})
		r.Route("/payments/{paymentId}", func(r chi.Router) {
			r.Post("/verify", controllers.AdminVerifyPayment(d.Sales, logg))
			r.Post("/fail", controllers.AdminFailPayment(d.Sales, logg))
			r.Post("/refund", controllers.AdminRefundPayment(d.Sales, logg))
		})
		r.Post("/wallets/{userId}/adjustments", controllers.AdminWalletAdjustment(d.Wallet, logg))
	})

	return r
}
