package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sione-id/backoffice-backend/api/controllers"
	"github.com/sione-id/backoffice-backend/api/middleware"
	"github.com/sione-id/backoffice-backend/internal/auth"
	"github.com/sione-id/backoffice-backend/internal/catalog"
	"github.com/sione-id/backoffice-backend/internal/customers"
	"github.com/sione-id/backoffice-backend/internal/lending"
	"github.com/sione-id/backoffice-backend/internal/notifications"
	"github.com/sione-id/backoffice-backend/internal/requests"
	"github.com/sione-id/backoffice-backend/internal/users"
	"github.com/sione-id/backoffice-backend/pkg/config"
	"github.com/sione-id/backoffice-backend/pkg/db"
	"github.com/sione-id/backoffice-backend/pkg/logger"
	"github.com/sione-id/backoffice-backend/pkg/metrics"
	"github.com/sione-id/backoffice-backend/pkg/redis"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer

	HTTPMetrics *metrics.HTTPMetrics

	Auth          auth.Service
	Lending       lending.Service
	Catalog       catalog.Service
	Customers     customers.Service
	Requests      requests.Service
	Users         users.Service
	Notifications notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(deps.Redis, logg)).
			Post("/auth/login", controllers.Login(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Get("/dashboard/lending", controllers.LendingDashboard(deps.Lending, logg))
			r.Get("/dashboard/requests", controllers.RequestsDashboard(deps.Requests, logg))

			r.Route("/divisions", func(r chi.Router) {
				r.Get("/", controllers.ListDivisions(deps.Lending, logg))
				r.Post("/", controllers.CreateDivision(deps.Lending, logg))
				r.Delete("/{id}", controllers.DeleteDivision(deps.Lending, logg))
			})

			r.Get("/documents", controllers.ListDocuments(deps.Lending, logg))

			r.Route("/loans", func(r chi.Router) {
				r.Get("/", controllers.ListLoans(deps.Lending, logg))
				r.Post("/", controllers.CreateLoan(deps.Lending, logg))
				r.Get("/{id}", controllers.GetLoan(deps.Lending, logg))
				r.Post("/{id}/returns", controllers.ReturnDocuments(deps.Lending, logg))
			})

			r.Post("/handovers", controllers.CreateHandover(deps.Lending, logg))

			r.Route("/portfolios", func(r chi.Router) {
				r.Get("/", controllers.ListPortfolios(deps.Catalog, logg))
				r.Post("/", controllers.CreatePortfolio(deps.Catalog, logg))
				r.Put("/{id}", controllers.UpdatePortfolio(deps.Catalog, logg))
				r.Delete("/{id}", controllers.DeletePortfolio(deps.Catalog, logg))
			})

			r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))

			r.Route("/services", func(r chi.Router) {
				r.Get("/", controllers.ListServices(deps.Catalog, logg))
				r.Post("/", controllers.CreateService(deps.Catalog, logg))
				r.Get("/{id}", controllers.GetService(deps.Catalog, logg))
				r.Put("/{id}", controllers.UpdateService(deps.Catalog, logg))
				r.Delete("/{id}", controllers.DeleteService(deps.Catalog, logg))
				r.Get("/{id}/parameters", controllers.ListParameters(deps.Catalog, logg))
				r.Post("/{id}/parameters", controllers.AddParameter(deps.Catalog, logg))
				r.Put("/{id}/parameters/{paramID}", controllers.UpdateParameter(deps.Catalog, logg))
				r.Delete("/{id}/parameters/{paramID}", controllers.DeleteParameter(deps.Catalog, logg))
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", controllers.ListCustomers(deps.Customers, logg))
				r.Post("/", controllers.CreateCustomer(deps.Customers, logg))
			})

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", controllers.ListRequests(deps.Requests, logg))
				r.Post("/", controllers.CreateRequest(deps.Requests, logg))
				r.Get("/{id}", controllers.GetRequest(deps.Requests, logg))
				r.Put("/{id}", controllers.UpdateRequest(deps.Requests, logg))
				r.Delete("/{id}", controllers.DeleteRequest(deps.Requests, logg))
				r.Put("/{id}/status", controllers.UpdateRequestStatus(deps.Requests, logg))

				r.Get("/{id}/items", controllers.ListRequestItems(deps.Requests, logg))
				r.Post("/{id}/items", controllers.AddRequestItem(deps.Requests, logg))
				r.Delete("/{id}/items/{itemID}", controllers.DeleteRequestItem(deps.Requests, logg))
				r.Get("/{id}/items/{itemID}/parameters", controllers.ListItemParameterValues(deps.Requests, logg))

				r.Get("/{id}/negotiations", controllers.ListNegotiations(deps.Requests, logg))
				r.Post("/{id}/negotiations", controllers.AddNegotiation(deps.Requests, logg))

				r.Get("/{id}/messages", controllers.ListMessages(deps.Requests, logg))
				r.Post("/{id}/messages", controllers.AddMessage(deps.Requests, logg))
			})

			r.Delete("/messages/{id}", controllers.DeleteMessage(deps.Requests, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, logg))

				r.Route("/users", func(r chi.Router) {
					r.Get("/", controllers.ListUsers(deps.Users, logg))
					r.Post("/", controllers.CreateUser(deps.Users, logg))
					r.Put("/{id}/contacts", controllers.UpdateUserContacts(deps.Users, logg))
					r.Delete("/{id}", controllers.DeleteUser(deps.Users, logg))
				})

				r.Route("/notifications", func(r chi.Router) {
					r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
					r.Post("/{id}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
					r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
				})
			})
		})
	})

	return r
}
