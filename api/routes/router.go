package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pagebound/bookstore-backend/api/controllers"
	"github.com/pagebound/bookstore-backend/api/middleware"
	"github.com/pagebound/bookstore-backend/internal/auth"
	cartsvc "github.com/pagebound/bookstore-backend/internal/cart"
	catalogsvc "github.com/pagebound/bookstore-backend/internal/catalog"
	checkoutsvc "github.com/pagebound/bookstore-backend/internal/checkout"
	ordersvc "github.com/pagebound/bookstore-backend/internal/orders"
	userssvc "github.com/pagebound/bookstore-backend/internal/users"
	"github.com/pagebound/bookstore-backend/pkg/auth/session"
	"github.com/pagebound/bookstore-backend/pkg/config"
	"github.com/pagebound/bookstore-backend/pkg/enums"
	"github.com/pagebound/bookstore-backend/pkg/logger"
	"github.com/pagebound/bookstore-backend/pkg/metrics"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	SessionManager sessionManager
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsGather  prometheus.Gatherer
	Pingers        map[string]controllers.Pinger

	AuthService     auth.Service
	UsersService    userssvc.Service
	CatalogService  catalogsvc.Service
	CartService     cartsvc.Service
	CheckoutService checkoutsvc.Service
	OrdersService   ordersvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.CORS(),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.MetricsGather != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGather, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/signup", controllers.AuthSignup(deps.UsersService, logg))
		r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
	})

	r.Route("/api/v1/books", func(r chi.Router) {
		r.Get("/", controllers.BookList(deps.CatalogService, logg))
		r.Get("/shelves", controllers.BookShelves(deps.CatalogService, logg))
		r.Get("/{bookId}", controllers.BookDetail(deps.CatalogService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))

		r.Post("/auth/logout", controllers.AuthLogout(deps.AuthService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartService, logg))
			r.Post("/items", controllers.CartAdd(deps.CartService, logg))
			r.Put("/items/{itemId}", controllers.CartUpdateItem(deps.CartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.CartService, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.CheckoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.OrdersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.OrdersService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleManager.String(), logg))

			r.Route("/books", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateBook(deps.CatalogService, logg))
				r.Put("/{bookId}", controllers.AdminUpdateBook(deps.CatalogService, logg))
				r.Delete("/{bookId}", controllers.AdminDeleteBook(deps.CatalogService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(deps.OrdersService, logg))
				r.Get("/{orderId}", controllers.AdminOrderDetail(deps.OrdersService, logg))
				r.Put("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.OrdersService, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminUserList(deps.UsersService, logg))
				r.Delete("/{userId}", controllers.AdminDeleteUser(deps.UsersService, logg))
			})
		})
	})

	return r
}
