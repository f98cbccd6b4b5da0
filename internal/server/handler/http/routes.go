package http

import (
	"net/http"

	"github.com/meucrm/crmdesk/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler of the CRM API.
//
// Routes:
//
//	GET    /healthz          liveness probe
//	GET    /metrics          Prometheus metrics
//	POST   /auth/login       authHandler.Login
//	GET    /clientes         customerHandler.List    (bearer)
//	POST   /clientes         customerHandler.Create  (bearer)
//	GET    /clientes/{id}    customerHandler.Get     (bearer)
//	PUT    /clientes/{id}    customerHandler.Update  (bearer)
//	DELETE /clientes/{id}    customerHandler.Delete  (bearer)
//	GET    /dashboard/stats  salesHandler.Stats      (bearer)
//	GET    /vendas           salesHandler.List       (bearer)
//	POST   /vendas           salesHandler.Create     (bearer)
func NewRouter(
	authHandler *AuthHandler,
	customerHandler *CustomerHandler,
	salesHandler *SalesHandler,
	secret []byte,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CountRequests)
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		// Request bodies must be JSON; bodiless requests pass.
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(secret))

			r.Route("/clientes", func(r chi.Router) {
				r.Get("/", customerHandler.List)
				r.Post("/", customerHandler.Create)
				r.Get("/{id}", customerHandler.Get)
				r.Put("/{id}", customerHandler.Update)
				r.Delete("/{id}", customerHandler.Delete)
			})
			r.Get("/dashboard/stats", salesHandler.Stats)
			r.Get("/vendas", salesHandler.List)
			r.Post("/vendas", salesHandler.Create)
		})
	})

	return r
}
