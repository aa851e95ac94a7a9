package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mizusaki/procureflow-backend/api/controllers"
	"github.com/mizusaki/procureflow-backend/api/middleware"
	"github.com/mizusaki/procureflow-backend/internal/candidates"
	"github.com/mizusaki/procureflow-backend/internal/documents"
	"github.com/mizusaki/procureflow-backend/internal/inventory"
	"github.com/mizusaki/procureflow-backend/internal/mailer"
	"github.com/mizusaki/procureflow-backend/internal/orders"
	"github.com/mizusaki/procureflow-backend/internal/requests"
	"github.com/mizusaki/procureflow-backend/internal/staging"
	"github.com/mizusaki/procureflow-backend/pkg/config"
	"github.com/mizusaki/procureflow-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	pingers map[string]controllers.Pinger,
	registry *prometheus.Registry,
	inventoryService inventory.Service,
	requestsService requests.Service,
	stagingService staging.Service,
	candidatesService candidates.Service,
	ordersService orders.Service,
	documentsService documents.Service,
	mailerService mailer.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Actor(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", controllers.RequestCreate(requestsService, logg))
			r.Get("/", controllers.RequestList(requestsService, logg))
			r.Post("/stage", controllers.RequestStage(stagingService, logg))
			r.Post("/unstage", controllers.RequestUnstage(stagingService, logg))
			r.Get("/{requestID}", controllers.RequestGet(requestsService, logg))
			r.Post("/{requestID}/reject", controllers.RequestReject(requestsService, logg))
		})

		r.Get("/candidates", controllers.CandidateList(candidatesService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(ordersService, logg))
			r.Post("/bulk", controllers.OrderCreateBulk(ordersService, logg))
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderID}", controllers.OrderGet(ordersService, logg))
			r.Post("/{orderID}/status", controllers.OrderTransition(ordersService, logg))
			r.Post("/{orderID}/receipts", controllers.OrderReceive(ordersService, logg))
			r.Post("/{orderID}/document", controllers.DocumentGenerate(documentsService, logg))
			r.Get("/{orderID}/document/preview", controllers.DocumentPreview(documentsService, logg))
			r.Get("/{orderID}/email/preview", controllers.EmailPreview(mailerService, logg))
			r.Post("/{orderID}/email", controllers.EmailSend(mailerService, logg))
			r.Get("/{orderID}/emails", controllers.EmailHistory(mailerService, logg))
			r.Put("/lines/{lineID}/reply-due-date", controllers.OrderSetReplyDueDate(ordersService, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/issue", controllers.InventoryIssue(inventoryService, logg))
			r.Post("/adjust", controllers.InventoryAdjust(inventoryService, logg))
			r.Get("/{itemID}", controllers.InventoryOnHand(inventoryService, logg))
			r.Get("/{itemID}/history", controllers.InventoryHistory(inventoryService, logg))
		})
	})

	return r
}
