package routes

import (
	"github.com/gofiber/fiber/v2"

	"touroperator-backend/config"
	"touroperator-backend/controllers"
	"touroperator-backend/gateway"
	"touroperator-backend/middlewares"
	"touroperator-backend/models"
)

// Register wires all HTTP routes. Mutations are chained as
// guard → tenant TX → controller, so the gateway claims the idempotency key
// before the business transaction starts and caches the response only after
// the TX outcome is known.
func Register(app *fiber.App, gw *gateway.Gateway, cfg *config.Config) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Keyed creates: caller must send Idempotency-Key.
	create := func(operation, resource string) fiber.Handler {
		return gw.Guard(gateway.Policy{
			Operation:  operation,
			Resource:   resource,
			Limit:      cfg.MutationLimit,
			Window:     cfg.MutationWindow,
			RequireKey: true,
		})
	}
	// Unkeyed mutations: rate limited and audited, key optional.
	mutate := func(operation, resource string) fiber.Handler {
		return gw.Guard(gateway.Policy{
			Operation: operation,
			Resource:  resource,
			Limit:     cfg.MutationLimit,
			Window:    cfg.MutationWindow,
		})
	}
	tx := middlewares.TenantTx()

	// Clients
	protected.Post("/client", create("client.create", "client"), tx, controllers.CreateClient)
	protected.Get("/clients", tx, controllers.GetClients)
	protected.Get("/client/:id", tx, controllers.GetClient)
	protected.Put("/client/:id", mutate("client.update", "client"), tx, controllers.UpdateClient)

	// Providers (admin-managed supplier registry)
	protected.Post("/provider", middlewares.RequireRole(models.RoleAdmin),
		create("provider.create", "provider"), tx, controllers.CreateProvider)
	protected.Get("/providers", tx, controllers.GetProviders)
	protected.Put("/provider/:id", middlewares.RequireRole(models.RoleAdmin),
		mutate("provider.update", "provider"), tx, controllers.UpdateProvider)

	// Pricing catalog
	protected.Post("/catalog", create("catalog.create", "catalog_item"), tx, controllers.CreateCatalogItems) // batch create
	protected.Get("/catalog", tx, controllers.GetCatalogItems)
	protected.Put("/catalog/:id", mutate("catalog.update", "catalog_item"), tx, controllers.UpdateCatalogItem)

	// Quotations / invoices (versioned document with payments)
	protected.Post("/quotation", create("quotation.create", "document"), tx, controllers.CreateQuotation)
	protected.Get("/quotations", tx, controllers.GetDocuments)
	protected.Get("/quotation/:id", tx, controllers.GetDocument)
	protected.Put("/quotation/:id", mutate("quotation.update", "document"), tx, controllers.UpdateQuotation)
	protected.Put("/quotations/:id/convert", mutate("quotation.convert", "document"), tx, controllers.ConvertQuotation)
	protected.Put("/invoices/:id/publish", mutate("invoice.publish", "document"), tx, controllers.PublishInvoice)
	protected.Get("/quotations/:id/versions", tx, controllers.GetDocumentVersions)
	protected.Post("/invoices/:id/payments", create("payment.create", "payment"), tx, controllers.CreatePayment)
	protected.Get("/invoices/:id/payments", tx, controllers.ListPayments)

	// Bookings; cancellation carries its own tight budget
	protected.Post("/booking", create("booking.create", "booking"), tx, controllers.CreateBooking)
	protected.Get("/bookings", tx, controllers.GetBookings)
	protected.Get("/booking/:id", tx, controllers.GetBooking)
	protected.Put("/bookings/:id/cancel", gw.Guard(gateway.Policy{
		Operation:  "booking.cancel",
		Resource:   "booking",
		Limit:      cfg.CancelLimit,
		Window:     cfg.CancelWindow,
		RequireKey: true,
	}), tx, controllers.CancelBooking)
}
