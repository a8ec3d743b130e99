package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-club/internal/application/auth"
	"github.com/jhoicas/tienda-club/internal/application/cart"
	"github.com/jhoicas/tienda-club/internal/application/inventory"
	"github.com/jhoicas/tienda-club/internal/application/order"
	"github.com/jhoicas/tienda-club/internal/application/payment"
	"github.com/jhoicas/tienda-club/internal/application/usecase"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC           *auth.AuthUseCase
	ProductUC        *usecase.ProductUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	InventoryQuery   *inventory.QueryUseCase
	CartUC           *cart.UseCase
	OrderUC          *order.UseCase
	PaymentUC        *payment.UseCase
	WebhookUC        *payment.WebhookUseCase
	JWTSecret        string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	authn := AuthMiddleware(deps.JWTSecret)
	optional := OptionalAuth(deps.JWTSecret)
	staff := RequireRole(entity.RoleAdmin, entity.RoleStaff)

	// Auth
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Get("/me", authn, authHandler.Me)

	// Catálogo (lectura pública; el personal ve también inactivos)
	productHandler := NewProductHandler(deps.ProductUC)
	products := api.Group("/productos", optional)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", authn, staff, productHandler.Create)
	products.Put("/:id", authn, staff, productHandler.Update)

	categories := api.Group("/categorias")
	categories.Get("/", productHandler.ListCategories)
	categories.Post("/", authn, staff, productHandler.CreateCategory)

	// Inventario (admin/staff)
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.InventoryQuery)
	inv := api.Group("/inventario", authn, staff)
	inv.Post("/movimientos", inventoryHandler.RegisterMovement)
	inv.Post("/ajustes", inventoryHandler.RegisterAdjustment)
	inv.Get("/alertas", inventoryHandler.LowStockAlerts)
	inv.Get("/productos/:id/stock", inventoryHandler.GetStock)
	inv.Get("/productos/:id/movimientos", inventoryHandler.ListMovements)

	// Carrito (usuario o sesión anónima)
	cartHandler := NewCartHandler(deps.CartUC)
	carts := api.Group("/carrito", optional)
	carts.Get("/", cartHandler.Get)
	carts.Delete("/", cartHandler.Clear)
	carts.Post("/items", cartHandler.AddItem)
	carts.Put("/items", cartHandler.UpdateItem)
	carts.Delete("/items/:productId", cartHandler.RemoveItem)
	carts.Post("/fusionar", authn, cartHandler.Merge)
	carts.Post("/checkout", authn, cartHandler.Checkout)

	// Órdenes
	orderHandler := NewOrderHandler(deps.OrderUC)
	orders := api.Group("/ordenes", authn)
	orders.Post("/", orderHandler.Create)
	orders.Get("/", orderHandler.ListMine)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Patch("/:id/estado", orderHandler.UpdateStatus)
	orders.Get("/:id/comprobante", orderHandler.Receipt)

	// Pagos (el webhook es público: se autentica con la firma)
	paymentHandler := NewPaymentHandler(deps.PaymentUC, deps.WebhookUC)
	payments := api.Group("/pagos")
	payments.Post("/webhook", paymentHandler.Webhook)
	payments.Post("/iniciar", authn, paymentHandler.Initiate)
	payments.Get("/orden/:orderId", authn, paymentHandler.GetByOrder)
	payments.Get("/:id", authn, paymentHandler.GetByID)
	payments.Post("/:id/reembolso", authn, staff, paymentHandler.Refund)

	// Administración
	admin := api.Group("/admin", authn, staff)
	admin.Get("/ordenes", orderHandler.ListAll)
	admin.Get("/pagos/orden/:orderId", paymentHandler.ListByOrder)
	admin.Get("/webhooks/eventos", paymentHandler.ListWebhookEvents)
}
