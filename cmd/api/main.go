package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/tienda-club/internal/application/auth"
	"github.com/jhoicas/tienda-club/internal/application/cart"
	"github.com/jhoicas/tienda-club/internal/application/inventory"
	"github.com/jhoicas/tienda-club/internal/application/order"
	"github.com/jhoicas/tienda-club/internal/application/payment"
	"github.com/jhoicas/tienda-club/internal/application/ports"
	"github.com/jhoicas/tienda-club/internal/application/usecase"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
	"github.com/jhoicas/tienda-club/internal/infrastructure/events"
	"github.com/jhoicas/tienda-club/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/tienda-club/internal/infrastructure/pdf"
	"github.com/jhoicas/tienda-club/internal/infrastructure/postgres"
	"github.com/jhoicas/tienda-club/internal/infrastructure/redislock"
	"github.com/jhoicas/tienda-club/internal/infrastructure/stripe"
	httpRouter "github.com/jhoicas/tienda-club/internal/interfaces/http"
	"github.com/jhoicas/tienda-club/pkg/config"
	"github.com/jhoicas/tienda-club/pkg/logger"
)

// stores repositorios del driver elegido (postgres o memoria).
type stores struct {
	tx         repository.TxRunner
	users      repository.UserRepository
	products   repository.ProductRepository
	categories repository.CategoryRepository
	movements  repository.InventoryMovementRepository
	orders     repository.OrderRepository
	carts      repository.CartRepository
	payments   repository.PaymentRepository
	webhooks   repository.WebhookEventRepository
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	// Candado por orden: redis si está configurado, si no en memoria (una sola instancia).
	var locker ports.Locker = memory.NewLocker()
	if cfg.Redis.URL != "" {
		rdb, err := redislock.NewClient(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = redislock.New(rdb, cfg.Payments.LockTTL)
	}

	var publisher ports.EventPublisher = events.NewLogPublisher()
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kp.Close()
		publisher = kp
	}

	if cfg.Payments.StripeAPIKey == "" {
		log.Warn().Msg("STRIPE_API_KEY vacío: la iniciación de pagos fallará")
	}
	stripeClient := stripe.NewClient(stripe.Config{
		APIKey:           cfg.Payments.StripeAPIKey,
		WebhookSecret:    cfg.Payments.WebhookSecret,
		APIBase:          cfg.Payments.APIBase,
		WebhookTolerance: cfg.Payments.WebhookTolerance,
		MaxRetries:       2,
	})

	receipts := infrapdf.NewReceiptGenerator(cfg.App.Name)
	orderUC := order.NewUseCase(st.orders, st.products, publisher, receipts, cfg.Store.TaxRate)
	deps := httpRouter.RouterDeps{
		AuthUC: auth.NewAuthUseCase(st.users, auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		}),
		ProductUC:        usecase.NewProductUseCase(st.products, st.categories),
		RegisterMovement: inventory.NewRegisterMovementUseCase(st.tx, st.products, st.movements, publisher),
		InventoryQuery:   inventory.NewQueryUseCase(st.products, st.movements),
		CartUC:           cart.NewUseCase(st.carts, st.products, orderUC, cfg.Store.MaxPerItem),
		OrderUC:          orderUC,
		PaymentUC: payment.NewUseCase(st.tx, st.payments, st.orders, stripeClient, locker, publisher, payment.Config{
			Currency: cfg.Payments.Currency,
			LockWait: cfg.Payments.LockWait,
		}),
		WebhookUC: payment.NewWebhookUseCase(st.tx, st.webhooks, st.payments, stripeClient, publisher),
		JWTSecret: cfg.JWT.Secret,
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Tienda del Club API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStores abre PostgreSQL (aplicando migraciones) o el almacenamiento en memoria.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store.Driver == "memory" {
		m := memory.NewStore()
		return &stores{
			tx:         m,
			users:      m.Users(),
			products:   m.Products(),
			categories: m.Categories(),
			movements:  m.Movements(),
			orders:     m.Orders(),
			carts:      m.Carts(),
			payments:   m.Payments(),
			webhooks:   m.WebhookEvents(),
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &stores{
		tx:         postgres.NewTxRunner(pool),
		users:      postgres.NewUserRepository(pool),
		products:   postgres.NewProductRepository(pool),
		categories: postgres.NewCategoryRepository(pool),
		movements:  postgres.NewInventoryMovementRepository(pool),
		orders:     postgres.NewOrderRepository(pool),
		carts:      postgres.NewCartRepository(pool),
		payments:   postgres.NewPaymentRepository(pool),
		webhooks:   postgres.NewWebhookEventRepository(pool),
		close:      pool.Close,
	}, nil
}
