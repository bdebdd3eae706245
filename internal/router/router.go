package router

import (
	"time"

	"sipndash/internal/catalogimport"
	"sipndash/internal/config"
	"sipndash/internal/handler"
	"sipndash/internal/infra"
	"sipndash/internal/middleware"
	"sipndash/internal/model"
	"sipndash/internal/repository"
	"sipndash/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the infrastructure handles built in main. Gateway and Storage are
// nil when their credentials are not configured.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	PaymentCB *infra.CircuitBreaker
	Gateway   infra.PaymentGateway
	Storage   infra.ObjectStorage
	Receipts  service.ReceiptQueue
}

// ImportPolicy builds the catalog import limits from configuration.
func ImportPolicy(cfg *config.Config) catalogimport.Policy {
	p := catalogimport.DefaultPolicy()
	p.BatchSize = cfg.ImportBatchSize
	p.MaxErrorsReturned = cfg.ImportMaxErrors
	p.MaxRows = cfg.ImportMaxRows
	return p
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(d.DB)
	categoryRepo := repository.NewCategoryRepository(d.DB)
	productRepo := repository.NewProductRepository(d.DB)
	customerRepo := repository.NewCustomerRepository(d.DB)
	orderRepo := repository.NewOrderRepository(d.DB)
	paymentRepo := repository.NewPaymentRepository(d.DB)
	movementRepo := repository.NewStockMovementRepository(d.DB)
	historyRepo := repository.NewPriceHistoryRepository(d.DB)
	offerRepo := repository.NewOfferRepository(d.DB)
	contactRepo := repository.NewContactRepository(d.DB)
	analyticsRepo := repository.NewAnalyticsRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	categorySvc := service.NewCategoryService(categoryRepo)
	productSvc := service.NewProductService(productRepo, categoryRepo, movementRepo, historyRepo, d.Storage)
	inventorySvc := service.NewInventoryService(movementRepo)
	customerSvc := service.NewCustomerService(customerRepo)
	orderSvc := service.NewOrderService(orderRepo, productRepo, customerRepo, movementRepo, paymentRepo,
		d.Gateway, d.PaymentCB, d.Receipts)
	paymentSvc := service.NewPaymentService(paymentRepo, orderRepo, d.Gateway, d.PaymentCB)
	importSvc := service.NewImportService(categoryRepo, productRepo, historyRepo, ImportPolicy(cfg))
	offerSvc := service.NewOfferService(offerRepo)
	contactSvc := service.NewContactService(contactRepo)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	categoriesH := handler.NewCategoriesHandler(categorySvc)
	productsH := handler.NewProductsHandler(productSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	customersH := handler.NewCustomersHandler(customerSvc)
	paymentsH := handler.NewPaymentsHandler(paymentSvc)
	importH := handler.NewImportHandler(importSvc, cfg.ImportMaxUploadMB)
	offersH := handler.NewOffersHandler(offerSvc)
	contactH := handler.NewContactHandler(contactSvc)
	analyticsH := handler.NewAnalyticsHandler(analyticsSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(d.DB, d.Redis, d.PaymentCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	admin := middleware.RequireRole(model.RoleAdmin)
	publicWrite := middleware.PublicWriteLimiter(30, time.Minute)

	v1 := r.Group("/v1")

	// Public storefront
	v1.POST("/orders", publicWrite, ordersH.Place)
	v1.POST("/payments/mpesa/callback", paymentsH.MpesaCallback)
	v1.GET("/offers", offersH.ListActive)
	v1.POST("/contact", publicWrite, contactH.Submit)
	v1.POST("/analytics/events", publicWrite, analyticsH.RecordEvent)

	catalog := v1.Group("/catalogs/:catalog")
	{
		catalog.GET("/categories", categoriesH.List)
		catalog.GET("/products", productsH.List)
		catalog.GET("/products/:id", productsH.Get)
	}

	// Back office: admin only
	bo := v1.Group("", jwtMW, admin)
	{
		users := bo.Group("/users")
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}

		cat := bo.Group("/catalogs/:catalog")
		{
			cat.POST("/categories", categoriesH.Create)
			cat.PUT("/categories/:id", categoriesH.Update)
			cat.DELETE("/categories/:id", categoriesH.Deactivate)

			cat.POST("/products", productsH.Create)
			cat.PUT("/products/:id", productsH.Update)
			cat.DELETE("/products/:id", productsH.Deactivate)
			cat.PATCH("/products/:id/reactivate", productsH.Reactivate)
			cat.PUT("/products/:id/image", productsH.UploadImage)
			cat.PATCH("/products/:id/stock", productsH.AdjustStock)
			cat.GET("/products/:id/price-history", productsH.PriceHistory)

			cat.POST("/import", importH.Import)
		}

		bo.GET("/inventory/movements", inventoryH.ListMovements)

		bo.GET("/orders", ordersH.List)
		bo.GET("/orders/:id", ordersH.Get)
		bo.PATCH("/orders/:id", ordersH.Update)

		bo.GET("/customers", customersH.List)
		bo.GET("/customers/:id", customersH.Get)

		bo.GET("/offers/all", offersH.ListAll)
		bo.POST("/offers", offersH.Create)
		bo.PUT("/offers/:id", offersH.Update)
		bo.DELETE("/offers/:id", offersH.Delete)

		bo.GET("/contact", contactH.List)
		bo.GET("/analytics/summary", analyticsH.Summary)
	}

	// Swagger UI: only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
