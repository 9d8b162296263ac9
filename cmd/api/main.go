package main

import (
	"context"
	"log"
	"os"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/carrier"
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Commerce Back Office API
// @version         1.0
// @description     Tax and shipping rate resolution engine with order, customer, claim and shipment management.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Permission middleware needs DB access for role lookups
	middleware.InitPermissionMiddleware(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Carrier adapter: mock mode serves development without gateway credentials
	var adapter carrier.Adapter
	if os.Getenv("CARRIER_MODE") == "mock" {
		adapter = carrier.NewMockAdapter()
	} else {
		adapter = carrier.NewHTTPAdapter("gateway", nil)
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	productRepo := repository.NewProductRepository(db)
	taxRegionRepo := repository.NewTaxRegionRepository(db)
	zoneRepo := repository.NewShippingZoneRepository(db)
	rateRepo := repository.NewShippingRateRepository(db)
	providerRepo := repository.NewShippingProviderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	userService := service.NewUserService(userRepo, refreshRepo)
	roleService := service.NewRoleService(roleRepo, txManager)
	auditService := service.NewAuditService(auditRepo)
	productService := service.NewProductService(productRepo, auditRepo, txManager)
	taxCalcService := service.NewTaxCalculationService(taxRegionRepo)
	taxRegionService := service.NewTaxRegionService(taxRegionRepo, auditRepo, txManager)
	shippingRateService := service.NewShippingRateService(zoneRepo, rateRepo, providerRepo, adapter)
	shippingZoneService := service.NewShippingZoneService(zoneRepo, rateRepo, providerRepo, auditRepo, txManager)
	providerService := service.NewShippingProviderService(providerRepo, auditRepo, txManager, adapter)
	customerService := service.NewCustomerService(customerRepo, txManager)
	orderService := service.NewOrderService(orderRepo, productRepo, customerRepo, shippingRateService, rateRepo, auditRepo, txManager, wsHub)
	orderTaxService := service.NewOrderTaxService(orderRepo, taxCalcService, auditRepo, txManager, wsHub)
	claimService := service.NewClaimService(claimRepo, orderRepo, auditRepo, txManager)
	shipmentService := service.NewShipmentService(shipmentRepo, orderRepo, auditRepo, txManager, wsHub)
	statisticsService := service.NewStatisticsService(statsRepo)

	// Seed default roles and permissions
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Println("WARNING: Failed to seed roles and permissions:", err)
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	auditHandler := handler.NewAuditHandler(auditService)
	productHandler := handler.NewProductHandler(productService)
	taxHandler := handler.NewTaxHandler(taxRegionService, taxCalcService)
	shippingHandler := handler.NewShippingHandler(shippingZoneService, shippingRateService)
	providerHandler := handler.NewProviderHandler(providerService)
	customerHandler := handler.NewCustomerHandler(customerService)
	orderHandler := handler.NewOrderHandler(orderService, orderTaxService)
	claimHandler := handler.NewClaimHandler(claimService)
	shipmentHandler := handler.NewShipmentHandler(shipmentService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	taxHandler.RegisterRoutes(router.Group(""))
	shippingHandler.RegisterRoutes(router.Group(""))
	providerHandler.RegisterRoutes(router.Group(""))
	customerHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	claimHandler.RegisterRoutes(router.Group(""))
	shipmentHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
