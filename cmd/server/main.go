package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/catalogify/product-catalog-api/internal/auth"
	"github.com/catalogify/product-catalog-api/internal/config"
	"github.com/catalogify/product-catalog-api/internal/database"
	"github.com/catalogify/product-catalog-api/internal/handler"
	"github.com/catalogify/product-catalog-api/internal/middleware"
	"github.com/catalogify/product-catalog-api/internal/queue"
	"github.com/catalogify/product-catalog-api/internal/repository"
	"github.com/catalogify/product-catalog-api/internal/router"
	"github.com/catalogify/product-catalog-api/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(db, cfg.DBName); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTLMin, cfg.RefreshTTLDays)
	validator := auth.NewValidator(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)

	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)

	authSvc := service.NewAuthService(users, issuer, cfg.BcryptCost)
	productSvc := service.NewProductService(products, queue.NewPublisher())

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = router.HTTPErrorHandler
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	// Redis-backed rate limiting and read caching degrade to no-ops when no
	// Redis server is reachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting and response caching disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	var cacheMW echo.MiddlewareFunc
	if rdb != nil {
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	guard := middleware.JWTAuth(validator)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), guard)
	router.RegisterProducts(e, handler.NewProductHandler(productSvc), guard, cacheMW)

	// Background consumer mirroring catalog events to logs/catalog.log.
	go func() {
		if err := queue.StartCatalogConsumer(); err != nil {
			log.Printf("catalog consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
