package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"todovault/internal/authgate"
	"todovault/internal/config"
	"todovault/internal/database"
	"todovault/internal/kv"
	"todovault/internal/middleware"
	"todovault/internal/modules/auth"
	"todovault/internal/pkg/signature"
	"todovault/internal/pkg/token"
	"todovault/internal/ratelimit"
	"todovault/internal/repository"
	"todovault/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	if err := userRepo.Migrate(); err != nil {
		log.Fatal(err)
	}

	store, err := kv.NewRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	signer, err := signature.New(cfg.JWTSecret)
	if err != nil {
		log.Fatal(err)
	}
	tokens, err := token.New(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		log.Fatal(err)
	}
	sessions, err := session.New(store, signer, cfg.SessionTTL)
	if err != nil {
		log.Fatal(err)
	}

	limiter := ratelimit.New(store, cfg.RateLimits)
	gate := authgate.New(tokens, sessions)

	authService := auth.NewService(userRepo, tokens, sessions, limiter)
	authHandler := auth.NewHandler(authService)

	router := gin.Default()
	router.Use(middleware.ErrorLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	v1 := router.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(
			v1,
			middleware.RateLimit(limiter, ratelimit.ActionLogin),
			middleware.RateLimit(limiter, ratelimit.ActionRegister),
		)

		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth(gate))
		protected.Use(middleware.RateLimit(limiter, ratelimit.ActionAPI))
		{
			authHandler.RegisterProtectedRoutes(protected)
		}
	}

	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
