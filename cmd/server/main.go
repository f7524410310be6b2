package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/cache"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/mailer"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	redis, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Fatal("Не удалось подключиться к Redis", zap.Error(err))
	}
	defer redis.Close()

	repos := repository.New(db)
	mail := mailer.NewHTTPMailer(cfg.EmailServiceURL, cfg.EmailTimeout, log)

	svc := router.Services{
		Identity: service.NewIdentityService(repos, log),
		Catalog:  service.NewCatalogService(repos),
		Cart:     service.NewCartService(repos, log),
		Checkout: service.NewCheckoutService(repos, redis, mail, log, cfg.CheckoutStateTTL, cfg.OTPResendWindow),
		Payments: service.NewPaymentService(repos, mail, log),
		Orders:   service.NewOrderService(repos, redis, mail, log),
		Reviews:  service.NewReviewService(repos, log),
	}

	r := router.Router(svc, cfg.JWTSecret, log)

	srv := &http.Server{
		Addr:    cfg.Port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Запуск HTTP-сервера магазина", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP-сервер упал", zap.Error(err))
		}
	}()

	<-quit
	log.Info("Остановка HTTP-сервера...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Сервер остановлен с ошибкой", zap.Error(err))
	} else {
		log.Info("Сервер остановлен корректно")
	}
}
