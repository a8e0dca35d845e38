package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"go-pizzeria-management/config"
	"go-pizzeria-management/controllers"
	"go-pizzeria-management/database"
	"go-pizzeria-management/helpers"
	"go-pizzeria-management/jobs"
	"go-pizzeria-management/middleware"
	"go-pizzeria-management/notify"
	"go-pizzeria-management/permissions"
	"go-pizzeria-management/repository"
	"go-pizzeria-management/routes"
	"go-pizzeria-management/services"
)

func main() {
	cfg := config.Load()
	log := cfg.NewLogger()
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.DBinstance(ctx, cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("cannot reach mongodb")
	}
	db := client.Database(cfg.MongoDatabase)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.WithError(err).Fatal("cannot create indexes")
	}
	if err := repository.SyncOrderNumbers(ctx, db); err != nil {
		log.WithError(err).Fatal("cannot sync order numbers")
	}

	products := repository.NewMongoProductRepository(db)
	orders := repository.NewMongoOrderRepository(db)
	users := repository.NewMongoUserRepository(db)
	reports := repository.NewMongoReportRepository(db)

	hub := notify.NewHub(log)
	fanout := notify.NewFanout(log, 5*time.Second, hub)
	if cfg.RedisURL != "" {
		relay, err := notify.NewRedisRelay(cfg.RedisURL, cfg.RedisChannel, hub, log)
		if err != nil {
			log.WithError(err).Fatal("cannot reach redis")
		}
		defer relay.Close()
		go relay.Run(ctx)
		fanout.Add(relay)
	}
	if cfg.RabbitMQURL != "" {
		publisher, err := notify.DialAMQP(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			log.WithError(err).Fatal("cannot reach rabbitmq")
		}
		defer publisher.Close()
		fanout.Add(publisher)
	}

	lookup := permissions.Default
	loc := cfg.Location()
	orderService := services.NewOrderService(orders, services.NewPricer(products), fanout, lookup, loc, cfg.LateOrderMinutes, log)
	accountService := services.NewAccountService(
		users,
		helpers.NewTokenManager(cfg.SecretKey, cfg.TokenTTL),
		helpers.NewPasswordHasher(cfg.BcryptCost),
		lookup,
		log,
	)

	router := routes.NewRouter(routes.Dependencies{
		Orders:         controllers.NewOrderController(orderService),
		Products:       controllers.NewProductController(services.NewProductService(products, log)),
		Users:          controllers.NewUserController(accountService),
		Reports:        controllers.NewReportController(services.NewReportService(orders, reports, loc)),
		Hub:            hub,
		Auth:           accountService,
		Permissions:    lookup,
		Login:          middleware.NewRateLimiter(cfg.LoginRatePerMin, log),
		Ping:           func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		Log:            log,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	watcher := jobs.NewLateOrderWatcher(orderService, fanout, log)
	if cfg.LateOrderScan != "" {
		if err := watcher.Start(cfg.LateOrderScan); err != nil {
			log.WithError(err).Fatal("cannot schedule late order watcher")
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	watcher.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	fanout.Wait()
	hub.Close()
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.WithError(err).Error("closing mongodb connection")
	}
}
