package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/campuscanteen/canteen-service/internal/auth"
	"github.com/campuscanteen/canteen-service/internal/canteen"
	"github.com/campuscanteen/canteen-service/internal/config"
	"github.com/campuscanteen/canteen-service/internal/events"
	"github.com/campuscanteen/canteen-service/internal/httpx"
	"github.com/campuscanteen/canteen-service/internal/menu"
	"github.com/campuscanteen/canteen-service/internal/notifications"
	"github.com/campuscanteen/canteen-service/internal/orders"
	"github.com/campuscanteen/canteen-service/internal/realtime"
	"github.com/campuscanteen/canteen-service/internal/storage"
	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", os.Getenv("CANTEEN_CONFIG"), "path to config file")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	// Storage
	db, err := storage.Open(cfg.Postgres, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := storage.Migrate(db); err != nil {
		logger.WithError(err).Fatal("Failed to create tables")
	}

	redisClient := storage.NewRedis(cfg.Redis)
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()); err != nil {
		logger.WithError(err).Fatal("Failed to connect to redis")
	}

	// Event bus
	producer, err := events.NewKafkaProducer(cfg.Kafka.Brokers, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kafka producer")
	}
	defer producer.Close()

	// Realtime fan-out
	broker := realtime.NewBroker(logger)

	// Domain services
	canteenService := canteen.NewService(redisClient, broker, logger)
	menuService := menu.NewService(menu.NewStore(db), redisClient, broker, logger)
	feed := notifications.NewFeed(notifications.NewPGStore(db), broker, cfg.Notifications.FeedLimit, logger)
	orderService := orders.NewService(
		orders.NewPGStore(db),
		canteenService,
		producer,
		broker,
		orders.Config{
			DiscountPercent:        cfg.Orders.DiscountPercent,
			DefaultEstimateMinutes: cfg.Orders.DefaultEstimateMinutes,
			Hostels:                cfg.Orders.Hostels,
		},
		logger,
	)

	// Lifecycle events feed the notifier, which writes the user-facing
	// notifications as a separate best-effort step.
	notifier := notifications.NewNotifier(feed, logger)
	consumer, err := events.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, notifier, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kafka consumer")
	}
	defer consumer.Close()

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go func() {
		if err := consumer.Start(consumerCtx); err != nil {
			logger.WithError(err).Error("Notification consumer stopped")
		}
	}()

	// Auth
	policy := auth.Policy{
		AdminEmail:    cfg.Auth.AdminEmail,
		AllowedDomain: cfg.Auth.AllowedDomain,
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	authenticator := auth.NewAuthenticator(tokens, policy)
	authHandler := auth.NewHandler(auth.NewGoogleVerifier(cfg.Auth.TokenInfoURL), tokens, policy, logger)

	// Sync layer
	loader := func(ctx context.Context, topic string, identity models.Identity) (interface{}, error) {
		switch {
		case topic == realtime.TopicMenu:
			return menuService.List(ctx)
		case topic == realtime.TopicCanteen:
			return canteenService.Status(ctx)
		case topic == realtime.TopicAllOrders:
			return orderService.ListAll(ctx)
		case strings.HasPrefix(topic, "orders.user."):
			return orderService.ListForUser(ctx, identity.UserID)
		case strings.HasPrefix(topic, "notifications."):
			return feed.List(ctx, identity.UserID)
		default:
			return nil, fmt.Errorf("unknown topic %q", topic)
		}
	}
	hub := realtime.NewHub(broker, authenticator, loader, logger)

	// HTTP handlers
	menuHandler := menu.NewHandler(menuService, logger)
	canteenHandler := canteen.NewHandler(canteenService, logger)
	orderHandler := orders.NewHandler(orderService, logger)
	notificationHandler := notifications.NewHandler(feed, logger)

	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			httpx.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": "canteen-service",
			})
			return
		}
		httpx.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "canteen-service",
		})
	}).Methods("GET")

	router.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/ws", hub.HandleWebSocket).Methods("GET")

	api := router.PathPrefix("/").Subrouter()
	api.Use(auth.Middleware(authenticator, logger))

	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	api.HandleFunc("/menu", menuHandler.ListMenu).Methods("GET")
	api.HandleFunc("/menu", auth.RequireAdmin(menuHandler.CreateMenuItem)).Methods("POST")
	api.HandleFunc("/menu/{id}", auth.RequireAdmin(menuHandler.UpdateMenuItem)).Methods("PUT")
	api.HandleFunc("/menu/{id}", auth.RequireAdmin(menuHandler.DeleteMenuItem)).Methods("DELETE")

	api.HandleFunc("/canteen", canteenHandler.GetStatus).Methods("GET")
	api.HandleFunc("/canteen", auth.RequireAdmin(canteenHandler.SetStatus)).Methods("PUT")

	api.HandleFunc("/orders", orderHandler.PlaceOrder).Methods("POST")
	api.HandleFunc("/orders", orderHandler.ListOrders).Methods("GET")
	api.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods("GET")
	api.HandleFunc("/orders/{id}/status", auth.RequireAdmin(orderHandler.TransitionOrder)).Methods("POST")

	api.HandleFunc("/notifications", notificationHandler.ListNotifications).Methods("GET")
	api.HandleFunc("/notifications/read-all", notificationHandler.MarkAllRead).Methods("POST")
	api.HandleFunc("/notifications/{id}/read", notificationHandler.MarkRead).Methods("POST")

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting canteen service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	stopConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).Milliseconds(),
			}).Info("Request completed")
		})
	}
}
