package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	cancelReservationHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/cancel_reservation"
	completeReservationHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/complete_reservation"
	createReservationHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/create_reservation"
	createSlotHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/create_slot"
	getReservationHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_reservation"
	getSlotHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_slot"
	getSlotBusyHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_slot_busy"
	getSlotReservationsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_slot_reservations"
	listReservationsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/list_reservations"
	listSlotsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/list_slots"
	quotePriceHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/quote_price"
	updateSlotStatusHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/update_slot_status"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/config"
	"github.com/m04kA/SMC-ParkingService/internal/infra/cache/slotcache"
	reservationRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/reservation"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	tenantRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/tenant"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/identity"
	actorService "github.com/m04kA/SMC-ParkingService/internal/service/actor"
	"github.com/m04kA/SMC-ParkingService/internal/service/pricing"
	reservationsService "github.com/m04kA/SMC-ParkingService/internal/service/reservations"
	slotsService "github.com/m04kA/SMC-ParkingService/internal/service/slots"
	cancelReservationUC "github.com/m04kA/SMC-ParkingService/internal/usecase/cancel_reservation"
	completeReservationsUC "github.com/m04kA/SMC-ParkingService/internal/usecase/complete_reservations"
	createReservationUC "github.com/m04kA/SMC-ParkingService/internal/usecase/create_reservation"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/metrics"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

func main() {
	configPath := "config.toml"
	if v := os.Getenv("PARKING_CONFIG"); v != "" {
		configPath = v
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ParkingService...")
	log.Info("Configuration loaded from %s", configPath)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Без метрик обёртка только пробрасывает вызовы
	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)

	// Репозитории и менеджер транзакций
	slotRepository := slotRepo.NewRepository(wrappedDB)
	reservationRepository := reservationRepo.NewRepository(wrappedDB)
	userRepository := userRepo.NewRepository(wrappedDB)
	tenantRepository := tenantRepo.NewRepository(wrappedDB)
	txMgr := txmanager.NewTransactionManager(wrappedDB, txmanager.WithLockTimeout(cfg.Database.LockTimeout()))

	// Кэш списка слотов
	var slotCache slotsService.SlotCache = slotcache.Nop{}
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			// Кэш необязателен: работаем напрямую с базой, клиент переподключится сам
			log.Warn("Redis is unreachable at %s, slot cache will miss: %v", cfg.Redis.Addr, err)
		}
		cancelPing()

		slotCache = slotcache.NewRedisCache(redisClient, cfg.Redis.TTL(), log)
		log.Info("Slot cache enabled (redis=%s, ttl=%s)", cfg.Redis.Addr, cfg.Redis.TTL())
	}

	// Проверка токенов identity provider
	verifier := identity.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	resolver := actorService.NewResolver(verifier, userRepository, tenantRepository, txMgr, log)

	calc := pricing.NewCalculator(cfg.Booking.CurrencyMinorUnits)
	retryPolicy := txmanager.RetryPolicy{
		MaxAttempts: cfg.Booking.MaxAttempts,
		Backoff:     cfg.Booking.RetryBackoff(),
	}

	// Инициализируем сервисы
	slotSvc := slotsService.NewService(
		slotRepository,
		userRepository,
		reservationRepository,
		txMgr,
		slotCache,
		calc,
		log,
	)
	reservationSvc := reservationsService.NewService(
		reservationRepository,
		slotRepository,
		txMgr,
		cfg.Booking.CurrencyMinorUnits,
		log,
	)

	// Инициализируем use cases
	createReservationUseCase := createReservationUC.NewUseCase(
		slotRepository,
		reservationRepository,
		userRepository,
		calc,
		txMgr,
		createReservationUC.Rules{
			MinDuration: cfg.Booking.MinDuration(),
			MaxDuration: cfg.Booking.MaxDuration(),
			MaxAdvance:  cfg.Booking.MaxAdvance(),
		},
		retryPolicy,
		metricsCollector,
		log,
	)
	cancelReservationUseCase := cancelReservationUC.NewUseCase(
		reservationRepository,
		slotRepository,
		txMgr,
		cfg.Booking.CancellationGrace(),
		retryPolicy,
		metricsCollector,
		log,
	)
	completeReservationsUseCase := completeReservationsUC.NewUseCase(
		reservationRepository,
		tenantRepository,
		txMgr,
		uint64(cfg.Completer.BatchSize),
		retryPolicy,
		metricsCollector,
		log,
	)

	// Инициализируем handlers
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	cancelReservation := cancelReservationHandler.NewHandler(cancelReservationUseCase, log)
	completeReservation := completeReservationHandler.NewHandler(completeReservationsUseCase, log)
	getReservation := getReservationHandler.NewHandler(reservationSvc, log)
	listReservations := listReservationsHandler.NewHandler(reservationSvc, log)
	getSlotReservations := getSlotReservationsHandler.NewHandler(reservationSvc, log)
	listSlots := listSlotsHandler.NewHandler(slotSvc, log)
	getSlot := getSlotHandler.NewHandler(slotSvc, log)
	createSlot := createSlotHandler.NewHandler(slotSvc, log)
	updateSlotStatus := updateSlotStatusHandler.NewHandler(slotSvc, log)
	getSlotBusy := getSlotBusyHandler.NewHandler(slotSvc, log)
	quotePrice := quotePriceHandler.NewHandler(slotSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestID)

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// Health check (публичный)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), time.Second)
		defer cancel()
		if err := wrappedDB.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (Bearer токен identity provider)
	// ============================================================

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(resolver, log))

	// --- Парковочные места ---
	api.HandleFunc("/slots", listSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/slots", createSlot.Handle).Methods(http.MethodPost)
	api.HandleFunc("/slots/{slotId:[0-9]+}", getSlot.Handle).Methods(http.MethodGet)
	api.HandleFunc("/slots/{slotId:[0-9]+}/status", updateSlotStatus.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/slots/{slotId:[0-9]+}/busy", getSlotBusy.Handle).Methods(http.MethodGet)
	api.HandleFunc("/slots/{slotId:[0-9]+}/quote", quotePrice.Handle).Methods(http.MethodGet)
	api.HandleFunc("/slots/{slotId:[0-9]+}/reservations", getSlotReservations.Handle).Methods(http.MethodGet)

	// --- Бронирования ---
	var createReservationRoute http.Handler = http.HandlerFunc(createReservation.Handle)
	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		go limiter.StartCleanup(rootCtx, time.Minute)
		createReservationRoute = limiter.Limit(createReservationRoute)
		log.Info("Reservation rate limit enabled (rps=%.2f, burst=%d)", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	api.Handle("/reservations", createReservationRoute).Methods(http.MethodPost)
	api.HandleFunc("/reservations", listReservations.Handle).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{reservationId:[0-9]+}", getReservation.Handle).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{reservationId:[0-9]+}/cancel", cancelReservation.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/reservations/{reservationId:[0-9]+}/complete", completeReservation.Handle).Methods(http.MethodPatch)

	var handler http.Handler = r
	if len(cfg.CORS.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
			ExposedHeaders:   []string{middleware.HeaderRequestID, "Retry-After"},
			AllowCredentials: true,
		}).Handler(r)
		log.Info("CORS enabled for %v", cfg.CORS.AllowedOrigins)
	}

	// Фоновое завершение прошедших бронирований
	workerDone := make(chan struct{})
	if cfg.Completer.Enabled {
		worker := completeReservationsUC.NewWorker(completeReservationsUseCase, cfg.Completer.Interval(), log)
		go func() {
			defer close(workerDone)
			worker.Run(rootCtx)
		}()
	} else {
		close(workerDone)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	stopBackground()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("Completion worker did not stop in time")
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
