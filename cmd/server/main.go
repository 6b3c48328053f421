package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/akhmadev/gym-membership-service/internal/api/rest"
	"github.com/akhmadev/gym-membership-service/internal/cache"
	"github.com/akhmadev/gym-membership-service/internal/config"
	"github.com/akhmadev/gym-membership-service/internal/gymapi"
	"github.com/akhmadev/gym-membership-service/internal/kafka"
	"github.com/akhmadev/gym-membership-service/internal/kafka/producer"
	"github.com/akhmadev/gym-membership-service/internal/ledger"
	"github.com/akhmadev/gym-membership-service/internal/metrics"
	"github.com/akhmadev/gym-membership-service/internal/reward"
	"github.com/akhmadev/gym-membership-service/internal/service"
	"github.com/akhmadev/gym-membership-service/internal/store"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

var log *logger.Logger

func init() {
	// Загружаем переменные окружения
	if err := godotenv.Load(); err != nil {
		// Пропускаем ошибку, если .env файл не найден
	}

	// Инициализация логгера
	logLevel := logger.INFO
	if os.Getenv("DEBUG") == "true" {
		logLevel = logger.DEBUG
	}
	log = logger.New(logLevel)
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	if cfg.Logging.Level != "" {
		log.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	}

	// Инициализация Prometheus
	promRegistry := prometheus.NewRegistry()
	membershipMetrics := metrics.NewMembershipMetrics(promRegistry, log)
	systemMetrics := metrics.NewSystemMetrics(promRegistry, log)

	// Запускаем сбор системных метрик
	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	// Подключение к Redis
	redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Клиент серверного API
	backend := gymapi.NewClient(gymapi.Config{
		BaseURL: cfg.Backend.BaseURL,
		APIKey:  cfg.Backend.APIKey,
		Timeout: cfg.Backend.Timeout,
	}, log)

	// Инициализация Kafka продюсера
	kafkaConfig := kafka.NewConfig(cfg.Kafka.Brokers)
	saramaConfig := kafka.NewSaramaConfig(kafkaConfig, log)

	kafkaProducer, err := sarama.NewSyncProducer(kafkaConfig.Brokers, saramaConfig)
	if err != nil {
		log.Fatal("Failed to create Kafka producer: %v", err)
	}
	defer kafkaProducer.Close()

	eventProducer := producer.NewKafkaEventProducer(kafkaProducer, log)

	// Ядро: журнал платежей, согласованное хранилище, награды
	paymentLedger := ledger.New(log)
	membershipStore := store.New(backend, redisCache, paymentLedger, membershipMetrics, log)
	rewardCoordinator := reward.NewCoordinator(backend, membershipMetrics, log)

	membershipService := service.NewMembershipService(
		membershipStore,
		paymentLedger,
		rewardCoordinator,
		eventProducer,
		membershipMetrics,
		log,
	)

	// Установка режима Gin
	if os.Getenv("GIN_MODE") == "release" || cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Настройка маршрутизатора
	router := rest.SetupRouter(membershipService, log, promRegistry)

	// Создание и запуск HTTP сервера
	server := rest.NewServer(router, cfg, log)

	// Запуск сервера в горутине
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
