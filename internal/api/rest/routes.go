package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akhmadev/gym-membership-service/internal/api/rest/handlers"
	"github.com/akhmadev/gym-membership-service/internal/api/rest/middleware"
	"github.com/akhmadev/gym-membership-service/internal/service"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(svc service.MembershipService, log *logger.Logger, registry *prometheus.Registry) *gin.Engine {
	r := gin.New()

	// Подключение middleware
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Инициализация обработчиков
	subscriptionHandler := handlers.NewSubscriptionHandler(svc, log)
	paymentHandler := handlers.NewPaymentHandler(svc, log)

	v1 := r.Group("/api/v1")
	{
		// Абонементы клиента; ?active=true отдает текущий
		subscriptions := v1.Group("/clients/:clientId/subscriptions")
		{
			subscriptions.POST("", subscriptionHandler.CreateSubscription)
			subscriptions.GET("", subscriptionHandler.GetSubscriptions)
			subscriptions.POST("/:id/renew", subscriptionHandler.RenewSubscription)
			subscriptions.PATCH("/:id/cancel", subscriptionHandler.CancelSubscription)
			subscriptions.GET("/:id/eligibility", subscriptionHandler.GetEligibility)

			// Платежи по абонементу
			payments := subscriptions.Group("/:id/payments")
			{
				payments.POST("", paymentHandler.RecordPayment)
				payments.GET("", paymentHandler.GetPayments)
				payments.GET("/stats", paymentHandler.GetPaymentStats)
				payments.GET("/settlement", paymentHandler.GetSettlementAmount)
			}
		}
	}

	return r
}
