// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"racereg/internal/auth"
	"racereg/internal/notifications"
	"racereg/internal/orders"
	"racereg/internal/payments"
	"racereg/internal/shared/config"
	"racereg/internal/shared/database"
	"racereg/internal/tickets"
	"racereg/pkg/cache"
	"racereg/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config        *config.Config
	db            *database.DB
	ticketService tickets.Service // For dependency injection
	producer      *notifications.KafkaOrderProducer
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB) *Router {
	return &Router{
		config: cfg,
		db:     db,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Setup auth routes
		r.setupAuthRoutes(api)

		// Ticket routes first; orders depend on the ticket service
		r.setupTicketRoutes(api)

		r.setupOrderAndPaymentRoutes(api)
	}
}

// Close releases resources owned by the route graph, such as the Kafka
// producer. Safe to call when Kafka is disabled.
func (r *Router) Close() error {
	if r.producer == nil {
		return nil
	}
	return r.producer.Close()
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "racereg-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "racereg-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAuthRoutes configures committee authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController)

	authRouter.SetupRoutes(rg)
}

// setupTicketRoutes configures ticket category routes
func (r *Router) setupTicketRoutes(rg *gin.RouterGroup) {
	cacheService := cache.NewService(r.db.GetRedisClient())

	ticketRepo := tickets.NewRepository(r.db.GetPostgreSQL())
	ticketService := tickets.NewService(ticketRepo, cacheService)
	ticketController := tickets.NewController(ticketService)

	// Store ticket service for dependency injection
	r.ticketService = ticketService

	tickets.SetupTicketRoutes(rg, ticketController)
}

// setupOrderAndPaymentRoutes configures the purchase and reconciliation flow
func (r *Router) setupOrderAndPaymentRoutes(rg *gin.RouterGroup) {
	gatewayClient := payments.NewClient(payments.ClientConfig{
		BaseURL:   r.config.Gateway.BaseURL,
		ServerKey: r.config.Gateway.ServerKey,
		Timeout:   r.config.Gateway.Timeout,
	})

	// Kafka is optional; without it paid/cancelled events are only logged.
	var publisher orders.EventPublisher
	if r.config.Kafka.Enabled {
		producer, err := notifications.NewKafkaOrderProducer(notifications.ProducerConfig{
			Brokers: r.config.Kafka.Brokers,
			Topic:   r.config.Kafka.Topic,
		})
		if err != nil {
			logger.GetDefault().WithError(err).Warn("kafka producer unavailable, order events disabled")
		} else {
			r.producer = producer
			publisher = producer
		}
	}

	orderRepo := orders.NewRepository(r.db.GetPostgreSQL())
	orderService := orders.NewService(orderRepo, r.ticketService, gatewayClient, publisher, r.config.OrderNumberPrefix)
	orderController := orders.NewController(orderService)

	orders.SetupOrderRoutes(rg, orderController)

	paymentService := payments.NewService(orderService, gatewayClient, payments.Config{
		ServerKey:       r.config.Gateway.ServerKey,
		VerifySignature: r.config.Gateway.VerifySignature,
	})
	paymentController := payments.NewController(paymentService)

	payments.SetupPaymentRoutes(rg, paymentController)
}
