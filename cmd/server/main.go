package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"water-delivery-backend/internal/config"
	"water-delivery-backend/internal/controller"
	"water-delivery-backend/internal/middleware"
	"water-delivery-backend/internal/rabbit"
	"water-delivery-backend/internal/repository"
	"water-delivery-backend/internal/service"
)

func main() {
	cfg := config.Load()

	// MongoDB connection — one client for the process lifetime
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Println("mongo disconnect:", err)
		}
	}()
	db := client.Database(cfg.MongoDBName)

	// Repositories
	orderRepo := repository.NewMongoOrderRepository(db)
	userRepo := repository.NewMongoUserRepository(db)
	productRepo := repository.NewMongoProductRepository(db)

	// RabbitMQ is optional: without a broker the service still serves
	// requests, it just skips the order events.
	var events service.EventPublisher
	if cfg.RabbitURL != "" {
		conn, err := amqp091.Dial(cfg.RabbitURL)
		if err != nil {
			log.Printf("rabbit unavailable, order events disabled: %v", err)
		} else {
			defer conn.Close()
			ch, err := conn.Channel()
			if err != nil {
				log.Printf("rabbit channel failed, order events disabled: %v", err)
			} else {
				publisher, err := rabbit.NewPublisher(ch)
				if err != nil {
					log.Printf("rabbit exchange declare failed, order events disabled: %v", err)
				} else {
					events = publisher
					log.Println("publishing order events to exchange order_events (fanout)")
				}
			}
		}
	}

	// Services
	orderService := service.NewOrderService(orderRepo, events)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiresIn, cfg.AllowPasswordlessLogin)
	profileService := service.NewProfileService(userRepo)
	catalogService := service.NewCatalogService(productRepo)

	// Handlers
	orders := controller.NewOrderController(orderService)
	users := controller.NewUserController(authService, profileService, catalogService)

	// Router
	r := gin.Default()

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/auth/login", users.Login)

	// Protected routes (require token)
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(authService))

	auth.GET("/orders", orders.ListOrders)
	auth.POST("/orders", orders.CreateOrder)
	auth.PUT("/orders/:orderId", orders.UpdateOrder)
	auth.DELETE("/orders/:orderId", orders.DeleteOrder)

	auth.GET("/products", users.ListProducts)
	auth.GET("/profile/:userId", users.GetProfile)
	auth.PUT("/profile/:userId", users.UpdateProfile)

	log.Printf("water delivery backend listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
