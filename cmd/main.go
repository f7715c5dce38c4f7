package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edu-assistant-platform/internal/ai"
	"edu-assistant-platform/internal/config"
	"edu-assistant-platform/internal/lock"
	"edu-assistant-platform/internal/logger"
	"edu-assistant-platform/internal/telemetry"
	"edu-assistant-platform/internal/vectorstore"
	"edu-assistant-platform/middleware"
	"edu-assistant-platform/routes"
	"edu-assistant-platform/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Tracing is optional; metrics always initialize (no-op without a reader)
	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracer("edu-assistant-platform", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to init tracer:", err)
		}
		defer shutdownTracer()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	// Connect to MongoDB for ingestion records
	var mongoClient *mongo.Client
	var documentsCollection *mongo.Collection
	if cfg.MongoEnabled {
		mongoClient, err = config.ConnectMongoDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			mongoClient.Disconnect(ctx)
		}()
		documentsCollection = mongoClient.Database(cfg.DBName).Collection("documents")
	}

	// Connect to Redis for rate limiting and the cross-process lock
	var rdb *redis.Client
	if cfg.RedisEnabled {
		rdb, err = config.NewRedisClient(cfg)
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		defer rdb.Close()
	}

	// Embedding provider, selected once at startup
	embedder, err := ai.NewEmbedder(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to init embedder:", err)
	}

	// Vector store adapter, selected once at startup
	store, err := vectorstore.NewStore(cfg)
	if err != nil {
		log.Fatal("Failed to connect to vector store:", err)
	}
	defer store.Close()

	// Per-collection ingest lock
	var locks lock.KeyedLocker
	if cfg.LockBackend == "redis" {
		locks = lock.NewRedisLocker(rdb, time.Duration(cfg.LockTTLSeconds)*time.Second)
	} else {
		locks = lock.NewLocalLocker()
	}

	pipeline := services.NewPipeline(embedder, store, locks, metrics, cfg.MaxChunkSize)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(metrics))
	if rdb != nil {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupIngestRoutes(router, cfg, pipeline, store, documentsCollection, metrics)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
