package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"socketWhiteboard/configs"
	_ "socketWhiteboard/docs"
	"socketWhiteboard/internal/handlers"
	"socketWhiteboard/internal/hub"
	"socketWhiteboard/internal/interfaces"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type HttpServer struct {
	ctx                     context.Context
	config                  *configs.Config
	redis                   *redis.Client
	router                  *gin.Engine
	verifier                interfaces.TokenVerifier
	coordinator             *hub.Coordinator
	restHandler             *handlers.RestHandler
	socketWhiteboardHandler *handlers.SocketWhiteboardHandler
}

// NewHttpServer builds the router. redis may be nil, in which case rate limiting is off.
func NewHttpServer(
	ctx context.Context,
	config *configs.Config,
	redis *redis.Client,
	verifier interfaces.TokenVerifier,
	coordinator *hub.Coordinator,
	restHandler *handlers.RestHandler,
	socketWhiteboardHandler *handlers.SocketWhiteboardHandler,
) *HttpServer {
	hs := &HttpServer{
		ctx:                     ctx,
		config:                  config,
		redis:                   redis,
		verifier:                verifier,
		coordinator:             coordinator,
		restHandler:             restHandler,
		socketWhiteboardHandler: socketWhiteboardHandler,
	}
	hs.initializeGin()
	hs.setupRoutes()
	return hs
}

func (hs *HttpServer) Router() *gin.Engine { return hs.router }

func (hs *HttpServer) Run() {
	server := hs.startServer()

	// Wait for interrupt signal to gracefully shut down the server
	hs.waitForShutdown(server)
}

func (hs *HttpServer) initializeGin() {
	hs.router = gin.New()
	hs.router.Use(gin.Recovery(), requestLogger())
	hs.router.Use(cors.New(cors.Config{
		AllowOrigins:     hs.config.Viper.GetStringSlice("server.allowed_origins"),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}

func (hs *HttpServer) setupRoutes() {
	hs.router.GET("/health", hs.restHandler.Health)
	hs.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Real-time whiteboard
	hs.router.GET("/ws", hs.socketWhiteboardHandler.HandleSocketWhiteboardRoute)

	api := hs.router.Group("/api")

	auth := api.Group("/auth")
	if hs.redis != nil {
		auth.Use(handlers.RateLimitMiddleware(
			hs.redis,
			hs.config.Viper.GetInt("rate_limit.max_requests"),
			time.Duration(hs.config.Viper.GetInt("rate_limit.window_seconds"))*time.Second,
		))
	}
	auth.POST("/register", hs.restHandler.Register)
	auth.POST("/login", hs.restHandler.Login)
	auth.POST("/verifyToken", handlers.MustAuthenticateMiddleware(hs.verifier), hs.restHandler.VerifyToken)

	rooms := api.Group("/rooms", handlers.MustAuthenticateMiddleware(hs.verifier))
	rooms.GET("/:room/whiteboard", hs.restHandler.GetWhiteboard)
	rooms.POST("/:room/whiteboard/export", hs.restHandler.ExportWhiteboard)
}

func (hs *HttpServer) startServer() *http.Server {
	address := hs.config.Viper.GetString("server.address")
	server := &http.Server{
		Addr:              address,
		Handler:           hs.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server started on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	return server
}

func (hs *HttpServer) waitForShutdown(httpServer *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-hs.ctx.Done():
	}
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Hijacked websocket connections are not closed by Shutdown.
	hs.coordinator.Shutdown()

	logrus.Info("Server exiting")
}

func requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logrus.WithFields(logrus.Fields{
			"method":  ctx.Request.Method,
			"path":    ctx.FullPath(),
			"status":  ctx.Writer.Status(),
			"latency": time.Since(start).String(),
			"remote":  ctx.ClientIP(),
		}).Debug("request")
	}
}
