package app

import (
	"context"
	"os"
	"os/signal"
	"socketWhiteboard/configs"
	"socketWhiteboard/internal/handlers"
	"socketWhiteboard/internal/hub"
	"socketWhiteboard/internal/interfaces"
	"socketWhiteboard/internal/repositories"
	"socketWhiteboard/internal/servers/database"
	"socketWhiteboard/internal/servers/http"
	"socketWhiteboard/internal/services"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	app  *App
	once sync.Once
)

type App struct {
	redis   *redis.Client
	ctx     context.Context
	configs *configs.Config
}

func GetApp() *App {
	once.Do(func() {
		app = &App{}
	})
	return app
}

func (app *App) LetsGo() {
	var stop context.CancelFunc
	app.ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.initializeConfigs()
	app.initializeLogger()
	app.initializeRedis()

	if app.configs.Viper.GetString("jwt.secret") == "" {
		logrus.Fatal("jwt.secret is not configured (set WHITEBOARD_JWT_SECRET)")
	}

	db := database.GetDB(app.configs)
	authRepo := repositories.NewAuthenticationRepository(db)
	authService := services.NewAuthenticationService(authRepo, app.configs)
	whiteboardRepo := repositories.NewWhiteboardRepository(db)

	var fileManagerService *services.FileManagerService
	if app.configs.Viper.GetBool("minio.enabled") {
		minioService, err := services.NewMinioService(app.ctx, app.configs)
		if err != nil {
			logrus.Fatalf("Failed to initialize object storage: %v", err)
		}
		fileManagerService = services.NewFileManagerService(minioService)
	}
	whiteboardService := services.NewWhiteboardService(whiteboardRepo, fileManagerService)

	coordinator := app.initializeCoordinator(whiteboardService)

	restHandler := handlers.NewRestHandler(authService, whiteboardService)
	socketWhiteboardHandler := handlers.NewSocketWhiteboardHandler(coordinator, authService, app.configs)

	http.NewHttpServer(
		app.ctx,
		app.configs,
		app.redis,
		authService,
		coordinator,
		restHandler,
		socketWhiteboardHandler,
	).Run()
}

func (app *App) initializeConfigs() {
	app.configs = configs.GetConfig()
}

func (app *App) initializeLogger() {
	level, err := logrus.ParseLevel(app.configs.Viper.GetString("log.level"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if app.configs.Viper.GetString("log.format") == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func (app *App) initializeRedis() {
	if !app.configs.Viper.GetBool("redis.enabled") {
		logrus.Info("Redis disabled, whiteboard events stay in-process")
		return
	}
	app.redis = redis.NewClient(&redis.Options{
		Addr:     app.configs.Viper.GetString("redis.address"),
		Password: app.configs.Viper.GetString("redis.password"),
		DB:       app.configs.Viper.GetInt("redis.db"),
	})
	if err := app.redis.Ping(app.ctx).Err(); err != nil {
		logrus.Fatalf("Failed to connect to redis: %v", err)
	}
}

// initializeCoordinator fans out through Redis when it is enabled so that every instance
// reaches its own members; otherwise fan-out is in-process.
func (app *App) initializeCoordinator(store interfaces.WhiteboardStore) *hub.Coordinator {
	if app.redis == nil {
		return hub.NewCoordinator(store, nil)
	}
	redisBroker := hub.NewRedisBroker(app.redis, app.configs.Viper.GetString("redis.channel"))
	coordinator := hub.NewCoordinator(store, redisBroker)
	if err := redisBroker.Subscribe(app.ctx, coordinator.Dispatch); err != nil {
		logrus.Fatalf("Could not subscribe to channel: %v", err)
	}
	go func() {
		<-app.ctx.Done()
		if err := redisBroker.Close(); err != nil {
			logrus.WithError(err).Warn("error closing redis subscription")
		}
	}()
	return coordinator
}
