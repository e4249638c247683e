package app

import (
	"context"
	"log/slog"

	httpapp "storyslip/internal/app/http"
	"storyslip/internal/config"
	"storyslip/internal/repository"
	"storyslip/internal/services/access"
	analytics "storyslip/internal/services/analytics_service"
	render "storyslip/internal/services/render_service"
	users "storyslip/internal/services/user_service"
	widgets "storyslip/internal/services/widget_service"
	"storyslip/internal/storage/postgresql"
	redisstorage "storyslip/internal/storage/redis"
	httprouters "storyslip/internal/transport/http"
)

type App struct {
	HTTPServer *httpapp.Server
	storage    *postgresql.Storage
	redis      *redisstorage.Client
}

func New(log *slog.Logger, cfg *config.Config) *App {
	storage, err := postgresql.New(context.Background(), cfg.DSN)
	if err != nil {
		panic(err)
	}

	redisClient := redisstorage.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)

	pool := storage.Pool()

	widgetRepo := repository.NewWidgetRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	membershipRepo := repository.NewMembershipRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	renderCache := repository.NewRedisRenderCache(redisClient)

	checker := access.New(log, membershipRepo)

	userService := users.NewUserService(log, userRepo, cfg.TokenSecret, cfg.TokenTTL)
	widgetService := widgets.NewWidgetService(log, widgetRepo, analyticsRepo, renderCache, checker, cfg.Widget.PublicBaseURL)
	renderService := render.NewRenderService(log, widgetRepo, contentRepo, renderCache, cfg.Widget.RenderCacheTTL)
	analyticsService := analytics.NewAnalyticsService(log, analyticsRepo, widgetRepo, checker)

	routers := httprouters.NewRouter(log, userService, widgetService, renderService, analyticsService)

	server := httpapp.New(log, cfg.TokenSecret, cfg.HTTP.Host, cfg.HTTP.Port, cfg.SessionKey, routers)

	return &App{
		HTTPServer: server,
		storage:    storage,
		redis:      redisClient,
	}
}

func (a *App) Stop() {
	if err := a.HTTPServer.Stop(); err != nil {
		panic(err)
	}

	a.storage.Stop()
	a.redis.Close()
}
