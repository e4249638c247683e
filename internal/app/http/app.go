package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	appmiddleware "storyslip/internal/middleware"
	httprouters "storyslip/internal/transport/http"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	m       *http.ServeMux
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	host    string
	port    string
	token   string
}

func New(log *slog.Logger, token string, host, port string, sessionSecret string, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true

	validate := validator.New()
	e.Validator = &CustomValidator{validator: validate}

	e.Use(session.Middleware(sessions.NewCookieStore([]byte(sessionSecret))))

	// виджеты встраиваются на чужие origin, поэтому публичная часть
	// должна отвечать на кросс-доменные запросы
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(appmiddleware.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
			)

			return nil
		},
	}))

	mux := http.NewServeMux()
	err := statsviz.Register(mux)
	if err != nil {
		log.Info("Statsviz start with error", slog.Any("error:", err.Error()))
	}

	return &Server{
		m:       mux,
		log:     log,
		e:       e,
		routers: routers,
		host:    host,
		port:    port,
		token:   token,
	}
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(fmt.Sprintf(":%s", s.port)); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", op, "http server")

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) BuildRouters() {
	api := s.e.Group("/api/v1")
	{
		api.POST("/register", s.routers.Register)
		api.POST("/login", s.routers.Login)

		// публичная плоскость: без аутентификации, только публичные виджеты
		api.GET("/widgets/:widget_id/render", s.routers.RenderWidget)
		api.POST("/widgets/:widget_id/track", s.routers.TrackEvent)
		api.GET("/widget/:api_key/content", s.routers.ListContent)

		// токен необязателен: аноним видит только публичные виджеты
		api.GET("/widgets/:widget_id", s.routers.GetWidget, echojwt.WithConfig(echojwt.Config{
			SigningKey:             []byte(s.token),
			ContinueOnIgnoredError: true,
			ErrorHandler: func(c echo.Context, err error) error {
				return nil
			},
		}))

		debug := s.e.Group("/debug")
		{
			debug.GET("/statsviz/", echo.WrapHandler(s.m))
			debug.GET("/statsviz/*", echo.WrapHandler(s.m))
		}

		s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

		swagger := s.e.Group("/swag")
		{
			swagger.GET("/swagger/*", echoSwagger.WrapHandler)
		}

		jwtConfig := echojwt.Config{
			SigningKey: []byte(s.token),
		}

		websiteGroup := api.Group("/websites")
		websiteGroup.Use(echojwt.WithConfig(jwtConfig))
		{
			websiteGroup.POST("/:website_id/widgets", s.routers.CreateWidget)
			websiteGroup.GET("/:website_id/widgets", s.routers.ListWidgets)
		}

		widgetGroup := api.Group("/widgets")
		widgetGroup.Use(echojwt.WithConfig(jwtConfig))
		{
			widgetGroup.PUT("/:widget_id", s.routers.UpdateWidget)
			widgetGroup.DELETE("/:widget_id", s.routers.DeleteWidget)
			widgetGroup.GET("/:widget_id/analytics/summary", s.routers.AnalyticsSummary)
		}
	}
}
