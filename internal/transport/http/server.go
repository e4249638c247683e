package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"storyslip/internal/domain/models"
	"storyslip/internal/lib/logger/sl"
	analytics "storyslip/internal/services/analytics_service"
	render "storyslip/internal/services/render_service"
	users "storyslip/internal/services/user_service"
	widgets "storyslip/internal/services/widget_service"
	"storyslip/internal/transport/http/dto"
	"storyslip/internal/transport/http/dto/request"
	"storyslip/internal/transport/http/dto/response"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	_ "storyslip/docs"
)

type UserService interface {
	Login(ctx context.Context, email, password string) (string, error)
	RegisterNewUser(ctx context.Context, name, email, password string) (uuid.UUID, error)
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type WidgetService interface {
	CreateWidget(ctx context.Context, websiteID, requesterID uuid.UUID, req dto.CreateWidgetRequest) (*dto.WidgetResponse, error)
	UpdateWidget(ctx context.Context, widgetID, requesterID uuid.UUID, req dto.UpdateWidgetRequest) (*dto.WidgetResponse, error)
	GetWidget(ctx context.Context, widgetID uuid.UUID, requesterID *uuid.UUID) (*dto.WidgetResponse, error)
	DeleteWidget(ctx context.Context, widgetID, requesterID uuid.UUID) error
	ListWidgets(ctx context.Context, websiteID, requesterID uuid.UUID, page, perPage int) (*dto.WidgetListResponse, error)
}

type RenderService interface {
	RenderWidget(ctx context.Context, widgetID uuid.UUID, page int, search string) (*models.RenderedWidget, error)
	ListContent(ctx context.Context, apiKey string, limit int) ([]dto.ContentItemResponse, error)
}

type AnalyticsService interface {
	Track(ctx context.Context, widgetID uuid.UUID, eventType models.TrackingEventType) error
	Summary(ctx context.Context, requesterID, widgetID uuid.UUID, from, to time.Time) (*dto.AnalyticsSummaryResponse, error)
}

type Routers struct {
	log              *slog.Logger
	UserService      UserService
	WidgetService    WidgetService
	RenderService    RenderService
	AnalyticsService AnalyticsService
}

func NewRouter(
	log *slog.Logger,
	userService UserService,
	widgetService WidgetService,
	renderService RenderService,
	analyticsService AnalyticsService,
) *Routers {
	return &Routers{
		log:              log,
		UserService:      userService,
		WidgetService:    widgetService,
		RenderService:    renderService,
		AnalyticsService: analyticsService,
	}
}

var ErrInvalidUUID = errors.New("not valid UUID")

// Login godoc
// @Summary Аутентификация пользователя
// @Description Вход в систему по email и паролю. Возвращает JWT-токен.
// @Tags users
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Данные для входа"
// @Success 200 {object} response.Response{data=map[string]string} "Успешный вход (токен)"
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 401 {object} response.ErrorResponse "Ошибка аутентификации"
// @Router /api/v1/login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.LoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid format request", slog.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	token, err := r.UserService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]string{
		"access_token": token,
	}))
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Description Создание аккаунта. Возвращает ID пользователя.
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.UserRegisterInput true "Данные для регистрации"
// @Success 201 {object} response.Response{data=object{user_id=string}} "Успешная регистрация"
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже существует"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/register [post]
func (r *Routers) Register(c echo.Context) error {
	const op = "http.routers.Register"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.UserRegisterInput

	if err := c.Bind(&req); err != nil {
		log.Error("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	userID, err := r.UserService.RegisterNewUser(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrUserExists) {
			log.Warn("user already exists", slog.String("email", req.Email))
			return c.JSON(http.StatusConflict, response.ErrUserAlreadyExists)
		}

		log.Error("registration failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	log.Info("user registered successfully", slog.String("user_id", userID.String()))

	return c.JSON(http.StatusCreated, response.SuccessResponse(map[string]uuid.UUID{
		"user_id": userID,
	}))
}

// CreateWidget godoc
// @Summary Создание виджета
// @Description Создает конфигурацию виджета для сайта и генерирует код внедрения
// @Tags widgets
// @Accept json
// @Produce json
// @Param website_id path string true "UUID сайта" format(uuid)
// @Param request body dto.CreateWidgetRequest true "Конфигурация виджета"
// @Success 201 {object} response.Response{data=dto.WidgetResponse} "Созданный виджет"
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Сайт недоступен"
// @Security ApiKeyAuth
// @Router /api/v1/websites/{website_id}/widgets [post]
func (r *Routers) CreateWidget(c echo.Context) error {
	const op = "http.routers.CreateWidget"

	log := r.log.With(
		slog.String("op", op),
	)

	websiteID, err := uuid.Parse(c.Param("website_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid website ID format"))
	}

	requesterID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	var req dto.CreateWidgetRequest
	if err := c.Bind(&req); err != nil {
		log.Error("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	widget, err := r.WidgetService.CreateWidget(c.Request().Context(), websiteID, requesterID, req)
	if err != nil {
		return r.widgetError(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(widget))
}

// GetWidget godoc
// @Summary Получение виджета
// @Description Возвращает конфигурацию виджета. Без авторизации доступны только публичные виджеты.
// @Tags widgets
// @Produce json
// @Param widget_id path string true "UUID виджета" format(uuid)
// @Success 200 {object} response.Response{data=dto.WidgetResponse} "Конфигурация виджета"
// @Failure 400 {object} response.ErrorResponse "Невалидный UUID"
// @Failure 404 {object} response.ErrorResponse "Виджет не найден"
// @Router /api/v1/widgets/{widget_id} [get]
func (r *Routers) GetWidget(c echo.Context) error {
	const op = "http.routers.GetWidget"

	log := r.log.With(
		slog.String("op", op),
	)

	widgetID, err := uuid.Parse(c.Param("widget_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid widget ID format"))
	}

	// анонимный запрос видит только публичные виджеты
	var requesterID *uuid.UUID
	if id, err := userIDFromContext(c); err == nil {
		requesterID = &id
	}

	widget, err := r.WidgetService.GetWidget(c.Request().Context(), widgetID, requesterID)
	if err != nil {
		return r.widgetError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(widget))
}

// UpdateWidget godoc
// @Summary Обновление виджета
// @Description Частичное обновление: затрагиваются только переданные поля. Код внедрения перегенерируется при смене презентационных полей.
// @Tags widgets
// @Accept json
// @Produce json
// @Param widget_id path string true "UUID виджета" format(uuid)
// @Param request body dto.UpdateWidgetRequest true "Изменяемые поля"
// @Success 200 {object} response.Response{data=dto.WidgetResponse} "Обновленный виджет"
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Виджет не найден"
// @Security ApiKeyAuth
// @Router /api/v1/widgets/{widget_id} [put]
func (r *Routers) UpdateWidget(c echo.Context) error {
	const op = "http.routers.UpdateWidget"

	log := r.log.With(
		slog.String("op", op),
	)

	widgetID, err := uuid.Parse(c.Param("widget_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid widget ID format"))
	}

	requesterID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	var req dto.UpdateWidgetRequest
	if err := c.Bind(&req); err != nil {
		log.Error("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	widget, err := r.WidgetService.UpdateWidget(c.Request().Context(), widgetID, requesterID, req)
	if err != nil {
		return r.widgetError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(widget))
}

// DeleteWidget godoc
// @Summary Удаление виджета
// @Description Удаляет виджет вместе с его аналитикой и кэшем отрисовки
// @Tags widgets
// @Produce json
// @Param widget_id path string true "UUID виджета" format(uuid)
// @Success 204 "Виджет удален"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Виджет не найден"
// @Security ApiKeyAuth
// @Router /api/v1/widgets/{widget_id} [delete]
func (r *Routers) DeleteWidget(c echo.Context) error {
	const op = "http.routers.DeleteWidget"

	log := r.log.With(
		slog.String("op", op),
	)

	widgetID, err := uuid.Parse(c.Param("widget_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid widget ID format"))
	}

	requesterID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	if err := r.WidgetService.DeleteWidget(c.Request().Context(), widgetID, requesterID); err != nil {
		return r.widgetError(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListWidgets godoc
// @Summary Список виджетов сайта
// @Description Постраничный список виджетов сайта для панели управления
// @Tags widgets
// @Produce json
// @Param website_id path string true "UUID сайта" format(uuid)
// @Param page query int false "Номер страницы (с 1)"
// @Param per_page query int false "Размер страницы"
// @Success 200 {object} response.Response{data=dto.WidgetListResponse} "Список виджетов"
// @Failure 404 {object} response.ErrorResponse "Сайт недоступен"
// @Security ApiKeyAuth
// @Router /api/v1/websites/{website_id}/widgets [get]
func (r *Routers) ListWidgets(c echo.Context) error {
	const op = "http.routers.ListWidgets"

	log := r.log.With(
		slog.String("op", op),
	)

	websiteID, err := uuid.Parse(c.Param("website_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid website ID format"))
	}

	requesterID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)

	list, err := r.WidgetService.ListWidgets(c.Request().Context(), websiteID, requesterID, page, perPage)
	if err != nil {
		return r.widgetError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(list))
}

// RenderWidget godoc
// @Summary Отрисовка виджета
// @Description Публичная точка отрисовки: возвращает HTML, CSS и JS виджета для встраивания
// @Tags render
// @Produce json
// @Param widget_id path string true "UUID виджета" format(uuid)
// @Param page query int false "Номер страницы (с 1)"
// @Param search query string false "Поисковый запрос"
// @Success 200 {object} response.Response{data=dto.RenderResponse} "Отрисованный виджет"
// @Failure 404 {object} response.ErrorResponse "Виджет не найден или не публичен"
// @Router /api/v1/widgets/{widget_id}/render [get]
func (r *Routers) RenderWidget(c echo.Context) error {
	const op = "http.routers.RenderWidget"

	log := r.log.With(
		slog.String("op", op),
	)

	widgetID, err := uuid.Parse(c.Param("widget_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid widget ID format"))
	}

	page := queryInt(c, "page", 1)
	search := c.QueryParam("search")

	rendered, err := r.RenderService.RenderWidget(c.Request().Context(), widgetID, page, search)
	if err != nil {
		if errors.Is(err, render.ErrWidgetNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrWidgetNotFound)
		}
		log.Error("render failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.RenderResponse{
		HTML:       rendered.HTML,
		CSS:        rendered.CSS,
		JS:         rendered.JS,
		Meta:       rendered.Meta,
		Page:       rendered.Page,
		TotalPages: rendered.TotalPages,
		TotalItems: rendered.TotalItems,
	}))
}

// ListContent godoc
// @Summary Лента контента по API-ключу
// @Description Устаревшая лента для старых вариантов встраивания; отдает контент без шаблонов
// @Tags render
// @Produce json
// @Param api_key path string true "API-ключ виджета"
// @Param limit query int false "Максимум элементов (1-100)"
// @Success 200 {object} dto.ContentListResponse "Лента контента"
// @Failure 404 {object} response.ErrorResponse "Ключ не найден"
// @Router /api/v1/widget/{api_key}/content [get]
func (r *Routers) ListContent(c echo.Context) error {
	const op = "http.routers.ListContent"

	log := r.log.With(
		slog.String("op", op),
	)

	apiKey := c.Param("api_key")
	if apiKey == "" {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "api_key is required"))
	}

	limit := queryInt(c, "limit", 10)

	items, err := r.RenderService.ListContent(c.Request().Context(), apiKey, limit)
	if err != nil {
		if errors.Is(err, render.ErrWidgetNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrWidgetNotFound)
		}
		log.Error("content feed failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, dto.ContentListResponse{
		Success: true,
		Data:    items,
	})
}

// TrackEvent godoc
// @Summary Событие аналитики виджета
// @Description Принимает событие (view/click/interaction) с публичной поверхности виджета
// @Tags analytics
// @Accept json
// @Produce json
// @Param widget_id path string true "UUID виджета" format(uuid)
// @Param request body dto.TrackEventRequest true "Событие"
// @Success 204 "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 404 {object} response.ErrorResponse "Виджет не найден"
// @Router /api/v1/widgets/{widget_id}/track [post]
func (r *Routers) TrackEvent(c echo.Context) error {
	const op = "http.routers.TrackEvent"

	log := r.log.With(
		slog.String("op", op),
	)

	widgetID, err := uuid.Parse(c.Param("widget_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid widget ID format"))
	}

	var req dto.TrackEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	eventType := models.TrackingEventType(req.EventType)
	if !eventType.Valid() {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "unknown event type"))
	}

	if err := r.AnalyticsService.Track(c.Request().Context(), widgetID, eventType); err != nil {
		if errors.Is(err, analytics.ErrWidgetNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrWidgetNotFound)
		}
		// учет не должен ломать виджет на стороне клиента
		log.Warn("failed to track event", sl.Err(err))
	}

	return c.NoContent(http.StatusNoContent)
}

// AnalyticsSummary godoc
// @Summary Сводка аналитики виджета
// @Description Агрегаты просмотров, кликов и вовлеченности за период для панели управления
// @Tags analytics
// @Produce json
// @Param widget_id path string true "UUID виджета" format(uuid)
// @Param from query string false "Начало периода (YYYY-MM-DD)"
// @Param to query string false "Конец периода (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=dto.AnalyticsSummaryResponse} "Сводка"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Виджет не найден"
// @Security ApiKeyAuth
// @Router /api/v1/widgets/{widget_id}/analytics/summary [get]
func (r *Routers) AnalyticsSummary(c echo.Context) error {
	const op = "http.routers.AnalyticsSummary"

	log := r.log.With(
		slog.String("op", op),
	)

	widgetID, err := uuid.Parse(c.Param("widget_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "invalid widget ID format"))
	}

	requesterID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	from, err := queryDate(c, "from")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "from must be YYYY-MM-DD"))
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "to must be YYYY-MM-DD"))
	}

	summary, err := r.AnalyticsService.Summary(c.Request().Context(), requesterID, widgetID, from, to)
	if err != nil {
		switch {
		case errors.Is(err, analytics.ErrWidgetNotFound):
			return c.JSON(http.StatusNotFound, response.ErrWidgetNotFound)
		case errors.Is(err, analytics.ErrPermissionDenied):
			return c.JSON(http.StatusForbidden, response.ErrPermissionDenied)
		}
		log.Error("failed to load summary", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(summary))
}

// widgetError переводит сервисные ошибки виджетов в HTTP-статусы; чужие
// сайты и несуществующие виджеты неотличимы снаружи.
func (r *Routers) widgetError(c echo.Context, log *slog.Logger, err error) error {
	switch {
	case errors.Is(err, widgets.ErrWidgetNotFound):
		return c.JSON(http.StatusNotFound, response.ErrWidgetNotFound)
	case errors.Is(err, widgets.ErrPermissionDenied):
		return c.JSON(http.StatusForbidden, response.ErrPermissionDenied)
	case errors.Is(err, widgets.ErrInvalidWidget):
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	log.Error("widget operation failed", sl.Err(err))
	return c.JSON(http.StatusInternalServerError, response.ErrInternal)
}

// userIDFromContext достает uid из JWT, положенного echo-jwt middleware.
func userIDFromContext(c echo.Context) (uuid.UUID, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, ErrInvalidUUID
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidUUID
	}

	uid, ok := claims["uid"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidUUID
	}

	return uuid.Parse(uid)
}

func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryDate(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}
