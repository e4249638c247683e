package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storyslip/internal/domain/models"
	analytics "storyslip/internal/services/analytics_service"
	render "storyslip/internal/services/render_service"
	widgets "storyslip/internal/services/widget_service"
	httpapp "storyslip/internal/transport/http"
	"storyslip/internal/transport/http/dto"

	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

type MockRenderService struct {
	mock.Mock
}

func (m *MockRenderService) RenderWidget(ctx context.Context, widgetID uuid.UUID, page int, search string) (*models.RenderedWidget, error) {
	args := m.Called(ctx, widgetID, page, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RenderedWidget), args.Error(1)
}

func (m *MockRenderService) ListContent(ctx context.Context, apiKey string, limit int) ([]dto.ContentItemResponse, error) {
	args := m.Called(ctx, apiKey, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.ContentItemResponse), args.Error(1)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Track(ctx context.Context, widgetID uuid.UUID, eventType models.TrackingEventType) error {
	args := m.Called(ctx, widgetID, eventType)
	return args.Error(0)
}

func (m *MockAnalyticsService) Summary(ctx context.Context, requesterID, widgetID uuid.UUID, from, to time.Time) (*dto.AnalyticsSummaryResponse, error) {
	args := m.Called(ctx, requesterID, widgetID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AnalyticsSummaryResponse), args.Error(1)
}

type MockWidgetService struct {
	mock.Mock
}

func (m *MockWidgetService) CreateWidget(ctx context.Context, websiteID, requesterID uuid.UUID, req dto.CreateWidgetRequest) (*dto.WidgetResponse, error) {
	args := m.Called(ctx, websiteID, requesterID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.WidgetResponse), args.Error(1)
}

func (m *MockWidgetService) UpdateWidget(ctx context.Context, widgetID, requesterID uuid.UUID, req dto.UpdateWidgetRequest) (*dto.WidgetResponse, error) {
	args := m.Called(ctx, widgetID, requesterID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.WidgetResponse), args.Error(1)
}

func (m *MockWidgetService) GetWidget(ctx context.Context, widgetID uuid.UUID, requesterID *uuid.UUID) (*dto.WidgetResponse, error) {
	args := m.Called(ctx, widgetID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.WidgetResponse), args.Error(1)
}

func (m *MockWidgetService) DeleteWidget(ctx context.Context, widgetID, requesterID uuid.UUID) error {
	args := m.Called(ctx, widgetID, requesterID)
	return args.Error(0)
}

func (m *MockWidgetService) ListWidgets(ctx context.Context, websiteID, requesterID uuid.UUID, page, perPage int) (*dto.WidgetListResponse, error) {
	args := m.Called(ctx, websiteID, requesterID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.WidgetListResponse), args.Error(1)
}

func newTestRouter(renderSvc *MockRenderService, analyticsSvc *MockAnalyticsService, widgetSvc *MockWidgetService) (*echo.Echo, *httpapp.Routers) {
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	router := httpapp.NewRouter(slog.Default(), nil, widgetSvc, renderSvc, analyticsSvc)
	return e, router
}

func TestRenderWidgetHandler(t *testing.T) {
	renderSvc := new(MockRenderService)
	e, router := newTestRouter(renderSvc, new(MockAnalyticsService), new(MockWidgetService))

	widgetID := uuid.New()
	renderSvc.On("RenderWidget", mock.Anything, widgetID, 2, "go").Return(&models.RenderedWidget{
		HTML:       "<div class=\"storyslip-widget\">ok</div>",
		CSS:        ".storyslip-widget{color:#111}",
		Page:       2,
		TotalPages: 3,
		TotalItems: 25,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/"+widgetID.String()+"/render?page=2&search=go", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/widgets/:widget_id/render")
	c.SetParamNames("widget_id")
	c.SetParamValues(widgetID.String())

	require.NoError(t, router.RenderWidget(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string             `json:"status"`
		Data   dto.RenderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "success", body.Status)
	assert.Contains(t, body.Data.HTML, "storyslip-widget")
	assert.Equal(t, 2, body.Data.Page)
	assert.Equal(t, 3, body.Data.TotalPages)
}

func TestRenderWidgetHandler_NotFound(t *testing.T) {
	renderSvc := new(MockRenderService)
	e, router := newTestRouter(renderSvc, new(MockAnalyticsService), new(MockWidgetService))

	widgetID := uuid.New()
	renderSvc.On("RenderWidget", mock.Anything, widgetID, 1, "").
		Return(nil, fmt.Errorf("render_service.RenderWidget: %w", render.ErrWidgetNotFound)).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/"+widgetID.String()+"/render", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("widget_id")
	c.SetParamValues(widgetID.String())

	require.NoError(t, router.RenderWidget(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "widget_not_found")
}

func TestRenderWidgetHandler_BadUUID(t *testing.T) {
	e, router := newTestRouter(new(MockRenderService), new(MockAnalyticsService), new(MockWidgetService))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/not-a-uuid/render", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("widget_id")
	c.SetParamValues("not-a-uuid")

	require.NoError(t, router.RenderWidget(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrackEventHandler(t *testing.T) {
	analyticsSvc := new(MockAnalyticsService)
	e, router := newTestRouter(new(MockRenderService), analyticsSvc, new(MockWidgetService))

	widgetID := uuid.New()
	analyticsSvc.On("Track", mock.Anything, widgetID, models.EventClick).Return(nil).Once()

	body := fmt.Sprintf(`{"event_type":"click","website_id":%q}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/widgets/"+widgetID.String()+"/track", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("widget_id")
	c.SetParamValues(widgetID.String())

	require.NoError(t, router.TrackEvent(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	analyticsSvc.AssertExpectations(t)
}

func TestTrackEventHandler_UnknownEventType(t *testing.T) {
	analyticsSvc := new(MockAnalyticsService)
	e, router := newTestRouter(new(MockRenderService), analyticsSvc, new(MockWidgetService))

	widgetID := uuid.New()
	body := fmt.Sprintf(`{"event_type":"hover","website_id":%q}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/widgets/"+widgetID.String()+"/track", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("widget_id")
	c.SetParamValues(widgetID.String())

	require.NoError(t, router.TrackEvent(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	analyticsSvc.AssertNotCalled(t, "Track", mock.Anything, mock.Anything, mock.Anything)
}

// Учет не должен ронять виджет: сбой записи все равно дает 204.
func TestTrackEventHandler_StorageFailureStillAccepted(t *testing.T) {
	analyticsSvc := new(MockAnalyticsService)
	e, router := newTestRouter(new(MockRenderService), analyticsSvc, new(MockWidgetService))

	widgetID := uuid.New()
	analyticsSvc.On("Track", mock.Anything, widgetID, models.EventView).
		Return(fmt.Errorf("db down")).Once()

	body := fmt.Sprintf(`{"event_type":"view","website_id":%q}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/widgets/"+widgetID.String()+"/track", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("widget_id")
	c.SetParamValues(widgetID.String())

	require.NoError(t, router.TrackEvent(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListContentHandler_LegacyShape(t *testing.T) {
	renderSvc := new(MockRenderService)
	e, router := newTestRouter(renderSvc, new(MockAnalyticsService), new(MockWidgetService))

	now := time.Now()
	renderSvc.On("ListContent", mock.Anything, "ss_feed", 5).Return([]dto.ContentItemResponse{
		{ID: uuid.New(), Title: "Post", URL: "https://e.com/p", PublishedAt: &now},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widget/ss_feed/content?limit=5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("api_key")
	c.SetParamValues("ss_feed")

	require.NoError(t, router.ListContent(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body dto.ContentListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Post", body.Data[0].Title)
}

func TestListContentHandler_MissingAPIKey(t *testing.T) {
	e, router := newTestRouter(new(MockRenderService), new(MockAnalyticsService), new(MockWidgetService))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widget//content", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, router.ListContent(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateWidgetHandler_Unauthenticated(t *testing.T) {
	widgetSvc := new(MockWidgetService)
	e, router := newTestRouter(new(MockRenderService), new(MockAnalyticsService), widgetSvc)

	body := `{"name":"Feed","type":"content_list"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/websites/"+uuid.NewString()+"/widgets", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("website_id")
	c.SetParamValues(uuid.NewString())

	require.NoError(t, router.CreateWidget(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	widgetSvc.AssertNotCalled(t, "CreateWidget", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateWidgetHandler_PermissionDenied(t *testing.T) {
	widgetSvc := new(MockWidgetService)
	e, router := newTestRouter(new(MockRenderService), new(MockAnalyticsService), widgetSvc)

	widgetID := uuid.New()
	requesterID := uuid.New()
	widgetSvc.On("UpdateWidget", mock.Anything, widgetID, requesterID, mock.AnythingOfType("dto.UpdateWidgetRequest")).
		Return(nil, fmt.Errorf("widget_service.UpdateWidget: %w", widgets.ErrPermissionDenied)).Once()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/widgets/"+widgetID.String(), strings.NewReader(`{"name":"Renamed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("widget_id")
	c.SetParamValues(widgetID.String())
	withTestToken(c, requesterID)

	require.NoError(t, router.UpdateWidget(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "permission_denied")
}

func TestAnalyticsSummaryHandler(t *testing.T) {
	analyticsSvc := new(MockAnalyticsService)
	e, router := newTestRouter(new(MockRenderService), analyticsSvc, new(MockWidgetService))

	widgetID := uuid.New()
	requesterID := uuid.New()
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

	analyticsSvc.On("Summary", mock.Anything, requesterID, widgetID, from, to).
		Return(&dto.AnalyticsSummaryResponse{
			WidgetID:       widgetID,
			Views:          200,
			Clicks:         50,
			EngagementRate: 0.25,
		}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/"+widgetID.String()+"/analytics/summary?from=2025-03-01&to=2025-03-07", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("widget_id")
	c.SetParamValues(widgetID.String())
	withTestToken(c, requesterID)

	require.NoError(t, router.AnalyticsSummary(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string                       `json:"status"`
		Data   dto.AnalyticsSummaryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 200, body.Data.Views)
	assert.InDelta(t, 0.25, body.Data.EngagementRate, 1e-9)
}

func TestAnalyticsSummaryHandler_NotAMemberLooksMissing(t *testing.T) {
	analyticsSvc := new(MockAnalyticsService)
	e, router := newTestRouter(new(MockRenderService), analyticsSvc, new(MockWidgetService))

	widgetID := uuid.New()
	requesterID := uuid.New()

	analyticsSvc.On("Summary", mock.Anything, requesterID, widgetID, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("analytics_service.Summary: %w", analytics.ErrWidgetNotFound)).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/"+widgetID.String()+"/analytics/summary", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("widget_id")
	c.SetParamValues(widgetID.String())
	withTestToken(c, requesterID)

	require.NoError(t, router.AnalyticsSummary(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// withTestToken кладет разобранный JWT в контекст так же, как echo-jwt.
func withTestToken(c echo.Context, userID uuid.UUID) {
	c.Set("user", &jwt.Token{Claims: jwt.MapClaims{"uid": userID.String()}})
}
