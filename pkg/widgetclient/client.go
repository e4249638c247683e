// Package widgetclient is the embeddable widget runtime. It fetches
// rendered widget output from the delivery API and applies it to a host
// Surface. A widget embedded on a third-party page must never take the
// host down: every failure path here degrades to an inline error state
// instead of panicking.
package widgetclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateRendered
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateRendered:
		return "rendered"
	case StateError:
		return "error"
	}
	return "unknown"
}

type DisplayMode string

const (
	DisplayInline   DisplayMode = "inline"
	DisplayPopup    DisplayMode = "popup"
	DisplayModal    DisplayMode = "modal"
	DisplaySidebar  DisplayMode = "sidebar"
	DisplayFloating DisplayMode = "floating"
)

const (
	defaultItemsPerPage = 10
	defaultCacheTTL     = 5 * time.Minute
	defaultRetries      = 2
	defaultRetryDelay   = 500 * time.Millisecond
	defaultFetchTimeout = 10 * time.Second
)

type Config struct {
	// APIKey or WidgetID identifies the widget; at least one is required.
	APIKey   string
	WidgetID string
	// WebsiteID is required; tracking events carry it.
	WebsiteID string

	APIBaseURL   string
	ItemsPerPage int
	DisplayMode  DisplayMode

	CacheEnabled bool
	CacheTTL     time.Duration

	LazyLoad   bool
	AutoResize bool

	// MaxRetries bounds retries after a failed fetch. Zero means the
	// default; a negative value disables retries.
	MaxRetries   int
	RetryDelay   time.Duration
	FetchTimeout time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger

	Surface    Surface
	Visibility VisibilityObserver
	Resize     ResizeObserver

	// Fetcher overrides the HTTP transport, used by tests.
	Fetcher Fetcher
}

type inflightCall struct {
	done    chan struct{}
	payload *RenderPayload
	err     error
}

type Widget struct {
	cfg     Config
	log     *slog.Logger
	surface Surface
	fetcher Fetcher
	cache   *gocache.Cache

	state      atomic.Int32
	active     atomic.Bool
	generation atomic.Uint64

	mu            sync.Mutex
	inflight      map[string]*inflightCall
	disconnects   []func()
	overlayHooks  []func()
	currentPage   int
	currentSearch string
	shown         bool
}

// New never returns an error: a widget with an invalid configuration
// goes straight to a terminal error state and stays inert.
func New(cfg Config) *Widget {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ItemsPerPage <= 0 {
		cfg.ItemsPerPage = defaultItemsPerPage
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.DisplayMode == "" {
		cfg.DisplayMode = DisplayInline
	}
	if cfg.Surface == nil {
		cfg.Surface = NewMemorySurface()
	}
	if cfg.Visibility == nil {
		cfg.Visibility = noopVisibilityObserver{}
	}
	if cfg.Resize == nil {
		cfg.Resize = noopResizeObserver{}
	}
	if cfg.Fetcher == nil {
		client := cfg.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: cfg.FetchTimeout}
		}
		cfg.Fetcher = newHTTPFetcher(cfg.APIBaseURL, client)
	}

	w := &Widget{
		cfg:         cfg,
		log:         cfg.Logger.With(slog.String("component", "widgetclient")),
		surface:     cfg.Surface,
		fetcher:     cfg.Fetcher,
		inflight:    make(map[string]*inflightCall),
		currentPage: 1,
	}

	if cfg.APIKey == "" && cfg.WidgetID == "" {
		w.log.Error("widget init failed: api key or widget id is required")
		w.state.Store(int32(StateError))
		return w
	}
	if cfg.WebsiteID == "" {
		w.log.Error("widget init failed: website id is required")
		w.state.Store(int32(StateError))
		return w
	}

	if cfg.CacheEnabled {
		w.cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}

	w.active.Store(true)
	return w
}

func (w *Widget) State() State {
	return State(w.state.Load())
}

// Init wires observers and triggers the first load. With lazy loading
// the first load waits for container visibility when the host supports
// observation; otherwise it happens immediately.
func (w *Widget) Init(ctx context.Context) {
	if !w.active.Load() {
		return
	}

	if w.cfg.AutoResize {
		if disconnect, ok := w.cfg.Resize.Observe(w.surface.SetMaxSize); ok {
			w.mu.Lock()
			w.disconnects = append(w.disconnects, disconnect)
			w.mu.Unlock()
		}
	}

	if w.cfg.DisplayMode == DisplayInline {
		w.surface.SetVisible(true)
	}

	if w.cfg.LazyLoad {
		disconnect, ok := w.cfg.Visibility.Observe(func() {
			_ = w.LoadContent(context.Background(), 1, "")
		})
		if ok {
			w.mu.Lock()
			w.disconnects = append(w.disconnects, disconnect)
			w.mu.Unlock()
			return
		}
	}

	_ = w.LoadContent(ctx, 1, "")
}

// LoadContent fetches and renders one page. Concurrent identical loads
// collapse onto a single fetch; when loads overlap, the most recent call
// wins the render and stale responses are dropped.
func (w *Widget) LoadContent(ctx context.Context, page int, search string) error {
	return w.load(ctx, page, search, w.cfg.MaxRetries)
}

// Refresh drops the cached entry for the current page and re-fetches it.
func (w *Widget) Refresh(ctx context.Context) error {
	if !w.active.Load() {
		return nil
	}

	w.mu.Lock()
	page, search := w.currentPage, w.currentSearch
	w.mu.Unlock()

	if w.cache != nil {
		w.cache.Delete(w.cacheKey(page, search))
	}

	return w.load(ctx, page, search, w.cfg.MaxRetries)
}

// Retry is the inline error state's retry control: one fetch, no retry
// loop.
func (w *Widget) Retry(ctx context.Context) error {
	if !w.active.Load() {
		return nil
	}

	w.mu.Lock()
	page, search := w.currentPage, w.currentSearch
	w.mu.Unlock()

	return w.load(ctx, page, search, 0)
}

func (w *Widget) load(ctx context.Context, page int, search string, retries int) error {
	if !w.active.Load() {
		return nil
	}

	if page < 1 {
		page = 1
	}

	w.mu.Lock()
	w.currentPage, w.currentSearch = page, search
	w.mu.Unlock()

	w.state.Store(int32(StateLoading))

	key := w.cacheKey(page, search)

	if w.cache != nil {
		if cached, ok := w.cache.Get(key); ok {
			w.render(cached.(*RenderPayload))
			return nil
		}
	}

	gen := w.generation.Add(1)

	payload, err := w.fetchCollapsed(ctx, key, page, search, retries)

	// более новый запрос уже стартовал — этот ответ устарел
	if w.generation.Load() != gen || !w.active.Load() {
		return nil
	}

	if err != nil {
		w.log.Warn("content load failed", slog.String("error", err.Error()))
		w.renderError()
		return err
	}

	if w.cache != nil {
		w.cache.Set(key, payload, gocache.DefaultExpiration)
	}

	w.render(payload)
	return nil
}

// fetchCollapsed deduplicates concurrent fetches per cache key.
func (w *Widget) fetchCollapsed(ctx context.Context, key string, page int, search string, retries int) (*RenderPayload, error) {
	w.mu.Lock()
	if call, ok := w.inflight[key]; ok {
		w.mu.Unlock()
		select {
		case <-call.done:
			return call.payload, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &inflightCall{done: make(chan struct{})}
	w.inflight[key] = call
	w.mu.Unlock()

	call.payload, call.err = w.fetchWithRetry(ctx, page, search, retries)

	w.mu.Lock()
	delete(w.inflight, key)
	w.mu.Unlock()
	close(call.done)

	return call.payload, call.err
}

func (w *Widget) fetchWithRetry(ctx context.Context, page int, search string, retries int) (*RenderPayload, error) {
	if retries < 0 {
		retries = 0
	}

	widgetID := w.cfg.WidgetID
	if widgetID == "" {
		widgetID = w.cfg.APIKey
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, w.cfg.FetchTimeout)
		payload, err := w.fetcher.FetchRender(attemptCtx, widgetID, page, search)
		cancel()

		if err == nil {
			return payload, nil
		}
		lastErr = err

		if attempt == retries {
			break
		}

		select {
		case <-time.After(w.cfg.RetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("fetch render: %w", lastErr)
}

func (w *Widget) render(payload *RenderPayload) {
	if !w.active.Load() {
		return
	}

	w.surface.InjectStyle(w.styleID(), payload.CSS)
	w.surface.SetContent(payload.HTML, payload.JS)

	if w.cfg.DisplayMode == DisplayInline {
		w.surface.SetVisible(true)
	}

	w.state.Store(int32(StateRendered))
}

func (w *Widget) renderError() {
	if !w.active.Load() {
		return
	}

	w.surface.SetContent(
		`<div class="storyslip-widget-error"><p>Unable to load content.</p><button type="button" data-storyslip-action="retry">Try again</button></div>`,
		"",
	)
	w.state.Store(int32(StateError))
}

// Show makes a non-inline widget visible. Modal and popup modes get a
// dismissible overlay: Escape always hides, overlay click hides popups.
func (w *Widget) Show() {
	if !w.active.Load() || w.cfg.DisplayMode == DisplayInline {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.shown {
		return
	}

	w.surface.SetVisible(true)

	switch w.cfg.DisplayMode {
	case DisplayModal:
		w.overlayHooks = append(w.overlayHooks, w.surface.AddListener("keydown.escape", w.Hide))
	case DisplayPopup:
		w.overlayHooks = append(w.overlayHooks,
			w.surface.AddListener("keydown.escape", w.Hide),
			w.surface.AddListener("overlay.click", w.Hide),
		)
	}

	w.shown = true
}

func (w *Widget) Hide() {
	if !w.active.Load() || w.cfg.DisplayMode == DisplayInline {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.shown {
		return
	}

	for _, detach := range w.overlayHooks {
		detach()
	}
	w.overlayHooks = nil

	w.surface.SetVisible(false)
	w.shown = false
}

func (w *Widget) Toggle() {
	w.mu.Lock()
	shown := w.shown
	w.mu.Unlock()

	if shown {
		w.Hide()
	} else {
		w.Show()
	}
}

// Track sends an analytics event without blocking the host page; errors
// are swallowed.
func (w *Widget) Track(eventType string) {
	if !w.active.Load() {
		return
	}

	widgetID := w.cfg.WidgetID
	if widgetID == "" {
		widgetID = w.cfg.APIKey
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.cfg.FetchTimeout)
		defer cancel()

		if err := w.fetcher.SendEvent(ctx, widgetID, w.cfg.WebsiteID, eventType); err != nil {
			w.log.Debug("event dropped", slog.String("error", err.Error()))
		}
	}()
}

// Destroy tears the widget down: injected styles, observers, listeners
// and the cache are all removed. Safe to call with a fetch in flight;
// the pending response will not touch the surface.
func (w *Widget) Destroy() {
	if !w.active.CompareAndSwap(true, false) {
		return
	}

	w.mu.Lock()
	disconnects := w.disconnects
	overlayHooks := w.overlayHooks
	w.disconnects = nil
	w.overlayHooks = nil
	w.shown = false
	w.mu.Unlock()

	for _, disconnect := range disconnects {
		disconnect()
	}
	for _, detach := range overlayHooks {
		detach()
	}

	w.surface.RemoveStyle(w.styleID())
	w.surface.SetContent("", "")
	w.surface.SetVisible(false)

	if w.cache != nil {
		w.cache.Flush()
	}

	w.state.Store(int32(StateUninitialized))
}

func (w *Widget) cacheKey(page int, search string) string {
	return fmt.Sprintf("%s:%d:%d:%s", w.cfg.APIKey, w.cfg.ItemsPerPage, page, strings.ToLower(search))
}

func (w *Widget) styleID() string {
	id := w.cfg.WidgetID
	if id == "" {
		id = w.cfg.APIKey
	}
	return "storyslip-widget-styles-" + id
}
