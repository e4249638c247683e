package widgetclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// RenderPayload is the wire shape of one render response.
type RenderPayload struct {
	HTML       string     `json:"html"`
	CSS        string     `json:"css"`
	JS         string     `json:"js,omitempty"`
	Meta       *MetaBlock `json:"meta,omitempty"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	TotalItems int        `json:"total_items"`
}

type MetaBlock struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Fetcher talks to the render service. Swappable in tests.
type Fetcher interface {
	FetchRender(ctx context.Context, widgetID string, page int, search string) (*RenderPayload, error)
	SendEvent(ctx context.Context, widgetID, websiteID, eventType string) error
}

type renderEnvelope struct {
	Status string        `json:"status"`
	Data   RenderPayload `json:"data"`
}

type httpFetcher struct {
	baseURL string
	client  *http.Client
}

func newHTTPFetcher(baseURL string, client *http.Client) *httpFetcher {
	return &httpFetcher{baseURL: baseURL, client: client}
}

func (f *httpFetcher) FetchRender(ctx context.Context, widgetID string, page int, search string) (*RenderPayload, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if search != "" {
		q.Set("search", search)
	}

	endpoint := fmt.Sprintf("%s/api/v1/widgets/%s/render?%s", f.baseURL, url.PathEscape(widgetID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("render request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read render response: %w", err)
	}

	var envelope renderEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode render response: %w", err)
	}

	if envelope.Data.HTML == "" {
		return nil, fmt.Errorf("decode render response: empty payload")
	}

	return &envelope.Data, nil
}

func (f *httpFetcher) SendEvent(ctx context.Context, widgetID, websiteID, eventType string) error {
	payload, err := json.Marshal(map[string]string{
		"event_type": eventType,
		"website_id": websiteID,
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/widgets/%s/track", f.baseURL, url.PathEscape(widgetID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("event request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("event request: unexpected status %d", resp.StatusCode)
	}

	return nil
}
