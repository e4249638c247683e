package models

// RenderMeta carries SEO hints for the host page, when the widget type
// produces them.
type RenderMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// RenderedWidget is the ephemeral output of one render call. It is never
// persisted; the server-side cache keeps it only for a short TTL.
type RenderedWidget struct {
	HTML       string      `json:"html"`
	CSS        string      `json:"css"`
	JS         string      `json:"js,omitempty"`
	Meta       *RenderMeta `json:"meta,omitempty"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	TotalItems int         `json:"total_items"`
}
