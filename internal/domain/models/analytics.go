package models

import (
	"time"

	"github.com/google/uuid"
)

type TrackingEventType string

const (
	EventView        TrackingEventType = "view"
	EventClick       TrackingEventType = "click"
	EventInteraction TrackingEventType = "interaction"
)

func (t TrackingEventType) Valid() bool {
	switch t {
	case EventView, EventClick, EventInteraction:
		return true
	}
	return false
}

// WidgetAnalytics is a per-widget-per-day aggregate. The row for a day is
// created lazily on the first event and updated incrementally afterwards.
type WidgetAnalytics struct {
	WidgetID     uuid.UUID `json:"widget_id"`
	Date         time.Time `json:"date"`
	Views        int       `json:"views"`
	Clicks       int       `json:"clicks"`
	Interactions int       `json:"interactions"`
}

// EngagementRate is clicks/views, zero when nothing was viewed yet.
func (a WidgetAnalytics) EngagementRate() float64 {
	if a.Views == 0 {
		return 0
	}
	return float64(a.Clicks) / float64(a.Views)
}
