package widgetclient

// VisibilityObserver defers work until the widget container becomes
// visible. Hosts without visibility observation return ok=false and the
// widget loads immediately.
type VisibilityObserver interface {
	Observe(onVisible func()) (disconnect func(), ok bool)
}

// ResizeObserver reports container size changes for auto-resize. Hosts
// without resize observation return ok=false and the feature is skipped
// silently.
type ResizeObserver interface {
	Observe(onResize func(width, height int)) (disconnect func(), ok bool)
}

type noopVisibilityObserver struct{}

func (noopVisibilityObserver) Observe(onVisible func()) (func(), bool) {
	return nil, false
}

type noopResizeObserver struct{}

func (noopResizeObserver) Observe(onResize func(width, height int)) (func(), bool) {
	return nil, false
}
