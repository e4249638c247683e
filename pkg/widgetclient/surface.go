package widgetclient

import "sync"

// Surface is the host-page rendering target. Embedders supply their own
// implementation; tests and headless hosts use the in-memory one.
type Surface interface {
	// SetContent replaces the widget markup and its init script.
	SetContent(html, js string)
	// InjectStyle installs a style block under the given id, replacing a
	// previous block with the same id.
	InjectStyle(id, css string)
	RemoveStyle(id string)
	SetVisible(visible bool)
	// AddListener registers a host-page event handler and returns its
	// detach function.
	AddListener(event string, handler func()) (detach func())
	// SetMaxSize adjusts the widget bounding box, used by auto-resize.
	SetMaxSize(width, height int)
}

type MemorySurface struct {
	mu        sync.Mutex
	html      string
	js        string
	styles    map[string]string
	listeners map[int]string
	nextID    int
	visible   bool
	maxWidth  int
	maxHeight int
}

func NewMemorySurface() *MemorySurface {
	return &MemorySurface{
		styles:    make(map[string]string),
		listeners: make(map[int]string),
	}
}

func (s *MemorySurface) SetContent(html, js string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.html = html
	s.js = js
}

func (s *MemorySurface) InjectStyle(id, css string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.styles[id] = css
}

func (s *MemorySurface) RemoveStyle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.styles, id)
}

func (s *MemorySurface) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visible
}

func (s *MemorySurface) AddListener(event string, handler func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = event

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *MemorySurface) SetMaxSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxWidth = width
	s.maxHeight = height
}

func (s *MemorySurface) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.html
}

func (s *MemorySurface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *MemorySurface) StyleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.styles)
}

func (s *MemorySurface) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *MemorySurface) MaxSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxWidth, s.maxHeight
}
