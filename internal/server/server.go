package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jpalmerr/mesboard/internal/store"
	"github.com/jpalmerr/mesboard/notify"
)

const (
	// sseWriteTimeout bounds a single SSE write so a stalled client cannot
	// pin its handler. Must be <= the shutdown timeout.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// maxNotificationBody caps POST /api/notifications request bodies.
	maxNotificationBody = 64 << 10

	// maxNotificationDuration bounds duration_ms on POST /api/notifications.
	maxNotificationDuration = 24 * time.Hour

	defaultTitle     = "MESBoard"
	titlePlaceholder = "{{.Title}}"
)

// Notifier queues notifications for display.
type Notifier interface {
	Notify(message string, severity notify.Severity, duration time.Duration) notify.Notification
}

// notificationRequest is the body of POST /api/notifications.
type notificationRequest struct {
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	DurationMs int64  `json:"duration_ms"`
}

// Server handles HTTP requests for the dashboard and its API.
//
// Routes:
//   - GET /: the embedded dashboard HTML
//   - GET /api/snapshot: all current snapshots as JSON
//   - GET /api/sse: Server-Sent Events stream of store events
//   - POST /api/notifications: queue a notification
//
// The server shuts down gracefully when its context is cancelled.
type Server struct {
	store      store.Store
	notifier   Notifier
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
}

// NewServer creates a [Server]. assets may be nil, in which case / is not
// served; notifier may be nil, in which case POST /api/notifications
// answers 503. The server does nothing until [Server.Start].
func NewServer(st store.Store, notifier Notifier, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	return &Server{
		store:    st,
		notifier: notifier,
		port:     port,
		assets:   assets,
		title:    title,
		logger:   logger,
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/sse", s.handleSSE)
	mux.HandleFunc("/api/notifications", s.handleNotifications)

	if s.assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}
	return mux
}

// Start binds the port and serves in a background goroutine. It returns
// once the listener is open, or with an error if the port cannot be bound.
//
// Cancelling ctx triggers a graceful shutdown with a 5-second timeout.
func (s *Server) Start(ctx context.Context) error {
	// listen first so bind errors are reported synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with ctx, which unblocks SSE handlers on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleDashboard serves the dashboard page with the title substituted.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleSnapshot returns all current snapshots as JSON.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(s.store.GetAll()); err != nil {
		s.logger.Error("failed to encode snapshot response", "error", err)
	}
}

// handleNotifications queues a notification posted by an external caller.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.notifier == nil {
		http.Error(w, "Notifications unavailable", http.StatusServiceUnavailable)
		return
	}

	var req notificationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNotificationBody))
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid notification: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.DurationMs < 0 || req.DurationMs > maxNotificationDuration.Milliseconds() {
		http.Error(w, fmt.Sprintf("invalid notification: duration_ms must be between 0 and %d", maxNotificationDuration.Milliseconds()), http.StatusBadRequest)
		return
	}

	n := s.notifier.Notify(req.Message, notify.Severity(req.Severity), time.Duration(req.DurationMs)*time.Millisecond)
	s.logger.Debug("notification queued", "id", n.ID, "severity", n.Severity)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(n); err != nil {
		s.logger.Error("failed to encode notification response", "error", err)
	}
}

// handleSSE streams store events as Server-Sent Events. A new client first
// receives every current snapshot and the notification on screen, if any.
//
// Writes carry a deadline so a slow or vanished client cannot block the
// handler from noticing cancellation.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	send := func(ev store.Event) error {
		data, err := json.Marshal(ev.Data)
		if err != nil {
			s.logger.Warn("failed to encode sse event", "type", ev.Type, "error", err)
			return nil
		}

		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before reading state so nothing published in between is lost
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	for _, snap := range s.store.GetAll() {
		if err := send(store.Event{Type: store.EventSnapshot, Data: snap}); err != nil {
			return
		}
	}
	if n, ok := s.store.ActiveNotification(); ok {
		if err := send(store.Event{Type: store.EventNotify, Data: n}); err != nil {
			return
		}
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := send(ev); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and, via BaseContext, on shutdown
			return
		}
	}
}
