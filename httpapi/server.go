package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
	"pkt.systems/tabula/core"
	"pkt.systems/tabula/internal/command"
	"pkt.systems/tabula/internal/eventbus"
	"pkt.systems/tabula/internal/logx"
	"pkt.systems/tabula/schema"
)

// CommandHandler routes named commands.
type CommandHandler interface {
	Handle(ctx context.Context, req command.Request) (any, error)
	Names() []string
}

// Server serves the HTTP API and UI.
type Server struct {
	cfg        Config
	service    core.Service
	cmdHandler CommandHandler
	hub        *Hub
	bus        *eventbus.Bus
	upgrader   websocket.Upgrader
	metrics    *Metrics
	limiter    *rate.Limiter
	basePath   string
	baseHref   string
}

// errRateLimited rejects a command over the configured command rate.
var errRateLimited = errors.New("rate limit exceeded")

// NewServer constructs an HTTP server. The hub feeds the SSE stream and
// the bus feeds WebSocket clients.
func NewServer(cfg Config, service core.Service, handler CommandHandler, hub *Hub, bus *eventbus.Bus) *Server {
	if hub == nil {
		hub = NewHub(cfg.HubHistory)
	}
	metrics := NewMetrics()
	hub.setMetrics(metrics)
	var limiter *rate.Limiter
	if cfg.CommandRate > 0 {
		burst := cfg.CommandBurst
		if burst <= 0 {
			burst = int(cfg.CommandRate) + 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.CommandRate), burst)
	}
	return &Server{
		cfg:        cfg,
		service:    service,
		cmdHandler: handler,
		hub:        hub,
		bus:        bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		metrics:  metrics,
		limiter:  limiter,
		basePath: NormalizeBasePath(cfg.BasePath),
		baseHref: shellBaseHref(cfg.BaseURL, cfg.BasePath),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(shellFS))))

	mux.HandleFunc("/api/invoke", s.handleInvoke)
	mux.HandleFunc("/api/commands", s.handleCommands)
	mux.HandleFunc("/api/tabs", s.handleTabs)
	mux.HandleFunc("/api/bookmarks", s.handleBookmarks)
	mux.HandleFunc("/api/stream", s.handleStream)
	mux.HandleFunc("/api/ws", s.handleWebSocket)
	if s.cfg.Metrics {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	handler := withRequestLogging(mux)
	if s.basePath == "" {
		return handler
	}
	prefix := s.basePath
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	root.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != prefix {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, prefix+"/", http.StatusTemporaryRedirect)
	})
	return root
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data, err := fs.ReadFile(shellFS, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	stat, err := fs.Stat(shellFS, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	data = applyBaseHref(data, s.baseHref)
	http.ServeContent(w, r, "index.html", stat.ModTime(), bytes.NewReader(data))
}

const baseHrefPlaceholder = "<!-- BASE_HREF -->"

func applyBaseHref(data []byte, baseHref string) []byte {
	replacement := ""
	if strings.TrimSpace(baseHref) != "" {
		replacement = fmt.Sprintf(`<base href="%s" />`, html.EscapeString(baseHref))
	}
	return bytes.ReplaceAll(data, []byte(baseHrefPlaceholder), []byte(replacement))
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context()).With("remote", clientIP(r))
	var req command.Request
	if err := decodeJSON(r.Body, &req); err != nil {
		log.Warn("http invoke decode failed", "err", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", schema.ErrInvalidRequest, err))
		return
	}
	resp, err := s.invoke(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Debug("http invoke ok", "command", req.Command)
}

func (s *Server) invoke(ctx context.Context, req command.Request) (any, error) {
	resp, err := s.dispatch(ctx, req)
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	s.metrics.commandDone(req.Command, status)
	return resp, err
}

func (s *Server) dispatch(ctx context.Context, req command.Request) (any, error) {
	if s.cmdHandler == nil {
		return nil, schema.ErrHostUnavailable
	}
	if s.limiter != nil && !s.limiter.Allow() {
		logx.Ctx(ctx).Debug("http command rate limited", "command", req.Command)
		return nil, errRateLimited
	}
	return s.cmdHandler.Handle(ctx, req)
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	names := []string{}
	if s.cmdHandler != nil {
		names = s.cmdHandler.Names()
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": names})
}

func (s *Server) handleTabs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp, err := s.service.ListTabs(r.Context(), schema.ListTabsRequest{})
	if err != nil {
		logx.Ctx(r.Context()).Warn("http tabs failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp, err := s.service.ListBookmarks(r.Context(), schema.ListBookmarksRequest{})
	if err != nil {
		logx.Ctx(r.Context()).Warn("http bookmarks failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	clientID := "sse-" + uuid.NewString()
	log := logx.WithClient(r.Context(), clientID)
	ctx := logx.ContextWithClientLogger(r.Context(), log, clientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))

	// Subscribe before reading state so nothing published in between is lost.
	ch, unsubscribe, seq := s.hub.Subscribe()
	defer unsubscribe()
	s.metrics.clientOpened("sse")
	defer s.metrics.clientClosed("sse")

	replay := s.replayAfter(lastID, seq)
	if replay == nil {
		snapshot := s.buildSnapshot(ctx)
		_ = writeSSEvent(w, StreamEvent{
			Type:      StreamSnapshot,
			Snapshot:  &snapshot,
			Timestamp: time.Now(),
		})
	}
	for _, event := range replay {
		_ = writeSSEvent(w, event)
	}
	flusher.Flush()

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", len(replay), "seq", seq)
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

// replayAfter returns the events a reconnecting client missed, up to seq.
// It returns nil when the client must start from a snapshot: a fresh
// client, an id from an earlier process, or a gap the history no longer covers.
func (s *Server) replayAfter(lastID, seq uint64) []StreamEvent {
	if lastID == 0 || lastID > seq {
		return nil
	}
	events := []StreamEvent{}
	for _, event := range s.hub.Replay(lastID) {
		if event.Seq > seq {
			break
		}
		events = append(events, event)
	}
	if lastID < seq && (len(events) == 0 || events[0].Seq != lastID+1) {
		return nil
	}
	return events
}

func (s *Server) buildSnapshot(ctx context.Context) SnapshotPayload {
	snapshot := SnapshotPayload{Tabs: schema.TabsUpdate{Tabs: []schema.TabSnapshot{}, Current: -1}, Bookmarks: []schema.Bookmark{}}
	if resp, err := s.service.ListTabs(ctx, schema.ListTabsRequest{}); err == nil {
		snapshot.Tabs = resp.Tabs
		snapshot.Nav = resp.Nav
		snapshot.HasActive = resp.HasActive
	}
	if resp, err := s.service.ListBookmarks(ctx, schema.ListBookmarksRequest{}); err == nil && resp.Bookmarks != nil {
		snapshot.Bookmarks = resp.Bookmarks
	}
	return snapshot
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrUnknownCommand),
		errors.Is(err, schema.ErrInvalidArgs),
		errors.Is(err, schema.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrHostUnavailable), errors.Is(err, schema.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
