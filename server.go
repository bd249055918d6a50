package tabula

import (
	"context"
	"errors"
	"net"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabula/core"
	"pkt.systems/tabula/httpapi"
	"pkt.systems/tabula/internal/command"
	"pkt.systems/tabula/internal/eventbus"
	"pkt.systems/tabula/schema"
)

// Server composes the browsing session with its control surfaces.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
	// Addr is the bound HTTP address once started, or empty.
	Addr() string
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service             schema.ServiceConfig
	HTTP                httpapi.Config
	DisableAuditLogging bool
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	ServiceDeps core.ServiceDeps
	// Shutdown runs after the session closes, typically stopping the browser.
	Shutdown []func(context.Context) error
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP     bool
	enableEventLog bool
}

// WithHTTP enables the HTTP API/UI server.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithEventLog logs every display event at debug level.
func WithEventLog() ServerOption {
	return func(o *serverOptions) { o.enableEventLog = true }
}

// New constructs a composable tabula server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP && !options.enableEventLog {
		return nil, errors.New("no services enabled")
	}
	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized

	serviceDeps := deps.ServiceDeps
	bus := eventbus.New(serviceDeps.Logger)
	var hub *httpapi.Hub
	if options.enableHTTP {
		hub = httpapi.NewHub(cfg.HTTP.HubHistory)
	}
	sinks := make([]core.EventSink, 0, 3)
	if serviceDeps.EventSink != nil {
		sinks = append(sinks, serviceDeps.EventSink)
	}
	if hub != nil {
		sinks = append(sinks, hub)
	}
	sinks = append(sinks, bus)
	if len(sinks) == 1 {
		serviceDeps.EventSink = sinks[0]
	} else {
		serviceDeps.EventSink = eventFanout{sinks: sinks}
	}

	service, err := core.NewService(cfg.Service, serviceDeps)
	if err != nil {
		return nil, err
	}
	cmdHandler := command.NewHandler(service, command.HandlerConfig{
		DisableAuditLogging: cfg.DisableAuditLogging,
	})

	var httpSrv *httpapi.Server
	if options.enableHTTP {
		httpSrv = httpapi.NewServer(cfg.HTTP, service, cmdHandler, hub, bus)
	}
	return &compositeServer{
		cfg:      cfg,
		options:  options,
		service:  service,
		httpSrv:  httpSrv,
		bus:      bus,
		shutdown: deps.Shutdown,
	}, nil
}

type compositeServer struct {
	cfg      ServerConfig
	options  serverOptions
	service  core.Service
	httpSrv  *httpapi.Server
	bus      *eventbus.Bus
	shutdown []func(context.Context) error
	logger   pslog.Logger

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	errCh    chan error
	addr     string
	started  bool
	stopOnce sync.Once
	stopErr  error
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 3)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"event_log", s.options.enableEventLog,
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_url", s.cfg.HTTP.BaseURL,
		"http_base_path", s.cfg.HTTP.BasePath,
	)

	var listener net.Listener
	if s.options.enableHTTP && s.httpSrv != nil {
		l, err := net.Listen("tcp", s.cfg.HTTP.Addr)
		if err != nil {
			s.cancel()
			log.Error("http listen failed", "addr", s.cfg.HTTP.Addr, "err", err)
			return err
		}
		listener = l
		s.mu.Lock()
		s.addr = l.Addr().String()
		s.mu.Unlock()
	}

	if s.options.enableEventLog {
		events, cancel := s.bus.Subscribe()
		go func() {
			defer cancel()
			for {
				select {
				case <-s.ctx.Done():
					return
				case event, ok := <-events:
					if !ok {
						return
					}
					log.Debug("display event", "type", event.Type, "payload", event.Payload())
				}
			}
		}()
	}

	if err := s.service.Start(s.ctx); err != nil {
		s.cancel()
		if listener != nil {
			_ = listener.Close()
		}
		log.Error("session start failed", "err", err)
		return err
	}
	go func() {
		if err := s.service.Run(s.ctx); err != nil {
			log.Error("session loop failed", "err", err)
			s.errCh <- err
		}
	}()
	if listener != nil {
		go func() {
			if err := httpapi.Serve(s.ctx, listener, s.httpSrv.Handler()); err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

func (s *compositeServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil
	}
	s.stopOnce.Do(func() { s.stopErr = s.stop(ctx) })
	return s.stopErr
}

func (s *compositeServer) stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	log := s.logger
	s.mu.Unlock()
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}

	var errs []error
	if err := s.service.Close(ctx); err != nil {
		log.Warn("session close failed", "err", err)
		errs = append(errs, err)
	}
	for _, fn := range s.shutdown {
		if fn == nil {
			continue
		}
		if err := fn(ctx); err != nil {
			log.Warn("server shutdown hook failed", "err", err)
			errs = append(errs, err)
		}
	}
	if err := ctx.Err(); err != nil {
		log.Warn("server stop timed out", "err", err)
		return err
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
