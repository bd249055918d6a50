package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tabula"
	"pkt.systems/tabula/core"
	"pkt.systems/tabula/httpapi"
	"pkt.systems/tabula/internal/appconfig"
	"pkt.systems/tabula/internal/chromehost"
	"pkt.systems/tabula/internal/memhost"
	"pkt.systems/tabula/internal/persist"
)

const stopTimeout = 10 * time.Second

type serveOverrides struct {
	addr               string
	host               string
	headless           bool
	headlessSet        bool
	disableAuditTrails bool
	logEvents          bool
}

func newServeCmd() *cobra.Command {
	var cfgPath string
	var overrides serveOverrides
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser session and HTTP UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			overrides.headlessSet = cmd.Flags().Changed("headless")
			cfg, err = applyServeOverrides(cfg, overrides)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			serviceDeps, shutdown, err := buildServiceDeps(ctx, cfg, logger)
			if err != nil {
				return err
			}
			serverCfg := tabula.ServerConfig{
				Service:             cfg.ServiceConfig(),
				HTTP:                toHTTPConfig(cfg.HTTP),
				DisableAuditLogging: cfg.Logging.DisableAuditTrails,
			}
			opts := []tabula.ServerOption{tabula.WithHTTP()}
			if overrides.logEvents {
				opts = append(opts, tabula.WithEventLog())
			}
			server, err := tabula.New(serverCfg, tabula.ServerDeps{
				ServiceDeps: serviceDeps,
				Shutdown:    shutdown,
			}, opts...)
			if err != nil {
				for _, fn := range shutdown {
					_ = fn(context.Background())
				}
				return err
			}

			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if err := server.Start(ctx); err != nil {
				stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
				defer cancel()
				_ = server.Stop(stopCtx)
				return err
			}
			logger.Info("tabula ready", "url", uiURL(cfg.HTTP, server.Addr()), "host", cfg.Browser.Host)
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&overrides.addr, "addr", "", "override http.addr")
	cmd.Flags().StringVar(&overrides.host, "host", "", "page host: chrome or memory")
	cmd.Flags().BoolVar(&overrides.headless, "headless", false, "run the browser headless")
	cmd.Flags().BoolVar(&overrides.disableAuditTrails, "disable-audit-trails", false, "disable audit trail logging for commands")
	cmd.Flags().BoolVar(&overrides.logEvents, "log-events", false, "log every display event at debug level")
	return cmd
}

func applyServeOverrides(cfg appconfig.Config, o serveOverrides) (appconfig.Config, error) {
	if addr := strings.TrimSpace(o.addr); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if host := strings.TrimSpace(o.host); host != "" {
		cfg.Browser.Host = strings.ToLower(host)
	}
	if o.headlessSet {
		cfg.Browser.Headless = o.headless
	}
	if o.disableAuditTrails {
		cfg.Logging.DisableAuditTrails = true
	}
	if err := appconfig.Validate(cfg); err != nil {
		return appconfig.Config{}, err
	}
	return cfg, nil
}

// buildServiceDeps starts the configured page host and opens the bookmark
// store. The returned hooks stop the host.
func buildServiceDeps(ctx context.Context, cfg appconfig.Config, logger pslog.Logger) (core.ServiceDeps, []func(context.Context) error, error) {
	store, err := persist.NewStoreWithLogger(cfg.DataDir, logger)
	if err != nil {
		return core.ServiceDeps{}, nil, fmt.Errorf("bookmark store: %w", err)
	}
	deps := core.ServiceDeps{
		BookmarkStore: store,
		Logger:        logger,
	}
	switch cfg.Browser.Host {
	case appconfig.HostMemory:
		host := memhost.New(logger)
		deps.Host = host
		deps.Window = memhost.NewWindow(cfg.Browser.WindowWidth, cfg.Browser.WindowHeight)
		logger.Info("page host selected", "host", cfg.Browser.Host)
		return deps, []func(context.Context) error{func(context.Context) error {
			host.Close()
			return nil
		}}, nil
	case appconfig.HostChrome:
		host, err := chromehost.New(ctx, chromehost.Config{
			ExecPath:    cfg.Browser.ExecPath,
			Headless:    cfg.Browser.Headless,
			UserDataDir: cfg.Browser.UserDataDir,
			Width:       cfg.Browser.WindowWidth,
			Height:      cfg.Browser.WindowHeight,
			DataDir:     cfg.DataDir,
		}, logger)
		if err != nil {
			return core.ServiceDeps{}, nil, err
		}
		deps.Host = host
		deps.Window = host.Window()
		logger.Info("page host selected", "host", cfg.Browser.Host, "headless", cfg.Browser.Headless)
		return deps, []func(context.Context) error{host.Close}, nil
	default:
		return core.ServiceDeps{}, nil, fmt.Errorf("unsupported browser.host %q", cfg.Browser.Host)
	}
}

func toHTTPConfig(cfg appconfig.HTTPConfig) httpapi.Config {
	return httpapi.Config{
		Addr:         cfg.Addr,
		BaseURL:      cfg.BaseURL,
		BasePath:     cfg.BasePath,
		HubHistory:   cfg.HubHistory,
		Metrics:      cfg.Metrics,
		CommandRate:  cfg.CommandRate,
		CommandBurst: cfg.CommandBurst,
	}
}

// uiURL is where the UI can be reached: the configured base URL, or the
// bound address plus the base path.
func uiURL(cfg appconfig.HTTPConfig, bound string) string {
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		return base
	}
	addr := bound
	if addr == "" {
		addr = cfg.Addr
	}
	return "http://" + addr + httpapi.NormalizeBasePath(cfg.BasePath) + "/"
}
