package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pkt.systems/tabula/internal/appconfig"
)

const clientTimeout = 30 * time.Second

type clientFlags struct {
	server  string
	cfgPath string
	output  string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.server, "server", "s", "", "server URL (defaults to the configured http address)")
	cmd.PersistentFlags().StringVarP(&f.cfgPath, "config", "c", "", "path to config file")
	cmd.PersistentFlags().StringVarP(&f.output, "output", "o", "yaml", "output format: yaml or json")
}

func (f *clientFlags) client() (*apiClient, error) {
	base := strings.TrimSpace(f.server)
	if base == "" {
		cfg, err := appconfig.Load(f.cfgPath)
		if err != nil {
			return nil, err
		}
		base = uiURL(cfg.HTTP, "")
	}
	return newAPIClient(base)
}

// apiClient talks to a running server's /api endpoints.
type apiClient struct {
	base *url.URL
	http *http.Client
}

func newAPIClient(base string) (*apiClient, error) {
	base = strings.TrimSpace(base)
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https: %s", base)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("server url is missing a host: %s", base)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/"
	return &apiClient{base: parsed, http: &http.Client{Timeout: clientTimeout}}, nil
}

func (c *apiClient) endpoint(path string) string {
	ref := &url.URL{Path: strings.TrimPrefix(path, "/")}
	return c.base.ResolveReference(ref).String()
}

// wsEndpoint maps the base URL onto the WebSocket scheme.
func (c *apiClient) wsEndpoint(path string) string {
	u, _ := url.Parse(c.endpoint(path))
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String()
}

func (c *apiClient) invoke(ctx context.Context, command string, args ...any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(map[string]any{"command": command, "args": args})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("api/invoke"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *apiClient) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *apiClient) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			return nil, fmt.Errorf("%s (%d)", payload.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}
	return json.RawMessage(data), nil
}

// printResult writes a JSON response in the requested format.
func printResult(w io.Writer, raw json.RawMessage, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err := w.Write(buf.Bytes())
		return err
	case "", "yaml":
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return err
		}
		data, err := yaml.Marshal(value)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return errors.New("output must be yaml or json")
	}
}
