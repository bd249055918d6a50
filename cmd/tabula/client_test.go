package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pkt.systems/tabula"
	"pkt.systems/tabula/core"
	"pkt.systems/tabula/httpapi"
	"pkt.systems/tabula/internal/memhost"
)

func TestNewAPIClientNormalizesBase(t *testing.T) {
	client, err := newAPIClient("127.0.0.1:8080/tabula")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if got := client.endpoint("api/invoke"); got != "http://127.0.0.1:8080/tabula/api/invoke" {
		t.Fatalf("unexpected endpoint %q", got)
	}
	if got := client.wsEndpoint("api/ws"); got != "ws://127.0.0.1:8080/tabula/api/ws" {
		t.Fatalf("unexpected ws endpoint %q", got)
	}

	secure, err := newAPIClient("https://example.com/")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if got := secure.wsEndpoint("/api/ws"); got != "wss://example.com/api/ws" {
		t.Fatalf("unexpected secure ws endpoint %q", got)
	}
}

func TestNewAPIClientRejectsBadURLs(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "http://"} {
		if _, err := newAPIClient(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestInvokeReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"unknown command"}`))
	}))
	defer srv.Close()
	client, err := newAPIClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.invoke(context.Background(), "nope")
	if err == nil || !strings.Contains(err.Error(), "unknown command (400)") {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestPrintResultFormats(t *testing.T) {
	raw := json.RawMessage(`{"index":1,"status":"applied"}`)
	var out bytes.Buffer
	if err := printResult(&out, raw, "yaml"); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(out.String(), "status: applied") {
		t.Fatalf("unexpected yaml output %q", out.String())
	}
	out.Reset()
	if err := printResult(&out, raw, "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(out.String(), `"status": "applied"`) {
		t.Fatalf("unexpected json output %q", out.String())
	}
	if err := printResult(&out, raw, "xml"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func startMemoryServer(t *testing.T) string {
	t.Helper()
	server, err := tabula.New(tabula.ServerConfig{
		HTTP: httpapi.Config{Addr: "127.0.0.1:0", HubHistory: 16},
	}, tabula.ServerDeps{
		ServiceDeps: core.ServiceDeps{
			Host:   memhost.New(nil),
			Window: memhost.NewWindow(800, 600),
		},
	}, tabula.WithHTTP())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	return "http://" + server.Addr()
}

func runRoot(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("tabula %s: %v (%s)", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestTabsCommandsAgainstServer(t *testing.T) {
	base := startMemoryServer(t)

	out := runRoot(t, "tabs", "new", "example.com", "--server", base, "-o", "json")
	var created struct {
		Index  int    `json:"index"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if created.Index != 1 || created.Status != "applied" {
		t.Fatalf("unexpected new tab result %+v", created)
	}

	runRoot(t, "tabs", "move", "1", "0", "--server", base)
	out = runRoot(t, "tabs", "list", "--server", base, "-o", "json")
	if !strings.Contains(out, "example.com") {
		t.Fatalf("expected example.com in tab list, got %s", out)
	}

	out = runRoot(t, "go", "hello", "world", "--server", base)
	if !strings.Contains(out, "status: applied") {
		t.Fatalf("unexpected go output %s", out)
	}
	out = runRoot(t, "back", "--server", base)
	if !strings.Contains(out, "status:") {
		t.Fatalf("unexpected back output %s", out)
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	base := startMemoryServer(t)
	client, err := newAPIClient(base)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- watchEvents(ctx, client, &out) }()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), `"snapshot"`) {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("expected snapshot frame, got %q", out.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watch did not stop")
	}
}

func TestBookmarksImportAndExport(t *testing.T) {
	base := startMemoryServer(t)
	src := filepath.Join(t.TempDir(), "bookmarks.html")
	doc := `<DL><p><DT><A HREF="https://go.dev/">Go</A><DT><A HREF="about:config">x</A></DL>`
	if err := os.WriteFile(src, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := runRoot(t, "bookmarks", "import", src, "--server", base)
	if !strings.Contains(out, "added: 1") {
		t.Fatalf("unexpected import output %s", out)
	}

	dst := filepath.Join(t.TempDir(), "export.html")
	runRoot(t, "bookmarks", "export", dst, "--server", base)
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), `<A HREF="https://go.dev/">Go</A>`) {
		t.Fatalf("unexpected export %s", data)
	}
}
