package chromehost

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/tabula/schema"
)

func requireChrome(t *testing.T) {
	t.Helper()
	if os.Getenv("TABULA_CHROME_TESTS") != "1" {
		t.Skip("set TABULA_CHROME_TESTS=1 to run browser tests")
	}
}

func TestChromeSurfaceNavigation(t *testing.T) {
	requireChrome(t)
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Fixture</title></head><body>ok</body></html>`))
	}))
	t.Cleanup(site.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	host, err := New(ctx, Config{Headless: true, DataDir: t.TempDir()}, pslog.NewWithOptions(os.Stderr, pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.ErrorLevel}))
	if err != nil {
		t.Fatalf("start browser: %v", err)
	}
	t.Cleanup(func() { _ = host.Close(context.Background()) })

	surface, err := host.NewSurface(ctx)
	if err != nil {
		t.Fatalf("new surface: %v", err)
	}
	if err := surface.Load(ctx, site.URL+"/"); err != nil {
		t.Fatalf("load: %v", err)
	}

	var committed, titled bool
	for !(committed && titled) {
		select {
		case ev := <-host.Events():
			if ev.Surface != surface.ID() {
				continue
			}
			switch ev.Kind {
			case schema.HostNavigationCommitted:
				committed = ev.URL == site.URL+"/"
			case schema.HostTitleChanged:
				titled = titled || ev.Title == "Fixture"
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for events (committed=%v titled=%v)", committed, titled)
		}
	}
	if surface.CanGoBack(ctx) {
		t.Fatalf("expected no back history after first load")
	}
	if err := surface.Destroy(ctx); err != nil {
		t.Fatalf("destroy: %v", err)
	}
}
