package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"pkt.systems/pslog"
	"pkt.systems/tabula/core"
	"pkt.systems/tabula/internal/memhost"
	"pkt.systems/tabula/schema"
)

func newTestHandler(t *testing.T, cfg HandlerConfig) (*Handler, core.Service, *memhost.Host) {
	t.Helper()
	host := memhost.New(nil)
	svc, err := core.NewService(schema.ServiceConfig{}, core.ServiceDeps{
		Host:   host,
		Window: memhost.NewWindow(1000, 800),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		_ = svc.Close(context.Background())
		host.Close()
	})
	return NewHandler(svc, cfg), svc, host
}

func invoke(t *testing.T, h *Handler, name string, values ...any) any {
	t.Helper()
	args, err := MakeArgs(values...)
	if err != nil {
		t.Fatalf("make args: %v", err)
	}
	resp, err := h.Handle(context.Background(), Request{Command: name, Args: args})
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return resp
}

func listTabs(t *testing.T, h *Handler) schema.ListTabsResponse {
	t.Helper()
	resp, ok := invoke(t, h, ListTabs).(schema.ListTabsResponse)
	if !ok {
		t.Fatalf("unexpected list-tabs response type")
	}
	return resp
}

func TestHandleUnknownCommand(t *testing.T) {
	h, _, _ := newTestHandler(t, HandlerConfig{})
	_, err := h.Handle(context.Background(), Request{Command: "explode"})
	if !errors.Is(err, schema.ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestHandleNewTabAndSwitch(t *testing.T) {
	h, _, _ := newTestHandler(t, HandlerConfig{})
	resp := invoke(t, h, NewTab, "https://a.com").(schema.NewTabResponse)
	if resp.Index != 1 || resp.Status != schema.StatusApplied {
		t.Fatalf("unexpected new-tab response: %+v", resp)
	}
	if got := listTabs(t, h).Tabs.Current; got != 1 {
		t.Fatalf("expected new tab active, got %d", got)
	}
	invoke(t, h, SwitchTab, "0")
	if got := listTabs(t, h).Tabs.Current; got != 0 {
		t.Fatalf("expected string index to switch, got %d", got)
	}
	sw := invoke(t, h, SwitchTab, "nope").(schema.SwitchTabResponse)
	if sw.Status != schema.StatusIgnored {
		t.Fatalf("expected invalid index to be ignored, got %+v", sw)
	}
}

func TestHandleNewTabBackground(t *testing.T) {
	h, _, _ := newTestHandler(t, HandlerConfig{})
	invoke(t, h, NewTab, "https://a.com", map[string]bool{"activate": false})
	tabs := listTabs(t, h).Tabs
	if len(tabs.Tabs) != 2 || tabs.Current != 0 {
		t.Fatalf("expected background tab, got %+v", tabs)
	}
}

func TestHandleCloseAndReorder(t *testing.T) {
	h, _, _ := newTestHandler(t, HandlerConfig{})
	invoke(t, h, NewTab, "https://a.com")
	invoke(t, h, NewTab, "https://b.com")
	invoke(t, h, ReorderTabs, 2, 0)
	tabs := listTabs(t, h).Tabs
	if tabs.Tabs[0].URL != "https://b.com" || tabs.Current != 0 {
		t.Fatalf("expected b.com moved to front and active, got %+v", tabs)
	}
	invoke(t, h, CloseTab, 0)
	tabs = listTabs(t, h).Tabs
	if len(tabs.Tabs) != 2 || tabs.Current != 0 {
		t.Fatalf("unexpected tabs after close: %+v", tabs)
	}
}

func TestHandleLoadURLNormalizes(t *testing.T) {
	h, _, _ := newTestHandler(t, HandlerConfig{})
	resp := invoke(t, h, LoadURL, "  golang org  ").(schema.LoadURLResponse)
	if resp.URL != "https://www.google.com/search?q=golang%20org" {
		t.Fatalf("unexpected normalized url %q", resp.URL)
	}
	if _, err := h.Handle(context.Background(), Request{Command: LoadURL, Args: rawArgs(`7`)}); !errors.Is(err, schema.ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs for numeric url, got %v", err)
	}
}

func TestHandleNavigateIgnoresUnknownAction(t *testing.T) {
	h, _, _ := newTestHandler(t, HandlerConfig{})
	resp := invoke(t, h, Navigate, "sideways").(schema.NavigateResponse)
	if resp.Status != schema.StatusIgnored {
		t.Fatalf("expected ignored, got %+v", resp)
	}
	resp = invoke(t, h, Navigate, "back").(schema.NavigateResponse)
	if resp.Status != schema.StatusIgnored {
		t.Fatalf("expected back without history to be ignored, got %+v", resp)
	}
	invoke(t, h, LoadURL, "example.com")
	resp = invoke(t, h, Navigate, "BACK").(schema.NavigateResponse)
	if resp.Status != schema.StatusApplied {
		t.Fatalf("expected back to apply, got %+v", resp)
	}
}

func TestHandleResizeWindow(t *testing.T) {
	h, _, _ := newTestHandler(t, HandlerConfig{})
	resp := invoke(t, h, ResizeWindow, 640, 480).(schema.ResizeWindowResponse)
	offset := schema.DefaultTabStripHeight + schema.DefaultToolbarHeight + schema.DefaultContentPadding
	if resp.Bounds.Width != 640 || resp.Bounds.Height != 480-offset {
		t.Fatalf("unexpected bounds %+v", resp.Bounds)
	}
	if _, err := h.Handle(context.Background(), Request{Command: ResizeWindow, Args: rawArgs(`640`)}); !errors.Is(err, schema.ErrInvalidArgs) {
		t.Fatalf("expected missing height to fail, got %v", err)
	}
}

func TestHandleBookmarks(t *testing.T) {
	h, _, _ := newTestHandler(t, HandlerConfig{})
	add := invoke(t, h, AddBookmark).(schema.AddBookmarkResponse)
	if add.Status != schema.StatusIgnored || len(add.Bookmarks) != 0 {
		t.Fatalf("expected placeholder tab bookmark to be ignored, got %+v", add)
	}
	invoke(t, h, LoadURL, "https://a.com/")
	add = invoke(t, h, AddBookmark).(schema.AddBookmarkResponse)
	if add.Status != schema.StatusApplied || len(add.Bookmarks) != 1 || add.Bookmarks[0].URL != "https://a.com/" {
		t.Fatalf("unexpected add response: %+v", add)
	}
	list := invoke(t, h, ListBookmarks).(schema.ListBookmarksResponse)
	if len(list.Bookmarks) != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
	rm := invoke(t, h, RemoveBookmark, "https://a.com/").(schema.RemoveBookmarkResponse)
	if rm.Status != schema.StatusApplied || len(rm.Bookmarks) != 0 {
		t.Fatalf("unexpected remove response: %+v", rm)
	}
}

func TestHandleImportBookmarks(t *testing.T) {
	h, _, _ := newTestHandler(t, HandlerConfig{})
	list := []schema.Bookmark{{URL: "https://a.com/", Title: "A"}, {URL: "mailto:x@y"}}
	resp := invoke(t, h, ImportBookmarks, list).(schema.ImportBookmarksResponse)
	if resp.Added != 1 || len(resp.Bookmarks) != 1 || resp.Bookmarks[0].Title != "A" {
		t.Fatalf("unexpected import response: %+v", resp)
	}

	args, _ := MakeArgs("not a list")
	if _, err := h.Handle(context.Background(), Request{Command: ImportBookmarks, Args: args}); !errors.Is(err, schema.ErrInvalidArgs) {
		t.Fatalf("expected invalid args, got %v", err)
	}
	if _, err := h.Handle(context.Background(), Request{Command: ImportBookmarks}); !errors.Is(err, schema.ErrInvalidArgs) {
		t.Fatalf("expected invalid args without list, got %v", err)
	}
}

func TestHandleNamesSorted(t *testing.T) {
	h, _, _ := newTestHandler(t, HandlerConfig{})
	names := h.Names()
	if len(names) != 12 {
		t.Fatalf("expected 12 commands, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("expected sorted names, got %v", names)
		}
	}
}

func TestHandleAuditLog(t *testing.T) {
	capture := &logCapture{}
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		VerboseFields: true,
		MinLevel:      pslog.DebugLevel,
	})
	ctx := pslog.ContextWithLogger(context.Background(), logger)

	h, _, _ := newTestHandler(t, HandlerConfig{})
	args, _ := MakeArgs("example.com")
	if _, err := h.Handle(ctx, Request{Command: LoadURL, Args: args}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !capture.has("audit command", LoadURL) {
		t.Fatalf("expected audit log, got %s", capture.String())
	}

	quiet, _, _ := newTestHandler(t, HandlerConfig{DisableAuditLogging: true})
	capture.Reset()
	if _, err := quiet.Handle(ctx, Request{Command: LoadURL, Args: args}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if capture.has("audit command", LoadURL) {
		t.Fatalf("did not expect audit log, got %s", capture.String())
	}
}

type logCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *logCapture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func (c *logCapture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
}

func (c *logCapture) has(msg, command string) bool {
	for _, line := range strings.Split(c.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entry := map[string]any{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		got, _ := entry["message"].(string)
		if got == "" {
			got, _ = entry["msg"].(string)
		}
		if got == msg && entry["command"] == command {
			return true
		}
	}
	return false
}
