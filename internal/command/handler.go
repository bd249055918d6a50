// Package command routes named commands from the display layer to the
// session. Arguments are positional JSON values.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"pkt.systems/tabula/core"
	"pkt.systems/tabula/internal/logx"
	"pkt.systems/tabula/schema"
)

// Command names understood by the handler.
const (
	NewTab         = "new-tab"
	SwitchTab      = "switch-tab"
	CloseTab       = "close-tab"
	ReorderTabs    = "reorder-tabs"
	ListTabs       = "list-tabs"
	LoadURL        = "load-url"
	Navigate       = "navigate"
	ResizeWindow   = "resize-window"
	ListBookmarks  = "list-bookmarks"
	AddBookmark    = "add-bookmark"
	RemoveBookmark = "remove-bookmark"
	// ImportBookmarks takes one argument: a JSON array of {url,title}.
	ImportBookmarks = "import-bookmarks"
)

// Request is one command invocation.
type Request struct {
	Command string `json:"command"`
	Args    Args   `json:"args,omitempty"`
}

// HandlerConfig configures command handling.
type HandlerConfig struct {
	DisableAuditLogging bool
}

type handlerFunc func(ctx context.Context, args Args) (any, error)

// Handler routes commands to service operations.
type Handler struct {
	service core.Service
	cfg     HandlerConfig
	routes  map[string]handlerFunc
}

// NewHandler constructs a command handler.
func NewHandler(service core.Service, cfg HandlerConfig) *Handler {
	h := &Handler{service: service, cfg: cfg}
	h.routes = map[string]handlerFunc{
		NewTab:          h.handleNewTab,
		SwitchTab:       h.handleSwitchTab,
		CloseTab:        h.handleCloseTab,
		ReorderTabs:     h.handleReorderTabs,
		ListTabs:        h.handleListTabs,
		LoadURL:         h.handleLoadURL,
		Navigate:        h.handleNavigate,
		ResizeWindow:    h.handleResizeWindow,
		ListBookmarks:   h.handleListBookmarks,
		AddBookmark:     h.handleAddBookmark,
		RemoveBookmark:  h.handleRemoveBookmark,
		ImportBookmarks: h.handleImportBookmarks,
	}
	return h
}

// Names lists the supported command names in order.
func (h *Handler) Names() []string {
	names := make([]string, 0, len(h.routes))
	for name := range h.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle executes a command and returns its response value.
func (h *Handler) Handle(ctx context.Context, req Request) (any, error) {
	if ctx == nil {
		return nil, errors.New("missing context")
	}
	if h.service == nil {
		return nil, schema.ErrHostUnavailable
	}
	name := strings.ToLower(strings.TrimSpace(req.Command))
	log := logx.Ctx(ctx).With("command", name, "args", len(req.Args))
	route, ok := h.routes[name]
	if !ok {
		log.Warn("command rejected", "reason", "unknown")
		return nil, fmt.Errorf("%w: %q", schema.ErrUnknownCommand, req.Command)
	}
	if !h.cfg.DisableAuditLogging {
		log.Debug("audit command", "command_args", auditArgs(req.Args))
	}
	resp, err := route(ctx, req.Args)
	if err != nil {
		log.Warn("command failed", "err", err)
		return nil, err
	}
	log.Trace("command handled")
	return resp, nil
}

func auditArgs(args Args) string {
	parts := make([]string, 0, len(args))
	for _, raw := range args {
		parts = append(parts, string(raw))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (h *Handler) handleNewTab(ctx context.Context, args Args) (any, error) {
	url, err := args.String(0)
	if err != nil {
		return nil, err
	}
	activate, err := args.Activate(1)
	if err != nil {
		return nil, err
	}
	return h.service.NewTab(ctx, schema.NewTabRequest{URL: url, Activate: activate})
}

func (h *Handler) handleSwitchTab(ctx context.Context, args Args) (any, error) {
	return h.service.SwitchTab(ctx, schema.SwitchTabRequest{Index: args.Index(0)})
}

func (h *Handler) handleCloseTab(ctx context.Context, args Args) (any, error) {
	return h.service.CloseTab(ctx, schema.CloseTabRequest{Index: args.Index(0)})
}

func (h *Handler) handleReorderTabs(ctx context.Context, args Args) (any, error) {
	return h.service.ReorderTabs(ctx, schema.ReorderTabsRequest{From: args.Index(0), To: args.Index(1)})
}

func (h *Handler) handleListTabs(ctx context.Context, _ Args) (any, error) {
	return h.service.ListTabs(ctx, schema.ListTabsRequest{})
}

func (h *Handler) handleLoadURL(ctx context.Context, args Args) (any, error) {
	input, err := args.String(0)
	if err != nil {
		return nil, err
	}
	return h.service.LoadURL(ctx, schema.LoadURLRequest{Input: input})
}

func (h *Handler) handleNavigate(ctx context.Context, args Args) (any, error) {
	raw, err := args.String(0)
	if err != nil {
		return nil, err
	}
	action, ok := schema.ParseNavAction(raw)
	if !ok {
		return schema.NavigateResponse{Status: schema.StatusIgnored}, nil
	}
	return h.service.Navigate(ctx, schema.NavigateRequest{Action: action})
}

func (h *Handler) handleResizeWindow(ctx context.Context, args Args) (any, error) {
	width, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	height, err := args.Int(1)
	if err != nil {
		return nil, err
	}
	return h.service.ResizeWindow(ctx, schema.ResizeWindowRequest{Width: width, Height: height})
}

func (h *Handler) handleListBookmarks(ctx context.Context, _ Args) (any, error) {
	return h.service.ListBookmarks(ctx, schema.ListBookmarksRequest{})
}

func (h *Handler) handleAddBookmark(ctx context.Context, _ Args) (any, error) {
	return h.service.AddBookmark(ctx, schema.AddBookmarkRequest{})
}

func (h *Handler) handleRemoveBookmark(ctx context.Context, args Args) (any, error) {
	url, err := args.String(0)
	if err != nil {
		return nil, err
	}
	return h.service.RemoveBookmark(ctx, schema.RemoveBookmarkRequest{URL: url})
}

func (h *Handler) handleImportBookmarks(ctx context.Context, args Args) (any, error) {
	if !args.present(0) {
		return nil, fmt.Errorf("%w: bookmark list required", schema.ErrInvalidArgs)
	}
	var list []schema.Bookmark
	if err := json.Unmarshal(args[0], &list); err != nil {
		return nil, fmt.Errorf("%w: bookmark list: %v", schema.ErrInvalidArgs, err)
	}
	return h.service.ImportBookmarks(ctx, schema.ImportBookmarksRequest{Bookmarks: list})
}
