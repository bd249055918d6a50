package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/tabula/schema"
)

type contextKey int

const (
	tabKey contextKey = iota
	clientKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithTab annotates the logger with a tab index unless the context already carries it.
func WithTab(ctx context.Context, index int) pslog.Logger {
	log := pslog.Ctx(ctx)
	if index < 0 {
		return log
	}
	if current, ok := ctx.Value(tabKey).(int); ok && current == index {
		return log
	}
	return log.With("tab", index)
}

// WithSurface annotates the logger with a surface id when available.
func WithSurface(log pslog.Logger, id schema.SurfaceID) pslog.Logger {
	if id != "" {
		log = log.With("surface", id)
	}
	return log
}

// WithURL annotates the logger with a page url when available.
func WithURL(log pslog.Logger, url string) pslog.Logger {
	if url != "" {
		log = log.With("url", url)
	}
	return log
}

// WithClient annotates the logger with a transport client id.
func WithClient(ctx context.Context, clientID string) pslog.Logger {
	log := pslog.Ctx(ctx)
	if clientID == "" {
		return log
	}
	if current, ok := ctx.Value(clientKey).(string); ok && current == clientID {
		return log
	}
	return log.With("client", clientID)
}

// ContextWithTab stores the tab marker on the context for log de-duplication.
func ContextWithTab(ctx context.Context, index int) context.Context {
	if ctx == nil || index < 0 {
		return ctx
	}
	return context.WithValue(ctx, tabKey, index)
}

// ContextWithTabLogger attaches the logger and tab marker to the context.
func ContextWithTabLogger(ctx context.Context, log pslog.Logger, index int) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithTab(ctx, index)
}

// ContextWithClientLogger attaches the logger and client marker to the context.
func ContextWithClientLogger(ctx context.Context, log pslog.Logger, clientID string) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	if clientID == "" {
		return ctx
	}
	return context.WithValue(ctx, clientKey, clientID)
}
