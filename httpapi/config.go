package httpapi

// Config defines HTTP API and UI settings.
type Config struct {
	Addr     string
	BaseURL  string
	BasePath string
	// HubHistory bounds the events kept for Last-Event-ID replay.
	HubHistory int
	// Metrics exposes Prometheus metrics on /metrics.
	Metrics bool
	// CommandRate caps commands per second across HTTP and WebSocket
	// clients; zero disables the limit.
	CommandRate  float64
	CommandBurst int
}
