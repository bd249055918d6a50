package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"pkt.systems/pslog"
	"pkt.systems/tabula/internal/command"
	"pkt.systems/tabula/internal/eventbus"
	"pkt.systems/tabula/internal/logx"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsReadLimit    = 64 * 1024
	wsSendDepth    = 64
)

// WebSocket frame types sent by the server.
const (
	FrameSnapshot = "snapshot"
	FrameResult   = "result"
	FrameError    = "error"
)

// InboundFrame is a command sent by a WebSocket client. ID is echoed back
// on the matching result or error frame.
type InboundFrame struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Command string          `json:"command"`
	Args    command.Args    `json:"args,omitempty"`
}

// OutboundFrame is a result, an error, a snapshot or a display event.
type OutboundFrame struct {
	Type     string           `json:"type"`
	ID       json.RawMessage  `json:"id,omitempty"`
	Result   any              `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
	Status   int              `json:"status,omitempty"`
	Payload  any              `json:"payload,omitempty"`
	Snapshot *SnapshotPayload `json:"snapshot,omitempty"`
}

type wsClient struct {
	server *Server
	conn   *websocket.Conn
	send   chan OutboundFrame
	done   chan struct{}
	once   sync.Once
	log    pslog.Logger
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Ctx(r.Context()).Warn("http ws upgrade failed", "err", err)
		return
	}
	clientID := "ws-" + uuid.NewString()
	log := logx.WithClient(r.Context(), clientID)
	ctx := logx.ContextWithClientLogger(r.Context(), log, clientID)

	var events <-chan eventbus.Event
	unsubscribe := func() {}
	if s.bus != nil {
		events, unsubscribe = s.bus.Subscribe()
	}
	defer unsubscribe()

	c := &wsClient{
		server: s,
		conn:   conn,
		send:   make(chan OutboundFrame, wsSendDepth),
		done:   make(chan struct{}),
		log:    log,
	}
	snapshot := s.buildSnapshot(ctx)
	c.send <- OutboundFrame{Type: FrameSnapshot, Snapshot: &snapshot}

	s.metrics.clientOpened("ws")
	defer s.metrics.clientClosed("ws")
	log.Info("http ws opened")
	go c.writePump(events)
	c.readPump(ctx)
	log.Info("http ws closed")
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *wsClient) enqueue(frame OutboundFrame) bool {
	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	}
}

func (c *wsClient) readPump(ctx context.Context) {
	defer c.close()
	c.conn.SetReadLimit(wsReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("http ws read failed", "err", err)
			}
			return
		}
		var frame InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Debug("http ws frame rejected", "err", err)
			if !c.enqueue(OutboundFrame{Type: FrameError, Error: "invalid frame", Status: http.StatusBadRequest}) {
				return
			}
			continue
		}
		resp, err := c.server.invoke(ctx, command.Request{Command: frame.Command, Args: frame.Args})
		out := OutboundFrame{Type: FrameResult, ID: frame.ID, Result: resp}
		if err != nil {
			out = OutboundFrame{Type: FrameError, ID: frame.ID, Error: err.Error(), Status: statusFor(err)}
		}
		if !c.enqueue(out) {
			return
		}
	}
}

func (c *wsClient) writePump(events <-chan eventbus.Event) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-c.send:
			if err := c.write(frame); err != nil {
				c.close()
				return
			}
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := c.write(OutboundFrame{Type: string(event.Type), Payload: event.Payload()}); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *wsClient) write(frame OutboundFrame) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := c.conn.WriteJSON(frame); err != nil {
		c.log.Debug("http ws write failed", "type", frame.Type, "err", err)
		return err
	}
	return nil
}
