package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	apiutil "github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/metrics"
	"github.com/mantonx/streamflow/internal/modules/playbackmodule/service"
	"github.com/mantonx/streamflow/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
)

// Message types exchanged on the progress socket
const (
	MessageProgress = "progress"
	MessagePing     = "ping"
	MessagePong     = "pong"
	MessageAck      = "ack"
	MessageError    = "error"
)

// SocketMessage is the envelope of every websocket frame
type SocketMessage struct {
	Type        string   `json:"type"`
	ContentType string   `json:"content_type,omitempty"`
	ContentID   string   `json:"content_id,omitempty"`
	Position    int      `json:"position,omitempty"`
	Duration    int      `json:"duration,omitempty"`
	Progress    *float64 `json:"progress,omitempty"`
	Code        string   `json:"code,omitempty"`
	Error       string   `json:"error,omitempty"`
	Timestamp   int64    `json:"timestamp"`
}

// ProgressSocket accepts progress reports over a websocket. Each connection
// has one reader goroutine and a pinger; writes are serialized. Open
// connections are tracked so Close can end them, since http.Server.Shutdown
// does not wait for hijacked connections.
type ProgressSocket struct {
	service  *service.PlaybackService
	upgrader websocket.Upgrader
	log      hclog.Logger

	mu     sync.Mutex
	conns  map[*connection]struct{}
	closed bool
}

// NewProgressSocket creates the socket handler. allowedOrigins lists the
// origins browsers may connect from; "*" allows any, and an empty list only
// allows same-host requests.
func NewProgressSocket(svc *service.PlaybackService, allowedOrigins []string, log hclog.Logger) *ProgressSocket {
	s := &ProgressSocket{
		service: svc,
		log:     log,
		conns:   make(map[*connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(allowedOrigins) > 0 {
		s.upgrader.CheckOrigin = originChecker(allowedOrigins)
	}
	return s
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) || strings.EqualFold(a, u.Host) {
				return true
			}
		}
		return false
	}
}

// connection serializes writes to one websocket
type connection struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *connection) send(msg SocketMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg.Timestamp = time.Now().Unix()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *connection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *connection) goingAway() {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.conn.Close()
}

// track registers conn unless the socket is closed
func (s *ProgressSocket) track(conn *connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *ProgressSocket) untrack(conn *connection) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// Open returns the number of connected clients
func (s *ProgressSocket) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close sends a going-away frame to every client and closes its connection.
// Later upgrades are refused the same way.
func (s *ProgressSocket) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.goingAway()
	}
	if len(conns) > 0 {
		s.log.Info("closed playback sockets", "count", len(conns))
	}
}

// Serve upgrades the request and processes messages until the client leaves.
// The route is guarded, so a viewer is always present.
func (s *ProgressSocket) Serve(c *gin.Context) {
	viewer := auth.ViewerFromContext(c)
	if viewer == nil {
		apiutil.RespondWithError(c, types.NewUnauthorizedError("authentication required"))
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written an HTTP error
		s.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	conn := &connection{conn: ws}
	defer ws.Close()
	if !s.track(conn) {
		conn.goingAway()
		return
	}
	defer s.untrack(conn)

	metrics.ActiveWebsockets.Inc()
	defer metrics.ActiveWebsockets.Dec()
	s.log.Debug("playback socket opened", "user_id", viewer.UserID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.keepAlive(ctx, conn)

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg SocketMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("playback socket closed", "user_id", viewer.UserID, "error", err)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(pongWait))

		reply := s.handle(ctx, viewer, msg)
		if err := conn.send(reply); err != nil {
			return
		}
	}
}

func (s *ProgressSocket) handle(ctx context.Context, viewer *auth.Viewer, msg SocketMessage) SocketMessage {
	switch msg.Type {
	case MessagePing:
		return SocketMessage{Type: MessagePong}

	case MessageProgress:
		entry, err := s.service.RecordProgress(ctx, viewer, service.ProgressRequest{
			ContentType: msg.ContentType,
			ContentID:   msg.ContentID,
			Position:    msg.Position,
			Duration:    msg.Duration,
			Progress:    msg.Progress,
		})
		if err != nil {
			reply := SocketMessage{Type: MessageError, ContentID: msg.ContentID}
			if appErr, ok := types.AsAppError(err); ok {
				reply.Code = string(appErr.Code)
				reply.Error = appErr.Message
				return reply
			}
			s.log.Error("failed to record progress", "user_id", viewer.UserID, "content_id", msg.ContentID, "error", err)
			reply.Code = string(types.ErrorCodeInternal)
			reply.Error = "internal server error"
			return reply
		}
		progress := entry.Progress
		return SocketMessage{
			Type:        MessageAck,
			ContentType: string(entry.ContentType),
			ContentID:   entry.ContentID,
			Position:    entry.Position,
			Progress:    &progress,
		}

	default:
		return SocketMessage{Type: MessageError, Code: string(types.ErrorCodeValidation), Error: "unknown message type"}
	}
}

func (s *ProgressSocket) keepAlive(ctx context.Context, conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
