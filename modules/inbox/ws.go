package inbox

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/inbox/handler"
	"github.com/dmitrymomot/inbox/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

const (
	EventConnected           = "connected"
	EventNotificationCreated = "notification.created"
)

// Frame is the JSON envelope of every server to client message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type stream struct {
	sessions Sessions
	identify IdentityFunc
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func newStream(sessions Sessions, identify IdentityFunc, checkOrigin func(*http.Request) bool, log *slog.Logger) *stream {
	return &stream{
		sessions: sessions,
		identify: identify,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log,
	}
}

// ServeHTTP registers the session before upgrading so that no push created
// after the client sees "connected" can be missed.
func (s *stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.identify(r)
	if !ok {
		handler.Write(w, r, handler.JSONError(handler.ErrUnauthorized))
		return
	}

	ctx := r.Context()
	sub := s.sessions.Subscribe(ctx, userID)
	defer sub.Close()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.LogAttrs(ctx, slog.LevelWarn, "websocket upgrade failed", logger.UserID(userID), logger.Error(err))
		return
	}
	defer conn.Close()

	log := s.log.With(logger.UserID(userID))
	log.DebugContext(ctx, "websocket session opened")
	defer log.DebugContext(ctx, "websocket session closed")

	readerDone := make(chan struct{})
	go s.readLoop(conn, readerDone)

	if err := write(conn, Frame{Event: EventConnected, Data: map[string]string{"user_id": userID}}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-readerDone:
			return
		case msg, ok := <-sub.Receive(ctx):
			if !ok {
				// Dropped for falling behind, or the server is shutting down.
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			if err := write(conn, Frame{Event: EventNotificationCreated, Data: msg.Data}); err != nil {
				log.LogAttrs(ctx, slog.LevelDebug, "websocket write failed", logger.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames to process pongs and close messages.
// Clients are not expected to send data.
func (s *stream) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.log.Debug("websocket read failed", logger.Error(err))
			}
			return
		}
	}
}

func write(conn *websocket.Conn, f Frame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(f)
}
