package feed

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/item-service/backend/internal/service/feed"
	"github.com/zhouzirui/item-service/backend/pkg/utils"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Subscriber is the part of feed.Hub used by the feed handlers.
type Subscriber interface {
	Subscribe() (string, <-chan feed.Event, func(), error)
}

// Handler streams item events over WebSocket and Server-Sent Events.
type Handler struct {
	hub      Subscriber
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// New 创建feed处理器
func New(hub Subscriber, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub: hub,
		log: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册feed路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/items/ws", h.handleWebSocket)
	r.Get("/items/events", h.handleEvents)
}

func (h *Handler) subscribe(w http.ResponseWriter) (string, <-chan feed.Event, func(), bool) {
	id, events, cancel, err := h.hub.Subscribe()
	if err != nil {
		if errors.Is(err, feed.ErrHubClosed) {
			utils.RespondError(w, http.StatusServiceUnavailable, "item feed unavailable")
			return "", nil, nil, false
		}
		h.log.Error("subscribe failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "internal server error")
		return "", nil, nil, false
	}
	return id, events, cancel, true
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id, events, cancelSub, ok := h.subscribe(w)
	if !ok {
		return
	}
	defer cancelSub()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("subscriber", id), zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.log.With(zap.String("subscriber", id))
	log.Info("websocket subscriber connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go h.readLoop(conn, cancel, log)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("websocket subscriber disconnected")
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("ping failed", zap.Error(err))
				return
			}
		case event, ok := <-events:
			if !ok {
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
					time.Now().Add(writeWait),
				)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				log.Warn("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

// readLoop drains client frames so control messages are processed and a
// closed connection is noticed.
func (h *Handler) readLoop(conn *websocket.Conn, cancel context.CancelFunc, log *zap.Logger) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}
