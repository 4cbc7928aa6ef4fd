package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-board/internal/feedback"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/turn"
	"github.com/park285/cheese-board/pkg/boarddto"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

type client struct {
	id   int
	conn *websocket.Conn
	send chan boarddto.Event
}

// Hub fans engine snapshots and cues out to websocket clients and feeds
// their commands back to the engine.
type Hub struct {
	game    Game
	cat     *msgcat.Catalog
	logger  *zap.Logger
	origins []string

	mu      sync.RWMutex
	clients map[*client]struct{}
	nextID  int

	pingInterval time.Duration
}

var _ feedback.Player = (*Hub)(nil)

// NewHub creates a hub. origins are host patterns accepted besides the
// request's own host; cat may be nil.
func NewHub(game Game, cat *msgcat.Catalog, logger *zap.Logger, origins ...string) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		game:         game,
		cat:          cat,
		logger:       logger,
		origins:      origins,
		clients:      map[*client]struct{}{},
		pingInterval: 15 * time.Second,
	}
}

// Run forwards published snapshots to every client until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	snaps, unsubscribe := h.game.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			h.broadcast(h.snapshotEvent(snap))
		}
	}
}

// Play broadcasts a cue event so browsers can play the sound themselves.
func (h *Hub) Play(_ context.Context, cue feedback.Cue) error {
	h.broadcast(boarddto.Event{Type: boarddto.EventCue, Cue: string(cue)})
	return nil
}

// Clients reports the number of connected websockets.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(ev boarddto.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.logger.Debug("ws_send_dropped", zap.Int("client", c.id), zap.String("type", ev.Type))
		}
	}
}

func (h *Hub) snapshotEvent(snap turn.Snapshot) boarddto.Event {
	var render func(turn.Notice) string
	if h.cat != nil {
		render = h.cat.Notice
	}
	dto := snap.ToDTO(render)
	return boarddto.Event{Type: boarddto.EventSnapshot, Snapshot: &dto}
}

func (h *Hub) errorEvent(err error) boarddto.Event {
	n := turn.NoticeFor(err)
	ev := boarddto.Event{Type: boarddto.EventError, Error: &boarddto.Notice{Code: n.Code, Detail: n.Detail}}
	if h.cat != nil {
		ev.Error.Message = h.cat.Notice(n)
	}
	return ev
}

// Handler serves /ws, /state and /healthz.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/state", h.serveState)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (h *Hub) serveState(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ev := h.snapshotEvent(h.game.Snapshot())
	if err := json.NewEncoder(w).Encode(ev.Snapshot); err != nil {
		h.logger.Warn("state_encode_failed", zap.Error(err))
	}
}

// ServeWS upgrades the request and serves one client until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.origins,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		h.logger.Warn("ws_accept_failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := h.register(conn)
	defer h.unregister(c)
	h.logger.Info("ws_client_connected", zap.Int("client", c.id), zap.String("remote", r.RemoteAddr))

	c.send <- h.snapshotEvent(h.game.Snapshot())

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(ctx, c)
	}()

	h.readLoop(ctx, c)
	cancel()
	<-done
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	h.logger.Info("ws_client_disconnected", zap.Int("client", c.id))
}

func (h *Hub) register(conn *websocket.Conn) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	c := &client{id: h.nextID, conn: conn, send: make(chan boarddto.Event, sendBuffer)}
	h.clients[c] = struct{}{}
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *Hub) readLoop(ctx context.Context, c *client) {
	for {
		var cmd boarddto.Command
		if err := wsjson.Read(ctx, c.conn, &cmd); err != nil {
			if !isClosed(err) && ctx.Err() == nil {
				h.logger.Debug("ws_read_failed", zap.Int("client", c.id), zap.Error(err))
			}
			return
		}
		if _, err := Dispatch(ctx, h.game, cmd); err != nil {
			var stale *turn.StaleResponseError
			if errors.As(err, &stale) {
				continue
			}
			h.logger.Debug("ws_command_rejected", zap.Int("client", c.id), zap.String("type", cmd.Type), zap.Error(err))
			h.enqueue(c, h.errorEvent(err))
			continue
		}
		if cmd.Type == boarddto.CommandState {
			h.enqueue(c, h.snapshotEvent(h.game.Snapshot()))
		}
	}
}

func (h *Hub) enqueue(c *client, ev boarddto.Event) {
	select {
	case c.send <- ev:
	default:
	}
}

func (h *Hub) writeLoop(ctx context.Context, c *client) {
	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.conn, ev)
			cancel()
			if err != nil {
				h.logger.Debug("ws_write_failed", zap.Int("client", c.id), zap.Error(err))
				_ = c.conn.Close(websocket.StatusGoingAway, "write failed")
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				_ = c.conn.Close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

func isClosed(err error) bool {
	s := websocket.CloseStatus(err)
	return s == websocket.StatusNormalClosure || s == websocket.StatusGoingAway
}

// ListenAndServe serves the hub on addr until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return err
		}
		return nil
	}
}
