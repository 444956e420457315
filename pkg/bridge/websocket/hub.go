// Package websocket bridges a terminal session to WebSocket clients.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/serterm/pkg/framework"
	"github.com/robotalks/serterm/pkg/framing"
)

// Path is where the hub is served.
const Path = "/ws"

// CommandSender sends a command to the device, e.g. *term.Writer.
type CommandSender interface {
	Send(cmd string) error
}

// Hub broadcasts received messages to all connected clients and forwards
// text frames from clients as commands.
// Broadcasts run on their own goroutine behind a bounded backlog, so a slow
// client never stalls the reader; when the backlog is full the message is
// dropped.
type Hub struct {
	Addr         string
	Sender       CommandSender
	WriteTimeout time.Duration

	backlog chan *framing.Message
	conns   map[*websocket.Conn]struct{}
	lock    sync.RWMutex
}

// DefaultWriteTimeout bounds a broadcast to a single client.
const DefaultWriteTimeout = time.Second

// DefaultBacklog is the number of messages waiting for broadcast.
const DefaultBacklog = 64

// NewHub creates a Hub serving on addr.
func NewHub(addr string, sender CommandSender) *Hub {
	return &Hub{
		Addr:         addr,
		Sender:       sender,
		WriteTimeout: DefaultWriteTimeout,
		backlog:      make(chan *framing.Message, DefaultBacklog),
		conns:        make(map[*websocket.Conn]struct{}),
	}
}

// Name implements framework.Named.
func (h *Hub) Name() string {
	return "websocket"
}

// Handler returns the http.Handler serving the hub at Path.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, websocket.Handler(h.serveConn))
	return mux
}

// Run serves the hub until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	server := &http.Server{Addr: h.Addr, Handler: h.Handler()}
	glog.Infof("websocket bridge listening on %s%s", h.Addr, Path)
	go h.Broadcast(ctx)
	return fx.RunWithContextCloser(ctx, server, server.ListenAndServe)
}

// Broadcast sends queued messages to the clients until ctx is done.
// Run starts it, it's only called directly when serving Handler elsewhere.
func (h *Hub) Broadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.backlog:
			h.broadcast(msg)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.conns)
}

// HandleMessage implements term.MessageHandler.
func (h *Hub) HandleMessage(_ context.Context, msg *framing.Message) {
	select {
	case h.backlog <- msg:
	default:
		glog.V(1).Infof("websocket backlog full, drop %q", msg.Raw)
	}
}

// broadcast sends invalid messages as binary frames.
func (h *Hub) broadcast(msg *framing.Message) {
	h.lock.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.lock.RUnlock()
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(h.WriteTimeout))
		var err error
		if msg.Valid {
			err = websocket.Message.Send(conn, msg.Text)
		} else {
			err = websocket.Message.Send(conn, msg.Raw)
		}
		if err != nil {
			glog.V(1).Infof("websocket send to %s failed: %v", conn.Request().RemoteAddr, err)
			h.remove(conn)
			conn.Close()
		}
	}
}

func (h *Hub) serveConn(conn *websocket.Conn) {
	h.lock.Lock()
	h.conns[conn] = struct{}{}
	h.lock.Unlock()
	defer h.remove(conn)
	glog.V(1).Infof("websocket client %s connected", conn.Request().RemoteAddr)
	for {
		var cmd string
		if err := websocket.Message.Receive(conn, &cmd); err != nil {
			glog.V(1).Infof("websocket client %s disconnected: %v", conn.Request().RemoteAddr, err)
			return
		}
		if h.Sender == nil {
			continue
		}
		if err := h.Sender.Send(cmd); err != nil {
			glog.Warningf("forward websocket command failed: %v", err)
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.lock.Lock()
	delete(h.conns, conn)
	h.lock.Unlock()
}
