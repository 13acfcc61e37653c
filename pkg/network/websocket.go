package network

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/burrowgame/burrow/pkg/log"
)

// WSServer accepts WebSocket connections and adapts each one to a
// net.Conn so sessions are transport-agnostic. Clients send one packet
// line per text message.
type WSServer struct {
	port     int
	handler  Handler
	upgrader websocket.Upgrader
	server   *http.Server
}

type NewWSServerOptions struct {
	Port    int
	Handler Handler
}

func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		port:    opts.Port,
		handler: opts.Handler,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start serves until the context is cancelled.
func (s *WSServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveWS)
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}
	log.Info("WebSocket server listening on port %d", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve WebSocket: %v", err)
	}
	return nil
}

func (s *WSServer) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade WebSocket connection: %v", err)
		return
	}
	log.Debug("accepted WebSocket connection from %s", ws.RemoteAddr())
	session := NewSession(newWSConn(ws), s.handler)
	go session.Run()
}

// wsConn adapts a websocket connection to net.Conn. Reads concatenate
// successive text messages into one byte stream, with a newline
// appended after each message so that message boundaries always
// terminate a packet line; each write goes out as a single text
// message. Blank lines from clients that frame their own newlines are
// skipped by the session read loop.
type wsConn struct {
	ws     *websocket.Conn
	reader io.Reader
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			c.reader = io.MultiReader(r, strings.NewReader("\n"))
		}
		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error { return c.ws.Close() }

func (c *wsConn) LocalAddr() net.Addr  { return c.ws.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr { return c.ws.RemoteAddr() }

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }
