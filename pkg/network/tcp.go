package network

import (
	"context"
	"fmt"
	"net"

	"github.com/burrowgame/burrow/pkg/log"
)

// TCPServer accepts raw TCP connections and hands each one to a new
// Session.
type TCPServer struct {
	port     int
	handler  Handler
	listener net.Listener
}

type NewTCPServerOptions struct {
	Port    int
	Handler Handler
}

func NewTCPServer(opts NewTCPServerOptions) *TCPServer {
	return &TCPServer{
		port:    opts.Port,
		handler: opts.Handler,
	}
}

// Start listens and serves until the context is cancelled.
func (s *TCPServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on TCP port %d: %v", s.port, err)
	}
	s.listener = listener
	log.Info("TCP server listening on port %d", s.port)

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Error("failed to accept TCP connection: %v", err)
				continue
			}
		}
		log.Debug("accepted TCP connection from %s", conn.RemoteAddr())
		session := NewSession(conn, s.handler)
		go session.Run()
	}
}
