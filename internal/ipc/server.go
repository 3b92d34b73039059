package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
)

// ClientConn is a live accepted connection. It is passed by reference so
// the reactor can track waiting clients without ever mistaking one
// closed-and-reused descriptor for another.
type ClientConn struct {
	conn net.Conn
	id   uint64
}

// Send writes one response line. It is safe to call from the reactor
// goroutine only; ClientConn has no internal locking of its own.
func (c *ClientConn) Send(resp Response) error {
	line, err := resp.Encode()
	if err != nil {
		return err
	}
	_, err = c.conn.Write(line)
	return err
}

// Close closes the underlying connection.
func (c *ClientConn) Close() error {
	return c.conn.Close()
}

// Command pairs a parsed request with the connection it arrived on.
type Command struct {
	Conn *ClientConn
	Req  Request
}

// Server accepts connections on a Unix domain socket listener and
// forwards one line-framed JSON request at a time from each, over a
// single channel the reactor goroutine drains. A malformed line is a
// protocol violation: the connection is dropped without a response.
type Server struct {
	listener    net.Listener
	commands    chan Command
	disconnects chan *ClientConn
	nextID      atomic.Uint64
}

// NewServer wraps an already-bound listener (see Listen).
func NewServer(listener net.Listener) *Server {
	return &Server{
		listener:    listener,
		commands:    make(chan Command),
		disconnects: make(chan *ClientConn),
	}
}

// Commands is the channel of parsed requests, one per successfully read
// line, in per-connection send order.
func (s *Server) Commands() <-chan Command {
	return s.commands
}

// Disconnects reports connections that closed, EOF'd, or violated the
// protocol, so the reactor can purge them from its waiting-clients list.
func (s *Server) Disconnects() <-chan *ClientConn {
	return s.disconnects
}

// Listener exposes the raw listener, mirroring the reactor's registration
// of the IPC listener as one of its readiness sources.
func (s *Server) Listener() net.Listener {
	return s.listener
}

// Serve accepts connections until ctx is cancelled or the listener is
// closed, spawning one reader goroutine per accepted client.
func (s *Server) Serve(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			return
		}

		client := &ClientConn{conn: conn, id: s.nextID.Add(1)}
		go s.readLoop(ctx, client)
	}
}

func (s *Server) readLoop(ctx context.Context, client *ClientConn) {
	reader := bufio.NewReader(client.conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			s.deliverDisconnect(ctx, client)
			return
		}

		var req Request
		if jsonErr := json.Unmarshal(line, &req); jsonErr != nil {
			_ = client.Close()
			s.deliverDisconnect(ctx, client)
			return
		}

		select {
		case s.commands <- Command{Conn: client, Req: req}:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) deliverDisconnect(ctx context.Context, client *ClientConn) {
	select {
	case s.disconnects <- client:
	case <-ctx.Done():
	}
}

// Close closes the listener, which unblocks Serve.
func (s *Server) Close() error {
	return s.listener.Close()
}
