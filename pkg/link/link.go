// Package link owns the control and telemetry connection to the robot.
// The robot is the TCP client; the console binds a port, accepts exactly
// one connection, and keeps it for the lifetime of the process. There is
// no reconnection support.
package link

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
)

// ShutdownToken is the line that requests a robot shutdown.
const ShutdownToken = "sd"

// Server holds the listening socket until the robot dials in.
type Server struct {
	ln     net.Listener
	logger *slog.Logger
}

// Listen binds all interfaces on the given port. A bind failure is fatal
// for the console; there is no control link without it.
func Listen(port int, logger *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind control port %d: %w", port, err)
	}
	logger.Info("awaiting robot connection", "port", port)
	return &Server{ln: ln, logger: logger}, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Accept blocks until the robot connects and returns the live connection.
// The listener stays open so the port remains claimed, but no further
// connection is ever accepted; late dialers queue up and are ignored.
func (s *Server) Accept() (*Conn, error) {
	c, err := s.ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("accept robot connection: %w", err)
	}
	s.logger.Info("robot connected", "remote", c.RemoteAddr().String())
	return &Conn{
		alive:  true,
		c:      c,
		ln:     s.ln,
		logger: s.logger,
	}, nil
}

// Conn is the single robot connection. Commands go out as text lines,
// telemetry comes in as a binary stream read through Reader.
//
// The mutex guards the alive flag and all writes, so a send in flight
// cannot race a concurrent disconnect-and-close.
type Conn struct {
	mu     sync.Mutex
	alive  bool
	closed bool
	c      net.Conn
	ln     net.Listener
	logger *slog.Logger
}

// Send writes msg as one line to the robot. On a dead connection the
// command is dropped with a warning; Send never fails the caller.
func (c *Conn) Send(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendLocked(msg)
}

func (c *Conn) sendLocked(msg string) {
	if !c.alive {
		c.logger.Warn("no live connection, command dropped", "command", msg)
		return
	}
	c.logger.Debug("send", "command", msg)
	if _, err := c.c.Write([]byte(msg + "\n")); err != nil {
		c.logger.Warn("command write failed", "command", msg, "error", err)
	}
}

// Recv reads up to maxBytes and decodes them as text. Used for rare
// best-effort status queries, not for telemetry.
func (c *Conn) Recv(maxBytes int) (string, error) {
	buf := make([]byte, maxBytes)
	n, err := c.c.Read(buf)
	if err != nil {
		return "", fmt.Errorf("status read: %w", err)
	}
	msg := string(buf[:n])
	c.logger.Debug("received", "message", msg)
	return msg, nil
}

// Reader exposes the inbound byte stream for the telemetry de-framer.
// Closing the connection from another goroutine unblocks a pending read.
func (c *Conn) Reader() io.Reader {
	return c.c
}

// Alive reports whether commands still reach the robot.
func (c *Conn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// RemoteAddr returns the robot's address for logging and session records.
func (c *Conn) RemoteAddr() string {
	return c.c.RemoteAddr().String()
}

// Disconnect shuts the link down. With sendShutdown it first sends the
// shutdown token so the robot powers off cleanly. The receive stream and
// the listening socket are always closed. Calling it twice is harmless.
func (c *Conn) Disconnect(sendShutdown bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true

	if sendShutdown {
		c.sendLocked(ShutdownToken)
		c.alive = false
		c.logger.Info("sent shutdown signal to robot")
	}
	c.alive = false

	if err := c.c.Close(); err != nil {
		c.logger.Debug("connection close", "error", err)
	}
	if err := c.ln.Close(); err != nil {
		c.logger.Debug("listener close", "error", err)
	}
	c.logger.Debug("link shut down")
}
