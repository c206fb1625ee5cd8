package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/riderlink/riderlink-core/internal/dircon"
)

// Default transport timeouts, overridable via TCPConfig.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 5 * time.Second

	// maxMessageSize bounds a single Dircon message. Anything larger means
	// the stream is desynchronised: we cannot skip an unknown number of
	// bytes safely, so the connection is torn down and re-established.
	maxMessageSize = 4096
)

// Transport is one delimited-message connection to a trainer.
//
// Device sessions are written against this interface only; the TCP (Dircon)
// implementation ships here, and a BLE variant can slot in behind the same
// four methods.
type Transport interface {
	// Connect establishes the connection, bounded by the configured
	// connect timeout and the context.
	Connect(ctx context.Context) error

	// ReadMessage blocks for the next delimited message, bounded by the
	// read timeout. Returns ErrTimeout on silence, ErrConnectionClosed on
	// EOF/reset, ErrProtocolDesync on framing loss.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one encoded message, bounded by the write timeout.
	WriteMessage(msg []byte) error

	// Close tears down the connection. Safe to call at any time; unblocks
	// a pending ReadMessage.
	Close() error

	// Endpoint returns the resolved remote endpoint ("" before connect).
	Endpoint() string
}

// EndpointResolver yields the address to dial for a slot. Static addresses
// resolve to themselves; mDNS-configured slots resolve at connect time so a
// trainer that changed IP is found again on reconnect.
type EndpointResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// EndpointResolverFunc adapts a function to the EndpointResolver interface.
type EndpointResolverFunc func(ctx context.Context) (string, error)

// Resolve implements EndpointResolver.
func (f EndpointResolverFunc) Resolve(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticEndpoint returns a resolver that always yields addr.
func StaticEndpoint(addr string) EndpointResolver {
	return EndpointResolverFunc(func(context.Context) (string, error) {
		if addr == "" {
			return "", ErrNoEndpoint
		}
		return addr, nil
	})
}

// TCPConfig holds timeouts for the TCP transport.
type TCPConfig struct {
	// ConnectTimeout bounds endpoint resolution plus dialing.
	ConnectTimeout time.Duration

	// ReadTimeout bounds the wait for a single message. A streaming
	// trainer notifies several times per second; silence this long means
	// the connection is stale.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single message write.
	WriteTimeout time.Duration
}

// TCPTransport is the Dircon-over-TCP transport.
//
// Dircon messages are delimited by the 6-byte header's big-endian length
// field; ReadMessage reads exactly one message per call and hands back the
// full header+payload bytes for the codec.
type TCPTransport struct {
	resolver EndpointResolver
	cfg      TCPConfig

	mu       sync.Mutex
	conn     net.Conn
	endpoint string
}

var _ Transport = (*TCPTransport)(nil)

// NewTCPTransport creates a TCP transport for the given endpoint resolver.
// Zero config fields take the package defaults.
func NewTCPTransport(resolver EndpointResolver, cfg TCPConfig) *TCPTransport {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &TCPTransport{resolver: resolver, cfg: cfg}
}

// Connect resolves the slot's endpoint and dials it.
func (t *TCPTransport) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.ConnectTimeout)
	defer cancel()

	addr, err := t.resolver.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("%w: resolve: %w", ErrConnectFailed, err)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrConnectFailed, addr, err)
	}

	t.mu.Lock()
	if t.conn != nil {
		t.conn.Close()
	}
	t.conn = conn
	t.endpoint = addr
	t.mu.Unlock()

	return nil
}

// ReadMessage reads one delimited Dircon message.
func (t *TCPTransport) ReadMessage() ([]byte, error) {
	conn := t.current()
	if conn == nil {
		return nil, ErrConnectionClosed
	}

	if err := conn.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout)); err != nil {
		return nil, fmt.Errorf("%w: set deadline: %w", ErrConnectionClosed, err)
	}

	header := make([]byte, dircon.HeaderLength)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, classifyReadError(err)
	}

	total, err := dircon.MessageLength(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocolDesync, err)
	}
	if total > maxMessageSize {
		return nil, fmt.Errorf("%w: message length %d exceeds %d", ErrProtocolDesync, total, maxMessageSize)
	}

	msg := make([]byte, total)
	copy(msg, header)
	if _, err := io.ReadFull(conn, msg[dircon.HeaderLength:]); err != nil {
		return nil, classifyReadError(err)
	}

	return msg, nil
}

// WriteMessage sends one encoded message.
func (t *TCPTransport) WriteMessage(msg []byte) error {
	conn := t.current()
	if conn == nil {
		return ErrConnectionClosed
	}

	if err := conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("%w: set deadline: %w", ErrConnectionClosed, err)
	}
	if _, err := conn.Write(msg); err != nil {
		return classifyReadError(err)
	}
	return nil
}

// Close tears down the connection. Safe to call concurrently with a blocked
// ReadMessage, which will return ErrConnectionClosed.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// Endpoint returns the most recently resolved remote address.
func (t *TCPTransport) Endpoint() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endpoint
}

func (t *TCPTransport) current() net.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

// classifyReadError maps raw socket errors onto the package's fault classes.
func classifyReadError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}
	return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
}
