package dbunified

import (
	"context"
	"net"
	"time"
)

// Prober checks that a backend host accepts connections before a session is
// opened. Probing is optional and only applies to networked backends.
type Prober interface {
	Reachable(ctx context.Context, host, port string) error
}

// TCPProbe dials the backend address and hangs up.
type TCPProbe struct {
	Timeout time.Duration
}

// DefaultProbeTimeout bounds a TCPProbe with no Timeout set.
const DefaultProbeTimeout = 3 * time.Second

func (p TCPProbe) Reachable(ctx context.Context, host, port string) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return err
	}
	return conn.Close()
}

// ProbeFunc adapts a function to Prober.
type ProbeFunc func(ctx context.Context, host, port string) error

func (f ProbeFunc) Reachable(ctx context.Context, host, port string) error {
	return f(ctx, host, port)
}
