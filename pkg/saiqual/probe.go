package saiqual

import (
	"context"
	"net"
	"time"

	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// Prober checks whether an RPC endpoint accepts connections.
type Prober interface {
	Probe(ctx context.Context, addr string, timeout time.Duration) bool
}

// TCPProber opens and immediately closes a TCP connection. No RPC
// handshake is made; an accepting listener counts as ready.
type TCPProber struct{}

func (TCPProber) Probe(ctx context.Context, addr string, timeout time.Duration) bool {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		util.Debugf("rpc %s not reachable: %v", addr, err)
		return false
	}
	conn.Close()
	util.Debugf("rpc connection to %s established", addr)
	return true
}
