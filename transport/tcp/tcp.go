package tcp

import (
	"net"
	"time"

	"github.com/aionet-io/aionet/common"
	"github.com/aionet-io/aionet/transport"
)

// dialer implements the IDialer interface for TCP sockets
type dialer struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IDialer)
// --------------------------------------------------------------------------

func (d *dialer) GetName() string {
	return "tcp"
}

func (d *dialer) Dial(endpoint string) (net.Conn, error) {
	return net.Dial("tcp", endpoint)
}

func (d *dialer) SupportsTLS() bool {
	return true
}

// Tune applies performance optimizations to a TCP connection
// using configuration values from TCPConf and SocketConf
func (d *dialer) Tune(conn net.Conn, config common.ClientConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to tune
	}

	// Disable Nagle's algorithm (TCPNoDelay) if configured
	if err := tcpConn.SetNoDelay(config.Transport.TCPConf.TCPNoDelay); err != nil {
		return err
	}

	// Set socket write buffer size if configured
	if config.Transport.SocketConf.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(config.Transport.SocketConf.WriteBufferSize); err != nil {
			return err
		}
	}

	// Set socket read buffer size if configured
	if config.Transport.SocketConf.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(config.Transport.SocketConf.ReadBufferSize); err != nil {
			return err
		}
	}

	// Enable TCP keep-alive if configured
	if config.Transport.TCPConf.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}

		keepAlivePeriod := time.Duration(config.Transport.TCPConf.TCPKeepAliveSec) * time.Second
		if err := tcpConn.SetKeepAlivePeriod(keepAlivePeriod); err != nil {
			return err
		}
	}

	// Set TCP linger option if configured
	if config.Transport.TCPConf.TCPLingerSec >= 0 {
		if err := tcpConn.SetLinger(config.Transport.TCPConf.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Dialer Factory Method
// --------------------------------------------------------------------------

// NewTCPDialer creates a new TCP dialer
func NewTCPDialer() transport.IDialer {
	return &dialer{}
}
