package unix

import (
	"net"

	"github.com/aionet-io/aionet/common"
	"github.com/aionet-io/aionet/transport"
)

// dialer implements the IDialer interface for Unix sockets
type dialer struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IDialer)
// --------------------------------------------------------------------------

func (d *dialer) GetName() string {
	return "unix"
}

func (d *dialer) Dial(endpoint string) (net.Conn, error) {
	return net.Dial("unix", endpoint)
}

func (d *dialer) SupportsTLS() bool {
	return false
}

// Tune applies the socket buffer settings to a Unix socket connection
func (d *dialer) Tune(conn net.Conn, config common.ClientConfig) error {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil // Not a Unix socket connection, nothing to tune
	}

	if config.Transport.SocketConf.WriteBufferSize > 0 {
		if err := unixConn.SetWriteBuffer(config.Transport.SocketConf.WriteBufferSize); err != nil {
			return err
		}
	}

	if config.Transport.SocketConf.ReadBufferSize > 0 {
		if err := unixConn.SetReadBuffer(config.Transport.SocketConf.ReadBufferSize); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Dialer Factory Method
// --------------------------------------------------------------------------

// NewUnixDialer creates a new Unix socket dialer
func NewUnixDialer() transport.IDialer {
	return &dialer{}
}
