package transport

import (
	"net"

	"github.com/aionet-io/aionet/common"
)

// --------------------------------------------------------------------------
// Interface Definitions for dependency injection
// --------------------------------------------------------------------------

// IDialer defines the interface for transport-specific connection operations
type IDialer interface {
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// Dial establishes a single connection to the given endpoint
	Dial(endpoint string) (net.Conn, error)

	// Tune applies transport-specific settings to an established connection
	Tune(conn net.Conn, config common.ClientConfig) error

	// SupportsTLS reports whether sessions over this transport may be
	// upgraded to a secure transport
	SupportsTLS() bool
}
