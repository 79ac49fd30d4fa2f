package conn

import (
	"crypto/tls"
	"net"
	"time"

	"github.com/aionet-io/aionet/reactor"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IManagedConn is the stable lifecycle and command-dispatch contract a pool
// consumer operates against, independent of the underlying transport (plain
// or TLS-upgraded). It adapts one reactor.ISession; the session is owned
// elsewhere and must outlive the adapter's use.
type IManagedConn interface {
	// GetID returns the stable identifier of this connection, used for
	// diagnostics and log correlation only
	GetID() string

	// IsOpen reports whether the underlying session is still open
	IsOpen() bool
	// Shutdown tears the session down immediately with the given mode.
	// Safe to call concurrently; only the first call has an effect.
	Shutdown(mode reactor.CloseMode)
	// Close initiates a cooperative teardown: a graceful shutdown command is
	// placed at the front of the session's command queue so queued work gets
	// a chance to complete. Safe to call concurrently; only the first
	// close/shutdown call has an effect.
	Close() error

	// GetSocketTimeout returns the session's current socket timeout
	GetSocketTimeout() time.Duration
	// SetSocketTimeout changes the session's socket timeout with immediate
	// effect. It does not alter the resting timeout restored by Activate.
	SetSocketTimeout(timeout time.Duration)
	// RemoteAddr returns the remote address of the connection
	RemoteAddr() net.Addr
	// LocalAddr returns the local address of the connection
	LocalAddr() net.Addr

	// GetEndpointDetails returns the endpoint details of the session's
	// current handler, or nil if the handler is not a protocol connection
	GetEndpointDetails() *reactor.EndpointDetails
	// GetProtocolVersion returns the protocol version negotiated by the
	// session's current handler, or reactor.DefaultProtocolVersion if the
	// handler is not a protocol connection
	GetProtocolVersion() reactor.ProtocolVersion

	// StartTLS upgrades the session to a secure transport. Returns
	// reactor.ErrTLSUnsupported if the session lacks the capability.
	StartTLS(cfg *tls.Config, policy reactor.BufferPolicy, init reactor.SessionInitializer, verify reactor.SessionVerifier) error
	// GetTLSDetails returns the negotiated secure-transport details, or nil
	// if the session is not secure
	GetTLSDetails() *reactor.TLSDetails
	// GetTLSSession returns the handshake session state of the secure
	// transport, derived from GetTLSDetails (nil if not secure)
	GetTLSSession() *tls.ConnectionState

	// SubmitCommand enqueues a command at the back of the session's command
	// queue (FIFO among normal commands). Commands submitted after the
	// session's teardown are silently dropped.
	SubmitCommand(cmd reactor.ICommand)
	// SubmitPriorityCommand enqueues a command at the front of the session's
	// command queue, ahead of all pending commands. Commands submitted after
	// the session's teardown are silently dropped.
	SubmitPriorityCommand(cmd reactor.ICommand)

	// Activate restores the socket timeout captured at construction time.
	// Called when the connection is leased from a pool. Idempotent.
	Activate()
	// Passivate disables the socket timeout so an idle pooled connection is
	// never torn down by inactivity. Idempotent.
	Passivate()
}
