package reactor

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrTLSUnsupported is returned when a TLS upgrade is requested on a session
// that does not expose the ITransportSecurity capability
var ErrTLSUnsupported = errors.New("TLS upgrade not supported")

// --------------------------------------------------------------------------
// Close Semantics
// --------------------------------------------------------------------------

// CloseMode classifies how a session teardown is performed
type CloseMode int

const (
	// CloseGraceful lets already-queued commands complete before teardown
	CloseGraceful CloseMode = iota
	// CloseImmediate discards queued commands and tears the session down right away
	CloseImmediate
)

func (m CloseMode) String() string {
	switch m {
	case CloseGraceful:
		return "graceful"
	case CloseImmediate:
		return "immediate"
	default:
		return fmt.Sprintf("close-mode-%d", int(m))
	}
}

// --------------------------------------------------------------------------
// Commands and Event Handlers
// --------------------------------------------------------------------------

// ICommand is an opaque unit of work executed by the session's command loop.
// The session never interprets command content beyond calling Execute.
type ICommand interface {
	Execute(s ISession) error
}

// IEventHandler receives connection events for one session. Handlers are
// pluggable and may be swapped over the session's lifetime (e.g. after a
// protocol negotiation).
type IEventHandler interface {
	// Connected is called once the session is ready for traffic
	Connected(s ISession)
	// DataReceived is called with inbound bytes read from the connection.
	// The slice is only valid for the duration of the call.
	DataReceived(s ISession, data []byte)
	// Disconnected is called exactly once when the session is torn down
	Disconnected(s ISession, err error)
}

// --------------------------------------------------------------------------
// Protocol Capability View
// --------------------------------------------------------------------------

// ProtocolVersion identifies the version of an application protocol
type ProtocolVersion struct {
	Protocol string
	Major    int
	Minor    int
}

func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%s/%d.%d", v.Protocol, v.Major, v.Minor)
}

// DefaultProtocolVersion is the baseline protocol version assumed for
// sessions whose handler does not expose protocol information
var DefaultProtocolVersion = ProtocolVersion{Protocol: "aionet", Major: 1, Minor: 0}

// EndpointDetails describes the remote endpoint a protocol handler is
// currently bound to, including basic message statistics
type EndpointDetails struct {
	RemoteAddr    net.Addr
	LocalAddr     net.Addr
	RequestCount  int64
	ResponseCount int64
}

// IProtocolInfo is the optional capability view of an event handler that is
// also a full protocol connection. Callers must branch on the presence of
// this view, never on the concrete handler type.
type IProtocolInfo interface {
	// GetEndpointDetails returns details of the connected endpoint
	GetEndpointDetails() *EndpointDetails
	// GetProtocolVersion returns the negotiated protocol version
	GetProtocolVersion() ProtocolVersion
}

// --------------------------------------------------------------------------
// Transport Security Capability View
// --------------------------------------------------------------------------

// BufferPolicy controls how I/O buffers are managed after a TLS upgrade
type BufferPolicy int

const (
	// BufferStatic keeps fixed-size buffers allocated for the session lifetime
	BufferStatic BufferPolicy = iota
	// BufferDynamic releases buffers while the session is idle
	BufferDynamic
)

// SessionInitializer customizes the TLS configuration before the handshake
type SessionInitializer func(cfg *tls.Config)

// SessionVerifier inspects the handshake result after a TLS upgrade.
// Returning a non-nil error aborts the upgrade and closes the connection.
type SessionVerifier func(state tls.ConnectionState) error

// TLSDetails describes a negotiated secure transport
type TLSDetails struct {
	// State is the handshake session state of the secure channel
	State tls.ConnectionState
	// ApplicationProtocol is the protocol negotiated via ALPN (may be empty)
	ApplicationProtocol string
}

// ITransportSecurity is the optional capability view of a session that
// supports promotion to a secure transport
type ITransportSecurity interface {
	// StartTLS upgrades the session transport to TLS. The upgrade is one-shot
	// and one-directional.
	StartTLS(cfg *tls.Config, policy BufferPolicy, init SessionInitializer, verify SessionVerifier) error
	// GetTLSDetails returns the details of the negotiated secure transport,
	// or nil if the transport is not (yet) secure
	GetTLSDetails() *TLSDetails
}

// --------------------------------------------------------------------------
// Session
// --------------------------------------------------------------------------

// ISession is the underlying connection handle all higher layers operate on.
// Commands are processed asynchronously by the session's command loop; the
// two insertion points control ordering (front = priority, back = normal).
type ISession interface {
	// ID returns the stable numeric identifier of the session
	ID() uint64
	// IsClosed reports whether the session has been torn down
	IsClosed() bool
	// Shutdown tears the session down with the given mode. Idempotent.
	Shutdown(mode CloseMode)
	// GetSocketTimeout returns the current socket timeout (0 = disabled)
	GetSocketTimeout() time.Duration
	// SetSocketTimeout changes the socket timeout with immediate effect
	SetSocketTimeout(timeout time.Duration)
	// RemoteAddr returns the remote address of the connection
	RemoteAddr() net.Addr
	// LocalAddr returns the local address of the connection
	LocalAddr() net.Addr
	// GetHandler returns the current event handler (may be nil)
	GetHandler() IEventHandler
	// SetHandler swaps the current event handler
	SetHandler(handler IEventHandler)
	// AddFirst enqueues a command at the front of the command queue.
	// Commands submitted after teardown are silently dropped.
	AddFirst(cmd ICommand)
	// AddLast enqueues a command at the back of the command queue.
	// Commands submitted after teardown are silently dropped.
	AddLast(cmd ICommand)
}
