package conn

import (
	"crypto/tls"
	"net"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/aionet-io/aionet/reactor"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("conn")

var (
	commandsSubmitted         = metrics.GetOrCreateCounter(`aionet_commands_submitted_total{priority="normal"}`)
	priorityCommandsSubmitted = metrics.GetOrCreateCounter(`aionet_commands_submitted_total{priority="high"}`)
	tlsUpgrades               = metrics.GetOrCreateCounter(`aionet_tls_upgrades_total`)
)

// --------------------------------------------------------------------------
// Managed Connection Adapter
// --------------------------------------------------------------------------

// managedConn is the default IManagedConn implementation. The only state it
// guards itself is the closed flag; everything else is delegated to the
// session, which provides its own concurrency guarantees.
type managedConn struct {
	session        reactor.ISession
	restingTimeout time.Duration
	closed         atomic.Bool
}

// NewManagedConn wraps the given session in a managed connection adapter.
// The session's socket timeout at this moment becomes the resting timeout
// restored by Activate for the adapter's whole lifetime.
func NewManagedConn(session reactor.ISession) IManagedConn {
	return &managedConn{
		session:        session,
		restingTimeout: session.GetSocketTimeout(),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see conn.IManagedConn)
// --------------------------------------------------------------------------

func (c *managedConn) GetID() string {
	return ConnID(c.session)
}

func (c *managedConn) IsOpen() bool {
	return !c.session.IsClosed()
}

func (c *managedConn) Shutdown(mode reactor.CloseMode) {
	if c.closed.CompareAndSwap(false, true) {
		Logger.Debugf("%s: shutdown connection (%s)", c.GetID(), mode)
		c.session.Shutdown(mode)
	}
}

func (c *managedConn) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		Logger.Debugf("%s: close connection", c.GetID())
		c.session.AddFirst(reactor.NewShutdownCommand(reactor.CloseGraceful))
	}
	return nil
}

func (c *managedConn) GetSocketTimeout() time.Duration {
	return c.session.GetSocketTimeout()
}

func (c *managedConn) SetSocketTimeout(timeout time.Duration) {
	c.session.SetSocketTimeout(timeout)
}

func (c *managedConn) RemoteAddr() net.Addr {
	return c.session.RemoteAddr()
}

func (c *managedConn) LocalAddr() net.Addr {
	return c.session.LocalAddr()
}

func (c *managedConn) GetEndpointDetails() *reactor.EndpointDetails {
	if info, ok := c.session.GetHandler().(reactor.IProtocolInfo); ok {
		return info.GetEndpointDetails()
	}
	return nil
}

func (c *managedConn) GetProtocolVersion() reactor.ProtocolVersion {
	if info, ok := c.session.GetHandler().(reactor.IProtocolInfo); ok {
		return info.GetProtocolVersion()
	}
	return reactor.DefaultProtocolVersion
}

func (c *managedConn) StartTLS(cfg *tls.Config, policy reactor.BufferPolicy, init reactor.SessionInitializer, verify reactor.SessionVerifier) error {
	Logger.Debugf("%s: start TLS", c.GetID())
	tsl, ok := c.session.(reactor.ITransportSecurity)
	if !ok {
		return reactor.ErrTLSUnsupported
	}
	if err := tsl.StartTLS(cfg, policy, init, verify); err != nil {
		return err
	}
	tlsUpgrades.Inc()
	return nil
}

func (c *managedConn) GetTLSDetails() *reactor.TLSDetails {
	if tsl, ok := c.session.(reactor.ITransportSecurity); ok {
		return tsl.GetTLSDetails()
	}
	return nil
}

func (c *managedConn) GetTLSSession() *tls.ConnectionState {
	if details := c.GetTLSDetails(); details != nil {
		return &details.State
	}
	return nil
}

func (c *managedConn) SubmitCommand(cmd reactor.ICommand) {
	Logger.Debugf("%s: command %v", c.GetID(), cmd)
	c.session.AddLast(cmd)
	commandsSubmitted.Inc()
}

func (c *managedConn) SubmitPriorityCommand(cmd reactor.ICommand) {
	Logger.Debugf("%s: priority command %v", c.GetID(), cmd)
	c.session.AddFirst(cmd)
	priorityCommandsSubmitted.Inc()
}

func (c *managedConn) Passivate() {
	c.session.SetSocketTimeout(0)
}

func (c *managedConn) Activate() {
	c.session.SetSocketTimeout(c.restingTimeout)
}
