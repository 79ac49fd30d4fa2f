package pool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/aionet-io/aionet/common"
	"github.com/aionet-io/aionet/conn"
	"github.com/aionet-io/aionet/reactor"
	"github.com/aionet-io/aionet/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("pool")

var (
	poolLeases   = metrics.GetOrCreateCounter(`aionet_pool_leases_total`)
	poolReleases = metrics.GetOrCreateCounter(`aionet_pool_releases_total`)
	poolEvicted  = metrics.GetOrCreateCounter(`aionet_pool_evicted_total`)
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IConnPool is the interface for the connection pool
type IConnPool interface {
	// Connect establishes the configured connections and fills the pool
	Connect(config common.ClientConfig) error
	// Lease checks a connection out of the pool and activates it
	Lease() (conn.IManagedConn, error)
	// Release returns a leased connection to the pool and passivates it
	Release(c conn.IManagedConn)
	// Close gracefully closes all pooled connections
	Close() error
}

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// pooledConn represents a single pooled connection
type pooledConn struct {
	adapter  conn.IManagedConn
	endpoint string
	leased   atomic.Bool
}

// connPool implements the core pooling functionality independent of the
// specific transport medium (unix, tcp, etc.)
type connPool struct {
	dialer        transport.IDialer
	config        common.ClientConfig
	conns         []*pooledConn
	connsMu       sync.RWMutex
	registry      *xsync.MapOf[string, *pooledConn] // adapter id -> entry
	nextConnIndex uint64                            // Atomic counter for Round Robin
	stopping      atomic.Bool
}

// --------------------------------------------------------------------------
// Pool Factory Method
// --------------------------------------------------------------------------

// NewConnPool creates a new connection pool using the specified dialer
func NewConnPool(dialer transport.IDialer) IConnPool {
	return &connPool{
		dialer:   dialer,
		registry: xsync.NewMapOf[string, *pooledConn](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see pool.IConnPool)
// --------------------------------------------------------------------------

func (p *connPool) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Store the config
	p.config = config
	p.stopping.Store(false)

	// Close all existing connections
	p.closeConnections()

	// Set default value for ConnectionsPerEndpoint
	connectionsPerEP := 1
	if config.Transport.ConnectionsPerEndpoint > 0 {
		connectionsPerEP = config.Transport.ConnectionsPerEndpoint
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second

	p.connsMu.Lock()
	p.conns = make([]*pooledConn, 0, len(config.Transport.Endpoints)*connectionsPerEP)
	p.connsMu.Unlock()

	for _, endpoint := range config.Transport.Endpoints {
		// Create multiple connections per endpoint
		for i := 0; i < connectionsPerEP; i++ {
			entry, err := p.establish(endpoint, timeout)
			if err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}

			p.connsMu.Lock()
			p.conns = append(p.conns, entry)
			p.connsMu.Unlock()
			p.registry.Store(entry.adapter.GetID(), entry)

			Logger.Infof("Connected to %s (connection %d/%d)", endpoint, i+1, connectionsPerEP)
		}
	}

	p.connsMu.RLock()
	connected := len(p.conns)
	p.connsMu.RUnlock()

	// Check if we have at least one connection
	if connected == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	Logger.Infof("Connected %d out of %d connections to %d endpoints using %s transport",
		connected, len(config.Transport.Endpoints)*connectionsPerEP, len(config.Transport.Endpoints), p.dialer.GetName())

	return nil
}

func (p *connPool) Lease() (conn.IManagedConn, error) {
	if p.stopping.Load() {
		return nil, fmt.Errorf("pool is closed")
	}

	p.connsMu.RLock()
	defer p.connsMu.RUnlock()

	if len(p.conns) == 0 {
		return nil, fmt.Errorf("no active connections available")
	}

	// Round Robin starting point, then scan for a free connection
	start := atomic.AddUint64(&p.nextConnIndex, 1)
	for i := 0; i < len(p.conns); i++ {
		entry := p.conns[(start+uint64(i))%uint64(len(p.conns))]

		if !entry.adapter.IsOpen() {
			continue
		}

		if entry.leased.CompareAndSwap(false, true) {
			entry.adapter.Activate()
			poolLeases.Inc()
			Logger.Debugf("%s: leased", entry.adapter.GetID())
			return entry.adapter, nil
		}
	}

	return nil, fmt.Errorf("all connections leased")
}

func (p *connPool) Release(c conn.IManagedConn) {
	entry, found := p.registry.Load(c.GetID())
	if !found {
		Logger.Warningf("%s: released connection unknown to this pool", c.GetID())
		return
	}

	// Evict connections that died while leased
	if !entry.adapter.IsOpen() {
		p.evict(entry)
		return
	}

	entry.adapter.Passivate()
	entry.leased.Store(false)
	poolReleases.Inc()
	Logger.Debugf("%s: released", entry.adapter.GetID())
}

func (p *connPool) Close() error {
	p.stopping.Store(true)
	p.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// establish dials, tunes and wraps a single connection
func (p *connPool) establish(endpoint string, timeout time.Duration) (*pooledConn, error) {
	var lastErr error

	retries := p.config.Transport.RetryCount
	if retries < 1 {
		retries = 1
	}

	for attempt := 0; attempt < retries; attempt++ {
		netConn, err := p.dialer.Dial(endpoint)
		if err != nil {
			lastErr = err
			continue
		}

		// Apply transport-specific settings
		if err := p.dialer.Tune(netConn, p.config); err != nil {
			_ = netConn.Close()
			lastErr = fmt.Errorf("failed to tune connection to %s: %v", endpoint, err)
			continue
		}

		// Sessions over TLS-capable transports may be upgraded later
		var session reactor.ISession
		if p.dialer.SupportsTLS() {
			session = reactor.NewTLSCapableSession(netConn, timeout, nil)
		} else {
			session = reactor.NewSession(netConn, timeout, nil)
		}

		adapter := conn.NewManagedConn(session)

		// Idle in the pool until the first lease
		adapter.Passivate()

		return &pooledConn{
			adapter:  adapter,
			endpoint: endpoint,
		}, nil
	}

	return nil, fmt.Errorf("failed to connect to %s after %d attempts: %v", endpoint, retries, lastErr)
}

// evict removes a dead connection from the pool
func (p *connPool) evict(entry *pooledConn) {
	p.registry.Delete(entry.adapter.GetID())

	p.connsMu.Lock()
	for i, e := range p.conns {
		if e == entry {
			p.conns = append(p.conns[:i], p.conns[i+1:]...)
			break
		}
	}
	p.connsMu.Unlock()

	poolEvicted.Inc()
	Logger.Infof("%s: evicted dead connection to %s", entry.adapter.GetID(), entry.endpoint)
}

// closeConnections gracefully closes all pooled connections
func (p *connPool) closeConnections() {
	p.connsMu.Lock()
	defer p.connsMu.Unlock()

	for _, entry := range p.conns {
		if err := entry.adapter.Close(); err != nil {
			Logger.Warningf("%s: close failed: %v", entry.adapter.GetID(), err)
		}
		p.registry.Delete(entry.adapter.GetID())
	}

	// Empty the list
	p.conns = nil
}
