package reactor

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// --------------------------------------------------------------------------
// TLS-capable Session
// --------------------------------------------------------------------------

// tlsSession extends the base session with the ITransportSecurity
// capability. The upgrade is one-shot: once the transport is secure it can
// never be downgraded.
type tlsSession struct {
	*session
	upgraded atomic.Bool
	details  atomic.Pointer[TLSDetails]
}

// compile-time capability check
var _ ITransportSecurity = (*tlsSession)(nil)

// NewTLSCapableSession creates a session that supports promotion to a secure
// transport via StartTLS. If the given connection is already a completed
// *tls.Conn the session is secure from construction and its details are
// available immediately.
func NewTLSCapableSession(conn net.Conn, timeout time.Duration, handler IEventHandler) ISession {
	s := newSession(conn, timeout, handler)
	ts := &tlsSession{session: s}
	s.self = ts

	// secure from construction
	if tc, ok := conn.(*tls.Conn); ok {
		if state := tc.ConnectionState(); state.HandshakeComplete {
			ts.upgraded.Store(true)
			ts.details.Store(&TLSDetails{
				State:               state,
				ApplicationProtocol: state.NegotiatedProtocol,
			})
		}
	}

	s.start()
	Logger.Debugf("session %d: created tls-capable (%s -> %s)", s.id, conn.LocalAddr(), conn.RemoteAddr())
	return ts
}

// --------------------------------------------------------------------------
// Interface Methods (docu see reactor.ITransportSecurity)
// --------------------------------------------------------------------------

func (ts *tlsSession) StartTLS(cfg *tls.Config, policy BufferPolicy, init SessionInitializer, verify SessionVerifier) error {
	if ts.IsClosed() {
		return fmt.Errorf("session %d is closed", ts.id)
	}

	// one-shot upgrade
	if !ts.upgraded.CompareAndSwap(false, true) {
		return fmt.Errorf("session %d: TLS already active", ts.id)
	}

	tlsCfg := &tls.Config{}
	if cfg != nil {
		tlsCfg = cfg.Clone()
	}
	if init != nil {
		init(tlsCfg)
	}

	Logger.Debugf("session %d: start TLS (buffer policy %d)", ts.id, policy)

	// the handshake needs exclusive use of the connection
	ts.pauseReads()
	defer ts.resumeReads()

	raw := ts.currentConn()

	// bound the handshake by the current socket timeout; this also clears
	// the deadline kick used to park the read loop
	if t := ts.GetSocketTimeout(); t > 0 {
		_ = raw.SetDeadline(time.Now().Add(t))
	} else {
		_ = raw.SetDeadline(time.Time{})
	}

	tc := tls.Client(raw, tlsCfg)

	if err := tc.Handshake(); err != nil {
		ts.Shutdown(CloseImmediate)
		return fmt.Errorf("TLS handshake failed: %v", err)
	}

	state := tc.ConnectionState()
	if verify != nil {
		if err := verify(state); err != nil {
			ts.Shutdown(CloseImmediate)
			return fmt.Errorf("TLS verification failed: %v", err)
		}
	}

	// from here on the tls.Conn owns all transport buffering; the read loop
	// re-arms its deadline from the socket timeout when it resumes
	_ = tc.SetDeadline(time.Time{})
	ts.conn.Store(connRef{c: tc})
	ts.details.Store(&TLSDetails{
		State:               state,
		ApplicationProtocol: state.NegotiatedProtocol,
	})

	Logger.Infof("session %d: TLS established (%s)", ts.id, state.NegotiatedProtocol)
	return nil
}

func (ts *tlsSession) GetTLSDetails() *TLSDetails {
	return ts.details.Load()
}
