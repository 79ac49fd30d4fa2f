package reactor

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("reactor")

// readBufSize is the size of the per-session inbound read buffer
const readBufSize = 4096

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

const (
	statusOpen int32 = iota
	statusClosed
)

// sessionSeq provides process-wide unique session IDs
var sessionSeq atomic.Uint64

// connRef wraps the connection so atomic.Value always stores one concrete
// type even when the connection is swapped for a *tls.Conn
type connRef struct {
	c net.Conn
}

// handlerRef wraps the event handler for the same reason
type handlerRef struct {
	h IEventHandler
}

// --------------------------------------------------------------------------
// Session Implementation
// --------------------------------------------------------------------------

// session is the concrete net.Conn-backed ISession. Commands are executed
// sequentially by a dedicated command loop goroutine, inbound bytes are
// delivered to the handler by a dedicated read loop goroutine; all other
// state is accessed through atomics so the session never blocks its callers.
type session struct {
	id      uint64
	conn    atomic.Value // connRef, swapped on TLS upgrade
	handler atomic.Value // handlerRef
	deque   *commandDeque
	timeout atomic.Int64 // nanoseconds, 0 = disabled
	status  atomic.Int32

	// read loop coordination: a transport upgrade parks the read loop so
	// the handshake owns the connection exclusively
	readMu     sync.Mutex
	readCond   *sync.Cond
	readPaused bool
	readParked bool

	// self is the ISession handed to commands and handler callbacks; set by
	// the factory so an embedding session type (e.g. the TLS-capable one) is
	// visible to them
	self     ISession
	discOnce sync.Once
}

// newSession creates the session state without starting the loops
func newSession(conn net.Conn, timeout time.Duration, handler IEventHandler) *session {
	s := &session{
		id:    sessionSeq.Add(1),
		deque: newCommandDeque(),
	}
	s.readCond = sync.NewCond(&s.readMu)
	s.conn.Store(connRef{c: conn})
	s.handler.Store(handlerRef{h: handler})
	s.timeout.Store(int64(timeout))
	return s
}

// start launches the command and read loops and signals the handler
func (s *session) start() {
	go s.commandLoop()
	go s.readLoop()
	if h := s.GetHandler(); h != nil {
		h.Connected(s.self)
	}
}

// NewSession creates a session over the given connection and starts its
// command and read loops. The returned session does not support TLS upgrades.
func NewSession(conn net.Conn, timeout time.Duration, handler IEventHandler) ISession {
	s := newSession(conn, timeout, handler)
	s.self = s
	s.start()
	Logger.Debugf("session %d: created (%s -> %s)", s.id, conn.LocalAddr(), conn.RemoteAddr())
	return s
}

// --------------------------------------------------------------------------
// Interface Methods (docu see reactor.ISession)
// --------------------------------------------------------------------------

func (s *session) ID() uint64 {
	return s.id
}

func (s *session) IsClosed() bool {
	return s.status.Load() == statusClosed
}

func (s *session) Shutdown(mode CloseMode) {
	// the losing caller of the CAS observes the shutdown as a no-op
	if !s.status.CompareAndSwap(statusOpen, statusClosed) {
		return
	}

	Logger.Debugf("session %d: shutdown (%s)", s.id, mode)

	if mode == CloseImmediate {
		// drop all pending commands and close the socket right away
		s.deque.Discard()
		_ = s.currentConn().Close()
	} else {
		// let the command loop drain pending commands, it closes the
		// socket once the deque is exhausted
		s.deque.Close(true)
	}
}

func (s *session) GetSocketTimeout() time.Duration {
	return time.Duration(s.timeout.Load())
}

func (s *session) SetSocketTimeout(timeout time.Duration) {
	s.timeout.Store(int64(timeout))

	// apply immediately so an in-progress read observes the change. While
	// the read loop is parked for a transport upgrade the handshake owns
	// the deadline; the read loop re-arms it when it resumes.
	s.readMu.Lock()
	if !s.readPaused {
		conn := s.currentConn()
		if timeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(timeout))
		} else {
			_ = conn.SetReadDeadline(time.Time{})
		}
	}
	s.readMu.Unlock()
}

func (s *session) RemoteAddr() net.Addr {
	return s.currentConn().RemoteAddr()
}

func (s *session) LocalAddr() net.Addr {
	return s.currentConn().LocalAddr()
}

func (s *session) GetHandler() IEventHandler {
	return s.handler.Load().(handlerRef).h
}

func (s *session) SetHandler(handler IEventHandler) {
	s.handler.Store(handlerRef{h: handler})
}

func (s *session) AddFirst(cmd ICommand) {
	if !s.deque.PushFront(cmd) {
		Logger.Debugf("session %d: dropped priority command, session closed", s.id)
	}
}

func (s *session) AddLast(cmd ICommand) {
	if !s.deque.PushBack(cmd) {
		Logger.Debugf("session %d: dropped command, session closed", s.id)
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// currentConn returns the connection currently backing the session
func (s *session) currentConn() net.Conn {
	return s.conn.Load().(connRef).c
}

// commandLoop executes commands sequentially until the deque is closed,
// then performs the final socket teardown
func (s *session) commandLoop() {
	for {
		cmd, ok := s.deque.Poll()
		if !ok {
			break
		}
		if err := cmd.Execute(s.self); err != nil {
			Logger.Errorf("session %d: command failed: %v", s.id, err)
			s.Shutdown(CloseImmediate)
			// abort a graceful drain that was already in progress
			s.deque.Discard()
		}
	}

	// idempotent, the socket may already be closed by an immediate shutdown
	_ = s.currentConn().Close()
	s.fireDisconnected(nil)
}

// readLoop delivers inbound bytes to the handler until the connection fails,
// times out from inactivity or the session is torn down
func (s *session) readLoop() {
	// never strand an upgrade waiting for the loop to park
	defer func() {
		s.readMu.Lock()
		s.readParked = true
		s.readCond.Broadcast()
		s.readMu.Unlock()
	}()

	buf := make([]byte, readBufSize)
	for {
		s.awaitReadable()

		n, err := s.currentConn().Read(buf)
		if n > 0 {
			if h := s.GetHandler(); h != nil {
				h.DataReceived(s.self, buf[:n])
			}
		}
		if err == nil {
			continue
		}

		// a parked-for-upgrade loop is kicked out of Read via the deadline
		if ne, ok := err.(net.Error); ok && ne.Timeout() && s.readsPaused() {
			continue
		}

		if s.IsClosed() {
			// teardown already in progress, the command loop notifies
			return
		}

		Logger.Debugf("session %d: read failed: %v", s.id, err)
		s.Shutdown(CloseImmediate)
		s.fireDisconnected(err)
		return
	}
}

// awaitReadable parks while reads are suspended for a transport upgrade and
// arms the read deadline from the current socket timeout before returning
func (s *session) awaitReadable() {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	for s.readPaused {
		s.readParked = true
		s.readCond.Broadcast()
		s.readCond.Wait()
	}
	s.readParked = false

	conn := s.currentConn()
	if t := s.GetSocketTimeout(); t > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(t))
	} else {
		_ = conn.SetReadDeadline(time.Time{})
	}
}

// pauseReads suspends the read loop and blocks until it is parked, so the
// caller has exclusive use of the connection
func (s *session) pauseReads() {
	s.readMu.Lock()
	s.readPaused = true
	// kick an in-flight Read out of the connection
	_ = s.currentConn().SetReadDeadline(time.Now())
	for !s.readParked {
		s.readCond.Wait()
	}
	s.readMu.Unlock()
}

// resumeReads lets a paused read loop continue on the current connection
func (s *session) resumeReads() {
	s.readMu.Lock()
	s.readPaused = false
	s.readCond.Broadcast()
	s.readMu.Unlock()
}

// readsPaused reports whether the read loop is suspended
func (s *session) readsPaused() bool {
	s.readMu.Lock()
	defer s.readMu.Unlock()
	return s.readPaused
}

// fireDisconnected notifies the handler exactly once
func (s *session) fireDisconnected(err error) {
	s.discOnce.Do(func() {
		if h := s.GetHandler(); h != nil {
			h.Disconnected(s.self, err)
		}
	})
}
