package conn

import (
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aionet-io/aionet/reactor"
)

// --------------------------------------------------------------------------
// Fake Session
// --------------------------------------------------------------------------

// fakeSession is a scripted ISession recording every interaction so tests
// can assert on ordering and side effects
type fakeSession struct {
	id      uint64
	closed  atomic.Bool
	timeout atomic.Int64
	handler reactor.IEventHandler

	mu    sync.Mutex
	queue []reactor.ICommand

	// teardowns counts every teardown-initiating side effect: direct
	// shutdowns plus front-inserted shutdown commands
	teardowns atomic.Int32
	lastMode  atomic.Int32
}

func newFakeSession(timeout time.Duration) *fakeSession {
	s := &fakeSession{id: 42}
	s.timeout.Store(int64(timeout))
	return s
}

func (s *fakeSession) ID() uint64 { return s.id }
func (s *fakeSession) IsClosed() bool { return s.closed.Load() }

func (s *fakeSession) Shutdown(mode reactor.CloseMode) {
	s.teardowns.Add(1)
	s.lastMode.Store(int32(mode))
	s.closed.Store(true)
}

func (s *fakeSession) GetSocketTimeout() time.Duration {
	return time.Duration(s.timeout.Load())
}

func (s *fakeSession) SetSocketTimeout(timeout time.Duration) {
	s.timeout.Store(int64(timeout))
}

func (s *fakeSession) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 9000}
}

func (s *fakeSession) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 54321}
}

func (s *fakeSession) GetHandler() reactor.IEventHandler { return s.handler }
func (s *fakeSession) SetHandler(handler reactor.IEventHandler) { s.handler = handler }

func (s *fakeSession) AddFirst(cmd reactor.ICommand) {
	if _, ok := cmd.(*reactor.ShutdownCommand); ok {
		s.teardowns.Add(1)
	}
	s.mu.Lock()
	s.queue = append([]reactor.ICommand{cmd}, s.queue...)
	s.mu.Unlock()
}

func (s *fakeSession) AddLast(cmd reactor.ICommand) {
	s.mu.Lock()
	s.queue = append(s.queue, cmd)
	s.mu.Unlock()
}

// queued returns a snapshot of the command queue in dequeue order
func (s *fakeSession) queued() []reactor.ICommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reactor.ICommand(nil), s.queue...)
}

// fakeTLSSession additionally exposes the transport security capability
type fakeTLSSession struct {
	fakeSession

	startTLSCalls atomic.Int32
	gotCfg        *tls.Config
	gotPolicy     reactor.BufferPolicy
	gotInit       bool
	gotVerify     bool
	details       *reactor.TLSDetails
}

func (s *fakeTLSSession) StartTLS(cfg *tls.Config, policy reactor.BufferPolicy, init reactor.SessionInitializer, verify reactor.SessionVerifier) error {
	s.startTLSCalls.Add(1)
	s.gotCfg = cfg
	s.gotPolicy = policy
	s.gotInit = init != nil
	s.gotVerify = verify != nil
	s.details = &reactor.TLSDetails{
		State:               tls.ConnectionState{HandshakeComplete: true},
		ApplicationProtocol: "h2",
	}
	return nil
}

func (s *fakeTLSSession) GetTLSDetails() *reactor.TLSDetails {
	return s.details
}

// protocolHandler implements both IEventHandler and the IProtocolInfo
// capability view
type protocolHandler struct {
	details *reactor.EndpointDetails
	version reactor.ProtocolVersion
}

func (h *protocolHandler) Connected(reactor.ISession) {}
func (h *protocolHandler) DataReceived(reactor.ISession, []byte) {}
func (h *protocolHandler) Disconnected(reactor.ISession, error) {}

func (h *protocolHandler) GetEndpointDetails() *reactor.EndpointDetails { return h.details }
func (h *protocolHandler) GetProtocolVersion() reactor.ProtocolVersion { return h.version }

// plainHandler implements only IEventHandler
type plainHandler struct{}

func (h *plainHandler) Connected(reactor.ISession) {}
func (h *plainHandler) DataReceived(reactor.ISession, []byte) {}
func (h *plainHandler) Disconnected(reactor.ISession, error) {}

// testCommand is an opaque no-op command with a label for ordering checks
type testCommand struct {
	label string
}

func (c *testCommand) Execute(reactor.ISession) error { return nil }

// --------------------------------------------------------------------------
// Lifecycle Guard
// --------------------------------------------------------------------------

// TestConcurrentTeardown verifies that for any mix of concurrent Close and
// Shutdown calls exactly one call performs the underlying teardown action
func TestConcurrentTeardown(t *testing.T) {
	const goroutines = 64

	session := newFakeSession(5 * time.Second)
	c := NewManagedConn(session)

	var start sync.WaitGroup
	var done sync.WaitGroup
	start.Add(1)

	for i := 0; i < goroutines; i++ {
		done.Add(1)
		go func(n int) {
			defer done.Done()
			start.Wait()
			if n%2 == 0 {
				c.Shutdown(reactor.CloseImmediate)
			} else {
				if err := c.Close(); err != nil {
					t.Errorf("Close returned error: %v", err)
				}
			}
		}(i)
	}

	start.Done()
	done.Wait()

	if got := session.teardowns.Load(); got != 1 {
		t.Errorf("Expected exactly 1 teardown action, got %d", got)
	}
}

// TestShutdownIdempotent verifies that repeated shutdown calls are no-ops
func TestShutdownIdempotent(t *testing.T) {
	session := newFakeSession(time.Second)
	c := NewManagedConn(session)

	c.Shutdown(reactor.CloseImmediate)
	c.Shutdown(reactor.CloseGraceful)
	if err := c.Close(); err != nil {
		t.Fatalf("Close after Shutdown returned error: %v", err)
	}

	if got := session.teardowns.Load(); got != 1 {
		t.Errorf("Expected 1 teardown action, got %d", got)
	}
	if got := reactor.CloseMode(session.lastMode.Load()); got != reactor.CloseImmediate {
		t.Errorf("Expected immediate close mode, got %s", got)
	}
}

// TestCloseEnqueuesGracefulShutdown verifies the cooperative close path:
// no direct teardown, a graceful shutdown command at the queue front
func TestCloseEnqueuesGracefulShutdown(t *testing.T) {
	session := newFakeSession(time.Second)
	c := NewManagedConn(session)

	c.SubmitCommand(&testCommand{label: "pending"})

	if err := c.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	queue := session.queued()
	if len(queue) != 2 {
		t.Fatalf("Expected 2 queued commands, got %d", len(queue))
	}
	if _, ok := queue[0].(*reactor.ShutdownCommand); !ok {
		t.Errorf("Expected shutdown command at queue front, got %T", queue[0])
	}
}

// TestIsOpenDelegates verifies that IsOpen reflects the session status
// rather than the adapter's closed flag
func TestIsOpenDelegates(t *testing.T) {
	session := newFakeSession(time.Second)
	c := NewManagedConn(session)

	if !c.IsOpen() {
		t.Error("Expected adapter to be open")
	}

	// Close only enqueues a command; the session is still open until the
	// command loop executes it
	if err := c.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !c.IsOpen() {
		t.Error("Expected adapter to stay open until the session executes the shutdown command")
	}

	session.closed.Store(true)
	if c.IsOpen() {
		t.Error("Expected adapter to report closed after session teardown")
	}
}

// --------------------------------------------------------------------------
// Command Dispatcher
// --------------------------------------------------------------------------

// TestCommandOrdering verifies FIFO order for normal commands, LIFO order
// among priority commands and priority-before-normal overall
func TestCommandOrdering(t *testing.T) {
	tests := map[string]struct {
		submit func(c IManagedConn)
		want   []string
	}{
		"normal commands keep FIFO order": {
			submit: func(c IManagedConn) {
				c.SubmitCommand(&testCommand{label: "c1"})
				c.SubmitCommand(&testCommand{label: "c2"})
			},
			want: []string{"c1", "c2"},
		},
		"priority commands are LIFO among each other": {
			submit: func(c IManagedConn) {
				c.SubmitPriorityCommand(&testCommand{label: "p1"})
				c.SubmitPriorityCommand(&testCommand{label: "p2"})
			},
			want: []string{"p2", "p1"},
		},
		"priority command overtakes pending normal commands": {
			submit: func(c IManagedConn) {
				c.SubmitCommand(&testCommand{label: "c1"})
				c.SubmitCommand(&testCommand{label: "c2"})
				c.SubmitPriorityCommand(&testCommand{label: "p1"})
			},
			want: []string{"p1", "c1", "c2"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			session := newFakeSession(time.Second)
			c := NewManagedConn(session)

			tc.submit(c)

			queue := session.queued()
			if len(queue) != len(tc.want) {
				t.Fatalf("Expected %d queued commands, got %d", len(tc.want), len(queue))
			}
			for i, want := range tc.want {
				got := queue[i].(*testCommand).label
				if got != want {
					t.Errorf("Position %d: expected %q, got %q", i, want, got)
				}
			}
		})
	}
}

// --------------------------------------------------------------------------
// Transport Introspection
// --------------------------------------------------------------------------

// TestProtocolIntrospection verifies that without the protocol capability
// the endpoint details are absent while the protocol version falls back to
// the library default, never to an absent value
func TestProtocolIntrospection(t *testing.T) {
	t.Run("handler without protocol capability", func(t *testing.T) {
		session := newFakeSession(time.Second)
		session.SetHandler(&plainHandler{})
		c := NewManagedConn(session)

		if details := c.GetEndpointDetails(); details != nil {
			t.Errorf("Expected absent endpoint details, got %+v", details)
		}
		if got := c.GetProtocolVersion(); got != reactor.DefaultProtocolVersion {
			t.Errorf("Expected default protocol version %s, got %s", reactor.DefaultProtocolVersion, got)
		}
	})

	t.Run("nil handler", func(t *testing.T) {
		session := newFakeSession(time.Second)
		c := NewManagedConn(session)

		if details := c.GetEndpointDetails(); details != nil {
			t.Errorf("Expected absent endpoint details, got %+v", details)
		}
		if got := c.GetProtocolVersion(); got != reactor.DefaultProtocolVersion {
			t.Errorf("Expected default protocol version %s, got %s", reactor.DefaultProtocolVersion, got)
		}
	})

	t.Run("handler with protocol capability", func(t *testing.T) {
		session := newFakeSession(time.Second)
		want := &reactor.EndpointDetails{
			RemoteAddr:   session.RemoteAddr(),
			RequestCount: 7,
		}
		session.SetHandler(&protocolHandler{
			details: want,
			version: reactor.ProtocolVersion{Protocol: "aionet", Major: 2, Minor: 0},
		})
		c := NewManagedConn(session)

		if got := c.GetEndpointDetails(); got != want {
			t.Errorf("Expected endpoint details %+v, got %+v", want, got)
		}
		if got := c.GetProtocolVersion(); got.Major != 2 {
			t.Errorf("Expected protocol version 2.0, got %s", got)
		}
	})
}

// TestAddressDelegation verifies the pure address delegations
func TestAddressDelegation(t *testing.T) {
	session := newFakeSession(time.Second)
	c := NewManagedConn(session)

	if got := c.RemoteAddr().String(); got != session.RemoteAddr().String() {
		t.Errorf("Expected remote address %s, got %s", session.RemoteAddr(), got)
	}
	if got := c.LocalAddr().String(); got != session.LocalAddr().String() {
		t.Errorf("Expected local address %s, got %s", session.LocalAddr(), got)
	}
}

// --------------------------------------------------------------------------
// Transport Upgrade
// --------------------------------------------------------------------------

// TestStartTLSUnsupported verifies the capability-gated failure: no partial
// mutation, details stay absent
func TestStartTLSUnsupported(t *testing.T) {
	session := newFakeSession(time.Second)
	c := NewManagedConn(session)

	err := c.StartTLS(&tls.Config{}, reactor.BufferStatic, nil, nil)
	if err != reactor.ErrTLSUnsupported {
		t.Fatalf("Expected ErrTLSUnsupported, got %v", err)
	}

	if details := c.GetTLSDetails(); details != nil {
		t.Errorf("Expected absent TLS details after failed upgrade, got %+v", details)
	}
	if state := c.GetTLSSession(); state != nil {
		t.Errorf("Expected absent TLS session after failed upgrade, got %+v", state)
	}
	if session.IsClosed() {
		t.Error("Unsupported upgrade must not mutate the session")
	}
}

// TestStartTLSDelegates verifies that a capable session receives all four
// parameters unchanged
func TestStartTLSDelegates(t *testing.T) {
	session := &fakeTLSSession{}
	session.timeout.Store(int64(time.Second))
	c := NewManagedConn(session)

	cfg := &tls.Config{ServerName: "example.org"}
	init := func(cfg *tls.Config) {}
	verify := func(state tls.ConnectionState) error { return nil }

	if err := c.StartTLS(cfg, reactor.BufferDynamic, init, verify); err != nil {
		t.Fatalf("StartTLS returned error: %v", err)
	}

	if got := session.startTLSCalls.Load(); got != 1 {
		t.Fatalf("Expected 1 StartTLS delegation, got %d", got)
	}
	if session.gotCfg != cfg {
		t.Error("Expected TLS config to be forwarded unchanged")
	}
	if session.gotPolicy != reactor.BufferDynamic {
		t.Errorf("Expected buffer policy to be forwarded, got %d", session.gotPolicy)
	}
	if !session.gotInit || !session.gotVerify {
		t.Error("Expected initializer and verifier to be forwarded")
	}
}

// TestGetTLSSessionDerived verifies that GetTLSSession is derived entirely
// from the TLS details
func TestGetTLSSessionDerived(t *testing.T) {
	session := &fakeTLSSession{}
	session.timeout.Store(int64(time.Second))
	c := NewManagedConn(session)

	// capability present, but transport not (yet) secure
	if state := c.GetTLSSession(); state != nil {
		t.Errorf("Expected absent TLS session before upgrade, got %+v", state)
	}

	if err := c.StartTLS(&tls.Config{}, reactor.BufferStatic, nil, nil); err != nil {
		t.Fatalf("StartTLS returned error: %v", err)
	}

	state := c.GetTLSSession()
	if state == nil {
		t.Fatal("Expected TLS session after upgrade")
	}
	if !state.HandshakeComplete {
		t.Error("Expected completed handshake in TLS session state")
	}
}

// --------------------------------------------------------------------------
// Pool Lifecycle Hooks
// --------------------------------------------------------------------------

// TestActivateRestoresRestingTimeout verifies that Activate always restores
// the timeout captured at construction, not a value set in between
func TestActivateRestoresRestingTimeout(t *testing.T) {
	session := newFakeSession(5 * time.Second)
	c := NewManagedConn(session)

	c.Passivate()
	if got := session.GetSocketTimeout(); got != 0 {
		t.Fatalf("Expected timeout 0 after Passivate, got %s", got)
	}

	// an explicit timeout change while passivated must not change the
	// resting value restored by Activate
	c.SetSocketTimeout(7 * time.Second)

	c.Activate()
	if got := session.GetSocketTimeout(); got != 5*time.Second {
		t.Errorf("Expected construction-time timeout 5s after Activate, got %s", got)
	}

	// repeated activation is harmless
	c.Activate()
	if got := session.GetSocketTimeout(); got != 5*time.Second {
		t.Errorf("Expected timeout 5s after repeated Activate, got %s", got)
	}
}

// TestLifecycleHooksAfterClose verifies that the hooks stay callable on a
// retired adapter
func TestLifecycleHooksAfterClose(t *testing.T) {
	session := newFakeSession(time.Second)
	c := NewManagedConn(session)

	c.Shutdown(reactor.CloseImmediate)

	// must not panic
	c.Passivate()
	c.Activate()
}

// TestEndToEndTimeoutToggle runs the passivate/activate cycle against a real
// session over an in-memory pipe
func TestEndToEndTimeoutToggle(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	session := reactor.NewSession(client, 5000*time.Millisecond, nil)
	defer session.Shutdown(reactor.CloseImmediate)

	c := NewManagedConn(session)

	if got := c.GetSocketTimeout(); got != 5000*time.Millisecond {
		t.Fatalf("Expected initial timeout 5000ms, got %s", got)
	}

	c.Passivate()
	if got := session.GetSocketTimeout(); got != 0 {
		t.Fatalf("Expected live timeout 0 after Passivate, got %s", got)
	}

	c.Activate()
	if got := session.GetSocketTimeout(); got != 5000*time.Millisecond {
		t.Fatalf("Expected live timeout 5000ms after Activate, got %s", got)
	}
}
