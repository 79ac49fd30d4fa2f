// Package conn provides the managed connection adapter: a thin façade
// between a connection-pool consumer and a reactor session, exposing a
// uniform lifecycle and command-dispatch contract regardless of whether the
// underlying transport is plain or TLS-upgraded.
//
// The package focuses on:
//   - Idempotent, lock-free teardown safe under concurrent close/shutdown
//   - Ordered command submission into the session's command queue
//   - Capability-gated transport introspection and TLS upgrade
//   - Pool lifecycle hooks (Activate/Passivate) toggling the socket timeout
//
// Key Components:
//
//   - IManagedConn: The contract exposed upward to pool and application
//     code. Obtain an instance with NewManagedConn.
//
//   - managedConn: The default implementation. The only contended state is
//     the closed flag, protected purely by an atomic compare-and-set; every
//     other operation delegates directly to the session and inherits the
//     session's concurrency guarantees.
//
// Lifecycle:
//
//	An adapter is constructed once per session, may span multiple pool
//	checkouts via Activate/Passivate, and is permanently retired by the
//	first successful Close or Shutdown call. Close is cooperative: it
//	enqueues a graceful shutdown command at the front of the session's
//	command queue. Shutdown is immediate and unconditional.
package conn
