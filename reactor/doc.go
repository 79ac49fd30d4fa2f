// Package reactor provides the session layer of the connection management
// library: the connection handle all higher layers operate on, together with
// its command queue and capability views.
//
// The package focuses on:
//   - A uniform session abstraction (ISession) over stream connections
//   - Asynchronous command execution with priority and normal ordering
//   - Optional capability views for protocol introspection and TLS upgrade
//
// Key Components:
//
//   - ISession: The connection handle. Commands submitted via AddFirst/AddLast
//     are executed sequentially by a per-session command loop goroutine.
//     Front-inserted commands run before all pending normal commands.
//
//   - ICommand: Opaque unit of work. ShutdownCommand implements cooperative
//     teardown when inserted at the front of the queue.
//
//   - IProtocolInfo: Capability view of an event handler that is also a full
//     protocol connection, yielding endpoint details and the negotiated
//     protocol version. Handlers without the capability fall back to
//     DefaultProtocolVersion.
//
//   - ITransportSecurity: Capability view of a session supporting a one-shot
//     TLS upgrade. Sessions created via NewTLSCapableSession expose it,
//     sessions created via NewSession do not.
//
// Thread Safety:
//
//	All session methods are safe for concurrent use from application threads
//	and from the command loop. Mutable state is held in atomics; the session
//	never blocks its callers.
package reactor
