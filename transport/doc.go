// Package transport provides pluggable dialers used by the connection pool
// to establish and tune raw stream connections, independent of the specific
// network protocol (TCP, Unix sockets).
//
// Key Components:
//
//   - IDialer: Interface for transport-specific dialing and socket tuning
//     that allows extending the pool with different network protocols.
//
//   - tcp: TCP-specific dialer applying NoDelay, buffer, keep-alive and
//     linger settings from the client configuration. TCP sessions may be
//     upgraded to TLS.
//
//   - unix: Unix-socket dialer applying the socket buffer settings. Unix
//     sessions are never TLS-capable.
package transport
