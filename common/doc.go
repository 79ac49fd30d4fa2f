// Package common provides core data structures and utilities shared across
// the connection management library. It defines configuration structures
// and the logging integration used by the other packages.
//
// The package focuses on:
//   - Configuration structures for the client connection layer
//   - Custom logging implementation integrated with the dragonboat logger
//
// Key Components:
//
//   - ClientConfig: Configuration for the connection layer, controlling
//     endpoints, timeouts, retry behavior and socket tuning. Contains nested
//     SocketConf, TCPConf and TLSConf structures consumed by the transport
//     dialers and the TLS upgrade path.
//
//   - Logger: Custom logging implementation that integrates with the
//     dragonboat logging system while providing consistent formatting
//     across the application.
package common
