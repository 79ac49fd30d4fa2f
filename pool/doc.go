// Package pool provides a connection pool built on top of the managed
// connection adapter. It dials the configured endpoints through a pluggable
// transport dialer, wraps every session in an adapter and hands adapters out
// via a lease/release cycle.
//
// The package focuses on:
//   - Round-robin leasing across endpoints and connections
//   - Activate/Passivate timeout toggling on checkout and return
//   - Eviction of connections that died while leased
//
// Leased connections run with the configured socket timeout; while a
// connection sits idle in the pool its timeout is disabled so it is never
// torn down by inactivity.
package pool
