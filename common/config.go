package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Client configuration structs
// --------------------------------------------------------------------------

// SocketConf holds generic socket tuning parameters shared by all
// stream-based transports
type SocketConf struct {
	// WriteBufferSize is the socket write buffer size in bytes (0 = OS default)
	WriteBufferSize int
	// ReadBufferSize is the socket read buffer size in bytes (0 = OS default)
	ReadBufferSize int
}

// TCPConf holds TCP-specific tuning parameters (ignored by other transports)
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// TLSConf holds the parameters used when a connection is upgraded to TLS
type TLSConf struct {
	// ServerName is the expected server name for certificate verification
	ServerName string
	// InsecureSkipVerify disables certificate verification (testing only)
	InsecureSkipVerify bool
	// NextProtos lists the application protocols offered via ALPN
	NextProtos []string
}

// ClientTransportConfig holds all transport-level connection parameters
type ClientTransportConfig struct {
	// Endpoints lists the addresses to connect to
	Endpoints []string
	// ConnectionsPerEndpoint is the number of parallel connections per endpoint
	ConnectionsPerEndpoint int
	// RetryCount is the number of dial attempts per connection
	RetryCount int

	SocketConf SocketConf
	TCPConf    TCPConf
	TLSConf    TLSConf
}

// ClientConfig holds all configuration parameters for the connection layer
type ClientConfig struct {
	// TimeoutSecond is the socket timeout applied to active connections
	TimeoutSecond int

	// Transport holds the transport-level parameters
	Transport ClientTransportConfig

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General client settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))

	// Socket settings
	addSection("Socket")
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.SocketConf.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.SocketConf.ReadBufferSize))
	addField("TCP NoDelay", fmt.Sprintf("%t", c.Transport.TCPConf.TCPNoDelay))
	addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.Transport.TCPConf.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPConf.TCPLingerSec))

	// TLS settings
	if c.Transport.TLSConf.ServerName != "" || c.Transport.TLSConf.InsecureSkipVerify {
		addSection("TLS")
		addField("Server Name", c.Transport.TLSConf.ServerName)
		addField("Skip Verify", fmt.Sprintf("%t", c.Transport.TLSConf.InsecureSkipVerify))
		addField("ALPN Protocols", strings.Join(c.Transport.TLSConf.NextProtos, ","))
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
