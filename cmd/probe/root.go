package probe

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/aionet-io/aionet/cmd/util"
	"github.com/aionet-io/aionet/common"
	"github.com/aionet-io/aionet/conn"
	"github.com/aionet-io/aionet/pool"
	"github.com/aionet-io/aionet/reactor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (

	// ProbeCmd dials the configured endpoints and reports connection details
	ProbeCmd = &cobra.Command{
		Use:   "probe",
		Short: "Probe connectivity to the configured endpoints",
		Long: `Probe dials the configured endpoints through the connection pool,
optionally upgrades the connection to TLS and prints the connection
details (addresses, protocol version, TLS state).`,
		RunE: runProbe,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common connection flags
	util.SetupClientFlags(ProbeCmd)

	ProbeCmd.Flags().Bool("tls", false, util.WrapString("Upgrade the probed connection to TLS"))
}

func runProbe(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config := util.GetClientConfig()
	common.InitLoggers(*config)

	dialer, err := util.GetDialer()
	if err != nil {
		return err
	}

	p := pool.NewConnPool(dialer)
	if err := p.Connect(*config); err != nil {
		return err
	}
	defer p.Close()

	c, err := p.Lease()
	if err != nil {
		return err
	}
	defer p.Release(c)

	fmt.Printf("connection  : %s\n", c.GetID())
	fmt.Printf("route       : %s -> %s\n", c.LocalAddr(), c.RemoteAddr())
	fmt.Printf("protocol    : %s\n", c.GetProtocolVersion())

	if details := c.GetEndpointDetails(); details != nil {
		fmt.Printf("requests    : %d sent, %d received\n", details.RequestCount, details.ResponseCount)
	}

	if viper.GetBool("tls") {
		tlsConf := &tls.Config{
			ServerName:         config.Transport.TLSConf.ServerName,
			InsecureSkipVerify: config.Transport.TLSConf.InsecureSkipVerify,
			NextProtos:         config.Transport.TLSConf.NextProtos,
		}
		if err := c.StartTLS(tlsConf, reactor.BufferStatic, nil, nil); err != nil {
			return fmt.Errorf("TLS upgrade failed: %v", err)
		}

		if state := c.GetTLSSession(); state != nil {
			fmt.Printf("tls         : %s\n", tls.VersionName(state.Version))
			if state.NegotiatedProtocol != "" {
				fmt.Printf("alpn        : %s\n", state.NegotiatedProtocol)
			}
		}
	}

	// round-trip one no-op command through the session's command loop
	if err := roundTrip(c, 5*time.Second); err != nil {
		return err
	}

	fmt.Println("probe ok")
	return nil
}

// roundTrip pushes a no-op command through the connection's command loop. A
// connection that died after the lease drops the command silently, so the
// wait is bounded by the given timeout.
func roundTrip(c conn.IManagedConn, timeout time.Duration) error {
	done := make(chan struct{})
	c.SubmitCommand(reactor.FuncCommand(func(reactor.ISession) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%s: command round-trip timed out", c.GetID())
	}
}
