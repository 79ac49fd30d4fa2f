package cmd

import (
	"fmt"
	"os"

	"github.com/aionet-io/aionet/cmd/probe"
	"github.com/aionet-io/aionet/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "aionet",
		Short: "event-driven connection management toolkit",
		Long: fmt.Sprintf(`aionet (v%s)

An event-driven connection management library for Go, providing
pooled, TLS-upgradable connections with a uniform lifecycle and
command-dispatch contract.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of aionet",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("aionet v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(probe.ProbeCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
