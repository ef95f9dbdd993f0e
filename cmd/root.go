package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vkolb/echod/cmd/echo"
	"github.com/vkolb/echod/cmd/perf"
	"github.com/vkolb/echod/cmd/serve"
	"github.com/vkolb/echod/cmd/util"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "echod",
		Short: "concurrent TCP echo server",
		Long: fmt.Sprintf(`echod (v%s)

A concurrent echo server written in Go. It accepts connections on a TCP
or Unix socket endpoint, reads each connection's full input until the
peer closes its write side, and writes the same bytes back. Connection
handling runs on a dedicated pool of blocking workers so the accept loop
stays responsive no matter how slow individual peers are.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of echod",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("echod v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(echo.EchoCmd)
	RootCmd.AddCommand(perf.PerfCmd)
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
