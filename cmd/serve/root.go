package serve

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cmdUtil "github.com/vkolb/echod/cmd/util"
	"github.com/vkolb/echod/echo/common"
	"github.com/vkolb/echod/echo/server"
	"github.com/vkolb/echod/echo/transport"
	"github.com/vkolb/echod/echo/transport/tcp"
	"github.com/vkolb/echod/echo/transport/unix"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the echod server",
		Long:    `Start the echod server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is ECHOD_<flag> (e.g. ECHOD_ENDPOINT=0.0.0.0:7777)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:7777", cmdUtil.WrapString("The address on which the server will listen (host:port for tcp, a file path for unix sockets)"))

	key = "workers"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Number of blocking workers for connection handling. Each in-flight connection occupies one worker for its full duration; further connections queue. 0 means one worker per CPU"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Per-operation I/O timeout in seconds. 0 disables deadlines, letting slow peers occupy a worker indefinitely"))

	key = "tcp-no-delay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to disable Nagle's algorithm (only for tcp)"))

	key = "read-buffer-size"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Socket read buffer size in bytes, 0 keeps the OS default (only for tcp)"))

	key = "write-buffer-size"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Socket write buffer size in bytes, 0 keeps the OS default (only for tcp)"))

	key = "tcp-keep-alive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("TCP keep-alive period in seconds, 0 disables keep-alive (only for tcp)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, -1, cmdUtil.WrapString("TCP linger time in seconds, negative keeps the OS default (only for tcp)"))

	key = "debug-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional address serving Prometheus metrics and pprof (e.g. localhost:6060), empty disables it"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.Workers = viper.GetInt("workers")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.TCPNoDelay = viper.GetBool("tcp-no-delay")
	serveCmdConfig.ReadBufferSize = viper.GetInt("read-buffer-size")
	serveCmdConfig.WriteBufferSize = viper.GetInt("write-buffer-size")
	serveCmdConfig.TCPKeepAliveSec = viper.GetInt("tcp-keep-alive")
	serveCmdConfig.TCPLingerSec = viper.GetInt("tcp-linger")
	serveCmdConfig.DebugEndpoint = viper.GetString("debug-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if serveCmdConfig.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}

	return nil
}

// run starts the echod server
func run(_ *cobra.Command, _ []string) error {

	// Parse the transport
	var t transport.IEchoServerTransport
	switch viper.GetString("transport") {
	case "tcp":
		t = tcp.NewTCPServerTransport()
	case "unix":
		t = unix.NewUnixServerTransport()
	default:
		return fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}

	serv := server.NewEchoServer(*serveCmdConfig, t)

	return serv.Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("echod")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
