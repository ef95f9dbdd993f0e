package echo

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	cmdUtil "github.com/vkolb/echod/cmd/util"
)

var (
	EchoCmd = &cobra.Command{
		Use:   "echo [message]",
		Short: "Send a payload to the server and print the response",
		Long:  `Send a payload to a running echod server and print the echoed response. The payload is taken from the command line argument, or from stdin if no argument is given.`,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdUtil.BindCommandFlags(cmd)
		},
		RunE: run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitClientConfig)
	cmdUtil.SetupClientFlags(EchoCmd)
}

func run(_ *cobra.Command, args []string) error {
	// read the payload from the argument or stdin
	var payload []byte
	if len(args) == 1 {
		payload = []byte(args[0])
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read payload from stdin: %v", err)
		}
		payload = data
	}

	// create and connect the client transport
	t, err := cmdUtil.GetClientTransport()
	if err != nil {
		return err
	}
	if err := t.Connect(*cmdUtil.GetClientConfig()); err != nil {
		return err
	}
	defer t.Close()

	resp, err := t.Echo(payload)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(resp)
	return err
}
