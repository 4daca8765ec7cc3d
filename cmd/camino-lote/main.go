// camino-lote automates a fixed desktop lookup workflow: for every DNI in an
// input file it drives the target application by simulated clicks and
// keystrokes, validates the displayed name, copies the address, and persists
// results. Recovery from VPN drops and stuck UI states is automatic.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"camino-lote/automation"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, automation.ErrFailsafe) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "camino-lote",
		Short:         "Batch address extraction by DNI via desktop automation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newRecordCmd())
	cmd.AddCommand(newExtractCmd())

	return cmd
}
