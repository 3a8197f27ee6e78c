// Command fwuctl is a client/inspector tool for a PSA FWU-A update
// agent: it loads a declarative deployment description, drives update
// transactions against it, and prints the FWU metadata and image
// directory objects the agent would otherwise only hand a bootloader
// or an RPC client. It is the analogue of the original source's
// components/app/fwu-tool (fwu_main.cpp plus its cmd_*.cpp subcommands).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	deployPath string
)

var rootCmd = &cobra.Command{
	Use:   "fwuctl",
	Short: "Inspect and drive a PSA FWU-A banked firmware update agent",
	Long: `fwuctl wires a declarative deployment description (firmware locations,
bank volumes, installer bindings, metadata partitions) into an in-process
update agent and exposes its client-facing operations and persisted
state from the command line.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&deployPath, "config", "c", "fwu-deploy.yaml", "deployment configuration file")
	rootCmd.AddCommand(printMetadataCmd, printImageDirCmd, updateImageCmd, printUUIDCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
