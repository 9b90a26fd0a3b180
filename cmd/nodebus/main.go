// Command nodebus runs the node registration agent and its companion tools.
//
// Subcommands:
//
//	nodebus agent     register this node with the control plane
//	nodebus monitor   self-check the bus and print control-plane traffic
//	nodebus broker    run a local NATS server for development
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nodebus",
		Short:         "nodebus - node registration over NATS",
		Long:          `nodebus announces a storage node and its gRPC endpoint to the control plane over NATS.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(agentCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(brokerCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
