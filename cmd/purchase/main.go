package main

import (
	"os"

	"github.com/spf13/cobra"
)

const serviceName = "beerbonk-purchase"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "purchase",
		Short: "SOL purchase widget",
		Long: `Connects a Solana wallet and transfers quantity x 10^9 lamports to a fixed recipient.
Requires configuration through ENV.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newBuyCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
