package main

import (
	"os"

	"github.com/spf13/cobra"

	"tapbridge/internal/interfaces/cli/migrate"
	"tapbridge/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tapbridge",
		Short: "Tapbridge - custodial game balance bridge",
		Long:  `Tapbridge links the off-chain game balance to the on-chain wallet: it issues deposit intents, confirms inbound transfers, and processes signed withdrawals.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
