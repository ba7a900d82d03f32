// Package main is the advisor CLI. It runs the scoring and allocation
// pipeline over a YAML universe file and prints the recommendation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "advisor",
		Short: "Score an asset universe and allocate capital across it",
		Long: `advisor scores every asset of a universe on technical, fundamental,
sentiment and risk factors, selects a diversified subset for a risk profile
and splits the capital between them.

Example usage:
  advisor run --universe universe.yaml --capital 100000 --profile moderate
  advisor run --universe universe.yaml --capital 250000 --risk-appetite 80 --format json
  advisor policy --policy policy.yaml
  advisor seed --universe universe.yaml --db data/market.db`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(), newPolicyCmd(), newSeedCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
