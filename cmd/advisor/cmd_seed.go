package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/modules/marketdata"
)

func newSeedCmd() *cobra.Command {
	var universe, dbPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a universe file into a market database",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cliLogger(cmd)

			entries, err := marketdata.LoadUniverse(universe)
			if err != nil {
				return err
			}

			db, err := database.New(database.Config{Path: dbPath, Name: "market"})
			if err != nil {
				return err
			}
			defer db.Close()

			store, err := marketdata.NewSQLiteStore(cmd.Context(), db, log)
			if err != nil {
				return err
			}
			if err := store.Seed(cmd.Context(), entries); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d assets into %s\n", len(entries), db.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&universe, "universe", "", "Path to the YAML universe file")
	cmd.Flags().StringVar(&dbPath, "db", "data/market.db", "Path to the market database")
	_ = cmd.MarkFlagRequired("universe")
	return cmd
}
