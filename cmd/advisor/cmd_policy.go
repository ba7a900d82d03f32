package main

import (
	"github.com/spf13/cobra"

	"github.com/aristath/advisor/internal/config"
)

func newPolicyCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Print the effective policy as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := config.LoadPolicy(path)
			if err != nil {
				return err
			}
			out, err := policy.ToYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&path, "policy", "", "Optional YAML policy overlay")
	return cmd
}
