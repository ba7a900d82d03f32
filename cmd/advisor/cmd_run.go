package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/marketdata"
	"github.com/aristath/advisor/internal/modules/portfolio"
	portfoliohandlers "github.com/aristath/advisor/internal/modules/portfolio/handlers"
	"github.com/aristath/advisor/pkg/logger"
)

type runOptions struct {
	universe          string
	policy            string
	capital           string
	currency          string
	profile           string
	riskAppetite      int
	maxAssets         int
	excludeSectors    []string
	excludeIndustries []string
	classes           []string
	format            string
	lookbackDays      int
	workers           int
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline over a universe file",
		Long: `Run loads a YAML universe file, scores every asset, selects a diversified
subset and allocates the capital.

Examples:
  advisor run --universe universe.yaml --capital 100000 --profile conservative
  advisor run --universe universe.yaml --capital 100000 --exclude-sector Energy --class equity --class etf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.universe, "universe", "", "Path to the YAML universe file")
	f.StringVar(&opts.policy, "policy", "", "Optional YAML policy overlay")
	f.StringVar(&opts.capital, "capital", "", "Capital to allocate, in major currency units")
	f.StringVar(&opts.currency, "currency", config.DefaultCurrency, "ISO currency code of the capital")
	f.StringVar(&opts.profile, "profile", "moderate", "Risk profile (conservative, moderate, aggressive)")
	f.IntVar(&opts.riskAppetite, "risk-appetite", 50, "Risk appetite 0-100, used instead of --profile when set")
	f.IntVar(&opts.maxAssets, "max-assets", portfoliohandlers.DefaultMaxAssets, "Maximum number of assets to select")
	f.StringSliceVar(&opts.excludeSectors, "exclude-sector", nil, "Sector to exclude (repeatable)")
	f.StringSliceVar(&opts.excludeIndustries, "exclude-industry", nil, "Industry to exclude (repeatable)")
	f.StringSliceVar(&opts.classes, "class", nil, "Permitted asset class (repeatable, default all)")
	f.StringVar(&opts.format, "format", "table", "Output format: table, json")
	f.IntVar(&opts.lookbackDays, "lookback-days", 400, "Days of price history to use")
	f.IntVar(&opts.workers, "workers", 0, "Scoring workers (0 = one per CPU)")

	_ = cmd.MarkFlagRequired("universe")
	_ = cmd.MarkFlagRequired("capital")
	return cmd
}

func runPipeline(cmd *cobra.Command, opts *runOptions) error {
	format := strings.ToLower(opts.format)
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q (want table or json)", opts.format)
	}

	log := cliLogger(cmd)

	req, err := opts.request(cmd)
	if err != nil {
		return err
	}

	policy, err := config.LoadPolicy(opts.policy)
	if err != nil {
		return err
	}

	entries, err := marketdata.LoadUniverse(opts.universe)
	if err != nil {
		return err
	}
	provider, err := marketdata.NewMemoryProvider(entries)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	inputs, err := marketdata.NewLoader(provider, provider, opts.lookbackDays, 0, log).Load(ctx)
	if err != nil {
		return err
	}

	outcome, err := portfolio.NewEngine(policy, opts.workers, nil, log).Run(ctx, req, inputs)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}
	return printOutcome(cmd.OutOrStdout(), outcome)
}

// request builds the portfolio request the same way the HTTP API does
func (o *runOptions) request(cmd *cobra.Command) (domain.PortfolioRequest, error) {
	body := portfoliohandlers.RecommendationRequest{
		Capital:           json.Number(strings.TrimSpace(o.capital)),
		Currency:          o.currency,
		ExcludeSectors:    o.excludeSectors,
		ExcludeIndustries: o.excludeIndustries,
		AssetClasses:      o.classes,
		MaxAssets:         &o.maxAssets,
	}
	if cmd.Flags().Changed("risk-appetite") && !cmd.Flags().Changed("profile") {
		body.RiskAppetite = &o.riskAppetite
	} else {
		body.Profile = o.profile
	}
	return body.ToDomain(config.DefaultCurrency)
}

func cliLogger(cmd *cobra.Command) zerolog.Logger {
	level, _ := cmd.Root().PersistentFlags().GetString("log-level")
	return logger.New(logger.Config{
		Level:  level,
		Pretty: true,
		Output: cmd.ErrOrStderr(),
	})
}
