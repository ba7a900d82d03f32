package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aristath/advisor/internal/modules/portfolio"
)

// printOutcome renders an outcome as aligned text tables
func printOutcome(w io.Writer, outcome *portfolio.Outcome) error {
	if outcome.Status == portfolio.StatusNoEligibleAssets {
		ne := outcome.NoEligible
		fmt.Fprintf(w, "No eligible assets: %s\n", ne.Reason)
		fmt.Fprintf(w, "Considered %d, scored %d, eligible %d\n", ne.Considered, ne.Scored, ne.Eligible)
		printSkipped(w, outcome.Skipped)
		return nil
	}

	report := outcome.Report
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tCLASS\tSECTOR\tWEIGHT\tAMOUNT\tSCORE\t")
	for _, a := range outcome.Allocations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f%%\t%s\t%.1f\t\n",
			a.Asset.Symbol, a.Asset.Class, a.Asset.Sector, a.Weight*100, a.DisplayAmount, a.Score.Final)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Capital:   %s (%s profile)\n", report.DisplayCapital, report.Profile)
	method := string(report.Method)
	if report.Degraded {
		method += " (degraded: " + report.DegradedReason + ")"
	}
	fmt.Fprintf(w, "Method:    %s\n", method)
	fmt.Fprintf(w, "Expected:  return %.2f%%, volatility %.2f%%, sharpe %.2f\n",
		report.ExpectedReturn*100, report.Volatility*100, report.Sharpe)
	fmt.Fprintf(w, "Assets:    %d considered, %d eligible, %d selected, %d fallback-scored\n",
		report.ConsideredAssets, report.EligibleAssets, report.SelectedAssets, report.FallbackScored)

	if len(report.ClassBreakdown) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CLASS\tTARGET\tACTUAL\tASSETS\t")
		for _, g := range report.ClassBreakdown {
			fmt.Fprintf(tw, "%s\t%.1f%%\t%.1f%%\t%d\t\n", g.Name, g.TargetPct, g.ActualPct, g.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	for _, a := range outcome.Allocations {
		fmt.Fprintf(w, "%s: %s\n", a.Asset.Symbol, a.Reasoning.Text)
	}
	printSkipped(w, outcome.Skipped)
	return nil
}

func printSkipped(w io.Writer, skipped []portfolio.SkippedAsset) {
	for _, s := range skipped {
		fmt.Fprintf(w, "Skipped %q: %s\n", s.Symbol, s.Reason)
	}
}
