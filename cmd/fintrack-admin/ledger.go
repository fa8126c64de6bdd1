package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func init() {
	recurringCmd := &cobra.Command{
		Use:   "recurring",
		Short: "Recurring transaction templates",
	}
	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Create the transactions that are due",
		Long: `Create one transaction per due occurrence of every active template,
advancing each template past the as-of date.`,
		Args: cobra.NoArgs,
		RunE: runRecurringProcess,
	}
	processCmd.Flags().String("as-of", "", "Process occurrences due on or before this date (YYYY-MM-DD, default today)")
	recurringCmd.AddCommand(processCmd)

	reconcileCmd := &cobra.Command{
		Use:   "reconcile [account-id]",
		Short: "Compare stored account balances with the ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReconcile,
	}

	allocationCmd := &cobra.Command{
		Use:   "allocation",
		Short: "Allocation rules",
	}
	calculateCmd := &cobra.Command{
		Use:   "calculate <amount>",
		Short: "Preview how an amount splits across active rules",
		Args:  cobra.ExactArgs(1),
		RunE:  runAllocationCalculate,
	}
	allocationCmd.AddCommand(calculateCmd)

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import statements",
	}
	ofxCmd := &cobra.Command{
		Use:   "ofx <file>",
		Short: "Import an OFX or QFX statement into an account",
		Long: `Import the transactions of an OFX or QFX statement. Lines already
imported into the account are skipped.

Example:
  fintrack-admin import ofx --account 1 --income-category 1 --expense-category 5 ~/Downloads/jan.qfx`,
		Args: cobra.ExactArgs(1),
		RunE: runImportOFX,
	}
	ofxCmd.Flags().Int64("account", 0, "Account the statement belongs to")
	ofxCmd.Flags().Int64("income-category", 0, "Category for credits")
	ofxCmd.Flags().Int64("expense-category", 0, "Category for debits")
	ofxCmd.Flags().Bool("no-progress", false, "Hide the progress bar")
	_ = ofxCmd.MarkFlagRequired("account")
	_ = ofxCmd.MarkFlagRequired("income-category")
	_ = ofxCmd.MarkFlagRequired("expense-category")
	importCmd.AddCommand(ofxCmd)

	rootCmd.AddCommand(recurringCmd, reconcileCmd, allocationCmd, importCmd)
}

func runRecurringProcess(cmd *cobra.Command, args []string) error {
	asOf := core.Today()
	if s, _ := cmd.Flags().GetString("as-of"); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return err
		}
		asOf = d
	}

	a := openApp()
	defer a.close()

	res, err := a.recurring.Process(cmd.Context(), asOf)
	if err != nil {
		return err
	}
	return printResult(cmd, res, func() {
		fmt.Fprintf(cmd.OutOrStdout(), "processed %d templates, created %d transactions as of %s\n",
			res.Processed, res.TransactionsCreated, res.AsOf)
		if res.LimitReached {
			fmt.Fprintln(cmd.OutOrStdout(), "run limit reached, remaining occurrences wait for the next run")
		}
	})
}

func runReconcile(cmd *cobra.Command, args []string) error {
	a := openApp()
	defer a.close()

	var recs []services.Reconciliation
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid account id %q", args[0])
		}
		rec, err := a.ledger.ReconcileAccount(cmd.Context(), id)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
	} else {
		var err error
		if recs, err = a.ledger.ReconcileAll(cmd.Context()); err != nil {
			return err
		}
	}

	return printResult(cmd, recs, func() {
		out := cmd.OutOrStdout()
		for _, r := range recs {
			status := "ok"
			if !r.Matches {
				status = "MISMATCH " + r.Difference.StringFixed(2)
			}
			fmt.Fprintf(out, "%-4d %-24s stored %12s  derived %12s  %s\n",
				r.AccountID, r.AccountName, r.StoredBalance.StringFixed(2), r.DerivedBalance.StringFixed(2), status)
		}
	})
}

func runAllocationCalculate(cmd *cobra.Command, args []string) error {
	amount, err := core.ParseAmount(args[0])
	if err != nil {
		return err
	}

	a := openApp()
	defer a.close()

	plan, err := a.alloc.Calculate(cmd.Context(), amount)
	if err != nil {
		return err
	}
	return printResult(cmd, plan, func() {
		out := cmd.OutOrStdout()
		for _, it := range plan.Items {
			fmt.Fprintf(out, "%3d%%  %-24s -> %s %-20s %12s\n",
				it.Percentage, it.RuleName, it.TargetType, it.TargetName, it.Amount.StringFixed(2))
		}
		fmt.Fprintf(out, "total %d%%, unallocated %s\n", plan.TotalPercentage, plan.Unallocated.StringFixed(2))
		if plan.OverAllocated {
			fmt.Fprintln(out, "warning: rules allocate more than 100%")
		}
	})
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	req := services.ImportRequest{}
	req.AccountID, _ = cmd.Flags().GetInt64("account")
	req.IncomeCategoryID, _ = cmd.Flags().GetInt64("income-category")
	req.ExpenseCategoryID, _ = cmd.Flags().GetInt64("expense-category")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open statement: %w", err)
	}
	defer f.Close()

	if !noProgress && !jsonOutput {
		var bar *progressbar.ProgressBar
		req.OnLine = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetDescription("Importing statement lines"),
					progressbar.OptionClearOnFinish())
			}
			_ = bar.Set(done)
		}
	}

	a := openApp()
	defer a.close()

	res, err := a.imports.ImportOFX(cmd.Context(), req, f)
	if err != nil {
		return err
	}
	return printResult(cmd, res, func() {
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d transactions, skipped %d duplicates\n", res.Imported, res.Skipped)
	})
}
