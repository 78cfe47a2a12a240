package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/corruptguard/helix/internal/bootstrap"
	"github.com/corruptguard/helix/internal/domain/procurement"
	"github.com/corruptguard/helix/internal/service"
)

func parseFraudDetectFlags(args []string) (procurement.FraudDetectionRequest, error) {
	fs := flag.NewFlagSet("fraud-detect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var req procurement.FraudDetectionRequest
	fs.Int64Var(&req.ClaimID, "claim-id", 0, "Claim to score")
	fs.StringVar(&req.VendorID, "vendor", "", "Vendor ID")
	fs.Float64Var(&req.Amount, "amount", 0, "Claimed amount")
	fs.Int64Var(&req.BudgetID, "budget-id", 0, "Budget the claim draws on")
	fs.Int64Var(&req.AllocationID, "allocation-id", 0, "Allocation within the budget")
	fs.StringVar(&req.InvoiceHash, "invoice-hash", "", "IPFS hash of the invoice")
	fs.StringVar(&req.DeputyID, "deputy", "", "Deputy principal that filed the claim")
	fs.StringVar(&req.Area, "area", "", "Area the claim belongs to")

	if err := fs.Parse(args); err != nil {
		return procurement.FraudDetectionRequest{}, err
	}
	if req.VendorID == "" {
		return procurement.FraudDetectionRequest{}, errors.New("--vendor is required")
	}
	if req.Amount <= 0 {
		return procurement.FraudDetectionRequest{}, errors.New("--amount must be greater than zero")
	}
	return req, nil
}

func runFraudDetect(cmdCtx *commandContext, args []string) error {
	req, err := parseFraudDetectFlags(args)
	if err != nil {
		return err
	}
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		verdict, detectErr := app.Procurement.DetectFraud(ctx, req)
		if detectErr != nil {
			return detectErr
		}
		return printVerdicts(cmdCtx.Out, []procurement.FraudDetectionResponse{verdict})
	})
}

func runFraudHistory(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("fraud-history", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	limit := fs.Int("limit", 0, "Number of verdicts (defaults to FRAUD_HISTORY_LIMIT)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		verdicts, err := app.Procurement.FraudHistory(ctx, *limit)
		if err != nil {
			return err
		}
		return printVerdicts(cmdCtx.Out, verdicts)
	})
}

func runClaims(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("claims", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.Int64("id", 0, "Show a single claim")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		if *id > 0 {
			claim, err := app.Procurement.Claim(ctx, *id)
			if err != nil {
				return err
			}
			return printJSON(cmdCtx.Out, claim)
		}
		claims, err := app.Procurement.Claims(ctx)
		if err != nil {
			return err
		}
		return printClaims(cmdCtx.Out, claims)
	})
}

type submitClaimOptions struct {
	Claim   procurement.ClaimSubmission
	Invoice string
}

func parseSubmitClaimFlags(args []string) (submitClaimOptions, error) {
	fs := flag.NewFlagSet("submit-claim", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts submitClaimOptions
	fs.StringVar(&opts.Claim.Vendor, "vendor", "", "Vendor ID")
	fs.Float64Var(&opts.Claim.Amount, "amount", 0, "Claimed amount")
	fs.StringVar(&opts.Claim.Deputy, "deputy", "", "Deputy principal filing the claim")
	fs.StringVar(&opts.Claim.InvoiceHash, "invoice-hash", "", "Existing IPFS hash of the invoice")
	fs.StringVar(&opts.Invoice, "invoice", "", "Invoice file to pin before submitting")

	if err := fs.Parse(args); err != nil {
		return submitClaimOptions{}, err
	}
	switch {
	case opts.Claim.Vendor == "":
		return submitClaimOptions{}, errors.New("--vendor is required")
	case opts.Claim.Amount <= 0:
		return submitClaimOptions{}, errors.New("--amount must be greater than zero")
	case opts.Invoice != "" && opts.Claim.InvoiceHash != "":
		return submitClaimOptions{}, errors.New("--invoice and --invoice-hash are mutually exclusive")
	}
	return opts, nil
}

func runSubmitClaim(cmdCtx *commandContext, args []string) error {
	opts, err := parseSubmitClaimFlags(args)
	if err != nil {
		return err
	}
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		var doc *service.InvoiceDocument
		if opts.Invoice != "" {
			f, openErr := os.Open(opts.Invoice)
			if openErr != nil {
				return fmt.Errorf("open invoice: %w", openErr)
			}
			defer func() { _ = f.Close() }()
			doc = &service.InvoiceDocument{Name: filepath.Base(opts.Invoice), Body: f}
		}
		claim, submitErr := app.Procurement.SubmitClaim(ctx, opts.Claim, doc)
		if submitErr != nil {
			return submitErr
		}
		return printJSON(cmdCtx.Out, claim)
	})
}

func runBudgets(cmdCtx *commandContext, _ []string) error {
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		budgets, err := app.Procurement.Budgets(ctx)
		if err != nil {
			return err
		}
		return printBudgets(cmdCtx.Out, budgets)
	})
}

func runAlerts(cmdCtx *commandContext, _ []string) error {
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		alerts, err := app.Procurement.FraudAlerts(ctx)
		if err != nil {
			return err
		}
		return printAlerts(cmdCtx.Out, alerts)
	})
}

func runStats(cmdCtx *commandContext, _ []string) error {
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		stats, err := app.Procurement.SystemStats(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmdCtx.Out, stats)
	})
}

func runOverview(cmdCtx *commandContext, _ []string) error {
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		ov, err := app.Procurement.Overview(ctx)
		if err != nil {
			return err
		}
		if err = printJSON(cmdCtx.Out, ov.Stats); err != nil {
			return err
		}
		if err = printBudgets(cmdCtx.Out, ov.Budgets); err != nil {
			return err
		}
		return printAlerts(cmdCtx.Out, ov.Alerts)
	})
}

func runHealth(cmdCtx *commandContext, _ []string) error {
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		h, err := app.Procurement.Health(ctx)
		if err != nil {
			return err
		}
		if err = printJSON(cmdCtx.Out, h); err != nil {
			return err
		}
		if !h.Healthy() {
			return fmt.Errorf("backend reports status %q", h.Status)
		}
		return nil
	})
}

func runPin(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("pin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: helix-admin pin <file>")
	}
	path := fs.Arg(0)
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		if app.Documents == nil {
			return errors.New("IPFS_API_KEY and IPFS_SECRET_KEY are required to pin documents")
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open document: %w", err)
		}
		defer func() { _ = f.Close() }()

		hash, err := app.Documents.UploadDocument(ctx, filepath.Base(path), f)
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "%s\n%s\n", hash, app.Documents.URL(hash))
	})
}

func printVerdicts(w io.Writer, verdicts []procurement.FraudDetectionResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "CLAIM\tSCORE\tRISK\tCONFIDENCE\tFLAGS\n"); err != nil {
		return err
	}
	for _, v := range verdicts {
		if err := writef(tw, "%d\t%.1f\t%s\t%.2f\t%v\n", v.ClaimID, v.Score, v.RiskLevel, v.Confidence, v.Flags); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printClaims(w io.Writer, claims []procurement.Claim) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "ID\tVENDOR\tAMOUNT\tFLAGGED\tPAID\tCHALLENGES\n"); err != nil {
		return err
	}
	for _, c := range claims {
		if err := writef(tw, "%d\t%s\t%.2f\t%t\t%t\t%d\n", c.ClaimID, c.Vendor, c.Amount, c.Flagged, c.Paid, c.ChallengeCount); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printBudgets(w io.Writer, budgets []procurement.Budget) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "ID\tPURPOSE\tAMOUNT\tALLOCATED\tREMAINING\n"); err != nil {
		return err
	}
	for _, b := range budgets {
		if err := writef(tw, "%d\t%s\t%.2f\t%.2f\t%.2f\n", b.BudgetID, b.Purpose, b.Amount, b.Allocated, b.Remaining); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printAlerts(w io.Writer, alerts []procurement.FraudAlert) error {
	if len(alerts) == 0 {
		return writeln(w, "No fraud alerts.")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "CLAIM\tTYPE\tSEVERITY\tRESOLVED\tDESCRIPTION\n"); err != nil {
		return err
	}
	for _, a := range alerts {
		if err := writef(tw, "%d\t%s\t%s\t%t\t%s\n", a.ClaimID, a.AlertType, a.Severity, a.Resolved, a.Description); err != nil {
			return err
		}
	}
	return tw.Flush()
}
