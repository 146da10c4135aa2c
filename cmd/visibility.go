package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alamesa/catalog-cli/internal/model"
	"github.com/alamesa/catalog-cli/internal/visibility"
)

var (
	visAccount string
	visSKUs    []string
	visEANs    []string
	visFile    string
	visByEAN   bool
)

var visibilityCmd = &cobra.Command{
	Use:   "visibility",
	Short: "Check why specific SKUs are not visible on the site",
	Long:  "Runs the staged visibility check (catalog, price, stock) for a targeted list of SKU ids or barcodes and writes the verdicts to a spreadsheet plus one audit record per check.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		skus, eans, err := visibilityInputs()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		clients, err := initClients(visAccount)
		if err != nil {
			return err
		}

		task, err := st.CreateTask(ctx, model.TaskKindVisibility, clients.seller.AccountName)
		if err != nil {
			return err
		}
		logAccounts(ctx, st, task.ID, clients)

		checker := visibility.NewChecker(
			clients.marketplaceClient, clients.sellerClient, st,
			cfg.Visibility.Workers, cfg.Output.Dir, clients.seller.AccountName,
		)

		var results []visibility.Result
		if len(eans) > 0 {
			results, err = checker.RunEANs(ctx, task.ID, eans)
		} else {
			results, err = checker.RunSKUs(ctx, task.ID, skus)
		}
		if err != nil {
			return eris.Wrapf(err, "visibility task %s", task.ID)
		}

		visibleCount := 0
		for _, r := range results {
			if r.Visible {
				visibleCount++
			}
		}
		final, err := st.GetTask(ctx, task.ID)
		if err != nil {
			return err
		}
		zap.L().Info("visibility check finished",
			zap.String("task_id", task.ID),
			zap.Int("checked", len(results)),
			zap.Int("visible", visibleCount),
			zap.String("result_file", final.ResultFile),
		)
		fmt.Printf("task %s: %d/%d visible -> %s\n", task.ID, visibleCount, len(results), final.ResultFile)
		return nil
	},
}

// visibilityInputs merges the flag lists with the optional input file and
// validates that exactly one identifier kind was supplied.
func visibilityInputs() (skus, eans []string, err error) {
	skus = append(skus, visSKUs...)
	eans = append(eans, visEANs...)

	if visFile != "" {
		lines, err := readLines(visFile)
		if err != nil {
			return nil, nil, err
		}
		if visByEAN {
			eans = append(eans, lines...)
		} else {
			skus = append(skus, lines...)
		}
	}

	switch {
	case len(skus) == 0 && len(eans) == 0:
		return nil, nil, eris.New("nothing to check: pass --skus, --eans or --file")
	case len(skus) > 0 && len(eans) > 0:
		return nil, nil, eris.New("pass either SKU ids or EANs, not both")
	}
	return skus, eans, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return lines, nil
}

func init() {
	visibilityCmd.Flags().StringVar(&visAccount, "account", "", "configured seller account name (required)")
	visibilityCmd.Flags().StringSliceVar(&visSKUs, "skus", nil, "SKU ids to check")
	visibilityCmd.Flags().StringSliceVar(&visEANs, "eans", nil, "barcodes to check (resolved to SKUs first)")
	visibilityCmd.Flags().StringVar(&visFile, "file", "", "file with one identifier per line")
	visibilityCmd.Flags().BoolVar(&visByEAN, "by-ean", false, "treat file lines as barcodes")
	_ = visibilityCmd.MarkFlagRequired("account")
	rootCmd.AddCommand(visibilityCmd)
}
