package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alamesa/catalog-cli/internal/export"
	"github.com/alamesa/catalog-cli/internal/model"
)

var (
	exportAccount      string
	exportChannels     []int
	exportNoPriceStock bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a seller's full catalog to a spreadsheet",
	Long:  "Walks the seller's complete SKU listing, enriches every SKU with product, category, brand, price and stock data, and writes the 52-column export with activity verdicts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		clients, err := initClients(exportAccount)
		if err != nil {
			return err
		}

		task, err := st.CreateTask(ctx, model.TaskKindExport, clients.seller.AccountName)
		if err != nil {
			return err
		}
		logAccounts(ctx, st, task.ID, clients)

		exp := export.NewExporter(clients.marketplaceClient, clients.sellerClient, st, cfg.Export, cfg.Output.Dir)
		rows, err := exp.Run(ctx, task.ID, export.Options{
			SalesChannels:     exportChannels,
			IncludePriceStock: !exportNoPriceStock,
		})
		if err != nil {
			return eris.Wrapf(err, "export task %s", task.ID)
		}

		final, err := st.GetTask(ctx, task.ID)
		if err != nil {
			return err
		}
		zap.L().Info("export finished",
			zap.String("task_id", task.ID),
			zap.Int("rows", len(rows)),
			zap.String("result_file", final.ResultFile),
		)
		fmt.Printf("task %s: %d rows -> %s\n", task.ID, len(rows), final.ResultFile)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportAccount, "account", "", "configured seller account name (required)")
	exportCmd.Flags().IntSliceVar(&exportChannels, "sales-channels", nil, "sales channel allow-list (default from config)")
	exportCmd.Flags().BoolVar(&exportNoPriceStock, "no-price-stock", false, "skip the price/stock phase")
	_ = exportCmd.MarkFlagRequired("account")
	rootCmd.AddCommand(exportCmd)
}
