// Package visibility answers "why is this SKU not showing on the site" for
// a targeted list of SKUs or barcodes, persisting one audit record per
// check.
package visibility

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/alamesa/catalog-cli/internal/model"
	"github.com/alamesa/catalog-cli/internal/pipeline"
	"github.com/alamesa/catalog-cli/internal/report"
	"github.com/alamesa/catalog-cli/internal/store"
	"github.com/alamesa/catalog-cli/pkg/vtex"
)

// Checker runs targeted visibility checks. Catalog truth comes from the
// marketplace account; price and stock from the seller's own.
type Checker struct {
	marketplace *vtex.Client
	seller      *vtex.Client
	store       store.Store
	workers     int
	outputDir   string
	account     string
	log         *zap.Logger
}

// NewChecker wires a checker. account labels the audit records; outputDir
// is the root under which result spreadsheets land.
func NewChecker(marketplace, seller *vtex.Client, st store.Store, workers int, outputDir, account string) *Checker {
	if workers < 1 {
		workers = 1
	}
	return &Checker{
		marketplace: marketplace,
		seller:      seller,
		store:       st,
		workers:     workers,
		outputDir:   outputDir,
		account:     account,
		log:         zap.L().Named("visibility"),
	}
}

// Result is the outcome of one check. Pointer fields stay nil for stages
// the short-circuit never reached.
type Result struct {
	EAN       string
	SKUID     string
	Visible   bool
	Reason    string
	Price     *float64
	Stock     *int
	HasImages *bool
}

type item struct {
	ean   string
	skuID string
}

// RunSKUs checks a list of SKU ids.
func (c *Checker) RunSKUs(ctx context.Context, taskID string, skuIDs []string) ([]Result, error) {
	items := make([]item, len(skuIDs))
	for i, id := range skuIDs {
		items[i] = item{skuID: id}
	}
	return c.run(ctx, taskID, items, "SKUs")
}

// RunEANs checks a list of barcodes, resolving each to its SKU first.
func (c *Checker) RunEANs(ctx context.Context, taskID string, eans []string) ([]Result, error) {
	items := make([]item, len(eans))
	for i, ean := range eans {
		items[i] = item{ean: ean}
	}
	return c.run(ctx, taskID, items, "EANs")
}

func (c *Checker) run(ctx context.Context, taskID string, items []item, label string) ([]Result, error) {
	if err := c.store.SetTaskStatus(ctx, taskID, model.TaskStatusProcessing); err != nil {
		return nil, err
	}
	c.logTask(ctx, taskID, fmt.Sprintf("%s a consultar: %d", label, len(items)))
	if err := c.store.SetProgressTotal(ctx, taskID, len(items)); err != nil {
		c.fail(ctx, taskID)
		return nil, err
	}

	// Small batches: progress updates per item, no batching needed.
	tracker := pipeline.NewTracker(c.store, taskID, 1)
	results := pipeline.RunPhase(ctx, items, c.workers, tracker,
		func(ctx context.Context, it item) (Result, error) {
			return c.checkItem(ctx, taskID, it), nil
		},
		func(it item, _ error) Result {
			return Result{EAN: it.ean, SKUID: it.skuID, Reason: "Error inesperado"}
		},
	)

	if err := c.writeWorkbook(ctx, taskID, results); err != nil {
		c.fail(ctx, taskID)
		return nil, err
	}
	if err := c.store.SetTaskStatus(ctx, taskID, model.TaskStatusComplete); err != nil {
		return nil, err
	}
	c.logTask(ctx, taskID, fmt.Sprintf("Consulta finalizada. %d %s procesados.", len(results), label))
	return results, nil
}

// checkItem resolves a barcode when needed, runs the staged check and logs
// the per-item verdict to the task.
func (c *Checker) checkItem(ctx context.Context, taskID string, it item) Result {
	if it.ean != "" && it.skuID == "" {
		skuID, err := c.marketplace.SKUIDByEAN(ctx, it.ean)
		if err != nil || skuID == 0 {
			if err != nil {
				c.log.Warn("ean resolution failed", zap.String("ean", it.ean), zap.Error(err))
			}
			c.logTask(ctx, taskID, fmt.Sprintf("EAN %s: NO ENCONTRADO", it.ean))
			return Result{EAN: it.ean, Reason: "EAN no encontrado"}
		}
		it.skuID = strconv.FormatInt(skuID, 10)
		c.logTask(ctx, taskID, fmt.Sprintf("EAN %s -> SKU %s", it.ean, it.skuID))
	}

	res, audit := c.checkSKU(ctx, it.skuID)
	res.EAN = it.ean

	if audit {
		check := &model.VisibilityCheck{
			TaskID:    taskID,
			Account:   c.account,
			SKUID:     res.SKUID,
			EAN:       res.EAN,
			Visible:   res.Visible,
			Reason:    res.Reason,
			Price:     res.Price,
			Stock:     res.Stock,
			HasImages: res.HasImages,
		}
		if err := c.store.InsertVisibilityCheck(ctx, check); err != nil {
			c.log.Warn("audit insert failed", zap.String("sku_id", res.SKUID), zap.Error(err))
		}
	}

	label := "SKU " + it.skuID
	if it.ean != "" {
		label = fmt.Sprintf("EAN %s (SKU %s)", it.ean, it.skuID)
	}
	verdict := "VISIBLE"
	if !res.Visible {
		verdict = fmt.Sprintf("NO VISIBLE (%s)", res.Reason)
	}
	c.logTask(ctx, taskID, label+": "+verdict)
	return res
}

// checkSKU runs the three stages in order, stopping at the first failure:
// catalog (images, SKU active, product active), then price, then stock.
// The second return reports whether the check got far enough to be worth an
// audit record; a catalog fetch failure does not.
func (c *Checker) checkSKU(ctx context.Context, skuID string) (Result, bool) {
	res := Result{SKUID: skuID}

	id, err := strconv.ParseInt(skuID, 10, 64)
	if err != nil {
		res.Reason = "Error al consultar catalogo"
		return res, false
	}
	sku, err := c.marketplace.SKUByID(ctx, id)
	if err != nil || sku == nil {
		if err != nil {
			c.log.Warn("catalog fetch failed", zap.String("sku_id", skuID), zap.Error(err))
		}
		res.Reason = "Error al consultar catalogo"
		return res, false
	}

	hasImages := sku.HasImages()
	res.HasImages = &hasImages
	res.Visible = true

	switch {
	case !hasImages:
		res.Visible = false
		res.Reason = "Sin imagenes"
	case !sku.IsActive:
		res.Visible = false
		res.Reason = "SKU no activo"
	case !sku.IsProductActive:
		res.Visible = false
		res.Reason = "Producto no activo"
	}

	if res.Visible {
		quote, err := c.seller.PriceBySKU(ctx, id)
		switch {
		case err != nil || quote == nil:
			res.Visible = false
			res.Reason = "Sin precio (error al consultar)"
		case quote.BasePrice == nil || *quote.BasePrice == 0:
			res.Visible = false
			res.Reason = "Sin precio"
		default:
			res.Price = quote.BasePrice
		}
	}

	if res.Visible {
		inv, err := c.seller.InventoryBySKU(ctx, id)
		switch {
		case err != nil || inv == nil:
			res.Visible = false
			res.Reason = "Sin stock (error al consultar)"
		default:
			avail := inv.Available()
			res.Stock = &avail
			if !inv.HasStock() {
				res.Visible = false
				res.Reason = "Sin stock"
			}
		}
	}

	return res, true
}

func (c *Checker) writeWorkbook(ctx context.Context, taskID string, results []Result) error {
	name := fmt.Sprintf("visibilidad_%s.xlsx", time.Now().Format("20060102_150405"))
	relPath := filepath.Join("catalogacion", name)

	eanMode := false
	for _, r := range results {
		if r.EAN != "" {
			eanMode = true
			break
		}
	}

	headers := []string{"sku_id", "visible", "motivo", "stock", "precio", "tiene_imagenes"}
	if eanMode {
		headers = append([]string{"ean"}, headers...)
	}

	rows := make([][]any, len(results))
	for i, r := range results {
		row := []any{r.SKUID, r.Visible, r.Reason, r.Stock, r.Price, r.HasImages}
		if eanMode {
			row = append([]any{r.EAN}, row...)
		}
		rows[i] = row
	}

	if err := report.WriteWorkbook(filepath.Join(c.outputDir, relPath), "Visibilidad", headers, rows); err != nil {
		return eris.Wrap(err, "visibility: write workbook")
	}
	if err := c.store.SetResultFile(ctx, taskID, relPath); err != nil {
		return err
	}
	c.logTask(ctx, taskID, "Excel generado: "+name)
	return nil
}

func (c *Checker) fail(ctx context.Context, taskID string) {
	if err := c.store.SetTaskStatus(ctx, taskID, model.TaskStatusError); err != nil {
		c.log.Warn("set error status failed", zap.String("task_id", taskID), zap.Error(err))
	}
}

func (c *Checker) logTask(ctx context.Context, taskID, msg string) {
	if err := c.store.AppendTaskLog(ctx, taskID, msg); err != nil {
		c.log.Warn("append task log failed", zap.String("task_id", taskID), zap.Error(err))
	}
	c.log.Info(msg, zap.String("task_id", taskID))
}
