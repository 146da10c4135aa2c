package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/alamesa/catalog-cli/internal/config"
	"github.com/alamesa/catalog-cli/internal/model"
	"github.com/alamesa/catalog-cli/internal/pipeline"
	"github.com/alamesa/catalog-cli/internal/report"
	"github.com/alamesa/catalog-cli/internal/store"
	"github.com/alamesa/catalog-cli/pkg/vtex"
)

// Exporter runs the full-catalog export pipeline for one seller. Catalog
// reads go to the marketplace account, price and stock to the seller's own.
type Exporter struct {
	marketplace *vtex.Client
	seller      *vtex.Client
	store       store.Store
	cfg         config.ExportConfig
	outputDir   string
	log         *zap.Logger
}

// Options tunes a single run.
type Options struct {
	// SalesChannels overrides the configured channel allow-list.
	SalesChannels []int

	// IncludePriceStock adds the price/stock phase and its two activity
	// rules.
	IncludePriceStock bool
}

// NewExporter wires an exporter. outputDir is the root under which result
// spreadsheets land.
func NewExporter(marketplace, seller *vtex.Client, st store.Store, cfg config.ExportConfig, outputDir string) *Exporter {
	return &Exporter{
		marketplace: marketplace,
		seller:      seller,
		store:       st,
		cfg:         cfg,
		outputDir:   outputDir,
		log:         zap.L().Named("export"),
	}
}

// Run executes the pipeline for taskID and returns the assembled rows after
// writing the spreadsheet and completing the task. Discovery failure is the
// only fatal path; every per-SKU failure degrades into an error row.
//
// Phases:
//
//	0: paginated SKU id discovery (sequential)
//	1: SKU details, fanned out
//	2: unique product/category/brand lookups, then extra departments
//	3: price + stock per SKU (optional)
//	4: row assembly and spreadsheet generation
func (e *Exporter) Run(ctx context.Context, taskID string, opts Options) ([]Row, error) {
	channels := opts.SalesChannels
	if len(channels) == 0 {
		channels = e.cfg.SalesChannels
	}
	phases := 2
	if opts.IncludePriceStock {
		phases = 4
	}

	if err := e.store.SetTaskStatus(ctx, taskID, model.TaskStatusProcessing); err != nil {
		return nil, err
	}

	// Fase 0
	e.logTask(ctx, taskID, "Fase 0: Obteniendo listado de SKU IDs...")
	ids, err := e.marketplace.AllSKUIDs(ctx, e.cfg.PageSize, func(page, count, total int) {
		e.logTask(ctx, taskID, fmt.Sprintf("Pagina %d: %d SKU IDs (total: %d)", page, count, total))
	})
	if err != nil {
		e.logTask(ctx, taskID, "Error obteniendo listado de SKU IDs. Abortando.")
		e.fail(ctx, taskID)
		return nil, eris.Wrap(err, "export: sku id discovery")
	}
	if len(ids) == 0 {
		e.logTask(ctx, taskID, "No se encontraron SKU IDs para este seller.")
		if err := e.store.SetTaskStatus(ctx, taskID, model.TaskStatusComplete); err != nil {
			return nil, err
		}
		return nil, nil
	}
	total := len(ids)
	e.logTask(ctx, taskID, fmt.Sprintf("SKU IDs encontrados: %d", total))

	// Fase 1: detalles de SKU
	e.logTask(ctx, taskID, fmt.Sprintf("Fase 1/%d: Obteniendo detalles de %d SKUs (%d workers)...", phases, total, e.cfg.Workers))
	if err := e.store.SetProgressTotal(ctx, taskID, total); err != nil {
		e.fail(ctx, taskID)
		return nil, err
	}
	tracker := pipeline.NewTracker(e.store, taskID, e.cfg.ProgressInterval)
	details := pipeline.RunPhase(ctx, ids, e.cfg.Workers, tracker,
		func(ctx context.Context, skuID int64) (*vtex.SKUDetail, error) {
			return e.marketplace.SKUByID(ctx, skuID)
		},
		func(int64, error) *vtex.SKUDetail { return nil },
	)

	// Fase 2: lookups unicos
	cc := newCaches()
	lookups := collectLookups(details)
	e.logTask(ctx, taskID, fmt.Sprintf("Fase 2/%d: %d productos, %d categorias, %d marcas unicos (%d calls)...",
		phases, lookups.counts.products, lookups.counts.categories, lookups.counts.brands, len(lookups.tasks)))
	if err := e.store.SetProgressTotal(ctx, taskID, len(lookups.tasks)); err != nil {
		e.fail(ctx, taskID)
		return nil, err
	}
	pipeline.RunPhase(ctx, lookups.tasks, e.cfg.Workers, tracker,
		func(ctx context.Context, t lookupTask) (struct{}, error) {
			return struct{}{}, e.fetchLookup(ctx, cc, t)
		},
		func(lookupTask, error) struct{} { return struct{}{} },
	)

	// Departamentos que los productos referencian y las categorias no cubren.
	if deps := missingDepartments(cc, lookups.productIDs); len(deps) > 0 {
		e.logTask(ctx, taskID, fmt.Sprintf("  + %d departamentos adicionales...", len(deps)))
		pipeline.RunPhase(ctx, deps, e.cfg.Workers, nil,
			func(ctx context.Context, id string) (struct{}, error) {
				_, err := cc.categories.GetOrFetch(ctx, id, func(ctx context.Context, id string) (*vtex.Category, error) {
					return e.marketplace.CategoryByID(ctx, id)
				})
				return struct{}{}, err
			},
			func(string, error) struct{} { return struct{}{} },
		)
	}

	// Fase 3 (opcional): precio y stock
	prices := make(map[int64]*float64)
	stocks := make(map[int64]*int)
	if opts.IncludePriceStock {
		e.logTask(ctx, taskID, fmt.Sprintf("Fase 3/%d: Obteniendo precio y stock de %d SKUs (%d workers)...", phases, total, e.cfg.Workers))
		if err := e.store.SetProgressTotal(ctx, taskID, total*2); err != nil {
			e.fail(ctx, taskID)
			return nil, err
		}
		prices, stocks = e.fetchPriceStock(ctx, ids, tracker)
	} else {
		e.logTask(ctx, taskID, "Precio/Stock omitido (no solicitado).")
	}

	// Fase final: armado de filas
	e.logTask(ctx, taskID, fmt.Sprintf("Fase %d: Construyendo %d filas...", phases, total))
	rows := make([]Row, 0, total)
	for i, skuID := range ids {
		sku := details[i]
		if sku == nil {
			rows = append(rows, errorRow(skuID, "Error al consultar catalogo"))
			continue
		}
		rows = append(rows, buildRow(skuID, sku, cc, channels, prices[skuID], stocks[skuID], opts.IncludePriceStock))
	}

	if err := e.writeWorkbook(ctx, taskID, rows); err != nil {
		e.fail(ctx, taskID)
		return nil, err
	}
	if err := e.store.SetTaskStatus(ctx, taskID, model.TaskStatusComplete); err != nil {
		return nil, err
	}
	e.logTask(ctx, taskID, fmt.Sprintf("Export finalizado. %d SKUs procesados.", total))
	return rows, nil
}

// lookupKind selects which endpoint a phase-2 task hits.
type lookupKind int

const (
	lookupProduct lookupKind = iota
	lookupCategory
	lookupBrand
)

type lookupTask struct {
	kind lookupKind
	id   string
}

type lookupSet struct {
	tasks      []lookupTask
	productIDs []string
	counts     struct{ products, categories, brands int }
}

// collectLookups walks the fetched details once and dedupes the product,
// category and brand ids into a single heterogeneous task list. Brand
// lookups only happen for SKUs whose detail omitted the brand name.
func collectLookups(details []*vtex.SKUDetail) lookupSet {
	var set lookupSet
	seenProducts := map[string]bool{}
	seenCategories := map[string]bool{}
	seenBrands := map[string]bool{}

	for _, sku := range details {
		if sku == nil {
			continue
		}
		if !sku.ProductID.IsZero() && !seenProducts[sku.ProductID.String()] {
			seenProducts[sku.ProductID.String()] = true
			set.tasks = append(set.tasks, lookupTask{lookupProduct, sku.ProductID.String()})
			set.productIDs = append(set.productIDs, sku.ProductID.String())
		}
		if !sku.CategoryID.IsZero() && !seenCategories[sku.CategoryID.String()] {
			seenCategories[sku.CategoryID.String()] = true
			set.tasks = append(set.tasks, lookupTask{lookupCategory, sku.CategoryID.String()})
		}
		if !sku.BrandID.IsZero() && sku.BrandName == "" && !seenBrands[sku.BrandID.String()] {
			seenBrands[sku.BrandID.String()] = true
			set.tasks = append(set.tasks, lookupTask{lookupBrand, sku.BrandID.String()})
		}
	}
	set.counts.products = len(seenProducts)
	set.counts.categories = len(seenCategories)
	set.counts.brands = len(seenBrands)
	return set
}

func (e *Exporter) fetchLookup(ctx context.Context, cc *caches, t lookupTask) error {
	switch t.kind {
	case lookupProduct:
		_, err := cc.products.GetOrFetch(ctx, t.id, func(ctx context.Context, id string) (*vtex.Product, error) {
			return e.marketplace.ProductByID(ctx, id)
		})
		return err
	case lookupCategory:
		_, err := cc.categories.GetOrFetch(ctx, t.id, func(ctx context.Context, id string) (*vtex.Category, error) {
			return e.marketplace.CategoryByID(ctx, id)
		})
		return err
	default:
		_, err := cc.brands.GetOrFetch(ctx, t.id, func(ctx context.Context, id string) (*vtex.Brand, error) {
			return e.marketplace.BrandByID(ctx, id)
		})
		return err
	}
}

// missingDepartments returns department ids referenced by cached products
// that the category cache has not seen yet.
func missingDepartments(cc *caches, productIDs []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, pid := range productIDs {
		prod, ok := cc.products.Get(pid)
		if !ok || prod == nil || prod.DepartmentID.IsZero() {
			continue
		}
		did := prod.DepartmentID.String()
		if seen[did] || cc.categories.Contains(did) {
			continue
		}
		seen[did] = true
		out = append(out, did)
	}
	return out
}

type commerceKind int

const (
	commercePrice commerceKind = iota
	commerceStock
)

type commerceTask struct {
	kind  commerceKind
	skuID int64
}

type commerceResult struct {
	task  commerceTask
	price *float64
	stock *int
}

// fetchPriceStock interleaves price and stock tasks so the load spreads
// across both endpoints instead of hammering one and then the other.
func (e *Exporter) fetchPriceStock(ctx context.Context, ids []int64, tracker *pipeline.Tracker) (map[int64]*float64, map[int64]*int) {
	tasks := make([]commerceTask, 0, len(ids)*2)
	for _, id := range ids {
		tasks = append(tasks, commerceTask{commercePrice, id}, commerceTask{commerceStock, id})
	}

	results := pipeline.RunPhase(ctx, tasks, e.cfg.Workers, tracker,
		func(ctx context.Context, t commerceTask) (commerceResult, error) {
			res := commerceResult{task: t}
			switch t.kind {
			case commercePrice:
				quote, err := e.seller.PriceBySKU(ctx, t.skuID)
				if err != nil {
					return res, err
				}
				if quote != nil {
					res.price = quote.BasePrice
				}
			default:
				inv, err := e.seller.InventoryBySKU(ctx, t.skuID)
				if err != nil {
					return res, err
				}
				if inv != nil {
					avail := inv.Available()
					res.stock = &avail
				}
			}
			return res, nil
		},
		func(t commerceTask, _ error) commerceResult { return commerceResult{task: t} },
	)

	prices := make(map[int64]*float64, len(ids))
	stocks := make(map[int64]*int, len(ids))
	for _, r := range results {
		switch r.task.kind {
		case commercePrice:
			prices[r.task.skuID] = r.price
		default:
			stocks[r.task.skuID] = r.stock
		}
	}
	return prices, stocks
}

// writeWorkbook sanitizes the rows, writes the dated spreadsheet and records
// its path on the task. The recorded path is relative to the output root.
func (e *Exporter) writeWorkbook(ctx context.Context, taskID string, rows []Row) error {
	now := time.Now()
	relDir := filepath.Join(strconv.Itoa(now.Year()), fmt.Sprintf("%d", int(now.Month())), strconv.Itoa(now.Day()))
	name := fmt.Sprintf("EXPORT_VTEX_%d_%d.xlsx", now.Day(), int(now.Month()))
	relPath := filepath.Join(relDir, name)

	values := make([][]any, len(rows))
	for i := range rows {
		vals := rows[i].Values()
		for j, v := range vals {
			if s, ok := v.(string); ok {
				vals[j] = CleanCell(s)
			}
		}
		values[i] = vals
	}

	if err := report.WriteWorkbook(filepath.Join(e.outputDir, relPath), "Export", Columns, values); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	if err := e.store.SetResultFile(ctx, taskID, relPath); err != nil {
		return err
	}
	e.logTask(ctx, taskID, "Excel generado: "+name)
	return nil
}

func (e *Exporter) fail(ctx context.Context, taskID string) {
	if err := e.store.SetTaskStatus(ctx, taskID, model.TaskStatusError); err != nil {
		e.log.Warn("set error status failed", zap.String("task_id", taskID), zap.Error(err))
	}
}

// logTask appends a line to the task's persisted log and mirrors it to the
// structured logger.
func (e *Exporter) logTask(ctx context.Context, taskID, msg string) {
	if err := e.store.AppendTaskLog(ctx, taskID, msg); err != nil {
		e.log.Warn("append task log failed", zap.String("task_id", taskID), zap.Error(err))
	}
	e.log.Info(msg, zap.String("task_id", taskID))
}
