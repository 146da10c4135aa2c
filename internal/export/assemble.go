package export

import (
	"strconv"
	"strings"

	"github.com/alamesa/catalog-cli/internal/pipeline"
	"github.com/alamesa/catalog-cli/pkg/vtex"
)

// caches groups the lookup memos one run shares across its phases.
type caches struct {
	products   *pipeline.Memo[*vtex.Product]
	categories *pipeline.Memo[*vtex.Category]
	brands     *pipeline.Memo[*vtex.Brand]
}

func newCaches() *caches {
	return &caches{
		products:   pipeline.NewMemo[*vtex.Product](),
		categories: pipeline.NewMemo[*vtex.Category](),
		brands:     pipeline.NewMemo[*vtex.Brand](),
	}
}

// buildRow combines a SKU detail with the cached lookups into one export
// row. The decision engine supplies ACTIVO, CATALOGADO and Motivo.
func buildRow(
	skuID int64,
	sku *vtex.SKUDetail,
	cc *caches,
	channels []int,
	price *float64,
	stock *int,
	includePriceStock bool,
) Row {
	productID := sku.ProductID.String()
	if sku.ProductID.IsZero() {
		productID = ""
	}

	var prod *vtex.Product
	if productID != "" {
		prod, _ = cc.products.Get(productID)
	}

	// Category: the SKU's own id wins, the product's is the fallback.
	categoryID := ""
	if !sku.CategoryID.IsZero() {
		categoryID = sku.CategoryID.String()
	} else if prod != nil && !prod.CategoryID.IsZero() {
		categoryID = prod.CategoryID.String()
	}
	categoryName := ""
	if categoryID != "" {
		if cat, ok := cc.categories.Get(categoryID); ok && cat != nil {
			categoryName = cat.Name
		}
	}

	departmentID := ""
	departmentName := ""
	if prod != nil && !prod.DepartmentID.IsZero() {
		departmentID = prod.DepartmentID.String()
		if dep, ok := cc.categories.Get(departmentID); ok && dep != nil {
			departmentName = dep.Name
		}
	}

	// Brand: the detail payload usually carries the name; the lookup cache
	// covers the SKUs where it is blank.
	brandID := ""
	if !sku.BrandID.IsZero() {
		brandID = sku.BrandID.String()
	}
	brandName := sku.BrandName
	if brandName == "" && brandID != "" {
		if b, ok := cc.brands.Get(brandID); ok && b != nil {
			brandName = b.Name
		}
	}

	ean := sku.EAN()
	dim := sku.Dimension
	real := sku.RealDimension

	dec := Evaluate(DecisionInput{
		SKU:               sku,
		Product:           prod,
		SalesChannels:     channels,
		Price:             price,
		Stock:             stock,
		IncludePriceStock: includePriceStock,
	})

	name := sku.NameComplete
	if name == "" {
		name = sku.SkuName
	}

	row := Row{
		EAN:        ean,
		Activo:     siNo(dec.Active),
		Foto:       siNo(sku.HasImages()),
		Catalogado: siNo(dec.Cataloged),

		IDSKU:                itoa(skuID),
		NombreSku:            name,
		ActivarSKU:           siNo(sku.ActivateIfPossible),
		SkuActivo:            siNo(sku.IsActive),
		EANSKU:               ean,
		Altura:               fmtNum(dim.Height),
		AlturaReal:           fmtNum(real.RealHeight),
		Anchura:              fmtNum(dim.Width),
		AnchuraReal:          fmtNum(real.RealWidth),
		Longitud:             fmtNum(dim.Length),
		LongitudReal:         fmtNum(real.RealLength),
		Peso:                 fmtNum(dim.Weight),
		PesoReal:             fmtNum(real.RealWeight),
		UnidadMedida:         sku.MeasurementUnit,
		MultiplicadorUnidad:  fmtNum(sku.UnitMultiplier),
		CodigoReferenciaSKU:  sku.RefID,
		ValorFidelidad:       fmtNum(sku.RewardValue),
		FechaEstimadaLlegada: sku.EstimatedDateArrival,
		CodigoFabricante:     sku.ManufacturerCode,

		IDProducto:     productID,
		NombreProducto: sku.ProductName,
		ProductoActivo: siNo(sku.IsProductActive),
		Kit:            siNo(sku.IsKit),

		IDDepartamento:     departmentID,
		NombreDepartamento: departmentName,
		IDCategoria:        categoryID,
		NombreCategoria:    categoryName,
		IDMarca:            brandID,
		Marca:              brandName,
		PesoVolumetrico:    fmtNum(dim.CubicWeight),
		Tiendas:            joinChannels(sku.SalesChannels),

		Motivo: dec.Reason(),
	}
	if !sku.CommercialConditionID.IsZero() {
		row.CondicionComercial = sku.CommercialConditionID.String()
	}

	// Product-derived columns stay blank when the lookup came back empty.
	row.CodigoReferenciaProducto = sku.ProductRefID
	if prod != nil {
		row.DescripcionCortaProducto = prod.ShortDescription
		if row.CodigoReferenciaProducto == "" {
			row.CodigoReferenciaProducto = prod.RefID
		}
		row.MostrarEnSitio = siNo(prod.IsVisible)
		row.LinkTexto = prod.LinkID
		row.DescripcionProducto = prod.Description
		row.FechaLanzamiento = prod.ReleaseDate
		row.PalabrasClave = prod.KeyWords
		row.TituloSitio = prod.Title
		row.DescripcionMetaTag = prod.MetaTagDescription
		if !prod.SupplierID.IsZero() {
			row.IDProveedor = prod.SupplierID.String()
		}
		row.MostrarSinStock = siNo(prod.ShowWithoutStock)
	}

	if includePriceStock {
		row.Precio = price
		row.Stock = stock
	}
	return row
}

// errorRow is the stub emitted when a SKU's detail could not be fetched at
// all. The three status columns carry the ERROR marker so the sheet is
// visibly distinct from a legitimate NO.
func errorRow(skuID int64, motivo string) Row {
	return Row{
		Activo:     "ERROR",
		Foto:       "ERROR",
		Catalogado: "ERROR",
		IDSKU:      itoa(skuID),
		Motivo:     motivo,
	}
}

func siNo(b bool) string {
	if b {
		return "SI"
	}
	return "NO"
}

// fmtNum renders a measurement, leaving the cell blank when the catalog
// never set it.
func fmtNum(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinChannels(channels []int) string {
	if len(channels) == 0 {
		return ""
	}
	parts := make([]string, len(channels))
	for i, c := range channels {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ", ")
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
