package export

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alamesa/catalog-cli/pkg/vtex"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

// healthySKU is a SKU that passes every rule when paired with
// healthyProduct.
func healthySKU() *vtex.SKUDetail {
	return &vtex.SKUDetail{
		ID:              1,
		ProductName:     "Yerba Mate Organica 1kg",
		IsActive:        true,
		IsProductActive: true,
		Images:          []vtex.Image{{ImageURL: "https://img.test/1.jpg"}},
		SalesChannels:   []int{1},
		AlternateIDs:    vtex.AlternateIDs{Ean: "7791234567890"},
	}
}

func healthyProduct() *vtex.Product {
	return &vtex.Product{
		IsVisible:        true,
		ShowWithoutStock: true,
		Description:      "Yerba con palo, secado natural.",
	}
}

func healthyInput() DecisionInput {
	return DecisionInput{
		SKU:               healthySKU(),
		Product:           healthyProduct(),
		SalesChannels:     []int{1, 3},
		Price:             ptrF(1500),
		Stock:             ptrI(12),
		IncludePriceStock: true,
	}
}

func TestEvaluate_HealthySKUIsActive(t *testing.T) {
	dec := Evaluate(healthyInput())
	assert.True(t, dec.Active)
	assert.True(t, dec.Cataloged)
	assert.True(t, dec.QualityOK)
	assert.Empty(t, dec.Reasons)
	assert.Equal(t, "", dec.Reason())
}

func TestEvaluate_ReasonOrderIsStable(t *testing.T) {
	// No image and zero stock, everything else fine: exactly these two
	// reasons, in rule order. The Motivo column is diffed between runs.
	in := healthyInput()
	in.SKU.Images = nil
	in.Stock = ptrI(0)

	dec := Evaluate(in)
	assert.False(t, dec.Active)
	assert.Equal(t, []string{"Sin imagenes", "Sin stock"}, dec.Reasons)
	assert.Equal(t, "Sin imagenes, Sin stock", dec.Reason())
}

func TestEvaluate_AllCapsName(t *testing.T) {
	in := healthyInput()
	in.SKU.ProductName = "YERBA MATE ORGANICA 1KG"

	dec := Evaluate(in)
	assert.False(t, dec.QualityOK)
	assert.Equal(t, []string{"Nombre todo mayusculas"}, dec.Reasons)
}

func TestEvaluate_DisallowedCategory(t *testing.T) {
	in := healthyInput()
	in.SKU.ProductCategories = map[string]string{"10": "Almacén", "11": "Categoría Default"}

	dec := Evaluate(in)
	assert.False(t, dec.QualityOK)
	assert.Equal(t, []string{"Categoria: Categoría Default"}, dec.Reasons)
}

func TestEvaluate_QualityFallbackReason(t *testing.T) {
	// An all-caps description fails quality without tripping the name or
	// category sub-checks, so the generic reason appears.
	in := healthyInput()
	in.Product.Description = "DESCRIPCION GRITADA EN MAYUSCULAS"

	dec := Evaluate(in)
	assert.False(t, dec.QualityOK)
	assert.Equal(t, []string{"No catalogado (calidad)"}, dec.Reasons)
}

func TestEvaluate_NoFallbackWhenImageReasonPresent(t *testing.T) {
	// The missing image already explains the quality failure; the generic
	// reason must not pile on.
	in := healthyInput()
	in.SKU.Images = nil
	in.Stock = ptrI(5)

	dec := Evaluate(in)
	assert.Equal(t, []string{"Sin imagenes"}, dec.Reasons)
}

func TestEvaluate_InactiveFlags(t *testing.T) {
	in := healthyInput()
	in.SKU.IsActive = false
	in.SKU.IsProductActive = false

	dec := Evaluate(in)
	assert.Equal(t, []string{"SKU inactivo", "Producto inactivo"}, dec.Reasons)
}

func TestEvaluate_ProductVisibility(t *testing.T) {
	in := healthyInput()
	in.Product.IsVisible = false
	dec := Evaluate(in)
	assert.Equal(t, []string{"No visible en sitio"}, dec.Reasons)

	in = healthyInput()
	in.Product = nil
	dec = Evaluate(in)
	assert.Equal(t, []string{"Sin datos de producto"}, dec.Reasons)
}

func TestEvaluate_ShowWithoutStockOff(t *testing.T) {
	in := healthyInput()
	in.Product.ShowWithoutStock = false

	dec := Evaluate(in)
	assert.Equal(t, []string{"ShowWithoutStock desactivado"}, dec.Reasons)
}

func TestEvaluate_SalesChannelMismatch(t *testing.T) {
	in := healthyInput()
	in.SKU.SalesChannels = []int{5}

	dec := Evaluate(in)
	assert.Equal(t, []string{"Sin ninguno de SC [1, 3]"}, dec.Reasons)
}

func TestEvaluate_PriceAndStockRules(t *testing.T) {
	in := healthyInput()
	in.Price = nil
	dec := Evaluate(in)
	assert.Equal(t, []string{"Sin precio"}, dec.Reasons)

	in = healthyInput()
	in.Stock = ptrI(0)
	dec = Evaluate(in)
	assert.Equal(t, []string{"Sin stock"}, dec.Reasons)

	// Unknown stock is not "no stock".
	in = healthyInput()
	in.Stock = nil
	dec = Evaluate(in)
	assert.True(t, dec.Active)
}

func TestEvaluate_PriceStockSkippedWhenNotRequested(t *testing.T) {
	in := healthyInput()
	in.Price = nil
	in.Stock = ptrI(0)
	in.IncludePriceStock = false

	dec := Evaluate(in)
	assert.True(t, dec.Active)
}

func TestEvaluate_CatalogedNeedsEAN(t *testing.T) {
	in := healthyInput()
	in.SKU.AlternateIDs.Ean = ""
	in.SKU.Ean = "  "

	dec := Evaluate(in)
	assert.True(t, dec.Active)
	assert.False(t, dec.Cataloged)
}

func TestIsAllUpper(t *testing.T) {
	assert.True(t, isAllUpper("YERBA MATE 1KG"))
	assert.True(t, isAllUpper("ÑANDÚ"))
	assert.False(t, isAllUpper("Yerba Mate"))
	assert.False(t, isAllUpper("yerba"))
	// No cased characters at all.
	assert.False(t, isAllUpper("12345"))
	assert.False(t, isAllUpper(""))
}

func TestFoldKey(t *testing.T) {
	assert.Equal(t, "categoria default", foldKey("  Categoría Default "))
	assert.Equal(t, "deshabilitados", foldKey("DESHABILITADOS"))
}
