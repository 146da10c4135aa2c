package export

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/alamesa/catalog-cli/pkg/vtex"
)

// DecisionInput is everything the activity rules look at for one SKU. A nil
// Product means its lookup came back empty or failed; Price and Stock are
// nil when not fetched or absent upstream.
type DecisionInput struct {
	SKU               *vtex.SKUDetail
	Product           *vtex.Product
	SalesChannels     []int
	Price             *float64
	Stock             *int
	IncludePriceStock bool
}

// Decision is the evaluated state of one SKU.
type Decision struct {
	Active    bool
	Cataloged bool
	QualityOK bool
	Reasons   []string
}

// Reason returns the comma-joined failure reasons, empty when active.
func (d Decision) Reason() string {
	if d.Active {
		return ""
	}
	return strings.Join(d.Reasons, ", ")
}

// Category names that disqualify a SKU regardless of content quality.
// Compared case- and accent-insensitively.
var disallowedCategories = map[string]bool{
	"deshabilitados":    true,
	"categoria default": true,
}

// Evaluate applies the activity rules in their fixed order and returns the
// accumulated reasons. The order is part of the output contract: the Motivo
// column is diffed between runs.
func Evaluate(in DecisionInput) Decision {
	sku := in.SKU
	hasImage := sku.HasImages()
	quality := qualityOK(sku, productDescription(in.Product))

	var reasons []string
	if !hasImage {
		reasons = append(reasons, "Sin imagenes")
	}
	if !quality {
		if sku.ProductName != "" && isAllUpper(sku.ProductName) {
			reasons = append(reasons, "Nombre todo mayusculas")
		}
		for _, name := range orderedCategoryNames(sku.ProductCategories) {
			if disallowedCategories[foldKey(name)] {
				reasons = append(reasons, "Categoria: "+name)
				break
			}
		}
		if len(reasons) == 0 {
			reasons = append(reasons, "No catalogado (calidad)")
		}
	}
	if !sku.IsActive {
		reasons = append(reasons, "SKU inactivo")
	}
	if !sku.IsProductActive {
		reasons = append(reasons, "Producto inactivo")
	}
	switch {
	case in.Product != nil && !in.Product.IsVisible:
		reasons = append(reasons, "No visible en sitio")
	case in.Product == nil:
		reasons = append(reasons, "Sin datos de producto")
	}
	if in.Product != nil && !in.Product.ShowWithoutStock {
		reasons = append(reasons, "ShowWithoutStock desactivado")
	}
	if !channelMatch(sku.SalesChannels, in.SalesChannels) {
		reasons = append(reasons, "Sin ninguno de SC ["+joinInts(in.SalesChannels)+"]")
	}
	if in.IncludePriceStock {
		if in.Price == nil {
			reasons = append(reasons, "Sin precio")
		}
		if in.Stock != nil && *in.Stock <= 0 {
			reasons = append(reasons, "Sin stock")
		}
	}

	active := len(reasons) == 0
	return Decision{
		Active:    active,
		Cataloged: active && hasImage && strings.TrimSpace(sku.EAN()) != "",
		QualityOK: quality,
		Reasons:   reasons,
	}
}

// qualityOK checks the content-quality gate: product name not shouted in
// caps, at least one image, description not all caps, and no disallowed
// category anywhere in the SKU's category path.
func qualityOK(sku *vtex.SKUDetail, description string) bool {
	if sku.ProductName == "" || isAllUpper(sku.ProductName) {
		return false
	}
	if !sku.HasImages() {
		return false
	}
	if description != "" && isAllUpper(description) {
		return false
	}
	for _, name := range sku.ProductCategories {
		if disallowedCategories[foldKey(name)] {
			return false
		}
	}
	return true
}

func productDescription(p *vtex.Product) string {
	if p == nil {
		return ""
	}
	return p.Description
}

// isAllUpper reports whether s contains cased letters and every one of them
// is uppercase. A digits-only or symbols-only string is not "all caps".
func isAllUpper(s string) bool {
	hasCased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasCased = true
		}
	}
	return hasCased
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldKey lowercases, trims and strips combining accents so that
// "Categoría Default" and "categoria default" compare equal.
func foldKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

func channelMatch(skuChannels, wanted []int) bool {
	for _, sc := range skuChannels {
		for _, w := range wanted {
			if sc == w {
				return true
			}
		}
	}
	return false
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// orderedCategoryNames returns the SKU's category names level by level, so
// the first disallowed hit is deterministic.
func orderedCategoryNames(categories map[string]string) []string {
	keys := make([]string, 0, len(categories))
	for k := range categories {
		keys = append(keys, k)
	}
	// Category keys are numeric ids; sort them numerically with a string
	// fallback for anything unexpected.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && lessCategoryKey(keys[j], keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = categories[k]
	}
	return names
}

func lessCategoryKey(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
