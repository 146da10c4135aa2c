package vtex

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is a marketplace entity identifier. The catalog API is inconsistent
// about whether it serializes ids as numbers or strings, so the tolerance
// lives here at the deserialization boundary and nowhere else.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// IsZero reports whether the id is absent. The API uses both null and 0
// for "no reference".
func (id ID) IsZero() bool { return id == "" || id == "0" }

// AlternateIDs carries the alternate identifiers of a SKU.
type AlternateIDs struct {
	Ean   string `json:"Ean"`
	RefID string `json:"RefId"`
}

// Image is one catalog image attached to a SKU.
type Image struct {
	ImageURL  string `json:"ImageUrl"`
	ImageName string `json:"ImageName"`
	FileID    int64  `json:"FileId"`
}

// Dimension holds packed measurements of a SKU.
type Dimension struct {
	CubicWeight float64 `json:"cubicweight"`
	Height      float64 `json:"height"`
	Length      float64 `json:"length"`
	Weight      float64 `json:"weight"`
	Width       float64 `json:"width"`
}

// RealDimension holds the unpacked measurements of a SKU.
type RealDimension struct {
	RealCubicWeight float64 `json:"realCubicWeight"`
	RealHeight      float64 `json:"realHeight"`
	RealLength      float64 `json:"realLength"`
	RealWeight      float64 `json:"realWeight"`
	RealWidth       float64 `json:"realWidth"`
}

// SKUDetail is the catalog truth for one SKU as returned by
// stockkeepingunitbyid. Immutable once fetched for a run.
type SKUDetail struct {
	ID                    int64             `json:"Id"`
	ProductID             ID                `json:"ProductId"`
	NameComplete          string            `json:"NameComplete"`
	SkuName               string            `json:"SkuName"`
	ProductName           string            `json:"ProductName"`
	ProductRefID          string            `json:"ProductRefId"`
	RefID                 string            `json:"RefId"`
	IsActive              bool              `json:"IsActive"`
	ActivateIfPossible    bool              `json:"ActivateIfPossible"`
	IsProductActive       bool              `json:"IsProductActive"`
	Ean                   string            `json:"Ean"`
	AlternateIDs          AlternateIDs      `json:"AlternateIds"`
	CategoryID            ID                `json:"CategoryId"`
	BrandID               ID                `json:"BrandId"`
	BrandName             string            `json:"BrandName"`
	Images                []Image           `json:"Images"`
	SalesChannels         []int             `json:"SalesChannels"`
	ProductCategories     map[string]string `json:"ProductCategories"`
	Dimension             Dimension         `json:"Dimension"`
	RealDimension         RealDimension     `json:"RealDimension"`
	MeasurementUnit       string            `json:"MeasurementUnit"`
	UnitMultiplier        float64           `json:"UnitMultiplier"`
	RewardValue           float64           `json:"RewardValue"`
	EstimatedDateArrival  string            `json:"EstimatedDateArrival"`
	ManufacturerCode      string            `json:"ManufacturerCode"`
	CommercialConditionID ID                `json:"CommercialConditionId"`
	IsKit                 bool              `json:"IsKit"`
}

// EAN returns the SKU's barcode, preferring the alternate-id block over the
// legacy top-level field.
func (s *SKUDetail) EAN() string {
	if s.AlternateIDs.Ean != "" {
		return s.AlternateIDs.Ean
	}
	return s.Ean
}

// HasImages reports whether the SKU carries at least one catalog image.
func (s *SKUDetail) HasImages() bool { return len(s.Images) > 0 }

// Product is the parent-product subset used by the decision engine and the
// export columns.
type Product struct {
	ID                 ID     `json:"Id"`
	Name               string `json:"Name"`
	DepartmentID       ID     `json:"DepartmentId"`
	CategoryID         ID     `json:"CategoryId"`
	BrandID            ID     `json:"BrandId"`
	LinkID             string `json:"LinkId"`
	RefID              string `json:"RefId"`
	IsVisible          bool   `json:"IsVisible"`
	Description        string `json:"Description"`
	ShortDescription   string `json:"DescriptionShort"`
	ReleaseDate        string `json:"ReleaseDate"`
	KeyWords           string `json:"KeyWords"`
	Title              string `json:"Title"`
	MetaTagDescription string `json:"MetaTagDescription"`
	SupplierID         ID     `json:"SupplierId"`
	ShowWithoutStock   bool   `json:"ShowWithoutStock"`
	IsActive           bool   `json:"IsActive"`
}

// Category is a category or department lookup record.
type Category struct {
	ID               ID     `json:"Id"`
	Name             string `json:"Name"`
	FatherCategoryID ID     `json:"FatherCategoryId"`
	IsActive         bool   `json:"IsActive"`
}

// Brand is a brand lookup record.
type Brand struct {
	ID       ID     `json:"Id"`
	Name     string `json:"Name"`
	IsActive bool   `json:"IsActive"`
}

// SKURef is the thin record returned when resolving an alternate code.
type SKURef struct {
	ID int64 `json:"Id"`
}

// PriceQuote is the seller's price for one SKU. A nil BasePrice means the
// SKU has a price record without a base price, which counts as absent.
type PriceQuote struct {
	ItemID    string   `json:"itemId"`
	BasePrice *float64 `json:"basePrice"`
	ListPrice *float64 `json:"listPrice"`
	CostPrice *float64 `json:"costPrice"`
}

// WarehouseBalance is per-warehouse inventory for one SKU.
type WarehouseBalance struct {
	WarehouseID          string `json:"warehouseId"`
	WarehouseName        string `json:"warehouseName"`
	TotalQuantity        int    `json:"totalQuantity"`
	ReservedQuantity     int    `json:"reservedQuantity"`
	HasUnlimitedQuantity bool   `json:"hasUnlimitedQuantity"`
}

// Available returns the non-negative sellable quantity in this warehouse.
func (w WarehouseBalance) Available() int {
	avail := w.TotalQuantity - w.ReservedQuantity
	if avail < 0 {
		return 0
	}
	return avail
}

// Inventory aggregates warehouse balances for one SKU.
type Inventory struct {
	SkuID   string             `json:"skuId"`
	Balance []WarehouseBalance `json:"balance"`
}

// Available sums the sellable quantity across warehouses.
func (inv *Inventory) Available() int {
	total := 0
	for _, b := range inv.Balance {
		total += b.Available()
	}
	return total
}

// HasStock reports whether any warehouse can sell: either an unlimited
// sentinel or a positive available quantity short-circuits to true.
func (inv *Inventory) HasStock() bool {
	for _, b := range inv.Balance {
		if b.HasUnlimitedQuantity || b.TotalQuantity > b.ReservedQuantity {
			return true
		}
	}
	return false
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
