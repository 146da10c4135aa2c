package vtex

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalTolerance(t *testing.T) {
	// The catalog API serializes the same id as a number in one payload and
	// a string in the next.
	var s struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a": 42, "b": "42", "c": null}`), &s)
	require.NoError(t, err)
	assert.Equal(t, ID("42"), s.A)
	assert.Equal(t, ID("42"), s.B)
	assert.True(t, s.C.IsZero())
	assert.True(t, ID("0").IsZero())
	assert.False(t, ID("7").IsZero())
}

func TestSKUDetail_EANPrefersAlternateIDs(t *testing.T) {
	sku := SKUDetail{Ean: "legacy"}
	assert.Equal(t, "legacy", sku.EAN())

	sku.AlternateIDs.Ean = "7791234567890"
	assert.Equal(t, "7791234567890", sku.EAN())
}

func TestInventory_Available(t *testing.T) {
	inv := Inventory{Balance: []WarehouseBalance{
		{TotalQuantity: 10, ReservedQuantity: 3},
		{TotalQuantity: 2, ReservedQuantity: 5}, // oversold, clamps to 0
		{TotalQuantity: 1, ReservedQuantity: 0},
	}}
	assert.Equal(t, 8, inv.Available())
}

func TestInventory_HasStock(t *testing.T) {
	// All reserved: nothing to sell.
	inv := Inventory{Balance: []WarehouseBalance{{TotalQuantity: 5, ReservedQuantity: 5}}}
	assert.False(t, inv.HasStock())

	// The unlimited sentinel wins regardless of quantities.
	inv.Balance = append(inv.Balance, WarehouseBalance{HasUnlimitedQuantity: true})
	assert.True(t, inv.HasStock())

	inv = Inventory{Balance: []WarehouseBalance{{TotalQuantity: 6, ReservedQuantity: 5}}}
	assert.True(t, inv.HasStock())

	assert.False(t, (&Inventory{}).HasStock())
}
