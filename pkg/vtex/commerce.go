package vtex

import "context"

// PriceBySKU fetches the seller's price quote for one SKU. Returns
// (nil, nil) when the SKU has no price record — semantically distinct
// from a zero price.
func (c *Client) PriceBySKU(ctx context.Context, skuID int64) (*PriceQuote, error) {
	var quote PriceQuote
	found, err := c.getJSON(ctx, "/api/pricing/prices/"+itoa(skuID), &quote, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &quote, nil
}

// InventoryBySKU fetches the seller's per-warehouse inventory for one SKU.
// Returns (nil, nil) when the SKU has no inventory record.
func (c *Client) InventoryBySKU(ctx context.Context, skuID int64) (*Inventory, error) {
	var inv Inventory
	found, err := c.getJSON(ctx, "/api/logistics/pvt/inventory/skus/"+itoa(skuID), &inv, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &inv, nil
}
