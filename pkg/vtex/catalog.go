package vtex

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

// SKUIDs returns one page of SKU identifiers. Pages start at 1.
func (c *Client) SKUIDs(ctx context.Context, page, pageSize int) ([]int64, error) {
	path := fmt.Sprintf("/api/catalog_system/pvt/sku/stockkeepingunitids?page=%d&pagesize=%d", page, pageSize)
	var ids []int64
	if _, err := c.getJSON(ctx, path, &ids, false); err != nil {
		return nil, err
	}
	return ids, nil
}

// AllSKUIDs walks the paginated SKU id listing sequentially and returns
// every id for the account. Pagination stops at the first short or empty
// page. Any page failure aborts discovery outright: a partial id list
// would silently drop catalog rows downstream. onPage, if non-nil, is
// called after each page with its number, size and the running total.
func (c *Client) AllSKUIDs(ctx context.Context, pageSize int, onPage func(page, count, total int)) ([]int64, error) {
	var all []int64
	for page := 1; ; page++ {
		ids, err := c.SKUIDs(ctx, page, pageSize)
		if err != nil {
			return nil, eris.Wrapf(err, "vtex: sku ids page %d", page)
		}
		if len(ids) == 0 {
			break
		}
		all = append(all, ids...)
		if onPage != nil {
			onPage(page, len(ids), len(all))
		}
		if len(ids) < pageSize {
			break
		}
	}
	return all, nil
}

// SKUByID fetches the catalog detail for one SKU. Returns (nil, nil) when
// the SKU does not exist.
func (c *Client) SKUByID(ctx context.Context, skuID int64) (*SKUDetail, error) {
	var sku SKUDetail
	found, err := c.getJSON(ctx, "/api/catalog_system/pvt/sku/stockkeepingunitbyid/"+itoa(skuID), &sku, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &sku, nil
}

// SKUIDByEAN resolves an alternate barcode to its SKU id. Returns 0 when
// the code maps to nothing.
func (c *Client) SKUIDByEAN(ctx context.Context, ean string) (int64, error) {
	var ref SKURef
	found, err := c.getJSON(ctx, "/api/catalog_system/pvt/sku/stockkeepingunitbyean/"+ean, &ref, true)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return ref.ID, nil
}

// ProductByID fetches a product lookup record. Returns (nil, nil) when the
// product does not exist.
func (c *Client) ProductByID(ctx context.Context, productID string) (*Product, error) {
	var p Product
	found, err := c.getJSON(ctx, "/api/catalog/pvt/product/"+productID, &p, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

// CategoryByID fetches a category (or department) lookup record. Returns
// (nil, nil) when the category does not exist.
func (c *Client) CategoryByID(ctx context.Context, categoryID string) (*Category, error) {
	var cat Category
	found, err := c.getJSON(ctx, "/api/catalog/pvt/category/"+categoryID, &cat, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &cat, nil
}

// BrandByID fetches a brand lookup record. Returns (nil, nil) when the
// brand does not exist.
func (c *Client) BrandByID(ctx context.Context, brandID string) (*Brand, error) {
	var b Brand
	found, err := c.getJSON(ctx, "/api/catalog_system/pvt/brand/"+brandID, &b, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &b, nil
}
