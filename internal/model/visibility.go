package model

import "time"

// VisibilityCheck is the audit record persisted for every SKU inspected by
// the visibility workflow: one row per SKU per run.
type VisibilityCheck struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Account   string    `json:"account"`
	SKUID     string    `json:"sku_id"`
	EAN       string    `json:"ean,omitempty"`
	Visible   bool      `json:"visible"`
	Reason    string    `json:"reason,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	Stock     *int      `json:"stock,omitempty"`
	HasImages *bool     `json:"has_images,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
