package models

// ProductRevenue is one entry of the KPI top-products ranking.
type ProductRevenue struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Revenue     float64 `json:"revenue"`
}

// CategoryRevenue is revenue grouped by product category.
type CategoryRevenue struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
}

// KPISnapshot is the materialized dashboard headline for one analytics run.
// With no orders it is the zero value with empty (non-nil) slices, never an
// error: the dashboard must render before the first upload.
type KPISnapshot struct {
	TotalRevenue      float64           `json:"total_revenue"`
	TotalOrders       int               `json:"total_orders"`
	AvgOrderValue     float64           `json:"avg_order_value"`
	ChurnRate         float64           `json:"churn_rate"`
	TopProducts       []ProductRevenue  `json:"top_products"`
	RevenueByCategory []CategoryRevenue `json:"revenue_by_category"`
}
