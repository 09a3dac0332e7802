package executive

import "time"

// OrderStatus enumerates the lifecycle states of a store order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Order is the read-only projection of an order owned by the order-management
// subsystem. Cancelled orders are excluded from every revenue-bearing
// aggregate.
type Order struct {
	ID            string
	Status        OrderStatus
	Total         float64
	Subtotal      float64
	CustomerName  string
	CustomerEmail string
	CreatedAt     time.Time
	Items         []OrderItem
}

// OrderItem is a line of an order. ProductID is nil for items sold outside
// the catalog (manual lines, removed products).
type OrderItem struct {
	ProductID   *string
	ProductName string
	Quantity    int
	UnitPrice   float64
	TotalPrice  float64
}

// Product is the read-only projection of a catalog product.
type Product struct {
	ID     string
	Name   string
	Stock  int
	Price  float64
	Active bool
}

// CustomerOrder is the narrow projection used by the customer aggregator.
type CustomerOrder struct {
	CustomerName  string
	CustomerEmail string
	Total         float64
	CreatedAt     time.Time
}

// Snapshot period types.
const (
	PeriodDaily   = "daily"
	PeriodMonthly = "monthly"
)

// Snapshot is a persisted point-in-time aggregate for a fixed period key.
// A snapshot is uniquely identified by (PeriodType, PeriodRef); rewriting a
// period replaces the previous row.
type Snapshot struct {
	PeriodType  string    `json:"periodType"`
	PeriodRef   string    `json:"periodRef"`
	Revenue     float64   `json:"revenue"`
	Cost        float64   `json:"cost"`
	GrossProfit float64   `json:"grossProfit"`
	OrdersCount int       `json:"ordersCount"`
	AvgTicket   float64   `json:"avgTicket"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// OverviewKPIs summarises the whole store: all-time totals plus the current
// and previous calendar month.
type OverviewKPIs struct {
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalOrders      int64   `json:"totalOrders"`
	AvgTicket        float64 `json:"avgTicket"`
	TotalProducts    int64   `json:"totalProducts"`
	TotalCustomers   int64   `json:"totalCustomers"`
	PendingOrders    int64   `json:"pendingOrders"`
	RevenueThisMonth float64 `json:"revenueThisMonth"`
	RevenueLastMonth float64 `json:"revenueLastMonth"`
	RevenueGrowthPct float64 `json:"revenueGrowthPct"`
}

// RevenuePoint is one day of bucketed revenue, keyed by ISO date.
type RevenuePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// MonthRevenuePoint is one month of bucketed revenue, keyed by YYYY-MM.
type MonthRevenuePoint struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// FinancialKPIs carries revenue, cost and growth figures for a period.
type FinancialKPIs struct {
	RevenueByDay   []RevenuePoint      `json:"revenueByDay"`
	RevenueByMonth []MonthRevenuePoint `json:"revenueByMonth"`
	TotalRevenue   float64             `json:"totalRevenue"`
	TotalCost      float64             `json:"totalCost"`
	GrossProfit    float64             `json:"grossProfit"`
	GrossMarginPct float64             `json:"grossMarginPct"`
	AvgTicket      float64             `json:"avgTicket"`
	GrowthPct      float64             `json:"growthPct"`
}

// StockRank is a product ranked by units in stock.
type StockRank struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

// StaleProduct is an in-stock product without recent sales.
type StaleProduct struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Stock int     `json:"stock"`
	Price float64 `json:"price"`
}

// InventoryKPIs summarises stock health across active products.
type InventoryKPIs struct {
	TotalProducts     int            `json:"totalProducts"`
	TotalStockValue   float64        `json:"totalStockValue"`
	OutOfStock        int            `json:"outOfStock"`
	LowStock          int            `json:"lowStock"`
	NoSalesLast30Days []StaleProduct `json:"noSalesLast30Days"`
	TopByStock        []StockRank    `json:"topByStock"`
}

// CustomerRank aggregates one customer, keyed by email.
type CustomerRank struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Orders     int     `json:"orders"`
	TotalSpent float64 `json:"totalSpent"`
}

// CustomerKPIs summarises buying behaviour within a period.
type CustomerKPIs struct {
	TotalCustomers int `json:"totalCustomers"`
	// NewCustomersThisPeriod currently mirrors TotalCustomers. A true new-cohort
	// count would compare each email's first-ever order date against the window.
	NewCustomersThisPeriod int            `json:"newCustomersThisPeriod"`
	AvgOrdersPerCustomer   float64        `json:"avgOrdersPerCustomer"`
	TopCustomers           []CustomerRank `json:"topCustomers"`
	RepurchaseRate         float64        `json:"repurchaseRate"`
}

// ProductRank aggregates sales of one product key within a period.
type ProductRank struct {
	ProductID    string  `json:"productId"`
	Name         string  `json:"name"`
	QuantitySold int     `json:"quantitySold"`
	Revenue      float64 `json:"revenue"`
}

// ProfitabilityKPIs ranks products by revenue and by units sold.
type ProfitabilityKPIs struct {
	TopProductsByRevenue []ProductRank `json:"topProductsByRevenue"`
	TopProductsByVolume  []ProductRank `json:"topProductsByVolume"`
}
