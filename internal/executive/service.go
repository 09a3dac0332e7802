package executive

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Fixed aggregation policy. These are deliberate constants, not runtime
// configuration.
const (
	lowStockThreshold = 5
	staleWindowDays   = 30
	staleListLimit    = 50
	topStockLimit     = 10
	topCustomersLimit = 20
	topProductsLimit  = 20

	defaultSnapshotHistory = 30
)

// Repository exposes the read queries and snapshot writes the executive
// service relies on. Every revenue-bearing query excludes cancelled orders.
type Repository interface {
	TotalRevenue(ctx context.Context) (float64, error)
	TotalOrders(ctx context.Context) (int64, error)
	PendingOrders(ctx context.Context) (int64, error)
	ActiveProductCount(ctx context.Context) (int64, error)
	DistinctCustomerCount(ctx context.Context) (int64, error)
	RevenueBetween(ctx context.Context, start, end time.Time) (float64, error)
	OrdersWithItemsBetween(ctx context.Context, start, end time.Time) ([]Order, error)
	ActiveProducts(ctx context.Context) ([]Product, error)
	RecentlySoldProductIDs(ctx context.Context, since time.Time) ([]string, error)
	ActiveInStockProductsExcluding(ctx context.Context, excluded []string, limit int) ([]Product, error)
	CustomerOrdersBetween(ctx context.Context, start, end time.Time) ([]CustomerOrder, error)
	OrderItemsBetween(ctx context.Context, start, end time.Time) ([]OrderItem, error)
	ReplaceSnapshot(ctx context.Context, snap Snapshot) error
	Snapshots(ctx context.Context, periodType string, limit int) ([]Snapshot, error)
}

// Service computes the executive KPIs from repository reads, optionally
// fronted by the versioned cache.
type Service struct {
	repo  Repository
	cache *Cache
	costs CostProvider
	clock func() time.Time
}

// NewService wires a Repository with the cache helper and cost provider.
// A nil cache disables caching; a nil cost provider falls back to the fixed
// ratio proxy.
func NewService(repo Repository, cache *Cache, costs CostProvider) *Service {
	if costs == nil {
		costs = DefaultCostProvider()
	}
	return &Service{repo: repo, cache: cache, costs: costs, clock: time.Now}
}

// WithClock overrides the service clock for testing.
func (s *Service) WithClock(fn func() time.Time) {
	if fn != nil {
		s.clock = fn
	}
}

func (s *Service) fetch(ctx context.Context, keyParts []string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	key, err := s.cache.BuildKey(ctx, keyParts...)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

// Overview aggregates the whole store history plus the current and previous
// calendar month. The seven sub-reads are independent and issued
// concurrently; any failure aborts the whole result.
func (s *Service) Overview(ctx context.Context) (OverviewKPIs, error) {
	now := s.clock()
	var out OverviewKPIs
	err := s.fetch(ctx, keyOverview(now.Format("2006-01-02")), &out, func(ctx context.Context) (interface{}, error) {
		return s.loadOverview(ctx, now)
	})
	if err != nil {
		return OverviewKPIs{}, err
	}
	return out, nil
}

func (s *Service) loadOverview(ctx context.Context, now time.Time) (OverviewKPIs, error) {
	loc := now.Location()
	year, month, _ := now.Date()
	startOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	endOfMonth := time.Date(year, month+1, 0, 23, 59, 59, 0, loc)
	startOfLastMonth := time.Date(year, month-1, 1, 0, 0, 0, 0, loc)
	endOfLastMonth := time.Date(year, month, 0, 23, 59, 59, 0, loc)

	var o OverviewKPIs
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.repo.TotalRevenue(ctx)
		o.TotalRevenue = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.TotalOrders(ctx)
		o.TotalOrders = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.PendingOrders(ctx)
		o.PendingOrders = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.ActiveProductCount(ctx)
		o.TotalProducts = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.DistinctCustomerCount(ctx)
		o.TotalCustomers = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.RevenueBetween(ctx, startOfMonth, endOfMonth)
		o.RevenueThisMonth = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.RevenueBetween(ctx, startOfLastMonth, endOfLastMonth)
		o.RevenueLastMonth = v
		return err
	})
	if err := g.Wait(); err != nil {
		return OverviewKPIs{}, err
	}

	if o.TotalOrders > 0 {
		o.AvgTicket = o.TotalRevenue / float64(o.TotalOrders)
	}
	o.RevenueGrowthPct = growthPct(o.RevenueThisMonth, o.RevenueLastMonth)
	return o, nil
}

// Financial buckets revenue by day and month inside the resolved period and
// compares against the immediately preceding window of identical duration.
func (s *Service) Financial(ctx context.Context, filter PeriodFilter) (FinancialKPIs, error) {
	var out FinancialKPIs
	err := s.fetch(ctx, keyPeriod("financial", filter), &out, func(ctx context.Context) (interface{}, error) {
		return s.loadFinancial(ctx, filter)
	})
	if err != nil {
		return FinancialKPIs{}, err
	}
	return out, nil
}

func (s *Service) loadFinancial(ctx context.Context, filter PeriodFilter) (FinancialKPIs, error) {
	orders, err := s.repo.OrdersWithItemsBetween(ctx, filter.Start, filter.End)
	if err != nil {
		return FinancialKPIs{}, err
	}

	byDay := make(map[string]float64)
	byMonth := make(map[string]float64)
	var totalRevenue float64
	for _, order := range orders {
		totalRevenue += order.Total
		day := order.CreatedAt.Format("2006-01-02")
		byDay[day] += order.Total
		byMonth[day[:7]] += order.Total
	}

	cost := s.costs.CostOf(totalRevenue)
	profit := totalRevenue - cost
	out := FinancialKPIs{
		RevenueByDay:   sortedDayPoints(byDay),
		RevenueByMonth: sortedMonthPoints(byMonth),
		TotalRevenue:   totalRevenue,
		TotalCost:      cost,
		GrossProfit:    profit,
		GrossMarginPct: ratioPct(profit, totalRevenue),
		AvgTicket:      safeDiv(totalRevenue, len(orders)),
	}

	prev := filter.Previous()
	prevRevenue, err := s.repo.RevenueBetween(ctx, prev.Start, prev.End)
	if err != nil {
		return FinancialKPIs{}, err
	}
	out.GrowthPct = growthPct(totalRevenue, prevRevenue)
	return out, nil
}

// Inventory summarises active products and surfaces in-stock products with
// no sales in the trailing 30 days via a right-anti-join against recently
// sold product ids.
func (s *Service) Inventory(ctx context.Context) (InventoryKPIs, error) {
	now := s.clock()
	var out InventoryKPIs
	err := s.fetch(ctx, keyInventory(now.Format("2006-01-02")), &out, func(ctx context.Context) (interface{}, error) {
		return s.loadInventory(ctx, now)
	})
	if err != nil {
		return InventoryKPIs{}, err
	}
	return out, nil
}

func (s *Service) loadInventory(ctx context.Context, now time.Time) (InventoryKPIs, error) {
	var (
		products []Product
		stale    []Product
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.repo.ActiveProducts(ctx)
		return err
	})
	g.Go(func() error {
		since := now.AddDate(0, 0, -staleWindowDays)
		sold, err := s.repo.RecentlySoldProductIDs(ctx, since)
		if err != nil {
			return err
		}
		stale, err = s.repo.ActiveInStockProductsExcluding(ctx, sold, staleListLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return InventoryKPIs{}, err
	}

	out := InventoryKPIs{TotalProducts: len(products)}
	for _, p := range products {
		switch {
		case p.Stock == 0:
			out.OutOfStock++
		case p.Stock <= lowStockThreshold:
			out.LowStock++
		}
		out.TotalStockValue += float64(p.Stock) * p.Price
	}

	ranked := make([]Product, len(products))
	copy(ranked, products)
	// Ties keep the repository's fetch order.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Stock > ranked[j].Stock })
	if len(ranked) > topStockLimit {
		ranked = ranked[:topStockLimit]
	}
	out.TopByStock = make([]StockRank, 0, len(ranked))
	for _, p := range ranked {
		out.TopByStock = append(out.TopByStock, StockRank{ID: p.ID, Name: p.Name, Stock: p.Stock})
	}

	out.NoSalesLast30Days = make([]StaleProduct, 0, len(stale))
	for _, p := range stale {
		out.NoSalesLast30Days = append(out.NoSalesLast30Days, StaleProduct{ID: p.ID, Name: p.Name, Stock: p.Stock, Price: p.Price})
	}
	return out, nil
}

// Customers groups non-cancelled orders in range by customer email. The
// representative name per email is the first one encountered under the
// repository's descending fetch order.
func (s *Service) Customers(ctx context.Context, filter PeriodFilter) (CustomerKPIs, error) {
	var out CustomerKPIs
	err := s.fetch(ctx, keyPeriod("customers", filter), &out, func(ctx context.Context) (interface{}, error) {
		return s.loadCustomers(ctx, filter)
	})
	if err != nil {
		return CustomerKPIs{}, err
	}
	return out, nil
}

func (s *Service) loadCustomers(ctx context.Context, filter PeriodFilter) (CustomerKPIs, error) {
	rows, err := s.repo.CustomerOrdersBetween(ctx, filter.Start, filter.End)
	if err != nil {
		return CustomerKPIs{}, err
	}

	index := make(map[string]int)
	customers := make([]CustomerRank, 0)
	for _, row := range rows {
		i, ok := index[row.CustomerEmail]
		if !ok {
			i = len(customers)
			index[row.CustomerEmail] = i
			customers = append(customers, CustomerRank{Name: row.CustomerName, Email: row.CustomerEmail})
		}
		customers[i].Orders++
		customers[i].TotalSpent += row.Total
	}

	out := CustomerKPIs{
		TotalCustomers: len(customers),
		// Proxy: distinct buyers in the window, not a true new cohort.
		NewCustomersThisPeriod: len(customers),
		AvgOrdersPerCustomer:   safeDiv(float64(len(rows)), len(customers)),
	}
	repeat := 0
	for _, c := range customers {
		if c.Orders > 1 {
			repeat++
		}
	}
	out.RepurchaseRate = ratioPct(float64(repeat), float64(len(customers)))

	top := make([]CustomerRank, len(customers))
	copy(top, customers)
	sort.SliceStable(top, func(i, j int) bool { return top[i].TotalSpent > top[j].TotalSpent })
	if len(top) > topCustomersLimit {
		top = top[:topCustomersLimit]
	}
	out.TopCustomers = top
	return out, nil
}

// Profitability accumulates quantity and revenue per product key for order
// items in range. Items without a product id fall under the "unknown" key.
func (s *Service) Profitability(ctx context.Context, filter PeriodFilter) (ProfitabilityKPIs, error) {
	var out ProfitabilityKPIs
	err := s.fetch(ctx, keyPeriod("profitability", filter), &out, func(ctx context.Context) (interface{}, error) {
		return s.loadProfitability(ctx, filter)
	})
	if err != nil {
		return ProfitabilityKPIs{}, err
	}
	return out, nil
}

func (s *Service) loadProfitability(ctx context.Context, filter PeriodFilter) (ProfitabilityKPIs, error) {
	items, err := s.repo.OrderItemsBetween(ctx, filter.Start, filter.End)
	if err != nil {
		return ProfitabilityKPIs{}, err
	}

	index := make(map[string]int)
	ranks := make([]ProductRank, 0)
	for _, item := range items {
		key := "unknown"
		if item.ProductID != nil && *item.ProductID != "" {
			key = *item.ProductID
		}
		i, ok := index[key]
		if !ok {
			i = len(ranks)
			index[key] = i
			ranks = append(ranks, ProductRank{ProductID: key})
		}
		ranks[i].Name = item.ProductName
		ranks[i].QuantitySold += item.Quantity
		ranks[i].Revenue += item.TotalPrice
	}

	byRevenue := make([]ProductRank, len(ranks))
	copy(byRevenue, ranks)
	sort.SliceStable(byRevenue, func(i, j int) bool { return byRevenue[i].Revenue > byRevenue[j].Revenue })
	if len(byRevenue) > topProductsLimit {
		byRevenue = byRevenue[:topProductsLimit]
	}

	byVolume := make([]ProductRank, len(ranks))
	copy(byVolume, ranks)
	sort.SliceStable(byVolume, func(i, j int) bool { return byVolume[i].QuantitySold > byVolume[j].QuantitySold })
	if len(byVolume) > topProductsLimit {
		byVolume = byVolume[:topProductsLimit]
	}

	return ProfitabilityKPIs{TopProductsByRevenue: byRevenue, TopProductsByVolume: byVolume}, nil
}

// SnapshotHistory lists persisted snapshots for one period type, newest
// first, for historical trend lines.
func (s *Service) SnapshotHistory(ctx context.Context, periodType string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = defaultSnapshotHistory
	}
	return s.repo.Snapshots(ctx, periodType, limit)
}

func sortedDayPoints(buckets map[string]float64) []RevenuePoint {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	points := make([]RevenuePoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, RevenuePoint{Date: k, Value: buckets[k]})
	}
	return points
}

func sortedMonthPoints(buckets map[string]float64) []MonthRevenuePoint {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	points := make([]MonthRevenuePoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, MonthRevenuePoint{Month: k, Value: buckets[k]})
	}
	return points
}
