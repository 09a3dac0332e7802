package executive

// DefaultCostRatio approximates cost of goods as a fraction of revenue. The
// catalog carries no per-product cost data, so a fixed ratio stands in until
// real cost tracking lands.
const DefaultCostRatio = 0.60

// CostProvider estimates the cost of goods behind a revenue amount.
// Aggregators depend on this abstraction so a real cost source can replace
// the ratio proxy without touching aggregation logic.
type CostProvider interface {
	CostOf(revenue float64) float64
}

// FixedRatioCost implements CostProvider with a constant revenue fraction.
type FixedRatioCost struct {
	Ratio float64
}

// CostOf returns revenue multiplied by the configured ratio.
func (f FixedRatioCost) CostOf(revenue float64) float64 {
	return revenue * f.Ratio
}

// DefaultCostProvider returns the ratio proxy used across the service.
func DefaultCostProvider() CostProvider {
	return FixedRatioCost{Ratio: DefaultCostRatio}
}
