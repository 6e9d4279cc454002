package pipeline

import "github.com/lotnotify/lotbridge/internal/profile"

// targetPrice is the most the operator should bid for a lot given its
// market value: discounted MMR minus fixed costs, expected repairs, and
// the profit buffer. Returns 0 when no market value is known.
func targetPrice(eco profile.Economics, mmr float64) float64 {
	if mmr <= 0 {
		return 0
	}
	t := mmr*eco.MMRMultiplier - eco.FixedCosts - eco.RepairCost - eco.ProfitBuffer
	if t < 0 {
		return 0
	}
	return t
}

// carFix is the all-in cost of a lot: current price plus expected repairs
// plus the delivery estimate. Returns 0 when the price is unknown.
func carFix(eco profile.Economics, price, delivery float64) float64 {
	if price <= 0 {
		return 0
	}
	return price + eco.RepairCost + delivery
}
