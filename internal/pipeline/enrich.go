package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/lotnotify/lotbridge/internal/lot"
	"github.com/lotnotify/lotbridge/internal/model"
)

// enrichStep augments a record via an external lookup. Steps return the
// record unchanged on any failure so the failure handling is uniform: an
// unreachable resolver just means an unenriched lot, never a pipeline
// error.
type enrichStep func(ctx context.Context, rec model.EnrichedLot) model.EnrichedLot

func (p *Pipeline) enrichSteps() []enrichStep {
	return []enrichStep{p.resolveVIN, p.resolveValue}
}

// resolveVIN asks the external resolver for the full VIN and odometer.
// Skipped when the resolver is not configured, the lot has no id, or the
// local VIN is already complete. Resolved fields only fill gaps; local
// data is never overwritten.
func (p *Pipeline) resolveVIN(ctx context.Context, rec model.EnrichedLot) model.EnrichedLot {
	if p.resolver == nil || rec.Input.LotID == "" || rec.FullVIN != "" {
		return rec
	}

	res, err := p.resolver.Resolve(ctx, rec.Input.LotID)
	if err != nil {
		zap.L().Warn("pipeline: vin resolution skipped",
			zap.String("lot_id", rec.Input.LotID),
			zap.Error(err),
		)
		p.metrics.EnrichFailures.WithLabelValues("resolver").Inc()
		return rec
	}

	if res.VIN != "" && !lot.MaskedVIN(res.VIN) {
		rec.FullVIN = res.VIN
	}
	if rec.Input.OdometerRaw == "" {
		rec.ResolvedOdometer = res.Odometer
	}
	if rec.Input.TitleCode == "" {
		rec.Input.TitleCode = res.TitleCode
	}
	if rec.Input.SellerName == "" {
		rec.Input.SellerName = res.Seller
	}
	return rec
}

// resolveValue asks the valuation service for the market value. Gated on a
// full unmasked VIN, so it naturally sequences after resolveVIN.
func (p *Pipeline) resolveValue(ctx context.Context, rec model.EnrichedLot) model.EnrichedLot {
	if p.valuation == nil || rec.FullVIN == "" || lot.MaskedVIN(rec.FullVIN) {
		return rec
	}

	odo := rec.Input.OdometerRaw
	if odo == "" {
		odo = rec.ResolvedOdometer
	}

	value, err := p.valuation.Value(ctx, rec.FullVIN, odo)
	if err != nil {
		zap.L().Warn("pipeline: valuation skipped",
			zap.String("vin", rec.FullVIN),
			zap.Error(err),
		)
		p.metrics.EnrichFailures.WithLabelValues("valuation").Inc()
		return rec
	}

	if value > 0 {
		rec.MarketValue = value
	}
	return rec
}
