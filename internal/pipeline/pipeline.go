// Package pipeline turns inbound webhook events into delivered
// notifications: normalize, dedup, extract identity and price, enrich
// best-effort, filter against the active profile, format, and send. Every
// stage outcome is appended to the history store.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lotnotify/lotbridge/internal/config"
	"github.com/lotnotify/lotbridge/internal/lot"
	"github.com/lotnotify/lotbridge/internal/model"
	"github.com/lotnotify/lotbridge/internal/monitoring"
	"github.com/lotnotify/lotbridge/internal/profile"
	"github.com/lotnotify/lotbridge/internal/store"
	"github.com/lotnotify/lotbridge/pkg/carfax"
	"github.com/lotnotify/lotbridge/pkg/resolver"
	"github.com/lotnotify/lotbridge/pkg/telegram"
	"github.com/lotnotify/lotbridge/pkg/valuation"
)

// Pipeline wires the lot processing stages together. Construct once and
// share; Process is safe for concurrent use.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	resolver  resolver.Client
	valuation valuation.Client
	telegram  telegram.Client
	profiles  *profile.Manager
	metrics   *monitoring.Metrics
	dedup     *Deduper
}

// New assembles a pipeline from its dependencies. Resolver and valuation
// clients may be nil, which disables the corresponding enrichment step.
func New(
	cfg *config.Config,
	st store.Store,
	res resolver.Client,
	val valuation.Client,
	tg telegram.Client,
	profiles *profile.Manager,
	metrics *monitoring.Metrics,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		resolver:  res,
		valuation: val,
		telegram:  tg,
		profiles:  profiles,
		metrics:   metrics,
		dedup:     NewDeduper(cfg.Dedup.TTL()),
	}
}

// Result reports what Process did with one event, for the HTTP response
// and for replay logging.
type Result struct {
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`

	LotID     string `json:"lotId,omitempty"`
	Title     string `json:"title,omitempty"`
	State     string `json:"state,omitempty"`
	PriceLine string `json:"price,omitempty"`
	Delivered bool   `json:"delivered,omitempty"`
}

// Process runs one webhook body through every stage. It returns an error
// only when notification delivery fails; everything upstream is absorbed
// into a skip outcome so a malformed event can never poison the webhook.
func (p *Pipeline) Process(ctx context.Context, body []byte) (Result, error) {
	return p.process(ctx, body, true)
}

// Replay reprocesses an already-stored payload. The RAW stage is not
// recorded again, so repeated replays do not compound the raw-event log.
func (p *Pipeline) Replay(ctx context.Context, body []byte) (Result, error) {
	return p.process(ctx, body, false)
}

func (p *Pipeline) process(ctx context.Context, body []byte, recordRaw bool) (Result, error) {
	input := lot.Normalize(body)

	source := input.Source
	if source == "" {
		source = "unknown"
	}
	p.metrics.LotsReceived.WithLabelValues(source).Inc()

	if !input.HasLot() {
		p.metrics.Skipped.WithLabelValues("NO_LOT").Inc()
		return Result{OK: true, Skipped: true, Reason: "NO_LOT"}, nil
	}

	if input.URL == "" {
		input.URL = fmt.Sprintf(p.cfg.Listing.BaseURL, input.LotID)
	}

	active := p.profiles.Active()
	rec := p.buildRecord(input, active)

	if recordRaw {
		p.record(ctx, rec, model.StageRaw, model.StatusReceived, "", body)
	}

	if p.dedup.Seen(dedupKey(input)) {
		p.metrics.Skipped.WithLabelValues("DUPLICATE").Inc()
		p.record(ctx, rec, model.StageDedup, model.StatusDuplicate, "", nil)
		return Result{OK: true, Skipped: true, Reason: "DUPLICATE", LotID: input.LotID}, nil
	}

	for _, step := range p.enrichSteps() {
		rec = step(ctx, rec)
	}

	rec.DeliveryEstimate = estimateDelivery(
		active.Delivery, rec.Identity.State, cityFromLocation(input.LocationText))
	rec.TargetPrice = targetPrice(active.Economics, rec.MarketValue)
	if n, err := strconv.ParseFloat(input.CurrentPrice, 64); err == nil {
		rec.CarFix = carFix(active.Economics, n, rec.DeliveryEstimate)
	}

	if v := applyFilters(active.Filters, rec); v.Skip {
		p.metrics.Skipped.WithLabelValues(v.Reason).Inc()
		p.record(ctx, rec, model.StageFilter, model.StatusSkip, v.Reason, nil)
		return Result{
			OK: true, Skipped: true, Reason: v.Reason,
			LotID: input.LotID, Title: rec.Identity.Title(), State: rec.Identity.State,
		}, nil
	}

	carfaxLink := ""
	if rec.FullVIN != "" && !lot.MaskedVIN(rec.FullVIN) {
		carfaxLink = carfax.Link(p.cfg.Carfax.Template, rec.FullVIN)
	}
	msg := formatMessage(rec, carfaxLink, input.URL)

	if err := p.telegram.Send(ctx, msg); err != nil {
		p.metrics.DeliveryErrors.Inc()
		p.record(ctx, rec, model.StageTG, model.StatusError, err.Error(), nil)
		zap.L().Error("pipeline: delivery failed",
			zap.String("lot_id", input.LotID),
			zap.Error(err),
		)
		return Result{LotID: input.LotID, Title: rec.Identity.Title(), Error: err.Error()}, err
	}

	p.metrics.Sent.Inc()
	p.record(ctx, rec, model.StageTG, model.StatusSent, "", nil)
	zap.L().Info("pipeline: lot sent",
		zap.String("lot_id", input.LotID),
		zap.String("title", rec.Identity.Title()),
		zap.String("price", rec.Price.Line),
	)

	return Result{
		OK:        true,
		Delivered: true,
		LotID:     input.LotID,
		Title:     rec.Identity.Title(),
		State:     rec.Identity.State,
		PriceLine: rec.Price.Line,
	}, nil
}

// dedupKey identifies a lot-at-a-price for duplicate suppression. Events
// that carry only a listing URL are keyed by the URL instead, so two
// distinct URL-only lots at the same price never collide.
func dedupKey(input model.RawLotInput) string {
	id := input.LotID
	if id == "" {
		id = input.URL
	}
	return id + "|" + input.CurrentPrice
}

// buildRecord derives everything computable without network calls: the
// identity from the slug, the price line, and the locally-known VIN when
// it is already complete.
func (p *Pipeline) buildRecord(input model.RawLotInput, active profile.Profile) model.EnrichedLot {
	stop := lot.DefaultStopWords()
	for _, w := range active.Filters.ExtraStopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	identity := lot.ExtractIdentity(lot.SlugTokens(input.URL), stop)
	if identity.State == "" {
		identity.State = lot.StateFromLocation(input.LocationText)
	}

	rec := model.EnrichedLot{
		Input:    input,
		Identity: identity,
		Price:    lot.ResolvePrice(input.PreviousPrice, input.CurrentPrice),
	}
	if input.MaskedVIN != "" && !lot.MaskedVIN(input.MaskedVIN) {
		rec.FullVIN = input.MaskedVIN
	}
	return rec
}

// record appends one stage outcome to history. Store failures are logged
// and swallowed; losing a history row must not block delivery.
func (p *Pipeline) record(ctx context.Context, rec model.EnrichedLot, stage model.Stage, status model.Status, reason string, payload []byte) {
	entry := model.HistoryEntry{
		LotID:         rec.Input.LotID,
		Source:        rec.Input.Source,
		Stage:         stage,
		Status:        status,
		Reason:        reason,
		Title:         rec.Identity.Title(),
		URL:           rec.Input.URL,
		Photo:         rec.Input.PhotoURL,
		Seller:        rec.Input.SellerName,
		State:         rec.Identity.State,
		VIN:           rec.FullVIN,
		TitleCode:     rec.Input.TitleCode,
		PrimaryDamage: rec.Input.PrimaryDamage,
		SecondDamage:  rec.Input.SecondaryDamage,
		Mileage:       rec.Input.OdometerRaw,
		MileageStatus: rec.Input.OdometerRemark,
		MMR:           rec.MarketValue,
		Delivery:      rec.DeliveryEstimate,
		CarFix:        rec.CarFix,
		TS:            time.Now().UTC(),
	}
	if entry.VIN == "" {
		entry.VIN = rec.Input.MaskedVIN
	}
	if n, err := strconv.ParseFloat(rec.Input.CurrentPrice, 64); err == nil {
		entry.Price = n
	}
	if len(payload) > 0 && json.Valid(payload) {
		entry.Payload = json.RawMessage(payload)
	}

	if _, err := p.store.Append(ctx, entry); err != nil {
		zap.L().Warn("pipeline: history append failed",
			zap.String("lot_id", entry.LotID),
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
	}
}
