package model

import (
	"encoding/json"
	"time"
)

// Stage identifies a pipeline stage in the event history.
type Stage string

const (
	StageRaw    Stage = "RAW"
	StageDedup  Stage = "DEDUP"
	StageFilter Stage = "FILTER"
	StageTG     Stage = "TG"
)

// Status is the outcome recorded for a stage.
type Status string

const (
	StatusReceived  Status = "RECEIVED"
	StatusSent      Status = "SENT"
	StatusSkip      Status = "SKIP"
	StatusDuplicate Status = "DUPLICATE"
	StatusError     Status = "ERROR"
)

// RawLotInput is the normalized view of an inbound webhook event. Every
// field is optional; absence is an empty string, never an error. Numeric
// fields stay raw and are coerced at the point of use.
type RawLotInput struct {
	Source          string `json:"source"`
	LotID           string `json:"lot_id"`
	URL             string `json:"url"`
	MaskedVIN       string `json:"masked_vin"`
	OdometerRaw     string `json:"odometer_raw"`
	OdometerRemark  string `json:"odometer_remark"`
	CurrentPrice    string `json:"current_price"`
	PreviousPrice   string `json:"previous_price"`
	LocationText    string `json:"location_text"`
	TitleCode       string `json:"title_code"`
	SellerName      string `json:"seller_name"`
	PhotoURL        string `json:"photo_url"`
	PrimaryDamage   string `json:"primary_damage,omitempty"`
	SecondaryDamage string `json:"secondary_damage,omitempty"`
	Timestamp       string `json:"ts,omitempty"`

	// RawBody preserves an inbound body that could not be parsed as JSON.
	RawBody string `json:"raw_body,omitempty"`
}

// HasLot reports whether the event carries a usable lot reference.
func (r RawLotInput) HasLot() bool {
	return r.LotID != "" || r.URL != ""
}

// VehicleIdentity is derived from the listing URL slug. Make and Model are
// only populated when Year was found.
type VehicleIdentity struct {
	Year  string `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
	State string `json:"state"`
}

// Title joins the non-empty identity parts into a display title, e.g.
// "2019 DODGE CHARGER". Empty when no year was extracted.
func (v VehicleIdentity) Title() string {
	out := ""
	for _, part := range []string{v.Year, v.Make, v.Model} {
		if part == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += part
	}
	return out
}

// PriceSummary is the resolved price view of a lot.
type PriceSummary struct {
	Current     string  `json:"current"`
	Previous    string  `json:"previous"`
	DropPercent float64 `json:"drop_percent,omitempty"`
	HasDrop     bool    `json:"has_drop,omitempty"`
	Line        string  `json:"line"`
}

// EnrichedLot extends the raw input with the derived identity and any
// fields resolved by external services. Created once per inbound event and
// never mutated after formatting.
type EnrichedLot struct {
	Input    RawLotInput     `json:"input"`
	Identity VehicleIdentity `json:"identity"`
	Price    PriceSummary    `json:"price"`

	FullVIN          string  `json:"full_vin,omitempty"`
	ResolvedOdometer string  `json:"resolved_odometer,omitempty"`
	MarketValue      float64 `json:"market_value,omitempty"`
	TargetPrice      float64 `json:"target_price,omitempty"`

	DeliveryEstimate float64 `json:"delivery_estimate,omitempty"`
	CarFix           float64 `json:"car_fix,omitempty"`
}

// Located returns the best-known location: slug-derived state, then the
// free-text location field, then "n/a".
func (e EnrichedLot) Located() string {
	if e.Identity.State != "" {
		return e.Identity.State
	}
	if e.Input.LocationText != "" {
		return e.Input.LocationText
	}
	return "n/a"
}

// HistoryEntry is one row of the append-only event log backing the
// operator UI and replay.
type HistoryEntry struct {
	ID            string          `json:"id"`
	LotID         string          `json:"lotId"`
	Source        string          `json:"source,omitempty"`
	Stage         Stage           `json:"stage"`
	Status        Status          `json:"status"`
	Reason        string          `json:"reason,omitempty"`
	Title         string          `json:"title,omitempty"`
	URL           string          `json:"url,omitempty"`
	Photo         string          `json:"photo,omitempty"`
	Seller        string          `json:"seller,omitempty"`
	State         string          `json:"state,omitempty"`
	VIN           string          `json:"vin,omitempty"`
	TitleCode     string          `json:"titleCode,omitempty"`
	PrimaryDamage string          `json:"dd,omitempty"`
	SecondDamage  string          `json:"sdd,omitempty"`
	Mileage       string          `json:"mileage,omitempty"`
	MileageStatus string          `json:"mileageStatus,omitempty"`
	Price         float64         `json:"price,omitempty"`
	MMR           float64         `json:"mmr,omitempty"`
	Delivery      float64         `json:"delivery,omitempty"`
	CarFix        float64         `json:"carFix,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	TS            time.Time       `json:"ts"`
}
