// Package lot implements normalization of inbound auction-lot events:
// alias-chain field mapping, listing-slug tokenization, year-anchored
// vehicle identity extraction, and price resolution.
package lot

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/lotnotify/lotbridge/internal/model"
)

// Alias chains per logical field, in resolution order. Upstream scrapers
// disagree on key names, and some nest the payload under "data".
var fieldAliases = map[string][]string{
	"source":    {"source", "src", "data.source"},
	"lot_id":    {"lot_id", "lotId", "lot", "data.lot_id"},
	"url":       {"url", "lot_url", "link", "data.url"},
	"vin":       {"fv", "vin", "masked_vin", "data.fv"},
	"odometer":  {"orr", "odometer", "odo", "data.orr"},
	"odo_mark":  {"ord", "odometer_remark", "data.ord"},
	"price":     {"bnp", "buy_now_price", "price", "data.bnp"},
	"old_price": {"old_bnp", "previous_price", "old_price", "data.old_bnp"},
	"location":  {"yn", "location", "yard", "data.yn"},
	"title":     {"STT", "title", "title_code", "data.STT"},
	"seller":    {"name", "scn", "seller", "data.name"},
	"photo":     {"photo_url", "photo", "image_url", "data.photo_url"},
	"dd":        {"dd", "primary_damage"},
	"sdd":       {"sdd", "secondary_damage"},
	"ts":        {"ts", "timestamp"},
}

// Normalize maps an arbitrarily-shaped JSON body onto a RawLotInput. A body
// that is itself a JSON-encoded string is unwrapped once. A body that cannot
// be parsed as an object is preserved verbatim under RawBody rather than
// failing; no field is required at this stage.
func Normalize(body []byte) model.RawLotInput {
	obj, ok := parseObject(body)
	if !ok {
		return model.RawLotInput{RawBody: strings.TrimSpace(string(body))}
	}

	return model.RawLotInput{
		Source:          pick(obj, fieldAliases["source"]),
		LotID:           pick(obj, fieldAliases["lot_id"]),
		URL:             pick(obj, fieldAliases["url"]),
		MaskedVIN:       pick(obj, fieldAliases["vin"]),
		OdometerRaw:     pick(obj, fieldAliases["odometer"]),
		OdometerRemark:  pick(obj, fieldAliases["odo_mark"]),
		CurrentPrice:    pick(obj, fieldAliases["price"]),
		PreviousPrice:   pick(obj, fieldAliases["old_price"]),
		LocationText:    pick(obj, fieldAliases["location"]),
		TitleCode:       pick(obj, fieldAliases["title"]),
		SellerName:      strings.TrimSpace(pick(obj, fieldAliases["seller"])),
		PhotoURL:        strings.TrimSpace(pick(obj, fieldAliases["photo"])),
		PrimaryDamage:   pick(obj, fieldAliases["dd"]),
		SecondaryDamage: pick(obj, fieldAliases["sdd"]),
		Timestamp:       pick(obj, fieldAliases["ts"]),
	}
}

// parseObject decodes the body into a key-value map, unwrapping one level
// of JSON-string encoding if needed.
func parseObject(body []byte) (map[string]any, bool) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}

	if s, ok := v.(string); ok {
		inner := json.NewDecoder(strings.NewReader(s))
		inner.UseNumber()
		if err := inner.Decode(&v); err != nil {
			return nil, false
		}
	}

	obj, ok := v.(map[string]any)
	return obj, ok
}

// pick returns the first alias present in the map with a non-empty value.
// Aliases containing a dot descend one level of nesting.
func pick(obj map[string]any, aliases []string) string {
	for _, alias := range aliases {
		var val any
		var found bool

		if prefix, rest, nested := strings.Cut(alias, "."); nested {
			if sub, ok := obj[prefix].(map[string]any); ok {
				val, found = sub[rest]
			}
		} else {
			val, found = obj[alias]
		}

		if !found {
			continue
		}
		if s := stringify(val); s != "" {
			return s
		}
	}
	return ""
}

// stringify renders a JSON scalar as a string. Numbers keep their raw
// representation so price fields survive untouched until coercion.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
