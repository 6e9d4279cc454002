package pipeline

import (
	"fmt"
	"strings"

	"github.com/lotnotify/lotbridge/internal/lot"
	"github.com/lotnotify/lotbridge/internal/model"
	"github.com/lotnotify/lotbridge/pkg/telegram"
)

// formatMessage assembles the notification for a lot. Pure: the same
// record always yields the same message, so repeated webhook deliveries
// produce byte-identical notifications.
//
// With a photo the text becomes the caption; otherwise the listing link is
// appended inline, since link buttons under photo captions preview
// unreliably in some clients.
func formatMessage(rec model.EnrichedLot, carfaxLink, listingLink string) telegram.Message {
	var lines []string

	if title := rec.Identity.Title(); title != "" {
		lines = append(lines, fmt.Sprintf("🚗 <b>%s</b>", escape(title)))
	} else {
		lines = append(lines, "🚗 <b>NEW LOT</b>")
	}

	if rec.Input.SellerName != "" {
		lines = append(lines, "Name: "+escape(rec.Input.SellerName))
	}

	mmr := "n/a"
	if rec.MarketValue > 0 {
		mmr = lot.Money(fmt.Sprintf("%.0f", rec.MarketValue))
	}
	lines = append(lines, fmt.Sprintf("Price: %s ( MMR %s )", rec.Price.Line, mmr))

	if rec.TargetPrice > 0 {
		lines = append(lines, "Target: "+lot.Money(fmt.Sprintf("%.0f", rec.TargetPrice)))
	}

	lines = append(lines, "Located: "+escape(rec.Located()))

	if rec.Input.TitleCode != "" {
		lines = append(lines, "Title: "+escape(rec.Input.TitleCode))
	}

	if odoLine := formatOdometer(rec); odoLine != "" {
		lines = append(lines, "Odo: "+odoLine)
	}

	if rec.DeliveryEstimate > 0 {
		lines = append(lines, "Delivery: "+lot.Money(fmt.Sprintf("%.0f", rec.DeliveryEstimate)))
	}
	if rec.CarFix > 0 {
		lines = append(lines, "CAR+FIX: "+lot.Money(fmt.Sprintf("%.0f", rec.CarFix)))
	}

	if rec.Input.Source != "" {
		lines = append(lines, fmt.Sprintf("⚡ NEW LOT (%s)", escape(rec.Input.Source)))
	}

	text := strings.Join(lines, "\n")
	if rec.Input.PhotoURL == "" {
		text += "\n" + listingLink
	}

	var row []telegram.Button
	if carfaxLink != "" {
		row = append(row, telegram.Button{Text: "CARFAX", URL: carfaxLink})
	}
	row = append(row, telegram.Button{Text: "COPART", URL: listingLink})

	return telegram.Message{
		Text:     text,
		PhotoURL: rec.Input.PhotoURL,
		Buttons:  [][]telegram.Button{row},
	}
}

// formatOdometer renders the odometer value with its remark, preferring
// the locally-reported reading over the resolved one:
// "45,231 (NOT ACTUAL)".
func formatOdometer(rec model.EnrichedLot) string {
	value := lot.Thousands(rec.Input.OdometerRaw)
	if value == "" {
		value = rec.Input.OdometerRaw
	}
	if value == "" {
		value = rec.ResolvedOdometer
	}

	remark := ""
	if rec.Input.OdometerRemark != "" {
		remark = " (" + escape(rec.Input.OdometerRemark) + ")"
	}

	if value == "" && remark == "" {
		return ""
	}
	return strings.TrimSpace(escape(value) + remark)
}

// escape sanitizes untrusted text for HTML parse mode. Sellers and
// location strings come straight from the upstream scraper.
func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
