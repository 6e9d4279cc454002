package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotnotify/lotbridge/internal/lot"
	"github.com/lotnotify/lotbridge/internal/model"
)

func enrichedCharger() model.EnrichedLot {
	return model.EnrichedLot{
		Input: model.RawLotInput{
			Source:         "copart",
			LotID:          "12345",
			URL:            "https://www.copart.com/lot/12345/clean-title-2019-dodge-charger-scat-pack-mi-detroit",
			SellerName:     "State Farm",
			TitleCode:      "CLEAN",
			OdometerRaw:    "45231",
			OdometerRemark: "ACTUAL",
			PhotoURL:       "https://img.example/12345.jpg",
		},
		Identity: model.VehicleIdentity{Year: "2019", Make: "DODGE", Model: "CHARGER", State: "MI"},
		Price: model.PriceSummary{
			Line: "$11,000 => $9,500  🔻13.6%",
		},
		FullVIN:          "2C3CDXGJ5KH512345",
		MarketValue:      18500,
		TargetPrice:      12645,
		DeliveryEstimate: 900,
		CarFix:           13400,
	}
}

func TestFormatMessage(t *testing.T) {
	rec := enrichedCharger()
	msg := formatMessage(rec, "https://www.carfaxonline.com/vhr/2C3CDXGJ5KH512345", rec.Input.URL)

	lines := strings.Split(msg.Text, "\n")
	assert.Equal(t, "🚗 <b>2019 DODGE CHARGER</b>", lines[0])
	assert.Contains(t, lines, "Name: State Farm")
	assert.Contains(t, lines, "Price: $11,000 => $9,500  🔻13.6% ( MMR $18,500 )")
	assert.Contains(t, lines, "Target: $12,645")
	assert.Contains(t, lines, "Located: MI")
	assert.Contains(t, lines, "Title: CLEAN")
	assert.Contains(t, lines, "Odo: 45,231 (ACTUAL)")
	assert.Contains(t, lines, "Delivery: $900")
	assert.Contains(t, lines, "CAR+FIX: $13,400")
	assert.Contains(t, lines, "⚡ NEW LOT (copart)")

	assert.Equal(t, rec.Input.PhotoURL, msg.PhotoURL)
	// With a photo, the listing link lives only on the button row.
	assert.NotContains(t, msg.Text, rec.Input.URL)

	require.Len(t, msg.Buttons, 1)
	require.Len(t, msg.Buttons[0], 2)
	assert.Equal(t, "CARFAX", msg.Buttons[0][0].Text)
	assert.Equal(t, "COPART", msg.Buttons[0][1].Text)
}

func TestFormatMessageSparse(t *testing.T) {
	rec := model.EnrichedLot{
		Input: model.RawLotInput{LotID: "777", URL: "https://www.copart.com/lot/777"},
		Price: lot.ResolvePrice("", ""),
	}
	msg := formatMessage(rec, "", rec.Input.URL)

	lines := strings.Split(msg.Text, "\n")
	assert.Equal(t, "🚗 <b>NEW LOT</b>", lines[0])
	assert.Contains(t, lines, "Price: n/a ( MMR n/a )")
	assert.Contains(t, lines, "Located: n/a")
	assert.NotContains(t, msg.Text, "Target:")
	assert.NotContains(t, msg.Text, "Odo:")

	// No photo: the listing link is appended to the text.
	assert.Equal(t, "https://www.copart.com/lot/777", lines[len(lines)-1])

	// No VIN: only the listing button remains.
	require.Len(t, msg.Buttons, 1)
	require.Len(t, msg.Buttons[0], 1)
	assert.Equal(t, "COPART", msg.Buttons[0][0].Text)
}

func TestFormatMessageEscapesHTML(t *testing.T) {
	rec := enrichedCharger()
	rec.Input.SellerName = "Smith & Sons <LLC>"
	msg := formatMessage(rec, "", rec.Input.URL)

	assert.Contains(t, msg.Text, "Name: Smith &amp; Sons &lt;LLC&gt;")
	assert.NotContains(t, msg.Text, "<LLC>")
}

func TestFormatMessageIdempotent(t *testing.T) {
	rec := enrichedCharger()
	first := formatMessage(rec, "https://www.carfaxonline.com/vhr/2C3CDXGJ5KH512345", rec.Input.URL)
	second := formatMessage(rec, "https://www.carfaxonline.com/vhr/2C3CDXGJ5KH512345", rec.Input.URL)
	assert.Equal(t, first, second)
}
