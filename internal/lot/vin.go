package lot

import "strings"

// FullVINLength is the canonical VIN length; anything shorter is treated
// as truncated.
const FullVINLength = 17

// MaskedVIN reports whether a VIN is absent, redacted with placeholder
// characters, or shorter than a full VIN. Such values cannot key a history
// report and trigger enrichment.
func MaskedVIN(vin string) bool {
	vin = strings.TrimSpace(vin)
	if len(vin) < FullVINLength {
		return true
	}
	return strings.ContainsAny(vin, "*#?")
}
