// Package carfax builds vehicle-history report links.
package carfax

import (
	"fmt"
	"net/url"
)

// Link renders the history-report URL for a VIN using the configured
// template (one %s placeholder). Returns "" for an empty VIN: masked or
// unresolved VINs cannot key a report.
func Link(template, vin string) string {
	if vin == "" || template == "" {
		return ""
	}
	return fmt.Sprintf(template, url.PathEscape(vin))
}
