package pipeline

import (
	"strings"

	"github.com/lotnotify/lotbridge/internal/model"
	"github.com/lotnotify/lotbridge/internal/profile"
)

// Verdict is the outcome of applying the active profile's filters.
type Verdict struct {
	Skip   bool
	Reason string
}

func pass() Verdict              { return Verdict{} }
func skip(reason string) Verdict { return Verdict{Skip: true, Reason: reason} }

// applyFilters checks a lot against the active profile. The first matching
// rule wins; its reason is recorded in history so operators can see why a
// lot never reached the channel.
func applyFilters(f profile.Filters, rec model.EnrichedLot) Verdict {
	if containsFold(f.BlockedSources, rec.Input.Source) {
		return skip("BLOCKED_SOURCE")
	}

	state := rec.Identity.State
	if containsFold(f.BlockedStates, state) {
		return skip("BLOCKED_STATE")
	}

	if containsFold(f.BlockedTitleTypes, rec.Input.TitleCode) {
		return skip("BLOCKED_TITLE")
	}
	if containsFold(f.BlockedPrimaryDamage, rec.Input.PrimaryDamage) {
		return skip("BLOCKED_PRIMARY_DAMAGE")
	}
	if containsFold(f.BlockedSecondaryDamage, rec.Input.SecondaryDamage) {
		return skip("BLOCKED_SECONDARY_DAMAGE")
	}

	remark := rec.Input.OdometerRemark
	if containsFold(f.BlockedMileageStatus, remark) {
		return skip("BLOCKED_MILEAGE_STATUS")
	}
	if f.Mileage.RequireActual && remark != "" && !strings.EqualFold(remark, "ACTUAL") {
		// FL regularly reports zero-mileage lots without the ACTUAL mark.
		zeroFL := f.Mileage.AllowZeroFL && state == "FL" && rec.Input.OdometerRaw == "0"
		if !zeroFL {
			return skip("NOT_ACTUAL_MILEAGE")
		}
	}

	seller := rec.Input.SellerName
	if seller == "" {
		if containsFold(f.RequireSellerStates, state) && !containsFold(f.HiddenSellerStates, state) {
			return skip("SELLER_REQUIRED")
		}
		return pass()
	}

	if containsFold(f.BlockedSellers, seller) {
		return skip("BLOCKED_SELLER")
	}
	lower := strings.ToLower(seller)
	for _, word := range f.SellerBlacklist {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return skip("SELLER_BLACKLIST")
		}
	}

	return pass()
}

func containsFold(set []string, v string) bool {
	if v == "" {
		return false
	}
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
