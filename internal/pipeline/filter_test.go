package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lotnotify/lotbridge/internal/model"
	"github.com/lotnotify/lotbridge/internal/profile"
)

func lotWith(mutate func(*model.EnrichedLot)) model.EnrichedLot {
	rec := model.EnrichedLot{
		Input: model.RawLotInput{
			Source:         "copart",
			LotID:          "12345",
			TitleCode:      "CLEAN",
			SellerName:     "State Farm",
			OdometerRaw:    "45231",
			OdometerRemark: "ACTUAL",
		},
		Identity: model.VehicleIdentity{Year: "2019", Make: "DODGE", Model: "CHARGER", State: "MI"},
	}
	if mutate != nil {
		mutate(&rec)
	}
	return rec
}

func TestApplyFiltersPass(t *testing.T) {
	v := applyFilters(profile.DefaultProfile().Filters, lotWith(nil))
	assert.False(t, v.Skip)
	assert.Empty(t, v.Reason)
}

func TestApplyFiltersBlocklists(t *testing.T) {
	tests := []struct {
		name    string
		filters profile.Filters
		mutate  func(*model.EnrichedLot)
		reason  string
	}{
		{
			name:    "blocked source",
			filters: profile.Filters{BlockedSources: []string{"iaai"}},
			mutate:  func(r *model.EnrichedLot) { r.Input.Source = "IAAI" },
			reason:  "BLOCKED_SOURCE",
		},
		{
			name:    "blocked state",
			filters: profile.Filters{BlockedStates: []string{"CA", "MI"}},
			reason:  "BLOCKED_STATE",
		},
		{
			name:    "blocked title",
			filters: profile.Filters{BlockedTitleTypes: []string{"SALVAGE"}},
			mutate:  func(r *model.EnrichedLot) { r.Input.TitleCode = "Salvage" },
			reason:  "BLOCKED_TITLE",
		},
		{
			name:    "blocked primary damage",
			filters: profile.Filters{BlockedPrimaryDamage: []string{"BURN"}},
			mutate:  func(r *model.EnrichedLot) { r.Input.PrimaryDamage = "BURN" },
			reason:  "BLOCKED_PRIMARY_DAMAGE",
		},
		{
			name:    "blocked secondary damage",
			filters: profile.Filters{BlockedSecondaryDamage: []string{"WATER/FLOOD"}},
			mutate:  func(r *model.EnrichedLot) { r.Input.SecondaryDamage = "WATER/FLOOD" },
			reason:  "BLOCKED_SECONDARY_DAMAGE",
		},
		{
			name:    "blocked mileage status",
			filters: profile.Filters{BlockedMileageStatus: []string{"EXEMPT"}},
			mutate:  func(r *model.EnrichedLot) { r.Input.OdometerRemark = "EXEMPT" },
			reason:  "BLOCKED_MILEAGE_STATUS",
		},
		{
			name:    "blocked seller",
			filters: profile.Filters{BlockedSellers: []string{"state farm"}},
			reason:  "BLOCKED_SELLER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := applyFilters(tt.filters, lotWith(tt.mutate))
			assert.True(t, v.Skip)
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}

func TestApplyFiltersMileage(t *testing.T) {
	filters := profile.Filters{
		Mileage: profile.MileageRules{RequireActual: true, AllowZeroFL: true},
	}

	v := applyFilters(filters, lotWith(func(r *model.EnrichedLot) {
		r.Input.OdometerRemark = "NOT ACTUAL"
	}))
	assert.True(t, v.Skip)
	assert.Equal(t, "NOT_ACTUAL_MILEAGE", v.Reason)

	// Missing remark is tolerated.
	v = applyFilters(filters, lotWith(func(r *model.EnrichedLot) {
		r.Input.OdometerRemark = ""
	}))
	assert.False(t, v.Skip)

	// Zero-mileage FL exception.
	v = applyFilters(filters, lotWith(func(r *model.EnrichedLot) {
		r.Identity.State = "FL"
		r.Input.OdometerRaw = "0"
		r.Input.OdometerRemark = "EXEMPT"
	}))
	assert.False(t, v.Skip)

	// Same reading outside FL is still rejected.
	v = applyFilters(filters, lotWith(func(r *model.EnrichedLot) {
		r.Input.OdometerRaw = "0"
		r.Input.OdometerRemark = "EXEMPT"
	}))
	assert.True(t, v.Skip)
}

func TestApplyFiltersSellerRules(t *testing.T) {
	filters := profile.Filters{
		RequireSellerStates: []string{"MI"},
		HiddenSellerStates:  []string{"OH"},
	}

	v := applyFilters(filters, lotWith(func(r *model.EnrichedLot) {
		r.Input.SellerName = ""
	}))
	assert.True(t, v.Skip)
	assert.Equal(t, "SELLER_REQUIRED", v.Reason)

	// Hidden-seller states tolerate the missing name.
	v = applyFilters(profile.Filters{
		RequireSellerStates: []string{"OH"},
		HiddenSellerStates:  []string{"OH"},
	}, lotWith(func(r *model.EnrichedLot) {
		r.Input.SellerName = ""
		r.Identity.State = "OH"
	}))
	assert.False(t, v.Skip)

	v = applyFilters(profile.Filters{SellerBlacklist: []string{"rental"}}, lotWith(func(r *model.EnrichedLot) {
		r.Input.SellerName = "ACME RENTAL FLEET"
	}))
	assert.True(t, v.Skip)
	assert.Equal(t, "SELLER_BLACKLIST", v.Reason)
}
