package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lotnotify/lotbridge/internal/profile"
)

func TestTargetPrice(t *testing.T) {
	eco := profile.Economics{
		MMRMultiplier: 0.97,
		FixedCosts:    1300,
		RepairCost:    3000,
		ProfitBuffer:  1000,
	}

	assert.InDelta(t, 14240, targetPrice(eco, 20000), 0.01)
	assert.Equal(t, 0.0, targetPrice(eco, 0))
	assert.Equal(t, 0.0, targetPrice(eco, -500))

	// A cheap lot where costs exceed discounted MMR clamps to zero.
	assert.Equal(t, 0.0, targetPrice(eco, 5000))
}

func TestCarFix(t *testing.T) {
	eco := profile.Economics{RepairCost: 3000}

	assert.Equal(t, 13350.0, carFix(eco, 9500, 850))
	assert.Equal(t, 12500.0, carFix(eco, 9500, 0))
	assert.Equal(t, 0.0, carFix(eco, 0, 850))
}
