package pipeline

import (
	"math"
	"strings"

	"github.com/lotnotify/lotbridge/internal/profile"
)

// Delivery is estimated to the Orlando yard: air distance from the lot's
// state, inflated by a road factor, times the operator's per-mile
// multiplier. Cities with negotiated carrier prices override the formula.
const (
	orlandoLat = 28.5384
	orlandoLon = -81.3789

	roadFactor       = 1.2
	minDeliveryPrice = 350
)

// stateCentroids holds approximate geographic centers for the lower-48
// states plus DC, AK, and HI.
var stateCentroids = map[string][2]float64{
	"AL": {32.81, -86.79}, "AK": {61.37, -152.40}, "AZ": {33.73, -111.43},
	"AR": {34.97, -92.37}, "CA": {36.12, -119.68}, "CO": {39.06, -105.31},
	"CT": {41.60, -72.76}, "DE": {39.32, -75.51}, "FL": {27.77, -81.69},
	"GA": {33.04, -83.64}, "HI": {21.09, -157.50}, "ID": {44.24, -114.48},
	"IL": {40.35, -88.99}, "IN": {39.85, -86.26}, "IA": {42.01, -93.21},
	"KS": {38.53, -96.73}, "KY": {37.67, -84.67}, "LA": {31.17, -91.87},
	"ME": {44.69, -69.38}, "MD": {39.06, -76.80}, "MA": {42.23, -71.53},
	"MI": {43.33, -84.54}, "MN": {45.69, -93.90}, "MS": {32.74, -89.68},
	"MO": {38.46, -92.29}, "MT": {46.92, -110.45}, "NE": {41.13, -98.27},
	"NV": {38.31, -117.06}, "NH": {43.45, -71.56}, "NJ": {40.30, -74.52},
	"NM": {34.84, -106.25}, "NY": {42.17, -74.95}, "NC": {35.63, -79.81},
	"ND": {47.53, -99.78}, "OH": {40.39, -82.76}, "OK": {35.57, -96.93},
	"OR": {44.57, -122.07}, "PA": {40.59, -77.21}, "RI": {41.68, -71.51},
	"SC": {33.86, -80.95}, "SD": {44.30, -99.44}, "TN": {35.75, -86.69},
	"TX": {31.05, -97.56}, "UT": {40.15, -111.86}, "VT": {44.05, -72.71},
	"VA": {37.77, -78.17}, "WA": {47.40, -121.49}, "WV": {38.49, -80.95},
	"WI": {44.27, -89.62}, "WY": {42.76, -107.30}, "DC": {38.90, -77.01},
}

// estimateDelivery prices delivery for a lot located in the given state
// and city. Returns 0 when the state is unknown, the multiplier unset, or
// nothing can be estimated.
func estimateDelivery(d profile.Delivery, state, city string) float64 {
	if city != "" {
		if fixed, ok := d.Fixed[strings.ToUpper(city)]; ok && fixed.Price > 0 {
			return fixed.Price
		}
	}

	centroid, ok := stateCentroids[strings.ToUpper(state)]
	if !ok || d.Multiplier <= 0 {
		return 0
	}

	miles := haversineMiles(centroid[0], centroid[1], orlandoLat, orlandoLon) * roadFactor
	price := miles * d.Multiplier

	if price < 600 {
		price = math.Round(price/50) * 50
	} else {
		price = math.Round(price/100) * 100
	}
	if price < minDeliveryPrice {
		price = minDeliveryPrice
	}
	return price
}

// cityFromLocation pulls the city part out of a "MI - Detroit" style
// location string.
func cityFromLocation(text string) string {
	if _, after, ok := strings.Cut(text, "-"); ok {
		return strings.ToUpper(strings.TrimSpace(after))
	}
	return ""
}

func haversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusMiles = 3958.8

	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(a))
}
