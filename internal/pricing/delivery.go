package pricing

import "strings"

type Tier int

const (
	TierStandard Tier = iota
	TierNearby
	TierHome
)

const (
	HomeFee     = 10000.0
	NearbyFee   = 23000.0
	StandardFee = 27000.0

	homeRegion = "lagos"
)

// South West states around Lagos, billed at the mid tier.
var nearbyRegions = map[string]struct{}{
	"ogun":  {},
	"oyo":   {},
	"osun":  {},
	"ondo":  {},
	"ekiti": {},
	"edo":   {},
}

func normalizeRegion(region string) string {
	return strings.ToLower(strings.TrimSpace(region))
}

// TierFor never fails: unknown and empty regions fall through to TierStandard.
func TierFor(region string) Tier {
	normalized := normalizeRegion(region)
	if normalized == homeRegion {
		return TierHome
	}
	if _, ok := nearbyRegions[normalized]; ok {
		return TierNearby
	}
	return TierStandard
}

func (t Tier) Fee() float64 {
	switch t {
	case TierHome:
		return HomeFee
	case TierNearby:
		return NearbyFee
	default:
		return StandardFee
	}
}

func (t Tier) Label() string {
	switch t {
	case TierHome:
		return "Lagos Delivery"
	case TierNearby:
		return "Nearby States Delivery"
	default:
		return "Standard Delivery"
	}
}

// DeliveryFee maps a delivery region to its fee.
func DeliveryFee(region string) float64 {
	return TierFor(region).Fee()
}

type FeeInfo struct {
	Fee       float64 `json:"fee"`
	Label     string  `json:"label"`
	Formatted string  `json:"formatted"`
}

func Info(region string) FeeInfo {
	tier := TierFor(region)
	return FeeInfo{
		Fee:       tier.Fee(),
		Label:     tier.Label(),
		Formatted: FormatNaira(tier.Fee()),
	}
}
