package checkout

import "storefront/internal/pricing"

type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	Total       float64 `json:"total"`
}

func ComputeTotal(subtotal float64, region string) Totals {
	fee := pricing.DeliveryFee(region)
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       pricing.Sum(subtotal, fee),
	}
}
