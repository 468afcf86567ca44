package service

import "math"

// The platform keeps a tiered convenience fee on every settled booking:
// a flat component plus a percentage of the amount, with a hard cap on
// the largest tier.
const maxPlatformFee = 300.0

// CalculatePlatformFee returns the platform's cut of a booking amount.
// Amounts at tier edges belong to the lower tier.
func CalculatePlatformFee(amount float64) float64 {
	if amount <= 0 {
		return 0
	}

	var fee float64
	switch {
	case amount <= 500:
		fee = 20 + amount*0.06
	case amount <= 1500:
		fee = 30 + amount*0.07
	case amount <= 3000:
		fee = 40 + amount*0.06
	default:
		fee = 60 + amount*0.04
		if fee > maxPlatformFee {
			fee = maxPlatformFee
		}
	}

	return round2(fee)
}

// BuyerTotal returns what the buyer is charged for a booking amount:
// the ticket amount plus the platform fee surcharge.
func BuyerTotal(amount float64) float64 {
	return round2(amount + CalculatePlatformFee(amount))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
