package voucher

// ComputeDiscount returns the discount a voucher yields on amount.
// Percentage discounts are capped by MaxDiscount when one is set. The result
// is always clamped to [0, amount]: a voucher can never drive the payable
// total negative, even for malformed percentages above 100.
func ComputeDiscount(v *Voucher, amount float64) float64 {
	var discount float64

	switch v.DiscountType {
	case DiscountPercentage:
		discount = amount * v.DiscountValue / 100
		if v.MaxDiscount > 0 && discount > v.MaxDiscount {
			discount = v.MaxDiscount
		}
	case DiscountFixed:
		discount = v.DiscountValue
	}

	if discount < 0 {
		discount = 0
	}
	if discount > amount {
		discount = amount
	}

	return discount
}
