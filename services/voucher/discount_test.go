package voucher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeDiscountPercentage(t *testing.T) {
	v := Voucher{DiscountType: DiscountPercentage, DiscountValue: 20}
	require.Equal(t, float64(20000), ComputeDiscount(&v, 100000))
}

func TestComputeDiscountPercentageCappedByMaxDiscount(t *testing.T) {
	v := Voucher{DiscountType: DiscountPercentage, DiscountValue: 50, MaxDiscount: 30000}
	require.Equal(t, float64(30000), ComputeDiscount(&v, 100000))
}

func TestComputeDiscountFixed(t *testing.T) {
	v := Voucher{DiscountType: DiscountFixed, DiscountValue: 25000}
	require.Equal(t, float64(25000), ComputeDiscount(&v, 100000))
}

func TestComputeDiscountNeverExceedsAmount(t *testing.T) {
	fixed := Voucher{DiscountType: DiscountFixed, DiscountValue: 150000}
	require.Equal(t, float64(80000), ComputeDiscount(&fixed, 80000))

	// Malformed >100% percentage: 150% of 100000 would be 150000,
	// clamped so the final amount bottoms out at zero.
	pct := Voucher{DiscountType: DiscountPercentage, DiscountValue: 150}
	require.Equal(t, float64(100000), ComputeDiscount(&pct, 100000))
}

func TestComputeDiscountNeverNegative(t *testing.T) {
	v := Voucher{DiscountType: DiscountFixed, DiscountValue: -500}
	require.Equal(t, float64(0), ComputeDiscount(&v, 80000))
}
