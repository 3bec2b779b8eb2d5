package voucher

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func wellFormed() Voucher {
	return Voucher{
		Code:          "DENTAL7X2K",
		Title:         "Promo Tambal Gigi",
		DiscountType:  DiscountPercentage,
		DiscountValue: 10,
		ExpiryDate:    time.Now().Add(24 * time.Hour),
	}
}

func TestIsCorrupt(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Voucher)
		corrupt bool
	}{
		{"well formed", func(v *Voucher) {}, false},
		{"empty code", func(v *Voucher) { v.Code = "" }, true},
		{"sentinel code", func(v *Voucher) { v.Code = "CORRUPT" }, true},
		{"empty title", func(v *Voucher) { v.Title = "  " }, true},
		{"undefined title", func(v *Voucher) { v.Title = "undefined" }, true},
		{"null title", func(v *Voucher) { v.Title = "null" }, true},
		{"nan discount", func(v *Voucher) { v.DiscountValue = math.NaN() }, true},
		{"inf discount", func(v *Voucher) { v.DiscountValue = math.Inf(1) }, true},
		{"zero expiry", func(v *Voucher) { v.ExpiryDate = time.Time{} }, true},
		{"expired but shaped", func(v *Voucher) { v.ExpiryDate = time.Now().Add(-time.Hour) }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := wellFormed()
			tc.mutate(&v)
			require.Equal(t, tc.corrupt, IsCorrupt(&v))
		})
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	broken := wellFormed()
	broken.Code = ""

	input := []Voucher{wellFormed(), broken, wellFormed()}

	once := Sanitize(input)
	require.Len(t, once, 2)

	twice := Sanitize(once)
	require.Equal(t, once, twice)
}
